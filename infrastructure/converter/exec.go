// Package converter runs the external raster converter that turns a source
// image URL into an Atari screen file.
package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	pkgError "github.com/AzielCF/az-apod/pkg/error"
	"github.com/sirupsen/logrus"
)

// Config holds the converter invocation settings.
type Config struct {
	// Path is the converter executable, called as: Path <url> <mode> <output>.
	Path string
	// WorkDir is the directory the converter runs in. Empty means the
	// server's working directory.
	WorkDir string
	// Timeout bounds one conversion.
	Timeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Path:    "./fetch_and_cvt.sh",
		Timeout: 60 * time.Second,
	}
}

// ExecConverter invokes the converter as a child process.
type ExecConverter struct {
	config *Config
}

func NewExecConverter(config *Config) *ExecConverter {
	if config == nil {
		config = DefaultConfig()
	}
	return &ExecConverter{config: config}
}

// Convert runs the converter and succeeds only if outputPath exists and is
// non-empty afterwards. Checking its size against the mode is left to the
// cache store.
func (c *ExecConverter) Convert(ctx context.Context, sourceURL, modeToken, outputPath string) error {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.config.Path, sourceURL, modeToken, outputPath)
	cmd.Dir = c.config.WorkDir
	cmd.WaitDelay = 2 * time.Second
	var stderr bytes.Buffer
	cmd.Stdout = &stderr
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logrus.Warnf("[CONVERTER] %s timed out after %s", sourceURL, time.Since(started).Round(time.Millisecond))
			return pkgError.TimeoutError(fmt.Sprintf("converter timed out on %s", sourceURL))
		}
		logrus.Warnf("[CONVERTER] %s failed: %v, output: %s", sourceURL, err, strings.TrimSpace(stderr.String()))
		return pkgError.ConversionError(fmt.Sprintf("converter failed on %s: %v", sourceURL, err))
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		return pkgError.ConversionError(fmt.Sprintf("converter left no output for %s", sourceURL))
	}

	logrus.Debugf("[CONVERTER] %s mode %s -> %d bytes in %s", sourceURL, modeToken, info.Size(), time.Since(started).Round(time.Millisecond))
	return nil
}

// IsAvailable reports whether the converter executable can be found.
func (c *ExecConverter) IsAvailable() bool {
	path := c.config.Path
	if c.config.WorkDir != "" && strings.Contains(path, "/") && !strings.HasPrefix(path, "/") {
		path = c.config.WorkDir + "/" + path
	}
	_, err := exec.LookPath(path)
	return err == nil
}

func (c *ExecConverter) Path() string {
	return c.config.Path
}
