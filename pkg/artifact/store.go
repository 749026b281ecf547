package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	domainApod "github.com/AzielCF/az-apod/domains/apod"
	pkgError "github.com/AzielCF/az-apod/pkg/error"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DescriptionFile holds the last caption block, shared by every artifact.
const DescriptionFile = "DESCR.TXT"

const tempPrefix = ".tmp-"

// FileStore keeps artifacts as plain files in one directory. It is the only
// writer of that directory; every write goes through a temp file and a rename
// so readers never see a partial file.
type FileStore struct {
	dir string
	now func() time.Time
}

// NewFileStore opens (and creates if needed) the cache directory.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Lookup reports whether name exists and is fresh under policy.
func (s *FileStore) Lookup(name string, policy FreshnessPolicy) (domainApod.Artifact, bool, error) {
	p := s.path(name)
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return domainApod.Artifact{}, false, nil
	}
	if err != nil {
		return domainApod.Artifact{}, false, fmt.Errorf("failed to stat artifact %s: %w", name, err)
	}
	if info.IsDir() || !policy.Fresh(info, s.now()) {
		return domainApod.Artifact{}, false, nil
	}
	return domainApod.Artifact{Name: name, Path: p, Size: info.Size()}, true, nil
}

// Read returns the artifact bytes.
func (s *FileStore) Read(a domainApod.Artifact) ([]byte, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", a.Name, err)
	}
	return data, nil
}

// Materialize runs conv into a temp file and renames the result into place
// once it exists, is non-empty and has exactly the size mode requires.
// Nothing is left behind on failure.
func (s *FileStore) Materialize(ctx context.Context, name string, mode domainApod.ModeSpec, sourceURL string, conv domainApod.Converter) (domainApod.Artifact, error) {
	tmp := s.tempPath(name)
	defer os.Remove(tmp)

	if err := conv.Convert(ctx, sourceURL, mode.Token, tmp); err != nil {
		var generic pkgError.GenericError
		if errors.As(err, &generic) {
			return domainApod.Artifact{}, fmt.Errorf("convert %s: %w", name, err)
		}
		return domainApod.Artifact{}, pkgError.ConversionError(fmt.Sprintf("convert %s: %v", name, err))
	}

	info, err := os.Stat(tmp)
	if err != nil || info.Size() == 0 {
		return domainApod.Artifact{}, pkgError.ConversionError(fmt.Sprintf("converter produced no output for %s", name))
	}
	if info.Size() != int64(mode.Size()) {
		return domainApod.Artifact{}, pkgError.IntegrityError(fmt.Sprintf("converter produced %d bytes for %s, mode %s needs %d", info.Size(), name, mode.Token, mode.Size()))
	}

	final := s.path(name)
	if err := os.Rename(tmp, final); err != nil {
		return domainApod.Artifact{}, fmt.Errorf("failed to publish artifact %s: %w", name, err)
	}

	logrus.Debugf("[CACHE] materialized %s (%d bytes) from %s", name, info.Size(), sourceURL)
	return domainApod.Artifact{Name: name, Path: final, Size: info.Size()}, nil
}

// Evict removes an artifact, e.g. after it failed an integrity check.
func (s *FileStore) Evict(name string) error {
	err := os.Remove(s.path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to evict artifact %s: %w", name, err)
	}
	return nil
}

// WriteFile atomically replaces name with data.
func (s *FileStore) WriteFile(name string, data []byte) error {
	tmp := s.tempPath(name)
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to publish %s: %w", name, err)
	}
	return nil
}

// ReadFile reads name; a missing file is reported with ok=false.
func (s *FileStore) ReadFile(name string) (data []byte, ok bool, err error) {
	data, err = os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, true, nil
}

// FileInfo describes one cached file.
type FileInfo struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// List returns every published artifact, oldest first. Temp files and the
// description file are not included.
func (s *FileStore) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache directory: %w", err)
	}
	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || e.Name() == DescriptionFile {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:    e.Name(),
			Path:    filepath.Join(s.dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// RemoveStaleTemps deletes temp files older than maxAge, left over from
// fills that were interrupted by a crash.
func (s *FileStore) RemoveStaleTemps(maxAge time.Duration) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}
	cutoff := s.now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if os.Remove(filepath.Join(s.dir, e.Name())) == nil {
			removed++
		}
	}
	return removed
}

// tempPath keeps the artifact suffix at the end of the name so a converter
// that looks at the extension still sees the right one.
func (s *FileStore) tempPath(name string) string {
	return filepath.Join(s.dir, tempPrefix+uuid.NewString()+"-"+filepath.Base(name))
}
