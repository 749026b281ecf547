package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	coreconfig "github.com/AzielCF/az-apod/core/config"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	fetchMode   string
	fetchDate   string
	fetchSample int
	fetchOutput string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fill the cache for one request and write the response to disk",
	Long: `Runs the same pipeline as GET /?mode=&date=&sample= without starting
the http server. Useful to warm the cache or to test the converter.`,
	Run: fetchOnce,
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchMode, "mode", "m", "", "graphics mode token: 8, 9, 15 or rgb9")
	fetchCmd.Flags().StringVarP(&fetchDate, "date", "", "", "picture date as YYMMDD, defaults to today")
	fetchCmd.Flags().IntVarP(&fetchSample, "sample", "s", 0, "sample image index, overrides --date")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "output file, defaults to the artifact name in the working directory")
	rootCmd.AddCommand(fetchCmd)
}

func fetchOnce(cmd *cobra.Command, _ []string) {
	defer StopApp()

	params := map[string]string{}
	if cmd.Flags().Changed("mode") {
		params["mode"] = fetchMode
	}
	if cmd.Flags().Changed("date") {
		params["date"] = fetchDate
	}
	if cmd.Flags().Changed("sample") {
		params["sample"] = strconv.Itoa(fetchSample)
	}

	timeout := coreconfig.Global.Fill.WaitTimeout + coreconfig.Global.Upstream.Timeout
	ctx, cancel := context.WithTimeout(appCtx, timeout)
	defer cancel()

	payload, err := apodUsecase.Fetch(ctx, params)
	if err != nil {
		logrus.Fatalf("[FETCH] %v", err)
	}

	out := fetchOutput
	if out == "" {
		out = filepath.Base(payload.Filename)
	}
	if err := os.WriteFile(out, payload.Body, 0o644); err != nil {
		logrus.Fatalf("[FETCH] %v", err)
	}

	source := "converted"
	if payload.CacheHit {
		source = "cached"
	}
	logrus.Infof("[FETCH] wrote %s (%s, %s)", out, humanize.Bytes(uint64(payload.Length())), source)
}
