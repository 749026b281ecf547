package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the picture cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache usage",
	Run: func(_ *cobra.Command, _ []string) {
		defer StopApp()
		stats, err := cacheUsecase.GetStats(context.Background())
		if err != nil {
			logrus.Fatalf("[CACHE] %v", err)
		}
		fmt.Printf("directory:   %s\n", stats.Directory)
		fmt.Printf("artifacts:   %d (%s)\n", stats.Artifacts, stats.HumanSize)
		for kind, n := range stats.ByKind {
			fmt.Printf("  %-6s %d\n", kind, n)
		}
		fmt.Printf("description: %t\n", stats.Description)
	},
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached artifacts, oldest first",
	Run: func(_ *cobra.Command, _ []string) {
		defer StopApp()
		entries, err := cacheUsecase.ListEntries(context.Background())
		if err != nil {
			logrus.Fatalf("[CACHE] %v", err)
		}
		for _, e := range entries {
			fmt.Printf("%-16s %10s  %s\n", e.Name, e.HumanSize, e.Age)
		}
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached artifact",
	Run: func(_ *cobra.Command, _ []string) {
		defer StopApp()
		removed, err := cacheUsecase.Clear(context.Background())
		if err != nil {
			logrus.Fatalf("[CACHE] %v", err)
		}
		logrus.Infof("[CACHE] removed %d artifacts", removed)
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheListCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
