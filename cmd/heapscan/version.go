package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapscan/internal/format"
)

// Set by the release build with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type versionInfo struct {
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	Date        string `json:"date"`
	ImageFormat int    `json:"image_format"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion() error {
	info := versionInfo{Version: version, Commit: commit, Date: date, ImageFormat: format.ImageVersion}
	if jsonOut {
		return printJSON(info)
	}
	printInfo("heapscan %s\n", info.Version)
	printInfo("  commit:       %s\n", info.Commit)
	printInfo("  built:        %s\n", info.Date)
	printInfo("  image format: v%d\n", info.ImageFormat)
	return nil
}
