package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/slowverb/slowverb/internal/logging"
)

var (
	// global flags
	mprisService string
	lrclibURL    string
	syncOffset   float64
	hideHeader   bool
	noCache      bool
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "slowverb",
	Short: "synchronized lyrics for slowed and reverbed tracks",
	Long: `slowverb shows live synchronized lyrics for slowed + reverb edits.
it cleans up decorated track titles, finds the original song on lrclib,
stretches the lyric timeline to match the edit's duration, and follows
playback over mpris.

when run without a subcommand, it starts the interactive viewer.`,
	Version: "0.3.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.SetupConsole(verbose)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runViewer(cmd, args)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&mprisService, "mpris-service", "m", "", "mpris service name (e.g., org.mpris.MediaPlayer2.spotify)")
	rootCmd.PersistentFlags().StringVar(&lrclibURL, "lrclib-url", "", "custom lrclib api url")
	rootCmd.PersistentFlags().Float64VarP(&syncOffset, "sync-offset", "s", 0, "initial sync offset in seconds")
	rootCmd.PersistentFlags().BoolVarP(&hideHeader, "hide-header", "H", false, "hide header section")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "disable cache reads (always resolve fresh)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
