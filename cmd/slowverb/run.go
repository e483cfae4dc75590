package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/slowverb/slowverb/internal/align"
	"github.com/slowverb/slowverb/internal/config"
	"github.com/slowverb/slowverb/internal/logging"
	"github.com/slowverb/slowverb/internal/lrclib"
	"github.com/slowverb/slowverb/internal/lyricscache"
	"github.com/slowverb/slowverb/internal/normalize"
	"github.com/slowverb/slowverb/internal/player"
	"github.com/slowverb/slowverb/internal/resolve"
	"github.com/slowverb/slowverb/internal/terminal"
	"github.com/slowverb/slowverb/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "start the interactive lyrics viewer",
	RunE:  runViewer,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// loadConfig applies command-line overrides on top of the layered config.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()

	if mprisService != "" {
		cfg.Player.MprisService = mprisService
	}
	if lrclibURL != "" {
		cfg.Lyrics.BaseURL = lrclibURL
	}
	if cmd.Flags().Changed("sync-offset") {
		cfg.UI.SyncOffset = syncOffset
	}
	if cmd.Flags().Changed("hide-header") {
		cfg.UI.HideHeader = hideHeader
	}
	return cfg
}

func buildPipeline(cfg *config.Config) (*align.Pipeline, error) {
	store, err := lyricscache.Open(cfg.Cache.Dir, lyricscache.Options{
		BucketSeconds: cfg.Cache.BucketSeconds,
		TTL:           cfg.Cache.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("opening lyrics cache: %w", err)
	}

	return &align.Pipeline{
		Normalizer: normalize.Default(),
		Resolver: resolve.New(lrclib.NewClient(cfg.Lyrics.BaseURL), resolve.Tolerance{
			AbsSeconds:    cfg.Lyrics.ToleranceSeconds,
			Fraction:      cfg.Lyrics.ToleranceFraction,
			SlowFactor:    cfg.Lyrics.SlowFactor,
			MinSlowFactor: cfg.Lyrics.MinSlowFactor,
			MaxSlowFactor: cfg.Lyrics.MaxSlowFactor,
		}),
		Cache:       store,
		NoCacheRead: noCache,
	}, nil
}

func runViewer(cmd *cobra.Command, args []string) error {
	// the TUI owns the terminal; logs go to the debug file
	if closer, err := logging.SetupFile(verbose); err == nil {
		defer closer.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		<-sigChan
		cancel()
		terminal.Reset()
		os.Exit(0)
	}()
	defer terminal.Reset()

	cfg := loadConfig(cmd)

	bus, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connecting to session bus: %w", err)
	}
	defer bus.Close()

	playerService, err := player.NewService(bus, cfg.Player.MprisService)
	if err != nil {
		return fmt.Errorf("creating player service: %w", err)
	}
	if err := playerService.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not set up dbus signals: %v\n", err)
	}

	pipeline, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	model := ui.NewModel(ui.ModelConfig{
		Player:       playerService,
		Loop:         align.NewLoop(pipeline),
		Pipeline:     pipeline,
		TermCaps:     terminal.DetectCapabilities(),
		PollInterval: cfg.Player.PollInterval,
		SyncOffset:   cfg.UI.SyncOffset,
		HideHeader:   cfg.UI.HideHeader,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	go func() {
		<-ctx.Done()
		playerService.Stop()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running viewer: %w", err)
	}
	return nil
}
