package main

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/slowverb/slowverb/internal/colors"
	"github.com/slowverb/slowverb/internal/normalize"
	"github.com/slowverb/slowverb/internal/player"
)

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "mpris player utilities",
	Long:  `discover mpris-compatible players and inspect what they report.`,
}

var playerListCmd = &cobra.Command{
	Use:   "list",
	Short: "list available mpris players",
	RunE: func(cmd *cobra.Command, args []string) error {
		bus, err := dbus.ConnectSessionBus()
		if err != nil {
			return fmt.Errorf("connecting to session bus: %w", err)
		}
		defer bus.Close()

		players, err := player.ListPlayers(bus)
		if err != nil {
			return err
		}
		if len(players) == 0 {
			fmt.Println("no mpris players found")
			fmt.Println("\ncheck that your music player is running and supports mpris")
			return nil
		}

		fmt.Printf("found %d mpris player(s):\n\n", len(players))
		for _, service := range players {
			if identity := playerIdentity(bus, service); identity != "" {
				fmt.Printf("  %s (%s)\n", service, identity)
			} else {
				fmt.Printf("  %s\n", service)
			}
		}
		fmt.Println("\nuse --mpris-service to pick one")
		return nil
	},
}

var playerCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "show the current track as the pipeline sees it",
	Long: `display the playing track's raw metadata plus the normalized title
the resolver would search for.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)

		bus, err := dbus.ConnectSessionBus()
		if err != nil {
			return fmt.Errorf("connecting to session bus: %w", err)
		}
		defer bus.Close()

		svc, err := player.NewService(bus, cfg.Player.MprisService)
		if err != nil {
			return err
		}

		snap, err := svc.Snapshot()
		if err != nil {
			return fmt.Errorf("no media session on %s", cfg.Player.MprisService)
		}
		if !snap.IsValid() {
			fmt.Println("no track currently playing")
			return nil
		}

		fmt.Printf("raw title:  %s\n", snap.RawTitle)
		fmt.Printf("raw artist: %s\n", snap.RawArtist)
		if snap.RawAlbum != "" {
			fmt.Printf("album:      %s\n", snap.RawAlbum)
		}
		fmt.Printf("duration:   %s\n", colors.FormatTime(snap.DurationSeconds))
		fmt.Printf("position:   %s\n", colors.FormatTime(snap.PositionSeconds))
		if snap.Playing {
			fmt.Println("state:      playing")
		} else {
			fmt.Println("state:      paused")
		}

		norm := normalize.Default().Normalize(snap.RawTitle, snap.RawArtist)
		fmt.Printf("\nsearch title:  %s\n", norm.CleanTitle)
		fmt.Printf("search artist: %s\n", norm.Artist)
		fmt.Printf("modified edit: %v\n", norm.Modified)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(playerCmd)
	playerCmd.AddCommand(playerListCmd)
	playerCmd.AddCommand(playerCurrentCmd)
}

func playerIdentity(bus *dbus.Conn, serviceName string) string {
	obj := bus.Object(serviceName, "/org/mpris/MediaPlayer2")
	variant, err := obj.GetProperty("org.mpris.MediaPlayer2.Identity")
	if err != nil {
		return ""
	}
	identity, _ := variant.Value().(string)
	return identity
}
