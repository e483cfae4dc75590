package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slowverb/slowverb/internal/lrclib"
	"github.com/slowverb/slowverb/internal/normalize"
	"github.com/slowverb/slowverb/internal/resolve"
	"github.com/slowverb/slowverb/internal/scale"
)

var (
	resolveArtist   string
	resolveAlbum    string
	resolveDuration float64
	resolveLines    int
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <raw title>",
	Short: "trace the resolution pipeline for a title",
	Long: `run a raw track title through normalization, lrclib resolution, and
timestamp scaling, printing each step. useful for checking why a track
matched (or didn't) without starting the viewer.

the title is taken as the player would report it, decorations included:

  slowverb resolve "Artist - Song (Slowed + Reverb)" --duration 265`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if resolveDuration <= 0 {
			return errors.New("--duration is required (the playing track's length in seconds)")
		}

		cfg := loadConfig(cmd)

		norm := normalize.Default().Normalize(args[0], resolveArtist)
		fmt.Printf("normalized title: %q\n", norm.CleanTitle)
		fmt.Printf("artist:           %q\n", norm.Artist)
		fmt.Printf("modified edit:    %v\n", norm.Modified)
		if norm.Modified {
			fmt.Printf("estimated original duration: %.0fs (live %.0fs / %.2f)\n",
				resolveDuration/cfg.Lyrics.SlowFactor, resolveDuration, cfg.Lyrics.SlowFactor)
		}

		resolver := resolve.New(lrclib.NewClient(cfg.Lyrics.BaseURL), resolve.Tolerance{
			AbsSeconds:    cfg.Lyrics.ToleranceSeconds,
			Fraction:      cfg.Lyrics.ToleranceFraction,
			SlowFactor:    cfg.Lyrics.SlowFactor,
			MinSlowFactor: cfg.Lyrics.MinSlowFactor,
			MaxSlowFactor: cfg.Lyrics.MaxSlowFactor,
		})

		match, err := resolver.Resolve(context.Background(), norm, resolveAlbum, resolveDuration)
		if err != nil {
			if errors.Is(err, resolve.ErrNotFound) {
				return fmt.Errorf("no candidate within duration tolerance")
			}
			return err
		}

		fmt.Printf("\nmatched: %s - %s", match.Candidate.ArtistName, match.Candidate.TrackName)
		if match.Candidate.AlbumName != "" {
			fmt.Printf(" (%s)", match.Candidate.AlbumName)
		}
		fmt.Printf("\nreference duration: %.1fs\n", match.Candidate.Duration)

		lyrics, err := scale.Apply(match.Candidate.Lines(), match.Candidate.Duration, resolveDuration)
		if err != nil {
			return fmt.Errorf("scaling: %w", err)
		}

		fmt.Printf("scale factor: %.4f\n", lyrics.ScaleFactor)
		if lyrics.LowConfidence {
			fmt.Println("warning: factor outside the confident band, timing may drift")
		}

		n := resolveLines
		if n > len(lyrics.Lines) {
			n = len(lyrics.Lines)
		}
		fmt.Printf("\nfirst %d scaled lines:\n", n)
		for _, line := range lyrics.Lines[:n] {
			fmt.Printf("  [%s] %s\n", lrclib.FormatTimestamp(line.TimeSeconds), line.Text)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVar(&resolveArtist, "artist", "", "artist as reported by the player (optional)")
	resolveCmd.Flags().StringVar(&resolveAlbum, "album", "", "album as reported by the player (optional)")
	resolveCmd.Flags().Float64Var(&resolveDuration, "duration", 0, "live track duration in seconds")
	resolveCmd.Flags().IntVar(&resolveLines, "lines", 5, "number of scaled lines to preview")
}
