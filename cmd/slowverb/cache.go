package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/slowverb/slowverb/internal/config"
	"github.com/slowverb/slowverb/internal/lyricscache"
)

var (
	cacheSortBy   string
	cacheConfirm  bool
	cacheDuration float64
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "manage the lyrics cache",
	Long: `manage cached scaled lyrics: statistics, listing, inspection, and
cleanup. entries are keyed by artist, cleaned title, and the track's
live duration, so the same song cached for different edits shows up as
separate entries.`,
}

func openStore() (*lyricscache.Store, error) {
	cfg := config.Load()
	return lyricscache.Open(cfg.Cache.Dir, lyricscache.Options{
		BucketSeconds: cfg.Cache.BucketSeconds,
		TTL:           cfg.Cache.TTL,
	})
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		count, sizeBytes, err := store.Stats()
		if err != nil {
			return fmt.Errorf("reading cache stats: %w", err)
		}

		fmt.Println("cache statistics:")
		fmt.Printf("  location: %s\n", store.Dir())
		fmt.Printf("  entries:  %d\n", count)
		fmt.Printf("  size:     %s\n", formatBytes(sizeBytes))
		return nil
	},
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "list all cached entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		entries, err := store.ListAll()
		if err != nil {
			return fmt.Errorf("listing cache: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("cache is empty")
			return nil
		}

		sortCacheEntries(entries, cacheSortBy)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ARTIST\tTITLE\tLIVE\tSCALE\tOFFSET\tRESOLVED")
		for _, entry := range entries {
			offsetStr := "-"
			if entry.SyncOffset != 0 {
				offsetStr = fmt.Sprintf("%+.1fs", entry.SyncOffset)
			}
			scaleStr := fmt.Sprintf("×%.2f", entry.ScaleFactor)
			if entry.LowConfidence {
				scaleStr += " ?"
			}
			fmt.Fprintf(w, "%s\t%s\t%.0fs\t%s\t%s\t%s\n",
				entry.Artist, entry.Title, entry.LiveDuration, scaleStr, offsetStr,
				time.Unix(entry.ResolvedAt, 0).Format("2006-01-02"))
		}
		w.Flush()

		fmt.Printf("\ntotal: %d entries\n", len(entries))
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <artist> <title>",
	Short: "show the cached entry for a song",
	Long: `display a cached entry. --duration selects which edit of the song,
since the cache keys on the live track length.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		entry, err := lookupEntry(store, args[0], args[1])
		if err != nil {
			return err
		}

		fmt.Printf("artist:        %s\n", entry.Artist)
		fmt.Printf("title:         %s\n", entry.Title)
		if entry.Album != "" {
			fmt.Printf("album:         %s\n", entry.Album)
		}
		fmt.Printf("signature:     %s\n", entry.Signature)
		fmt.Printf("live duration: %.1fs\n", entry.LiveDuration)
		fmt.Printf("original:      %.1fs\n", entry.ReferenceDuration)
		fmt.Printf("scale factor:  %.4f\n", entry.ScaleFactor)
		if entry.LowConfidence {
			fmt.Println("confidence:    low (factor outside expected band)")
		}
		if entry.SyncOffset != 0 {
			fmt.Printf("sync offset:   %+.2fs\n", entry.SyncOffset)
		}
		fmt.Printf("resolved:      %s\n", time.Unix(entry.ResolvedAt, 0).Format("2006-01-02 15:04:05"))
		fmt.Printf("expires:       %s\n", time.Unix(entry.ExpiresAt, 0).Format("2006-01-02 15:04:05"))
		fmt.Printf("\nscaled lines:  %d\n", len(entry.Lines))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "remove all cached entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		if !cacheConfirm {
			fmt.Print("are you sure you want to clear all cache? (y/n): ")
			var response string
			fmt.Scanln(&response)
			if r := strings.ToLower(response); r != "y" && r != "yes" {
				fmt.Println("cancelled")
				return nil
			}
		}

		if err := store.Clear(); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Println("cache cleared")
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "remove expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		pruned, err := store.Prune()
		if err != nil {
			return fmt.Errorf("pruning cache: %w", err)
		}
		fmt.Printf("removed %d expired entries\n", pruned)
		return nil
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <artist> <title>",
	Short: "remove a song from the cache",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		entry, err := lookupEntry(store, args[0], args[1])
		if err != nil {
			return err
		}

		sig := store.Signature(entry.Artist, entry.Title, entry.LiveDuration)
		if err := store.Delete(sig); err != nil {
			return fmt.Errorf("deleting entry: %w", err)
		}
		fmt.Printf("deleted '%s - %s' (%.0fs edit)\n", entry.Artist, entry.Title, entry.LiveDuration)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)

	cacheListCmd.Flags().StringVar(&cacheSortBy, "sort", "date", "sort by: date, artist, title")
	cacheClearCmd.Flags().BoolVar(&cacheConfirm, "confirm", false, "skip confirmation prompt")
	cacheShowCmd.Flags().Float64Var(&cacheDuration, "duration", 0, "live duration in seconds, to pick a specific edit")
	cacheDeleteCmd.Flags().Float64Var(&cacheDuration, "duration", 0, "live duration in seconds, to pick a specific edit")
}

// lookupEntry finds a cached entry by artist and title. With --duration it
// goes straight to the signature; otherwise it scans and complains when
// several edits match.
func lookupEntry(store *lyricscache.Store, artist, title string) (*lyricscache.Entry, error) {
	if cacheDuration > 0 {
		entry, err := store.Get(store.Signature(artist, title, cacheDuration))
		if err != nil {
			return nil, fmt.Errorf("no cached entry for '%s - %s' at %.0fs", artist, title, cacheDuration)
		}
		return entry, nil
	}

	entries, err := store.ListAll()
	if err != nil {
		return nil, err
	}

	var matches []*lyricscache.Entry
	for _, entry := range entries {
		if strings.EqualFold(entry.Artist, artist) && strings.EqualFold(entry.Title, title) {
			matches = append(matches, entry)
		}
	}

	switch len(matches) {
	case 0:
		if suggestions := similarEntries(entries, artist, title); len(suggestions) > 0 {
			fmt.Fprintln(os.Stderr, "song not found in cache")
			fmt.Fprintln(os.Stderr, "\ndid you mean one of these?")
			for _, s := range suggestions {
				fmt.Fprintf(os.Stderr, "  %s - %s (%.0fs)\n", s.Artist, s.Title, s.LiveDuration)
			}
			return nil, fmt.Errorf("")
		}
		return nil, fmt.Errorf("song not found in cache")
	case 1:
		return matches[0], nil
	default:
		fmt.Fprintf(os.Stderr, "multiple edits cached for '%s - %s':\n", artist, title)
		for _, m := range matches {
			fmt.Fprintf(os.Stderr, "  %.0fs (scale ×%.2f)\n", m.LiveDuration, m.ScaleFactor)
		}
		return nil, fmt.Errorf("pass --duration to pick one")
	}
}

func similarEntries(entries []*lyricscache.Entry, artist, title string) []*lyricscache.Entry {
	artistLower := strings.ToLower(artist)
	titleLower := strings.ToLower(title)

	var matches []*lyricscache.Entry
	for _, entry := range entries {
		entryArtist := strings.ToLower(entry.Artist)
		entryTitle := strings.ToLower(entry.Title)

		artistMatch := strings.Contains(entryArtist, artistLower) || strings.Contains(artistLower, entryArtist)
		titleMatch := strings.Contains(entryTitle, titleLower) || strings.Contains(titleLower, entryTitle)
		if artistMatch && titleMatch {
			matches = append(matches, entry)
		}
	}
	if len(matches) > 5 {
		matches = matches[:5]
	}
	return matches
}

func sortCacheEntries(entries []*lyricscache.Entry, sortBy string) {
	switch sortBy {
	case "artist":
		sort.Slice(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].Artist) < strings.ToLower(entries[j].Artist)
		})
	case "title":
		sort.Slice(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].Title) < strings.ToLower(entries[j].Title)
		})
	default:
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].ResolvedAt > entries[j].ResolvedAt
		})
	}
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
