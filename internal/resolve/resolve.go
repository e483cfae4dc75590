// Package resolve picks the correct reference recording for a live track
// among duration-ambiguous lyrics candidates.
package resolve

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/slowverb/slowverb/internal/lrclib"
	"github.com/slowverb/slowverb/internal/normalize"
)

// ErrNotFound is the terminal "no lyrics" outcome. It is not a failure of
// the pipeline; callers render it as an empty display.
var ErrNotFound = errors.New("no matching lyrics found")

// Service is the lyrics lookup the resolver queries. Satisfied by
// *lrclib.Client.
type Service interface {
	Search(ctx context.Context, q lrclib.Query) ([]lrclib.Candidate, error)
}

// Tolerance holds the duration-matching policy. These are tunables, not
// derived truths; defaults follow observed slowed-edit behavior.
type Tolerance struct {
	// AbsSeconds and Fraction define the accepted band around the live
	// duration for unmodified tracks: whichever of the two is larger.
	AbsSeconds float64
	Fraction   float64

	// SlowFactor is the nominal slowdown of a typical edit; the estimated
	// original duration of a modified track is live/SlowFactor. Min and Max
	// bound the plausible range: a modified track's original must sit in
	// [live/MaxSlowFactor, live/MinSlowFactor].
	SlowFactor    float64
	MinSlowFactor float64
	MaxSlowFactor float64
}

func DefaultTolerance() Tolerance {
	return Tolerance{
		AbsSeconds:    15,
		Fraction:      0.10,
		SlowFactor:    1.3,
		MinSlowFactor: 1.05,
		MaxSlowFactor: 1.8,
	}
}

// Match is a successful resolution: the winning candidate and the query
// that produced it.
type Match struct {
	Candidate lrclib.Candidate
	Query     lrclib.Query
}

type Resolver struct {
	svc Service
	tol Tolerance
}

func New(svc Service, tol Tolerance) *Resolver {
	if tol.SlowFactor <= 0 {
		tol = DefaultTolerance()
	}
	return &Resolver{svc: svc, tol: tol}
}

// Resolve walks the degradation ladder until a candidate lands inside the
// tolerance band. Service outages propagate as lrclib.ErrUnavailable so the
// caller can retry later; exhausting the ladder yields ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, norm normalize.Result, album string, liveDuration float64) (*Match, error) {
	if norm.CleanTitle == "" {
		return nil, ErrNotFound
	}

	for _, q := range r.ladder(norm, album) {
		candidates, err := r.svc.Search(ctx, q)
		if err != nil {
			return nil, err
		}

		best := r.pick(candidates, q.Artist, liveDuration, norm.Modified)
		if best != nil {
			log.Info().
				Str("title", best.TrackName).
				Str("artist", best.ArtistName).
				Float64("reference_duration", best.Duration).
				Float64("live_duration", liveDuration).
				Bool("modified", norm.Modified).
				Msg("resolved lyrics candidate")
			return &Match{Candidate: *best, Query: q}, nil
		}
	}

	return nil, ErrNotFound
}

// ladder builds the fallback query sequence: full constraints first, then
// progressively looser ones. Duplicate queries are dropped.
func (r *Resolver) ladder(norm normalize.Result, album string) []lrclib.Query {
	var queries []lrclib.Query

	if norm.Artist != "" {
		if album != "" {
			queries = append(queries, lrclib.Query{Title: norm.CleanTitle, Artist: norm.Artist, Album: album})
		}
		queries = append(queries, lrclib.Query{Title: norm.CleanTitle, Artist: norm.Artist})
		// freeform titles don't say which side of the separator is the
		// artist, so try the swapped reading too
		queries = append(queries, lrclib.Query{Title: norm.Artist, Artist: norm.CleanTitle})
	} else {
		queries = append(queries, lrclib.Query{Title: norm.CleanTitle})
	}

	seen := make(map[lrclib.Query]bool, len(queries))
	unique := queries[:0]
	for _, q := range queries {
		if q.Title == "" || seen[q] {
			continue
		}
		seen[q] = true
		unique = append(unique, q)
	}
	return unique
}

// pick ranks usable candidates by duration distance from the target and
// returns the best one inside the tolerance band, or nil.
func (r *Resolver) pick(candidates []lrclib.Candidate, queryArtist string, liveDuration float64, modified bool) *lrclib.Candidate {
	target := liveDuration
	if modified {
		target = liveDuration / r.tol.SlowFactor
	}

	usable := make([]lrclib.Candidate, 0, len(candidates))
	for _, c := range candidates {
		// candidates with non-positive durations or no synced lyrics are
		// discarded, resolution continues with the rest
		if c.Duration <= 0 || c.SyncedLyrics == "" {
			continue
		}
		usable = append(usable, c)
	}
	if len(usable) == 0 {
		return nil
	}

	sort.SliceStable(usable, func(i, j int) bool {
		di := math.Abs(usable[i].Duration - target)
		dj := math.Abs(usable[j].Duration - target)
		if di != dj {
			return di < dj
		}
		return artistMatches(usable[i].ArtistName, queryArtist) &&
			!artistMatches(usable[j].ArtistName, queryArtist)
	})

	best := usable[0]
	if !r.withinTolerance(best.Duration, liveDuration, modified) {
		return nil
	}
	return &best
}

func (r *Resolver) withinTolerance(candidateDuration, liveDuration float64, modified bool) bool {
	if modified {
		// the original must be shorter than the edit, inside the plausible
		// slowdown range
		return candidateDuration >= liveDuration/r.tol.MaxSlowFactor &&
			candidateDuration <= liveDuration/r.tol.MinSlowFactor
	}

	band := math.Max(r.tol.AbsSeconds, r.tol.Fraction*liveDuration)
	return math.Abs(candidateDuration-liveDuration) <= band
}

func artistMatches(candidate, query string) bool {
	if query == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(candidate), strings.TrimSpace(query))
}
