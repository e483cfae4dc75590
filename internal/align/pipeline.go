package align

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/slowverb/slowverb/internal/lyricscache"
	"github.com/slowverb/slowverb/internal/normalize"
	"github.com/slowverb/slowverb/internal/resolve"
	"github.com/slowverb/slowverb/internal/scale"
	"github.com/slowverb/slowverb/internal/track"
)

// Prepared is the pipeline's product: scaled lyrics plus the per-track
// sync offset restored from the cache.
type Prepared struct {
	Lyrics     *scale.Lyrics
	SyncOffset float64
	FromCache  bool
}

// Pipeline is the production Preparer: normalize the title, consult the
// cache, and only on a miss resolve against the lyrics service and scale
// the result.
type Pipeline struct {
	Normalizer  *normalize.Normalizer
	Resolver    *resolve.Resolver
	Cache       *lyricscache.Store
	NoCacheRead bool
}

func (p *Pipeline) Prepare(ctx context.Context, snap *track.Snapshot) (*Prepared, error) {
	norm := p.Normalizer.Normalize(snap.RawTitle, snap.RawArtist)

	sig := p.Cache.Signature(norm.Artist, norm.CleanTitle, snap.DurationSeconds)

	if !p.NoCacheRead {
		if entry, err := p.Cache.Get(sig); err == nil {
			log.Debug().Str("signature", sig.String()).Msg("cache hit")
			return &Prepared{
				Lyrics: &scale.Lyrics{
					Lines:           entry.Lines,
					ScaleFactor:     entry.ScaleFactor,
					LowConfidence:   entry.LowConfidence,
					SourceTitle:     entry.Title,
					SourceArtist:    entry.Artist,
					SourceAlbum:     entry.Album,
					SourceDuration:  entry.ReferenceDuration,
					OriginSignature: entry.Signature,
				},
				SyncOffset: entry.SyncOffset,
				FromCache:  true,
			}, nil
		}
	}

	match, err := p.Resolver.Resolve(ctx, norm, snap.RawAlbum, snap.DurationSeconds)
	if err != nil {
		// "not found" and transient outages are both left uncached so the
		// next play retries
		return nil, err
	}

	lines := match.Candidate.Lines()
	if len(lines) == 0 {
		// synced text that parses to nothing is a not-found, never a
		// cacheable hit
		return nil, resolve.ErrNotFound
	}

	lyrics, err := scale.Apply(lines, match.Candidate.Duration, snap.DurationSeconds)
	if err != nil {
		return nil, fmt.Errorf("scaling %q: %w", match.Candidate.TrackName, err)
	}
	lyrics.SourceTitle = match.Candidate.TrackName
	lyrics.SourceArtist = match.Candidate.ArtistName
	lyrics.SourceAlbum = match.Candidate.AlbumName
	lyrics.OriginSignature = sig.Key()

	if lyrics.LowConfidence {
		log.Warn().
			Float64("factor", lyrics.ScaleFactor).
			Str("title", match.Candidate.TrackName).
			Msg("scale factor outside confidence band")
	}

	// low-confidence results are cached too: a bad early match should not
	// trigger repeated lookups, clearing the cache is the remediation
	entry := &lyricscache.Entry{
		Artist:            match.Candidate.ArtistName,
		Title:             match.Candidate.TrackName,
		Album:             match.Candidate.AlbumName,
		ScaleFactor:       lyrics.ScaleFactor,
		LowConfidence:     lyrics.LowConfidence,
		ReferenceDuration: match.Candidate.Duration,
		LiveDuration:      snap.DurationSeconds,
		Lines:             lyrics.Lines,
	}
	if err := p.Cache.Put(sig, entry); err != nil {
		log.Warn().Err(err).Msg("failed to persist cache entry")
	}

	return &Prepared{Lyrics: lyrics}, nil
}

// SaveSyncOffset persists a user-adjusted offset onto the cached entry for
// the given snapshot, when one exists.
func (p *Pipeline) SaveSyncOffset(snap *track.Snapshot, offset float64) error {
	if snap == nil {
		return errors.New("nil snapshot")
	}
	norm := p.Normalizer.Normalize(snap.RawTitle, snap.RawArtist)
	sig := p.Cache.Signature(norm.Artist, norm.CleanTitle, snap.DurationSeconds)

	entry, err := p.Cache.Get(sig)
	if err != nil {
		return err
	}
	entry.SyncOffset = offset
	return p.Cache.Put(sig, entry)
}
