// Package align keeps a scaled lyric sequence synchronized with live,
// seekable playback. It owns the per-track state machine: NoTrack,
// Resolving, Ready, NotFound.
package align

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/slowverb/slowverb/internal/lrclib"
	"github.com/slowverb/slowverb/internal/scale"
	"github.com/slowverb/slowverb/internal/track"
)

type Status int

const (
	StatusNoTrack Status = iota
	StatusResolving
	StatusReady
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusNoTrack:
		return "no-track"
	case StatusResolving:
		return "resolving"
	case StatusReady:
		return "ready"
	case StatusNotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

// Update is the per-tick output the renderer consumes.
type Update struct {
	Status        Status
	Line          string
	LineIndex     int
	Next          string
	NextIn        float64
	ScaleFactor   float64
	LowConfidence bool
	FromCache     bool
	Snapshot      *track.Snapshot
}

// Preparer turns a snapshot into display-ready scaled lyrics. The
// production implementation is Pipeline; tests substitute fakes.
type Preparer interface {
	Prepare(ctx context.Context, snap *track.Snapshot) (*Prepared, error)
}

type resolution struct {
	trackID  string
	prepared *Prepared
	err      error
}

// Loop consumes playback snapshots in arrival order. Resolution runs in the
// background; its result is applied at the next tick after completion,
// never retroactively. A result arriving for a track that is no longer
// current is discarded.
type Loop struct {
	preparer Preparer

	status        Status
	trackID       string
	lyrics        *scale.Lyrics
	syncOffset    float64
	defaultOffset float64
	fromCache     bool
	activeIndex   int

	results chan resolution
}

func NewLoop(p Preparer) *Loop {
	return &Loop{
		preparer:    p,
		status:      StatusNoTrack,
		activeIndex: -1,
		results:     make(chan resolution, 8),
	}
}

// Observe processes one snapshot and returns what to display. A nil or
// invalid snapshot means the media session is gone.
func (l *Loop) Observe(ctx context.Context, snap *track.Snapshot) Update {
	l.drainResults()

	if !snap.IsValid() {
		l.reset()
		l.status = StatusNoTrack
		l.trackID = ""
		return Update{Status: StatusNoTrack, LineIndex: -1}
	}

	if snap.ID() != l.trackID {
		l.startResolving(ctx, snap)
	}

	update := Update{
		Status:    l.status,
		LineIndex: -1,
		Snapshot:  snap,
	}

	if l.status != StatusReady || l.lyrics == nil {
		return update
	}

	position := snap.PositionSeconds + l.syncOffset
	l.activeIndex = activeLineIndex(l.lyrics.Lines, position)

	update.LineIndex = l.activeIndex
	update.ScaleFactor = l.lyrics.ScaleFactor
	update.LowConfidence = l.lyrics.LowConfidence
	update.FromCache = l.fromCache

	if l.activeIndex >= 0 {
		update.Line = l.lyrics.Lines[l.activeIndex].Text
	}
	if next := l.activeIndex + 1; next < len(l.lyrics.Lines) {
		update.Next = l.lyrics.Lines[next].Text
		update.NextIn = l.lyrics.Lines[next].TimeSeconds - position
	}

	return update
}

// SyncOffset is the user-adjustable display offset, applied after scaling.
func (l *Loop) SyncOffset() float64 {
	return l.syncOffset
}

func (l *Loop) SetSyncOffset(offset float64) {
	l.syncOffset = offset
}

// SetDefaultSyncOffset sets the offset every track starts with, until a
// cached per-track offset or a manual nudge overrides it.
func (l *Loop) SetDefaultSyncOffset(offset float64) {
	l.defaultOffset = offset
	l.syncOffset = offset
}

// Lyrics returns the current scaled sequence, nil unless Ready.
func (l *Loop) Lyrics() *scale.Lyrics {
	if l.status != StatusReady {
		return nil
	}
	return l.lyrics
}

func (l *Loop) Status() Status {
	return l.status
}

func (l *Loop) startResolving(ctx context.Context, snap *track.Snapshot) {
	l.reset()
	l.trackID = snap.ID()
	l.status = StatusResolving

	// resolution is tagged with the track it answers for; completion for a
	// superseded track is discarded in drainResults, the network call
	// itself is never forcibly cancelled
	snapCopy := *snap
	id := l.trackID
	go func() {
		prepared, err := l.preparer.Prepare(ctx, &snapCopy)
		l.results <- resolution{trackID: id, prepared: prepared, err: err}
	}()
}

func (l *Loop) drainResults() {
	for {
		select {
		case res := <-l.results:
			l.applyResolution(res)
		default:
			return
		}
	}
}

func (l *Loop) applyResolution(res resolution) {
	if res.trackID != l.trackID || l.status != StatusResolving {
		log.Debug().Str("track", res.trackID).Msg("discarding stale resolution result")
		return
	}

	if res.err != nil || res.prepared == nil || len(res.prepared.Lyrics.Lines) == 0 {
		if res.err != nil {
			log.Warn().Err(res.err).Str("track", res.trackID).Msg("lyrics resolution failed")
		}
		l.status = StatusNotFound
		return
	}

	l.lyrics = res.prepared.Lyrics
	if res.prepared.SyncOffset != 0 {
		l.syncOffset = res.prepared.SyncOffset
	}
	l.fromCache = res.prepared.FromCache
	l.activeIndex = -1
	l.status = StatusReady
}

func (l *Loop) reset() {
	l.lyrics = nil
	l.syncOffset = l.defaultOffset
	l.fromCache = false
	l.activeIndex = -1
}

// activeLineIndex returns the index of the last line whose timestamp is at
// or before the position, or -1 before the first line. Computing it fresh
// each tick makes backward seeks just work.
func activeLineIndex(lines []lrclib.Line, position float64) int {
	return sort.Search(len(lines), func(i int) bool {
		return lines[i].TimeSeconds > position
	}) - 1
}
