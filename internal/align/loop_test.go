package align

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/slowverb/slowverb/internal/lrclib"
	"github.com/slowverb/slowverb/internal/resolve"
	"github.com/slowverb/slowverb/internal/scale"
	"github.com/slowverb/slowverb/internal/track"
)

func snapshot(id string, position float64) *track.Snapshot {
	return &track.Snapshot{
		TrackID:         id,
		RawTitle:        "Song " + id,
		RawArtist:       "Artist",
		DurationSeconds: 240,
		PositionSeconds: position,
		Playing:         true,
		SampledAt:       time.Now(),
	}
}

func threeLines() *Prepared {
	return &Prepared{
		Lyrics: &scale.Lyrics{
			Lines: []lrclib.Line{
				{TimeSeconds: 10, Text: "a"},
				{TimeSeconds: 20, Text: "b"},
				{TimeSeconds: 30, Text: "c"},
			},
			ScaleFactor: 1,
		},
	}
}

// instantPreparer resolves every track immediately with fixed lines.
type instantPreparer struct {
	prepared *Prepared
	err      error
}

func (p *instantPreparer) Prepare(context.Context, *track.Snapshot) (*Prepared, error) {
	return p.prepared, p.err
}

// gatedPreparer blocks each Prepare until the test releases its track.
type gatedPreparer struct {
	mu    sync.Mutex
	gates map[string]chan *Prepared
}

func newGatedPreparer() *gatedPreparer {
	return &gatedPreparer{gates: make(map[string]chan *Prepared)}
}

func (p *gatedPreparer) gate(id string) chan *Prepared {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gates[id] == nil {
		p.gates[id] = make(chan *Prepared, 1)
	}
	return p.gates[id]
}

func (p *gatedPreparer) Prepare(_ context.Context, snap *track.Snapshot) (*Prepared, error) {
	prepared := <-p.gate(snap.ID())
	if prepared == nil {
		return nil, resolve.ErrNotFound
	}
	return prepared, nil
}

func waitStatus(t *testing.T, loop *Loop, snap *track.Snapshot, want Status) Update {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	var last Update
	for time.Now().Before(deadline) {
		last = loop.Observe(context.Background(), snap)
		if last.Status == want {
			return last
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("status never reached %v, last %v", want, last.Status)
	return last
}

func TestLoopNoSession(t *testing.T) {
	loop := NewLoop(&instantPreparer{prepared: threeLines()})

	update := loop.Observe(context.Background(), nil)
	if update.Status != StatusNoTrack {
		t.Errorf("status = %v, want NoTrack", update.Status)
	}
	if update.LineIndex != -1 || update.Line != "" {
		t.Errorf("no-track update carries a line: %+v", update)
	}
}

func TestLoopResolvesOnFirstSnapshot(t *testing.T) {
	loop := NewLoop(&instantPreparer{prepared: threeLines()})
	snap := snapshot("t1", 0)

	first := loop.Observe(context.Background(), snap)
	if first.Status != StatusResolving {
		t.Fatalf("first observe status = %v, want Resolving", first.Status)
	}

	update := waitStatus(t, loop, snap, StatusReady)
	if update.LineIndex != -1 {
		t.Errorf("position 0 before first line: LineIndex = %d, want -1", update.LineIndex)
	}
	if update.Next != "a" {
		t.Errorf("Next = %q, want first line for look-ahead", update.Next)
	}
}

func TestLoopSeekSequence(t *testing.T) {
	loop := NewLoop(&instantPreparer{prepared: threeLines()})
	waitStatus(t, loop, snapshot("t1", 0), StatusReady)

	// forward, seek back before the active line, forward again
	steps := []struct {
		position float64
		wantIdx  int
		wantLine string
	}{
		{25, 1, "b"},
		{5, -1, ""},
		{25, 1, "b"},
	}

	for _, step := range steps {
		update := loop.Observe(context.Background(), snapshot("t1", step.position))
		if update.Status != StatusReady {
			t.Fatalf("position %v: status %v", step.position, update.Status)
		}
		if update.LineIndex != step.wantIdx || update.Line != step.wantLine {
			t.Errorf("position %v: got (%d, %q), want (%d, %q)",
				step.position, update.LineIndex, update.Line, step.wantIdx, step.wantLine)
		}
	}
}

func TestLoopLookAhead(t *testing.T) {
	loop := NewLoop(&instantPreparer{prepared: threeLines()})
	waitStatus(t, loop, snapshot("t1", 0), StatusReady)

	update := loop.Observe(context.Background(), snapshot("t1", 12))
	if update.Line != "a" || update.Next != "b" {
		t.Fatalf("got line %q next %q", update.Line, update.Next)
	}
	if update.NextIn < 7.9 || update.NextIn > 8.1 {
		t.Errorf("NextIn = %v, want ~8s", update.NextIn)
	}

	// last line has nothing upcoming
	update = loop.Observe(context.Background(), snapshot("t1", 35))
	if update.Line != "c" || update.Next != "" {
		t.Errorf("at tail got line %q next %q", update.Line, update.Next)
	}
}

func TestLoopNotFound(t *testing.T) {
	loop := NewLoop(&instantPreparer{err: resolve.ErrNotFound})
	snap := snapshot("t1", 0)

	update := waitStatus(t, loop, snap, StatusNotFound)
	if update.Line != "" {
		t.Errorf("not-found update carries line %q", update.Line)
	}

	// self-loop: same track stays NotFound
	update = loop.Observe(context.Background(), snap)
	if update.Status != StatusNotFound {
		t.Errorf("status = %v, want NotFound", update.Status)
	}
}

func TestLoopTrackChangeDropsOldLines(t *testing.T) {
	preparer := newGatedPreparer()
	loop := NewLoop(preparer)

	snapA := snapshot("a", 25)
	preparer.gate(snapA.ID()) <- threeLines()
	waitStatus(t, loop, snapA, StatusReady)

	// track change: while resolving the new track, the old track's lines
	// must not leak into the output
	snapB := snapshot("b", 25)
	update := loop.Observe(context.Background(), snapB)
	if update.Status != StatusResolving {
		t.Fatalf("status = %v, want Resolving", update.Status)
	}
	if update.Line != "" || update.LineIndex != -1 {
		t.Errorf("stale lines shown while resolving: %+v", update)
	}
}

func TestLoopDiscardsStaleResolution(t *testing.T) {
	preparer := newGatedPreparer()
	loop := NewLoop(preparer)

	snapA := snapshot("a", 0)
	snapB := snapshot("b", 25)

	// start resolving A, then switch to B before A completes
	loop.Observe(context.Background(), snapA)
	loop.Observe(context.Background(), snapB)

	// A's answer arrives late: it answers a question that is no longer
	// current and must be ignored
	preparer.gate(snapA.ID()) <- threeLines()
	time.Sleep(20 * time.Millisecond)

	update := loop.Observe(context.Background(), snapB)
	if update.Status != StatusResolving {
		t.Fatalf("stale result applied: status = %v", update.Status)
	}

	// B's own answer still lands
	b := threeLines()
	b.Lyrics.Lines[0].Text = "b-song"
	preparer.gate(snapB.ID()) <- b

	update = waitStatus(t, loop, snapB, StatusReady)
	if update.Line != "b-song" {
		t.Errorf("line = %q, want b-song", update.Line)
	}
}

func TestLoopSyncOffsetShiftsAlignment(t *testing.T) {
	loop := NewLoop(&instantPreparer{prepared: threeLines()})
	waitStatus(t, loop, snapshot("t1", 0), StatusReady)

	loop.SetSyncOffset(6)
	update := loop.Observe(context.Background(), snapshot("t1", 15))
	// effective position 21: line "b"
	if update.Line != "b" {
		t.Errorf("line = %q, want b with +6s offset", update.Line)
	}

	loop.SetSyncOffset(-6)
	update = loop.Observe(context.Background(), snapshot("t1", 15))
	// effective position 9: before the first line
	if update.LineIndex != -1 {
		t.Errorf("LineIndex = %d, want -1 with -6s offset", update.LineIndex)
	}
}

func TestActiveLineIndex(t *testing.T) {
	lines := []lrclib.Line{
		{TimeSeconds: 10, Text: "a"},
		{TimeSeconds: 20, Text: "b"},
		{TimeSeconds: 30, Text: "c"},
	}

	tests := []struct {
		position float64
		want     int
	}{
		{0, -1},
		{9.99, -1},
		{10, 0},
		{19.99, 0},
		{20, 1},
		{30, 2},
		{1000, 2},
	}

	for _, tt := range tests {
		if got := activeLineIndex(lines, tt.position); got != tt.want {
			t.Errorf("activeLineIndex(%v) = %d, want %d", tt.position, got, tt.want)
		}
	}

	if got := activeLineIndex(nil, 5); got != -1 {
		t.Errorf("empty lines: got %d, want -1", got)
	}
}
