package ui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/slowverb/slowverb/internal/align"
	"github.com/slowverb/slowverb/internal/player"
	"github.com/slowverb/slowverb/internal/resolve"
	"github.com/slowverb/slowverb/internal/track"
)

// silentPreparer keeps the loop out of Ready without touching any network.
type silentPreparer struct{}

func (silentPreparer) Prepare(context.Context, *track.Snapshot) (*align.Prepared, error) {
	return nil, resolve.ErrNotFound
}

func testModel() Model {
	return NewModel(ModelConfig{
		Loop:         align.NewLoop(silentPreparer{}),
		PollInterval: 20 * time.Millisecond,
	})
}

// runCmd executes a command tree and collects every message it produces.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func TestTrackChangeRefreshesWithoutForkingTicks(t *testing.T) {
	m := testModel()

	_, cmd := m.Update(PlayerEventMsg{Event: player.EventData{Type: player.EventTrackChanged}})

	var refreshed bool
	for _, msg := range runCmd(cmd) {
		switch msg.(type) {
		case TickMsg:
			t.Error("track change scheduled an extra tick")
		case refreshMsg:
			refreshed = true
		}
	}
	if !refreshed {
		t.Fatal("track change did not request an immediate poll")
	}

	// the refresh handler itself must not re-arm the tick timer
	_, refreshCmd := m.Update(refreshMsg{})
	for _, msg := range runCmd(refreshCmd) {
		if _, ok := msg.(TickMsg); ok {
			t.Error("refresh re-armed the tick timer")
		}
	}
}

func TestTickReArmsSingleTimer(t *testing.T) {
	m := testModel()

	_, cmd := m.Update(TickMsg{})

	ticks := 0
	for _, msg := range runCmd(cmd) {
		if _, ok := msg.(TickMsg); ok {
			ticks++
		}
	}
	if ticks != 1 {
		t.Errorf("one tick produced %d follow-up ticks, want 1", ticks)
	}
}
