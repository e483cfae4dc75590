// Package ui is the bubbletea front end: it polls the player, feeds
// snapshots to the sync loop, and renders whatever state comes back.
package ui

import (
	"image"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/slowverb/slowverb/internal/align"
	"github.com/slowverb/slowverb/internal/artwork"
	"github.com/slowverb/slowverb/internal/player"
	"github.com/slowverb/slowverb/internal/terminal"
	"github.com/slowverb/slowverb/internal/track"
)

type TickMsg time.Time

// refreshMsg asks for one immediate poll without touching the tick timer.
type refreshMsg struct{}

type PlayerEventMsg struct {
	Event player.EventData
}

type ArtworkFetchedMsg struct {
	TrackID string
	Image   image.Image
	Palette *artwork.Palette
	Err     error
}

type Model struct {
	player   *player.Service
	loop     *align.Loop
	pipeline *align.Pipeline
	termCaps *terminal.Capabilities

	pollInterval time.Duration
	hideHeader   bool

	update       align.Update
	lastSnapshot *track.Snapshot
	lastTrackID  string
	image        image.Image
	palette      *artwork.Palette

	width     int
	height    int
	tickCount int
	animState AnimState
	quitting  bool
}

type ModelConfig struct {
	Player       *player.Service
	Loop         *align.Loop
	Pipeline     *align.Pipeline
	TermCaps     *terminal.Capabilities
	PollInterval time.Duration
	SyncOffset   float64
	HideHeader   bool
}

func NewModel(cfg ModelConfig) Model {
	if cfg.TermCaps == nil {
		cfg.TermCaps = terminal.DetectCapabilities()
	}
	if cfg.SyncOffset != 0 {
		cfg.Loop.SetDefaultSyncOffset(cfg.SyncOffset)
	}
	return Model{
		player:       cfg.Player,
		loop:         cfg.Loop,
		pipeline:     cfg.Pipeline,
		termCaps:     cfg.TermCaps,
		pollInterval: cfg.PollInterval,
		hideHeader:   cfg.HideHeader,
		update:       align.Update{Status: align.StatusNoTrack, LineIndex: -1},
		palette:      artwork.DefaultPalette(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.listenForPlayerEvents())
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.pollInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) listenForPlayerEvents() tea.Cmd {
	if m.player == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-m.player.Events()
		if !ok {
			return nil
		}
		return PlayerEventMsg{Event: event}
	}
}

// rgbCapable reports whether per-rune gradient colors are worth emitting;
// without truecolor the focus line falls back to a single bold color.
func (m Model) rgbCapable() bool {
	return m.termCaps != nil && m.termCaps.SupportsRGB
}

func (m *Model) resetForNewTrack(trackID string) {
	m.lastTrackID = trackID
	m.image = nil
	m.palette = artwork.DefaultPalette()
	m.animState.Reset()
}

func (m *Model) Stop() {
	if m.player != nil {
		m.player.Stop()
	}
}
