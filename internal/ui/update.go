package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/slowverb/slowverb/internal/align"
	"github.com/slowverb/slowverb/internal/artwork"
	"github.com/slowverb/slowverb/internal/player"
	"github.com/slowverb/slowverb/internal/track"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case PlayerEventMsg:
		return m.handlePlayerEvent(msg.Event)

	case refreshMsg:
		return m.handleRefresh()

	case ArtworkFetchedMsg:
		return m.handleArtworkFetched(msg)

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		m.Stop()
		return m, tea.Quit

	case "up", "k", "+", "=":
		m.nudgeSyncOffset(0.1)
	case "down", "j", "-":
		m.nudgeSyncOffset(-0.1)
	case "right", "l":
		m.nudgeSyncOffset(0.5)
	case "left", "h":
		m.nudgeSyncOffset(-0.5)
	case "0":
		m.nudgeSyncOffset(-m.loop.SyncOffset())

	case "tab", "i":
		m.hideHeader = !m.hideHeader
	}

	return m, nil
}

// nudgeSyncOffset shifts the display offset and persists it so the next
// play of this track starts aligned.
func (m *Model) nudgeSyncOffset(delta float64) {
	offset := m.loop.SyncOffset() + delta
	m.loop.SetSyncOffset(offset)

	if m.lastSnapshot == nil || m.pipeline == nil {
		return
	}
	if err := m.pipeline.SaveSyncOffset(m.lastSnapshot, offset); err != nil {
		log.Debug().Err(err).Msg("sync offset not persisted")
	}
}

func (m Model) handlePlayerEvent(event player.EventData) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.listenForPlayerEvents()}

	switch event.Type {
	case player.EventTrackChanged:
		// poll now instead of waiting out the tick interval; refresh does
		// not re-arm the timer, so the periodic chain stays singular
		cmds = append(cmds, func() tea.Msg { return refreshMsg{} })

	case player.EventSeeked:
		m.animState.Reset()
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleArtworkFetched(msg ArtworkFetchedMsg) (tea.Model, tea.Cmd) {
	// a slow fetch for the previous track must not repaint the current one
	if msg.TrackID != m.lastTrackID {
		return m, nil
	}
	if msg.Err != nil {
		log.Debug().Err(msg.Err).Msg("artwork fetch failed")
		return m, nil
	}

	m.image = msg.Image
	if msg.Palette != nil {
		m.palette = msg.Palette
	}
	return m, nil
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	m.tickCount++

	next, cmds := m.poll()
	cmds = append(cmds, next.tickCmd())
	return next, tea.Batch(cmds...)
}

// handleRefresh runs one poll outside the periodic chain. Signal wake-ups
// use it so they never fork a second self-perpetuating timer.
func (m Model) handleRefresh() (tea.Model, tea.Cmd) {
	next, cmds := m.poll()
	return next, tea.Batch(cmds...)
}

func (m Model) poll() (Model, []tea.Cmd) {
	var cmds []tea.Cmd

	var snap *track.Snapshot
	if m.player != nil {
		if s, err := m.player.Snapshot(); err == nil {
			snap = s
		}
	}

	prevIndex := m.update.LineIndex
	m.update = m.loop.Observe(context.Background(), snap)
	m.lastSnapshot = snap

	trackID := ""
	if snap.IsValid() {
		trackID = snap.ID()
	}
	if trackID != m.lastTrackID {
		m.resetForNewTrack(trackID)
		if trackID != "" && snap.ArtworkURL != "" {
			cmds = append(cmds, fetchArtworkCmd(trackID, snap.ArtworkURL))
		}
	}

	lineChanged := m.update.Status == align.StatusReady && m.update.LineIndex != prevIndex
	if lineChanged {
		m.animState.TargetScrollY = float64(m.update.LineIndex)
	}
	m.animState.Update(lineChanged, 8)

	return m, cmds
}

func fetchArtworkCmd(trackID, artworkURL string) tea.Cmd {
	return func() tea.Msg {
		img, err := artwork.Fetch(artworkURL)
		if err != nil {
			return ArtworkFetchedMsg{TrackID: trackID, Err: err}
		}
		return ArtworkFetchedMsg{
			TrackID: trackID,
			Image:   img,
			Palette: artwork.ExtractPalette(img),
		}
	}
}
