// Package player reads playback state from an MPRIS player over the
// session bus. Polling drives the sync loop; bus signals only wake it up
// early on track changes and seeks.
package player

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"

	"github.com/slowverb/slowverb/internal/track"
)

const (
	mprisPath        = "/org/mpris/MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"
	mprisPrefix      = "org.mpris.MediaPlayer2."
)

// ErrNoSession means the configured player is not on the bus right now.
var ErrNoSession = errors.New("no media session")

type Event int

const (
	EventTrackChanged Event = iota
	EventSeeked
	EventPlaybackChanged
)

type EventData struct {
	Type     Event
	Position float64
	Playing  bool
}

type Service struct {
	bus     *dbus.Conn
	service string

	signalChan chan *dbus.Signal
	stopChan   chan struct{}
	stopOnce   sync.Once
	events     chan EventData

	mu           sync.Mutex
	lastPosition float64
	lastSampled  time.Time
}

func NewService(bus *dbus.Conn, mprisService string) (*Service, error) {
	if bus == nil {
		return nil, errors.New("nil dbus connection")
	}
	if mprisService == "" {
		return nil, errors.New("empty mpris service name")
	}
	return &Service{
		bus:     bus,
		service: mprisService,
		events:  make(chan EventData, 16),
	}, nil
}

// Start subscribes to the player's change signals. The poll loop works
// without it; signals just make reactions immediate.
func (s *Service) Start() error {
	s.signalChan = make(chan *dbus.Signal, 10)
	s.stopChan = make(chan struct{})
	s.bus.Signal(s.signalChan)

	matches := []string{
		fmt.Sprintf("type='signal',sender='%s',interface='org.freedesktop.DBus.Properties',member='PropertiesChanged',path='%s'",
			s.service, mprisPath),
		fmt.Sprintf("type='signal',sender='%s',interface='%s',member='Seeked',path='%s'",
			s.service, mprisPlayerIface, mprisPath),
	}
	for _, match := range matches {
		if err := s.bus.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, match).Err; err != nil {
			return fmt.Errorf("adding signal match: %w", err)
		}
	}

	go s.signalLoop()
	return nil
}

func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		if s.stopChan != nil {
			close(s.stopChan)
		}
	})
}

func (s *Service) Events() <-chan EventData {
	return s.events
}

// Snapshot reads the full playback state in one poll. A player that is not
// on the bus returns ErrNoSession, which the sync loop treats as no track.
func (s *Service) Snapshot() (*track.Snapshot, error) {
	obj := s.bus.Object(s.service, mprisPath)

	metaProp, err := obj.GetProperty(mprisPlayerIface + ".Metadata")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	metadata, ok := metaProp.Value().(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected metadata type %T", ErrNoSession, metaProp.Value())
	}

	snap := &track.Snapshot{
		TrackID:         extractString(metadata, "mpris:trackid"),
		RawTitle:        extractString(metadata, "xesam:title"),
		RawArtist:       extractArtist(metadata, "xesam:artist"),
		RawAlbum:        extractString(metadata, "xesam:album"),
		ArtworkURL:      extractString(metadata, "mpris:artUrl"),
		DurationSeconds: extractSeconds(metadata, "mpris:length"),
		SampledAt:       time.Now(),
	}

	if posProp, err := obj.GetProperty(mprisPlayerIface + ".Position"); err == nil {
		if micros, ok := posProp.Value().(int64); ok && micros >= 0 {
			snap.PositionSeconds = float64(micros) / 1e6
		}
	}
	if statusProp, err := obj.GetProperty(mprisPlayerIface + ".PlaybackStatus"); err == nil {
		if status, ok := statusProp.Value().(string); ok {
			snap.Playing = status == "Playing"
		}
	}

	s.recordPosition(snap.PositionSeconds)
	return snap, nil
}

// recordPosition tracks the last observed position so SeekDetected can
// compare against the expected playback progression.
func (s *Service) recordPosition(pos float64) {
	s.mu.Lock()
	s.lastPosition = pos
	s.lastSampled = time.Now()
	s.mu.Unlock()
}

// SeekDetected reports whether a new position is inconsistent with normal
// playback since the previous sample.
func (s *Service) SeekDetected(newPosition float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSampled.IsZero() {
		return false
	}
	expected := s.lastPosition + time.Since(s.lastSampled).Seconds()
	diff := newPosition - expected
	if diff < 0 {
		diff = -diff
	}
	return diff > 3
}

func (s *Service) signalLoop() {
	for {
		select {
		case sig, ok := <-s.signalChan:
			if !ok {
				return
			}
			s.handleSignal(sig)
		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) handleSignal(sig *dbus.Signal) {
	if sig == nil {
		return
	}
	switch sig.Name {
	case "org.freedesktop.DBus.Properties.PropertiesChanged":
		s.handlePropertiesChanged(sig)
	case "org.mpris.MediaPlayer2.Player.Seeked":
		s.handleSeeked(sig)
	}
}

func (s *Service) handlePropertiesChanged(sig *dbus.Signal) {
	if len(sig.Body) < 2 {
		return
	}
	iface, ok := sig.Body[0].(string)
	if !ok || iface != mprisPlayerIface {
		return
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}

	if _, exists := changed["Metadata"]; exists {
		s.emit(EventData{Type: EventTrackChanged})
	}
	if statusVariant, exists := changed["PlaybackStatus"]; exists {
		if status, ok := statusVariant.Value().(string); ok {
			s.emit(EventData{Type: EventPlaybackChanged, Playing: status == "Playing"})
		}
	}
}

func (s *Service) handleSeeked(sig *dbus.Signal) {
	if len(sig.Body) < 1 {
		return
	}
	micros, ok := sig.Body[0].(int64)
	if !ok || micros < 0 {
		return
	}
	pos := float64(micros) / 1e6
	s.recordPosition(pos)
	s.emit(EventData{Type: EventSeeked, Position: pos})
}

func (s *Service) emit(event EventData) {
	select {
	case s.events <- event:
	default:
		log.Debug().Int("type", int(event.Type)).Msg("dropping player event, channel full")
	}
}

// ListPlayers returns the MPRIS bus names currently registered, sorted.
func ListPlayers(bus *dbus.Conn) ([]string, error) {
	var names []string
	if err := bus.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return nil, fmt.Errorf("listing bus names: %w", err)
	}

	var players []string
	for _, name := range names {
		if strings.HasPrefix(name, mprisPrefix) {
			players = append(players, name)
		}
	}
	sort.Strings(players)
	return players, nil
}

func extractString(metadata map[string]dbus.Variant, key string) string {
	variant, exists := metadata[key]
	if !exists {
		return ""
	}
	if text, ok := variant.Value().(string); ok {
		return text
	}
	// trackid arrives as an object path from some players
	if path, ok := variant.Value().(dbus.ObjectPath); ok {
		return string(path)
	}
	return ""
}

func extractArtist(metadata map[string]dbus.Variant, key string) string {
	variant, exists := metadata[key]
	if !exists {
		return ""
	}
	switch typed := variant.Value().(type) {
	case []string:
		if len(typed) > 0 {
			return typed[0]
		}
		return ""
	case string:
		return typed
	default:
		return ""
	}
}

func extractSeconds(metadata map[string]dbus.Variant, key string) float64 {
	variant, exists := metadata[key]
	if !exists {
		return 0
	}
	switch typed := variant.Value().(type) {
	case int64:
		if typed <= 0 {
			return 0
		}
		return float64(typed) / 1e6
	case uint64:
		return float64(typed) / 1e6
	case float64:
		if typed <= 0 {
			return 0
		}
		return typed / 1e6
	default:
		return 0
	}
}
