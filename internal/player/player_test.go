package player

import (
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
)

func TestExtractSecondsVariants(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]dbus.Variant
		want float64
	}{
		{"int64 micros", map[string]dbus.Variant{"mpris:length": dbus.MakeVariant(int64(240_000_000))}, 240},
		{"uint64 micros", map[string]dbus.Variant{"mpris:length": dbus.MakeVariant(uint64(180_500_000))}, 180.5},
		{"negative", map[string]dbus.Variant{"mpris:length": dbus.MakeVariant(int64(-1))}, 0},
		{"missing", map[string]dbus.Variant{}, 0},
		{"wrong type", map[string]dbus.Variant{"mpris:length": dbus.MakeVariant("240")}, 0},
	}
	for _, tt := range tests {
		if got := extractSeconds(tt.meta, "mpris:length"); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestExtractArtistPrefersFirstOfList(t *testing.T) {
	meta := map[string]dbus.Variant{
		"xesam:artist": dbus.MakeVariant([]string{"Main Artist", "Featured"}),
	}
	if got := extractArtist(meta, "xesam:artist"); got != "Main Artist" {
		t.Errorf("got %q", got)
	}

	meta["xesam:artist"] = dbus.MakeVariant("Solo")
	if got := extractArtist(meta, "xesam:artist"); got != "Solo" {
		t.Errorf("plain string: got %q", got)
	}

	if got := extractArtist(meta, "nope"); got != "" {
		t.Errorf("missing key: got %q", got)
	}
}

func TestExtractStringAcceptsObjectPath(t *testing.T) {
	meta := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(dbus.ObjectPath("/com/spotify/track/abc")),
	}
	if got := extractString(meta, "mpris:trackid"); got != "/com/spotify/track/abc" {
		t.Errorf("got %q", got)
	}
}

func TestSeekDetected(t *testing.T) {
	s := &Service{}

	// no prior sample: nothing to compare against
	if s.SeekDetected(120) {
		t.Error("seek reported before any position sample")
	}

	s.mu.Lock()
	s.lastPosition = 100
	s.lastSampled = time.Now()
	s.mu.Unlock()

	if s.SeekDetected(101) {
		t.Error("normal progression flagged as seek")
	}
	if !s.SeekDetected(150) {
		t.Error("forward jump not flagged")
	}
	if !s.SeekDetected(50) {
		t.Error("backward jump not flagged")
	}
}
