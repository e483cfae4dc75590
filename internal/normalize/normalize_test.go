package normalize

import "testing"

func TestNormalizeStripsDecorations(t *testing.T) {
	n := Default()

	tests := []struct {
		name      string
		rawTitle  string
		rawArtist string
		wantTitle string
		wantArt   string
		modified  bool
	}{
		{
			name:      "paren slowed reverb",
			rawTitle:  "Artist - Song (Slowed + Reverb)",
			wantTitle: "Song",
			wantArt:   "Artist",
			modified:  true,
		},
		{
			name:      "super slowed",
			rawTitle:  "Heat Waves (Super Slowed)",
			wantTitle: "Heat Waves",
			modified:  true,
		},
		{
			name:      "bracket form",
			rawTitle:  "Resonance [slowed + reverb]",
			wantTitle: "Resonance",
			modified:  true,
		},
		{
			name:      "tilde form",
			rawTitle:  "After Dark ~ Slowed Down Version",
			wantTitle: "After Dark",
			modified:  true,
		},
		{
			name:      "sped down",
			rawTitle:  "Song Name sped down",
			wantTitle: "Song Name",
			modified:  true,
		},
		{
			name:      "untouched title",
			rawTitle:  "Bohemian Rhapsody",
			rawArtist: "Queen",
			wantTitle: "Bohemian Rhapsody",
			wantArt:   "Queen",
			modified:  false,
		},
		{
			name:      "metadata artist wins over split",
			rawTitle:  "Some - Title (slowed)",
			rawArtist: "Uploader",
			wantTitle: "Some - Title",
			wantArt:   "Uploader",
			modified:  true,
		},
		{
			name:      "fullwidth decoration",
			rawTitle:  "夜に駆ける （ｓｌｏｗｅｄ）",
			wantTitle: "夜に駆ける",
			modified:  true,
		},
		{
			name:      "youtube music suffix",
			rawTitle:  "Artist - Song - YouTube Music",
			wantTitle: "Song",
			wantArt:   "Artist",
			modified:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.rawTitle, tt.rawArtist)
			if got.CleanTitle != tt.wantTitle {
				t.Errorf("CleanTitle = %q, want %q", got.CleanTitle, tt.wantTitle)
			}
			if got.Artist != tt.wantArt {
				t.Errorf("Artist = %q, want %q", got.Artist, tt.wantArt)
			}
			if got.Modified != tt.modified {
				t.Errorf("Modified = %v, want %v", got.Modified, tt.modified)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := Default()

	titles := []string{
		"Artist - Song (Slowed + Reverb)",
		"Heat Waves (super slowed)",
		"Resonance [Slowed]",
		"After Dark ~ slowed + reverb",
		"Plain Title",
		"Duvet - Slowed Version",
		"Way Down We Go (slowed) [reverb]",
	}

	for _, raw := range titles {
		first := n.Normalize(raw, "")
		second := n.Normalize(first.CleanTitle, "")
		if second.CleanTitle != first.CleanTitle {
			t.Errorf("normalize(%q) not idempotent: %q -> %q", raw, first.CleanTitle, second.CleanTitle)
		}
		if second.Modified {
			t.Errorf("re-normalizing %q reported Modified", first.CleanTitle)
		}
	}
}

func TestSplitArtistTitle(t *testing.T) {
	tests := []struct {
		in          string
		artist, ttl string
	}{
		{"Artist - Song", "Artist", "Song"},
		{"Artist – Song", "Artist", "Song"},
		{"No Separator Here", "", "No Separator Here"},
		{"Trailing -", "", "Trailing -"},
	}

	for _, tt := range tests {
		artist, title := splitArtistTitle(tt.in)
		if artist != tt.artist || title != tt.ttl {
			t.Errorf("splitArtistTitle(%q) = (%q, %q), want (%q, %q)", tt.in, artist, title, tt.artist, tt.ttl)
		}
	}
}

func TestNewRejectsBadPattern(t *testing.T) {
	_, err := New([]Rule{{Name: "broken", Pattern: `([`}})
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}
