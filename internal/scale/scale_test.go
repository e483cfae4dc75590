package scale

import (
	"errors"
	"math"
	"testing"

	"github.com/slowverb/slowverb/internal/lrclib"
)

func TestApplyScalesEveryTimestamp(t *testing.T) {
	lines := []lrclib.Line{
		{TimeSeconds: 10, Text: "a"},
		{TimeSeconds: 60, Text: "b"},
		{TimeSeconds: 150, Text: "c"},
	}

	// live 240s over reference 180s: the end-to-end example factor
	got, err := Apply(lines, 180, 240)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	wantFactor := 240.0 / 180.0
	if math.Abs(got.ScaleFactor-wantFactor) > 1e-9 {
		t.Errorf("ScaleFactor = %v, want %v", got.ScaleFactor, wantFactor)
	}
	if got.LowConfidence {
		t.Error("factor 1.33 flagged low confidence")
	}
	if math.Abs(got.Lines[0].TimeSeconds-13.333333333) > 1e-6 {
		t.Errorf("line 0 time = %v, want ~13.333", got.Lines[0].TimeSeconds)
	}
	for i := range lines {
		want := lines[i].TimeSeconds * wantFactor
		if math.Abs(got.Lines[i].TimeSeconds-want) > 1e-9 {
			t.Errorf("line %d time = %v, want %v", i, got.Lines[i].TimeSeconds, want)
		}
		if got.Lines[i].Text != lines[i].Text {
			t.Errorf("line %d text changed: %q", i, got.Lines[i].Text)
		}
	}
}

func TestApplyRoundTrip(t *testing.T) {
	lines := []lrclib.Line{
		{TimeSeconds: 5, Text: "x"},
		{TimeSeconds: 42.5, Text: "y"},
	}

	for _, factor := range []float64{0.5, 1.0, 1.3, 2.75} {
		ref := 200.0
		got, err := Apply(lines, ref, ref*factor)
		if err != nil {
			t.Fatalf("Apply(factor=%v): %v", factor, err)
		}
		for i := range lines {
			want := lines[i].TimeSeconds * factor
			if math.Abs(got.Lines[i].TimeSeconds-want) > 1e-9 {
				t.Errorf("factor %v line %d = %v, want %v", factor, i, got.Lines[i].TimeSeconds, want)
			}
		}
	}
}

func TestApplyPreservesMonotonicOrder(t *testing.T) {
	lines := []lrclib.Line{
		{TimeSeconds: 0},
		{TimeSeconds: 0},
		{TimeSeconds: 3.2},
		{TimeSeconds: 3.2},
		{TimeSeconds: 91},
	}

	for _, factor := range []float64{0.1, 0.33, 1, 2.9, 10} {
		got, err := Apply(lines, 100, 100*factor)
		if err != nil {
			t.Fatalf("Apply(factor=%v): %v", factor, err)
		}
		for i := 1; i < len(got.Lines); i++ {
			if got.Lines[i].TimeSeconds < got.Lines[i-1].TimeSeconds {
				t.Fatalf("factor %v broke ordering at %d: %v < %v",
					factor, i, got.Lines[i].TimeSeconds, got.Lines[i-1].TimeSeconds)
			}
		}
	}
}

func TestApplyFlagsLowConfidence(t *testing.T) {
	lines := []lrclib.Line{{TimeSeconds: 1, Text: "a"}}

	tests := []struct {
		ref, live float64
		low       bool
	}{
		{100, 100, false},
		{100, 30, false},  // factor 0.3, boundary is inclusive
		{100, 300, false}, // factor 3.0
		{100, 29, true},
		{100, 301, true},
		{100, 1000, true},
	}

	for _, tt := range tests {
		got, err := Apply(lines, tt.ref, tt.live)
		if err != nil {
			t.Fatalf("Apply(%v, %v): %v", tt.ref, tt.live, err)
		}
		if got.LowConfidence != tt.low {
			t.Errorf("Apply(%v, %v).LowConfidence = %v, want %v", tt.ref, tt.live, got.LowConfidence, tt.low)
		}
	}
}

func TestApplyRejectsBadDurations(t *testing.T) {
	lines := []lrclib.Line{{TimeSeconds: 1}}

	if _, err := Apply(lines, 0, 100); !errors.Is(err, ErrBadDuration) {
		t.Errorf("zero reference: got %v", err)
	}
	if _, err := Apply(lines, -5, 100); !errors.Is(err, ErrBadDuration) {
		t.Errorf("negative reference: got %v", err)
	}
	if _, err := Apply(lines, 100, 0); !errors.Is(err, ErrBadDuration) {
		t.Errorf("zero live: got %v", err)
	}
}
