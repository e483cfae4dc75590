// Package scale retimes a synced lyric sequence from the duration it was
// authored for to the duration of the rendition actually playing.
package scale

import (
	"errors"
	"fmt"

	"github.com/slowverb/slowverb/internal/lrclib"
)

// Confidence band for the scale factor. A factor outside it almost always
// means the resolver picked the wrong reference recording, but the result is
// still produced so the caller can decide what to display.
const (
	MinConfidentFactor = 0.3
	MaxConfidentFactor = 3.0
)

// ErrBadDuration rejects zero or negative durations before any division
// happens. The resolver must never hand the scaler a non-positive reference.
var ErrBadDuration = errors.New("duration must be positive")

// Lyrics is a fully retimed line sequence, ready for live alignment.
type Lyrics struct {
	Lines           []lrclib.Line
	ScaleFactor     float64
	LowConfidence   bool
	SourceTitle     string
	SourceArtist    string
	SourceAlbum     string
	SourceDuration  float64
	OriginSignature string
}

// Apply multiplies every timestamp by liveDuration/referenceDuration.
// Multiplication by a positive constant preserves the non-decreasing order
// of the input sequence.
func Apply(lines []lrclib.Line, referenceDuration, liveDuration float64) (*Lyrics, error) {
	if referenceDuration <= 0 {
		return nil, fmt.Errorf("%w: reference %.2fs", ErrBadDuration, referenceDuration)
	}
	if liveDuration <= 0 {
		return nil, fmt.Errorf("%w: live %.2fs", ErrBadDuration, liveDuration)
	}

	factor := liveDuration / referenceDuration

	scaled := make([]lrclib.Line, len(lines))
	for i, line := range lines {
		scaled[i] = lrclib.Line{
			TimeSeconds: line.TimeSeconds * factor,
			Text:        line.Text,
		}
	}

	return &Lyrics{
		Lines:          scaled,
		ScaleFactor:    factor,
		LowConfidence:  factor < MinConfidentFactor || factor > MaxConfidentFactor,
		SourceDuration: referenceDuration,
	}, nil
}
