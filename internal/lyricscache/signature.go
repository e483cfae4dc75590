package lyricscache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

// Signature identifies a resolvable (artist, title, duration bucket) tuple.
// Bucketing the live duration lets near-identical replays of the same edit
// share an entry while genuinely different edits of the same song stay
// apart.
type Signature struct {
	Artist string
	Title  string
	Bucket int64
}

// NewSignature builds a signature from the normalized identity and the live
// duration, rounded to bucketSeconds granularity.
func NewSignature(artist, title string, liveDuration, bucketSeconds float64) Signature {
	if bucketSeconds <= 0 {
		bucketSeconds = DefaultBucketSeconds
	}
	return Signature{
		Artist: strings.ToLower(strings.TrimSpace(artist)),
		Title:  strings.ToLower(strings.TrimSpace(title)),
		Bucket: int64(math.Round(liveDuration/bucketSeconds) * bucketSeconds),
	}
}

// Key is the content-derived filename stem for this signature.
func (s Signature) Key() string {
	payload := fmt.Sprintf("%s|%s|%d", s.Artist, s.Title, s.Bucket)
	hash := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(hash[:12])
}

func (s Signature) String() string {
	return fmt.Sprintf("%s - %s @%ds", s.Artist, s.Title, s.Bucket)
}
