package track

import "time"

// Snapshot is a point-in-time read of the media session: what is playing,
// how long it is, and where the playhead sits. It is produced once per poll
// tick and never mutated afterwards.
type Snapshot struct {
	TrackID         string
	RawTitle        string
	RawArtist       string
	RawAlbum        string
	ArtworkURL      string
	DurationSeconds float64
	PositionSeconds float64
	Playing         bool
	SampledAt       time.Time
}

func (s *Snapshot) IsValid() bool {
	if s == nil {
		return false
	}
	return s.RawTitle != "" && s.DurationSeconds > 0
}

// ID returns a stable identity for the track. Players that don't expose
// mpris:trackid fall back to title+artist.
func (s *Snapshot) ID() string {
	if s == nil {
		return ""
	}
	if s.TrackID != "" {
		return s.TrackID
	}
	return s.RawArtist + "\x00" + s.RawTitle
}

func (s *Snapshot) IsSameTrack(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.ID() == other.ID()
}
