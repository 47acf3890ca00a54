// Package track provides the Track domain entity.
package track

import "time"

// Track represents a playlist entry sourced from an external video link.
// Identity and metadata are fixed at add time; the resolved stream URL and
// its expiry are the only fields that change afterwards, refreshed in place
// as the time-limited URL approaches expiry.
type Track struct {
	ID        string        // Stable unique ID (UUID)
	Title     string        // Track title
	Artist    string        // Artist / uploader name
	SourceURL string        // Original video link handed to the extractor
	Duration  time.Duration // Authoritative rotation slot length, always > 0
	Thumbnail string        // Thumbnail URL (may be empty)

	StreamURL       string    // Cached time-limited audio URL (empty until resolved)
	StreamExpiresAt time.Time // Expiry of StreamURL (zero until resolved)
}

// Clone returns an independent copy of the track. All fields are value
// types, so a saved clone is unaffected by later refreshes of the original.
func (t Track) Clone() Track {
	return t
}

// HasStream reports whether a resolved stream URL is cached.
func (t *Track) HasStream() bool {
	return t.StreamURL != ""
}

// Label returns a display label in "Artist - Title" form.
func (t *Track) Label() string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}
