// Package catalog provides the ordered rotation catalog.
//
// The catalog is append-only in steady state: insertion order is rotation
// order, and new tracks join the back of the rotation. Appends are atomic
// with respect to read snapshots, so concurrent rotation queries always see
// a consistent prefix of the playlist.
package catalog

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/jmoreiras/rockwave/internal/domain/track"
)

// ErrInvalidTrack indicates a track that must not enter the rotation.
var ErrInvalidTrack = errors.New("invalid track")

// Catalog is an ordered collection of tracks with unique IDs.
type Catalog struct {
	mu          sync.RWMutex
	tracks      []track.Track
	minDuration time.Duration
}

// New creates an empty catalog. Tracks added with a duration below
// minDuration (or unknown) are floored to it so rotation math never
// divides by zero.
func New(minDuration time.Duration) *Catalog {
	if minDuration <= 0 {
		minDuration = 30 * time.Second
	}
	return &Catalog{
		tracks:      make([]track.Track, 0),
		minDuration: minDuration,
	}
}

// Add appends a track to the back of the rotation and returns the stored
// copy. A missing ID is generated; a non-positive duration is substituted
// with the minimum floor rather than rejected, so a single bad metadata
// fetch cannot break the rotation.
func (c *Catalog) Add(t track.Track) (track.Track, error) {
	if t.SourceURL == "" {
		return track.Track{}, errors.Wrap(ErrInvalidTrack, "missing source URL")
	}

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Duration <= 0 {
		zlog.Warn().Msgf("catalog: track %q has non-positive duration, flooring to %v", t.Title, c.minDuration)
		t.Duration = c.minDuration
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.tracks {
		if existing.ID == t.ID {
			return track.Track{}, errors.Wrapf(ErrInvalidTrack, "duplicate track ID %s", t.ID)
		}
	}

	c.tracks = append(c.tracks, t)
	zlog.Info().Msgf("catalog: added track %s (%s, %v), rotation size %d", t.ID, t.Label(), t.Duration, len(c.tracks))
	return t, nil
}

// Snapshot returns a copy of the rotation in insertion order. The copy is
// safe to iterate while appends proceed concurrently.
func (c *Catalog) Snapshot() []track.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]track.Track, len(c.tracks))
	copy(out, c.tracks)
	return out
}

// Len returns the number of tracks in the rotation.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tracks)
}

// TotalDuration returns the full rotation cycle length.
func (c *Catalog) TotalDuration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var total time.Duration
	for _, t := range c.tracks {
		total += t.Duration
	}
	return total
}

// Get returns the track with the given ID.
func (c *Catalog) Get(id string) (track.Track, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, t := range c.tracks {
		if t.ID == id {
			return t, true
		}
	}
	return track.Track{}, false
}

// UpdateStream stores a freshly resolved stream URL on the track in place.
// Returns false if the track is not in the catalog (e.g. a favorite
// snapshot that outlived its origin).
func (c *Catalog) UpdateStream(id, url string, expiresAt time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.tracks {
		if c.tracks[i].ID == id {
			c.tracks[i].StreamURL = url
			c.tracks[i].StreamExpiresAt = expiresAt
			return true
		}
	}
	return false
}
