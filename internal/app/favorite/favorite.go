// Package favorite provides the single on-demand saved track slot.
package favorite

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/jmoreiras/rockwave/internal/domain/track"
)

// ErrNoFavorite indicates that nothing has been saved yet.
var ErrNoFavorite = errors.New("no favorite saved")

// Slot holds at most one saved track. Save stores a deep copy of the
// track's fields at save time, so later catalog mutation never alters the
// snapshot. The last save wins; the slot is only cleared by overwriting.
type Slot struct {
	mu      sync.RWMutex
	snap    *track.Track
	savedAt time.Time
}

// NewSlot creates an empty favorite slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Save stores a snapshot of the track, overwriting any previous favorite.
func (s *Slot) Save(t track.Track) {
	snap := t.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = &snap
	s.savedAt = time.Now()
}

// Get returns the saved snapshot and the time it was saved.
func (s *Slot) Get() (track.Track, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snap == nil {
		return track.Track{}, time.Time{}, ErrNoFavorite
	}
	return s.snap.Clone(), s.savedAt, nil
}
