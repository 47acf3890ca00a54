package favorite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoreiras/rockwave/internal/domain/track"
)

func TestSlot_EmptyByDefault(t *testing.T) {
	s := NewSlot()

	_, _, err := s.Get()
	assert.ErrorIs(t, err, ErrNoFavorite)
}

func TestSlot_SaveAndGet(t *testing.T) {
	s := NewSlot()
	s.Save(track.Track{ID: "a", Title: "Song A", Artist: "Band", Duration: 3 * time.Minute})

	got, savedAt, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, "Song A", got.Title)
	assert.False(t, savedAt.IsZero())
}

func TestSlot_LastSaveWins(t *testing.T) {
	s := NewSlot()
	s.Save(track.Track{ID: "a", Title: "First"})
	s.Save(track.Track{ID: "b", Title: "Second"})

	got, _, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)
}

func TestSlot_SnapshotIsolatedFromLaterMutation(t *testing.T) {
	s := NewSlot()

	original := track.Track{ID: "a", Title: "Song A", StreamURL: "https://cdn.example.com/v1"}
	s.Save(original)

	// Mutating the source track after saving must not alter the snapshot.
	original.Title = "Renamed"
	original.StreamURL = "https://cdn.example.com/v2"

	got, _, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "Song A", got.Title)
	assert.Equal(t, "https://cdn.example.com/v1", got.StreamURL)
}

func TestSlot_GetReturnsCopy(t *testing.T) {
	s := NewSlot()
	s.Save(track.Track{ID: "a", Title: "Song A"})

	first, _, err := s.Get()
	require.NoError(t, err)
	first.Title = "Tampered"

	second, _, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "Song A", second.Title)
}
