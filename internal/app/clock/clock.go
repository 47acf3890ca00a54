// Package clock implements the virtual broadcast clock.
//
// The clock is the rotation/position engine of the station: given a catalog
// snapshot, the broadcast epoch T0 and a query time, it derives which track
// is airing and at what offset. It holds no state of its own, so any number
// of concurrent queries are safe without locking, and two independent
// readers asking at the same instant always get the same answer.
package clock

import (
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/jmoreiras/rockwave/internal/domain/track"
)

// ErrNoSignal indicates an empty catalog. It is a valid broadcast state,
// not a failure: the station simply has nothing on air.
var ErrNoSignal = errors.New("no signal")

// State is the derived broadcast state at a single query instant.
type State struct {
	Current    track.Track
	Position   time.Duration // offset within Current, in [0, Current.Duration)
	StartedAt  time.Time     // absolute start of the current airing
	UpNext     []track.Track // next tracks in rotation order, wrapping
	JustPlayed *track.Track  // previous track in wrap order, nil during the first airing ever
	Cycle      time.Duration // full rotation length D
}

// Compute derives the broadcast state for the given catalog snapshot.
//
// With durations d_0..d_{N-1}, D = sum(d_i) and elapsed = max(0, now-T0),
// the airing track is the one whose cumulative-duration slot contains
// elapsed mod D. StartedAt is returned as an absolute timestamp so clients
// can keep advancing the position locally between polls.
//
// A catalog appended mid-cycle shifts D and therefore the next track
// boundary; the current airing is unaffected because everything is derived
// from the snapshot passed in. Negative elapsed (client/server clock skew)
// clamps to zero.
func Compute(tracks []track.Track, t0, now time.Time, upcoming int) (State, error) {
	if len(tracks) == 0 {
		return State{}, ErrNoSignal
	}

	var cycle time.Duration
	for _, t := range tracks {
		cycle += t.Duration
	}
	if cycle <= 0 {
		// Catalog invariant (durations > 0) violated upstream.
		return State{}, errors.Wrap(ErrNoSignal, "rotation cycle has zero length")
	}

	elapsed := now.Sub(t0)
	if elapsed < 0 {
		zlog.Warn().Msgf("clock: negative elapsed %v (clock skew), clamping to 0", elapsed)
		elapsed = 0
	}
	cyclePos := elapsed % cycle

	// Walk the cumulative prefix to the slot containing cyclePos.
	// O(N) is fine at playlist scale.
	k := 0
	var prefix time.Duration
	for i, t := range tracks {
		if cyclePos < prefix+t.Duration {
			k = i
			break
		}
		prefix += t.Duration
	}

	position := cyclePos - prefix
	startedAt := t0.Add(elapsed - position)

	st := State{
		Current:   tracks[k],
		Position:  position,
		StartedAt: startedAt,
		UpNext:    upNext(tracks, k, upcoming),
		Cycle:     cycle,
	}

	// The first airing of the first cycle has no predecessor; afterwards the
	// previous slot in wrap order has always just played.
	if elapsed != cyclePos || k > 0 {
		prev := tracks[(k-1+len(tracks))%len(tracks)].Clone()
		st.JustPlayed = &prev
	}

	return st, nil
}

// upNext returns the next count tracks starting after index k, wrapping
// modulo the rotation. With a single-track rotation the same track repeats.
func upNext(tracks []track.Track, k, count int) []track.Track {
	if count <= 0 {
		return nil
	}
	out := make([]track.Track, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, tracks[(k+i)%len(tracks)])
	}
	return out
}
