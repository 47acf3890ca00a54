package drift

import (
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/jmoreiras/rockwave/internal/app/clock"
	"github.com/jmoreiras/rockwave/internal/domain/track"
)

const defaultThreshold = 4 * time.Second

// Action is the corrector's instruction after a state poll.
type Action struct {
	Type     ActionType
	Track    track.Track   // Track to load (ActionSwap only)
	Position time.Duration // Authoritative position to seek to
}

// Corrector reconciles a local player against the authoritative broadcast
// state. It only nudges the player when drift exceeds the threshold, since
// correcting on every poll causes audible stutter, and it guards track
// swaps so at most one is in flight at a time.
type Corrector struct {
	mu           sync.Mutex
	phase        Phase
	threshold    time.Duration
	currentID    string
	swapInFlight bool
}

// NewCorrector creates a corrector. A non-positive threshold selects the
// default of 4 seconds.
func NewCorrector(threshold time.Duration) *Corrector {
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	return &Corrector{
		phase:     PhaseDisconnected,
		threshold: threshold,
	}
}

// Phase returns the current playback phase.
func (c *Corrector) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Observe processes one authoritative state poll against the locally
// measured playback position and returns the action to take.
func (c *Corrector) Observe(st clock.State, local time.Duration) Action {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.phase {
	case PhaseDisconnected, PhaseError:
		c.phase = PhaseLoading
		c.swapInFlight = true
		return Action{Type: ActionSwap, Track: st.Current, Position: st.Position}

	case PhaseLoading, PhaseSwapping:
		// A load or swap is already in flight; don't stack another.
		return Action{Type: ActionNone}
	}

	if st.Current.ID != c.currentID {
		if c.swapInFlight {
			return Action{Type: ActionNone}
		}
		c.swapInFlight = true
		c.phase = PhaseSwapping
		zlog.Debug().Msgf("drift: track changed to %s, swapping", st.Current.ID)
		return Action{Type: ActionSwap, Track: st.Current, Position: st.Position}
	}

	if diff := local - st.Position; diff > c.threshold || diff < -c.threshold {
		zlog.Debug().Msgf("drift: local position off by %v, seeking to %v", diff, st.Position)
		return Action{Type: ActionSeek, Position: st.Position}
	}

	return Action{Type: ActionNone}
}

// SwapDone marks the in-flight swap as completed for the given track.
func (c *Corrector) SwapDone(trackID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentID = trackID
	c.swapInFlight = false
	c.phase = PhasePlaying
}

// Fail records a playback or load failure. The next Observe retries with a
// full swap.
func (c *Corrector) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	zlog.Warn().Msgf("drift: playback failure: %v", err)
	c.phase = PhaseError
	c.swapInFlight = false
}

// Reset returns the corrector to the disconnected state.
func (c *Corrector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.phase = PhaseDisconnected
	c.currentID = ""
	c.swapInFlight = false
}
