// Package resolver maps tracks to currently-valid, time-limited audio URLs.
//
// Extracted audio URLs expire after a few hours. The resolver caches the
// URL per track and keeps returning the cached value while it is still
// comfortably far from expiry: re-resolving on every poll would hand naive
// clients a different URL each time and reset their playback position, so
// the cache-with-margin policy is a correctness requirement rather than an
// optimization. Only once inside the refresh margin does it ask the
// extractor for a fresh URL, and concurrent callers for the same track
// share a single extraction.
package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/jmoreiras/rockwave/internal/domain/track"
)

// ErrResolutionFailed indicates the extractor was unreachable or rejected
// the source, and no previously resolved URL is available to fall back on.
var ErrResolutionFailed = errors.New("resolution failed")

// Extraction is the result of resolving a source reference.
type Extraction struct {
	AudioURL  string
	Title     string
	Artist    string
	Duration  time.Duration
	Thumbnail string
	ExpiresAt time.Time
}

// Extractor turns a source reference into a playable, time-limited URL.
// Implementations own their timeout and retry policy.
type Extractor interface {
	Extract(ctx context.Context, sourceURL string) (*Extraction, error)
}

// Store receives resolved URLs so the owning track is updated in place.
type Store interface {
	UpdateStream(id, url string, expiresAt time.Time) bool
}

// Stream is a currently playable URL for a track.
type Stream struct {
	URL       string
	ExpiresAt time.Time
}

// Config holds resolver configuration.
type Config struct {
	RefreshMargin time.Duration // refresh when expiry is closer than this
}

// Resolver caches resolved stream URLs per track.
type Resolver struct {
	extractor Extractor
	store     Store
	margin    time.Duration
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// entry holds the cached stream for one track. Its mutex serializes
// refreshes so concurrent queries never hammer the extractor in parallel
// or overwrite each other's expiry.
type entry struct {
	mu        sync.Mutex
	url       string
	expiresAt time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithNow overrides the time source. Used by tests.
func WithNow(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// New creates a resolver. store may be nil when resolved URLs need not be
// written back anywhere.
func New(extractor Extractor, store Store, cfg Config, opts ...Option) *Resolver {
	if cfg.RefreshMargin <= 0 {
		cfg.RefreshMargin = 20 * time.Minute
	}
	r := &Resolver{
		extractor: extractor,
		store:     store,
		margin:    cfg.RefreshMargin,
		now:       time.Now,
		entries:   make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns a playable URL for the track.
//
// While the cached URL is further than the refresh margin from expiry it is
// returned unchanged. Inside the margin the extractor is invoked; if that
// fails but a previously resolved URL exists, the stale URL is served
// instead of failing the caller, since a slightly stale URL is preferable
// to no audio. Only with no fallback at all does Resolve return
// ErrResolutionFailed.
func (r *Resolver) Resolve(ctx context.Context, t track.Track) (Stream, error) {
	e := r.entry(t)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := r.now()
	if e.url != "" && e.expiresAt.Sub(now) > r.margin {
		return Stream{URL: e.url, ExpiresAt: e.expiresAt}, nil
	}

	ext, err := r.extractor.Extract(ctx, t.SourceURL)
	if err != nil {
		if e.url != "" {
			zlog.Warn().Msgf("resolver: refresh failed for track %s, serving stale URL (expires %v): %v", t.ID, e.expiresAt, err)
			return Stream{URL: e.url, ExpiresAt: e.expiresAt}, nil
		}
		return Stream{}, errors.Wrapf(ErrResolutionFailed, "track %s: %v", t.ID, err)
	}
	if ext.AudioURL == "" {
		if e.url != "" {
			return Stream{URL: e.url, ExpiresAt: e.expiresAt}, nil
		}
		return Stream{}, errors.Wrapf(ErrResolutionFailed, "track %s: extractor returned no audio URL", t.ID)
	}

	e.url = ext.AudioURL
	e.expiresAt = ext.ExpiresAt
	if r.store != nil {
		r.store.UpdateStream(t.ID, e.url, e.expiresAt)
	}
	zlog.Debug().Msgf("resolver: refreshed stream for track %s, expires %v", t.ID, e.expiresAt)

	return Stream{URL: e.url, ExpiresAt: e.expiresAt}, nil
}

// entry returns the cache slot for the track, creating it on first use and
// seeding it from the URL already carried on the track (e.g. resolved at
// add time).
func (r *Resolver) entry(t track.Track) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[t.ID]
	if !ok {
		e = &entry{url: t.StreamURL, expiresAt: t.StreamExpiresAt}
		r.entries[t.ID] = e
	}
	return e
}
