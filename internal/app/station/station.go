// Package station wires the catalog, broadcast clock, resolver and
// favorite slot into one continuously-running radio station.
//
// The station owns the broadcast epoch T0: it is anchored once, when the
// catalog first becomes non-empty, and is read-only afterwards. It would
// only ever re-anchor if the catalog emptied and filled again, which the
// current surface (append-only) cannot trigger. Everything else is derived
// per query, so concurrent listeners need no coordination.
package station

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/jmoreiras/rockwave/internal/app/clock"
	"github.com/jmoreiras/rockwave/internal/app/favorite"
	"github.com/jmoreiras/rockwave/internal/app/resolver"
	"github.com/jmoreiras/rockwave/internal/domain/catalog"
	"github.com/jmoreiras/rockwave/internal/domain/track"
	"github.com/jmoreiras/rockwave/internal/infra/config"
)

// AddRequest is a catalog mutation request.
type AddRequest struct {
	SourceURL string
	Title     string
	Artist    string
}

// ShareCard is a displayable description of a track for sharing.
type ShareCard struct {
	URL         string
	Title       string
	Description string
	Image       string
	Track       track.Track
}

// Station is the orchestrator behind the HTTP API.
type Station struct {
	cfg       *config.Config
	catalog   *catalog.Catalog
	resolver  *resolver.Resolver
	extractor resolver.Extractor
	favorite  *favorite.Slot
	now       func() time.Time

	mu    sync.Mutex
	epoch time.Time // zero until the catalog first becomes non-empty
}

// Option configures a Station.
type Option func(*Station)

// WithNow overrides the time source. Used by tests.
func WithNow(now func() time.Time) Option {
	return func(s *Station) { s.now = now }
}

// New creates a station.
func New(cfg *config.Config, cat *catalog.Catalog, res *resolver.Resolver, ext resolver.Extractor, opts ...Option) *Station {
	s := &Station{
		cfg:       cfg,
		catalog:   cat,
		resolver:  res,
		extractor: ext,
		favorite:  favorite.NewSlot(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start seeds the catalog from the configured playlist. The seed order is
// shuffled once here and never again, so the rotation order is fixed for
// the life of the process. Individual seed failures are logged and
// skipped; the station goes on air with whatever resolved.
func (s *Station) Start(ctx context.Context) error {
	seeds := make([]config.SeedEntry, len(s.cfg.Playlist.Seed))
	copy(seeds, s.cfg.Playlist.Seed)

	if !s.cfg.Playlist.NoShuffle {
		rand.Shuffle(len(seeds), func(i, j int) {
			seeds[i], seeds[j] = seeds[j], seeds[i]
		})
	}

	added := 0
	for _, seed := range seeds {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.AddTrack(ctx, AddRequest{
			SourceURL: seed.SourceURL,
			Title:     seed.Title,
			Artist:    seed.Artist,
		}); err != nil {
			zlog.Warn().Msgf("station: skipping seed %s: %v", seed.SourceURL, err)
			continue
		}
		added++
	}

	zlog.Info().Msgf("station: on air with %d/%d seed tracks", added, len(seeds))
	return nil
}

// AddTrack resolves metadata for the source link and appends the track to
// the back of the rotation. Request title/artist win over extracted
// metadata when provided. The first successful add anchors the broadcast
// epoch.
func (s *Station) AddTrack(ctx context.Context, req AddRequest) (track.Track, error) {
	if req.SourceURL == "" {
		return track.Track{}, errors.Wrap(catalog.ErrInvalidTrack, "missing source URL")
	}
	if _, err := url.ParseRequestURI(req.SourceURL); err != nil {
		return track.Track{}, errors.Wrapf(catalog.ErrInvalidTrack, "unparseable source URL: %v", err)
	}

	ext, err := s.extractor.Extract(ctx, req.SourceURL)
	if err != nil {
		return track.Track{}, errors.Wrapf(resolver.ErrResolutionFailed, "source %s: %v", req.SourceURL, err)
	}

	t := track.Track{
		Title:           req.Title,
		Artist:          req.Artist,
		SourceURL:       req.SourceURL,
		Duration:        ext.Duration,
		Thumbnail:       ext.Thumbnail,
		StreamURL:       ext.AudioURL,
		StreamExpiresAt: ext.ExpiresAt,
	}
	if t.Title == "" {
		t.Title = ext.Title
	}
	if t.Artist == "" {
		t.Artist = ext.Artist
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wasEmpty := s.catalog.Len() == 0
	stored, err := s.catalog.Add(t)
	if err != nil {
		return track.Track{}, err
	}

	// Anchor (or re-anchor after an empty spell) the rotation epoch.
	if wasEmpty {
		s.epoch = s.now()
		zlog.Info().Msgf("station: broadcast epoch anchored at %v", s.epoch)
	}

	return stored, nil
}

// State computes the authoritative broadcast state for the current
// instant. An empty catalog yields clock.ErrNoSignal.
func (s *Station) State() (clock.State, error) {
	snapshot := s.catalog.Snapshot()

	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	return clock.Compute(snapshot, epoch, s.now(), s.cfg.Clock.UpcomingCount)
}

// Stream returns the playable URL and authoritative position for the
// currently airing track.
func (s *Station) Stream(ctx context.Context) (resolver.Stream, clock.State, error) {
	st, err := s.State()
	if err != nil {
		return resolver.Stream{}, clock.State{}, err
	}

	stream, err := s.resolver.Resolve(ctx, st.Current)
	if err != nil {
		return resolver.Stream{}, st, err
	}
	return stream, st, nil
}

// Playlist returns the rotation in order.
func (s *Station) Playlist() []track.Track {
	return s.catalog.Snapshot()
}

// SaveFavorite snapshots the currently airing track into the favorite
// slot. Saving never perturbs the broadcast clock.
func (s *Station) SaveFavorite() (track.Track, error) {
	st, err := s.State()
	if err != nil {
		return track.Track{}, err
	}

	s.favorite.Save(st.Current)
	zlog.Info().Msgf("station: saved favorite %s (%s)", st.Current.ID, st.Current.Label())
	return st.Current, nil
}

// Favorite returns the saved favorite snapshot.
func (s *Station) Favorite() (track.Track, time.Time, error) {
	return s.favorite.Get()
}

// FavoriteStream resolves a playable URL for the favorite snapshot,
// independent of the rotation.
func (s *Station) FavoriteStream(ctx context.Context) (resolver.Stream, track.Track, error) {
	snap, _, err := s.favorite.Get()
	if err != nil {
		return resolver.Stream{}, track.Track{}, err
	}

	stream, err := s.resolver.Resolve(ctx, snap)
	if err != nil {
		return resolver.Stream{}, snap, err
	}
	return stream, snap, nil
}

// Share builds a shareable card for the currently airing track.
func (s *Station) Share() (ShareCard, error) {
	st, err := s.State()
	if err != nil {
		return ShareCard{}, err
	}

	t := st.Current
	return ShareCard{
		URL:         fmt.Sprintf("%s/?track=%s", s.cfg.Server.ShareBaseURL, t.ID),
		Title:       t.Label(),
		Description: s.cfg.Station.Description,
		Image:       t.Thumbnail,
		Track:       t,
	}, nil
}
