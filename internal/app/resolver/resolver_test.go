package resolver

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoreiras/rockwave/internal/domain/track"
)

// fakeExtractor returns deterministic URLs and counts invocations.
type fakeExtractor struct {
	mu    sync.Mutex
	calls atomic.Int64
	fail  bool
	ttl   time.Duration
	now   func() time.Time
}

func (f *fakeExtractor) Extract(_ context.Context, sourceURL string) (*Extraction, error) {
	n := f.calls.Add(1)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("extractor down")
	}
	return &Extraction{
		AudioURL:  fmt.Sprintf("https://cdn.example.com/%s/audio-%d", sourceURL, n),
		Duration:  3 * time.Minute,
		ExpiresAt: f.now().Add(f.ttl),
	}, nil
}

func (f *fakeExtractor) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

type fakeStore struct {
	mu      sync.Mutex
	updates map[string]string
}

func (s *fakeStore) UpdateStream(id, url string, _ time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updates == nil {
		s.updates = make(map[string]string)
	}
	s.updates[id] = url
	return true
}

func newTestResolver(t *testing.T, margin time.Duration) (*Resolver, *fakeExtractor, func(time.Time)) {
	t.Helper()

	current := time.Unix(1_700_000_000, 0)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	setNow := func(tm time.Time) {
		mu.Lock()
		defer mu.Unlock()
		current = tm
	}

	ext := &fakeExtractor{ttl: 2 * time.Hour, now: now}
	r := New(ext, nil, Config{RefreshMargin: margin}, WithNow(now))
	return r, ext, setNow
}

func TestResolver_CachesWithinMargin(t *testing.T) {
	r, ext, _ := newTestResolver(t, 20*time.Minute)
	tr := track.Track{ID: "t1", SourceURL: "v1"}

	first, err := r.Resolve(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ext.calls.Load())

	// Repeated resolves return the identical URL without touching the
	// extractor: a changing URL would reset playback for naive clients.
	for i := 0; i < 5; i++ {
		again, err := r.Resolve(context.Background(), tr)
		require.NoError(t, err)
		assert.Equal(t, first.URL, again.URL)
	}
	assert.Equal(t, int64(1), ext.calls.Load())
}

func TestResolver_RefreshesInsideMargin(t *testing.T) {
	r, ext, setNow := newTestResolver(t, 20*time.Minute)
	tr := track.Track{ID: "t1", SourceURL: "v1"}

	first, err := r.Resolve(context.Background(), tr)
	require.NoError(t, err)

	// Advance to 10 minutes before expiry, inside the 20 minute margin.
	setNow(first.ExpiresAt.Add(-10 * time.Minute))

	refreshed, err := r.Resolve(context.Background(), tr)
	require.NoError(t, err)
	assert.NotEqual(t, first.URL, refreshed.URL)
	assert.Equal(t, int64(2), ext.calls.Load())
}

func TestResolver_ServesStaleOnExtractorFailure(t *testing.T) {
	r, ext, setNow := newTestResolver(t, 20*time.Minute)
	tr := track.Track{ID: "t1", SourceURL: "v1"}

	first, err := r.Resolve(context.Background(), tr)
	require.NoError(t, err)

	setNow(first.ExpiresAt.Add(-5 * time.Minute))
	ext.setFail(true)

	// Refresh fails but the stale URL is still served: slightly stale
	// audio beats no audio.
	stale, err := r.Resolve(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, first.URL, stale.URL)
}

func TestResolver_FailsWithoutFallback(t *testing.T) {
	r, ext, _ := newTestResolver(t, 20*time.Minute)
	ext.setFail(true)

	_, err := r.Resolve(context.Background(), track.Track{ID: "t1", SourceURL: "v1"})
	assert.ErrorIs(t, err, ErrResolutionFailed)
}

func TestResolver_SeedsFromTrackCache(t *testing.T) {
	r, ext, _ := newTestResolver(t, 20*time.Minute)

	// Track already carries a URL resolved at add time, valid for hours:
	// no extractor call needed.
	tr := track.Track{
		ID:              "t1",
		SourceURL:       "v1",
		StreamURL:       "https://cdn.example.com/seeded",
		StreamExpiresAt: time.Unix(1_700_000_000, 0).Add(3 * time.Hour),
	}

	got, err := r.Resolve(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/seeded", got.URL)
	assert.Equal(t, int64(0), ext.calls.Load())
}

func TestResolver_WritesBackToStore(t *testing.T) {
	current := time.Unix(1_700_000_000, 0)
	now := func() time.Time { return current }
	ext := &fakeExtractor{ttl: 2 * time.Hour, now: now}
	store := &fakeStore{}
	r := New(ext, store, Config{RefreshMargin: 20 * time.Minute}, WithNow(now))

	got, err := r.Resolve(context.Background(), track.Track{ID: "t1", SourceURL: "v1"})
	require.NoError(t, err)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, got.URL, store.updates["t1"])
}

func TestResolver_ConcurrentResolvesShareOneExtraction(t *testing.T) {
	r, ext, _ := newTestResolver(t, 20*time.Minute)
	tr := track.Track{ID: "t1", SourceURL: "v1"}

	var wg sync.WaitGroup
	urls := make([]string, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := r.Resolve(context.Background(), tr)
			require.NoError(t, err)
			urls[i] = got.URL
		}(i)
	}
	wg.Wait()

	// One caller refreshed, everyone else waited and reused the result.
	assert.Equal(t, int64(1), ext.calls.Load())
	for _, u := range urls[1:] {
		assert.Equal(t, urls[0], u)
	}
}

func TestResolver_TracksAreCachedIndependently(t *testing.T) {
	r, ext, _ := newTestResolver(t, 20*time.Minute)

	a, err := r.Resolve(context.Background(), track.Track{ID: "a", SourceURL: "va"})
	require.NoError(t, err)
	b, err := r.Resolve(context.Background(), track.Track{ID: "b", SourceURL: "vb"})
	require.NoError(t, err)

	assert.NotEqual(t, a.URL, b.URL)
	assert.Equal(t, int64(2), ext.calls.Load())
}
