package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/propmap/internal/logger"
	"github.com/stwalsh4118/propmap/internal/mapview"
	"github.com/stwalsh4118/propmap/internal/regions"
	"go.uber.org/goleak"
)

func newTestStore(t *testing.T, idle time.Duration, preload ...string) (*Store, *MockFetcher) {
	t.Helper()
	fetcher := new(MockFetcher)
	cfg := SessionConfig{
		Map:           mapview.Config{Center: oxford},
		RegionTimeout: time.Second,
		Debounce:      10 * time.Millisecond,
		QueueSize:     16,
		Preload:       preload,
	}
	st := NewStore(cfg, Dependencies{Properties: new(MockPropertySource), Regions: fetcher}, idle, logger.New("test"))
	return st, fetcher
}

func TestStore_CreateAndGet(t *testing.T) {
	defer goleak.VerifyNone(t)

	st, _ := newTestStore(t, time.Hour)
	defer st.Close()

	s, err := st.Create(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())

	got, err := st.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = st.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_GetOrCreate(t *testing.T) {
	defer goleak.VerifyNone(t)

	st, _ := newTestStore(t, time.Hour)
	defer st.Close()

	s, created, err := st.GetOrCreate(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := st.GetOrCreate(context.Background(), s.ID())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, s, again)

	other, created, err := st.GetOrCreate(context.Background(), "stale-id")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, s.ID(), other.ID())
	assert.Equal(t, 2, st.Len())
}

func TestStore_CreatePreloadsRegions(t *testing.T) {
	defer goleak.VerifyNone(t)

	st, fetcher := newTestStore(t, time.Hour, "oxford")
	defer st.Close()
	fetcher.On("FetchRegion", mock.Anything, "oxford").Return(registryPayload(), nil).Once()

	s, err := st.Create(context.Background())
	require.NoError(t, err)

	state, err := s.cache.State("oxford")
	require.NoError(t, err)
	assert.Equal(t, regions.LoadedVisible, state)
	assert.Len(t, s.DrainCommands(), 1)
}

func TestStore_PreloadFailureIsNotFatal(t *testing.T) {
	defer goleak.VerifyNone(t)

	st, fetcher := newTestStore(t, time.Hour, "oxford")
	defer st.Close()
	fetcher.On("FetchRegion", mock.Anything, "oxford").Return(nil, assert.AnError).Once()

	s, err := st.Create(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestStore_SweepEvictsIdleSessions(t *testing.T) {
	defer goleak.VerifyNone(t)

	st, _ := newTestStore(t, time.Minute)
	defer st.Close()

	idle, err := st.Create(context.Background())
	require.NoError(t, err)
	active, err := st.Create(context.Background())
	require.NoError(t, err)

	idle.lastSeen.Store(time.Now().Add(-2 * time.Minute).UnixNano())

	assert.Equal(t, 1, st.sweep(time.Now()))
	_, err = st.Get(idle.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = st.Get(active.ID())
	assert.NoError(t, err)
}

func TestStore_JanitorEvicts(t *testing.T) {
	defer goleak.VerifyNone(t)

	st, _ := newTestStore(t, 40*time.Millisecond)
	defer st.Close()

	_, err := st.Create(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return st.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestStore_Close(t *testing.T) {
	defer goleak.VerifyNone(t)

	st, _ := newTestStore(t, time.Hour)
	_, err := st.Create(context.Background())
	require.NoError(t, err)

	st.Close()
	st.Close()

	assert.Equal(t, 0, st.Len())
	_, err = st.Create(context.Background())
	assert.ErrorIs(t, err, ErrStoreClosed)
}
