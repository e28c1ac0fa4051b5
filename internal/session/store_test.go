package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gpxracer.app/internal/clock"
	"gpxracer.app/internal/route"
)

var t0 = time.Date(2026, 5, 2, 7, 30, 0, 0, time.UTC)

func testRoute(t *testing.T) *route.Route {
	t.Helper()
	r, err := route.Build([]route.GeoPoint{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.01}, {Lat: 0, Lon: 0.02}})
	require.NoError(t, err)
	return r
}

func TestCreateAndGet(t *testing.T) {
	store := NewStore(clock.NewMockClock(t0), 0, nil)

	created := store.Create()
	require.NotEmpty(t, created.ID)
	assert.Equal(t, t0, created.Created)
	assert.False(t, created.Ready())

	got, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 1, store.Len())

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewStore(clock.NewMockClock(t0), 0, nil)
	id := store.Create().ID

	got, err := store.Get(id)
	require.NoError(t, err)
	got.State.Route1Progress = 0.9

	again, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 0.0, again.State.Route1Progress)
}

func TestUpdate(t *testing.T) {
	mock := clock.NewMockClock(t0)
	store := NewStore(mock, 0, nil)
	id := store.Create().ID
	r := testRoute(t)

	mock.Advance(time.Minute)
	updated, err := store.Update(id, func(s *Session) error {
		return s.SetRoute(1, "morning.gpx", r)
	})
	require.NoError(t, err)
	assert.Same(t, r, updated.Route(1))
	assert.Equal(t, "morning.gpx", updated.FileNames[0])
	require.NotNil(t, updated.Indexes[0])
	assert.Equal(t, 3, updated.Indexes[0].Len())
	assert.Equal(t, t0.Add(time.Minute), updated.LastSeen)
	assert.Nil(t, updated.Route(2))
	assert.Nil(t, updated.Route(3))
}

func TestUpdateDiscardsChangesOnError(t *testing.T) {
	store := NewStore(clock.NewMockClock(t0), 0, nil)
	id := store.Create().ID
	boom := errors.New("boom")

	_, err := store.Update(id, func(s *Session) error {
		s.State.Route1Progress = 0.5
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.State.Route1Progress)

	_, err = store.Update("missing", func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetRouteRejectsBadSlot(t *testing.T) {
	var s Session
	err := s.SetRoute(3, "x.gpx", testRoute(t))
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestSetRouteKeepsProgress(t *testing.T) {
	s := Session{}
	s.State.Route1Progress = 0.4
	s.State.Route2Progress = 1.7

	require.NoError(t, s.SetRoute(2, "b.gpx", testRoute(t)))
	assert.Equal(t, 0.4, s.State.Route1Progress)
	assert.Equal(t, 1.0, s.State.Route2Progress)
}

func TestDelete(t *testing.T) {
	store := NewStore(clock.NewMockClock(t0), 0, nil)
	id := store.Create().ID

	require.NoError(t, store.Delete(id))
	assert.ErrorIs(t, store.Delete(id), ErrNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestSnapshotOrderedByCreation(t *testing.T) {
	mock := clock.NewMockClock(t0)
	store := NewStore(mock, 0, nil)

	first := store.Create().ID
	mock.Advance(time.Second)
	second := store.Create().ID

	snap := store.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, first, snap[0].ID)
	assert.Equal(t, second, snap[1].ID)
}

func TestCleanupOnceEvictsIdleSessions(t *testing.T) {
	mock := clock.NewMockClock(t0)
	store := NewStore(mock, 10*time.Minute, nil)

	idle := store.Create().ID
	mock.Advance(8 * time.Minute)
	active := store.Create().ID
	mock.Advance(5 * time.Minute)

	assert.Equal(t, 1, store.cleanupOnce())
	_, err := store.Get(idle)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(active)
	assert.NoError(t, err)
}

func TestCleanupDisabledWithoutTTL(t *testing.T) {
	mock := clock.NewMockClock(t0)
	store := NewStore(mock, 0, nil)
	store.Create()
	mock.Advance(24 * time.Hour)

	assert.Equal(t, 0, store.cleanupOnce())
	assert.Equal(t, 1, store.Len())
}

func TestStartCleanupRunsOnTicker(t *testing.T) {
	mock := clock.NewMockClock(t0)
	store := NewStore(mock, time.Minute, nil)
	store.Create()

	store.StartCleanup(30 * time.Second)
	defer store.Stop()
	require.Eventually(t, func() bool { return mock.Tickers() == 1 }, time.Second, time.Millisecond)

	mock.Advance(30 * time.Second)
	mock.Advance(30 * time.Second)
	mock.Advance(30 * time.Second)

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, time.Millisecond)
}

func TestStopIsIdempotent(t *testing.T) {
	store := NewStore(clock.NewMockClock(t0), time.Minute, nil)
	store.StartCleanup(time.Second)
	store.Stop()
	store.Stop()
}

func TestSlowUpdateDoesNotBlockOtherSessions(t *testing.T) {
	mock := clock.NewMockClock(t0)
	store := NewStore(mock, time.Hour, nil)
	busy := store.Create().ID
	other := store.Create().ID

	entered := make(chan struct{})
	release := make(chan struct{})
	updated := make(chan error, 1)
	go func() {
		_, err := store.Update(busy, func(s *Session) error {
			close(entered)
			<-release
			s.State.Route1Progress = 0.5
			return nil
		})
		updated <- err
	}()
	<-entered

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := store.Get(other)
		assert.NoError(t, err)
		_, err = store.Update(other, func(s *Session) error {
			s.State.Route2Progress = 0.25
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, store.Len())
		assert.Equal(t, 0, store.cleanupOnce())
		assert.NoError(t, store.Delete(other))
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("operations on another session waited for a slow update")
	}

	close(release)
	require.NoError(t, <-updated)
	got, err := store.Get(busy)
	require.NoError(t, err)
	assert.Equal(t, 0.5, got.State.Route1Progress)
}

func TestDeleteDuringUpdate(t *testing.T) {
	store := NewStore(clock.NewMockClock(t0), 0, nil)
	id := store.Create().ID

	entered := make(chan struct{})
	release := make(chan struct{})
	updated := make(chan error, 1)
	go func() {
		_, err := store.Update(id, func(s *Session) error {
			close(entered)
			<-release
			return nil
		})
		updated <- err
	}()
	<-entered

	require.NoError(t, store.Delete(id))
	close(release)
	require.NoError(t, <-updated)

	_, err := store.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Update(id, func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}
