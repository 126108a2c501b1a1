package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

// trackerClock steps a fake clock forward so projections are exact.
type trackerClock struct {
	t time.Time
}

func (c *trackerClock) now() time.Time          { return c.t }
func (c *trackerClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker() (*WatchTracker, *memScratchStore, *trackerClock) {
	store := newMemScratchStore()
	tracker := NewWatchTracker(NewWatchCache(store))
	clock := &trackerClock{t: time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)}
	tracker.now = clock.now
	return tracker, store, clock
}

func TestTracker_AccumulatesAcrossPlayPause(t *testing.T) {
	tracker, _, clock := newTestTracker()
	userID, courseID, lessonID := uuid.New(), uuid.New(), uuid.New()
	ctx := context.Background()

	tracker.Play(ctx, userID, courseID, lessonID)
	clock.advance(30 * time.Second)
	if got := tracker.PauseOrEnd(ctx, userID, lessonID); got != 30 {
		t.Errorf("after 30s play, counter = %v, want 30", got)
	}

	// Paused time does not count.
	clock.advance(5 * time.Minute)
	if got := tracker.WatchedSeconds(userID, lessonID); got != 30 {
		t.Errorf("counter moved while paused: %v", got)
	}

	tracker.Play(ctx, userID, courseID, lessonID)
	clock.advance(15 * time.Second)
	if got := tracker.PauseOrEnd(ctx, userID, lessonID); got != 45 {
		t.Errorf("after second stretch, counter = %v, want 45", got)
	}
}

func TestTracker_ProjectionIncludesLiveStretch(t *testing.T) {
	tracker, _, clock := newTestTracker()
	userID, courseID, lessonID := uuid.New(), uuid.New(), uuid.New()
	ctx := context.Background()

	tracker.Play(ctx, userID, courseID, lessonID)
	clock.advance(42 * time.Second)

	// No pause happened, but the live stretch is projected.
	if got := tracker.WatchedSeconds(userID, lessonID); got != 42 {
		t.Errorf("projected counter = %v, want 42", got)
	}
	if got := tracker.Tick(ctx, userID, lessonID); got != 42 {
		t.Errorf("tick counter = %v, want 42", got)
	}
}

func TestTracker_DuplicatePlayIsNoOp(t *testing.T) {
	tracker, _, clock := newTestTracker()
	userID, courseID, lessonID := uuid.New(), uuid.New(), uuid.New()
	ctx := context.Background()

	tracker.Play(ctx, userID, courseID, lessonID)
	clock.advance(10 * time.Second)
	tracker.Play(ctx, userID, courseID, lessonID) // duplicate, must not reset the stretch
	clock.advance(10 * time.Second)

	if got := tracker.WatchedSeconds(userID, lessonID); got != 20 {
		t.Errorf("counter after duplicate play = %v, want 20", got)
	}
}

func TestTracker_PauseWithoutPlayIsNoOp(t *testing.T) {
	tracker, _, _ := newTestTracker()
	userID, lessonID := uuid.New(), uuid.New()

	if got := tracker.PauseOrEnd(context.Background(), userID, lessonID); got != 0 {
		t.Errorf("pause without session = %v, want 0", got)
	}
}

func TestTracker_LoadSeedsFromCacheWithoutRegressing(t *testing.T) {
	tracker, _, clock := newTestTracker()
	userID, courseID, lessonID := uuid.New(), uuid.New(), uuid.New()
	ctx := context.Background()

	tracker.cache.Save(ctx, userID, courseID, lessonID, 90)
	if got := tracker.Load(ctx, userID, courseID, lessonID); got != 90 {
		t.Errorf("Load from cache = %v, want 90", got)
	}

	// A smaller cached value never pulls the counter backwards.
	tracker.Play(ctx, userID, courseID, lessonID)
	clock.advance(20 * time.Second)
	tracker.PauseOrEnd(ctx, userID, lessonID)
	tracker.cache.Save(ctx, userID, courseID, lessonID, 5)
	if got := tracker.Load(ctx, userID, courseID, lessonID); got != 110 {
		t.Errorf("Load after stale cache write = %v, want 110", got)
	}
}

func TestTracker_FinishClearsSessionAndCache(t *testing.T) {
	tracker, store, clock := newTestTracker()
	userID, courseID, lessonID := uuid.New(), uuid.New(), uuid.New()
	ctx := context.Background()

	tracker.Play(ctx, userID, courseID, lessonID)
	clock.advance(60 * time.Second)
	tracker.PauseOrEnd(ctx, userID, lessonID)

	if _, ok := store.GetItem(ctx, watchKey(userID, courseID, lessonID)); !ok {
		t.Fatal("counter was not flushed to the cache")
	}

	tracker.Finish(ctx, userID, lessonID)
	if _, ok := store.GetItem(ctx, watchKey(userID, courseID, lessonID)); ok {
		t.Error("cache entry survived Finish")
	}
	if got := tracker.WatchedSeconds(userID, lessonID); got != 0 {
		t.Errorf("session survived Finish: %v", got)
	}
}

func TestTracker_ReapStaleFlushesAndCreditsUpToLastEvent(t *testing.T) {
	tracker, store, clock := newTestTracker()
	userID, courseID, lessonID := uuid.New(), uuid.New(), uuid.New()
	ctx := context.Background()

	tracker.Play(ctx, userID, courseID, lessonID)
	clock.advance(25 * time.Second)
	tracker.Tick(ctx, userID, lessonID) // last sign of life at +25s

	// Client vanishes; much later the reaper runs.
	clock.advance(10 * time.Minute)
	if n := tracker.ReapStale(ctx, 2*time.Minute); n != 1 {
		t.Fatalf("ReapStale flushed %d sessions, want 1", n)
	}

	// The silent 10 minutes are not credited.
	cache := NewWatchCache(store)
	if got := cache.Load(ctx, userID, courseID, lessonID); got != 25 {
		t.Errorf("flushed counter = %v, want 25", got)
	}

	// A fresh session is kept.
	tracker.Play(ctx, userID, courseID, lessonID)
	if n := tracker.ReapStale(ctx, 2*time.Minute); n != 0 {
		t.Errorf("ReapStale flushed a live session (%d)", n)
	}
}
