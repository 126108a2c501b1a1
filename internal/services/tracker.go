package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type sessionKey struct {
	userID   uuid.UUID
	lessonID uuid.UUID
}

type watchSession struct {
	courseID    uuid.UUID
	accumulated float64
	playing     bool
	playStarted time.Time
	lastEventAt time.Time
}

// WatchTracker accumulates seconds of active playback per (user, lesson).
// Sessions live in memory; accumulated time is flushed to the WatchCache
// on pause, on the periodic tick, and when the reaper force-pauses a
// stale session, so a crash mid-playback loses at most a few seconds.
type WatchTracker struct {
	mu       sync.Mutex
	sessions map[sessionKey]*watchSession
	cache    *WatchCache
	now      func() time.Time
}

func NewWatchTracker(cache *WatchCache) *WatchTracker {
	return &WatchTracker{
		sessions: make(map[sessionKey]*watchSession),
		cache:    cache,
		now:      time.Now,
	}
}

// Load opens (or reopens) the session for a lesson view, seeding the
// accumulated counter from the cache. The counter never regresses below
// what an earlier session already banked.
func (t *WatchTracker) Load(ctx context.Context, userID, courseID, lessonID uuid.UUID) float64 {
	cached := t.cache.Load(ctx, userID, courseID, lessonID)

	t.mu.Lock()
	defer t.mu.Unlock()

	key := sessionKey{userID, lessonID}
	s, ok := t.sessions[key]
	if !ok {
		s = &watchSession{courseID: courseID}
		t.sessions[key] = s
	}
	if cached > s.accumulated {
		s.accumulated = cached
	}
	s.lastEventAt = t.now()
	return t.projectedLocked(s)
}

// Play starts accumulating. A second Play while already playing is a
// no-op: the video player may emit duplicates. A Play with no open
// session opens one seeded from the cache, so a session the reaper
// dropped resumes without losing banked time.
func (t *WatchTracker) Play(ctx context.Context, userID, courseID, lessonID uuid.UUID) {
	cached := t.cache.Load(ctx, userID, courseID, lessonID)

	t.mu.Lock()
	defer t.mu.Unlock()

	key := sessionKey{userID, lessonID}
	s, ok := t.sessions[key]
	if !ok {
		s = &watchSession{courseID: courseID, accumulated: cached}
		t.sessions[key] = s
	}
	if s.playing {
		s.lastEventAt = t.now()
		return
	}
	s.playing = true
	s.playStarted = t.now()
	s.lastEventAt = s.playStarted
}

// PauseOrEnd banks elapsed play time and persists the counter. A pause
// without a preceding play is a no-op.
func (t *WatchTracker) PauseOrEnd(ctx context.Context, userID, lessonID uuid.UUID) float64 {
	t.mu.Lock()
	key := sessionKey{userID, lessonID}
	s, ok := t.sessions[key]
	if !ok {
		t.mu.Unlock()
		return 0
	}
	if s.playing {
		s.accumulated += t.now().Sub(s.playStarted).Seconds()
		s.playing = false
	}
	s.lastEventAt = t.now()
	accumulated := s.accumulated
	courseID := s.courseID
	t.mu.Unlock()

	t.cache.Save(ctx, userID, courseID, lessonID, accumulated)
	return accumulated
}

// Tick is the periodic checkpoint while playing: it banks the elapsed
// stretch, restarts the play mark and persists the counter. Banking on
// every tick keeps the cache holding settled time only, so a Load that
// seeds from the cache can never double-count an in-progress stretch.
func (t *WatchTracker) Tick(ctx context.Context, userID, lessonID uuid.UUID) float64 {
	t.mu.Lock()
	s, ok := t.sessions[sessionKey{userID, lessonID}]
	if !ok {
		t.mu.Unlock()
		return 0
	}
	now := t.now()
	if s.playing {
		s.accumulated += now.Sub(s.playStarted).Seconds()
		s.playStarted = now
	}
	s.lastEventAt = now
	accumulated := s.accumulated
	courseID := s.courseID
	t.mu.Unlock()

	t.cache.Save(ctx, userID, courseID, lessonID, accumulated)
	return accumulated
}

// WatchedSeconds returns the projected counter: banked seconds plus the
// live in-progress stretch when playing. Gating checks this value so the
// unlock does not wait for a pause event.
func (t *WatchTracker) WatchedSeconds(userID, lessonID uuid.UUID) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[sessionKey{userID, lessonID}]
	if !ok {
		return 0
	}
	return t.projectedLocked(s)
}

func (t *WatchTracker) projectedLocked(s *watchSession) float64 {
	projected := s.accumulated
	if s.playing {
		projected += t.now().Sub(s.playStarted).Seconds()
	}
	return projected
}

// Finish tears down the session and clears the cache entry. Called when
// a completion has been recorded: the counter has served its purpose.
func (t *WatchTracker) Finish(ctx context.Context, userID, lessonID uuid.UUID) {
	t.mu.Lock()
	key := sessionKey{userID, lessonID}
	s, ok := t.sessions[key]
	var courseID uuid.UUID
	if ok {
		courseID = s.courseID
		delete(t.sessions, key)
	}
	t.mu.Unlock()

	if ok {
		t.cache.Clear(ctx, userID, courseID, lessonID)
	}
}

// ReapStale force-pauses and flushes sessions with no event for longer
// than maxIdle, then drops them. This is the server-side stand-in for
// the page-unload flush: a client that vanishes keeps its banked time.
func (t *WatchTracker) ReapStale(ctx context.Context, maxIdle time.Duration) int {
	type flush struct {
		userID, courseID, lessonID uuid.UUID
		seconds                    float64
	}

	now := t.now()
	var flushes []flush

	t.mu.Lock()
	for key, s := range t.sessions {
		if now.Sub(s.lastEventAt) < maxIdle {
			continue
		}
		if s.playing {
			// Credit play time only up to the last event we heard;
			// silence after that is not watching.
			played := s.lastEventAt.Sub(s.playStarted).Seconds()
			if played > 0 {
				s.accumulated += played
			}
			s.playing = false
		}
		flushes = append(flushes, flush{key.userID, s.courseID, key.lessonID, s.accumulated})
		delete(t.sessions, key)
	}
	t.mu.Unlock()

	for _, f := range flushes {
		t.cache.Save(ctx, f.userID, f.courseID, f.lessonID, f.seconds)
	}
	return len(flushes)
}
