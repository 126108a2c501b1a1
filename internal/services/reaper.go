package services

import (
	"context"
	"log"
	"time"
)

const (
	reaperPollInterval = 30 * time.Second
	sessionMaxIdle     = 2 * time.Minute
)

// SessionReaper periodically flushes watch sessions that stopped sending
// events, standing in for the page-unload flush a browser would do.
type SessionReaper struct {
	tracker  *WatchTracker
	stopChan chan struct{}
}

func NewSessionReaper(tracker *WatchTracker) *SessionReaper {
	return &SessionReaper{
		tracker:  tracker,
		stopChan: make(chan struct{}),
	}
}

func (s *SessionReaper) Start() {
	go func() {
		ticker := time.NewTicker(reaperPollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				if n := s.tracker.ReapStale(context.Background(), sessionMaxIdle); n > 0 {
					log.Printf("session reaper: flushed %d stale watch sessions", n)
				}
			}
		}
	}()

	log.Printf("Session reaper started")
}

func (s *SessionReaper) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}
