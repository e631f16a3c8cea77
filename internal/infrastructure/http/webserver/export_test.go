package webserver

import "time"

// SetClock replaces the store's time source
func (s *SessionStore) SetClock(now func() time.Time) {
	s.now = now
}
