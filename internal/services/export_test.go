package services

import "time"

// SetClock replaces the clock used to date new orders.
func (s *OrderService) SetClock(now func() time.Time) {
	s.now = now
}
