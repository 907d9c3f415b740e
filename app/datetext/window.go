package datetext

import "time"

// Window bounds how far from the reference time a start date may be before
// the record is treated as stale or bogus.
type Window struct {
	PastDays   int
	FutureDays int
}

func DefaultWindow() Window {
	return Window{PastDays: 365, FutureDays: 730}
}

// Contains reports whether start lies inside the window around now.
func (w Window) Contains(start, now time.Time) bool {
	earliest := now.AddDate(0, 0, -w.PastDays)
	latest := now.AddDate(0, 0, w.FutureDays)
	return !start.Before(earliest) && !start.After(latest)
}
