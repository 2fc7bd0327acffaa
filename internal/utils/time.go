package utils

import "time"

// Now returns the current UTC time truncated to microseconds, matching the
// precision of the timestamp columns.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func NowPtr() *time.Time {
	now := Now()
	return &now
}
