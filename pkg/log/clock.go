package log

import "time"

// SanityEpoch separates a trustworthy wall clock from one that was never set.
// Wall times before it are replaced by the uptime counter.
var SanityEpoch = time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC)

// Clock supplies wall-clock time and a monotonic uptime counter.
type Clock interface {
	// Now returns the wall-clock time. An error means the time is unavailable.
	Now() (time.Time, error)

	// Uptime returns the time elapsed since boot.
	Uptime() time.Duration
}

// SystemClock reads the host clock. Uptime counts from construction.
type SystemClock struct {
	boot time.Time
}

// NewSystemClock returns a SystemClock whose uptime starts now.
func NewSystemClock() *SystemClock {
	return &SystemClock{boot: time.Now()}
}

// Now returns the current wall-clock time.
func (c *SystemClock) Now() (time.Time, error) {
	return time.Now(), nil
}

// Uptime returns the monotonic time since the clock was created.
func (c *SystemClock) Uptime() time.Duration {
	return time.Since(c.boot)
}

var _ Clock = (*SystemClock)(nil)

// timestampMicros picks the entry timestamp: wall clock when available and
// sane, uptime otherwise.
func timestampMicros(c Clock) int64 {
	now, err := c.Now()
	if err != nil || now.Unix() < SanityEpoch.Unix() {
		return c.Uptime().Microseconds()
	}
	return now.UnixMicro()
}
