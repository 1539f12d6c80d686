package interop

import (
	"time"

	"github.com/loov/hrtime"
)

type HRClock struct {
	last time.Duration
}

func NewHRClock() *HRClock {
	return &HRClock{last: hrtime.Now()}
}

func (c *HRClock) Lap() time.Duration {
	now := hrtime.Now()
	delta := now - c.last
	c.last = now
	return delta
}
