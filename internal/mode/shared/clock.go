package shared

import (
	"fmt"
	"time"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock always returns T.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }

var ageUnits = []struct {
	limit  time.Duration
	per    time.Duration
	suffix string
}{
	{time.Hour, time.Minute, "m"},
	{24 * time.Hour, time.Hour, "h"},
	{7 * 24 * time.Hour, 24 * time.Hour, "d"},
	{28 * 24 * time.Hour, 7 * 24 * time.Hour, "w"},
	{365 * 24 * time.Hour, 30 * 24 * time.Hour, "mo"},
}

// Age formats how long ago t was relative to now: "just now", "5m ago", "2d ago".
// Future times read as "just now".
func Age(t, now time.Time) string {
	d := now.Sub(t)
	if d < time.Minute {
		return "just now"
	}
	for _, u := range ageUnits {
		if d < u.limit {
			return fmt.Sprintf("%d%s ago", int(d/u.per), u.suffix)
		}
	}
	return fmt.Sprintf("%dy ago", int(d/(365*24*time.Hour)))
}
