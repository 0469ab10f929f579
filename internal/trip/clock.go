package trip

import (
	"fmt"
	"time"
)

// ClockTime is a time of day expressed as minutes since local midnight.
// Proposals carry clock times on the wire as "15:04" strings; ClockTime is
// the resolved in-memory form.
type ClockTime int

// ParseClock parses a "15:04" clock string into a ClockTime.
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse clock time %q: %w", s, err)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Add returns the clock time shifted by d, truncated to whole minutes.
func (c ClockTime) Add(d time.Duration) ClockTime {
	return c + ClockTime(d/time.Minute)
}

// Window is a half-open [Start, End) time range within a single day.
type Window struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	return time.Duration(w.End-w.Start) * time.Minute
}

// IsZero reports whether the window is unset.
func (w Window) IsZero() bool {
	return w.Start == 0 && w.End == 0
}

// Contains reports whether o lies fully inside w.
func (w Window) Contains(o Window) bool {
	return o.Start >= w.Start && o.End <= w.End
}

// Overlaps reports whether w and o overlap once the given buffer is added
// around w. A zero buffer degenerates to plain interval overlap.
func (w Window) Overlaps(o Window, buffer time.Duration) bool {
	pad := ClockTime(buffer / time.Minute)
	return o.Start < w.End+pad && w.Start-pad < o.End
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// Location is a place a candidate occurs at. Coordinates are optional; many
// producers only return a free-form name.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat,omitempty"`
	Lng  float64 `json:"lng,omitempty"`
	// Known reports whether Lat/Lng carry real coordinates.
	Known bool `json:"known,omitempty"`
}
