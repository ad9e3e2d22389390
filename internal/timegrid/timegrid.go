// Package timegrid discretizes a school day into fixed-size time slots and
// converts between wall-clock strings and minute offsets from the day start.
// All times are local wall-clock; there is no time zone handling.
package timegrid

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// SlotMinutes is the grid granularity.
	SlotMinutes = 30

	DefaultDayStart = "08:00"
	DefaultDayEnd   = "22:00"

	// DefaultPxPerMinute drives the vertical render scale of timetable views.
	DefaultPxPerMinute = 1.0
)

// AllowedDurations enumerates the session lengths (minutes) the API accepts.
var AllowedDurations = []int{30, 45, 60, 90, 120, 150, 180, 210, 240}

// ValidDuration reports whether d belongs to the allowed duration set.
func ValidDuration(d int) bool {
	for _, allowed := range AllowedDurations {
		if d == allowed {
			return true
		}
	}
	return false
}

// Grid converts clock strings to offsets relative to its configured day start
// and bounds placements to the configured day window.
type Grid struct {
	dayStart    int
	dayEnd      int
	pxPerMinute float64
}

// New builds a grid from "HH:MM" day bounds.
func New(dayStart, dayEnd string, pxPerMinute float64) (*Grid, error) {
	start, err := parseClock(dayStart)
	if err != nil {
		return nil, fmt.Errorf("day start: %w", err)
	}
	end, err := parseClock(dayEnd)
	if err != nil {
		return nil, fmt.Errorf("day end: %w", err)
	}
	if end <= start {
		return nil, fmt.Errorf("day end %q must be after day start %q", dayEnd, dayStart)
	}
	if pxPerMinute <= 0 {
		pxPerMinute = DefaultPxPerMinute
	}
	return &Grid{dayStart: start, dayEnd: end, pxPerMinute: pxPerMinute}, nil
}

// Default returns a grid with the standard 08:00-22:00 window.
func Default() *Grid {
	g, err := New(DefaultDayStart, DefaultDayEnd, DefaultPxPerMinute)
	if err != nil {
		panic(err) // constants are well-formed
	}
	return g
}

// ToMinutes parses "HH:MM" and returns minutes elapsed since the day start.
// The result may be negative or past the day end; bounds are checked
// separately so callers can distinguish malformed input from out-of-window
// placements.
func (g *Grid) ToMinutes(clock string) (int, error) {
	abs, err := parseClock(clock)
	if err != nil {
		return 0, err
	}
	return abs - g.dayStart, nil
}

// FromMinutes renders a day-start offset back into "HH:MM".
func (g *Grid) FromMinutes(offset int) string {
	abs := g.dayStart + offset
	return fmt.Sprintf("%02d:%02d", abs/60, abs%60)
}

// InBounds reports whether [start, start+duration) fits the day window.
func (g *Grid) InBounds(start, duration int) bool {
	if start < 0 || duration <= 0 {
		return false
	}
	return g.dayStart+start+duration <= g.dayEnd
}

// DayMinutes returns the length of the schedulable window.
func (g *Grid) DayMinutes() int {
	return g.dayEnd - g.dayStart
}

// Slots lists every slot start offset within the window at grid granularity.
func (g *Grid) Slots() []int {
	slots := make([]int, 0, g.DayMinutes()/SlotMinutes)
	for offset := 0; offset+SlotMinutes <= g.DayMinutes(); offset += SlotMinutes {
		slots = append(slots, offset)
	}
	return slots
}

// PxPerMinute returns the render scale used by layout geometry.
func (g *Grid) PxPerMinute() float64 {
	return g.pxPerMinute
}

func parseClock(clock string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(clock), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed clock value %q, expected HH:MM", clock)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed clock value %q: %w", clock, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed clock value %q: %w", clock, err)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock value %q out of range", clock)
	}
	return hours*60 + minutes, nil
}
