package schedule

import (
	"sort"

	"github.com/zianad/idarati-api/internal/models"
)

// gutterPct shaves a little off each cell when sessions share the row so
// adjacent columns do not touch.
const gutterPct = 1.0

// Geometry is the render placement computed for one session. Widths and
// offsets are percentages of the day column; vertical values are pixels.
type Geometry struct {
	SessionID    string     `json:"session_id"`
	Day          models.Day `json:"day"`
	StartMinutes int        `json:"start_minutes"`
	EndMinutes   int        `json:"end_minutes"`
	Column       int        `json:"column"`
	Columns      int        `json:"columns"`
	WidthPct     float64    `json:"width_pct"`
	LeftPct      float64    `json:"left_pct"`
	TopPx        float64    `json:"top_px"`
	HeightPx     float64    `json:"height_px"`
}

// DayLayout groups geometry per weekday, ordered monday first.
type DayLayout struct {
	Day      models.Day `json:"day"`
	Sessions []Geometry `json:"sessions"`
}

type span struct {
	session models.Session
	start   int
	end     int
}

// Layout computes render geometry for the whole week. It is a pure function
// of the session set and is recomputed on every call; nothing is cached.
func Layout(sessions []models.Session, pxPerMinute float64) []DayLayout {
	if pxPerMinute <= 0 {
		pxPerMinute = 1
	}
	byDay := make(map[models.Day][]span)
	for _, s := range sessions {
		start, end := s.Interval()
		byDay[s.Day] = append(byDay[s.Day], span{session: s, start: start, end: end})
	}

	days := make([]models.Day, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Order() < days[j].Order() })

	layouts := make([]DayLayout, 0, len(days))
	for _, day := range days {
		layouts = append(layouts, DayLayout{Day: day, Sessions: layoutDay(byDay[day], pxPerMinute)})
	}
	return layouts
}

// LayoutDay computes geometry for a single day's sessions.
func LayoutDay(sessions []models.Session, day models.Day, pxPerMinute float64) []Geometry {
	if pxPerMinute <= 0 {
		pxPerMinute = 1
	}
	spans := make([]span, 0, len(sessions))
	for _, s := range sessions {
		if s.Day != day {
			continue
		}
		start, end := s.Interval()
		spans = append(spans, span{session: s, start: start, end: end})
	}
	return layoutDay(spans, pxPerMinute)
}

func layoutDay(spans []span, pxPerMinute float64) []Geometry {
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		if spans[i].end != spans[j].end {
			return spans[i].end < spans[j].end
		}
		return spans[i].session.ID < spans[j].session.ID
	})

	geometries := make([]Geometry, 0, len(spans))
	visited := make([]bool, len(spans))
	for i := range spans {
		if visited[i] {
			continue
		}
		group := overlapGroup(spans, visited, i)
		geometries = append(geometries, assignColumns(spans, group, pxPerMinute)...)
	}

	sort.Slice(geometries, func(i, j int) bool {
		if geometries[i].StartMinutes != geometries[j].StartMinutes {
			return geometries[i].StartMinutes < geometries[j].StartMinutes
		}
		return geometries[i].SessionID < geometries[j].SessionID
	})
	return geometries
}

// overlapGroup collects the maximal transitively-connected set of spans
// containing seed. Chaining is intentional: if A overlaps B and B overlaps C,
// all three share one group even when A and C are disjoint.
func overlapGroup(spans []span, visited []bool, seed int) []int {
	group := []int{seed}
	visited[seed] = true
	stack := []int{seed}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for i := range spans {
			if visited[i] {
				continue
			}
			if spans[i].start < spans[current].end && spans[i].end > spans[current].start {
				visited[i] = true
				group = append(group, i)
				stack = append(stack, i)
			}
		}
	}
	sort.Ints(group)
	return group
}

// assignColumns greedily packs a group's spans left to right: each span takes
// the first column whose previous occupant ends at or before the span starts,
// opening a new column when none fits.
func assignColumns(spans []span, group []int, pxPerMinute float64) []Geometry {
	columnEnds := make([]int, 0, len(group))
	columns := make([]int, len(group))
	for gi, idx := range group {
		placed := false
		for col := range columnEnds {
			if columnEnds[col] <= spans[idx].start {
				columns[gi] = col
				columnEnds[col] = spans[idx].end
				placed = true
				break
			}
		}
		if !placed {
			columns[gi] = len(columnEnds)
			columnEnds = append(columnEnds, spans[idx].end)
		}
	}

	maxColumns := len(columnEnds)
	width := 100.0 / float64(maxColumns)
	geometries := make([]Geometry, len(group))
	for gi, idx := range group {
		cellWidth := width
		if maxColumns > 1 {
			cellWidth = width - gutterPct
		}
		geometries[gi] = Geometry{
			SessionID:    spans[idx].session.ID,
			Day:          spans[idx].session.Day,
			StartMinutes: spans[idx].start,
			EndMinutes:   spans[idx].end,
			Column:       columns[gi],
			Columns:      maxColumns,
			WidthPct:     cellWidth,
			LeftPct:      float64(columns[gi]) * width,
			TopPx:        float64(spans[idx].start) * pxPerMinute,
			HeightPx:     float64(spans[idx].end-spans[idx].start) * pxPerMinute,
		}
	}
	return geometries
}
