// Package hours holds the weekly business-hours table used to decide which
// hour-aligned slots can be booked.
package hours

import (
	"fmt"
	"strings"
	"time"
)

// Day is the opening window for one weekday. EndHour is inclusive: a slot may
// start at EndHour.
type Day struct {
	Open      bool
	StartHour int
	EndHour   int
}

type Policy struct {
	days [7]Day
	loc  *time.Location
}

// DayHours is the JSON description of one weekday.
type DayHours struct {
	Open  bool   `json:"open"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Default is the exam center schedule: Sunday closed, Monday to Thursday
// 8 to 16, Friday 8 to 17, Saturday 9 to 17.
func Default(loc *time.Location) Policy {
	weekday := Day{Open: true, StartHour: 8, EndHour: 16}
	p, _ := New([7]Day{
		time.Sunday:    {},
		time.Monday:    weekday,
		time.Tuesday:   weekday,
		time.Wednesday: weekday,
		time.Thursday:  weekday,
		time.Friday:    {Open: true, StartHour: 8, EndHour: 17},
		time.Saturday:  {Open: true, StartHour: 9, EndHour: 17},
	}, loc)
	return p
}

func New(days [7]Day, loc *time.Location) (Policy, error) {
	if loc == nil {
		loc = time.Local
	}
	for i, d := range days {
		if !d.Open {
			days[i] = Day{}
			continue
		}
		if d.StartHour < 0 || d.EndHour > 23 || d.StartHour > d.EndHour {
			return Policy{}, fmt.Errorf("%s: invalid hours %d-%d", time.Weekday(i), d.StartHour, d.EndHour)
		}
	}
	return Policy{days: days, loc: loc}, nil
}

func (p Policy) Location() *time.Location {
	if p.loc == nil {
		return time.Local
	}
	return p.loc
}

// ForDay returns the window for the weekday of t in the policy location.
func (p Policy) ForDay(t time.Time) (Day, bool) {
	d := p.days[t.In(p.Location()).Weekday()]
	return d, d.Open
}

// Contains reports whether t is the start of a bookable slot.
func (p Policy) Contains(t time.Time) bool {
	d, open := p.ForDay(t)
	if !open {
		return false
	}
	local := t.In(p.Location())
	if local.Minute() != 0 || local.Second() != 0 || local.Nanosecond() != 0 {
		return false
	}
	return local.Hour() >= d.StartHour && local.Hour() <= d.EndHour
}

// DaysOpen lists the open weekdays, Sunday first.
func (p Policy) DaysOpen() []string {
	var out []string
	for i, d := range p.days {
		if d.Open {
			out = append(out, time.Weekday(i).String())
		}
	}
	return out
}

// Describe returns the table keyed by lower-case weekday name.
func (p Policy) Describe() map[string]DayHours {
	out := make(map[string]DayHours, 7)
	for i, d := range p.days {
		key := strings.ToLower(time.Weekday(i).String())
		if !d.Open {
			out[key] = DayHours{}
			continue
		}
		out[key] = DayHours{
			Open:  true,
			Start: fmt.Sprintf("%02d:00", d.StartHour),
			End:   fmt.Sprintf("%02d:00", d.EndHour),
		}
	}
	return out
}

// StartOfDay is midnight of t's calendar date in the policy location.
func (p Policy) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(p.Location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, p.Location())
}
