package availability

import (
	"time"

	"github.com/lbsconnect/examcenter/services/site-service/internal/hours"
)

// Slots returns every bookable slot start on date's calendar day, ascending.
// The time of day of date is ignored.
func Slots(p hours.Policy, date time.Time) []time.Time {
	day, open := p.ForDay(date)
	if !open {
		return nil
	}
	loc := p.Location()
	y, m, d := date.In(loc).Date()

	slots := make([]time.Time, 0, day.EndHour-day.StartHour+1)
	for hour := day.StartHour; hour <= day.EndHour; hour++ {
		slots = append(slots, time.Date(y, m, d, hour, 0, 0, 0, loc))
	}
	return slots
}

// Free removes booked instants from candidates, keeping order.
func Free(candidates, booked []time.Time) []time.Time {
	taken := make(map[int64]struct{}, len(booked))
	for _, b := range booked {
		taken[b.UnixNano()] = struct{}{}
	}
	free := make([]time.Time, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := taken[c.UnixNano()]; ok {
			continue
		}
		free = append(free, c)
	}
	return free
}

// DayBounds returns the first and last instant of date's calendar day in the
// policy location.
func DayBounds(p hours.Policy, date time.Time) (time.Time, time.Time) {
	start := p.StartOfDay(date)
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}
