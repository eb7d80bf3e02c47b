package hours

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type fileDay struct {
	Open  *bool `yaml:"open"`
	Start *int  `yaml:"start"`
	End   *int  `yaml:"end"`
}

type file struct {
	Timezone string             `yaml:"timezone"`
	Days     map[string]fileDay `yaml:"days"`
}

// Load reads a YAML override of the default table. Weekdays missing from the
// file keep their default hours. A timezone in the file replaces loc.
//
//	timezone: America/Chicago
//	days:
//	  saturday: {open: true, start: 10, end: 14}
//	  sunday: {open: false}
func Load(path string, loc *time.Location) (Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read business hours: %w", err)
	}
	return Parse(raw, loc)
}

func Parse(raw []byte, loc *time.Location) (Policy, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Policy{}, fmt.Errorf("parse business hours: %w", err)
	}
	if tz := strings.TrimSpace(f.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return Policy{}, fmt.Errorf("business hours timezone: %w", err)
		}
		loc = l
	}

	days := Default(loc).days
	for name, fd := range f.Days {
		wd, ok := parseWeekday(name)
		if !ok {
			return Policy{}, fmt.Errorf("unknown weekday %q", name)
		}
		open := true
		if fd.Open != nil {
			open = *fd.Open
		}
		if !open {
			days[wd] = Day{}
			continue
		}
		if fd.Start == nil || fd.End == nil {
			return Policy{}, fmt.Errorf("%s: start and end are required for an open day", name)
		}
		days[wd] = Day{Open: true, StartHour: *fd.Start, EndHour: *fd.End}
	}
	return New(days, loc)
}

func parseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i := time.Sunday; i <= time.Saturday; i++ {
		name := strings.ToLower(i.String())
		if s == name || s == name[:3] {
			return i, true
		}
	}
	return 0, false
}
