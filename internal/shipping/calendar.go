package shipping

import (
	"fmt"
	"time"
)

// Calendar decides which dates are non-working besides weekends.
type Calendar interface {
	IsHoliday(date time.Time) bool
}

// NoHolidays treats every weekday as a working day.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(time.Time) bool { return false }

// FixedHolidays is a calendar backed by an explicit list of dates.
type FixedHolidays map[string]struct{}

const dateLayout = "2006-01-02"

// ParseHolidays builds a calendar from YYYY-MM-DD strings.
func ParseHolidays(dates []string) (FixedHolidays, error) {
	out := make(FixedHolidays, len(dates))
	for _, d := range dates {
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			return nil, fmt.Errorf("holiday %q: %w", d, err)
		}
		out[t.Format(dateLayout)] = struct{}{}
	}
	return out, nil
}

func (h FixedHolidays) IsHoliday(date time.Time) bool {
	_, ok := h[date.Format(dateLayout)]
	return ok
}

// AddBusinessDays moves date by n working days, skipping weekends and
// holidays. Negative n moves backwards; zero returns date unchanged.
func AddBusinessDays(date time.Time, n int, cal Calendar) time.Time {
	if cal == nil {
		cal = NoHolidays{}
	}
	step := 1
	if n < 0 {
		step = -1
		n = -n
	}
	for n > 0 {
		date = date.AddDate(0, 0, step)
		if isWeekend(date) || cal.IsHoliday(date) {
			continue
		}
		n--
	}
	return date
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
