package schoolday

import "time"

// Period is a named subdivision of the school day.
type Period string

const (
	PeriodMorning     Period = "Morning"
	PeriodBeforeLunch Period = "Before Lunch"
	PeriodLunch       Period = "Lunch"
	PeriodAfterLunch  Period = "After Lunch"
	PeriodAfterSchool Period = "After School"
)

// Policy evaluates time-of-day rules against a configured schedule window.
// All methods are pure functions of the supplied time so they can be tested
// with fixed timestamps.
type Policy struct {
	// WindowStartHour/WindowEndHour bound the half-open interval
	// [start, end) of hours during which attendance may be marked.
	WindowStartHour int
	WindowEndHour   int
}

// Default returns the standard school schedule, 8 AM to 3 PM.
func Default() Policy {
	return Policy{WindowStartHour: 8, WindowEndHour: 15}
}

// IsWithinAttendanceWindow reports whether now falls inside the allowed
// marking window.
func (p Policy) IsWithinAttendanceWindow(now time.Time) bool {
	h := now.Hour()
	return h >= p.WindowStartHour && h < p.WindowEndHour
}

// periodRange maps an hour interval [From, To) to a period label.
type periodRange struct {
	From, To int
	Label    Period
}

var periodTable = []periodRange{
	{8, 9, PeriodMorning},
	{9, 12, PeriodBeforeLunch},
	{12, 13, PeriodLunch},
	{13, 15, PeriodAfterLunch},
}

// CurrentPeriod maps now to a school period. Hours outside every configured
// range are After School.
func (p Policy) CurrentPeriod(now time.Time) Period {
	h := now.Hour()
	for _, r := range periodTable {
		if h >= r.From && h < r.To {
			return r.Label
		}
	}
	return PeriodAfterSchool
}
