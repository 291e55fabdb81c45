package schoolday

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour int) time.Time {
	return time.Date(2025, 9, 1, hour, 30, 0, 0, time.UTC)
}

func TestIsWithinAttendanceWindow_Default(t *testing.T) {
	p := Default()
	for hour := 0; hour < 24; hour++ {
		want := hour >= 8 && hour < 15
		assert.Equal(t, want, p.IsWithinAttendanceWindow(at(hour)), "hour %d", hour)
	}
}

func TestIsWithinAttendanceWindow_Boundaries(t *testing.T) {
	p := Default()

	// Half-open: 8:00 is in, 15:00 is out.
	assert.True(t, p.IsWithinAttendanceWindow(time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)))
	assert.False(t, p.IsWithinAttendanceWindow(time.Date(2025, 9, 1, 15, 0, 0, 0, time.UTC)))
	assert.False(t, p.IsWithinAttendanceWindow(time.Date(2025, 9, 1, 7, 59, 59, 0, time.UTC)))
}

func TestIsWithinAttendanceWindow_Custom(t *testing.T) {
	p := Policy{WindowStartHour: 9, WindowEndHour: 12}

	assert.False(t, p.IsWithinAttendanceWindow(at(8)))
	assert.True(t, p.IsWithinAttendanceWindow(at(9)))
	assert.True(t, p.IsWithinAttendanceWindow(at(11)))
	assert.False(t, p.IsWithinAttendanceWindow(at(12)))
}

func TestCurrentPeriod(t *testing.T) {
	p := Default()
	cases := []struct {
		hour int
		want Period
	}{
		{7, PeriodAfterSchool},
		{8, PeriodMorning},
		{9, PeriodBeforeLunch},
		{11, PeriodBeforeLunch},
		{12, PeriodLunch},
		{13, PeriodAfterLunch},
		{14, PeriodAfterLunch},
		{15, PeriodAfterSchool},
		{23, PeriodAfterSchool},
		{0, PeriodAfterSchool},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("hour_%d", tc.hour), func(t *testing.T) {
			assert.Equal(t, tc.want, p.CurrentPeriod(at(tc.hour)))
		})
	}
}
