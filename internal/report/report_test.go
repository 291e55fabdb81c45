package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolattend/internal/attendance"
)

const day = "2025-09-01"

func seed(t *testing.T) (*attendance.MemStore, *attendance.Service) {
	t.Helper()
	store := attendance.NewMemStore()
	svc := attendance.NewService(store, attendance.WithClock(func() time.Time {
		return time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	}))

	students := []attendance.Student{
		{ID: "S1", Name: "Asha", Class: "10", Section: "A"},
		{ID: "S2", Name: "Bina", Class: "10", Section: "A"},
		{ID: "S3", Name: "Chetan", Class: "10", Section: "A"},
		{ID: "S4", Name: "Deepa", Class: "10", Section: "B"},
		{ID: "S5", Name: "Esha", Class: "9", Section: "A"},
	}
	for _, s := range students {
		_, err := svc.Register(context.Background(), s)
		require.NoError(t, err)
	}
	return store, svc
}

func mark(t *testing.T, svc *attendance.Service, id string, status attendance.Status) {
	t.Helper()
	_, err := svc.Mark(context.Background(), attendance.MarkRequest{
		StudentID: id,
		Source:    attendance.SourceManual,
		Status:    status,
	})
	require.NoError(t, err)
}

func TestDaily_GroupsAndCounts(t *testing.T) {
	store, svc := seed(t)
	mark(t, svc, "S1", attendance.StatusPresent)
	mark(t, svc, "S2", attendance.StatusAbsent)
	// S3 unmarked; S4, S5 unmarked in their groups.

	rows, err := New(store).Daily(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byGroup := map[string]GroupStats{}
	for _, g := range rows {
		byGroup[g.Class+"-"+g.Section] = g
	}

	g := byGroup["10-A"]
	assert.Equal(t, 3, g.TotalStudents)
	assert.Equal(t, 1, g.PresentCount)
	assert.Equal(t, 1, g.AbsentCount)

	assert.Equal(t, GroupStats{Class: "10", Section: "B", TotalStudents: 1}, byGroup["10-B"])
	assert.Equal(t, GroupStats{Class: "9", Section: "A", TotalStudents: 1}, byGroup["9-A"])
}

func TestDaily_UnmarkedCountTowardNeither(t *testing.T) {
	store, svc := seed(t)
	mark(t, svc, "S1", attendance.StatusPresent)
	mark(t, svc, "S2", attendance.StatusLate)

	rows, err := New(store).Daily(context.Background(), day)
	require.NoError(t, err)

	for _, g := range rows {
		assert.LessOrEqual(t, g.PresentCount+g.AbsentCount, g.TotalStudents,
			"group %s-%s", g.Class, g.Section)
	}

	// Late and unmarked students land in neither bucket.
	for _, g := range rows {
		if g.Class == "10" && g.Section == "A" {
			assert.Equal(t, 1, g.PresentCount)
			assert.Equal(t, 0, g.AbsentCount)
		}
	}
}

func TestDaily_EmptyDay(t *testing.T) {
	store, _ := seed(t)

	rows, err := New(store).Daily(context.Background(), "2025-12-25")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, g := range rows {
		assert.Zero(t, g.PresentCount)
		assert.Zero(t, g.AbsentCount)
		assert.Positive(t, g.TotalStudents)
	}
}

func TestDaily_MarkThenReportScenario(t *testing.T) {
	store, svc := seed(t)
	ctx := context.Background()

	_, err := svc.Mark(ctx, attendance.MarkRequest{StudentID: "S1", Source: attendance.SourceQRScan})
	require.NoError(t, err)

	rows, err := New(store).Daily(ctx, day)
	require.NoError(t, err)

	var found bool
	for _, g := range rows {
		if g.Class == "10" && g.Section == "A" {
			found = true
			assert.GreaterOrEqual(t, g.TotalStudents, 1)
			assert.Equal(t, 1, g.PresentCount)
		}
	}
	assert.True(t, found)

	_, err = svc.Mark(ctx, attendance.MarkRequest{StudentID: "S1", Source: attendance.SourceQRScan})
	assert.ErrorIs(t, err, attendance.ErrDuplicateAttendance)
}

func TestStudentHistory_LimitAndRate(t *testing.T) {
	store, svc := seed(t)
	ctx := context.Background()

	// Five days of history: Present, Absent, Present, Present, Absent
	// (oldest to newest).
	statuses := []attendance.Status{
		attendance.StatusPresent,
		attendance.StatusAbsent,
		attendance.StatusPresent,
		attendance.StatusPresent,
		attendance.StatusAbsent,
	}
	base := time.Date(2025, 8, 25, 9, 0, 0, 0, time.UTC)
	for i, st := range statuses {
		_, err := svc.Mark(ctx, attendance.MarkRequest{
			StudentID: "S1",
			Source:    attendance.SourceManual,
			Status:    st,
			At:        base.AddDate(0, 0, i),
		})
		require.NoError(t, err)
	}

	h, err := New(store).StudentHistory(ctx, "S1", 2)
	require.NoError(t, err)
	require.Len(t, h.Records, 2)

	// Two most recent days, newest first.
	assert.Equal(t, "2025-08-29", h.Records[0].Day)
	assert.Equal(t, "2025-08-28", h.Records[1].Day)

	// Rate over the returned window only: one Present of two.
	assert.InDelta(t, 0.5, h.PresentRate, 1e-9)
}

func TestStudentHistory_DefaultLimit(t *testing.T) {
	store, svc := seed(t)
	ctx := context.Background()

	base := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 40; i++ {
		_, err := svc.Mark(ctx, attendance.MarkRequest{
			StudentID: "S1",
			Source:    attendance.SourceManual,
			Status:    attendance.StatusPresent,
			At:        base.AddDate(0, 0, i),
		})
		require.NoError(t, err)
	}

	h, err := New(store).StudentHistory(ctx, "S1", 0)
	require.NoError(t, err)
	assert.Len(t, h.Records, 30)
	assert.Equal(t, 1.0, h.PresentRate)
}

func TestStudentHistory_NoRecords(t *testing.T) {
	store, _ := seed(t)

	h, err := New(store).StudentHistory(context.Background(), "S1", 10)
	require.NoError(t, err)
	assert.Empty(t, h.Records)
	assert.Zero(t, h.PresentRate)
}
