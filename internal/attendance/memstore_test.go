package attendance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore_ListStudentsFilter(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	for _, s := range []Student{
		{ID: "S1", Name: "Zara", Class: "10", Section: "A"},
		{ID: "S2", Name: "Amit", Class: "10", Section: "A"},
		{ID: "S3", Name: "Maya", Class: "10", Section: "B"},
		{ID: "S4", Name: "Kiran", Class: "9", Section: "A"},
	} {
		require.NoError(t, m.CreateStudent(ctx, s))
	}

	all, err := m.ListStudents(ctx, StudentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	// Ordered by class, section, name.
	assert.Equal(t, "S2", all[0].ID)
	assert.Equal(t, "S1", all[1].ID)
	assert.Equal(t, "S3", all[2].ID)
	assert.Equal(t, "S4", all[3].ID)

	tenA, err := m.ListStudents(ctx, StudentFilter{Class: "10", Section: "A"})
	require.NoError(t, err)
	assert.Len(t, tenA, 2)

	nine, err := m.ListStudents(ctx, StudentFilter{Class: "9"})
	require.NoError(t, err)
	assert.Len(t, nine, 1)
}

func TestMemStore_AppendAttendanceConflict(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	id, err := m.AppendAttendance(ctx, Record{StudentID: "S1", Day: "2025-09-01", Status: StatusPresent, Source: SourceQRScan})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = m.AppendAttendance(ctx, Record{StudentID: "S1", Day: "2025-09-01", Status: StatusLate, Source: SourceManual})
	assert.ErrorIs(t, err, ErrDuplicateAttendance)

	id2, err := m.AppendAttendance(ctx, Record{StudentID: "S1", Day: "2025-09-02", Status: StatusPresent, Source: SourceQRScan})
	require.NoError(t, err)
	assert.Equal(t, int64(2), id2)
}

func TestMemStore_StudentRecordsOrdering(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	for _, day := range []string{"2025-09-03", "2025-09-01", "2025-09-02"} {
		_, err := m.AppendAttendance(ctx, Record{StudentID: "S1", Day: day, Status: StatusPresent, Source: SourceQRScan})
		require.NoError(t, err)
	}

	recs, err := m.StudentRecords(ctx, "S1", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "2025-09-03", recs[0].Day)
	assert.Equal(t, "2025-09-02", recs[1].Day)
}
