// Package report aggregates the attendance ledger into daily per-class
// summaries and per-student histories.
package report

import (
	"context"
	"sort"

	"schoolattend/internal/attendance"
	"schoolattend/internal/metrics"
)

// Directory is the slice of storage the aggregator reads. Satisfied by
// attendance.Storage implementations.
type Directory interface {
	ListStudents(ctx context.Context, f attendance.StudentFilter) ([]attendance.Student, error)
	ListAttendance(ctx context.Context, day string) ([]attendance.Record, error)
	StudentRecords(ctx context.Context, studentID string, limit int) ([]attendance.Record, error)
}

// GroupStats is one (class, section) row of a daily report.
//
// Students with no record for the day count toward TotalStudents but toward
// neither PresentCount nor AbsentCount; "unmarked" is derivable as the
// difference.
type GroupStats struct {
	Class         string `json:"class"`
	Section       string `json:"section"`
	TotalStudents int    `json:"total_students"`
	PresentCount  int    `json:"present"`
	AbsentCount   int    `json:"absent"`
}

// History is a student's recent attendance with a rate over exactly the
// returned window.
type History struct {
	StudentID   string              `json:"student_id"`
	Records     []attendance.Record `json:"records"`
	PresentRate float64             `json:"present_rate"`
}

// Aggregator computes reports from the ledger.
type Aggregator struct {
	dir Directory
}

// New creates an aggregator over the given directory.
func New(dir Directory) *Aggregator {
	return &Aggregator{dir: dir}
}

// Daily left-joins the registered students against the day's records and
// groups by (class, section). Rows come back sorted by class then section;
// callers must not rely on that order.
func (a *Aggregator) Daily(ctx context.Context, day string) ([]GroupStats, error) {
	students, err := a.dir.ListStudents(ctx, attendance.StudentFilter{})
	if err != nil {
		return nil, err
	}
	records, err := a.dir.ListAttendance(ctx, day)
	if err != nil {
		return nil, err
	}

	statusByStudent := make(map[string]attendance.Status, len(records))
	for _, rec := range records {
		statusByStudent[rec.StudentID] = rec.Status
	}

	type key struct{ class, section string }
	groups := make(map[key]*GroupStats)
	for _, s := range students {
		k := key{s.Class, s.Section}
		g, ok := groups[k]
		if !ok {
			g = &GroupStats{Class: s.Class, Section: s.Section}
			groups[k] = g
		}
		g.TotalStudents++
		switch statusByStudent[s.ID] {
		case attendance.StatusPresent:
			g.PresentCount++
		case attendance.StatusAbsent:
			g.AbsentCount++
		}
	}

	out := make([]GroupStats, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Class != out[j].Class {
			return out[i].Class < out[j].Class
		}
		return out[i].Section < out[j].Section
	})
	metrics.ReportGenerated()
	return out, nil
}

// StudentHistory returns up to limit of the student's most recent records,
// newest day first, with the present fraction computed over the returned
// window only. Limit defaults to 30.
func (a *Aggregator) StudentHistory(ctx context.Context, studentID string, limit int) (History, error) {
	if limit <= 0 {
		limit = 30
	}
	recs, err := a.dir.StudentRecords(ctx, studentID, limit)
	if err != nil {
		return History{}, err
	}
	h := History{StudentID: studentID, Records: recs}
	if len(recs) > 0 {
		present := 0
		for _, r := range recs {
			if r.Status == attendance.StatusPresent {
				present++
			}
		}
		h.PresentRate = float64(present) / float64(len(recs))
	}
	return h, nil
}
