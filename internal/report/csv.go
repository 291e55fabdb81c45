package report

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteCSV renders daily report rows as CSV, one line per group.
func WriteCSV(w io.Writer, rows []GroupStats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"class", "section", "total_students", "present", "absent"}); err != nil {
		return err
	}
	for _, g := range rows {
		rec := []string{
			g.Class,
			g.Section,
			strconv.Itoa(g.TotalStudents),
			strconv.Itoa(g.PresentCount),
			strconv.Itoa(g.AbsentCount),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
