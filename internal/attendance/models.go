package attendance

import (
	"time"

	"schoolattend/internal/geo"
)

// Status is the recorded outcome for a student on a given day.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
	StatusLate    Status = "Late"
)

// ValidStatus reports whether s is one of the recordable statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	}
	return false
}

// Source is the channel an attendance event was captured through.
type Source string

const (
	SourceQRScan    Source = "QRScan"
	SourceManual    Source = "Manual"
	SourceGeofenced Source = "Geofenced"
)

// ValidSource reports whether s is a known capture channel.
func ValidSource(s Source) bool {
	switch s {
	case SourceQRScan, SourceManual, SourceGeofenced:
		return true
	}
	return false
}

// Student is a registered pupil. Rows are never deleted; historical
// attendance keeps referencing them.
type Student struct {
	ID            string    `json:"student_id"`
	Name          string    `json:"name"`
	Class         string    `json:"class"`
	Section       string    `json:"section"`
	GuardianEmail *string   `json:"guardian_email,omitempty"`
	PhotoURL      *string   `json:"photo_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Record is one attendance entry. The ledger is append-only: records are
// never updated or deleted.
type Record struct {
	ID        int64      `json:"id"`
	StudentID string     `json:"student_id"`
	Day       string     `json:"date"` // calendar date, 2006-01-02
	Timestamp time.Time  `json:"timestamp"`
	Status    Status     `json:"status"`
	Source    Source     `json:"source"`
	Location  *geo.Point `json:"location,omitempty"`
	DeviceID  string     `json:"device_id,omitempty"`
}

// ClassGroup is read-only reference data used for report grouping.
type ClassGroup struct {
	ID        string  `json:"class_id"`
	Name      string  `json:"class_name"`
	TeacherID *string `json:"teacher_id,omitempty"`
	Schedule  *string `json:"schedule,omitempty"`
}

// DayKey formats t as the calendar-day key used throughout the ledger.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
