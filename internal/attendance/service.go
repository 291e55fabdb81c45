package attendance

import (
	"context"
	"errors"
	"log"
	"time"

	"schoolattend/internal/geo"
	"schoolattend/internal/metrics"
	"schoolattend/internal/schoolday"
)

// Storage is the persistence contract the service and reports run against.
// The Postgres repository implements it for production; MemStore backs tests
// and dev.
type Storage interface {
	CreateStudent(ctx context.Context, s Student) error
	FindStudent(ctx context.Context, id string) (*Student, error)
	UpdateStudentContact(ctx context.Context, id string, guardianEmail, photoURL *string) error
	ListStudents(ctx context.Context, f StudentFilter) ([]Student, error)

	// HasAttendanceOn reports whether a record exists for (student, day).
	HasAttendanceOn(ctx context.Context, studentID, day string) (bool, error)
	// AppendAttendance inserts rec iff no record exists for its
	// (student, day) pair, returning ErrDuplicateAttendance otherwise.
	// The check and insert are one atomic unit.
	AppendAttendance(ctx context.Context, rec Record) (int64, error)
	ListAttendance(ctx context.Context, day string) ([]Record, error)
	StudentRecords(ctx context.Context, studentID string, limit int) ([]Record, error)
}

// StudentFilter narrows ListStudents. Zero value lists everyone.
type StudentFilter struct {
	Class   string
	Section string
}

// Notifier delivers a guardian notification for a marked student.
// Delivery is best-effort: the service logs failures and moves on.
type Notifier interface {
	Notify(ctx context.Context, student Student, status Status, at time.Time) error
}

// MarkRequest carries one marking attempt.
type MarkRequest struct {
	StudentID string
	Source    Source
	Status    Status     // defaults to Present
	Location  *geo.Point // device fix, if any
	DeviceID  string
	At        time.Time // timestamp override; zero means now
}

// Service orchestrates attendance marking: existence and duplicate checks,
// the time-window and geofence gates, the ledger append and the notification
// event.
type Service struct {
	store    Storage
	notifier Notifier
	window   *schoolday.Policy
	zone     *geo.Zone
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithWindow enables the time-of-day gate.
func WithWindow(p schoolday.Policy) Option {
	return func(s *Service) { s.window = &p }
}

// WithGeofence enables the location gate for geofenced check-ins.
func WithGeofence(z geo.Zone) Option {
	return func(s *Service) { s.zone = &z }
}

// WithNotifier sets the guardian notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a marking service over the given storage.
func NewService(store Storage, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register adds a new student. The id must be unused.
func (s *Service) Register(ctx context.Context, st Student) (Student, error) {
	if st.ID == "" || st.Name == "" || st.Class == "" {
		return Student{}, errors.New("student id, name and class required")
	}
	if st.Section == "" {
		st.Section = "A"
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = s.now().UTC()
	}
	if err := s.store.CreateStudent(ctx, st); err != nil {
		return Student{}, err
	}
	return st, nil
}

// UpdateContact changes a student's guardian email and/or photo reference.
// Everything else about a student is immutable after registration.
func (s *Service) UpdateContact(ctx context.Context, id string, guardianEmail, photoURL *string) error {
	if guardianEmail == nil && photoURL == nil {
		return nil
	}
	st, err := s.store.FindStudent(ctx, id)
	if err != nil {
		return err
	}
	if st == nil {
		return ErrUnknownStudent
	}
	return s.store.UpdateStudentContact(ctx, id, guardianEmail, photoURL)
}

// Mark records attendance for one student. Preconditions run in order:
// student exists, not already marked today, inside the attendance window,
// inside the geofence (geofenced source only). Exactly one ledger append
// happens on success; failure paths change nothing.
func (s *Service) Mark(ctx context.Context, req MarkRequest) (Record, error) {
	if !ValidSource(req.Source) {
		return Record{}, errors.New("unknown source type")
	}
	if req.Status == "" {
		req.Status = StatusPresent
	}
	if !ValidStatus(req.Status) {
		return Record{}, errors.New("unknown status")
	}

	at := req.At
	if at.IsZero() {
		at = s.now()
	}
	day := DayKey(at)

	student, err := s.store.FindStudent(ctx, req.StudentID)
	if err != nil {
		return Record{}, err
	}
	if student == nil {
		metrics.MarkRejected(string(req.Source), "unknown_student")
		return Record{}, ErrUnknownStudent
	}

	marked, err := s.store.HasAttendanceOn(ctx, req.StudentID, day)
	if err != nil {
		return Record{}, err
	}
	if marked {
		metrics.MarkRejected(string(req.Source), "duplicate")
		return Record{}, ErrDuplicateAttendance
	}

	if s.window != nil && !s.window.IsWithinAttendanceWindow(at) {
		metrics.MarkRejected(string(req.Source), "outside_window")
		return Record{}, ErrOutsideWindow
	}

	if s.zone != nil && req.Source == SourceGeofenced && !s.zone.Contains(req.Location) {
		metrics.MarkRejected(string(req.Source), "outside_geofence")
		return Record{}, ErrOutsideGeofence
	}

	rec := Record{
		StudentID: req.StudentID,
		Day:       day,
		Timestamp: at,
		Status:    req.Status,
		Source:    req.Source,
		Location:  req.Location,
		DeviceID:  req.DeviceID,
	}
	id, err := s.store.AppendAttendance(ctx, rec)
	if err != nil {
		// The unique index backs up the pre-check under concurrency.
		if errors.Is(err, ErrDuplicateAttendance) {
			metrics.MarkRejected(string(req.Source), "duplicate")
		}
		return Record{}, err
	}
	rec.ID = id
	metrics.MarkAccepted(string(req.Source), string(req.Status))

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, *student, rec.Status, rec.Timestamp); err != nil {
			log.Printf("notify failed for student %s: %v", student.ID, err)
		}
	}
	return rec, nil
}

// RosterEntry is one line of a manual bulk entry.
type RosterEntry struct {
	StudentID string `json:"student_id" binding:"required"`
	Status    Status `json:"status" binding:"required"`
}

// RosterOutcome reports what happened to one roster line.
type RosterOutcome struct {
	StudentID string `json:"student_id"`
	RecordID  int64  `json:"record_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// MarkRoster applies manual marks for a whole class roster. Each line runs
// through Mark independently; rejections (duplicates, unknown ids) are
// reported per line and never abort the rest.
func (s *Service) MarkRoster(ctx context.Context, entries []RosterEntry, deviceID string) []RosterOutcome {
	out := make([]RosterOutcome, 0, len(entries))
	for _, e := range entries {
		rec, err := s.Mark(ctx, MarkRequest{
			StudentID: e.StudentID,
			Source:    SourceManual,
			Status:    e.Status,
			DeviceID:  deviceID,
		})
		o := RosterOutcome{StudentID: e.StudentID}
		if err != nil {
			o.Error = err.Error()
		} else {
			o.RecordID = rec.ID
		}
		out = append(out, o)
	}
	return out
}
