package attendance

import (
	"context"
	"sort"
	"sync"
)

// MemStore is an in-memory Storage for tests and single-process dev runs.
// The mutex serializes the conditional insert, so the one-record-per-day
// invariant holds under concurrent callers just like the SQL unique index.
type MemStore struct {
	mu       sync.Mutex
	students map[string]Student
	records  []Record
	nextID   int64
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{students: make(map[string]Student), nextID: 1}
}

func (m *MemStore) CreateStudent(_ context.Context, s Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[s.ID]; ok {
		return ErrStudentExists
	}
	m.students[s.ID] = s
	return nil
}

func (m *MemStore) FindStudent(_ context.Context, id string) (*Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemStore) UpdateStudentContact(_ context.Context, id string, guardianEmail, photoURL *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil
	}
	if guardianEmail != nil {
		s.GuardianEmail = guardianEmail
	}
	if photoURL != nil {
		s.PhotoURL = photoURL
	}
	m.students[id] = s
	return nil
}

func (m *MemStore) ListStudents(_ context.Context, f StudentFilter) ([]Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []Student
	for _, s := range m.students {
		if f.Class != "" && s.Class != f.Class {
			continue
		}
		if f.Section != "" && s.Section != f.Section {
			continue
		}
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Class != res[j].Class {
			return res[i].Class < res[j].Class
		}
		if res[i].Section != res[j].Section {
			return res[i].Section < res[j].Section
		}
		return res[i].Name < res[j].Name
	})
	return res, nil
}

func (m *MemStore) HasAttendanceOn(_ context.Context, studentID, day string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasLocked(studentID, day), nil
}

func (m *MemStore) hasLocked(studentID, day string) bool {
	for _, rec := range m.records {
		if rec.StudentID == studentID && rec.Day == day {
			return true
		}
	}
	return false
}

func (m *MemStore) AppendAttendance(_ context.Context, rec Record) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hasLocked(rec.StudentID, rec.Day) {
		return 0, ErrDuplicateAttendance
	}
	rec.ID = m.nextID
	m.nextID++
	m.records = append(m.records, rec)
	return rec.ID, nil
}

func (m *MemStore) ListAttendance(_ context.Context, day string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []Record
	for _, rec := range m.records {
		if rec.Day == day {
			res = append(res, rec)
		}
	}
	return res, nil
}

func (m *MemStore) StudentRecords(_ context.Context, studentID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 30
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []Record
	for _, rec := range m.records {
		if rec.StudentID == studentID {
			res = append(res, rec)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Day > res[j].Day })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}
