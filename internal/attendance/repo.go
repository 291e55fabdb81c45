package attendance

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"schoolattend/internal/geo"
)

// Repository persists students and the attendance ledger in Postgres.
// It implements Storage.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateStudent inserts a new student; the id must be unused.
func (r *Repository) CreateStudent(ctx context.Context, s Student) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO students (student_id, name, class, section, guardian_email, photo_url, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (student_id) DO NOTHING
	`, s.ID, s.Name, s.Class, s.Section, s.GuardianEmail, s.PhotoURL, s.CreatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStudentExists
	}
	return nil
}

// FindStudent returns a student or nil when the id is unknown.
func (r *Repository) FindStudent(ctx context.Context, id string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT student_id, name, class, section, guardian_email, photo_url, created_at
		FROM students WHERE student_id = $1
	`, id)
	var s Student
	if err := row.Scan(&s.ID, &s.Name, &s.Class, &s.Section, &s.GuardianEmail, &s.PhotoURL, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// UpdateStudentContact updates guardian email and/or photo; nil fields keep
// their current value.
func (r *Repository) UpdateStudentContact(ctx context.Context, id string, guardianEmail, photoURL *string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE students
		SET guardian_email = COALESCE($2, guardian_email),
		    photo_url = COALESCE($3, photo_url)
		WHERE student_id = $1
	`, id, guardianEmail, photoURL)
	return err
}

// ListStudents returns students matching the filter, ordered by class,
// section, name.
func (r *Repository) ListStudents(ctx context.Context, f StudentFilter) ([]Student, error) {
	query := `SELECT student_id, name, class, section, guardian_email, photo_url, created_at FROM students`
	args := []any{}
	clauses := []string{}
	if f.Class != "" {
		clauses = append(clauses, "class = $"+strconv.Itoa(len(args)+1))
		args = append(args, f.Class)
	}
	if f.Section != "" {
		clauses = append(clauses, "section = $"+strconv.Itoa(len(args)+1))
		args = append(args, f.Section)
	}
	if len(clauses) > 0 {
		query += " WHERE " + joinClauses(clauses, " AND ")
	}
	query += " ORDER BY class, section, name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Class, &s.Section, &s.GuardianEmail, &s.PhotoURL, &s.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// HasAttendanceOn reports whether the student already has a record for day.
func (r *Repository) HasAttendanceOn(ctx context.Context, studentID, day string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM attendance WHERE student_id = $1 AND day = $2)
	`, studentID, day).Scan(&exists)
	return exists, err
}

// AppendAttendance writes one ledger row. The unique index on
// (student_id, day) makes the conditional insert atomic: a conflicting row
// inserts nothing and the call reports ErrDuplicateAttendance.
func (r *Repository) AppendAttendance(ctx context.Context, rec Record) (int64, error) {
	var lat, lon *float64
	if rec.Location != nil {
		lat, lon = &rec.Location.Lat, &rec.Location.Lon
	}
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance (student_id, day, ts, status, source, lat, lon, device_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (student_id, day) DO NOTHING
		RETURNING id
	`, rec.StudentID, rec.Day, rec.Timestamp, rec.Status, rec.Source, lat, lon, nullIfEmpty(rec.DeviceID)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrDuplicateAttendance
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListAttendance returns all records for a calendar day.
func (r *Repository) ListAttendance(ctx context.Context, day string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, to_char(day, 'YYYY-MM-DD'), ts, status, source, lat, lon, COALESCE(device_id, '')
		FROM attendance WHERE day = $1
		ORDER BY ts
	`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// StudentRecords returns a student's records, most recent day first.
func (r *Repository) StudentRecords(ctx context.Context, studentID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, to_char(day, 'YYYY-MM-DD'), ts, status, source, lat, lon, COALESCE(device_id, '')
		FROM attendance WHERE student_id = $1
		ORDER BY day DESC
		LIMIT $2
	`, studentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var res []Record
	for rows.Next() {
		var rec Record
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.Day, &rec.Timestamp, &rec.Status, &rec.Source, &lat, &lon, &rec.DeviceID); err != nil {
			return nil, err
		}
		if lat.Valid && lon.Valid {
			rec.Location = &geo.Point{Lat: lat.Float64, Lon: lon.Float64}
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// Stats summarizes the system for the dashboard endpoint.
type Stats struct {
	TotalStudents int    `json:"total_students"`
	TotalClasses  int    `json:"total_classes"`
	RecordsToday  int    `json:"records_today"`
	Day           string `json:"date"`
}

// SystemStats counts students, distinct classes and today's records.
func (r *Repository) SystemStats(ctx context.Context, day string) (Stats, error) {
	st := Stats{Day: day}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&st.TotalStudents); err != nil {
		return Stats{}, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT class) FROM students`).Scan(&st.TotalClasses); err != nil {
		return Stats{}, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendance WHERE day = $1`, day).Scan(&st.RecordsToday); err != nil {
		return Stats{}, err
	}
	return st, nil
}

// ListClasses returns the class reference data.
func (r *Repository) ListClasses(ctx context.Context) ([]ClassGroup, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT class_id, class_name, teacher_id, schedule FROM classes ORDER BY class_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []ClassGroup
	for rows.Next() {
		var c ClassGroup
		if err := rows.Scan(&c.ID, &c.Name, &c.TeacherID, &c.Schedule); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// UpsertDevice ensures a scanner device record exists.
func (r *Repository) UpsertDevice(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return errors.New("device id required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (device_id)
		VALUES ($1)
		ON CONFLICT (device_id) DO NOTHING
	`, deviceID)
	return err
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, deviceID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (device_id, token, expires_at)
		VALUES ($1, $2, $3)
	`, deviceID, token, expiresAt)
	return err
}

// RevokeRefreshToken marks a token revoked.
func (r *Repository) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`, token)
	return err
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func joinClauses(parts []string, sep string) string {
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for i := 1; i < len(parts); i++ {
		out += sep + parts[i]
	}
	return out
}
