package attendance

import "errors"

// Expected, user-facing rejections. Callers surface these as messages, not
// crashes; anything else returned by this package is a storage fault.
var (
	ErrUnknownStudent      = errors.New("student not found")
	ErrDuplicateAttendance = errors.New("attendance already marked today")
	ErrOutsideWindow       = errors.New("outside attendance window")
	ErrOutsideGeofence     = errors.New("outside school premises")
	ErrStudentExists       = errors.New("student id already registered")
)
