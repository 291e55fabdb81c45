package qr

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// payloadType is the discriminator embedded in every attendance QR code.
const payloadType = "attendance"

var (
	ErrNotAttendancePayload = errors.New("qr: not an attendance payload")
	ErrMissingStudentID     = errors.New("qr: student id missing")
)

// Payload is the JSON document encoded in a student's QR code. The image
// encoding/scanning happens on the device; the backend only handles the
// decoded text.
type Payload struct {
	StudentID string `json:"student_id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
}

// Encode builds the payload text for a student's QR code.
func Encode(studentID string, issuedAt time.Time) (string, error) {
	if studentID == "" {
		return "", ErrMissingStudentID
	}
	b, err := json.Marshal(Payload{
		StudentID: studentID,
		Timestamp: strconv.FormatInt(issuedAt.Unix(), 10),
		Type:      payloadType,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses scanned QR text and validates it is an attendance payload.
func Decode(data string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return Payload{}, fmt.Errorf("qr: malformed payload: %w", err)
	}
	if p.Type != payloadType {
		return Payload{}, ErrNotAttendancePayload
	}
	if p.StudentID == "" {
		return Payload{}, ErrMissingStudentID
	}
	return p, nil
}
