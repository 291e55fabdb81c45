// Package notify delivers guardian notifications for marked attendance.
// Delivery is fire-and-forget end to end: the marking service publishes an
// event, the worker sends the email, and failures anywhere are logged, never
// retried.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"schoolattend/internal/attendance"
	"schoolattend/internal/queue"
)

// Event is the notification payload carried through the queue.
type Event struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Name      string    `json:"name"`
	Guardian  string    `json:"guardian,omitempty"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageType tags notification messages on the queue.
const MessageType = "notification"

// EncodeEvent serializes an event for the queue.
func EncodeEvent(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}

// DecodeEvent parses a queue message body.
func DecodeEvent(body []byte) (Event, error) {
	var ev Event
	err := json.Unmarshal(body, &ev)
	return ev, err
}

// QueueNotifier implements attendance.Notifier by publishing events for the
// worker to deliver.
type QueueNotifier struct {
	q queue.Queue
}

// NewQueueNotifier creates a notifier over q.
func NewQueueNotifier(q queue.Queue) *QueueNotifier {
	return &QueueNotifier{q: q}
}

// Notify publishes one notification event. Students without a guardian
// contact still produce an event; the mailer skips them.
func (n *QueueNotifier) Notify(ctx context.Context, st attendance.Student, status attendance.Status, at time.Time) error {
	ev := Event{
		ID:        uuid.NewString(),
		StudentID: st.ID,
		Name:      st.Name,
		Status:    string(status),
		Timestamp: at,
	}
	if st.GuardianEmail != nil {
		ev.Guardian = *st.GuardianEmail
	}
	body, err := EncodeEvent(ev)
	if err != nil {
		return err
	}
	return n.q.Publish(ctx, queue.Message{Type: MessageType, Body: body})
}
