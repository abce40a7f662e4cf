package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskContactMessage delivers a contact form submission to the inbox.
	TaskContactMessage = "contact:message"
)

// ContactMessage is a visitor's contact form submission.
type ContactMessage struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"received_at"`
}

// NewContactMessageTask constructs an Asynq task. The message id doubles as
// the task id so a resubmitted form is not delivered twice.
func NewContactMessageTask(msg ContactMessage) (*asynq.Task, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(5)}
	if msg.ID != "" {
		opts = append(opts, asynq.TaskID(msg.ID))
	}
	return asynq.NewTask(TaskContactMessage, data, opts...), nil
}
