package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskNotificationSweep deletes read notifications past their retention.
	TaskNotificationSweep = "notifications:sweep"
)

// NotificationSweepPayload carries scheduling metadata.
type NotificationSweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewNotificationSweepTask constructs an Asynq task for the expiry sweep.
func NewNotificationSweepTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(NotificationSweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationSweep, body, asynq.Queue(QueueDefault), asynq.Unique(time.Minute)), nil
}
