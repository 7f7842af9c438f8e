package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeNotifyMail is the task type for urgent mailbox notifications.
	TaskTypeNotifyMail = "mail:send"
	// TaskTypeDashboardWarmup pre-builds dashboard caches on a schedule.
	TaskTypeDashboardWarmup = "dashboard:warmup"
)

// NotifyMailPayload describes an urgent-message notification.
type NotifyMailPayload struct {
	MessageID int64  `json:"message_id"`
	ToUserID  *int64 `json:"to_user_id,omitempty"`
	Subject   string `json:"subject"`
}

// NewNotifyMailTask constructs an Asynq task.
func NewNotifyMailTask(payload NotifyMailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotifyMail, data), nil
}

// HandleNotifyMailTask processes TaskTypeNotifyMail tasks.
// Delivery is a log line for now; the SMTP hookup follows the mail gateway.
func HandleNotifyMailTask(ctx context.Context, t *asynq.Task) error {
	var payload NotifyMailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	logger := slog.Default().With(slog.String("job", TaskTypeNotifyMail))
	if payload.ToUserID != nil {
		logger.Info("urgent message notification",
			slog.Int64("message_id", payload.MessageID),
			slog.Int64("to_user_id", *payload.ToUserID),
			slog.String("subject", payload.Subject))
	} else {
		logger.Info("urgent broadcast notification",
			slog.Int64("message_id", payload.MessageID),
			slog.String("subject", payload.Subject))
	}
	return nil
}

// DashboardWarmupPayload is reserved for scoping future warmup runs; every
// active account is warmed today.
type DashboardWarmupPayload struct{}

// NewDashboardWarmupTask constructs an Asynq task.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeDashboardWarmup, data), nil
}
