package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeNotificationEmail = "mail:notification"
	TypeInviteReconcile   = "invite:reconcile"
)

// NotificationEmailPayload identifies the invite whose email should be
// delivered. Everything else (recipient, notification, wording) is loaded
// from the database so the task stays valid across retries.
type NotificationEmailPayload struct {
	InviteID uuid.UUID `json:"invite_id"`
}

func NewNotificationEmailTask(payload NotificationEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeNotificationEmail, data), nil
}

// InviteReconcilePayload is empty - the reconciler sweeps all stalled invites
type InviteReconcilePayload struct{}

func NewInviteReconcileTask() *asynq.Task {
	return asynq.NewTask(TypeInviteReconcile, nil)
}
