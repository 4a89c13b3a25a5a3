package models

import "github.com/google/uuid"

// NotificationType tags what a notification is about and which context keys
// it carries.
type NotificationType string

const (
	NotificationOrgInvite NotificationType = "orgInvite"
)

// Context keys used by notification payloads.
const (
	ContextOrgID    = "org_id"
	ContextInviteID = "invite_id"
)

// Notification is owned exclusively by its user; the owning id is immutable
// after creation and every read or mutation is scoped by it.
type Notification struct {
	Base
	UserID uuid.UUID        `gorm:"type:uuid;index;not null" json:"user_id"`
	Type   NotificationType `gorm:"not null" json:"type"`
	Title  string           `gorm:"not null" json:"title"`
	Body   string           `json:"body"`
	Button string           `json:"button,omitempty"`

	// Context carries typed references for the notification's action,
	// e.g. org_id and invite_id for an orgInvite.
	Context JSONMap `gorm:"type:text" json:"context"`

	Unread bool `gorm:"default:true;index" json:"unread"`
}

func (Notification) TableName() string {
	return "notifications"
}
