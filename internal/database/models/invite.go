package models

import "github.com/google/uuid"

// InviteState is the persisted position of an invite in its workflow:
//
//	pending  -> row created, side effects not yet committed
//	notified -> membership + notification committed, mail not yet sent
//	mailed   -> invite email handed to the dispatcher
//	accepted -> invitee accepted, membership is active
//
// The worker's reconcile job re-drives invites stuck in notified.
type InviteState string

const (
	InvitePending  InviteState = "pending"
	InviteNotified InviteState = "notified"
	InviteMailed   InviteState = "mailed"
	InviteAccepted InviteState = "accepted"
)

// Invite records one invitation of an email address into an organization.
// The (organization, email) pair is unique, which makes repeat invites
// idempotent at the storage layer.
type Invite struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_invite_org_email" json:"organization_id"`
	Email          string    `gorm:"not null;uniqueIndex:idx_invite_org_email" json:"email"`
	Role           Role      `gorm:"not null" json:"role"`
	InviterID      uuid.UUID `gorm:"type:uuid;not null" json:"inviter_id"`
	InviteeID      uuid.UUID `gorm:"type:uuid;index;not null" json:"invitee_id"`
	NotificationID uuid.UUID `gorm:"type:uuid" json:"notification_id"`

	State InviteState `gorm:"not null;default:'pending';index" json:"state"`

	// IsNewUser is true when the invite created the invitee's account
	// shell; it selects the sign-up wording in the invite email.
	IsNewUser bool   `json:"is_new_user"`
	MailedAt  *int64 `json:"mailed_at,omitempty"`
}

func (Invite) TableName() string {
	return "invites"
}
