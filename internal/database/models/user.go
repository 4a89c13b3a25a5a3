package models

type User struct {
	Base
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `json:"-"` // empty for accounts created by an invite
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`

	// Ordered list of unread notification ids, newest last.
	UnreadNotifications UUIDArray `gorm:"type:text" json:"unread_notifications"`

	// Relationships
	Memberships []OrgMembership `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// DisplayName returns the name used in notification titles. Empty when the
// user has never filled in a profile (invite-created shells).
func (u *User) DisplayName() string {
	if u.FirstName == "" {
		return ""
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsShell reports whether the account was created as a placeholder by an
// invite and has not been claimed through signup yet.
func (u *User) IsShell() bool {
	return u.PasswordHash == ""
}
