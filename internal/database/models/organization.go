package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is an organization-scoped privilege level. The zero ordering is
// orgViewer < orgUser < orgProjectManager < orgAdmin.
type Role string

const (
	RoleOrgViewer         Role = "orgViewer"
	RoleOrgUser           Role = "orgUser"
	RoleOrgProjectManager Role = "orgProjectManager"
	RoleOrgAdmin          Role = "orgAdmin"
)

var roleRank = map[Role]int{
	RoleOrgViewer:         0,
	RoleOrgUser:           1,
	RoleOrgProjectManager: 2,
	RoleOrgAdmin:          3,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r meets or exceeds min in the privilege ordering.
// Unknown roles never satisfy any requirement.
func (r Role) AtLeast(min Role) bool {
	rr, ok := roleRank[r]
	if !ok {
		return false
	}
	mr, ok := roleRank[min]
	if !ok {
		return false
	}
	return rr >= mr
}

type Organization struct {
	Base
	Name string `gorm:"not null" json:"name"`

	// Relationships
	Memberships []OrgMembership `gorm:"foreignKey:OrganizationID" json:"-"`
	Projects    []Project       `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}

// MembershipStatus tracks the invite lifecycle of a member record. A row is
// created as invited by the invite workflow and becomes active on accept.
type MembershipStatus string

const (
	MembershipInvited MembershipStatus = "invited"
	MembershipActive  MembershipStatus = "active"
)

// OrgMembership is the single source of truth for "user belongs to org".
// The composite primary key makes duplicate member records impossible.
type OrgMembership struct {
	UserID         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"user_id"`
	OrganizationID uuid.UUID        `gorm:"type:uuid;primaryKey" json:"organization_id"`
	Role           Role             `gorm:"not null;default:'orgUser'" json:"role"`
	Status         MembershipStatus `gorm:"not null;default:'invited'" json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (OrgMembership) TableName() string {
	return "org_memberships"
}
