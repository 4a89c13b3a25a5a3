package models

import "github.com/google/uuid"

type Project struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`
	Name           string    `gorm:"not null" json:"name"`
	Description    string    `json:"description"`

	// Relationships
	Organization *Organization   `gorm:"foreignKey:OrganizationID" json:"-"`
	Members      []ProjectMember `gorm:"foreignKey:ProjectID" json:"-"`
}

func (Project) TableName() string {
	return "projects"
}

// ProjectRole scopes a user's privilege within one project.
type ProjectRole string

const (
	ProjectRoleViewer  ProjectRole = "projectViewer"
	ProjectRoleEditor  ProjectRole = "projectEditor"
	ProjectRoleManager ProjectRole = "projectManager"
)

func (r ProjectRole) Valid() bool {
	switch r {
	case ProjectRoleViewer, ProjectRoleEditor, ProjectRoleManager:
		return true
	}
	return false
}

type ProjectMember struct {
	Base
	ProjectID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_project_member" json:"project_id"`
	UserID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_project_member" json:"user_id"`
	Role      ProjectRole `gorm:"not null;default:'projectViewer'" json:"role"`
}

func (ProjectMember) TableName() string {
	return "project_members"
}
