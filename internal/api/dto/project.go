package dto

import "github.com/arlo/crewdeck/internal/database/models"

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (r CreateProjectRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	return errors
}

type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (r UpdateProjectRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Name != nil && *r.Name == "" {
		errors["name"] = "Name cannot be empty"
	}
	return errors
}

type ProjectResponse struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type UpsertProjectMemberRequest struct {
	Role string `json:"role"`
}

func (r UpsertProjectMemberRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Role == "" {
		errors["role"] = "Role is required"
	} else if !models.ProjectRole(r.Role).Valid() {
		errors["role"] = "Invalid role"
	}
	return errors
}

type ProjectMemberResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}
