package dto

import (
	"github.com/arlo/crewdeck/internal/api/validation"
	"github.com/arlo/crewdeck/internal/database/models"
)

type CreateOrgRequest struct {
	Name string `json:"name"`
}

func (r CreateOrgRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	return errors
}

type UpdateOrgRequest struct {
	Name *string `json:"name,omitempty"`
}

func (r UpdateOrgRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Name != nil && *r.Name == "" {
		errors["name"] = "Name cannot be empty"
	}
	return errors
}

type OrgResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type InviteMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (r InviteMemberRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Email == "" {
		errors["email"] = "Email is required"
	} else if !validation.IsValidEmail(r.Email) {
		errors["email"] = "Invalid email format"
	}
	if r.Role == "" {
		errors["role"] = "Role is required"
	} else if !models.Role(r.Role).Valid() {
		errors["role"] = "Invalid role"
	}
	return errors
}

type InviteResponse struct {
	InviteID       string `json:"invite_id"`
	OrganizationID string `json:"organization_id"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	State          string `json:"state"`
	IsNewUser      bool   `json:"is_new_user"`
	MailTaskID     string `json:"mail_task_id,omitempty"`
}

type UpsertMemberRequest struct {
	Role string `json:"role"`
}

func (r UpsertMemberRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Role == "" {
		errors["role"] = "Role is required"
	} else if !models.Role(r.Role).Valid() {
		errors["role"] = "Invalid role"
	}
	return errors
}

type MemberResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

type MemberByEmailRequest struct {
	Email string `json:"email"`
}

func (r MemberByEmailRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Email == "" {
		errors["email"] = "Email is required"
	} else if !validation.IsValidEmail(r.Email) {
		errors["email"] = "Invalid email format"
	}
	return errors
}
