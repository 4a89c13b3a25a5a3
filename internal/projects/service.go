package projects

import (
	"context"
	"errors"

	"github.com/arlo/crewdeck/internal/database/models"
	"github.com/arlo/crewdeck/internal/orgs"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound       = errors.New("project not found")
	ErrMemberNotFound = errors.New("project member not found")
	ErrInvalidRole    = errors.New("invalid project role")
)

type Service struct {
	db   *gorm.DB
	orgs *orgs.Service
}

func NewService(db *gorm.DB, orgService *orgs.Service) *Service {
	return &Service{db: db, orgs: orgService}
}

type CreateInput struct {
	Name        string
	Description string
}

// Create adds a project to the organization. The creator must hold at least
// orgProjectManager and becomes the project's first member as manager.
func (s *Service) Create(ctx context.Context, requesterID, orgID uuid.UUID, input CreateInput) (*models.Project, error) {
	if _, err := s.orgs.Get(ctx, requesterID, orgID, models.RoleOrgProjectManager); err != nil {
		return nil, err
	}

	project := models.Project{
		OrganizationID: orgID,
		Name:           input.Name,
		Description:    input.Description,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		member := models.ProjectMember{
			ProjectID: project.ID,
			UserID:    requesterID,
			Role:      models.ProjectRoleManager,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Get loads a project; the requester must be a member of the owning org.
func (s *Service) Get(ctx context.Context, requesterID, projectID uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if _, err := s.orgs.Get(ctx, requesterID, project.OrganizationID, ""); err != nil {
		// Org visibility failures read as a missing project.
		return nil, ErrNotFound
	}
	return &project, nil
}

// ForOrg lists the organization's projects.
func (s *Service) ForOrg(ctx context.Context, requesterID, orgID uuid.UUID) ([]models.Project, error) {
	if _, err := s.orgs.Get(ctx, requesterID, orgID, ""); err != nil {
		return nil, err
	}

	var projects []models.Project
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&projects).Error
	return projects, err
}

type Updates struct {
	Name        *string
	Description *string
}

func (s *Service) Update(ctx context.Context, requesterID, projectID uuid.UUID, updates Updates) (*models.Project, error) {
	project, err := s.Get(ctx, requesterID, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.orgs.Get(ctx, requesterID, project.OrganizationID, models.RoleOrgProjectManager); err != nil {
		return nil, err
	}

	if updates.Name != nil {
		project.Name = *updates.Name
	}
	if updates.Description != nil {
		project.Description = *updates.Description
	}

	if err := s.db.WithContext(ctx).Save(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

func (s *Service) Delete(ctx context.Context, requesterID, projectID uuid.UUID) error {
	project, err := s.Get(ctx, requesterID, projectID)
	if err != nil {
		return err
	}
	if _, err := s.orgs.Get(ctx, requesterID, project.OrganizationID, models.RoleOrgProjectManager); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).
			Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, projectID).Error
	})
}

// UpsertMember adds a user to the project or updates their role.
func (s *Service) UpsertMember(ctx context.Context, requesterID, projectID, userID uuid.UUID, role models.ProjectRole) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	project, err := s.Get(ctx, requesterID, projectID)
	if err != nil {
		return err
	}
	if _, err := s.orgs.Get(ctx, requesterID, project.OrganizationID, models.RoleOrgProjectManager); err != nil {
		return err
	}

	member := models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
	}).Create(&member).Error
}

// RemoveMember drops a user from the project.
func (s *Service) RemoveMember(ctx context.Context, requesterID, projectID, userID uuid.UUID) error {
	project, err := s.Get(ctx, requesterID, projectID)
	if err != nil {
		return err
	}
	if _, err := s.orgs.Get(ctx, requesterID, project.OrganizationID, models.RoleOrgProjectManager); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// Members lists the project's member records.
func (s *Service) Members(ctx context.Context, requesterID, projectID uuid.UUID) ([]models.ProjectMember, error) {
	if _, err := s.Get(ctx, requesterID, projectID); err != nil {
		return nil, err
	}

	var members []models.ProjectMember
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}
