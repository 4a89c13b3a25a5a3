package orgs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/arlo/crewdeck/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound covers both a missing organization and an organization
	// the requester is not a member of, so existence is not leaked.
	ErrNotFound       = errors.New("organization not found")
	ErrForbidden      = errors.New("insufficient organization role")
	ErrMemberNotFound = errors.New("member not found")
	ErrInvalidRole    = errors.New("invalid role")
)

type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Membership returns the requester's membership row for the org, regardless
// of status. Invited members count: accept needs to see the org it was
// invited to.
func (s *Service) Membership(ctx context.Context, orgID, userID uuid.UUID) (*models.OrgMembership, error) {
	var m models.OrgMembership
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Get loads an organization on behalf of requesterID. A missing org and a
// non-member requester both yield ErrNotFound. When minRole is non-empty the
// requester's role must meet or exceed it, otherwise ErrForbidden.
func (s *Service) Get(ctx context.Context, requesterID, orgID uuid.UUID, minRole models.Role) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.WithContext(ctx).First(&org, orgID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	membership, err := s.Membership(ctx, orgID, requesterID)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if minRole != "" && !membership.Role.AtLeast(minRole) {
		return nil, ErrForbidden
	}

	return &org, nil
}

// Create makes a new organization with ownerID as its sole member at the
// highest role, in one transaction.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, name string) (*models.Organization, error) {
	org := models.Organization{Name: name}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&org).Error; err != nil {
			return err
		}
		membership := models.OrgMembership{
			UserID:         ownerID,
			OrganizationID: org.ID,
			Role:           models.RoleOrgAdmin,
			Status:         models.MembershipActive,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("organization created", "org_id", org.ID, "owner_id", ownerID)
	return &org, nil
}

// Updates carries the scalar fields an org update may change. Member
// changes go through UpsertMember/RemoveMember so callers state intent
// instead of relying on list-merge behavior.
type Updates struct {
	Name *string
}

func (s *Service) Update(ctx context.Context, requesterID, orgID uuid.UUID, updates Updates) (*models.Organization, error) {
	org, err := s.Get(ctx, requesterID, orgID, models.RoleOrgAdmin)
	if err != nil {
		return nil, err
	}

	if updates.Name != nil {
		org.Name = *updates.Name
	}

	if err := s.db.WithContext(ctx).Save(org).Error; err != nil {
		return nil, err
	}
	return org, nil
}

func (s *Service) Delete(ctx context.Context, requesterID, orgID uuid.UUID) error {
	if _, err := s.Get(ctx, requesterID, orgID, models.RoleOrgAdmin); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("organization_id = ?", orgID).
			Delete(&models.OrgMembership{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Organization{}, orgID).Error
	})
}

// UpsertMember adds memberID to the organization or, if already a member,
// updates the role (append-only union by user id, last write wins on role).
// The membership is created as active; invited rows are made by the invite
// workflow instead.
func (s *Service) UpsertMember(ctx context.Context, requesterID, orgID, memberID uuid.UUID, role models.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if _, err := s.Get(ctx, requesterID, orgID, models.RoleOrgAdmin); err != nil {
		return err
	}

	membership := models.OrgMembership{
		UserID:         memberID,
		OrganizationID: orgID,
		Role:           role,
		Status:         models.MembershipActive,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "organization_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
	}).Create(&membership).Error
}

// RemoveMember deletes memberID's membership row. Because membership is one
// relation, this removes the org from the user's org list in the same write.
// Any invite record for the member goes with it, so a later invite for the
// same address starts fresh instead of finding the old row.
func (s *Service) RemoveMember(ctx context.Context, requesterID, orgID, memberID uuid.UUID) error {
	if _, err := s.Get(ctx, requesterID, orgID, models.RoleOrgAdmin); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("organization_id = ? AND user_id = ?", orgID, memberID).
			Delete(&models.OrgMembership{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrMemberNotFound
		}

		// Hard delete: a soft-deleted invite would keep holding the
		// (org, email) unique index.
		return tx.Unscoped().
			Where("organization_id = ? AND invitee_id = ?", orgID, memberID).
			Delete(&models.Invite{}).Error
	})
	if err != nil {
		return err
	}

	s.logger.Info("member removed", "org_id", orgID, "member_id", memberID)
	return nil
}

// Members lists the organization's member records.
func (s *Service) Members(ctx context.Context, requesterID, orgID uuid.UUID) ([]models.OrgMembership, error) {
	if _, err := s.Get(ctx, requesterID, orgID, ""); err != nil {
		return nil, err
	}

	var members []models.OrgMembership
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

// Member returns the user behind a member record, or ErrMemberNotFound if
// memberID is not part of the organization.
func (s *Service) Member(ctx context.Context, requesterID, orgID, memberID uuid.UUID) (*models.User, error) {
	if _, err := s.Get(ctx, requesterID, orgID, ""); err != nil {
		return nil, err
	}
	if _, err := s.Membership(ctx, orgID, memberID); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &user, nil
}

// MemberByEmail looks up a member of the organization by email.
func (s *Service) MemberByEmail(ctx context.Context, requesterID, orgID uuid.UUID, email string) (*models.User, error) {
	if _, err := s.Get(ctx, requesterID, orgID, ""); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN org_memberships ON org_memberships.user_id = users.id").
		Where("org_memberships.organization_id = ? AND users.email = ?", orgID, email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ForUser lists the organizations the user is an active member of.
func (s *Service) ForUser(ctx context.Context, userID uuid.UUID) ([]models.Organization, error) {
	var orgs []models.Organization
	err := s.db.WithContext(ctx).
		Joins("JOIN org_memberships ON org_memberships.organization_id = organizations.id").
		Where("org_memberships.user_id = ? AND org_memberships.status = ?", userID, models.MembershipActive).
		Order("organizations.created_at ASC").
		Find(&orgs).Error
	return orgs, err
}
