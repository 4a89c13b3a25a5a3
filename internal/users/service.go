package users

import (
	"context"
	"errors"

	"github.com/arlo/crewdeck/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("user not found")

// Service is the user directory: lookup and create accounts, and maintain
// the per-user unread notification list. Org membership lives in the
// org_memberships relation and is written by the orgs and invites services,
// so the directory only ever reads it.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// FindByEmail returns the user for an email, or (nil, nil) when no account
// exists. Absence is not an error; the caller decides what to do.
func (s *Service) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// CreateShell makes an account shell for an email that was invited but has
// never signed up. The shell has no password until claimed via register.
func (s *Service) CreateShell(ctx context.Context, email string) (*models.User, error) {
	user := models.User{
		Email:    email,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// AppendUnreadNotifications appends ids to the user's unread list, keeping
// existing entries. Ids already present are skipped.
func (s *Service) AppendUnreadNotifications(ctx context.Context, userID uuid.UUID, ids ...uuid.UUID) error {
	return appendUnreadTx(s.db.WithContext(ctx), userID, ids...)
}

// RemoveUnreadNotification drops one id from the user's unread list.
func (s *Service) RemoveUnreadNotification(ctx context.Context, userID, notificationID uuid.UUID) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if !user.UnreadNotifications.Contains(notificationID) {
		return nil
	}
	return s.db.WithContext(ctx).Model(&user).
		Update("unread_notifications", user.UnreadNotifications.Without(notificationID)).Error
}

// OrgIDs returns the ids of organizations the user is an active member of.
func (s *Service) OrgIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var memberships []models.OrgMembership
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.MembershipActive).
		Order("created_at ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(memberships))
	for i, m := range memberships {
		ids[i] = m.OrganizationID
	}
	return ids, nil
}

// appendUnreadTx is the transaction-friendly form used by the invite
// workflow.
func appendUnreadTx(tx *gorm.DB, userID uuid.UUID, ids ...uuid.UUID) error {
	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	unread := user.UnreadNotifications
	for _, id := range ids {
		if !unread.Contains(id) {
			unread = append(unread, id)
		}
	}
	return tx.Model(&user).Update("unread_notifications", unread).Error
}

// AppendUnreadNotificationsTx exposes the append inside a caller-owned
// transaction.
func AppendUnreadNotificationsTx(tx *gorm.DB, userID uuid.UUID, ids ...uuid.UUID) error {
	return appendUnreadTx(tx, userID, ids...)
}
