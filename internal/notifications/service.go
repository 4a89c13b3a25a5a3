package notifications

import (
	"context"
	"errors"

	"github.com/arlo/crewdeck/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned both when a notification does not exist and when
// it belongs to someone else. Ownership violations are indistinguishable
// from absence on every operation, including delete.
var ErrNotFound = errors.New("notification not found")

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type CreateInput struct {
	UserID  uuid.UUID
	Type    models.NotificationType
	Title   string
	Body    string
	Button  string
	Context models.JSONMap
}

// Create persists a notification for a user. It starts unread.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Notification, error) {
	return createTx(s.db.WithContext(ctx), input)
}

// CreateTx is Create inside a caller-owned transaction; the invite workflow
// uses it so notification creation commits with the membership write.
func CreateTx(tx *gorm.DB, input CreateInput) (*models.Notification, error) {
	return createTx(tx, input)
}

func createTx(tx *gorm.DB, input CreateInput) (*models.Notification, error) {
	n := models.Notification{
		UserID:  input.UserID,
		Type:    input.Type,
		Title:   input.Title,
		Body:    input.Body,
		Button:  input.Button,
		Context: input.Context,
		Unread:  true,
	}
	if err := tx.Create(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// Get loads a notification owned by userID.
func (s *Service) Get(ctx context.Context, userID, notificationID uuid.UUID) (*models.Notification, error) {
	var n models.Notification
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// ListForUser returns all of the user's notifications, newest first. A user
// with zero notifications gets ErrNotFound, not an empty list.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	var list []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list, nil
}

// SetUnread flips the unread flag on a notification owned by userID.
func (s *Service) SetUnread(ctx context.Context, userID, notificationID uuid.UUID, unread bool) (*models.Notification, error) {
	n, err := s.Get(ctx, userID, notificationID)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(n).Update("unread", unread).Error; err != nil {
		return nil, err
	}
	n.Unread = unread
	return n, nil
}

// Delete removes a notification owned by userID and drops its id from the
// owner's unread list in the same transaction.
func (s *Service) Delete(ctx context.Context, userID, notificationID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", notificationID, userID).
			Delete(&models.Notification{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		if !user.UnreadNotifications.Contains(notificationID) {
			return nil
		}
		return tx.Model(&user).
			Update("unread_notifications", user.UnreadNotifications.Without(notificationID)).Error
	})
}
