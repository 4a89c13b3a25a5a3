package invites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arlo/crewdeck/internal/database/models"
	"github.com/arlo/crewdeck/internal/notifications"
	"github.com/arlo/crewdeck/internal/orgs"
	"github.com/arlo/crewdeck/internal/tasks"
	"github.com/arlo/crewdeck/internal/users"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidRole = errors.New("invalid role")
	// ErrNotInvited is returned by Accept when the caller has no
	// membership row in the organization.
	ErrNotInvited = errors.New("no invitation for this organization")
)

// errInviteRaceLost aborts the transaction of an invite that lost the insert
// race on the (org, email) unique index; the caller re-reads the winner's row.
var errInviteRaceLost = errors.New("lost invite creation race")

// Service orchestrates the invite workflow. The database side effects of an
// invite (account shell, membership, notification, unread list, invite
// record) commit in one transaction; only the email leaves it, enqueued
// after commit and re-driven by Reconcile when delivery never happened.
type Service struct {
	db          *gorm.DB
	orgs        *orgs.Service
	users       *users.Service
	asynqClient *asynq.Client
	logger      *slog.Logger
}

func NewService(db *gorm.DB, orgService *orgs.Service, userService *users.Service, asynqClient *asynq.Client, logger *slog.Logger) *Service {
	return &Service{
		db:          db,
		orgs:        orgService,
		users:       userService,
		asynqClient: asynqClient,
		logger:      logger,
	}
}

// Result reports what an Invite call did.
type Result struct {
	Invite *models.Invite
	// Enqueued is false when the call was an idempotent repeat of an
	// outstanding invite (no new notification, no new email).
	Enqueued bool
	TaskID   string
}

// Invite invites email into orgID at the given role on behalf of inviterID,
// who must be an orgAdmin of the organization.
func (s *Service) Invite(ctx context.Context, inviterID, orgID uuid.UUID, email string, role models.Role) (*Result, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	email = strings.ToLower(strings.TrimSpace(email))

	org, err := s.orgs.Get(ctx, inviterID, orgID, models.RoleOrgAdmin)
	if err != nil {
		return nil, err
	}

	inviter, err := s.users.Get(ctx, inviterID)
	if err != nil {
		return nil, err
	}

	var invite models.Invite
	var repeat bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("organization_id = ? AND email = ?", orgID, email).
			First(&invite).Error
		switch {
		case err == nil:
			// A prior invite for this (org, email) makes the call a
			// no-op (no duplicate notification, no second email), but
			// only while the membership it created is still there.
			// Once the member was removed the row is stale and the
			// invite has to run again.
			var membership models.OrgMembership
			merr := tx.Where("organization_id = ? AND user_id = ?", orgID, invite.InviteeID).
				First(&membership).Error
			if merr == nil {
				repeat = true
				return nil
			}
			if !errors.Is(merr, gorm.ErrRecordNotFound) {
				return merr
			}

			invitee, isNewUser, cerr := s.findOrCreateInvitee(tx, email)
			if cerr != nil {
				return cerr
			}
			invite.Role = role
			invite.InviterID = inviterID
			invite.InviteeID = invitee.ID
			invite.IsNewUser = isNewUser
			if uerr := tx.Model(&invite).Updates(map[string]interface{}{
				"role":        role,
				"inviter_id":  inviterID,
				"invitee_id":  invitee.ID,
				"is_new_user": isNewUser,
				"state":       models.InvitePending,
				"mailed_at":   nil,
			}).Error; uerr != nil {
				return uerr
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			invitee, isNewUser, cerr := s.findOrCreateInvitee(tx, email)
			if cerr != nil {
				return cerr
			}
			invite = models.Invite{
				OrganizationID: orgID,
				Email:          email,
				Role:           role,
				InviterID:      inviterID,
				InviteeID:      invitee.ID,
				State:          models.InvitePending,
				IsNewUser:      isNewUser,
			}
			if cerr := tx.Create(&invite).Error; cerr != nil {
				if isDuplicateKey(cerr) {
					// A concurrent invite for the same address
					// committed between the check and the insert.
					return errInviteRaceLost
				}
				return cerr
			}
		default:
			return err
		}

		return s.notify(tx, &invite, inviter, org)
	})
	if errors.Is(err, errInviteRaceLost) {
		// Converge on the winner's row, same as a repeat invite. A fresh
		// struct here, or First would filter on the rolled-back id.
		var existing models.Invite
		err = s.db.WithContext(ctx).
			Where("organization_id = ? AND email = ?", orgID, email).
			First(&existing).Error
		if err != nil {
			return nil, err
		}
		s.logger.Info("concurrent invite converged",
			"org_id", orgID, "email", email, "invite_id", existing.ID)
		return &Result{Invite: &existing}, nil
	}
	if err != nil {
		return nil, err
	}

	if repeat {
		s.logger.Info("repeat invite ignored",
			"org_id", orgID, "email", email, "invite_id", invite.ID)
		return &Result{Invite: &invite}, nil
	}

	// Membership is committed at this point, so the accept flow works no
	// matter what happens to the email.
	taskID, err := s.enqueueMail(ctx, invite.ID)
	if err != nil {
		// The reconcile job will pick the invite up from notified.
		s.logger.Error("failed to enqueue invite mail",
			"invite_id", invite.ID, "error", err)
		return &Result{Invite: &invite}, nil
	}

	s.logger.Info("member invited",
		"org_id", orgID, "email", email,
		"invite_id", invite.ID, "new_user", invite.IsNewUser)
	return &Result{Invite: &invite, Enqueued: taskID != "", TaskID: taskID}, nil
}

// Accept marks the caller's invited membership active. A user with no
// membership row gets ErrNotInvited; accepting twice is a no-op.
func (s *Service) Accept(ctx context.Context, userID, orgID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var membership models.OrgMembership
		err := tx.Where("organization_id = ? AND user_id = ?", orgID, userID).
			First(&membership).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotInvited
			}
			return err
		}

		if membership.Status == models.MembershipActive {
			return nil
		}

		if err := tx.Model(&models.OrgMembership{}).
			Where("organization_id = ? AND user_id = ?", orgID, userID).
			Update("status", models.MembershipActive).Error; err != nil {
			return err
		}

		var invite models.Invite
		err = tx.Where("organization_id = ? AND invitee_id = ?", orgID, userID).
			First(&invite).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Membership can exist without an invite (direct add).
			return nil
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&invite).
			Update("state", models.InviteAccepted).Error; err != nil {
			return err
		}

		if invite.NotificationID == uuid.Nil {
			return nil
		}
		if err := tx.Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", invite.NotificationID, userID).
			Update("unread", false).Error; err != nil {
			return err
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		if !user.UnreadNotifications.Contains(invite.NotificationID) {
			return nil
		}
		return tx.Model(&user).
			Update("unread_notifications", user.UnreadNotifications.Without(invite.NotificationID)).Error
	})
}

// Reconcile re-enqueues mail for invites that reached notified but were
// never mailed within staleAfter. Returns how many were re-driven.
func (s *Service) Reconcile(ctx context.Context, staleAfter time.Duration) (int, error) {
	cutoff := time.Now().Add(-staleAfter)

	var stalled []models.Invite
	err := s.db.WithContext(ctx).
		Where("state = ? AND updated_at < ?", models.InviteNotified, cutoff).
		Find(&stalled).Error
	if err != nil {
		return 0, err
	}

	count := 0
	for _, invite := range stalled {
		if _, err := s.enqueueMail(ctx, invite.ID); err != nil {
			s.logger.Error("reconcile: failed to enqueue invite mail",
				"invite_id", invite.ID, "error", err)
			continue
		}
		count++
	}

	if count > 0 {
		s.logger.Info("reconciled stalled invites", "count", count)
	}
	return count, nil
}

// notify runs the committed half of an invite: membership row, notification,
// unread-list append, and the invite's move to notified. The invite must
// already carry its invitee and role.
func (s *Service) notify(tx *gorm.DB, invite *models.Invite, inviter *models.User, org *models.Organization) error {
	// Add member if absent. The composite primary key plus DO NOTHING
	// makes concurrent invites converge on one row.
	membership := models.OrgMembership{
		UserID:         invite.InviteeID,
		OrganizationID: invite.OrganizationID,
		Role:           invite.Role,
		Status:         models.MembershipInvited,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&membership).Error; err != nil {
		return err
	}

	notification, err := notifications.CreateTx(tx, notifications.CreateInput{
		UserID: invite.InviteeID,
		Type:   models.NotificationOrgInvite,
		Title:  inviteTitle(inviter, org),
		Body:   "Click here to join",
		Button: "Accept",
		Context: models.JSONMap{
			models.ContextOrgID:    invite.OrganizationID.String(),
			models.ContextInviteID: invite.ID.String(),
		},
	})
	if err != nil {
		return err
	}

	if err := users.AppendUnreadNotificationsTx(tx, invite.InviteeID, notification.ID); err != nil {
		return err
	}

	invite.NotificationID = notification.ID
	invite.State = models.InviteNotified
	return tx.Model(invite).Updates(map[string]interface{}{
		"notification_id": notification.ID,
		"state":           models.InviteNotified,
	}).Error
}

func (s *Service) findOrCreateInvitee(tx *gorm.DB, email string) (*models.User, bool, error) {
	var user models.User
	err := tx.Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	user = models.User{Email: email, IsActive: true}
	if err := tx.Create(&user).Error; err != nil {
		return nil, false, fmt.Errorf("creating account shell: %w", err)
	}
	return &user, true, nil
}

func (s *Service) enqueueMail(ctx context.Context, inviteID uuid.UUID) (string, error) {
	if s.asynqClient == nil {
		return "", nil
	}

	task, err := tasks.NewNotificationEmailTask(tasks.NotificationEmailPayload{InviteID: inviteID})
	if err != nil {
		return "", err
	}
	info, err := s.asynqClient.EnqueueContext(ctx, task)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// isDuplicateKey spots unique-index violations across the drivers in use
// (postgres in production, sqlite in tests).
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

func inviteTitle(inviter *models.User, org *models.Organization) string {
	if name := inviter.DisplayName(); name != "" {
		return fmt.Sprintf("%s has invited you to join %s", name, org.Name)
	}
	return fmt.Sprintf("You have been invited to join %s", org.Name)
}
