package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arlo/crewdeck/internal/database/models"
	"github.com/arlo/crewdeck/internal/mail"
	"github.com/arlo/crewdeck/pkg/crypto"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// Reconciler re-drives invites whose mail was never sent. Satisfied by the
// invite service; the handler only needs this one method from it.
type Reconciler interface {
	Reconcile(ctx context.Context, staleAfter time.Duration) (int, error)
}

type Handler struct {
	db         *gorm.DB
	logger     *slog.Logger
	mailer     mail.Dispatcher
	encryptor  *crypto.Encryptor
	invites    Reconciler
	baseURL    string
	staleAfter time.Duration
}

func NewHandler(db *gorm.DB, logger *slog.Logger, mailer mail.Dispatcher, encryptor *crypto.Encryptor, inviteService Reconciler, baseURL string, staleAfter time.Duration) *Handler {
	return &Handler{
		db:         db,
		logger:     logger,
		mailer:     mailer,
		encryptor:  encryptor,
		invites:    inviteService,
		baseURL:    baseURL,
		staleAfter: staleAfter,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeNotificationEmail, h.HandleNotificationEmail)
	mux.HandleFunc(TypeInviteReconcile, h.HandleInviteReconcile)
}

// HandleNotificationEmail delivers the email for one invite and advances the
// invite to mailed. Already-mailed and already-accepted invites are skipped,
// which makes redelivery of the task harmless.
func (h *Handler) HandleNotificationEmail(ctx context.Context, t *asynq.Task) error {
	var payload NotificationEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	var invite models.Invite
	if err := h.db.WithContext(ctx).First(&invite, payload.InviteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.logger.Warn("invite gone, dropping mail task", "invite_id", payload.InviteID)
			return nil
		}
		return err
	}

	if invite.State != models.InviteNotified {
		h.logger.Debug("invite not in notified state, skipping",
			"invite_id", invite.ID, "state", invite.State)
		return nil
	}

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, invite.InviteeID).Error; err != nil {
		return fmt.Errorf("loading invitee: %w", err)
	}

	var notification models.Notification
	if err := h.db.WithContext(ctx).First(&notification, invite.NotificationID).Error; err != nil {
		return fmt.Errorf("loading notification: %w", err)
	}

	acceptURL, err := h.acceptURL(&invite)
	if err != nil {
		return err
	}

	if err := h.mailer.SendNotification(ctx, &user, &notification, acceptURL, invite.IsNewUser); err != nil {
		h.logger.Error("mail dispatch failed",
			"invite_id", invite.ID, "error", err)
		return err
	}

	now := time.Now().Unix()
	return h.db.WithContext(ctx).Model(&invite).Updates(map[string]interface{}{
		"state":     models.InviteMailed,
		"mailed_at": now,
	}).Error
}

// HandleInviteReconcile re-enqueues mail for invites stuck in notified.
func (h *Handler) HandleInviteReconcile(ctx context.Context, t *asynq.Task) error {
	count, err := h.invites.Reconcile(ctx, h.staleAfter)
	if err != nil {
		return fmt.Errorf("reconciling invites: %w", err)
	}

	h.logger.Info("invite reconcile pass finished", "redriven", count)
	return nil
}

func (h *Handler) acceptURL(invite *models.Invite) (string, error) {
	token := mail.AcceptToken{
		OrgID:          invite.OrganizationID.String(),
		UserID:         invite.InviteeID.String(),
		NotificationID: invite.NotificationID.String(),
	}
	sealed, err := token.Seal(h.encryptor)
	if err != nil {
		return "", fmt.Errorf("sealing accept token: %w", err)
	}
	return fmt.Sprintf("%s/orgInvite/%s?token=%s", h.baseURL, invite.NotificationID, sealed), nil
}
