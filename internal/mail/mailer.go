package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/arlo/crewdeck/internal/database/models"
	"github.com/arlo/crewdeck/pkg/config"
	"github.com/arlo/crewdeck/pkg/crypto"
	gomail "github.com/wneessen/go-mail"
)

// Dispatcher delivers the email behind a notification. isNewUser selects
// sign-up wording for recipients whose account was created by the invite.
type Dispatcher interface {
	SendNotification(ctx context.Context, user *models.User, notification *models.Notification, acceptURL string, isNewUser bool) error
}

// AcceptToken is the sealed payload embedded in invite accept links. It is
// opaque to the recipient; the frontend hands it back and the server opens
// it to locate the organization and invitee.
type AcceptToken struct {
	OrgID          string `json:"org_id"`
	UserID         string `json:"user_id"`
	NotificationID string `json:"notification_id"`
}

// Seal encrypts the token for embedding in a URL.
func (t AcceptToken) Seal(enc *crypto.Encryptor) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return enc.EncryptString(string(data))
}

// OpenAcceptToken decrypts a sealed accept token.
func OpenAcceptToken(enc *crypto.Encryptor, sealed string) (*AcceptToken, error) {
	plain, err := enc.DecryptString(sealed)
	if err != nil {
		return nil, fmt.Errorf("opening accept token: %w", err)
	}
	var token AcceptToken
	if err := json.Unmarshal([]byte(plain), &token); err != nil {
		return nil, fmt.Errorf("decoding accept token: %w", err)
	}
	return &token, nil
}

// SMTPDispatcher sends notification emails over SMTP.
type SMTPDispatcher struct {
	cfg    config.MailConfig
	logger *slog.Logger
}

func NewSMTPDispatcher(cfg config.MailConfig, logger *slog.Logger) *SMTPDispatcher {
	return &SMTPDispatcher{cfg: cfg, logger: logger}
}

func (d *SMTPDispatcher) SendNotification(ctx context.Context, user *models.User, notification *models.Notification, acceptURL string, isNewUser bool) error {
	msg := gomail.NewMsg()
	if err := msg.From(d.cfg.From); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := msg.To(user.Email); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}

	msg.Subject(notification.Title)
	msg.SetBodyString(gomail.TypeTextPlain, renderBody(notification, acceptURL, isNewUser))

	client, err := gomail.NewClient(d.cfg.Host,
		gomail.WithPort(d.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(d.cfg.Username),
		gomail.WithPassword(d.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}

	d.logger.Info("notification mail sent",
		"notification_id", notification.ID,
		"recipient", user.Email,
		"new_user", isNewUser,
	)
	return nil
}

func renderBody(notification *models.Notification, acceptURL string, isNewUser bool) string {
	action := "Log in to respond"
	if isNewUser {
		action = "Sign up to respond"
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s: %s\n", notification.Title, notification.Body, action, acceptURL)
}

// LogDispatcher stands in for SMTP in development: it logs the would-be
// email instead of sending it.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) SendNotification(ctx context.Context, user *models.User, notification *models.Notification, acceptURL string, isNewUser bool) error {
	d.logger.Info("mail dispatch (log only)",
		"recipient", user.Email,
		"subject", notification.Title,
		"accept_url", acceptURL,
		"new_user", isNewUser,
	)
	return nil
}
