package tasks_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/arlo/crewdeck/internal/database/models"
	"github.com/arlo/crewdeck/internal/invites"
	"github.com/arlo/crewdeck/internal/mail"
	"github.com/arlo/crewdeck/internal/orgs"
	"github.com/arlo/crewdeck/internal/tasks"
	"github.com/arlo/crewdeck/internal/testutil"
	"github.com/arlo/crewdeck/internal/users"
	"github.com/arlo/crewdeck/pkg/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The handler must depend on the Reconciler interface, never on the invite
// service directly, which in turn depends on the task constructors here.
var _ tasks.Reconciler = (*invites.Service)(nil)

type fakeDispatcher struct {
	sent      int
	lastURL   string
	lastUser  *models.User
	lastIsNew bool
}

func (f *fakeDispatcher) SendNotification(ctx context.Context, user *models.User, notification *models.Notification, acceptURL string, isNewUser bool) error {
	f.sent++
	f.lastURL = acceptURL
	f.lastUser = user
	f.lastIsNew = isNewUser
	return nil
}

func setupTaskHandler(t *testing.T) (*tasks.Handler, *invites.Service, *fakeDispatcher, *crypto.Encryptor, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	encryptor, err := crypto.NewEncryptor("")
	require.NoError(t, err)

	orgService := orgs.NewService(tc.DB, logger)
	userService := users.NewService(tc.DB)
	inviteService := invites.NewService(tc.DB, orgService, userService, nil, logger)

	dispatcher := &fakeDispatcher{}
	handler := tasks.NewHandler(tc.DB, logger, dispatcher, encryptor, inviteService, "http://localhost:3000", 10*time.Minute)
	return handler, inviteService, dispatcher, encryptor, tc
}

func TestHandleNotificationEmail(t *testing.T) {
	handler, inviteService, dispatcher, encryptor, tc := setupTaskHandler(t)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	result, err := inviteService.Invite(ctx, tc.User.ID, tc.Org.ID, "mailme@example.com", models.RoleOrgUser)
	require.NoError(t, err)
	invite := result.Invite

	task, err := tasks.NewNotificationEmailTask(tasks.NotificationEmailPayload{InviteID: invite.ID})
	require.NoError(t, err)

	require.NoError(t, handler.HandleNotificationEmail(ctx, task))

	require.Equal(t, 1, dispatcher.sent)
	assert.True(t, dispatcher.lastIsNew)
	assert.Equal(t, "mailme@example.com", dispatcher.lastUser.Email)

	// The accept link embeds the notification id and a sealed token
	assert.Contains(t, dispatcher.lastURL, "http://localhost:3000/orgInvite/"+invite.NotificationID.String())
	sealed := dispatcher.lastURL[strings.Index(dispatcher.lastURL, "token=")+len("token="):]
	token, err := mail.OpenAcceptToken(encryptor, sealed)
	require.NoError(t, err)
	assert.Equal(t, tc.Org.ID.String(), token.OrgID)
	assert.Equal(t, invite.InviteeID.String(), token.UserID)
	assert.Equal(t, invite.NotificationID.String(), token.NotificationID)

	// Invite advanced to mailed with a timestamp
	var stored models.Invite
	require.NoError(t, tc.DB.First(&stored, invite.ID).Error)
	assert.Equal(t, models.InviteMailed, stored.State)
	require.NotNil(t, stored.MailedAt)
	assert.InDelta(t, time.Now().Unix(), *stored.MailedAt, 5)

	t.Run("redelivery is a no-op once mailed", func(t *testing.T) {
		require.NoError(t, handler.HandleNotificationEmail(ctx, task))
		assert.Equal(t, 1, dispatcher.sent)
	})
}

func TestHandleNotificationEmail_InviteGone(t *testing.T) {
	handler, _, dispatcher, _, tc := setupTaskHandler(t)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	task, err := tasks.NewNotificationEmailTask(tasks.NotificationEmailPayload{InviteID: tc.User.ID})
	require.NoError(t, err)

	// A deleted invite drops the task without error so asynq won't retry
	require.NoError(t, handler.HandleNotificationEmail(ctx, task))
	assert.Zero(t, dispatcher.sent)
}

func TestHandleInviteReconcile(t *testing.T) {
	handler, inviteService, _, _, tc := setupTaskHandler(t)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	result, err := inviteService.Invite(ctx, tc.User.ID, tc.Org.ID, "stuck@example.com", models.RoleOrgUser)
	require.NoError(t, err)

	old := time.Now().Add(-time.Hour)
	require.NoError(t, tc.DB.Model(&models.Invite{}).
		Where("id = ?", result.Invite.ID).
		UpdateColumn("updated_at", old).Error)

	require.NoError(t, handler.HandleInviteReconcile(ctx, tasks.NewInviteReconcileTask()))
}
