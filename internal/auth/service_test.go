package auth_test

import (
	"testing"

	"github.com/arlo/crewdeck/internal/auth"
	"github.com/arlo/crewdeck/internal/database/models"
	"github.com/arlo/crewdeck/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthService(t *testing.T) (*auth.Service, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)
	return auth.NewService(tc.DB, tc.JWTService), tc
}

func TestAuthService_Register(t *testing.T) {
	svc, tc := setupAuthService(t)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	resp, err := svc.Register(ctx, auth.RegisterInput{
		Email:     "fresh@example.com",
		Password:  "Sup3rsecret",
		FirstName: "Fresh",
		LastName:  "Face",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "fresh@example.com", resp.User.Email)

	// Registration creates a personal org with the user as admin
	var membership models.OrgMembership
	require.NoError(t, tc.DB.Where("user_id = ?", resp.User.ID).First(&membership).Error)
	assert.Equal(t, models.RoleOrgAdmin, membership.Role)
	assert.Equal(t, models.MembershipActive, membership.Status)

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, auth.RegisterInput{
			Email:     "fresh@example.com",
			Password:  "Sup3rsecret",
			FirstName: "Fresh",
		})
		assert.ErrorIs(t, err, auth.ErrUserExists)
	})
}

func TestAuthService_Register_ClaimsShell(t *testing.T) {
	svc, tc := setupAuthService(t)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	// An invite left an account shell with a pending membership
	shell := models.User{Email: "invited@example.com", IsActive: true}
	require.NoError(t, tc.DB.Create(&shell).Error)
	require.NoError(t, tc.DB.Create(&models.OrgMembership{
		UserID:         shell.ID,
		OrganizationID: tc.Org.ID,
		Role:           models.RoleOrgUser,
		Status:         models.MembershipInvited,
	}).Error)

	resp, err := svc.Register(ctx, auth.RegisterInput{
		Email:     "invited@example.com",
		Password:  "Sup3rsecret",
		FirstName: "Ida",
		LastName:  "Invitee",
	})
	require.NoError(t, err)

	// The shell is claimed, not duplicated
	assert.Equal(t, shell.ID, resp.User.ID)
	assert.False(t, resp.User.IsShell())
	assert.Equal(t, "Ida", resp.User.FirstName)

	// The invited membership survived the claim
	var membership models.OrgMembership
	require.NoError(t, tc.DB.
		Where("user_id = ? AND organization_id = ?", shell.ID, tc.Org.ID).
		First(&membership).Error)
	assert.Equal(t, models.MembershipInvited, membership.Status)
}

func TestAuthService_Login(t *testing.T) {
	svc, tc := setupAuthService(t)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login(ctx, auth.LoginInput{
			Email:    tc.User.Email,
			Password: "Testpassword123",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, auth.LoginInput{
			Email:    tc.User.Email,
			Password: "wrong",
		})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, auth.LoginInput{
			Email:    "nobody@example.com",
			Password: "whatever",
		})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("shell account cannot log in", func(t *testing.T) {
		shell := models.User{Email: "shell@example.com", IsActive: true}
		require.NoError(t, tc.DB.Create(&shell).Error)

		_, err := svc.Login(ctx, auth.LoginInput{
			Email:    "shell@example.com",
			Password: "",
		})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("inactive account", func(t *testing.T) {
		require.NoError(t, tc.DB.Model(&models.User{}).
			Where("id = ?", tc.User.ID).
			Update("is_active", false).Error)
		defer tc.DB.Model(&models.User{}).
			Where("id = ?", tc.User.ID).
			Update("is_active", true)

		_, err := svc.Login(ctx, auth.LoginInput{
			Email:    tc.User.Email,
			Password: "Testpassword123",
		})
		assert.ErrorIs(t, err, auth.ErrInactiveUser)
	})
}
