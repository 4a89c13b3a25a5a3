package projects_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/arlo/crewdeck/internal/database/models"
	"github.com/arlo/crewdeck/internal/orgs"
	"github.com/arlo/crewdeck/internal/projects"
	"github.com/arlo/crewdeck/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProjectService(t *testing.T) (*projects.Service, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	orgService := orgs.NewService(tc.DB, logger)
	return projects.NewService(tc.DB, orgService), tc
}

func TestProjectService_Create(t *testing.T) {
	svc, tc := setupProjectService(t)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	project, err := svc.Create(ctx, tc.User.ID, tc.Org.ID, projects.CreateInput{
		Name:        "Launch",
		Description: "Q3 launch work",
	})
	require.NoError(t, err)
	assert.Equal(t, tc.Org.ID, project.OrganizationID)

	// Creator is the first project member, as manager
	members, err := svc.Members(ctx, tc.User.ID, project.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, tc.User.ID, members[0].UserID)
	assert.Equal(t, models.ProjectRoleManager, members[0].Role)

	t.Run("viewer cannot create", func(t *testing.T) {
		viewer := testutil.CreateTestUser(t, tc.DB, tc.Org, models.RoleOrgViewer)
		_, err := svc.Create(ctx, viewer.ID, tc.Org.ID, projects.CreateInput{Name: "Nope"})
		assert.ErrorIs(t, err, orgs.ErrForbidden)
	})
}

func TestProjectService_Get(t *testing.T) {
	svc, tc := setupProjectService(t)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	project := testutil.CreateTestProject(t, tc.DB, tc.Org.ID)

	got, err := svc.Get(ctx, tc.User.ID, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, got.ID)

	t.Run("missing project is not found", func(t *testing.T) {
		_, err := svc.Get(ctx, tc.User.ID, uuid.New())
		assert.ErrorIs(t, err, projects.ErrNotFound)
	})

	t.Run("non-member of the org reads as not found", func(t *testing.T) {
		outsider := testutil.CreateTestUser(t, tc.DB, nil, "")
		_, err := svc.Get(ctx, outsider.ID, project.ID)
		assert.ErrorIs(t, err, projects.ErrNotFound)
	})
}

func TestProjectService_Update(t *testing.T) {
	svc, tc := setupProjectService(t)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	project := testutil.CreateTestProject(t, tc.DB, tc.Org.ID)

	name := "Renamed"
	got, err := svc.Update(ctx, tc.User.ID, project.ID, projects.Updates{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	t.Run("org user cannot update", func(t *testing.T) {
		member := testutil.CreateTestUser(t, tc.DB, tc.Org, models.RoleOrgUser)
		_, err := svc.Update(ctx, member.ID, project.ID, projects.Updates{Name: &name})
		assert.ErrorIs(t, err, orgs.ErrForbidden)
	})
}

func TestProjectService_Delete(t *testing.T) {
	svc, tc := setupProjectService(t)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	project := testutil.CreateTestProject(t, tc.DB, tc.Org.ID)
	require.NoError(t, svc.UpsertMember(ctx, tc.User.ID, project.ID, tc.User.ID, models.ProjectRoleManager))

	require.NoError(t, svc.Delete(ctx, tc.User.ID, project.ID))

	_, err := svc.Get(ctx, tc.User.ID, project.ID)
	assert.ErrorIs(t, err, projects.ErrNotFound)

	// Member rows go with the project
	var count int64
	tc.DB.Model(&models.ProjectMember{}).
		Where("project_id = ?", project.ID).Count(&count)
	assert.Zero(t, count)
}

func TestProjectService_Members(t *testing.T) {
	svc, tc := setupProjectService(t)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	project := testutil.CreateTestProject(t, tc.DB, tc.Org.ID)
	member := testutil.CreateTestUser(t, tc.DB, tc.Org, models.RoleOrgUser)

	require.NoError(t, svc.UpsertMember(ctx, tc.User.ID, project.ID, member.ID, models.ProjectRoleEditor))

	// Upsert updates the role in place
	require.NoError(t, svc.UpsertMember(ctx, tc.User.ID, project.ID, member.ID, models.ProjectRoleViewer))

	members, err := svc.Members(ctx, tc.User.ID, project.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, models.ProjectRoleViewer, members[0].Role)

	require.NoError(t, svc.RemoveMember(ctx, tc.User.ID, project.ID, member.ID))

	t.Run("removing twice is not found", func(t *testing.T) {
		err := svc.RemoveMember(ctx, tc.User.ID, project.ID, member.ID)
		assert.ErrorIs(t, err, projects.ErrMemberNotFound)
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		err := svc.UpsertMember(ctx, tc.User.ID, project.ID, member.ID, "owner")
		assert.ErrorIs(t, err, projects.ErrInvalidRole)
	})
}
