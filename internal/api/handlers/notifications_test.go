package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arlo/crewdeck/internal/api/dto"
	"github.com/arlo/crewdeck/internal/api/handlers"
	"github.com/arlo/crewdeck/internal/api/middleware"
	"github.com/arlo/crewdeck/internal/notifications"
	"github.com/arlo/crewdeck/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupNotificationTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	handler := handlers.NewNotificationHandler(notifications.NewService(tc.DB))

	r := chi.NewRouter()
	r.Use(middleware.Auth(tc.JWTService))
	r.Route("/api/v1/notifications", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Get("/{notificationID}", handler.Get)
		r.Put("/{notificationID}/unread", handler.SetUnread)
		r.Delete("/{notificationID}", handler.Delete)
	})

	return r, tc
}

func TestNotificationHandler_List(t *testing.T) {
	router, tc := setupNotificationTestRouter(t)
	defer tc.Cleanup()

	t.Run("empty inbox is 404", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/notifications", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("lists own notifications", func(t *testing.T) {
		testutil.CreateTestNotification(t, tc.DB, tc.User.ID)
		testutil.CreateTestNotification(t, tc.DB, tc.User.ID)

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/notifications", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp []dto.NotificationResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Len(t, resp, 2)
	})
}

func TestNotificationHandler_Get(t *testing.T) {
	router, tc := setupNotificationTestRouter(t)
	defer tc.Cleanup()

	n := testutil.CreateTestNotification(t, tc.DB, tc.User.ID)

	t.Run("own notification", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/notifications/"+n.ID.String(), nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp dto.NotificationResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, n.ID.String(), resp.ID)
		assert.True(t, resp.Unread)
	})

	t.Run("missing id is 404", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/notifications/"+uuid.New().String(), nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("foreign notification is 404", func(t *testing.T) {
		other := testutil.CreateTestUser(t, tc.DB, nil, "")
		token := testutil.GenerateTestToken(t, tc.JWTService, other)

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/notifications/"+n.ID.String(), nil, token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestNotificationHandler_SetUnread(t *testing.T) {
	router, tc := setupNotificationTestRouter(t)
	defer tc.Cleanup()

	n := testutil.CreateTestNotification(t, tc.DB, tc.User.ID)
	path := "/api/v1/notifications/" + n.ID.String() + "/unread"

	body := map[string]interface{}{"unread": false}
	req := testutil.AuthenticatedRequest(t, "PUT", path, body, tc.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp dto.NotificationResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.False(t, resp.Unread)
}

func TestNotificationHandler_Delete(t *testing.T) {
	router, tc := setupNotificationTestRouter(t)
	defer tc.Cleanup()

	n := testutil.CreateTestNotification(t, tc.DB, tc.User.ID)
	path := "/api/v1/notifications/" + n.ID.String()

	req := testutil.AuthenticatedRequest(t, "DELETE", path, nil, tc.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	t.Run("deleting twice is 404", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "DELETE", path, nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
