package handlers_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arlo/crewdeck/internal/api/dto"
	"github.com/arlo/crewdeck/internal/api/handlers"
	"github.com/arlo/crewdeck/internal/api/middleware"
	"github.com/arlo/crewdeck/internal/orgs"
	"github.com/arlo/crewdeck/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOrgTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	orgService := orgs.NewService(tc.DB, logger)
	handler := handlers.NewOrgHandler(orgService)

	r := chi.NewRouter()
	r.Use(middleware.Auth(tc.JWTService))
	r.Route("/api/v1/orgs", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Post("/", handler.Create)
		r.Route("/{orgID}", func(r chi.Router) {
			r.Get("/", handler.Get)
			r.Put("/", handler.Update)
			r.Delete("/", handler.Delete)
		})
	})

	return r, tc
}

func TestOrgHandler_Create(t *testing.T) {
	router, tc := setupOrgTestRouter(t)
	defer tc.Cleanup()

	t.Run("valid", func(t *testing.T) {
		body := map[string]interface{}{"name": "Acme"}
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/orgs", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)

		var resp dto.OrgResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "Acme", resp.Name)
		assert.NotEmpty(t, resp.ID)
	})

	t.Run("missing name", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/orgs", map[string]interface{}{}, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/orgs", map[string]interface{}{"name": "X"})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestOrgHandler_List(t *testing.T) {
	router, tc := setupOrgTestRouter(t)
	defer tc.Cleanup()

	req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/orgs", nil, tc.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp []dto.OrgResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	require.Len(t, resp, 1)
	assert.Equal(t, tc.Org.ID.String(), resp[0].ID)
}

func TestOrgHandler_Get(t *testing.T) {
	router, tc := setupOrgTestRouter(t)
	defer tc.Cleanup()

	t.Run("member reads own org", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/orgs/"+tc.Org.ID.String(), nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("missing org", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/orgs/"+uuid.New().String(), nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/orgs/not-a-uuid", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("foreign org reads as not found", func(t *testing.T) {
		other := testutil.CreateTestOrg(t, tc.DB)
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/orgs/"+other.ID.String(), nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestOrgHandler_Update(t *testing.T) {
	router, tc := setupOrgTestRouter(t)
	defer tc.Cleanup()

	body := map[string]interface{}{"name": "Renamed"}
	req := testutil.AuthenticatedRequest(t, "PUT", "/api/v1/orgs/"+tc.Org.ID.String(), body, tc.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp dto.OrgResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Equal(t, "Renamed", resp.Name)
}

func TestOrgHandler_Delete(t *testing.T) {
	router, tc := setupOrgTestRouter(t)
	defer tc.Cleanup()

	req := testutil.AuthenticatedRequest(t, "DELETE", "/api/v1/orgs/"+tc.Org.ID.String(), nil, tc.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	// The org is gone afterwards
	req = testutil.AuthenticatedRequest(t, "GET", "/api/v1/orgs/"+tc.Org.ID.String(), nil, tc.Token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
