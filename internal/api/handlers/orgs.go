package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arlo/crewdeck/internal/api/dto"
	"github.com/arlo/crewdeck/internal/api/middleware"
	"github.com/arlo/crewdeck/internal/database/models"
	"github.com/arlo/crewdeck/internal/orgs"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type OrgHandler struct {
	orgService *orgs.Service
}

func NewOrgHandler(orgService *orgs.Service) *OrgHandler {
	return &OrgHandler{orgService: orgService}
}

func (h *OrgHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	list, err := h.orgService.ForUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list organizations"})
		return
	}

	resp := make([]dto.OrgResponse, len(list))
	for i, org := range list {
		resp[i] = toOrgResponse(&org)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrgHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req dto.CreateOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	org, err := h.orgService.Create(r.Context(), userID, req.Name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create organization"})
		return
	}

	writeJSON(w, http.StatusCreated, toOrgResponse(org))
}

func (h *OrgHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orgID, ok := parseUUIDParam(w, r, "orgID")
	if !ok {
		return
	}

	org, err := h.orgService.Get(r.Context(), userID, orgID, "")
	if err != nil {
		writeOrgError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrgResponse(org))
}

func (h *OrgHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orgID, ok := parseUUIDParam(w, r, "orgID")
	if !ok {
		return
	}

	var req dto.UpdateOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	org, err := h.orgService.Update(r.Context(), userID, orgID, orgs.Updates{Name: req.Name})
	if err != nil {
		writeOrgError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrgResponse(org))
}

func (h *OrgHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orgID, ok := parseUUIDParam(w, r, "orgID")
	if !ok {
		return
	}

	if err := h.orgService.Delete(r.Context(), userID, orgID); err != nil {
		writeOrgError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Organization deleted"})
}

func writeOrgError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orgs.ErrNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Organization not found"})
	case errors.Is(err, orgs.ErrForbidden):
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Insufficient role"})
	case errors.Is(err, orgs.ErrMemberNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Member not found"})
	case errors.Is(err, orgs.ErrInvalidRole):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid role"})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}
}

func toOrgResponse(org *models.Organization) dto.OrgResponse {
	return dto.OrgResponse{
		ID:        org.ID.String(),
		Name:      org.Name,
		CreatedAt: org.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: org.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid id"})
		return uuid.Nil, false
	}
	return id, true
}
