package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arlo/crewdeck/internal/api/dto"
	"github.com/arlo/crewdeck/internal/api/middleware"
	"github.com/arlo/crewdeck/internal/database/models"
	"github.com/arlo/crewdeck/internal/projects"
)

type ProjectHandler struct {
	projectService *projects.Service
}

func NewProjectHandler(projectService *projects.Service) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

func (h *ProjectHandler) ListForOrg(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orgID, ok := parseUUIDParam(w, r, "orgID")
	if !ok {
		return
	}

	list, err := h.projectService.ForOrg(r.Context(), userID, orgID)
	if err != nil {
		writeProjectError(w, err)
		return
	}

	resp := make([]dto.ProjectResponse, len(list))
	for i, p := range list {
		resp[i] = toProjectResponse(&p)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orgID, ok := parseUUIDParam(w, r, "orgID")
	if !ok {
		return
	}

	var req dto.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	project, err := h.projectService.Create(r.Context(), userID, orgID, projects.CreateInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeProjectError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProjectResponse(project))
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	projectID, ok := parseUUIDParam(w, r, "projectID")
	if !ok {
		return
	}

	project, err := h.projectService.Get(r.Context(), userID, projectID)
	if err != nil {
		writeProjectError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(project))
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	projectID, ok := parseUUIDParam(w, r, "projectID")
	if !ok {
		return
	}

	var req dto.UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	project, err := h.projectService.Update(r.Context(), userID, projectID, projects.Updates{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeProjectError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(project))
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	projectID, ok := parseUUIDParam(w, r, "projectID")
	if !ok {
		return
	}

	if err := h.projectService.Delete(r.Context(), userID, projectID); err != nil {
		writeProjectError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Project deleted"})
}

func (h *ProjectHandler) Members(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	projectID, ok := parseUUIDParam(w, r, "projectID")
	if !ok {
		return
	}

	members, err := h.projectService.Members(r.Context(), userID, projectID)
	if err != nil {
		writeProjectError(w, err)
		return
	}

	resp := make([]dto.ProjectMemberResponse, len(members))
	for i, m := range members {
		resp[i] = dto.ProjectMemberResponse{
			UserID: m.UserID.String(),
			Role:   string(m.Role),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ProjectHandler) UpsertMember(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	projectID, ok := parseUUIDParam(w, r, "projectID")
	if !ok {
		return
	}
	memberID, ok := parseUUIDParam(w, r, "memberID")
	if !ok {
		return
	}

	var req dto.UpsertProjectMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	err := h.projectService.UpsertMember(r.Context(), userID, projectID, memberID, models.ProjectRole(req.Role))
	if err != nil {
		writeProjectError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Project member updated"})
}

func (h *ProjectHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	projectID, ok := parseUUIDParam(w, r, "projectID")
	if !ok {
		return
	}
	memberID, ok := parseUUIDParam(w, r, "memberID")
	if !ok {
		return
	}

	if err := h.projectService.RemoveMember(r.Context(), userID, projectID, memberID); err != nil {
		writeProjectError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Project member removed"})
}

func writeProjectError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, projects.ErrNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Project not found"})
	case errors.Is(err, projects.ErrMemberNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Project member not found"})
	case errors.Is(err, projects.ErrInvalidRole):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid role"})
	default:
		writeOrgError(w, err)
	}
}

func toProjectResponse(p *models.Project) dto.ProjectResponse {
	return dto.ProjectResponse{
		ID:             p.ID.String(),
		OrganizationID: p.OrganizationID.String(),
		Name:           p.Name,
		Description:    p.Description,
		CreatedAt:      p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:      p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
