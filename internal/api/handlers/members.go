package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arlo/crewdeck/internal/api/dto"
	"github.com/arlo/crewdeck/internal/api/middleware"
	"github.com/arlo/crewdeck/internal/database/models"
	"github.com/arlo/crewdeck/internal/invites"
	"github.com/arlo/crewdeck/internal/orgs"
)

type MemberHandler struct {
	orgService    *orgs.Service
	inviteService *invites.Service
}

func NewMemberHandler(orgService *orgs.Service, inviteService *invites.Service) *MemberHandler {
	return &MemberHandler{orgService: orgService, inviteService: inviteService}
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orgID, ok := parseUUIDParam(w, r, "orgID")
	if !ok {
		return
	}

	members, err := h.orgService.Members(r.Context(), userID, orgID)
	if err != nil {
		writeOrgError(w, err)
		return
	}

	resp := make([]dto.MemberResponse, len(members))
	for i, m := range members {
		resp[i] = dto.MemberResponse{
			UserID: m.UserID.String(),
			Role:   string(m.Role),
			Status: string(m.Status),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orgID, ok := parseUUIDParam(w, r, "orgID")
	if !ok {
		return
	}
	memberID, ok := parseUUIDParam(w, r, "memberID")
	if !ok {
		return
	}

	user, err := h.orgService.Member(r.Context(), userID, orgID, memberID)
	if err != nil {
		writeOrgError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// ByEmail resolves a member of the organization from an email address. It is
// a POST so the address stays out of URLs and access logs.
func (h *MemberHandler) ByEmail(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orgID, ok := parseUUIDParam(w, r, "orgID")
	if !ok {
		return
	}

	var req dto.MemberByEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	user, err := h.orgService.MemberByEmail(r.Context(), userID, orgID, req.Email)
	if err != nil {
		writeOrgError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserDTO(user))
}

func (h *MemberHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orgID, ok := parseUUIDParam(w, r, "orgID")
	if !ok {
		return
	}
	memberID, ok := parseUUIDParam(w, r, "memberID")
	if !ok {
		return
	}

	var req dto.UpsertMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	err := h.orgService.UpsertMember(r.Context(), userID, orgID, memberID, models.Role(req.Role))
	if err != nil {
		writeOrgError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Member updated"})
}

func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orgID, ok := parseUUIDParam(w, r, "orgID")
	if !ok {
		return
	}
	memberID, ok := parseUUIDParam(w, r, "memberID")
	if !ok {
		return
	}

	if err := h.orgService.RemoveMember(r.Context(), userID, orgID, memberID); err != nil {
		writeOrgError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Member removed"})
}

func (h *MemberHandler) Invite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orgID, ok := parseUUIDParam(w, r, "orgID")
	if !ok {
		return
	}

	var req dto.InviteMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	result, err := h.inviteService.Invite(r.Context(), userID, orgID, req.Email, models.Role(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, invites.ErrInvalidRole):
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid role"})
		default:
			writeOrgError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, dto.InviteResponse{
		InviteID:       result.Invite.ID.String(),
		OrganizationID: result.Invite.OrganizationID.String(),
		Email:          result.Invite.Email,
		Role:           string(result.Invite.Role),
		State:          string(result.Invite.State),
		IsNewUser:      result.Invite.IsNewUser,
		MailTaskID:     result.TaskID,
	})
}

func (h *MemberHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orgID, ok := parseUUIDParam(w, r, "orgID")
	if !ok {
		return
	}

	if err := h.inviteService.Accept(r.Context(), userID, orgID); err != nil {
		switch {
		case errors.Is(err, invites.ErrNotInvited):
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "No invitation for this organization"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to accept invitation"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Invitation accepted"})
}
