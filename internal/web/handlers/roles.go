package handlers

import (
	"net/http"
	"strings"

	"github.com/kozaktomas/caregiver-faces/internal/roles"
)

// RolesHandler handles role set membership endpoints.
type RolesHandler struct {
	service FaceService
}

// NewRolesHandler creates a new roles handler.
func NewRolesHandler(service FaceService) *RolesHandler {
	return &RolesHandler{service: service}
}

// RolesResponse describes the role sets a name belongs to.
type RolesResponse struct {
	Name  string       `json:"name"`
	Roles []roles.Role `json:"roles"`
}

// Get lists the role sets a name belongs to.
func (h *RolesHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	memberships := h.service.Roles(name)
	if memberships == nil {
		memberships = []roles.Role{}
	}
	respondJSON(w, http.StatusOK, RolesResponse{Name: name, Roles: memberships})
}

// Remove drops a name from the caregiver and patient sets.
func (h *RolesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	if strings.TrimSpace(name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	removed, err := h.service.RemoveRole(r.Context(), name)
	if err != nil {
		respondServiceError(w, r, "remove role", err)
		return
	}
	if !removed {
		respondError(w, http.StatusNotFound, "name has no role")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"removed": true, "name": name})
}
