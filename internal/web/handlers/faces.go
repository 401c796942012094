package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FacesHandler handles the face registry endpoints.
type FacesHandler struct {
	service  FaceService
	validate *validator.Validate
}

// NewFacesHandler creates a new faces handler.
func NewFacesHandler(service FaceService) *FacesHandler {
	return &FacesHandler{service: service, validate: validator.New()}
}

// RegisterRequest is the non-file part of a registration form.
type RegisterRequest struct {
	Name string `validate:"required,max=128"`
}

// FacesListResponse lists registered names.
type FacesListResponse struct {
	Names []string `json:"names"`
	Count int      `json:"count"`
	Total int      `json:"total"`
}

// List returns the registered names, optionally filtered by ?q=.
func (h *FacesHandler) List(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	var names []string
	if query != "" {
		names = h.service.Search(query)
	} else {
		names = h.service.ListNames()
	}
	if names == nil {
		names = []string{}
	}

	respondJSON(w, http.StatusOK, FacesListResponse{
		Names: names,
		Count: len(names),
		Total: h.service.Count(),
	})
}

// parseRegistration reads and validates the name and image fields.
func (h *FacesHandler) parseRegistration(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	image, err := readImage(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return "", nil, false
	}

	req := RegisterRequest{Name: strings.TrimSpace(r.FormValue("name"))}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "name is required and must be at most 128 characters")
		return "", nil, false
	}
	return req.Name, image, true
}

// Register stores a face from a multipart form with "name" and "image".
func (h *FacesHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, "family", h.service.RegisterFace)
}

// RegisterCaregiver stores a face and marks the person as a caregiver.
func (h *FacesHandler) RegisterCaregiver(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, "caregiver", h.service.RegisterCaregiver)
}

// RegisterPatient stores a face and marks the person as a patient.
func (h *FacesHandler) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, "patient", h.service.RegisterPatient)
}

func (h *FacesHandler) register(
	w http.ResponseWriter, r *http.Request, kind string,
	fn func(ctx context.Context, name string, image []byte) error,
) {
	name, image, ok := h.parseRegistration(w, r)
	if !ok {
		return
	}

	if err := fn(r.Context(), name, image); err != nil {
		respondServiceError(w, r, "register "+kind, err)
		return
	}

	slog.InfoContext(r.Context(), "face registered via API", "name", sanitizeForLog(name), "kind", kind)
	respondJSON(w, http.StatusCreated, map[string]any{
		"registered": true,
		"name":       name,
		"kind":       kind,
		"count":      h.service.Count(),
	})
}

// Delete removes a single registered face.
func (h *FacesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	if strings.TrimSpace(name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	deleted, err := h.service.DeleteFace(r.Context(), name)
	if err != nil {
		respondServiceError(w, r, "delete face", err)
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "face not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": true, "name": name})
}

// DeleteAll removes every registered face.
func (h *FacesHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	deleted, total, err := h.service.DeleteAll(r.Context())
	if err != nil {
		respondServiceError(w, r, "delete all faces", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"deleted": deleted, "total": total})
}
