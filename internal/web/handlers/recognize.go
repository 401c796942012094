package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kozaktomas/caregiver-faces/internal/roles"
)

// RecognizeHandler handles recognition requests.
type RecognizeHandler struct {
	service FaceService
}

// NewRecognizeHandler creates a new recognize handler.
func NewRecognizeHandler(service FaceService) *RecognizeHandler {
	return &RecognizeHandler{service: service}
}

// RecognizeResponse is the JSON form of a recognition outcome.
type RecognizeResponse struct {
	AttemptID         string     `json:"attempt_id"`
	Name              string     `json:"name"`
	Recognized        bool       `json:"recognized"`
	Confidence        float64    `json:"confidence"`
	ConfidencePercent string     `json:"confidence_percent"`
	Tier              string     `json:"tier"`
	Role              roles.Role `json:"role"`
	Label             string     `json:"label"`
	Authorized        bool       `json:"authorized"`
	EmptyRegistry     bool       `json:"empty_registry"`
}

// Recognize identifies the face in the uploaded "image" field.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	image, err := readImage(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.service.Recognize(r.Context(), image)
	if err != nil {
		respondServiceError(w, r, "recognize", err)
		return
	}

	respondJSON(w, http.StatusOK, RecognizeResponse{
		AttemptID:         uuid.NewString(),
		Name:              outcome.Name,
		Recognized:        outcome.Recognized,
		Confidence:        outcome.Confidence,
		ConfidencePercent: outcome.ConfidencePercent(),
		Tier:              outcome.Tier,
		Role:              outcome.Role,
		Label:             outcome.Role.Label(),
		Authorized:        outcome.Authorized(),
		EmptyRegistry:     outcome.EmptyRegistry,
	})
}
