package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/caregiver-faces/internal/extractor"
	"github.com/kozaktomas/caregiver-faces/internal/facematch"
	"github.com/kozaktomas/caregiver-faces/internal/recognition"
	"github.com/kozaktomas/caregiver-faces/internal/roles"
)

// Upload limits for face images.
const (
	maxUploadBytes   = 20 << 20
	maxMemoryBytes   = 10 << 20
	imageFormField   = "image"
	errInternal      = "internal error"
	errMissingImage  = "image file is required"
	errInvalidUpload = "invalid multipart form"
)

// FaceService is the application API the handlers expose over HTTP.
type FaceService interface {
	RegisterFace(ctx context.Context, name string, image []byte) error
	RegisterCaregiver(ctx context.Context, name string, image []byte) error
	RegisterPatient(ctx context.Context, name string, image []byte) error
	Recognize(ctx context.Context, image []byte) (recognition.Outcome, error)
	DeleteFace(ctx context.Context, name string) (bool, error)
	DeleteAll(ctx context.Context) (deleted, total int, err error)
	RemoveRole(ctx context.Context, name string) (bool, error)
	Roles(name string) []roles.Role
	ListNames() []string
	Search(query string) []string
	Count() int
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, extractor.ErrExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, facematch.ErrDimensionMismatch),
		errors.Is(err, facematch.ErrInvalidName),
		errors.Is(err, facematch.ErrReservedName):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError logs server side failures and hides their details.
func respondServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), op+" failed", "error", err, "path", sanitizeForLog(r.URL.Path))
		respondError(w, status, errInternal)
		return
	}
	respondError(w, status, err.Error())
}

// readImage parses a multipart form and returns the bytes of its image field.
func readImage(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
		return nil, errors.New(errInvalidUpload)
	}

	file, _, err := r.FormFile(imageFormField)
	if err != nil {
		return nil, errors.New(errMissingImage)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New(errMissingImage)
	}
	return data, nil
}

// nameParam returns the {name} URL parameter. chi routes on RawPath when the
// request has one, and only then is the parameter still escaped.
func nameParam(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return raw
	}
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
