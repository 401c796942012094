package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/caregiver-faces/internal/database/mock"
	"github.com/kozaktomas/caregiver-faces/internal/extractor"
	"github.com/kozaktomas/caregiver-faces/internal/facematch"
	"github.com/kozaktomas/caregiver-faces/internal/recognition"
	"github.com/kozaktomas/caregiver-faces/internal/registry"
	"github.com/kozaktomas/caregiver-faces/internal/roles"
)

// testImages maps fake uploads to the embedding the test extractor returns.
var testImages = map[string]facematch.Vector{
	"alice": {1, 0, 0},
	"bob":   {0, 1, 0},
	"carol": {0, 0, 1},
}

// newTestService builds a service over an in-memory store.
func newTestService(t *testing.T) (*recognition.Service, *mock.MockStore) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := mock.NewMockStore()

	reg, err := registry.Open(ctx, store, 3, logger)
	if err != nil {
		t.Fatalf("failed to open registry: %v", err)
	}
	cls, err := roles.Open(ctx, store, reg, logger)
	if err != nil {
		t.Fatalf("failed to open classifier: %v", err)
	}

	extract := recognition.ExtractorFunc(func(ctx context.Context, image []byte) (facematch.Vector, error) {
		if v, ok := testImages[string(image)]; ok {
			return v.Clone(), nil
		}
		return nil, errors.Join(extractor.ErrExtraction, errors.New("no face detected"))
	})
	session := recognition.NewSession(reg, cls, facematch.NewMatcher(facematch.DefaultThreshold))
	return recognition.NewService(extract, reg, cls, session, recognition.WithLogger(logger)), store
}

// multipartRequest creates a request with optional name and image fields.
func multipartRequest(t *testing.T, method, path, name string, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if name != "" {
		if err := w.WriteField("name", name); err != nil {
			t.Fatalf("failed to write name field: %v", err)
		}
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "face.jpg")
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		part.Write(image)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// assertStatusCode checks the response status
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks the error message of a JSON error response
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal error response: %v", err)
	}
	if result["error"] != expected {
		t.Errorf("expected error %q, got %q", expected, result["error"])
	}
}

// decodeJSON unmarshals the response body into v
func decodeJSON(t *testing.T, recorder *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
}
