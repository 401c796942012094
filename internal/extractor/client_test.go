package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/caregiver-faces/internal/facematch"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func embeddingOf(dim int, value float32) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = value
	}
	return v
}

func TestPrepare_ResizesToSquareJPEG(t *testing.T) {
	out, err := Prepare(testPNG(t, 200, 150), 112, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 112 || b.Dy() != 112 {
		t.Errorf("expected 112x112, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestPrepare_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("definitely not an image")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Prepare(tt.data, 112, 90)
			if !errors.Is(err, ErrExtraction) {
				t.Errorf("expected ErrExtraction, got %v", err)
			}
		})
	}
}

func TestClient_Extract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/face" {
			t.Errorf("expected /embed/face, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
			http.Error(w, "no file", http.StatusBadRequest)
			return
		}
		defer file.Close()
		if ct := header.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("expected image/jpeg part, got %q", ct)
		}
		data, _ := io.ReadAll(file)
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			t.Errorf("uploaded file is not a JPEG: %v", err)
		} else if cfg.Width != 64 || cfg.Height != 64 {
			t.Errorf("expected 64x64 upload, got %dx%d", cfg.Width, cfg.Height)
		}

		json.NewEncoder(w).Encode(faceResponse{
			FacesCount: 2,
			Faces: []faceDetection{
				{FaceIndex: 0, Dim: 4, Embedding: embeddingOf(4, 0.1), DetScore: 0.6},
				{FaceIndex: 1, Dim: 4, Embedding: embeddingOf(4, 0.9), DetScore: 0.95},
			},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", 4, 5*time.Second, WithInput(64, 80))
	got, err := c.Extract(context.Background(), testPNG(t, 80, 80))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !facematch.Equal(got, embeddingOf(4, 0.9)) {
		t.Errorf("expected the most confident face, got %v", got)
	}
}

func TestClient_ExtractFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantDim bool
	}{
		{"server error", http.StatusInternalServerError, "model crashed", false},
		{"malformed json", http.StatusOK, "{", false},
		{"no faces", http.StatusOK, `{"faces_count":0,"faces":[]}`, false},
		{"empty embedding", http.StatusOK, `{"faces_count":1,"faces":[{"embedding":[]}]}`, false},
		{"wrong dimension", http.StatusOK, `{"faces_count":1,"faces":[{"embedding":[1,2]}]}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			c := NewClient(server.URL, 4, time.Second)
			_, err := c.Extract(context.Background(), testPNG(t, 20, 20))
			if !errors.Is(err, ErrExtraction) {
				t.Fatalf("expected ErrExtraction, got %v", err)
			}
			if tt.wantDim && !errors.Is(err, facematch.ErrDimensionMismatch) {
				t.Errorf("expected ErrDimensionMismatch, got %v", err)
			}
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := NewClient(url, 4, time.Second)
	_, err := c.Extract(context.Background(), testPNG(t, 10, 10))
	if !errors.Is(err, ErrExtraction) {
		t.Errorf("expected ErrExtraction, got %v", err)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("", 0, 0)
	if c.baseURL != defaultURL {
		t.Errorf("expected default URL, got %q", c.baseURL)
	}
	if c.inputSize != DefaultInputSize || c.quality != DefaultJPEGQuality {
		t.Errorf("unexpected input defaults %d/%d", c.inputSize, c.quality)
	}
}
