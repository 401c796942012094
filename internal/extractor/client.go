// Package extractor turns a cropped face image into an embedding by calling
// the face embedding server.
package extractor

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"slices"
	"strings"
	"time"

	"github.com/kozaktomas/caregiver-faces/internal/facematch"
)

// ErrExtraction wraps every failure to produce an embedding.
var ErrExtraction = errors.New("embedding extraction failed")

const defaultURL = "http://localhost:8000"

// maxResponseBytes bounds how much of a server response is read.
const maxResponseBytes = 4 << 20

// Client computes face embeddings using the embedding server.
type Client struct {
	baseURL   string
	client    *http.Client
	dim       int
	inputSize int
	quality   int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithInput sets the side of the square image sent to the server and its JPEG quality.
func WithInput(size, quality int) Option {
	return func(c *Client) {
		c.inputSize = size
		c.quality = quality
	}
}

// NewClient creates a client that expects embeddings of length dim.
// A non-positive dim disables the length check.
func NewClient(baseURL string, dim int, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = defaultURL
	}
	c := &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		client:    &http.Client{Timeout: timeout},
		dim:       dim,
		inputSize: DefaultInputSize,
		quality:   DefaultJPEGQuality,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// faceDetection represents a single face found by the server.
type faceDetection struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	DetScore  float64   `json:"det_score"`
}

// faceResponse represents the response from the face embedding endpoint.
type faceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []faceDetection `json:"faces"`
	Model      string          `json:"model"`
}

// Extract prepares the image and returns the embedding of the most confident
// face the server detected. Every error wraps ErrExtraction.
func (c *Client) Extract(ctx context.Context, image []byte) (facematch.Vector, error) {
	prepared, err := Prepare(image, c.inputSize, c.quality)
	if err != nil {
		return nil, err
	}

	body, err := c.postImage(ctx, "/embed/face", prepared)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	var resp faceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %w", ErrExtraction, err)
	}
	if len(resp.Faces) == 0 {
		return nil, fmt.Errorf("%w: no face detected", ErrExtraction)
	}

	best := slices.MaxFunc(resp.Faces, func(a, b faceDetection) int {
		return cmp.Compare(a.DetScore, b.DetScore)
	})
	embedding := facematch.Vector(best.Embedding)
	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding returned", ErrExtraction)
	}
	if c.dim > 0 {
		if err := facematch.CheckDim(embedding, c.dim); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
		}
	}
	return embedding, nil
}

// postImage posts the JPEG as the "file" field of a multipart form.
func (c *Client) postImage(ctx context.Context, endpoint string, jpegData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="face.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(jpegData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
