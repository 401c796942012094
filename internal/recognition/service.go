package recognition

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kozaktomas/caregiver-faces/internal/events"
	"github.com/kozaktomas/caregiver-faces/internal/facematch"
	"github.com/kozaktomas/caregiver-faces/internal/metrics"
	"github.com/kozaktomas/caregiver-faces/internal/registry"
	"github.com/kozaktomas/caregiver-faces/internal/roles"
)

// Extractor turns an already cropped face image into an embedding.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (facematch.Vector, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, image []byte) (facematch.Vector, error)

func (f ExtractorFunc) Extract(ctx context.Context, image []byte) (facematch.Vector, error) {
	return f(ctx, image)
}

// Service exposes the public face operations.
type Service struct {
	extractor  Extractor
	registry   *registry.Registry
	classifier *roles.Classifier
	session    *Session
	publisher  events.Publisher
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sends registry and recognition events to p.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService wires the components together.
func NewService(extractor Extractor, reg *registry.Registry, classifier *roles.Classifier, session *Session, opts ...Option) *Service {
	s := &Service{
		extractor:  extractor,
		registry:   reg,
		classifier: classifier,
		session:    session,
		publisher:  events.Nop{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.RegisteredFaces.Set(float64(reg.Count()))
	return s
}

func (s *Service) extract(ctx context.Context, image []byte) (facematch.Vector, error) {
	start := time.Now()
	embedding, err := s.extractor.Extract(ctx, image)
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExtractionErrorsTotal.Inc()
		return nil, err
	}
	return embedding, nil
}

// RegisterFace extracts an embedding and stores it under name.
func (s *Service) RegisterFace(ctx context.Context, name string, image []byte) error {
	return s.register(ctx, roles.Family, name, image, s.registry.Register)
}

// RegisterCaregiver registers the face and marks the person as a caregiver.
func (s *Service) RegisterCaregiver(ctx context.Context, name string, image []byte) error {
	return s.register(ctx, roles.Caregiver, name, image, s.classifier.AddCaregiver)
}

// RegisterPatient registers the face and marks the person as a patient.
func (s *Service) RegisterPatient(ctx context.Context, name string, image []byte) error {
	return s.register(ctx, roles.Patient, name, image, s.classifier.AddPatient)
}

func (s *Service) register(
	ctx context.Context, role roles.Role, name string, image []byte,
	store func(context.Context, string, facematch.Vector) error,
) error {
	normalized, err := facematch.NormalizeName(name)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(role.String(), "rejected").Inc()
		return err
	}

	embedding, err := s.extract(ctx, image)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(role.String(), "extraction_failed").Inc()
		s.logger.Warn("registration failed", "name", normalized, "error", err)
		return err
	}

	if err := store(ctx, normalized, embedding); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(role.String(), "failed").Inc()
		s.logger.Error("registration failed", "name", normalized, "role", role, "error", err)
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues(role.String(), "ok").Inc()
	metrics.RegisteredFaces.Set(float64(s.registry.Count()))
	s.logger.Info("face registered", "name", normalized, "role", role)

	ev := events.New(events.TypeRegistered)
	ev.Name = normalized
	ev.Role = role.String()
	s.publish(ctx, ev)
	return nil
}

// Recognize extracts an embedding from image and identifies the person.
func (s *Service) Recognize(ctx context.Context, image []byte) (Outcome, error) {
	embedding, err := s.extract(ctx, image)
	if err != nil {
		return Outcome{}, err
	}
	return s.RecognizeEmbedding(ctx, embedding), nil
}

// RecognizeEmbedding identifies the person behind an embedding computed elsewhere.
func (s *Service) RecognizeEmbedding(ctx context.Context, embedding facematch.Vector) Outcome {
	outcome := s.session.Recognize(embedding)

	result := "unknown"
	switch {
	case outcome.Recognized:
		result = "recognized"
	case outcome.EmptyRegistry:
		result = "empty"
	}
	metrics.RecognitionsTotal.WithLabelValues(result, outcome.Role.String()).Inc()
	metrics.RecognitionSimilarity.Observe(outcome.Similarity)

	s.logger.Debug("recognition attempt",
		"name", outcome.Name,
		"recognized", outcome.Recognized,
		"confidence", outcome.Confidence,
		"role", outcome.Role)

	ev := events.New(events.TypeRecognized)
	ev.Name = outcome.Name
	ev.Role = outcome.Role.String()
	ev.Recognized = outcome.Recognized
	ev.Confidence = outcome.Confidence
	s.publish(ctx, ev)
	return outcome
}

// DeleteFace removes a registered face. Role memberships are kept; use
// RemoveRole to drop them.
func (s *Service) DeleteFace(ctx context.Context, name string) (bool, error) {
	deleted, err := s.registry.Delete(ctx, name)
	if err != nil || !deleted {
		return deleted, err
	}

	metrics.RegisteredFaces.Set(float64(s.registry.Count()))
	s.logger.Info("face deleted", "name", name)

	ev := events.New(events.TypeDeleted)
	ev.Name = name
	ev.Count = 1
	s.publish(ctx, ev)
	return true, nil
}

// DeleteAll removes every registered face and reports how many were deleted
// out of how many were registered.
func (s *Service) DeleteAll(ctx context.Context) (deleted, total int, err error) {
	total = s.registry.Count()
	deleted, err = s.registry.DeleteAll(ctx)
	if err != nil {
		return 0, total, err
	}

	metrics.RegisteredFaces.Set(float64(s.registry.Count()))
	if deleted > 0 {
		ev := events.New(events.TypeDeleted)
		ev.Count = deleted
		s.publish(ctx, ev)
	}
	return deleted, total, nil
}

// RemoveRole drops name from the caregiver and patient sets.
func (s *Service) RemoveRole(ctx context.Context, name string) (bool, error) {
	removed, err := s.classifier.RemoveRole(ctx, name)
	if err != nil {
		return removed, err
	}
	if removed {
		ev := events.New(events.TypeRoleRemove)
		ev.Name = name
		s.publish(ctx, ev)
	}
	return removed, nil
}

// Roles returns the role sets name belongs to.
func (s *Service) Roles(name string) []roles.Role {
	if normalized, err := facematch.NormalizeName(name); err == nil {
		name = normalized
	}
	return s.classifier.RolesOf(name)
}

// ListNames returns every registered name in ascending order.
func (s *Service) ListNames() []string {
	return s.registry.Names()
}

// Search returns the registered names matching query, ignoring case and diacritics.
func (s *Service) Search(query string) []string {
	return facematch.FilterNames(s.registry.Names(), query)
}

// Count returns the number of registered faces.
func (s *Service) Count() int {
	return s.registry.Count()
}

// Caregivers returns the caregiver names.
func (s *Service) Caregivers() []string {
	return s.classifier.Caregivers()
}

// Patients returns the patient names.
func (s *Service) Patients() []string {
	return s.classifier.Patients()
}

// publish never fails the operation that produced the event.
func (s *Service) publish(ctx context.Context, ev events.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("failed to publish event", "type", ev.Type, "error", err)
	}
}
