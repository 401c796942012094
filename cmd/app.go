package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kozaktomas/caregiver-faces/internal/config"
	"github.com/kozaktomas/caregiver-faces/internal/database"
	"github.com/kozaktomas/caregiver-faces/internal/events"
	"github.com/kozaktomas/caregiver-faces/internal/extractor"
	"github.com/kozaktomas/caregiver-faces/internal/facematch"
	"github.com/kozaktomas/caregiver-faces/internal/recognition"
	"github.com/kozaktomas/caregiver-faces/internal/registry"
	"github.com/kozaktomas/caregiver-faces/internal/roles"

	// Store backends register themselves with the database package.
	_ "github.com/kozaktomas/caregiver-faces/internal/database/file"
	_ "github.com/kozaktomas/caregiver-faces/internal/database/postgres"
	_ "github.com/kozaktomas/caregiver-faces/internal/database/redis"
)

// app holds the components shared by every command.
type app struct {
	cfg        *config.Config
	store      database.Store
	registry   *registry.Registry
	classifier *roles.Classifier
	session    *recognition.Session
	service    *recognition.Service
	publisher  events.Publisher
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// openApp loads the configuration and wires the recognition stack.
// withEvents enables the NATS publisher when NATS_URL is set.
func openApp(ctx context.Context, withEvents bool) (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger := slog.Default()

	store, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, store: store, publisher: events.Nop{}}

	a.registry, err = registry.Open(ctx, store, cfg.Recognition.Dim, logger.With("component", "registry"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open registry: %w", err)
	}
	a.classifier, err = roles.Open(ctx, store, a.registry, logger.With("component", "roles"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open role sets: %w", err)
	}

	a.session = recognition.NewSession(a.registry, a.classifier, facematch.NewMatcher(cfg.Recognition.Threshold))
	a.session.SetTiers(facematch.Tiers{
		High:   cfg.Recognition.HighConfidence,
		Medium: cfg.Recognition.Threshold,
		Low:    cfg.Recognition.LowConfidence,
	})
	if cfg.Recognition.Matcher == "hnsw" {
		a.session.EnableIndex(cfg.Recognition.IndexCandidates)
	}

	if withEvents && cfg.Events.NATSURL != "" {
		publisher, err := events.Connect(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			// Events are optional; recognition keeps working without them.
			logger.Warn("events disabled", "error", err)
		} else {
			a.publisher = publisher
		}
	}

	client := extractor.NewClient(
		cfg.Extractor.URL, cfg.Recognition.Dim, cfg.Extractor.Timeout(),
		extractor.WithInput(cfg.Extractor.InputSize, cfg.Extractor.JPEGQuality),
	)
	a.service = recognition.NewService(client, a.registry, a.classifier, a.session,
		recognition.WithPublisher(a.publisher),
		recognition.WithLogger(logger.With("component", "service")),
	)

	logger.Debug("recognition stack ready",
		"backend", cfg.Store.Backend,
		"namespace", cfg.Store.Namespace,
		"faces", a.registry.Count(),
		"matcher", cfg.Recognition.Matcher,
	)
	return a, nil
}

// Close releases the publisher and the store.
func (a *app) Close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}
