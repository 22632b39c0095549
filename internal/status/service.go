package status

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/statusrelay/statusrelay/internal/metrics"
	"github.com/statusrelay/statusrelay/internal/service"
)

// Provider fetches the components document for one catalogue entry.
type Provider interface {
	// GetComponents issues a single request for svc and parses the result.
	// Failures are returned as *RequestError or *ParseError.
	GetComponents(ctx context.Context, svc service.Descriptor) (*Document, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the status service.
type ServiceConfig struct {
	// Registry resolves service keys. Required.
	Registry *service.Registry

	// Provider performs the outbound call. Required.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records lookup counters (optional).
	Metrics *metrics.Metrics
}

// unknownServiceLabel is the metrics label for keys missing from the catalogue.
const unknownServiceLabel = "unknown"

// Service resolves service keys and fetches their status documents.
// Every call goes to the provider; nothing is cached.
type Service struct {
	registry *service.Registry
	provider Provider
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// NewService creates a new status service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		registry: cfg.Registry,
		provider: cfg.Provider,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// FetchStatus resolves key and fetches its current status document.
// An unknown key fails with *UnknownServiceError before any network call.
func (s *Service) FetchStatus(ctx context.Context, key string) (*Document, error) {
	svc, err := s.registry.Lookup(key)
	if err != nil {
		unknown := &UnknownServiceError{Name: key}
		// Caller-supplied keys never become label values.
		s.metrics.ObserveLookup(unknownServiceLabel, Outcome(unknown), 0)
		return nil, unknown
	}

	start := time.Now()
	doc, err := s.provider.GetComponents(ctx, svc)
	elapsed := time.Since(start)
	s.metrics.ObserveLookup(key, Outcome(err), elapsed)

	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("service", key).
		Str("provider", s.provider.Name()).
		Int("components", len(doc.Components)).
		Dur("duration", elapsed).
		Msg("status fetched")

	return doc, nil
}

// GetTable fetches key and normalizes the result with ToTable.
func (s *Service) GetTable(ctx context.Context, key string) (*Table, error) {
	doc, err := s.FetchStatus(ctx, key)
	if err != nil {
		return nil, err
	}
	return ToTable(doc), nil
}
