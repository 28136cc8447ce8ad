// Package relay mediates between the client upload and the external vision
// service: validate, extract, return.
package relay

import (
	"context"
	"time"

	"github.com/gridsnap/gridsnap/internal/domain"
	"github.com/gridsnap/gridsnap/internal/imaging"
	"github.com/gridsnap/gridsnap/internal/observability"
)

// Extractor is the seam to the external vision service. Tests substitute a
// deterministic fake.
type Extractor interface {
	ExtractTable(ctx context.Context, image []byte, contentType string) (*domain.Table, error)
}

// Service implements the upload/extraction relay.
type Service struct {
	validator *imaging.Validator
	extractor Extractor
	logger    *observability.Logger
}

// NewService creates a relay service.
func NewService(validator *imaging.Validator, extractor Extractor, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.Nop()
	}

	return &Service{
		validator: validator,
		extractor: extractor,
		logger:    logger.WithComponent("relay"),
	}
}

// Process validates the upload and relays it to the vision service. Exactly
// one outbound call per invocation; validation failures make none. The
// returned table is always rectangular.
func (s *Service) Process(ctx context.Context, image []byte, contentType string) (*domain.Table, error) {
	if err := s.validator.ValidateUpload(image, contentType); err != nil {
		return nil, err
	}

	start := time.Now()
	table, err := s.extractor.ExtractTable(ctx, image, contentType)
	if err != nil {
		return nil, err
	}

	table.Normalize()

	s.logger.Info().
		Dur("elapsed", time.Since(start)).
		Int("headers", len(table.Headers)).
		Int("rows", len(table.Rows)).
		Msg("Table extracted")

	return table, nil
}

// MaxUploadBytes exposes the validator's size bound for transport limits.
func (s *Service) MaxUploadBytes() int64 {
	return s.validator.MaxBytes()
}
