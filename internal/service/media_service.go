package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/park-academy/park-api/internal/dto"
	"github.com/park-academy/park-api/internal/observability"
)

// ErrMediaDestroyFailed reports that the CDN rejected or failed the destroy
// call, as opposed to a bad request from the client.
var ErrMediaDestroyFailed = errors.New("media destroy failed")

// MediaService relays asset deletions to the CDN on behalf of clients that
// hold no credentials of their own.
type MediaService interface {
	Delete(ctx context.Context, userID string, payload dto.MediaDeleteRequest) (dto.MediaDeleteResponse, error)
}

type mediaService struct {
	storage   MediaStorage
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewMediaService constructs the media relay service.
func NewMediaService(storage MediaStorage, validate *validator.Validate, logger zerolog.Logger) MediaService {
	return &mediaService{
		storage:   storage,
		validator: validate,
		logger:    logger.With().Str("component", "media_service").Logger(),
		tracer:    otel.Tracer("github.com/park-academy/park-api/internal/service/media"),
	}
}

// Delete destroys the asset. An already-absent asset is a success: the caller
// only cares that the asset is gone afterwards.
func (s *mediaService) Delete(ctx context.Context, userID string, payload dto.MediaDeleteRequest) (dto.MediaDeleteResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MediaDeleteResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "media.delete", trace.WithAttributes(
		attribute.String("media.public_id", payload.PublicID),
		attribute.String("media.resource_type", payload.ResourceType),
	))
	defer span.End()

	outcome, err := s.storage.Destroy(spanCtx, payload.PublicID, payload.ResourceType)
	if err != nil {
		observability.MediaDestroy().WithLabelValues("error").Inc()
		span.RecordError(err)
		s.logger.Error().Err(err).
			Str("user_id", userID).
			Str("public_id", payload.PublicID).
			Msg("media destroy failed")
		return dto.MediaDeleteResponse{}, fmt.Errorf("%w: %v", ErrMediaDestroyFailed, err)
	}

	observability.MediaDestroy().WithLabelValues(outcome).Inc()
	s.logger.Info().
		Str("user_id", userID).
		Str("public_id", payload.PublicID).
		Str("result", outcome).
		Msg("media destroyed")

	return dto.MediaDeleteResponse{Result: "ok"}, nil
}
