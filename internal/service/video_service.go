package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/park-academy/park-api/internal/dto"
	"github.com/park-academy/park-api/internal/models"
	"github.com/park-academy/park-api/internal/observability"
	"github.com/park-academy/park-api/internal/repository"
)

var (
	// ErrNotUploader indicates a video mutation by somebody other than its uploader.
	ErrNotUploader = errors.New("only the uploader may modify this video")
	// ErrThumbnailTooLarge indicates the thumbnail exceeded the configured limit.
	ErrThumbnailTooLarge = errors.New("thumbnail exceeds maximum allowed size")
	// ErrThumbnailTypeNotAllowed indicates the thumbnail is not an image.
	ErrThumbnailTypeNotAllowed = errors.New("thumbnail must be an image")
)

// MediaStorage abstracts the CDN used for video assets and thumbnails.
type MediaStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (url string, publicID string, err error)
	Destroy(ctx context.Context, publicID, resourceType string) (string, error)
}

// VideoService owns video metadata and thumbnail handling. The media files
// themselves are uploaded client-side; this service registers their metadata
// and guarantees the remote asset is destroyed before metadata is removed.
type VideoService interface {
	Create(ctx context.Context, uploaderID string, payload dto.VideoCreateRequest) (dto.VideoResponse, error)
	Get(ctx context.Context, id uint) (dto.VideoResponse, error)
	List(ctx context.Context, search string, limit, offset int) ([]dto.VideoResponse, int64, error)
	ListByUploader(ctx context.Context, uploaderID string) ([]dto.VideoResponse, error)
	UploadThumbnail(ctx context.Context, id uint, userID string, file *multipart.FileHeader) (dto.VideoResponse, error)
	Delete(ctx context.Context, id uint, userID string, isAdmin bool) error
}

type videoService struct {
	videos    repository.VideoRepository
	storage   MediaStorage
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	maxThumb  int64
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewVideoService constructs a video service.
func NewVideoService(videos repository.VideoRepository, storage MediaStorage, maxThumbMB int, validate *validator.Validate, logger zerolog.Logger) VideoService {
	if maxThumbMB <= 0 {
		maxThumbMB = 5
	}
	return &videoService{
		videos:    videos,
		storage:   storage,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		maxThumb:  int64(maxThumbMB) * 1024 * 1024,
		logger:    logger.With().Str("component", "video_service").Logger(),
		tracer:    otel.Tracer("github.com/park-academy/park-api/internal/service/video"),
	}
}

func (s *videoService) Create(ctx context.Context, uploaderID string, payload dto.VideoCreateRequest) (dto.VideoResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.VideoResponse{}, err
	}

	resourceType := payload.ResourceType
	if resourceType == "" {
		resourceType = "video"
	}

	video := models.Video{
		Title:        strings.TrimSpace(s.sanitizer.Sanitize(payload.Title)),
		Description:  strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		UploaderID:   uploaderID,
		URL:          payload.URL,
		PublicID:     payload.PublicID,
		ResourceType: resourceType,
	}

	if err := s.videos.Create(ctx, &video); err != nil {
		return dto.VideoResponse{}, err
	}

	return dto.NewVideoResponse(video), nil
}

func (s *videoService) Get(ctx context.Context, id uint) (dto.VideoResponse, error) {
	video, err := s.videos.FindByID(ctx, id)
	if err != nil {
		return dto.VideoResponse{}, err
	}
	return dto.NewVideoResponse(video), nil
}

func (s *videoService) List(ctx context.Context, search string, limit, offset int) ([]dto.VideoResponse, int64, error) {
	videos, total, err := s.videos.List(ctx, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return dto.NewVideoResponseSlice(videos), total, nil
}

func (s *videoService) ListByUploader(ctx context.Context, uploaderID string) ([]dto.VideoResponse, error) {
	videos, err := s.videos.ListByUploader(ctx, uploaderID)
	if err != nil {
		return nil, err
	}
	return dto.NewVideoResponseSlice(videos), nil
}

// UploadThumbnail validates the file by content sniffing, relays it to the
// CDN and stores the returned URL on the video.
func (s *videoService) UploadThumbnail(ctx context.Context, id uint, userID string, file *multipart.FileHeader) (dto.VideoResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "videos.upload_thumbnail", trace.WithAttributes(
		attribute.Int64("thumbnail.max_bytes", s.maxThumb),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	video, err := s.videos.FindByID(spanCtx, id)
	if err != nil {
		span.RecordError(err)
		return dto.VideoResponse{}, err
	}

	if video.UploaderID != userID {
		span.SetStatus(codes.Error, "not uploader")
		return dto.VideoResponse{}, ErrNotUploader
	}

	if file == nil {
		err := errors.New("file is required")
		span.RecordError(err)
		return dto.VideoResponse{}, err
	}

	if file.Size > s.maxThumb {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.SetStatus(codes.Error, "payload too large")
		return dto.VideoResponse{}, ErrThumbnailTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		return dto.VideoResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxThumb+1)); err != nil {
		span.RecordError(err)
		return dto.VideoResponse{}, err
	}
	if int64(buf.Len()) > s.maxThumb {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.SetStatus(codes.Error, "payload too large")
		return dto.VideoResponse{}, ErrThumbnailTooLarge
	}

	mime := mimetype.Detect(buf.Bytes())
	span.SetAttributes(attribute.String("thumbnail.detected_mime", mime.String()))
	if !strings.HasPrefix(mime.String(), "image/") {
		observability.UploadRejected().WithLabelValues("type").Inc()
		span.SetStatus(codes.Error, "type not allowed")
		return dto.VideoResponse{}, ErrThumbnailTypeNotAllowed
	}

	url, _, err := s.storage.Upload(spanCtx, file.Filename, bytes.NewReader(buf.Bytes()))
	if err != nil {
		span.RecordError(err)
		return dto.VideoResponse{}, err
	}

	video.ThumbnailURL = url
	if err := s.videos.Update(spanCtx, &video); err != nil {
		span.RecordError(err)
		return dto.VideoResponse{}, err
	}

	return dto.NewVideoResponse(video), nil
}

// Delete destroys the remote asset first, then removes the metadata row and
// its comments. A failed destroy aborts the whole operation so metadata is
// never orphaned from a live asset.
func (s *videoService) Delete(ctx context.Context, id uint, userID string, isAdmin bool) error {
	spanCtx, span := s.tracer.Start(ctx, "videos.delete", trace.WithAttributes(
		attribute.Int("video.id", int(id)),
	))
	defer span.End()

	video, err := s.videos.FindByID(spanCtx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if video.UploaderID != userID && !isAdmin {
		span.SetStatus(codes.Error, "not uploader")
		return ErrNotUploader
	}

	if video.PublicID != "" {
		outcome, err := s.storage.Destroy(spanCtx, video.PublicID, video.ResourceType)
		if err != nil {
			observability.MediaDestroy().WithLabelValues("error").Inc()
			span.RecordError(err)
			return err
		}
		observability.MediaDestroy().WithLabelValues(outcome).Inc()
	}

	if err := s.videos.Delete(spanCtx, id); err != nil {
		span.RecordError(err)
		return err
	}

	s.logger.Info().Uint("video_id", id).Str("user_id", userID).Msg("video deleted")
	return nil
}
