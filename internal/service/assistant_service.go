package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/park-academy/park-api/internal/dto"
	"github.com/park-academy/park-api/pkg/ai"
)

// ErrAssistantUnavailable indicates the AI backend is not configured.
var ErrAssistantUnavailable = errors.New("assistant is not available")

// AssistantService answers student questions through the configured AI model.
type AssistantService interface {
	Chat(ctx context.Context, userID string, payload dto.AssistantChatRequest) (dto.AssistantChatResponse, error)
}

type assistantService struct {
	assistant ai.Assistant
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewAssistantService constructs an assistant service. A nil assistant is
// allowed; requests then fail with ErrAssistantUnavailable.
func NewAssistantService(assistant ai.Assistant, validate *validator.Validate, logger zerolog.Logger) AssistantService {
	return &assistantService{
		assistant: assistant,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "assistant_service").Logger(),
	}
}

func (s *assistantService) Chat(ctx context.Context, userID string, payload dto.AssistantChatRequest) (dto.AssistantChatResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssistantChatResponse{}, err
	}

	if s.assistant == nil {
		return dto.AssistantChatResponse{}, ErrAssistantUnavailable
	}

	question := strings.TrimSpace(s.sanitizer.Sanitize(payload.Prompt))
	if question == "" {
		return dto.AssistantChatResponse{}, ErrEmptyMessage
	}

	result, err := s.assistant.Chat(ctx, ai.ChatInput{Question: question})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("assistant chat failed")
		return dto.AssistantChatResponse{}, err
	}

	return dto.AssistantChatResponse{
		Reply: result.Answer,
		Model: result.Model,
	}, nil
}
