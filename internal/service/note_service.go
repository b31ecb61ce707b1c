package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/park-academy/park-api/internal/dto"
	"github.com/park-academy/park-api/internal/models"
	"github.com/park-academy/park-api/internal/repository"
)

var (
	// ErrNotNoteOwner indicates a note access by somebody other than its owner.
	ErrNotNoteOwner = errors.New("only the owner may access this note")
	// ErrInvalidNoteContent indicates the content document failed schema validation.
	ErrInvalidNoteContent = errors.New("note content does not match the expected shape")
)

// noteContentSchema constrains the editor document persisted for each note:
// an ordered list of typed blocks, each carrying plain text.
const noteContentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["blocks"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "blocks": {
      "type": "array",
      "maxItems": 500,
      "items": {
        "type": "object",
        "required": ["type", "text"],
        "properties": {
          "type": {"type": "string", "enum": ["paragraph", "heading", "list_item", "code", "quote"]},
          "text": {"type": "string", "maxLength": 10000}
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`

// NoteService owns private study notes.
type NoteService interface {
	Create(ctx context.Context, ownerID string, payload dto.NoteCreateRequest) (dto.NoteResponse, error)
	Get(ctx context.Context, id uint, ownerID string) (dto.NoteResponse, error)
	List(ctx context.Context, ownerID string, limit, offset int) ([]dto.NoteResponse, error)
	Update(ctx context.Context, id uint, ownerID string, payload dto.NoteUpdateRequest) (dto.NoteResponse, error)
	Delete(ctx context.Context, id uint, ownerID string) error
}

type noteService struct {
	notes     repository.NoteRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	schema    *jsonschema.Schema
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewNoteService constructs a note service.
func NewNoteService(notes repository.NoteRepository, validate *validator.Validate, logger zerolog.Logger) (NoteService, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("note_content.schema.json", strings.NewReader(noteContentSchema)); err != nil {
		return nil, fmt.Errorf("failed to register note content schema: %w", err)
	}

	schema, err := compiler.Compile("note_content.schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile note content schema: %w", err)
	}

	return &noteService{
		notes:     notes,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		schema:    schema,
		logger:    logger.With().Str("component", "note_service").Logger(),
		tracer:    otel.Tracer("github.com/park-academy/park-api/internal/service/note"),
	}, nil
}

func (s *noteService) Create(ctx context.Context, ownerID string, payload dto.NoteCreateRequest) (dto.NoteResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.NoteResponse{}, err
	}

	if err := s.validateContent(payload.Content); err != nil {
		return dto.NoteResponse{}, err
	}

	note := models.Note{
		OwnerID: ownerID,
		Title:   strings.TrimSpace(s.sanitizer.Sanitize(payload.Title)),
		Content: datatypes.JSON(payload.Content),
	}

	if err := s.notes.Create(ctx, &note); err != nil {
		return dto.NoteResponse{}, err
	}

	return dto.NewNoteResponse(note), nil
}

func (s *noteService) Get(ctx context.Context, id uint, ownerID string) (dto.NoteResponse, error) {
	note, err := s.owned(ctx, id, ownerID)
	if err != nil {
		return dto.NoteResponse{}, err
	}
	return dto.NewNoteResponse(note), nil
}

func (s *noteService) List(ctx context.Context, ownerID string, limit, offset int) ([]dto.NoteResponse, error) {
	notes, err := s.notes.ListByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.NewNoteResponseSlice(notes), nil
}

func (s *noteService) Update(ctx context.Context, id uint, ownerID string, payload dto.NoteUpdateRequest) (dto.NoteResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.NoteResponse{}, err
	}

	note, err := s.owned(ctx, id, ownerID)
	if err != nil {
		return dto.NoteResponse{}, err
	}

	if payload.Title != nil {
		note.Title = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Title))
	}
	if len(payload.Content) > 0 {
		if err := s.validateContent(payload.Content); err != nil {
			return dto.NoteResponse{}, err
		}
		note.Content = datatypes.JSON(payload.Content)
	}

	if err := s.notes.Update(ctx, &note); err != nil {
		return dto.NoteResponse{}, err
	}

	return dto.NewNoteResponse(note), nil
}

func (s *noteService) Delete(ctx context.Context, id uint, ownerID string) error {
	if _, err := s.owned(ctx, id, ownerID); err != nil {
		return err
	}
	return s.notes.Delete(ctx, id)
}

func (s *noteService) owned(ctx context.Context, id uint, ownerID string) (models.Note, error) {
	note, err := s.notes.FindByID(ctx, id)
	if err != nil {
		return models.Note{}, err
	}
	if note.OwnerID != ownerID {
		return models.Note{}, ErrNotNoteOwner
	}
	return note, nil
}

func (s *noteService) validateContent(raw json.RawMessage) error {
	var document interface{}
	if err := json.Unmarshal(raw, &document); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidNoteContent, err)
	}

	if err := s.schema.Validate(document); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidNoteContent, err)
	}

	return nil
}
