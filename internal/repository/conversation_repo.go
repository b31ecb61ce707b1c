package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/park-academy/park-api/internal/models"
)

// ConversationRepository persists 1:1 threads keyed by participant pair.
type ConversationRepository interface {
	GetOrCreate(ctx context.Context, userA, userB string) (models.Conversation, error)
	FindByID(ctx context.Context, id string) (models.Conversation, error)
	ListByParticipant(ctx context.Context, userID string) ([]models.Conversation, error)
	UpdateSummary(ctx context.Context, id, lastMessage, lastMessageBy string, at time.Time) error
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository constructs a conversation repository backed by GORM.
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// GetOrCreate is an idempotent keyed write: the primary key is derived from
// the sorted participant pair, so concurrent first-contact from both sides
// converges on a single row.
func (r *conversationRepository) GetOrCreate(ctx context.Context, userA, userB string) (models.Conversation, error) {
	key := models.ConversationKey(userA, userB)
	low, hi := userA, userB
	if low > hi {
		low, hi = hi, low
	}

	conversation := models.Conversation{
		ID:             key,
		ParticipantLow: low,
		ParticipantHi:  hi,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&conversation).Error
	if err != nil {
		return models.Conversation{}, err
	}

	return r.FindByID(ctx, key)
}

func (r *conversationRepository) FindByID(ctx context.Context, id string) (models.Conversation, error) {
	var conversation models.Conversation
	if err := r.db.WithContext(ctx).First(&conversation, "id = ?", id).Error; err != nil {
		return models.Conversation{}, err
	}
	return conversation, nil
}

func (r *conversationRepository) ListByParticipant(ctx context.Context, userID string) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.db.WithContext(ctx).
		Where("participant_low = ? OR participant_hi = ?", userID, userID).
		Order("last_message_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

// UpdateSummary refreshes the last-message fields after a send. This write is
// deliberately separate from the message insert; a stale summary self-heals
// on the next send.
func (r *conversationRepository) UpdateSummary(ctx context.Context, id, lastMessage, lastMessageBy string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_message":    lastMessage,
			"last_message_at": at,
			"last_message_by": lastMessageBy,
		}).Error
}
