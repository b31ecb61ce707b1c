package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/park-academy/park-api/internal/models"
)

// MessageRepository persists thread messages. Receipt and hide sets only ever
// grow; every set mutation is an idempotent add-if-absent performed inside a
// transaction so concurrent writers cannot lose entries.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	FindByID(ctx context.Context, id uint) (models.Message, error)
	ListByThread(ctx context.Context, kind models.ThreadKind, threadID string) ([]models.Message, error)
	AddRead(ctx context.Context, id uint, userID string) (models.Message, bool, error)
	AddDeletedFor(ctx context.Context, id uint, userID string) (models.Message, bool, error)
	MarkDeletedForEveryone(ctx context.Context, id uint) (models.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository constructs a message repository backed by GORM.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	if message.ReadBy == nil {
		message.ReadBy = []string{}
	}
	if message.DeletedFor == nil {
		message.DeletedFor = []string{}
	}
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *messageRepository) FindByID(ctx context.Context, id uint) (models.Message, error) {
	var message models.Message
	if err := r.db.WithContext(ctx).First(&message, id).Error; err != nil {
		return models.Message{}, err
	}
	return message, nil
}

func (r *messageRepository) ListByThread(ctx context.Context, kind models.ThreadKind, threadID string) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("thread_kind = ? AND thread_id = ?", kind, threadID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// AddRead appends the user to the receipt set. The second return value is
// false when the user was already present.
func (r *messageRepository) AddRead(ctx context.Context, id uint, userID string) (models.Message, bool, error) {
	return r.appendToSet(ctx, id, userID, func(m *models.Message) *[]string {
		set := []string(m.ReadBy)
		return &set
	}, func(m *models.Message, set []string) {
		m.ReadBy = set
	})
}

// AddDeletedFor appends the user to the per-viewer hide set. The set also
// grows on globally deleted messages; that is harmless since the message is
// already invisible content-wise.
func (r *messageRepository) AddDeletedFor(ctx context.Context, id uint, userID string) (models.Message, bool, error) {
	return r.appendToSet(ctx, id, userID, func(m *models.Message) *[]string {
		set := []string(m.DeletedFor)
		return &set
	}, func(m *models.Message, set []string) {
		m.DeletedFor = set
	})
}

func (r *messageRepository) appendToSet(
	ctx context.Context,
	id uint,
	userID string,
	read func(*models.Message) *[]string,
	write func(*models.Message, []string),
) (models.Message, bool, error) {
	var message models.Message
	changed := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&message, id).Error; err != nil {
			return err
		}

		set := *read(&message)
		for _, existing := range set {
			if existing == userID {
				return nil
			}
		}

		set = append(set, userID)
		write(&message, set)
		changed = true
		return tx.Save(&message).Error
	})
	if err != nil {
		return models.Message{}, false, err
	}

	return message, changed, nil
}

// MarkDeletedForEveryone flips the terminal flag and overwrites the body with
// the fixed placeholder. The original text is gone for good; repeat calls are
// no-ops.
func (r *messageRepository) MarkDeletedForEveryone(ctx context.Context, id uint) (models.Message, error) {
	var message models.Message

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&message, id).Error; err != nil {
			return err
		}

		if message.DeletedForEveryone {
			return nil
		}

		message.DeletedForEveryone = true
		message.Body = models.DeletedBody
		return tx.Save(&message).Error
	})
	if err != nil {
		return models.Message{}, err
	}

	return message, nil
}
