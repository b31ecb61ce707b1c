package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/park-academy/park-api/internal/models"
)

// GroupRepository persists group threads and their membership index.
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	FindByID(ctx context.Context, id string) (models.Group, error)
	ListByParticipant(ctx context.Context, userID string) ([]models.Group, error)
	UpdateSummary(ctx context.Context, id, lastMessage, lastMessageBy string, at time.Time) error
	DeleteCascade(ctx context.Context, id string) error
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository constructs a group repository backed by GORM.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}

		members := make([]models.GroupMember, 0, len(group.Participants))
		for _, userID := range group.Participants {
			members = append(members, models.GroupMember{GroupID: group.ID, UserID: userID})
		}
		if len(members) == 0 {
			return nil
		}
		return tx.Create(&members).Error
	})
}

func (r *groupRepository) FindByID(ctx context.Context, id string) (models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		return models.Group{}, err
	}
	return group, nil
}

func (r *groupRepository) ListByParticipant(ctx context.Context, userID string) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.WithContext(ctx).
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ?", userID).
		Order("groups.last_message_at DESC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// UpdateSummary mirrors ConversationRepository.UpdateSummary; the summary
// write intentionally trails the message insert.
func (r *groupRepository) UpdateSummary(ctx context.Context, id, lastMessage, lastMessageBy string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Group{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_message":    lastMessage,
			"last_message_at": at,
			"last_message_by": lastMessageBy,
		}).Error
}

// DeleteCascade removes the group, its membership index, and every message it
// owns in one transaction.
func (r *groupRepository) DeleteCascade(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("thread_kind = ? AND thread_id = ?", models.ThreadKindGroup, id).
			Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Group{}, "id = ?", id).Error
	})
}
