package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pairchat/pairchat/internal/domain"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Create appends a message to the log. The ID and creation time are
// assigned here so the caller holds the exact record that was persisted.
func (r *GormMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	msg.ID = uuid.New().String()
	msg.CreatedAt = time.Now().UTC()

	model := domain.MessageToModel(msg)
	if result := r.db.WithContext(ctx).Create(model); result.Error != nil {
		return result.Error
	}

	msg.CreatedAt = model.CreatedAt
	return nil
}

// GetConversation returns all messages between two users in both directions,
// ordered oldest first.
func (r *GormMessageRepository) GetConversation(ctx context.Context, userID, peerID string) ([]*domain.Message, error) {
	var models []domain.MessageModel
	result := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, peerID, peerID, userID).
		Order("created_at").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	messages := make([]*domain.Message, 0, len(models))
	for i := range models {
		messages = append(messages, models[i].ToDomain())
	}
	return messages, nil
}
