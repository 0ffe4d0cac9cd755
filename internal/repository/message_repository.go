package repository

import (
	"cognipath_backend/internal/model"

	"gorm.io/gorm"
)

type MessageRepository struct {
	DB *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

// Append stores one message under its scope. Callers treat this as
// best-effort; the orchestration layer decides whether a failure is
// surfaced or only logged.
func (r *MessageRepository) Append(msg *model.ChatMessage) error {
	return r.DB.Create(msg).Error
}

// ListByScope returns the conversation for a path (moduleID empty) or a
// module, oldest first. A scope with no messages yields an empty slice.
func (r *MessageRepository) ListByScope(pathID, moduleID string) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	err := r.DB.Where("path_id = ? AND module_id = ?", pathID, moduleID).
		Order("created_at asc").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
