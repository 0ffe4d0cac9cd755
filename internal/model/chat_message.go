package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ChatMessage is one turn of a conversation. Messages are append-only and
// scoped either to a whole path (ModuleID empty) or to a single module;
// the two scopes are never merged.
type ChatMessage struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id,omitempty"`
	PathID    string    `gorm:"index:idx_scope_created;type:varchar(36);not null" json:"-"`
	ModuleID  string    `gorm:"index:idx_scope_created;type:varchar(36);default:''" json:"-"`
	Role      string    `gorm:"type:enum('user','model');not null" json:"role"`
	Text      string    `gorm:"type:text" json:"text"`
	CreatedAt time.Time `gorm:"index:idx_scope_created" json:"createdAt,omitempty"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	return
}
