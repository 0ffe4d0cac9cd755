package model

import "time"

const (
	ModuleNotStarted = "not_started"
	ModuleInProgress = "in_progress"
	ModuleCompleted  = "completed"
)

// ModuleContent is the lesson body for one module of a path. Absent until
// the first lesson generation; one row per (path, module).
type ModuleContent struct {
	PathID       string     `gorm:"primaryKey;type:varchar(36)" json:"-"`
	ModuleID     string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Content      string     `gorm:"type:longtext" json:"content"`
	Status       string     `gorm:"type:enum('not_started','in_progress','completed');default:'not_started'" json:"status"`
	LastAccessed *time.Time `json:"lastAccessed,omitempty"`
}

func (ModuleContent) TableName() string {
	return "module_contents"
}

// EmptyModuleContent is the initial state handed out when no lesson has
// been generated yet. Readers always get a value, never a nil.
func EmptyModuleContent(pathID, moduleID string) *ModuleContent {
	return &ModuleContent{
		PathID:   pathID,
		ModuleID: moduleID,
		Content:  "",
		Status:   ModuleNotStarted,
	}
}
