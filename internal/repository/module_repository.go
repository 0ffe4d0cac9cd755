package repository

import (
	"errors"
	"time"

	"cognipath_backend/internal/model"

	"gorm.io/gorm"
)

type ModuleRepository struct {
	DB *gorm.DB
}

func NewModuleRepository(db *gorm.DB) *ModuleRepository {
	return &ModuleRepository{DB: db}
}

// Find returns the stored lesson content, or (nil, nil) when no lesson has
// been generated for the module yet.
func (r *ModuleRepository) Find(pathID, moduleID string) (*model.ModuleContent, error) {
	var m model.ModuleContent
	err := r.DB.Where("path_id = ? AND module_id = ?", pathID, moduleID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Put merges the supplied fields into any existing row, creating one when
// absent. Zero-valued fields are left untouched so a partial save never
// drops what another writer stored. LastAccessed is stamped on every save.
func (r *ModuleRepository) Put(content *model.ModuleContent) error {
	now := time.Now()
	content.LastAccessed = &now

	updates := map[string]interface{}{"last_accessed": now}
	if content.Content != "" {
		updates["content"] = content.Content
	}
	if content.Status != "" {
		updates["status"] = content.Status
	}

	res := r.DB.Model(&model.ModuleContent{}).
		Where("path_id = ? AND module_id = ?", content.PathID, content.ModuleID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if content.Status == "" {
			content.Status = model.ModuleNotStarted
		}
		return r.DB.Create(content).Error
	}
	return nil
}

// Replace overwrites the row wholesale. Regeneration goes through here:
// the new lesson supersedes every stored field, nothing is merged.
func (r *ModuleRepository) Replace(content *model.ModuleContent) error {
	now := time.Now()
	content.LastAccessed = &now

	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("path_id = ? AND module_id = ?", content.PathID, content.ModuleID).
			Delete(&model.ModuleContent{}).Error; err != nil {
			return err
		}
		return tx.Create(content).Error
	})
}
