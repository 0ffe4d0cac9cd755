package repository

import (
	"errors"

	"cognipath_backend/internal/model"

	"gorm.io/gorm"
)

type PathRepository struct {
	DB *gorm.DB
}

func NewPathRepository(db *gorm.DB) *PathRepository {
	return &PathRepository{DB: db}
}

// Create stores a path together with its embedded syllabus. The id is
// assigned here (or by the UUID hook) and handed back through the model.
func (r *PathRepository) Create(path *model.LearningPath) error {
	if path.ID == "" {
		path.ID = model.GenerateUUID()
	}
	for i := range path.Modules {
		path.Modules[i].PathID = path.ID
		path.Modules[i].Position = i
	}
	return r.DB.Create(path).Error
}

// ListByUser returns the user's paths newest first. A user with no paths
// gets an empty slice, not an error.
func (r *PathRepository) ListByUser(userID uint) ([]model.LearningPath, error) {
	var paths []model.LearningPath
	err := r.DB.Where("user_id = ?", userID).
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Order("created_at desc").
		Find(&paths).Error
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// FindByID resolves one path for the user. Absence is a valid outcome and
// reported as (nil, nil).
func (r *PathRepository) FindByID(userID uint, pathID string) (*model.LearningPath, error) {
	var p model.LearningPath
	err := r.DB.Where("user_id = ? AND id = ?", userID, pathID).
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes the path and everything stored under it.
func (r *PathRepository) Delete(userID uint, pathID string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND id = ?", userID, pathID).
			Delete(&model.LearningPath{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("path_id = ?", pathID).
			Delete(&model.LearningModule{}).Error; err != nil {
			return err
		}
		if err := tx.Where("path_id = ?", pathID).
			Delete(&model.ModuleContent{}).Error; err != nil {
			return err
		}
		return tx.Where("path_id = ?", pathID).
			Delete(&model.ChatMessage{}).Error
	})
}
