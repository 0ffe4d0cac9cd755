package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cognipath_backend/internal/model"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Generation phases reported to the caller while a path request runs.
const (
	GenerationIdle       = "idle"
	GenerationGenerating = "generating"
	GenerationPersisting = "persisting"
	GenerationDone       = "done"
	GenerationFailed     = "failed"
)

// PathGenerator produces a full learning path from a student profile.
type PathGenerator interface {
	GeneratePath(ctx context.Context, req GeneratePathRequest) (*model.LearningPath, error)
}

// PathStore is the slice of the repository layer the path service needs.
type PathStore interface {
	Create(path *model.LearningPath) error
	ListByUser(userID uint) ([]model.LearningPath, error)
	FindByID(userID uint, pathID string) (*model.LearningPath, error)
	Delete(userID uint, pathID string) error
}

type PathService struct {
	generator PathGenerator
	store     PathStore
	cache     *redis.Client
	log       *zap.Logger
}

func NewPathService(generator PathGenerator, store PathStore, cache *redis.Client, log *zap.Logger) *PathService {
	return &PathService{
		generator: generator,
		store:     store,
		cache:     cache,
		log:       log,
	}
}

// GenerationResult is the terminal state of one generate-and-save run.
// Path is always populated on success, even when persistence failed: the
// caller can keep working with the in-memory copy.
type GenerationResult struct {
	Phase   string              `json:"phase"`
	Path    *model.LearningPath `json:"path,omitempty"`
	Unsaved bool                `json:"unsaved,omitempty"`
}

// GenerateAndSave runs the two-stage pipeline: call the generator, then
// persist the result. A generation failure is a hard error. A persistence
// failure is not: the path is returned anyway under a placeholder id, with
// Unsaved set, so the student can still use what was generated.
func (s *PathService) GenerateAndSave(ctx context.Context, userID uint, req GeneratePathRequest) (*GenerationResult, error) {
	path, err := s.generator.GeneratePath(ctx, req)
	if err != nil {
		return &GenerationResult{Phase: GenerationFailed}, fmt.Errorf("path generation failed: %w", err)
	}
	path.UserID = userID

	// Anonymous sessions get the generated path without persistence.
	if userID == 0 {
		path.ID = "unsaved-" + uuid.New().String()
		for i := range path.Modules {
			path.Modules[i].PathID = path.ID
		}
		return &GenerationResult{Phase: GenerationDone, Path: path, Unsaved: true}, nil
	}

	if err := s.store.Create(path); err != nil {
		s.log.Warn("generated path could not be saved, returning in-memory copy",
			zap.Uint("user_id", userID),
			zap.String("title", path.Title),
			zap.Error(err))
		path.ID = "unsaved-" + uuid.New().String()
		for i := range path.Modules {
			path.Modules[i].PathID = path.ID
		}
		return &GenerationResult{Phase: GenerationDone, Path: path, Unsaved: true}, nil
	}

	s.invalidateCache(ctx, userID)
	return &GenerationResult{Phase: GenerationDone, Path: path}, nil
}

// List returns the user's paths, newest first. An empty account yields an
// empty slice, never an error. The redis cache is best effort on both
// sides: a cache failure is logged and the database answers.
func (s *PathService) List(ctx context.Context, userID uint) ([]model.LearningPath, error) {
	key := s.cacheKey(userID)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Result(); err == nil {
			var cached []model.LearningPath
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	paths, err := s.store.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(paths); err == nil {
			if err := s.cache.Set(ctx, key, raw, 5*time.Minute).Err(); err != nil {
				s.log.Debug("path list cache write failed", zap.Error(err))
			}
		}
	}
	return paths, nil
}

// Get returns the path, or (nil, nil) when it does not exist.
func (s *PathService) Get(userID uint, pathID string) (*model.LearningPath, error) {
	return s.store.FindByID(userID, pathID)
}

// Delete removes a path and everything under it. It reports success as a
// bool: a failed delete is logged, never escalated, and the path simply
// stays visible.
func (s *PathService) Delete(ctx context.Context, userID uint, pathID string) bool {
	if err := s.store.Delete(userID, pathID); err != nil {
		s.log.Error("path delete failed",
			zap.Uint("user_id", userID),
			zap.String("path_id", pathID),
			zap.Error(err))
		return false
	}
	s.invalidateCache(ctx, userID)
	return true
}

func (s *PathService) cacheKey(userID uint) string {
	return fmt.Sprintf("cognipath:paths:%d", userID)
}

func (s *PathService) invalidateCache(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cacheKey(userID)).Err(); err != nil {
		s.log.Debug("path list cache invalidation failed", zap.Error(err))
	}
}
