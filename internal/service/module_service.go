package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"cognipath_backend/internal/model"
	"cognipath_backend/internal/util"

	"go.uber.org/zap"
)

// LessonGenerator writes and rewrites lesson bodies.
type LessonGenerator interface {
	GenerateLesson(ctx context.Context, topic, description, userGoal string) (string, error)
	RegenerateLesson(ctx context.Context, topic, description, userGoal string, feedback []string) (string, error)
}

// ModuleStore is the content side of the store. Put merges into the
// existing record; Replace swaps the record wholesale.
type ModuleStore interface {
	Find(pathID, moduleID string) (*model.ModuleContent, error)
	Put(content *model.ModuleContent) error
	Replace(content *model.ModuleContent) error
}

// ModulePathStore resolves the owning path.
type ModulePathStore interface {
	FindByID(userID uint, pathID string) (*model.LearningPath, error)
}

// ModuleService drives the lesson view: loading module state, generating
// content on first visit, and regenerating from feedback. Each scope keeps
// a request token so a slow generation cannot clobber the store after the
// student moved on or issued a newer request.
type ModuleService struct {
	generator LessonGenerator
	modules   ModuleStore
	paths     ModulePathStore
	log       *zap.Logger

	mu     sync.Mutex
	tokens map[string]uint64
}

func NewModuleService(generator LessonGenerator, modules ModuleStore, paths ModulePathStore, log *zap.Logger) *ModuleService {
	return &ModuleService{
		generator: generator,
		modules:   modules,
		paths:     paths,
		log:       log,
		tokens:    make(map[string]uint64),
	}
}

// ModuleView is everything the lesson screen needs in one load.
type ModuleView struct {
	Path    *model.LearningPath   `json:"path"`
	Module  *model.LearningModule `json:"module"`
	Content *model.ModuleContent  `json:"moduleData"`
	Token   uint64                `json:"requestToken"`
}

func scopeKey(pathID, moduleID string) string {
	return pathID + "/" + moduleID
}

// bump starts a new request generation for the scope and returns its token.
func (s *ModuleService) bump(scope string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[scope]++
	return s.tokens[scope]
}

func (s *ModuleService) current(scope string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[scope]
}

// Load resolves the module and its stored content. A module that was never
// opened gets a fresh not_started record; nothing is written until content
// is generated or the student's status changes. Each load invalidates any
// generation still in flight for the scope.
func (s *ModuleService) Load(ctx context.Context, userID uint, pathID, moduleID string) (*ModuleView, error) {
	path, mod, err := s.resolve(userID, pathID, moduleID)
	if err != nil {
		return nil, err
	}

	content, err := s.modules.Find(pathID, moduleID)
	if err != nil {
		return nil, err
	}
	if content == nil {
		content = model.EmptyModuleContent(pathID, moduleID)
	}

	token := s.bump(scopeKey(pathID, moduleID))
	return &ModuleView{Path: path, Module: mod, Content: content, Token: token}, nil
}

// GenerateLesson produces the lesson body for a module that has none yet
// and merges it into the store with status in_progress. If a newer request
// for the scope started while the generator ran, the result is returned but
// not committed.
func (s *ModuleService) GenerateLesson(ctx context.Context, userID uint, pathID, moduleID string, token uint64) (*model.ModuleContent, error) {
	path, mod, err := s.resolve(userID, pathID, moduleID)
	if err != nil {
		return nil, err
	}

	text, err := s.generator.GenerateLesson(ctx, mod.Title, mod.Description, path.OverallGoal)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	content := &model.ModuleContent{
		PathID:       pathID,
		ModuleID:     moduleID,
		Content:      text,
		Status:       model.ModuleInProgress,
		LastAccessed: &now,
	}

	scope := scopeKey(pathID, moduleID)
	if token != s.current(scope) {
		s.log.Debug("discarding stale lesson generation",
			zap.String("path_id", pathID),
			zap.String("module_id", moduleID))
		return content, nil
	}

	if err := s.modules.Put(content); err != nil {
		return nil, err
	}
	return content, nil
}

// Regenerate rewrites the lesson from student feedback and replaces the
// stored record wholesale. Feedback is required: without at least one
// non-blank note the call fails before anything is generated.
func (s *ModuleService) Regenerate(ctx context.Context, userID uint, pathID, moduleID string, feedback []string) (*model.ModuleContent, error) {
	var notes []string
	for _, f := range feedback {
		if strings.TrimSpace(f) != "" {
			notes = append(notes, strings.TrimSpace(f))
		}
	}
	if len(notes) == 0 {
		return nil, util.ErrFeedbackRequired
	}

	path, mod, err := s.resolve(userID, pathID, moduleID)
	if err != nil {
		return nil, err
	}

	// Starting a regenerate supersedes any generation already in flight.
	scope := scopeKey(pathID, moduleID)
	token := s.bump(scope)

	text, err := s.generator.RegenerateLesson(ctx, mod.Title, mod.Description, path.OverallGoal, notes)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	content := &model.ModuleContent{
		PathID:       pathID,
		ModuleID:     moduleID,
		Content:      text,
		Status:       model.ModuleInProgress,
		LastAccessed: &now,
	}

	if token != s.current(scope) {
		s.log.Debug("discarding stale regeneration",
			zap.String("path_id", pathID),
			zap.String("module_id", moduleID))
		return content, nil
	}

	if err := s.modules.Replace(content); err != nil {
		return nil, err
	}
	return content, nil
}

// UpdateStatus merges a status change, typically marking a module
// completed. Content is untouched.
func (s *ModuleService) UpdateStatus(ctx context.Context, userID uint, pathID, moduleID, status string) (*model.ModuleContent, error) {
	if _, _, err := s.resolve(userID, pathID, moduleID); err != nil {
		return nil, err
	}

	now := time.Now()
	content := &model.ModuleContent{
		PathID:       pathID,
		ModuleID:     moduleID,
		Status:       status,
		LastAccessed: &now,
	}
	if err := s.modules.Put(content); err != nil {
		return nil, err
	}
	return s.modules.Find(pathID, moduleID)
}

func (s *ModuleService) resolve(userID uint, pathID, moduleID string) (*model.LearningPath, *model.LearningModule, error) {
	path, err := s.paths.FindByID(userID, pathID)
	if err != nil {
		return nil, nil, err
	}
	if path == nil {
		return nil, nil, util.ErrPathNotFound
	}
	mod := path.Module(moduleID)
	if mod == nil {
		return nil, nil, util.ErrModuleNotFound
	}
	return path, mod, nil
}
