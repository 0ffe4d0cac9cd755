package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cognipath_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	path *model.LearningPath
	err  error
	got  GeneratePathRequest
}

func (f *fakeGenerator) GeneratePath(ctx context.Context, req GeneratePathRequest) (*model.LearningPath, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	// hand out a copy so the caller can mutate freely
	p := *f.path
	p.Modules = append([]model.LearningModule(nil), f.path.Modules...)
	return &p, nil
}

type fakePathStore struct {
	createErr error
	deleteErr error
	listErr   error
	created   []*model.LearningPath
	paths     []model.LearningPath
	deleted   []string
}

func (f *fakePathStore) Create(path *model.LearningPath) error {
	if f.createErr != nil {
		return f.createErr
	}
	if path.ID == "" {
		path.ID = model.GenerateUUID()
	}
	f.created = append(f.created, path)
	return nil
}

func (f *fakePathStore) ListByUser(userID uint) ([]model.LearningPath, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.paths, nil
}

func (f *fakePathStore) FindByID(userID uint, pathID string) (*model.LearningPath, error) {
	for i := range f.paths {
		if f.paths[i].ID == pathID {
			return &f.paths[i], nil
		}
	}
	return nil, nil
}

func (f *fakePathStore) Delete(userID uint, pathID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, pathID)
	return nil
}

func samplePath() *model.LearningPath {
	return &model.LearningPath{
		StudentName:              "Ada",
		Title:                    "Systems Programming",
		OverallGoal:              "learn systems programming",
		EstimatedCompletionWeeks: 6,
		Level:                    model.DifficultyBeginner,
		Modules: []model.LearningModule{
			{ID: "1", Title: "Memory"},
			{ID: "2", Title: "Concurrency"},
		},
	}
}

func TestGenerateAndSavePersistsForSignedInUser(t *testing.T) {
	gen := &fakeGenerator{path: samplePath()}
	store := &fakePathStore{}
	svc := NewPathService(gen, store, nil, zap.NewNop())

	result, err := svc.GenerateAndSave(context.Background(), 7, GeneratePathRequest{Name: "Ada", Goal: "learn systems programming"})
	require.NoError(t, err)

	assert.Equal(t, GenerationDone, result.Phase)
	assert.False(t, result.Unsaved)
	require.NotNil(t, result.Path)
	assert.Equal(t, uint(7), result.Path.UserID)
	require.Len(t, store.created, 1)
}

func TestGenerateAndSaveFailsWhenGenerationFails(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	store := &fakePathStore{}
	svc := NewPathService(gen, store, nil, zap.NewNop())

	result, err := svc.GenerateAndSave(context.Background(), 7, GeneratePathRequest{Name: "Ada", Goal: "g"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
	assert.Equal(t, GenerationFailed, result.Phase)
	assert.Nil(t, result.Path)
	assert.Empty(t, store.created)
}

func TestGenerateAndSaveReturnsPathWhenPersistFails(t *testing.T) {
	gen := &fakeGenerator{path: samplePath()}
	store := &fakePathStore{createErr: errors.New("connection refused")}
	svc := NewPathService(gen, store, nil, zap.NewNop())

	result, err := svc.GenerateAndSave(context.Background(), 7, GeneratePathRequest{Name: "Ada", Goal: "g"})
	require.NoError(t, err)

	assert.Equal(t, GenerationDone, result.Phase)
	assert.True(t, result.Unsaved)
	require.NotNil(t, result.Path)
	assert.True(t, strings.HasPrefix(result.Path.ID, "unsaved-"))
	for _, m := range result.Path.Modules {
		assert.Equal(t, result.Path.ID, m.PathID)
	}
}

func TestGenerateAndSaveSkipsStoreForAnonymous(t *testing.T) {
	gen := &fakeGenerator{path: samplePath()}
	store := &fakePathStore{}
	svc := NewPathService(gen, store, nil, zap.NewNop())

	result, err := svc.GenerateAndSave(context.Background(), 0, GeneratePathRequest{Name: "Ada", Goal: "g"})
	require.NoError(t, err)

	assert.True(t, result.Unsaved)
	assert.True(t, strings.HasPrefix(result.Path.ID, "unsaved-"))
	assert.Empty(t, store.created)
}

func TestListEmptyAccountIsNotAnError(t *testing.T) {
	svc := NewPathService(&fakeGenerator{}, &fakePathStore{}, nil, zap.NewNop())

	paths, err := svc.List(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestGetMissingPathReturnsNilNil(t *testing.T) {
	svc := NewPathService(&fakeGenerator{}, &fakePathStore{}, nil, zap.NewNop())

	path, err := svc.Get(7, "nope")
	require.NoError(t, err)
	assert.Nil(t, path)
}

func TestDeleteReportsOutcomeAsBool(t *testing.T) {
	store := &fakePathStore{}
	svc := NewPathService(&fakeGenerator{}, store, nil, zap.NewNop())

	assert.True(t, svc.Delete(context.Background(), 7, "p1"))
	assert.Equal(t, []string{"p1"}, store.deleted)

	store.deleteErr = errors.New("deadlock")
	assert.False(t, svc.Delete(context.Background(), 7, "p2"))
}
