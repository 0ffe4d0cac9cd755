package service

import (
	"context"
	"errors"
	"testing"

	"cognipath_backend/internal/model"
	"cognipath_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLessonGenerator struct {
	lesson      string
	err         error
	calls       int
	gotFeedback []string
}

func (f *fakeLessonGenerator) GenerateLesson(ctx context.Context, topic, description, userGoal string) (string, error) {
	f.calls++
	return f.lesson, f.err
}

func (f *fakeLessonGenerator) RegenerateLesson(ctx context.Context, topic, description, userGoal string, feedback []string) (string, error) {
	f.calls++
	f.gotFeedback = feedback
	return f.lesson, f.err
}

type fakeModuleStore struct {
	content  *model.ModuleContent
	findErr  error
	puts     []*model.ModuleContent
	replaces []*model.ModuleContent
}

func (f *fakeModuleStore) Find(pathID, moduleID string) (*model.ModuleContent, error) {
	return f.content, f.findErr
}

func (f *fakeModuleStore) Put(content *model.ModuleContent) error {
	f.puts = append(f.puts, content)
	return nil
}

func (f *fakeModuleStore) Replace(content *model.ModuleContent) error {
	f.replaces = append(f.replaces, content)
	return nil
}

func storedPath() *fakePathStore {
	p := samplePath()
	p.ID = "path-1"
	for i := range p.Modules {
		p.Modules[i].PathID = p.ID
	}
	return &fakePathStore{paths: []model.LearningPath{*p}}
}

func newModuleService(gen *fakeLessonGenerator, store *fakeModuleStore) *ModuleService {
	return NewModuleService(gen, store, storedPath(), zap.NewNop())
}

func TestLoadSynthesizesEmptyContentForNewModule(t *testing.T) {
	svc := newModuleService(&fakeLessonGenerator{}, &fakeModuleStore{})

	view, err := svc.Load(context.Background(), 7, "path-1", "1")
	require.NoError(t, err)

	assert.Equal(t, "Memory", view.Module.Title)
	assert.Equal(t, model.ModuleNotStarted, view.Content.Status)
	assert.Empty(t, view.Content.Content)
	assert.NotZero(t, view.Token)
}

func TestLoadUnknownPathAndModule(t *testing.T) {
	svc := newModuleService(&fakeLessonGenerator{}, &fakeModuleStore{})

	_, err := svc.Load(context.Background(), 7, "missing", "1")
	assert.ErrorIs(t, err, util.ErrPathNotFound)

	_, err = svc.Load(context.Background(), 7, "path-1", "99")
	assert.ErrorIs(t, err, util.ErrModuleNotFound)
}

func TestGenerateLessonMergesContent(t *testing.T) {
	gen := &fakeLessonGenerator{lesson: "# Memory\n\nLesson body."}
	store := &fakeModuleStore{}
	svc := newModuleService(gen, store)

	view, err := svc.Load(context.Background(), 7, "path-1", "1")
	require.NoError(t, err)

	content, err := svc.GenerateLesson(context.Background(), 7, "path-1", "1", view.Token)
	require.NoError(t, err)

	assert.Equal(t, gen.lesson, content.Content)
	assert.Equal(t, model.ModuleInProgress, content.Status)
	require.Len(t, store.puts, 1)
	assert.Empty(t, store.replaces)
}

func TestStaleGenerationCommitsNothing(t *testing.T) {
	gen := &fakeLessonGenerator{lesson: "stale body"}
	store := &fakeModuleStore{}
	svc := newModuleService(gen, store)

	view, err := svc.Load(context.Background(), 7, "path-1", "1")
	require.NoError(t, err)

	// the student navigated away and back, starting a new request round
	_, err = svc.Load(context.Background(), 7, "path-1", "1")
	require.NoError(t, err)

	content, err := svc.GenerateLesson(context.Background(), 7, "path-1", "1", view.Token)
	require.NoError(t, err)

	assert.Equal(t, "stale body", content.Content)
	assert.Empty(t, store.puts, "stale response must not reach the store")
	assert.Empty(t, store.replaces)
}

func TestRegenerateRequiresFeedback(t *testing.T) {
	gen := &fakeLessonGenerator{lesson: "v2"}
	store := &fakeModuleStore{}
	svc := newModuleService(gen, store)

	_, err := svc.Regenerate(context.Background(), 7, "path-1", "1", nil)
	assert.ErrorIs(t, err, util.ErrFeedbackRequired)

	_, err = svc.Regenerate(context.Background(), 7, "path-1", "1", []string{"  ", ""})
	assert.ErrorIs(t, err, util.ErrFeedbackRequired)

	assert.Zero(t, gen.calls, "no generation without feedback")
	assert.Empty(t, store.replaces)
}

func TestRegenerateReplacesWholesale(t *testing.T) {
	gen := &fakeLessonGenerator{lesson: "rewritten"}
	store := &fakeModuleStore{content: &model.ModuleContent{
		PathID:   "path-1",
		ModuleID: "1",
		Content:  "old",
		Status:   model.ModuleCompleted,
	}}
	svc := newModuleService(gen, store)

	content, err := svc.Regenerate(context.Background(), 7, "path-1", "1", []string{"too shallow", " "})
	require.NoError(t, err)

	assert.Equal(t, "rewritten", content.Content)
	assert.Equal(t, model.ModuleInProgress, content.Status)
	assert.Equal(t, []string{"too shallow"}, gen.gotFeedback)
	require.Len(t, store.replaces, 1)
	assert.Empty(t, store.puts)
}

func TestRegenerateSupersedesInFlightGeneration(t *testing.T) {
	gen := &fakeLessonGenerator{lesson: "body"}
	store := &fakeModuleStore{}
	svc := newModuleService(gen, store)

	view, err := svc.Load(context.Background(), 7, "path-1", "1")
	require.NoError(t, err)

	_, err = svc.Regenerate(context.Background(), 7, "path-1", "1", []string{"more depth"})
	require.NoError(t, err)
	require.Len(t, store.replaces, 1)

	// the older generation finishes afterwards and must be dropped
	_, err = svc.GenerateLesson(context.Background(), 7, "path-1", "1", view.Token)
	require.NoError(t, err)
	assert.Empty(t, store.puts)
}

func TestUpdateStatusMerges(t *testing.T) {
	store := &fakeModuleStore{content: &model.ModuleContent{
		PathID:   "path-1",
		ModuleID: "1",
		Content:  "body",
		Status:   model.ModuleCompleted,
	}}
	svc := newModuleService(&fakeLessonGenerator{}, store)

	_, err := svc.UpdateStatus(context.Background(), 7, "path-1", "1", model.ModuleCompleted)
	require.NoError(t, err)

	require.Len(t, store.puts, 1)
	assert.Equal(t, model.ModuleCompleted, store.puts[0].Status)
	assert.Empty(t, store.puts[0].Content, "status update must not touch content")
}

func TestGenerateLessonPropagatesGeneratorError(t *testing.T) {
	gen := &fakeLessonGenerator{err: errors.New("model overloaded")}
	store := &fakeModuleStore{}
	svc := newModuleService(gen, store)

	view, err := svc.Load(context.Background(), 7, "path-1", "1")
	require.NoError(t, err)

	_, err = svc.GenerateLesson(context.Background(), 7, "path-1", "1", view.Token)
	require.Error(t, err)
	assert.Empty(t, store.puts)
}
