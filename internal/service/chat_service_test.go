package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cognipath_backend/internal/model"
	"cognipath_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeResponder struct {
	reply      string
	err        error
	gotMessage string
	gotHistory []model.ChatMessage
	gotCtx     *ChatContext
}

func (f *fakeResponder) Chat(ctx context.Context, history []model.ChatMessage, message string, chatCtx *ChatContext) (string, error) {
	f.gotMessage = message
	f.gotHistory = history
	f.gotCtx = chatCtx
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeMessageStore struct {
	mu        sync.Mutex
	messages  []model.ChatMessage
	appendErr error
	listErr   error
}

func (f *fakeMessageStore) Append(msg *model.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeMessageStore) ListByScope(pathID, moduleID string) ([]model.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.ChatMessage
	for _, m := range f.messages {
		if m.PathID == pathID && m.ModuleID == moduleID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) stored() []model.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ChatMessage(nil), f.messages...)
}

func newChatService(responder *fakeResponder, messages *fakeMessageStore, modules *fakeModuleStore) *ChatService {
	return NewChatService(responder, messages, modules, storedPath(), zap.NewNop())
}

func TestSendAppendsBothTurns(t *testing.T) {
	responder := &fakeResponder{reply: "Think about what a pointer really is."}
	messages := &fakeMessageStore{}
	svc := newChatService(responder, messages, &fakeModuleStore{})

	turn, err := svc.Send(context.Background(), 7, "path-1", "", "What is a pointer?")
	require.NoError(t, err)
	svc.Flush()

	assert.False(t, turn.Failed)
	assert.Equal(t, model.RoleUser, turn.UserMessage.Role)
	assert.Equal(t, "What is a pointer?", turn.UserMessage.Text)
	assert.Equal(t, model.RoleModel, turn.ModelMessage.Role)
	assert.Equal(t, responder.reply, turn.ModelMessage.Text)

	stored := messages.stored()
	require.Len(t, stored, 2)
}

func TestSendKeepsUserMessageWhenResponderFails(t *testing.T) {
	responder := &fakeResponder{err: errors.New("model overloaded")}
	messages := &fakeMessageStore{}
	svc := newChatService(responder, messages, &fakeModuleStore{})

	turn, err := svc.Send(context.Background(), 7, "path-1", "", "help")
	require.NoError(t, err)
	svc.Flush()

	assert.True(t, turn.Failed)
	assert.Equal(t, chatErrorReply, turn.ModelMessage.Text)

	stored := messages.stored()
	require.Len(t, stored, 1, "only the student's message is persisted")
	assert.Equal(t, model.RoleUser, stored[0].Role)
	assert.Equal(t, "help", stored[0].Text)
}

func TestSendSurvivesBrokenStore(t *testing.T) {
	responder := &fakeResponder{reply: "answer"}
	messages := &fakeMessageStore{appendErr: errors.New("connection refused"), listErr: errors.New("connection refused")}
	svc := newChatService(responder, messages, &fakeModuleStore{})

	turn, err := svc.Send(context.Background(), 7, "path-1", "", "hello")
	require.NoError(t, err)
	svc.Flush()

	assert.False(t, turn.Failed)
	assert.Equal(t, "answer", turn.ModelMessage.Text)
}

func TestSendModuleScopeCarriesLessonContext(t *testing.T) {
	responder := &fakeResponder{reply: "ok"}
	modules := &fakeModuleStore{content: &model.ModuleContent{
		PathID:   "path-1",
		ModuleID: "1",
		Content:  "lesson body",
	}}
	svc := newChatService(responder, &fakeMessageStore{}, modules)

	_, err := svc.Send(context.Background(), 7, "path-1", "1", "explain")
	require.NoError(t, err)
	svc.Flush()

	require.NotNil(t, responder.gotCtx)
	assert.Equal(t, "lesson body", responder.gotCtx.ModuleContent)
	assert.Equal(t, []string{"Memory", "Concurrency"}, responder.gotCtx.PathSyllabus)
}

func TestSendRejectsBlankMessage(t *testing.T) {
	svc := newChatService(&fakeResponder{}, &fakeMessageStore{}, &fakeModuleStore{})

	_, err := svc.Send(context.Background(), 7, "path-1", "", "   ")
	assert.ErrorIs(t, err, util.ErrEmptyMessage)
}

func TestSendUnknownPath(t *testing.T) {
	svc := newChatService(&fakeResponder{}, &fakeMessageStore{}, &fakeModuleStore{})

	_, err := svc.Send(context.Background(), 7, "missing", "", "hello")
	assert.ErrorIs(t, err, util.ErrPathNotFound)
}

func TestHistoryEmptyScopeGetsWelcome(t *testing.T) {
	svc := newChatService(&fakeResponder{}, &fakeMessageStore{}, &fakeModuleStore{})

	history, err := svc.History(context.Background(), 7, "path-1", "")
	require.NoError(t, err)

	require.Len(t, history, 1)
	assert.Equal(t, model.RoleModel, history[0].Role)
	assert.Contains(t, history[0].Text, "Systems Programming")
}

func TestHistoryListFailureDegradesToWelcome(t *testing.T) {
	messages := &fakeMessageStore{listErr: errors.New("timeout")}
	svc := newChatService(&fakeResponder{}, messages, &fakeModuleStore{})

	history, err := svc.History(context.Background(), 7, "path-1", "1")
	require.NoError(t, err)

	require.Len(t, history, 1)
	assert.Equal(t, model.RoleModel, history[0].Role)
	assert.Contains(t, history[0].Text, "Memory")
}

func TestHistoryScopesStayApart(t *testing.T) {
	messages := &fakeMessageStore{messages: []model.ChatMessage{
		{ID: "a", PathID: "path-1", ModuleID: "", Role: model.RoleUser, Text: "path question"},
		{ID: "b", PathID: "path-1", ModuleID: "1", Role: model.RoleUser, Text: "module question"},
	}}
	svc := newChatService(&fakeResponder{}, messages, &fakeModuleStore{})

	pathHistory, err := svc.History(context.Background(), 7, "path-1", "")
	require.NoError(t, err)
	require.Len(t, pathHistory, 1)
	assert.Equal(t, "path question", pathHistory[0].Text)

	moduleHistory, err := svc.History(context.Background(), 7, "path-1", "1")
	require.NoError(t, err)
	require.Len(t, moduleHistory, 1)
	assert.Equal(t, "module question", moduleHistory[0].Text)
}
