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

// chatErrorReply is shown in place of a model answer when the tutor call
// fails. The student's own message is already committed by then and stays.
const chatErrorReply = "Sorry, I encountered an error. Please try again."

// ChatResponder answers one tutoring turn given the full history.
type ChatResponder interface {
	Chat(ctx context.Context, history []model.ChatMessage, message string, chatCtx *ChatContext) (string, error)
}

// MessageStore is the append-only conversation log.
type MessageStore interface {
	Append(msg *model.ChatMessage) error
	ListByScope(pathID, moduleID string) ([]model.ChatMessage, error)
}

// ChatModuleStore supplies module content used as tutoring context.
type ChatModuleStore interface {
	Find(pathID, moduleID string) (*model.ModuleContent, error)
}

// ChatService runs the tutor conversation for both scopes: path-wide chat
// (moduleID empty) and per-module chat. Persistence of individual turns is
// best effort; a turn that cannot be saved is logged and the conversation
// carries on.
type ChatService struct {
	responder ChatResponder
	messages  MessageStore
	modules   ChatModuleStore
	paths     ModulePathStore
	log       *zap.Logger

	// persistWG lets tests wait for detached writes to settle.
	persistWG sync.WaitGroup
}

func NewChatService(responder ChatResponder, messages MessageStore, modules ChatModuleStore, paths ModulePathStore, log *zap.Logger) *ChatService {
	return &ChatService{
		responder: responder,
		messages:  messages,
		modules:   modules,
		paths:     paths,
		log:       log,
	}
}

// History returns the conversation for a scope, oldest first. A scope with
// no stored messages yields a single synthetic welcome turn when the path
// resolves; it is not persisted. Listing failures degrade to the same
// welcome state rather than breaking the screen.
func (s *ChatService) History(ctx context.Context, userID uint, pathID, moduleID string) ([]model.ChatMessage, error) {
	path, err := s.paths.FindByID(userID, pathID)
	if err != nil {
		return nil, err
	}
	if path == nil {
		return nil, util.ErrPathNotFound
	}

	history, err := s.messages.ListByScope(pathID, moduleID)
	if err != nil {
		s.log.Warn("chat history load failed, starting empty",
			zap.String("path_id", pathID),
			zap.String("module_id", moduleID),
			zap.Error(err))
		history = nil
	}

	if len(history) == 0 {
		return []model.ChatMessage{s.welcome(path, moduleID)}, nil
	}
	return history, nil
}

func (s *ChatService) welcome(path *model.LearningPath, moduleID string) model.ChatMessage {
	subject := path.Title
	if moduleID != "" {
		if mod := path.Module(moduleID); mod != nil {
			subject = mod.Title
		}
	}
	return model.ChatMessage{
		PathID:    path.ID,
		ModuleID:  moduleID,
		Role:      model.RoleModel,
		Text:      "Hi! I'm your learning assistant for \"" + subject + "\". Ask me anything about the material.",
		CreatedAt: time.Now(),
	}
}

// ChatTurn is the outcome of one Send: the student's message plus the
// tutor's reply. Failed indicates the reply is the synthetic error text.
type ChatTurn struct {
	UserMessage  model.ChatMessage `json:"userMessage"`
	ModelMessage model.ChatMessage `json:"modelMessage"`
	Failed       bool              `json:"failed,omitempty"`
}

// Send runs one conversation turn. The student's message is part of the
// conversation the moment it arrives; it is never rolled back, even when
// the tutor call fails. Both turns are persisted on detached goroutines so
// a slow or broken store cannot delay the reply.
func (s *ChatService) Send(ctx context.Context, userID uint, pathID, moduleID, text string) (*ChatTurn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, util.ErrEmptyMessage
	}

	path, err := s.paths.FindByID(userID, pathID)
	if err != nil {
		return nil, err
	}
	if path == nil {
		return nil, util.ErrPathNotFound
	}

	history, err := s.messages.ListByScope(pathID, moduleID)
	if err != nil {
		s.log.Warn("chat history load failed, answering without it",
			zap.String("path_id", pathID), zap.Error(err))
		history = nil
	}

	userMsg := model.ChatMessage{
		ID:        model.GenerateUUID(),
		PathID:    pathID,
		ModuleID:  moduleID,
		Role:      model.RoleUser,
		Text:      text,
		CreatedAt: time.Now(),
	}
	s.persistDetached(userMsg)

	chatCtx := s.buildContext(path, moduleID)

	turn := &ChatTurn{UserMessage: userMsg}
	reply, err := s.responder.Chat(ctx, history, text, chatCtx)
	if err != nil {
		s.log.Error("tutor call failed",
			zap.String("path_id", pathID),
			zap.String("module_id", moduleID),
			zap.Error(err))
		turn.Failed = true
		reply = chatErrorReply
	}

	modelMsg := model.ChatMessage{
		ID:        model.GenerateUUID(),
		PathID:    pathID,
		ModuleID:  moduleID,
		Role:      model.RoleModel,
		Text:      reply,
		CreatedAt: time.Now(),
	}
	if !turn.Failed {
		s.persistDetached(modelMsg)
	}
	turn.ModelMessage = modelMsg
	return turn, nil
}

// buildContext gathers whatever tutoring context is available. Missing
// module content is fine; the tutor just gets the syllabus.
func (s *ChatService) buildContext(path *model.LearningPath, moduleID string) *ChatContext {
	chatCtx := &ChatContext{PathSyllabus: path.Syllabus()}
	if moduleID == "" {
		return chatCtx
	}
	content, err := s.modules.Find(path.ID, moduleID)
	if err != nil {
		s.log.Debug("module content unavailable for chat context", zap.Error(err))
		return chatCtx
	}
	if content != nil {
		chatCtx.ModuleContent = content.Content
	}
	return chatCtx
}

// persistDetached writes a turn off the request path. Failures are logged
// and swallowed: chat history is a convenience, not a ledger.
func (s *ChatService) persistDetached(msg model.ChatMessage) {
	s.persistWG.Add(1)
	go func() {
		defer s.persistWG.Done()
		if err := s.messages.Append(&msg); err != nil {
			s.log.Error("chat message persist failed",
				zap.String("path_id", msg.PathID),
				zap.String("module_id", msg.ModuleID),
				zap.String("role", msg.Role),
				zap.Error(err))
		}
	}()
}

// Flush blocks until all detached persists have finished.
func (s *ChatService) Flush() {
	s.persistWG.Wait()
}
