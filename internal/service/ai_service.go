package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cognipath_backend/internal/config"
	"cognipath_backend/internal/model"
	"cognipath_backend/internal/util"
	"cognipath_backend/pkg/monitoring"
)

const pathGeneratorPrompt = `You are an expert curriculum designer.
Output Format: JSON only. Structure MUST match:
{
    "studentName": "String",
    "title": "String (A short, catchy title for this specific learning path)",
    "overallGoal": "String",
    "estimatedCompletionWeeks": Number,
    "modules": [ { "id": "1", "title": "...", "duration": "...", "difficulty": "Beginner|Intermediate|Advanced", "topics": [], "description": "..." } ]
}`

const lessonGeneratorPrompt = `You are a world-class dedicated tutor.
Your goal is to write a comprehensive, engaging, and detailed lesson based on the provided topic.

**Lesson Structure (Markdown):**
# [Lesson Title]

## 1. Introduction
- What is this? Why is it important?
- Real-world analogy.

## 2. Core Concepts (Deep Dive)
- Explain the technical details clearly.
- Use LaTeX for math if needed (e.g., $E=mc^2$).

## 3. Practical Examples (Code/Usage)
- Provide code snippets or concrete usage examples.

## 4. Interactive Exercise (Challenge)
- A small problem for the student to solve (do not provide the solution here, just the problem).

**Tone:** Encouraging, professional, yet easy to understand.`

const hierarchicalChatPrompt = `You are CogniPath AI, a Socratic Tutor.
You have access to the following context levels:
1. **CURRENT MODULE**: The specific lesson the student is reading right now.
2. **PATH SYLLABUS**: The overall course structure.

**INSTRUCTIONS:**
- Answer based on the **Current Module** content FIRST.
- If the question relates to previous modules, use **Path Syllabus** context.
- If the question is General Knowledge but relevant, answer it.
- If the question is TOTALLY IRRELEVANT, politely refuse and steer back to the lesson.

**STYLE:**
- Socratic Method: Ask guiding questions when appropriate.
- Be concise but helpful.`

// AIService talks to an OpenAI-compatible chat-completions endpoint and
// turns its answers into domain objects.
type AIService struct {
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model    string          `json:"model"`
	Messages []AIChatMessage `json:"messages"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (s *AIService) complete(ctx context.Context, modelName string, messages []AIChatMessage) (string, error) {
	reqBody := ChatCompletionRequest{
		Model:    modelName,
		Messages: messages,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		// Surface the provider's own message when it sends one.
		var failure ChatCompletionResponse
		if json.Unmarshal(body, &failure) == nil && failure.Error != nil && failure.Error.Message != "" {
			return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, failure.Error.Message)
		}
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}

	if len(result.Choices) > 0 {
		return result.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("AI returned no choices")
}

// Attachment is one uploaded document passed along with a generation
// request.
type Attachment struct {
	Name string
	Data []byte
}

type GeneratePathRequest struct {
	Name        string
	Goal        string
	Level       string
	Attachments []Attachment
}

// pathPayload mirrors the JSON the path generator prompt demands.
type pathPayload struct {
	StudentName              string `json:"studentName"`
	Title                    string `json:"title"`
	OverallGoal              string `json:"overallGoal"`
	EstimatedCompletionWeeks int    `json:"estimatedCompletionWeeks"`
	Modules                  []struct {
		ID          string   `json:"id"`
		Title       string   `json:"title"`
		Duration    string   `json:"duration"`
		Difficulty  string   `json:"difficulty"`
		Topics      []string `json:"topics"`
		Description string   `json:"description"`
	} `json:"modules"`
}

// GeneratePath asks the reasoning model for a full curriculum tailored to
// the student's goal and any uploaded context documents.
func (s *AIService) GeneratePath(ctx context.Context, req GeneratePathRequest) (*model.LearningPath, error) {
	defer monitoring.ObserveGeneration("generate_path", time.Now())

	var contextText strings.Builder
	if len(req.Attachments) > 0 {
		contextText.WriteString("\n\nCONTEXT FROM UPLOADED FILES:\n")
		for _, att := range req.Attachments {
			fmt.Fprintf(&contextText, "\n--- Start of %s ---\n%s\n--- End of %s ---\n",
				att.Name, util.ExtractText(att.Name, att.Data), att.Name)
		}
	}

	userPrompt := fmt.Sprintf(`Create a learning path for:
Student Name: %s
Goal: %s
Current Level: %s
%s
Tailor this specific curriculum to help the user achieve their goal: %s.
Adjust difficulty and module topics accordingly to meet this specific mission.
If context files are provided, YOU MUST incorporate their content into the learning path modules and topics.
Refer to specific concepts found in the documents.`,
		req.Name, req.Goal, req.Level, contextText.String(), req.Goal)

	raw, err := s.complete(ctx, s.config.ReasoningModel, []AIChatMessage{
		{Role: "system", Content: pathGeneratorPrompt},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		return nil, err
	}

	var payload pathPayload
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		return nil, fmt.Errorf("malformed path from generator: %w", err)
	}
	if len(payload.Modules) == 0 {
		return nil, fmt.Errorf("generator returned a path with no modules")
	}

	path := &model.LearningPath{
		StudentName:              payload.StudentName,
		Title:                    payload.Title,
		OverallGoal:              payload.OverallGoal,
		EstimatedCompletionWeeks: payload.EstimatedCompletionWeeks,
		Level:                    req.Level,
	}
	for i, m := range payload.Modules {
		id := m.ID
		if id == "" {
			id = fmt.Sprintf("%d", i+1)
		}
		path.Modules = append(path.Modules, model.LearningModule{
			ID:          id,
			Position:    i,
			Title:       m.Title,
			Duration:    m.Duration,
			Difficulty:  m.Difficulty,
			Topics:      m.Topics,
			Description: m.Description,
		})
	}
	return path, nil
}

// GenerateLesson writes the markdown body for one module.
func (s *AIService) GenerateLesson(ctx context.Context, topic, description, userGoal string) (string, error) {
	defer monitoring.ObserveGeneration("generate_lesson", time.Now())

	prompt := fmt.Sprintf(`Topic: %s
Description: %s
User Context/Goal: %s

Write the full lesson content now.`, topic, description, userGoal)

	return s.complete(ctx, s.config.ReasoningModel, []AIChatMessage{
		{Role: "system", Content: lessonGeneratorPrompt},
		{Role: "user", Content: prompt},
	})
}

// RegenerateLesson rewrites a lesson taking the student's feedback into
// account. Callers enforce that feedback is non-empty before reaching here.
func (s *AIService) RegenerateLesson(ctx context.Context, topic, description, userGoal string, feedback []string) (string, error) {
	defer monitoring.ObserveGeneration("regenerate_lesson", time.Now())

	prompt := fmt.Sprintf(`Topic: %s
Description: %s
User Context/Goal: %s

The student was not satisfied with the previous version of this lesson.
Their feedback:
- %s

Rewrite the full lesson content now, addressing every feedback point.`,
		topic, description, userGoal, strings.Join(feedback, "\n- "))

	return s.complete(ctx, s.config.ReasoningModel, []AIChatMessage{
		{Role: "system", Content: lessonGeneratorPrompt},
		{Role: "user", Content: prompt},
	})
}

// ChatContext carries the hierarchical context injected into module-scope
// conversations. Path-scope chats send none.
type ChatContext struct {
	ModuleContent string
	PathSyllabus  []string
}

const maxModuleContextChars = 20000

// Chat answers one turn. The call is stateless: the caller supplies the
// full relevant history every time.
func (s *AIService) Chat(ctx context.Context, history []model.ChatMessage, message string, chatCtx *ChatContext) (string, error) {
	system := hierarchicalChatPrompt
	if chatCtx != nil {
		if chatCtx.ModuleContent != "" {
			content := chatCtx.ModuleContent
			if len(content) > maxModuleContextChars {
				content = content[:maxModuleContextChars] + "..."
			}
			system += "\n\n--- CURRENT MODULE CONTENT ---\n" + content
		}
		if len(chatCtx.PathSyllabus) > 0 {
			system += "\n\n--- PATH SYLLABUS ---\n" + strings.Join(chatCtx.PathSyllabus, "\n")
		}
	}

	messages := []AIChatMessage{{Role: "system", Content: system}}
	for _, h := range history {
		role := "assistant"
		if h.Role == model.RoleUser {
			role = "user"
		}
		messages = append(messages, AIChatMessage{Role: role, Content: h.Text})
	}
	messages = append(messages, AIChatMessage{Role: "user", Content: message})

	return s.complete(ctx, s.config.ChatModel, messages)
}

// stripCodeFence unwraps a fenced ```json block when the model ignores the
// JSON-only instruction.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if idx := strings.Index(trimmed, "```json"); idx >= 0 {
		trimmed = trimmed[idx+len("```json"):]
	} else if idx := strings.Index(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[idx+3:]
	} else {
		return trimmed
	}
	if end := strings.Index(trimmed, "```"); end >= 0 {
		trimmed = trimmed[:end]
	}
	return strings.TrimSpace(trimmed)
}
