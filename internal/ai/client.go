package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// ErrDisabled is returned when no API credential is configured.
var ErrDisabled = errors.New("ai client disabled: no API key configured")

// GeneratedQuestion is the structured output of a generation call.
type GeneratedQuestion struct {
	QuestionText   string `json:"question_text"`
	ExpectedAnswer string `json:"expected_answer"`
	SampleAnswer   string `json:"sample_answer"`
	WordLimit      int    `json:"word_limit"`
}

// EvalVerdict is the structured output of an evaluation call.
type EvalVerdict struct {
	IsCorrect bool    `json:"is_correct"`
	Score     float64 `json:"score"`
	MaxScore  float64 `json:"max_score"`
	Feedback  string  `json:"feedback"`
}

// GenerationSpec carries everything the generation prompt needs.
type GenerationSpec struct {
	CourseTitle string
	Topic       string
	Difficulty  string
	MinWords    int
	MaxWords    int
	PromptNotes string
}

// EvaluationSpec carries everything the evaluation prompt needs.
type EvaluationSpec struct {
	QuestionText    string
	ExpectedAnswer  string
	StudentAnswer   string
	MaxScore        float64
	GradingGuidance string
	PromptNotes     string
}

// Client wraps an OpenAI-compatible API client. A zero-credential client is
// valid but disabled; callers are expected to fall back deterministically.
type Client struct {
	api     *openai.Client
	model   string
	enabled bool
}

// New creates a new AI client. An empty apiKey yields a disabled client.
func New(apiKey, baseURL, modelName string) *Client {
	if apiKey == "" {
		return &Client{enabled: false}
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   modelName,
		enabled: true,
	}
}

// Enabled reports whether the client has a credential.
func (c *Client) Enabled() bool {
	return c.enabled
}

// GenerateQuestion asks the model for one structured question. Exactly one
// attempt is made; any failure is the caller's cue to fall back.
func (c *Client) GenerateQuestion(ctx context.Context, spec GenerationSpec) (*GeneratedQuestion, error) {
	if !c.enabled {
		return nil, ErrDisabled
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildGenerationSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: buildGenerationPrompt(spec)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("generation API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("generation returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	var q GeneratedQuestion
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return nil, fmt.Errorf("parse generation response: %w (raw: %s)", err, raw)
	}
	if q.QuestionText == "" || q.ExpectedAnswer == "" {
		return nil, errors.New("generation returned incomplete question")
	}
	return &q, nil
}

// EvaluateAnswer asks the model for a structured verdict on one answer.
// Exactly one attempt; the caller clamps the score and applies fallbacks.
func (c *Client) EvaluateAnswer(ctx context.Context, spec EvaluationSpec) (*EvalVerdict, error) {
	if !c.enabled {
		return nil, ErrDisabled
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildEvaluationSystemPrompt(spec)},
			{Role: openai.ChatMessageRoleUser, Content: spec.StudentAnswer},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluation API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("evaluation returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	var v EvalVerdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("parse evaluation response: %w (raw: %s)", err, raw)
	}
	return &v, nil
}
