package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	analystPersona = "You are an AI-powered Market Research Analyst assistant. Your goal is to provide accurate, insightful, " +
		"and data-driven responses to questions about market trends, consumer behavior, industry analysis, and business strategy. "

	analystInstructions = "Please provide a comprehensive yet concise analysis with relevant data points when possible. Include recent trends, " +
		"important statistics, and actionable insights that would be valuable for business decision-making."
)

// Completer turns user text into a model answer.
type Completer interface {
	Complete(ctx context.Context, userText string) (string, error)
}

// ProviderError is returned for any failure of the completion provider.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return "Unexpected error occurred: " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error { return e.Err }

type LLMService struct {
	client    *genai.Client
	modelName string
	logger    *zap.Logger
}

func NewLLMService(ctx context.Context, apiKey, modelName string, logger *zap.Logger) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &LLMService{
		client:    client,
		modelName: modelName,
		logger:    logger,
	}, nil
}

func (s *LLMService) Close() {
	if s.client == nil {
		return
	}
	if err := s.client.Close(); err != nil {
		s.logger.Warn("error closing GenAI client", zap.Error(err))
		return
	}
	s.logger.Info("GenAI client closed")
}

// BuildPrompt embeds userText verbatim in the market research analyst template.
func BuildPrompt(userText string) string {
	return analystPersona +
		"Focus specifically on the following question:\n\n" + userText + "\n\n" +
		analystInstructions
}

func (s *LLMService) Complete(ctx context.Context, userText string) (string, error) {
	model := s.client.GenerativeModel(s.modelName)

	resp, err := model.GenerateContent(ctx, genai.Text(BuildPrompt(userText)))
	if err != nil {
		s.logger.Error("gemini request failed", zap.String("model", s.modelName), zap.Error(err))
		return "", &ProviderError{Err: err}
	}

	text, err := responseText(resp)
	if err != nil {
		s.logger.Error("gemini response unusable", zap.String("model", s.modelName), zap.Error(err))
		return "", &ProviderError{Err: err}
	}
	return text, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", errors.New("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("candidate has no content (finish reason %s)", candidate.FinishReason)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("response contained no text parts")
	}
	return b.String(), nil
}
