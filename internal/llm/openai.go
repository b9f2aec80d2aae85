package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vantix/leads-engine/internal/model"
)

const refineSystemPrompt = `You write one-sentence observations about small businesses for cold outreach emails.
Given a business profile and a draft observation, rewrite the observation so it is specific, plain-spoken, and under 25 words.
Never invent facts not present in the profile. Reply with the sentence only.`

// OpenAIProvider refines insights through the OpenAI chat API
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAI-backed provider
func NewOpenAIProvider(cfg model.LLMConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Refine rewrites the lead's insight
func (p *OpenAIProvider) Refine(ctx context.Context, lead model.Lead) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0.4,
		MaxTokens:   80,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: refineSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: refinePrompt(lead)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	refined := strings.TrimSpace(resp.Choices[0].Message.Content)
	refined = strings.Trim(refined, `"`)
	if refined == "" {
		return "", fmt.Errorf("empty completion")
	}
	return refined, nil
}

func refinePrompt(lead model.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Business: %s\n", lead.CompanyName)
	if lead.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", lead.Industry)
	}
	if lead.City != "" {
		fmt.Fprintf(&b, "Location: %s, %s\n", lead.City, lead.State)
	}
	if lead.Website != "" {
		fmt.Fprintf(&b, "Website: %s\n", lead.Website)
	} else {
		b.WriteString("Website: none\n")
	}
	fmt.Fprintf(&b, "Draft observation: %s\n", lead.Insight)
	return b.String()
}
