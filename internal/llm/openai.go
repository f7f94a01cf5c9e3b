package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"policylens/internal/model"
)

// OpenAICollaborator implements Collaborator over any OpenAI-compatible
// chat completions endpoint (OpenAI itself, or a local Ollama server via
// BaseURL)
type OpenAICollaborator struct {
	client *openai.Client
	name   string
	config model.LLMConfig
}

// NewOpenAICollaborator creates a collaborator for an OpenAI-compatible
// endpoint
func NewOpenAICollaborator(name string, config model.LLMConfig) (*OpenAICollaborator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%s collaborator: API key is required", name)
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAICollaborator{
		client: openai.NewClientWithConfig(clientConfig),
		name:   name,
		config: config,
	}, nil
}

// Name returns the provider name
func (c *OpenAICollaborator) Name() string { return c.name }

// Model returns the configured model name
func (c *OpenAICollaborator) Model() string {
	if c.config.Model != "" {
		return c.config.Model
	}
	return openai.GPT4oMini
}

// IsAvailable checks the endpoint answers a lightweight call
func (c *OpenAICollaborator) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.config.CallTimeout())
	defer cancel()
	_, err := c.client.ListModels(ctx)
	return err == nil
}

// SameIssue judges whether two finding descriptions describe the same
// underlying issue
func (c *OpenAICollaborator) SameIssue(ctx context.Context, a, b string) (bool, error) {
	answer, err := c.complete(ctx, buildSameIssuePrompt(a, b), 8)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimRight(strings.TrimSpace(answer), ".!")) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	default:
		return false, fmt.Errorf("%s collaborator: unexpected same-issue answer %q", c.name, answer)
	}
}

// SuggestFindings reviews one chunk and parses the candidate array
func (c *OpenAICollaborator) SuggestFindings(ctx context.Context, req ChunkRequest) ([]CandidateFinding, error) {
	answer, err := c.complete(ctx, buildSuggestPrompt(req), c.maxTokens())
	if err != nil {
		return nil, err
	}

	var candidates []CandidateFinding
	if err := json.Unmarshal([]byte(stripFences(answer)), &candidates); err != nil {
		return nil, fmt.Errorf("%s collaborator: malformed candidate response: %w", c.name, err)
	}
	return candidates, nil
}

// complete runs one chat completion under the hard per-call timeout
func (c *OpenAICollaborator) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.CallTimeout())
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.Model(),
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a careful auditor of benefits-policy documents. You only report what the provided text supports.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("%s collaborator: %w", c.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s collaborator: empty response", c.name)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAICollaborator) maxTokens() int {
	if c.config.MaxTokens > 0 {
		return c.config.MaxTokens
	}
	return 1000
}
