package llm

import (
	"fmt"
	"strings"

	"policylens/internal/model"
)

// NewCollaborator creates a collaborator from configuration. An empty
// provider disables the collaborator and returns (nil, nil); the
// pipeline must treat a nil collaborator as "deterministic only".
func NewCollaborator(config model.LLMConfig) (Collaborator, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAICollaborator("openai", config)

	case "ollama":
		// Ollama speaks the OpenAI chat API; it needs a base URL, not
		// a real key.
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434/v1"
		}
		if config.APIKey == "" {
			config.APIKey = "ollama"
		}
		return NewOpenAICollaborator("ollama", config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown collaborator provider: %s (supported: openai, ollama)", config.Provider)
	}
}
