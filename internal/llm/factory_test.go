package llm

import (
	"strings"
	"testing"

	"policylens/internal/model"
)

func TestNewCollaborator(t *testing.T) {
	// Empty provider disables the collaborator entirely
	collab, err := NewCollaborator(model.LLMConfig{})
	if err != nil {
		t.Fatalf("disabled collaborator should not error: %v", err)
	}
	if collab != nil {
		t.Fatal("disabled collaborator must be nil")
	}

	// OpenAI requires a key
	if _, err := NewCollaborator(model.LLMConfig{Provider: "openai"}); err == nil {
		t.Error("openai without an API key must be rejected")
	}

	collab, err = NewCollaborator(model.LLMConfig{Provider: "openai", APIKey: "sk-test", Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if collab.Name() != "openai" || collab.Model() != "gpt-4o" {
		t.Errorf("unexpected identity: %s / %s", collab.Name(), collab.Model())
	}

	// Ollama needs neither a key nor a base URL
	collab, err = NewCollaborator(model.LLMConfig{Provider: "ollama", Model: "llama3"})
	if err != nil {
		t.Fatalf("ollama: %v", err)
	}
	if collab.Name() != "ollama" {
		t.Errorf("unexpected provider name: %s", collab.Name())
	}

	if _, err := NewCollaborator(model.LLMConfig{Provider: "anthropic"}); err == nil {
		t.Error("unknown providers must be rejected")
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct{ in, want string }{
		{`[{"type":"tariff"}]`, `[{"type":"tariff"}]`},
		{"```json\n[{\"type\":\"tariff\"}]\n```", `[{"type":"tariff"}]`},
		{"```\n[]\n```", `[]`},
		{"  \n[]\n  ", `[]`},
	}
	for _, tc := range cases {
		if got := stripFences(tc.in); got != tc.want {
			t.Errorf("stripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildPrompts(t *testing.T) {
	p := buildSameIssuePrompt("tariff varies for mri", "mri tariff differs")
	if !strings.Contains(p, "tariff varies for mri") || !strings.Contains(p, "mri tariff differs") {
		t.Error("same-issue prompt must embed both descriptions")
	}

	req := ChunkRequest{Page: 7, Text: "Hemodialysis covered 3 times per week.", Services: []string{"Hemodialysis"}}
	p = buildSuggestPrompt(req)
	if !strings.Contains(p, req.Text) {
		t.Error("suggest prompt must embed the chunk text")
	}
	if !strings.Contains(p, "Hemodialysis") {
		t.Error("suggest prompt must list the extracted services")
	}
}
