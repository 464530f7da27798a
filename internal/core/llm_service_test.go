package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestBuildPrompt(t *testing.T) {
	question := "  What is the EV market outlook?\n"
	prompt := BuildPrompt(question)

	if !strings.HasPrefix(prompt, "You are an AI-powered Market Research Analyst assistant.") {
		t.Fatalf("prompt must start with the analyst persona: %q", prompt)
	}
	if !strings.Contains(prompt, "\n\n"+question+"\n\n") {
		t.Fatal("user text must be embedded verbatim")
	}
	for _, want := range []string{"recent trends", "important statistics", "actionable insights"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
	if strings.Index(prompt, question) > strings.Index(prompt, "actionable insights") {
		t.Fatal("instructions must follow the user text")
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Growing "), genai.Text("20% YoY")}},
		}},
	}
	got, err := responseText(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Growing 20% YoY" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestResponseText_Failures(t *testing.T) {
	cases := map[string]*genai.GenerateContentResponse{
		"nil":           nil,
		"no candidates": {},
		"blocked": {
			PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety},
		},
		"no content": {Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}},
		"no text parts": {Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png", Data: []byte{1}}}},
		}}},
	}
	for name, resp := range cases {
		if _, err := responseText(resp); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestProviderError(t *testing.T) {
	cause := errors.New("network down")
	err := &ProviderError{Err: cause}
	if err.Error() != "Unexpected error occurred: network down" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected ProviderError to unwrap to cause")
	}
}
