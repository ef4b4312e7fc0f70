package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

// newStubProvider serves canned chat completion content from a local server.
func newStubProvider(t *testing.T, content string) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": content,
					},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode stub response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return NewOpenAIProviderWithLogger("test-key", srv.URL, "gpt-4o-mini", nil, false)
}

func TestGradeAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		content     string
		wantCorrect bool
		wantErr     bool
	}{
		{
			name:        "correct verdict",
			content:     `{"is_correct": true, "feedback": "Esatto!"}`,
			wantCorrect: true,
		},
		{
			name:        "incorrect verdict",
			content:     `{"is_correct": false, "feedback": "Non proprio."}`,
			wantCorrect: false,
		},
		{
			name:        "json wrapped in prose",
			content:     "Here is my verdict: {\"is_correct\": true, \"feedback\": \"ok\"} hope that helps",
			wantCorrect: true,
		},
		{
			name:    "missing verdict field is an error not incorrect",
			content: `{"feedback": "hmm"}`,
			wantErr: true,
		},
		{
			name:    "unparseable output",
			content: "I cannot grade this",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := newStubProvider(t, tt.content)
			eval, err := p.GradeAnswer(context.Background(), "What is dolus?", "Intent to commit the act", "intent")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("GradeAnswer: %v", err)
			}
			if eval.IsCorrect != tt.wantCorrect {
				t.Errorf("IsCorrect = %v, want %v", eval.IsCorrect, tt.wantCorrect)
			}
		})
	}
}

func TestGenerateFlashcards(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		document  string
		content   string
		wantCards int
		wantErr   bool
	}{
		{
			name:      "valid batch",
			document:  "Il dolo è l'intenzione di commettere il fatto.",
			content:   `{"flashcards":[{"question":"Q1","answer":"A1"},{"question":"Q2","answer":"A2"}]}`,
			wantCards: 2,
		},
		{
			name:      "blank drafts filtered out",
			document:  "some text",
			content:   `{"flashcards":[{"question":"Q1","answer":"A1"},{"question":"","answer":"A2"}]}`,
			wantCards: 1,
		},
		{
			name:     "empty batch is an error",
			document: "some text",
			content:  `{"flashcards":[]}`,
			wantErr:  true,
		},
		{
			name:     "unparseable batch is an error",
			document: "some text",
			content:  "not json at all",
			wantErr:  true,
		},
		{
			name:     "empty document rejected before any call",
			document: "   ",
			content:  `{"flashcards":[{"question":"Q","answer":"A"}]}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := newStubProvider(t, tt.content)
			drafts, err := p.GenerateFlashcards(context.Background(), tt.document)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("GenerateFlashcards: %v", err)
			}
			if len(drafts) != tt.wantCards {
				t.Errorf("got %d drafts, want %d", len(drafts), tt.wantCards)
			}
		})
	}
}

func TestGenerateFlashcardsTruncatesLongDocuments(t *testing.T) {
	t.Parallel()

	var gotPromptLen int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && len(req.Messages) > 0 {
			gotPromptLen = len(req.Messages[len(req.Messages)-1].Content)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"flashcards\":[{\"question\":\"Q\",\"answer\":\"A\"}]}"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProviderWithLogger("test-key", srv.URL, "gpt-4o-mini", nil, false)
	doc := strings.Repeat("a", MaxDocumentChars+5000)
	if _, err := p.GenerateFlashcards(context.Background(), doc); err != nil {
		t.Fatalf("GenerateFlashcards: %v", err)
	}
	if gotPromptLen == 0 || gotPromptLen > MaxDocumentChars+2000 {
		t.Errorf("prompt length = %d, document was not truncated", gotPromptLen)
	}
}

func TestGenerateFlashcardsTruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && len(req.Messages) > 0 {
			gotPrompt = req.Messages[len(req.Messages)-1].Content
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"flashcards\":[{\"question\":\"Q\",\"answer\":\"A\"}]}"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProviderWithLogger("test-key", srv.URL, "gpt-4o-mini", nil, false)
	// One ASCII byte followed by 3-byte runes puts every rune boundary at
	// 1+3k, so a byte-length cut at MaxDocumentChars lands mid-rune.
	doc := "a" + strings.Repeat("€", MaxDocumentChars/3+2000)
	if _, err := p.GenerateFlashcards(context.Background(), doc); err != nil {
		t.Fatalf("GenerateFlashcards: %v", err)
	}
	if gotPrompt == "" {
		t.Fatal("no prompt captured")
	}
	if !utf8.ValidString(gotPrompt) {
		t.Error("truncated document split a rune")
	}
}

func TestUnmarshalLenient(t *testing.T) {
	t.Parallel()

	var out struct {
		Feedback string `json:"feedback"`
	}
	if err := unmarshalLenient("```json\n{\"feedback\":\"ok\"}\n```", &out); err != nil {
		t.Fatalf("unmarshalLenient: %v", err)
	}
	if out.Feedback != "ok" {
		t.Errorf("feedback = %q", out.Feedback)
	}

	if err := unmarshalLenient("no braces here", &out); err == nil {
		t.Error("expected an error for content with no JSON object")
	}
}

func TestExtractAPIError(t *testing.T) {
	t.Parallel()

	err := errors.New(`POST "https://api.openai.com/v1/chat/completions": 429 {"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}`)
	apiErr := ExtractAPIError(err)
	if apiErr == nil {
		t.Fatal("expected an extracted API error")
	}
	if !apiErr.IsPermanent {
		t.Error("insufficient_quota should be permanent")
	}
	if !IsQuotaError(apiErr) {
		t.Error("IsQuotaError should report true")
	}
	if IsRateLimitError(apiErr) {
		t.Error("a quota error is not a retryable rate limit")
	}

	if ExtractAPIError(errors.New("connection refused")) != nil {
		t.Error("non-429 errors should not extract")
	}
}
