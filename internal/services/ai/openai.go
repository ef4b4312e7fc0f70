package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/teomarche/study-garden/internal/models"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 60 * time.Second

	// DefaultCardsPerDocument is how many flashcards a generation run asks for
	DefaultCardsPerDocument = 10
	// MaxDocumentChars caps how much document text goes into the prompt
	MaxDocumentChars = 48000

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// ErrNoVerdict is returned when the model's grading output carries no
// usable correctness verdict.
var ErrNoVerdict = errors.New("grading response carried no verdict")

// OpenAIProvider implements the Provider interface using OpenAI's API
type OpenAIProvider struct {
	client    openai.Client
	model     string
	cardCount int
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		cardCount: DefaultCardsPerDocument,
		logger:    logger,
		debugMode: debugMode,
	}
}

// GradeAnswer asks the model to judge userAnswer against the card. The
// verdict field is a pointer so a response that parses but omits it is
// surfaced as a failure instead of defaulting to incorrect.
func (p *OpenAIProvider) GradeAnswer(ctx context.Context, question, canonicalAnswer, userAnswer string) (*models.Evaluation, error) {
	prompt := buildGradingPrompt(question, canonicalAnswer, userAnswer)
	content, err := p.completeJSON(ctx, "grade_answer", gradingSystemMessage, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to grade answer: %w", err)
	}

	var verdict struct {
		IsCorrect *bool  `json:"is_correct"`
		Feedback  string `json:"feedback"`
	}
	if err := unmarshalLenient(content, &verdict); err != nil {
		return nil, fmt.Errorf("failed to parse grading response: %w", err)
	}
	if verdict.IsCorrect == nil {
		return nil, ErrNoVerdict
	}

	return &models.Evaluation{
		IsCorrect: *verdict.IsCorrect,
		Feedback:  strings.TrimSpace(verdict.Feedback),
	}, nil
}

// GenerateFlashcards extracts question/answer drafts from document text.
func (p *OpenAIProvider) GenerateFlashcards(ctx context.Context, documentText string) ([]models.FlashcardDraft, error) {
	documentText = strings.TrimSpace(documentText)
	if documentText == "" {
		return nil, errors.New("document has no extractable text")
	}
	if len(documentText) > MaxDocumentChars {
		cut := MaxDocumentChars
		for cut > 0 && !utf8.RuneStart(documentText[cut]) {
			cut--
		}
		documentText = documentText[:cut]
	}

	prompt := buildGenerationPrompt(documentText, p.cardCount)
	content, err := p.completeJSON(ctx, "generate_flashcards", generationSystemMessage, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate flashcards: %w", err)
	}

	var batch struct {
		Flashcards []models.FlashcardDraft `json:"flashcards"`
	}
	if err := unmarshalLenient(content, &batch); err != nil {
		return nil, fmt.Errorf("failed to parse generation response: %w", err)
	}

	drafts := make([]models.FlashcardDraft, 0, len(batch.Flashcards))
	for _, d := range batch.Flashcards {
		d.Question = strings.TrimSpace(d.Question)
		d.Answer = strings.TrimSpace(d.Answer)
		if d.Question == "" || d.Answer == "" {
			continue
		}
		drafts = append(drafts, d)
	}
	if len(drafts) == 0 {
		return nil, errors.New("generation produced no usable flashcards")
	}

	return drafts, nil
}

// completeJSON sends one chat completion with JSON response format and
// returns the raw content, with debug-mode request/response logging.
func (p *OpenAIProvider) completeJSON(ctx context.Context, operation, system, prompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(system),
		openai.UserMessage(prompt),
	}
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	requestID := ExtractRequestID(ctx)
	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", operation),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", apiErr
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content
	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	return content, nil
}

// unmarshalLenient parses model output as JSON, falling back to the slice
// between the first "{" and the last "}" when the model wrapped the object
// in prose or a markdown fence.
func unmarshalLenient(content string, v any) error {
	raw := content
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end <= start {
			return err
		}
		return json.Unmarshal([]byte(raw[start:end+1]), v)
	}
	return nil
}

const gradingSystemMessage = "You are a strict but encouraging study tutor " +
	"that grades flashcard answers. Respond with valid JSON only."

const generationSystemMessage = "You are an assistant that turns study " +
	"material into flashcards. Respond with valid JSON only."

func buildGradingPrompt(question, canonicalAnswer, userAnswer string) string {
	return fmt.Sprintf(`Grade the student's answer to a flashcard.

Question: %q
Reference answer: %q
Student's answer: %q

Judge whether the student's answer expresses the same concept as the
reference answer. Ignore typos, phrasing and word order. A terse
confirmation (for example "yes" or "si") counts as correct when the
question asks for a confirmation and the reference answer affirms it.
Do not require wording from the reference answer to appear verbatim.

Respond with a JSON object in this format:
{
  "is_correct": true | false,
  "feedback": "one or two short sentences for the student"
}

The feedback should encourage on a correct answer and, on an incorrect
one, briefly state what the reference answer says. Return only valid JSON.`,
		question, canonicalAnswer, userAnswer)
}

func buildGenerationPrompt(documentText string, count int) string {
	return fmt.Sprintf(`Create exactly %d flashcards from the study material
below. Each flashcard is one focused question with a concise answer found in
the material. Cover the material's most important concepts; do not invent
facts that are not in it. Write the flashcards in the same language as the
material.

Respond with a JSON object in this format:
{
  "flashcards": [
    {"question": "...", "answer": "..."}
  ]
}

Return only valid JSON.

Study material:
%s`, count, documentText)
}
