// Package anthropic implements the NLU collaborators (intent classifier,
// entity extractor, education replies) as strict-JSON calls to the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kneez/intake/internal/logging"
	"github.com/kneez/intake/pkg/domain"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-3-5-haiku-latest"

const intentSystemPrompt = `You are a routing classifier for a knee-pain intake assistant. Decide the user's intent from their first message and output a single JSON object: {"intent":"<value>"}. No other keys, no explanations.

Decision rules, first match wins:
1. red_flag - any red-flag symptoms (major trauma, audible pop with immediate swelling and inability to bear weight, severe deformity, fever with a hot/red joint, suspected infection, calf swelling with shortness of breath, numbness with loss of bladder/bowel control).
2. acute_relief - the user reports knee symptoms during a specific activity and wants immediate relief.
3. rehab_request - the user asks for stretching, mobility or strengthening plans, long-term fixes, rehab programs, or prevention.
4. general_education - curiosity or learning questions about knee anatomy, causes, diagnoses, imaging or timelines, without asking for a symptom fix.
5. out_of_scope - not about knees, or unrelated.

Allowed values: "red_flag", "acute_relief", "rehab_request", "general_education", "out_of_scope".`

const entitySystemPrompt = `You are an expert knee pain intake assistant. Read the user's message describing knee symptoms and extract these fields as strict JSON:
- symptom_side: "left", "right", "both", or "unsure" if not clearly stated.
- symptom_description: array of short phrases describing symptoms (e.g. ["sharp pain", "stiff", "popping"]).
- symptom_location: concise description of where on/around the knee (e.g. "behind right kneecap").
- trigger_activity: array of activities that trigger or worsen pain (e.g. ["running", "deep squats"]).
- missing_fields: every field name where information is missing, ambiguous, or conflicting.

Do NOT invent details the user did not imply. If the user does not mention side, use "unsure" and mark "symptom_side" missing. Return only the JSON object.`

const educationSystemPrompt = `You are a friendly knee-health educator. Answer the user's question about knee anatomy, symptoms, or general knee care in plain language, in a few short paragraphs. Do not diagnose and do not prescribe treatment; suggest seeing a clinician for anything personal or urgent.`

// Messager is the slice of the Anthropic client the adapter needs; tests
// substitute a fake.
type Messager interface {
	New(ctx context.Context, params sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Client implements ports.IntentClassifier, ports.EntityExtractor and
// ports.EducationService.
type Client struct {
	messages Messager
	model    string
	logger   *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client talking to the Anthropic API.
func New(apiKey, model string, opts ...Option) *Client {
	api := sdk.NewClient(option.WithAPIKey(apiKey))
	return NewFromMessager(&api.Messages, model, opts...)
}

// NewFromMessager wires the adapter over any Messager implementation.
func NewFromMessager(m Messager, model string, opts ...Option) *Client {
	if model == "" {
		model = DefaultModel
	}
	c := &Client{
		messages: m,
		model:    model,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify resolves the routing intent of the user's first message.
func (c *Client) Classify(ctx context.Context, message string) (domain.UserIntent, error) {
	prompt := "Classify the user's intent for routing. Return only the JSON object with intent.\n\nUser message:\n" + message

	raw, err := c.complete(ctx, intentSystemPrompt, []sdk.MessageParam{
		sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
	})
	if err != nil {
		return "", &domain.UpstreamError{Service: "classifier", Err: err}
	}

	var parsed struct {
		Intent domain.UserIntent `json:"intent"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		c.logger.Debug("classifier returned non-JSON output", "raw", raw)
		return "", &domain.UpstreamError{Service: "classifier", RawPayload: raw, Err: err}
	}
	if !parsed.Intent.Valid() {
		return "", &domain.UpstreamError{
			Service:    "classifier",
			RawPayload: raw,
			Err:        fmt.Errorf("intent %q outside the closed taxonomy", parsed.Intent),
		}
	}
	return parsed.Intent, nil
}

// Extract turns the message into a normalized entity snapshot. The
// previous snapshot is provided as context only; merging stays with the
// engine.
func (c *Client) Extract(ctx context.Context, message string, previous *domain.SymptomEntities) (domain.SymptomEntities, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "User message: %q", message)
	if previous != nil {
		prevJSON, err := json.Marshal(previous)
		if err == nil {
			fmt.Fprintf(&sb, "\n\nPreviously known entities (context only, do not merge): %s", prevJSON)
		}
	}

	raw, err := c.complete(ctx, entitySystemPrompt, []sdk.MessageParam{
		sdk.NewUserMessage(sdk.NewTextBlock(sb.String())),
	})
	if err != nil {
		return domain.SymptomEntities{}, &domain.UpstreamError{Service: "extractor", Err: err}
	}

	var parsed domain.SymptomEntities
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		c.logger.Debug("extractor returned non-JSON output", "raw", raw)
		return domain.SymptomEntities{}, &domain.UpstreamError{Service: "extractor", RawPayload: raw, Err: err}
	}
	return domain.NormalizeEntities(parsed), nil
}

// Healthy reports whether the adapter is wired with a usable client.
func (c *Client) Healthy(ctx context.Context) bool {
	return c != nil && c.messages != nil
}

// Reply produces an educational answer, returned to the user verbatim.
func (c *Client) Reply(ctx context.Context, message string, history []domain.ChatTurn) (string, error) {
	params := make([]sdk.MessageParam, 0, len(history)+1)
	for _, turn := range history {
		if turn.From == "user" {
			params = append(params, sdk.NewUserMessage(sdk.NewTextBlock(turn.Text)))
		} else {
			params = append(params, sdk.NewAssistantMessage(sdk.NewTextBlock(turn.Text)))
		}
	}
	params = append(params, sdk.NewUserMessage(sdk.NewTextBlock(message)))

	reply, err := c.complete(ctx, educationSystemPrompt, params)
	if err != nil {
		return "", &domain.UpstreamError{Service: "education", Err: err}
	}
	if strings.TrimSpace(reply) == "" {
		return "", &domain.UpstreamError{
			Service: "education",
			Err:     fmt.Errorf("empty reply"),
		}
	}
	return reply, nil
}

func (c *Client) complete(ctx context.Context, system string, messages []sdk.MessageParam) (string, error) {
	resp, err := c.messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(c.model),
		MaxTokens:   1024,
		System:      []sdk.TextBlockParam{{Text: system}},
		Messages:    messages,
		Temperature: sdk.Float(0),
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// stripFences removes a markdown code fence around a JSON payload, which
// models occasionally add despite instructions.
func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
