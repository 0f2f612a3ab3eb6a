package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/capitalize-ai/support-chat/internal/llm"
)

const llmSystemPrompt = `You classify messages sent to the support chat of an online shirt store.
Answer with one JSON object and nothing else: {"intent": "<intent>", "entities": {"<type>": "<value>"}}.
Allowed intents: %s. Use "%s" when none fits.
If the message contains an order number (for example ORD-1001), add it as the "order_number" entity exactly as written.`

type llmClassification struct {
	Intent   string         `json:"intent"`
	Entities map[string]any `json:"entities"`
}

// LLMClassifier classifies text by prompting a chat completion model.
type LLMClassifier struct {
	client  llm.Client
	model   string
	intents map[string]bool
	prompt  string
}

// NewLLMClassifier creates a classifier limited to intents.
func NewLLMClassifier(client llm.Client, model string, intents []string) *LLMClassifier {
	allowed := make(map[string]bool, len(intents))
	for _, intent := range intents {
		allowed[intent] = true
	}
	return &LLMClassifier{
		client:  client,
		model:   model,
		intents: allowed,
		prompt:  fmt.Sprintf(llmSystemPrompt, strings.Join(intents, ", "), FallbackIntent),
	}
}

// Parse asks the model for an intent. Intents outside the allowed set become
// the fallback intent.
func (c *LLMClassifier) Parse(ctx context.Context, text string) (Classification, error) {
	resp, err := c.client.Complete(ctx, &llm.CompletionRequest{
		Model:     c.model,
		System:    c.prompt,
		Messages:  []llm.ChatMessage{{Role: "user", Content: text}},
		MaxTokens: 200,
		JSON:      true,
	})
	if err != nil {
		return Classification{}, fmt.Errorf("%s completion failed: %w: %w", c.client.Name(), ErrUpstream, err)
	}

	raw, ok := extractJSONObject(resp.Content)
	if !ok {
		return Classification{}, fmt.Errorf("%s returned no JSON object: %w", c.client.Name(), ErrUpstream)
	}
	var out llmClassification
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Classification{}, fmt.Errorf("decode %s classification: %w: %w", c.client.Name(), ErrUpstream, err)
	}

	cls := Classification{
		Intent:   strings.TrimSpace(out.Intent),
		Entities: make(map[string]string, len(out.Entities)),
	}
	if !c.intents[cls.Intent] {
		cls.Intent = FallbackIntent
	}
	for k, v := range out.Entities {
		if v == nil {
			continue
		}
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			cls.Entities[k] = s
		}
	}
	return cls, nil
}

// extractJSONObject trims prose or code fences around the first JSON object.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}
