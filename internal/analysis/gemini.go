package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ariel-frischer/changecast/internal/gemini"
)

// Analyzer turns digest text into a Result.
type Analyzer interface {
	Analyze(ctx context.Context, digest string) (*Result, error)
}

const systemPrompt = `You analyze software changelogs for developers who use the tool daily.
Respond with a single JSON object with exactly these fields:
{
  "tldr": string, one or two sentences,
  "categories": {
    "critical_breaking_changes": [string],
    "removals": [{"feature": string, "severity": "critical"|"high"|"medium"|"low", "why": string}],
    "major_features": [string],
    "important_fixes": [string],
    "new_slash_commands": [string],
    "terminal_improvements": [string],
    "api_changes": [string]
  },
  "action_items": [string],
  "sentiment": "positive"|"neutral"|"critical"
}
Use empty arrays for empty categories. Do not wrap the JSON in markdown.`

// GeminiAnalyzer asks a Gemini model for JSON output.
type GeminiAnalyzer struct {
	client *gemini.Client
	model  string
}

// NewGeminiAnalyzer returns an analyzer using model.
func NewGeminiAnalyzer(client *gemini.Client, model string) *GeminiAnalyzer {
	return &GeminiAnalyzer{client: client, model: model}
}

// Analyze sends digest to the model and validates the returned JSON.
func (g *GeminiAnalyzer) Analyze(ctx context.Context, digest string) (*Result, error) {
	temperature := 0.2
	resp, err := g.client.Generate(ctx, g.model, gemini.Request{
		SystemInstruction: &gemini.Content{Parts: []gemini.Part{{Text: systemPrompt}}},
		Contents: []gemini.Content{{
			Role:  "user",
			Parts: []gemini.Part{{Text: "Analyze these changelog entries:\n\n" + digest}},
		}},
		GenerationConfig: &gemini.GenerationConfig{
			Temperature:      &temperature,
			ResponseMimeType: "application/json",
		},
	})
	if err != nil {
		return nil, err
	}
	return decodeResult(resp.Text())
}

// decodeResult parses model output, tolerating a markdown code fence.
func decodeResult(text string) (*Result, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var result Result
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &result); err != nil {
		return nil, fmt.Errorf("decode analysis json: %w", err)
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}
