// Package extract turns raw tutorial content into a structured
// editorial with one AI completion.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"editorial-gateway/internal/editorial"
	"editorial-gateway/internal/llm"
)

// Tutorial posts cover whole contests; cap what we put in the prompt
// so a long multi-division editorial stays inside the model's window.
const maxPromptChars = 60_000

const systemPrompt = `You extract the editorial for one specific problem from a Codeforces tutorial post.
The post may cover many problems; only the requested one matters.
Respond with JSON only, no prose and no markdown fences, in this shape:
{"sections":[{"title":"...","content":"..."}]}
Use sections like "Approach", "Solution" and "Complexity" when the tutorial supports them.`

// Extractor asks the model for a structured editorial and validates
// what comes back. A response that cannot be decoded into at least one
// non-empty section is an extraction failure, never a silent success.
type Extractor struct {
	ai     llm.Client
	logger *zap.Logger
}

func NewExtractor(ai llm.Client, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		ai:     ai,
		logger: logger.Named("extractor"),
	}
}

// Extract produces the editorial for id out of content.
func (e *Extractor) Extract(ctx context.Context, content *editorial.TutorialContent, id editorial.ProblemIdentifier, problemTitle string) (*editorial.Editorial, error) {
	if content == nil || strings.TrimSpace(content.Body) == "" {
		return nil, editorial.E(editorial.KindExtraction, "no tutorial content to extract from")
	}

	body := content.Body
	if len(body) > maxPromptChars {
		// Back the cut off to a rune boundary; a split rune reaches
		// the model as U+FFFD.
		cut := maxPromptChars
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		e.logger.Debug("truncating tutorial body for prompt",
			zap.String("problem", id.String()),
			zap.Int("original_chars", len(body)),
			zap.Int("kept_chars", cut),
		)
		body = body[:cut]
	}

	req := &llm.ChatRequest{
		Messages: []llm.ChatMessage{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{
				Role: llm.RoleUser,
				Content: fmt.Sprintf("Problem %s: %s\n\nTutorial (%s) from %s:\n\n%s",
					id, problemTitle, content.Format, content.SourceURL, body),
			},
		},
		Temperature: 0,
		MaxTokens:   4096,
	}

	resp, err := e.ai.ChatCompletion(ctx, req)
	if err != nil {
		return nil, editorial.Wrap(editorial.KindExtraction,
			fmt.Sprintf("extraction model call for %s", id), err)
	}

	ed, err := decodeEditorial(resp.Text())
	if err != nil {
		e.logger.Warn("model returned undecodable editorial",
			zap.String("problem", id.String()),
			zap.Error(err),
		)
		return nil, editorial.Wrap(editorial.KindExtraction,
			fmt.Sprintf("decode model response for %s", id), err)
	}

	if err := ed.Validate(); err != nil {
		return nil, err
	}

	e.logger.Info("editorial extracted",
		zap.String("problem", id.String()),
		zap.Int("sections", len(ed.Sections)),
	)

	return ed, nil
}

// decodeEditorial parses the model answer. Models wrap JSON in
// markdown fences or lead with a sentence often enough that both are
// tolerated; everything else is an error.
func decodeEditorial(answer string) (*editorial.Editorial, error) {
	payload := stripFences(answer)

	// Last resort: cut out the outermost object.
	if !strings.HasPrefix(strings.TrimSpace(payload), "{") {
		start := strings.Index(payload, "{")
		end := strings.LastIndex(payload, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no JSON object in answer")
		}
		payload = payload[start : end+1]
	}

	var ed editorial.Editorial
	if err := json.Unmarshal([]byte(payload), &ed); err != nil {
		return nil, fmt.Errorf("unmarshal editorial: %w", err)
	}
	return &ed, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
