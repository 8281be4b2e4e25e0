package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"github.com/pkoukk/tiktoken-go"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

const (
	// passageBudget bounds the prompt passage in characters. Truncation
	// happens at sentence boundaries, never mid-sentence.
	passageBudget = 350

	// minStoryLength is the quality gate: a sanitized continuation at or
	// under this many characters is discarded for the fallback story.
	minStoryLength = 80

	// maxPromptTokens is a hard cap on generation input; the passage
	// budget keeps normal prompts far below it.
	maxPromptTokens = 512

	generationSeed    = 42
	temperature       = 0.9
	maxGenerateLength = 300
	minGenerateLength = 100
	repetitionPenalty = 1.2
)

// Source tells which tier produced a story. Callers get a uniform narrative
// string either way; the tier is kept visible for observability.
type Source string

const (
	SourceGenerated Source = "generated"
	SourceFallback  Source = "fallback"
)

// Story is the transformer's total result: Text is always non-empty and
// ends with terminal punctuation.
type Story struct {
	Text   string `json:"text"`
	Source Source `json:"source"`
}

// Transformer rewrites a chunk's raw text into reader-facing prose framed
// by the reader's primary interest. The generative model is shared,
// initialization-time state; calls are independent and safe to run
// concurrently. Transformation never fails: every generation error or
// rejected output falls back to deterministic templated prose.
type Transformer struct {
	model     llms.Model
	templates Templates
	tokenizer *sentences.DefaultSentenceTokenizer
	// encoder is optional; without it the prompt token guard is skipped
	// and only the character budget bounds the prompt.
	encoder *tiktoken.Tiktoken
	logger  *zap.Logger
}

// NewTransformer loads the sentence tokenizer and token encoder once and
// keeps the model by reference. Failure here is a startup failure, distinct
// from the always-recovered per-call generation failures.
func NewTransformer(model llms.Model, templates Templates, logger *zap.Logger) (*Transformer, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load sentence tokenizer: %w", err)
	}

	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to load token encoder: %w", err)
	}

	return &Transformer{
		model:     model,
		templates: templates,
		tokenizer: tokenizer,
		encoder:   encoder,
		logger:    logger,
	}, nil
}

// Transform turns a raw passage plus ranked interest tags into a story.
func (t *Transformer) Transform(ctx context.Context, text string, interests []string) Story {
	passage := t.normalizePassage(text)
	interest := t.templates.resolveInterest(interests)
	prompt := t.templates.buildPrompt(interest, passage)

	if t.encoder != nil {
		promptTokens := len(t.encoder.Encode(prompt, nil, nil))
		t.logger.Debug("story prompt built",
			zap.String("interest", interest),
			zap.Int("prompt_tokens", promptTokens))
		if promptTokens > maxPromptTokens {
			return Story{Text: t.fallbackStory(interest, prompt), Source: SourceFallback}
		}
	}

	raw, err := t.generate(ctx, prompt)
	if err != nil {
		t.logger.Warn("story generation failed", zap.Error(err))
		return Story{Text: t.fallbackStory(interest, prompt), Source: SourceFallback}
	}

	story := sanitize(stripPrompt(raw, prompt))
	if !acceptable(story) {
		t.logger.Debug("generated story rejected",
			zap.String("interest", interest),
			zap.Int("length", len(story)))
		return Story{Text: t.fallbackStory(interest, prompt), Source: SourceFallback}
	}

	return Story{Text: story, Source: SourceGenerated}
}

// generate invokes the model with fixed, seeded sampling settings so the
// same input reproduces the same output. A panicking model backend is
// converted to an error; no generation fault may escape Transform.
func (t *Transformer) generate(ctx context.Context, prompt string) (raw string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model panic: %v", r)
		}
	}()

	return llms.GenerateFromSinglePrompt(ctx, t.model, prompt,
		llms.WithSeed(generationSeed),
		llms.WithTemperature(temperature),
		llms.WithMaxLength(maxGenerateLength),
		llms.WithMinLength(minGenerateLength),
		llms.WithRepetitionPenalty(repetitionPenalty),
	)
}

// normalizePassage collapses whitespace and bounds the passage to the
// budget by greedily keeping whole sentences. When even the first sentence
// exceeds the budget, the cut falls back to the last word boundary under
// the budget; either way the truncated passage ends with an ellipsis.
func (t *Transformer) normalizePassage(text string) string {
	text = strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
	if len(text) <= passageBudget {
		return text
	}

	var kept []string
	total := 0
	for _, s := range t.tokenizer.Tokenize(text) {
		sentence := strings.TrimSpace(s.Text)
		if sentence == "" {
			continue
		}
		if total+len(sentence) >= passageBudget {
			break
		}
		kept = append(kept, sentence)
		total += len(sentence)
	}

	if len(kept) == 0 {
		cut := text[:passageBudget]
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
		return cut + "..."
	}
	return strings.Join(kept, " ") + "..."
}

// acceptable is the quality gate: generated prose must clear the minimum
// length and must not be a degenerate repetition loop.
func acceptable(story string) bool {
	if len(story) <= minStoryLength {
		return false
	}
	return !degenerate(story)
}

// degenerate reports whether the text is dominated by one repeating word
// pair, the looping failure mode a no-repeat-ngram constraint would
// otherwise prevent at sampling time.
func degenerate(text string) bool {
	words := strings.Fields(strings.ToLower(text))
	if len(words) < 8 {
		return false
	}

	pairs := make(map[string]int)
	for i := 0; i+1 < len(words); i++ {
		pairs[words[i]+" "+words[i+1]]++
	}
	for _, count := range pairs {
		if count*3 >= len(words) {
			return true
		}
	}
	return false
}

// fallbackStory builds the deterministic tier: the passage recovered from
// the prompt, restated inside the interest's fixed wrapper. If the passage
// cannot be recovered, the terminal placeholder is returned. This path
// never fails.
func (t *Transformer) fallbackStory(interest, prompt string) string {
	passage := passageFromPrompt(prompt)
	if passage == "" {
		return pendingStory
	}
	return fmt.Sprintf(t.templates.fallbackFor(interest), passage)
}
