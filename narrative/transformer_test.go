package narrative

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/neurosnap/sentences/english"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

type fakeModel struct {
	continuation string
	echoPrompt   bool
	err          error
	panics       bool
	lastPrompt   string
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.panics {
		panic("model backend exploded")
	}
	if m.err != nil {
		return nil, m.err
	}

	prompt := ""
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if tc, ok := messages[0].Parts[0].(llms.TextContent); ok {
			prompt = tc.Text
		}
	}
	m.lastPrompt = prompt

	out := m.continuation
	if m.echoPrompt {
		out = prompt + " " + m.continuation
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: out}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

// newTestTransformer builds a transformer without the tiktoken encoder so
// tests stay offline.
func newTestTransformer(t *testing.T, model llms.Model) *Transformer {
	t.Helper()
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		t.Fatalf("load sentence tokenizer: %v", err)
	}
	return &Transformer{
		model:     model,
		templates: DefaultTemplates(),
		tokenizer: tokenizer,
		logger:    zap.NewNop(),
	}
}

func endsWithTerminalPunctuation(s string) bool {
	last, _ := utf8.DecodeLastRuneInString(s)
	return strings.ContainsRune(terminalPunctuation, last)
}

const passage = "The startup secured fifty million in funding after demonstrating four hundred percent user growth through its matching platform."

func TestTransform_GeneratedStory(t *testing.T) {
	continuation := "What followed was a remarkable chapter in the company's history, one where every decision compounded into lasting momentum for the whole team"
	model := &fakeModel{continuation: continuation, echoPrompt: true}

	tr := newTestTransformer(t, model)
	story := tr.Transform(context.Background(), passage, []string{"business"})

	if story.Source != SourceGenerated {
		t.Fatalf("expected generated story, got %s: %q", story.Source, story.Text)
	}
	if strings.Contains(story.Text, "Share an inspiring business success story") {
		t.Errorf("prompt echo not stripped: %q", story.Text)
	}
	if !endsWithTerminalPunctuation(story.Text) {
		t.Errorf("story must end with terminal punctuation: %q", story.Text)
	}
	if !strings.HasPrefix(model.lastPrompt, "Share an inspiring business success story: ") {
		t.Errorf("unexpected prompt framing: %q", model.lastPrompt)
	}
}

func TestTransform_FallbackTotality(t *testing.T) {
	testCases := []struct {
		name      string
		interests []string
	}{
		{"Technology", []string{"technology"}},
		{"Business", []string{"business"}},
		{"Science", []string{"science"}},
		{"History", []string{"history"}},
		{"Biography", []string{"biography"}},
		{"Fiction", []string{"fiction"}},
		{"Unrecognized", []string{"gardening"}},
		{"EmptyList", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := newTestTransformer(t, &fakeModel{err: errors.New("model unavailable")})
			story := tr.Transform(context.Background(), passage, tc.interests)

			if story.Source != SourceFallback {
				t.Fatalf("expected fallback, got %s", story.Source)
			}
			if story.Text == "" {
				t.Fatal("fallback story must not be empty")
			}
			if !endsWithTerminalPunctuation(story.Text) {
				t.Errorf("fallback story must end with terminal punctuation: %q", story.Text)
			}
			if !strings.Contains(story.Text, "The startup secured") {
				t.Errorf("fallback must restate the passage: %q", story.Text)
			}
		})
	}
}

func TestTransform_QualityGateRejectsShortStory(t *testing.T) {
	short := strings.Repeat("x", 40)
	tr := newTestTransformer(t, &fakeModel{continuation: short, echoPrompt: true})

	story := tr.Transform(context.Background(), passage, []string{"science"})
	if story.Source != SourceFallback {
		t.Fatalf("40-char continuation must be rejected, got %s: %q", story.Source, story.Text)
	}
	if strings.Contains(story.Text, short) {
		t.Errorf("rejected continuation leaked into the story: %q", story.Text)
	}
}

func TestTransform_QualityGateRejectsDegenerateLoop(t *testing.T) {
	loop := strings.TrimSpace(strings.Repeat("over and ", 40))
	tr := newTestTransformer(t, &fakeModel{continuation: loop, echoPrompt: true})

	story := tr.Transform(context.Background(), passage, []string{"history"})
	if story.Source != SourceFallback {
		t.Fatalf("looping continuation must be rejected, got %s", story.Source)
	}
}

func TestTransform_EmptyContinuation(t *testing.T) {
	tr := newTestTransformer(t, &fakeModel{continuation: "", echoPrompt: true})

	story := tr.Transform(context.Background(), passage, []string{"technology"})
	if story.Source != SourceFallback {
		t.Fatalf("empty continuation must fall back, got %s", story.Source)
	}
	if story.Text == "" {
		t.Fatal("fallback story must not be empty")
	}
}

func TestTransform_ModelPanicIsContained(t *testing.T) {
	tr := newTestTransformer(t, &fakeModel{panics: true})

	story := tr.Transform(context.Background(), passage, []string{"science"})
	if story.Source != SourceFallback {
		t.Fatalf("panicking model must fall back, got %s", story.Source)
	}
	if story.Text == "" || !endsWithTerminalPunctuation(story.Text) {
		t.Errorf("fallback story malformed: %q", story.Text)
	}
}

func TestNormalizePassage_TruncationSafety(t *testing.T) {
	// 500 characters with no sentence boundary anywhere.
	long := strings.TrimSpace(strings.Repeat("unbroken ", 56))[:500]

	tr := newTestTransformer(t, &fakeModel{})
	got := tr.normalizePassage(long)

	if got == "" {
		t.Fatal("truncation must not produce an empty passage")
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated passage must end with an ellipsis: %q", got)
	}
	if len(got) > passageBudget+3 {
		t.Errorf("truncated passage exceeds budget: %d chars", len(got))
	}
}

func TestNormalizePassage_KeepsWholeSentences(t *testing.T) {
	first := "The first sentence describes the initial discovery in moderate detail, covering the circumstances of the finding and the people involved in the work."
	second := "The second sentence continues with supporting evidence, additional context, and a summary of the methods the team relied on during the investigation."
	third := "The third sentence adds yet more material that pushes the passage well past the budget entirely, so it has to be dropped by the truncation step."
	text := first + " " + second + " " + third

	tr := newTestTransformer(t, &fakeModel{})
	got := tr.normalizePassage(text)

	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis-terminated truncation: %q", got)
	}
	if !strings.Contains(got, first) {
		t.Errorf("first sentence must be kept whole: %q", got)
	}
	if strings.Contains(got, third) {
		t.Errorf("third sentence must not fit the budget: %q", got)
	}
}

func TestNormalizePassage_ShortTextUntouched(t *testing.T) {
	tr := newTestTransformer(t, &fakeModel{})
	short := "A short   passage with\nuneven    whitespace."

	got := tr.normalizePassage(short)
	if got != "A short passage with uneven whitespace." {
		t.Errorf("unexpected normalization: %q", got)
	}
}

func TestFallbackStory_UnrecoverablePassage(t *testing.T) {
	tr := newTestTransformer(t, &fakeModel{})

	got := tr.fallbackStory("science", "a prompt without any separator")
	if got != pendingStory {
		t.Errorf("expected the terminal placeholder, got %q", got)
	}
	if !endsWithTerminalPunctuation(got) {
		t.Errorf("placeholder must end with terminal punctuation: %q", got)
	}
}
