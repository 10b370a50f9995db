package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/content-engine/pkg/logger"
)

// stubClient scripts one reply per system prompt. Unscripted prompts
// return the zero reply with the scripted error.
type stubClient struct {
	replies map[string]string
	errs    map[string]error
	calls   []string
}

func (c *stubClient) Complete(_ context.Context, system, _ string, _ int, _ float64) (string, error) {
	c.calls = append(c.calls, system)
	if err, ok := c.errs[system]; ok {
		return "", err
	}
	return c.replies[system], nil
}

func TestAnalyze_DeterministicWithoutClient(t *testing.T) {
	a := NewAnalyzer(nil, logger.NewTestLogger())
	text := "La fotosintesi trasforma la luce del sole. Le piante producono ossigeno. Il processo avviene nei cloroplasti. Altro testo qui."

	meta := a.Analyze(context.Background(), text)
	require.NotNil(t, meta)

	assert.Equal(t, FallbackSummary(text), meta.Summary)
	assert.Equal(t, FallbackKeywords(text), meta.Keywords)
	assert.Equal(t, "it", meta.Language)
}

func TestAnalyze_UsesClientReplies(t *testing.T) {
	client := &stubClient{replies: map[string]string{
		summarySystemPrompt:  "Una sintesi breve.",
		keywordsSystemPrompt: "fotosintesi, luce, ossigeno",
	}}
	a := NewAnalyzer(client, logger.NewTestLogger())

	meta := a.Analyze(context.Background(), "La fotosintesi trasforma la luce del sole per le piante.")
	assert.Equal(t, "Una sintesi breve.", meta.Summary)
	assert.Equal(t, []string{"fotosintesi", "luce", "ossigeno"}, meta.Keywords)
	assert.Equal(t, "it", meta.Language)
}

func TestAnalyze_SubTaskFailuresAreIsolated(t *testing.T) {
	// Summary fails, keywords succeed: only the summary degrades.
	client := &stubClient{
		replies: map[string]string{keywordsSystemPrompt: "cellula, nucleo"},
		errs:    map[string]error{summarySystemPrompt: NewBackendError("test", "boom")},
	}
	log := logger.NewTestLogger()
	a := NewAnalyzer(client, log)
	text := "La cellula contiene il nucleo. Il nucleo contiene il DNA. Entrambi sono fondamentali."

	meta := a.Analyze(context.Background(), text)
	assert.Equal(t, FallbackSummary(text), meta.Summary)
	assert.Equal(t, []string{"cellula", "nucleo"}, meta.Keywords)
	assert.True(t, log.HasMessage("WARN", "ai summary failed, using fallback"))
	assert.False(t, log.HasMessage("WARN", "ai keywords failed, using fallback"))
}

func TestAnalyze_EmptyRepliesFallBack(t *testing.T) {
	client := &stubClient{replies: map[string]string{}}
	a := NewAnalyzer(client, logger.NewTestLogger())
	text := "Le piante producono ossigeno attraverso la fotosintesi. Questo processo richiede luce."

	meta := a.Analyze(context.Background(), text)
	assert.Equal(t, FallbackSummary(text), meta.Summary)
	assert.Equal(t, FallbackKeywords(text), meta.Keywords)
}

func TestKeywords_ParsesCommaSeparatedReply(t *testing.T) {
	client := &stubClient{replies: map[string]string{
		keywordsSystemPrompt: " alpha , , beta,gamma ,",
	}}
	a := NewAnalyzer(client, logger.NewTestLogger())

	got := a.keywords(context.Background(), "some text")
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, got)
}

func TestFallbackSummary_KeepsFirstThreeSentences(t *testing.T) {
	got := FallbackSummary("One. Two. Three. Four. Five.")
	assert.Equal(t, "One.  Two.  Three.", got)
}

func TestFallbackSummary_ShortText(t *testing.T) {
	assert.Equal(t, "No periods here.", FallbackSummary("No periods here"))
	// Text ending in a period keeps the empty tail as a fragment.
	assert.Equal(t, "First.  Second. .", FallbackSummary("First. Second."))
}

func TestFallbackKeywords_RanksByFrequency(t *testing.T) {
	text := "alpha beta alpha gamma beta alpha"
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, FallbackKeywords(text))
}

func TestFallbackKeywords_SkipsShortWords(t *testing.T) {
	// Words of three runes or fewer never qualify.
	text := "the and dog cat fotosintesi"
	assert.Equal(t, []string{"fotosintesi"}, FallbackKeywords(text))
}

func TestFallbackKeywords_TiesKeepFirstAppearance(t *testing.T) {
	text := "zebra apple zebra apple"
	assert.Equal(t, []string{"zebra", "apple"}, FallbackKeywords(text))
}

func TestFallbackKeywords_CapsAtTen(t *testing.T) {
	words := []string{
		"aaaa", "bbbb", "cccc", "dddd", "eeee", "ffff",
		"gggg", "hhhh", "iiii", "jjjj", "kkkk", "llll",
	}
	got := FallbackKeywords(strings.Join(words, " "))
	assert.Len(t, got, 10)
	assert.Equal(t, words[:10], got)
}

func TestFallbackKeywords_Deterministic(t *testing.T) {
	text := "energia materia energia cellula materia energia biologia"
	first := FallbackKeywords(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, FallbackKeywords(text))
	}
}

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{
			"italian",
			"La vita è bella e il sole splende per la gioia di tutti",
			"it",
		},
		{
			"english",
			"The quick brown fox jumps over the lazy dog and you know that he is here to stay",
			"en",
		},
		{"no signal resolves italian", "zzz qqq", "it"},
		{"empty resolves italian", "", "it"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectLanguage(tc.text))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "abcde", truncate("abcdefgh", 5))
	// Multibyte input truncates on rune boundaries.
	assert.Equal(t, "ààà", truncate("ààààà", 3))
}
