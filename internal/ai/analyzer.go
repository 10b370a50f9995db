package ai

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/edustack/content-engine/internal/models"
	"github.com/edustack/content-engine/pkg/logger"
)

// analyzeInputLimit caps how much extracted text is sent per sub-task.
const analyzeInputLimit = 4000

const (
	summarySystemPrompt  = "You are a helpful assistant that creates concise summaries of educational content in Italian."
	keywordsSystemPrompt = "You are a helpful assistant that extracts key terms and concepts from educational content. Return only the keywords separated by commas."
)

// Analyzer derives summary, keywords and language from extracted text.
// With a nil client it runs the deterministic path only; with a client,
// each sub-task gets a single attempt and degrades to the deterministic
// path on its own failure without affecting the other sub-tasks.
type Analyzer struct {
	client Client
	logger logger.Logger
}

func NewAnalyzer(client Client, log logger.Logger) *Analyzer {
	return &Analyzer{client: client, logger: log}
}

// Analyze must be called with non-empty text. It never fails; backend
// errors are absorbed per sub-task.
func (a *Analyzer) Analyze(ctx context.Context, text string) *models.ContentMetadata {
	return &models.ContentMetadata{
		Summary:  a.summarize(ctx, text),
		Keywords: a.keywords(ctx, text),
		Language: DetectLanguage(text),
	}
}

func (a *Analyzer) summarize(ctx context.Context, text string) string {
	if a.client == nil {
		return FallbackSummary(text)
	}
	out, err := a.client.Complete(ctx, summarySystemPrompt,
		"Create a summary of the following text:\n\n"+truncate(text, analyzeInputLimit),
		500, 0.7)
	if err != nil || out == "" {
		a.logger.Warn("ai summary failed, using fallback", logger.Error(err))
		return FallbackSummary(text)
	}
	return out
}

func (a *Analyzer) keywords(ctx context.Context, text string) []string {
	if a.client == nil {
		return FallbackKeywords(text)
	}
	out, err := a.client.Complete(ctx, keywordsSystemPrompt,
		"Extract the most important keywords from this text:\n\n"+truncate(text, analyzeInputLimit),
		200, 0.3)
	if err != nil || out == "" {
		a.logger.Warn("ai keywords failed, using fallback", logger.Error(err))
		return FallbackKeywords(text)
	}

	var keywords []string
	for _, part := range strings.Split(out, ",") {
		if part = strings.TrimSpace(part); part != "" {
			keywords = append(keywords, part)
		}
	}
	if len(keywords) == 0 {
		return FallbackKeywords(text)
	}
	return keywords
}

// FallbackSummary keeps the first three "."-separated sentences.
func FallbackSummary(text string) string {
	parts := strings.SplitN(text, ".", 4)
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.Join(parts, ". ") + "."
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// FallbackKeywords ranks case-folded tokens longer than three
// characters by frequency and returns the top ten. Equal counts keep
// first-appearance order.
func FallbackKeywords(text string) []string {
	freq := make(map[string]int)
	var order []string
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if utf8.RuneCountInString(w) <= 3 {
			continue
		}
		if _, seen := freq[w]; !seen {
			order = append(order, w)
		}
		freq[w]++
	}
	sort.SliceStable(order, func(i, j int) bool { return freq[order[i]] > freq[order[j]] })
	if len(order) > 10 {
		order = order[:10]
	}
	return order
}

var (
	italianFunctionWords = []string{"il", "la", "di", "che", "e", "un", "una", "per", "con", "del", "della"}
	englishFunctionWords = []string{"the", "and", "of", "to", "a", "in", "is", "it", "you", "that", "he"}
)

// DetectLanguage distinguishes Italian from English by how many of a
// fixed set of function words occur in the text. A tie resolves to
// Italian, the platform's primary language.
func DetectLanguage(text string) string {
	lower := strings.ToLower(text)
	var italian, english int
	for _, w := range italianFunctionWords {
		if strings.Contains(lower, w) {
			italian++
		}
	}
	for _, w := range englishFunctionWords {
		if strings.Contains(lower, w) {
			english++
		}
	}
	if english > italian {
		return "en"
	}
	return "it"
}

// truncate bounds a prompt payload to limit runes.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
