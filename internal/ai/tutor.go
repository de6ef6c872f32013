package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/example/wortbot/internal/logger"
	"github.com/example/wortbot/pkg/models"
)

var (
	ErrDisabled    = errors.New("AI features are disabled: OPENAI_API_KEY is not set")
	ErrRateLimited = errors.New("too many AI requests, try again in a minute")
)

// MaxSentenceWords is how many words one generated sentence must contain
const MaxSentenceWords = 3

// Config holds the model connection settings
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	RequestsPerMinute int
}

// Tutor generates practice sentences and grades translations
type Tutor struct {
	client  *openai.Client
	model   string
	limiter *userLimiter
	log     *logger.Logger
}

// New creates a tutor. Without an API key every call returns ErrDisabled.
func New(cfg Config, log *logger.Logger) *Tutor {
	t := &Tutor{
		model:   cfg.Model,
		limiter: newUserLimiter(cfg.RequestsPerMinute),
		log:     log,
	}
	if t.model == "" {
		t.model = "gpt-4o-mini"
	}
	if cfg.APIKey == "" {
		return t
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	t.client = openai.NewClientWithConfig(clientConfig)
	return t
}

// Enabled reports whether an API key was configured
func (t *Tutor) Enabled() bool {
	return t.client != nil
}

// Sentence is a generated German sentence with its tagged words
type Sentence struct {
	Tagged           string `json:"sentence"`
	IdealTranslation string `json:"idealTranslation"`
}

// Plain returns the sentence without word tags
func (s Sentence) Plain() string {
	return StripTags(s.Tagged)
}

// Evaluation is the grade of a learner's translation
type Evaluation struct {
	Score             int    `json:"score"`
	Feedback          string `json:"feedback"`
	BetterTranslation string `json:"betterTranslation"`
}

var tagPattern = regexp.MustCompile(`\[[^\]|]*\|([^\]]*)\]`)

// StripTags turns "[noun-m|Bahnhof]" into "Bahnhof"
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "$1")
}

const systemPrompt = "You are a patient German teacher for Spanish-speaking learners at level A2/B1."

// GenerateSentence asks the model for one sentence using all given words
func (t *Tutor) GenerateSentence(ctx context.Context, userID int64, words []models.PlayableWord) (*Sentence, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("no words to build a sentence from")
	}
	if len(words) > MaxSentenceWords {
		words = words[:MaxSentenceWords]
	}

	var details []string
	for _, w := range words {
		details = append(details, fmt.Sprintf("%q (%s, meaning %q)", w.German, w.Word.Type, w.Spanish))
	}
	prompt := fmt.Sprintf(`Write one simple, grammatically perfect German sentence for level A2 and translate it naturally into Spanish.
The sentence must use all of these words with the given meaning: %s.
Wrap each of those words in the German sentence with a tag:
nouns [noun-m|Word], [noun-f|Word] or [noun-n|Word], verbs [verb|conjugated form], adjectives [adj|Word], prepositions [prep|Word], anything else [word|Word].
Answer only with a JSON object, no markdown, for example:
{"sentence": "Ich gehe zum [noun-m|Bahnhof].", "idealTranslation": "Voy a la estación de tren."}`,
		strings.Join(details, ", "))

	var out Sentence
	if err := t.complete(ctx, userID, prompt, 0.8, &out); err != nil {
		return nil, fmt.Errorf("failed to generate sentence: %w", err)
	}
	if strings.TrimSpace(out.Tagged) == "" {
		return nil, fmt.Errorf("failed to generate sentence: empty sentence in response")
	}
	return &out, nil
}

// EvaluateTranslation grades the learner's Spanish translation on a 0-10 scale
func (t *Tutor) EvaluateTranslation(ctx context.Context, userID int64, s Sentence, translation string) (*Evaluation, error) {
	prompt := fmt.Sprintf(`Act as a fair language examiner.
Original sentence (German): %q
Ideal reference translation (Spanish): %q
Learner's translation (Spanish): %q
Compare the learner's translation with the ideal one, give a score from 0 to 10 and short feedback in Spanish.
10: perfect or identical. 8-9: correct meaning, minor typos. 5-7: understandable with grammar mistakes. 0-4: wrong or unintelligible.
Answer only with a JSON object: {"score": integer, "feedback": "string", "betterTranslation": "string"}`,
		s.Plain(), s.IdealTranslation, translation)

	// models sometimes answer 8.5 even when asked for an integer
	var out struct {
		Score             float64 `json:"score"`
		Feedback          string  `json:"feedback"`
		BetterTranslation string  `json:"betterTranslation"`
	}
	if err := t.complete(ctx, userID, prompt, 0.2, &out); err != nil {
		return nil, fmt.Errorf("failed to evaluate translation: %w", err)
	}
	return &Evaluation{
		Score:             clampScore(int(math.Round(out.Score))),
		Feedback:          out.Feedback,
		BetterTranslation: out.BetterTranslation,
	}, nil
}

func (t *Tutor) complete(ctx context.Context, userID int64, prompt string, temperature float32, dst interface{}) error {
	if t.client == nil {
		return ErrDisabled
	}
	if !t.limiter.Allow(userID) {
		return ErrRateLimited
	}

	start := time.Now()
	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	})
	if err != nil {
		return err
	}
	if len(resp.Choices) == 0 {
		return errors.New("empty chat response")
	}
	t.log.Debug("chat completion done", "user_id", userID, "model", t.model, "took", time.Since(start))

	raw := stripFence(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("failed to decode model answer: %w", err)
	}
	return nil
}

// stripFence removes a ```json ... ``` wrapper some models add anyway
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

// userLimiter keeps one token bucket per learner
type userLimiter struct {
	mu     sync.Mutex
	every  rate.Limit
	burst  int
	limits map[int64]*rate.Limiter
}

func newUserLimiter(perMinute int) *userLimiter {
	if perMinute <= 0 {
		perMinute = 6
	}
	return &userLimiter{
		every:  rate.Every(time.Minute / time.Duration(perMinute)),
		burst:  perMinute,
		limits: make(map[int64]*rate.Limiter),
	}
}

func (l *userLimiter) Allow(userID int64) bool {
	l.mu.Lock()
	limiter, ok := l.limits[userID]
	if !ok {
		limiter = rate.NewLimiter(l.every, l.burst)
		l.limits[userID] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}
