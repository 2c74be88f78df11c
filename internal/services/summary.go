package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"earsip/internal/config"
	"earsip/internal/logging"
)

const (
	// SummaryNotConfigured is stored when no summary credential is set.
	SummaryNotConfigured = "Ringkasan otomatis tidak tersedia (Konfigurasi API belum lengkap)."
	// SummaryFailed is stored when the summary service fails or times out.
	SummaryFailed = "Gagal memproses ringkasan otomatis."

	defaultSummaryTimeout = 5 * time.Second
	summaryTemperature    = 0.7
	summaryMaxTokens      = 150
)

var errEmptySummary = errors.New("empty summary returned")

// Generator turns a prompt into text through a hosted model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Summarizer produces the one-sentence summary stored on new letters. It never
// returns an error: failures become one of the fallback sentences.
type Summarizer struct {
	gen     Generator
	timeout time.Duration
	logger  zerolog.Logger
}

// NewSummarizer builds the summarizer for the configured provider. A missing
// credential is not an error; the summarizer then answers SummaryNotConfigured.
func NewSummarizer(cfg config.Config) (*Summarizer, error) {
	key := strings.TrimSpace(cfg.SummaryAPIKey())
	if key == "" || key == "undefined" {
		logger := logging.Component("summary")
		logger.Warn().Str("provider", cfg.SummaryProvider).Msg("summary credential missing, automatic summaries disabled")
		return NewSummarizerWithGenerator(nil, cfg.SummaryTimeout), nil
	}

	var gen Generator
	switch cfg.SummaryProvider {
	case config.SummaryProviderOpenAI:
		gen = NewOpenAIGenerator(key, cfg.Model())
	default:
		g, err := NewGeminiGenerator(context.Background(), key, cfg.Model())
		if err != nil {
			return nil, err
		}
		gen = g
	}
	return NewSummarizerWithGenerator(gen, cfg.SummaryTimeout), nil
}

// NewSummarizerWithGenerator wires an explicit generator; nil means unconfigured.
func NewSummarizerWithGenerator(gen Generator, timeout time.Duration) *Summarizer {
	if timeout <= 0 {
		timeout = defaultSummaryTimeout
	}
	return &Summarizer{gen: gen, timeout: timeout, logger: logging.Component("summary")}
}

func (s *Summarizer) Configured() bool {
	return s != nil && s.gen != nil
}

func (s *Summarizer) Summarize(ctx context.Context, subject, counterparty string) string {
	if !s.Configured() {
		return SummaryNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.gen.Generate(ctx, SummaryPrompt(subject, counterparty))
	if err == nil && strings.TrimSpace(text) == "" {
		err = errEmptySummary
	}
	if err != nil {
		s.logger.Error().Err(err).Str("subject", subject).Msg("summary generation failed")
		return SummaryFailed
	}
	return strings.TrimSpace(text)
}

// SummaryPrompt asks for one professional Indonesian sentence about the letter.
func SummaryPrompt(subject, counterparty string) string {
	return fmt.Sprintf(
		"Buatkan ringkasan profesional satu kalimat dalam Bahasa Indonesia untuk surat dengan perihal: %q dari/untuk: %q. Fokus pada inti pesan surat tersebut.",
		subject, counterparty,
	)
}

// GeminiGenerator calls the Gemini API through the genai SDK.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](summaryTemperature),
		MaxOutputTokens: summaryMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}
