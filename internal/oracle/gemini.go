package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/doodleleagues/whitelist_checker/internal/metrics"
)

const (
	defaultModel     = "gemini-1.5-flash"
	maxOutputTokens  = 60
	temperature      = 0.8
	eligiblePrompt   = `Give a 1-sentence "lucky" league-themed encouragement for this crypto wallet: %s. Use doodle/sketchy metaphors. Keep it short.`
	ineligiblePrompt = `Give a 1-sentence "better luck next time" sketchy message for this wallet: %s. Be witty but polite. Keep it short.`
)

// contentModel is the slice of *genai.Models the oracle needs.
type contentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiOracle asks a Gemini model for a reading.
type GeminiOracle struct {
	models  contentModel
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewGeminiOracle builds an oracle for the given API key. An empty key yields
// an oracle that only serves fallbacks; it is not an error.
func NewGeminiOracle(ctx context.Context, apiKey, model string, timeout time.Duration, logger *slog.Logger) (*GeminiOracle, error) {
	if model == "" {
		model = defaultModel
	}
	o := &GeminiOracle{model: model, timeout: timeout, logger: logger}
	if apiKey == "" {
		logger.Warn("gemini api key missing, serving fallback readings")
		return o, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	o.models = client.Models
	return o, nil
}

// Generate returns a one-sentence reading, or the fallback on any failure.
func (o *GeminiOracle) Generate(ctx context.Context, identifier string, eligible bool) string {
	if o.models == nil {
		metrics.OracleReadingsTotal.WithLabelValues("fallback").Inc()
		return Fallback(eligible)
	}
	parent := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	resp, err := o.models.GenerateContent(ctx, o.model, genai.Text(prompt(identifier, eligible)), &genai.GenerateContentConfig{
		MaxOutputTokens: maxOutputTokens,
		Temperature:     genai.Ptr[float32](temperature),
	})
	if err != nil {
		if parent.Err() != nil && errors.Is(err, parent.Err()) {
			// The visitor moved on; nobody will see this reading.
			return Fallback(eligible)
		}
		metrics.OracleReadingsTotal.WithLabelValues("fallback").Inc()
		o.logger.Warn("gemini generation failed, using fallback",
			slog.Bool("eligible", eligible),
			slog.Any("error", err),
		)
		return Fallback(eligible)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		metrics.OracleReadingsTotal.WithLabelValues("fallback").Inc()
		return Fallback(eligible)
	}
	metrics.OracleReadingsTotal.WithLabelValues("generated").Inc()
	return text
}

func prompt(identifier string, eligible bool) string {
	if eligible {
		return fmt.Sprintf(eligiblePrompt, identifier)
	}
	return fmt.Sprintf(ineligiblePrompt, identifier)
}
