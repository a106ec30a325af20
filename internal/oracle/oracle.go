// Package oracle produces the short themed sentence shown with every
// eligibility result. Generators never fail: when the language model is
// unavailable they answer with a fixed fallback keyed only by eligibility.
package oracle

import "context"

const (
	SuccessFallback = "The dice have rolled in your favor!"
	FailureFallback = "The cards aren't in your hand this time."
)

// Generator returns a reading for an identifier. Implementations must return
// a non-empty string and must not block past their own deadline.
type Generator interface {
	Generate(ctx context.Context, identifier string, eligible bool) string
}

// Fallback returns the fixed reading for the given eligibility.
func Fallback(eligible bool) string {
	if eligible {
		return SuccessFallback
	}
	return FailureFallback
}

// IsFallback reports whether text is the fixed reading for eligible.
func IsFallback(text string, eligible bool) bool {
	return text == Fallback(eligible)
}

// Static always answers with the fallbacks.
type Static struct{}

// Generate returns the fallback for eligible.
func (Static) Generate(_ context.Context, _ string, eligible bool) string {
	return Fallback(eligible)
}
