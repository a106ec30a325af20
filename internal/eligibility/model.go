package eligibility

import (
	"context"
	"time"

	"github.com/doodleleagues/whitelist_checker/internal/identifier"
	"github.com/doodleleagues/whitelist_checker/internal/whitelist"
)

// Status is the state of an eligibility controller.
type Status string

const (
	StatusIdle          Status = "idle"
	StatusChecking      Status = "checking"
	StatusEligible      Status = "eligible"
	StatusNotEligible   Status = "not_eligible"
	StatusMissingWallet Status = "missing_wallet"
	StatusError         Status = "error"
)

// Visitor-facing messages.
const (
	MessageTypeSomething = "Type something!"
	MessageInvalidWallet = "Invalid wallet address! Must be 0x..."

	missingWalletFormat = "Hey %s! You're on the list, but we need your wallet address."
	updateFailedFormat  = "Failed to update: %s"
	unknownError        = "Unknown error"
)

// Outcome is the single current result shown to the visitor.
type Outcome struct {
	Status  Status    `json:"status"`
	Message string    `json:"message,omitempty"`
	Reading string    `json:"reading,omitempty"`
	At      time.Time `json:"at"`
}

// Snapshot is everything a controller needs to be rebuilt.
type Snapshot struct {
	Outcome            Outcome `json:"outcome"`
	RememberedUsername string  `json:"remembered_username,omitempty"`
}

// RecordStore looks up and updates whitelist entries. Neither call fails:
// store errors surface as not found or as an unsuccessful update.
type RecordStore interface {
	Lookup(ctx context.Context, normalized string, field identifier.Field) whitelist.LookupResult
	UpdateWallet(ctx context.Context, username, wallet string) whitelist.UpdateResult
}

// Generator produces the reading attached to eligible and not eligible outcomes.
type Generator interface {
	Generate(ctx context.Context, identifier string, eligible bool) string
}

// Pacer holds a result back before it is revealed. It returns early when
// ctx is done.
type Pacer func(ctx context.Context)

// NoDelay reveals results immediately.
func NoDelay(context.Context) {}

// Delay returns a pacer that waits d.
func Delay(d time.Duration) Pacer {
	if d <= 0 {
		return NoDelay
	}
	return func(ctx context.Context) {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
	}
}
