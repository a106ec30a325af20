package whitelist

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no whitelist entry matched.
	ErrNotFound = errors.New("whitelist entry not found")

	// ErrAmbiguous indicates a lookup that should match one entry matched several.
	ErrAmbiguous = errors.New("multiple whitelist entries matched")

	// ErrWalletTaken indicates the wallet is already linked to another entry.
	ErrWalletTaken = errors.New("wallet address already registered")
)

// Record is a whitelist entry. Either field may be absent.
type Record struct {
	Username      *string
	WalletAddress *string
}

// Complete reports whether the record carries a wallet address.
func (r Record) Complete() bool {
	return r.WalletAddress != nil && *r.WalletAddress != ""
}

// UsernameOrEmpty returns the username, or "" when absent.
func (r Record) UsernameOrEmpty() string {
	if r.Username == nil {
		return ""
	}
	return *r.Username
}

// LookupResult is what a lookup returns to the controller. Record is nil
// whenever Found is false.
type LookupResult struct {
	Found  bool
	Record *Record
}

// UpdateResult reports a wallet update. Message is set on failure.
type UpdateResult struct {
	Success bool
	Message string
}

func notFoundFor(username string) error {
	return fmt.Errorf("no whitelist entry for %s: %w", username, ErrNotFound)
}

func strPtr(s string) *string {
	return &s
}
