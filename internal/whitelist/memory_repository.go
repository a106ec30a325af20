package whitelist

import (
	"context"
	"fmt"
	"sync"

	"github.com/doodleleagues/whitelist_checker/internal/identifier"
)

// MemoryRepository keeps whitelist entries in process memory. Used in
// development and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []Record
}

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Seed adds an entry. Empty strings are stored as absent fields.
func (r *MemoryRepository) Seed(username, wallet string) {
	var rec Record
	if username != "" {
		rec.Username = strPtr(username)
	}
	if wallet != "" {
		rec.WalletAddress = strPtr(wallet)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, rec)
}

func (r *MemoryRepository) FindOne(_ context.Context, field identifier.Field, value string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		match Record
		count int
	)
	for _, rec := range r.entries {
		var col *string
		switch field {
		case identifier.FieldWallet:
			col = rec.WalletAddress
		case identifier.FieldUsername:
			col = rec.Username
		default:
			return Record{}, fmt.Errorf("unsupported lookup field %q", field)
		}
		if col != nil && *col == value {
			match = copyRecord(rec)
			count++
		}
	}
	switch {
	case count == 0:
		return Record{}, ErrNotFound
	case count > 1:
		return Record{}, ErrAmbiguous
	}
	return match, nil
}

func (r *MemoryRepository) UpdateWallet(_ context.Context, username, wallet string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.entries {
		if rec.WalletAddress != nil && *rec.WalletAddress == wallet &&
			(rec.Username == nil || *rec.Username != username) {
			return ErrWalletTaken
		}
	}
	updated := false
	for i, rec := range r.entries {
		if rec.Username != nil && *rec.Username == username {
			r.entries[i].WalletAddress = strPtr(wallet)
			updated = true
		}
	}
	if !updated {
		return notFoundFor(username)
	}
	return nil
}

func copyRecord(rec Record) Record {
	var out Record
	if rec.Username != nil {
		out.Username = strPtr(*rec.Username)
	}
	if rec.WalletAddress != nil {
		out.WalletAddress = strPtr(*rec.WalletAddress)
	}
	return out
}
