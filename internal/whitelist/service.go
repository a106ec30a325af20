package whitelist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/doodleleagues/whitelist_checker/internal/identifier"
	"github.com/doodleleagues/whitelist_checker/internal/metrics"
	"github.com/doodleleagues/whitelist_checker/internal/notification"
)

const unexpectedError = "Unexpected error"

// Store is the record store used by eligibility controllers. It never
// returns errors: lookup failures read as not found and update failures
// come back as an unsuccessful UpdateResult.
type Store struct {
	repo     Repository
	notifier notification.Notifier
	logger   *slog.Logger
	timeout  time.Duration
}

// NewStore wraps a repository. A zero timeout leaves calls unbounded.
func NewStore(repo Repository, notifier notification.Notifier, logger *slog.Logger, timeout time.Duration) *Store {
	return &Store{repo: repo, notifier: notifier, logger: logger, timeout: timeout}
}

// Lookup finds the entry whose field equals the normalized identifier.
// Store failures are logged and reported as not found.
func (s *Store) Lookup(ctx context.Context, normalized string, field identifier.Field) LookupResult {
	if normalized == "" {
		return LookupResult{}
	}
	bctx, cancel := s.bound(ctx)
	defer cancel()

	start := time.Now()
	rec, err := s.repo.FindOne(bctx, field, normalized)
	metrics.ObserveLookup(string(field), start)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
		case abandoned(ctx, err):
			s.logger.Debug("whitelist lookup abandoned", slog.String("field", string(field)))
		default:
			metrics.StoreErrorsTotal.WithLabelValues("lookup").Inc()
			s.logger.Error("whitelist lookup failed",
				slog.String("field", string(field)),
				slog.Any("error", err),
			)
		}
		return LookupResult{}
	}
	return LookupResult{Found: true, Record: &rec}
}

// UpdateWallet links wallet to the entry with the given username.
func (s *Store) UpdateWallet(ctx context.Context, username, wallet string) UpdateResult {
	bctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.repo.UpdateWallet(bctx, username, wallet); err != nil {
		if abandoned(ctx, err) {
			s.logger.Debug("whitelist wallet update abandoned", slog.String("username", username))
			return UpdateResult{Message: updateFailureMessage(err)}
		}
		metrics.WalletUpdatesTotal.WithLabelValues("failed").Inc()
		s.logger.Error("whitelist wallet update failed",
			slog.String("username", username),
			slog.Any("error", err),
		)
		return UpdateResult{Message: updateFailureMessage(err)}
	}
	metrics.WalletUpdatesTotal.WithLabelValues("linked").Inc()

	if s.notifier != nil {
		checksummed := identifier.Checksum(wallet)
		if err := s.notifier.Send(bctx, notification.Message{
			Kind:     notification.KindWalletLinked,
			Username: username,
			Wallet:   checksummed,
			Body:     fmt.Sprintf("%s linked wallet %s", username, checksummed),
		}); err != nil {
			s.logger.Warn("wallet linked notification failed", slog.Any("error", err))
		}
	}
	return UpdateResult{Success: true}
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// abandoned reports whether err only reflects the caller giving up, as when a
// newer visitor action supersedes this one.
func abandoned(parent context.Context, err error) bool {
	return parent.Err() != nil && errors.Is(err, parent.Err())
}

// updateFailureMessage exposes domain failures verbatim and hides
// infrastructure errors from visitors.
func updateFailureMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrWalletTaken):
		return err.Error()
	default:
		return unexpectedError
	}
}
