package whitelist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doodleleagues/whitelist_checker/internal/identifier"
)

const pgUniqueViolation = "23505"

// Repository persists whitelist entries.
type Repository interface {
	// FindOne returns the single entry whose field equals value, ErrNotFound
	// when none does and ErrAmbiguous when more than one does.
	FindOne(ctx context.Context, field identifier.Field, value string) (Record, error)
	UpdateWallet(ctx context.Context, username, wallet string) error
}

// PostgresRepository stores whitelist entries in the checker table.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Column names are never taken from input; only these two are queryable.
var lookupQueries = map[identifier.Field]string{
	identifier.FieldWallet:   `SELECT username, wallet_address FROM checker WHERE wallet_address = $1 LIMIT 2`,
	identifier.FieldUsername: `SELECT username, wallet_address FROM checker WHERE username = $1 LIMIT 2`,
}

// FindOne fetches at most one entry by username or wallet address.
func (r *PostgresRepository) FindOne(ctx context.Context, field identifier.Field, value string) (Record, error) {
	query, ok := lookupQueries[field]
	if !ok {
		return Record{}, fmt.Errorf("unsupported lookup field %q", field)
	}
	rows, err := r.db.Query(ctx, query, value)
	if err != nil {
		return Record{}, fmt.Errorf("query checker: %w", err)
	}
	defer rows.Close()

	var (
		rec   Record
		count int
	)
	for rows.Next() {
		count++
		if count > 1 {
			return Record{}, ErrAmbiguous
		}
		if err := rows.Scan(&rec.Username, &rec.WalletAddress); err != nil {
			return Record{}, fmt.Errorf("scan checker row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return Record{}, fmt.Errorf("iterate checker rows: %w", err)
	}
	if count == 0 {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// UpdateWallet sets the wallet address of the entry with the given username.
func (r *PostgresRepository) UpdateWallet(ctx context.Context, username, wallet string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE checker SET wallet_address = $1, updated_at = now() WHERE username = $2`, wallet, username)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrWalletTaken
		}
		return fmt.Errorf("update checker: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return notFoundFor(username)
	}
	return nil
}
