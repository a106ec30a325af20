package whitelist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the checker table when it does not exist yet.
// Safe to call on every start.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create checker schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS checker (
    id BIGSERIAL PRIMARY KEY,
    username TEXT UNIQUE,
    wallet_address TEXT UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    CHECK (username IS NOT NULL OR wallet_address IS NOT NULL)
);

CREATE INDEX IF NOT EXISTS idx_checker_username ON checker(username);
CREATE INDEX IF NOT EXISTS idx_checker_wallet_address ON checker(wallet_address);
`
