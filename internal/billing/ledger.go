// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/citeref/pkg/types"
)

const (
	defaultDBPath      = "citeref.db"
	defaultFreeCredits = 20
)

// ErrNoCredits is returned by Deduct when the balance is already zero.
var ErrNoCredits = errors.New("no credits remaining")

// ErrUnknownUser is returned for a user the ledger has never seen.
var ErrUnknownUser = errors.New("unknown user")

// Account is one user's ledger row.
type Account struct {
	UserID    string
	FreeTier  bool
	Credits   int
	CustomKey string
	CreatedAt time.Time
}

// Ledger stores credit balances in SQLite.
type Ledger struct {
	db          *sql.DB
	freeCredits int
}

// OpenLedger opens or creates the ledger database at cfg.DBPath.
func OpenLedger(cfg types.AuthConfig) (*Ledger, error) {
	path := cfg.DBPath
	if path == "" {
		path = defaultDBPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	freeCredits := cfg.FreeCredits
	if freeCredits <= 0 {
		freeCredits = defaultFreeCredits
	}
	l := &Ledger{db: db, freeCredits: freeCredits}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	_, err := l.db.Exec(`CREATE TABLE IF NOT EXISTS accounts (
		user_id TEXT PRIMARY KEY,
		free_tier INTEGER NOT NULL,
		credits INTEGER NOT NULL,
		custom_key TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`)
	return err
}

// Ensure returns the account for userID, creating it with the starting
// balance on first sight. An existing account's tier follows the token.
func (l *Ledger) Ensure(ctx context.Context, userID string, freeTier bool) (*Account, error) {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, free_tier, credits, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET free_tier = excluded.free_tier`,
		userID, freeTier, l.freeCredits, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("upserting account: %w", err)
	}
	return l.Account(ctx, userID)
}

// Account returns the stored account for userID.
func (l *Ledger) Account(ctx context.Context, userID string) (*Account, error) {
	var (
		a       Account
		created string
	)
	err := l.db.QueryRowContext(ctx,
		`SELECT user_id, free_tier, credits, custom_key, created_at FROM accounts WHERE user_id = ?`, userID,
	).Scan(&a.UserID, &a.FreeTier, &a.Credits, &a.CustomKey, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("reading account: %w", err)
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &a, nil
}

// Deduct removes one credit from userID and returns the new balance. The
// balance never goes below zero.
func (l *Ledger) Deduct(ctx context.Context, userID string) (int, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET credits = credits - 1 WHERE user_id = ? AND credits > 0`, userID)
	if err != nil {
		return 0, fmt.Errorf("deducting credit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE user_id = ?`, userID).Scan(&exists); errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUnknownUser
		}
		return 0, ErrNoCredits
	}

	var remaining int
	if err := tx.QueryRowContext(ctx, `SELECT credits FROM accounts WHERE user_id = ?`, userID).Scan(&remaining); err != nil {
		return 0, fmt.Errorf("reading balance: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return remaining, nil
}

// Grant adds n credits to userID, creating a free-tier account if needed,
// and returns the new balance.
func (l *Ledger) Grant(ctx context.Context, userID string, n int) (int, error) {
	if _, err := l.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, free_tier, credits, created_at) VALUES (?, 1, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET credits = credits + ?`,
		userID, l.freeCredits+n, time.Now().UTC().Format(time.RFC3339), n); err != nil {
		return 0, fmt.Errorf("granting credits: %w", err)
	}
	a, err := l.Account(ctx, userID)
	if err != nil {
		return 0, err
	}
	return a.Credits, nil
}

// SetCustomKey stores the user's own Gemini key. An empty key clears it.
func (l *Ledger) SetCustomKey(ctx context.Context, userID, key string) error {
	res, err := l.db.ExecContext(ctx, `UPDATE accounts SET custom_key = ? WHERE user_id = ?`, key, userID)
	if err != nil {
		return fmt.Errorf("setting custom key: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUnknownUser
	}
	return nil
}
