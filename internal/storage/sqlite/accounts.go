package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// CreateAccount persists a new account.
func (s *SQLiteStore) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.CreatedAt == 0 {
		account.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO accounts (id, user_id, name, balance, created_at) VALUES (?, ?, ?, ?, ?)",
		account.ID, account.UserID, account.Name, account.Balance.String(), account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// GetAccount retrieves an account by ID.
func (s *SQLiteStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	account := &models.Account{}
	var balance string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, name, balance, created_at FROM accounts WHERE id = ?", id,
	).Scan(&account.ID, &account.UserID, &account.Name, &balance, &account.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account.Balance, err = parseAmount(balance); err != nil {
		return nil, err
	}
	return account, nil
}

// adjustBalanceTx reads, adjusts, and writes an account balance inside an open
// database transaction. Balances are decimal strings, so the arithmetic has to
// happen here rather than in SQL.
func adjustBalanceTx(ctx context.Context, tx *sql.Tx, accountID string, delta decimal.Decimal) error {
	var raw string
	err := tx.QueryRowContext(ctx, "SELECT balance FROM accounts WHERE id = ?", accountID).Scan(&raw)
	if err == sql.ErrNoRows {
		return fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read account balance: %w", err)
	}

	balance, err := parseAmount(raw)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, "UPDATE accounts SET balance = ? WHERE id = ?",
		balance.Add(delta).String(), accountID)
	if err != nil {
		return fmt.Errorf("failed to update account balance: %w", err)
	}
	return nil
}
