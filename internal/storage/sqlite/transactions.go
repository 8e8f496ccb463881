package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

const transactionColumns = "id, group_id, user_id, amount, type, category_id, trip_id, account_id, note, date, created_at"

// CreateTransaction persists a new transaction, applying the account delta in
// the same database transaction when one is given.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, txn *models.Transaction, delta *storage.AccountDelta) error {
	prepareTransaction(txn)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertTransactionTx(ctx, tx, txn); err != nil {
		return err
	}
	if delta != nil {
		if err := adjustBalanceTx(ctx, tx, delta.AccountID, delta.Delta); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves a transaction by ID.
func (s *SQLiteStore) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	txn, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// DeleteTransaction removes a transaction, its splits, and applies the account
// delta (the reversal of the creation adjustment) in one database transaction.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id string, delta *storage.AccountDelta) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM splits WHERE transaction_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete splits: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("transaction %s: %w", id, storage.ErrNotFound)
	}

	if delta != nil {
		if err := adjustBalanceTx(ctx, tx, delta.AccountID, delta.Delta); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListTransactionsByGroup retrieves all transactions for a group, newest first.
func (s *SQLiteStore) ListTransactionsByGroup(ctx context.Context, groupID string) ([]*models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE group_id = ? ORDER BY date DESC, id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions by group: %w", err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txns, nil
}

// ReplaceSplits atomically replaces all splits of a transaction.
// Delete-then-insert keeps the reconciliation invariant trivially true after
// every write; splits are never patched row by row.
func (s *SQLiteStore) ReplaceSplits(ctx context.Context, transactionID string, splits []*models.Split) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceSplitsTx(ctx, tx, transactionID, splits); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateTransactionWithSplits inserts a transaction, its splits, and the
// optional account delta as one failure unit.
func (s *SQLiteStore) CreateTransactionWithSplits(ctx context.Context, txn *models.Transaction, splits []*models.Split, delta *storage.AccountDelta) error {
	prepareTransaction(txn)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertTransactionTx(ctx, tx, txn); err != nil {
		return err
	}
	if err := replaceSplitsTx(ctx, tx, txn.ID, splits); err != nil {
		return err
	}
	if delta != nil {
		if err := adjustBalanceTx(ctx, tx, delta.AccountID, delta.Delta); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// insertTransactionTx inserts the transaction row inside an open database
// transaction.
func insertTransactionTx(ctx context.Context, tx *sql.Tx, txn *models.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, nullable(txn.GroupID), txn.UserID, txn.Amount.String(), string(txn.Type),
		nullable(txn.CategoryID), nullable(txn.TripID), txn.AccountID, nullable(txn.Note),
		txn.Date, txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// ListSplitsByTransactions batch-loads the splits of many transactions in a
// single query.
func (s *SQLiteStore) ListSplitsByTransactions(ctx context.Context, transactionIDs []string) ([]*models.Split, error) {
	if len(transactionIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(transactionIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(transactionIDs))
	for i, id := range transactionIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, transaction_id, user_id, amount, status, created_at
		 FROM splits WHERE transaction_id IN (`+placeholders+`) ORDER BY transaction_id, id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	defer rows.Close()

	var splits []*models.Split
	for rows.Next() {
		sp := &models.Split{}
		var amount, status string
		if err := rows.Scan(&sp.ID, &sp.TransactionID, &sp.UserID, &amount, &status, &sp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		if sp.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		sp.Status = models.SplitStatus(status)
		splits = append(splits, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return splits, nil
}

// replaceSplitsTx performs the delete-then-insert inside an open database
// transaction.
func replaceSplitsTx(ctx context.Context, tx *sql.Tx, transactionID string, splits []*models.Split) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM splits WHERE transaction_id = ?", transactionID); err != nil {
		return fmt.Errorf("failed to delete old splits: %w", err)
	}

	now := time.Now().Unix()
	for _, sp := range splits {
		if sp.ID == "" {
			sp.ID = uuid.New().String()
		}
		if sp.CreatedAt == 0 {
			sp.CreatedAt = now
		}
		if sp.Status == "" {
			sp.Status = models.SplitPending
		}
		sp.TransactionID = transactionID

		_, err := tx.ExecContext(ctx,
			`INSERT INTO splits (id, transaction_id, user_id, amount, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			sp.ID, sp.TransactionID, sp.UserID, sp.Amount.String(), string(sp.Status), sp.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

// prepareTransaction fills generated fields before insert.
func prepareTransaction(txn *models.Transaction) {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if txn.CreatedAt == 0 {
		txn.CreatedAt = now
	}
	if txn.Date == 0 {
		txn.Date = now
	}
}

// rowScanner lets scanTransaction work for both QueryRow and Query results.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	txn := &models.Transaction{}
	var groupID, categoryID, tripID, note sql.NullString
	var amount, txnType string

	err := row.Scan(&txn.ID, &groupID, &txn.UserID, &amount, &txnType,
		&categoryID, &tripID, &txn.AccountID, &note, &txn.Date, &txn.CreatedAt)
	if err != nil {
		return nil, err
	}

	if txn.Amount, err = parseAmount(amount); err != nil {
		return nil, err
	}
	txn.Type = models.TransactionType(txnType)
	txn.GroupID = groupID.String
	txn.CategoryID = categoryID.String
	txn.TripID = tripID.String
	txn.Note = note.String
	return txn, nil
}
