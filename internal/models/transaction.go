package models

import "github.com/shopspring/decimal"

// TransactionType classifies a monetary event.
type TransactionType string

const (
	TypeExpense  TransactionType = "expense"
	TypeIncome   TransactionType = "income"
	TypeTransfer TransactionType = "transfer"
)

// SettlementCategoryID is the reserved category for settlement transactions.
// The settlement planner tags every settlement expense with it so the UI and
// the balance queries can tell settlements apart from ordinary spending.
const SettlementCategoryID = "settlement"

// Transaction represents a monetary event paid by one user.
//
// A transaction is "shared" when at least one Split row references it. A
// group-scoped transaction with no splits is treated as a personal transaction
// that merely happens to be tagged to a group (e.g., imported history) and is
// excluded from balance computation.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	// GroupID is the group this transaction belongs to. Empty for personal
	// transactions.
	GroupID string

	// UserID is the payer.
	UserID string

	// Amount is the total amount of the event. Always >= 0; the Type field
	// carries the direction.
	Amount decimal.Decimal

	// Type is one of expense, income, transfer.
	Type TransactionType

	// CategoryID optionally classifies the transaction. Settlements use
	// SettlementCategoryID.
	CategoryID string

	// TripID optionally links the transaction to a trip.
	TripID string

	// AccountID is the account the money moved through.
	AccountID string

	// Note is an optional free-text description.
	Note string

	// Date is the Unix timestamp of the monetary event.
	Date int64

	// CreatedAt is the Unix timestamp when the row was created.
	CreatedAt int64
}
