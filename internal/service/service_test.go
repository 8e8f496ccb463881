package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage/sqlite"
)

type testEnv struct {
	store       *sqlite.SQLiteStore
	ledger      *LedgerService
	groups      *GroupService
	settlements *SettlementService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	locks := NewLockSet()
	ledger := NewLedgerService(store, locks)
	return &testEnv{
		store:       store,
		ledger:      ledger,
		groups:      NewGroupService(store, locks),
		settlements: NewSettlementService(store, ledger, locks),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newGroup creates a group owned by the first user and joins the rest.
func (env *testEnv) newGroup(t *testing.T, name string, userIDs ...string) *models.Group {
	t.Helper()
	ctx := context.Background()

	group, err := env.groups.CreateGroup(ctx, name, userIDs[0], "")
	require.NoError(t, err)
	for _, id := range userIDs[1:] {
		require.NoError(t, env.groups.InviteMember(ctx, group.ID, userIDs[0], id))
		require.NoError(t, env.groups.AcceptInvite(ctx, group.ID, id))
	}
	return group
}

func (env *testEnv) newAccount(t *testing.T, userID string, balance decimal.Decimal) *models.Account {
	t.Helper()
	account := &models.Account{UserID: userID, Name: "checking", Balance: balance}
	require.NoError(t, env.store.CreateAccount(context.Background(), account))
	return account
}

// recordExpense records a group expense paid by userID and allocated equally
// across all joined members.
func (env *testEnv) recordExpense(t *testing.T, groupID, userID, accountID string, amount decimal.Decimal) *models.Transaction {
	t.Helper()
	ctx := context.Background()

	txn := &models.Transaction{
		GroupID:   groupID,
		UserID:    userID,
		Amount:    amount,
		Type:      models.TypeExpense,
		AccountID: accountID,
	}
	require.NoError(t, env.ledger.RecordTransaction(ctx, txn))
	return txn
}
