package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/calculator"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// oweFixture sets up a group where bob owes ann 50: ann paid 100, split
// equally. Returns the group and bob's account for paying it back.
func oweFixture(t *testing.T, env *testEnv) (*models.Group, *models.Account) {
	t.Helper()
	ctx := context.Background()

	annAccount := env.newAccount(t, "ann", dec("1000"))
	bobAccount := env.newAccount(t, "bob", dec("500"))
	group := env.newGroup(t, "trip", "ann", "bob")

	txn := env.recordExpense(t, group.ID, "ann", annAccount.ID, dec("100"))
	_, err := env.ledger.AllocateSplits(ctx, group.ID, []string{txn.ID}, calculator.MethodEqual, nil, nil)
	require.NoError(t, err)

	return group, bobAccount
}

func TestPlanSettlement_FullZeroesBilateral(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group, bobAccount := oweFixture(t, env)

	txnID, err := env.settlements.PlanSettlement(ctx, group.ID, "bob", bobAccount.ID,
		[]Payment{{PayeeID: "ann", Amount: dec("50")}}, 0)
	require.NoError(t, err)
	require.NotEmpty(t, txnID)

	// The settlement lands in the reserved category with settled splits.
	txn, err := env.store.GetTransaction(ctx, txnID)
	require.NoError(t, err)
	assert.Equal(t, models.SettlementCategoryID, txn.CategoryID)
	splits, err := env.store.ListSplitsByTransactions(ctx, []string{txnID})
	require.NoError(t, err)
	require.Len(t, splits, 1)
	assert.Equal(t, models.SplitSettled, splits[0].Status)

	balances, err := env.ledger.Balances(ctx, group.ID, "bob")
	require.NoError(t, err)
	for _, m := range balances.Members {
		assert.True(t, m.Net.IsZero(), "%s net = %s", m.UserID, m.Net)
		assert.True(t, m.Bilateral.IsZero(), "%s bilateral = %s", m.UserID, m.Bilateral)
		assert.Equal(t, calculator.BalanceSettled, m.Status)
	}
}

func TestPlanSettlement_PartialReducesBilateral(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group, bobAccount := oweFixture(t, env)

	_, err := env.settlements.PlanSettlement(ctx, group.ID, "bob", bobAccount.ID,
		[]Payment{{PayeeID: "ann", Amount: dec("20")}}, 0)
	require.NoError(t, err)

	balances, err := env.ledger.Balances(ctx, group.ID, "bob")
	require.NoError(t, err)
	assert.True(t, balances.BilateralOf("ann").Equal(dec("-30")),
		"bob still owes ann 30, got %s", balances.BilateralOf("ann"))
}

func TestPlanSettlement_SubtractsFromPayerAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group, bobAccount := oweFixture(t, env)

	_, err := env.settlements.PlanSettlement(ctx, group.ID, "bob", bobAccount.ID,
		[]Payment{{PayeeID: "ann", Amount: dec("50")}}, 0)
	require.NoError(t, err)

	got, err := env.store.GetAccount(ctx, bobAccount.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("450")), "got %s", got.Balance)
}

func TestPlanSettlement_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group, bobAccount := oweFixture(t, env)

	cases := []struct {
		name     string
		payerID  string
		account  string
		payments []Payment
	}{
		{"no payments", "bob", bobAccount.ID, nil},
		{"missing account", "bob", "", []Payment{{PayeeID: "ann", Amount: dec("50")}}},
		{"zero amount", "bob", bobAccount.ID, []Payment{{PayeeID: "ann", Amount: dec("0")}}},
		{"self payment", "bob", bobAccount.ID, []Payment{{PayeeID: "bob", Amount: dec("50")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.settlements.PlanSettlement(ctx, group.ID, tc.payerID, tc.account, tc.payments, 0)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestPlanSettlement_PayerMustHaveJoined(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group, bobAccount := oweFixture(t, env)
	require.NoError(t, env.groups.InviteMember(ctx, group.ID, "ann", "cal"))

	_, err := env.settlements.PlanSettlement(ctx, group.ID, "cal", bobAccount.ID,
		[]Payment{{PayeeID: "ann", Amount: dec("10")}}, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

// brokenWriteStore fails every combined transaction write, simulating a store
// outage at the worst moment.
type brokenWriteStore struct {
	storage.Store
}

func (s *brokenWriteStore) CreateTransactionWithSplits(context.Context, *models.Transaction, []*models.Split, *storage.AccountDelta) error {
	return errors.New("disk full")
}

func TestPlanSettlement_NoPartialStateOnWriteFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group, bobAccount := oweFixture(t, env)

	broken := NewSettlementService(&brokenWriteStore{Store: env.store}, env.ledger, NewLockSet())
	_, err := broken.PlanSettlement(ctx, group.ID, "bob", bobAccount.ID,
		[]Payment{{PayeeID: "ann", Amount: dec("50")}}, 0)
	require.Error(t, err)

	// The failed write must not have touched the payer's account.
	got, err := env.store.GetAccount(ctx, bobAccount.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("500")), "got %s", got.Balance)
}

func TestPlanSettlement_PayeeMustHaveJoined(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group, bobAccount := oweFixture(t, env)

	// Cal rejected the invite, so settlement reports exclude them; paying
	// them anyway would leave a share counted for nobody.
	require.NoError(t, env.groups.InviteMember(ctx, group.ID, "ann", "cal"))
	require.NoError(t, env.groups.RejectInvite(ctx, group.ID, "cal"))

	_, err := env.settlements.PlanSettlement(ctx, group.ID, "bob", bobAccount.ID,
		[]Payment{{PayeeID: "cal", Amount: dec("50")}}, 0)
	assert.ErrorIs(t, err, ErrValidation)

	// Member nets still sum to zero.
	balances, err := env.ledger.Balances(ctx, group.ID, "bob")
	require.NoError(t, err)
	sum := decimal.Zero
	for _, m := range balances.Members {
		sum = sum.Add(m.Net)
	}
	assert.True(t, sum.IsZero(), "nets must sum to zero, got %s", sum)
}

func TestSuggestedAmount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group, _ := oweFixture(t, env)

	// Bob owes ann 50, so that is the suggestion for bob paying ann.
	amount, err := env.settlements.SuggestedAmount(ctx, group.ID, "bob", "ann")
	require.NoError(t, err)
	assert.True(t, amount.Equal(dec("50")), "got %s", amount)

	// Ann owes bob nothing; the suggestion floors at zero.
	amount, err = env.settlements.SuggestedAmount(ctx, group.ID, "ann", "bob")
	require.NoError(t, err)
	assert.True(t, amount.IsZero())
}
