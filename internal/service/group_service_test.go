package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/calculator"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

func TestCreateGroup_CreatorJoinsAsAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	group, err := env.groups.CreateGroup(ctx, "trip", "ann", "")
	require.NoError(t, err)

	member, err := env.store.GetMember(ctx, group.ID, "ann")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, member.Role)
	assert.Equal(t, models.MemberJoined, member.Status)
}

func TestCreateGroup_RequiresName(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.groups.CreateGroup(context.Background(), "", "ann", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestInviteLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group, err := env.groups.CreateGroup(ctx, "trip", "ann", "")
	require.NoError(t, err)

	require.NoError(t, env.groups.InviteMember(ctx, group.ID, "ann", "bob"))
	member, err := env.store.GetMember(ctx, group.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.MemberInvited, member.Status)

	require.NoError(t, env.groups.AcceptInvite(ctx, group.ID, "bob"))
	member, err = env.store.GetMember(ctx, group.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.MemberJoined, member.Status)

	// Accepting twice is a state error, not idempotent.
	err = env.groups.AcceptInvite(ctx, group.ID, "bob")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRejectInvite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group, err := env.groups.CreateGroup(ctx, "trip", "ann", "")
	require.NoError(t, err)

	require.NoError(t, env.groups.InviteMember(ctx, group.ID, "ann", "bob"))
	require.NoError(t, env.groups.RejectInvite(ctx, group.ID, "bob"))

	groups, err := env.groups.ListGroups(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestInviteMember_InviterMustHaveJoined(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group, err := env.groups.CreateGroup(ctx, "trip", "ann", "")
	require.NoError(t, err)
	require.NoError(t, env.groups.InviteMember(ctx, group.ID, "ann", "bob"))

	// Bob is still only invited and cannot invite anyone else.
	err = env.groups.InviteMember(ctx, group.ID, "bob", "cal")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestDeleteGroup_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.newGroup(t, "trip", "ann", "bob")

	err := env.groups.DeleteGroup(ctx, group.ID, "bob")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// The group is untouched.
	_, err = env.groups.GetGroup(ctx, group.ID)
	require.NoError(t, err)
}

func TestDeleteGroup_RevertsAccountBalances(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.newAccount(t, "ann", dec("1200"))
	group := env.newGroup(t, "trip", "ann", "bob")

	txn := env.recordExpense(t, group.ID, "ann", account.ID, dec("200"))
	_, err := env.ledger.AllocateSplits(ctx, group.ID, []string{txn.ID}, calculator.MethodEqual, nil, nil)
	require.NoError(t, err)

	got, err := env.store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	require.True(t, got.Balance.Equal(dec("1000")), "expense applied, got %s", got.Balance)

	require.NoError(t, env.groups.DeleteGroup(ctx, group.ID, "ann"))

	got, err = env.store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("1200")), "reversal must restore the balance, got %s", got.Balance)

	_, err = env.groups.GetGroup(ctx, group.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = env.store.GetTransaction(ctx, txn.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	splits, err := env.store.ListSplitsByTransactions(ctx, []string{txn.ID})
	require.NoError(t, err)
	assert.Empty(t, splits)
}

func TestDeleteGroup_ReversalMirrorsTransactionType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.newAccount(t, "ann", dec("1000"))
	group := env.newGroup(t, "trip", "ann")

	// Income adds on creation, so deletion must subtract it back; the
	// transfer applies no delta either way.
	require.NoError(t, env.ledger.RecordTransaction(ctx, &models.Transaction{
		GroupID: group.ID, UserID: "ann", Amount: dec("300"), Type: models.TypeIncome, AccountID: account.ID,
	}))
	require.NoError(t, env.ledger.RecordTransaction(ctx, &models.Transaction{
		GroupID: group.ID, UserID: "ann", Amount: dec("75"), Type: models.TypeTransfer, AccountID: account.ID,
	}))

	require.NoError(t, env.groups.DeleteGroup(ctx, group.ID, "ann"))

	got, err := env.store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("1000")), "got %s", got.Balance)
}

func TestDeleteGroup_NotFound(t *testing.T) {
	env := newTestEnv(t)
	err := env.groups.DeleteGroup(context.Background(), "missing", "ann")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
