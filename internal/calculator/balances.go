package calculator

import "github.com/shopspring/decimal"

// SettledTolerance is the net-balance magnitude below which a member counts as
// settled. It is deliberately looser than Epsilon: equal splits round to whole
// cents, and sub-unit residue is not worth chasing anyone for.
var SettledTolerance = decimal.New(1, 0) // 1.00

// BalanceStatus classifies a member's overall position in a group.
type BalanceStatus string

const (
	BalanceSettled BalanceStatus = "settled"
	BalanceOwed    BalanceStatus = "owed" // net > 0: others owe this member
	BalanceOwes    BalanceStatus = "owes" // net < 0: this member owes others
)

// PaidTransaction carries the minimal transaction information balance
// aggregation needs. Only transactions that actually have splits (shared
// expenses) belong here.
type PaidTransaction struct {
	ID      string
	PayerID string
	Amount  decimal.Decimal
}

// Split carries the minimal split information balance aggregation needs.
type Split struct {
	TransactionID string
	UserID        string
	Amount        decimal.Decimal
}

// MemberBalance is one member's derived position in a group.
//
// Bilateral is relative to the report's viewer and follows one fixed sign
// convention: Bilateral > 0 means this member owes the viewer, Bilateral < 0
// means the viewer owes this member. Everything downstream (settlement
// suggestions, display coloring) derives from this convention rather than
// re-inferring it.
type MemberBalance struct {
	UserID      string
	DisplayName string
	Paid        decimal.Decimal
	Share       decimal.Decimal
	Net         decimal.Decimal
	Bilateral   decimal.Decimal
	Status      BalanceStatus
}

// BalanceReport is the derived balance state of a whole group.
type BalanceReport struct {
	Members    []MemberBalance
	TotalSpend decimal.Decimal
}

// ComputeGroupBalances derives every member's net and bilateral balance from
// raw transaction and split rows. Transactions without splits must already be
// filtered out by the caller; pass only shared expenses.
//
// The computation is a pure in-memory join: one pass over transactions for the
// paid map, one pass over splits for the share and bilateral maps. A group
// with zero transactions yields all-zero balances. The invariant that member
// nets sum to zero holds whenever every transaction's splits reconcile.
func ComputeGroupBalances(txns []PaidTransaction, splits []Split, memberIDs []string, viewerID string) *BalanceReport {
	paid := make(map[string]decimal.Decimal)
	share := make(map[string]decimal.Decimal)
	bilateral := make(map[string]decimal.Decimal)

	payerByTxn := make(map[string]string, len(txns))
	totalSpend := decimal.Zero
	for _, txn := range txns {
		payerByTxn[txn.ID] = txn.PayerID
		paid[txn.PayerID] = paid[txn.PayerID].Add(txn.Amount)
		totalSpend = totalSpend.Add(txn.Amount)
	}

	for _, sp := range splits {
		share[sp.UserID] = share[sp.UserID].Add(sp.Amount)

		payer, ok := payerByTxn[sp.TransactionID]
		if !ok {
			continue // split references a transaction outside this group
		}
		switch {
		case payer == viewerID && sp.UserID != viewerID:
			// Someone else's share of a transaction the viewer paid:
			// they owe the viewer.
			bilateral[sp.UserID] = bilateral[sp.UserID].Add(sp.Amount)
		case payer != viewerID && sp.UserID == viewerID:
			// The viewer's share of a transaction someone else paid:
			// the viewer owes the payer.
			bilateral[payer] = bilateral[payer].Sub(sp.Amount)
		}
	}

	report := &BalanceReport{TotalSpend: totalSpend}
	for _, id := range memberIDs {
		net := paid[id].Sub(share[id])
		status := BalanceSettled
		if net.Abs().GreaterThanOrEqual(SettledTolerance) {
			if net.IsPositive() {
				status = BalanceOwed
			} else {
				status = BalanceOwes
			}
		}
		report.Members = append(report.Members, MemberBalance{
			UserID:    id,
			Paid:      paid[id],
			Share:     share[id],
			Net:       net,
			Bilateral: bilateral[id],
			Status:    status,
		})
	}
	return report
}

// BilateralTo returns the viewer-relative bilateral balance for one member of
// a report, zero when the member is absent.
func (r *BalanceReport) BilateralTo(userID string) decimal.Decimal {
	for _, m := range r.Members {
		if m.UserID == userID {
			return m.Bilateral
		}
	}
	return decimal.Zero
}
