package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DebtEdge is a suggested payment from one member to another.
type DebtEdge struct {
	From   string // member who owes
	To     string // member who is owed
	Amount decimal.Decimal
}

// SuggestSettlements proposes a small set of payments that would bring every
// member's net balance to zero. Members with negative nets are matched
// greedily against members with positive nets, largest first; ties break on
// user ID so the output is deterministic.
//
// The suggestions are a UX default only. Callers are free to settle partially
// or in a different order; nothing here is persisted.
func SuggestSettlements(report *BalanceReport) []DebtEdge {
	var debtors, creditors []MemberBalance
	for _, m := range report.Members {
		switch {
		case m.Net.LessThan(Epsilon.Neg()):
			debtors = append(debtors, m)
		case m.Net.GreaterThan(Epsilon):
			creditors = append(creditors, m)
		}
	}

	byMagnitude := func(s []MemberBalance) {
		sort.Slice(s, func(i, j int) bool {
			a, b := s[i].Net.Abs(), s[j].Net.Abs()
			if !a.Equal(b) {
				return a.GreaterThan(b)
			}
			return s[i].UserID < s[j].UserID
		})
	}
	byMagnitude(debtors)
	byMagnitude(creditors)

	owes := make(map[string]decimal.Decimal, len(debtors))
	for _, d := range debtors {
		owes[d.UserID] = d.Net.Neg()
	}
	owed := make(map[string]decimal.Decimal, len(creditors))
	for _, c := range creditors {
		owed[c.UserID] = c.Net
	}

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := debtors[i].UserID
		creditor := creditors[j].UserID

		amount := owes[debtor]
		if owed[creditor].LessThan(amount) {
			amount = owed[creditor]
		}
		if amount.GreaterThan(Epsilon) {
			edges = append(edges, DebtEdge{From: debtor, To: creditor, Amount: amount})
		}

		owes[debtor] = owes[debtor].Sub(amount)
		owed[creditor] = owed[creditor].Sub(amount)

		if owes[debtor].LessThanOrEqual(Epsilon) {
			i++
		}
		if owed[creditor].LessThanOrEqual(Epsilon) {
			j++
		}
	}
	return edges
}
