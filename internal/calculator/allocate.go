package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Epsilon is the reconciliation tolerance: split amounts may be rounded, so
// sums are compared within one cent of the parent amount.
var Epsilon = decimal.New(1, -2) // 0.01

// ErrAllocationMismatch is returned when custom shares do not sum to the
// allocated total within Epsilon.
var ErrAllocationMismatch = errors.New("custom shares do not reconcile with total")

// Method selects how an allocation distributes the total among members.
type Method string

const (
	MethodEqual  Method = "equal"
	MethodCustom Method = "custom"
)

// Transaction carries the minimal transaction information an allocation needs.
type Transaction struct {
	ID     string
	Amount decimal.Decimal
}

// Allocation is the result of distributing one or more transactions among
// members.
//
// PerTransaction maps transaction ID -> member ID -> that member's share of
// that transaction. For every transaction the per-member shares sum exactly to
// the transaction amount; rounding remainders are absorbed by the first member
// in the caller-supplied order, so the result is deterministic. Shares is the
// aggregate per member across all transactions and therefore sums exactly to
// Total.
type Allocation struct {
	Total          decimal.Decimal
	Shares         map[string]decimal.Decimal
	PerTransaction map[string]map[string]decimal.Decimal
}

// Allocate computes each member's share of the combined transaction total.
//
// With MethodEqual every member carries the same weight. With MethodCustom the
// weights come from customShares, which must cover the total within Epsilon or
// the allocation fails with ErrAllocationMismatch. Members absent from
// customShares get a zero share.
//
// Allocating zero transactions returns an empty allocation; a zero total
// returns all-zero shares. Neither is an error.
func Allocate(txns []Transaction, memberIDs []string, method Method, customShares map[string]decimal.Decimal) (*Allocation, error) {
	alloc := &Allocation{
		Shares:         make(map[string]decimal.Decimal),
		PerTransaction: make(map[string]map[string]decimal.Decimal),
	}
	if len(txns) == 0 {
		return alloc, nil
	}
	if len(memberIDs) == 0 {
		return nil, fmt.Errorf("must have at least one member")
	}

	total := decimal.Zero
	for _, txn := range txns {
		if txn.Amount.IsNegative() {
			return nil, fmt.Errorf("transaction %s has negative amount", txn.ID)
		}
		total = total.Add(txn.Amount)
	}
	alloc.Total = total

	numerators, denominator, err := shareWeights(total, memberIDs, method, customShares)
	if err != nil {
		return nil, err
	}

	for _, id := range memberIDs {
		alloc.Shares[id] = decimal.Zero
	}

	// Distribute each transaction independently so the per-transaction
	// reconciliation invariant holds exactly, not just within tolerance.
	// Multiply before dividing to keep exact ratios exact (300 * 1/3 must
	// come out as 100, not 99.99).
	for _, txn := range txns {
		parts := make(map[string]decimal.Decimal, len(memberIDs))
		distributed := decimal.Zero
		for _, id := range memberIDs {
			part := decimal.Zero
			if !denominator.IsZero() {
				part = txn.Amount.Mul(numerators[id]).Div(denominator).RoundDown(2)
			}
			parts[id] = part
			distributed = distributed.Add(part)
		}
		// RoundDown never over-distributes; the first member absorbs
		// whatever cents are left.
		if remainder := txn.Amount.Sub(distributed); !remainder.IsZero() {
			first := memberIDs[0]
			parts[first] = parts[first].Add(remainder)
		}
		alloc.PerTransaction[txn.ID] = parts
		for id, part := range parts {
			alloc.Shares[id] = alloc.Shares[id].Add(part)
		}
	}

	return alloc, nil
}

// shareWeights returns each member's weight as numerators over a shared
// denominator. A zero denominator means every share is zero.
func shareWeights(total decimal.Decimal, memberIDs []string, method Method, customShares map[string]decimal.Decimal) (map[string]decimal.Decimal, decimal.Decimal, error) {
	numerators := make(map[string]decimal.Decimal, len(memberIDs))

	if total.IsZero() {
		for _, id := range memberIDs {
			numerators[id] = decimal.Zero
		}
		return numerators, decimal.Zero, nil
	}

	switch method {
	case MethodEqual:
		for _, id := range memberIDs {
			numerators[id] = decimal.New(1, 0)
		}
		return numerators, decimal.NewFromInt(int64(len(memberIDs))), nil

	case MethodCustom:
		sum := decimal.Zero
		for _, id := range memberIDs {
			share, ok := customShares[id]
			if !ok {
				share = decimal.Zero
			}
			if share.IsNegative() {
				return nil, decimal.Zero, fmt.Errorf("custom share for %s is negative", id)
			}
			numerators[id] = share
			sum = sum.Add(share)
		}
		if sum.Sub(total).Abs().GreaterThan(Epsilon) {
			return nil, decimal.Zero, fmt.Errorf("%w: shares sum to %s, total is %s", ErrAllocationMismatch, sum, total)
		}
		return numerators, total, nil

	default:
		return nil, decimal.Zero, fmt.Errorf("unknown allocation method %q", method)
	}
}
