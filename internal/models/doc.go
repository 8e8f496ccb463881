// Package models defines the core domain entities for the shared-expense ledger.
//
// # Entities
//
//   - Group: a set of people who share expenses
//   - Member: one user's participation record in a group (role + invite status)
//   - Transaction: a monetary event paid by one user, optionally scoped to a group
//   - Split: one member's share of one transaction
//   - Account: a user's money account with a running balance
//   - User: a registered account used for login and display enrichment
//
// # Design principles
//
//  1. All money amounts are decimal.Decimal, never floats. The reconciliation
//     tolerance for rounded shares is one cent (0.01).
//  2. Relationships use ID strings instead of pointers to avoid circular
//     references; joins happen in memory via maps keyed by ID.
//  3. Balances are never stored. They are derived from transactions and splits
//     on every read (see internal/calculator).
//  4. Member lifecycle is soft: invited -> joined or invited -> rejected via
//     the Status field. Rows are only physically removed when the group is
//     deleted.
package models
