// Package models defines the records Splitledger persists.
//
// Members are identified by display name within a group. Balances and
// settlements are never stored; they are derived from these records on
// every request by the ledger package.
//
// Relationships use ID strings rather than pointers: an Expense or Payment
// refers to its group through GroupID, and to members by name.
package models
