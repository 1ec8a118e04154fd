// Package billing reconciles receipts against bills: it computes taxes,
// validates candidate payments, derives payment states and aggregates bill totals.
// Everything here is pure; persistence and locking live in the services layer.
package billing
