// Package store defines the ledger store consumed by the action executor:
// an opaque, collection-oriented CRUD service. The engine treats every call
// as a single atomic operation and never composes multi-step transactions.
package store

import (
	"context"
	"time"
)

// Collection is the closed set of ledger collections. Dispatch over this
// enum replaces string-keyed collection lookups, so an unknown collection
// name cannot occur at runtime.
type Collection string

const (
	Sales     Collection = "sales"
	Purchases Collection = "purchases"
	Expenses  Collection = "expenses"
)

// Valid reports whether c is one of the known collections.
func (c Collection) Valid() bool {
	switch c {
	case Sales, Purchases, Expenses:
		return true
	}
	return false
}

// Record is one ledger entry. Counterparty is the customer, supplier, or
// payee depending on the collection.
type Record struct {
	ID           string    `json:"id"`
	Item         string    `json:"item"`
	Amount       int64     `json:"amount"`
	Counterparty string    `json:"counterparty,omitempty"`
	Quantity     float64   `json:"quantity,omitempty"`
	Unit         string    `json:"unit,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Filter narrows reads, sums, and deletions. Zero-valued fields are ignored.
// From/To bound OccurredAt as a half-open interval [From, To).
type Filter struct {
	ID           string
	Counterparty string
	Amount       *int64
	From         *time.Time
	To           *time.Time
}

// Store is the ledger store interface. Every method surfaces connectivity or
// constraint failures as-is; retry policy belongs to the caller.
type Store interface {
	// Insert writes one record and returns its id. A zero OccurredAt is
	// assigned by the store.
	Insert(ctx context.Context, c Collection, rec Record) (string, error)
	// Sum aggregates amounts over records matching the filter.
	Sum(ctx context.Context, c Collection, f Filter) (int64, error)
	// List reads up to limit matching records, newest first.
	List(ctx context.Context, c Collection, f Filter, limit int) ([]Record, error)
	// DeleteOne soft-deletes at most one matching record and returns the
	// number of records deleted.
	DeleteOne(ctx context.Context, c Collection, f Filter) (int64, error)
}
