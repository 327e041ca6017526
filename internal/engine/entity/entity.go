// Package entity extracts typed spans (amounts, dates, quantities, names,
// free text) from a normalized token stream.
package entity

import "time"

// Kind tags the entity variant.
type Kind string

const (
	KindAmount    Kind = "amount"
	KindDateRange Kind = "date_range"
	KindQuantity  Kind = "quantity"
	KindName      Kind = "name"
	KindFreeText  Kind = "free_text"
)

// Role hints whether a name refers to a customer or a supplier.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSupplier Role = "supplier"
	RoleUnknown  Role = "unknown"
)

// Entity is a tagged variant; only the fields for its Kind are meaningful.
// Every entity carries the byte span of the raw input it was derived from,
// for traceability and error messages.
type Entity struct {
	Kind Kind

	// KindAmount: value in VND, with a hint of how the currency was stated.
	Amount       int64
	CurrencyHint string

	// KindDateRange: half-open interval [From, To).
	From time.Time
	To   time.Time

	// KindQuantity.
	Qty  float64
	Unit string

	// KindName.
	Name string
	Role Role

	// KindFreeText.
	Text string

	SpanStart int
	SpanEnd   int
}

// SpanLen is the byte length of the source span; the builder prefers the
// longest span when disambiguating between candidates of the same kind.
func (e Entity) SpanLen() int {
	return e.SpanEnd - e.SpanStart
}

// OfKind filters entities by kind, preserving order.
func OfKind(entities []Entity, kind Kind) []Entity {
	var out []Entity
	for _, e := range entities {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
