// Package action defines the closed set of executable instructions the
// engine can produce, and the Result values execution yields. An Action can
// only be obtained through the Builder, which enforces each intent's
// required-entity schema: no Action value exists in a partial state.
package action

import (
	"time"

	apperrors "ledgerchat/internal/common/errors"
	"ledgerchat/internal/engine/intent"
)

// Action is the closed variant type. The sealed method keeps the set of
// implementations fixed to this package, so the executor's dispatch is an
// exhaustive switch rather than a string-keyed lookup.
type Action interface {
	Intent() intent.Intent
	sealed()
}

// RecordSale records one sale.
type RecordSale struct {
	Item     string
	Amount   int64
	Customer string
	Quantity float64
	Unit     string
	Date     *time.Time
}

// RecordPurchase records one purchase of stock.
type RecordPurchase struct {
	Item     string
	Amount   int64
	Supplier string
	Quantity float64
	Unit     string
	Date     *time.Time
}

// RecordExpense records one expense.
type RecordExpense struct {
	Item   string
	Amount int64
	Payee  string
	Date   *time.Time
}

// QueryTotal sums a collection over an optional date range.
type QueryTotal struct {
	Subject intent.Subject
	From    *time.Time
	To      *time.Time
}

// QueryList reads recent records, newest first, bounded by the engine's
// page size.
type QueryList struct {
	Subject intent.Subject
	Name    string
	From    *time.Time
	To      *time.Time
}

// DeleteEntry soft-deletes exactly one record matched by the filter fields.
type DeleteEntry struct {
	Subject intent.Subject
	Name    string
	Amount  *int64
	From    *time.Time
	To      *time.Time
}

// UnknownCommand is the terminal pseudo-action for unclassifiable input; it
// carries the original text for logging and suggestions.
type UnknownCommand struct {
	Text string
}

func (RecordSale) Intent() intent.Intent     { return intent.RecordSale }
func (RecordPurchase) Intent() intent.Intent { return intent.RecordPurchase }
func (RecordExpense) Intent() intent.Intent  { return intent.RecordExpense }
func (QueryTotal) Intent() intent.Intent     { return intent.QueryTotal }
func (QueryList) Intent() intent.Intent      { return intent.QueryList }
func (DeleteEntry) Intent() intent.Intent    { return intent.DeleteEntry }
func (UnknownCommand) Intent() intent.Intent { return intent.Unknown }

func (RecordSale) sealed()     {}
func (RecordPurchase) sealed() {}
func (RecordExpense) sealed()  {}
func (QueryTotal) sealed()     {}
func (QueryList) sealed()      {}
func (DeleteEntry) sealed()    {}
func (UnknownCommand) sealed() {}

// Result is the outcome of executing an Action. Message is user-facing and
// localized; ErrKind is empty on success.
type Result struct {
	OK      bool                   `json:"ok"`
	Message string                 `json:"message"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	ErrKind apperrors.ErrorCode    `json:"errorKind,omitempty"`
}
