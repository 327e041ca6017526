// Package executor carries resolved actions out against the ledger store and
// renders user-facing Vietnamese messages. Execution never panics: every
// outcome, positive or negative, is a Result.
package executor

import (
	"context"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	apperrors "ledgerchat/internal/common/errors"
	"ledgerchat/internal/common/logger"
	"ledgerchat/internal/common/metrics"
	"ledgerchat/internal/engine/action"
	"ledgerchat/internal/engine/intent"
	"ledgerchat/internal/store"
)

// suggestionMaxDistance bounds how far an input word may be from a trigger
// phrase before we stop suggesting it.
const suggestionMaxDistance = 2

var vnPrinter = message.NewPrinter(language.Vietnamese)

// Executor executes Actions against a ledger store.
type Executor struct {
	store    store.Store
	triggers []intent.Trigger
	pageSize int
	timeout  time.Duration
	logger   logger.Logger
}

// NewExecutor builds an executor. The trigger table is used only to suggest
// corrections for unrecognized input; pageSize bounds list reads; timeout
// bounds each store call.
func NewExecutor(st store.Store, triggers []intent.Trigger, pageSize int, timeout time.Duration, log logger.Logger) *Executor {
	return &Executor{store: st, triggers: triggers, pageSize: pageSize, timeout: timeout, logger: log}
}

// Execute dispatches the action over the closed variant set. Store failures
// become a STORE_ERROR result with a generic localized message; the store's
// own error text never reaches the user.
func (e *Executor) Execute(ctx context.Context, act action.Action) action.Result {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var res action.Result
	switch a := act.(type) {
	case action.RecordSale:
		res = e.recordSale(ctx, a)
	case action.RecordPurchase:
		res = e.recordPurchase(ctx, a)
	case action.RecordExpense:
		res = e.recordExpense(ctx, a)
	case action.QueryTotal:
		res = e.queryTotal(ctx, a)
	case action.QueryList:
		res = e.queryList(ctx, a)
	case action.DeleteEntry:
		res = e.deleteEntry(ctx, a)
	case action.UnknownCommand:
		res = e.unknown(a)
	}

	outcome := "ok"
	if !res.OK {
		outcome = "failed"
		metrics.CommandsFailed.WithLabelValues(string(res.ErrKind)).Inc()
	}
	metrics.CommandsExecuted.WithLabelValues(string(act.Intent()), outcome).Inc()
	metrics.ExecuteDuration.WithLabelValues(string(act.Intent())).Observe(time.Since(start).Seconds())
	return res
}

func (e *Executor) recordSale(ctx context.Context, a action.RecordSale) action.Result {
	if res, ok := checkAmount(a.Amount, intent.RecordSale); !ok {
		return res
	}
	rec := store.Record{
		Item:         a.Item,
		Amount:       a.Amount,
		Counterparty: a.Customer,
		Quantity:     a.Quantity,
		Unit:         a.Unit,
	}
	if a.Date != nil {
		rec.OccurredAt = *a.Date
	}
	id, err := e.store.Insert(ctx, store.Sales, rec)
	if err != nil {
		return e.storeFailure("insert sale", err)
	}

	msg := "Đã ghi bán " + describeItem(a.Item, a.Quantity, a.Unit)
	if a.Customer != "" {
		msg += " cho " + a.Customer
	}
	msg += ": " + formatVND(a.Amount)
	return action.Result{
		OK:      true,
		Message: msg,
		Payload: map[string]interface{}{"id": id, "amount": a.Amount},
	}
}

func (e *Executor) recordPurchase(ctx context.Context, a action.RecordPurchase) action.Result {
	if res, ok := checkAmount(a.Amount, intent.RecordPurchase); !ok {
		return res
	}
	rec := store.Record{
		Item:         a.Item,
		Amount:       a.Amount,
		Counterparty: a.Supplier,
		Quantity:     a.Quantity,
		Unit:         a.Unit,
	}
	if a.Date != nil {
		rec.OccurredAt = *a.Date
	}
	id, err := e.store.Insert(ctx, store.Purchases, rec)
	if err != nil {
		return e.storeFailure("insert purchase", err)
	}

	msg := "Đã ghi nhập " + describeItem(a.Item, a.Quantity, a.Unit)
	if a.Supplier != "" {
		msg += " từ " + a.Supplier
	}
	msg += ": " + formatVND(a.Amount)
	return action.Result{
		OK:      true,
		Message: msg,
		Payload: map[string]interface{}{"id": id, "amount": a.Amount},
	}
}

func (e *Executor) recordExpense(ctx context.Context, a action.RecordExpense) action.Result {
	if res, ok := checkAmount(a.Amount, intent.RecordExpense); !ok {
		return res
	}
	rec := store.Record{
		Item:         a.Item,
		Amount:       a.Amount,
		Counterparty: a.Payee,
	}
	if a.Date != nil {
		rec.OccurredAt = *a.Date
	}
	id, err := e.store.Insert(ctx, store.Expenses, rec)
	if err != nil {
		return e.storeFailure("insert expense", err)
	}

	msg := "Đã ghi chi"
	if a.Item != "" {
		msg += " " + a.Item
	}
	msg += ": " + formatVND(a.Amount)
	return action.Result{
		OK:      true,
		Message: msg,
		Payload: map[string]interface{}{"id": id, "amount": a.Amount},
	}
}

func (e *Executor) queryTotal(ctx context.Context, a action.QueryTotal) action.Result {
	total, err := e.store.Sum(ctx, collectionFor(a.Subject), store.Filter{From: a.From, To: a.To})
	if err != nil {
		return e.storeFailure("sum", err)
	}
	return action.Result{
		OK:      true,
		Message: "Tổng " + subjectLabel(a.Subject) + ": " + formatVND(total),
		Payload: map[string]interface{}{"total": total},
	}
}

func (e *Executor) queryList(ctx context.Context, a action.QueryList) action.Result {
	records, err := e.store.List(ctx, collectionFor(a.Subject), store.Filter{
		Counterparty: a.Name,
		From:         a.From,
		To:           a.To,
	}, e.pageSize)
	if err != nil {
		return e.storeFailure("list", err)
	}
	if len(records) == 0 {
		return action.Result{
			OK:      true,
			Message: "Không có ghi chép " + subjectLabel(a.Subject) + " nào.",
			Payload: map[string]interface{}{"records": []store.Record{}},
		}
	}
	return action.Result{
		OK:      true,
		Message: vnPrinter.Sprintf("Có %d ghi chép %s gần nhất.", len(records), subjectLabel(a.Subject)),
		Payload: map[string]interface{}{"records": records},
	}
}

// deleteEntry resolves the filter to exactly one record before deleting.
// Zero matches and multiple matches are both negative results; nothing is
// deleted unless the match is unique.
func (e *Executor) deleteEntry(ctx context.Context, a action.DeleteEntry) action.Result {
	c := collectionFor(a.Subject)
	filter := store.Filter{
		Counterparty: a.Name,
		Amount:       a.Amount,
		From:         a.From,
		To:           a.To,
	}

	matches, err := e.store.List(ctx, c, filter, 2)
	if err != nil {
		return e.storeFailure("list for delete", err)
	}
	switch len(matches) {
	case 0:
		return e.targetNotFound(c)
	case 1:
	default:
		stdErr := apperrors.NewAmbiguousTargetError(string(c), len(matches))
		e.logger.Debug(stdErr.Message, map[string]interface{}{"details": stdErr.Details})
		return action.Result{
			OK:      false,
			Message: "Có nhiều hơn một ghi chép khớp, vui lòng mô tả rõ hơn.",
			ErrKind: stdErr.Code,
		}
	}

	count, err := e.store.DeleteOne(ctx, c, store.Filter{ID: matches[0].ID})
	if err != nil {
		return e.storeFailure("delete", err)
	}
	if count == 0 {
		return e.targetNotFound(c)
	}
	return action.Result{
		OK:      true,
		Message: "Đã xóa ghi chép " + describeItem(matches[0].Item, matches[0].Quantity, matches[0].Unit) + " (" + formatVND(matches[0].Amount) + ").",
		Payload: map[string]interface{}{"id": matches[0].ID},
	}
}

func (e *Executor) unknown(a action.UnknownCommand) action.Result {
	stdErr := apperrors.NewUnrecognizedError(a.Text)
	e.logger.Debug(stdErr.Message, map[string]interface{}{"details": stdErr.Details})

	msg := "Không hiểu yêu cầu."
	if hint, ok := e.suggest(a.Text); ok {
		msg += " Có phải bạn muốn \"" + hint + "\"?"
	}
	return action.Result{
		OK:      false,
		Message: msg,
		ErrKind: stdErr.Code,
	}
}

func (e *Executor) targetNotFound(c store.Collection) action.Result {
	stdErr := apperrors.NewTargetNotFoundError(string(c))
	e.logger.Debug(stdErr.Message, map[string]interface{}{"details": stdErr.Details})
	return action.Result{
		OK:      false,
		Message: "Không tìm thấy ghi chép nào khớp để xóa.",
		ErrKind: stdErr.Code,
	}
}

// suggest finds the trigger phrase closest to any word of the input, within
// the edit-distance bound.
func (e *Executor) suggest(text string) (string, bool) {
	bestDist := suggestionMaxDistance + 1
	best := ""
	for _, word := range splitFolded(text) {
		for _, trig := range e.triggers {
			d := levenshtein.ComputeDistance(word, intent.Fold(trig.Phrase))
			if d > 0 && d < bestDist {
				bestDist = d
				best = trig.Phrase
			}
		}
	}
	return best, best != ""
}

func (e *Executor) storeFailure(operation string, err error) action.Result {
	stdErr := apperrors.NewStoreError(operation, err)
	e.logger.WithError(err).Error(stdErr.Message, map[string]interface{}{
		"operation": operation,
	})
	return action.Result{
		OK:      false,
		Message: "Không thể truy cập sổ ghi chép, vui lòng thử lại sau.",
		ErrKind: stdErr.Code,
	}
}

func checkAmount(amount int64, forIntent intent.Intent) (action.Result, bool) {
	if amount > 0 {
		return action.Result{}, true
	}
	return action.Result{
		OK:      false,
		Message: "Số tiền phải lớn hơn không.",
		ErrKind: apperrors.NewMissingEntityError(string(forIntent), "amount").Code,
	}, false
}

func collectionFor(s intent.Subject) store.Collection {
	switch s {
	case intent.SubjectPurchases:
		return store.Purchases
	case intent.SubjectExpenses:
		return store.Expenses
	default:
		return store.Sales
	}
}

func subjectLabel(s intent.Subject) string {
	switch s {
	case intent.SubjectPurchases:
		return "nhập hàng"
	case intent.SubjectExpenses:
		return "chi tiêu"
	default:
		return "doanh thu"
	}
}

// formatVND renders an amount with Vietnamese digit grouping.
func formatVND(amount int64) string {
	return vnPrinter.Sprintf("%dđ", amount)
}

func describeItem(item string, qty float64, unit string) string {
	desc := item
	if desc == "" {
		desc = "hàng"
	}
	if qty > 0 && unit != "" {
		return vnPrinter.Sprintf("%v %s %s", qty, unit, desc)
	}
	return desc
}

func splitFolded(text string) []string {
	var words []string
	for _, w := range strings.Fields(text) {
		words = append(words, intent.Fold(w))
	}
	return words
}
