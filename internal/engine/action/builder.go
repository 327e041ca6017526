package action

import (
	"strconv"
	"strings"

	apperrors "ledgerchat/internal/common/errors"
	"ledgerchat/internal/engine/entity"
	"ledgerchat/internal/engine/intent"
	"ledgerchat/internal/engine/token"
)

// Builder combines a classified intent with extracted entities into one
// fully-validated Action. It owns each intent's required-entity schema.
type Builder struct {
	stopwords map[string]bool
}

// Filler words dropped from item descriptions alongside the trigger
// vocabulary. Category nouns like "tiền điện" stay.
var fillerWords = []string{
	"cho", "với", "voi", "giá", "gia", "của", "cua", "từ", "tu",
	"khách", "khach", "hết", "het", "ơi", "nhé", "nhe", "giúp", "giup",
}

// NewBuilder derives the item-description stopword set from the same trigger
// table the classifier uses, so substituting a table reconfigures both.
func NewBuilder(table []intent.Trigger) *Builder {
	stop := make(map[string]bool)
	for _, trig := range table {
		for _, w := range strings.Fields(trig.Phrase) {
			stop[intent.Fold(w)] = true
		}
	}
	for _, w := range fillerWords {
		stop[intent.Fold(w)] = true
	}
	return &Builder{stopwords: stop}
}

// Build returns the Action for the classification, or a ValidationError
// (*errors.StandardError with a validation code) when the required-entity
// schema is not satisfied. Unknown input always builds UnknownCommand.
func (b *Builder) Build(cls intent.Classification, entities []entity.Entity, tokens []token.Token, raw string) (Action, error) {
	switch cls.Intent {
	case intent.RecordSale:
		return b.buildRecordSale(entities)
	case intent.RecordPurchase:
		return b.buildRecordPurchase(entities)
	case intent.RecordExpense:
		return b.buildRecordExpense(entities)
	case intent.QueryTotal:
		return b.buildQueryTotal(entities, tokens)
	case intent.QueryList:
		return b.buildQueryList(entities, tokens)
	case intent.DeleteEntry:
		return b.buildDeleteEntry(entities, tokens)
	default:
		return UnknownCommand{Text: raw}, nil
	}
}

func (b *Builder) buildRecordSale(entities []entity.Entity) (Action, error) {
	amount, ok, err := singleton(entities, entity.KindAmount, intent.RecordSale)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewMissingEntityError(string(intent.RecordSale), string(entity.KindAmount))
	}

	act := RecordSale{
		Item:   b.itemText(entities),
		Amount: amount.Amount,
	}
	if name, ok := pickName(entities, entity.RoleCustomer); ok {
		act.Customer = name.Name
	}
	if qty, ok := first(entities, entity.KindQuantity); ok {
		act.Quantity = qty.Qty
		act.Unit = qty.Unit
	}
	if dr, ok := first(entities, entity.KindDateRange); ok {
		from := dr.From
		act.Date = &from
	}
	return act, nil
}

func (b *Builder) buildRecordPurchase(entities []entity.Entity) (Action, error) {
	amount, ok, err := singleton(entities, entity.KindAmount, intent.RecordPurchase)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewMissingEntityError(string(intent.RecordPurchase), string(entity.KindAmount))
	}

	act := RecordPurchase{
		Item:   b.itemText(entities),
		Amount: amount.Amount,
	}
	if name, ok := pickName(entities, entity.RoleSupplier); ok {
		act.Supplier = name.Name
	}
	if qty, ok := first(entities, entity.KindQuantity); ok {
		act.Quantity = qty.Qty
		act.Unit = qty.Unit
	}
	if dr, ok := first(entities, entity.KindDateRange); ok {
		from := dr.From
		act.Date = &from
	}
	return act, nil
}

func (b *Builder) buildRecordExpense(entities []entity.Entity) (Action, error) {
	amount, ok, err := singleton(entities, entity.KindAmount, intent.RecordExpense)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewMissingEntityError(string(intent.RecordExpense), string(entity.KindAmount))
	}

	act := RecordExpense{
		Item:   b.itemText(entities),
		Amount: amount.Amount,
	}
	if name, ok := pickName(entities, entity.RoleUnknown); ok {
		act.Payee = name.Name
	}
	if dr, ok := first(entities, entity.KindDateRange); ok {
		from := dr.From
		act.Date = &from
	}
	return act, nil
}

func (b *Builder) buildQueryTotal(entities []entity.Entity, tokens []token.Token) (Action, error) {
	subject, ok := intent.DetectSubject(tokens)
	if !ok {
		return nil, apperrors.NewMissingEntityError(string(intent.QueryTotal), "category")
	}
	act := QueryTotal{Subject: subject}
	if dr, ok := first(entities, entity.KindDateRange); ok {
		from, to := dr.From, dr.To
		act.From, act.To = &from, &to
	}
	return act, nil
}

func (b *Builder) buildQueryList(entities []entity.Entity, tokens []token.Token) (Action, error) {
	subject, ok := intent.DetectSubject(tokens)
	if !ok {
		return nil, apperrors.NewMissingEntityError(string(intent.QueryList), "category")
	}
	act := QueryList{Subject: subject}
	if name, ok := pickName(entities, entity.RoleUnknown); ok {
		act.Name = name.Name
	}
	if dr, ok := first(entities, entity.KindDateRange); ok {
		from, to := dr.From, dr.To
		act.From, act.To = &from, &to
	}
	return act, nil
}

func (b *Builder) buildDeleteEntry(entities []entity.Entity, tokens []token.Token) (Action, error) {
	subject, ok := intent.DetectSubject(tokens)
	if !ok {
		return nil, apperrors.NewMissingEntityError(string(intent.DeleteEntry), "category")
	}
	act := DeleteEntry{Subject: subject}
	if name, ok := pickName(entities, entity.RoleUnknown); ok {
		act.Name = name.Name
	}
	if amount, ok := first(entities, entity.KindAmount); ok {
		v := amount.Amount
		act.Amount = &v
	}
	if dr, ok := first(entities, entity.KindDateRange); ok {
		from, to := dr.From, dr.To
		act.From, act.To = &from, &to
	}
	return act, nil
}

// singleton resolves a kind that an intent needs at most one of. Multiple
// candidates resolve to the longest source span; an exact span-length tie is
// ambiguous and fails.
func singleton(entities []entity.Entity, kind entity.Kind, forIntent intent.Intent) (entity.Entity, bool, error) {
	matches := entity.OfKind(entities, kind)
	switch len(matches) {
	case 0:
		return entity.Entity{}, false, nil
	case 1:
		return matches[0], true, nil
	}

	best := matches[0]
	tie := false
	for _, m := range matches[1:] {
		switch {
		case m.SpanLen() > best.SpanLen():
			best = m
			tie = false
		case m.SpanLen() == best.SpanLen():
			tie = true
		}
	}
	if tie {
		var candidates []string
		for _, m := range matches {
			candidates = append(candidates, describe(m))
		}
		return entity.Entity{}, false, apperrors.NewAmbiguousEntityError(string(forIntent), string(kind), candidates)
	}
	return best, true, nil
}

// first returns the first entity of a kind, for optional slots where one
// occurrence is enough and extras are harmless.
func first(entities []entity.Entity, kind entity.Kind) (entity.Entity, bool) {
	matches := entity.OfKind(entities, kind)
	if len(matches) == 0 {
		return entity.Entity{}, false
	}
	return matches[0], true
}

func describe(e entity.Entity) string {
	switch e.Kind {
	case entity.KindAmount:
		return strconv.FormatInt(e.Amount, 10)
	case entity.KindName:
		return e.Name
	default:
		return e.Text
	}
}

// pickName prefers a name with the wanted role, falling back to any name.
func pickName(entities []entity.Entity, prefer entity.Role) (entity.Entity, bool) {
	names := entity.OfKind(entities, entity.KindName)
	if len(names) == 0 {
		return entity.Entity{}, false
	}
	for _, n := range names {
		if n.Role == prefer {
			return n, true
		}
	}
	return names[0], true
}

// itemText joins leftover free text into an item description, dropping
// trigger vocabulary and filler words.
func (b *Builder) itemText(entities []entity.Entity) string {
	var words []string
	for _, e := range entity.OfKind(entities, entity.KindFreeText) {
		for _, w := range strings.Fields(e.Text) {
			if b.stopwords[intent.Fold(w)] {
				continue
			}
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}
