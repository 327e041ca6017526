// Package intent classifies normalized input against an ordered table of
// trigger phrases. The table is explicit configuration, never hidden module
// state, so tests and deployments can substitute their own.
package intent

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"ledgerchat/internal/engine/token"
)

// Intent is the classified purpose of an input utterance.
type Intent string

const (
	RecordSale     Intent = "record_sale"
	RecordPurchase Intent = "record_purchase"
	RecordExpense  Intent = "record_expense"
	QueryTotal     Intent = "query_total"
	QueryList      Intent = "query_list"
	DeleteEntry    Intent = "delete_entry"
	Unknown        Intent = "unknown"
)

// Trigger binds one phrase to an intent with a weight. Declaration order in
// the table is significant twice over: earlier triggers consume their token
// span first, and ties between intents resolve to the one whose matched
// trigger appears earliest in the table.
type Trigger struct {
	Phrase string
	Intent Intent
	Weight int
}

// Classification is the outcome of classifying one input.
type Classification struct {
	Intent  Intent
	Score   int
	Matched []string
}

// DefaultTriggers returns the production trigger table. The order is part of
// the engine's contract; append new phrases rather than reordering.
func DefaultTriggers() []Trigger {
	return []Trigger{
		// Deletion verbs outrank everything: a delete request names the
		// category of the entry it removes.
		{Phrase: "xóa", Intent: DeleteEntry, Weight: 8},
		{Phrase: "hủy", Intent: DeleteEntry, Weight: 8},
		{Phrase: "huỷ", Intent: DeleteEntry, Weight: 8},

		{Phrase: "tổng cộng", Intent: QueryTotal, Weight: 4},
		{Phrase: "tổng", Intent: QueryTotal, Weight: 4},
		{Phrase: "bao nhiêu", Intent: QueryTotal, Weight: 4},

		{Phrase: "liệt kê", Intent: QueryList, Weight: 4},
		{Phrase: "danh sách", Intent: QueryList, Weight: 4},
		{Phrase: "xem", Intent: QueryList, Weight: 3},

		{Phrase: "bán được", Intent: RecordSale, Weight: 3},
		{Phrase: "bán", Intent: RecordSale, Weight: 3},
		{Phrase: "thu", Intent: RecordSale, Weight: 2},

		{Phrase: "nhập hàng", Intent: RecordPurchase, Weight: 3},
		{Phrase: "nhập", Intent: RecordPurchase, Weight: 3},
		{Phrase: "mua", Intent: RecordPurchase, Weight: 3},

		{Phrase: "chi phí", Intent: RecordExpense, Weight: 3},
		{Phrase: "chi", Intent: RecordExpense, Weight: 2},
		{Phrase: "trả", Intent: RecordExpense, Weight: 2},
		{Phrase: "tiêu", Intent: RecordExpense, Weight: 2},
	}
}

// Classifier scores token streams against a trigger table.
type Classifier struct {
	table    []Trigger
	minScore int
}

// NewClassifier builds a classifier over an explicit, ordered trigger table.
func NewClassifier(table []Trigger, minScore int) *Classifier {
	return &Classifier{table: table, minScore: minScore}
}

// Classify scores every trigger against the token stream. A trigger match
// consumes its token span in table order, so a longer phrase declared earlier
// shadows the shorter phrases it contains. Score per match is
// weight × phrase word count; ties between intents go to the intent whose
// matched trigger is declared earliest. Below minScore the input is Unknown.
// Classification never fails and never consults the ledger store.
func (c *Classifier) Classify(tokens []token.Token) Classification {
	words := make([]string, len(tokens))
	for i, tok := range tokens {
		words[i] = Fold(tok.Norm)
	}
	consumed := make([]bool, len(words))

	scores := make(map[Intent]int)
	firstIdx := make(map[Intent]int)
	matched := make(map[Intent][]string)

	for idx, trig := range c.table {
		phrase := strings.Fields(Fold(trig.Phrase))
		for pos := 0; pos+len(phrase) <= len(words); pos++ {
			if !matchesAt(words, consumed, phrase, pos) {
				continue
			}
			for k := pos; k < pos+len(phrase); k++ {
				consumed[k] = true
			}
			scores[trig.Intent] += trig.Weight * len(phrase)
			matched[trig.Intent] = append(matched[trig.Intent], trig.Phrase)
			if _, seen := firstIdx[trig.Intent]; !seen {
				firstIdx[trig.Intent] = idx
			}
		}
	}

	best := Unknown
	bestScore := 0
	for _, trig := range c.table {
		score, ok := scores[trig.Intent]
		if !ok {
			continue
		}
		if score > bestScore || (score == bestScore && best != Unknown && firstIdx[trig.Intent] < firstIdx[best]) {
			best = trig.Intent
			bestScore = score
		}
	}

	if bestScore < c.minScore {
		return Classification{Intent: Unknown}
	}
	return Classification{Intent: best, Score: bestScore, Matched: matched[best]}
}

func matchesAt(words []string, consumed []bool, phrase []string, pos int) bool {
	for k := 0; k < len(phrase); k++ {
		if consumed[pos+k] || words[pos+k] != phrase[k] {
			return false
		}
	}
	return true
}

// Subject is the ledger category a query or deletion targets.
type Subject string

const (
	SubjectSales     Subject = "sales"
	SubjectPurchases Subject = "purchases"
	SubjectExpenses  Subject = "expenses"
)

// subjectKeywords maps category vocabulary to subjects, scanned in order.
var subjectKeywords = []struct {
	Word    string
	Subject Subject
}{
	{"chi phí", SubjectExpenses},
	{"chi tiêu", SubjectExpenses},
	{"chi", SubjectExpenses},
	{"tiêu", SubjectExpenses},
	{"doanh thu", SubjectSales},
	{"bán hàng", SubjectSales},
	{"bán", SubjectSales},
	{"thu", SubjectSales},
	{"nhập hàng", SubjectPurchases},
	{"nhập", SubjectPurchases},
	{"mua", SubjectPurchases},
}

// DetectSubject finds the ledger category named in the input, used by
// queries and deletions to pick their target collection.
func DetectSubject(tokens []token.Token) (Subject, bool) {
	words := make([]string, len(tokens))
	for i, tok := range tokens {
		words[i] = Fold(tok.Norm)
	}
	joined := " " + strings.Join(words, " ") + " "
	for _, kw := range subjectKeywords {
		if strings.Contains(joined, " "+Fold(kw.Word)+" ") {
			return kw.Subject, true
		}
	}
	return "", false
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold strips combining diacritics so "nhập" and "nhap" compare equal.
// Đ/đ survives NFD intact and is mapped by hand.
func Fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case 'đ':
			return 'd'
		case 'Đ':
			return 'D'
		}
		return r
	}, out)
}
