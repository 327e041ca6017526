package entity

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"ledgerchat/internal/engine/token"
)

// Extraction is a greedy left-to-right scan with fixed priority
// Amount > DateRange > Quantity > Name > FreeText. A higher-priority match
// consumes its token span and is never reconsidered by lower-priority rules.
// The caller injects now; nothing here reads the system clock.

var currencyWords = map[string]bool{
	"đồng": true, "dong": true, "vnd": true, "đ": true, "₫": true,
}

var priceMarkers = map[string]bool{
	"giá": true, "gia": true,
}

var unitWords = map[string]bool{
	"cái": true, "cai": true, "chiếc": true, "chiec": true,
	"kg": true, "thùng": true, "thung": true, "hộp": true, "hop": true,
	"bộ": true, "bo": true, "đôi": true, "doi": true, "gói": true,
}

var customerMarkers = map[string]bool{
	"cho": true, "khách": true, "khach": true,
}

var supplierMarkers = map[string]bool{
	"từ": true, "của": true, "cua": true,
}

var absoluteDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{4}))?$`)

// Bare numbers at or above this are treated as money; below it they are
// quantities unless a currency word or shorthand says otherwise.
const bareAmountFloor = 1000

// Extract scans tokens for typed entities. It never fails; input that matches
// nothing yields FreeText entities (or none at all for empty input).
func Extract(tokens []token.Token, now time.Time) []Entity {
	used := make([]bool, len(tokens))
	var entities []Entity

	entities = append(entities, extractAmounts(tokens, used)...)
	entities = append(entities, extractDateRanges(tokens, used, now)...)
	entities = append(entities, extractQuantities(tokens, used)...)
	entities = append(entities, extractNames(tokens, used)...)
	entities = append(entities, extractFreeText(tokens, used)...)

	return entities
}

func extractAmounts(tokens []token.Token, used []bool) []Entity {
	var out []Entity
	for i, tok := range tokens {
		if used[i] || !token.IsNumeric(tok.Norm) {
			continue
		}

		value, ok := parseVND(tok.Norm)
		if !ok {
			continue
		}

		hint := ""
		spanStart, spanEnd := tok.Start, tok.End
		consumeNext := -1

		switch {
		case token.HasShorthand(tok.Text):
			hint = "shorthand"
		case i+1 < len(tokens) && !used[i+1] && currencyWords[tokens[i+1].Norm]:
			hint = tokens[i+1].Norm
			spanEnd = tokens[i+1].End
			consumeNext = i + 1
		case i > 0 && !used[i-1] && priceMarkers[tokens[i-1].Norm]:
			hint = "price"
			spanStart = tokens[i-1].Start
			used[i-1] = true
		case hasThousandSeparators(tok.Text):
			hint = "separated"
		case value >= bareAmountFloor && !followedByUnit(tokens, used, i):
			// Bare large number: money by convention.
		default:
			continue
		}

		used[i] = true
		if consumeNext >= 0 {
			used[consumeNext] = true
		}
		out = append(out, Entity{
			Kind:         KindAmount,
			Amount:       value,
			CurrencyHint: hint,
			SpanStart:    spanStart,
			SpanEnd:      spanEnd,
		})
	}
	return out
}

func extractDateRanges(tokens []token.Token, used []bool, now time.Time) []Entity {
	var out []Entity
	for i := 0; i < len(tokens); i++ {
		if used[i] {
			continue
		}

		// Two-word relative phrases first.
		if i+1 < len(tokens) && !used[i+1] {
			if from, to, ok := relativeRange(tokens[i].Norm+" "+tokens[i+1].Norm, now); ok {
				used[i], used[i+1] = true, true
				out = append(out, Entity{
					Kind: KindDateRange, From: from, To: to,
					SpanStart: tokens[i].Start, SpanEnd: tokens[i+1].End,
				})
				continue
			}
		}

		if m := absoluteDatePattern.FindStringSubmatch(tokens[i].Norm); m != nil {
			day, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			year := now.Year()
			if m[3] != "" {
				year, _ = strconv.Atoi(m[3])
			}
			if day >= 1 && day <= 31 && month >= 1 && month <= 12 {
				from := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
				used[i] = true
				out = append(out, Entity{
					Kind: KindDateRange, From: from, To: from.AddDate(0, 0, 1),
					SpanStart: tokens[i].Start, SpanEnd: tokens[i].End,
				})
			}
		}
	}
	return out
}

// relativeRange resolves relative Vietnamese date phrases against now.
func relativeRange(phrase string, now time.Time) (time.Time, time.Time, bool) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch phrase {
	case "hôm nay", "hom nay", "bữa nay":
		return day, day.AddDate(0, 0, 1), true
	case "hôm qua", "hom qua":
		return day.AddDate(0, 0, -1), day, true
	case "tuần này", "tuan nay":
		start := startOfWeek(day)
		return start, start.AddDate(0, 0, 7), true
	case "tuần trước", "tuan truoc":
		start := startOfWeek(day).AddDate(0, 0, -7)
		return start, start.AddDate(0, 0, 7), true
	case "tháng này", "thang nay":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0), true
	case "tháng trước", "thang truoc":
		end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return end.AddDate(0, -1, 0), end, true
	}
	return time.Time{}, time.Time{}, false
}

// startOfWeek returns the Monday of day's week.
func startOfWeek(day time.Time) time.Time {
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, 1-weekday)
}

func extractQuantities(tokens []token.Token, used []bool) []Entity {
	var out []Entity
	for i, tok := range tokens {
		if used[i] || !token.IsNumeric(tok.Norm) {
			continue
		}
		qty, err := strconv.ParseFloat(tok.Norm, 64)
		if err != nil {
			continue
		}

		unit := ""
		spanEnd := tok.End
		if i+1 < len(tokens) && !used[i+1] && unitWords[tokens[i+1].Norm] {
			unit = tokens[i+1].Norm
			spanEnd = tokens[i+1].End
			used[i+1] = true
		}

		used[i] = true
		out = append(out, Entity{
			Kind: KindQuantity, Qty: qty, Unit: unit,
			SpanStart: tok.Start, SpanEnd: spanEnd,
		})
	}
	return out
}

func extractNames(tokens []token.Token, used []bool) []Entity {
	var out []Entity
	for i, tok := range tokens {
		if used[i] {
			continue
		}

		role := RoleUnknown
		spanStart := tok.Start
		markerIdx := -1
		if i > 0 && !used[i-1] {
			switch {
			case customerMarkers[tokens[i-1].Norm]:
				role = RoleCustomer
				markerIdx = i - 1
			case supplierMarkers[tokens[i-1].Norm]:
				role = RoleSupplier
				markerIdx = i - 1
			}
		}

		// A name is either a capitalized span or any word right after a
		// role marker ("cho lan" typed in lowercase still names someone).
		if !startsUpper(tok.Text) && role == RoleUnknown {
			continue
		}
		// First word of the input is capitalized by habit, not by naming.
		if i == 0 {
			continue
		}

		used[i] = true
		if markerIdx >= 0 {
			used[markerIdx] = true
			spanStart = tokens[markerIdx].Start
		}
		out = append(out, Entity{
			Kind: KindName, Name: tok.Text, Role: role,
			SpanStart: spanStart, SpanEnd: tok.End,
		})
	}
	return out
}

func extractFreeText(tokens []token.Token, used []bool) []Entity {
	var out []Entity
	for i := 0; i < len(tokens); {
		if used[i] {
			i++
			continue
		}
		j := i
		var words []string
		for j < len(tokens) && !used[j] {
			words = append(words, tokens[j].Norm)
			j++
		}
		out = append(out, Entity{
			Kind: KindFreeText, Text: strings.Join(words, " "),
			SpanStart: tokens[i].Start, SpanEnd: tokens[j-1].End,
		})
		i = j
	}
	return out
}

func parseVND(norm string) (int64, bool) {
	if v, err := strconv.ParseInt(norm, 10, 64); err == nil {
		return v, true
	}
	// Decimal amounts round to whole đồng.
	if f, err := strconv.ParseFloat(norm, 64); err == nil {
		return int64(f + 0.5), true
	}
	return 0, false
}

func hasThousandSeparators(text string) bool {
	if len(text) <= 4 || !strings.ContainsAny(text, ".,") {
		return false
	}
	stripped := strings.NewReplacer(".", "", ",", "").Replace(text)
	return token.IsNumeric(stripped)
}

func followedByUnit(tokens []token.Token, used []bool, i int) bool {
	return i+1 < len(tokens) && !used[i+1] && unitWords[tokens[i+1].Norm]
}

func startsUpper(text string) bool {
	r, _ := utf8.DecodeRuneInString(text)
	return unicode.IsUpper(r)
}
