// Package token turns raw Vietnamese chat input into a normalized token
// stream. Normalization is pure and deterministic: the same input always
// produces the same tokens, and normalizing already-normalized text is a
// no-op on the normalized forms.
package token

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token is one unit of the raw input. Text preserves the original slice;
// Start and End are byte offsets into the raw string. Norm is the lowercased
// form, with numeral shorthand folded into canonical digits.
type Token struct {
	Text  string
	Norm  string
	Start int
	End   int
}

// Thousand/million shorthand recognized both as a suffix glued to a number
// ("200k", "2tr") and as a standalone word after one ("500 nghìn").
var suffixMultipliers = map[string]int64{
	"k":     1_000,
	"nghìn": 1_000,
	"nghin": 1_000,
	"ngàn":  1_000,
	"ngan":  1_000,
	"tr":    1_000_000,
	"triệu": 1_000_000,
	"trieu": 1_000_000,
}

// numeralPattern matches a number with optional separators, an optional
// shorthand suffix, and an optional composed tail ("1tr5" = 1.5 million).
var numeralPattern = regexp.MustCompile(`^(\d+(?:[.,]\d+)*)(k|tr|triệu|trieu|nghìn|nghin|ngàn|ngan)?(\d*)$`)

const edgePunct = `.,!?;:"'()`

// Normalize tokenizes and normalizes raw input. It never fails; anything it
// cannot make sense of stays a plain text token for downstream stages.
func Normalize(raw string) []Token {
	tokens := scan(raw)
	tokens = mergeProperNouns(raw, tokens)
	tokens = mergeNumeralSuffix(raw, tokens)
	return tokens
}

// IsNumeric reports whether a normalized form is a canonical number
// (integer or decimal point form).
func IsNumeric(norm string) bool {
	if norm == "" {
		return false
	}
	dot := false
	for _, r := range norm {
		if r == '.' {
			if dot {
				return false
			}
			dot = true
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return norm[0] != '.' && norm[len(norm)-1] != '.'
}

// HasShorthand reports whether the original token text carried a currency
// shorthand suffix ("200k", "2 triệu"). Used as a currency hint downstream.
func HasShorthand(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for suffix := range suffixMultipliers {
		if strings.Contains(lower, suffix) {
			m := numeralPattern.FindStringSubmatch(strings.ReplaceAll(lower, " ", ""))
			if m != nil && m[2] != "" {
				return true
			}
		}
	}
	return false
}

// scan splits raw on whitespace, trims edge punctuation, and keeps quoted
// runs as single tokens. Offsets always reference the raw string.
func scan(raw string) []Token {
	var tokens []Token
	i := 0
	for i < len(raw) {
		r, size := utf8.DecodeRuneInString(raw[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}
		if r == '"' {
			// Quoted span: one token, quotes excluded from the norm.
			end := strings.IndexByte(raw[i+1:], '"')
			if end >= 0 {
				start := i
				i = i + 1 + end + 1
				text := raw[start:i]
				inner := strings.TrimSpace(raw[start+1 : i-1])
				if inner != "" {
					tokens = append(tokens, Token{
						Text:  text,
						Norm:  normWord(inner),
						Start: start,
						End:   i,
					})
				}
				continue
			}
			// Unbalanced quote falls through as punctuation.
		}
		start := i
		for i < len(raw) {
			r, size := utf8.DecodeRuneInString(raw[i:])
			if unicode.IsSpace(r) || r == '"' {
				break
			}
			i += size
		}
		if tok, ok := trimEdges(raw, start, i); ok {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// trimEdges strips punctuation from both ends of raw[start:end], keeping
// interior punctuation (thousand separators, dd/mm dates) intact.
func trimEdges(raw string, start, end int) (Token, bool) {
	for start < end {
		r, size := utf8.DecodeRuneInString(raw[start:])
		if !strings.ContainsRune(edgePunct, r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(raw[start:end])
		if !strings.ContainsRune(edgePunct, r) {
			break
		}
		end -= size
	}
	if start >= end {
		return Token{}, false
	}
	text := raw[start:end]
	return Token{Text: text, Norm: normWord(text), Start: start, End: end}, true
}

func normWord(text string) string {
	lower := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if folded, ok := foldNumeral(lower); ok {
		return folded
	}
	return lower
}

// mergeProperNouns joins runs of two or more adjacent capitalized words into
// a single token, so "Nguyễn Văn An" survives extraction as one span.
func mergeProperNouns(raw string, tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if !isCapitalized(tokens[i].Text) {
			out = append(out, tokens[i])
			i++
			continue
		}
		j := i + 1
		for j < len(tokens) && isCapitalized(tokens[j].Text) && adjacent(raw, tokens[j-1], tokens[j]) {
			j++
		}
		if j-i >= 2 {
			merged := Token{
				Text:  raw[tokens[i].Start:tokens[j-1].End],
				Start: tokens[i].Start,
				End:   tokens[j-1].End,
			}
			merged.Norm = normWord(merged.Text)
			out = append(out, merged)
			i = j
			continue
		}
		out = append(out, tokens[i])
		i++
	}
	return out
}

// mergeNumeralSuffix folds "500 nghìn" / "2 triệu" pairs into one
// amount-producing token.
func mergeNumeralSuffix(raw string, tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if i+1 < len(tokens) && IsNumeric(tokens[i].Norm) && adjacent(raw, tokens[i], tokens[i+1]) {
			if _, ok := suffixMultipliers[tokens[i+1].Norm]; ok {
				combined := tokens[i].Norm + tokens[i+1].Norm
				if folded, ok := foldNumeral(combined); ok {
					out = append(out, Token{
						Text:  raw[tokens[i].Start:tokens[i+1].End],
						Norm:  folded,
						Start: tokens[i].Start,
						End:   tokens[i+1].End,
					})
					i += 2
					continue
				}
			}
		}
		out = append(out, tokens[i])
		i++
	}
	return out
}

func isCapitalized(text string) bool {
	r, _ := utf8.DecodeRuneInString(text)
	return unicode.IsUpper(r)
}

// adjacent reports whether only whitespace separates two tokens in the raw
// input. Proper-noun and numeral merges never jump over punctuation.
func adjacent(raw string, a, b Token) bool {
	if b.Start < a.End {
		return false
	}
	return strings.TrimSpace(raw[a.End:b.Start]) == ""
}

// foldNumeral canonicalizes a numeric word: thousand separators removed,
// shorthand suffixes expanded, composed tails resolved ("1tr5" → 1500000).
// Returns false for anything that is not a clean numeral.
func foldNumeral(s string) (string, bool) {
	m := numeralPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	base, ok := parseSeparated(m[1])
	if !ok {
		return "", false
	}
	suffix, tail := m[2], m[3]
	if suffix == "" {
		if tail != "" {
			return "", false
		}
		return base, true
	}

	mult := suffixMultipliers[suffix]
	val, err := strconv.ParseFloat(base, 64)
	if err != nil {
		return "", false
	}
	total := val * float64(mult)
	if tail != "" {
		t, err := strconv.ParseFloat(tail, 64)
		if err != nil {
			return "", false
		}
		total += t * float64(mult) / math.Pow(10, float64(len(tail)))
	}
	if total != math.Trunc(total) {
		return "", false
	}
	return strconv.FormatInt(int64(total), 10), true
}

// parseSeparated resolves separator usage: groups of three are thousand
// separators ("1.200.000"), a single short trailing group is a decimal
// fraction ("10,5"). Anything inconsistent is rejected.
func parseSeparated(s string) (string, bool) {
	if !strings.ContainsAny(s, ".,") {
		return s, true
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == ',' })
	if len(parts) < 2 {
		return "", false
	}

	allThousands := true
	for _, p := range parts[1:] {
		if len(p) != 3 {
			allThousands = false
			break
		}
	}
	if allThousands {
		return strings.Join(parts, ""), true
	}

	if len(parts) == 2 && len(parts[1]) <= 2 {
		return parts[0] + "." + parts[1], true
	}
	return "", false
}
