package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norms(tokens []Token) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.Norm)
	}
	return out
}

func TestNormalize_Shorthand(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "k suffix", input: "200k", expected: "200000"},
		{name: "tr suffix", input: "2tr", expected: "2000000"},
		{name: "composed tail", input: "1tr5", expected: "1500000"},
		{name: "composed tail two digits", input: "1tr50", expected: "1500000"},
		{name: "k composed tail", input: "2k5", expected: "2500"},
		{name: "dot thousand separators", input: "1.200.000", expected: "1200000"},
		{name: "comma thousand separators", input: "1,200,000", expected: "1200000"},
		{name: "trieu word glued", input: "2triệu", expected: "2000000"},
		{name: "spaced suffix word", input: "500 nghìn", expected: "500000"},
		{name: "spaced tr", input: "2 triệu", expected: "2000000"},
		{name: "decimal base with suffix", input: "1.5tr", expected: "1500000"},
		{name: "plain integer", input: "500", expected: "500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := Normalize(tt.input)
			require.Len(t, tokens, 1)
			assert.Equal(t, tt.expected, tokens[0].Norm)
		})
	}
}

func TestNormalize_UnparsableNumeralFallsThrough(t *testing.T) {
	tokens := Normalize("1.2.34 xyz")
	require.Len(t, tokens, 2)
	// Inconsistent separator groups stay plain text for the extractor.
	assert.Equal(t, "1.2.34", tokens[0].Norm)
	assert.False(t, IsNumeric(tokens[0].Norm))
}

func TestNormalize_LowercaseAndWhitespace(t *testing.T) {
	tokens := Normalize("  Bán   áo  cho  lan ")
	assert.Equal(t, []string{"bán", "áo", "cho", "lan"}, norms(tokens))
}

func TestNormalize_SpansReferenceRawInput(t *testing.T) {
	raw := "bán áo 200k"
	tokens := Normalize(raw)
	require.Len(t, tokens, 3)
	for _, tok := range tokens {
		assert.Equal(t, tok.Text, raw[tok.Start:tok.End])
	}
	assert.Equal(t, "200k", tokens[2].Text)
	assert.Equal(t, "200000", tokens[2].Norm)
}

func TestNormalize_ProperNounMerge(t *testing.T) {
	tokens := Normalize("bán áo cho Nguyễn Văn An hôm nay")
	var merged *Token
	for i := range tokens {
		if tokens[i].Text == "Nguyễn Văn An" {
			merged = &tokens[i]
		}
	}
	require.NotNil(t, merged, "adjacent capitalized words should merge into one span")
	assert.Equal(t, "nguyễn văn an", merged.Norm)
}

func TestNormalize_QuotedSpanStaysSingle(t *testing.T) {
	tokens := Normalize(`bán "áo sơ mi trắng" 200k`)
	require.Len(t, tokens, 3)
	assert.Equal(t, "áo sơ mi trắng", tokens[1].Norm)
}

func TestNormalize_PunctuationStripped(t *testing.T) {
	tokens := Normalize("bán áo, giá 200k!")
	assert.Equal(t, []string{"bán", "áo", "giá", "200000"}, norms(tokens))
}

func TestNormalize_Idempotent(t *testing.T) {
	first := Normalize("Bán áo cho lan 1.200.000")
	var rebuilt []string
	for _, tok := range first {
		rebuilt = append(rebuilt, tok.Norm)
	}
	second := Normalize(joinWords(rebuilt))
	assert.Equal(t, norms(first), norms(second))
}

func TestNormalize_Deterministic(t *testing.T) {
	input := "bán 2 áo cho Lan giá 150k hôm qua"
	first := Normalize(input)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Normalize(input))
	}
}

func TestNormalize_Empty(t *testing.T) {
	assert.Empty(t, Normalize(""))
	assert.Empty(t, Normalize("   "))
	assert.Empty(t, Normalize("!!!"))
}

func TestHasShorthand(t *testing.T) {
	assert.True(t, HasShorthand("200k"))
	assert.True(t, HasShorthand("2tr"))
	assert.True(t, HasShorthand("500 nghìn"))
	assert.False(t, HasShorthand("200000"))
	assert.False(t, HasShorthand("áo"))
}

func joinWords(words []string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += " "
		}
		out += w
	}
	return out
}
