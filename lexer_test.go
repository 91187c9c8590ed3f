package pallas

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/assert"
)

func tokenKinds(t *testing.T, src string) []tokenKind {
	t.Helper()
	toks, err := NewLexer("<test>", src).Tokenize()
	require.NoError(t, err)
	kinds := make([]tokenKind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	return kinds
}

func TestLexerIndentDedent(t *testing.T) {
	src := "if True:\n    1\n    2\n3\n"
	kinds := tokenKinds(t, src)
	assert.Contains(t, kinds, tokIndent)
	assert.Contains(t, kinds, tokDedent)

	// the token stream must end with EOF
	assert.Equal(t, tokEOF, kinds[len(kinds)-1])
}

func TestLexerNumberLiterals(t *testing.T) {
	toks, err := NewLexer("<test>", "1 2.5 0x1F").Tokenize()
	require.NoError(t, err)
	var got []string
	for _, tok := range toks {
		if tok.Kind == tokInt || tok.Kind == tokFloat {
			got = append(got, tok.Text)
		}
	}
	assert.Equal(t, []string{"1", "2.5", "0x1F"}, got)
}

func TestLexerStringEscapes(t *testing.T) {
	toks, err := NewLexer("<test>", `"a\nb"`).Tokenize()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(toks), 1)
	assert.Equal(t, tokString, toks[0].Kind)
	assert.Equal(t, "a\nb", toks[0].Text)
}

func TestLexerIdentKeywordsAndOperators(t *testing.T) {
	kinds := tokenKinds(t, "x += 1")
	assert.Contains(t, kinds, tokIdent)
	assert.Contains(t, kinds, tokPlusEq)
	assert.Contains(t, kinds, tokInt)
}
