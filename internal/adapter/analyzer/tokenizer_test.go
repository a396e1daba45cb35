package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeLowercasesAndDropsStopwords(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("The Refund Policy is in the Handbook")
	assert.Equal(t, []string{"refund", "policy", "handbook"}, tokens)
}

func TestTokenizeDropsShortWords(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("x go 7 ok")
	assert.Equal(t, []string{"go", "ok"}, tokens)
}

func TestTokenizeSplitsOnPunctuation(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("user_id=42; email:alice@example.com")
	assert.Equal(t, []string{"user_id", "42", "email", "alice", "example", "com"}, tokens)
}

func TestTermSetDeduplicates(t *testing.T) {
	tok := NewTokenizer()

	set := tok.TermSet("policy policy refund")
	assert.Len(t, set, 2)
	_, ok := set["policy"]
	assert.True(t, ok)
	_, ok = set["refund"]
	assert.True(t, ok)
}

func TestTokenizeEmpty(t *testing.T) {
	tok := NewTokenizer()
	assert.Empty(t, tok.Tokenize(""))
	assert.Empty(t, tok.Tokenize("  ...  "))
}
