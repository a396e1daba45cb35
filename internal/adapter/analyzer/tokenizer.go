package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer splits text into lowercase terms with stopword removal. It feeds
// both the lexical retrieval signal and the local embedder, so both sides of
// the hybrid score agree on what a term is.
type Tokenizer struct {
	stopwords map[string]struct{}
}

func NewTokenizer() *Tokenizer {
	return &Tokenizer{stopwords: defaultStopwords()}
}

// Tokenize splits text into terms.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if len(word) < 2 {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// TermSet returns the distinct terms of text.
func (t *Tokenizer) TermSet(text string) map[string]struct{} {
	tokens := t.Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// splitWords splits text on unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

func defaultStopwords() map[string]struct{} {
	list := []string{
		"a", "an", "the", "is", "are", "was", "were", "be", "been",
		"of", "in", "on", "at", "to", "for", "with", "by", "from", "as",
		"and", "or", "but", "not", "no", "it", "its", "this", "that",
		"these", "those", "i", "you", "he", "she", "we", "they", "them",
		"my", "your", "his", "her", "our", "their", "what", "which", "who",
		"when", "where", "how", "do", "does", "did", "have", "has", "had",
		"will", "would", "can", "could", "should", "there", "here", "about",
	}
	set := make(map[string]struct{}, len(list))
	for _, w := range list {
		set[w] = struct{}{}
	}
	return set
}
