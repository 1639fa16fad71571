package profanity

import (
	_ "embed"
	"strings"
)

//go:embed default_words.txt
var defaultWordList string

// Vocabulary is a read-only word list loaded once at startup and handed to
// every Engine that needs it.
type Vocabulary struct {
	words []string
}

// LoadDefaultVocabulary parses the embedded dictionary.
func LoadDefaultVocabulary() *Vocabulary {
	return NewVocabulary(parseWordList(defaultWordList))
}

// NewVocabulary builds a vocabulary from explicit words, lowercasing and
// deduplicating while preserving first-seen order.
func NewVocabulary(words []string) *Vocabulary {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, word := range words {
		lower := strings.ToLower(strings.TrimSpace(word))
		if lower == "" {
			continue
		}
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, lower)
	}
	return &Vocabulary{words: out}
}

// Words returns a copy of the word list.
func (v *Vocabulary) Words() []string {
	out := make([]string, len(v.words))
	copy(out, v.words)
	return out
}

func (v *Vocabulary) Len() int {
	return len(v.words)
}

func parseWordList(raw string) []string {
	var words []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words
}
