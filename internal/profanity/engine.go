package profanity

import (
	"context"
	"strings"
	"unicode"

	"infinitebot/internal/storage"
)

// Engine builds per-guild word filters from stored settings merged with the
// injected default vocabulary. Filters are rebuilt from storage on every
// evaluation so settings changes apply on the very next message.
type Engine struct {
	store *storage.Store
	vocab *Vocabulary
}

func NewEngine(store *storage.Store, vocab *Vocabulary) *Engine {
	return &Engine{store: store, vocab: vocab}
}

// Filter is an immutable snapshot of a guild's merged vocabulary.
type Filter struct {
	words map[string]struct{}
	list  []string
}

// BuildFilter fetches the guild's profanity settings and merges them with
// the default vocabulary. With use_default off and no added words the
// resulting filter matches nothing.
func (e *Engine) BuildFilter(ctx context.Context, guildID string) (*Filter, error) {
	settings, err := e.store.GetOrCreateProfanitySettings(ctx, guildID)
	if err != nil {
		return nil, err
	}

	var merged []string
	if settings.UseDefault {
		merged = append(merged, e.vocab.words...)
	}
	merged = append(merged, settings.AddedWords...)

	filter := &Filter{words: make(map[string]struct{}, len(merged))}
	for _, word := range merged {
		lower := strings.ToLower(word)
		if _, ok := filter.words[lower]; ok {
			continue
		}
		filter.words[lower] = struct{}{}
		filter.list = append(filter.list, lower)
	}
	return filter, nil
}

// Check reports whether any whole token of text is in the filter's
// vocabulary. Matching is word-boundary-aware, not substring: "class"
// does not match "ass".
func (f *Filter) Check(text string) bool {
	if text == "" || len(f.words) == 0 {
		return false
	}
	for _, token := range tokenize(text) {
		if _, ok := f.words[token]; ok {
			return true
		}
	}
	return false
}

// Words returns the merged vocabulary in merge order.
func (f *Filter) Words() []string {
	out := make([]string, len(f.list))
	copy(out, f.list)
	return out
}

// AddWord appends a lowercase word to the guild's custom list, ignoring
// case-insensitive duplicates.
func (e *Engine) AddWord(ctx context.Context, guildID, word string) error {
	lower := strings.ToLower(strings.TrimSpace(word))
	if lower == "" {
		return nil
	}
	settings, err := e.store.GetOrCreateProfanitySettings(ctx, guildID)
	if err != nil {
		return err
	}
	for _, existing := range settings.AddedWords {
		if existing == lower {
			return nil
		}
	}
	settings.AddedWords = append(settings.AddedWords, lower)
	return e.store.UpsertProfanitySettings(ctx, settings)
}

// RemoveWord deletes a word from the guild's custom list.
func (e *Engine) RemoveWord(ctx context.Context, guildID, word string) error {
	lower := strings.ToLower(strings.TrimSpace(word))
	settings, err := e.store.GetOrCreateProfanitySettings(ctx, guildID)
	if err != nil {
		return err
	}
	kept := settings.AddedWords[:0]
	for _, existing := range settings.AddedWords {
		if existing != lower {
			kept = append(kept, existing)
		}
	}
	settings.AddedWords = kept
	return e.store.UpsertProfanitySettings(ctx, settings)
}

// SetUseDefault switches the guild between the default dictionary and
// custom-only mode, keeping the custom word list intact.
func (e *Engine) SetUseDefault(ctx context.Context, guildID string, useDefault bool) error {
	settings, err := e.store.GetOrCreateProfanitySettings(ctx, guildID)
	if err != nil {
		return err
	}
	settings.UseDefault = useDefault
	return e.store.UpsertProfanitySettings(ctx, settings)
}

// GuildWords returns the guild's custom words and whether the default
// dictionary is in use.
func (e *Engine) GuildWords(ctx context.Context, guildID string) ([]string, bool, error) {
	settings, err := e.store.GetOrCreateProfanitySettings(ctx, guildID)
	if err != nil {
		return nil, false, err
	}
	return settings.AddedWords, settings.UseDefault, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
