// Package themer discovers complaint themes from a feedback corpus and
// classifies every item into one of them.
package themer

import (
	"context"
	"math/rand"
	"unicode/utf8"

	"pulsebot/internal/domain"
)

// Oracle is the completion boundary consumed by discovery and
// classification. *llm.Client satisfies it; tests substitute doubles.
type Oracle interface {
	Complete(ctx context.Context, prompt string, expectJSON bool) (string, error)
}

const (
	DefaultMaxThemes  = 5
	DefaultBatchSize  = 20
	DefaultSampleSize = 100
)

type Options struct {
	Product    string
	MaxThemes  int
	BatchSize  int
	SampleSize int
	Rand       *rand.Rand // sampling source, explicit for reproducibility
}

type Themer struct {
	oracle     Oracle
	product    string
	maxThemes  int
	batchSize  int
	sampleSize int
	rng        *rand.Rand
}

func New(oracle Oracle, opts Options) *Themer {
	if opts.MaxThemes < 1 {
		opts.MaxThemes = DefaultMaxThemes
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.SampleSize < 1 {
		opts.SampleSize = DefaultSampleSize
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Themer{
		oracle:     oracle,
		product:    opts.Product,
		maxThemes:  opts.MaxThemes,
		batchSize:  opts.BatchSize,
		sampleSize: opts.SampleSize,
		rng:        opts.Rand,
	}
}

// truncateRunes caps prompt-embedded text at limit runes, cutting on a rune
// boundary so multi-byte reviews never produce invalid UTF-8.
func truncateRunes(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}

// themeSet indexes definitions by name for classification validation.
func themeSet(themes []domain.ThemeDefinition) map[string]domain.ThemeDefinition {
	set := make(map[string]domain.ThemeDefinition, len(themes))
	for _, t := range themes {
		set[t.Name] = t
	}
	return set
}
