package v1

import (
	"fmt"
	"os"

	"github.com/4thel00z/w2v/internal"
)

// VocabEntry is one counted token.
type VocabEntry struct {
	Token string `json:"token"`
	Count uint64 `json:"count"`
}

// SearchResult represents a nearest-neighbour hit.
type SearchResult struct {
	Token string  `json:"token"`
	Score float32 `json:"score"`
}

// Result holds the vectors of a finished training run. Word rows come first,
// then one row per corpus line for paragraph models.
type Result struct {
	Model      string `json:"model"`
	Dim        int    `json:"dim"`
	Paragraphs int    `json:"paragraphs"`
	WordsSeen  int64  `json:"words_seen"`

	vectors *internal.Vectors
}

// Tokens lists the row keys in order.
func (r *Result) Tokens() []string {
	return r.vectors.Tokens
}

// Vector returns the row for token.
func (r *Result) Vector(token string) ([]float32, bool) {
	return r.vectors.Lookup(token)
}

// ParagraphVector returns the row learned for corpus line n.
func (r *Result) ParagraphVector(n int) ([]float32, bool) {
	return r.vectors.Lookup(internal.ParagraphKey(n))
}

// Save writes the vectors to path as "text" or "binary".
func (r *Result) Save(path, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := internal.WriteVectors(f, r.vectors, format); err != nil {
		return err
	}
	return f.Close()
}
