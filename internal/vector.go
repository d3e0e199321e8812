package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrInvalidToken = errors.New("invalid token")

// Vectors is an exported embedding table: one token per row, row-major.
type Vectors struct {
	Tokens []string
	Dim    int
	Data   []float32
}

func NewVectors(dim int) *Vectors {
	return &Vectors{Dim: dim}
}

func (vs *Vectors) Len() int {
	return len(vs.Tokens)
}

func (vs *Vectors) Row(i int) []float32 {
	return vs.Data[i*vs.Dim : (i+1)*vs.Dim : (i+1)*vs.Dim]
}

// Append adds a row. Tokens must be non-empty and free of whitespace so the
// row survives a round trip through either file format.
func (vs *Vectors) Append(token string, vec []float32) error {
	if token == "" || strings.ContainsFunc(token, unicode.IsSpace) {
		return fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	if len(vec) != vs.Dim {
		return fmt.Errorf("%w: %q has %d values, want %d", ErrDimensionMismatch, token, len(vec), vs.Dim)
	}
	vs.Tokens = append(vs.Tokens, token)
	vs.Data = append(vs.Data, vec...)
	return nil
}

// Lookup returns the row of token. It scans linearly; build an index for
// repeated queries.
func (vs *Vectors) Lookup(token string) ([]float32, bool) {
	for i, t := range vs.Tokens {
		if t == token {
			return vs.Row(i), true
		}
	}
	return nil, false
}

// Vectors exports the input layer: word rows keyed by vocabulary token, then
// paragraph rows keyed by ParagraphKey.
func (m *Model) Vectors(v *Vocabulary) *Vectors {
	vs := &Vectors{
		Tokens: make([]string, 0, m.Input.Rows()),
		Dim:    m.Dim,
		Data:   make([]float32, 0, len(m.Input.Weights())),
	}
	for i := 0; i < m.Words; i++ {
		vs.Tokens = append(vs.Tokens, v.Entry(i).Key)
	}
	for p := 0; p < m.Paragraphs; p++ {
		vs.Tokens = append(vs.Tokens, ParagraphKey(p))
	}
	vs.Data = append(vs.Data, m.Input.Weights()[:len(vs.Tokens)*m.Dim]...)
	return vs
}

type Neighbor struct {
	Token string
	Score float32 // 0-1, higher is closer
}

type VectorIndex interface {
	Add(ctx context.Context, token string, vec []float32) error
	Search(ctx context.Context, query []float32, k int) ([]Neighbor, error)
	Build(ctx context.Context, numTrees int) error
	Save(ctx context.Context) error
	Load(ctx context.Context) error
	Contains(ctx context.Context, token string) bool
}
