package internal

import (
	"fmt"
	"math/rand/v2"
)

type ModelType string

const (
	ModelCBOW     ModelType = "cbow"
	ModelSkipGram ModelType = "skipgram"
	ModelPVDM     ModelType = "pvdm"
	ModelPVDBOW   ModelType = "pvdbow"
)

func ParseModelType(s string) (ModelType, error) {
	switch ModelType(s) {
	case ModelCBOW, ModelSkipGram, ModelPVDM, ModelPVDBOW:
		return ModelType(s), nil
	case "sg", "skip-gram":
		return ModelSkipGram, nil
	default:
		return "", fmt.Errorf("unknown model %q (want cbow, skipgram, pvdm or pvdbow)", s)
	}
}

// Paragraphs reports whether the model learns one vector per line.
func (m ModelType) Paragraphs() bool {
	return m == ModelPVDM || m == ModelPVDBOW
}

// Model holds the shared layers. Input has one row per vocabulary index
// followed by one row per paragraph. Softmax rows are Huffman inner nodes,
// Negative rows are vocabulary indices; either may be nil when unused.
type Model struct {
	Type       ModelType
	Dim        int
	Words      int
	Paragraphs int
	Input      *Lookup
	Softmax    *Lookup
	Negative   *Lookup

	rng *rand.Rand
}

func NewModel(v *Vocabulary, cfg TrainingConfig, paragraphs int) (*Model, error) {
	typ, err := ParseModelType(cfg.Model)
	if err != nil {
		return nil, err
	}
	if !typ.Paragraphs() {
		paragraphs = 0
	}

	m := &Model{
		Type:       typ,
		Dim:        cfg.Dim,
		Words:      v.Len(),
		Paragraphs: paragraphs,
		Input:      NewLookup(v.Len()+paragraphs, cfg.Dim),
		rng:        rand.New(rand.NewPCG(cfg.Seed, 0)),
	}
	if cfg.HS {
		m.Softmax = NewLookup(v.Len(), cfg.Dim)
	}
	if cfg.Negative > 0 {
		m.Negative = NewLookup(v.Len(), cfg.Dim)
	}
	m.initRows(0, m.Input.Rows())
	return m, nil
}

// initRows draws input rows [from, to) from U(-0.5, 0.5)/dim.
func (m *Model) initRows(from, to int) {
	scale := 1 / float32(m.Dim)
	for i := from; i < to; i++ {
		row := m.Input.Row(i)
		for j := range row {
			row[j] = (m.rng.Float32() - 0.5) * scale
		}
	}
}

func (m *Model) WordVector(index int) []float32 {
	return m.Input.Row(index)
}

func (m *Model) ParagraphVector(n int) []float32 {
	return m.Input.Row(m.Words + n)
}

// Sync re-targets the model from vocabulary prev to next. Rows of tokens
// present in both are carried over, new input rows are initialised, new
// output rows start at zero. When the vocabulary is unchanged only the
// paragraph block is resized.
func (m *Model) Sync(prev, next *Vocabulary, paragraphs int) {
	if !m.Type.Paragraphs() {
		paragraphs = 0
	}

	if prev == next && next.Len() == m.Words {
		old := m.Input.Rows()
		m.Input.Resize(m.Words + paragraphs)
		if m.Input.Rows() > old {
			m.initRows(old, m.Input.Rows())
		}
		m.Paragraphs = paragraphs
		return
	}

	input := NewLookup(next.Len()+paragraphs, m.Dim)
	softmax := remapLayer(m.Softmax, nil, nil, next.Len())
	negative := remapLayer(m.Negative, prev, next, next.Len())

	oldInput := m.Input
	m.Input = input
	fresh := make([]bool, input.Rows())
	for i := 0; i < next.Len(); i++ {
		e, ok := prev.Get(next.Entry(i).Key)
		if !ok || e.Index >= m.Words {
			fresh[i] = true
			continue
		}
		copy(input.Row(i), oldInput.Row(e.Index))
	}
	for p := 0; p < paragraphs; p++ {
		if p < m.Paragraphs {
			copy(input.Row(next.Len()+p), oldInput.Row(m.Words+p))
			continue
		}
		fresh[next.Len()+p] = true
	}
	for i, f := range fresh {
		if f {
			m.initRows(i, i+1)
		}
	}

	m.Softmax = softmax
	m.Negative = negative
	m.Words = next.Len()
	m.Paragraphs = paragraphs
}

// remapLayer carries output rows across a vocabulary change. Softmax rows
// belong to tree nodes that do not survive re-encoding, so they are reset
// (prev == nil).
func remapLayer(l *Lookup, prev, next *Vocabulary, rows int) *Lookup {
	if l == nil {
		return nil
	}
	out := NewLookup(rows, l.Cols())
	if prev == nil {
		return out
	}
	for i := 0; i < next.Len(); i++ {
		e, ok := prev.Get(next.Entry(i).Key)
		if !ok || e.Index >= l.Rows() {
			continue
		}
		copy(out.Row(i), l.Row(e.Index))
	}
	return out
}
