package internal

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
)

const (
	EndOfSentence   = "</s>"
	ParagraphPrefix = "_*"
	MaxCodeLength   = 40
)

var (
	ErrEmptyVocab        = errors.New("vocabulary is empty")
	ErrMalformedVocab    = errors.New("malformed vocabulary record")
	ErrUnknownToken      = errors.New("token not in vocabulary")
	ErrCodeTooLong       = errors.New("huffman code exceeds maximum length")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrNotEncoded        = errors.New("vocabulary has no huffman codes")
)

type EntryType uint8

const (
	EntryWord EntryType = iota
	EntryParagraph
	EntrySpecial
)

func (t EntryType) String() string {
	switch t {
	case EntryWord:
		return "word"
	case EntryParagraph:
		return "paragraph"
	case EntrySpecial:
		return "special"
	default:
		return "unknown"
	}
}

// Entry is one vocabulary item. Index is the embedding row and is only
// meaningful until the next Prune or Sort.
type Entry struct {
	Key    string
	Type   EntryType
	ID     int
	Index  int
	Count  uint64
	Code   []byte
	Points []int32
}

// Vocabulary keeps entries in a dense slice addressed by a key map, plus a
// separate order slice mapping Index -> slice position. Folded records that
// keys were case-folded when counted, so lookups must fold too.
type Vocabulary struct {
	Folded bool

	entries   []Entry
	byKey     map[string]int
	order     []int
	nextID    int
	encoded   bool
	minReduce uint64
}

func NewVocabulary() *Vocabulary {
	v := &Vocabulary{
		byKey:     make(map[string]int),
		minReduce: 1,
	}
	v.insert(EndOfSentence, EntrySpecial, 0)
	return v
}

func (v *Vocabulary) insert(key string, typ EntryType, count uint64) int {
	pos := len(v.entries)
	v.entries = append(v.entries, Entry{
		Key:   key,
		Type:  typ,
		ID:    v.nextID,
		Index: len(v.order),
		Count: count,
	})
	v.nextID++
	v.byKey[key] = pos
	v.order = append(v.order, pos)
	v.encoded = false
	return pos
}

// Add inserts key or increments its count by n.
func (v *Vocabulary) Add(key string, n uint64) {
	if pos, ok := v.byKey[key]; ok {
		v.entries[pos].Count += n
		return
	}
	v.insert(key, EntryWord, n)
}

// Get returns the entry for key. The pointer is stable until the next
// structural change.
func (v *Vocabulary) Get(key string) (*Entry, bool) {
	pos, ok := v.byKey[key]
	if !ok {
		return nil, false
	}
	return &v.entries[pos], true
}

// Entry returns the entry at embedding row index.
func (v *Vocabulary) Entry(index int) *Entry {
	return &v.entries[v.order[index]]
}

func (v *Vocabulary) Marker() *Entry {
	return v.Entry(0)
}

func (v *Vocabulary) Len() int {
	return len(v.order)
}

func (v *Vocabulary) Encoded() bool {
	return v.encoded
}

// Entries returns all entries in index order.
func (v *Vocabulary) Entries() []*Entry {
	out := make([]*Entry, len(v.order))
	for i, pos := range v.order {
		out[i] = &v.entries[pos]
	}
	return out
}

// TrainWords is the total count over every entry, marker included.
func (v *Vocabulary) TrainWords() uint64 {
	var total uint64
	for i := range v.entries {
		total += v.entries[i].Count
	}
	return total
}

// Paragraph returns the pseudo-entry for paragraph n. Paragraph rows are laid
// out after the word rows of the input layer.
func (v *Vocabulary) Paragraph(n int) Entry {
	return Entry{Type: EntryParagraph, ID: -1, Index: v.Len() + n}
}

func ParagraphKey(n int) string {
	return ParagraphPrefix + strconv.Itoa(n)
}

// Prune drops every word with count < minCount, then sorts and re-encodes.
func (v *Vocabulary) Prune(minCount uint64) error {
	v.remove(func(e *Entry) bool { return e.Count < minCount })
	v.Sort()
	return v.Encode()
}

// reduce is the in-scan vocabulary cap: drop words at or below the running
// threshold and raise it for the next call.
func (v *Vocabulary) reduce() {
	threshold := v.minReduce
	v.remove(func(e *Entry) bool { return e.Count <= threshold })
	v.minReduce++
}

func (v *Vocabulary) remove(drop func(*Entry) bool) {
	kept := v.entries[:0]
	for _, e := range v.entries {
		if e.Type != EntrySpecial && drop(&e) {
			continue
		}
		kept = append(kept, e)
	}
	clear(v.entries[len(kept):])
	v.entries = kept

	v.byKey = make(map[string]int, len(v.entries))
	v.order = v.order[:0]
	for pos := range v.entries {
		v.byKey[v.entries[pos].Key] = pos
		v.order = append(v.order, pos)
	}
	v.encoded = false
}

// Sort orders entries by descending count, ties by insertion id, with the
// marker pinned at index 0.
func (v *Vocabulary) Sort() {
	marker := v.byKey[EndOfSentence]
	v.order = v.order[:0]
	for pos := range v.entries {
		if pos != marker {
			v.order = append(v.order, pos)
		}
	}
	slices.SortStableFunc(v.order, func(a, b int) int {
		ea, eb := &v.entries[a], &v.entries[b]
		if c := cmp.Compare(eb.Count, ea.Count); c != 0 {
			return c
		}
		return cmp.Compare(ea.ID, eb.ID)
	})
	v.order = slices.Insert(v.order, 0, marker)
	for i, pos := range v.order {
		v.entries[pos].Index = i
	}
	v.encoded = false
}

// BuildVocabulary streams the tokens of r, counting every token and the
// end-of-sentence marker once per line, then prunes to minCount.
func BuildVocabulary(r io.Reader, cfg VocabConfig, log *Logger) (*Vocabulary, error) {
	v := NewVocabulary()
	v.Folded = cfg.Lowercase
	tr := NewTokenReader(r, cfg.Lowercase)

	var lines uint64
	for {
		tok, eol, ok := tr.Next()
		if !ok {
			break
		}
		if eol {
			v.Marker().Count++
			lines++
			continue
		}
		v.Add(tok, 1)

		if cfg.MaxSize > 0 && v.Len() > cfg.MaxSize {
			v.reduce()
			log.Warn("vocabulary over max_size, reduced to %d entries (min_reduce=%d)", v.Len(), v.minReduce)
		}
	}
	if err := tr.Err(); err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	if err := v.Prune(cfg.MinCount); err != nil {
		return nil, err
	}

	log.WithField("lines", lines).Info("vocabulary learned: %d entries, %d train words", v.Len(), v.TrainWords())
	return v, nil
}
