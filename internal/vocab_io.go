package internal

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SaveVocab writes one "<token> <count>" line per entry in index order,
// marker first.
func SaveVocab(w io.Writer, v *Vocabulary) error {
	bw := bufio.NewWriter(w)
	for _, e := range v.Entries() {
		fmt.Fprintf(bw, "%s %d\n", e.Key, e.Count)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write vocabulary: %w", err)
	}
	return nil
}

// LoadVocab reads a file written by SaveVocab into a fresh vocabulary, then
// sorts and encodes it. Counts are summed if a token repeats. folded marks
// the keys as case-folded so corpus lookups fold too.
func LoadVocab(r io.Reader, folded bool) (*Vocabulary, error) {
	v := NewVocabulary()
	v.Folded = folded

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxRowBytes)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: want \"<token> <count>\", got %q", ErrMalformedVocab, n, line)
		}
		count, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: count %q", ErrMalformedVocab, n, fields[1])
		}
		v.Add(fields[0], count)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	if v.Len() < 2 {
		return nil, ErrEmptyVocab
	}

	v.Sort()
	if err := v.Encode(); err != nil {
		return nil, err
	}
	return v, nil
}
