package internal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxRowBytes caps a single line of a text vector or vocabulary file.
const maxRowBytes = 64 << 20

var ErrMalformedVectors = errors.New("malformed vector file")

// WriteText writes the word2vec text format: a "rows cols" header, then one
// "<token> <v1> ... <vd>" line per row.
func WriteText(w io.Writer, vs *Vectors) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", vs.Len(), vs.Dim)
	for i, tok := range vs.Tokens {
		bw.WriteString(tok)
		for _, x := range vs.Row(i) {
			bw.WriteByte(' ')
			bw.WriteString(strconv.FormatFloat(float64(x), 'f', 6, 32))
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}
	return nil
}

// WriteBinary writes the word2vec binary format: a "rows cols" header, then
// per row the token, a space, cols little-endian float32 values and a
// newline.
func WriteBinary(w io.Writer, vs *Vectors) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", vs.Len(), vs.Dim)
	for i, tok := range vs.Tokens {
		bw.WriteString(tok)
		bw.WriteByte(' ')
		if err := binary.Write(bw, binary.LittleEndian, vs.Row(i)); err != nil {
			return fmt.Errorf("write vectors: %w", err)
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}
	return nil
}

func readHeader(br *bufio.Reader) (rows, cols int, err error) {
	line, err := br.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return 0, 0, fmt.Errorf("%w: missing header", ErrMalformedVectors)
	}
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("%w: header %q", ErrMalformedVectors, strings.TrimSpace(line))
	}
	rows, err1 := strconv.Atoi(fields[0])
	cols, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil || rows < 0 || cols <= 0 {
		return 0, 0, fmt.Errorf("%w: header %q", ErrMalformedVectors, strings.TrimSpace(line))
	}
	return rows, cols, nil
}

func ReadText(r io.Reader) (*Vectors, error) {
	br := bufio.NewReader(r)
	rows, cols, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	vs := &Vectors{
		Tokens: make([]string, 0, rows),
		Dim:    cols,
		Data:   make([]float32, 0, rows*cols),
	}
	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 0, 64*1024), maxRowBytes)
	row := make([]float32, cols)
	for n := 2; sc.Scan(); n++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != cols+1 {
			return nil, fmt.Errorf("%w: line %d has %d values, want %d", ErrMalformedVectors, n, len(fields)-1, cols)
		}
		for j, f := range fields[1:] {
			x, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedVectors, n, err)
			}
			row[j] = float32(x)
		}
		if err := vs.Append(fields[0], row); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedVectors, n, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}
	if vs.Len() != rows {
		return nil, fmt.Errorf("%w: header says %d rows, found %d", ErrMalformedVectors, rows, vs.Len())
	}
	return vs, nil
}

func ReadBinary(r io.Reader) (*Vectors, error) {
	br := bufio.NewReader(r)
	rows, cols, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	vs := &Vectors{
		Tokens: make([]string, 0, rows),
		Dim:    cols,
		Data:   make([]float32, 0, rows*cols),
	}
	row := make([]float32, cols)
	for i := 0; i < rows; i++ {
		tok, err := br.ReadString(' ')
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: truncated token", ErrMalformedVectors, i)
		}
		tok = strings.TrimLeft(tok[:len(tok)-1], "\n")
		if err := binary.Read(br, binary.LittleEndian, row); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedVectors, i, err)
		}
		if err := vs.Append(tok, row); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedVectors, i, err)
		}
	}
	return vs, nil
}

// ReadVectors reads format, FormatText or FormatBinary.
func ReadVectors(r io.Reader, format string) (*Vectors, error) {
	switch format {
	case FormatText, "":
		return ReadText(r)
	case FormatBinary:
		return ReadBinary(r)
	default:
		return nil, fmt.Errorf("unknown vector format %q", format)
	}
}

func WriteVectors(w io.Writer, vs *Vectors, format string) error {
	switch format {
	case FormatText, "":
		return WriteText(w, vs)
	case FormatBinary:
		return WriteBinary(w, vs)
	default:
		return fmt.Errorf("unknown vector format %q", format)
	}
}

// WriteClasses writes one "<token> <class>" line per row.
func WriteClasses(w io.Writer, tokens []string, classes []int) error {
	if len(tokens) != len(classes) {
		return fmt.Errorf("%w: %d tokens, %d classes", ErrDimensionMismatch, len(tokens), len(classes))
	}
	bw := bufio.NewWriter(w)
	for i, tok := range tokens {
		fmt.Fprintf(bw, "%s %d\n", tok, classes[i])
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write classes: %w", err)
	}
	return nil
}
