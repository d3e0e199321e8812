package internal

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/cases"
)

const MaxSentenceLength = 1000

func isLineEnd(c byte) bool {
	return c == '\n' || c == '\t'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\r' || c == '\v' || c == '\f' || isLineEnd(c)
}

// TokenReader streams whitespace-separated tokens one at a time, so line
// length is unbounded. Newline and tab end a line.
type TokenReader struct {
	br      *bufio.Reader
	fold    *cases.Caser
	buf     []byte
	offset  int64
	pending bool
	err     error
}

func NewTokenReader(r io.Reader, lowercase bool) *TokenReader {
	tr := &TokenReader{br: bufio.NewReaderSize(r, 1<<16)}
	if lowercase {
		c := cases.Fold()
		tr.fold = &c
	}
	return tr
}

// Next returns the next token. A line end comes back as an empty token with
// eol set; input ending inside a line closes it the same way.
func (tr *TokenReader) Next() (tok string, eol bool, ok bool) {
	if tr.err != nil {
		return "", false, false
	}
	tr.buf = tr.buf[:0]
	for {
		c, err := tr.br.ReadByte()
		if err != nil {
			if err != io.EOF {
				tr.err = err
			}
			if len(tr.buf) > 0 {
				return tr.token(), false, true
			}
			if tr.pending && tr.err == nil {
				tr.pending = false
				return "", true, true
			}
			return "", false, false
		}
		tr.offset++

		switch {
		case isLineEnd(c):
			if len(tr.buf) > 0 {
				_ = tr.br.UnreadByte()
				tr.offset--
				return tr.token(), false, true
			}
			tr.pending = false
			return "", true, true
		case isSpace(c):
			tr.pending = true
			if len(tr.buf) > 0 {
				return tr.token(), false, true
			}
		default:
			tr.pending = true
			tr.buf = append(tr.buf, c)
		}
	}
}

func (tr *TokenReader) token() string {
	if tr.fold != nil {
		return tr.fold.String(string(tr.buf))
	}
	return string(tr.buf)
}

// Offset is the number of bytes consumed so far.
func (tr *TokenReader) Offset() int64 {
	return tr.offset
}

func (tr *TokenReader) Err() error {
	return tr.err
}

// Span is the byte range one worker trains on. FirstLine is the number of
// line terminators before Start.
type Span struct {
	Start     int64
	End       int64
	FirstLine int
}

// Partition splits the file into parts spans of roughly equal size. Each
// start is moved forward to the next token boundary, or to the next line
// start when lineAligned is set.
func Partition(path string, parts int, lineAligned bool) ([]Span, error) {
	if parts < 1 {
		parts = 1
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat corpus: %w", err)
	}
	size := info.Size()

	boundary := isSpace
	if lineAligned {
		boundary = isLineEnd
	}

	spans := make([]Span, parts)
	br := bufio.NewReaderSize(f, 1<<20)
	var pos int64
	line := 0
	atBoundary := true

	for k := 1; k < parts; k++ {
		target := size * int64(k) / int64(parts)
		for pos < size && (pos < target || !atBoundary) {
			c, err := br.ReadByte()
			if err == io.EOF {
				pos = size
				break
			}
			if err != nil {
				return nil, fmt.Errorf("read corpus: %w", err)
			}
			pos++
			atBoundary = boundary(c)
			if isLineEnd(c) {
				line++
			}
		}
		spans[k].Start = pos
		spans[k].FirstLine = line
		spans[k-1].End = pos
	}
	spans[parts-1].End = size

	return spans, nil
}

// CountLines counts lines the way TokenReader ends them, including a final
// unterminated line.
func CountLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 1<<20)
	lines := 0
	pending := false
	for {
		c, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read corpus: %w", err)
		}
		if isLineEnd(c) {
			lines++
			pending = false
			continue
		}
		pending = true
	}
	if pending {
		lines++
	}
	return lines, nil
}

// ProgressReader reports bytes read so far against a known total.
type ProgressReader struct {
	R          io.Reader
	Total      int64
	Done       int64
	OnProgress func(done, total int64)
}

func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.R.Read(p)
	pr.Done += int64(n)
	if pr.OnProgress != nil && n > 0 {
		pr.OnProgress(pr.Done, pr.Total)
	}
	return n, err
}
