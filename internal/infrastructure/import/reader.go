package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	readBufferSize = 64 << 10
	sniffSize      = 4 << 10
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var (
	ErrEmptyFile       = errors.New("CSV file is empty")
	ErrInvalidEncoding = errors.New("CSV file is not valid UTF-8")
	ErrMissingHeader   = errors.New("CSV file missing header row")
	ErrMalformedCSV    = errors.New("malformed CSV")
	ErrNoHeader        = errors.New("CSV header has not been read")
)

// MissingColumnsError lists the selected columns absent from the header
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// Reader streams rows of a CSV file as values keyed by header name.
// Fields are trimmed and quotes are parsed leniently.
type Reader struct {
	columns []string

	csv    *csv.Reader
	header []string
	index  map[string]int // selected column -> position in the selection
	pick   []int          // selected column -> record field
	line   int
}

// Option configures a Reader
type Option func(*Reader)

// WithColumns selects the columns rows expose. ReadHeader fails with a
// *MissingColumnsError when any of them is absent. Without it every header
// column is selected.
func WithColumns(columns ...string) Option {
	return func(rd *Reader) { rd.columns = append([]string(nil), columns...) }
}

// NewReader checks the start of r for a UTF-8 payload and prepares it for
// reading. A leading byte order mark is dropped.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	rd := &Reader{}
	for _, opt := range opts {
		opt(rd)
	}

	br := bufio.NewReaderSize(r, readBufferSize)
	head, err := br.Peek(sniffSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read CSV: %w", err)
	}
	if len(bytes.TrimPrefix(head, utf8BOM)) == 0 {
		return nil, ErrEmptyFile
	}
	if !validPrefix(head, len(head) == sniffSize) {
		return nil, ErrInvalidEncoding
	}

	cr := csv.NewReader(transform.NewReader(br, unicode.UTF8BOM.NewDecoder()))
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	rd.csv = cr
	return rd, nil
}

// validPrefix reports whether b is valid UTF-8. When b was cut from a longer
// stream a trailing partial rune is allowed.
func validPrefix(b []byte, cut bool) bool {
	if cut {
		for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
			if start := len(b) - i; utf8.RuneStart(b[start]) {
				if !utf8.FullRune(b[start:]) {
					b = b[:start]
				}
				break
			}
		}
	}
	return utf8.Valid(b)
}

// ReadHeader consumes the header row and resolves the selected columns.
// Duplicate header names resolve to their first occurrence.
func (rd *Reader) ReadHeader() error {
	record, err := rd.csv.Read()
	if errors.Is(err, io.EOF) {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("%w: header: %w", ErrMalformedCSV, err)
	}
	rd.line = 1

	rd.header = make([]string, len(record))
	position := make(map[string]int, len(record))
	for i, name := range record {
		name = strings.TrimSpace(name)
		rd.header[i] = name
		if _, seen := position[name]; !seen {
			position[name] = i
		}
	}
	if len(rd.header) == 1 && rd.header[0] == "" {
		return ErrMissingHeader
	}

	selected := rd.columns
	if len(selected) == 0 {
		selected = rd.header
	}
	var missing []string
	rd.index = make(map[string]int, len(selected))
	rd.pick = make([]int, 0, len(selected))
	for _, name := range selected {
		at, ok := position[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if _, dup := rd.index[name]; !dup {
			rd.index[name] = len(rd.pick)
			rd.pick = append(rd.pick, at)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

// Header returns the trimmed header names in file order
func (rd *Reader) Header() []string { return rd.header }

// Line returns the record number last read, the header being 1
func (rd *Reader) Line() int { return rd.line }

// Next returns the next record. It returns io.EOF after the last one.
func (rd *Reader) Next() (Row, error) {
	if rd.pick == nil {
		return Row{}, ErrNoHeader
	}
	record, err := rd.csv.Read()
	if errors.Is(err, io.EOF) {
		return Row{}, io.EOF
	}
	rd.line++
	if err != nil {
		return Row{}, fmt.Errorf("%w: row %d: %w", ErrMalformedCSV, rd.line, err)
	}

	values := make([]string, len(rd.pick))
	for i, at := range rd.pick {
		if at < len(record) {
			values[i] = strings.TrimSpace(record[at])
		}
	}
	return Row{Line: rd.line, index: rd.index, values: values}, nil
}

// Row is one record restricted to the selected columns
type Row struct {
	Line   int
	index  map[string]int
	values []string
}

// Get returns the trimmed value of column, "" when absent or not selected
func (r Row) Get(column string) string {
	if i, ok := r.index[column]; ok {
		return r.values[i]
	}
	return ""
}

// Blank reports whether every selected value is empty
func (r Row) Blank() bool {
	for _, v := range r.values {
		if v != "" {
			return false
		}
	}
	return true
}
