// Package feed streams rows out of delimited vendor feed files.
//
// Vendor exports disagree on almost everything: separator, column naming,
// quoting, trailing columns. Reader normalises the mechanical part — it
// detects the separator from the header line, maps header names
// case-insensitively, and yields one Row at a time so arbitrarily large
// feeds never have to fit in memory.
//
//	fr, err := feed.NewReader(f)
//	for {
//	    row, err := fr.Next()
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    sku := row.Get("sku")
//	}
package feed

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoHeader is returned when the source is empty or its first row has no
// usable column names. A feed without a header is malformed beyond recovery.
var ErrNoHeader = errors.New("feed: missing or empty header row")

// candidate separators, tried against the header line in this order.
var separators = []rune{',', '\t', ';', '|'}

// Row is one data row with access by header name.
type Row struct {
	// Line is the 1-based line number in the source, header included.
	Line int

	fields []string
	index  map[string]int
}

// Get returns the trimmed value of the named column, or "" when the column
// is absent or the row is short. Lookup is case-insensitive.
func (r Row) Get(col string) string {
	i, ok := r.index[normalise(col)]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// Has reports whether the feed declared the named column at all.
func (r Row) Has(col string) bool {
	_, ok := r.index[normalise(col)]
	return ok
}

// Map returns the row as column → value, used for error-record samples.
func (r Row) Map() map[string]string {
	out := make(map[string]string, len(r.index))
	for name, i := range r.index {
		if i < len(r.fields) {
			out[name] = strings.TrimSpace(r.fields[i])
		}
	}
	return out
}

// Reader streams rows from one delimited source.
type Reader struct {
	cr      *csv.Reader
	columns []string
	index   map[string]int
	line    int
}

// NewReader wraps r, sniffs the separator from the header line and consumes
// the header. Returns ErrNoHeader for an empty source.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("feed: peek header: %w", err)
	}
	if len(head) == 0 {
		return nil, ErrNoHeader
	}

	return NewReaderSep(br, sniffSeparator(firstLine(head)))
}

// NewReaderSep is NewReader with an explicit separator, for vendors whose
// header line defeats sniffing (single-column feeds, separators in names).
func NewReaderSep(r io.Reader, sep rune) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1 // vendors pad or truncate trailing columns

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("feed: read header: %w", err)
	}

	index := make(map[string]int, len(header))
	columns := make([]string, 0, len(header))
	for i, name := range header {
		n := normalise(name)
		if n == "" {
			continue
		}
		if _, dup := index[n]; dup {
			continue // first occurrence wins
		}
		index[n] = i
		columns = append(columns, n)
	}
	if len(index) == 0 {
		return nil, ErrNoHeader
	}

	return &Reader{cr: cr, columns: columns, index: index, line: 1}, nil
}

// Columns returns the normalised header names in feed order.
func (fr *Reader) Columns() []string {
	out := make([]string, len(fr.columns))
	copy(out, fr.columns)
	return out
}

// Next returns the next data row. io.EOF signals a clean end of stream; any
// other error means the source is malformed at that line. Blank lines are
// skipped.
func (fr *Reader) Next() (Row, error) {
	for {
		fields, err := fr.cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Row{}, io.EOF
			}
			return Row{}, fmt.Errorf("feed: line %d: %w", fr.line+1, err)
		}
		fr.line++

		if blank(fields) {
			continue
		}
		return Row{Line: fr.line, fields: fields, index: fr.index}, nil
	}
}

func normalise(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")))
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func firstLine(b []byte) string {
	if i := strings.IndexByte(string(b), '\n'); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

// sniffSeparator picks the candidate separator occurring most often in the
// header line, defaulting to comma on a tie with zero.
func sniffSeparator(header string) rune {
	best, bestCount := ',', 0
	for _, sep := range separators {
		if c := strings.Count(header, string(sep)); c > bestCount {
			best, bestCount = sep, c
		}
	}
	return best
}
