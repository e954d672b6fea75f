package tabular

// codec.go reads and writes CSV tables.
//
// Reading tolerates the usual artifacts of exported files:
//   - a leading UTF-8 BOM (written by Excel and by the scrape backend)
//   - invalid UTF-8 byte sequences, replaced with U+FFFD
//   - blank lines between records
//
// Writing always quotes every field and separates records with CRLF so the
// output opens cleanly in spreadsheet tools regardless of cell content.

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// BOM is the UTF-8 byte order mark.
const BOM = "\uFEFF"

// Table is a parsed CSV document.
type Table struct {
	Headers []string
	Rows    []Row
}

// ParseError reports a malformed record.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid csv at line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ErrFieldCount is wrapped by ParseError when a record's width differs
// from the header row.
var ErrFieldCount = errors.New("wrong number of fields")

// Parse reads text whose first record is the header row.
// Empty text yields an empty table.
func Parse(text string) (*Table, error) {
	text = strings.TrimPrefix(text, BOM)
	text = strings.ToValidUTF8(text, "\uFFFD")

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1 // width is checked against the header below

	table := &Table{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &ParseError{Line: pe.Line, Err: pe.Err}
			}
			return nil, err
		}

		if table.Headers == nil {
			table.Headers = record
			continue
		}

		if len(record) != len(table.Headers) {
			line, _ := r.FieldPos(0)
			return nil, &ParseError{
				Line: line,
				Err:  fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(record), len(table.Headers)),
			}
		}

		var row Row
		for i, h := range table.Headers {
			row.Set(h, record[i])
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// WriteOptions controls serialization.
type WriteOptions struct {
	// BOM prefixes the output with a UTF-8 byte order mark.
	BOM bool
}

// Write serializes a header row followed by rows, emitting only the given
// headers in order. Every field is quoted and records are separated by CRLF
// with no trailing line break.
func Write(w io.Writer, headers []string, rows []Row, opts WriteOptions) error {
	if len(headers) == 0 {
		return errors.New("tabular: no headers to write")
	}

	bw := bufio.NewWriter(w)
	if opts.BOM {
		if _, err := bw.WriteString(BOM); err != nil {
			return err
		}
	}

	if err := writeRecord(bw, headers); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := bw.WriteString("\r\n"); err != nil {
			return err
		}
		if err := writeRecord(bw, row.Values(headers)); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func writeRecord(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(quote(f)); err != nil {
			return err
		}
	}
	return nil
}

func quote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
