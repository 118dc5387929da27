package flatfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Delimiter separates fields on a record line
const Delimiter = "|"

// pipeReader feeds gocsv with pipe-delimited rows. It implements gocsv.CSVReader.
// Every row must carry exactly as many fields as the header.
type pipeReader struct {
	rows [][]string
	pos  int
}

func newPipeReader(header []string, lines []numberedLine) (*pipeReader, error) {
	rows := make([][]string, 0, len(lines)+1)
	rows = append(rows, header)
	for _, l := range lines {
		fields := strings.Split(l.text, Delimiter)
		if len(fields) != len(header) {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", l.number, len(header), len(fields))
		}
		rows = append(rows, fields)
	}
	return &pipeReader{rows: rows}, nil
}

func (r *pipeReader) Read() ([]string, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}

func (r *pipeReader) ReadAll() ([][]string, error) {
	rows := r.rows[r.pos:]
	r.pos = len(r.rows)
	return rows, nil
}

// pipeWriter serializes gocsv rows as pipe-delimited lines. It implements gocsv.CSVWriter.
// A field containing the delimiter or a line break is refused so a record never spans
// or splits lines.
type pipeWriter struct {
	w   *bufio.Writer
	err error
}

func newPipeWriter(w io.Writer) *pipeWriter {
	return &pipeWriter{w: bufio.NewWriter(w)}
}

func (pw *pipeWriter) Write(row []string) error {
	if pw.err != nil {
		return pw.err
	}
	for i, field := range row {
		if strings.ContainsAny(field, "|\r\n") {
			pw.err = fmt.Errorf("field %d contains a delimiter or line break: %q", i+1, field)
			return pw.err
		}
	}
	if _, err := pw.w.WriteString(strings.Join(row, Delimiter) + "\n"); err != nil {
		pw.err = err
	}
	return pw.err
}

func (pw *pipeWriter) Flush() {
	if pw.err != nil {
		return
	}
	pw.err = pw.w.Flush()
}

func (pw *pipeWriter) Error() error {
	return pw.err
}

type numberedLine struct {
	number int
	text   string
}
