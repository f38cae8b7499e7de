// Package extract reads CSV extracts into typed records.
package extract

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"unicode/utf8"

	"csvwarehouse/internal/records"
	"csvwarehouse/internal/warehouse"
)

// ColumnSpec maps one source column onto a record field.
type ColumnSpec struct {
	// Name is the record key.
	Name string `yaml:"name"`
	// Header is the source header cell; empty means Name.
	Header string               `yaml:"header,omitempty"`
	Type   warehouse.ColumnType `yaml:"type"`
	// Layout is the Go time layout for datetime columns.
	Layout string `yaml:"layout,omitempty"`
}

// Source describes one CSV extract.
type Source struct {
	Path       string
	Delimiter  string
	Encoding   string
	HasHeader  bool
	LazyQuotes bool
	// Columns lists the fields to read. Without a header they are taken
	// positionally. Empty means every header column as a string.
	Columns []ColumnSpec
}

// Reader reads whole extracts into memory.
type Reader struct {
	// Open defaults to os.Open for local paths and Remote for URLs.
	Open   func(path string) (io.ReadCloser, error)
	Remote Fetcher
}

// Read opens src.Path and parses it.
func (r Reader) Read(ctx context.Context, src Source) ([]records.Record, error) {
	open := r.Open
	if open == nil {
		open = func(p string) (io.ReadCloser, error) {
			if IsRemote(p) {
				return r.Remote.Open(ctx, p)
			}
			return os.Open(p)
		}
	}
	f, err := open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("open extract %s: %w", src.Path, err)
	}
	defer f.Close()
	rows, err := ReadFrom(ctx, f, src)
	if err != nil {
		return nil, fmt.Errorf("read extract %s: %w", src.Path, err)
	}
	return rows, nil
}

// ReadFrom parses a CSV stream. Cells are trimmed; empty cells become nil.
// Cells that fail typed parsing keep their raw string so later stages can
// reject them with context.
func ReadFrom(ctx context.Context, in io.Reader, src Source) ([]records.Record, error) {
	dec, err := Decode(in, src.Encoding)
	if err != nil {
		return nil, err
	}
	comma, err := ParseDelimiter(src.Delimiter)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(dec)
	cr.Comma = comma
	cr.LazyQuotes = src.LazyQuotes
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	line := 0
	read := func() ([]string, error) { line++; return cr.Read() }

	var header []string
	if src.HasHeader {
		h, err := read()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		header = make([]string, len(h))
		for i, c := range h {
			header[i] = strings.TrimSpace(c)
		}
	}

	specs, colIx, err := plan(src, header)
	if err != nil {
		return nil, err
	}

	var (
		out      []records.Record
		badCells = map[string]int{}
	)
	for {
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row := make(records.Record, len(specs))
		for i, sp := range specs {
			cell := ""
			if ix := colIx[i]; ix < len(rec) {
				cell = strings.TrimSpace(rec[ix])
			}
			v, perr := ParseValue(cell, sp.Type, sp.Layout)
			if perr != nil {
				badCells[sp.Name]++
			}
			row[sp.Name] = v
		}
		out = append(out, row)
	}
	for col, n := range badCells {
		log.Printf("extract: %s column %s: %d cell(s) kept as raw text (unparseable %s)", src.Path, col, n, typeOf(specs, col))
	}
	return out, nil
}

// plan resolves the column specs and their source indexes.
func plan(src Source, header []string) ([]ColumnSpec, []int, error) {
	specs := src.Columns
	if len(specs) == 0 {
		if header == nil {
			return nil, nil, errors.New("columns must be declared for a headerless extract")
		}
		specs = make([]ColumnSpec, len(header))
		for i, h := range header {
			specs[i] = ColumnSpec{Name: h, Type: warehouse.TypeString}
		}
	}
	colIx := make([]int, len(specs))
	if header == nil {
		for i := range specs {
			colIx[i] = i
		}
		return specs, colIx, nil
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(h)] = i
	}
	var missing []string
	for i, sp := range specs {
		name := sp.Header
		if name == "" {
			name = sp.Name
		}
		ix, ok := pos[strings.ToLower(name)]
		if !ok {
			missing = append(missing, name)
			continue
		}
		colIx[i] = ix
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("header lacks column(s) %s", strings.Join(missing, ", "))
	}
	return specs, colIx, nil
}

// ParseDelimiter accepts one character, or `\t`/"tab" for a tab. Empty means a comma.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r, nil
}

func typeOf(specs []ColumnSpec, name string) warehouse.ColumnType {
	for _, s := range specs {
		if s.Name == name {
			return s.Type
		}
	}
	return ""
}
