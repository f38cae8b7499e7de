// Package probe samples a CSV extract and drafts a load job for it: the
// delimiter, normalized column names, inferred column types and date
// layouts, and a timestamp column guess. The draft is a starting point to
// review, not a contract.
package probe

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"csvwarehouse/internal/config"
	"csvwarehouse/internal/extract"
	"csvwarehouse/internal/warehouse"
)

// Options control sampling.
type Options struct {
	// Name is the table and source name; empty uses the file base name.
	Name string
	// Delimiter empty means sniff it from the header line.
	Delimiter string
	Encoding  string
	// Schema is copied into the drafted table.
	Schema string
	// MaxBytes bounds the sample; zero means 1 MiB.
	MaxBytes int64
}

// Column is one inferred source column.
type Column struct {
	Header string
	Name   string
	Type   warehouse.ColumnType
	Layout string
	// Size is the longest sampled value rounded up, for string columns.
	Size int
}

// Result is a drafted job plus the evidence behind it.
type Result struct {
	Delimiter string
	Columns   []Column
	Rows      int // sampled data rows
	Skipped   int // malformed or misaligned sampled rows
	Job       config.Job
}

const defaultMaxBytes = 1 << 20

// File probes the extract at path, which may be an http(s) URL.
func File(ctx context.Context, path string, opt Options) (Result, error) {
	var (
		f   io.ReadCloser
		err error
	)
	if extract.IsRemote(path) {
		f, err = extract.Fetcher{}.Open(ctx, path)
	} else {
		f, err = os.Open(path)
	}
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if opt.Name == "" {
		opt.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return Sample(ctx, f, path, opt)
}

// Sample probes r; path is recorded as the original extract of the draft.
func Sample(ctx context.Context, r io.Reader, path string, opt Options) (Result, error) {
	if opt.MaxBytes <= 0 {
		opt.MaxBytes = defaultMaxBytes
	}
	dec, err := extract.Decode(io.LimitReader(r, opt.MaxBytes), opt.Encoding)
	if err != nil {
		return Result{}, err
	}
	data, err := io.ReadAll(dec)
	if err != nil {
		return Result{}, fmt.Errorf("read sample: %w", err)
	}
	// the last line of a truncated sample is most likely partial
	if int64(len(data)) >= opt.MaxBytes {
		if i := bytes.LastIndexByte(data, '\n'); i > 0 {
			data = data[:i+1]
		}
	}

	delim := opt.Delimiter
	if delim == "" {
		delim = sniffDelimiter(data)
	}
	comma, err := extract.ParseDelimiter(delim)
	if err != nil {
		return Result{}, err
	}

	headers, rows, skipped, err := readSample(ctx, data, comma)
	if err != nil {
		return Result{}, err
	}
	if len(headers) == 0 {
		return Result{}, fmt.Errorf("sample has no header line")
	}

	res := Result{Delimiter: delim, Rows: len(rows), Skipped: skipped}
	names := uniqueNames(headers)
	for i, h := range headers {
		values := make([]string, 0, len(rows))
		for _, row := range rows {
			values = append(values, row[i])
		}
		c := inferColumn(values)
		c.Header, c.Name = h, names[i]
		res.Columns = append(res.Columns, c)
	}
	res.Job = draftJob(opt, path, delim, res.Columns)
	return res, nil
}

// sniffDelimiter picks the candidate that splits the header line most.
func sniffDelimiter(data []byte) string {
	line, _, _ := bufio.NewReader(bytes.NewReader(data)).ReadLine()
	best, bestN := ",", 0
	for _, c := range []string{",", ";", "\t", "|"} {
		if n := strings.Count(string(line), c); n > bestN {
			best, bestN = c, n
		}
	}
	if best == "\t" {
		return `\t`
	}
	return best
}

// readSample returns the header and the rows whose width matches it.
// Malformed and misaligned rows are skipped so they do not skew inference.
func readSample(ctx context.Context, data []byte, comma rune) ([]string, [][]string, int, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = comma
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	var headers []string
	for headers == nil {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil, nil, 0, nil
		}
		if err != nil || len(rec) == 0 {
			continue
		}
		headers = make([]string, len(rec))
		for i, h := range rec {
			headers[i] = strings.TrimSpace(h)
		}
	}

	var (
		rows    [][]string
		skipped int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, 0, err
		}
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(rec) != len(headers) {
			skipped++
			continue
		}
		rows = append(rows, rec)
	}
	return headers, rows, skipped, nil
}

func draftJob(opt Options, path, delim string, cols []Column) config.Job {
	name := normalizeName(opt.Name)
	if name == "col" {
		name = "extract"
	}
	t := warehouse.Table{Schema: opt.Schema, Name: name}
	var specs []extract.ColumnSpec
	for _, c := range cols {
		wc := warehouse.Column{Name: c.Name, Type: c.Type, Size: c.Size}
		if c.Type == warehouse.TypeDecimal {
			wc.Size, wc.Scale = 18, 4
		}
		t.Columns = append(t.Columns, wc)

		spec := extract.ColumnSpec{Name: c.Name, Type: c.Type, Layout: c.Layout}
		if c.Header != c.Name {
			spec.Header = c.Header
		}
		specs = append(specs, spec)

		switch {
		case c.Type == warehouse.TypeDateTime && t.TimestampColumn == "":
			t.TimestampColumn = c.Name
			t.KeyColumns = append(t.KeyColumns, c.Name)
		case c.Type == warehouse.TypeString:
			t.KeyColumns = append(t.KeyColumns, c.Name)
		}
	}
	return config.Job{
		Name: name,
		Tables: []config.TableJob{{
			Table:    t,
			Sources:  map[string]config.SourceSpec{name: {Delimiter: delim, Encoding: opt.Encoding, Columns: specs}},
			Original: config.Extract{name: path},
		}},
	}
}
