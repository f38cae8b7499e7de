package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"csvwarehouse/internal/extract"
	"csvwarehouse/internal/transform"
	"csvwarehouse/internal/warehouse"
)

// Job is a run description: the tables to load, in order.
//
// Example (trimmed):
//
//	name: sales
//	tables:
//	  - table:
//	      name: order_lines
//	      columns: [{name: order_id, type: int}, {name: order_date, type: datetime}]
//	      key_columns: [order_id]
//	      timestamp_column: order_date
//	    sources:
//	      headers: {has_header: true, columns: [...]}
//	      details: {has_header: true, columns: [...]}
//	    transform:
//	      base: details
//	      joins: [{source: headers, kind: inner, on: [{left: order_id, right: order_id}]}]
//	    original: {headers: jan/headers.csv, details: jan/details.csv}
//	    incremental:
//	      - {headers: feb/headers.csv, details: feb/details.csv}
type Job struct {
	Name   string     `yaml:"name"`
	Tables []TableJob `yaml:"tables"`
}

// TableJob loads one warehouse table.
type TableJob struct {
	Table     warehouse.Table       `yaml:"table"`
	Sources   map[string]SourceSpec `yaml:"sources"`
	Transform *TransformSpec        `yaml:"transform,omitempty"`

	// Original is loaded unfiltered; each Incremental extract then goes
	// through watermark filtering. A source missing from an incremental
	// extract reuses its original file.
	Original    Extract   `yaml:"original"`
	Incremental []Extract `yaml:"incremental,omitempty"`
}

// Extract maps source name to file path.
type Extract map[string]string

// SourceSpec is the file-independent part of an extract.Source.
type SourceSpec struct {
	Delimiter  string               `yaml:"delimiter,omitempty"`
	Encoding   string               `yaml:"encoding,omitempty"`
	HasHeader  *bool                `yaml:"has_header,omitempty"`
	LazyQuotes bool                 `yaml:"lazy_quotes,omitempty"`
	Columns    []extract.ColumnSpec `yaml:"columns,omitempty"`
}

// TransformSpec is the join/derive recipe of a table.
type TransformSpec struct {
	Base    string             `yaml:"base"`
	Joins   []transform.Join   `yaml:"joins,omitempty"`
	Derives []transform.Derive `yaml:"derives,omitempty"`
}

// LoadJob decodes a YAML (or JSON) job file. Unknown keys are rejected.
func LoadJob(path string) (Job, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("read job %s: %w", path, err)
	}
	return ParseJob(b)
}

// ParseJob decodes a job document.
func ParseJob(b []byte) (Job, error) {
	var j Job
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&j); err != nil {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	return j, nil
}

// SourceFor builds the extract.Source for one file of source name.
func (tj TableJob) SourceFor(name, path string) extract.Source {
	sp := tj.Sources[name]
	hasHeader := true
	if sp.HasHeader != nil {
		hasHeader = *sp.HasHeader
	}
	return extract.Source{
		Path:       path,
		Delimiter:  sp.Delimiter,
		Encoding:   sp.Encoding,
		HasHeader:  hasHeader,
		LazyQuotes: sp.LazyQuotes,
		Columns:    sp.Columns,
	}
}

// Paths resolves every source of extract e, falling back to Original.
func (tj TableJob) Paths(e Extract) map[string]string {
	out := make(map[string]string, len(tj.Sources))
	for name := range tj.Sources {
		if p, ok := e[name]; ok && p != "" {
			out[name] = p
		} else {
			out[name] = tj.Original[name]
		}
	}
	return out
}

// Transformer returns the table's recipe. Without a transform section the
// only source is projected onto the table's columns.
func (tj TableJob) Transformer() transform.Transformer {
	t := transform.Transformer{Columns: tj.Table.ColumnNames()}
	if tj.Transform != nil {
		t.Base = tj.Transform.Base
		t.Joins = tj.Transform.Joins
		t.Derives = tj.Transform.Derives
		return t
	}
	for name := range tj.Sources {
		t.Base = name
	}
	return t
}

// MasterList is the built-in job: the server-cost extract ("Date;Server;Cost")
// loaded into dbo.master_list.
func MasterList(original string, incremental []string) Job {
	tj := TableJob{
		Table: warehouse.Table{
			Schema: "dbo",
			Name:   "master_list",
			Columns: []warehouse.Column{
				{Name: "Date", Type: warehouse.TypeDateTime},
				{Name: "Server", Type: warehouse.TypeString, Size: 200},
				{Name: "Cost", Type: warehouse.TypeFloat},
			},
			KeyColumns:      []string{"Date", "Server"},
			TimestampColumn: "Date",
		},
		Sources: map[string]SourceSpec{
			"master_list": {
				Delimiter: ";",
				Columns: []extract.ColumnSpec{
					{Name: "Date", Type: warehouse.TypeDateTime},
					{Name: "Server", Type: warehouse.TypeString},
					{Name: "Cost", Type: warehouse.TypeFloat},
				},
			},
		},
		Original: Extract{"master_list": original},
	}
	for _, p := range incremental {
		tj.Incremental = append(tj.Incremental, Extract{"master_list": p})
	}
	return Job{Name: "master_list", Tables: []TableJob{tj}}
}
