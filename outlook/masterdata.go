// Copyright 2024 THEMA Consulting Group

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package outlook

import (
	"time"

	"github.com/THEMA-CG/thema-market-outlook-api/table"
)

// editionLayout is the vendor's edition naming scheme, e.g. "September 2022".
const editionLayout = "January 2006"

// Frame is one named section of a master data table, e.g. the region/edition
// list of the market family. Column values are always strings.
type Frame struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Column returns the distinct values of the named column in row order, or nil
// when the frame has no such column.
func (f *Frame) Column(name string) []string {
	idx := -1
	for i, c := range f.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	var values []string
	seen := make(map[string]struct{})
	for _, row := range f.Rows {
		if idx >= len(row) {
			continue
		}
		v := row[idx]
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}

type frameRow []string

func (r frameRow) CSV() []string { return r }

// Table converts the frame to a printable table.
func (f *Frame) Table() *table.Table {
	t := table.NewTable(f.Columns...)
	for _, row := range f.Rows {
		t.AddRow(frameRow(row))
	}
	return t
}

// MasterTable is the set of legal parameter combinations for one dataset
// family, fetched once per session and immutable after that.
type MasterTable struct {
	Family string
	Frames []Frame

	index map[string][]string // column name -> distinct values, first-seen order
}

// NewMasterTable creates a master table from its frames and indexes the
// allowed values by column name. A column appearing in several frames merges
// its values in frame order.
func NewMasterTable(family string, frames ...Frame) *MasterTable {
	t := &MasterTable{
		Family: family,
		Frames: frames,
		index:  make(map[string][]string),
	}
	seen := make(map[string]map[string]struct{})
	for _, f := range t.Frames {
		for _, col := range f.Columns {
			if seen[col] == nil {
				seen[col] = make(map[string]struct{})
			}
			for _, v := range f.Column(col) {
				if v == "" {
					continue
				}
				if _, ok := seen[col][v]; ok {
					continue
				}
				seen[col][v] = struct{}{}
				t.index[col] = append(t.index[col], v)
			}
		}
	}
	return t
}

// Column returns the allowed values for a field across all frames. An unknown
// field has no allowed values.
func (t *MasterTable) Column(field string) []string {
	return t.index[field]
}

// Has checks whether value is an allowed value of field. The comparison is a
// case-sensitive exact match, as the server's own matching is.
func (t *MasterTable) Has(field, value string) bool {
	for _, v := range t.index[field] {
		if v == value {
			return true
		}
	}
	return false
}

// Frame returns the named frame, or nil.
func (t *MasterTable) Frame(name string) *Frame {
	for i := range t.Frames {
		if t.Frames[i].Name == name {
			return &t.Frames[i]
		}
	}
	return nil
}

// editionDate parses an edition name. Editions which do not follow the
// month-year naming scheme sort below all regular editions.
func editionDate(edition string) time.Time {
	d, err := time.Parse(editionLayout, edition)
	if err != nil {
		return time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return d
}

// NewestEdition returns the latest edition published under the given scope
// value, e.g. scope "region" and value "Nordics" for the market family. Ties
// and unparsable edition names resolve to the later row. It is used to
// default an unspecified edition parameter.
func (t *MasterTable) NewestEdition(scope, value string) (string, error) {
	if !t.Has(scope, value) {
		return "", &ValidationError{Field: scope, Value: value, Allowed: t.Column(scope)}
	}
	var frame *Frame
	for i := range t.Frames {
		f := &t.Frames[i]
		if f.Column(scope) != nil && f.Column("edition") != nil {
			frame = f
			break
		}
	}
	if frame == nil {
		return "", &SchemaError{Family: t.Family, Detail: "no edition overview"}
	}
	scopeIdx, editionIdx := -1, -1
	for i, c := range frame.Columns {
		switch c {
		case scope:
			scopeIdx = i
		case "edition":
			editionIdx = i
		}
	}
	newest := ""
	var newestDate time.Time
	for _, row := range frame.Rows {
		if scopeIdx >= len(row) || editionIdx >= len(row) {
			continue
		}
		if row[scopeIdx] != value {
			continue
		}
		if d := editionDate(row[editionIdx]); newest == "" || !d.Before(newestDate) {
			newest = row[editionIdx]
			newestDate = d
		}
	}
	if newest == "" {
		return "", &SchemaError{Family: t.Family,
			Detail: "no editions listed for " + scope + " " + value}
	}
	return newest, nil
}
