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
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/THEMA-CG/thema-market-outlook-api/table"
)

// Shape declares which period columns a data endpoint returns.
type Shape int

const (
	ShapeHourly  Shape = iota // a "timestamp" column per row
	ShapeAnnual               // a "year" column per row
	ShapeMonthly              // "year" and "month" columns per row
)

func (s Shape) String() string {
	switch s {
	case ShapeHourly:
		return "hourly"
	case ShapeAnnual:
		return "annual"
	case ShapeMonthly:
		return "monthly"
	}
	return "unknown"
}

// PeriodColumns are the column names which identify a row's period for this
// shape, in header order.
func (s Shape) PeriodColumns() []string {
	switch s {
	case ShapeHourly:
		return []string{"timestamp"}
	case ShapeMonthly:
		return []string{"year", "month"}
	}
	return []string{"year"}
}

// Record is one row of outlook data: the period it covers, the numeric value,
// and the dimensional tags that produced it. Records are created fresh per
// response and never modified afterwards.
type Record struct {
	Timestamp time.Time // hourly data only
	Year      int       // annual and monthly data
	Month     int       // monthly data only
	Value     float64
	Unit      string
	Tags      map[string]string // e.g. scenario, region, zone
}

// dataEnvelope is the wire format of every data endpoint: a single-element
// array whose element holds the rows.
type dataEnvelope []struct {
	Data []map[string]interface{} `json:"data"`
}

// Page holds the decoded rows of one data response. The entire body is
// already in memory; iteration is lazy but involves no further I/O.
type Page struct {
	rows []map[string]interface{}
}

func newPage(env dataEnvelope) *Page {
	p := &Page{}
	for _, e := range env {
		p.rows = append(p.rows, e.Data...)
	}
	return p
}

// Len returns the number of rows in the page.
func (p *Page) Len() int { return len(p.rows) }

// Records sets up an iterator over the page's rows in response order. The
// sequence is finite and restartable: each call starts over from the first
// row.
func (p *Page) Records(shape Shape) *RecordIterator {
	return &RecordIterator{rows: p.rows, shape: shape}
}

// All parses every row of the page. It either returns all records in
// response order or the first parse error, never a partial result.
func (p *Page) All(shape Shape) ([]Record, error) {
	it := p.Records(shape)
	records := make([]Record, 0, p.Len())
	for {
		var r Record
		ok, err := it.Next(&r)
		if err != nil {
			return nil, err
		}
		if !ok {
			return records, nil
		}
		records = append(records, r)
	}
}

// RecordIterator iterates over the rows of a data response.
type RecordIterator struct {
	rows  []map[string]interface{}
	shape Shape
	index int
}

// Next loads the next record. If there are no more rows, the first value is
// false.
func (it *RecordIterator) Next(r *Record) (bool, error) {
	if it.index >= len(it.rows) {
		return false, nil
	}
	row := it.rows[it.index]
	it.index++
	if err := loadRecord(r, row, it.shape); err != nil {
		return false, err
	}
	return true, nil
}

// timestampLayouts are accepted hourly timestamp formats, tried in order.
var timestampLayouts = []string{time.RFC3339, "2006-01-02T15:04:05"}

func rowTime(row map[string]interface{}, column string) (time.Time, error) {
	v, ok := row[column]
	if !ok {
		return time.Time{}, &ParseError{Column: column, Detail: "is missing"}
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, &ParseError{Column: column, Detail: "is not a time string"}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ParseError{Column: column, Detail: "is not a time string: " + s}
}

func rowInt(row map[string]interface{}, column string) (int, error) {
	v, ok := row[column]
	if !ok {
		return 0, &ParseError{Column: column, Detail: "is missing"}
	}
	// Any number in JSON unmarshals as float64.
	num, ok := v.(float64)
	if !ok {
		return 0, &ParseError{Column: column, Detail: "is not a number"}
	}
	return int(num), nil
}

// loadRecord parses one response row. The period columns of the shape and the
// value column are required; "unit" is optional; every other string column
// becomes a dimensional tag. Columns added by the server with non-string
// values are ignored rather than rejected, so newly published metrics do not
// break existing readers.
func loadRecord(r *Record, row map[string]interface{}, shape Shape) error {
	*r = Record{Tags: make(map[string]string)}
	consumed := map[string]struct{}{"value": {}, "unit": {}}
	var err error
	switch shape {
	case ShapeHourly:
		if r.Timestamp, err = rowTime(row, "timestamp"); err != nil {
			return err
		}
		consumed["timestamp"] = struct{}{}
	case ShapeMonthly:
		if r.Month, err = rowInt(row, "month"); err != nil {
			return err
		}
		consumed["month"] = struct{}{}
		fallthrough
	case ShapeAnnual:
		if r.Year, err = rowInt(row, "year"); err != nil {
			return err
		}
		consumed["year"] = struct{}{}
	}
	v, ok := row["value"]
	if !ok {
		return &ParseError{Column: "value", Detail: "is missing"}
	}
	num, ok := v.(float64)
	if !ok {
		return &ParseError{Column: "value", Detail: "is not a number"}
	}
	r.Value = num
	if u, ok := row["unit"]; ok {
		s, ok := u.(string)
		if !ok {
			return &ParseError{Column: "unit", Detail: "is not a string"}
		}
		r.Unit = s
	}
	for column, v := range row {
		if _, ok := consumed[column]; ok {
			continue
		}
		if s, ok := v.(string); ok {
			r.Tags[column] = s
		}
	}
	return nil
}

// TestDataPage generates the JSON string in the format returned by the data
// endpoints. For use in tests.
func TestDataPage(rows []map[string]interface{}) (string, error) {
	env := dataEnvelope{{Data: rows}}
	bytes, err := json.Marshal(env)
	return string(bytes), err
}

// recordRow adapts a Record to one table row with a fixed column order.
type recordRow struct {
	record Record
	tags   []string
	shape  Shape
}

func (r recordRow) CSV() []string {
	row := make([]string, 0, len(r.tags)+4)
	for _, tag := range r.tags {
		row = append(row, r.record.Tags[tag])
	}
	switch r.shape {
	case ShapeHourly:
		row = append(row, r.record.Timestamp.Format("2006-01-02T15:04:05"))
	case ShapeAnnual:
		row = append(row, strconv.Itoa(r.record.Year))
	case ShapeMonthly:
		row = append(row, strconv.Itoa(r.record.Year), strconv.Itoa(r.record.Month))
	}
	row = append(row, strconv.FormatFloat(r.record.Value, 'f', -1, 64), r.record.Unit)
	return row
}

// RecordTable converts records to a printable table. tagFields selects and
// orders the dimensional tag columns; when nil, the tags of the first record
// are used in sorted order.
func RecordTable(shape Shape, tagFields []string, records []Record) *table.Table {
	if tagFields == nil && len(records) > 0 {
		for tag := range records[0].Tags {
			tagFields = append(tagFields, tag)
		}
		sort.Strings(tagFields)
	}
	header := append([]string{}, tagFields...)
	header = append(header, shape.PeriodColumns()...)
	header = append(header, "value", "unit")
	t := table.NewTable(header...)
	for _, r := range records {
		t.AddRow(recordRow{record: r, tags: tagFields, shape: shape})
	}
	return t
}
