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

package table

import (
	"github.com/stockparfait/errors"
	"github.com/xuri/excelize/v2"
)

// Sheet names one table of an XLSX workbook.
type Sheet struct {
	Name  string
	Table *Table
}

// writeSheet writes one table into the named sheet, header row first.
func writeSheet(f *excelize.File, sheet string, t *Table, p Params) error {
	rowIdx := 1
	writeRow := func(row []string) error {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, rowIdx)
			if err != nil {
				return errors.Annotate(err, "invalid cell coordinates [%d, %d]", c+1, rowIdx)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return errors.Annotate(err, "failed to set cell %s", cell)
			}
		}
		rowIdx++
		return nil
	}
	if !p.NoHeader && len(t.Header) > 0 {
		if err := writeRow(t.Header); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
	}
	for i, r := range t.Rows {
		if p.Rows > 0 && i >= p.Rows {
			break
		}
		if err := writeRow(r.CSV()); err != nil {
			return errors.Annotate(err, "failed to write row %d", i+1)
		}
	}
	return nil
}

// WriteXLSX writes the tables to an XLSX workbook at path, one sheet per
// table in the given order.
func WriteXLSX(path string, sheets []Sheet, p Params) error {
	if len(sheets) == 0 {
		return errors.Reason("no sheets to write")
	}
	f := excelize.NewFile()
	for i, s := range sheets {
		if i == 0 {
			// A new workbook always starts with "Sheet1"; reuse it.
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				return errors.Annotate(err, "failed to rename the default sheet to %q", s.Name)
			}
		} else {
			if _, err := f.NewSheet(s.Name); err != nil {
				return errors.Annotate(err, "failed to create sheet %q", s.Name)
			}
		}
		if err := writeSheet(f, s.Name, s.Table, p); err != nil {
			return errors.Annotate(err, "failed to write sheet %q", s.Name)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return errors.Annotate(err, "failed to save workbook %q", path)
	}
	return nil
}
