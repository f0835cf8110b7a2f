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

// Package technology is the client facade for the technology outlook dataset
// family: annual per-technology forecasts such as generation and capacity.
package technology

import (
	"context"

	"github.com/THEMA-CG/thema-market-outlook-api/outlook"
)

// AnnualData is the only operation served by this family.
const AnnualData = "annual"

// Config returns the dataset configuration of the technology family.
func Config() outlook.DatasetConfig {
	return outlook.DatasetConfig{
		Family:            "Technology",
		MasterPath:        "technologyMasterdata",
		NewMasterDocument: func() outlook.MasterDocument { return &masterDocument{} },
		Endpoints: map[string]outlook.Endpoint{
			AnnualData: {
				Path:         "technologyAnnualData",
				Shape:        outlook.ShapeAnnual,
				Required:     []string{"scenario", "country", "edition"},
				Optional:     []string{"indicator", "technology", "category"},
				EditionScope: "country",
			},
		},
	}
}

// Dataset is the technology outlook client.
type Dataset struct {
	ds *outlook.Dataset
}

// NewDataset creates a technology dataset facade.
func NewDataset() *Dataset {
	return &Dataset{ds: outlook.NewDataset(Config())}
}

// GetMasterData returns the master data of the technology family, fetching it
// on first use.
func (d *Dataset) GetMasterData(ctx context.Context) (*outlook.MasterTable, error) {
	return d.ds.MasterData(ctx)
}

// RefreshMasterData re-fetches the master data and replaces the cached copy.
func (d *Dataset) RefreshMasterData(ctx context.Context) (*outlook.MasterTable, error) {
	return d.ds.RefreshMasterData(ctx)
}

// GetAnnualData fetches annual technology data. Indicator, technology and
// category are optional; an unspecified edition defaults to the newest
// edition of the country.
func (d *Dataset) GetAnnualData(ctx context.Context, params outlook.Params) ([]outlook.Record, error) {
	return d.ds.GetData(ctx, AnnualData, params)
}

// masterDocument is the wire format of the technology master data response.
type masterDocument struct {
	Scenario     []string           `json:"scenario"`
	Countries    []masterCountry    `json:"countries"`
	Technologies []masterTechnology `json:"technologies"`
	Indicators   []masterIndicator  `json:"indicators"`
}

type masterCountry struct {
	Country  string   `json:"country"`
	Editions []string `json:"edition"`
}

type masterTechnology struct {
	Technology string   `json:"technology"`
	Categories []string `json:"category"`
}

type masterIndicator struct {
	Indicator string `json:"indicator"`
	Unit      string `json:"unit"`
}

var _ outlook.MasterDocument = &masterDocument{}

// Table implements outlook.MasterDocument.
func (doc *masterDocument) Table(family string) (*outlook.MasterTable, error) {
	if len(doc.Scenario) == 0 {
		return nil, &outlook.SchemaError{Family: family, Detail: "no scenarios"}
	}
	if len(doc.Countries) == 0 {
		return nil, &outlook.SchemaError{Family: family, Detail: "no countries"}
	}
	if len(doc.Technologies) == 0 {
		return nil, &outlook.SchemaError{Family: family, Detail: "no technologies"}
	}
	scenarios := outlook.Frame{Name: "scenario", Columns: []string{"scenario"}}
	for _, s := range doc.Scenario {
		scenarios.Rows = append(scenarios.Rows, []string{s})
	}
	editions := outlook.Frame{Name: "editions", Columns: []string{"country", "edition"}}
	for _, c := range doc.Countries {
		if len(c.Editions) == 0 {
			return nil, &outlook.SchemaError{Family: family,
				Detail: "no editions for country " + c.Country}
		}
		for _, e := range c.Editions {
			editions.Rows = append(editions.Rows, []string{c.Country, e})
		}
	}
	technologies := outlook.Frame{Name: "technologies", Columns: []string{"technology", "category"}}
	for _, t := range doc.Technologies {
		if len(t.Categories) == 0 {
			// Some technologies have no subcategories, e.g. Solar.
			technologies.Rows = append(technologies.Rows, []string{t.Technology, ""})
			continue
		}
		for _, c := range t.Categories {
			technologies.Rows = append(technologies.Rows, []string{t.Technology, c})
		}
	}
	indicators := outlook.Frame{Name: "indicators", Columns: []string{"indicator", "unit"}}
	for _, ind := range doc.Indicators {
		indicators.Rows = append(indicators.Rows, []string{ind.Indicator, ind.Unit})
	}
	return outlook.NewMasterTable(family, scenarios, editions, technologies, indicators), nil
}
