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

package market

import (
	"github.com/THEMA-CG/thema-market-outlook-api/outlook"
)

// masterDocument is the wire format of the market master data response. The
// nested region/country/zone and group/indicator listings flatten into the
// frames of the master table.
type masterDocument struct {
	Scenario []string       `json:"scenario"`
	Groups   []masterGroup  `json:"groups"`
	Regions  []masterRegion `json:"regions"`
}

type masterGroup struct {
	Group      string            `json:"group"`
	Indicators []masterIndicator `json:"indicators"`
}

type masterIndicator struct {
	Indicator string `json:"indicator"`
	Unit      string `json:"unit"`
}

type masterRegion struct {
	Region    string          `json:"region"`
	Editions  []string        `json:"edition"`
	Countries []masterCountry `json:"countries"`
}

type masterCountry struct {
	Country string   `json:"country"`
	Zones   []string `json:"zone"`
}

var _ outlook.MasterDocument = &masterDocument{}

// Table implements outlook.MasterDocument.
func (doc *masterDocument) Table(family string) (*outlook.MasterTable, error) {
	if len(doc.Scenario) == 0 {
		return nil, &outlook.SchemaError{Family: family, Detail: "no scenarios"}
	}
	if len(doc.Groups) == 0 {
		return nil, &outlook.SchemaError{Family: family, Detail: "no groups"}
	}
	if len(doc.Regions) == 0 {
		return nil, &outlook.SchemaError{Family: family, Detail: "no regions"}
	}
	scenarios := outlook.Frame{Name: "scenario", Columns: []string{"scenario"}}
	for _, s := range doc.Scenario {
		scenarios.Rows = append(scenarios.Rows, []string{s})
	}
	groups := outlook.Frame{Name: "groups", Columns: []string{"group", "indicator", "unit"}}
	for _, g := range doc.Groups {
		for _, ind := range g.Indicators {
			groups.Rows = append(groups.Rows, []string{g.Group, ind.Indicator, ind.Unit})
		}
	}
	editions := outlook.Frame{Name: "editions", Columns: []string{"region", "edition"}}
	countries := outlook.Frame{Name: "countries", Columns: []string{"region", "country", "zone"}}
	for _, r := range doc.Regions {
		if len(r.Editions) == 0 {
			return nil, &outlook.SchemaError{Family: family,
				Detail: "no editions for region " + r.Region}
		}
		for _, e := range r.Editions {
			editions.Rows = append(editions.Rows, []string{r.Region, e})
		}
		for _, c := range r.Countries {
			for _, z := range c.Zones {
				countries.Rows = append(countries.Rows, []string{r.Region, c.Country, z})
			}
		}
	}
	return outlook.NewMasterTable(family, scenarios, groups, editions, countries), nil
}
