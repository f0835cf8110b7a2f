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

// Package market is the client facade for the market outlook dataset family:
// hourly, annual and monthly price forecasts, plus the Guarantees of Origin
// (GO) and Power Purchase Agreement (PPA) datasets.
package market

import (
	"context"

	"github.com/THEMA-CG/thema-market-outlook-api/outlook"
)

// Operation names served by this family.
const (
	HourlyData  = "hourly"
	AnnualData  = "annual"
	MonthlyData = "monthly"
	GOData      = "go"
	PPAData     = "ppa"
)

// Config returns the dataset configuration of the market family.
func Config() outlook.DatasetConfig {
	return outlook.DatasetConfig{
		Family:            "Market",
		MasterPath:        "masterdata",
		NewMasterDocument: func() outlook.MasterDocument { return &masterDocument{} },
		Endpoints: map[string]outlook.Endpoint{
			HourlyData: {
				Path:         "hourlyData",
				Shape:        outlook.ShapeHourly,
				Required:     []string{"scenario", "region", "edition", "country", "zone"},
				EditionScope: "region",
			},
			AnnualData: {
				Path:         "annualData",
				Shape:        outlook.ShapeAnnual,
				Required:     []string{"scenario", "group", "region", "edition"},
				Optional:     []string{"indicator", "country", "zone"},
				EditionScope: "region",
			},
			MonthlyData: {
				Path:         "monthlyData",
				Shape:        outlook.ShapeMonthly,
				Required:     []string{"scenario", "group", "region", "edition"},
				Optional:     []string{"indicator", "country", "zone"},
				EditionScope: "region",
			},
			// GO and PPA data are not scoped by region, so the edition cannot
			// be defaulted and must be given explicitly.
			GOData: {
				Path:     "goData",
				Shape:    outlook.ShapeAnnual,
				Required: []string{"scenario", "group", "edition"},
				Optional: []string{"indicator", "zone"},
			},
			PPAData: {
				Path:     "ppaData",
				Shape:    outlook.ShapeAnnual,
				Required: []string{"scenario", "group", "edition"},
				Optional: []string{"zone"},
			},
		},
	}
}

// Dataset is the market outlook client.
type Dataset struct {
	ds *outlook.Dataset
}

// NewDataset creates a market dataset facade. The master data is fetched on
// the first call that needs it.
func NewDataset() *Dataset {
	return &Dataset{ds: outlook.NewDataset(Config())}
}

// GetMasterData returns the master data of the market family, fetching it on
// first use.
func (d *Dataset) GetMasterData(ctx context.Context) (*outlook.MasterTable, error) {
	return d.ds.MasterData(ctx)
}

// RefreshMasterData re-fetches the master data and replaces the cached copy.
func (d *Dataset) RefreshMasterData(ctx context.Context) (*outlook.MasterTable, error) {
	return d.ds.RefreshMasterData(ctx)
}

// GetHourlyData fetches hourly outlook data. All of scenario, region,
// edition, country and zone are required; an unspecified edition defaults to
// the newest edition of the region.
func (d *Dataset) GetHourlyData(ctx context.Context, params outlook.Params) ([]outlook.Record, error) {
	return d.ds.GetData(ctx, HourlyData, params)
}

// GetAnnualData fetches annual outlook data. Indicator, country and zone are
// optional; leaving one out requests all of its variations.
func (d *Dataset) GetAnnualData(ctx context.Context, params outlook.Params) ([]outlook.Record, error) {
	return d.ds.GetData(ctx, AnnualData, params)
}

// GetMonthlyData fetches monthly outlook data with the same parameters as
// GetAnnualData.
func (d *Dataset) GetMonthlyData(ctx context.Context, params outlook.Params) ([]outlook.Record, error) {
	return d.ds.GetData(ctx, MonthlyData, params)
}

// GetGOData fetches Guarantees of Origin certificate data.
func (d *Dataset) GetGOData(ctx context.Context, params outlook.Params) ([]outlook.Record, error) {
	return d.ds.GetData(ctx, GOData, params)
}

// GetPPAData fetches Power Purchase Agreement pricing data.
func (d *Dataset) GetPPAData(ctx context.Context, params outlook.Params) ([]outlook.Record, error) {
	return d.ds.GetData(ctx, PPAData, params)
}
