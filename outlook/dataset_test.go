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
	"context"
	"net/url"
	"testing"

	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

// testMasterDoc is a minimal master data document with a region/edition
// overview, in the style of the real dataset families.
type testMasterDoc struct {
	Scenario []string `json:"scenario"`
	Regions  []struct {
		Region   string   `json:"region"`
		Editions []string `json:"edition"`
	} `json:"regions"`
}

var _ MasterDocument = &testMasterDoc{}

func (d *testMasterDoc) Table(family string) (*MasterTable, error) {
	if len(d.Scenario) == 0 {
		return nil, &SchemaError{Family: family, Detail: "no scenarios"}
	}
	scenarios := Frame{Name: "scenario", Columns: []string{"scenario"}}
	for _, s := range d.Scenario {
		scenarios.Rows = append(scenarios.Rows, []string{s})
	}
	editions := Frame{Name: "editions", Columns: []string{"region", "edition"}}
	for _, r := range d.Regions {
		for _, e := range r.Editions {
			editions.Rows = append(editions.Rows, []string{r.Region, e})
		}
	}
	return NewMasterTable(family, scenarios, editions), nil
}

func testConfig() DatasetConfig {
	return DatasetConfig{
		Family:            "Test",
		MasterPath:        "masterdata",
		NewMasterDocument: func() MasterDocument { return &testMasterDoc{} },
		Endpoints: map[string]Endpoint{
			"annual": {
				Path:         "annualData",
				Shape:        ShapeAnnual,
				Required:     []string{"scenario", "region", "edition"},
				Optional:     []string{"zone"},
				EditionScope: "region",
			},
		},
	}
}

const testAuthBody = `{"jwt": "test-token"}`

const testMasterBody = `{
  "scenario": ["Base", "High"],
  "regions": [
    {"region": "Nordics", "edition": ["September 2022", "April 2023"]},
    {"region": "UK", "edition": ["October 2022"]}
  ]
}`

func TestDataset(t *testing.T) {
	t.Parallel()

	Convey("Dataset API calls work correctly", t, func() {
		server := testutil.NewTestServer()
		defer server.Close()

		ctx := UseClient(context.Background(), Config{
			URL:       server.URL(),
			Username:  "user",
			Password:  "secret",
			Transport: server.Client(),
		})
		ds := NewDataset(testConfig())

		dataBody, err := TestDataPage([]map[string]interface{}{
			{"year": 2030.0, "value": 45.5, "unit": "EUR/MWh", "zone": "NO1"},
			{"year": 2031.0, "value": 47.0, "unit": "EUR/MWh", "zone": "NO1"},
		})
		So(err, ShouldBeNil)

		Convey("Endpoint and Operations describe the config", func() {
			e, ok := ds.Endpoint("annual")
			So(ok, ShouldBeTrue)
			So(e.Fields(), ShouldResemble,
				[]string{"scenario", "region", "edition", "zone"})
			_, ok = ds.Endpoint("hourly")
			So(ok, ShouldBeFalse)
			So(ds.Operations(), ShouldResemble, []string{"annual"})
		})

		Convey("GetData validates, fetches and parses", func() {
			server.ResponseBody = []string{testAuthBody, testMasterBody, dataBody}
			records, err := ds.GetData(ctx, "annual", Params{
				{"scenario", "Base"},
				{"region", "Nordics"},
				{"edition", "April 2023"},
			})
			So(err, ShouldBeNil)
			So(len(records), ShouldEqual, 2)
			So(records[0].Year, ShouldEqual, 2030)
			So(records[0].Tags, ShouldResemble, map[string]string{"zone": "NO1"})
			So(server.RequestPath, ShouldEqual, "/annualData")
			So(server.RequestQuery, ShouldResemble, url.Values{
				"scenario": []string{"Base"},
				"region":   []string{"Nordics"},
				"edition":  []string{"April 2023"},
			})
		})

		Convey("the master table is fetched once and cached", func() {
			dataBody2, err := TestDataPage([]map[string]interface{}{
				{"year": 2035.0, "value": 50.0},
			})
			So(err, ShouldBeNil)
			// A re-fetch of the master data would consume the second data
			// page out of order and fail.
			server.ResponseBody = []string{
				testAuthBody, testMasterBody, dataBody, dataBody2}
			params := Params{
				{"scenario", "Base"},
				{"region", "Nordics"},
				{"edition", "April 2023"},
			}
			_, err = ds.GetData(ctx, "annual", params)
			So(err, ShouldBeNil)
			records, err := ds.GetData(ctx, "annual", params)
			So(err, ShouldBeNil)
			So(len(records), ShouldEqual, 1)
			So(records[0].Year, ShouldEqual, 2035)
		})

		Convey("an unspecified edition defaults to the newest for the region", func() {
			server.ResponseBody = []string{testAuthBody, testMasterBody, dataBody}
			_, err := ds.GetData(ctx, "annual", Params{
				{"scenario", "Base"},
				{"region", "Nordics"},
			})
			So(err, ShouldBeNil)
			So(server.RequestQuery["edition"], ShouldResemble, []string{"April 2023"})
		})

		Convey("a validation failure makes no data request", func() {
			server.ResponseBody = []string{testAuthBody, testMasterBody}
			_, err := ds.GetData(ctx, "annual", Params{
				{"scenario", "Base"},
				{"region", "EU"},
				{"edition", "April 2023"},
			})
			So(err, ShouldHaveSameTypeAs, &ValidationError{})
			So(err.(*ValidationError).Allowed, ShouldResemble, []string{"Nordics", "UK"})
			// The master data request is the last one the server saw.
			So(server.RequestPath, ShouldEqual, "/masterdata")
		})

		Convey("an empty result is ErrNoData", func() {
			emptyBody, err := TestDataPage(nil)
			So(err, ShouldBeNil)
			server.ResponseBody = []string{testAuthBody, testMasterBody, emptyBody}
			_, err = ds.GetData(ctx, "annual", Params{
				{"scenario", "Base"},
				{"region", "UK"},
				{"edition", "October 2022"},
			})
			So(err, ShouldEqual, ErrNoData)
		})

		Convey("an unknown operation lists the available ones", func() {
			_, err := ds.GetData(ctx, "hourly", nil)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "available: annual")
		})

		Convey("RefreshMasterData replaces the cached table", func() {
			master2 := `{
			  "scenario": ["Base"],
			  "regions": [{"region": "DE", "edition": ["March 2024"]}]
			}`
			server.ResponseBody = []string{testAuthBody, testMasterBody, master2}
			t1, err := ds.MasterData(ctx)
			So(err, ShouldBeNil)
			So(t1.Has("region", "Nordics"), ShouldBeTrue)

			t2, err := ds.RefreshMasterData(ctx)
			So(err, ShouldBeNil)
			So(t2.Has("region", "DE"), ShouldBeTrue)
			So(t2.Has("region", "Nordics"), ShouldBeFalse)

			t3, err := ds.MasterData(ctx)
			So(err, ShouldBeNil)
			So(t3, ShouldPointTo, t2)
		})

		Convey("a malformed master document is a schema error", func() {
			server.ResponseBody = []string{testAuthBody, `{"scenario": []}`}
			_, err := ds.MasterData(ctx)
			So(err, ShouldHaveSameTypeAs, &SchemaError{})
		})

		Convey("a master response that fails to decode is a schema error", func() {
			server.ResponseBody = []string{testAuthBody, `[1, 2, 3]`}
			_, err := ds.MasterData(ctx)
			So(err, ShouldHaveSameTypeAs, &SchemaError{})
			So(err.Error(), ShouldContainSubstring, "malformed master data response")
		})

		Convey("a data response without the envelope is a parse error", func() {
			server.ResponseBody = []string{
				testAuthBody, testMasterBody, `{"unexpected": true}`}
			_, err := ds.GetData(ctx, "annual", Params{
				{"scenario", "Base"},
				{"region", "Nordics"},
				{"edition", "April 2023"},
			})
			So(err, ShouldHaveSameTypeAs, &ParseError{})
			So(err.Error(), ShouldContainSubstring, "malformed data response")
		})
	})

	Convey("Dataset requires a client in the context", t, func() {
		ds := NewDataset(testConfig())
		_, err := ds.MasterData(context.Background())
		So(err, ShouldNotBeNil)
		_, err = ds.GetData(context.Background(), "annual", nil)
		So(err, ShouldNotBeNil)
	})
}
