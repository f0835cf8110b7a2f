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

// Package outlook implements a client for the THEMA customer API serving
// market, technology and hydrogen outlook data.
//
// The client is injected into a context with UseClient, and every parameter
// of a data request is checked against the master data before any request is
// made:
//
//	ctx = outlook.UseClient(ctx, outlook.Config{
//		Username: "user@example.com",
//		Password: password,
//	})
//	d := market.NewDataset()
//	records, err := d.GetHourlyData(ctx, outlook.Params{
//		{Field: "scenario", Value: "Base"},
//		{Field: "region", Value: "Nordics"},
//		{Field: "edition", Value: "September 2022"},
//		{Field: "country", Value: "Norway"},
//		{Field: "zone", Value: "NO2"},
//	})
//
// A single Dataset and its Client serialize their own session state, but the
// request/response model is otherwise synchronous and blocking.
package outlook
