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
	"encoding/json"
	"sort"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
)

// Endpoint describes one data entry point of a dataset family.
type Endpoint struct {
	Path     string   // URL path relative to the base URL, e.g. "hourlyData"
	Shape    Shape    // shape of the response rows
	Required []string // fields which must be present and valid, declared order
	Optional []string // fields checked only when present, declared order
	// EditionScope names the field which scopes edition defaulting ("region"
	// or "country"). When set and the caller leaves edition unspecified, the
	// newest edition for the scope value is filled in before validation.
	EditionScope string
}

// Fields returns the endpoint's accepted fields: required first, then
// optional, in declared order.
func (e Endpoint) Fields() []string {
	return append(append([]string{}, e.Required...), e.Optional...)
}

// MasterDocument is the decoded wire form of a family's master data response.
// Each dataset family defines its own document structure and how it flattens
// into a MasterTable.
type MasterDocument interface {
	// Table converts the document to a master table, or fails with a
	// *SchemaError when the document does not have the expected structure.
	Table(family string) (*MasterTable, error)
}

// DatasetConfig describes one dataset family: where its master data lives,
// how to decode it, and which data endpoints it serves.
type DatasetConfig struct {
	Family            string // e.g. "Market"; used in logs and errors
	MasterPath        string // master data URL path, e.g. "masterdata"
	NewMasterDocument func() MasterDocument
	Endpoints         map[string]Endpoint // by operation name, e.g. "hourly"
}

// Dataset is the generic facade over one dataset family. It caches the master
// table after the first fetch; any number of data requests may follow. There
// is no way back to the uninitialized state, but RefreshMasterData replaces
// the cache with a fresh copy.
//
// A Dataset is not safe for concurrent use; concurrent callers should create
// independent instances or serialize access.
type Dataset struct {
	config DatasetConfig
	master *MasterTable
}

// NewDataset creates an uninitialized dataset facade.
func NewDataset(config DatasetConfig) *Dataset {
	return &Dataset{config: config}
}

// Endpoint returns the named data endpoint of this dataset.
func (d *Dataset) Endpoint(name string) (Endpoint, bool) {
	e, ok := d.config.Endpoints[name]
	return e, ok
}

// Operations returns the sorted operation names served by this dataset.
func (d *Dataset) Operations() []string {
	ops := make([]string, 0, len(d.config.Endpoints))
	for name := range d.config.Endpoints {
		ops = append(ops, name)
	}
	sort.Strings(ops)
	return ops
}

// MasterData returns the master table, fetching it on first use. Data
// requests call it implicitly, so fetching the master data up front is a
// convenience, not a requirement.
func (d *Dataset) MasterData(ctx context.Context) (*MasterTable, error) {
	if d.master != nil {
		return d.master, nil
	}
	return d.RefreshMasterData(ctx)
}

// RefreshMasterData fetches the master data and replaces the cached table.
func (d *Dataset) RefreshMasterData(ctx context.Context) (*MasterTable, error) {
	client := GetClient(ctx)
	if client == nil {
		return nil, errors.Reason("no client in context")
	}
	op := d.config.Family + " master data"
	body, err := client.get(ctx, op, d.config.MasterPath, nil)
	if err != nil {
		return nil, err
	}
	doc := d.config.NewMasterDocument()
	if err := json.Unmarshal(body, doc); err != nil {
		return nil, &SchemaError{Family: d.config.Family,
			Detail: "malformed master data response: " + err.Error()}
	}
	t, err := doc.Table(d.config.Family)
	if err != nil {
		return nil, err
	}
	d.master = t
	logging.Infof(ctx, "%s: loaded master data with %d frames",
		d.config.Family, len(t.Frames))
	return t, nil
}

// defaultEdition fills in the newest edition for the endpoint's scope field
// when the caller left edition unspecified.
func defaultEdition(ctx context.Context, t *MasterTable, e Endpoint, params Params) (Params, error) {
	if e.EditionScope == "" {
		return params, nil
	}
	if v, ok := params.Get("edition"); ok && v != "" {
		return params, nil
	}
	scopeValue, ok := params.Get(e.EditionScope)
	if !ok || scopeValue == "" {
		// Leave it to Validate to report the missing scope field.
		return params, nil
	}
	edition, err := t.NewestEdition(e.EditionScope, scopeValue)
	if err != nil {
		return nil, err
	}
	logging.Infof(ctx, "edition not specified, using the newest for %s %q: %q",
		e.EditionScope, scopeValue, edition)
	return params.With("edition", edition), nil
}

// GetData performs one data request: ensure the master data is loaded,
// default the edition if applicable, validate every parameter, and only then
// fetch and parse the rows. A validation failure returns immediately with no
// request made; a successful call returns all records in response order,
// never a partial result.
func (d *Dataset) GetData(ctx context.Context, operation string, params Params) ([]Record, error) {
	e, ok := d.config.Endpoints[operation]
	if !ok {
		return nil, errors.Reason("%s has no %q data; available: %s",
			d.config.Family, operation, strings.Join(d.Operations(), ", "))
	}
	t, err := d.MasterData(ctx)
	if err != nil {
		return nil, err
	}
	params, err = defaultEdition(ctx, t, e, params)
	if err != nil {
		return nil, err
	}
	if err := Validate(params, t, e.Required, e.Optional); err != nil {
		return nil, err
	}
	q := NewDataQuery(e.Path)
	for _, p := range params {
		q = q.Set(p.Field, p.Value)
	}
	client := GetClient(ctx)
	if client == nil {
		return nil, errors.Reason("no client in context")
	}
	op := d.config.Family + " " + operation + " data"
	body, err := client.get(ctx, op, q.Path(), q.Values())
	if err != nil {
		return nil, err
	}
	var env dataEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &ParseError{Detail: err.Error()}
	}
	records, err := newPage(env).All(e.Shape)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoData
	}
	logging.Infof(ctx, "%s: fetched %d %s records",
		d.config.Family, len(records), operation)
	return records, nil
}
