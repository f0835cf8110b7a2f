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

import "net/url"

// DataQuery is a builder for a single data request. It performs no
// validation; it trusts that its caller has already validated the parameters
// against the master data.
type DataQuery struct {
	path   string // endpoint path relative to the base URL, e.g. "hourlyData"
	params Params
}

// NewDataQuery creates a new query for the given endpoint path.
func NewDataQuery(path string) *DataQuery {
	return &DataQuery{path: path}
}

// Copy creates a deep copy of the query. It is primarily used in its builder
// methods.
func (q *DataQuery) Copy() *DataQuery {
	q2 := DataQuery{path: q.path}
	q2.params = make(Params, len(q.params))
	copy(q2.params, q.params)
	return &q2
}

// Set adds a parameter filter. This and other builder methods always create a
// deep copy of the query, leaving the original intact. Setting an empty value
// removes the field from the outgoing query.
func (q *DataQuery) Set(field, value string) *DataQuery {
	q2 := q.Copy()
	q2.params = q2.params.With(field, value)
	return q2
}

// Path returns the URL path to add to the base URL.
func (q *DataQuery) Path() string {
	return q.path
}

// Values returns the query values for the query. Unspecified and empty fields
// are omitted rather than sent as empty strings, which the server reads as
// "match everything" for that field. Each call creates a new object, so the
// caller is free to modify it without affecting the query.
func (q *DataQuery) Values() url.Values {
	v := make(url.Values)
	for _, p := range q.params {
		if p.Value == "" {
			continue
		}
		v[p.Field] = []string{p.Value}
	}
	return v
}
