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

import "strings"

// Param is a single named query parameter.
type Param struct {
	Field string
	Value string
}

// Params is an ordered set of query parameters for one data request. An
// optional field that the caller does not want to filter on is simply left
// out; it is never sent as an empty string.
type Params []Param

// Get returns the value of the first parameter with the given field name.
func (p Params) Get(field string) (string, bool) {
	for _, param := range p {
		if param.Field == field {
			return param.Value, true
		}
	}
	return "", false
}

// With returns a copy of the parameters with field set to value, replacing an
// existing value of the same field. The original is left intact.
func (p Params) With(field, value string) Params {
	p2 := make(Params, len(p))
	copy(p2, p)
	for i := range p2 {
		if p2[i].Field == field {
			p2[i].Value = value
			return p2
		}
	}
	return append(p2, Param{Field: field, Value: value})
}

// String formats the parameters as "field=value field=value", mostly for logs
// and error messages.
func (p Params) String() string {
	var sb strings.Builder
	for i, param := range p {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(param.Field + "=" + param.Value)
	}
	return sb.String()
}

func stringIn(s string, values []string) bool {
	for _, v := range values {
		if s == v {
			return true
		}
	}
	return false
}

// Validate checks the parameters of one data request against the master
// table. Each required field must be present with a value appearing in the
// table's column of the same name; an optional field is checked the same way
// only when present. Fields are checked in declared order and the first
// offender is reported; nothing is partially valid. The check is a pure
// function, no request is made.
//
// Matching is a case-sensitive exact match with no whitespace trimming: the
// server matches parameter values verbatim, and normalizing here would accept
// requests the server rejects.
func Validate(params Params, t *MasterTable, required, optional []string) error {
	for _, field := range required {
		value, ok := params.Get(field)
		if !ok || value == "" {
			return &ValidationError{Field: field, Missing: true}
		}
		if !t.Has(field, value) {
			return &ValidationError{Field: field, Value: value, Allowed: t.Column(field)}
		}
	}
	for _, field := range optional {
		value, ok := params.Get(field)
		if !ok || value == "" {
			continue
		}
		if !t.Has(field, value) {
			return &ValidationError{Field: field, Value: value, Allowed: t.Column(field)}
		}
	}
	for _, param := range params {
		if !stringIn(param.Field, required) && !stringIn(param.Field, optional) {
			return &ValidationError{Field: param.Field, Unknown: true}
		}
	}
	return nil
}
