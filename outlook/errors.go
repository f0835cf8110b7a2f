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
	"fmt"
	"strings"

	"github.com/stockparfait/errors"
)

// ErrNoData is returned by data requests which validated and completed
// successfully but matched no rows on the server.
var ErrNoData = errors.Reason("the API returned no data")

// AuthError indicates that the API rejected the configured credentials. It is
// fatal: the client never retries authentication.
type AuthError struct {
	Status int // HTTP status of the token exchange, normally 401
}

func (e *AuthError) Error() string {
	return fmt.Sprintf(
		"the given combination of username and password has no access (HTTP %d)",
		e.Status)
}

// TransportError indicates a network or HTTP-layer failure. The retry policy
// is owned by the caller.
type TransportError struct {
	Op     string // which API call failed, e.g. "master data"
	Status int    // HTTP status, 0 when the request never completed
	Err    error  // underlying error, may be nil
}

func (e *TransportError) Error() string {
	msg := "failed to fetch " + e.Op
	if e.Status != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError indicates that a supplied parameter does not agree with the
// master data. It is always raised locally, before any data request is made.
type ValidationError struct {
	Field   string
	Value   string
	Allowed []string // legal values of Field in the master data
	Missing bool     // a required field is absent or empty
	Unknown bool     // the field is not accepted by the endpoint
}

func (e *ValidationError) Error() string {
	if e.Missing {
		return fmt.Sprintf("missing a value for the required parameter %q", e.Field)
	}
	if e.Unknown {
		return fmt.Sprintf("parameter %q is not accepted by this endpoint", e.Field)
	}
	return fmt.Sprintf("parameter %q: value %q is not in the master data; allowed values: %s",
		e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// SchemaError indicates that a master data response does not have the
// expected document structure, usually a sign of vendor contract drift.
type SchemaError struct {
	Family string // dataset family whose master data failed to parse
	Detail string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("unexpected %s master data schema: %s", e.Family, e.Detail)
}

// ParseError indicates that a data response does not match the expected
// shape, either the envelope as a whole or a single row's column.
type ParseError struct {
	Column string // empty when the envelope itself failed to decode
	Detail string
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return "malformed data response: " + e.Detail
	}
	return fmt.Sprintf("bad response row: column %q %s", e.Column, e.Detail)
}
