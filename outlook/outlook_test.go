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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stockparfait/fetch"
	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClient(t *testing.T) {
	t.Parallel()

	Convey("UseClient injects a client into the context", t, func() {
		ctx := UseClient(context.Background(), Config{Username: "u", Password: "p"})
		c := GetClient(ctx)
		So(c, ShouldNotBeNil)
		So(c.baseURL, ShouldEqual, URL)
		So(GetClient(context.Background()), ShouldBeNil)
	})

	Convey("Client authorization works correctly", t, func() {
		server := testutil.NewTestServer()
		defer server.Close()

		ctx := UseClient(context.Background(), Config{
			URL:       server.URL(),
			Username:  "user",
			Password:  "secret",
			Transport: server.Client(),
		})
		c := GetClient(ctx)
		now := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
		c.now = func() time.Time { return now }

		Convey("exchanges the credentials for a bearer token", func() {
			server.ResponseBody = []string{`{"jwt": "token-one"}`}
			h, err := c.authorize(ctx)
			So(err, ShouldBeNil)
			So(h.Get("Authorization"), ShouldEqual, "Bearer token-one")
			So(server.RequestPath, ShouldEqual, "/authenticate")
		})

		Convey("reuses the token until shortly before expiry", func() {
			server.ResponseBody = []string{`{"jwt": "token-one"}`, `{"jwt": "token-two"}`}
			_, err := c.authorize(ctx)
			So(err, ShouldBeNil)

			now = now.Add(9 * time.Minute)
			h, err := c.authorize(ctx)
			So(err, ShouldBeNil)
			So(h.Get("Authorization"), ShouldEqual, "Bearer token-one")

			now = now.Add(time.Minute)
			h, err = c.authorize(ctx)
			So(err, ShouldBeNil)
			So(h.Get("Authorization"), ShouldEqual, "Bearer token-two")
		})

		Convey("a token response without a jwt is an authorization failure", func() {
			server.ResponseBody = []string{`{"jwt": ""}`}
			_, err := c.authorize(ctx)
			So(err, ShouldHaveSameTypeAs, &AuthError{})
		})
	})

	Convey("Authorized data requests", t, func() {
		var authHeader string
		var dataCalls int
		var dataStatus []int
		srv := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/authenticate":
					w.Write([]byte(`{"jwt": "data-token"}`))
				case "/data":
					authHeader = r.Header.Get("Authorization")
					dataCalls++
					status := http.StatusOK
					if len(dataStatus) > 0 {
						status = dataStatus[0]
						dataStatus = dataStatus[1:]
					}
					w.WriteHeader(status)
					if status == http.StatusOK {
						w.Write([]byte(`[{"data": []}]`))
					}
				}
			}))
		defer srv.Close()

		config := Config{
			URL:       srv.URL,
			Username:  "user",
			Password:  "secret",
			Transport: srv.Client(),
		}

		Convey("carry the bearer token and return the raw body", func() {
			ctx := UseClient(context.Background(), config)
			body, err := GetClient(ctx).get(ctx, "test", "data", nil)
			So(err, ShouldBeNil)
			So(string(body), ShouldEqual, `[{"data": []}]`)
			So(authHeader, ShouldEqual, "Bearer data-token")
		})

		Convey("fail on a transient error without a retry policy", func() {
			dataStatus = []int{http.StatusServiceUnavailable}
			ctx := UseClient(context.Background(), config)
			_, err := GetClient(ctx).get(ctx, "test", "data", nil)
			So(err, ShouldHaveSameTypeAs, &TransportError{})
			So(err.(*TransportError).Status, ShouldEqual, http.StatusServiceUnavailable)
			So(dataCalls, ShouldEqual, 1)
		})

		Convey("retry a transient error when configured", func() {
			dataStatus = []int{http.StatusServiceUnavailable}
			config.Retry = fetch.NewParams().Retries(1).MinWait(time.Millisecond)
			ctx := UseClient(context.Background(), config)
			body, err := GetClient(ctx).get(ctx, "test", "data", nil)
			So(err, ShouldBeNil)
			So(string(body), ShouldEqual, `[{"data": []}]`)
			So(dataCalls, ShouldEqual, 2)
		})
	})

	Convey("Rejected credentials are a fatal AuthError", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
			}))
		defer srv.Close()

		ctx := UseClient(context.Background(), Config{
			URL:       srv.URL,
			Username:  "user",
			Password:  "wrong",
			Transport: srv.Client(),
		})
		_, err := GetClient(ctx).authorize(ctx)
		So(err, ShouldHaveSameTypeAs, &AuthError{})
		So(err.(*AuthError).Status, ShouldEqual, http.StatusUnauthorized)
	})

	Convey("A server failure during authorization is a TransportError", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
			}))
		defer srv.Close()

		ctx := UseClient(context.Background(), Config{
			URL:       srv.URL,
			Username:  "user",
			Password:  "secret",
			Transport: srv.Client(),
		})
		_, err := GetClient(ctx).authorize(ctx)
		So(err, ShouldHaveSameTypeAs, &TransportError{})
		So(err.(*TransportError).Status, ShouldEqual, http.StatusServiceUnavailable)
	})
}
