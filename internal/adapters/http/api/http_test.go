package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/okian/tradeflow/internal/adapters/comtrade"
	"github.com/okian/tradeflow/internal/adapters/http/api"
	service "github.com/okian/tradeflow/internal/app"
	"github.com/okian/tradeflow/internal/domain/model"
	"github.com/okian/tradeflow/internal/domain/panel"
	"github.com/okian/tradeflow/internal/domain/reference"
	"github.com/okian/tradeflow/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type mockDeps struct {
	mu       sync.Mutex
	panelErr map[panel.Name]error
	filters  []model.Filters
	canceled int
	stats    service.Stats
}

func (m *mockDeps) Panel(_ context.Context, name panel.Name, f model.Filters) (panel.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, f)
	if err := m.panelErr[name]; err != nil {
		return panel.Result{}, err
	}
	if !slices.Contains(panel.Names, name) {
		return panel.Result{}, panel.ErrUnknownPanel
	}
	return panel.Result{Panel: name, Title: "title of " + string(name)}, nil
}

func (m *mockDeps) Reference(table reference.Table) []reference.Entry {
	if table == reference.TableReporters {
		return []reference.Entry{{ID: "76", Text: "Brazil"}}
	}
	return []reference.Entry{}
}

func (m *mockDeps) Cancel(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canceled, nil
}

func (m *mockDeps) Stats(_ context.Context) service.Stats { return m.stats }

func newTestMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body
}

func TestPanelEndpoint(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDeps{panelErr: map[panel.Name]error{}}
		mux := newTestMux(deps)

		Convey("When a panel is requested with filters", func() {
			w := do(mux, http.MethodGet, "/panels/infobox?reporter=76&partner=all&year=2012&flow=2")

			Convey("Then the filters reach the service with three-state dims", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
				So(deps.filters, ShouldHaveLength, 1)
				f := deps.filters[0]
				So(f.Reporter.Is("76"), ShouldBeTrue)
				So(f.Partner.IsAll(), ShouldBeTrue)
				So(f.Commodity.IsSet(), ShouldBeFalse)
				So(f.Flow, ShouldEqual, model.FlowExports)

				var res panel.Result
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.Panel, ShouldEqual, panel.InfoBox)
			})
		})

		Convey("When the flow is invalid", func() {
			w := do(mux, http.MethodGet, "/panels/infobox?reporter=76&flow=7")

			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, "bad_request")
			So(deps.filters, ShouldBeEmpty)
		})

		Convey("When the panel is unknown", func() {
			w := do(mux, http.MethodGet, "/panels/map?reporter=76")

			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w)["code"], ShouldEqual, "not_found")
		})

		Convey("When the path has no panel name", func() {
			w := do(mux, http.MethodGet, "/panels/")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the method is not GET", func() {
			w := do(mux, http.MethodPost, "/panels/infobox")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("When the upstream fails", func() {
			cases := []struct {
				err    error
				status int
				code   string
			}{
				{&comtrade.StatusError{Code: 500}, http.StatusBadGateway, "upstream_error"},
				{fmt.Errorf("%w: r=76", service.ErrConflictRetry), http.StatusBadGateway, "upstream_error"},
				{service.ErrPanelTimeout, http.StatusGatewayTimeout, "upstream_timeout"},
				{comtrade.ErrTimeout, http.StatusGatewayTimeout, "upstream_timeout"},
				{comtrade.ErrCanceled, http.StatusServiceUnavailable, "canceled"},
				{service.ErrNotStarted, http.StatusServiceUnavailable, "unavailable"},
				{service.ErrEnqueue, http.StatusTooManyRequests, "busy"},
				{fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
			}
			for _, tc := range cases {
				deps.panelErr[panel.InfoBox] = tc.err
				w := do(mux, http.MethodGet, "/panels/infobox?reporter=76")

				So(w.Code, ShouldEqual, tc.status)
				body := decodeError(w)
				So(body["code"], ShouldEqual, tc.code)
				So(body["message"], ShouldEqual, tc.err.Error())
			}
		})
	})
}

func TestPanelsEndpoint(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDeps{panelErr: map[panel.Name]error{}}
		mux := newTestMux(deps)

		Convey("When every panel is requested", func() {
			w := do(mux, http.MethodGet, "/panels?reporter=76&year=2012")

			Convey("Then the results come back in display order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var results []panel.Result
				So(json.Unmarshal(w.Body.Bytes(), &results), ShouldBeNil)
				So(results, ShouldHaveLength, len(panel.Names))
				for i, name := range panel.Names {
					So(results[i].Panel, ShouldEqual, name)
				}
			})
		})

		Convey("When one panel fails", func() {
			deps.panelErr[panel.YearChart] = comtrade.ErrTimeout
			w := do(mux, http.MethodGet, "/panels?reporter=76")

			So(w.Code, ShouldEqual, http.StatusGatewayTimeout)
		})
	})
}

func TestReferenceEndpoint(t *testing.T) {
	Convey("Given an API server", t, func() {
		mux := newTestMux(&mockDeps{})

		Convey("When the reporter list is requested", func() {
			w := do(mux, http.MethodGet, "/reference/reporters")

			So(w.Code, ShouldEqual, http.StatusOK)
			var entries []reference.Entry
			So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
			So(entries, ShouldResemble, []reference.Entry{{ID: "76", Text: "Brazil"}})
		})

		Convey("When an unknown table is requested", func() {
			w := do(mux, http.MethodGet, "/reference/isoCodes")

			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w)["message"], ShouldContainSubstring, "isoCodes")
		})
	})
}

func TestControlEndpoints(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDeps{
			canceled: 2,
			stats:    service.Stats{Started: true, Facts: 12, Throttler: service.ThrottlerStats{History: 3}},
		}
		mux := newTestMux(deps)

		Convey("When cancel is posted", func() {
			w := do(mux, http.MethodPost, "/cancel")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"aborted":2`)
		})

		Convey("When cancel is fetched with GET", func() {
			w := do(mux, http.MethodGet, "/cancel")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("When stats are requested", func() {
			w := do(mux, http.MethodGet, "/stats")

			So(w.Code, ShouldEqual, http.StatusOK)
			var st service.Stats
			So(json.Unmarshal(w.Body.Bytes(), &st), ShouldBeNil)
			So(st.Facts, ShouldEqual, 12)
			So(st.Throttler.History, ShouldEqual, 3)
		})

		Convey("When health is requested", func() {
			w := do(mux, http.MethodGet, "/healthz")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("When metrics are scraped after a request", func() {
			_ = do(mux, http.MethodGet, "/stats")
			w := do(mux, http.MethodGet, "/metrics")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
		})
	})
}

func TestParseFilters(t *testing.T) {
	Convey("Given query parameters", t, func() {
		Convey("Empty parameters are unselected", func() {
			f, err := api.ParseFilters(url.Values{"partner": {""}, "year": {" "}})
			So(err, ShouldBeNil)
			So(f.Partner.IsSet(), ShouldBeFalse)
			So(f.Year.IsSet(), ShouldBeFalse)
			So(f.Flow, ShouldEqual, model.FlowAll)
		})

		Convey("Flow zero means both flows", func() {
			f, err := api.ParseFilters(url.Values{"flow": {"0"}})
			So(err, ShouldBeNil)
			So(f.Flow, ShouldEqual, model.FlowAll)
		})

		Convey("A non-numeric flow is rejected", func() {
			_, err := api.ParseFilters(url.Values{"flow": {"imports"}})
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		})
	})
}
