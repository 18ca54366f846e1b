package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/breadcrumbs/pkg/breadcrumbs"
	"github.com/vango-dev/breadcrumbs/pkg/router"
)

type crumbJSON struct {
	ID       string `json:"id"`
	Pathname string `json:"pathname"`
}

type errorJSON struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

type viewJSON struct {
	Type       string      `json:"type"`
	Path       string      `json:"path"`
	Crumbs     []crumbJSON `json:"crumbs"`
	Trail      []TrailItem `json:"trail"`
	Loading    bool        `json:"loading"`
	ActivePath *string     `json:"activePath"`
	Error      *errorJSON  `json:"error"`
}

// newTestTable returns a table whose /users/:id crumb is fetched once
// release is closed.
func newTestTable(t *testing.T, release <-chan struct{}) *router.Table[any] {
	t.Helper()
	table := router.NewTable[any]()
	table.MustAdd("/", breadcrumbs.Title[any]("Home"))
	table.MustAdd("/users", breadcrumbs.Title[any]("Users"))
	table.MustAdd("/users/:id", breadcrumbs.HandleFunc[any](func(m breadcrumbs.Match[any], rc any) breadcrumbs.Descriptor[any] {
		id := rc.(router.Params).Get("id")
		return breadcrumbs.Fetch(func(ctx context.Context) (breadcrumbs.Data[any], error) {
			select {
			case <-release:
			case <-ctx.Done():
				return breadcrumbs.Data[any]{}, ctx.Err()
			}
			return breadcrumbs.Raw[any]("User " + id), nil
		})
	}))
	table.MustAdd("/broken", breadcrumbs.Fetch(func(context.Context) (breadcrumbs.Data[any], error) {
		return breadcrumbs.Data[any]{}, fmt.Errorf("backend down")
	}))
	table.MustAdd("/about", breadcrumbs.Path(breadcrumbs.CrumbPath[any]{
		ActivePath: breadcrumbs.ActivePathTo("/"),
		Content: breadcrumbs.List(
			breadcrumbs.CrumbContent[any]{Title: "Company", URL: "/company"},
			breadcrumbs.CrumbContent[any]{Title: "About"},
		),
	}))
	return table
}

func getView(t *testing.T, ts *httptest.Server, path string) (int, viewJSON) {
	t.Helper()
	resp, err := http.Get(ts.URL + "/crumbs?" + url.Values{"path": {path}}.Encode())
	if err != nil {
		t.Fatalf("GET /crumbs error: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var v viewJSON
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return resp.StatusCode, v
}

func pathnames(crumbs []crumbJSON) string {
	var out []string
	for _, c := range crumbs {
		out = append(out, c.Pathname)
	}
	return strings.Join(out, ",")
}

func TestHandleCrumbs(t *testing.T) {
	release := make(chan struct{})
	close(release)
	srv := New(newTestTable(t, release), &Config{SettleTimeout: time.Second})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	status, v := getView(t, ts, "/users/7/")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if v.Path != "/users/7" {
		t.Errorf("path = %q, want /users/7", v.Path)
	}
	if got := pathnames(v.Crumbs); got != "/,/users,/users/7" {
		t.Errorf("crumbs = %s", got)
	}
	if v.Loading {
		t.Error("loading should be false once settled")
	}
	if len(v.Trail) != 3 || v.Trail[2].Title != "User 7" || !v.Trail[2].Last || v.Trail[1].Last {
		t.Errorf("trail = %+v", v.Trail)
	}
	if v.Error != nil {
		t.Errorf("error = %+v, want none", v.Error)
	}
}

func TestHandleCrumbsListContent(t *testing.T) {
	srv := New(newTestTable(t, nil), nil)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	_, v := getView(t, ts, "/about")
	want := []TrailItem{
		{Key: "/", Title: "Home", URL: "/"},
		{Key: "/about-0", Title: "Company", URL: "/company"},
		{Key: "/about-1", Title: "About", Last: true},
	}
	if len(v.Trail) != len(want) {
		t.Fatalf("trail = %+v, want %+v", v.Trail, want)
	}
	for i := range want {
		if v.Trail[i] != want[i] {
			t.Errorf("trail[%d] = %+v, want %+v", i, v.Trail[i], want[i])
		}
	}
	if v.ActivePath == nil || *v.ActivePath != "/" {
		t.Errorf("activePath = %v, want /", v.ActivePath)
	}
}

func TestHandleCrumbsSettleTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	srv := New(newTestTable(t, release), &Config{SettleTimeout: 20 * time.Millisecond})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	status, v := getView(t, ts, "/users/1")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if !v.Loading {
		t.Error("loading should be true when the trail has not settled")
	}
	if len(v.Crumbs) != 0 {
		t.Errorf("crumbs = %v, want none before the fetch settles", v.Crumbs)
	}
}

func TestHandleCrumbsFetchError(t *testing.T) {
	srv := New(newTestTable(t, nil), nil)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	status, v := getView(t, ts, "/broken")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if v.Error == nil || v.Error.Code != "B001" {
		t.Fatalf("error = %+v, want B001", v.Error)
	}
	if v.Loading {
		t.Error("loading should be cleared after a rejected fetch")
	}
}

func TestHandleCrumbsErrors(t *testing.T) {
	srv := New(newTestTable(t, nil), nil)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/nope", http.StatusNotFound, "B022"},
		{"/../etc", http.StatusBadRequest, "B024"},
	}
	for _, tt := range tests {
		status, v := getView(t, ts, tt.path)
		if status != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.path, status, tt.status)
		}
		if v.Error == nil || v.Error.Code != tt.code {
			t.Errorf("%s: error = %+v, want %s", tt.path, v.Error, tt.code)
		}
	}
}

func TestHandleRoutes(t *testing.T) {
	srv := New(newTestTable(t, nil), nil)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/routes")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body struct {
		Routes []router.Route `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Routes) != 5 {
		t.Errorf("routes = %+v, want 5", body.Routes)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := New(newTestTable(t, nil), &Config{Metrics: true, Registry: prometheus.NewRegistry()})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	getView(t, ts, "/users")

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), `crumbs_passes_total{mode="sync"} 1`) {
		t.Errorf("metrics missing crumbs_passes_total:\n%s", body)
	}
}

func TestMetricsDisabled(t *testing.T) {
	srv := New(newTestTable(t, nil), nil)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSameOriginCheck(t *testing.T) {
	tests := []struct {
		origin string
		host   string
		want   bool
	}{
		{"", "example.com", true},
		{"http://example.com", "example.com", true},
		{"http://evil.com", "example.com", false},
		{"http://example.com", "", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/ws", nil)
		r.Host = tt.host
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := SameOriginCheck(r); got != tt.want {
			t.Errorf("SameOriginCheck(origin=%q, host=%q) = %v, want %v", tt.origin, tt.host, got, tt.want)
		}
	}
}
