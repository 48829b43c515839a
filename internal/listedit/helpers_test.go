package listedit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ehr/praxis/internal/platform/apiclient"
	"github.com/ehr/praxis/pkg/pagination"
)

// ---------------------------------------------------------------------------
// Recording HTTP fake
// ---------------------------------------------------------------------------

type call struct {
	Method      string
	Path        string
	Query       string
	ContentType string
	Body        map[string]any
}

func (c call) String() string { return c.Method + " " + c.Path }

type reply struct {
	Status int
	Body   string
}

type fakeAPI struct {
	t      *testing.T
	mu     sync.Mutex
	calls  []call
	routes map[string]reply
	srv    *httptest.Server
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{t: t, routes: map[string]reply{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

// on registers the reply for "METHOD /path".
func (f *fakeAPI) on(route string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[route] = reply{Status: status, Body: body}
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	c := call{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, ContentType: r.Header.Get("Content-Type")}
	if strings.HasPrefix(c.ContentType, "application/json") {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &c.Body)
	}

	f.mu.Lock()
	f.calls = append(f.calls, c)
	rep, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"no route"}`))
		return
	}
	if rep.Status == http.StatusNoContent {
		w.WriteHeader(rep.Status)
		return
	}
	w.WriteHeader(rep.Status)
	_, _ = w.Write([]byte(rep.Body))
}

func (f *fakeAPI) client() *apiclient.Client {
	f.t.Helper()
	c, err := apiclient.New(f.srv.URL)
	if err != nil {
		f.t.Fatalf("new client: %v", err)
	}
	return c
}

func (f *fakeAPI) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]call, len(f.calls))
	copy(out, f.calls)
	return out
}

// since returns the calls recorded after the first n.
func (f *fakeAPI) since(n int) []call {
	all := f.recorded()
	if n > len(all) {
		return nil
	}
	return all[n:]
}

func routesOf(calls []call) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

func assertRoutes(t *testing.T, got []call, want ...string) {
	t.Helper()
	gotRoutes := routesOf(got)
	if len(gotRoutes) != len(want) {
		t.Fatalf("expected requests %v, got %v", want, gotRoutes)
	}
	for i := range want {
		if gotRoutes[i] != want[i] {
			t.Fatalf("expected requests %v, got %v", want, gotRoutes)
		}
	}
}

// ---------------------------------------------------------------------------
// In-process backend for ordering and concurrency tests
// ---------------------------------------------------------------------------

type stubBackend struct {
	list   func(ctx context.Context, resource string, q pagination.Query) (*pagination.Page[map[string]any], error)
	get    func(ctx context.Context, resource, id string) (map[string]any, error)
	create func(ctx context.Context, resource string, payload any) (map[string]any, error)
}

func (s *stubBackend) List(ctx context.Context, resource string, q pagination.Query) (*pagination.Page[map[string]any], error) {
	if s.list == nil {
		return &pagination.Page[map[string]any]{}, nil
	}
	return s.list(ctx, resource, q)
}

func (s *stubBackend) Get(ctx context.Context, resource, id string) (map[string]any, error) {
	if s.get == nil {
		return nil, &apiclient.Error{Kind: apiclient.KindNotFound, Status: 404}
	}
	return s.get(ctx, resource, id)
}

func (s *stubBackend) Create(ctx context.Context, resource string, payload any) (map[string]any, error) {
	if s.create == nil {
		return map[string]any{}, nil
	}
	return s.create(ctx, resource, payload)
}

func (s *stubBackend) Update(context.Context, string, string, any) (map[string]any, error) {
	return map[string]any{}, nil
}

func (s *stubBackend) Delete(context.Context, string, string) error { return nil }

func (s *stubBackend) Action(context.Context, string, string, string, any) (map[string]any, error) {
	return map[string]any{}, nil
}

func (s *stubBackend) Upload(context.Context, string, apiclient.FilePart, map[string]string) (map[string]any, error) {
	return map[string]any{}, nil
}

func pageOf(items ...map[string]any) *pagination.Page[map[string]any] {
	return &pagination.Page[map[string]any]{Items: items, Meta: pagination.Meta{Total: len(items), Page: 1, Limit: 10}}
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func clinicHoursResource() *Resource {
	return &Resource{
		Path:  "clinic-hours",
		Title: "Clinic hours",
		Fields: []Field{
			{Name: "name", Label: "Name", Kind: KindText, Required: true, Rules: "max=40", Column: true},
			{Name: "rrule", Label: "Recurrence", Kind: KindText, Required: true, Column: true},
			{Name: "capacity", Kind: KindNumber, Rules: "gte=0"},
			{Name: "createdAt", ReadOnly: true},
		},
		Defaults:     Record{"name": "", "rrule": "FREQ=WEEKLY;BYDAY=MO", "capacity": float64(1)},
		UniqueFields: []string{"name"},
		Actions: []Action{
			{Name: "approve", Label: "Approve"},
			{Name: "regenerate-api-key", Label: "Regenerate API key", Confirm: true},
		},
		Upload:     true,
		References: []string{"service-categories"},
	}
}

func workShiftsResource() *Resource {
	return &Resource{
		Path:  "work-shifts",
		Title: "Work shift",
		Fields: []Field{
			{Name: "staff", Required: true},
			{Name: "date", Kind: KindDate, Required: true},
		},
	}
}

const emptyList = `{"success":true,"data":{"data":[],"pagination":{"total":0,"page":1,"limit":10}}}`

func yes() Confirmer {
	return ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })
}

func no() Confirmer {
	return ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })
}
