package checker

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a configurable stand-in for the status service.
type fakeAPI struct {
	greeting      string
	omitField     string
	echoName      string
	invalidStatus int
	noCORS        bool
	dropFromList  bool
	rootBody      string
	encoding      string

	mu      sync.Mutex
	records []map[string]any
	nextID  int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{greeting: "Hello World", invalidStatus: http.StatusUnprocessableEntity}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	switch {
	case path == "/" && r.Method == http.MethodGet:
		if f.rootBody != "" {
			f.write(w, http.StatusOK, []byte(f.rootBody))
			return
		}
		f.writeJSON(w, http.StatusOK, map[string]string{"message": f.greeting})
	case path == "/status" && r.Method == http.MethodOptions:
		if f.noCORS {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST")
		w.WriteHeader(http.StatusNoContent)
	case path == "/status" && r.Method == http.MethodPost:
		f.create(w, r)
	case path == "/status" && r.Method == http.MethodGet:
		f.mu.Lock()
		items := []map[string]any{}
		if !f.dropFromList {
			for i := len(f.records) - 1; i >= 0; i-- {
				items = append(items, f.records[i])
			}
		}
		f.mu.Unlock()
		f.writeJSON(w, http.StatusOK, items)
	default:
		f.writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
	}
}

func (f *fakeAPI) create(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		f.writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "bad json"})
		return
	}
	name, ok := body["client_name"].(string)
	if !ok {
		f.writeJSON(w, f.invalidStatus, map[string]string{"detail": "client_name required"})
		return
	}
	if f.echoName != "" {
		name = f.echoName
	}

	f.mu.Lock()
	f.nextID++
	rec := map[string]any{
		"id":          fmt.Sprintf("rec-%d", f.nextID),
		"client_name": name,
		"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
	}
	delete(rec, f.omitField)
	f.records = append(f.records, rec)
	f.mu.Unlock()

	f.writeJSON(w, http.StatusOK, rec)
}

func (f *fakeAPI) writeJSON(w http.ResponseWriter, status int, v any) {
	raw, _ := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	f.write(w, status, raw)
}

func (f *fakeAPI) write(w http.ResponseWriter, status int, raw []byte) {
	if f.encoding != "" {
		raw = compress(f.encoding, raw)
		w.Header().Set("Content-Encoding", f.encoding)
	}
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

func compress(encoding string, raw []byte) []byte {
	var buf bytes.Buffer
	var wc io.WriteCloser
	switch encoding {
	case "gzip":
		wc = gzip.NewWriter(&buf)
	case "deflate":
		wc = zlib.NewWriter(&buf)
	case "br":
		wc = brotli.NewWriter(&buf)
	default:
		return raw
	}
	_, _ = wc.Write(raw)
	_ = wc.Close()
	return buf.Bytes()
}

func testOptions(baseURL string) Options {
	return Options{
		BaseURL:               baseURL,
		Greeting:              "Hello World",
		RequiredFields:        []string{"id", "client_name", "timestamp"},
		ClientName:            "test_client_backend_api",
		PersistenceClientName: "mongodb_test_client",
		Origin:                "https://example.com",
	}
}

func runAgainst(t *testing.T, api http.Handler, mutate ...func(*Options)) *Report {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	opts := testOptions(srv.URL + "/api")
	for _, m := range mutate {
		m(&opts)
	}
	c, err := New(srv.Client(), opts, nil)
	require.NoError(t, err)
	return c.Run(context.Background())
}

func passPattern(r *Report) map[string]bool {
	out := make(map[string]bool, len(r.Results))
	for _, res := range r.Results {
		out[res.Name] = res.Passed
	}
	return out
}

func TestRun_HealthyAPI(t *testing.T) {
	report := runAgainst(t, newFakeAPI())

	require.Len(t, report.Results, 6)
	var names []string
	for _, res := range report.Results {
		names = append(names, res.Name)
		assert.True(t, res.Passed, "%s: %s", res.Name, res.Detail)
	}
	assert.Equal(t, Names(), names)
	assert.True(t, report.AllPassed())
	assert.Equal(t, 0, report.ExitCode())
	assert.Empty(t, report.Failed())

	created, ok := report.Get(CheckCreate)
	require.True(t, ok)
	assert.Equal(t, "rec-1", created.ID)

	persisted, ok := report.Get(CheckPersistence)
	require.True(t, ok)
	assert.Equal(t, "rec-2", persisted.ID)
}

func TestRun_WrongGreeting(t *testing.T) {
	api := newFakeAPI()
	api.greeting = "Hello Moon"

	report := runAgainst(t, api)

	root, _ := report.Get(CheckRoot)
	assert.False(t, root.Passed)
	assert.Equal(t, KindMismatch, root.Kind)
	assert.Len(t, report.Failed(), 1, "only the root check is affected")
	assert.Equal(t, 1, report.ExitCode())
}

func TestRun_RootNotJSON(t *testing.T) {
	api := newFakeAPI()
	api.rootBody = "<html>hello</html>"

	report := runAgainst(t, api)

	root, _ := report.Get(CheckRoot)
	assert.False(t, root.Passed)
	assert.Equal(t, KindDecode, root.Kind)
}

func TestRun_MissingTimestamp(t *testing.T) {
	api := newFakeAPI()
	api.omitField = "timestamp"

	report := runAgainst(t, api)

	created, _ := report.Get(CheckCreate)
	assert.False(t, created.Passed)
	assert.Equal(t, KindField, created.Kind)
	assert.Contains(t, created.Detail, "timestamp")

	list, _ := report.Get(CheckList)
	assert.False(t, list.Passed, "listed records lack the field too")

	pattern := passPattern(report)
	assert.True(t, pattern[CheckRoot])
	assert.True(t, pattern[CheckCORS])
	assert.True(t, pattern[CheckErrorHandling])
	assert.True(t, pattern[CheckPersistence], "persistence only needs the id")
}

func TestRun_ClientNameNotEchoed(t *testing.T) {
	api := newFakeAPI()
	api.echoName = "someone_else"

	report := runAgainst(t, api)

	created, _ := report.Get(CheckCreate)
	assert.False(t, created.Passed)
	assert.Equal(t, KindMismatch, created.Kind)
}

func TestRun_CreateWithCustomName(t *testing.T) {
	report := runAgainst(t, newFakeAPI(), func(o *Options) { o.ClientName = "x" })

	created, _ := report.Get(CheckCreate)
	assert.True(t, created.Passed, created.Detail)
}

func TestRun_ErrorHandlingStatus(t *testing.T) {
	tests := []struct {
		status int
		pass   bool
	}{
		{http.StatusBadRequest, true},
		{http.StatusUnprocessableEntity, true},
		{http.StatusOK, false},
		{http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			api := newFakeAPI()
			api.invalidStatus = tt.status

			report := runAgainst(t, api, func(o *Options) { o.Checks = []string{CheckErrorHandling} })

			require.Len(t, report.Results, 1)
			res := report.Results[0]
			assert.Equal(t, tt.pass, res.Passed, res.Detail)
			if !tt.pass {
				assert.Equal(t, KindStatus, res.Kind)
			}
		})
	}
}

func TestRun_NoCORS(t *testing.T) {
	api := newFakeAPI()
	api.noCORS = true

	report := runAgainst(t, api)

	cors, _ := report.Get(CheckCORS)
	assert.False(t, cors.Passed)
	assert.Equal(t, KindHeader, cors.Kind)
	assert.Len(t, report.Failed(), 1)
}

func TestRun_NotPersisted(t *testing.T) {
	api := newFakeAPI()
	api.dropFromList = true

	report := runAgainst(t, api)

	list, _ := report.Get(CheckList)
	assert.True(t, list.Passed, "an empty list is valid")

	persisted, _ := report.Get(CheckPersistence)
	assert.False(t, persisted.Passed)
	assert.Equal(t, KindMismatch, persisted.Kind)
	assert.NotEmpty(t, persisted.ID)
}

func TestRun_ListNotArray(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"items": []}`)
	})

	report := runAgainst(t, mux, func(o *Options) { o.Checks = []string{CheckList} })

	require.Len(t, report.Results, 1)
	assert.False(t, report.Results[0].Passed)
	assert.Equal(t, KindDecode, report.Results[0].Kind)
	assert.Contains(t, report.Results[0].Detail, "array")
}

func TestRun_Unreachable(t *testing.T) {
	srv := httptest.NewServer(newFakeAPI())
	baseURL := srv.URL + "/api"
	srv.Close()

	c, err := New(&http.Client{Timeout: 2 * time.Second}, testOptions(baseURL), nil)
	require.NoError(t, err)

	report := c.Run(context.Background())
	require.Len(t, report.Results, 6, "every check still runs")
	for _, res := range report.Results {
		assert.False(t, res.Passed, res.Name)
		assert.Equal(t, KindNetwork, res.Kind, res.Name)
	}
	assert.Equal(t, 1, report.ExitCode())
}

func TestRun_Canceled(t *testing.T) {
	srv := httptest.NewServer(newFakeAPI())
	t.Cleanup(srv.Close)

	c, err := New(srv.Client(), testOptions(srv.URL+"/api"), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := c.Run(ctx)
	require.Len(t, report.Results, 6)
	for _, res := range report.Results {
		assert.Equal(t, KindCanceled, res.Kind, res.Name)
	}
}

func TestRun_Idempotent(t *testing.T) {
	srv := httptest.NewServer(newFakeAPI())
	t.Cleanup(srv.Close)

	c, err := New(srv.Client(), testOptions(srv.URL+"/api"), nil)
	require.NoError(t, err)

	first := c.Run(context.Background())
	second := c.Run(context.Background())
	assert.Equal(t, passPattern(first), passPattern(second))
	assert.True(t, second.AllPassed())
}

func TestRun_CompressedBodies(t *testing.T) {
	for _, enc := range []string{"gzip", "deflate", "br"} {
		t.Run(enc, func(t *testing.T) {
			api := newFakeAPI()
			api.encoding = enc

			report := runAgainst(t, api)
			for _, res := range report.Results {
				assert.True(t, res.Passed, "%s: %s", res.Name, res.Detail)
			}
		})
	}
}

func TestRun_TrailingSlashBaseURL(t *testing.T) {
	report := runAgainst(t, newFakeAPI(), func(o *Options) { o.BaseURL += "/" })
	assert.True(t, report.AllPassed())
}

func TestSelect(t *testing.T) {
	all, err := Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	sel, err := Select([]string{CheckPersistence, CheckRoot})
	require.NoError(t, err)
	require.Len(t, sel, 2)
	assert.Equal(t, CheckRoot, sel[0].Name, "execution order is fixed")
	assert.Equal(t, CheckPersistence, sel[1].Name)

	_, err = Select([]string{"root_endpoint", "fuzz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fuzz")
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"empty base url", func(o *Options) { o.BaseURL = "" }},
		{"relative base url", func(o *Options) { o.BaseURL = "/api" }},
		{"no required fields", func(o *Options) { o.RequiredFields = nil }},
		{"empty client name", func(o *Options) { o.ClientName = "" }},
		{"unknown check", func(o *Options) { o.Checks = []string{"nope"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions("http://localhost:8080/api")
			tt.mutate(&opts)
			_, err := New(nil, opts, nil)
			assert.Error(t, err)
		})
	}
}

func TestDecodeBody(t *testing.T) {
	raw := []byte(`{"message":"Hello World"}`)

	for _, enc := range []string{"gzip", "deflate", "br"} {
		got, err := decodeBody(enc, compress(enc, raw))
		require.NoError(t, err, enc)
		assert.Equal(t, raw, got, enc)
	}

	got, err := decodeBody("", raw)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = decodeBody("zstd", raw)
	assert.Error(t, err)

	_, err = decodeBody("gzip", raw)
	assert.Error(t, err, "not actually gzip")
}

func TestFailureError(t *testing.T) {
	f := &Failure{Kind: KindNetwork, Message: "GET / failed", Err: io.ErrUnexpectedEOF}
	assert.Equal(t, "network: GET / failed: unexpected EOF", f.Error())
	assert.ErrorIs(t, f, io.ErrUnexpectedEOF)

	res := newResult("x", "", "", f, 0)
	assert.False(t, res.Passed)
	assert.Equal(t, "GET / failed: unexpected EOF", res.Detail)
}

func TestRun_SendsAPIKey(t *testing.T) {
	api := newFakeAPI()
	var mu sync.Mutex
	var seen []string
	wrapped := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		api.ServeHTTP(w, r)
	})

	report := runAgainst(t, wrapped, func(o *Options) { o.APIKey = "s3cret" })
	assert.True(t, report.AllPassed())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	for _, h := range seen {
		assert.Equal(t, "Bearer s3cret", h)
	}
}

// persistenceAPI answers the persistence round-trip with fixed bodies.
func persistenceAPI(created, listed string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, created)
	})
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, listed)
	})
	return mux
}

func TestRun_PersistenceIDMatching(t *testing.T) {
	tests := []struct {
		name     string
		created  string
		listed   string
		passed   bool
		wantKind Kind
	}{
		{"string id listed", `{"id":"abc"}`, `[{"id":"x"},{"id":"abc"}]`, true, KindNone},
		{"numeric id listed", `{"id":42}`, `[{"id":42}]`, true, KindNone},
		{"null id", `{"id":null}`, `[{"client_name":"someone_else"}]`, false, KindField},
		{"empty id", `{"id":""}`, `[{"id":""}]`, false, KindField},
		{"missing id", `{"client_name":"mongodb_test_client"}`, `[]`, false, KindField},
		{"listed item without id", `{"id":"abc"}`, `[{"client_name":"someone_else"},{"id":"abc"}]`, false, KindField},
		{"number does not match string", `{"id":42}`, `[{"id":"42"}]`, false, KindMismatch},
		{"string does not match number", `{"id":"42"}`, `[{"id":42}]`, false, KindMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := runAgainst(t, persistenceAPI(tt.created, tt.listed), func(o *Options) {
				o.Checks = []string{CheckPersistence}
			})

			require.Len(t, report.Results, 1)
			res := report.Results[0]
			assert.Equal(t, tt.passed, res.Passed, res.Detail)
			assert.Equal(t, tt.wantKind, res.Kind)
		})
	}
}

func TestRun_CreateRequiresClientNameEcho(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind Kind
	}{
		{"missing", `{"id":"abc","timestamp":"2026-10-17T09:00:00Z"}`, KindField},
		{"not a string", `{"id":"abc","client_name":7,"timestamp":"2026-10-17T09:00:00Z"}`, KindMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := runAgainst(t, persistenceAPI(tt.body, `[]`), func(o *Options) {
				o.RequiredFields = []string{"id", "timestamp"}
				o.Checks = []string{CheckCreate}
			})

			require.Len(t, report.Results, 1)
			assert.False(t, report.Results[0].Passed)
			assert.Equal(t, tt.wantKind, report.Results[0].Kind)
		})
	}
}
