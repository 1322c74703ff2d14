package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/orgchart/pkg/orgtree"
	"github.com/matzehuels/orgchart/pkg/session"
	"github.com/matzehuels/orgchart/pkg/transition"
)

func testTree() *orgtree.Entity {
	return &orgtree.Entity{ID: "root", DisplayName: "Root", Children: []*orgtree.Entity{
		{ID: "a", DisplayName: "Alpha", Children: []*orgtree.Entity{{ID: "a1", DisplayName: "A1"}}},
		{ID: "b", DisplayName: "Beta"},
	}}
}

func newServer(t *testing.T, mutate ...func(*Config)) (*Server, http.Handler) {
	t.Helper()
	store := session.NewMemoryStore(time.Minute, transition.NewManualClock(time.Unix(0, 0)))
	store.SetFrameInterval(0)
	t.Cleanup(func() { store.Close() })
	cfg := Config{Store: store}
	for _, fn := range mutate {
		fn(&cfg)
	}
	s, err := New(testTree(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s, s.Handler()
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(h, http.MethodPost, "/sessions")
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /sessions = %d: %s", rec.Code, rec.Body)
	}
	var body struct{ ID string }
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	return body.ID
}

func TestNewRejectsBadTree(t *testing.T) {
	if _, err := New(nil, Config{}); err == nil {
		t.Error("New(nil) should fail")
	}
	dup := &orgtree.Entity{ID: "r", Children: []*orgtree.Entity{{ID: "x"}, {ID: "x"}}}
	if _, err := New(dup, Config{}); err == nil {
		t.Error("New(duplicate ids) should fail")
	}
}

func TestIndexRedirects(t *testing.T) {
	_, h := newServer(t)
	rec := do(h, http.MethodGet, "/")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("GET / = %d, want 303", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/s/") || !strings.HasSuffix(loc, "/chart.svg") {
		t.Fatalf("Location = %q", loc)
	}

	rec = do(h, http.MethodGet, loc)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s = %d", loc, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	endpoint := strings.TrimSuffix(loc, "/chart.svg")
	if !strings.Contains(body, "<svg") || !strings.Contains(body, `"`+endpoint+`"`) {
		t.Errorf("svg lacks viewer endpoint %q", endpoint)
	}
}

func TestToggle(t *testing.T) {
	_, h := newServer(t)
	id := createSession(t, h)

	rec := do(h, http.MethodPost, "/s/"+id+"/toggle?id=a")
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle = %d: %s", rec.Code, rec.Body)
	}
	var st stateResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &st)
	if st.State != "collapsed" || st.Role != "descendant" {
		t.Errorf("toggle response = %+v", st)
	}

	rec = do(h, http.MethodPost, "/s/"+id+"/toggle?id=a&role=descendant")
	_ = json.Unmarshal(rec.Body.Bytes(), &st)
	if st.State != "expanded" {
		t.Errorf("second toggle state = %q, want expanded", st.State)
	}
}

func TestToggleErrors(t *testing.T) {
	_, h := newServer(t)
	id := createSession(t, h)

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"leaf has no control", "/s/" + id + "/toggle?id=b", http.StatusConflict, "NO_TOGGLE"},
		{"root has no control", "/s/" + id + "/toggle?id=root", http.StatusConflict, "NO_TOGGLE"},
		{"missing id", "/s/" + id + "/toggle", http.StatusBadRequest, "INVALID_INPUT"},
		{"bad role", "/s/" + id + "/toggle?id=a&role=sibling", http.StatusBadRequest, "INVALID_INPUT"},
		{"hidden node", "/s/" + id + "/toggle?id=zz", http.StatusNotFound, "NODE_NOT_FOUND"},
		{"unknown session", "/s/nope/toggle?id=a", http.StatusNotFound, "SESSION_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}
			var e errorResponse
			_ = json.Unmarshal(rec.Body.Bytes(), &e)
			if e.Code != tt.code {
				t.Errorf("code = %q, want %q", e.Code, tt.code)
			}
		})
	}
}

func TestClick(t *testing.T) {
	_, h := newServer(t)
	id := createSession(t, h)

	rec := do(h, http.MethodPost, "/s/"+id+"/click?id=b")
	if rec.Code != http.StatusOK {
		t.Fatalf("click = %d: %s", rec.Code, rec.Body)
	}
	var body clickResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Notice != "Beta" {
		t.Errorf("notice = %q, want Beta", body.Notice)
	}
}

func TestChartFormats(t *testing.T) {
	_, h := newServer(t)
	id := createSession(t, h)

	rec := do(h, http.MethodGet, "/s/"+id+"/chart.json")
	if rec.Code != http.StatusOK {
		t.Fatalf("chart.json = %d", rec.Code)
	}
	var out struct {
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Nodes) != 4 {
		t.Errorf("json has %d nodes, want 4", len(out.Nodes))
	}

	rec = do(h, http.MethodGet, "/s/"+id+"/chart.dot")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "digraph") {
		t.Errorf("chart.dot = %d %q", rec.Code, rec.Body.String())
	}

	rec = do(h, http.MethodGet, "/s/"+id+"/chart.png")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("chart.png = %d, want 400", rec.Code)
	}
}

type chartNode struct {
	ID      string  `json:"id"`
	Opacity float64 `json:"opacity"`
	Exiting bool    `json:"exiting"`
}

func chartNodes(t *testing.T, h http.Handler, id string) []chartNode {
	t.Helper()
	rec := do(h, http.MethodGet, "/s/"+id+"/chart.json")
	if rec.Code != http.StatusOK {
		t.Fatalf("chart.json = %d", rec.Code)
	}
	var out struct {
		Nodes []chartNode `json:"nodes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	return out.Nodes
}

func TestChartAfterToggleShowsFinalState(t *testing.T) {
	_, h := newServer(t)
	id := createSession(t, h)

	tests := []struct {
		name string
		want string
	}{
		{"collapse a", "a b root"},
		{"expand a", "a a1 b root"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(h, http.MethodPost, "/s/"+id+"/toggle?id=a"); rec.Code != http.StatusOK {
				t.Fatalf("toggle = %d: %s", rec.Code, rec.Body)
			}
			nodes := chartNodes(t, h, id)
			ids := make([]string, 0, len(nodes))
			for _, n := range nodes {
				ids = append(ids, n.ID)
				if n.Opacity != 1 || n.Exiting {
					t.Errorf("node %s opacity=%v exiting=%v, want settled", n.ID, n.Opacity, n.Exiting)
				}
			}
			sort.Strings(ids)
			if got := strings.Join(ids, " "); got != tt.want {
				t.Errorf("nodes = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpandCollapseAll(t *testing.T) {
	_, h := newServer(t)
	id := createSession(t, h)

	if rec := do(h, http.MethodPost, "/s/"+id+"/collapse-all"); rec.Code != http.StatusNoContent {
		t.Fatalf("collapse-all = %d", rec.Code)
	}
	rec := do(h, http.MethodPost, "/s/"+id+"/click?id=a1")
	if rec.Code != http.StatusNotFound {
		t.Errorf("click hidden node after collapse-all = %d, want 404", rec.Code)
	}
	if rec := do(h, http.MethodPost, "/s/"+id+"/expand-all"); rec.Code != http.StatusNoContent {
		t.Fatalf("expand-all = %d", rec.Code)
	}
	if rec := do(h, http.MethodPost, "/s/"+id+"/click?id=a1"); rec.Code != http.StatusOK {
		t.Errorf("click after expand-all = %d", rec.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	_, h := newServer(t)
	id := createSession(t, h)
	if rec := do(h, http.MethodDelete, "/s/"+id+"/"); rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE = %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/s/"+id+"/chart.svg"); rec.Code != http.StatusNotFound {
		t.Errorf("GET after DELETE = %d, want 404", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	_, h := newServer(t)
	rec := do(h, http.MethodGet, "/healthz")
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("no request id assigned")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc" {
		t.Errorf("request id = %q, want abc", got)
	}
}

func TestMetricsMounted(t *testing.T) {
	_, h := newServer(t)
	if rec := do(h, http.MethodGet, "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("/metrics without handler = %d, want 404", rec.Code)
	}

	_, h = newServer(t, func(c *Config) {
		c.Metrics = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("m")) })
	})
	if rec := do(h, http.MethodGet, "/metrics"); rec.Body.String() != "m" {
		t.Errorf("/metrics = %q", rec.Body.String())
	}
}

func TestReload(t *testing.T) {
	s, h := newServer(t)
	id := createSession(t, h)

	bad := &orgtree.Entity{ID: ""}
	if err := s.Reload(bad); err == nil {
		t.Fatal("Reload(invalid) should fail")
	}
	if err := s.Reload(&orgtree.Entity{ID: "new", DisplayName: "New"}); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	rec := do(h, http.MethodGet, "/s/"+id+"/chart.json")
	if !strings.Contains(rec.Body.String(), `"new"`) {
		t.Errorf("session not rebuilt: %s", rec.Body)
	}
}

func TestFrameStream(t *testing.T) {
	_, h := newServer(t)
	id := createSession(t, h)

	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/s/"+id+"/frames", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 1<<20), 1<<20)
	var event, data string
	for sc.Scan() {
		line := sc.Text()
		if v, ok := strings.CutPrefix(line, "event: "); ok {
			event = v
		}
		if v, ok := strings.CutPrefix(line, "data: "); ok {
			data = v
			break
		}
	}
	if event != "frame" {
		t.Fatalf("event = %q, want frame", event)
	}
	var frame struct {
		Nodes []json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal([]byte(data), &frame); err != nil {
		t.Fatalf("frame is not JSON: %v", err)
	}
	if len(frame.Nodes) != 4 {
		t.Errorf("frame has %d nodes, want 4", len(frame.Nodes))
	}
}
