package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/homebase/internal/config"
	"github.com/dukerupert/homebase/internal/database"
	"github.com/dukerupert/homebase/internal/middleware"
	"github.com/dukerupert/homebase/internal/model"
	"github.com/dukerupert/homebase/internal/store"
	hubws "github.com/dukerupert/homebase/internal/websocket"
)

type fixture struct {
	srv    *Server
	ts     *httptest.Server
	parent *model.Member
	child  *model.Member
}

func setup(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	fs := store.NewFamilyStore(db)
	fam, err := fs.CreateFamily(ctx, "Test")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	parent, err := fs.CreateMember(ctx, fam.ID, "Mom", model.RoleParent, "", "")
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	child, err := fs.CreateMember(ctx, fam.ID, "Kid", model.RoleChild, "", "")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	if cfg == nil {
		cfg = config.Default()
	}
	srv := New(db, cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &fixture{srv: srv, ts: ts, parent: parent, child: child}
}

func identityHeader(m *model.Member) http.Header {
	h := http.Header{}
	h.Set(middleware.HeaderMemberID, strconv.FormatInt(m.ID, 10))
	h.Set(middleware.HeaderFamilyID, strconv.FormatInt(m.FamilyID, 10))
	return h
}

func (f *fixture) request(t *testing.T, as *model.Member, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if as != nil {
		req.Header = identityHeader(as)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	f := setup(t, nil)
	resp := f.request(t, nil, "GET", "/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
}

func TestAPIRequiresIdentity(t *testing.T) {
	f := setup(t, nil)
	resp := f.request(t, nil, "GET", "/api/chores", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}

	resp = f.request(t, f.child, "GET", "/api/chores", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestMetricsExposeLedgerCounters(t *testing.T) {
	f := setup(t, nil)
	path := "/api/members/" + strconv.FormatInt(f.child.ID, 10) + "/awards"
	resp := f.request(t, f.parent, "POST", path, `{"amount":"7.5"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("award status = %d, want 201", resp.StatusCode)
	}

	resp = f.request(t, nil, "GET", "/metrics", "")
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(data), `homebase_ledger_awards_total{reason="manual_award"} 1`) {
		t.Errorf("metrics missing award counter:\n%s", data)
	}
}

func TestRateLimitPerMember(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit.Requests = 2
	cfg.RateLimit.Window = time.Minute
	f := setup(t, cfg)

	for i := 0; i < 2; i++ {
		if resp := f.request(t, f.child, "GET", "/api/chores", ""); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, resp.StatusCode)
		}
	}
	resp := f.request(t, f.child, "GET", "/api/chores", "")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	if resp := f.request(t, f.parent, "GET", "/api/chores", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("other member status = %d, want 200", resp.StatusCode)
	}
}

func TestWebSocketReceivesFamilyEvents(t *testing.T) {
	f := setup(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/ws"
	conn, _, err := ws.Dial(ctx, url, &ws.DialOptions{HTTPHeader: identityHeader(f.child)})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	for f.srv.hub.ClientCount() == 0 {
		if ctx.Err() != nil {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp := f.request(t, f.parent, "POST", "/api/chores", `{"title":"Dishes"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create chore status = %d, want 201", resp.StatusCode)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg hubws.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if msg.Type != "chore_created" {
		t.Errorf("type = %q, want chore_created", msg.Type)
	}
}
