package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"

	"ritech/internal/auth"
	"ritech/internal/db"
	"ritech/internal/engine"
	"ritech/internal/migrate"
	"ritech/internal/pin"
	"ritech/internal/store"
)

const testSecret = "test-secret"

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	st := store.NewSQLite(conn)
	e, err := engine.New(st, auth.NewLocal(testSecret, "service"))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	handler, err := New(Config{
		Engine:   e,
		Store:    st,
		Pin:      pin.New(st, 4),
		BasePath: "/v1",
		Auth:     AuthConfig{JWTSecret: testSecret},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	ts := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func login(t *testing.T, ts *testServer) map[string]string {
	t.Helper()
	res, body := doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/v1/auth/dev/login", map[string]any{"actor_id": "tester"}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d body = %s", res.StatusCode, body)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Token == "" {
		t.Fatalf("login body = %s", body)
	}
	return map[string]string{"Authorization": "Bearer " + out.Token}
}

func TestHealthIsOpen(t *testing.T) {
	ts := newTestServer(t)
	res, _ := doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/v1/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", res.StatusCode)
	}
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	ts := newTestServer(t)
	res, _ := doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/v1/clients", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token status = %d", res.StatusCode)
	}
	res, _ = doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/v1/clients", nil, map[string]string{"Authorization": "Bearer garbage"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d", res.StatusCode)
	}
}

func TestHierarchyRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	h := login(t, ts)

	res, body := doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/v1/clients", map[string]any{"name": "Verdi SNC"}, h)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create client = %d body = %s", res.StatusCode, body)
	}
	var client struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &client); err != nil || client.ID == "" {
		t.Fatalf("client body = %s", body)
	}

	res, body = doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/v1/sites", map[string]any{"client_id": client.ID, "name": "Officina"}, h)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create site = %d body = %s", res.StatusCode, body)
	}
	var site struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &site); err != nil {
		t.Fatalf("site body = %s", body)
	}

	res, body = doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/v1/jobs", map[string]any{
		"site_id":     site.ID,
		"type":        "alarm",
		"description": "centralina da sostituire",
		"is_priority": true,
	}, h)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create job = %d body = %s", res.StatusCode, body)
	}
	var job struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &job); err != nil || job.Status != "todo" {
		t.Fatalf("job body = %s", body)
	}

	res, body = doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/v1/dashboard", nil, h)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("dashboard = %d", res.StatusCode)
	}
	var dash struct {
		OpenJobs     int `json:"open_jobs"`
		ValidSites   int `json:"valid_sites"`
		PriorityJobs []struct {
			ID string `json:"id"`
		} `json:"priority_jobs"`
	}
	if err := json.Unmarshal(body, &dash); err != nil {
		t.Fatalf("dashboard body = %s", body)
	}
	if dash.OpenJobs != 1 || dash.ValidSites != 1 || len(dash.PriorityJobs) != 1 {
		t.Fatalf("dashboard = %+v", dash)
	}

	res, body = doJSON(t, ts.Client(), http.MethodDelete, ts.URL+"/v1/clients/"+client.ID, nil, h)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("delete = %d body = %s", res.StatusCode, body)
	}
	var del struct {
		Result struct {
			Deleted []struct {
				Level string `json:"level"`
				ID    string `json:"id"`
			} `json:"deleted"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &del); err != nil {
		t.Fatalf("delete body = %s", body)
	}
	if len(del.Result.Deleted) != 3 || del.Result.Deleted[0].Level != "job" {
		t.Fatalf("cascade = %+v", del.Result.Deleted)
	}
}

func TestInvalidTransitionEnvelope(t *testing.T) {
	ts := newTestServer(t)
	h := login(t, ts)

	_, body := doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/v1/clients", map[string]any{"name": "C"}, h)
	var client struct {
		ID string `json:"id"`
	}
	json.Unmarshal(body, &client)
	_, body = doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/v1/sites", map[string]any{"client_id": client.ID, "name": "S"}, h)
	var site struct {
		ID string `json:"id"`
	}
	json.Unmarshal(body, &site)
	_, body = doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/v1/jobs", map[string]any{"site_id": site.ID, "description": "lavoro"}, h)
	var job struct {
		ID string `json:"id"`
	}
	json.Unmarshal(body, &job)

	res, body := doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/v1/jobs/"+job.ID+"/status", map[string]any{"status": "done"}, h)
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d body = %s", res.StatusCode, body)
	}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("envelope body = %s", body)
	}
	if envelope.Error.Code != "invalid_transition" || envelope.Error.Message == "" {
		t.Fatalf("envelope = %+v", envelope.Error)
	}
}

func TestNotFoundEnvelope(t *testing.T) {
	ts := newTestServer(t)
	h := login(t, ts)
	res, body := doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/v1/sites", map[string]any{"client_id": "ghost", "name": "S"}, h)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d body = %s", res.StatusCode, body)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Code != "not_found" {
		t.Fatalf("envelope body = %s", body)
	}
}

func TestDeviceUnlock(t *testing.T) {
	ts := newTestServer(t)
	h := login(t, ts)
	res, _ := doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/v1/device/unlock", map[string]any{"pin": "1234"}, h)
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusNoContent {
		t.Fatalf("default unlock = %d", res.StatusCode)
	}
	res, _ = doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/v1/device/pin", map[string]any{"pin": "9876"}, h)
	if res.StatusCode >= 300 {
		t.Fatalf("set pin = %d", res.StatusCode)
	}
	res, body := doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/v1/device/unlock", map[string]any{"pin": "1234"}, h)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("stale pin = %d body = %s", res.StatusCode, body)
	}
}

func TestEventsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	h := login(t, ts)
	doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/v1/clients", map[string]any{"name": "C"}, h)
	res, body := doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/v1/events?n=5", nil, h)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("events = %d", res.StatusCode)
	}
	var evts []struct {
		Type    string `json:"type"`
		ActorID string `json:"actor_id"`
	}
	if err := json.Unmarshal(body, &evts); err != nil || len(evts) == 0 {
		t.Fatalf("events body = %s", body)
	}
	if evts[0].Type != "client.created" || evts[0].ActorID != "tester" {
		t.Fatalf("event = %+v", evts[0])
	}
}
