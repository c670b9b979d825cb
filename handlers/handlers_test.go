package handlers

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	fws "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"gorm.io/gorm"

	"roadmap-planner/planner"
	"roadmap-planner/sim"
	"roadmap-planner/store"
)

func testConfig() planner.Config {
	cfg := planner.DefaultConfig()
	cfg.Workspace = orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{300, 300}}
	cfg.SampleCount = 60
	cfg.ConnectionRadius = 150
	cfg.MinClusterDistance = 10
	return cfg
}

func newTestServer(t *testing.T, obstacles []planner.Obstacle, queries *store.QueryLog) (*fiber.App, *Server) {
	t.Helper()
	return newTestServerWithDB(t, obstacles, queries, nil)
}

func newTestServerWithDB(t *testing.T, obstacles []planner.Obstacle, queries *store.QueryLog, db *gorm.DB) (*fiber.App, *Server) {
	t.Helper()
	pc, err := planner.NewContext(testConfig(), obstacles)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	p := planner.NewPlanner(pc)

	var s *Server
	w := sim.NewWorld(p, []sim.AgentSpec{{Name: "chaser", X: 20, Y: 20, Speed: 3, Radius: 5}},
		sim.Options{Seed: 7, TickRate: 5 * time.Millisecond}, func(msg sim.Message) {
			s.Hub().BroadcastMessage(msg)
		})

	s = New(Options{Planner: p, World: w, Queries: queries, DB: db})
	stats, err := w.Reset()
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	s.RecordBuild(stats)

	app := fiber.New()
	s.Register(app)
	return app, s
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	out := map[string]interface{}{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

// connectedPair returns two roadmap vertices joined by an edge
func connectedPair(t *testing.T, s *Server) (orb.Point, orb.Point) {
	t.Helper()
	rm, err := s.planner.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	for _, v := range rm.Vertices() {
		if len(v.Edges) == 0 {
			continue
		}
		n, _ := rm.Vertex(v.Edges[0].To)
		return v.Config, n.Config
	}
	t.Fatalf("roadmap has no edges")
	return orb.Point{}, orb.Point{}
}

func TestHealth(t *testing.T) {
	app, _ := newTestServer(t, nil, nil)

	status, body := do(t, app, http.MethodGet, "/api/health", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["built"] != true || body["status"] != "ready" {
		t.Fatalf("unexpected health body %v", body)
	}
	if body["vertices"].(float64) != 60 {
		t.Fatalf("expected 60 vertices, got %v", body["vertices"])
	}
}

func TestBuildRequiresForce(t *testing.T) {
	app, _ := newTestServer(t, nil, nil)

	status, _ := do(t, app, http.MethodPost, "/api/roadmap/build", "")
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409 without force, got %d", status)
	}

	status, body := do(t, app, http.MethodPost, "/api/roadmap/build", `{"force": true, "numSamples": 25}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 on forced build, got %d (%v)", status, body)
	}
	if body["numVertices"].(float64) != 25 {
		t.Fatalf("expected 25 vertices, got %v", body["numVertices"])
	}
}

func TestBuildRejectsBadOverrides(t *testing.T) {
	app, s := newTestServer(t, nil, nil)

	tests := []struct {
		name string
		body string
	}{
		{"unknown policy", `{"force": true, "policy": "grid"}`},
		{"malformed body", `{"force": tru`},
		{"infeasible sampling", `{"force": true, "numSamples": 500, "minClusterDistance": 100}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := do(t, app, http.MethodPost, "/api/roadmap/build", tt.body)
			if status != fiber.StatusBadRequest {
				t.Fatalf("expected 400, got %d", status)
			}
		})
	}

	if s.planner.Stats().Vertices != 60 {
		t.Fatalf("expected the original roadmap to survive, got %d vertices", s.planner.Stats().Vertices)
	}
}

func TestRouteFound(t *testing.T) {
	app, s := newTestServer(t, nil, nil)
	a, b := connectedPair(t, s)

	body := `{"start": {"x": ` + ftoa(a.X()) + `, "y": ` + ftoa(a.Y()) + `}, "end": {"x": ` +
		ftoa(b.X()) + `, "y": ` + ftoa(b.Y()) + `}, "simplify": true}`
	status, resp := do(t, app, http.MethodPost, "/api/route", body)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if resp["success"] != true {
		t.Fatalf("expected a path, got %v", resp)
	}
	if n := len(resp["path"].([]interface{})); n < 2 {
		t.Fatalf("expected at least 2 waypoints, got %d", n)
	}
}

func TestRouteBlockedByWall(t *testing.T) {
	wall := planner.NewBoxObstacle(140, -10, 160, 310)
	app, _ := newTestServer(t, []planner.Obstacle{wall}, nil)

	status, resp := do(t, app, http.MethodPost, "/api/route",
		`{"start": {"x": 20, "y": 150}, "end": {"x": 280, "y": 150}}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if resp["success"] != false || len(resp["path"].([]interface{})) != 0 {
		t.Fatalf("expected no path through the wall, got %v", resp)
	}
}

func TestRouteBadBody(t *testing.T) {
	app, _ := newTestServer(t, nil, nil)

	status, _ := do(t, app, http.MethodPost, "/api/route", `not json`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestLines(t *testing.T) {
	app, s := newTestServer(t, nil, nil)

	status, body := do(t, app, http.MethodGet, "/api/roadmap/lines", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if int(body["numEdges"].(float64)) != s.planner.Stats().Edges {
		t.Fatalf("expected %d edges, got %v", s.planner.Stats().Edges, body["numEdges"])
	}

	status, body = do(t, app, http.MethodGet, "/api/roadmap/lines?format=geojson", "")
	if status != fiber.StatusOK || body["type"] != "FeatureCollection" {
		t.Fatalf("expected a feature collection, got %d %v", status, body["type"])
	}
}

func TestDump(t *testing.T) {
	app, _ := newTestServer(t, nil, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/roadmap/dump", nil), -1)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		t.Fatalf("expected text/plain, got %s", resp.Header.Get("Content-Type"))
	}
	if lines := strings.Count(string(raw), "\n"); lines != 60 {
		t.Fatalf("expected one line per vertex, got %d", lines)
	}
}

func TestSimGoal(t *testing.T) {
	box := planner.NewBoxObstacle(100, 100, 120, 120)
	app, s := newTestServer(t, []planner.Obstacle{box}, nil)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"inside obstacle", `{"x": 110, "y": 110}`, fiber.StatusBadRequest},
		{"outside workspace", `{"x": 400, "y": 40}`, fiber.StatusBadRequest},
		{"missing y", `{"x": 10}`, fiber.StatusBadRequest},
		{"free", `{"x": 250, "y": 40, "hidden": true}`, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := do(t, app, http.MethodPost, "/api/sim/goal", tt.body)
			if status != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, status)
			}
		})
	}

	st := s.world.Status()
	if st.Goal != [2]float64{250, 40} || !st.Hidden {
		t.Fatalf("expected hidden goal at (250, 40), got %v hidden=%v", st.Goal, st.Hidden)
	}
}

func TestSimStartStop(t *testing.T) {
	app, s := newTestServer(t, nil, nil)

	if status, _ := do(t, app, http.MethodPost, "/api/sim/start", ""); status != fiber.StatusOK {
		t.Fatalf("expected 200 on start, got %d", status)
	}
	_, body := do(t, app, http.MethodGet, "/api/sim/status", "")
	if body["running"] != true {
		t.Fatalf("expected running world, got %v", body)
	}

	if status, _ := do(t, app, http.MethodPost, "/api/sim/stop", ""); status != fiber.StatusOK {
		t.Fatalf("expected 200 on stop, got %d", status)
	}
	if s.world.Status().Running {
		t.Fatalf("expected stopped world")
	}
}

func TestSimReset(t *testing.T) {
	app, _ := newTestServer(t, nil, nil)

	status, body := do(t, app, http.MethodPost, "/api/sim/reset", "")
	if status != fiber.StatusOK || body["numVertices"].(float64) != 60 {
		t.Fatalf("expected a rebuilt world, got %d %v", status, body)
	}
}

func TestRecentQueries(t *testing.T) {
	app, _ := newTestServer(t, nil, nil)
	if status, _ := do(t, app, http.MethodGet, "/api/queries/recent", ""); status != fiber.StatusNotFound {
		t.Fatalf("expected 404 without a query log, got %d", status)
	}

	ql := store.NewQueryLog(100, time.Hour, nil)
	defer ql.Stop()
	app, _ = newTestServer(t, nil, ql)

	do(t, app, http.MethodPost, "/api/route", `{"start": {"x": 20, "y": 20}, "end": {"x": 280, "y": 280}}`)

	status, body := do(t, app, http.MethodGet, "/api/queries/recent?limit=5", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	queries := body["queries"].([]interface{})
	if len(queries) != 1 {
		t.Fatalf("expected 1 query, got %d", len(queries))
	}
	rec := queries[0].(map[string]interface{})
	if rec["kind"] != "route" || rec["build_id"] == "" {
		t.Fatalf("unexpected query record %v", rec)
	}
}

func TestRecentQueriesFromDatabase(t *testing.T) {
	db, err := store.Open("sqlite", filepath.Join(t.TempDir(), "planner.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	ql := store.NewQueryLog(100, time.Hour, store.GormSink(db))
	defer ql.Stop()
	app, _ := newTestServerWithDB(t, nil, ql, db)

	do(t, app, http.MethodPost, "/api/route", `{"start": {"x": 20, "y": 20}, "end": {"x": 280, "y": 280}}`)
	do(t, app, http.MethodPost, "/api/route", `{"start": {"x": 20, "y": 280}, "end": {"x": 280, "y": 20}}`)

	status, body := do(t, app, http.MethodGet, "/api/queries/recent?limit=1", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if n := len(body["queries"].([]interface{})); n != 1 {
		t.Fatalf("expected limit to apply, got %d queries", n)
	}
	if ql.Pending() != 0 {
		t.Fatalf("expected the log to be flushed before reading, %d pending", ql.Pending())
	}

	stored, err := store.RecentQueries(db, 10)
	if err != nil || len(stored) != 2 {
		t.Fatalf("expected 2 stored queries, got %d (%v)", len(stored), err)
	}
}

func TestWebSocketGreetsBeforeStreaming(t *testing.T) {
	app, s := newTestServer(t, nil, nil)
	go s.Hub().Start()
	defer s.Hub().Stop()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = app.Listener(ln) }()
	defer app.Shutdown()

	s.world.Start()
	defer s.world.Stop()

	url := "ws://" + ln.Addr().String() + "/websocket/sim"
	for i := 0; i < 5; i++ {
		conn, _, err := fws.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

		var first sim.Message
		if err := conn.ReadJSON(&first); err != nil {
			t.Fatalf("read greeting: %v", err)
		}
		if first.Type != sim.MessageTypeStatus {
			t.Fatalf("client %d: expected %s first, got %s", i, sim.MessageTypeStatus, first.Type)
		}
		// a rebuild queued during setup may still be in flight
		for {
			var next sim.Message
			if err := conn.ReadJSON(&next); err != nil {
				t.Fatalf("read tick: %v", err)
			}
			if next.Type == sim.MessageTypeStatus {
				t.Fatalf("client %d: expected a single greeting, got another %s", i, next.Type)
			}
			if next.Type == sim.MessageTypeTick {
				break
			}
		}
		_ = conn.Close()
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.Hub().ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected closed clients to leave the hub, %d left", s.Hub().ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	app, _ := newTestServer(t, nil, nil)

	status, _ := do(t, app, http.MethodGet, "/websocket/sim", "")
	if status != fiber.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", status)
	}
}

func TestParseGoal(t *testing.T) {
	goal, hidden, ok := parseGoal(map[string]interface{}{"x": 1.5, "y": 2.0, "hidden": true})
	if !ok || goal != (orb.Point{1.5, 2}) || !hidden {
		t.Fatalf("unexpected parse %v %v %v", goal, hidden, ok)
	}
	if _, _, ok := parseGoal(map[string]interface{}{"x": "1"}); ok {
		t.Fatalf("expected malformed goal to be rejected")
	}
	if _, _, ok := parseGoal("goal"); ok {
		t.Fatalf("expected non-object goal to be rejected")
	}
}

func ftoa(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}
