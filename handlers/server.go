package handlers

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/paulmach/orb"
	"gorm.io/gorm"

	"roadmap-planner/planner"
	"roadmap-planner/sim"
	"roadmap-planner/store"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) orb() orb.Point { return orb.Point{p.X, p.Y} }

func fromPath(path planner.Path) []Point {
	points := make([]Point, len(path))
	for i, q := range path {
		points[i] = Point{X: q.X(), Y: q.Y()}
	}
	return points
}

// Options are the services the HTTP API is built on. Queries and DB are
// optional.
type Options struct {
	Planner *planner.Planner
	World   *sim.World
	Queries *store.QueryLog
	DB      *gorm.DB
}

// Server serves the planner and simulator over HTTP and websocket
type Server struct {
	planner *planner.Planner
	world   *sim.World
	queries *store.QueryLog
	db      *gorm.DB
	hub     *Hub

	mu      sync.RWMutex
	buildID string
}

func New(opts Options) *Server {
	return &Server{
		planner: opts.Planner,
		world:   opts.World,
		queries: opts.Queries,
		db:      opts.DB,
		hub:     NewHub(),
	}
}

// Hub is the websocket client set world snapshots are broadcast to
func (s *Server) Hub() *Hub { return s.hub }

// RecordBuild persists a finished build and makes it the build that later
// queries refer to
func (s *Server) RecordBuild(stats planner.BuildStats) {
	rec := store.NewBuildRecord(stats, s.planner.Context().Config().Policy)

	s.mu.Lock()
	s.buildID = rec.ID
	s.mu.Unlock()

	if s.db == nil {
		return
	}
	if err := store.SaveBuild(s.db, rec); err != nil {
		log.Printf("❌ Failed to save build record: %v\n", err)
	}
}

// RecordQuery adds a query to the query log
func (s *Server) RecordQuery(kind string, start, goal orb.Point, path planner.Path) {
	if s.queries == nil {
		return
	}
	s.mu.RLock()
	buildID := s.buildID
	s.mu.RUnlock()

	s.queries.Add(store.NewQueryRecord(buildID, kind,
		[2]float64{start.X(), start.Y()}, [2]float64{goal.X(), goal.Y()}, path))
}

// Register mounts every route on app
func (s *Server) Register(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/health", s.HandleHealth)

	roadmap := api.Group("/roadmap")
	roadmap.Post("/build", s.HandleBuild)
	roadmap.Get("/lines", s.HandleLines)
	roadmap.Get("/dump", s.HandleDump)

	api.Post("/route", s.HandleRoute)

	simAPI := api.Group("/sim")
	simAPI.Post("/start", s.HandleSimStart)
	simAPI.Post("/stop", s.HandleSimStop)
	simAPI.Post("/reset", s.HandleSimReset)
	simAPI.Post("/goal", s.HandleSimGoal)
	simAPI.Get("/status", s.HandleSimStatus)

	api.Get("/queries/recent", s.HandleRecentQueries)

	app.Use("/websocket", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/websocket/sim", websocket.New(s.HandleSimWebSocket))
}

// HandleHealth reports whether a roadmap is available
func (s *Server) HandleHealth(c *fiber.Ctx) error {
	built := s.planner.Built()
	stats := s.planner.Stats()

	status := "ready"
	if !built {
		status = "waiting for roadmap"
	}

	return c.JSON(fiber.Map{
		"status":   status,
		"built":    built,
		"vertices": stats.Vertices,
		"edges":    stats.Edges,
		"clients":  s.hub.ClientCount(),
		"time":     time.Now().Format(time.RFC3339),
	})
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
