package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"

	"roadmap-planner/planner"
)

const defaultSimplifyEpsilon = 1.0

type RouteRequest struct {
	Start    Point   `json:"start"`
	End      Point   `json:"end"`
	Simplify bool    `json:"simplify,omitempty"`
	Epsilon  float64 `json:"epsilon,omitempty"`
}

type RouteResponse struct {
	Path      []Point `json:"path"`
	Success   bool    `json:"success"`
	Message   string  `json:"message,omitempty"`
	Length    float64 `json:"length,omitempty"`
	Waypoints int     `json:"waypoints"`
}

// HandleRoute answers a point-to-point query on the roadmap
func (s *Server) HandleRoute(c *fiber.Ctx) error {
	log.Println("========================================")
	log.Println("📍 Route request received")
	defer log.Println("========================================")

	var req RouteRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("❌ Invalid request body: %v\n", err)
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	log.Printf("   Start: (%.2f, %.2f)\n", req.Start.X, req.Start.Y)
	log.Printf("   End:   (%.2f, %.2f)\n", req.End.X, req.End.Y)

	if !s.planner.Built() {
		log.Println("❌ Roadmap not available")
		return fail(c, fiber.StatusBadRequest, "Roadmap not built. Call /api/roadmap/build first")
	}

	start, goal := req.Start.orb(), req.End.orb()
	path, ok := s.planner.FindPath(start, goal)
	s.RecordQuery("route", start, goal, path)

	if !ok {
		log.Println("❌ No path found on roadmap")
		return c.JSON(RouteResponse{
			Path:    []Point{},
			Success: false,
			Message: "No path found on roadmap",
		})
	}

	if req.Simplify {
		eps := req.Epsilon
		if eps <= 0 {
			eps = defaultSimplifyEpsilon
		}
		radius := s.planner.Context().Config().RobotRadius
		before := len(path)
		path = planner.SimplifyPath(path, eps, func(a, b orb.Point) bool {
			return s.planner.Clear(a, b, radius)
		})
		log.Printf("   Simplified %d -> %d waypoints\n", before, len(path))
	}

	log.Printf("✅ Path found with %d waypoints, length %.2f\n", len(path), path.Length())
	return c.JSON(RouteResponse{
		Path:      fromPath(path),
		Success:   true,
		Length:    path.Length(),
		Waypoints: len(path),
	})
}
