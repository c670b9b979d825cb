package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"

	"roadmap-planner/planner"
)

type GoalRequest struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Hidden bool     `json:"hidden"`
}

func (s *Server) HandleSimStart(c *fiber.Ctx) error {
	if !s.planner.Built() {
		return fail(c, fiber.StatusBadRequest, "Roadmap not built. Call /api/sim/reset first")
	}
	s.world.Start()
	return c.JSON(fiber.Map{"success": true, "running": true})
}

func (s *Server) HandleSimStop(c *fiber.Ctx) error {
	s.world.Stop()
	return c.JSON(fiber.Map{"success": true, "running": false})
}

// HandleSimReset rebuilds the roadmap with a fresh seed and respawns the
// agents
func (s *Server) HandleSimReset(c *fiber.Ctx) error {
	stats, err := s.world.Reset()
	if err != nil {
		log.Printf("❌ Reset failed: %v\n", err)
		if errors.Is(err, planner.ErrInfeasibleSampling) {
			return fail(c, fiber.StatusBadRequest, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	s.RecordBuild(stats)

	return c.JSON(fiber.Map{
		"success":     true,
		"numVertices": stats.Vertices,
		"numEdges":    stats.Edges,
	})
}

// HandleSimGoal moves the goal. Goals inside an obstacle are rejected.
func (s *Server) HandleSimGoal(c *fiber.Ctx) error {
	var req GoalRequest
	if err := c.BodyParser(&req); err != nil || req.X == nil || req.Y == nil {
		return fail(c, fiber.StatusBadRequest, "Expected {x, y, hidden}")
	}

	goal := orb.Point{*req.X, *req.Y}
	if msg := s.checkGoal(goal); msg != "" {
		return fail(c, fiber.StatusBadRequest, msg)
	}
	s.world.SetGoal(goal, req.Hidden)

	return c.JSON(fiber.Map{
		"success": true,
		"goal":    Point{X: goal.X(), Y: goal.Y()},
		"hidden":  req.Hidden,
	})
}

// checkGoal returns why goal cannot be used, or "" when it can
func (s *Server) checkGoal(goal orb.Point) string {
	switch {
	case !s.planner.InWorkspace(goal):
		return "Goal is outside the workspace"
	case s.planner.Collides(goal, 0):
		return "Goal is inside an obstacle"
	}
	return ""
}

func (s *Server) HandleSimStatus(c *fiber.Ctx) error {
	return c.JSON(s.world.Status())
}
