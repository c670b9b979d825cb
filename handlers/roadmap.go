package handlers

import (
	"bytes"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"roadmap-planner/planner"
)

type BuildRequest struct {
	Force              bool    `json:"force"`
	NumSamples         int     `json:"numSamples"`
	ConnectionRadius   float64 `json:"connectionRadius"`
	Policy             string  `json:"policy"`
	ConnectionK        int     `json:"connectionK"`
	MinClusterDistance float64 `json:"minClusterDistance"`
}

// apply overrides the non-zero request fields
func (r BuildRequest) apply(cfg planner.Config) planner.Config {
	if r.NumSamples > 0 {
		cfg.SampleCount = r.NumSamples
	}
	if r.ConnectionRadius > 0 {
		cfg.ConnectionRadius = r.ConnectionRadius
	}
	if r.Policy != "" {
		cfg.Policy = planner.ConnectionPolicy(r.Policy)
	}
	if r.ConnectionK > 0 {
		cfg.ConnectionK = r.ConnectionK
	}
	if r.MinClusterDistance > 0 {
		cfg.MinClusterDistance = r.MinClusterDistance
	}
	return cfg
}

// HandleBuild rebuilds the roadmap. An existing roadmap is only replaced when
// force is set.
func (s *Server) HandleBuild(c *fiber.Ctx) error {
	log.Println("========================================")
	log.Println("🗺️  Build roadmap request received")
	defer log.Println("========================================")

	var req BuildRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			log.Printf("❌ Invalid request body: %v\n", err)
			return fail(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}

	if s.planner.Built() && !req.Force {
		log.Println("⚠️  Roadmap already exists")
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "roadmap already exists",
			"message": "Roadmap is already built. Set 'force: true' to rebuild.",
		})
	}
	if req.Force {
		log.Println("🔄 Force rebuild requested")
	}

	current := s.planner.Context()
	pc, err := planner.NewContext(req.apply(current.Config()), current.Obstacles())
	if err != nil {
		log.Printf("❌ %v\n", err)
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	stats, err := s.world.Rebuild(pc)
	if err != nil {
		log.Printf("❌ Build failed: %v\n", err)
		if errors.Is(err, planner.ErrInfeasibleSampling) {
			return fail(c, fiber.StatusBadRequest, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	s.RecordBuild(stats)

	return c.JSON(fiber.Map{
		"success":          true,
		"numVertices":      stats.Vertices,
		"numEdges":         stats.Edges,
		"rejectedEdges":    stats.RejectedEdges,
		"prunedArcs":       stats.PrunedArcs,
		"samplingAttempts": stats.Sampling.Attempts,
		"durationMs":       stats.Duration.Milliseconds(),
	})
}

// HandleLines returns the roadmap edges, as GeoJSON with ?format=geojson
func (s *Server) HandleLines(c *fiber.Ctx) error {
	rm, err := s.planner.Snapshot()
	if errors.Is(err, planner.ErrEmptyRoadmap) {
		return fail(c, fiber.StatusBadRequest, "Roadmap not built. Call /api/roadmap/build first")
	}

	if c.Query("format") == "geojson" {
		return c.JSON(planner.FeatureCollection(rm))
	}

	lines := planner.LineStrings(rm)
	log.Printf("📊 Returning %d line segments\n", len(lines))
	return c.JSON(fiber.Map{
		"success":  true,
		"lines":    lines,
		"numNodes": rm.VertexCount(),
		"numEdges": len(lines),
	})
}

// HandleDump returns the plain-text roadmap dump
func (s *Server) HandleDump(c *fiber.Ctx) error {
	rm, err := s.planner.Snapshot()
	if errors.Is(err, planner.ErrEmptyRoadmap) {
		return fail(c, fiber.StatusBadRequest, "Roadmap not built. Call /api/roadmap/build first")
	}

	var buf bytes.Buffer
	if err := planner.WriteDump(&buf, rm); err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Send(buf.Bytes())
}
