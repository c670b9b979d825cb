package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"roadmap-planner/store"
)

const defaultRecentLimit = 20

// HandleRecentQueries lists the newest route and chase queries. With a
// database they are read back from it after a flush, so history survives
// restarts; otherwise the in-memory log answers.
func (s *Server) HandleRecentQueries(c *fiber.Ctx) error {
	if s.queries == nil && s.db == nil {
		return fail(c, fiber.StatusNotFound, "Query log disabled")
	}

	limit := c.QueryInt("limit", defaultRecentLimit)
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	var queries []store.QueryRecord
	if s.db != nil {
		if s.queries != nil {
			s.queries.Flush()
		}
		records, err := store.RecentQueries(s.db, limit)
		if err != nil {
			log.Printf("❌ Failed to read queries: %v\n", err)
			return fail(c, fiber.StatusInternalServerError, "Failed to read queries")
		}
		queries = records
	} else {
		queries = s.queries.Recent(limit)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"queries": queries,
		"count":   len(queries),
	})
}
