package planner

import (
	"fmt"
	"log"
	"math/rand"
	"time"
)

// BuildStats summarizes one roadmap construction
type BuildStats struct {
	Sampling      SampleStats   `json:"sampling"`
	Vertices      int           `json:"vertices"`
	Edges         int           `json:"edges"`
	RejectedEdges int           `json:"rejectedEdges"`
	PrunedArcs    int           `json:"prunedArcs"`
	Duration      time.Duration `json:"duration"`
}

// BuildRoadmap creates a probabilistic roadmap: rejection sampling, local
// path validation for every candidate edge, then the optional loop pruning
func BuildRoadmap(pc *Context, rng *rand.Rand) (*Roadmap, BuildStats, error) {
	startTime := time.Now()
	cfg := pc.Config()
	log.Printf("🗺️  Building roadmap with %d samples...\n", cfg.SampleCount)
	log.Printf("   Obstacles: %d boxes\n", pc.index.Len())

	var stats BuildStats

	// Step 1: Random sampling within the workspace
	log.Println("   Generating random samples...")
	points, sampling, err := Sample(pc, rng)
	stats.Sampling = sampling
	if err != nil {
		log.Printf("   ❌ Only placed %d samples (requested %d) after %d attempts\n",
			sampling.Accepted, cfg.SampleCount, sampling.Attempts)
		return nil, stats, fmt.Errorf("build roadmap: %w", err)
	}

	rm := NewRoadmap()
	for _, q := range points {
		rm.AddVertex(q)
	}

	// Step 2: Connect nearby vertices through validated local paths
	switch cfg.Policy {
	case PolicyKNN:
		log.Printf("   Connecting vertices (k-nearest: %d)...\n", cfg.ConnectionK)
	default:
		log.Printf("   Connecting vertices (radius: %.1f)...\n", cfg.ConnectionRadius)
	}
	added, rejected := ConnectAll(pc, rm)
	stats.RejectedEdges = rejected
	if rejected > 0 {
		log.Printf("   ℹ️  Rejected %d edges due to obstacle collisions\n", rejected)
	}

	// Step 3: Loop pruning
	if cfg.PruneLoops {
		stats.PrunedArcs = PruneLoops(rm, cfg.PruneDirected)
		log.Printf("   ✂️  Loop pruning scheduled %d arcs (%d edges before)\n", stats.PrunedArcs, added)
	}

	stats.Vertices = rm.VertexCount()
	stats.Edges = rm.EdgeCount()
	stats.Duration = time.Since(startTime)
	log.Printf("   ✅ Roadmap built: %d vertices, %d edges\n", stats.Vertices, stats.Edges)
	log.Printf("   ⏱️  Build time: %.2f seconds\n", stats.Duration.Seconds())

	return rm, stats, nil
}
