package scene

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"roadmap-planner/planner"
)

// Load reads obstacles from a CSV or GeoJSON file, or from every such file in
// a directory. Unreadable files inside a directory are logged and skipped.
func Load(path string) ([]planner.Obstacle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat obstacle path: %w", err)
	}
	if !info.IsDir() {
		return loadFile(path)
	}

	var files []string
	for _, pattern := range []string{"*.csv", "*.geojson", "*.json"} {
		matches, err := filepath.Glob(filepath.Join(path, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	log.Printf("Loading obstacles from %d files...\n", len(files))

	var all []planner.Obstacle
	for _, file := range files {
		obstacles, err := loadFile(file)
		if err != nil {
			log.Printf("⚠️  Failed to load %s: %v\n", file, err)
			continue
		}
		all = append(all, obstacles...)
		log.Printf("   ✅ Loaded %d obstacles from %s\n", len(obstacles), filepath.Base(file))
	}

	log.Printf("Total obstacles loaded: %d\n", len(all))
	return all, nil
}

func loadFile(filename string) ([]planner.Obstacle, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return LoadCSV(filename)
	case ".geojson", ".json":
		return LoadGeoJSON(filename)
	default:
		return nil, fmt.Errorf("unsupported obstacle file %s", filepath.Base(filename))
	}
}

// IsObstacleFile reports whether path has an extension Load understands
func IsObstacleFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".geojson", ".json":
		return true
	}
	return false
}
