package scene

import (
	"fmt"
	"log"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"roadmap-planner/planner"
)

// LoadGeoJSON reads obstacles from a GeoJSON FeatureCollection. The outer
// ring of every Polygon and MultiPolygon member becomes one box obstacle
// covering the ring's bounding box.
func LoadGeoJSON(filename string) ([]planner.Obstacle, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read obstacle file: %w", err)
	}
	return ParseGeoJSON(data)
}

// ParseGeoJSON converts the polygons of a FeatureCollection into box obstacles
func ParseGeoJSON(data []byte) ([]planner.Obstacle, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse obstacle geojson: %w", err)
	}

	var obstacles []planner.Obstacle
	for _, feature := range fc.Features {
		obstacles = append(obstacles, geometryObstacles(feature.Geometry)...)
	}
	return obstacles, nil
}

// geometryObstacles converts one geometry; other geometry types are ignored
func geometryObstacles(geometry orb.Geometry) []planner.Obstacle {
	var obstacles []planner.Obstacle

	switch g := geometry.(type) {
	case orb.Polygon:
		if obs, ok := ringObstacle(g); ok {
			obstacles = append(obstacles, obs)
		}
	case orb.MultiPolygon:
		for _, poly := range g {
			if obs, ok := ringObstacle(poly); ok {
				obstacles = append(obstacles, obs)
			}
		}
	default:
		if geometry != nil {
			log.Printf("   ⚠️  Ignoring %s geometry\n", geometry.GeoJSONType())
		}
	}

	return obstacles
}

// ringObstacle boxes the outer ring of a polygon
func ringObstacle(poly orb.Polygon) (planner.Obstacle, bool) {
	if len(poly) == 0 || len(poly[0]) == 0 {
		return planner.Obstacle{}, false
	}
	b := poly[0].Bound()
	return planner.NewBoxObstacle(b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y()), true
}
