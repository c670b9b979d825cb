package planner

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// WriteDump writes the human-readable roadmap dump, one line per vertex:
//
//	Point <id>: (<x>, <y>), Connections: <id> (<x>,<y>), ...
func WriteDump(w io.Writer, rm *Roadmap) error {
	bw := bufio.NewWriter(w)
	for _, v := range rm.Vertices() {
		fmt.Fprintf(bw, "Point %d: (%g, %g), Connections:", v.ID, v.Config.X(), v.Config.Y())
		for i, e := range v.Edges {
			n, _ := rm.Vertex(e.To)
			sep := ","
			if i == 0 {
				sep = ""
			}
			fmt.Fprintf(bw, "%s %d (%g,%g)", sep, e.To, n.Config.X(), n.Config.Y())
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

// SaveDump writes the roadmap dump to a file
func SaveDump(rm *Roadmap, filename string) error {
	log.Printf("💾 Saving roadmap dump to %s...\n", filename)

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if err := WriteDump(f, rm); err != nil {
		return fmt.Errorf("failed to write dump: %w", err)
	}

	log.Printf("   ✅ Dump saved (%d vertices)\n", rm.VertexCount())
	return nil
}

// LineStrings returns the roadmap edges as segments for visualization
func LineStrings(rm *Roadmap) []orb.LineString {
	lines := make([]orb.LineString, 0)

	// Edges are usually bidirectional; emit each vertex pair once
	seen := make(map[[2]int]bool)

	for _, v := range rm.Vertices() {
		for _, e := range v.Edges {
			key := [2]int{v.ID, e.To}
			if e.To < v.ID {
				key = [2]int{e.To, v.ID}
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			n, _ := rm.Vertex(e.To)
			lines = append(lines, orb.LineString{v.Config, n.Config})
		}
	}

	return lines
}

// FeatureCollection exports vertices and edges as GeoJSON
func FeatureCollection(rm *Roadmap) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, v := range rm.Vertices() {
		f := geojson.NewFeature(v.Config)
		f.Properties["kind"] = "vertex"
		f.Properties["id"] = v.ID
		f.Properties["degree"] = len(v.Edges)
		fc.Append(f)
	}
	for _, ls := range LineStrings(rm) {
		f := geojson.NewFeature(ls)
		f.Properties["kind"] = "edge"
		f.Properties["cost"] = Distance(ls[0], ls[1])
		fc.Append(f)
	}

	return fc
}
