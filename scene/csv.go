package scene

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"roadmap-planner/planner"
)

// fieldsPerRecord is four (x, y) corner pairs
const fieldsPerRecord = 8

// ParseCSV reads box obstacles, one per record. Records with the wrong
// number of fields or with values that are not numbers are skipped and
// counted.
func ParseCSV(r io.Reader) ([]planner.Obstacle, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var obstacles []planner.Obstacle
	skipped := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, skipped, fmt.Errorf("read obstacle csv: %w", err)
		}

		obs, ok := parseRecord(record)
		if !ok {
			skipped++
			continue
		}
		obstacles = append(obstacles, obs)
	}

	return obstacles, skipped, nil
}

func parseRecord(record []string) (planner.Obstacle, bool) {
	if len(record) != fieldsPerRecord {
		return planner.Obstacle{}, false
	}

	var values [fieldsPerRecord]float64
	for i, field := range record {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return planner.Obstacle{}, false
		}
		values[i] = v
	}

	var corners [4]orb.Point
	for i := range corners {
		corners[i] = orb.Point{values[2*i], values[2*i+1]}
	}
	return planner.NewObstacle(corners), true
}

// LoadCSV reads box obstacles from a CSV file
func LoadCSV(filename string) ([]planner.Obstacle, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open obstacle file: %w", err)
	}
	defer f.Close()

	obstacles, skipped, err := ParseCSV(f)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		log.Printf("   ⚠️  Skipped %d malformed records in %s\n", skipped, filename)
	}
	return obstacles, nil
}
