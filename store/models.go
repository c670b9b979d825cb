package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"roadmap-planner/planner"
)

// BuildRecord is one roadmap construction
type BuildRecord struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Samples    int       `json:"samples"`
	Attempts   int       `json:"attempts"`
	Vertices   int       `json:"vertices"`
	Edges      int       `json:"edges"`
	Rejected   int       `json:"rejected"`
	Pruned     int       `json:"pruned"`
	DurationMS int64     `json:"duration_ms"`
	Policy     string    `json:"policy"`
}

// QueryRecord is one path query against a roadmap
type QueryRecord struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	BuildID   string    `gorm:"size:36;index" json:"build_id"`
	Kind      string    `gorm:"size:16;index" json:"kind"` // "route" or "chase"
	StartX    float64   `json:"start_x"`
	StartY    float64   `json:"start_y"`
	GoalX     float64   `json:"goal_x"`
	GoalY     float64   `json:"goal_y"`
	Found     bool      `json:"found"`
	Waypoints int       `json:"waypoints"`
	Length    float64   `json:"length"`
}

// NewBuildRecord describes a finished build
func NewBuildRecord(stats planner.BuildStats, policy planner.ConnectionPolicy) BuildRecord {
	return BuildRecord{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now(),
		Samples:    stats.Sampling.Accepted,
		Attempts:   stats.Sampling.Attempts,
		Vertices:   stats.Vertices,
		Edges:      stats.Edges,
		Rejected:   stats.RejectedEdges,
		Pruned:     stats.PrunedArcs,
		DurationMS: stats.Duration.Milliseconds(),
		Policy:     string(policy),
	}
}

// NewQueryRecord describes a finished query; an empty path means none was found
func NewQueryRecord(buildID, kind string, start, goal [2]float64, path planner.Path) QueryRecord {
	return QueryRecord{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		BuildID:   buildID,
		Kind:      kind,
		StartX:    start[0],
		StartY:    start[1],
		GoalX:     goal[0],
		GoalY:     goal[1],
		Found:     !path.Empty(),
		Waypoints: len(path),
		Length:    path.Length(),
	}
}

// SaveBuild stores a build record
func SaveBuild(db *gorm.DB, rec BuildRecord) error {
	return db.Create(&rec).Error
}

// RecentQueries returns the newest query records first
func RecentQueries(db *gorm.DB, limit int) ([]QueryRecord, error) {
	var records []QueryRecord
	err := db.Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
