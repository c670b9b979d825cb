package sim

// Message types streamed to websocket clients
const (
	MessageTypeTick    = "tick"    // per-tick world snapshot
	MessageTypeRebuild = "rebuild" // roadmap rebuilt
	MessageTypeGoal    = "goal"    // goal moved or hidden flag changed
	MessageTypeStatus  = "status"  // full world state sent to a new client
)

// Message is the envelope broadcast to clients
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"` // Unix timestamp (ms)
}
