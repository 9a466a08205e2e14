package birch

import "time"

// EventType represents the lifecycle phases of a tree operation
type EventType string

const (
	EventGrowStart EventType = "grow_start"
	EventGrowEnd   EventType = "grow_end"
	EventExecStart EventType = "exec_start"
	EventExecEnd   EventType = "exec_end"
	EventNestStart EventType = "nest_start"
	EventNestEnd   EventType = "nest_end"
)

// Event represents a lifecycle event of one request
type Event struct {
	Type      EventType   // Type of event
	RequestID string      // Request ID for tracing
	Timestamp time.Time   // When the event occurred
	Data      interface{} // Phase-specific data (tables, column count, row count)
}

// Observer interface for event subscribers
type Observer interface {
	OnEvent(event Event)
}
