package models

import "time"

// Capture is a recorded bus session stored for replay.
type Capture struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SourcePath string    `json:"source_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	EventCount int       `json:"event_count"`
}
