package models

import (
	"encoding/json"
	"time"
)

// AnalysisRun is a persisted analysis result. The full report is stored as
// a JSON blob; the summary columns exist so listings never need to parse it.
type AnalysisRun struct {
	ID              string          `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt       time.Time       `json:"created_at"`
	Source          string          `json:"source"`
	TotalFrames     int             `json:"total_frames"`
	DurationSeconds float64         `json:"duration_seconds"`
	SymmetryScore   *float64        `json:"symmetry_score"`
	Report          json.RawMessage `gorm:"type:jsonb" json:"report,omitempty"`

	// Displacement holds the per-frame displacement series as JSON. It is
	// stored beside the report rather than inside it so the report blob
	// keeps the exact shape the analyze endpoint returns.
	Displacement json.RawMessage `gorm:"type:jsonb" json:"displacement,omitempty"`
}
