package models

import "fmt"

// PoseSummary aggregates the confirmed events of one pose across a run.
type PoseSummary struct {
	Frames            []int   `json:"frames"`
	Count             int     `json:"count"`
	AverageConfidence float64 `json:"average_confidence"`
}

// MovementAnalysis carries the movement statistics of one run. The
// symmetry score is a pointer so that "no mirrored pair had usable data"
// serializes as null, distinguishable from a genuine 0.0.
type MovementAnalysis struct {
	MovementIntensity  map[string]float64 `json:"movement_intensity"`
	SymmetryScore      *float64           `json:"symmetry_score"`
	HighMovementFrames []int              `json:"high_movement_frames"`

	// FrameDisplacement is the per-frame total-body displacement series
	// the high-movement frames were cut from. It feeds persistence and
	// chart rendering but is not part of the report body.
	FrameDisplacement []DisplacementSample `json:"-"`
}

// DisplacementSample is one frame's total normalized displacement,
// attributed to the later frame of the pair it was measured between.
type DisplacementSample struct {
	Frame int     `json:"frame"`
	Value float64 `json:"value"`
}

// AnalysisReport is the sole externally visible artifact of an analysis
// run. Its field set and nesting match the JSON shape documented for the
// host API.
type AnalysisReport struct {
	TotalFrames      int                    `json:"total_frames"`
	DurationSeconds  float64                `json:"duration_seconds"`
	DetectedPoses    map[string]PoseSummary `json:"detected_poses"`
	MovementAnalysis MovementAnalysis       `json:"movement_analysis"`
}

// AnalysisRequest is the landmark sequence a caller submits for analysis,
// either over the API or from a file via the batch CLI.
type AnalysisRequest struct {
	Source string             `json:"source,omitempty"`
	FPS    float64            `json:"fps,omitempty"`
	Frames []FrameObservation `json:"frames"`
}

// Validate rejects requests the pipeline cannot interpret: frame indices
// must be strictly increasing and contiguous so temporal filtering and
// displacement tracking line up.
func (r *AnalysisRequest) Validate() error {
	if len(r.Frames) == 0 {
		return fmt.Errorf("no frames provided")
	}
	if r.FPS < 0 {
		return fmt.Errorf("fps must not be negative")
	}
	for i := 1; i < len(r.Frames); i++ {
		if r.Frames[i].Frame != r.Frames[i-1].Frame+1 {
			return fmt.Errorf("frame indices not contiguous at position %d (%d after %d)",
				i, r.Frames[i].Frame, r.Frames[i-1].Frame)
		}
	}
	return nil
}
