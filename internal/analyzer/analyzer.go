// Package analyzer runs the full analysis pipeline over one landmark
// sequence: per-frame classification, temporal confirmation, movement
// analysis, and aggregation into the final report. A run holds no shared
// state, so concurrent runs over different sequences are safe as long as
// they use separate Analyzer values or the same immutable pose library.
package analyzer

import (
	"fmt"
	"math"
	"sort"

	"github.com/AIchemizt/dance-analysis-server/internal/classifier"
	"github.com/AIchemizt/dance-analysis-server/internal/models"
	"github.com/AIchemizt/dance-analysis-server/internal/movement"
	"github.com/AIchemizt/dance-analysis-server/internal/temporal"
)

// Config is the analysis configuration surface. It is validated once at
// construction; a bad configuration is the only condition that aborts.
type Config struct {
	// MinConsecutiveFrames is the temporal filter's confirmation length k.
	// At 30fps, k=3 trades ~0.1s of detection latency for jitter
	// suppression.
	MinConsecutiveFrames int

	// VisibilityThreshold discards landmarks below this detector
	// confidence.
	VisibilityThreshold float64

	// PeakStdMultiplier sets the high-movement statistical cutoff.
	PeakStdMultiplier float64

	// AssumedFPS supplies the frame rate when the caller gives neither an
	// explicit fps nor timestamps.
	AssumedFPS float64
}

// DefaultConfig mirrors the tolerances the pose library was tuned with.
func DefaultConfig() Config {
	return Config{
		MinConsecutiveFrames: 3,
		VisibilityThreshold:  0.5,
		PeakStdMultiplier:    2.0,
		AssumedFPS:           30,
	}
}

func (c Config) validate() error {
	if c.MinConsecutiveFrames < 1 {
		return fmt.Errorf("min_consecutive_frames must be at least 1, got %d", c.MinConsecutiveFrames)
	}
	if c.VisibilityThreshold < 0 || c.VisibilityThreshold > 1 {
		return fmt.Errorf("visibility_threshold %v outside [0,1]", c.VisibilityThreshold)
	}
	if c.PeakStdMultiplier < 0 {
		return fmt.Errorf("peak_std_multiplier must not be negative, got %v", c.PeakStdMultiplier)
	}
	if c.AssumedFPS <= 0 {
		return fmt.Errorf("assumed_fps must be positive, got %v", c.AssumedFPS)
	}
	return nil
}

// Analyzer binds a pose library to an analysis configuration. One Analyzer
// may serve many runs; per-run state lives on the stack of Run.
type Analyzer struct {
	lib *models.PoseLibrary
	cfg Config
}

// New validates the configuration and pose library (including expression
// compilation) and returns a ready Analyzer.
func New(lib *models.PoseLibrary, cfg Config) (*Analyzer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	// Compile-check the library now so malformed expressions abort at
	// load time instead of the first request.
	if _, err := classifier.New(lib, cfg.VisibilityThreshold); err != nil {
		return nil, err
	}
	return &Analyzer{lib: lib, cfg: cfg}, nil
}

// Run analyzes one ordered landmark sequence and returns the report.
// fps may be zero; duration then falls back to the last timestamp, then to
// the configured assumed frame rate.
func (a *Analyzer) Run(frames []models.FrameObservation, fps float64) (*models.AnalysisReport, error) {
	cls, err := classifier.New(a.lib, a.cfg.VisibilityThreshold)
	if err != nil {
		return nil, err
	}
	filter := temporal.NewFilter(a.cfg.MinConsecutiveFrames)

	var events []temporal.Event
	for i := range frames {
		for _, match := range cls.EvaluateFrame(&frames[i]) {
			if event := filter.Observe(match.Frame, match.Pose, match.Matched, match.Confidence); event != nil {
				events = append(events, *event)
			}
		}
	}
	events = append(events, filter.Flush()...)

	stats := movement.Analyze(frames, movement.Config{
		VisibilityThreshold: a.cfg.VisibilityThreshold,
		PeakStdMultiplier:   a.cfg.PeakStdMultiplier,
	})

	return a.aggregate(frames, fps, events, stats), nil
}

// aggregate merges confirmed events and movement statistics into the
// report. Pure function of its inputs; rounding is part of the report
// contract (confidence 3dp, intensity 4dp, duration 2dp).
func (a *Analyzer) aggregate(frames []models.FrameObservation, fps float64, events []temporal.Event, stats movement.Statistics) *models.AnalysisReport {
	report := &models.AnalysisReport{
		TotalFrames:   len(frames),
		DetectedPoses: map[string]models.PoseSummary{},
		MovementAnalysis: models.MovementAnalysis{
			MovementIntensity:  map[string]float64{},
			HighMovementFrames: stats.HighMovementFrames,
			FrameDisplacement:  stats.FrameDisplacement,
		},
	}

	report.DurationSeconds = round(a.duration(frames, fps), 2)

	type poseAccum struct {
		frames        []int
		confidenceSum float64
		frameCount    int
	}
	accum := map[string]*poseAccum{}
	for _, event := range events {
		pa, ok := accum[event.Pose]
		if !ok {
			pa = &poseAccum{}
			accum[event.Pose] = pa
		}
		for frame := event.StartFrame; frame <= event.EndFrame; frame++ {
			pa.frames = append(pa.frames, frame)
		}
		pa.confidenceSum += event.AverageConfidence * float64(event.FrameCount)
		pa.frameCount += event.FrameCount
	}

	for pose, pa := range accum {
		sort.Ints(pa.frames)
		report.DetectedPoses[pose] = models.PoseSummary{
			Frames:            pa.frames,
			Count:             len(pa.frames),
			AverageConfidence: round(pa.confidenceSum/float64(pa.frameCount), 3),
		}
	}

	for joint, intensity := range stats.Intensity {
		report.MovementAnalysis.MovementIntensity[joint] = round(intensity, 4)
	}
	if stats.SymmetryScore != nil {
		score := round(*stats.SymmetryScore, 3)
		report.MovementAnalysis.SymmetryScore = &score
	}

	return report
}

func (a *Analyzer) duration(frames []models.FrameObservation, fps float64) float64 {
	if len(frames) == 0 {
		return 0
	}
	if fps > 0 {
		return float64(len(frames)) / fps
	}
	if last := frames[len(frames)-1].Timestamp; last > 0 {
		return last
	}
	return float64(len(frames)) / a.cfg.AssumedFPS
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
