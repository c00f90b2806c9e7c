// Package movement computes how the body moved across a landmark sequence,
// independently of pose classification: per-joint intensity, left/right
// symmetry, and statistically high-movement frames.
package movement

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/AIchemizt/dance-analysis-server/internal/geometry"
	"github.com/AIchemizt/dance-analysis-server/internal/models"
)

// Config carries the movement analyzer's tuning knobs.
type Config struct {
	// VisibilityThreshold discards landmarks the detector was not
	// confident about; their frames become missing samples, not zero
	// movement.
	VisibilityThreshold float64

	// PeakStdMultiplier sets the high-movement cutoff at
	// mean + multiplier*stddev of per-frame total displacement.
	PeakStdMultiplier float64
}

// Statistics is the movement half of the analysis report. SymmetryScore is
// nil when no mirrored joint pair had enough usable data, which is
// different from a genuine 0.0 (fully asymmetric). FrameDisplacement is
// the per-frame series the high-movement cutoff was applied to.
type Statistics struct {
	Intensity          map[string]float64
	SymmetryScore      *float64
	HighMovementFrames []int
	FrameDisplacement  []models.DisplacementSample
}

// pairResult mirrors the calculated-or-not sentinel used throughout the
// pipeline: a similarity only counts when it was computable.
type pairResult struct {
	Value      float64
	Calculated bool
	SampleSize int
}

// Analyze computes movement statistics over a full observation sequence.
// Sequences shorter than 2 frames yield empty statistics, never an error.
func Analyze(frames []models.FrameObservation, cfg Config) Statistics {
	stats := Statistics{
		Intensity:          map[string]float64{},
		HighMovementFrames: []int{},
	}
	if len(frames) < 2 {
		return stats
	}

	scale := runScale(frames, cfg.VisibilityThreshold)

	// Per-joint displacement series, aligned so index i holds the
	// movement observed between frames i-1 and i.
	n := len(frames)
	displacement := make(map[string][]float64, len(models.MovementJoints))
	valid := make(map[string][]bool, len(models.MovementJoints))
	for _, joint := range models.MovementJoints {
		displacement[joint] = make([]float64, n)
		valid[joint] = make([]bool, n)
	}

	for i := 1; i < n; i++ {
		for _, joint := range models.MovementJoints {
			prev, okPrev := frames[i-1].Landmark(joint)
			curr, okCurr := frames[i].Landmark(joint)
			if !okPrev || !okCurr {
				continue
			}
			d, ok := geometry.Distance(prev, curr, cfg.VisibilityThreshold)
			if !ok {
				continue
			}
			displacement[joint][i] = d / scale
			valid[joint][i] = true
		}
	}

	for _, joint := range models.MovementJoints {
		var sum float64
		var count int
		for i := 1; i < n; i++ {
			if valid[joint][i] {
				sum += displacement[joint][i]
				count++
			}
		}
		if count > 0 {
			stats.Intensity[joint] = sum / float64(count)
		}
	}

	stats.SymmetryScore = symmetryScore(displacement, valid, n)
	stats.FrameDisplacement = displacementSeries(frames, displacement, valid)
	stats.HighMovementFrames = highMovementFrames(stats.FrameDisplacement, cfg.PeakStdMultiplier)

	return stats
}

// runScale averages the per-frame body-scale reference over the sequence
// so one noisy frame cannot skew normalization.
func runScale(frames []models.FrameObservation, minVisibility float64) float64 {
	var refs []float64
	for i := range frames {
		if ref, ok := geometry.ScaleReference(&frames[i], minVisibility); ok {
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		return geometry.DefaultScaleReference
	}
	s := stat.Mean(refs, nil)
	if s < 1e-9 {
		return geometry.DefaultScaleReference
	}
	return s
}

// symmetryScore compares each left joint's displacement profile against
// its mirrored right counterpart over the frames where both were tracked.
// Per pair: 1 - sum|l-r| / (sum l + sum r), which is 1.0 for identical
// profiles, 0.0 for fully one-sided movement, and strictly decreases when
// one side's movement is scaled up relative to the other.
func symmetryScore(displacement map[string][]float64, valid map[string][]bool, n int) *float64 {
	var pairScores []float64

	for _, pair := range models.MirroredJointPairs {
		result := pairSimilarity(displacement[pair[0]], displacement[pair[1]], valid[pair[0]], valid[pair[1]], n)
		if result.Calculated {
			pairScores = append(pairScores, result.Value)
		}
	}

	if len(pairScores) == 0 {
		return nil
	}
	score := stat.Mean(pairScores, nil)
	return &score
}

func pairSimilarity(left, right []float64, leftValid, rightValid []bool, n int) pairResult {
	var diff, total float64
	var samples int
	for i := 1; i < n; i++ {
		if !leftValid[i] || !rightValid[i] {
			continue
		}
		diff += math.Abs(left[i] - right[i])
		total += left[i] + right[i]
		samples++
	}

	if samples == 0 {
		return pairResult{Calculated: false}
	}
	if total < 1e-9 {
		// Both sides held still: identical (zero) profiles.
		return pairResult{Value: 1.0, Calculated: true, SampleSize: samples}
	}

	score := 1 - diff/total
	if score < 0 {
		score = 0
	}
	return pairResult{Value: score, Calculated: true, SampleSize: samples}
}

// displacementSeries sums each frame's per-joint displacement into the
// total-body movement attributed to that frame.
func displacementSeries(frames []models.FrameObservation, displacement map[string][]float64, valid map[string][]bool) []models.DisplacementSample {
	n := len(frames)
	series := make([]models.DisplacementSample, 0, n-1)
	for i := 1; i < n; i++ {
		var total float64
		for _, joint := range models.MovementJoints {
			if valid[joint][i] {
				total += displacement[joint][i]
			}
		}
		series = append(series, models.DisplacementSample{Frame: frames[i].Frame, Value: total})
	}
	return series
}

// highMovementFrames flags frames whose total-body displacement exceeds
// mean + multiplier*stddev across the sequence; spins, jumps, and dramatic
// gestures stand out this way regardless of the subject's baseline energy.
func highMovementFrames(series []models.DisplacementSample, multiplier float64) []int {
	if len(series) < 2 {
		return []int{}
	}

	velocities := make([]float64, len(series))
	for i, sample := range series {
		velocities[i] = sample.Value
	}

	mean := stat.Mean(velocities, nil)
	stddev := stat.StdDev(velocities, nil)
	if math.IsNaN(stddev) {
		stddev = 0
	}
	threshold := mean + multiplier*stddev

	peaks := []int{}
	for _, sample := range series {
		if sample.Value > threshold {
			peaks = append(peaks, sample.Frame)
		}
	}
	return peaks
}
