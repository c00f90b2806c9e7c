package movement

import (
	"math"
	"testing"

	"github.com/AIchemizt/dance-analysis-server/internal/models"
)

var testCfg = Config{VisibilityThreshold: 0.5, PeakStdMultiplier: 2.0}

// baseJoints is a neutral standing figure with torso height 0.3.
func baseJoints() map[string][2]float64 {
	return map[string][2]float64{
		models.LeftShoulder:  {0.5, 0.3},
		models.RightShoulder: {0.7, 0.3},
		models.LeftElbow:     {0.4, 0.45},
		models.RightElbow:    {0.8, 0.45},
		models.LeftWrist:     {0.45, 0.6},
		models.RightWrist:    {0.75, 0.6},
		models.LeftHip:       {0.5, 0.6},
		models.RightHip:      {0.7, 0.6},
		models.LeftKnee:      {0.5, 0.75},
		models.RightKnee:     {0.7, 0.75},
		models.LeftAnkle:     {0.5, 0.9},
		models.RightAnkle:    {0.7, 0.9},
	}
}

func buildFrame(n int, joints map[string][2]float64, visibility float64) models.FrameObservation {
	landmarks := make(map[string]models.Landmark, len(joints))
	for name, xy := range joints {
		landmarks[name] = models.Landmark{X: xy[0], Y: xy[1], Visibility: visibility}
	}
	return models.FrameObservation{Frame: n, Landmarks: landmarks}
}

// sequence builds n frames, calling step to mutate the joint map between
// frames. step may be nil for a static sequence.
func sequence(n int, step func(frame int, joints map[string][2]float64)) []models.FrameObservation {
	joints := baseJoints()
	frames := make([]models.FrameObservation, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 && step != nil {
			step(i, joints)
		}
		frames = append(frames, buildFrame(i, joints, 0.95))
	}
	return frames
}

func TestStaticSequence(t *testing.T) {
	stats := Analyze(sequence(5, nil), testCfg)

	for joint, intensity := range stats.Intensity {
		if intensity != 0 {
			t.Errorf("static %s has intensity %v, want exactly 0", joint, intensity)
		}
	}
	if stats.SymmetryScore == nil {
		t.Fatal("static sequence should have a defined symmetry score")
	}
	if *stats.SymmetryScore != 1.0 {
		t.Errorf("symmetry = %v, want 1.0 for a motionless subject", *stats.SymmetryScore)
	}
	if len(stats.HighMovementFrames) != 0 {
		t.Errorf("static sequence flagged peaks: %v", stats.HighMovementFrames)
	}
}

func TestIntensityRanksMovingJoints(t *testing.T) {
	frames := sequence(6, func(_ int, joints map[string][2]float64) {
		for _, wrist := range []string{models.LeftWrist, models.RightWrist} {
			xy := joints[wrist]
			joints[wrist] = [2]float64{xy[0], xy[1] - 0.1}
		}
	})

	stats := Analyze(frames, testCfg)
	if stats.Intensity[models.LeftWrist] <= stats.Intensity[models.LeftAnkle] {
		t.Errorf("moving wrist (%v) should beat static ankle (%v)",
			stats.Intensity[models.LeftWrist], stats.Intensity[models.LeftAnkle])
	}
	if stats.Intensity[models.LeftAnkle] != 0 {
		t.Errorf("static ankle intensity = %v, want 0", stats.Intensity[models.LeftAnkle])
	}
}

func TestSymmetryMirroredMovementIsPerfect(t *testing.T) {
	frames := sequence(6, func(_ int, joints map[string][2]float64) {
		for _, wrist := range []string{models.LeftWrist, models.RightWrist} {
			xy := joints[wrist]
			joints[wrist] = [2]float64{xy[0], xy[1] - 0.02}
		}
	})

	stats := Analyze(frames, testCfg)
	if stats.SymmetryScore == nil {
		t.Fatal("symmetry should be defined")
	}
	if math.Abs(*stats.SymmetryScore-1.0) > 1e-9 {
		t.Errorf("mirrored movement symmetry = %v, want 1.0", *stats.SymmetryScore)
	}
}

func TestSymmetryPenalizesOneSidedMovement(t *testing.T) {
	lopsided := sequence(6, func(_ int, joints map[string][2]float64) {
		l, r := joints[models.LeftWrist], joints[models.RightWrist]
		joints[models.LeftWrist] = [2]float64{l[0], l[1] - 0.02}
		joints[models.RightWrist] = [2]float64{r[0], r[1] - 0.01}
	})

	stats := Analyze(lopsided, testCfg)
	if stats.SymmetryScore == nil {
		t.Fatal("symmetry should be defined")
	}

	// Wrist pair scores 1 - 0.01/0.03 = 2/3; the five still pairs score
	// 1.0; mean is 17/18.
	want := 17.0 / 18.0
	if math.Abs(*stats.SymmetryScore-want) > 1e-6 {
		t.Errorf("symmetry = %v, want %v", *stats.SymmetryScore, want)
	}
}

func TestSymmetrySwapInvariant(t *testing.T) {
	leftDominant := sequence(6, func(_ int, joints map[string][2]float64) {
		l, r := joints[models.LeftWrist], joints[models.RightWrist]
		joints[models.LeftWrist] = [2]float64{l[0], l[1] - 0.02}
		joints[models.RightWrist] = [2]float64{r[0], r[1] - 0.01}
	})
	rightDominant := sequence(6, func(_ int, joints map[string][2]float64) {
		l, r := joints[models.LeftWrist], joints[models.RightWrist]
		joints[models.LeftWrist] = [2]float64{l[0], l[1] - 0.01}
		joints[models.RightWrist] = [2]float64{r[0], r[1] - 0.02}
	})

	a := Analyze(leftDominant, testCfg)
	b := Analyze(rightDominant, testCfg)
	if a.SymmetryScore == nil || b.SymmetryScore == nil {
		t.Fatal("symmetry should be defined for both sequences")
	}
	if math.Abs(*a.SymmetryScore-*b.SymmetryScore) > 1e-9 {
		t.Errorf("swapping sides changed the score: %v vs %v", *a.SymmetryScore, *b.SymmetryScore)
	}
}

func TestTooFewFrames(t *testing.T) {
	stats := Analyze(sequence(1, nil), testCfg)
	if len(stats.Intensity) != 0 || stats.SymmetryScore != nil || len(stats.HighMovementFrames) != 0 {
		t.Errorf("single-frame sequence should yield empty statistics: %+v", stats)
	}
}

func TestAllLandmarksOccluded(t *testing.T) {
	joints := baseJoints()
	frames := []models.FrameObservation{
		buildFrame(0, joints, 0.1),
		buildFrame(1, joints, 0.1),
		buildFrame(2, joints, 0.1),
	}

	stats := Analyze(frames, testCfg)
	if len(stats.Intensity) != 0 {
		t.Errorf("occluded joints produced intensity: %v", stats.Intensity)
	}
	if stats.SymmetryScore != nil {
		t.Errorf("symmetry with no usable pairs should be nil, got %v", *stats.SymmetryScore)
	}
}

func TestHighMovementFrameDetection(t *testing.T) {
	// Low baseline jitter with one sharp jump between frames 4 and 5; the
	// jump must be attributed to frame 5.
	frames := sequence(10, func(frame int, joints map[string][2]float64) {
		step := 0.001
		if frame == 5 {
			step = 0.2
		}
		for _, wrist := range []string{models.LeftWrist, models.RightWrist} {
			xy := joints[wrist]
			joints[wrist] = [2]float64{xy[0], xy[1] - step}
		}
	})

	stats := Analyze(frames, testCfg)
	if len(stats.HighMovementFrames) != 1 || stats.HighMovementFrames[0] != 5 {
		t.Errorf("high movement frames = %v, want [5]", stats.HighMovementFrames)
	}
}

func TestDisplacementSeries(t *testing.T) {
	frames := sequence(10, func(frame int, joints map[string][2]float64) {
		step := 0.001
		if frame == 5 {
			step = 0.2
		}
		for _, wrist := range []string{models.LeftWrist, models.RightWrist} {
			xy := joints[wrist]
			joints[wrist] = [2]float64{xy[0], xy[1] - step}
		}
	})

	stats := Analyze(frames, testCfg)
	if len(stats.FrameDisplacement) != 9 {
		t.Fatalf("series length = %d, want 9", len(stats.FrameDisplacement))
	}
	for i, sample := range stats.FrameDisplacement {
		if sample.Frame != i+1 {
			t.Fatalf("sample %d attributed to frame %d, want %d", i, sample.Frame, i+1)
		}
	}

	// Both wrists jumped 0.2 against a torso scale of 0.3.
	jump := stats.FrameDisplacement[4]
	if jump.Frame != 5 || math.Abs(jump.Value-0.4/0.3) > 1e-9 {
		t.Errorf("jump sample = %+v, want frame 5 value %v", jump, 0.4/0.3)
	}
	if base := stats.FrameDisplacement[0].Value; base >= jump.Value {
		t.Errorf("baseline sample %v not below the jump %v", base, jump.Value)
	}
}
