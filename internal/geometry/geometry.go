// Package geometry provides the vector math under pose classification and
// movement analysis. Every function degrades to a (value, ok) pair instead
// of an error: a landmark below the visibility threshold makes the
// measurement undefined, and callers treat undefined as "criterion unmet".
package geometry

import (
	"math"

	"github.com/AIchemizt/dance-analysis-server/internal/models"
)

// DefaultScaleReference is the torso-height fallback when no frame in a
// sequence has both a visible shoulder and a visible hip. Normalized image
// coordinates put a typical torso around 0.3 of the frame height.
const DefaultScaleReference = 0.3

// epsilon guards divisions when two landmarks coincide.
const epsilon = 1e-9

// Angle returns the angle in degrees at vertex b formed by the rays b->a
// and b->c, in [0, 180]. The cosine is clamped before acos so floating
// point overshoot can never produce a domain error.
func Angle(a, b, c models.Landmark, minVisibility float64) (float64, bool) {
	if a.Visibility < minVisibility || b.Visibility < minVisibility || c.Visibility < minVisibility {
		return 0, false
	}

	bax := a.X - b.X
	bay := a.Y - b.Y
	bcx := c.X - b.X
	bcy := c.Y - b.Y

	dot := bax*bcx + bay*bcy
	magBA := math.Sqrt(bax*bax + bay*bay)
	magBC := math.Sqrt(bcx*bcx + bcy*bcy)

	cosine := dot / (magBA*magBC + epsilon)
	if cosine > 1 {
		cosine = 1
	} else if cosine < -1 {
		cosine = -1
	}

	return math.Acos(cosine) * 180 / math.Pi, true
}

// Distance returns the Euclidean distance between two landmarks in
// normalized coordinate space.
func Distance(a, b models.Landmark, minVisibility float64) (float64, bool) {
	if a.Visibility < minVisibility || b.Visibility < minVisibility {
		return 0, false
	}
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy), true
}

// ScaleReference estimates the subject's torso height from one frame:
// the shoulder-to-hip vertical span, averaged over whichever sides are
// visible. It makes distance criteria comparable across subjects and
// camera distances.
func ScaleReference(frame *models.FrameObservation, minVisibility float64) (float64, bool) {
	sides := [][2]string{
		{models.LeftShoulder, models.LeftHip},
		{models.RightShoulder, models.RightHip},
	}

	var sum float64
	var n int
	for _, side := range sides {
		shoulder, ok := frame.Landmark(side[0])
		if !ok || shoulder.Visibility < minVisibility {
			continue
		}
		hip, ok := frame.Landmark(side[1])
		if !ok || hip.Visibility < minVisibility {
			continue
		}
		sum += math.Abs(shoulder.Y - hip.Y)
		n++
	}

	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
