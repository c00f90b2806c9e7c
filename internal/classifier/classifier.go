// Package classifier evaluates data-driven pose definitions against single
// frames. The engine interprets criteria generically, so new poses are
// added to the library file, not to this code.
package classifier

import (
	"fmt"
	"math"

	"gopkg.in/Knetic/govaluate.v3"

	"github.com/AIchemizt/dance-analysis-server/internal/geometry"
	"github.com/AIchemizt/dance-analysis-server/internal/models"
)

// Match is the raw, per-frame outcome for one pose. Confidence is the
// fraction of criteria satisfied; Matched applies the pose's threshold.
// Multiple poses may match the same frame; arbitration is a downstream
// concern.
type Match struct {
	Frame      int
	Pose       string
	Matched    bool
	Confidence float64
}

// Classifier interprets a pose library. Output depends only on the frame's
// landmarks and the static definitions, which keeps frames independently
// testable. A Classifier is not safe for concurrent use; the analyzer
// creates one per run.
type Classifier struct {
	poses         []models.PoseDefinition
	exprs         [][]*govaluate.EvaluableExpression
	minVisibility float64

	// cur is the frame scope the expression helper functions read from.
	// Runs are single-threaded, so swapping it per frame is safe.
	cur frameScope
}

type frameScope struct {
	frame   *models.FrameObservation
	scale   float64
	scaleOK bool
}

// New builds a classifier from a validated pose library. Expression
// criteria are compiled here, so a malformed expression fails the run at
// configuration time rather than degrading silently per frame.
func New(lib *models.PoseLibrary, minVisibility float64) (*Classifier, error) {
	if minVisibility < 0 || minVisibility > 1 {
		return nil, fmt.Errorf("visibility threshold %v outside [0,1]", minVisibility)
	}
	if err := lib.Validate(); err != nil {
		return nil, err
	}

	c := &Classifier{
		poses:         lib.Poses,
		minVisibility: minVisibility,
	}
	funcs := c.expressionFunctions()

	c.exprs = make([][]*govaluate.EvaluableExpression, len(lib.Poses))
	for i := range lib.Poses {
		pose := &lib.Poses[i]
		c.exprs[i] = make([]*govaluate.EvaluableExpression, len(pose.Criteria))
		for j := range pose.Criteria {
			crit := &pose.Criteria[j]
			if crit.Kind != models.CriterionExpression {
				continue
			}
			expr, err := govaluate.NewEvaluableExpressionWithFunctions(crit.Expr, funcs)
			if err != nil {
				return nil, fmt.Errorf("pose %q criterion %d: invalid expression: %w", pose.Name, j, err)
			}
			// Every string literal in a pose expression names a joint.
			for _, token := range expr.Tokens() {
				if token.Kind != govaluate.STRING {
					continue
				}
				if name, ok := token.Value.(string); !ok || !models.IsKnownJoint(name) {
					return nil, fmt.Errorf("pose %q criterion %d: unknown joint %v in expression", pose.Name, j, token.Value)
				}
			}
			c.exprs[i][j] = expr
		}
	}

	return c, nil
}

// EvaluateFrame runs every pose definition against one frame and returns a
// match per pose, in library order.
func (c *Classifier) EvaluateFrame(frame *models.FrameObservation) []Match {
	scale, scaleOK := geometry.ScaleReference(frame, c.minVisibility)
	c.cur = frameScope{frame: frame, scale: scale, scaleOK: scaleOK}

	matches := make([]Match, 0, len(c.poses))
	for i := range c.poses {
		pose := &c.poses[i]

		met := 0
		for j := range pose.Criteria {
			if c.criterionMet(&pose.Criteria[j], c.exprs[i][j]) {
				met++
			}
		}

		confidence := float64(met) / float64(len(pose.Criteria))
		matches = append(matches, Match{
			Frame:      frame.Frame,
			Pose:       pose.Name,
			Matched:    confidence+1e-9 >= pose.MatchThreshold(),
			Confidence: confidence,
		})
	}
	return matches
}

// criterionMet evaluates a single criterion. Missing or low-visibility
// landmarks make the criterion unmet, never an error: data quality
// degrades into lower confidence, not failures.
func (c *Classifier) criterionMet(crit *models.Criterion, expr *govaluate.EvaluableExpression) bool {
	switch crit.Kind {
	case models.CriterionAngle:
		a, b, vertex3, ok := c.threeJoints(crit.Joints)
		if !ok {
			return false
		}
		deg, ok := geometry.Angle(a, b, vertex3, c.minVisibility)
		if !ok {
			return false
		}
		if crit.MinDegrees != nil && deg < *crit.MinDegrees {
			return false
		}
		if crit.MaxDegrees != nil && deg > *crit.MaxDegrees {
			return false
		}
		return true

	case models.CriterionDistance:
		if !c.cur.scaleOK {
			return false
		}
		a, b, ok := c.twoJoints(crit.Joints)
		if !ok {
			return false
		}
		var d float64
		switch crit.Axis {
		case "x":
			d = math.Abs(a.X - b.X)
		case "y":
			d = math.Abs(a.Y - b.Y)
		default:
			d, ok = geometry.Distance(a, b, c.minVisibility)
			if !ok {
				return false
			}
		}
		ratio := d / (c.cur.scale + 1e-9)
		if crit.MinRatio != nil && ratio < *crit.MinRatio {
			return false
		}
		if crit.MaxRatio != nil && ratio > *crit.MaxRatio {
			return false
		}
		return true

	case models.CriterionPosition:
		a, b, ok := c.twoJoints(crit.Joints)
		if !ok {
			return false
		}
		switch crit.Relation {
		case models.RelationAbove:
			return a.Y < b.Y
		case models.RelationBelow:
			return a.Y > b.Y
		case models.RelationLeftOf:
			return a.X < b.X
		case models.RelationRightOf:
			return a.X > b.X
		case models.RelationLevelWith:
			if !c.cur.scaleOK {
				return false
			}
			tolerance := crit.ToleranceRatio * c.cur.scale
			if crit.Axis == "x" {
				return math.Abs(a.X-b.X) < tolerance
			}
			return math.Abs(a.Y-b.Y) < tolerance
		}
		return false

	case models.CriterionExpression:
		params := map[string]interface{}{}
		if c.cur.scaleOK {
			params["scale"] = c.cur.scale
		}
		result, err := expr.Evaluate(params)
		if err != nil {
			// Undefined input somewhere in the expression (missing joint,
			// absent scale): unmet, not fatal.
			return false
		}
		b, ok := result.(bool)
		return ok && b
	}
	return false
}

func (c *Classifier) visibleJoint(name string) (models.Landmark, bool) {
	lm, ok := c.cur.frame.Landmark(name)
	if !ok || lm.Visibility < c.minVisibility {
		return models.Landmark{}, false
	}
	return lm, true
}

func (c *Classifier) twoJoints(names []string) (a, b models.Landmark, ok bool) {
	if a, ok = c.visibleJoint(names[0]); !ok {
		return
	}
	b, ok = c.visibleJoint(names[1])
	return
}

func (c *Classifier) threeJoints(names []string) (a, b, d models.Landmark, ok bool) {
	if a, ok = c.visibleJoint(names[0]); !ok {
		return
	}
	if b, ok = c.visibleJoint(names[1]); !ok {
		return
	}
	d, ok = c.visibleJoint(names[2])
	return
}

// expressionFunctions exposes the frame scope to expression criteria:
// x/y/angle/dist/xdist/ydist over quoted joint names, plus abs/min/max.
// Helpers return an error for joints below the visibility threshold, which
// the caller converts into "criterion unmet".
func (c *Classifier) expressionFunctions() map[string]govaluate.ExpressionFunction {
	joint := func(arg interface{}) (models.Landmark, error) {
		name, ok := arg.(string)
		if !ok {
			return models.Landmark{}, fmt.Errorf("joint argument must be a string")
		}
		lm, ok := c.visibleJoint(name)
		if !ok {
			return models.Landmark{}, fmt.Errorf("joint %q not visible", name)
		}
		return lm, nil
	}
	num := func(arg interface{}) (float64, error) {
		v, ok := arg.(float64)
		if !ok {
			return 0, fmt.Errorf("argument must be numeric")
		}
		return v, nil
	}

	return map[string]govaluate.ExpressionFunction{
		"x": func(args ...interface{}) (interface{}, error) {
			lm, err := joint(args[0])
			if err != nil {
				return nil, err
			}
			return lm.X, nil
		},
		"y": func(args ...interface{}) (interface{}, error) {
			lm, err := joint(args[0])
			if err != nil {
				return nil, err
			}
			return lm.Y, nil
		},
		"angle": func(args ...interface{}) (interface{}, error) {
			if len(args) != 3 {
				return nil, fmt.Errorf("angle takes 3 joints")
			}
			a, err := joint(args[0])
			if err != nil {
				return nil, err
			}
			b, err := joint(args[1])
			if err != nil {
				return nil, err
			}
			d, err := joint(args[2])
			if err != nil {
				return nil, err
			}
			deg, ok := geometry.Angle(a, b, d, c.minVisibility)
			if !ok {
				return nil, fmt.Errorf("angle undefined")
			}
			return deg, nil
		},
		"dist": func(args ...interface{}) (interface{}, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("dist takes 2 joints")
			}
			a, err := joint(args[0])
			if err != nil {
				return nil, err
			}
			b, err := joint(args[1])
			if err != nil {
				return nil, err
			}
			d, ok := geometry.Distance(a, b, c.minVisibility)
			if !ok {
				return nil, fmt.Errorf("distance undefined")
			}
			return d, nil
		},
		"xdist": func(args ...interface{}) (interface{}, error) {
			a, err := joint(args[0])
			if err != nil {
				return nil, err
			}
			b, err := joint(args[1])
			if err != nil {
				return nil, err
			}
			return math.Abs(a.X - b.X), nil
		},
		"ydist": func(args ...interface{}) (interface{}, error) {
			a, err := joint(args[0])
			if err != nil {
				return nil, err
			}
			b, err := joint(args[1])
			if err != nil {
				return nil, err
			}
			return math.Abs(a.Y - b.Y), nil
		},
		"abs": func(args ...interface{}) (interface{}, error) {
			v, err := num(args[0])
			if err != nil {
				return nil, err
			}
			return math.Abs(v), nil
		},
		"min": func(args ...interface{}) (interface{}, error) {
			a, err := num(args[0])
			if err != nil {
				return nil, err
			}
			b, err := num(args[1])
			if err != nil {
				return nil, err
			}
			return math.Min(a, b), nil
		},
		"max": func(args ...interface{}) (interface{}, error) {
			a, err := num(args[0])
			if err != nil {
				return nil, err
			}
			b, err := num(args[1])
			if err != nil {
				return nil, err
			}
			return math.Max(a, b), nil
		},
	}
}
