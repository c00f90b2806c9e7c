package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Criterion kinds understood by the rule engine.
const (
	CriterionAngle      = "angle"      // joint angle at a vertex, in degrees
	CriterionDistance   = "distance"   // scale-normalized distance between two joints
	CriterionPosition   = "position"   // relative placement of one joint against another
	CriterionExpression = "expression" // free-form boolean expression over the frame
)

// Position relations for CriterionPosition. "above"/"below" compare y in
// image coordinates (y grows downward), "left_of"/"right_of" compare x,
// and "level_with" bounds the difference on one axis by a fraction of the
// body scale.
const (
	RelationAbove     = "above"
	RelationBelow     = "below"
	RelationLeftOf    = "left_of"
	RelationRightOf   = "right_of"
	RelationLevelWith = "level_with"
)

// Criterion is one geometric test inside a pose definition. Which fields
// apply depends on Kind; Validate enforces the combinations.
type Criterion struct {
	Kind  string `yaml:"kind"`
	Label string `yaml:"label,omitempty"`

	// angle: exactly three joints (a, vertex, c), bounded in degrees.
	// distance and position: exactly two joints.
	Joints []string `yaml:"joints,omitempty"`

	MinDegrees *float64 `yaml:"min_degrees,omitempty"`
	MaxDegrees *float64 `yaml:"max_degrees,omitempty"`

	// distance: axis "x", "y" or "" (euclidean); bounds are fractions of
	// the body scale reference.
	Axis     string   `yaml:"axis,omitempty"`
	MinRatio *float64 `yaml:"min_ratio,omitempty"`
	MaxRatio *float64 `yaml:"max_ratio,omitempty"`

	// position
	Relation       string  `yaml:"relation,omitempty"`
	ToleranceRatio float64 `yaml:"tolerance_ratio,omitempty"`

	// expression: a govaluate boolean expression; see the classifier for
	// the available functions and variables.
	Expr string `yaml:"expr,omitempty"`
}

// PoseDefinition is a named pose described entirely by data; the rule
// engine interprets it generically so new poses need no code changes.
type PoseDefinition struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Criteria    []Criterion `yaml:"criteria"`

	// MinConfidence is the fraction of criteria that must hold for the
	// pose to count as matched. Defaults to 1.0 (all criteria).
	MinConfidence *float64 `yaml:"min_confidence,omitempty"`
}

// MatchThreshold returns the configured minimum confidence, defaulting to
// requiring every criterion.
func (p *PoseDefinition) MatchThreshold() float64 {
	if p.MinConfidence == nil {
		return 1.0
	}
	return *p.MinConfidence
}

// PoseLibrary holds the full set of pose definitions for a deployment.
type PoseLibrary struct {
	Poses []PoseDefinition `yaml:"poses"`
}

// LoadPoseLibrary reads and validates a poses.yaml file. A malformed
// library is the one condition that must abort startup, so every
// structural problem is reported here rather than skipped.
func LoadPoseLibrary(path string) (*PoseLibrary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pose library: %w", err)
	}

	var lib PoseLibrary
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pose library YAML: %w", err)
	}

	if err := lib.Validate(); err != nil {
		return nil, err
	}
	return &lib, nil
}

// Validate checks the structural invariants of every pose definition.
// Expression criteria are additionally compiled and checked by the
// classifier at construction time.
func (l *PoseLibrary) Validate() error {
	if len(l.Poses) == 0 {
		return fmt.Errorf("pose library defines no poses")
	}

	seen := make(map[string]struct{}, len(l.Poses))
	for i := range l.Poses {
		pose := &l.Poses[i]
		if pose.Name == "" {
			return fmt.Errorf("pose %d has no name", i)
		}
		if _, dup := seen[pose.Name]; dup {
			return fmt.Errorf("duplicate pose name %q", pose.Name)
		}
		seen[pose.Name] = struct{}{}

		if len(pose.Criteria) == 0 {
			return fmt.Errorf("pose %q has no criteria", pose.Name)
		}
		if pose.MinConfidence != nil && (*pose.MinConfidence < 0 || *pose.MinConfidence > 1) {
			return fmt.Errorf("pose %q: min_confidence %v outside [0,1]", pose.Name, *pose.MinConfidence)
		}

		for j := range pose.Criteria {
			if err := validateCriterion(&pose.Criteria[j]); err != nil {
				return fmt.Errorf("pose %q criterion %d: %w", pose.Name, j, err)
			}
		}
	}
	return nil
}

func validateCriterion(c *Criterion) error {
	for _, joint := range c.Joints {
		if !IsKnownJoint(joint) {
			return fmt.Errorf("unknown joint %q", joint)
		}
	}

	switch c.Kind {
	case CriterionAngle:
		if len(c.Joints) != 3 {
			return fmt.Errorf("angle criterion needs 3 joints, got %d", len(c.Joints))
		}
		if c.MinDegrees == nil && c.MaxDegrees == nil {
			return fmt.Errorf("angle criterion needs min_degrees or max_degrees")
		}
		for _, deg := range []*float64{c.MinDegrees, c.MaxDegrees} {
			if deg != nil && (*deg < 0 || *deg > 180) {
				return fmt.Errorf("degree bound %v outside [0,180]", *deg)
			}
		}
		if c.MinDegrees != nil && c.MaxDegrees != nil && *c.MinDegrees > *c.MaxDegrees {
			return fmt.Errorf("min_degrees %v exceeds max_degrees %v", *c.MinDegrees, *c.MaxDegrees)
		}

	case CriterionDistance:
		if len(c.Joints) != 2 {
			return fmt.Errorf("distance criterion needs 2 joints, got %d", len(c.Joints))
		}
		if c.Axis != "" && c.Axis != "x" && c.Axis != "y" {
			return fmt.Errorf("invalid axis %q", c.Axis)
		}
		if c.MinRatio == nil && c.MaxRatio == nil {
			return fmt.Errorf("distance criterion needs min_ratio or max_ratio")
		}
		for _, ratio := range []*float64{c.MinRatio, c.MaxRatio} {
			if ratio != nil && *ratio < 0 {
				return fmt.Errorf("negative ratio %v", *ratio)
			}
		}

	case CriterionPosition:
		if len(c.Joints) != 2 {
			return fmt.Errorf("position criterion needs 2 joints, got %d", len(c.Joints))
		}
		switch c.Relation {
		case RelationAbove, RelationBelow, RelationLeftOf, RelationRightOf:
		case RelationLevelWith:
			if c.Axis != "x" && c.Axis != "y" {
				return fmt.Errorf("level_with needs axis x or y")
			}
			if c.ToleranceRatio <= 0 {
				return fmt.Errorf("level_with needs a positive tolerance_ratio")
			}
		default:
			return fmt.Errorf("invalid relation %q", c.Relation)
		}

	case CriterionExpression:
		if c.Expr == "" {
			return fmt.Errorf("expression criterion has an empty expr")
		}

	default:
		return fmt.Errorf("unknown criterion kind %q", c.Kind)
	}
	return nil
}
