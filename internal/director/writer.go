package director

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WritePlan writes a plan to a YAML file
func WritePlan(plan *Plan, path string) error {
	data, err := yaml.Marshal(plan)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadPlan reads a plan from a YAML file and checks that its keyframes are
// usable for interpolation.
func ReadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}

	return &plan, nil
}

// Validate requires at least one keyframe, non-decreasing times and
// non-negative offsets.
func (p *Plan) Validate() error {
	if len(p.Keyframes) == 0 {
		return fmt.Errorf("no keyframes")
	}
	for i, kf := range p.Keyframes {
		if kf.Offset < 0 {
			return fmt.Errorf("keyframe %d: negative offset %.1f", i, kf.Offset)
		}
		if i > 0 && kf.Time < p.Keyframes[i-1].Time {
			return fmt.Errorf("keyframe %d: time %.2f before previous %.2f", i, kf.Time, p.Keyframes[i-1].Time)
		}
	}
	if end := p.Keyframes[len(p.Keyframes)-1].Time; p.Duration < end {
		p.Duration = end
	}
	return nil
}
