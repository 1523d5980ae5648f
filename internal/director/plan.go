package director

// PlanVersion is written into every plan file.
const PlanVersion = "1.0"

// Plan is a scripted scroll path for offline rendering.
type Plan struct {
	Version   string     `yaml:"version"`
	Story     string     `yaml:"story,omitempty"`
	Width     int        `yaml:"width"`
	Height    int        `yaml:"height"`
	Duration  float64    `yaml:"duration"` // Total duration in seconds
	Keyframes []Keyframe `yaml:"keyframes"`
}

// Keyframe pins the scroll offset at a moment of the plan.
type Keyframe struct {
	Time   float64 `yaml:"time"`   // Time offset in seconds
	Focus  string  `yaml:"focus"`  // What the viewport is showing
	Offset float64 `yaml:"offset"` // Document scroll offset in pixels
}
