package config

// Config holds render and preview settings.
type Config struct {
	StoryPath     string
	PlanPath      string
	OutputVideo   string
	Width         int
	Height        int
	FPS           int
	Workers       int
	AudioPath     string
	DPI           int
	VideoEncoder  string
	Quality       int
	ReducedMotion bool
	StaticText    bool
	Debounce      float64
	ShowStats     bool
	BuildVersion  string
}

// Default returns the baseline settings used by every command.
func Default() Config {
	return Config{
		Width:        1280,
		Height:       720,
		FPS:          30,
		Workers:      4,
		DPI:          150,
		VideoEncoder: "libx264",
		Quality:      23,
		Debounce:     0.15,
	}
}
