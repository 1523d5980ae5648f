package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAmount        = 10.0
	MaxAmount            = 20.0
	DefaultSectionHeight = 1.0
)

// Story is the page being choreographed.
type Story struct {
	Title    string    `yaml:"title,omitempty" toml:"title,omitempty"`
	Reveal   Pacing    `yaml:"reveal,omitempty" toml:"reveal,omitempty"`
	Sections []Section `yaml:"sections" toml:"sections"`

	// Dir is the directory the story was loaded from; relative background
	// references resolve against it.
	Dir string `yaml:"-" toml:"-"`
}

// Pacing overrides the reading-time estimate. Zero fields keep defaults.
type Pacing struct {
	SecondsPerWord  float64 `yaml:"secondsPerWord" toml:"secondsPerWord"`
	SpeedMultiplier float64 `yaml:"speed" toml:"speed"`
	MinHold         float64 `yaml:"minHold" toml:"minHold"`
	MaxHold         float64 `yaml:"maxHold" toml:"maxHold"`
}

// Section is one full-bleed panel of the page.
type Section struct {
	Background string   `yaml:"background" toml:"background"`
	Effect     string   `yaml:"effect,omitempty" toml:"effect,omitempty"`
	Amount     *float64 `yaml:"amount,omitempty" toml:"amount,omitempty"`
	Height     float64  `yaml:"height,omitempty" toml:"height,omitempty"` // in viewport heights
	Title      string   `yaml:"title,omitempty" toml:"title,omitempty"`
	Lines      []string `yaml:"lines,omitempty" toml:"lines,omitempty"`
	CTA        *CTA     `yaml:"cta,omitempty" toml:"cta,omitempty"`
}

// CTA is the call-to-action revealed last.
type CTA struct {
	Label string `yaml:"label" toml:"label"`
	URL   string `yaml:"url" toml:"url"`
}

// HasContent reports whether the section has a content wrapper to reveal.
func (s Section) HasContent() bool {
	return s.Title != "" || len(s.Lines) > 0
}

// IntensityAmount returns the configured amount or the default.
func (s Section) IntensityAmount() float64 {
	if s.Amount == nil {
		return DefaultAmount
	}
	return *s.Amount
}

// LoadStory reads a story from YAML (.yaml/.yml) or TOML (.toml).
func LoadStory(path string) (*Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var story Story
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &story); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &story); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported story format %q", filepath.Ext(path))
	}

	story.Dir = filepath.Dir(path)
	story.ApplyDefaults()
	if err := story.Validate(); err != nil {
		return nil, fmt.Errorf("story %s: %w", path, err)
	}
	return &story, nil
}

// ApplyDefaults fills zero section heights.
func (s *Story) ApplyDefaults() {
	for i := range s.Sections {
		if s.Sections[i].Height <= 0 {
			s.Sections[i].Height = DefaultSectionHeight
		}
	}
}

// Validate rejects stories the engine cannot lay out.
func (s *Story) Validate() error {
	if len(s.Sections) == 0 {
		return errors.New("no sections")
	}
	var errs []error
	for i, sec := range s.Sections {
		if sec.Amount != nil {
			a := *sec.Amount
			if math.IsNaN(a) || a < 0 || a > MaxAmount {
				errs = append(errs, fmt.Errorf("section %d: amount %v outside 0..%v", i, a, MaxAmount))
			}
		}
		if math.IsNaN(sec.Height) || math.IsInf(sec.Height, 0) {
			errs = append(errs, fmt.Errorf("section %d: invalid height", i))
		}
		if sec.CTA != nil && sec.CTA.Label == "" {
			errs = append(errs, fmt.Errorf("section %d: cta without label", i))
		}
	}
	return errors.Join(errs...)
}

// ResolvePath resolves a background reference against the story directory.
// A "#N" suffix (PDF page) is preserved.
func (s *Story) ResolvePath(ref string) string {
	if ref == "" || filepath.IsAbs(ref) || s.Dir == "" {
		return ref
	}
	return filepath.Join(s.Dir, ref)
}
