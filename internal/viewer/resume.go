package viewer

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

const resumeObject = "resume"

// Resume is where a story was left in the preview window.
type Resume struct {
	// Progress is the offset as a fraction of the scrollable range, so it
	// survives a different window size.
	Progress float64   `yaml:"progress"`
	Offset   float64   `yaml:"offset"`
	SavedAt  time.Time `yaml:"savedAt"`
}

// ResumeStore persists one Resume per story. A nil gdata manager keeps
// entries in memory only.
type ResumeStore struct {
	manager *gdata.Manager
	log     *log.Logger
	mem     map[string]Resume
}

// OpenResumeStore opens the per-user data directory for appName. When that
// fails the store degrades to memory.
func OpenResumeStore(appName string, logger *log.Logger) *ResumeStore {
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		logger.Warn("resume data unavailable, positions will not persist", "err", err)
		manager = nil
	}
	return NewResumeStore(manager, logger)
}

func NewResumeStore(manager *gdata.Manager, logger *log.Logger) *ResumeStore {
	if logger == nil {
		logger = log.Default()
	}
	return &ResumeStore{manager: manager, log: logger, mem: make(map[string]Resume)}
}

// Load returns the saved position for story.
func (r *ResumeStore) Load(story string) (Resume, bool) {
	key := resumeKey(story)
	if r.manager == nil {
		res, ok := r.mem[key]
		return res, ok
	}
	if !r.manager.ObjectPropExists(resumeObject, key) {
		return Resume{}, false
	}

	data, err := r.manager.LoadObjectProp(resumeObject, key)
	if err != nil {
		r.log.Warn("could not load resume position", "story", story, "err", err)
		return Resume{}, false
	}
	var res Resume
	if err := yaml.Unmarshal(data, &res); err != nil {
		r.log.Warn("corrupt resume position", "story", story, "err", err)
		return Resume{}, false
	}
	if math.IsNaN(res.Progress) {
		return Resume{}, false
	}
	res.Progress = math.Min(math.Max(res.Progress, 0), 1)
	return res, true
}

// Save records the position for story.
func (r *ResumeStore) Save(story string, res Resume) error {
	key := resumeKey(story)
	if r.manager == nil {
		r.mem[key] = res
		return nil
	}

	data, err := yaml.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal resume position: %w", err)
	}
	if err := r.manager.SaveObjectProp(resumeObject, key, data); err != nil {
		return fmt.Errorf("failed to save resume position: %w", err)
	}
	return nil
}

// resumeKey turns a story path into a file-name safe property name.
func resumeKey(story string) string {
	if abs, err := filepath.Abs(story); err == nil {
		story = abs
	}
	sum := sha1.Sum([]byte(story))
	return hex.EncodeToString(sum[:8])
}
