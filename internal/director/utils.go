package director

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultPlanDir is where generated plans are kept when no path is given.
var DefaultPlanDir = "plans"

// GeneratePlanPath creates a timestamped plan filename in dir
func GeneratePlanPath(dir string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("plan_%s.yaml", timestamp))
}

// FindLatestPlan finds the most recent plan file in dir
func FindLatestPlan(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read plans directory: %w", err)
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	var plans []candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		plans = append(plans, candidate{filepath.Join(dir, entry.Name()), info.ModTime()})
	}

	if len(plans) == 0 {
		return "", fmt.Errorf("no plan files found in %s", dir)
	}

	// newest first
	sort.Slice(plans, func(i, j int) bool {
		return plans[i].mod.After(plans[j].mod)
	})

	return plans[0].path, nil
}
