package cli

import (
	"fmt"
	"strings"

	"github.com/ivlev/scrollreel/internal/config"
	"github.com/ivlev/scrollreel/internal/system"
)

const (
	defaultStoryDir = "stories"
	defaultAudioDir = "audio"
)

// resolveStory loads path, or the newest story in the stories directory when
// path is empty.
func resolveStory(path string) (*config.Story, string, error) {
	if path == "" {
		latest, err := system.FindLatestStory(defaultStoryDir)
		if err != nil {
			return nil, "", fmt.Errorf("%w; pass --story or put a story in %s/", err, defaultStoryDir)
		}
		path = latest
	}
	story, err := config.LoadStory(path)
	if err != nil {
		return nil, "", err
	}
	return story, path, nil
}

// presetSize maps an aspect preset to a frame size.
func presetSize(preset string, width, height int) (int, int, error) {
	switch strings.TrimSpace(preset) {
	case "":
		return width, height, nil
	case "16:9":
		return 1280, 720, nil
	case "9:16":
		return 720, 1280, nil
	case "4:5":
		return 1080, 1350, nil
	default:
		return 0, 0, fmt.Errorf("unknown preset %q (want 16:9, 9:16 or 4:5)", preset)
	}
}

// evenSize rounds dimensions up to even numbers for yuv420p.
func evenSize(width, height int) (int, int) {
	return width + width%2, height + height%2
}
