// Package system probes the host: file limits, ffmpeg encoders, audio
// duration, memory-bound worker counts and latest-file discovery.
package system

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shirou/gopsutil/v3/mem"
)

var (
	StoryExtensions = []string{".yaml", ".yml", ".toml"}
	AudioExtensions = []string{".mp3", ".wav", ".m4a", ".ogg", ".aac", ".flac"}
)

// InitResourceLimits raises the open file limit so many backgrounds can be
// decoded at once.
func InitResourceLimits(logger *log.Logger) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("could not read open file limit", "err", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("could not raise open file limit", "err", err)
		return
	}
	logger.Debug("open file limit raised", "limit", rLimit.Cur)
}

// FindLatest returns the most recently modified file in dir whose extension
// is one of exts.
func FindLatest(dir string, exts []string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExtension(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if latestFile == "" || info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s files found in %s", strings.Join(exts, "/"), dir)
	}
	return latestFile, nil
}

func FindLatestStory(dir string) (string, error) { return FindLatest(dir, StoryExtensions) }

func FindLatestAudio(dir string) (string, error) { return FindLatest(dir, AudioExtensions) }

func hasExtension(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// GetAudioDuration asks ffprobe for the length of an audio file in seconds.
func GetAudioDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseDuration(string(out))
}

func parseDuration(out string) (float64, error) {
	var duration float64
	if _, err := fmt.Sscanf(strings.TrimSpace(out), "%f", &duration); err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(out), err)
	}
	return duration, nil
}

// GetBestH264Encoder picks a hardware H.264 encoder when ffmpeg offers one:
// VideoToolbox on macOS, then NVENC, then software libx264.
func GetBestH264Encoder(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return pickEncoder(string(out))
}

func pickEncoder(listing string) string {
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(listing, name) {
			return name
		}
	}
	return "libx264"
}

// FFmpegAvailable reports whether ffmpeg is on PATH.
func FFmpegAvailable() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	return nil
}

// RecommendedWorkers caps requested so that the frames in flight fit in
// half of the available memory. Each worker holds about perWorker bytes.
func RecommendedWorkers(requested int, perWorker uint64) int {
	if requested <= 0 {
		requested = runtime.NumCPU()
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return requested
	}
	return capWorkers(requested, perWorker, vm.Available)
}

func capWorkers(requested int, perWorker, available uint64) int {
	if perWorker == 0 || available == 0 {
		return requested
	}
	limit := int(available / 2 / perWorker)
	if limit < 1 {
		limit = 1
	}
	return min(requested, limit)
}
