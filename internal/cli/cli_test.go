package cli

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ivlev/scrollreel/internal/config"
	"github.com/ivlev/scrollreel/internal/director"
)

func TestPresetSize(t *testing.T) {
	tests := []struct {
		preset string
		w, h   int
		ok     bool
	}{
		{"", 800, 600, true},
		{"16:9", 1280, 720, true},
		{"9:16", 720, 1280, true},
		{"4:5", 1080, 1350, true},
		{"21:9", 0, 0, false},
	}
	for _, tt := range tests {
		w, h, err := presetSize(tt.preset, 800, 600)
		if (err == nil) != tt.ok || w != tt.w || h != tt.h {
			t.Errorf("presetSize(%q) = %d,%d,%v", tt.preset, w, h, err)
		}
	}
}

func TestEvenSize(t *testing.T) {
	if w, h := evenSize(1279, 720); w != 1280 || h != 720 {
		t.Errorf("evenSize = %d,%d", w, h)
	}
}

func TestDefaultQuality(t *testing.T) {
	for enc, want := range map[string]int{"h264_videotoolbox": 75, "h264_nvenc": 28, "libx264": 23, "": 23} {
		if got := defaultQuality(enc); got != want {
			t.Errorf("defaultQuality(%q) = %d, want %d", enc, got, want)
		}
	}
}

func TestDefaultOutput(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	got := defaultOutput("stories/My Story.yaml", now)
	want := filepath.Join("output", "My_Story_2026-03-04_05-06-07.mp4")
	if got != want {
		t.Errorf("defaultOutput = %s, want %s", got, want)
	}
}

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

// fixture lays out images/ with two backgrounds and returns the directory.
func fixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	images := filepath.Join(dir, "images")
	os.MkdirAll(images, 0755)
	writeImage(t, filepath.Join(images, "01.png"), 200, 100)
	writeImage(t, filepath.Join(images, "02.png"), 100, 200)
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInitScaffoldsStory(t *testing.T) {
	dir := fixture(t)
	storyPath := filepath.Join(dir, "stories", "demo.yaml")

	if _, err := run(t, "init", filepath.Join(dir, "images"), "-o", storyPath, "--title", "Demo"); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	story, err := config.LoadStory(storyPath)
	if err != nil {
		t.Fatalf("scaffolded story does not load: %v", err)
	}
	if story.Title != "Demo" || len(story.Sections) != 2 {
		t.Fatalf("unexpected story %+v", story)
	}
	if got := story.Sections[0].Background; got != "../images/01.png" {
		t.Errorf("expected path relative to the story, got %s", got)
	}
	if story.Sections[0].Effect != "zoomin" || story.Sections[1].Effect != "panx" {
		t.Errorf("unexpected effects %s, %s", story.Sections[0].Effect, story.Sections[1].Effect)
	}

	if _, err := run(t, "init", filepath.Join(dir, "images"), "-o", storyPath); err == nil {
		t.Error("init must not overwrite without --force")
	}
}

func TestScaffoldStoryPDFPages(t *testing.T) {
	story := scaffoldStory("", []string{"docs/deck.pdf#1", "docs/deck.pdf#2"}, "docs")
	if got := story.Sections[1].Background; got != "deck.pdf#2" {
		t.Errorf("expected deck.pdf#2, got %s", got)
	}
	if got := story.Sections[1].Title; got != "deck p.2" {
		t.Errorf("expected page title, got %q", got)
	}
}

func TestInspectAndPlan(t *testing.T) {
	dir := fixture(t)
	storyPath := filepath.Join(dir, "story.yaml")
	os.WriteFile(storyPath, []byte(`
title: Demo
sections:
  - background: images/01.png
    effect: zoomin
    title: Hello
    lines: ["first line of text"]
  - background: images/02.png
    effect: rotate
  - background: images/missing.png
`), 0644)

	out, err := run(t, "inspect", "--story", storyPath, "--width", "400", "--height", "300")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	t.Logf("inspect output:\n%s", out)
	for _, want := range []string{"viewport 400x300", "zoomin", "rotate", "failed", "200x100"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q", want)
		}
	}

	planPath := filepath.Join(dir, "plans", "p.yaml")
	if _, err := run(t, "plan", "--story", storyPath, "--width", "400", "--height", "300", "-o", planPath); err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	plan, err := director.ReadPlan(planPath)
	if err != nil {
		t.Fatalf("written plan does not read back: %v", err)
	}
	if plan.Width != 400 || plan.Height != 300 {
		t.Errorf("plan size %dx%d", plan.Width, plan.Height)
	}
	if last := plan.Keyframes[len(plan.Keyframes)-1]; last.Offset != 600 {
		t.Errorf("plan should end at the bottom (600), got %.1f", last.Offset)
	}
}

func TestResolveAudio(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if got, err := resolveAudio("track.mp3"); err != nil || got != "track.mp3" {
		t.Errorf("explicit path changed: %q, %v", got, err)
	}
	if _, err := resolveAudio("auto"); err == nil {
		t.Error("expected an error without an audio directory")
	}

	os.MkdirAll(defaultAudioDir, 0755)
	os.WriteFile(filepath.Join(defaultAudioDir, "theme.mp3"), []byte("x"), 0644)
	got, err := resolveAudio("auto")
	if err != nil || filepath.Base(got) != "theme.mp3" {
		t.Errorf("auto picked %q, %v", got, err)
	}
}

func TestLayoutFlags(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"render", "preview", "plan", "inspect"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		for _, flag := range []string{"dpi", "static-text", "reduced-motion", "width", "height"} {
			if cmd.Flags().Lookup(flag) == nil {
				t.Errorf("%s is missing --%s", name, flag)
			}
		}
	}
}
