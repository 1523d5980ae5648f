package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const yamlStory = `
title: Homecoming
reveal:
  speed: 0.5
sections:
  - background: bg/one.jpg
    effect: panx
    title: Chapter one
    lines:
      - The river was loud that spring
      - and nobody slept
    cta:
      label: Watch the film
      url: https://example.com/film
  - background: deck.pdf#2
    effect: zoomin
    amount: 14
    height: 1.5
  - background: /abs/three.png
    amount: 0
`

const tomlStory = `
title = "Homecoming"

[[sections]]
background = "one.jpg"
effect = "rotate"
lines = ["first", "second"]

[[sections]]
background = "two.jpg"
amount = 5.0
`

func writeStory(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadStoryYAML(t *testing.T) {
	path := writeStory(t, "story.yaml", yamlStory)
	story, err := LoadStory(path)
	if err != nil {
		t.Fatalf("LoadStory failed: %v", err)
	}

	if story.Title != "Homecoming" || len(story.Sections) != 3 {
		t.Fatalf("unexpected story %+v", story)
	}
	if story.Reveal.SpeedMultiplier != 0.5 {
		t.Errorf("expected pacing speed 0.5, got %v", story.Reveal.SpeedMultiplier)
	}

	first := story.Sections[0]
	if !first.HasContent() || len(first.Lines) != 2 || first.CTA == nil || first.CTA.URL == "" {
		t.Errorf("first section lost content: %+v", first)
	}
	if first.IntensityAmount() != DefaultAmount {
		t.Errorf("expected default amount, got %v", first.IntensityAmount())
	}
	if first.Height != DefaultSectionHeight {
		t.Errorf("expected default height, got %v", first.Height)
	}

	if story.Sections[1].IntensityAmount() != 14 || story.Sections[1].Height != 1.5 {
		t.Errorf("unexpected second section %+v", story.Sections[1])
	}
	if story.Sections[2].IntensityAmount() != 0 {
		t.Errorf("explicit zero amount should be kept, got %v", story.Sections[2].IntensityAmount())
	}
	if story.Sections[1].HasContent() {
		t.Error("section without title or lines reported content")
	}

	if got := story.ResolvePath("bg/one.jpg"); got != filepath.Join(filepath.Dir(path), "bg/one.jpg") {
		t.Errorf("relative path not resolved: %s", got)
	}
	if got := story.ResolvePath("/abs/three.png"); got != "/abs/three.png" {
		t.Errorf("absolute path changed: %s", got)
	}
}

func TestLoadStoryTOML(t *testing.T) {
	story, err := LoadStory(writeStory(t, "story.toml", tomlStory))
	if err != nil {
		t.Fatalf("LoadStory failed: %v", err)
	}
	if len(story.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(story.Sections))
	}
	if story.Sections[0].Effect != "rotate" || len(story.Sections[0].Lines) != 2 {
		t.Errorf("unexpected first section %+v", story.Sections[0])
	}
	if story.Sections[1].IntensityAmount() != 5 {
		t.Errorf("expected amount 5, got %v", story.Sections[1].IntensityAmount())
	}
}

func TestLoadStoryRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		want string
	}{
		{"no sections", "a.yaml", "title: empty\n", "no sections"},
		{"amount too high", "b.yaml", "sections:\n  - background: x.jpg\n    amount: 40\n", "amount"},
		{"cta without label", "c.yaml", "sections:\n  - cta:\n      url: https://x\n", "cta"},
		{"unknown format", "d.json", "{}", "unsupported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadStory(writeStory(t, tt.file, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
