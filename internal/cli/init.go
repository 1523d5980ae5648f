package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/scrollreel/internal/config"
	"github.com/ivlev/scrollreel/internal/source"
)

// scaffoldEffects cycles through the motion variants so a new story shows
// each of them.
var scaffoldEffects = []string{"zoomin", "panx", "pany", "diagonal", "parallaxy", "rotate", "zoomout"}

func newInitCmd() *cobra.Command {
	var output, title string
	var force bool

	cmd := &cobra.Command{
		Use:   "init <images-dir|document.pdf>",
		Short: "Create a story with one section per image or PDF page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			if output == "" {
				output = filepath.Join(defaultStoryDir, "story.yaml")
			}
			if _, err := os.Stat(output); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", output)
			}

			refs, err := source.List(args[0])
			if err != nil {
				return err
			}
			if len(refs) == 0 {
				return fmt.Errorf("no images found in %s", args[0])
			}

			story := scaffoldStory(title, refs, filepath.Dir(output))
			data, err := yaml.Marshal(story)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return err
			}
			logger.Info("story created", "path", output, "sections", len(story.Sections))
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", "story file (default: stories/story.yaml)")
	f.StringVar(&title, "title", "", "story title")
	f.BoolVar(&force, "force", false, "overwrite an existing story")
	return cmd
}

// scaffoldStory writes references relative to the story directory.
func scaffoldStory(title string, refs []string, storyDir string) *config.Story {
	story := &config.Story{Title: title}
	for i, ref := range refs {
		path, page, _ := strings.Cut(ref, "#")
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if page != "" {
			name = fmt.Sprintf("%s p.%s", name, page)
		}
		if rel, err := filepath.Rel(storyDir, path); err == nil {
			path = filepath.ToSlash(rel)
		}
		if page != "" {
			path += "#" + page
		}

		story.Sections = append(story.Sections, config.Section{
			Background: path,
			Effect:     scaffoldEffects[i%len(scaffoldEffects)],
			Title:      name,
		})
	}
	return story
}
