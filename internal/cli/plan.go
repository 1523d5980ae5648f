package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ivlev/scrollreel/internal/config"
	"github.com/ivlev/scrollreel/internal/director"
	"github.com/ivlev/scrollreel/internal/engine"
	"github.com/ivlev/scrollreel/internal/source"
	"github.com/ivlev/scrollreel/internal/stage"
)

// stageFlags are the layout settings shared by plan and inspect.
type stageFlags struct {
	width, height int
	reducedMotion bool
	staticText    bool
	dpi           int
}

func newStageFlags() *stageFlags {
	defaults := config.Default()
	return &stageFlags{width: defaults.Width, height: defaults.Height, dpi: defaults.DPI}
}

func (o *stageFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&o.width, "width", o.width, "viewport width")
	f.IntVar(&o.height, "height", o.height, "viewport height")
	f.BoolVar(&o.reducedMotion, "reduced-motion", false, "disable scroll-bound motion and timed reveals")
	f.BoolVar(&o.staticText, "static-text", false, "show text statically while backgrounds keep moving")
	f.IntVar(&o.dpi, "dpi", o.dpi, "resolution for PDF page backgrounds")
}

func newPlanCmd() *cobra.Command {
	var storyPath, output string
	layout := newStageFlags()

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Write the default scroll plan for a story",
		Long:  `Generates the scroll path render would use and writes it as YAML so it can be edited and passed back with render --plan.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			story, path, err := resolveStory(storyPath)
			if err != nil {
				return err
			}
			stg, _, err := startStage(ctx, story, layout, logger)
			if err != nil {
				return err
			}
			plan, err := engine.PlanFor(stg, layout.width, layout.height, path)
			if err != nil {
				return err
			}

			if output == "" {
				output = director.GeneratePlanPath(director.DefaultPlanDir)
			}
			if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
				return err
			}
			if err := director.WritePlan(plan, output); err != nil {
				return err
			}
			logger.Info("plan written", "path", output, "keyframes", len(plan.Keyframes), "duration", fmt.Sprintf("%.2fs", plan.Duration))
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&storyPath, "story", "", "story file (default: newest in stories/)")
	f.StringVarP(&output, "output", "o", "", "plan file (default: plans/plan_<time>.yaml)")
	layout.bind(cmd)
	return cmd
}

// startStage builds a stage for story with every background resolved.
func startStage(ctx context.Context, story *config.Story, layout *stageFlags, logger *log.Logger) (*stage.Stage, int, error) {
	stg, err := stage.New(story, stage.Options{
		Width:         float64(layout.width),
		Height:        float64(layout.height),
		ReducedMotion: layout.reducedMotion,
		NoAnimation:   layout.staticText,
		Logger:        logger,
	})
	if err != nil {
		return nil, 0, err
	}
	loader := source.NewLoader(4, source.WithLogger(logger), source.WithDPI(layout.dpi))
	failed, err := engine.LoadAll(ctx, stg, story, loader)
	if err != nil {
		return nil, failed, err
	}
	stg.Start()
	return stg, failed, nil
}
