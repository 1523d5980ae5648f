package cli

import (
	"github.com/spf13/cobra"

	"github.com/ivlev/scrollreel/internal/config"
	"github.com/ivlev/scrollreel/internal/preview"
	"github.com/ivlev/scrollreel/internal/viewer"
)

const appName = "scrollreel"

type previewOpts struct {
	story         string
	width         int
	height        int
	reducedMotion bool
	staticText    bool
	noResume      bool
	dpi           int
}

func newPreviewCmd() *cobra.Command {
	defaults := config.Default()
	opts := previewOpts{width: defaults.Width, height: defaults.Height, dpi: defaults.DPI}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Scroll through a story in a window",
		Long:  `Opens the story in a resizable window. Scroll with the mouse wheel, arrow keys, Page Up/Down, Space, Home and End. Esc or Q quits. The scroll position is remembered per story.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			story, storyPath, err := resolveStory(opts.story)
			if err != nil {
				return err
			}

			vopts := viewer.Options{
				Width:         opts.width,
				Height:        opts.height,
				ReducedMotion: opts.reducedMotion,
				StaticText:    opts.staticText,
				Debounce:      defaults.Debounce,
				DPI:           opts.dpi,
				Logger:        logger,
			}
			if !opts.noResume {
				vopts.Resume = viewer.OpenResumeStore(appName, logger)
			}

			session, err := viewer.New(ctx, story, storyPath, vopts)
			if err != nil {
				return err
			}

			title := story.Title
			if title == "" {
				title = storyPath
			}
			return preview.Run(preview.NewGame(session, opts.width, opts.height), title)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.story, "story", "", "story file (default: newest in stories/)")
	f.IntVar(&opts.width, "width", opts.width, "window width")
	f.IntVar(&opts.height, "height", opts.height, "window height")
	f.BoolVar(&opts.reducedMotion, "reduced-motion", false, "disable scroll-bound motion and timed reveals")
	f.BoolVar(&opts.staticText, "static-text", false, "show text statically while backgrounds keep moving")
	f.IntVar(&opts.dpi, "dpi", opts.dpi, "resolution for PDF page backgrounds")
	f.BoolVar(&opts.noResume, "no-resume", false, "start at the top instead of the last position")
	return cmd
}
