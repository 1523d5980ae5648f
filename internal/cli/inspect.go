package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ivlev/scrollreel/internal/stage"
)

func newInspectCmd() *cobra.Command {
	var storyPath string
	layout := newStageFlags()

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print each section's fitted geometry, effect and reveal timing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			story, _, err := resolveStory(storyPath)
			if err != nil {
				return err
			}
			stg, _, err := startStage(ctx, story, layout, loggerFromContext(ctx))
			if err != nil {
				return err
			}
			return writeInspection(cmd.OutOrStdout(), stg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&storyPath, "story", "", "story file (default: newest in stories/)")
	layout.bind(cmd)
	return cmd
}

func writeInspection(w io.Writer, stg *stage.Stage) error {
	vw, vh := stg.Viewport()
	fmt.Fprintf(w, "viewport %.0fx%.0f, document %.0fpx\n\n", vw, vh, stg.DocumentHeight())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tBACKGROUND\tSTATUS\tEFFECT\tIMAGE\tSCALE\tSPAN\tFROM\tTO\tREVEAL")
	for i := range stg.Len() {
		sec := stg.Section(i)
		from, to := "-", "-"
		if sec.HasSpec {
			from = formatTransform(sec.Spec.From.X, sec.Spec.From.Y, sec.Spec.From.Scale, sec.Spec.From.Rotation)
			to = formatTransform(sec.Spec.To.X, sec.Spec.To.Y, sec.Spec.To.Scale, sec.Spec.To.Rotation)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.0fx%.0f\t%.3f->%.3f\t%.1f,%.1f\t%s\t%s\t%.2fs\n",
			i+1,
			sec.Config.Background,
			sec.Status,
			sec.Effect,
			sec.ImageW, sec.ImageH,
			sec.Fit.StartScale, sec.Fit.EndScale,
			sec.Fit.SpanX, sec.Fit.SpanY,
			from, to,
			sec.Timeline.Duration())
	}
	return tw.Flush()
}

func formatTransform(x, y, scale, rotation float64) string {
	s := fmt.Sprintf("(%.1f,%.1f) x%.3f", x, y, scale)
	if rotation != 0 {
		s += fmt.Sprintf(" %.1f°", rotation)
	}
	return s
}
