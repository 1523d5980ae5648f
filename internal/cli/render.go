package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/scrollreel/internal/config"
	"github.com/ivlev/scrollreel/internal/director"
	"github.com/ivlev/scrollreel/internal/engine"
	"github.com/ivlev/scrollreel/internal/system"
	"github.com/ivlev/scrollreel/internal/video"
)

type renderOpts struct {
	story         string
	output        string
	width         int
	height        int
	preset        string
	fps           int
	workers       int
	plan          string
	audio         string
	dpi           int
	quality       int
	encoder       string
	reducedMotion bool
	staticText    bool
	stats         bool
}

func newRenderCmd() *cobra.Command {
	defaults := config.Default()
	opts := renderOpts{
		width:   defaults.Width,
		height:  defaults.Height,
		fps:     defaults.FPS,
		workers: runtime.NumCPU(),
		dpi:     defaults.DPI,
	}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a story to MP4 along a scroll plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.story, "story", "", "story file (default: newest in stories/)")
	f.StringVarP(&opts.output, "output", "o", "", "output video (default: output/<story>_<time>.mp4)")
	f.IntVar(&opts.width, "width", opts.width, "frame width")
	f.IntVar(&opts.height, "height", opts.height, "frame height")
	f.StringVar(&opts.preset, "preset", "", "frame size preset: 16:9, 9:16, 4:5")
	f.IntVar(&opts.fps, "fps", opts.fps, "frames per second")
	f.IntVar(&opts.workers, "workers", opts.workers, "parallel frame composers")
	f.StringVar(&opts.plan, "plan", "", "scroll plan YAML (default: generated from the story)")
	f.StringVar(&opts.audio, "audio", "", `audio track, or "auto" for the newest file in audio/; the plan is held until it ends`)
	f.IntVar(&opts.dpi, "dpi", opts.dpi, "resolution for PDF page backgrounds")
	f.IntVar(&opts.quality, "quality", 0, "quality (0 = auto; x264/nvenc: CRF, VideoToolbox: bitrate = Q*100kbit/s)")
	f.StringVar(&opts.encoder, "encoder", "", "ffmpeg video encoder (default: best available H.264)")
	f.BoolVar(&opts.reducedMotion, "reduced-motion", false, "disable scroll-bound motion and timed reveals")
	f.BoolVar(&opts.staticText, "static-text", false, "show text statically while backgrounds keep moving")
	f.BoolVar(&opts.stats, "stats", false, "print a performance report and append it to benchmark.log")
	return cmd
}

func runRender(cmd *cobra.Command, opts renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	if err := system.FFmpegAvailable(); err != nil {
		return err
	}
	system.InitResourceLimits(logger)

	story, storyPath, err := resolveStory(opts.story)
	if err != nil {
		return err
	}

	width, height, err := presetSize(opts.preset, opts.width, opts.height)
	if err != nil {
		return err
	}
	width, height = evenSize(width, height)

	cfg := config.Default()
	cfg.StoryPath = storyPath
	cfg.Width, cfg.Height = width, height
	cfg.FPS = opts.fps
	cfg.Workers = opts.workers
	cfg.AudioPath, err = resolveAudio(opts.audio)
	if err != nil {
		return err
	}
	cfg.DPI = opts.dpi
	cfg.ReducedMotion = opts.reducedMotion
	cfg.StaticText = opts.staticText
	cfg.ShowStats = opts.stats
	cfg.BuildVersion = version
	cfg.PlanPath = opts.plan

	cfg.VideoEncoder = opts.encoder
	if cfg.VideoEncoder == "" {
		cfg.VideoEncoder = system.GetBestH264Encoder(ctx)
		if cfg.VideoEncoder != "libx264" {
			logger.Info("hardware encoder detected", "encoder", cfg.VideoEncoder)
		}
	}
	cfg.Quality = opts.quality
	if cfg.Quality == 0 {
		cfg.Quality = defaultQuality(cfg.VideoEncoder)
	}

	cfg.OutputVideo = opts.output
	if cfg.OutputVideo == "" {
		cfg.OutputVideo = defaultOutput(storyPath, time.Now())
	}
	if err := os.MkdirAll(filepath.Dir(cfg.OutputVideo), 0755); err != nil {
		return err
	}

	project := engine.NewVideoProject(&cfg, story, &video.FFmpegEncoder{}, logger)
	if cfg.PlanPath != "" {
		plan, err := director.ReadPlan(cfg.PlanPath)
		if err != nil {
			return err
		}
		if plan.Width != 0 && (plan.Width != width || plan.Height != height) {
			logger.Warn("plan was made for another frame size", "plan", fmt.Sprintf("%dx%d", plan.Width, plan.Height), "frame", fmt.Sprintf("%dx%d", width, height))
		}
		project.Plan = plan
	}

	p := newProgress(logger)
	stats, err := project.Run(ctx)
	if err != nil {
		return fmt.Errorf("render %s: %w", storyPath, err)
	}
	p.done("video ready", "output", cfg.OutputVideo, "frames", stats.Frames)
	return nil
}

// resolveAudio picks the newest track in the audio directory for "auto".
func resolveAudio(audio string) (string, error) {
	if audio != "auto" {
		return audio, nil
	}
	return system.FindLatestAudio(defaultAudioDir)
}

// defaultQuality mirrors typical quality settings per encoder.
func defaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}

func defaultOutput(storyPath string, now time.Time) string {
	base := filepath.Base(storyPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.ReplaceAll(name, " ", "_")
	return filepath.Join("output", fmt.Sprintf("%s_%s.mp4", name, now.Format("2006-01-02_15-04-05")))
}
