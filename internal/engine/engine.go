// Package engine renders a story to video: it loads every background,
// drives a stage along a scroll plan one frame at a time, composes frames in
// parallel and streams them to the encoder in order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/scrollreel/internal/config"
	"github.com/ivlev/scrollreel/internal/director"
	"github.com/ivlev/scrollreel/internal/renderer"
	"github.com/ivlev/scrollreel/internal/source"
	"github.com/ivlev/scrollreel/internal/stage"
	"github.com/ivlev/scrollreel/internal/system"
	"github.com/ivlev/scrollreel/internal/video"
)

// BenchmarkLog collects one line per render when stats are enabled.
const BenchmarkLog = "benchmark.log"

type VideoProject struct {
	Config  *config.Config
	Story   *config.Story
	Encoder video.VideoEncoder
	// Plan is generated from the story layout when nil.
	Plan *director.Plan
	// Open decodes backgrounds; source.Open when nil.
	Open source.OpenFunc

	log *log.Logger
}

// Stats summarises one render.
type Stats struct {
	Frames    int
	Duration  float64
	Failed    int
	Workers   int
	Load      time.Duration
	Render    time.Duration
	Total     time.Duration
	FramesSec float64
}

func NewVideoProject(cfg *config.Config, story *config.Story, ve video.VideoEncoder, logger *log.Logger) *VideoProject {
	if logger == nil {
		logger = log.Default()
	}
	return &VideoProject{
		Config:  cfg,
		Story:   story,
		Encoder: ve,
		log:     logger,
	}
}

func (p *VideoProject) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	startTime := time.Now()
	cfg := p.Config

	stg, err := stage.New(p.Story, stage.Options{
		Width:         float64(cfg.Width),
		Height:        float64(cfg.Height),
		ReducedMotion: cfg.ReducedMotion,
		NoAnimation:   cfg.StaticText,
		Debounce:      cfg.Debounce,
		Logger:        p.log,
	})
	if err != nil {
		return stats, err
	}

	loader := source.NewLoader(max(1, cfg.Workers),
		source.WithLogger(p.log),
		source.WithDPI(cfg.DPI),
		source.WithOpenFunc(p.openFunc()))
	loadStart := time.Now()
	stats.Failed, err = LoadAll(ctx, stg, p.Story, loader)
	if err != nil {
		return stats, err
	}
	stats.Load = time.Since(loadStart)
	stg.Start()

	plan := p.Plan
	if plan == nil {
		if plan, err = PlanFor(stg, cfg.Width, cfg.Height, cfg.StoryPath); err != nil {
			return stats, err
		}
	}
	if cfg.AudioPath != "" {
		if d, err := system.GetAudioDuration(ctx, cfg.AudioPath); err != nil {
			p.log.Warn("could not read audio duration, keeping plan length", "audio", cfg.AudioPath, "err", err)
		} else {
			ExtendTo(plan, d)
		}
	}

	frames := FrameCount(plan.Duration, cfg.FPS)
	stats.Frames, stats.Duration = frames, plan.Duration
	stats.Workers = system.RecommendedWorkers(cfg.Workers, uint64(cfg.Width*cfg.Height*4*2))

	p.log.Info("rendering",
		"sections", stg.Len(),
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"fps", cfg.FPS,
		"frames", frames,
		"duration", fmt.Sprintf("%.2fs", plan.Duration),
		"workers", stats.Workers,
		"encoder", cfg.VideoEncoder)

	sink, err := p.Encoder.Start(ctx, video.Params{
		Width:     cfg.Width,
		Height:    cfg.Height,
		FPS:       cfg.FPS,
		Output:    cfg.OutputVideo,
		AudioPath: cfg.AudioPath,
		Encoder:   cfg.VideoEncoder,
		Quality:   cfg.Quality,
	})
	if err != nil {
		return stats, err
	}

	renderStart := time.Now()
	renderErr := p.render(ctx, stg, loader, plan, frames, stats.Workers, sink)
	closeErr := sink.Close()
	if err := errors.Join(renderErr, closeErr); err != nil {
		return stats, err
	}
	stats.Render = time.Since(renderStart)
	stats.Total = time.Since(startTime)
	stats.FramesSec = float64(frames) / math.Max(stats.Render.Seconds(), 1e-9)

	if cfg.ShowStats {
		p.report(stats)
	}
	return stats, nil
}

func (p *VideoProject) openFunc() source.OpenFunc {
	if p.Open != nil {
		return p.Open
	}
	return source.Open
}

// LoadAll requests every background up front and feeds the results into the
// stage, so offline renders never depend on load timing. It returns how many
// backgrounds failed.
func LoadAll(ctx context.Context, stg *stage.Stage, story *config.Story, loader *source.Loader) (int, error) {
	n := len(story.Sections)
	for i, sec := range story.Sections {
		loader.Request(ctx, i, story.ResolvePath(sec.Background))
	}

	failed := 0
	for range n {
		select {
		case res := <-loader.Results():
			if res.Err != nil {
				stg.ImageFailed(res.Index, res.Err)
				failed++
				continue
			}
			stg.ImageReady(res.Index, res.Width, res.Height)
		case <-ctx.Done():
			return failed, ctx.Err()
		}
	}
	loader.Wait()
	return failed, nil
}

// render simulates the stage sequentially and composes batches of frames
// in parallel, writing each batch in order.
func (p *VideoProject) render(ctx context.Context, stg *stage.Stage, loader *source.Loader, plan *director.Plan, frames, workers int, sink video.FrameSink) error {
	dt := 1 / float64(p.Config.FPS)
	pool := system.NewImagePool()

	composers := make(chan *renderer.Composer, workers)
	for range workers {
		composers <- renderer.NewComposer(loader, pool)
	}

	batch := workers * 2
	snaps := make([]stage.Snapshot, 0, batch)
	for start := 0; start < frames; start += batch {
		snaps = snaps[:0]
		for i := start; i < min(start+batch, frames); i++ {
			if i > 0 {
				stg.Update(dt)
			}
			stg.Scroll(renderer.InterpolateOffset(plan.Keyframes, float64(i)*dt))
			snaps = append(snaps, stg.Snapshot())
		}

		out := make([]*renderImage, len(snaps))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for j := range snaps {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				c := <-composers
				defer func() { composers <- c }()
				out[j] = &renderImage{frame: c.Compose(snaps[j]), composer: c}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for j, img := range out {
			if err := sink.WriteFrame(img.frame); err != nil {
				return fmt.Errorf("frame %d: %w", start+j, err)
			}
			img.composer.Release(img.frame)
		}
		p.log.Debug("frames written", "done", min(start+batch, frames), "total", frames)
	}
	return nil
}

type renderImage struct {
	frame    *image.RGBA
	composer *renderer.Composer
}

// PlanFor builds the default scroll plan for a started stage.
func PlanFor(stg *stage.Stage, width, height int, story string) (*director.Plan, error) {
	stops := make([]director.Stop, stg.Len())
	for i := range stops {
		sec := stg.Section(i)
		stops[i] = director.Stop{Top: sec.Top, Height: sec.Height, Reveal: sec.Timeline.Duration()}
	}
	return director.NewDirector(width, height).GeneratePlan(stops, story)
}

// ExtendTo holds the final frame until duration when the plan is shorter.
func ExtendTo(plan *director.Plan, duration float64) {
	if duration <= plan.Duration || len(plan.Keyframes) == 0 {
		return
	}
	last := plan.Keyframes[len(plan.Keyframes)-1]
	last.Time = duration
	plan.Keyframes = append(plan.Keyframes, last)
	plan.Duration = duration
}

// FrameCount is the number of frames covering duration, at least one.
func FrameCount(duration float64, fps int) int {
	if fps <= 0 || !(duration > 0) {
		return 1
	}
	return max(1, int(math.Ceil(duration*float64(fps)-1e-9)))
}

func (p *VideoProject) report(stats Stats) {
	p.log.Info("performance report",
		"build", p.Config.BuildVersion,
		"frames", stats.Frames,
		"failed_backgrounds", stats.Failed,
		"load", fmt.Sprintf("%.2fs", stats.Load.Seconds()),
		"render", fmt.Sprintf("%.2fs", stats.Render.Seconds()),
		"total", fmt.Sprintf("%.2fs", stats.Total.Seconds()),
		"fps", fmt.Sprintf("%.2f", stats.FramesSec))

	logEntry := fmt.Sprintf("[%s] Build: %s | Story: %s | Frames: %d | Total: %.2fs | Render: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		filepath.Base(p.Config.StoryPath),
		stats.Frames,
		stats.Total.Seconds(),
		stats.Render.Seconds(),
		stats.FramesSec,
	)

	if err := appendBenchmark(BenchmarkLog, logEntry); err != nil {
		p.log.Warn("could not write benchmark log", "path", BenchmarkLog, "err", err)
	}
}

// appendBenchmark adds entry to the benchmark log at path.
func appendBenchmark(path, entry string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(entry); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
