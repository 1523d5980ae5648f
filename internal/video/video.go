package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"strings"
)

// Params describes one encode.
type Params struct {
	Width, Height int
	FPS           int
	Output        string
	AudioPath     string
	Encoder       string
	Quality       int
}

// FrameSink accepts frames in presentation order.
type FrameSink interface {
	WriteFrame(img image.Image) error
	Close() error
}

type VideoEncoder interface {
	Start(ctx context.Context, params Params) (FrameSink, error)
}

// FFmpegEncoder streams raw RGBA frames into an ffmpeg process.
type FFmpegEncoder struct{}

func (e *FFmpegEncoder) Start(ctx context.Context, params Params) (FrameSink, error) {
	if params.Width <= 0 || params.Height <= 0 || params.FPS <= 0 {
		return nil, fmt.Errorf("invalid frame params %dx%d@%d", params.Width, params.Height, params.FPS)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", buildFFmpegArgs(params)...)
	stderr := &tailBuffer{max: 4096}
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	return &ffmpegStream{
		cmd:    cmd,
		stdin:  stdin,
		stderr: stderr,
		rect:   image.Rect(0, 0, params.Width, params.Height),
	}, nil
}

func buildFFmpegArgs(params Params) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"-framerate", fmt.Sprintf("%d", params.FPS),
		"-i", "-",
	}
	if params.AudioPath != "" {
		args = append(args, "-i", params.AudioPath, "-map", "0:v", "-map", "1:a", "-c:a", "aac", "-shortest")
	}

	encoder := params.Encoder
	if encoder == "" {
		encoder = "libx264"
	}
	args = append(args, "-pix_fmt", "yuv420p", "-c:v", encoder)

	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox has no constant quality mode on every build; use a bitrate.
		args = append(args, "-b:v", fmt.Sprintf("%dk", params.Quality*100))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", params.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", params.Quality), "-preset", "medium")
	}

	return append(args, params.Output)
}

type ffmpegStream struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stderr  *tailBuffer
	rect    image.Rectangle
	scratch *image.RGBA
	closed  bool
}

func (s *ffmpegStream) WriteFrame(img image.Image) error {
	if err := writeRawRGBA(s.stdin, img, s.rect, &s.scratch); err != nil {
		return fmt.Errorf("write raw error: %w", err)
	}
	return nil
}

func (s *ffmpegStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, s.stderr.String())
	}
	return nil
}

// writeRawRGBA writes tightly packed RGBA rows of size rect, converting
// through scratch when img is not already in that layout.
func writeRawRGBA(w io.Writer, img image.Image, rect image.Rectangle, scratch **image.RGBA) error {
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect != rect || rgba.Stride != rect.Dx()*4 {
		if *scratch == nil {
			*scratch = image.NewRGBA(rect)
		}
		rgba = *scratch
		draw.Draw(rgba, rect, img, img.Bounds().Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf.Write(p)
	if over := t.buf.Len() - t.max; over > 0 {
		t.buf.Next(over)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return strings.TrimSpace(t.buf.String())
}
