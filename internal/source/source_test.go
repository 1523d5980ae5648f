package source

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
	"time"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		in      string
		want    Ref
		wantErr bool
	}{
		{"bg/one.jpg", Ref{Path: "bg/one.jpg"}, false},
		{"deck.pdf", Ref{Path: "deck.pdf", Page: 1}, false},
		{"deck.PDF#4", Ref{Path: "deck.PDF", Page: 4}, false},
		{"deck.pdf#0", Ref{}, true},
		{"deck.pdf#x", Ref{}, true},
		{"", Ref{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRef(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %+v", got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseRef(%q) = %+v, %v; want %+v", tt.in, got, err, tt.want)
			}
		})
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bg.png")
	writePNG(t, path, 40, 20)

	img, err := Open(path, 0)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 20 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.png"), 0); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestListDirectory(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 2, 2)
	writePNG(t, filepath.Join(dir, "a.png"), 2, 2)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)

	refs, err := List(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("expected %v, got %v", want, refs)
	}
}

func fakeOpen(sizes map[string]image.Point) OpenFunc {
	return func(ref string, dpi int) (image.Image, error) {
		p, ok := sizes[ref]
		if !ok {
			return nil, errors.New("not found")
		}
		return image.NewRGBA(image.Rect(0, 0, p.X, p.Y)), nil
	}
}

func collect(t *testing.T, l *Loader, n int) []Result {
	t.Helper()
	var out []Result
	timeout := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case r := <-l.Results():
			out = append(out, r)
		case <-timeout:
			t.Fatalf("timed out after %d of %d results", len(out), n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func TestLoaderDeliversResults(t *testing.T) {
	l := NewLoader(2, WithOpenFunc(fakeOpen(map[string]image.Point{
		"a": {X: 100, Y: 50},
		"b": {X: 30, Y: 60},
	})))
	ctx := context.Background()

	l.Request(ctx, 0, "a")
	l.Request(ctx, 1, "b")
	l.Request(ctx, 2, "missing")

	results := collect(t, l, 3)
	l.Wait()

	if results[0].Width != 100 || results[0].Height != 50 || results[0].Err != nil {
		t.Errorf("unexpected result %+v", results[0])
	}
	if results[1].Width != 30 || results[1].Err != nil {
		t.Errorf("unexpected result %+v", results[1])
	}
	if results[2].Err == nil {
		t.Error("expected failure for missing ref")
	}
	if l.Image(0) == nil || l.Image(2) != nil {
		t.Error("image store out of sync with results")
	}
}

func TestLoaderDeduplicates(t *testing.T) {
	l := NewLoader(1, WithOpenFunc(fakeOpen(map[string]image.Point{"a": {X: 1, Y: 1}})))
	ctx := context.Background()

	l.Request(ctx, 0, "a")
	collect(t, l, 1)
	l.Wait()

	l.Request(ctx, 0, "a")
	l.Wait()
	select {
	case r := <-l.Results():
		t.Errorf("loaded image requested again: %+v", r)
	default:
	}
}

func TestLoaderDPI(t *testing.T) {
	tests := []struct {
		name string
		opts []LoaderOption
		want int
	}{
		{"default", nil, DefaultDPI},
		{"explicit", []LoaderOption{WithDPI(300)}, 300},
		{"non-positive keeps default", []LoaderOption{WithDPI(0)}, DefaultDPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make(chan int, 1)
			open := func(ref string, dpi int) (image.Image, error) {
				got <- dpi
				return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
			}
			l := NewLoader(1, append(tt.opts, WithOpenFunc(open))...)
			l.Request(context.Background(), 0, "deck.pdf#1")
			collect(t, l, 1)
			l.Wait()
			if dpi := <-got; dpi != tt.want {
				t.Errorf("rendered at %d dpi, want %d", dpi, tt.want)
			}
		})
	}
}
