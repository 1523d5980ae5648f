package source

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// IsImage reports whether path has a decodable image extension.
func IsImage(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// List expands a directory of images (sorted by name) or a PDF (one reference
// per page) into background references.
func List(path string) ([]string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !fi.IsDir() {
		if (Ref{Path: path}).IsPDF() {
			pdf, err := NewFitzPDFSource(path)
			if err != nil {
				return nil, err
			}
			defer pdf.Close()
			refs := make([]string, pdf.PageCount())
			for i := range refs {
				refs[i] = Ref{Path: path, Page: i + 1}.String()
			}
			return refs, nil
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var refs []string
	for _, entry := range entries {
		if !entry.IsDir() && IsImage(entry.Name()) {
			refs = append(refs, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(refs)
	return refs, nil
}
