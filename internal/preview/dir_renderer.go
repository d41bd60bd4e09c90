package preview

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"curator/internal/fileutil"
	"curator/internal/frames"
)

// DirRenderer writes every rendered region to Dir as <region>.png, replacing
// the previous image. Thumbnail frames are additionally kept as
// thumbnail-<frame>.png when KeepAnimation is set.
type DirRenderer struct {
	Dir           string
	Scale         int
	KeepAnimation bool

	written int
}

// Written returns the number of files written.
func (r *DirRenderer) Written() int {
	return r.written
}

func (r *DirRenderer) Render(region Region, frame int, img *image.RGBA) error {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return fmt.Errorf("create preview directory: %w", err)
	}
	if err := r.write(filepath.Join(r.Dir, region.String()+".png"), img); err != nil {
		return err
	}
	if r.KeepAnimation && region == RegionThumbnail {
		name := fmt.Sprintf("%s-%06d.png", region, frame)
		if err := r.write(filepath.Join(r.Dir, name), img); err != nil {
			return err
		}
	}
	return nil
}

func (r *DirRenderer) write(path string, img *image.RGBA) error {
	if err := fileutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		return frames.Encode(w, img, frames.FormatPNG, r.Scale)
	}); err != nil {
		return err
	}
	r.written++
	return nil
}
