package frames

import (
	"image"

	"curator/internal/avi"
)

// CropOrigin returns the top-left corner of a cropSize window centred on (cx, cy).
func CropOrigin(cropSize, cx, cy int) (int, int) {
	half := cropSize / 2
	return cx - half, cy - half
}

// ClampCenter keeps a cropSize window centred on (cx, cy) inside a width x height
// frame. Both axes allow centres in [floor(size/2), dim-ceil(size/2)].
func ClampCenter(width, height, cropSize, cx, cy int) (int, int) {
	return clampAxis(cx, width, cropSize), clampAxis(cy, height, cropSize)
}

func clampAxis(c, dim, size int) int {
	lo := size / 2
	hi := dim - (size+1)/2
	if c > hi {
		c = hi
	}
	if c < lo {
		c = lo
	}
	return c
}

// ValidateCrop reports avi.ErrRange when the window does not fit the frame.
func ValidateCrop(width, height, cropSize, cx, cy int) error {
	if cropSize <= 0 {
		return avi.RangeError("crop size %d must be positive", cropSize)
	}
	if cropSize > width || cropSize > height {
		return avi.RangeError("crop size %d exceeds frame size %dx%d", cropSize, width, height)
	}
	x0, y0 := CropOrigin(cropSize, cx, cy)
	if x0 < 0 || x0+cropSize > width {
		return avi.RangeError("crop centre x %d puts window outside [0,%d)", cx, width)
	}
	if y0 < 0 || y0+cropSize > height {
		return avi.RangeError("crop centre y %d puts window outside [0,%d)", cy, height)
	}
	return nil
}

// RenderCrop extracts a cropSize x cropSize window centred on (cx, cy) in
// display coordinates (row 0 at the top). Rows are flipped from the bottom-up
// storage order and each pixel becomes (src[1], src[0], src[2], 255).
func RenderCrop(frame *RawFrame, cropSize, cx, cy int) (*image.RGBA, error) {
	if frame == nil {
		return nil, avi.RangeError("no frame to render")
	}
	if want := frame.Width * frame.Height * avi.BytesPerPixel; len(frame.Pix) != want {
		return nil, avi.RangeError("frame buffer holds %d bytes, want %d", len(frame.Pix), want)
	}
	if err := ValidateCrop(frame.Width, frame.Height, cropSize, cx, cy); err != nil {
		return nil, err
	}

	x0, y0 := CropOrigin(cropSize, cx, cy)
	img := image.NewRGBA(image.Rect(0, 0, cropSize, cropSize))
	for y := 0; y < cropSize; y++ {
		srcRow := frame.Height - 1 - (y0 + y)
		rowBase := srcRow * frame.Width
		dst := img.Pix[y*img.Stride : y*img.Stride+cropSize*4]
		for x := 0; x < cropSize; x++ {
			s := (rowBase + x0 + x) * avi.BytesPerPixel
			d := x * 4
			dst[d] = frame.Pix[s+1]
			dst[d+1] = frame.Pix[s]
			dst[d+2] = frame.Pix[s+2]
			dst[d+3] = 255
		}
	}
	return img, nil
}
