package tile

import (
	"image"
	"io"
)

// DefaultMaxPixels caps the decoded source and the composited sheet when a
// caller does not configure its own limit.
const DefaultMaxPixels = 10000 * 10000

// CheckLimit reports an IMAGE_TOO_LARGE error when one target tile or the
// whole output sheet holds more than maxPixels pixels. A maxPixels of zero
// or less disables the check.
func (p Params) CheckLimit(maxPixels int64) error {
	if maxPixels <= 0 {
		return nil
	}
	if exceeds(maxPixels, p.Target.Width, p.Target.Height) {
		return NewError(ErrCodeTooLarge, "target tile %s exceeds %d pixels", p.Target, maxPixels)
	}
	if exceeds(maxPixels, p.Grid.Cols, p.Grid.Rows, p.Target.Width, p.Target.Height) {
		return NewError(ErrCodeTooLarge, "output of %dx%d tiles of %s exceeds %d pixels",
			p.Grid.Cols, p.Grid.Rows, p.Target, maxPixels)
	}
	return nil
}

// CheckSource reads only the image header from r and rejects images with
// more than maxPixels pixels, so oversized sources are refused before any
// pixel is decoded. A maxPixels of zero or less disables the check.
func CheckSource(r io.Reader, maxPixels int64) error {
	if maxPixels <= 0 {
		return nil
	}
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return WrapError(ErrCodeIO, err, "can't decode image")
	}
	if exceeds(maxPixels, cfg.Width, cfg.Height) {
		return NewError(ErrCodeTooLarge, "source image of %dx%d exceeds %d pixels",
			cfg.Width, cfg.Height, maxPixels)
	}
	return nil
}

// exceeds reports whether the product of dims is larger than max without
// overflowing. Non-positive dims never exceed.
func exceeds(max int64, dims ...int) bool {
	n := int64(1)
	for _, d := range dims {
		if d <= 0 {
			return false
		}
		if int64(d) > max/n {
			return true
		}
		n *= int64(d)
	}
	return false
}
