package tile

import (
	"context"
	"image"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Load decodes the image file at path and normalizes it to NRGBA.
func Load(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, WrapError(ErrCodeIO, err, "can't decode %s", path)
	}
	return imaging.Clone(img), nil
}

// Decode reads an image from r and normalizes it to NRGBA.
func Decode(r io.Reader) (*image.NRGBA, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, WrapError(ErrCodeIO, err, "can't decode image")
	}
	return imaging.Clone(img), nil
}

// Save writes img as PNG, replacing any existing file at path.
func Save(img image.Image, path string) error {
	if !strings.EqualFold(filepath.Ext(path), OutputExt) {
		return NewError(ErrCodeInvalidPath, "output %s must have a %s extension", path, OutputExt)
	}
	if err := imaging.Save(img, path); err != nil {
		return WrapError(ErrCodeIO, err, "failed to write %s", path)
	}
	return nil
}

// Encode writes img to w as PNG.
func Encode(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return WrapError(ErrCodeIO, err, "failed to encode PNG")
	}
	return nil
}

// OutputPath derives the converted sheet's path from the input path:
// the extension is dropped and "_iso.png" appended.
func OutputPath(input string) string {
	ext := filepath.Ext(input)
	if ext == filepath.Base(input) {
		// dotfile without an extension, e.g. ".sheet"
		ext = ""
	}
	return strings.TrimSuffix(input, ext) + OutputSuffix + OutputExt
}

// CellSize returns the size of one grid cell of an image of the given size.
// Remainder pixels are dropped.
func CellSize(src image.Point, grid Grid) (Size, error) {
	if grid.Cols < 1 || grid.Rows < 1 {
		return Size{}, NewError(ErrCodeInvalidParameter, "grid must be at least 1x1, got %dx%d", grid.Cols, grid.Rows)
	}
	cell := Size{Width: src.X / grid.Cols, Height: src.Y / grid.Rows}
	if cell.Width == 0 || cell.Height == 0 {
		return Size{}, NewError(ErrCodeDegenerateGrid,
			"grid of %d columns by %d rows is finer than the %dx%d image", grid.Cols, grid.Rows, src.X, src.Y)
	}
	return cell, nil
}

// RotateToIso turns one rectangular tile into an isometric diamond of the
// target size. The tile is copied onto a transparent canvas, rotated 45
// degrees counter-clockwise with the canvas expanded to fit, and resampled
// with a bicubic filter.
func RotateToIso(t image.Image, target Size) *image.NRGBA {
	b := t.Bounds()
	padded := imaging.New(b.Dx(), b.Dy(), color.Transparent)
	padded = imaging.Paste(padded, t, image.Pt(0, 0))

	rotated := imaging.Rotate(padded, RotationAngle, color.Transparent)
	return imaging.Resize(rotated, target.Width, target.Height, imaging.CatmullRom)
}

// Compose cuts src into grid cells, converts every cell with RotateToIso
// and lays the diamonds out row-major on a transparent sheet of
// grid.Cols*target.Width by grid.Rows*target.Height pixels.
func Compose(src image.Image, grid Grid, target Size) (*image.NRGBA, error) {
	return ComposeContext(context.Background(), src, grid, target)
}

// ComposeContext is Compose with cancellation. ctx is checked before every
// row; a cancelled context returns ctx.Err().
func ComposeContext(ctx context.Context, src image.Image, grid Grid, target Size) (*image.NRGBA, error) {
	p := Params{Grid: grid, Target: target}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	cell, err := CellSize(bounds.Size(), grid)
	if err != nil {
		return nil, err
	}

	size := p.OutputSize()
	out := imaging.New(size.Width, size.Height, color.Transparent)

	for y := 0; y < grid.Rows; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x < grid.Cols; x++ {
			box := image.Rect(x*cell.Width, y*cell.Height, (x+1)*cell.Width, (y+1)*cell.Height).Add(bounds.Min)
			iso := RotateToIso(imaging.Crop(src, box), target)

			// Over keeps the diamond's own alpha on the transparent sheet.
			at := image.Pt(x*target.Width, y*target.Height)
			draw.Draw(out, iso.Bounds().Add(at), iso, image.Point{}, draw.Over)
		}
	}

	return out, nil
}
