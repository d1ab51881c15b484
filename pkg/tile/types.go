package tile

import "fmt"

// OutputSuffix is appended to the input's base name to form the output path.
const OutputSuffix = "_iso"

// OutputExt is the extension of every converted sheet.
const OutputExt = ".png"

// RotationAngle is the counter-clockwise rotation applied to every cell, in degrees.
const RotationAngle = 45.0

// Grid describes how a source sheet is partitioned.
type Grid struct {
	Cols, Rows int
}

// Size is a width/height pair in pixels.
type Size struct {
	Width, Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Params holds everything a conversion needs besides the source image.
type Params struct {
	Grid   Grid
	Target Size
	// LockRatio records that Target.Height was derived from Target.Width.
	LockRatio bool
}

// Validate checks that every dimension is at least 1.
func (p Params) Validate() error {
	switch {
	case p.Grid.Cols < 1:
		return NewError(ErrCodeInvalidParameter, "grid columns must be at least 1, got %d", p.Grid.Cols)
	case p.Grid.Rows < 1:
		return NewError(ErrCodeInvalidParameter, "grid rows must be at least 1, got %d", p.Grid.Rows)
	case p.Target.Width < 1:
		return NewError(ErrCodeInvalidParameter, "target width must be at least 1, got %d", p.Target.Width)
	case p.Target.Height < 1:
		return NewError(ErrCodeInvalidParameter, "target height must be at least 1, got %d", p.Target.Height)
	}
	return nil
}

// OutputSize returns the dimensions of the composited sheet.
func (p Params) OutputSize() Size {
	return Size{Width: p.Grid.Cols * p.Target.Width, Height: p.Grid.Rows * p.Target.Height}
}
