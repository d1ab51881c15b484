// Package convert runs whole sheet conversions: it checks parameters and
// paths, loads the source, drives the tile compositor and writes the result.
package convert

import (
	"bytes"
	"context"
	"image"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kiesman99/isotile/pkg/tile"
)

// Options configures a Converter.
type Options struct {
	// Output overrides the derived "<base>_iso.png" path when set.
	Output string

	// MaxPixels caps the source image and the output sheet; 0 disables it.
	MaxPixels int64
	Logger    *log.Logger
}

// Result is an in-memory conversion result.
type Result struct {
	ImageData []byte
	Width     int
	Height    int
	Cell      tile.Size
}

// Converter handles the conversion workflow around the tile compositor.
type Converter struct {
	logger  *log.Logger
	options *Options
}

// NewConverter creates a converter. A nil opts is treated as empty.
func NewConverter(opts *Options) *Converter {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Converter{
		logger:  logger,
		options: opts,
	}
}

// ConvertToIsometric converts the sheet at inputPath and writes the PNG next
// to it (or to Options.Output). It returns the path written. Parameters are
// validated before the filesystem is touched; an existing output is replaced.
func (c *Converter) ConvertToIsometric(inputPath string, p tile.Params) (string, error) {
	if err := c.checkParams(p); err != nil {
		return "", err
	}
	if err := CheckInput(inputPath); err != nil {
		return "", err
	}
	if err := c.checkSourceFile(inputPath); err != nil {
		return "", err
	}

	start := time.Now()
	src, err := tile.Load(inputPath)
	if err != nil {
		return "", err
	}
	c.logger.Debug("loaded source", "path", inputPath, "size", sizeOf(src))

	out, err := c.compose(context.Background(), src, p)
	if err != nil {
		return "", err
	}

	outputPath := c.options.Output
	if outputPath == "" {
		outputPath = tile.OutputPath(inputPath)
	}
	if err := tile.Save(out, outputPath); err != nil {
		return "", err
	}

	c.logger.Info("wrote isometric sheet", "path", outputPath, "elapsed", time.Since(start).Round(time.Millisecond))
	return outputPath, nil
}

// ConvertBytes converts an encoded image held in memory and returns the PNG.
// Compositing stops with ctx.Err() once ctx is done.
func (c *Converter) ConvertBytes(ctx context.Context, data []byte, p tile.Params) (*Result, error) {
	if err := c.checkParams(p); err != nil {
		return nil, err
	}
	if err := tile.CheckSource(bytes.NewReader(data), c.options.MaxPixels); err != nil {
		return nil, err
	}

	src, err := tile.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	c.logger.Debug("decoded source", "bytes", len(data), "size", sizeOf(src))

	out, err := c.compose(ctx, src, p)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tile.Encode(&buf, out); err != nil {
		return nil, err
	}

	cell, _ := tile.CellSize(src.Bounds().Size(), p.Grid)
	return &Result{
		ImageData: buf.Bytes(),
		Width:     out.Bounds().Dx(),
		Height:    out.Bounds().Dy(),
		Cell:      cell,
	}, nil
}

func (c *Converter) checkParams(p tile.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return p.CheckLimit(c.options.MaxPixels)
}

func (c *Converter) checkSourceFile(path string) error {
	if c.options.MaxPixels <= 0 {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return tile.WrapError(tile.ErrCodeIO, err, "can't read %s", path)
	}
	defer f.Close()
	return tile.CheckSource(f, c.options.MaxPixels)
}

func (c *Converter) compose(ctx context.Context, src image.Image, p tile.Params) (image.Image, error) {
	cell, err := tile.CellSize(src.Bounds().Size(), p.Grid)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("grid",
		"cols", p.Grid.Cols, "rows", p.Grid.Rows,
		"cell", cell, "target", p.Target, "output", p.OutputSize())
	if dropped := sizeOf(src).Width - cell.Width*p.Grid.Cols; dropped > 0 {
		c.logger.Debug("dropping remainder columns", "pixels", dropped)
	}
	if dropped := sizeOf(src).Height - cell.Height*p.Grid.Rows; dropped > 0 {
		c.logger.Debug("dropping remainder rows", "pixels", dropped)
	}

	return tile.ComposeContext(ctx, src, p.Grid, p.Target)
}

// CheckInput reports an INVALID_PATH error unless path names an existing
// regular file.
func CheckInput(path string) error {
	if path == "" {
		return tile.NewError(tile.ErrCodeInvalidPath, "invalid input file path: no file given")
	}
	info, err := os.Stat(path)
	if err != nil {
		return tile.WrapError(tile.ErrCodeInvalidPath, err, "invalid input file path")
	}
	if !info.Mode().IsRegular() {
		return tile.NewError(tile.ErrCodeInvalidPath, "invalid input file path: %s is not a regular file", path)
	}
	return nil
}

func sizeOf(img image.Image) tile.Size {
	b := img.Bounds()
	return tile.Size{Width: b.Dx(), Height: b.Dy()}
}
