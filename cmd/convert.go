package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kiesman99/isotile/internal/convert"
	"github.com/kiesman99/isotile/pkg/tile"
)

func (a *app) newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Convert one tile sheet to an isometric tile sheet",
		Long: `Convert cuts <input> into --cols by --rows cells, turns every cell into a
diamond of --width by --height pixels and writes <input>_iso.png.

Leaving out --height, or passing --lock-ratio, derives the height from the
width at a 2:1 ratio. An existing output file is overwritten.`,
		Args: cobra.ExactArgs(1),
		RunE: a.runConvert,
	}

	addConvertFlags(cmd.Flags())
	return cmd
}

func addConvertFlags(fs *pflag.FlagSet) {
	// Numeric flags are strings so that bad input is reported the same way
	// whether it comes from a flag, the config file or the environment.
	fs.String("cols", "1", "grid columns")
	fs.String("rows", "1", "grid rows")
	fs.String("width", "256", "target tile width in pixels")
	fs.String("height", "", "target tile height in pixels (default: width/2)")
	fs.Bool("lock-ratio", false, "always derive height as width/2")
	fs.StringP("output", "o", "", "output file (default: <input>_iso.png)")
}

// convertParams collects conversion parameters from flags, config and
// environment. No file is opened.
func (a *app) convertParams() (tile.Params, error) {
	height := a.v.GetString("target.height")
	lock := a.v.GetBool("target.lock-ratio") || height == ""

	return tile.ParseParams(
		a.v.GetString("grid.cols"),
		a.v.GetString("grid.rows"),
		a.v.GetString("target.width"),
		height,
		lock,
	)
}

func (a *app) runConvert(cmd *cobra.Command, args []string) error {
	logger := loggerFromContext(cmd.Context())

	params, err := a.convertParams()
	if err != nil {
		return err
	}
	if params.LockRatio {
		logger.Debug("height derived from width", "width", params.Target.Width, "height", params.Target.Height)
	}

	conv := convert.NewConverter(&convert.Options{
		Output: a.v.GetString("output"),
		Logger: logger,
	})

	outputPath, err := conv.ConvertToIsometric(args[0], params)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), outputPath)
	return nil
}
