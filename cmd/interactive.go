package cmd

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/kiesman99/isotile/internal/convert"
	"github.com/kiesman99/isotile/internal/form"
)

func (a *app) newInteractiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interactive [input]",
		Short: "Fill in the conversion parameters in a terminal form",
		Long: `Open a form asking for the input image, grid size and target size, then
convert on ctrl+s. The target height follows the width at 2:1 while the
ratio is locked (ctrl+l toggles). The form stays open for further runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runInteractive,
	}

	addConvertFlags(cmd.Flags())
	return cmd
}

// formValues seeds the form from flags and configuration, falling back to
// form.DefaultValues for anything unset.
func (a *app) formValues(args []string) form.Values {
	v := form.DefaultValues
	if len(args) > 0 {
		v.Path = args[0]
	}
	for key, dst := range map[string]*string{
		"grid.cols":     &v.Cols,
		"grid.rows":     &v.Rows,
		"target.width":  &v.Width,
		"target.height": &v.Height,
	} {
		if s := a.v.GetString(key); s != "" {
			*dst = s
		}
	}
	if a.v.IsSet("target.height") && a.v.GetString("target.height") != "" {
		v.Locked = a.v.GetBool("target.lock-ratio")
	}
	return v
}

func (a *app) runInteractive(cmd *cobra.Command, args []string) error {
	// The form owns the terminal, so conversion logs are dropped.
	conv := convert.NewConverter(&convert.Options{Logger: log.New(io.Discard)})

	model := form.New(conv.ConvertToIsometric, a.formValues(args))
	_, err := tea.NewProgram(model,
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	).Run()
	return err
}
