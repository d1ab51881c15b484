package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Set at build time with -ldflags "-X github.com/kiesman99/isotile/cmd.version=..."
var version = "dev"

// app carries the state shared by one command tree.
type app struct {
	v       *viper.Viper
	cfgFile string
	verbose bool
}

// NewRootCmd builds the isotile command tree with its own configuration.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "isotile [input]",
		Short: "Turn a grid tile sheet into an isometric tile sheet",
		Long: `isotile cuts a tile sheet into a grid, rotates every cell 45 degrees into a
diamond, scales it to the target size and lays the diamonds out on a new
transparent sheet. The result is written as PNG next to the input, named
<input>_iso.png.

Examples:
  # 4x2 grid of tiles, 128x64 diamonds
  isotile sheet.png --cols 4 --rows 2 --width 128 --height 64

  # Height derived from width (2:1)
  isotile sheet.png --cols 4 --rows 2 --width 128

  # Interactive form
  isotile interactive

  # Start HTTP server
  isotile serve --port 8080`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := log.InfoLevel
			if a.verbose {
				level = log.DebugLevel
			}
			logger := newLogger(cmd.ErrOrStderr(), level)
			cmd.SetContext(withLogger(cmd.Context(), logger))

			if err := a.initConfig(logger); err != nil {
				return err
			}
			return a.bindFlags(cmd)
		},
		// If no subcommand is specified and we have args, run the convert command
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return a.runConvert(cmd, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.isotile.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	addConvertFlags(rootCmd.Flags())

	rootCmd.AddCommand(a.newConvertCmd())
	rootCmd.AddCommand(a.newServeCmd())
	rootCmd.AddCommand(a.newInteractiveCmd())

	return rootCmd
}

// Execute runs the command tree and exits non-zero on failure.
// This is called by main.main().
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		loggerFromContext(rootCmd.Context()).Error(err.Error())
		os.Exit(1)
	}
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"cols":       "grid.cols",
	"rows":       "grid.rows",
	"width":      "target.width",
	"height":     "target.height",
	"lock-ratio": "target.lock-ratio",
	"output":     "output",
	"bind":       "server.bind",
	"port":       "server.port",
	"timeout":    "server.timeout",
	"max-upload": "server.max-upload",
	"max-pixels": "server.max-pixels",
}

// bindFlags binds the flags of the command being run to their
// configuration keys. Binding happens per run because the root command and
// its convert subcommand define the same flags.
func (a *app) bindFlags(cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		err = a.v.BindPFlag(key, f)
	})
	return err
}

// initConfig reads in config file and ENV variables if set.
func (a *app) initConfig(logger *log.Logger) error {
	if a.cfgFile != "" {
		// Use config file from the flag.
		a.v.SetConfigFile(a.cfgFile)
	} else {
		// Search config in home directory with name ".isotile" (without extension).
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(home)
		}
		a.v.SetConfigType("yaml")
		a.v.SetConfigName(".isotile")
	}

	a.v.SetEnvPrefix("isotile")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv() // read in environment variables that match

	err := a.v.ReadInConfig()
	if err == nil {
		logger.Debug("using config file", "path", a.v.ConfigFileUsed())
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) && a.cfgFile == "" {
		return nil
	}
	return fmt.Errorf("reading config: %w", err)
}
