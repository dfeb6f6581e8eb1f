package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cottand/symdag/symdag"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the symdag command tree with fresh flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "symdag [subcommand]",
		Short:        "symdag canonicalizes algebraic expressions and emits them as Go",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
	}
	flags := &globalFlags{}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "YAML settings file")
	root.PersistentFlags().StringVarP(&flags.logLevel, "log-level", "l", "", "log level, overriding the settings file")

	root.AddCommand(newCanonCmd(flags), newCheckCmd(flags))
	return root
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func (f *globalFlags) loadSettings() (symdag.Settings, error) {
	settings := symdag.DefaultSettings()
	if f.configPath != "" {
		file, err := os.Open(f.configPath)
		if err != nil {
			return settings, fmt.Errorf("could not open settings: %w", err)
		}
		defer file.Close()
		if settings, err = symdag.LoadSettings(file); err != nil {
			return settings, err
		}
	}
	if f.logLevel != "" {
		settings.Log.Level = f.logLevel
	}
	if err := settings.Log.Apply(); err != nil {
		return settings, err
	}
	return settings, nil
}

// process reads definitions from the file at args[0], or stdin when it is
// absent or "-".
func process(cmd *cobra.Command, args []string, settings symdag.Settings) (*symdag.Result, error) {
	if len(args) == 0 || args[0] == "-" {
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("could not read stdin: %w", err)
		}
		return symdag.Process(string(src), settings)
	}

	target, err := filepath.Abs(args[0])
	if err != nil {
		return nil, fmt.Errorf("could not get absolute path of target: %w", err)
	}
	return symdag.ProcessFile(os.DirFS(filepath.Dir(target)), filepath.Base(target), settings)
}
