package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/quicky/internal/app"
	"github.com/dshills/quicky/internal/config/loader"
	"github.com/dshills/quicky/internal/manager"
)

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configDir    string
	workspace    string
	folders      []string
	resource     string
	logLevel     string
	logPretty    bool
	plain        bool
	updatePolicy string
}

// errSelectionFailed is returned when the selection flow ends in failure;
// the cause has already been logged.
var errSelectionFailed = errors.New("selection failed")

func newRootCmd() *cobra.Command {
	env := loader.NewEnv(loader.EnvPrefix)
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "quicky",
		Short: "Quicky - switch settings between predefined values",
		Long: `Quicky switches settings between predefined values.

Setting definitions live under "quicky.settingDefinitions" in the user,
workspace or folder settings file. Running quicky without a subcommand
opens the selection menu.

Every flag can also be set through the environment, for example
QUICKY_WORKSPACE or QUICKY_LOG_LEVEL.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config-dir", env.String("config-dir", ""), "Directory holding the user settings file")
	pf.StringVarP(&flags.workspace, "workspace", "w", env.String("workspace", ""), "Workspace directory")
	pf.StringArrayVar(&flags.folders, "folder", env.List("folder", nil), "Folder root with its own settings (repeatable)")
	pf.StringVarP(&flags.resource, "resource", "r", env.String("resource", ""), "Active file")
	pf.StringVar(&flags.logLevel, "log-level", env.String("log-level", "warn"), "Log level (debug|info|warn|error)")
	pf.BoolVar(&flags.logPretty, "log-pretty", env.Bool("log-pretty", false), "Human-readable log output")
	pf.BoolVar(&flags.plain, "plain", env.Bool("plain", false), "Use the line prompt instead of the full-screen list")
	pf.StringVar(&flags.updatePolicy, "update-policy", env.String("update-policy", "layered"),
		"Update policy when settings name none (layered|global)")

	root.SetVersionTemplate(fmt.Sprintf("quicky %s (commit %s, built %s)\n", version, commit, date))

	root.AddCommand(
		newMenuCmd(flags),
		newListCmd(flags),
		newSignalsCmd(flags),
		newWatchCmd(flags, env),
	)
	return root
}

// start builds and starts an Application from the flags.
func start(cmd *cobra.Command, flags *rootFlags) (*app.Application, error) {
	a, err := app.New(app.Options{
		UserDir:   flags.configDir,
		Workspace: flags.workspace,
		Folders:   flags.folders,
		Resource:  flags.resource,
		LogLevel:  flags.logLevel,
		LogPretty: flags.logPretty,
		Policy:    flags.updatePolicy,
		Plain:     flags.plain,
		Stdin:     cmd.InOrStdin(),
		Stdout:    cmd.OutOrStdout(),
		Stderr:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	if err := a.Start(cmd.Context()); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func newMenuCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Pick a setting and one of its values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd, flags)
		},
	}
}

func runMenu(cmd *cobra.Command, flags *rootFlags) error {
	a, err := start(cmd, flags)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Menu(cmd.Context()) == manager.OutcomeFailed {
		return errSelectionFailed
	}
	return nil
}

func newListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List setting definitions with their current values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := start(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.List(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func newSignalsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "signals",
		Short: "Print the published context signals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := start(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Signals(cmd.OutOrStdout())
		},
	}
}

func newWatchCmd(flags *rootFlags, env *loader.Env) *cobra.Command {
	var (
		metricsAddr string
		fromStdin   bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep signals current while settings files change",
		Long: `Watch republishes signals whenever a settings file changes and prints
every signal that changed.

With --stdin-resources each line read from standard input is taken as the
path of the newly active file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := start(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := app.WatchOptions{MetricsAddr: metricsAddr}
			if fromStdin {
				opts.Resources = cmd.InOrStdin()
			}
			return a.Watch(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", env.String("metrics-addr", ""), "Serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&fromStdin, "stdin-resources", env.Bool("stdin-resources", false), "Read active file paths from standard input")
	return cmd
}
