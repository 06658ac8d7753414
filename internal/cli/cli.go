package cli

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/gridflow/internal/app"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath      string
	logLevel        string
	logFormat       string
	logFile         string
	healthcheckPort int
	storePath       string
	storeKey        string
}

// Execute runs the gridflow command line with args. Manual answers are read
// from inR, command output goes to outW and logs to errW.
func Execute(ctx context.Context, args []string, inR io.Reader, outW, errW io.Writer) error {
	root := NewRootCommand(inR, outW, errW)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the gridflow command tree.
func NewRootCommand(inR io.Reader, outW, errW io.Writer) *cobra.Command {
	flags := &globalFlags{}
	streams := app.Streams{In: inR, Out: outW, Log: errW}

	root := &cobra.Command{
		Use:   "gridflow",
		Short: "Dependency-graph workflows and reactive formula sheets",
		Long: `gridflow runs workflows of automatic and manual tasks in dependency order,
and evaluates spreadsheet cells whose formulas reference each other.

Definitions are read from a single .hcl file or a directory of .hcl files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(inR)
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Message: err.Error()}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to a YAML config file.")
	pf.StringVar(&flags.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&flags.logFormat, "log-format", "json", "Log output format. Options: 'text' or 'json'.")
	pf.StringVar(&flags.logFile, "log-file", "", "Append the execution log to this file as JSON lines.")
	pf.IntVar(&flags.healthcheckPort, "healthcheck-port", 0, "Port for the /health and /metrics server. 0 is disabled.")
	pf.StringVar(&flags.storePath, "store", ".gridflow", "Directory of the structure store.")
	pf.StringVar(&flags.storeKey, "key", "workflow", "Key the structure is saved under.")

	withApp := func(cmd *cobra.Command, args []string, fn func(a *app.App) error) error {
		gridPath := ""
		if len(args) > 0 {
			gridPath = args[0]
		}
		cfg, err := buildConfig(cmd, flags, gridPath)
		if err != nil {
			return err
		}
		a, err := app.NewApp(streams, cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(a)
	}

	var save bool
	runCmd := &cobra.Command{
		Use:   "run [PATH]",
		Short: "Run the workflow, prompting for manual task outputs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, args, func(a *app.App) error {
				return a.RunWorkflow(cmd.Context(), save)
			})
		},
	}
	runCmd.Flags().BoolVar(&save, "save", false, "Persist the workflow structure before running.")

	var sets []string
	sheetCmd := &cobra.Command{
		Use:   "sheet [PATH]",
		Short: "Evaluate the cells, apply edits and print every value",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, args, func(a *app.App) error {
				return a.RunSheet(cmd.Context(), sets)
			})
		},
	}
	sheetCmd.Flags().StringArrayVar(&sets, "set", nil, "Change a cell after loading, e.g. --set A1=7 or --set B1==A1*2. Repeatable.")

	saveCmd := &cobra.Command{
		Use:   "save [PATH]",
		Short: "Persist the workflow and sheet structure",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, args, func(a *app.App) error {
				return a.Save(cmd.Context())
			})
		},
	}

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Restore a saved structure and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, args, func(a *app.App) error {
				return a.Load(cmd.Context())
			})
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate [PATH]",
		Short: "Load and build the definitions and check them for cycles",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, args, func(a *app.App) error {
				return a.Validate(cmd.Context())
			})
		},
	}

	root.AddCommand(runCmd, sheetCmd, saveCmd, loadCmd, validateCmd)
	return root
}

// buildConfig layers defaults, the config file and explicitly set flags, in
// that order, and validates the result.
func buildConfig(cmd *cobra.Command, flags *globalFlags, gridPath string) (*app.Config, error) {
	cfg := app.DefaultConfig()
	if flags.configPath != "" {
		if err := app.LoadConfigFile(flags.configPath, &cfg); err != nil {
			return nil, &ExitError{Code: 2, Message: err.Error()}
		}
		slog.Debug("Config file loaded.", "path", flags.configPath)
	}

	f := cmd.Flags()
	if f.Changed("log-level") {
		cfg.LogLevel = strings.ToLower(flags.logLevel)
	}
	if f.Changed("log-format") {
		cfg.LogFormat = strings.ToLower(flags.logFormat)
	}
	if f.Changed("log-file") {
		cfg.LogFile = flags.logFile
	}
	if f.Changed("healthcheck-port") {
		cfg.HealthcheckPort = flags.healthcheckPort
	}
	if f.Changed("store") {
		cfg.StorePath = flags.storePath
	}
	if f.Changed("key") {
		cfg.StoreKey = flags.storeKey
	}
	if gridPath != "" {
		cfg.GridPath = gridPath
	}

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("CLI configuration complete.", "config", config)
	return config, nil
}
