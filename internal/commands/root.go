// Package commands implements the aqanalysis command line interface.
package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pollutantsai/aianalysis/internal/analysis"
	"github.com/pollutantsai/aianalysis/internal/analysis/apiclient"
	"github.com/pollutantsai/aianalysis/internal/clierr"
	"github.com/pollutantsai/aianalysis/internal/config"
	"github.com/pollutantsai/aianalysis/internal/output"
	"github.com/pollutantsai/aianalysis/internal/telemetry"
)

const serviceName = "aqanalysis"

// app carries state shared by all subcommands for one invocation.
type app struct {
	version string
	stdout  io.Writer
	stderr  io.Writer

	v         *viper.Viper
	cfg       *config.Config
	logger    zerolog.Logger
	client    *apiclient.Client
	// source serves the data commands. It defaults to client.
	source    analysis.Source
	recorder  *telemetry.CommandRecorder
	telemetry *telemetry.Provider
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer, version string) int {
	return newApp(stdout, stderr, version).execute(ctx, args)
}

func newApp(stdout, stderr io.Writer, version string) *app {
	return &app{
		version: version,
		stdout:  stdout,
		stderr:  stderr,
		v:       viper.New(),
	}
}

func (a *app) execute(ctx context.Context, args []string) int {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	cmd, err := root.ExecuteContextC(ctx)
	a.shutdown()
	if err == nil {
		return 0
	}

	name := serviceName
	if cmd != nil {
		name = cmd.Name()
	}
	cliErr := clierr.FromError(err)
	a.report(name, cliErr)
	return cliErr.ExitCode
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   serviceName,
		Short: "Query the pollutant analysis API",
		Long: `aqanalysis lists monitoring sites and pollutants and fetches the hourly
comparison of station observations against TIF model values.`,
		Version:           a.version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clierr.Usage("%v", err)
	})

	flags := root.PersistentFlags()
	flags.String("api-base", "", "analysis API base URL (env ANALYSIS_API_BASE, default "+apiclient.DefaultBaseURL+")")
	flags.StringP("output", "o", "", "output format: table, json or csv")
	flags.String("log-level", "", "log level written to stderr (debug, info, warn, error)")
	flags.String("config", "", "config file (default $HOME/.aqanalysis/config.yaml)")

	root.AddCommand(
		a.sitesCommand(),
		a.pollutantsCommand(),
		a.analysisCommand(),
		a.healthCommand(),
	)
	return root
}

// setup loads configuration and builds the logger, telemetry and client.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()
	for key, flag := range map[string]string{
		"api.base":  "api-base",
		"output":    "output",
		"log.level": "log-level",
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	if path, _ := flags.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return clierr.Usage("%v", err)
	}
	a.cfg = cfg
	a.logger = cfg.Logger(a.stderr).With().Str("service", serviceName).Str("version", a.version).Logger()

	tp, err := telemetry.Init(cmd.Context(), telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: a.version,
		Environment:    cfg.Telemetry.Environment,
		OTLPEndpoint:   cfg.Telemetry.Endpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	a.telemetry = tp

	a.recorder, err = telemetry.NewCommandRecorder()
	if err != nil {
		return fmt.Errorf("initialize metrics: %w", err)
	}

	a.client, err = apiclient.NewClient(cfg.ClientConfig(a.logger))
	if err != nil {
		return clierr.Usage("%v", err)
	}
	if a.source == nil {
		a.source = a.client
	}

	a.logger.Debug().
		Str("api_base", a.client.BaseURL()).
		Str("config_file", cfg.ConfigFile).
		Bool("telemetry", cfg.Telemetry.Enabled).
		Msg("configuration loaded")
	return nil
}

// run executes fn under the command recorder.
func (a *app) run(cmd *cobra.Command, fn func(ctx context.Context) error) error {
	return a.recorder.Run(cmd.Context(), cmd.Name(), fn)
}

// write renders a successful result in the configured format.
func (a *app) write(command string, data any, table output.Table) error {
	return output.Write(a.stdout, a.cfg.Output, command, data, table)
}

func (a *app) shutdown() {
	if a.telemetry == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("failed to shutdown telemetry")
	}
}

// report prints err as a JSON envelope when JSON output is selected and as
// text on stderr otherwise.
func (a *app) report(command string, err *clierr.Error) {
	a.logger.Debug().Err(err.Err).Str("code", string(err.Code)).Msg("command failed")

	if a.cfg != nil && a.cfg.Output == config.OutputJSON {
		if writeErr := output.NewJSONFormatter(a.stdout).WriteError(command, output.ErrorOutput{
			Message:    err.Message,
			Code:       string(err.Code),
			Suggestion: err.Suggestion,
		}); writeErr == nil {
			return
		}
	}

	fmt.Fprintf(a.stderr, "Error: %s\n", err.Message)
	if err.Suggestion != "" {
		fmt.Fprintf(a.stderr, "\nSuggestion: %s\n", err.Suggestion)
	}
}

// requireFlags returns a usage error listing every unset flag.
func requireFlags(cmd *cobra.Command, names ...string) error {
	var missing []string
	for _, name := range names {
		if !cmd.Flags().Changed(name) {
			missing = append(missing, "--"+name)
		}
	}
	if len(missing) > 0 {
		return clierr.Usage("missing required flags: %s", strings.Join(missing, ", "))
	}
	return nil
}
