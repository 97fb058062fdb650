// Package internal holds flag handling shared by the commands.
package internal

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/ensego/eval"
	"github.com/YuminosukeSato/ensego/pkg/log"
)

// Flags holds the flag values shared by the experiment commands.
var Flags = struct {
	Parameters string
	Data       string
	Plot       string
	Seed       int64
	LogLevel   string
	JSONLog    bool
}{}

// Setup registers the shared flags on the given command.
func Setup(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&Flags.Parameters, "parameters", "P", "",
		"set the path to the configuration file")
	cmd.Flags().StringVarP(&Flags.Data, "data", "d", "",
		"set the input CSV file (overwrites the setting in the configuration file)")
	cmd.Flags().StringVarP(&Flags.Plot, "plot", "p", "",
		"write a plot of the result to the given file")
	cmd.Flags().Int64VarP(&Flags.Seed, "seed", "s", 0,
		"set the random seed (overwrites the setting in the configuration file)")
	cmd.Flags().StringVar(&Flags.LogLevel, "log-level", "info",
		"set the log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&Flags.JSONLog, "json-log", false,
		"write logs as JSON instead of console output")
}

// Configure loads the configuration file if one was given, applies the flag
// overrides, and initializes logging.
func Configure() (*eval.Config, log.Logger) {
	log.SetupLogger(Flags.LogLevel, !Flags.JSONLog)
	lg := log.GetLogger()

	cfg := eval.DefaultConfig()
	if Flags.Parameters != "" {
		var err error
		cfg, err = eval.ReadConfig(Flags.Parameters)
		Chk(lg, err)
	}
	cfg.Overwrite(Flags.Data, Flags.Seed, Flags.Plot)
	return cfg, lg
}

// Chk logs the error and exits if err is not nil.
func Chk(lg log.Logger, err error) {
	if err != nil {
		lg.Error("command failed", err)
		os.Exit(1)
	}
}
