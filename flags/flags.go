package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "CARGO_ACCEPTOR"

// prefixEnvVars prepends the application prefix to an env var name.
func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	ProjectDir = &cli.StringFlag{
		Name:     "project-dir",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVars("PROJECT_DIR"),
		Usage:    "Path to the cargo project root (the directory containing Cargo.toml)",
	}
	Backend = &cli.StringFlag{
		Name:    "backend",
		Value:   "cargo-test",
		EnvVars: prefixEnvVars("BACKEND"),
		Usage:   "Test backend to invoke: 'cargo-test' or 'cargo-nextest'",
	}
	Package = &cli.StringFlag{
		Name:    "package",
		Value:   "",
		EnvVars: prefixEnvVars("PACKAGE"),
		Usage:   "Limit the run to one package (eg. 'my-crate'). Omit to test the whole workspace.",
	}
	Target = &cli.StringFlag{
		Name:    "target",
		Value:   "",
		EnvVars: prefixEnvVars("TARGET"),
		Usage:   "Build target within the selected package (eg. a bin or example name)",
	}
	Filter = &cli.StringFlag{
		Name:    "filter",
		Value:   "",
		EnvVars: prefixEnvVars("FILTER"),
		Usage:   "Test path filter (cargo-test) or filter expression (cargo-nextest)",
	}
	CargoBinary = &cli.StringFlag{
		Name:    "cargo-binary",
		Value:   "cargo",
		EnvVars: prefixEnvVars("CARGO_BINARY"),
		Usage:   "Path to the cargo binary to use for running tests",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: prefixEnvVars("RUN_INTERVAL"),
		Usage:   "Interval between test runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "logs",
		EnvVars: prefixEnvVars("LOGDIR"),
		Usage:   "Directory to store per-run artifacts (event stream and failure logs)",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Usage:   "The lowest log level that will be output: trace, debug, info, warn, error, crit",
	}
	ProfilesFile = &cli.StringFlag{
		Name:    "profiles",
		Value:   "",
		EnvVars: prefixEnvVars("PROFILES"),
		Usage:   "Path to a YAML file of named run profiles (eg. 'profiles.yaml')",
	}
	Profile = &cli.StringFlag{
		Name:    "profile",
		Value:   "",
		EnvVars: prefixEnvVars("PROFILE"),
		Usage:   "Run profile to apply from the profiles file",
	}
	MetricsEnabled = &cli.BoolFlag{
		Name:    "metrics.enabled",
		Value:   false,
		EnvVars: prefixEnvVars("METRICS_ENABLED"),
		Usage:   "Enable the prometheus metrics server",
	}
	MetricsHost = &cli.StringFlag{
		Name:    "metrics.addr",
		Value:   "0.0.0.0",
		EnvVars: prefixEnvVars("METRICS_ADDR"),
		Usage:   "Metrics listening address",
	}
	MetricsPort = &cli.IntFlag{
		Name:    "metrics.port",
		Value:   7300,
		EnvVars: prefixEnvVars("METRICS_PORT"),
		Usage:   "Metrics listening port",
	}
)

var requiredFlags = []cli.Flag{
	ProjectDir,
}

var optionalFlags = []cli.Flag{
	Backend,
	Package,
	Target,
	Filter,
	CargoBinary,
	RunInterval,
	LogDir,
	LogLevel,
	ProfilesFile,
	Profile,
	MetricsEnabled,
	MetricsHost,
	MetricsPort,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
