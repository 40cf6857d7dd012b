package acceptor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	pkgerrors "github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/cratekit/cargo-acceptor/flags"
	"github.com/cratekit/cargo-acceptor/types"
)

// Config holds the application configuration
type Config struct {
	ProjectDir  string // Cargo project root
	Backend     types.TestBackend
	Package     string // Package selection; empty means whole workspace
	Target      string // Target selection within the package
	Filter      string // Test path filter or nextest filter expression
	CargoBinary string
	Options     types.CargoOptions
	RunInterval time.Duration // Interval between test runs
	RunOnce     bool          // Exit after one test run
	LogDir      string        // Directory to store per-run artifacts

	MetricsEnabled bool
	MetricsHost    string
	MetricsPort    int

	Log log.Logger
}

// Profile is one named run configuration from the profiles file. Values set
// on the command line take precedence over the profile.
type Profile struct {
	Backend             string   `yaml:"backend,omitempty"`
	Filter              string   `yaml:"filter,omitempty"`
	Package             string   `yaml:"package,omitempty"`
	Target              string   `yaml:"target,omitempty"`
	ExtraArgs           []string `yaml:"extra_args,omitempty"`
	ExtraTestBinaryArgs []string `yaml:"extra_test_binary_args,omitempty"`
}

type profilesFile struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, logger log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	projectDir, err := filepath.Abs(ctx.String(flags.ProjectDir.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for project directory: %w", err)
	}

	logDir, err := filepath.Abs(ctx.String(flags.LogDir.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for log directory: %w", err)
	}

	cfg := &Config{
		ProjectDir:     projectDir,
		Package:        ctx.String(flags.Package.Name),
		Target:         ctx.String(flags.Target.Name),
		Filter:         ctx.String(flags.Filter.Name),
		CargoBinary:    ctx.String(flags.CargoBinary.Name),
		RunInterval:    ctx.Duration(flags.RunInterval.Name),
		LogDir:         logDir,
		MetricsEnabled: ctx.Bool(flags.MetricsEnabled.Name),
		MetricsHost:    ctx.String(flags.MetricsHost.Name),
		MetricsPort:    ctx.Int(flags.MetricsPort.Name),
		Log:            logger,
	}
	cfg.RunOnce = cfg.RunInterval == 0

	backendName := ctx.String(flags.Backend.Name)

	profileName := ctx.String(flags.Profile.Name)
	if profileName != "" {
		profile, err := loadProfile(ctx.String(flags.ProfilesFile.Name), profileName)
		if err != nil {
			return nil, err
		}
		cfg.Options.ExtraArgs = profile.ExtraArgs
		cfg.Options.ExtraTestBinaryArgs = profile.ExtraTestBinaryArgs
		if !ctx.IsSet(flags.Backend.Name) && profile.Backend != "" {
			backendName = profile.Backend
		}
		if !ctx.IsSet(flags.Filter.Name) && profile.Filter != "" {
			cfg.Filter = profile.Filter
		}
		if !ctx.IsSet(flags.Package.Name) && profile.Package != "" {
			cfg.Package = profile.Package
		}
		if !ctx.IsSet(flags.Target.Name) && profile.Target != "" {
			cfg.Target = profile.Target
		}
	}

	cfg.Backend, err = types.ParseBackend(backendName)
	if err != nil {
		return nil, err
	}

	if cfg.Target != "" && cfg.Package == "" {
		return nil, fmt.Errorf("--target requires --package")
	}

	return cfg, nil
}

// loadProfile reads one named profile from a YAML profiles file.
func loadProfile(path, name string) (*Profile, error) {
	if path == "" {
		return nil, fmt.Errorf("profile %q requested but no profiles file given", name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read profiles file %s", path)
	}
	var file profilesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to parse profiles file %s", path)
	}
	profile, ok := file.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile %q not found in %s", name, path)
	}
	return &profile, nil
}

// LevelFromString maps a CLI log level name to a slog level.
func LevelFromString(name string) (slog.Level, error) {
	switch name {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "", "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	default:
		return log.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}
