package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/breadcrumbs/internal/config"
	"github.com/vango-dev/breadcrumbs/internal/errors"
	"github.com/vango-dev/breadcrumbs/pkg/router"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "crumbs",
		Short: "Resolve and serve dynamic breadcrumb trails",
		Long: `crumbs reconciles breadcrumb trails for a declared route table.

Routes and their crumbs are declared in crumbs.json or crumbs.toml.
Trails can be resolved once from the command line, served over HTTP,
or kept live over a WebSocket session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Config file (default: crumbs.json or crumbs.toml in the project root)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(
		serveCmd(flags),
		resolveCmd(flags),
		routesCmd(flags),
		versionCmd(),
	)

	return rootCmd
}

// loadConfig loads and validates the configuration named by the flags.
// Log flags override the file.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFile(f.configPath)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}

	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// load returns the validated config, its route table and a logger.
func (f *globalFlags) load(logOut io.Writer) (*config.Config, *router.Table[any], *slog.Logger, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := newLogger(logOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, nil, err
	}
	table, err := cfg.BuildTable()
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, table, logger, nil
}

// newLogger builds a text or JSON slog logger at the given level.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "", "info":
		lvl = slog.LevelInfo
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, errors.New("B082").WithDetailf("got %q", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, errors.New("B080").WithDetailf("unknown log format %q", format)
	}
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
