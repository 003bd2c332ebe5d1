package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/exportmap/internal/config"
)

// Global carries shared state into subcommands.
type Global struct {
	Logger *slog.Logger
	// Out receives command output (tables, listings). Logs go to stderr.
	Out io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"exportmap.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Pages   PagesCmd   `cmd:"" help:"List discovered pages"`
	Resolve ResolveCmd `cmd:"" help:"Print the resolved export path table"`
	Export  ExportCmd  `cmd:"" help:"Resolve the path table and export every route"`
	Serve   ServeCmd   `cmd:"" help:"Serve resolved routes for preview, rebuilding on change"`
	Watch   WatchCmd   `cmd:"" help:"Re-export whenever pages or content change"`
	History HistoryCmd `cmd:"" help:"List recorded resolution runs"`
}

// logLevel is shared by every logger so config can adjust it after parsing.
var logLevel = new(slog.LevelVar)

// levelPinned is set when -v or EXPORTMAP_LOG_LEVEL chose the level.
var levelPinned bool

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logLevel.Set(slog.LevelInfo)
	levelPinned = false
	if lvl := config.NormalizeLogLevel(os.Getenv("EXPORTMAP_LOG_LEVEL")); lvl != "" {
		logLevel.Set(lvl.SlogLevel())
		levelPinned = true
	}
	if c.Verbose {
		logLevel.Set(slog.LevelDebug)
		levelPinned = true
	}
	slog.SetDefault(newLogger(os.Stderr, config.LogFormatText))
	return nil
}

func newLogger(w io.Writer, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevel}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// applyLogging switches to the configured format and, unless the command
// line chose one, the configured level.
func applyLogging(cfg *config.Config) {
	if !levelPinned && cfg.Monitoring.Logging.Level != "" {
		logLevel.Set(cfg.Monitoring.Logging.Level.SlogLevel())
	}
	if cfg.Monitoring.Logging.Format == config.LogFormatJSON {
		slog.SetDefault(newLogger(os.Stderr, config.LogFormatJSON))
	}
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}
