// Package main is the entry point for the tintview viewer.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/dshills/tintview/internal/app"
	"github.com/dshills/tintview/internal/config"
	"github.com/dshills/tintview/internal/log"
	"github.com/dshills/tintview/internal/renderer/backend"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// sampleUnit is shown when no file is given.
const sampleUnit = "\n    [Unit]\n    Description=jgjg\n    After=jkhk\n    Wants=jgj\n\n    # This is a comment\n\n    [Install]\n    WantedBy=boo\n    "

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	cli, err := parseArgs(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprint(stdout, cli.usage)
			return 0
		}
		fmt.Fprintf(stdout, "Error: %v\n\n%s", err, cli.usage)
		return 1
	}

	if cli.showVersion {
		fmt.Fprintf(stdout, "tintview %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	}

	if err := view(cli); err != nil {
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 1
	}
	return 0
}

// view runs one session. Any error it returns is reported after the
// terminal has been restored.
func view(cli cliOptions) error {
	cfg, err := config.Load(config.Options{
		File:      cli.configPath,
		Overrides: cli.overrides,
	})
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	source := app.Source{Path: cli.file, Text: sampleUnit}
	if source.Path == "" && cfg.Language == "" {
		cfg.Language = "ini"
	}

	logger, closeLog, err := log.New(log.Config{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
		RunID: log.NewRunID(),
	})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	logger.Info("starting",
		zap.String("version", version),
		zap.String("file", cli.file),
		zap.Duration("tick", cfg.TickInterval),
	)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("stdout is not a terminal")
	}

	terminal, err := backend.NewTerminal(backend.WithMouse(cfg.Mouse))
	if err != nil {
		return fmt.Errorf("creating terminal: %w", err)
	}

	application := app.New(app.Options{
		Config: cfg,
		Source: source,
		Logger: logger,
	})
	if err := application.SetBackend(backend.NewBufferedBackend(terminal)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	return application.Run(log.NewContext(ctx, logger))
}

// cliOptions is the parsed command line.
type cliOptions struct {
	configPath  string
	file        string
	overrides   map[string]any
	showVersion bool
	usage       string
}

func parseArgs(args []string) (cliOptions, error) {
	var cli cliOptions

	flags := pflag.NewFlagSet("tintview", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)

	flags.StringVarP(&cli.configPath, "config", "c", "", "Path to a TOML or YAML configuration file")
	language := flags.StringP("language", "l", "", "Language to highlight as (default: detect)")
	theme := flags.StringP("theme", "t", "monokai", "Colour theme")
	tick := flags.Duration("tick", 250*time.Millisecond, "Tick interval")
	quitKey := flags.String("quit-key", "q", "Key that quits the viewer")
	fg := flags.String("fg", "", "Text colour as #RRGGBB (default: theme)")
	bg := flags.String("bg", "", "Background colour as #RRGGBB (default: theme)")
	watch := flags.BoolP("watch", "w", false, "Reload the file when it changes")
	plain := flags.Bool("plain", false, "Disable highlighting")
	wrap := flags.Bool("wrap", false, "Wrap long lines")
	align := flags.String("align", "left", "Text alignment: left, center or right")
	logLevel := flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFile := flags.String("log-file", "", "Write logs to this file")
	flags.BoolVarP(&cli.showVersion, "version", "v", false, "Show version information")
	flags.BoolP("help", "h", false, "Show help message")

	cli.usage = "tintview - highlighted text viewer\n\n" +
		"Usage: tintview [options] [file]\n\n" +
		"Options:\n" + flags.FlagUsages() +
		"\nPress the configured quit key (see --quit-key) to exit.\n"

	if err := flags.Parse(args); err != nil {
		return cli, err
	}
	if help, _ := flags.GetBool("help"); help {
		return cli, pflag.ErrHelp
	}

	switch flags.NArg() {
	case 0:
	case 1:
		cli.file = flags.Arg(0)
	default:
		return cli, fmt.Errorf("expected at most one file, got %d", flags.NArg())
	}

	// Only flags given on the command line override lower layers.
	cli.overrides = make(map[string]any)
	set := func(name, key string, v any) {
		if flags.Changed(name) {
			cli.overrides[key] = v
		}
	}
	set("language", config.KeyLanguage, *language)
	set("theme", config.KeyTheme, *theme)
	set("tick", config.KeyTickInterval, *tick)
	set("quit-key", config.KeyQuitKey, *quitKey)
	set("fg", config.KeyForeground, *fg)
	set("bg", config.KeyBackground, *bg)
	set("watch", config.KeyWatch, *watch)
	set("wrap", config.KeyWrap, *wrap)
	set("align", config.KeyAlignment, *align)
	if flags.Changed("plain") && *plain {
		cli.overrides[config.KeyLanguage] = "text"
	}

	logSection := make(map[string]any)
	if flags.Changed("log-level") {
		logSection["level"] = *logLevel
	}
	if flags.Changed("log-file") {
		logSection["file"] = *logFile
	}
	if len(logSection) > 0 {
		cli.overrides["log"] = logSection
	}

	return cli, nil
}
