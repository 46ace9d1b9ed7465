// Package config holds tintview's settings.
//
// Settings are layered, lowest precedence first:
//
//  1. Built-in defaults (Default)
//  2. A config file, TOML or YAML chosen by extension
//  3. TINTVIEW_* environment variables
//  4. Command-line flags the user actually set
//
// Each layer is decoded into a map keyed by setting name and merged over the
// previous one; the merged map is then applied to a Config and validated.
package config

import (
	"fmt"
	"time"

	"github.com/dshills/tintview/internal/config/loader"
	"github.com/dshills/tintview/internal/renderer/core"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "TINTVIEW_"

// Config is the complete viewer configuration.
type Config struct {
	// TickInterval is the tick rate and the longest input poll.
	TickInterval time.Duration
	// ScrollBound is the value the scroll offset wraps at.
	ScrollBound int
	// QuitKey names the key that ends the viewer.
	QuitKey string

	Theme    string
	Language string // empty means detect

	// Foreground and Background are hex colours for plain text and the
	// screen. Empty leaves the choice to the theme.
	Foreground string
	Background string

	Title        string
	Margin       int
	TabWidth     int
	Alignment    string
	Wrap         bool
	FollowScroll bool

	Mouse bool
	Watch bool

	Log LogConfig
}

// LogConfig configures logging.
type LogConfig struct {
	Level string
	File  string
}

// Setting keys.
const (
	KeyTickInterval = "tick_interval"
	KeyScrollBound  = "scroll_bound"
	KeyQuitKey      = "quit_key"
	KeyTheme        = "theme"
	KeyLanguage     = "language"
	KeyForeground   = "foreground"
	KeyBackground   = "background"
	KeyTitle        = "title"
	KeyMargin       = "margin"
	KeyTabWidth     = "tab_width"
	KeyAlignment    = "alignment"
	KeyWrap         = "wrap"
	KeyFollowScroll = "follow_scroll"
	KeyMouse        = "mouse"
	KeyWatch        = "watch"
	KeyLogLevel     = "log.level"
	KeyLogFile      = "log.file"
)

// envMapping maps environment variables onto setting keys.
var envMapping = map[string]string{
	"TINTVIEW_TICK_INTERVAL": KeyTickInterval,
	"TINTVIEW_TICK":          KeyTickInterval,
	"TINTVIEW_SCROLL_BOUND":  KeyScrollBound,
	"TINTVIEW_QUIT_KEY":      KeyQuitKey,
	"TINTVIEW_THEME":         KeyTheme,
	"TINTVIEW_LANGUAGE":      KeyLanguage,
	"TINTVIEW_FOREGROUND":    KeyForeground,
	"TINTVIEW_BACKGROUND":    KeyBackground,
	"TINTVIEW_TITLE":         KeyTitle,
	"TINTVIEW_MARGIN":        KeyMargin,
	"TINTVIEW_TAB_WIDTH":     KeyTabWidth,
	"TINTVIEW_ALIGNMENT":     KeyAlignment,
	"TINTVIEW_WRAP":          KeyWrap,
	"TINTVIEW_FOLLOW_SCROLL": KeyFollowScroll,
	"TINTVIEW_MOUSE":         KeyMouse,
	"TINTVIEW_WATCH":         KeyWatch,
	"TINTVIEW_LOG_LEVEL":     KeyLogLevel,
	"TINTVIEW_LOG_FILE":      KeyLogFile,
}

// stringKeys are never type-converted when read from the environment.
var stringKeys = []string{KeyQuitKey, KeyTheme, KeyLanguage, KeyForeground, KeyBackground, KeyTitle, KeyLogFile}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TickInterval: 250 * time.Millisecond,
		ScrollBound:  10,
		QuitKey:      "q",
		Theme:        "monokai",
		Language:     "",
		Title:        "Left, no wrap",
		Margin:       5,
		TabWidth:     4,
		Alignment:    "left",
		Mouse:        true,
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Options selects the layers Load reads.
type Options struct {
	// File is the config file path. Empty skips the file layer.
	File string
	// Overrides are applied last, usually from command-line flags.
	Overrides map[string]any
	// FS reads the config file. Defaults to the OS file system.
	FS loader.FileSystem
	// Env overrides the environment, for tests.
	Env loader.Loader
}

// Load builds a Config from defaults and the layers in opts, then
// validates it.
func Load(opts Options) (Config, error) {
	cfg := Default()

	merged := make(map[string]any)

	if opts.File != "" {
		fsys := opts.FS
		if fsys == nil {
			fsys = loader.DefaultFS()
		}
		l, err := loader.ForFile(fsys, opts.File)
		if err != nil {
			return cfg, err
		}
		fileCfg, err := l.Load()
		if err != nil {
			return cfg, err
		}
		merged = loader.DeepMerge(merged, fileCfg)
	}

	env := opts.Env
	if env == nil {
		env = NewEnvLoader()
	}
	envCfg, err := env.Load()
	if err != nil {
		return cfg, fmt.Errorf("reading environment: %w", err)
	}
	merged = loader.DeepMerge(merged, envCfg)

	merged = loader.DeepMerge(merged, opts.Overrides)

	if err := cfg.Apply(merged); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// NewEnvLoader returns the environment loader for tintview settings.
func NewEnvLoader() *loader.EnvLoader {
	return loader.NewEnvLoader(EnvPrefix, envMapping).KeepString(stringKeys...)
}

// Apply sets the fields named in values. Unknown keys are rejected.
func (c *Config) Apply(values map[string]any) error {
	return walk("", values, func(key string, v any) error {
		var err error
		switch key {
		case KeyTickInterval:
			c.TickInterval, err = asDuration(v)
		case KeyScrollBound:
			c.ScrollBound, err = asInt(v)
		case KeyQuitKey:
			c.QuitKey, err = asString(v)
		case KeyTheme:
			c.Theme, err = asString(v)
		case KeyLanguage:
			c.Language, err = asString(v)
		case KeyForeground:
			c.Foreground, err = asString(v)
		case KeyBackground:
			c.Background, err = asString(v)
		case KeyTitle:
			c.Title, err = asString(v)
		case KeyMargin:
			c.Margin, err = asInt(v)
		case KeyTabWidth:
			c.TabWidth, err = asInt(v)
		case KeyAlignment:
			c.Alignment, err = asString(v)
		case KeyWrap:
			c.Wrap, err = asBool(v)
		case KeyFollowScroll:
			c.FollowScroll, err = asBool(v)
		case KeyMouse:
			c.Mouse, err = asBool(v)
		case KeyWatch:
			c.Watch, err = asBool(v)
		case KeyLogLevel:
			c.Log.Level, err = asString(v)
		case KeyLogFile:
			c.Log.File, err = asString(v)
		default:
			return &ValidationError{Path: key, Message: "unknown setting", Value: v, Code: ErrCodeUnknownSetting}
		}
		if err != nil {
			return &ValidationError{Path: key, Message: err.Error(), Value: v, Code: ErrCodeTypeMismatch}
		}
		return nil
	})
}

// Colors returns the configured text and screen colours. An unset colour
// is core.ColorDefault.
func (c Config) Colors() (fg, bg core.Color, err error) {
	if fg, err = parseColor(KeyForeground, c.Foreground); err != nil {
		return fg, bg, err
	}
	bg, err = parseColor(KeyBackground, c.Background)
	return fg, bg, err
}

func parseColor(key, value string) (core.Color, error) {
	if value == "" {
		return core.ColorDefault, nil
	}
	col, err := core.ColorFromHex(value)
	if err != nil {
		return core.ColorDefault, &ValidationError{Path: key, Message: "must be a hex colour such as #1e1e1e", Value: value, Code: ErrCodeInvalidEnum}
	}
	return col, nil
}

// walk visits every leaf of a nested map with its dotted key, in a stable
// order so the first error reported does not depend on map iteration.
func walk(prefix string, values map[string]any, fn func(key string, v any) error) error {
	for _, k := range sortedKeys(values) {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := values[k].(map[string]any); ok {
			if err := walk(key, nested, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(key, values[k]); err != nil {
			return err
		}
	}
	return nil
}
