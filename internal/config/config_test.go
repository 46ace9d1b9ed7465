package config

import (
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dshills/tintview/internal/renderer/core"
)

type memFS map[string]string

func (m memFS) ReadFile(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(data), nil
}

func (m memFS) Stat(string) (fs.FileInfo, error) { return nil, fs.ErrNotExist }

type mapEnv map[string]any

func (e mapEnv) Load() (map[string]any, error) {
	out := make(map[string]any, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out, nil
}

type failingEnv struct{}

func (failingEnv) Load() (map[string]any, error) { return nil, errors.New("no env") }

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	require.Equal(t, 10, cfg.ScrollBound)
	require.Equal(t, "q", cfg.QuitKey)
	require.Equal(t, "monokai", cfg.Theme)
	require.Equal(t, "Left, no wrap", cfg.Title)
	require.Equal(t, 5, cfg.Margin)
	require.Equal(t, "left", cfg.Alignment)
	require.False(t, cfg.Wrap)
	require.False(t, cfg.FollowScroll)
	require.True(t, cfg.Mouse)
	require.False(t, cfg.Watch)
	require.Equal(t, "info", cfg.Log.Level)
	require.Empty(t, cfg.Log.File)
	require.Empty(t, cfg.Foreground)
	require.Empty(t, cfg.Background)
	require.NoError(t, cfg.Validate())
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load(Options{Env: mapEnv{}})
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_Precedence(t *testing.T) {
	files := memFS{"/etc/tintview.toml": `
theme = "from-file"
margin = 1
tick_interval = "100ms"

[log]
level = "warn"
`}
	env := mapEnv{
		KeyTheme:  "from-env",
		KeyMargin: int64(2),
	}
	overrides := map[string]any{
		KeyTheme: "from-flag",
	}

	cfg, err := Load(Options{File: "/etc/tintview.toml", FS: files, Env: env, Overrides: overrides})
	require.NoError(t, err)

	require.Equal(t, "from-flag", cfg.Theme, "flags beat env and file")
	require.Equal(t, 2, cfg.Margin, "env beats file")
	require.Equal(t, 100*time.Millisecond, cfg.TickInterval, "file beats defaults")
	require.Equal(t, "warn", cfg.Log.Level)
	require.Equal(t, "q", cfg.QuitKey, "untouched keys keep defaults")
}

func TestLoad_YAML(t *testing.T) {
	files := memFS{"/tv.yml": "wrap: true\nalignment: center\nlog:\n  file: /tmp/tv.log\n"}

	cfg, err := Load(Options{File: "/tv.yml", FS: files, Env: mapEnv{}})
	require.NoError(t, err)
	require.True(t, cfg.Wrap)
	require.Equal(t, "center", cfg.Alignment)
	require.Equal(t, "/tmp/tv.log", cfg.Log.File)
}

func TestLoad_Errors(t *testing.T) {
	files := memFS{
		"/bad.toml":     "theme = ",
		"/unknown.toml": "colour = \"red\"",
		"/neg.toml":     "margin = -1",
		"/cfg.json":     "{}",
	}

	tests := []struct {
		name string
		opts Options
		path string
	}{
		{"missing file", Options{File: "/nope.toml"}, ""},
		{"parse error", Options{File: "/bad.toml"}, ""},
		{"unsupported format", Options{File: "/cfg.json"}, ""},
		{"unknown key", Options{File: "/unknown.toml"}, "colour"},
		{"out of range", Options{File: "/neg.toml"}, KeyMargin},
		{"bad override type", Options{Overrides: map[string]any{KeyWrap: []any{1}}}, KeyWrap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.FS = files
			tt.opts.Env = mapEnv{}
			_, err := Load(tt.opts)
			require.Error(t, err)

			if tt.path != "" {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				require.Equal(t, tt.path, verr.Path)
			}
		})
	}

	_, err := Load(Options{Env: failingEnv{}})
	require.ErrorContains(t, err, "environment")
}

func TestApply_Conversions(t *testing.T) {
	cfg := Default()
	err := cfg.Apply(map[string]any{
		KeyTickInterval: int64(500),
		KeyScrollBound:  "7",
		KeyWrap:         "true",
		KeyFollowScroll: true,
		KeyQuitKey:      int64(1),
		KeyMouse:        false,
		"log": map[string]any{
			"level": "debug",
			"file":  "/var/log/tv.log",
		},
	})
	require.NoError(t, err)

	require.Equal(t, 500*time.Millisecond, cfg.TickInterval, "integers are milliseconds")
	require.Equal(t, 7, cfg.ScrollBound)
	require.True(t, cfg.Wrap)
	require.True(t, cfg.FollowScroll)
	require.Equal(t, "1", cfg.QuitKey)
	require.False(t, cfg.Mouse)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "/var/log/tv.log", cfg.Log.File)
}

func TestApply_TypeMismatch(t *testing.T) {
	cfg := Default()
	err := cfg.Apply(map[string]any{KeyMargin: "wide"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, KeyMargin, verr.Path)
	require.Equal(t, ErrCodeTypeMismatch, verr.Code)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
		code   ValidationErrorCode
	}{
		{"zero tick", func(c *Config) { c.TickInterval = 0 }, KeyTickInterval, ErrCodeOutOfRange},
		{"zero scroll bound", func(c *Config) { c.ScrollBound = 0 }, KeyScrollBound, ErrCodeOutOfRange},
		{"negative margin", func(c *Config) { c.Margin = -3 }, KeyMargin, ErrCodeOutOfRange},
		{"zero tab width", func(c *Config) { c.TabWidth = 0 }, KeyTabWidth, ErrCodeOutOfRange},
		{"bad alignment", func(c *Config) { c.Alignment = "justify" }, KeyAlignment, ErrCodeInvalidEnum},
		{"bad quit key", func(c *Config) { c.QuitKey = "hyper+q" }, KeyQuitKey, ErrCodeInvalidEnum},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, KeyLogLevel, ErrCodeInvalidEnum},
		{"bad foreground", func(c *Config) { c.Foreground = "white" }, KeyForeground, ErrCodeInvalidEnum},
		{"bad background", func(c *Config) { c.Background = "#12345" }, KeyBackground, ErrCodeInvalidEnum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			var verr *ValidationError
			require.ErrorAs(t, cfg.Validate(), &verr)
			require.Equal(t, tt.path, verr.Path)
			require.Equal(t, tt.code, verr.Code)
			require.Contains(t, verr.Error(), tt.path)
		})
	}
}

func TestColors(t *testing.T) {
	cfg := Default()
	fg, bg, err := cfg.Colors()
	require.NoError(t, err)
	require.True(t, fg.IsDefault(), "unset colours leave the theme in charge")
	require.True(t, bg.IsDefault())

	cfg, err = Load(Options{
		File: "/etc/tintview.toml",
		FS:   memFS{"/etc/tintview.toml": "foreground = \"#FFFFFF\"\nbackground = \"000\"\n"},
		Env:  mapEnv{},
	})
	require.NoError(t, err)

	fg, bg, err = cfg.Colors()
	require.NoError(t, err)
	require.True(t, fg.Equals(core.ColorWhite), "got %v", fg)
	require.True(t, bg.Equals(core.ColorBlack), "got %v", bg)
}

func TestNewEnvLoader(t *testing.T) {
	t.Setenv("TINTVIEW_QUIT_KEY", "1")
	t.Setenv("TINTVIEW_TICK", "125ms")
	t.Setenv("TINTVIEW_LOG_LEVEL", "error")

	cfg, err := Load(Options{})
	require.NoError(t, err)
	require.Equal(t, "1", cfg.QuitKey)
	require.Equal(t, 125*time.Millisecond, cfg.TickInterval)
	require.Equal(t, "error", cfg.Log.Level)
}

func TestValidationErrorCodeString(t *testing.T) {
	require.Equal(t, "unknown_setting", ErrCodeUnknownSetting.String())
	require.Equal(t, "type_mismatch", ErrCodeTypeMismatch.String())
	require.Equal(t, "out_of_range", ErrCodeOutOfRange.String())
	require.Equal(t, "invalid_enum", ErrCodeInvalidEnum.String())
}
