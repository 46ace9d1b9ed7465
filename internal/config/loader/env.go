package loader

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "TINTVIEW_")
	mapping map[string]string // Env var -> config path
	raw     map[string]bool   // Config paths kept as plain strings
	environ func() []string
}

// NewEnvLoader creates a loader with explicit variable mappings.
// The prefix should include the trailing underscore (e.g., "TINTVIEW_").
func NewEnvLoader(prefix string, mapping map[string]string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: mapping,
		raw:     make(map[string]bool),
		environ: os.Environ,
	}
}

// KeepString marks config paths whose values must not be type-converted,
// so a quit key of "1" stays a string.
func (l *EnvLoader) KeepString(paths ...string) *EnvLoader {
	for _, p := range paths {
		l.raw[p] = true
	}
	return l
}

// Load reads environment variables and returns a configuration map.
// Mapped variables use their configured path. Other prefixed variables map
// to their lowercased name with "__" separating sections, so
// TINTVIEW_LOG__FILE becomes log.file.
// Empty string values are treated as valid values, not as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for _, env := range l.environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}

		path, mapped := l.mapping[name]
		if !mapped {
			path = l.envToPath(name)
		}
		if path == "" {
			continue
		}

		if l.raw[path] {
			SetByPath(config, path, value)
		} else {
			SetByPath(config, path, parseValue(value))
		}
	}

	return config, nil
}

// envToPath converts TINTVIEW_LOG__LEVEL to log.level.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.ToLower(strings.TrimPrefix(env, l.prefix))
	return strings.ReplaceAll(name, "__", ".")
}

// parseValue attempts to parse the string value into an appropriate type.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	lower := strings.ToLower(s)
	if lower == "true" || lower == "yes" || lower == "on" {
		return true
	}
	if lower == "false" || lower == "no" || lower == "off" {
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	if d, err := time.ParseDuration(s); err == nil {
		return d
	}

	return s
}
