package config

import (
	"fmt"

	"github.com/dshills/tintview/internal/log"
	"github.com/dshills/tintview/internal/renderer"
	"github.com/dshills/tintview/internal/renderer/backend"
)

// ValidationError describes a validation failure for a setting.
type ValidationError struct {
	// Path is the setting key that failed validation.
	Path string
	// Message describes the validation error.
	Message string
	// Value is the invalid value.
	Value any
	// Code categorizes the validation error.
	Code ValidationErrorCode
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (value: %v)", e.Path, e.Message, e.Value)
}

// ValidationErrorCode categorizes validation errors.
type ValidationErrorCode uint8

const (
	// ErrCodeUnknownSetting indicates an unrecognized setting key.
	ErrCodeUnknownSetting ValidationErrorCode = iota
	// ErrCodeTypeMismatch indicates the value type is wrong.
	ErrCodeTypeMismatch
	// ErrCodeOutOfRange indicates a numeric value is out of range.
	ErrCodeOutOfRange
	// ErrCodeInvalidEnum indicates the value is not in the allowed set.
	ErrCodeInvalidEnum
)

// String returns a human-readable name for the error code.
func (c ValidationErrorCode) String() string {
	switch c {
	case ErrCodeUnknownSetting:
		return "unknown_setting"
	case ErrCodeTypeMismatch:
		return "type_mismatch"
	case ErrCodeOutOfRange:
		return "out_of_range"
	case ErrCodeInvalidEnum:
		return "invalid_enum"
	default:
		return "unknown"
	}
}

// Validate checks ranges and enumerations. It reports the first problem.
func (c Config) Validate() error {
	switch {
	case c.TickInterval <= 0:
		return &ValidationError{Path: KeyTickInterval, Message: "must be positive", Value: c.TickInterval, Code: ErrCodeOutOfRange}
	case c.ScrollBound <= 0:
		return &ValidationError{Path: KeyScrollBound, Message: "must be positive", Value: c.ScrollBound, Code: ErrCodeOutOfRange}
	case c.Margin < 0:
		return &ValidationError{Path: KeyMargin, Message: "must not be negative", Value: c.Margin, Code: ErrCodeOutOfRange}
	case c.TabWidth < 1:
		return &ValidationError{Path: KeyTabWidth, Message: "must be at least 1", Value: c.TabWidth, Code: ErrCodeOutOfRange}
	}

	if _, err := renderer.ParseAlignment(c.Alignment); err != nil {
		return &ValidationError{Path: KeyAlignment, Message: "must be left, center or right", Value: c.Alignment, Code: ErrCodeInvalidEnum}
	}
	if _, err := backend.ParseKey(c.QuitKey); err != nil {
		return &ValidationError{Path: KeyQuitKey, Message: err.Error(), Value: c.QuitKey, Code: ErrCodeInvalidEnum}
	}
	if _, _, err := c.Colors(); err != nil {
		return err
	}
	if !log.ValidLevel(c.Log.Level) {
		return &ValidationError{Path: KeyLogLevel, Message: "must be debug, info, warn or error", Value: c.Log.Level, Code: ErrCodeInvalidEnum}
	}
	return nil
}
