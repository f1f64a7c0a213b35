// Package config loads environment configuration with validation and
// fail-open fallback: an invalid value never stops the process, it is
// replaced by the default and reported as a warning.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Result is the outcome of loading one configuration value.
// FallbackApplied is true when the environment value was rejected and
// Value holds the default instead.
type Result[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvString returns the variable's value, or defaultValue when unset or empty.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback loads a string and validates it.
// An unset variable yields the default without a warning.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) Result[string] {
	return loadEnv(envKey, defaultValue,
		func(s string) (string, error) { return s, nil },
		validator, "invalid value")
}

// LoadEnvDuration loads a time.Duration in time.ParseDuration format.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) Result[time.Duration] {
	return loadEnv(envKey, defaultValue, time.ParseDuration, validator, "invalid duration format")
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) Result[int] {
	return loadEnv(envKey, defaultValue, strconv.Atoi, validator, "invalid integer format")
}

// LoadEnvFloat loads a float64.
func LoadEnvFloat(envKey string, defaultValue float64, validator func(float64) error) Result[float64] {
	return loadEnv(envKey, defaultValue,
		func(s string) (float64, error) { return strconv.ParseFloat(s, 64) },
		validator, "invalid float format")
}

// LoadEnvBool loads a boolean accepted by strconv.ParseBool.
func LoadEnvBool(envKey string, defaultValue bool) Result[bool] {
	return loadEnv(envKey, defaultValue, strconv.ParseBool, nil,
		"invalid boolean format, expected 'true' or 'false'")
}

func loadEnv[T any](
	envKey string,
	defaultValue T,
	parse func(string) (T, error),
	validator func(T) error,
	parseErrText string,
) Result[T] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return Result[T]{Value: defaultValue}
	}

	fallback := func(reason string) Result[T] {
		return Result[T]{
			Value: defaultValue,
			Warnings: []string{fmt.Sprintf("Invalid %s='%s': %s, falling back to default '%v'",
				envKey, raw, reason, defaultValue)},
			FallbackApplied: true,
		}
	}

	parsed, err := parse(raw)
	if err != nil {
		return fallback(parseErrText)
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallback(err.Error())
		}
	}
	return Result[T]{Value: parsed}
}

// FallbackRecorder receives one call per rejected configuration field.
// *ConfigMetrics implements it.
type FallbackRecorder interface {
	RecordValidationError(field string)
	RecordFallback(field, fallbackType string)
	SetFallbackActive(active bool)
	RecordLoadTimestamp()
}

// Loader reads a group of related settings, logging every fallback and
// forwarding it to an optional recorder.
type Loader struct {
	logger   *slog.Logger
	recorder FallbackRecorder
	fallback bool
}

// NewLoader returns a Loader. recorder may be nil.
func NewLoader(logger *slog.Logger, recorder FallbackRecorder) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, recorder: recorder}
}

func (l *Loader) String(envKey, defaultValue string, validator func(string) error) string {
	return apply(l, envKey, LoadEnvWithFallback(envKey, defaultValue, validator))
}

func (l *Loader) Int(envKey string, defaultValue int, validator func(int) error) int {
	return apply(l, envKey, LoadEnvInt(envKey, defaultValue, validator))
}

func (l *Loader) Float(envKey string, defaultValue float64, validator func(float64) error) float64 {
	return apply(l, envKey, LoadEnvFloat(envKey, defaultValue, validator))
}

func (l *Loader) Duration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) time.Duration {
	return apply(l, envKey, LoadEnvDuration(envKey, defaultValue, validator))
}

func (l *Loader) Bool(envKey string, defaultValue bool) bool {
	return apply(l, envKey, LoadEnvBool(envKey, defaultValue))
}

// FallbackApplied reports whether any field loaded so far fell back to its default.
func (l *Loader) FallbackApplied() bool { return l.fallback }

// Finish publishes the aggregate fallback state and the load timestamp.
func (l *Loader) Finish() {
	if l.recorder == nil {
		return
	}
	l.recorder.SetFallbackActive(l.fallback)
	l.recorder.RecordLoadTimestamp()
}

func apply[T any](l *Loader, envKey string, r Result[T]) T {
	if !r.FallbackApplied {
		return r.Value
	}
	l.fallback = true
	if l.recorder != nil {
		l.recorder.RecordValidationError(envKey)
		l.recorder.RecordFallback(envKey, "default")
	}
	for _, w := range r.Warnings {
		l.logger.Warn("Configuration fallback applied",
			slog.String("field", envKey),
			slog.String("warning", w))
	}
	return r.Value
}
