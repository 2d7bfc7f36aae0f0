package config

import (
	"fmt"
	"strings"

	"github.com/luckyadam/vue-explore/internal/logging"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// Fields lists the fields that failed validation.
func (vr *ValidationResult) Fields() []string {
	fields := make([]string, 0, len(vr.Errors))
	for _, err := range vr.Errors {
		fields = append(fields, err.Field)
	}
	return fields
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	write := func(title string, issues []ValidationError) {
		if len(issues) == 0 {
			return
		}
		builder.WriteString(title + ":\n")
		for _, issue := range issues {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", issue.Field, issue.Message))
			for _, suggestion := range issue.Suggestions {
				builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
			}
		}
	}

	write("Validation errors", vr.Errors)
	write("Validation warnings", vr.Warnings)
	return builder.String()
}

// ValidateWithDetails performs validation with detailed feedback
func ValidateWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateEngineConfig(&config.Engine, result)
	validatePollConfig(&config.Poll, result)
	validateLogConfig(&config.Log, result)

	result.Valid = !result.HasErrors()
	return result
}

func validateEngineConfig(config *EngineConfig, result *ValidationResult) {
	for _, prefix := range config.ReservedPrefixes {
		if prefix == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "engine.reserved_prefixes",
				Value:   config.ReservedPrefixes,
				Message: "reserved prefix cannot be empty",
				Suggestions: []string{
					"An empty prefix would reserve every key",
					"Use the defaults: '$' and '_'",
				},
			})
			break
		}
	}

	if config.DefaultDepth < -1 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "engine.default_depth",
			Value:   config.DefaultDepth,
			Message: fmt.Sprintf("depth %d is below -1", config.DefaultDepth),
			Suggestions: []string{
				"Use -1 for unlimited depth",
				"Use 0 to watch only the named properties",
			},
		})
	}

	if !config.ReentrancyGuard {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "engine.reentrancy_guard",
			Value:   false,
			Message: "a watcher writing to the node it observes may loop forever",
		})
	}
}

func validatePollConfig(config *PollConfig, result *ValidationResult) {
	if config.Interval <= 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "poll.interval",
			Value:       config.Interval,
			Message:     "poll interval must be positive",
			Suggestions: []string{"The default interval is " + DefaultInterval.String()},
		})
	}
	if config.Debounce < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "poll.debounce",
			Value:   config.Debounce,
			Message: "debounce delay cannot be negative",
		})
	}
	if config.Interval > 0 && config.Debounce > config.Interval {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "poll.debounce",
			Value:   config.Debounce,
			Message: fmt.Sprintf("debounce %s is longer than the poll interval %s", config.Debounce, config.Interval),
		})
	}
}

func validateLogConfig(config *LogConfig, result *ValidationResult) {
	if _, ok := logging.ParseLevel(config.Level); !ok {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "log.level",
			Value:       config.Level,
			Message:     fmt.Sprintf("unknown log level '%s'", config.Level),
			Suggestions: []string{"Available levels: debug, info, warn, error"},
		})
	}
	switch config.Format {
	case "text", "json":
	default:
		result.Errors = append(result.Errors, ValidationError{
			Field:       "log.format",
			Value:       config.Format,
			Message:     fmt.Sprintf("unknown log format '%s'", config.Format),
			Suggestions: []string{"Use 'text' or 'json'"},
		})
	}
}
