package cmd

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/luckyadam/vue-explore/internal/filter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var outputFormats = []string{"text", "json"}

// ReportFlags controls how notifications are printed
type ReportFlags struct {
	Output  string `flag:"output,o" desc:"Output format (text|json)" default:"text"`
	Filter  string `flag:"filter" desc:"expr-lang expression selecting notifications" default:""`
	NoColor bool   `flag:"no-color" desc:"Disable colored output" default:"false"`
}

// ObserveFlags configures the observe command
type ObserveFlags struct {
	ReportFlags

	Script      string `flag:"script,s" desc:"Mutation script to run (YAML)" default:""`
	Depth       int    `flag:"depth,d" desc:"Watch depth, -1 for unlimited" default:"-1"`
	TrackLength bool   `flag:"track-length" desc:"Report sequence length changes" default:"false"`
	Final       bool   `flag:"final" desc:"Print the document after the script" default:"false"`
}

// PollFlags configures the poll command
type PollFlags struct {
	ReportFlags

	Interval time.Duration `flag:"interval,i" desc:"Dirty-check interval (default from config)" default:"0"`
	Timeout  time.Duration `flag:"timeout" desc:"Stop after this long, 0 runs until interrupted" default:"0"`
}

func addReportFlags(cmd *cobra.Command, flags *ReportFlags) {
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVar(&flags.Filter, "filter", "", "expr-lang expression selecting notifications, e.g. 'kind == \"set\"'")
	cmd.Flags().BoolVar(&flags.NoColor, "no-color", false, "Disable colored output")

	AddFlagValidation(cmd, "output", ValidateOutputFormat)
	AddFlagValidation(cmd, "filter", ValidateFilter)
}

func addObserveFlags(cmd *cobra.Command, flags *ObserveFlags) {
	addReportFlags(cmd, &flags.ReportFlags)
	cmd.Flags().StringVarP(&flags.Script, "script", "s", "", "Mutation script to run (YAML)")
	cmd.Flags().IntVarP(&flags.Depth, "depth", "d", -1, "Watch depth, -1 for unlimited")
	cmd.Flags().BoolVar(&flags.TrackLength, "track-length", false, "Report sequence length changes")
	cmd.Flags().BoolVar(&flags.Final, "final", false, "Print the document after the script")

	AddFlagValidation(cmd, "script", ValidateFileExists)
}

func addPollFlags(cmd *cobra.Command, flags *PollFlags) {
	addReportFlags(cmd, &flags.ReportFlags)
	cmd.Flags().DurationVarP(&flags.Interval, "interval", "i", 0, "Dirty-check interval (default from config)")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "Stop after this long, 0 runs until interrupted")
}

// apply sets global output state the flags control.
func (f *ReportFlags) apply() {
	if f.NoColor {
		color.NoColor = true
	}
}

// ValidateFlags validates flag combinations and values
func (f *ObserveFlags) ValidateFlags() error {
	if f.Depth < -1 {
		return fmt.Errorf("depth must be -1 or greater, got %d", f.Depth)
	}
	if f.Final && f.Output == "json" {
		return fmt.Errorf("cannot specify both --final and --output json")
	}
	return nil
}

// ValidateFlags validates flag combinations and values
func (f *PollFlags) ValidateFlags() error {
	if f.Interval < 0 {
		return fmt.Errorf("interval cannot be negative, got %s", f.Interval)
	}
	if f.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative, got %s", f.Timeout)
	}
	return nil
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidateOutputFormat accepts the supported report formats.
func ValidateOutputFormat(format string) error {
	if !slices.Contains(outputFormats, format) {
		return fmt.Errorf("invalid output format %s, must be one of: %s",
			format, strings.Join(outputFormats, ", "))
	}
	return nil
}

// ValidateFilter checks that a filter expression compiles.
func ValidateFilter(source string) error {
	_, err := filter.Compile(source)
	return err
}

// ValidateFileExists checks that an optional file exists.
func ValidateFileExists(filename string) error {
	if filename == "" {
		return nil
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filename)
	}

	return nil
}
