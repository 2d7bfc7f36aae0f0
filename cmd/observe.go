package cmd

import (
	"bytes"

	"github.com/luckyadam/vue-explore/internal/config"
	"github.com/luckyadam/vue-explore/internal/document"
	"github.com/luckyadam/vue-explore/internal/errors"
	"github.com/luckyadam/vue-explore/internal/filter"
	"github.com/luckyadam/vue-explore/internal/logging"
	"github.com/luckyadam/vue-explore/internal/reactive"
	"github.com/luckyadam/vue-explore/internal/script"
	"github.com/spf13/cobra"
)

var observeFlags ObserveFlags

var observeCmd = &cobra.Command{
	Use:     "observe <document>",
	Aliases: []string{"o"},
	Short:   "Observe a document and print every change a script makes",
	Long: `Observe loads a YAML or JSON document, watches it with the "default"
watcher and applies a mutation script. Every notification delivered to a
watcher is printed.

Script steps: set, add, delete, append, prepend, pop, shift, splice, sort,
reverse, set_at, remove, patch, watch, unwatch.

Examples:
  vue-explore observe state.yaml --script steps.yaml
  vue-explore observe state.yaml -s steps.yaml --depth 1 --track-length
  vue-explore observe state.yaml -s steps.yaml --filter 'kind == "splice"' -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runObserve,
}

func init() {
	rootCmd.AddCommand(observeCmd)
	addObserveFlags(observeCmd, &observeFlags)
}

func runObserve(cmd *cobra.Command, args []string) error {
	if err := observeFlags.ValidateFlags(); err != nil {
		return err
	}
	observeFlags.apply()

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	doc, err := document.Load(args[0])
	if err != nil {
		return err
	}
	var steps []script.Step
	if observeFlags.Script != "" {
		if steps, err = script.Load(observeFlags.Script); err != nil {
			return err
		}
	}

	f, err := filter.Compile(observeFlags.Filter)
	if err != nil {
		return err
	}
	printer := NewPrinter(cmd.OutOrStdout(), observeFlags.Output, f)

	engine := newEngine(cfg, logger)
	root := engine.Observe(doc)
	if root == nil {
		return errors.NewValidationError(errors.ErrCodeUnsupportedContainer, "document root must be a mapping or a sequence").
			WithContext("document", args[0])
	}

	var printErr error
	sink := func(watcher string, change reactive.Change) {
		if err := printer.PrintChange(watcher, change); err != nil && printErr == nil {
			printErr = err
		}
	}

	depth := cfg.Engine.DefaultDepth
	if cmd.Flags().Changed("depth") {
		depth = observeFlags.Depth
	}
	runner := script.NewRunner(engine, root, sink,
		script.WithDefaultDepth(depth),
		script.WithLogger(logger),
	)

	if err := runner.Apply(ctx, script.Step{Op: script.OpWatch, TrackLength: observeFlags.TrackLength}); err != nil {
		return err
	}
	logger.Info(ctx, "observing document", "document", args[0], "nodes", engine.Len(), "root_entries", engine.WatcherCount(root), "steps", len(steps))

	if err := runner.Run(ctx, steps); err != nil {
		return err
	}
	if printErr != nil {
		return printErr
	}

	if observeFlags.Final {
		var buf bytes.Buffer
		if err := document.Encode(&buf, reactive.Export(root)); err != nil {
			return err
		}
		return printer.writeSection("final document", buf.String())
	}
	return nil
}

func newEngine(cfg *config.Config, logger logging.Logger) *reactive.Engine {
	return reactive.New(
		reactive.WithReservedPrefixes(cfg.Engine.ReservedPrefixes...),
		reactive.WithReentrancyGuard(cfg.Engine.ReentrancyGuard),
		reactive.WithLogger(logger),
	)
}
