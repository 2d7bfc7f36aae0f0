package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/luckyadam/vue-explore/internal/dirty"
	"github.com/luckyadam/vue-explore/internal/document"
	"github.com/luckyadam/vue-explore/internal/errors"
	"github.com/luckyadam/vue-explore/internal/filter"
	"github.com/luckyadam/vue-explore/internal/logging"
	"github.com/luckyadam/vue-explore/internal/watcher"
	"github.com/spf13/cobra"
)

// rootEntry names the entry watching the document's top level.
const rootEntry = "$root"

var pollFlags PollFlags

var pollCmd = &cobra.Command{
	Use:     "poll <document>",
	Aliases: []string{"p"},
	Short:   "Dirty-check a document file and print what changed",
	Long: `Poll loads a YAML or JSON document whose root is a mapping and keeps it in
memory. When the file changes on disk it is reloaded into the same value in
place and the dirty checker compares every watched entry against its
baseline. The checker also runs on a fixed interval.

The top level is watched as "$root"; every mapping or sequence directly
under it is watched by its key, and sequences also report length changes.

Examples:
  vue-explore poll state.yaml
  vue-explore poll state.yaml --interval 1s --timeout 1m -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)
	addPollFlags(pollCmd, &pollFlags)
}

func runPoll(cmd *cobra.Command, args []string) error {
	if err := pollFlags.ValidateFlags(); err != nil {
		return err
	}
	pollFlags.apply()

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	f, err := filter.Compile(pollFlags.Filter)
	if err != nil {
		return err
	}
	session, err := newPollSession(args[0], NewPrinter(cmd.OutOrStdout(), pollFlags.Output, f), logger)
	if err != nil {
		return err
	}

	interval := cfg.Poll.Interval
	if pollFlags.Interval > 0 {
		interval = pollFlags.Interval
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if pollFlags.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pollFlags.Timeout)
		defer cancel()
	}

	fw, err := watcher.NewFileWatcher(cfg.Poll.Debounce, watcher.WithLogger(logger))
	if err != nil {
		return err
	}
	defer fw.Stop()

	fw.AddFilter(watcher.NoBackupFilter)
	if err := fw.AddDocument(session.path); err != nil {
		return err
	}
	fw.AddHandler(session.handle)
	if err := fw.Start(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "polling document", "document", session.path, "entries", session.checker.Len(), "interval", interval)
	return session.checker.Run(ctx, interval)
}

// pollSession keeps a document in memory and dirty-checks it.
type pollSession struct {
	path    string
	doc     map[string]any
	mutex   sync.Mutex
	checker *dirty.Checker
	printer *Printer
	logger  logging.Logger
}

func newPollSession(path string, printer *Printer, logger logging.Logger) (*pollSession, error) {
	doc, err := loadMapping(path)
	if err != nil {
		return nil, err
	}

	s := &pollSession{
		path:    path,
		doc:     doc,
		printer: printer,
		logger:  logger,
	}
	s.checker = dirty.NewChecker(dirty.WithLogger(logger), dirty.WithLocker(&s.mutex))

	if _, err := s.checker.Watch(doc, nil, s.report(rootEntry, false)); err != nil {
		return nil, err
	}
	for _, key := range sortedKeys(doc) {
		switch doc[key].(type) {
		case map[string]any:
			if _, err := s.checker.Watch(doc, key, s.report(key, false)); err != nil {
				return nil, err
			}
		case []any:
			if _, err := s.checker.Watch(doc, key, s.report(key, false)); err != nil {
				return nil, err
			}
			if _, err := s.checker.WatchLength(doc, key, s.report(key, true)); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func (s *pollSession) report(name string, length bool) dirty.Callback {
	return func(d dirty.Delta) {
		if err := s.printer.PrintDelta(name, length, d); err != nil {
			s.logger.Warn(context.Background(), err, "cannot print delta", "entry", name)
		}
	}
}

// handle reloads the document after a debounced batch of file events.
func (s *pollSession) handle(ctx context.Context, events []watcher.ChangeEvent) error {
	for _, event := range events {
		if event.Type != watcher.EventTypeDeleted {
			_, err := s.reload(ctx)
			return err
		}
	}
	// Deleted files are replaced by a later create when editors save.
	return nil
}

// reload reads the file into the in-memory document and runs a check.
func (s *pollSession) reload(ctx context.Context) (int, error) {
	next, err := loadMapping(s.path)
	if err != nil {
		return 0, err
	}

	s.mutex.Lock()
	document.Sync(s.doc, next)
	s.mutex.Unlock()

	s.logger.Debug(ctx, "document reloaded", "document", s.path)
	return s.checker.Tick(ctx)
}

func loadMapping(path string) (map[string]any, error) {
	loaded, err := document.Load(path)
	if err != nil {
		return nil, err
	}
	doc, ok := loaded.(map[string]any)
	if !ok {
		return nil, errors.NewValidationError(errors.ErrCodeUnsupportedContainer, "document root must be a mapping").
			WithContext("document", path).
			WithContext("kind", fmt.Sprintf("%T", loaded))
	}
	return doc, nil
}
