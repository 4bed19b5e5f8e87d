package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/itantech/napista/internal/config"
	"github.com/itantech/napista/internal/event"
	"github.com/itantech/napista/internal/filter"
	"github.com/itantech/napista/internal/ingest"
	"github.com/itantech/napista/internal/logger"
	"github.com/itantech/napista/internal/notifier"
	"github.com/itantech/napista/internal/sheets"
	"github.com/itantech/napista/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// DefaultConfigPath is read when --config is not given.
const DefaultConfigPath = "napista.yaml"

// rootOptions holds the persistent flags shared by all commands.
type rootOptions struct {
	configPath string
	snapshot   string
	verbose    bool

	// now is replaced in tests.
	now func() time.Time
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{now: time.Now})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "napista",
		Short: "Browse the Na Pista! cultural agenda",
		Long: `A CLI for the Na Pista! cultural agenda.
Loads upcoming events from the published spreadsheet, falling back to the
local snapshot when the sheet cannot be read, and lists, searches and
exports them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", DefaultConfigPath, "Path to the YAML config file")
	cmd.PersistentFlags().StringVar(&opts.snapshot, "snapshot", "", "Snapshot file (overrides snapshot.path)")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(
		newListCmd(opts),
		newTypesCmd(opts),
		newPicksCmd(opts),
		newExportCmd(opts),
		newICSCmd(opts),
		newServeCmd(opts),
	)

	return cmd
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}

// app is the wiring shared by the commands of one invocation.
type app struct {
	cfg   *config.Config
	loc   *time.Location
	store *storage.Store
	now   func() time.Time
}

func newApp(opts *rootOptions, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.snapshot != "" {
		cfg.Snapshot.Path = opts.snapshot
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, logOut))

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := storage.New(cfg.Snapshot.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	logger.Debug("Configuration loaded", logger.Fields{
		"config":   opts.configPath,
		"source":   cfg.Source.Kind,
		"snapshot": store.Path(),
		"cutoff":   cfg.Cutoff,
		"timezone": cfg.Timezone,
	})

	return &app{cfg: cfg, loc: loc, store: store, now: opts.now}, nil
}

// source builds the live row source selected by source.kind.
func (a *app) source() ingest.Source {
	src := a.cfg.Source
	if src.Kind == config.SourceHTML {
		return sheets.NewHTMLSource(src.HTMLURL, src.Timeout)
	}
	return sheets.NewClient(src.SpreadsheetID, src.Range, src.APIKey, src.Timeout)
}

func (a *app) pipeline(observer ingest.Observer) *ingest.Pipeline {
	return &ingest.Pipeline{
		Source:   a.source(),
		Snapshot: a.store,
		Observer: observer,
		Now:      a.now,
		Location: a.loc,
		Cutoff:   a.cfg.CutoffPolicy(),
		Timeout:  a.cfg.Source.Timeout,
	}
}

func (a *app) engine() filter.Engine {
	return filter.Engine{Normalizer: event.NewNormalizer(a.now(), a.loc)}
}

// newNotifier returns the dry-run printer or the Twitter poster.
func newNotifier(dryRun bool, out io.Writer) (notifier.Notifier, error) {
	if dryRun {
		return notifier.NewDryRunNotifier(out), nil
	}
	n, err := notifier.NewTwitterNotifier()
	if err != nil {
		return nil, fmt.Errorf("initializing notifier: %w", err)
	}
	return n, nil
}
