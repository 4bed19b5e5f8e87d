package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/itantech/napista/internal/calendar"
	"github.com/itantech/napista/internal/filter"
	"github.com/itantech/napista/internal/ingest"
	"github.com/itantech/napista/internal/logger"
	"github.com/itantech/napista/internal/notifier"
	"github.com/itantech/napista/internal/web"
)

// addCriteriaFlags registers the structured filter flags on cmd.
func addCriteriaFlags(cmd *cobra.Command, c *filter.Criteria) {
	cmd.Flags().StringVarP(&c.Search, "search", "q", "", "Free-text search over title, location and type")
	cmd.Flags().StringVar(&c.Date, "date", "", "Only events on this day (DD/MM/YYYY or \"Domingo, 12 de Jan\")")
	cmd.Flags().StringVar(&c.Type, "type", "", "Only events of this type (e.g. Teatro)")
	cmd.Flags().StringVar(&c.Location, "location", "", "Only events whose location contains this text")
}

// buildCriteria merges a positional query with the filter flags; flags win.
func buildCriteria(args []string, flags filter.Criteria) (filter.Criteria, error) {
	c, err := filter.ParseQuery(strings.Join(args, " "))
	if err != nil {
		return filter.Criteria{}, fmt.Errorf("parsing query: %w", err)
	}
	if flags.Search != "" {
		c.Search = flags.Search
	}
	if flags.Date != "" {
		c.Date = flags.Date
	}
	if flags.Type != "" {
		c.Type = flags.Type
	}
	if flags.Location != "" {
		c.Location = flags.Location
	}
	return c, nil
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		criteria filter.Criteria
		format   string
		view     string
		sortBy   string
	)

	cmd := &cobra.Command{
		Use:   "list [query]",
		Short: "List upcoming events",
		Long: `List upcoming events, optionally filtered.

The query is free text plus optional terms:
  napista list samba local:Centro
  napista list tipo:Teatro data:12/01/2025`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format)
			if err != nil {
				return err
			}
			outView, err := parseView(view)
			if err != nil {
				return err
			}
			order, err := parseSortOrder(sortBy)
			if err != nil {
				return err
			}
			c, err := buildCriteria(args, criteria)
			if err != nil {
				return err
			}

			a, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			res := a.pipeline(nil).Run(cmd.Context())
			events := sortEvents(a.engine().Apply(res.Events, c), order)

			result := &OutputResult{
				LoadedAt:   res.LoadedAt.UTC(),
				Source:     res.Outcome.String(),
				Events:     events,
				EventCount: len(events),
			}
			if !c.IsEmpty() {
				result.Filters = c.String()
			}
			return WriteOutput(cmd.OutOrStdout(), result, outFormat, outView)
		},
	}

	addCriteriaFlags(cmd, &criteria)
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&view, "view", "list", "Text view: grid, list or compact")
	cmd.Flags().StringVar(&sortBy, "sort", "date", "Sort order: date, title or type")

	return cmd
}

func newTypesCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the distinct event types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format)
			if err != nil {
				return err
			}

			a, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			res := a.pipeline(nil).Run(cmd.Context())
			types := a.engine().Types(res.Events)

			out := cmd.OutOrStdout()
			if outFormat == FormatJSON {
				return writeJSON(out, struct {
					Types []string `json:"types"`
				}{Types: types})
			}
			if len(types) == 0 {
				fmt.Fprintln(out, "No events found.")
				return nil
			}
			for _, t := range types {
				fmt.Fprintln(out, t)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}

func newPicksCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		view   string
		size   int
		notify bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "picks",
		Short: "Show the curator's picks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format)
			if err != nil {
				return err
			}
			outView, err := parseView(view)
			if err != nil {
				return err
			}

			a, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if size <= 0 {
				size = a.cfg.Picks.Size
			}

			res := a.pipeline(nil).Run(cmd.Context())
			picks := a.engine().Picks(res.Events, a.cfg.Picks.Priority, size)

			if notify || dryRun {
				n, err := newNotifier(dryRun, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				return n.Notify(picks)
			}

			return WriteOutput(cmd.OutOrStdout(), &OutputResult{
				LoadedAt:   res.LoadedAt.UTC(),
				Source:     res.Outcome.String(),
				Events:     picks,
				EventCount: len(picks),
			}, outFormat, outView)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&view, "view", "grid", "Text view: grid, list or compact")
	cmd.Flags().IntVar(&size, "size", 0, "Number of picks (default from config)")
	cmd.Flags().BoolVar(&notify, "notify", false, "Post the picks to Twitter")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the posts instead of sending them")

	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the sheet to the local snapshot",
		Long: `Fetch every eligible row of the sheet, with no date cutoff, and
write it to the snapshot file used when the sheet is unavailable.
The snapshot is left untouched if the sheet cannot be read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			events, err := a.pipeline(nil).FetchAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("exporting snapshot: %w", err)
			}
			if err := a.store.Save(events); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Snapshot written: %d events to %s\n", len(events), a.store.Path())
			return nil
		},
	}
	return cmd
}

func newICSCmd(opts *rootOptions) *cobra.Command {
	var (
		criteria filter.Criteria
		output   string
	)

	cmd := &cobra.Command{
		Use:   "ics [query]",
		Short: "Export upcoming events as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCriteria(args, criteria)
			if err != nil {
				return err
			}

			a, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			res := a.pipeline(nil).Run(cmd.Context())
			engine := a.engine()
			events := engine.Apply(res.Events, c)

			body, skipped := calendar.GenerateICS(events, calendar.Options{
				Normalizer: engine.Normalizer,
				Stamp:      a.now(),
			})
			if skipped > 0 {
				logger.Warn("Events without a usable date left out of calendar", logger.Fields{"skipped": skipped})
			}

			if output == "" || output == "-" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			if err := os.WriteFile(output, []byte(body), 0644); err != nil {
				return fmt.Errorf("writing calendar: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Calendar written: %d events to %s\n", len(events)-skipped, output)
			return nil
		},
	}

	addCriteriaFlags(cmd, &criteria)
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file (- for stdout)")
	return cmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		listen string
		notify bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the agenda over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if listen == "" {
				listen = a.cfg.Listen
			}

			var observer ingest.Observer
			if notify || dryRun {
				n, err := newNotifier(dryRun, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				observer = &notifier.PicksNotifier{
					Next:     n,
					Engine:   a.engine(),
					Priority: a.cfg.Picks.Priority,
					Size:     a.cfg.Picks.Size,
				}
			}

			srvOpts := web.Options{
				Location:  a.loc,
				Priority:  a.cfg.Picks.Priority,
				PicksSize: a.cfg.Picks.Size,
			}
			if a.cfg.Snapshot.RefreshOnSuccess {
				srvOpts.Snapshot = a.store
			}
			srv := web.NewServer(a.pipeline(observer), srvOpts)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv.Refresh(ctx)

			c, err := srv.Schedule(ctx, a.cfg.RefreshCron)
			if err != nil {
				return fmt.Errorf("scheduling refresh %q: %w", a.cfg.RefreshCron, err)
			}
			defer c.Stop()

			return srv.ListenAndServe(ctx, listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&notify, "notify", false, "Post new curator's picks to Twitter after each refresh")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the posts instead of sending them")

	return cmd
}
