package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"rwscout/internal/catalog"
	"rwscout/internal/filter"
	"rwscout/internal/model"
	"rwscout/internal/session"
	"rwscout/internal/util"
)

type checkOptions struct {
	date   string
	from   string
	to     string
	search string

	neighborhoods []string
	boroughs      []string
	cuisines      []string
	meals         []string

	available    bool
	notAvailable bool
	unchecked    bool
	errored      bool

	quiet bool
}

func (c *cli) newCheckCmd() *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check availability for the filtered restaurants and print a table",
		Example: `  rwscout check --cuisine Italian --borough Manhattan --date tomorrow --party-size 4
  rwscout check --from 18:00 --to 20:30 --available`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if cfg.CatalogFile != "" && cfg.APIURL == "" {
				return errors.New("api_url is required to check availability; catalog_file only lists restaurants")
			}
			svc, err := newServices(cfg, cfg.LogFile)
			if err != nil {
				return err
			}
			defer svc.close()

			ctx := cmd.Context()
			svc.serveMetrics(ctx)

			// The backend may pre-filter; runCheck filters again.
			store, err := svc.loadCatalog(ctx, catalog.QueryFromCriteria(opts.criteria()))
			if err != nil {
				return err
			}
			ctrl := session.New(store.Restaurants(), svc.orchestrator(), cfg.FailedPolicy,
				session.WithLogger(svc.logger),
				session.WithPartySize(cfg.PartySize),
			)
			return runCheck(ctx, ctrl, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.date, "date", "", "date to check: YYYY-MM-DD, 'Feb 14, 2026', today or tomorrow (default today)")
	f.StringVar(&opts.from, "from", "", "earliest slot time counted as available (HH:MM)")
	f.StringVar(&opts.to, "to", "", "latest slot time counted as available (HH:MM)")
	f.StringVar(&opts.search, "search", "", "restaurant name contains")
	f.StringSliceVar(&opts.neighborhoods, "neighborhood", nil, "neighborhood (repeatable)")
	f.StringSliceVar(&opts.boroughs, "borough", nil, "borough (repeatable)")
	f.StringSliceVar(&opts.cuisines, "cuisine", nil, "cuisine tag (repeatable)")
	f.StringSliceVar(&opts.meals, "meal", nil, "meal type (repeatable)")
	f.BoolVar(&opts.available, "available", false, "list restaurants with a slot inside the time window")
	f.BoolVar(&opts.notAvailable, "not-available", false, "list restaurants with no open tables")
	f.BoolVar(&opts.unchecked, "unchecked", false, "list restaurants that were not checked")
	f.BoolVar(&opts.errored, "errored", false, "list restaurants whose check failed (failed_policy=separate)")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "do not print progress")

	return cmd
}

// criteria converts the filter flags into base filter criteria.
func (o checkOptions) criteria() model.FilterCriteria {
	return model.FilterCriteria{
		Search:        strings.TrimSpace(o.search),
		Neighborhoods: model.NewStringSet(o.neighborhoods...),
		Boroughs:      model.NewStringSet(o.boroughs...),
		Cuisines:      model.NewStringSet(o.cuisines...),
		MealTypes:     model.NewStringSet(o.meals...),
	}
}

// runCheck applies opts to ctrl, runs one check to the end and prints the
// visible restaurants. An interrupted run still prints what was checked.
func runCheck(ctx context.Context, ctrl *session.Controller, opts checkOptions, out, errOut io.Writer) error {
	date, err := util.ParseDateInput(opts.date)
	if err != nil {
		return fmt.Errorf("invalid --date %q", opts.date)
	}
	if err := ctrl.SetDate(date); err != nil {
		return err
	}
	from, err := util.ParseTimeInput(opts.from)
	if err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	to, err := util.ParseTimeInput(opts.to)
	if err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}
	if err := ctrl.SetWindow(from, to); err != nil {
		return err
	}

	ctrl.SetCriteria(opts.criteria())

	if opts.available {
		ctrl.ToggleAvailable()
	}
	if opts.notAvailable {
		ctrl.ToggleNotAvailable()
	}
	if opts.unchecked {
		ctrl.ToggleUnchecked()
	}
	if opts.errored && !ctrl.ToggleErrored() {
		return errors.New("--errored needs failed_policy=separate")
	}

	run, err := ctrl.StartCheck(ctx)
	if err != nil {
		return err
	}
	if !opts.quiet {
		fmt.Fprintf(errOut, "Checking %d of %d restaurants for %s, party of %d\n",
			run.Total, len(ctrl.Base()), util.FormatDate(ctrl.Date()), ctrl.PartySize())
	}
	for ev := range run.Events() {
		if !ctrl.Apply(ev) || opts.quiet {
			continue
		}
		fmt.Fprintf(errOut, "\r  %d/%d checked, %d with slots", ev.Progress.Completed, ev.Progress.Total, ev.Progress.WithSlots)
	}
	if !opts.quiet && run.Total > 0 {
		fmt.Fprintln(errOut)
	}

	renderCheckTable(out, ctrl)

	if ctrl.RunState() == model.RunCancelled {
		p := ctrl.Progress()
		return fmt.Errorf("check interrupted after %d of %d restaurants", p.Completed, p.Total)
	}
	return nil
}

// renderCheckTable prints the visible restaurants with their availability.
func renderCheckTable(w io.Writer, ctrl *session.Controller) {
	avail := ctrl.Availability()

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Restaurant", "Neighborhood", "Cuisine", "Platform", "Status", "Slots"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Cuisine", WidthMax: 24},
		{Name: "Slots", WidthMax: 40},
	})

	for _, r := range ctrl.Visible() {
		o, checked := ctrl.Outcome(r.ID)
		slots := ""
		if o.HasSlots() {
			slots = util.FormatSlots(filter.SlotsInWindow(o.Slots, avail.TimeFrom, avail.TimeTo), 6)
		}
		tw.AppendRow(table.Row{
			r.Name,
			area(r),
			strings.Join(r.Tags, ", "),
			platformName(r.Reservation.Platform()),
			statusText(r, o, checked, avail),
			slots,
		})
	}

	p := ctrl.Progress()
	tw.AppendFooter(table.Row{
		fmt.Sprintf("%d listed", len(ctrl.Visible())), "", "", "",
		fmt.Sprintf("%d/%d checked", p.Completed, p.Total),
		fmt.Sprintf("%d with slots", p.WithSlots),
	})
	tw.Style().Format.Footer = text.FormatDefault
	tw.Render()
}

func area(r model.Restaurant) string {
	var parts []string
	for _, p := range []string{r.Neighborhood, r.Borough} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return util.JoinOrDash(parts)
}

func platformName(p model.Platform) string {
	switch p {
	case model.PlatformResy:
		return "Resy"
	case model.PlatformOpenTable:
		return "OpenTable"
	case model.PlatformUnknown:
		return "other"
	default:
		return "-"
	}
}

func statusText(r model.Restaurant, o model.ProbeOutcome, checked bool, avail model.AvailabilityFilterState) string {
	if !r.Reservation.Eligible() {
		return "no integration"
	}
	if !checked {
		return "unchecked"
	}
	switch o.Status {
	case model.ProbePending:
		return "checking"
	case model.ProbeFailed:
		return "error: " + o.Message
	}
	if len(o.Slots) == 0 {
		return "none"
	}
	if len(filter.SlotsInWindow(o.Slots, avail.TimeFrom, avail.TimeTo)) == 0 {
		return "outside window"
	}
	return "available"
}
