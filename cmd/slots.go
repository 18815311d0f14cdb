package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"rwscout/internal/model"
	"rwscout/internal/probe"
	"rwscout/internal/util"
)

func (c *cli) newSlotsCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "slots <opentable-id|reservation-url>",
		Short: "Look up open slots for one restaurant",
		Example: `  rwscout slots 1001 --date 2026-11-20 --party-size 4
  rwscout slots https://resy.com/cities/ny/venues/cote`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if cfg.APIURL == "" {
				return errors.New("api_url is required to look up slots")
			}

			r := restaurantFromArg(args[0])
			if !r.Reservation.Eligible() {
				return fmt.Errorf("%w: %q is not an OpenTable id or a Resy/OpenTable URL", model.ErrNoIntegration, args[0])
			}
			d, err := util.ParseDateInput(date)
			if err != nil {
				return fmt.Errorf("invalid --date %q", date)
			}
			if err := probe.ValidateQuery(d, cfg.PartySize); err != nil {
				return err
			}

			svc, err := newServices(cfg, cfg.LogFile)
			if err != nil {
				return err
			}
			defer svc.close()

			start := time.Now()
			o, err := svc.prober().Probe(cmd.Context(), r, d, cfg.PartySize)
			if err != nil {
				return err
			}
			svc.metrics.ObserveProbe(r.Reservation.Platform(), o, time.Since(start))

			return printSlots(cmd.OutOrStdout(), r, d, cfg.PartySize, o)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date to check (default today)")
	return cmd
}

// restaurantFromArg treats an all-digit argument as an OpenTable id and
// anything else as a reservation URL.
func restaurantFromArg(arg string) model.Restaurant {
	arg = strings.TrimSpace(arg)
	r := model.Restaurant{Name: arg}
	if arg != "" && strings.IndexFunc(arg, func(c rune) bool { return !unicode.IsDigit(c) }) < 0 {
		r.Reservation = model.ReservationOption{Kind: model.ReservationOpenTableID, Value: arg}
		return r
	}
	r.Reservation = model.ReservationOption{Kind: model.ReservationPlatformURL, Value: arg}
	return r
}

func printSlots(w io.Writer, r model.Restaurant, date string, partySize int, o model.ProbeOutcome) error {
	if o.Status == model.ProbeFailed {
		return fmt.Errorf("%w: %s", model.ErrProbeFailed, o.Message)
	}
	if len(o.Slots) == 0 {
		fmt.Fprintf(w, "No open tables at %s for %d on %s\n", r.Name, partySize, util.FormatDate(date))
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.SetTitle(fmt.Sprintf("%s · %s · party of %d", platformName(r.Reservation.Platform()), util.FormatDate(date), partySize))
	tw.AppendHeader(table.Row{"Time", "Seating"})
	for _, s := range o.Slots {
		seating := s.SeatingType
		if seating == "" {
			seating = "-"
		}
		tw.AppendRow(table.Row{util.FormatSlotTime(s.Time), seating})
	}
	tw.Render()
	return nil
}
