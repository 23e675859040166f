package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"timetable/internal/filter"
	"timetable/internal/format"
	"timetable/internal/grouporder"
	"timetable/internal/model"
	"timetable/internal/parser"
	"timetable/internal/query"
)

var errUnknownDate = errors.New("date not published")

func newDatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dates",
		Short: "List the published dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, f, err := setup()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			dates, err := f.Dates(ctx)
			if err != nil {
				return fmt.Errorf("discover dates: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), format.FormatDates(dates))
			return nil
		},
	}
}

func newScheduleCmd() *cobra.Command {
	var date, group string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the lessons of one date, optionally for one group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, f, err := setup()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			dates, err := f.Dates(ctx)
			if err != nil {
				return fmt.Errorf("discover dates: %w", err)
			}
			d, ok := findDate(dates, date)
			if !ok {
				return fmt.Errorf("%w: %q", errUnknownDate, date)
			}

			entries, err := f.Schedule(ctx, d.URL, d.DisplayDate, grouporder.New())
			if err != nil {
				return fmt.Errorf("extract %s: %w", d.DisplayDate, err)
			}

			out := cmd.OutOrStdout()
			if group == "" {
				fmt.Fprintln(out, format.FormatSchedule(d.DisplayDate, entries))
				return nil
			}
			entries = filter.ByGroup(entries, group)
			if d.IsRange() {
				fmt.Fprintln(out, format.FormatSplit(query.SplitDays(model.RangeLabels(d.DisplayDate), entries)))
				return nil
			}
			fmt.Fprintln(out, format.FormatSchedule(d.DisplayDate, entries))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date to print, as its label or its URL date")
	cmd.Flags().StringVar(&group, "group", "", "only lessons of groups containing this text")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

// findDate matches a published date by URL date first, then by label.
func findDate(dates []model.DateEntry, name string) (model.DateEntry, bool) {
	for _, d := range dates {
		if d.URLDate == name {
			return d, true
		}
	}
	for _, d := range dates {
		if d.DisplayDate == name {
			return d, true
		}
	}
	return model.DateEntry{}, false
}

func newBellsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bells",
		Short: "Print the bell timetable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, log, f, err := setup()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			bells, err := f.Bells(ctx)
			if err != nil {
				log.Warn("read bell schedule, using default", "url", f.BellsURL(), "error", err)
				bells = parser.DefaultBells()
			}
			fmt.Fprintln(cmd.OutOrStdout(), format.FormatBells(bells))
			return nil
		},
	}
}
