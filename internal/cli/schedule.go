package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"daily-planner/internal/model"
)

func newSynthesizeCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Build the schedule of a date again",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			day, err := a.Schedules.ParseDate(date)
			if err != nil {
				return err
			}
			if _, err := a.Tasks.CleanupExpired(ctx); err != nil {
				return err
			}
			schedule, err := a.Schedules.Synthesize(ctx, day)
			if err != nil {
				return fmt.Errorf("failed to synthesize: %w", err)
			}
			return printSchedule(cmd.OutOrStdout(), schedule, a.Schedules.Location())
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	return cmd
}

func newShowCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the schedule of a date, building it when missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			day, err := a.Schedules.ParseDate(date)
			if err != nil {
				return err
			}
			schedule, err := a.Schedules.GetOrSynthesize(cmd.Context(), day)
			if err != nil {
				return err
			}
			if schedule == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks for this date.")
				return nil
			}
			return printSchedule(cmd.OutOrStdout(), schedule, a.Schedules.Location())
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	return cmd
}

func newMonthCmd() *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Show scheduled minutes per day of a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.Schedules.MonthSummary(cmd.Context(), year, month)
			if err != nil {
				return err
			}
			dates := make([]string, 0, len(summary.MinutesByDay))
			for d := range summary.MinutesByDay {
				dates = append(dates, d)
			}
			sort.Strings(dates)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tMINUTES")
			for _, d := range dates {
				fmt.Fprintf(w, "%s\t%d\n", d, summary.MinutesByDay[d])
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year (default current)")
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12 (default current)")
	return cmd
}

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete tasks whose deadline has passed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Tasks.CleanupExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired tasks.\n", n)
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var scheduleID uint
	var output string
	cmd := &cobra.Command{
		Use:   "export-ics",
		Short: "Write a schedule as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if scheduleID == 0 {
				return fmt.Errorf("--schedule is required")
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			return a.Calendar.ExportSchedule(cmd.Context(), scheduleID, w)
		},
	}
	cmd.Flags().UintVar(&scheduleID, "schedule", 0, "schedule ID")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-ics <file>",
		Short: "Import busy events from an .ics file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			events, err := a.Calendar.Import(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d events.\n", len(events))
			return nil
		},
	}
}

func printSchedule(out io.Writer, schedule *model.Schedule, loc *time.Location) error {
	fmt.Fprintf(out, "Schedule #%d for %s (%s-%s)\n", schedule.ID, schedule.DayDate, schedule.DayStart, schedule.DayEnd)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tSTART\tEND\tTITLE")
	for _, it := range schedule.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", it.ID,
			it.StartTime.In(loc).Format(model.ClockLayout),
			it.EndTime.In(loc).Format(model.ClockLayout), it.Title)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if schedule.PlanText != "" {
		fmt.Fprintf(out, "\n%s\n", schedule.PlanText)
	}
	return nil
}
