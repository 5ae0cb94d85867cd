package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/username/business-hours-calc/internal/calendar"
	"github.com/username/business-hours-calc/internal/timemanager"
	"github.com/username/business-hours-calc/pkg/dateutil"
	"github.com/username/business-hours-calc/pkg/isoduration"
)

func breakdownCmd() *cobra.Command {
	var fromStr string
	var toStr string
	var teeOutput string

	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Per-day working time over a date range",
		Long:  "Print every date of the range with its scheduled capacity, counted working time and holiday note.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var from, to time.Time
			var err error

			// Default: current month up to today
			if fromStr == "" && toStr == "" {
				to = dateutil.Today()
				from = time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.Local)
			} else {
				if fromStr == "" || toStr == "" {
					return fmt.Errorf("both --from and --to must be specified")
				}
				from, err = dateutil.ParseDate(fromStr)
				if err != nil {
					return fmt.Errorf("invalid from date: %w", err)
				}
				to, err = dateutil.ParseDate(toStr)
				if err != nil {
					return fmt.Errorf("invalid to date: %w", err)
				}
			}

			w, closeTee, err := teeWriter(teeOutput)
			if err != nil {
				return err
			}
			defer closeTee()

			_, manager, err := loadManager()
			if err != nil {
				return err
			}

			logger.Info("Starting breakdown",
				zap.Time("from", from),
				zap.Time("to", to))

			result, err := manager.Breakdown(from, to)
			if err != nil {
				return fmt.Errorf("breakdown failed: %w", err)
			}

			printBreakdown(w, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "First date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "Last date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&teeOutput, "tee-output", "", "Mirror the report to file")

	return cmd
}

func printBreakdown(w io.Writer, result *timemanager.BreakdownResult) {
	fmt.Fprintf(w, "\n📅 Breakdown (%s to %s):\n", result.From.Format("2006-01-02"), result.To.Format("2006-01-02"))
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintln(w, "  Date       | Day | Scheduled | Worked  | Note")
	fmt.Fprintln(w, "-------------+-----+-----------+---------+----------------")
	for _, day := range result.Days {
		note := day.Note
		if day.Holiday && note == "" {
			note = "holiday"
		}
		fmt.Fprintf(w, "  %s | %s | %8.2fh | %6.2fh | %s\n",
			day.Date.Format("2006-01-02"),
			day.Date.Format("Mon"),
			day.Scheduled.Hours(),
			day.Worked.Hours(),
			note)
	}
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  Open days:    %d\n", result.OpenDays)
	fmt.Fprintf(w, "  Total:        %.2fh (%s)\n", result.TotalHours, isoduration.Format(result.Total))
}

func holidaysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "Show or refresh holidays from the configured source",
	}

	cmd.AddCommand(holidaysListCmd())
	cmd.AddCommand(holidaysRefreshCmd())

	return cmd
}

func holidaysListCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the holidays of a year",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, manager, err := loadManager()
			if err != nil {
				return err
			}

			holidays, err := manager.Holidays(year)
			if err != nil {
				return fmt.Errorf("failed to list holidays: %w", err)
			}

			printHolidays(out, year, holidays)
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "Year to list")

	return cmd
}

func holidaysRefreshCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-fetch the holidays of a year, bypassing the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, manager, err := loadManager()
			if err != nil {
				return err
			}

			holidays, err := manager.RefreshYear(year)
			if err != nil {
				return err
			}

			logger.Info("Holidays refreshed",
				zap.Int("year", year),
				zap.Int("count", len(holidays)))

			printHolidays(out, year, holidays)
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "Year to refresh")

	return cmd
}

func printHolidays(w io.Writer, year int, holidays []calendar.Holiday) {
	fmt.Fprintf(w, "\n📋 Holidays %d: %d\n", year, len(holidays))
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	for _, h := range holidays {
		fmt.Fprintf(w, "  %s %s  %s\n", h.Date.Format("2006-01-02"), h.Date.Format("Mon"), h.Note)
	}
}

// teeWriter mirrors output to path when it is set
func teeWriter(path string) (io.Writer, func(), error) {
	if path == "" {
		return out, func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create tee path: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open tee-output file: %w", err)
	}
	return io.MultiWriter(out, f), func() { f.Close() }, nil
}
