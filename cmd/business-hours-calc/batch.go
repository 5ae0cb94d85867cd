package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/username/business-hours-calc/internal/businesstime"
	"github.com/username/business-hours-calc/internal/timemanager"
	"github.com/username/business-hours-calc/pkg/dateutil"
	"github.com/username/business-hours-calc/pkg/isoduration"
)

// Batch operations
const (
	opAdd     = "add"
	opElapsed = "elapsed"
)

// batchRow is one CSV line, both as input and output.
// Input columns: op,start,end,duration,min_daily
type batchRow struct {
	Op       string `csv:"op"`
	Start    string `csv:"start"`
	End      string `csv:"end"`
	Duration string `csv:"duration"`
	MinDaily string `csv:"min_daily"`
	Result   string `csv:"result"`
	Error    string `csv:"error"`
}

// parsedRow carries the parsed values of a row
type parsedRow struct {
	start    time.Time
	end      time.Time
	duration time.Duration
	opts     []businesstime.Option
}

func batchCmd() *cobra.Command {
	var inputPath string
	var outputPath string
	var workers int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Evaluate add/elapsed queries from a CSV file",
		Long: `Read queries from CSV (columns op,start,end,duration,min_daily) and write
them back with result and error columns. op is "add" (start + duration) or
"elapsed" (start to end). Rows are evaluated concurrently.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, manager, err := loadManager()
			if err != nil {
				return err
			}

			in, err := os.Open(inputPath)
			if err != nil {
				return fmt.Errorf("failed to open input: %w", err)
			}
			defer in.Close()

			var rows []*batchRow
			if err := gocsv.Unmarshal(in, &rows); err != nil {
				return fmt.Errorf("failed to parse input CSV: %w", err)
			}

			logger.Info("Starting batch",
				zap.String("input", inputPath),
				zap.Int("rows", len(rows)),
				zap.Int("workers", workers))

			if err := runBatch(cmd.Context(), manager, rows, workers, cfg.Calculation.GetDayLength()); err != nil {
				return err
			}

			var w io.Writer = out
			if outputPath != "" {
				f, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("failed to create output: %w", err)
				}
				defer f.Close()
				w = f
			}

			if err := gocsv.Marshal(&rows, w); err != nil {
				return fmt.Errorf("failed to write output CSV: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Input CSV file")
	cmd.Flags().StringVar(&outputPath, "output", "", "Output CSV file (default: stdout)")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "Concurrent workers")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// runBatch fills Result or Error of every row. Rows are parsed first, the
// years they span are loaded, and the rows are then evaluated by a worker
// pool over the shared calendar. An add whose result leaves the loaded
// years is redone through the manager afterwards.
func runBatch(ctx context.Context, manager *timemanager.Manager, rows []*batchRow, workers int, dayLength time.Duration) error {
	if workers < 1 {
		workers = 1
	}

	parsed := make([]*parsedRow, len(rows))
	var minYear, maxYear int
	for i, row := range rows {
		p, err := parseBatchRow(row, dayLength)
		if err != nil {
			row.Error = err.Error()
			continue
		}
		parsed[i] = p

		for _, t := range []time.Time{p.start, p.end} {
			if t.IsZero() {
				continue
			}
			if minYear == 0 || t.Year() < minYear {
				minYear = t.Year()
			}
			if t.Year() > maxYear {
				maxYear = t.Year()
			}
		}
	}

	if maxYear == 0 {
		return nil
	}

	cal, err := manager.Snapshot(
		time.Date(minYear, time.January, 1, 0, 0, 0, 0, time.Local),
		time.Date(maxYear, time.January, 1, 0, 0, 0, 0, time.Local),
	)
	if err != nil {
		return fmt.Errorf("failed to load holidays: %w", err)
	}

	closed := len(cal.BusinessDays()) == 0
	retry := make([]bool, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, row := range rows {
		i, row := i, row
		p := parsed[i]
		if p == nil {
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			opts := manager.Options(p.opts...)
			switch row.Op {
			case opAdd:
				if closed && p.duration > 0 {
					row.Error = timemanager.ErrNoBusinessDays.Error()
					return nil
				}
				result, err := businesstime.AddWorkingDuration(cal, p.start, p.duration, opts...)
				if err != nil {
					row.Error = err.Error()
					return nil
				}
				if result.Year() > maxYear {
					retry[i] = true
					return nil
				}
				row.Result = result.Format(time.RFC3339)
			case opElapsed:
				elapsed, err := businesstime.ElapsedWorkingDuration(cal, p.start, p.end, opts...)
				if err != nil {
					row.Error = err.Error()
					return nil
				}
				row.Result = isoduration.Format(elapsed)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for i, row := range rows {
		if !retry[i] {
			continue
		}
		p := parsed[i]
		result, err := manager.AddWorking(p.start, p.duration, p.opts...)
		if err != nil {
			row.Error = err.Error()
			continue
		}
		row.Result = result.Format(time.RFC3339)
	}

	return nil
}

func parseBatchRow(row *batchRow, dayLength time.Duration) (*parsedRow, error) {
	p := &parsedRow{}
	var err error

	p.start, err = dateutil.ParseDateTime(row.Start)
	if err != nil {
		return nil, fmt.Errorf("invalid start: %w", err)
	}

	switch row.Op {
	case opAdd:
		p.duration, err = isoduration.ParseFlexible(row.Duration, dayLength)
		if err != nil {
			return nil, fmt.Errorf("invalid duration: %w", err)
		}
	case opElapsed:
		p.end, err = dateutil.ParseDateTime(row.End)
		if err != nil {
			return nil, fmt.Errorf("invalid end: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown op %q, want %s or %s", row.Op, opAdd, opElapsed)
	}

	if row.MinDaily != "" {
		d, err := parseMinDaily(row.MinDaily, dayLength)
		if err != nil {
			return nil, err
		}
		p.opts = append(p.opts, businesstime.WithMinDailyDuration(d))
	}

	return p, nil
}
