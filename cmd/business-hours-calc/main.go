package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/username/business-hours-calc/internal/businesstime"
	"github.com/username/business-hours-calc/internal/calendar"
	"github.com/username/business-hours-calc/internal/config"
	"github.com/username/business-hours-calc/internal/timemanager"
	"github.com/username/business-hours-calc/pkg/dateutil"
	"github.com/username/business-hours-calc/pkg/isoduration"
)

const outputTimeFormat = "2006-01-02 15:04:05 Mon"

var (
	configPath string
	logger     *zap.Logger
	out        io.Writer = os.Stdout
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "business-hours-calc",
		Short: "Business hours calculator",
		Long:  "Add and measure working time over a weekly shift calendar with holidays",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load config to get log file path
			cfg, err := config.Load(configPath)
			if err == nil && cfg.Log.File != "" {
				logger, err = initFileLogger(cfg.Log.File, cfg.Log.Level)
				if err != nil {
					initLogger() // Fallback to console
				}
			} else {
				initLogger() // Default console logger
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: search ., $HOME/.business-hours-calc, /etc/business-hours-calc)")

	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(elapsedCmd())
	rootCmd.AddCommand(breakdownCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(holidaysCmd())

	return rootCmd
}

func addCmd() *cobra.Command {
	var startStr, durationStr, minDailyStr string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add working time to an instant",
		Example: `  business-hours-calc add --start "2023-10-02 09:00" --duration 8h
  business-hours-calc add --start 2023-10-02T09:00 --duration P2D --min-daily 9h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, manager, err := loadManager()
			if err != nil {
				return err
			}

			start, err := dateutil.ParseDateTime(startStr)
			if err != nil {
				return fmt.Errorf("invalid start: %w", err)
			}
			d, err := isoduration.ParseFlexible(durationStr, cfg.Calculation.GetDayLength())
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			opts, err := minDailyOption(cmd, minDailyStr, cfg)
			if err != nil {
				return err
			}

			logger.Debug("Adding working time",
				zap.Time("start", start),
				zap.Duration("duration", d))

			result, err := manager.AddWorking(start, d, opts...)
			if err != nil {
				return fmt.Errorf("failed to add working time: %w", err)
			}

			fmt.Fprintln(out, result.Format(outputTimeFormat))
			return nil
		},
	}

	cmd.Flags().StringVar(&startStr, "start", "", "Start instant (YYYY-MM-DD HH:MM[:SS] or RFC3339-like)")
	cmd.Flags().StringVar(&durationStr, "duration", "", "Working time to add (8h30m or PT8H30M)")
	cmd.Flags().StringVar(&minDailyStr, "min-daily", "", "Minimum working time of a touched day (overrides config, 0 disables)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("duration")

	return cmd
}

func elapsedCmd() *cobra.Command {
	var startStr, endStr, minDailyStr string

	cmd := &cobra.Command{
		Use:     "elapsed",
		Short:   "Measure working time between two instants",
		Example: `  business-hours-calc elapsed --start "2023-10-02 09:00" --end "2023-10-06 17:00"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, manager, err := loadManager()
			if err != nil {
				return err
			}

			start, err := dateutil.ParseDateTime(startStr)
			if err != nil {
				return fmt.Errorf("invalid start: %w", err)
			}
			end, err := dateutil.ParseDateTime(endStr)
			if err != nil {
				return fmt.Errorf("invalid end: %w", err)
			}
			opts, err := minDailyOption(cmd, minDailyStr, cfg)
			if err != nil {
				return err
			}

			elapsed, err := manager.Elapsed(start, end, opts...)
			if err != nil {
				return fmt.Errorf("failed to measure working time: %w", err)
			}

			fmt.Fprintf(out, "%s (%s, %.2fh)\n", elapsed, isoduration.Format(elapsed), elapsed.Hours())
			return nil
		},
	}

	cmd.Flags().StringVar(&startStr, "start", "", "Range start instant")
	cmd.Flags().StringVar(&endStr, "end", "", "Range end instant (exclusive)")
	cmd.Flags().StringVar(&minDailyStr, "min-daily", "", "Minimum working time of a touched day (overrides config, 0 disables)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

// minDailyOption returns the --min-daily override when the flag is set
func minDailyOption(cmd *cobra.Command, value string, cfg *config.Config) ([]businesstime.Option, error) {
	if !cmd.Flags().Changed("min-daily") {
		return nil, nil
	}
	d, err := parseMinDaily(value, cfg.Calculation.GetDayLength())
	if err != nil {
		return nil, err
	}
	return []businesstime.Option{businesstime.WithMinDailyDuration(d)}, nil
}

func parseMinDaily(value string, dayLength time.Duration) (time.Duration, error) {
	if value == "" || value == "0" {
		return 0, nil
	}
	d, err := isoduration.ParseFlexible(value, dayLength)
	if err != nil {
		return 0, fmt.Errorf("invalid minimum daily duration: %w", err)
	}
	return d, nil
}

// loadManager loads the config and builds the calendar, the holiday
// source and the manager
func loadManager() (*config.Config, *timemanager.Manager, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	manager, err := initializeManager(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, manager, nil
}

func initializeManager(cfg *config.Config) (*timemanager.Manager, error) {
	cal, err := cfg.BuildCalendar()
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar: %w", err)
	}

	source, err := newHolidaySource(cfg)
	if err != nil {
		return nil, err
	}

	var cache *timemanager.HolidayCache
	if source != nil && cfg.Holidays.CacheFile != "" {
		cache = timemanager.NewHolidayCache(cfg.Holidays.CacheFile, cfg.Holidays.GetCacheTTL(), logger)
		if err := cache.Load(); err != nil {
			logger.Warn("Failed to load holiday cache, starting empty", zap.Error(err))
		}
	}

	return timemanager.NewManager(cal, source, cache, cfg.Calculation.GetMinDailyDuration(), logger), nil
}

// newHolidaySource builds the configured source, wrapped in a composite
// with the fallback file when one is set. A nil source means the fixed
// dates of the config are the only holidays.
func newHolidaySource(cfg *config.Config) (calendar.Source, error) {
	var source calendar.Source

	switch cfg.Holidays.SourceType() {
	case config.SourceNone:
		return nil, nil
	case config.SourceFile:
		logger.Info("Using holiday file", zap.String("file", cfg.Holidays.File))
		return calendar.NewFileCalendar(cfg.Holidays.File, logger), nil
	case config.SourceICS:
		logger.Info("Using iCalendar holidays", zap.String("file", cfg.Holidays.ICSFile))
		source = calendar.NewICSCalendar(cfg.Holidays.ICSFile, logger)
	case config.SourceIsDayOff:
		logger.Info("Using isdayoff.ru calendar API", zap.String("country", cfg.Holidays.Country))
		source = calendar.NewIsDayOffCalendar(cfg.Holidays.Country, cfg.Holidays.GetFallbackURL(), logger)
	default:
		return nil, fmt.Errorf("unknown holiday source: %s", cfg.Holidays.Source)
	}

	if cfg.Holidays.FallbackFile == "" {
		return source, nil
	}

	fallbackCal := calendar.NewFileCalendar(cfg.Holidays.FallbackFile, logger)
	compositeCal := calendar.NewCompositeCalendar(source, fallbackCal, logger)

	// Load fallback calendar
	if err := compositeCal.LoadFallback(); err != nil {
		logger.Warn("Failed to load fallback calendar, continuing with primary only",
			zap.Error(err))
		return source, nil
	}

	return compositeCal, nil
}

func initLogger() {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{"stderr"}

	var err error
	logger, err = config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

func initFileLogger(logFile string, level string) (*zap.Logger, error) {
	// Setup lumberjack for log rotation
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100,  // MB
		MaxBackups: 3,    // Keep max 3 old log files
		MaxAge:     28,   // days
		Compress:   true, // Compress old logs with gzip
	}

	// Setup encoder
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Parse log level
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		zapLevel,
	)

	return zap.New(core), nil
}
