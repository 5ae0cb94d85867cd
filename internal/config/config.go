package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/username/business-hours-calc/internal/workweek"
	"github.com/username/business-hours-calc/pkg/dateutil"
	"github.com/username/business-hours-calc/pkg/isoduration"
)

// Holiday source types
const (
	SourceNone     = "none"
	SourceFile     = "file"
	SourceICS      = "ics"
	SourceIsDayOff = "isdayoff"
)

const (
	defaultCacheTTL    = 30 * 24 * time.Hour
	defaultFallbackURL = "https://xmlcalendar.ru/data/{country}/{year}/calendar.json"
)

// Config represents application configuration
type Config struct {
	Schedule    ScheduleConfig    `mapstructure:"schedule"`
	Holidays    HolidaysConfig    `mapstructure:"holidays"`
	Calculation CalculationConfig `mapstructure:"calculation"`
	Log         LogConfig         `mapstructure:"log"`
}

// ScheduleConfig maps weekday names to "HH:MM-HH:MM" shifts.
// An end at or before the start crosses midnight.
type ScheduleConfig struct {
	Monday    []string `mapstructure:"monday"`
	Tuesday   []string `mapstructure:"tuesday"`
	Wednesday []string `mapstructure:"wednesday"`
	Thursday  []string `mapstructure:"thursday"`
	Friday    []string `mapstructure:"friday"`
	Saturday  []string `mapstructure:"saturday"`
	Sunday    []string `mapstructure:"sunday"`
}

// HolidaysConfig represents holiday configuration
type HolidaysConfig struct {
	Dates        []string `mapstructure:"dates"`         // "YYYY-MM-DD" always closed
	Source       string   `mapstructure:"source"`        // none, file, ics or isdayoff
	File         string   `mapstructure:"file"`          // For file type
	ICSFile      string   `mapstructure:"ics_file"`      // For ics type
	Country      string   `mapstructure:"country"`       // For isdayoff type
	FallbackURL  string   `mapstructure:"fallback_url"`  // For isdayoff type (xmlcalendar.ru)
	FallbackFile string   `mapstructure:"fallback_file"` // Used when the primary source fails
	CacheFile    string   `mapstructure:"cache_file"`
	CacheTTL     string   `mapstructure:"cache_ttl"`
}

// CalculationConfig represents calculation options
type CalculationConfig struct {
	MinDailyDuration string `mapstructure:"min_daily_duration"` // empty = none
	DayLength        string `mapstructure:"day_length"`         // business day for ISO "P1D"
}

// LogConfig represents logging configuration
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// Default returns the configuration used when no file exists:
// Monday to Friday 08:00-12:00 and 13:00-17:00, no holiday source.
func Default() *Config {
	day := []string{"08:00-12:00", "13:00-17:00"}
	return &Config{
		Schedule: ScheduleConfig{
			Monday:    day,
			Tuesday:   day,
			Wednesday: day,
			Thursday:  day,
			Friday:    day,
		},
		Holidays: HolidaysConfig{
			Source: SourceNone,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from file. Without an explicit path a missing
// file is not an error and Default() is returned.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.business-hours-calc")
		v.AddConfigPath("/etc/business-hours-calc")
	}

	// Read environment variables
	v.SetEnvPrefix("BHC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath == "" && errors.As(err, &notFound) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.ExpandEnvVars()

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate schedule
	cal, err := c.Schedule.Build()
	if err != nil {
		return err
	}
	if len(cal.BusinessDays()) == 0 {
		return fmt.Errorf("schedule must define at least one shift")
	}

	for _, d := range c.Holidays.Dates {
		if _, err := dateutil.ParseDate(d); err != nil {
			return fmt.Errorf("holidays.dates: %w", err)
		}
	}

	// Validate holiday source
	switch c.Holidays.source() {
	case SourceNone, SourceIsDayOff:
	case SourceFile:
		if c.Holidays.File == "" {
			return fmt.Errorf("holidays.file is required for file source")
		}
	case SourceICS:
		if c.Holidays.ICSFile == "" {
			return fmt.Errorf("holidays.ics_file is required for ics source")
		}
	default:
		return fmt.Errorf("holidays.source must be one of none, file, ics, isdayoff, got '%s'", c.Holidays.Source)
	}

	if c.Holidays.CacheTTL != "" {
		if _, err := time.ParseDuration(c.Holidays.CacheTTL); err != nil {
			return fmt.Errorf("holidays.cache_ttl: %w", err)
		}
	}

	// Validate calculation options
	if c.Calculation.MinDailyDuration != "" {
		d, err := isoduration.ParseFlexible(c.Calculation.MinDailyDuration, isoduration.DefaultDayLength)
		if err != nil {
			return fmt.Errorf("calculation.min_daily_duration: %w", err)
		}
		if d < 0 || d > workweek.EndOfDay {
			return fmt.Errorf("calculation.min_daily_duration must be between 0 and 24h, got %s", d)
		}
	}
	if c.Calculation.DayLength != "" {
		d, err := time.ParseDuration(c.Calculation.DayLength)
		if err != nil {
			return fmt.Errorf("calculation.day_length: %w", err)
		}
		if d <= 0 || d > workweek.EndOfDay {
			return fmt.Errorf("calculation.day_length must be between 0 and 24h, got %s", d)
		}
	}

	return nil
}

func (h *HolidaysConfig) source() string {
	if h.Source == "" {
		return SourceNone
	}
	return h.Source
}

// SourceType returns the holiday source type, "none" when unset
func (h *HolidaysConfig) SourceType() string {
	return h.source()
}

// GetCacheTTL returns cache TTL duration
func (h *HolidaysConfig) GetCacheTTL() time.Duration {
	if h.CacheTTL == "" {
		return defaultCacheTTL
	}
	duration, err := time.ParseDuration(h.CacheTTL)
	if err != nil {
		return defaultCacheTTL
	}
	return duration
}

// GetFallbackURL returns the xmlcalendar.ru URL template with the country
// filled in. The {year} placeholder is left for the source.
func (h *HolidaysConfig) GetFallbackURL() string {
	url := h.FallbackURL
	if url == "" {
		url = defaultFallbackURL
	}
	country := h.Country
	if country == "" {
		country = "ru"
	}
	return strings.ReplaceAll(url, "{country}", country)
}

// GetDayLength returns the business day used by ISO "P1D" durations
func (c *CalculationConfig) GetDayLength() time.Duration {
	if c.DayLength == "" {
		return isoduration.DefaultDayLength
	}
	duration, err := time.ParseDuration(c.DayLength)
	if err != nil || duration <= 0 {
		return isoduration.DefaultDayLength
	}
	return duration
}

// GetMinDailyDuration returns the configured minimum, zero when unset
func (c *CalculationConfig) GetMinDailyDuration() time.Duration {
	if c.MinDailyDuration == "" {
		return 0
	}
	duration, err := isoduration.ParseFlexible(c.MinDailyDuration, c.GetDayLength())
	if err != nil || duration < 0 {
		return 0
	}
	return duration
}

// Build creates the week calendar described by the schedule
func (s *ScheduleConfig) Build() (*workweek.Calendar, error) {
	cal := workweek.NewCalendar()
	for day, shifts := range s.byWeekday() {
		for _, value := range shifts {
			start, end, err := ParseShift(value)
			if err != nil {
				return nil, fmt.Errorf("schedule.%s: %w", strings.ToLower(day.String()), err)
			}
			if err := cal.AddShift(day, start, end); err != nil {
				return nil, fmt.Errorf("schedule.%s: %w", strings.ToLower(day.String()), err)
			}
		}
	}
	return cal, nil
}

func (s *ScheduleConfig) byWeekday() map[time.Weekday][]string {
	return map[time.Weekday][]string{
		time.Sunday:    s.Sunday,
		time.Monday:    s.Monday,
		time.Tuesday:   s.Tuesday,
		time.Wednesday: s.Wednesday,
		time.Thursday:  s.Thursday,
		time.Friday:    s.Friday,
		time.Saturday:  s.Saturday,
	}
}

// ParseShift parses "HH:MM-HH:MM" into clock offsets
func ParseShift(value string) (start, end time.Duration, err error) {
	from, to, ok := strings.Cut(strings.TrimSpace(value), "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid shift '%s', want HH:MM-HH:MM", value)
	}
	start, err = dateutil.ParseClock(strings.TrimSpace(from))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid shift start: %w", err)
	}
	end, err = dateutil.ParseClock(strings.TrimSpace(to))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid shift end: %w", err)
	}
	return start, end, nil
}

// BuildCalendar creates the week calendar with the fixed holiday dates
func (c *Config) BuildCalendar() (*workweek.Calendar, error) {
	cal, err := c.Schedule.Build()
	if err != nil {
		return nil, err
	}
	for _, d := range c.Holidays.Dates {
		date, err := dateutil.ParseDate(d)
		if err != nil {
			return nil, fmt.Errorf("holidays.dates: %w", err)
		}
		cal.AddHoliday(date, "")
	}
	return cal, nil
}

// ExpandEnvVars expands environment variables in config strings
func (c *Config) ExpandEnvVars() {
	c.Holidays.File = os.ExpandEnv(c.Holidays.File)
	c.Holidays.ICSFile = os.ExpandEnv(c.Holidays.ICSFile)
	c.Holidays.FallbackFile = os.ExpandEnv(c.Holidays.FallbackFile)
	c.Holidays.CacheFile = os.ExpandEnv(c.Holidays.CacheFile)
	c.Log.File = os.ExpandEnv(c.Log.File)
}
