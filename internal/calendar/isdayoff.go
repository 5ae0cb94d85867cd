package calendar

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/username/business-hours-calc/pkg/dateutil"
)

const (
	isdayoffBaseURL    = "https://isdayoff.ru"
	defaultCountry     = "ru"
	defaultHTTPTimeout = 10 * time.Second
)

// IsDayOffCalendar implements Source using the isdayoff.ru bulk API with
// xmlcalendar.ru as a fallback.
//
// Public holidays become holidays on any day of the week, so a schedule
// with weekend shifts closes them too. Other non-working days count only
// on weekdays: a plain Saturday or Sunday carries the same code and
// cannot be told apart. Weekend days a government transfers into working
// days are ignored: the weekly schedule decides which weekdays are open.
type IsDayOffCalendar struct {
	httpClient  *http.Client
	logger      *zap.Logger
	baseURL     string
	country     string
	fallbackURL string

	mu    sync.RWMutex
	years map[int][]Holiday
}

// xmlCalendarYear represents xmlcalendar.ru JSON structure
type xmlCalendarYear struct {
	Year   int                `json:"year"`
	Months []xmlCalendarMonth `json:"months"`
}

type xmlCalendarMonth struct {
	Month int    `json:"month"`
	Days  string `json:"days"` // "1*,2,3+,4,8,9,..." where * = shortened, + = transferred
}

// NewIsDayOffCalendar creates a new IsDayOffCalendar instance.
// fallbackURL may contain a {year} placeholder; an empty value disables
// the fallback.
func NewIsDayOffCalendar(country, fallbackURL string, logger *zap.Logger) *IsDayOffCalendar {
	if country == "" {
		country = defaultCountry
	}

	return &IsDayOffCalendar{
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		logger:      logger,
		baseURL:     isdayoffBaseURL,
		country:     country,
		fallbackURL: fallbackURL,
		years:       make(map[int][]Holiday),
	}
}

// Name identifies the source in logs
func (c *IsDayOffCalendar) Name() string {
	return "isdayoff"
}

// Holidays returns the public holidays and non-working weekdays of year
func (c *IsDayOffCalendar) Holidays(year int) ([]Holiday, error) {
	c.mu.RLock()
	cached, ok := c.years[year]
	c.mu.RUnlock()
	if ok {
		c.logger.Debug("Using cached holidays", zap.Int("year", year))
		return cached, nil
	}

	holidays, err := c.fetchYearFromAPI(year)
	if err != nil {
		if c.fallbackURL == "" {
			return nil, err
		}

		c.logger.Warn("Failed to fetch from API, trying fallback",
			zap.Int("year", year),
			zap.Error(err))

		var fallbackErr error
		holidays, fallbackErr = c.fetchYearFromFallback(year)
		if fallbackErr != nil {
			return nil, fmt.Errorf("API and fallback both failed: API=%w, Fallback=%v", err, fallbackErr)
		}

		c.logger.Info("Using fallback data", zap.Int("year", year))
	}

	c.mu.Lock()
	c.years[year] = holidays
	c.mu.Unlock()

	return holidays, nil
}

// fetchYearFromAPI fetches the whole year from the isdayoff.ru bulk API
func (c *IsDayOffCalendar) fetchYearFromAPI(year int) ([]Holiday, error) {
	// https://isdayoff.ru/api/getdata?year=2025&cc=ru&pre=1&holiday=1
	url := fmt.Sprintf("%s/api/getdata?year=%d&cc=%s&pre=1&holiday=1", c.baseURL, year, c.country)

	c.logger.Debug("Fetching year from isdayoff.ru",
		zap.String("url", url),
		zap.Int("year", year))

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	holidays, err := parseBulkResponse(year, strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse bulk response: %w", err)
	}

	c.logger.Info("Holidays fetched from API",
		zap.Int("year", year),
		zap.Int("holidays", len(holidays)))

	return holidays, nil
}

// parseBulkResponse parses isdayoff.ru bulk response string, one code per
// day of the year:
// 0 = working day
// 1 = non-working day (holiday/weekend)
// 2 = shortened working day
// 4 = working day (covid period code)
// 8 = public holiday
func parseBulkResponse(year int, data string) ([]Holiday, error) {
	days := dateutil.DaysInYear(year, time.Local)

	if len(data) != len(days) {
		return nil, fmt.Errorf("bulk data length mismatch: expected %d, got %d", len(days), len(data))
	}

	var holidays []Holiday
	for i, code := range data {
		date := days[i]

		switch code {
		case '0', '2', '4':
		case '1':
			if dateutil.IsWeekend(date) {
				continue
			}
			holidays = append(holidays, Holiday{Date: date, Note: "non-working day"})
		case '8':
			holidays = append(holidays, Holiday{Date: date, Note: "public holiday"})
		default:
			return nil, fmt.Errorf("unknown code '%c' at position %d", code, i)
		}
	}

	return holidays, nil
}

// fetchYearFromFallback fetches the year from xmlcalendar.ru
func (c *IsDayOffCalendar) fetchYearFromFallback(year int) ([]Holiday, error) {
	yearData, err := c.downloadFallbackYear(year)
	if err != nil {
		return nil, fmt.Errorf("failed to download fallback data: %w", err)
	}

	var holidays []Holiday
	for i := range yearData.Months {
		holidays = append(holidays, c.parseXMLCalendarMonth(year, &yearData.Months[i])...)
	}
	return normalize(year, holidays), nil
}

// downloadFallbackYear downloads entire year from xmlcalendar.ru
func (c *IsDayOffCalendar) downloadFallbackYear(year int) (*xmlCalendarYear, error) {
	url := strings.ReplaceAll(c.fallbackURL, "{year}", strconv.Itoa(year))

	c.logger.Info("Downloading fallback calendar data",
		zap.String("url", url),
		zap.Int("year", year))

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fallback data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fallback API returned status %d", resp.StatusCode)
	}

	var yearData xmlCalendarYear
	if err := json.NewDecoder(resp.Body).Decode(&yearData); err != nil {
		return nil, fmt.Errorf("failed to parse fallback JSON: %w", err)
	}

	if yearData.Year != 0 && yearData.Year != year {
		return nil, fmt.Errorf("fallback data is for year %d, want %d", yearData.Year, year)
	}

	c.logger.Info("Fallback data downloaded",
		zap.Int("year", year),
		zap.Int("months", len(yearData.Months)))

	return &yearData, nil
}

// parseXMLCalendarMonth parses xmlcalendar.ru compact format
// Format: "1*,2,3+,4,8,9,15,16,22,23,29,30"
// * = shortened working day, + = transferred day off, others = weekends/holidays
func (c *IsDayOffCalendar) parseXMLCalendarMonth(year int, xmlMonth *xmlCalendarMonth) []Holiday {
	if xmlMonth.Month < 1 || xmlMonth.Month > 12 || xmlMonth.Days == "" {
		return nil
	}
	month := time.Month(xmlMonth.Month)

	var holidays []Holiday
	for _, part := range strings.Split(xmlMonth.Days, ",") {
		part = strings.TrimSpace(part)
		if part == "" || strings.HasSuffix(part, "*") {
			continue
		}

		note := "non-working day"
		if strings.HasSuffix(part, "+") {
			note = "transferred day off"
			part = strings.TrimSuffix(part, "+")
		}

		day, err := strconv.Atoi(part)
		if err != nil {
			c.logger.Warn("Failed to parse day number",
				zap.String("part", part),
				zap.Error(err))
			continue
		}

		// the fallback lists plain weekends too, so only weekdays are kept
		date := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
		if date.Month() != month || dateutil.IsWeekend(date) {
			continue
		}
		holidays = append(holidays, Holiday{Date: date, Note: note})
	}

	return holidays
}

// ClearCache drops fetched years
func (c *IsDayOffCalendar) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.years = make(map[int][]Holiday)
	c.logger.Info("Calendar cache cleared")
}
