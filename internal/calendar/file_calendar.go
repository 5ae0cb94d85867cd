package calendar

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// FileCalendar implements Source using a local text file.
//
// One holiday per line, blank lines and '#' comments are skipped:
//
//	YYYY-MM-DD [note]
//	2023-10-23 Labour Day
type FileCalendar struct {
	filePath string
	logger   *zap.Logger
	loaded   bool
	data     map[int][]Holiday // year -> holidays
}

// NewFileCalendar creates a new FileCalendar instance
func NewFileCalendar(filePath string, logger *zap.Logger) *FileCalendar {
	return &FileCalendar{
		filePath: filePath,
		logger:   logger,
		data:     make(map[int][]Holiday),
	}
}

// Name identifies the source in logs
func (fc *FileCalendar) Name() string {
	return "file"
}

// Load loads holiday data from file
func (fc *FileCalendar) Load() error {
	file, err := os.Open(fc.filePath)
	if err != nil {
		return fmt.Errorf("failed to open calendar file: %w", err)
	}
	defer file.Close()

	data := make(map[int][]Holiday)
	scanner := bufio.NewScanner(file)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		dateStr, note, _ := strings.Cut(line, " ")

		date, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
		if err != nil {
			fc.logger.Warn("Failed to parse date",
				zap.String("file", fc.filePath),
				zap.Int("line", lineNo),
				zap.String("date", dateStr),
				zap.Error(err))
			continue
		}

		data[date.Year()] = append(data[date.Year()], Holiday{
			Date: date,
			Note: strings.TrimSpace(note),
		})
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading calendar file: %w", err)
	}

	for year, holidays := range data {
		data[year] = normalize(year, holidays)
	}
	fc.data = data
	fc.loaded = true

	fc.logger.Info("Calendar file loaded",
		zap.String("file", fc.filePath),
		zap.Int("years", len(fc.data)))

	return nil
}

// Holidays returns the holidays of year listed in the file. A year the
// file does not mention has no holidays.
func (fc *FileCalendar) Holidays(year int) ([]Holiday, error) {
	if !fc.loaded {
		if err := fc.Load(); err != nil {
			return nil, err
		}
	}

	holidays := fc.data[year]
	out := make([]Holiday, len(holidays))
	copy(out, holidays)
	return out, nil
}
