package timemanager

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/username/business-hours-calc/internal/calendar"
)

// HolidayCacheState represents the cached holidays per year
type HolidayCacheState struct {
	Years map[int]*CachedYear `json:"years"`
}

// CachedYear is one fetched year
type CachedYear struct {
	Source    string          `json:"source"`
	FetchedAt string          `json:"fetched_at"`
	Holidays  []CachedHoliday `json:"holidays"`
}

// CachedHoliday is a holiday as stored on disk
type CachedHoliday struct {
	Date string `json:"date"`
	Note string `json:"note,omitempty"`
}

// HolidayCache persists fetched holidays to a JSON file so that remote
// sources are queried at most once per TTL
type HolidayCache struct {
	cacheFile string
	ttl       time.Duration
	logger    *zap.Logger

	mu    sync.Mutex
	state *HolidayCacheState
}

// NewHolidayCache creates a new holiday cache
func NewHolidayCache(cacheFile string, ttl time.Duration, logger *zap.Logger) *HolidayCache {
	return &HolidayCache{
		cacheFile: cacheFile,
		ttl:       ttl,
		logger:    logger,
	}
}

// Load loads the cache from file
func (hc *HolidayCache) Load() error {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	return hc.load()
}

func (hc *HolidayCache) load() error {
	data, err := os.ReadFile(hc.cacheFile)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist yet - will be created on first save
			hc.state = &HolidayCacheState{Years: make(map[int]*CachedYear)}
			return nil
		}
		return fmt.Errorf("failed to read cache file: %w", err)
	}

	var state HolidayCacheState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse cache file: %w", err)
	}
	if state.Years == nil {
		state.Years = make(map[int]*CachedYear)
	}

	hc.state = &state
	hc.logger.Debug("Holiday cache loaded",
		zap.String("file", hc.cacheFile),
		zap.Int("years", len(state.Years)))

	return nil
}

// ensureState loads the file on first use; an unreadable file starts
// an empty cache that the next Save overwrites
func (hc *HolidayCache) ensureState() {
	if hc.state != nil {
		return
	}
	if err := hc.load(); err != nil {
		hc.logger.Warn("Ignoring unreadable holiday cache",
			zap.String("file", hc.cacheFile),
			zap.Error(err))
		hc.state = &HolidayCacheState{Years: make(map[int]*CachedYear)}
	}
}

// Save saves the cache to file
func (hc *HolidayCache) Save() error {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	if hc.state == nil {
		return nil
	}

	data, err := json.MarshalIndent(hc.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if dir := filepath.Dir(hc.cacheFile); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	if err := os.WriteFile(hc.cacheFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	hc.logger.Debug("Holiday cache saved",
		zap.String("file", hc.cacheFile),
		zap.Int("years", len(hc.state.Years)))

	return nil
}

// Get returns the holidays of year cached from source. fresh reports
// whether the entry is younger than the TTL at now; ok is false when
// nothing is cached, the entry came from another source or it is
// unreadable.
func (hc *HolidayCache) Get(year int, source string, now time.Time) (holidays []calendar.Holiday, fresh bool, ok bool) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	hc.ensureState()

	entry, exists := hc.state.Years[year]
	if !exists {
		return nil, false, false
	}
	if entry.Source != source {
		hc.logger.Debug("Ignoring holidays cached from another source",
			zap.Int("year", year),
			zap.String("cached", entry.Source),
			zap.String("source", source))
		return nil, false, false
	}

	fetchedAt, err := time.Parse(time.RFC3339, entry.FetchedAt)
	if err != nil {
		return nil, false, false
	}

	holidays = make([]calendar.Holiday, 0, len(entry.Holidays))
	for _, h := range entry.Holidays {
		date, err := time.ParseInLocation("2006-01-02", h.Date, time.Local)
		if err != nil {
			return nil, false, false
		}
		holidays = append(holidays, calendar.Holiday{Date: date, Note: h.Note})
	}

	return holidays, now.Sub(fetchedAt) < hc.ttl, true
}

// Put stores the holidays of year fetched from source at now
func (hc *HolidayCache) Put(year int, source string, holidays []calendar.Holiday, now time.Time) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	hc.ensureState()

	entry := &CachedYear{
		Source:    source,
		FetchedAt: now.Format(time.RFC3339),
		Holidays:  make([]CachedHoliday, 0, len(holidays)),
	}
	for _, h := range holidays {
		entry.Holidays = append(entry.Holidays, CachedHoliday{
			Date: h.Date.Format("2006-01-02"),
			Note: h.Note,
		})
	}
	sort.Slice(entry.Holidays, func(i, j int) bool {
		return entry.Holidays[i].Date < entry.Holidays[j].Date
	})

	hc.state.Years[year] = entry
}
