package calendar

import (
	"fmt"

	"go.uber.org/zap"
)

// CompositeCalendar implements Source with fallback strategy
// Primary: remote or ICS source
// Fallback: FileCalendar (local file)
type CompositeCalendar struct {
	primary  Source
	fallback Source
	logger   *zap.Logger
}

// NewCompositeCalendar creates a new CompositeCalendar
func NewCompositeCalendar(primary, fallback Source, logger *zap.Logger) *CompositeCalendar {
	return &CompositeCalendar{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Name identifies the source in logs
func (cc *CompositeCalendar) Name() string {
	return fmt.Sprintf("%s+%s", cc.primary.Name(), cc.fallback.Name())
}

// Holidays returns the primary source's holidays, or the fallback's
// when the primary fails
func (cc *CompositeCalendar) Holidays(year int) ([]Holiday, error) {
	holidays, err := cc.primary.Holidays(year)
	if err == nil {
		return holidays, nil
	}

	cc.logger.Warn("Primary holiday source failed, falling back",
		zap.String("primary", cc.primary.Name()),
		zap.String("fallback", cc.fallback.Name()),
		zap.Int("year", year),
		zap.Error(err))

	holidays, fallbackErr := cc.fallback.Holidays(year)
	if fallbackErr != nil {
		return nil, fmt.Errorf("primary and fallback both failed: primary=%w, fallback=%v", err, fallbackErr)
	}
	return holidays, nil
}

// LoadFallback loads the fallback calendar (if FileCalendar)
func (cc *CompositeCalendar) LoadFallback() error {
	if fc, ok := cc.fallback.(*FileCalendar); ok {
		if err := fc.Load(); err != nil {
			return fmt.Errorf("failed to load fallback calendar: %w", err)
		}
		cc.logger.Info("Fallback calendar loaded successfully")
	}
	return nil
}
