package calendar

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/username/business-hours-calc/pkg/dateutil"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}

// bulkYear builds an isdayoff.ru response for year: weekends are '1',
// the given dates are '1', the rest '0'
func bulkYear(year int, closed ...time.Time) string {
	var sb strings.Builder
	for _, d := range dateutil.DaysInYear(year, time.Local) {
		code := '0'
		if dateutil.IsWeekend(d) {
			code = '1'
		}
		for _, c := range closed {
			if dateutil.IsSameDay(c, d) {
				code = '1'
			}
		}
		sb.WriteRune(code)
	}
	return sb.String()
}

func TestParseBulkResponse(t *testing.T) {
	tests := []struct {
		name    string
		year    int
		data    string
		want    []time.Time
		wantErr bool
	}{
		{
			name: "weekday holidays only",
			year: 2023,
			data: bulkYear(2023, date(2023, 1, 1), date(2023, 1, 2), date(2023, 2, 23)),
			want: []time.Time{date(2023, 1, 2), date(2023, 2, 23)},
		},
		{
			name: "leap year",
			year: 2024,
			data: bulkYear(2024, date(2024, 2, 29)),
			want: []time.Time{date(2024, 2, 29)},
		},
		{
			name: "shortened day stays open",
			year: 2023,
			data: "2" + bulkYear(2023)[1:],
			want: nil,
		},
		{
			// 2023-01-01 is a Sunday
			name: "public holiday on a weekend",
			year: 2023,
			data: "8" + bulkYear(2023)[1:],
			want: []time.Time{date(2023, 1, 1)},
		},
		{
			name:    "length mismatch",
			year:    2024,
			data:    bulkYear(2023),
			wantErr: true,
		},
		{
			name:    "unknown code",
			year:    2023,
			data:    "9" + bulkYear(2023)[1:],
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			holidays, err := parseBulkResponse(tt.year, tt.data)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			var got []time.Time
			for _, h := range holidays {
				got = append(got, h.Date)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsDayOffCalendar_FetchesOncePerYear(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/api/getdata", r.URL.Path)
		assert.Equal(t, "2023", r.URL.Query().Get("year"))
		assert.Equal(t, "by", r.URL.Query().Get("cc"))
		assert.Equal(t, "1", r.URL.Query().Get("holiday"))
		fmt.Fprint(w, bulkYear(2023, date(2023, 10, 23)))
	}))
	defer srv.Close()

	cal := NewIsDayOffCalendar("by", "", zap.NewNop())
	cal.baseURL = srv.URL

	for i := 0; i < 3; i++ {
		holidays, err := cal.Holidays(2023)
		require.NoError(t, err)
		require.Len(t, holidays, 1)
		assert.Equal(t, date(2023, 10, 23), holidays[0].Date)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	cal.ClearCache()
	_, err := cal.Holidays(2023)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIsDayOffCalendar_Fallback(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer api.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2023/calendar.json", r.URL.Path)
		fmt.Fprint(w, `{
			"year": 2023,
			"months": [
				{"month": 1, "days": "1,2,3,4,5,6,7,8,14,15"},
				{"month": 2, "days": "4,5,11,12,18,19,22*,23,24+,25,26"}
			]
		}`)
	}))
	defer fallback.Close()

	cal := NewIsDayOffCalendar("", fallback.URL+"/data/{year}/calendar.json", zap.NewNop())
	cal.baseURL = api.URL

	holidays, err := cal.Holidays(2023)
	require.NoError(t, err)

	var got []time.Time
	for _, h := range holidays {
		got = append(got, h.Date)
	}
	assert.Equal(t, []time.Time{
		date(2023, 1, 2), date(2023, 1, 3), date(2023, 1, 4), date(2023, 1, 5), date(2023, 1, 6),
		date(2023, 2, 23), date(2023, 2, 24),
	}, got)
	assert.Equal(t, "transferred day off", holidays[len(holidays)-1].Note)
}

func TestIsDayOffCalendar_BothFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cal := NewIsDayOffCalendar("", srv.URL+"/{year}.json", zap.NewNop())
	cal.baseURL = srv.URL

	_, err := cal.Holidays(2023)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API and fallback both failed")
}

func TestIsDayOffCalendar_NoFallbackConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "0101")
	}))
	defer srv.Close()

	cal := NewIsDayOffCalendar("", "", zap.NewNop())
	cal.baseURL = srv.URL

	_, err := cal.Holidays(2023)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "length mismatch")
}
