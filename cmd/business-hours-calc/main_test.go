package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/username/business-hours-calc/internal/timemanager"
	"github.com/username/business-hours-calc/internal/workweek"
	"github.com/username/business-hours-calc/pkg/isoduration"
)

const testConfig = `
schedule:
  monday: ["08:00-12:00", "13:00-17:00"]
  tuesday: ["08:00-12:00", "13:00-17:00"]
  wednesday: ["08:00-12:00", "13:00-17:00"]
  thursday: ["08:00-12:00", "13:00-17:00"]
  friday: ["08:00-12:00", "13:00-17:00"]
holidays:
  dates: ["2023-10-23"]
  source: none
`

// runCLI executes the root command with args against a config file and
// returns what it printed
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(testConfig), 0o644))

	var buf bytes.Buffer
	out = &buf
	t.Cleanup(func() { out = os.Stdout })

	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	err := cmd.Execute()
	return buf.String(), err
}

func TestAddCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "same day",
			args: []string{"add", "--start", "2023-10-02 09:00", "--duration", "6h"},
			want: "2023-10-02 16:00:00 Mon",
		},
		{
			name: "skips holiday",
			args: []string{"add", "--start", "2023-10-23 08:00", "--duration", "PT8H"},
			want: "2023-10-24 17:00:00 Tue",
		},
		{
			name: "business days",
			args: []string{"add", "--start", "2023-10-02", "--duration", "P1D"},
			want: "2023-10-02 17:00:00 Mon",
		},
		{
			name: "minimum daily override",
			args: []string{"add", "--start", "2023-10-02 08:00", "--duration", "10h", "--min-daily", "10h"},
			want: "2023-10-02 19:00:00 Mon",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runCLI(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(got))
		})
	}
}

func TestAddCommand_InvalidDuration(t *testing.T) {
	_, err := runCLI(t, "add", "--start", "2023-10-02 09:00", "--duration", "-1h")
	require.Error(t, err)
}

func TestElapsedCommand(t *testing.T) {
	got, err := runCLI(t, "elapsed", "--start", "2023-10-20 08:00", "--end", "2023-10-25 08:00")
	require.NoError(t, err)
	assert.Equal(t, "16h0m0s (PT16H, 16.00h)", strings.TrimSpace(got))
}

func TestBreakdownCommand(t *testing.T) {
	got, err := runCLI(t, "breakdown", "--from", "2023-10-20", "--to", "2023-10-23")
	require.NoError(t, err)
	assert.Contains(t, got, "2023-10-20 | Fri |     8.00h |   8.00h |")
	assert.Contains(t, got, "2023-10-23 | Mon |     0.00h |   0.00h | holiday")
	assert.Contains(t, got, "Open days:    1")
	assert.Contains(t, got, "Total:        8.00h (PT8H)")
}

func TestBreakdownCommand_NeedsBothDates(t *testing.T) {
	_, err := runCLI(t, "breakdown", "--from", "2023-10-20")
	require.Error(t, err)
}

func TestHolidaysListCommand(t *testing.T) {
	got, err := runCLI(t, "holidays", "list", "--year", "2023")
	require.NoError(t, err)
	assert.Contains(t, got, "Holidays 2023: 1")
	assert.Contains(t, got, "2023-10-23 Mon")
}

func TestHolidaysRefreshWithoutSource(t *testing.T) {
	_, err := runCLI(t, "holidays", "refresh", "--year", "2023")
	require.Error(t, err)
}

func TestRunBatch(t *testing.T) {
	logger = zap.NewNop()

	input := `op,start,end,duration,min_daily
add,2023-10-02 09:00,,6h,
add,2023-10-23 08:00,,PT8H,
elapsed,2023-10-20 08:00,2023-10-25 08:00,,
add,2023-10-02 08:00,,10h,10h
elapsed,2023-10-25 08:00,2023-10-20 08:00,,
add,2023-12-29 16:00,,P2D,
sleep,2023-10-02 09:00,,1h,
add,yesterday,,1h,
`
	var rows []*batchRow
	require.NoError(t, gocsv.Unmarshal(strings.NewReader(input), &rows))
	require.Len(t, rows, 8)

	cal := workweek.Default()
	cal.AddHoliday(time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local), "New Year")
	manager := timemanager.NewManager(cal, nil, nil, 0, logger)

	require.NoError(t, runBatch(context.Background(), manager, rows, 4, isoduration.DefaultDayLength))

	assert.Equal(t, "2023-10-02T16:00:00", localResult(rows[0].Result))
	assert.Equal(t, "2023-10-24T17:00:00", localResult(rows[1].Result))
	assert.Equal(t, "PT16H", rows[2].Result)
	assert.Equal(t, "2023-10-02T19:00:00", localResult(rows[3].Result))
	assert.Contains(t, rows[4].Error, "invalid argument")
	// spills into 2024: Jan 1 is closed, so Jan 2 and 3
	assert.Equal(t, "2024-01-03T16:00:00", localResult(rows[5].Result))
	assert.Contains(t, rows[6].Error, "unknown op")
	assert.Contains(t, rows[7].Error, "invalid start")

	var buf bytes.Buffer
	require.NoError(t, gocsv.Marshal(&rows, &buf))
	assert.True(t, strings.HasPrefix(buf.String(), "op,start,end,duration,min_daily,result,error"))
}

func TestRunBatch_AllRowsInvalid(t *testing.T) {
	logger = zap.NewNop()

	rows := []*batchRow{{Op: "add", Start: "nope"}}
	manager := timemanager.NewManager(workweek.Default(), nil, nil, 0, logger)

	require.NoError(t, runBatch(context.Background(), manager, rows, 2, isoduration.DefaultDayLength))
	assert.NotEmpty(t, rows[0].Error)
}

func TestRunBatch_EmptySchedule(t *testing.T) {
	logger = zap.NewNop()

	rows := []*batchRow{
		{Op: "add", Start: "2023-09-04 09:00", Duration: "1h"},
		{Op: "add", Start: "2023-09-04 09:00", Duration: "0s"},
		{Op: "elapsed", Start: "2023-09-04 09:00", End: "2023-09-05 09:00"},
	}
	manager := timemanager.NewManager(workweek.NewCalendar(), nil, nil, 0, logger)

	done := make(chan error, 1)
	go func() {
		done <- runBatch(context.Background(), manager, rows, 2, isoduration.DefaultDayLength)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("batch did not finish on a schedule without business days")
	}

	assert.Equal(t, timemanager.ErrNoBusinessDays.Error(), rows[0].Error)
	assert.Empty(t, rows[1].Error)
	assert.Equal(t, "2023-09-04T09:00:00", localResult(rows[1].Result))
	assert.Equal(t, "PT0M", rows[2].Result)
}

// localResult strips the zone offset of an RFC3339 result
func localResult(value string) string {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return "unparsable: " + value
	}
	return t.Format("2006-01-02T15:04:05")
}
