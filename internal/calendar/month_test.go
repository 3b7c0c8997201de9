package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in   string
		want Month
	}{
		{"2025-07-01", NewMonth(2025, time.July)},
		{"2025-7-15", NewMonth(2025, time.July)},
		{"2025-07", NewMonth(2025, time.July)},
		{" 2025-12 ", NewMonth(2025, time.December)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMonth(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseMonth("July 2025")
	assert.Error(t, err)
}

func TestMonthAdd_RollsOverYears(t *testing.T) {
	m := NewMonth(2025, time.November)
	assert.Equal(t, NewMonth(2026, time.February), m.Add(3))
	assert.Equal(t, NewMonth(2024, time.December), m.Add(-11))
	assert.Equal(t, 3, m.MonthsUntil(m.Add(3)))
}

func TestMonthCompare(t *testing.T) {
	a := NewMonth(2025, time.January)
	b := NewMonth(2025, time.February)
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, 0, a.Compare(NewMonth(2025, time.January)))
}

func TestMonthJSONRoundTrip(t *testing.T) {
	m := NewMonth(2026, time.March)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-01"`, string(data))

	var back Month
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, m, back)
}

func TestMonthUnmarshalYAML_UnquotedTimestamp(t *testing.T) {
	var doc struct {
		Start Month `yaml:"start"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("start: 2025-09-01\n"), &doc))
	assert.Equal(t, NewMonth(2025, time.September), doc.Start)
}

func TestFiscalYear(t *testing.T) {
	assert.Equal(t, 2025, FiscalYear(MustParseMonth("2025-09")))
	assert.Equal(t, 2026, FiscalYear(MustParseMonth("2025-10")))
	assert.Equal(t, 2026, FiscalYear(MustParseMonth("2026-01")))
}

func TestBuildIndex(t *testing.T) {
	anchor := time.Date(2025, time.July, 17, 12, 0, 0, 0, time.UTC)
	idx, err := BuildIndex(anchor, 4)
	require.NoError(t, err)
	require.Len(t, idx, 4)
	assert.Equal(t, "2025-07-01", idx[0].String())
	assert.Equal(t, "2025-10-01", idx[3].String())
	require.NoError(t, ValidateIndex(idx))

	_, err = BuildIndex(anchor, 0)
	assert.Error(t, err)
}

func TestValidateIndex(t *testing.T) {
	assert.Error(t, ValidateIndex(nil))

	m := MustParseMonth("2025-07")
	assert.Error(t, ValidateIndex([]Month{m, m}))
	assert.Error(t, ValidateIndex([]Month{m.Add(1), m}))
	assert.NoError(t, ValidateIndex([]Month{m, m.Add(2)}))
}

func TestYears(t *testing.T) {
	idx, err := BuildIndex(time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC), 6)
	require.NoError(t, err)
	assert.Equal(t, []int{2025, 2026}, Years(idx, FiscalYear))
	assert.Equal(t, []int{2025, 2026}, Years(idx, CalendarYear))
}

func TestSeriesReindex_ZeroFills(t *testing.T) {
	m := MustParseMonth("2025-07")
	s := Series{m: 5, m.Add(2): 7}
	assert.Equal(t, []float64{5, 0, 7}, s.Reindex([]Month{m, m.Add(1), m.Add(2)}))
	assert.Equal(t, []float64{3, 3}, Constant([]Month{m, m.Add(1)}, 3).Reindex([]Month{m, m.Add(1)}))
}
