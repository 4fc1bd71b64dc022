package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNormalizer(now time.Time, loc *time.Location) DateNormalizer {
	return DateNormalizer{
		Now:      func() time.Time { return now },
		Location: loc,
	}
}

func TestDateNormalizerParse(t *testing.T) {
	n := fixedNormalizer(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), time.UTC)

	cases := []struct {
		name string
		in   string
		want time.Time
		ok   bool
	}{
		{"rfc3339", "2024-01-15T10:30:00Z", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), true},
		{"rfc3339 fraction", "2024-01-15T10:30:00.123Z", time.Date(2024, 1, 15, 10, 30, 0, 123000000, time.UTC), true},
		{"offset", "2024-01-15T10:30:00+08:00", time.Date(2024, 1, 15, 2, 30, 0, 0, time.UTC), true},
		{"postgres text", "2024-01-15 10:30:00+08", time.Date(2024, 1, 15, 2, 30, 0, 0, time.UTC), true},
		{"basic offset", "2024-01-15T10:30:00+0800", time.Date(2024, 1, 15, 2, 30, 0, 0, time.UTC), true},
		{"basic offset fraction", "2024-01-15T10:30:00.5+0800", time.Date(2024, 1, 15, 2, 30, 0, 500000000, time.UTC), true},
		{"basic negative offset", "2024-01-15T10:30:00-0500", time.Date(2024, 1, 15, 15, 30, 0, 0, time.UTC), true},
		{"offset without seconds", "2024-01-15T10:30+08:00", time.Date(2024, 1, 15, 2, 30, 0, 0, time.UTC), true},
		{"basic offset without seconds", "2024-01-15T10:30+0800", time.Date(2024, 1, 15, 2, 30, 0, 0, time.UTC), true},
		{"space separated offset", "2024-01-15 10:30:00+08:00", time.Date(2024, 1, 15, 2, 30, 0, 0, time.UTC), true},
		{"space separated basic offset", "2024-01-15 10:30:00+0800", time.Date(2024, 1, 15, 2, 30, 0, 0, time.UTC), true},
		{"space separated fraction", "2024-01-15 10:30:00.25Z", time.Date(2024, 1, 15, 10, 30, 0, 250000000, time.UTC), true},
		{"no offset", "2024-01-15T10:30", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), true},
		{"date only", "2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"month only", "2024-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"token", "03月15日14:30", time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC), true},
		{"token inside text", "交易时间 01月02日08:05 消费", time.Date(2024, 1, 2, 8, 5, 0, 0, time.UTC), true},
		{"token day rolls over", "02月30日10:00", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), true},
		{"token month 13", "13月01日10:00", time.Time{}, false},
		{"token month 00", "00月10日10:00", time.Time{}, false},
		{"token day 00", "02月00日10:00", time.Time{}, false},
		{"token hour 24", "02月10日24:00", time.Time{}, false},
		{"token minute 60", "02月10日10:60", time.Time{}, false},
		{"garbage", "yesterday-ish", time.Time{}, false},
		{"bad iso", "2024-13-45", time.Time{}, false},
		{"empty", "", time.Time{}, false},
		{"blank", "   ", time.Time{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := n.Parse(tc.in)
			require.Equal(t, tc.ok, ok)
			if ok {
				assert.True(t, got.Equal(tc.want), "Parse(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestDateNormalizerLabels(t *testing.T) {
	n := fixedNormalizer(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), time.UTC)

	cases := []struct {
		in    string
		month string
		full  string
		short string
		rel   string
	}{
		{"2024-01-15T10:30:00Z", "Jan 2024", "Jan 15, 2024", "Jan 15", "Jan 15"},
		{"2024-03-15T00:00:00Z", "Mar 2024", "Mar 15, 2024", "Mar 15", "Today"},
		{"2024-03-14T23:59:59Z", "Mar 2024", "Mar 14, 2024", "Mar 14", "Yesterday"},
		{"2024-03-13T23:59:59Z", "Mar 2024", "Mar 13, 2024", "Mar 13", "Mar 13"},
		{"2023-03-15T10:00:00Z", "Mar 2023", "Mar 15, 2023", "Mar 15", "Mar 15"},
		{"03月15日09:00", "Mar 2024", "Mar 15, 2024", "Mar 15", "Today"},
		{"not a date", InvalidDateLabel, InvalidDateLabel, InvalidDateLabel, InvalidDateLabel},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.month, n.MonthLabel(tc.in))
			assert.Equal(t, tc.full, n.Label(tc.in, StyleFull))
			assert.Equal(t, tc.short, n.Label(tc.in, StyleShort))
			assert.Equal(t, tc.rel, n.Label(tc.in, StyleRelative))
		})
	}
}

func TestDateNormalizerRelativeUsesLocation(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*3600)
	n := fixedNormalizer(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), shanghai)

	// 20:00 UTC on the 14th is already the 15th in UTC+8.
	assert.Equal(t, "Today", n.Label("2024-03-14T20:00:00Z", StyleRelative))

	// Offset-less text is read in the normalizer's zone.
	got, ok := n.Parse("2024-03-15T08:00:00")
	require.True(t, ok)
	assert.True(t, got.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)), got)
}

func TestDateNormalizerTokenYearFollowsClock(t *testing.T) {
	n := fixedNormalizer(time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC), time.UTC)
	assert.Equal(t, "Dec 2031", n.MonthLabel("12月31日23:59"))
}

func TestMonthKey(t *testing.T) {
	jan := MonthKey{Year: 2024, Month: time.January}
	assert.Equal(t, MonthKey{Year: 2023, Month: time.December}, jan.Prev())
	assert.Less(t, jan.Prev().Index(), jan.Index(), "December sorts before January")
	assert.Equal(t, "Jan 2024", jan.Label())
}
