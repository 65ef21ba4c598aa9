package dashboard

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDurationSeconds(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int64
	}{
		{name: "hours and minutes", text: "1h 23m", expected: 4980},
		{name: "seconds only", text: "45s", expected: 45},
		{name: "minutes and seconds", text: "55m 9s", expected: 3309},
		{name: "all components", text: "2h 5m 7s", expected: 7507},
		{name: "reversed order", text: "7s 5m 2h", expected: 7507},
		{name: "garbage", text: "bogus", expected: 0},
		{name: "empty", text: "", expected: 0},
		{name: "no spaces", text: "1h2m3s", expected: 3723},
		{name: "hours overflow", text: "9999999999999999h", expected: MaxDurationSeconds},
		{name: "sum overflow", text: "3000000000000000h 5m", expected: MaxDurationSeconds},
		{name: "digits beyond int64", text: "99999999999999999999s", expected: MaxDurationSeconds},
		{name: "at the limit", text: fmt.Sprintf("%ds", MaxDurationSeconds), expected: MaxDurationSeconds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseDurationSeconds(tt.text))
		})
	}
}

func TestProperty_DurationIsSumOfPresentComponents(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("parsed duration equals sum of present components", prop.ForAll(
		func(h, m, s int, hasH, hasM, hasS bool, rotate int) bool {
			var parts []string
			var expected int64
			if hasH {
				parts = append(parts, fmt.Sprintf("%dh", h))
				expected += int64(h) * 3600
			}
			if hasM {
				parts = append(parts, fmt.Sprintf("%dm", m))
				expected += int64(m) * 60
			}
			if hasS {
				parts = append(parts, fmt.Sprintf("%ds", s))
				expected += int64(s)
			}
			if len(parts) > 0 {
				k := rotate % len(parts)
				parts = append(parts[k:], parts[:k]...)
			}
			return ParseDurationSeconds(strings.Join(parts, " ")) == expected
		},
		gen.IntRange(0, 999),
		gen.IntRange(0, 59),
		gen.IntRange(0, 59),
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
		gen.IntRange(0, 2),
	))

	properties.TestingRun(t)
}

func TestParseRelativeTime(t *testing.T) {
	ref := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		text     string
		expected time.Time
	}{
		{name: "days", text: "2 days ago", expected: ref.Add(-48 * time.Hour)},
		{name: "single day", text: "1 day ago", expected: ref.Add(-24 * time.Hour)},
		{name: "hours", text: "3 hours ago", expected: ref.Add(-3 * time.Hour)},
		{name: "single hour", text: "1 hour ago", expected: ref.Add(-time.Hour)},
		{name: "minutes", text: "17 minutes ago", expected: ref.Add(-17 * time.Minute)},
		{name: "just now", text: "just now", expected: ref},
		{name: "unparsable", text: "yesterday-ish", expected: ref},
		{name: "days win over hours", text: "1 day ago, 5 hours ago", expected: ref.Add(-24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.expected.Equal(ParseRelativeTime(tt.text, ref)))
		})
	}
}

func TestProperty_RelativeTimeSubtractsExactUnits(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	ref := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	units := []struct {
		word string
		unit time.Duration
	}{
		{"days", 24 * time.Hour},
		{"hours", time.Hour},
		{"minutes", time.Minute},
	}

	properties.Property("N <unit> ago is ref minus N units", prop.ForAll(
		func(n int, idx int) bool {
			u := units[idx]
			got := ParseRelativeTime(fmt.Sprintf("%d %s ago", n, u.word), ref)
			return got.Equal(ref.Add(-time.Duration(n) * u.unit))
		},
		gen.IntRange(0, 10000),
		gen.IntRange(0, 2),
	))

	properties.TestingRun(t)
}

func TestParseHourlyRate(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{name: "dollar and suffix", text: "$0.176/h", want: "0.176"},
		{name: "suffix only", text: "0.294/h", want: "0.294"},
		{name: "padded", text: "  $0.40/h ", want: "0.4"},
		{name: "non numeric", text: "$abc/h", wantErr: true},
		{name: "empty", text: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := ParseHourlyRate(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRate)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(rate))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", FormatDuration(45))
	assert.Equal(t, "5m 30s", FormatDuration(330))
	assert.Equal(t, "2h 5m", FormatDuration(7507))
	assert.Equal(t, "0s", FormatDuration(-5))
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "55 minutes 9 seconds", HumanDuration(55*time.Minute+9*time.Second))
	assert.Equal(t, "0 seconds", HumanDuration(0))
}
