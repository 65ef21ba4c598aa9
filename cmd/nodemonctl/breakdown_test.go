package main

import (
	"bytes"
	"testing"
	"time"

	"nodemonitor/internal/model"
	"nodemonitor/pkg/config"
	"nodemonitor/pkg/dashboard"
	"nodemonitor/pkg/earnings"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakdown(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, loc)
	calc := earnings.NewCalculator(earnings.NewRateTable(config.DefaultRates(), "3090"))
	usd := decimal.RequireFromString("0.50")

	records := []dashboard.JobRecord{
		// today, scraped rate: 1h at $0.30
		{CompletedAt: now.Add(-time.Hour), DurationSeconds: 3600, HourlyRateUSD: decimal.NewNullDecimal(decimal.RequireFromString("0.30")), Status: dashboard.StatusSuccess},
		// yesterday, table rate for 4090: 2h at $0.294
		{CompletedAt: now.AddDate(0, 0, -1), DurationSeconds: 7200, GPUType: "RTX 4090", Status: dashboard.StatusSuccess},
		// still running
		{CompletedAt: now.Add(-time.Minute), DurationSeconds: 600, Status: dashboard.StatusRunning},
		// outside the window
		{CompletedAt: now.AddDate(0, 0, -5), DurationSeconds: 3600, Status: dashboard.StatusSuccess},
	}

	report := breakdown(records, calc, usd, "", now, 3, loc)
	require.Len(t, report.Days, 3)
	assert.Equal(t, "2025-03-08", report.Days[0].Key)
	assert.Equal(t, 0, report.Days[0].JobCount)
	assert.Equal(t, "2025-03-09", report.Days[1].Key)
	assert.True(t, decimal.RequireFromString("0.588").Equal(report.Days[1].USD), report.Days[1].USD.String())
	assert.Equal(t, "2025-03-10", report.Days[2].Key)
	assert.True(t, decimal.RequireFromString("0.30").Equal(report.Days[2].USD))
	assert.True(t, decimal.RequireFromString("0.60").Equal(report.Days[2].Tokens))

	assert.Equal(t, 2, report.Total.JobCount)
	assert.Equal(t, int64(10800), report.Total.DurationSeconds)
	assert.True(t, decimal.RequireFromString("0.888").Equal(report.Total.USD))
}

func TestBreakdown_UnpricedRowsAreSkipped(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	calc := earnings.NewCalculator(earnings.NewRateTable(config.DefaultRates(), "3090"))
	records := []dashboard.JobRecord{
		{CompletedAt: now.Add(-time.Hour), DurationSeconds: 3600, Status: dashboard.StatusSuccess},
	}

	report := breakdown(records, calc, decimal.Zero, "", now, 1, time.UTC)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Total.JobCount)
}

func TestPrintBreakdown(t *testing.T) {
	report := &dailyBreakdown{
		Address:  "addr",
		Timezone: "UTC",
		PriceUSD: decimal.RequireFromString("0.5"),
		Days:     []earnings.Bucket{{Key: "2025-03-10", JobCount: 1, DurationSeconds: 5400, USD: decimal.RequireFromString("0.25")}},
		Total:    earnings.Bucket{Key: "total", JobCount: 1, DurationSeconds: 5400, USD: decimal.RequireFromString("0.25")},
	}
	var buf bytes.Buffer
	require.NoError(t, printBreakdown(&buf, report))
	assert.Contains(t, buf.String(), "2025-03-10")
	assert.Contains(t, buf.String(), "1.50")
	assert.Contains(t, buf.String(), "total")
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printStats(&buf, &model.AppStatistics{
		Users:         2,
		Nodes:         3,
		NodesByStatus: map[string]int64{"online": 2, "offline": 1},
	}))
	out := buf.String()
	assert.Contains(t, out, "Users")
	assert.Contains(t, out, "online")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("offline")), bytes.Index(buf.Bytes(), []byte("online")))
}
