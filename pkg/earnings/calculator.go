package earnings

import (
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable is returned when the token price is zero or negative.
// Callers skip persisting the job instead of recording a zero or infinite amount.
var ErrPriceUnavailable = errors.New("token price unavailable")

// RateSource tells which rate produced an Earnings value.
type RateSource string

const (
	RateSourceScraped RateSource = "scraped"
	RateSourceTable   RateSource = "table"
)

var secondsPerHour = decimal.NewFromInt(3600)

// Earnings is the payout of one job.
type Earnings struct {
	USDValue      decimal.Decimal
	TokenAmount   decimal.Decimal
	HourlyRateUSD decimal.Decimal
	TokenPriceUSD decimal.Decimal
	Source        RateSource
}

// Compute returns usd = rate * duration/3600 and tokens = usd / price.
func Compute(durationSeconds int64, hourlyRateUSD, tokenPriceUSD decimal.Decimal) (Earnings, error) {
	if !tokenPriceUSD.IsPositive() {
		return Earnings{}, ErrPriceUnavailable
	}
	if durationSeconds < 0 {
		durationSeconds = 0
	}

	usd := hourlyRateUSD.Mul(decimal.NewFromInt(durationSeconds)).Div(secondsPerHour)
	return Earnings{
		USDValue:      usd,
		TokenAmount:   usd.Div(tokenPriceUSD),
		HourlyRateUSD: hourlyRateUSD,
		TokenPriceUSD: tokenPriceUSD,
	}, nil
}

// RateTable maps GPU labels to USD/hour.
type RateTable struct {
	rates       map[string]decimal.Decimal
	keys        []string // longest first
	defaultTier string
}

// NewRateTable builds a table from label -> rate. defaultTier must be a key of rates.
func NewRateTable(rates map[string]float64, defaultTier string) *RateTable {
	t := &RateTable{
		rates:       make(map[string]decimal.Decimal, len(rates)),
		defaultTier: strings.ToLower(defaultTier),
	}
	for label, rate := range rates {
		key := strings.ToLower(label)
		t.rates[key] = decimal.NewFromFloat(rate)
		t.keys = append(t.keys, key)
	}
	sort.Slice(t.keys, func(i, j int) bool {
		if len(t.keys[i]) != len(t.keys[j]) {
			return len(t.keys[i]) > len(t.keys[j])
		}
		return t.keys[i] < t.keys[j]
	})
	return t
}

// Lookup returns the rate of the longest table key contained in label
// (case-insensitive), or the default tier's rate.
func (t *RateTable) Lookup(label string) (decimal.Decimal, string) {
	l := strings.ToLower(label)
	for _, key := range t.keys {
		if strings.Contains(l, key) {
			return t.rates[key], key
		}
	}
	return t.rates[t.defaultTier], t.defaultTier
}

// Calculator computes earnings from a scraped rate or the GPU table.
type Calculator struct {
	table *RateTable
}

// NewCalculator creates a calculator backed by table
func NewCalculator(table *RateTable) *Calculator {
	return &Calculator{table: table}
}

// ForJob uses scrapedRate when it is set, otherwise the table rate of gpuLabel.
func (c *Calculator) ForJob(durationSeconds int64, scrapedRate decimal.NullDecimal, gpuLabel string, tokenPriceUSD decimal.Decimal) (Earnings, error) {
	rate, source := c.rateFor(scrapedRate, gpuLabel)
	e, err := Compute(durationSeconds, rate, tokenPriceUSD)
	if err != nil {
		return Earnings{}, err
	}
	e.Source = source
	return e, nil
}

func (c *Calculator) rateFor(scrapedRate decimal.NullDecimal, gpuLabel string) (decimal.Decimal, RateSource) {
	if scrapedRate.Valid && scrapedRate.Decimal.IsPositive() {
		return scrapedRate.Decimal, RateSourceScraped
	}
	rate, _ := c.table.Lookup(gpuLabel)
	return rate, RateSourceTable
}
