package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"nodemonitor/pkg/dashboard"
	"nodemonitor/pkg/earnings"
	"nodemonitor/pkg/jsonx"
	"nodemonitor/pkg/price"
	"nodemonitor/pkg/solana"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
)

type breakdownOptions struct {
	days    int
	gpu     string
	asJSON  bool
	timeout time.Duration
}

// dailyBreakdown is the per-day view of a host's completed jobs
type dailyBreakdown struct {
	Address  string            `json:"address"`
	Timezone string            `json:"timezone"`
	PriceUSD decimal.Decimal   `json:"price_usd"`
	Source   price.Source      `json:"price_source"`
	Days     []earnings.Bucket `json:"days"`
	Total    earnings.Bucket   `json:"total"`
	Skipped  int               `json:"skipped_rows"`
}

func newBreakdownCmd() *cobra.Command {
	opts := &breakdownOptions{}
	cmd := &cobra.Command{
		Use:   "breakdown <address>",
		Short: "Print per-day earnings of a host from its dashboard job table",
		Example: `  # Last 7 days of a host
  nodemonctl breakdown 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin --days 7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBreakdown(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}
	cmd.Flags().IntVar(&opts.days, "days", 7, "number of days including today")
	cmd.Flags().StringVar(&opts.gpu, "gpu", "", "GPU label used when a row carries no rate")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", time.Minute, "overall timeout")
	return cmd
}

func runBreakdown(ctx context.Context, out io.Writer, address string, opts *breakdownOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.days < 1 {
		return fmt.Errorf("--days must be at least 1")
	}
	address = strings.TrimSpace(address)
	if err := solana.ValidateAddress(address); err != nil {
		return err
	}

	cfg := loadConfig()
	loc, err := time.LoadLocation(cfg.Monitor.Timezone)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	page, err := dashboard.NewScraper(cfg.Dashboard).Scrape(ctx, address)
	if err != nil {
		return err
	}
	records, skipped := dashboard.ExtractJobs(page.Rows, page.ScrapedAt)

	quote := price.NewQuoter(price.NewCoinGecko(cfg.Price), nil, cfg.Price.TokenID, cfg.Price.FallbackPrice).Quote(ctx)
	calc := earnings.NewCalculator(earnings.NewRateTable(cfg.Earnings.Rates, cfg.Earnings.DefaultTier))

	report := breakdown(records, calc, quote.USD, opts.gpu, time.Now(), opts.days, loc)
	report.Address = address
	report.Source = quote.Source
	report.Skipped += skipped

	if opts.asJSON {
		body, err := jsonx.Marshal(report)
		if err != nil {
			return err
		}
		_, err = out.Write(pretty.Pretty(body))
		return err
	}
	return printBreakdown(out, report)
}

// breakdown groups completed jobs into zero-filled day buckets covering the
// last days calendar days up to now. Rows that cannot be priced are skipped.
func breakdown(records []dashboard.JobRecord, calc *earnings.Calculator, usd decimal.Decimal, gpu string, now time.Time, days int, loc *time.Location) *dailyBreakdown {
	from := earnings.StartOfDay(now, loc).AddDate(0, 0, -(days - 1))
	report := &dailyBreakdown{
		Timezone: loc.String(),
		PriceUSD: usd,
		Days:     make([]earnings.Bucket, 0, days),
		Total:    earnings.Bucket{Key: "total"},
	}

	var samples []earnings.Sample
	for _, rec := range records {
		if !rec.Completed() || rec.CompletedAt.Before(from) || rec.CompletedAt.After(now) {
			continue
		}
		label := rec.GPUType
		if label == "" {
			label = gpu
		}
		e, err := calc.ForJob(rec.DurationSeconds, rec.HourlyRateUSD, label, usd)
		if err != nil {
			report.Skipped++
			continue
		}
		samples = append(samples, earnings.Sample{
			CompletedAt:     rec.CompletedAt,
			DurationSeconds: rec.DurationSeconds,
			USD:             e.USDValue,
			Tokens:          e.TokenAmount,
		})
	}

	index := make(map[string]earnings.Bucket)
	for _, b := range earnings.GroupByDay(samples, loc) {
		index[b.Key] = b
	}
	for day := from; !day.After(now); day = day.AddDate(0, 0, 1) {
		key := earnings.DayKey(day, loc)
		b, ok := index[key]
		if !ok {
			b = earnings.Bucket{Key: key}
		}
		report.Days = append(report.Days, b)
		report.Total.Merge(b)
	}
	return report
}

func printBreakdown(out io.Writer, r *dailyBreakdown) error {
	fmt.Fprintf(out, "Host %s (%s), NOS price $%s (%s)\n\n", r.Address, r.Timezone, r.PriceUSD.StringFixed(4), r.Source)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "DAY\tJOBS\tHOURS\tUSD\tNOS\t")
	for _, d := range append(r.Days, r.Total) {
		hours := decimal.NewFromInt(d.DurationSeconds).Div(decimal.NewFromInt(3600))
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t\n", d.Key, d.JobCount, hours.StringFixed(2), d.USD.StringFixed(2), d.Tokens.StringFixed(2))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if r.Skipped > 0 {
		fmt.Fprintf(out, "\n%d rows skipped\n", r.Skipped)
	}
	return nil
}

