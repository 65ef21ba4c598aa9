package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"nodemonitor/internal/model"
	"nodemonitor/pkg/config"
	"nodemonitor/pkg/dashboard"
	"nodemonitor/pkg/earnings"
	"nodemonitor/pkg/interfaces"
	"nodemonitor/pkg/logger"
	"nodemonitor/pkg/price"
	mysqlModel "nodemonitor/pkg/store/mysql/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EarningsService records job earnings and answers the earnings screens
type EarningsService struct {
	earnings interfaces.EarningsRepository
	tracking interfaces.TrackingRepository
	scraped  interfaces.ScrapedJobRepository
	nodes    interfaces.NodeRepository
	tx       interfaces.Transactor
	scraper  interfaces.PageScraper
	quoter   interfaces.PriceQuoter
	calc     *earnings.Calculator
	mode     string
	loc      *time.Location
	now      func() time.Time
}

// NewEarningsService creates an earnings service. Day buckets are keyed in loc.
func NewEarningsService(
	earningsRepo interfaces.EarningsRepository,
	tracking interfaces.TrackingRepository,
	scraped interfaces.ScrapedJobRepository,
	nodes interfaces.NodeRepository,
	tx interfaces.Transactor,
	scraper interfaces.PageScraper,
	quoter interfaces.PriceQuoter,
	calc *earnings.Calculator,
	mode string,
	loc *time.Location,
) *EarningsService {
	if loc == nil {
		loc = time.UTC
	}
	return &EarningsService{
		earnings: earningsRepo,
		tracking: tracking,
		scraped:  scraped,
		nodes:    nodes,
		tx:       tx,
		scraper:  scraper,
		quoter:   quoter,
		calc:     calc,
		mode:     mode,
		loc:      loc,
		now:      time.Now,
	}
}

// Location returns the reference location of day buckets
func (s *EarningsService) Location() *time.Location {
	return s.loc
}

// Mode returns the configured earnings mode
func (s *EarningsService) Mode() string {
	return s.mode
}

// Calculator returns the rate calculator
func (s *EarningsService) Calculator() *earnings.Calculator {
	return s.calc
}

// NewEntry builds an earnings row for a job of node completed at completedAt
func (s *EarningsService) NewEntry(node *mysqlModel.Node, jobID *string, completedAt time.Time, durationSeconds int64, e earnings.Earnings) *mysqlModel.JobEarning {
	completedAt = completedAt.UTC()
	return &mysqlModel.JobEarning{
		ID:              uuid.NewString(),
		UserID:          node.UserID,
		NodeID:          node.ID,
		NodeName:        node.DisplayName(),
		JobID:           jobID,
		CompletedAt:     completedAt,
		DurationSeconds: durationSeconds,
		USDValue:        e.USDValue,
		NOSEarned:       e.TokenAmount,
		NOSPriceAtTime:  e.TokenPriceUSD,
		HourlyRateUSD:   e.HourlyRateUSD,
		RateSource:      string(e.Source),
		Date:            earnings.DayKey(completedAt, s.loc),
		Month:           earnings.MonthKey(completedAt, s.loc),
		Year:            earnings.YearKey(completedAt, s.loc),
	}
}

// Record persists entry, then closes the node's tracking year if it is due.
// A rollover failure is logged and does not fail the call.
func (s *EarningsService) Record(ctx context.Context, entry *mysqlModel.JobEarning, now time.Time) error {
	return s.RecordWith(ctx, entry, now, nil)
}

// RecordWith saves entry and runs persist in one transaction. entry may be
// nil. The tracking year is closed after commit.
func (s *EarningsService) RecordWith(ctx context.Context, entry *mysqlModel.JobEarning, now time.Time, persist func(ctx context.Context) error) error {
	err := s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		if entry != nil {
			if err := s.earnings.Create(txCtx, entry); err != nil {
				return fmt.Errorf("failed to save earnings entry: %w", err)
			}
		}
		if persist != nil {
			return persist(txCtx)
		}
		return nil
	})
	if err != nil || entry == nil {
		return err
	}
	s.closeYearIfDue(ctx, entry, now)
	return nil
}

func (s *EarningsService) closeYearIfDue(ctx context.Context, entry *mysqlModel.JobEarning, now time.Time) {
	if err := s.rollover(ctx, entry.NodeID, entry.UserID, now); err != nil {
		logger.ErrorCtx(ctx, "tracking year rollover failed, node_id: %s, error: %v", entry.NodeID, err)
	}
}

func (s *EarningsService) rollover(ctx context.Context, nodeID, userID string, now time.Time) error {
	now = now.UTC()
	return s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		err := s.tracking.CreateIfAbsent(txCtx, &mysqlModel.NodeTrackingMetadata{
			NodeID:           nodeID,
			UserID:           userID,
			TrackingStarted:  now,
			CurrentYearStart: now,
			ArchivedYears:    mysqlModel.ArchivedYears{},
			UpdatedAt:        now,
		})
		if err != nil {
			return fmt.Errorf("failed to create tracking metadata: %w", err)
		}

		meta, err := s.tracking.GetForUpdate(txCtx, nodeID)
		if err != nil {
			return fmt.Errorf("failed to lock tracking metadata: %w", err)
		}
		if meta == nil {
			return nil
		}

		state := trackingState(meta)
		if !earnings.NeedsRollover(state, now) {
			return nil
		}

		start, end := earnings.ClosedWindow(state)
		rows, err := s.earnings.ListByNode(txCtx, nodeID, &start, &end)
		if err != nil {
			return fmt.Errorf("failed to list earnings in closed window: %w", err)
		}

		next := earnings.CloseYear(state, toSamples(rows), now)
		meta.CurrentYearStart = next.CurrentYearStart
		meta.ArchivedYears = mysqlModel.ArchivedYears(next.ArchivedYears)
		meta.UpdatedAt = now
		if err := s.tracking.Save(txCtx, meta); err != nil {
			return fmt.Errorf("failed to save tracking metadata: %w", err)
		}

		logger.InfoCtx(ctx, "closed tracking year %d for node %s",
			next.ArchivedYears[len(next.ArchivedYears)-1].YearNumber, nodeID)
		return nil
	})
}

// UserSummary returns today, yesterday, this month, this year and all time
func (s *EarningsService) UserSummary(ctx context.Context, userID string, now time.Time) (*model.EarningsSummaryResponse, error) {
	rows, err := s.earnings.ListByUser(ctx, userID, nil, nil)
	if err != nil {
		return nil, err
	}
	return &model.EarningsSummaryResponse{
		Timezone: s.loc.String(),
		Summary:  earnings.Summarize(toSamples(rows), now, s.loc),
	}, nil
}

// LastDays returns the [from, to) range covering the last days calendar days
// including today.
func (s *EarningsService) LastDays(days int, now time.Time) (time.Time, time.Time) {
	if days < 1 {
		days = 1
	}
	from := earnings.StartOfDay(now, s.loc).AddDate(0, 0, -(days - 1))
	return from, now
}

// Daily returns one bucket per calendar day in [from, to), zero-filled
func (s *EarningsService) Daily(ctx context.Context, userID string, from, to time.Time) (*model.EarningsSeriesResponse, error) {
	rows, err := s.earnings.ListByUser(ctx, userID, &from, &to)
	if err != nil {
		return nil, err
	}

	var keys []string
	for day := earnings.StartOfDay(from, s.loc); day.Before(to); day = day.AddDate(0, 0, 1) {
		keys = append(keys, earnings.DayKey(day, s.loc))
	}
	return series("day", keys, earnings.GroupByDay(toSamples(rows), s.loc)), nil
}

// Monthly returns the twelve months of year, zero-filled
func (s *EarningsService) Monthly(ctx context.Context, userID string, year int) (*model.EarningsSeriesResponse, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, s.loc)
	to := from.AddDate(1, 0, 0)
	rows, err := s.earnings.ListByUser(ctx, userID, &from, &to)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, 12)
	for m := from; m.Before(to); m = m.AddDate(0, 1, 0) {
		keys = append(keys, earnings.MonthKey(m, s.loc))
	}
	return series("month", keys, earnings.GroupByMonth(toSamples(rows), s.loc)), nil
}

// Yearly returns one bucket per year with earnings
func (s *EarningsService) Yearly(ctx context.Context, userID string) (*model.EarningsSeriesResponse, error) {
	rows, err := s.earnings.ListByUser(ctx, userID, nil, nil)
	if err != nil {
		return nil, err
	}
	buckets := earnings.GroupByYear(toSamples(rows), s.loc)
	keys := make([]string, 0, len(buckets))
	for _, b := range buckets {
		keys = append(keys, b.Key)
	}
	return series("year", keys, buckets), nil
}

// NodeSummary returns a node's summary with its open tracking year and archive
func (s *EarningsService) NodeSummary(ctx context.Context, userID, nodeID string, now time.Time) (*model.NodeEarningsResponse, error) {
	node, err := s.nodes.Get(ctx, userID, nodeID)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, ErrNodeNotFound
	}

	rows, err := s.earnings.ListByNode(ctx, nodeID, nil, nil)
	if err != nil {
		return nil, err
	}
	samples := toSamples(rows)

	resp := &model.NodeEarningsResponse{
		NodeID:        node.ID,
		NodeName:      node.DisplayName(),
		Summary:       earnings.Summarize(samples, now, s.loc),
		ArchivedYears: []earnings.ArchivedYear{},
	}

	meta, err := s.tracking.Get(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if meta != nil {
		started := meta.TrackingStarted
		start := meta.CurrentYearStart
		end := start.Add(earnings.TrackingYear)
		resp.TrackingStarted = &started
		resp.CurrentYear = &model.TrackingYearResponse{
			StartDate: start,
			EndDate:   end,
			Totals:    earnings.Window(samples, start, end, "current"),
		}
		if len(meta.ArchivedYears) > 0 {
			resp.ArchivedYears = meta.ArchivedYears
		}
	}
	return resp, nil
}

// SyncScrapedJobs scrapes a node's job table and stores it with SyncPage
func (s *EarningsService) SyncScrapedJobs(ctx context.Context, node *mysqlModel.Node) (*model.SyncResponse, error) {
	page, err := s.scraper.Scrape(ctx, node.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to scrape dashboard: %w", err)
	}
	return s.SyncPage(ctx, node, page), nil
}

// SyncPage stores the job rows of page not seen before and moves stored rows
// that have since succeeded to SUCCESS. In scrape earnings mode a job is
// recorded as earnings the first time it is stored as successful, in the same
// transaction as the row. A job that fails to record leaves no row behind and
// is retried on the next sync.
func (s *EarningsService) SyncPage(ctx context.Context, node *mysqlModel.Node, page *dashboard.Page) *model.SyncResponse {
	records, skipped := dashboard.ExtractJobs(page.Rows, page.ScrapedAt)
	resp := &model.SyncResponse{Scraped: len(records), Skipped: skipped}

	var quote *price.Quote
	for _, rec := range records {
		if rec.JobID == nil {
			continue
		}
		record := s.mode == config.EarningsModeScrape && rec.Completed()
		if record && quote == nil {
			q := s.quoter.Quote(ctx)
			quote = &q
		}

		row := s.scrapedRow(node, rec, page.ScrapedAt)
		var inserted bool
		var entry *mysqlModel.JobEarning
		err := s.tx.ExecTx(ctx, func(txCtx context.Context) error {
			var err error
			if inserted, err = s.scraped.InsertIfAbsent(txCtx, row); err != nil {
				return err
			}
			completed := inserted
			if !inserted && rec.Completed() {
				if completed, err = s.scraped.MarkCompleted(txCtx, row); err != nil {
					return err
				}
			}
			if !record || !completed {
				return nil
			}
			if entry, err = s.scrapedEntry(node, rec, quote.USD); err != nil {
				return err
			}
			return s.earnings.Create(txCtx, entry)
		})
		if err != nil {
			logger.WarnCtx(ctx, "failed to store scraped job %s: %v", *rec.JobID, err)
			continue
		}
		if inserted {
			resp.Inserted++
		}
		if entry != nil {
			resp.Recorded++
			s.closeYearIfDue(ctx, entry, s.now())
		}
	}

	logger.InfoCtx(ctx, "synced dashboard jobs for node %s: scraped=%d inserted=%d recorded=%d skipped=%d",
		node.ID, resp.Scraped, resp.Inserted, resp.Recorded, resp.Skipped)
	return resp
}

func (s *EarningsService) scrapedEntry(node *mysqlModel.Node, rec dashboard.JobRecord, tokenUSD decimal.Decimal) (*mysqlModel.JobEarning, error) {
	gpu := rec.GPUType
	if gpu == "" {
		gpu = node.GPUType
	}
	e, err := s.calc.ForJob(rec.DurationSeconds, rec.HourlyRateUSD, gpu, tokenUSD)
	if err != nil {
		return nil, err
	}
	return s.NewEntry(node, rec.JobID, rec.CompletedAt, rec.DurationSeconds, e), nil
}

func (s *EarningsService) scrapedRow(node *mysqlModel.Node, rec dashboard.JobRecord, scrapedAt time.Time) *mysqlModel.ScrapedJob {
	row := &mysqlModel.ScrapedJob{
		JobID:           *rec.JobID,
		NodeAddress:     node.Address,
		UserID:          node.UserID,
		NodeID:          node.ID,
		StartedAt:       rec.StartedAt.UTC(),
		DurationSeconds: rec.DurationSeconds,
		HourlyRateUSD:   rec.HourlyRateUSD,
		GPUType:         rec.GPUType,
		Status:          string(rec.Status),
		StartedText:     rec.StartedText,
		DurationText:    rec.DurationText,
		ScrapedAt:       scrapedAt.UTC(),
	}
	if rec.Completed() {
		completed := rec.CompletedAt.UTC()
		row.CompletedAt = &completed
	}
	return row
}

// IsPriceUnavailable reports whether err means earnings were skipped for lack of a price
func IsPriceUnavailable(err error) bool {
	return errors.Is(err, earnings.ErrPriceUnavailable)
}

func trackingState(meta *mysqlModel.NodeTrackingMetadata) earnings.TrackingState {
	return earnings.TrackingState{
		TrackingStarted:  meta.TrackingStarted,
		CurrentYearStart: meta.CurrentYearStart,
		ArchivedYears:    []earnings.ArchivedYear(meta.ArchivedYears),
	}
}

func toSamples(rows []*mysqlModel.JobEarning) []earnings.Sample {
	samples := make([]earnings.Sample, 0, len(rows))
	for _, r := range rows {
		samples = append(samples, earnings.Sample{
			CompletedAt:     r.CompletedAt,
			DurationSeconds: r.DurationSeconds,
			USD:             r.USDValue,
			Tokens:          r.NOSEarned,
		})
	}
	return samples
}

func series(period string, keys []string, grouped []earnings.Bucket) *model.EarningsSeriesResponse {
	index := make(map[string]earnings.Bucket, len(grouped))
	for _, b := range grouped {
		index[b.Key] = b
	}

	resp := &model.EarningsSeriesResponse{
		Period:  period,
		Buckets: make([]earnings.Bucket, 0, len(keys)),
		Total:   earnings.Bucket{Key: "total"},
	}
	for _, k := range keys {
		b, ok := index[k]
		if !ok {
			b = earnings.Bucket{Key: k}
		}
		resp.Buckets = append(resp.Buckets, b)
		resp.Total.Merge(b)
	}
	return resp
}

// ParseYear parses a four digit year, defaulting to the year of now in loc
func (s *EarningsService) ParseYear(raw string, now time.Time) (int, error) {
	if raw == "" {
		return now.In(s.loc).Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 2000 || year > 9999 {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	return year, nil
}
