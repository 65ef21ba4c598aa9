package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// JobStatus is the status of a scraped job row.
type JobStatus string

const (
	StatusSuccess JobStatus = "SUCCESS"
	StatusRunning JobStatus = "RUNNING"
)

// Column layout of the host jobs table.
const (
	colJob = iota
	colMarket
	colStarted
	colDuration
	colPrice
	colGPU
	colStatus

	expectedColumns
)

// Cell is one table cell as seen by the scraper.
type Cell struct {
	Text     string
	Href     string // first link inside the cell, if any
	Datetime string // datetime attribute of a <time> element, if any
}

// Row is one table row split into cells.
type Row []Cell

// RawJob holds the text fields of a row before parsing.
type RawJob struct {
	JobID        *string
	StartedText  string
	StartedAt    string // authoritative timestamp, when the page exposes one
	DurationText string
	PriceText    string
	GPUText      string
	Status       JobStatus
}

// JobRecord is a normalized job execution.
type JobRecord struct {
	JobID           *string
	StartedAt       time.Time
	CompletedAt     time.Time
	DurationSeconds int64
	HourlyRateUSD   decimal.NullDecimal
	GPUType         string
	Status          JobStatus

	StartedText  string
	DurationText string
}

// Completed reports whether the job counts towards earnings.
func (j JobRecord) Completed() bool {
	return j.Status == StatusSuccess
}

// ExtractRows turns scraped rows into raw jobs. Rows with fewer cells than the
// table layout are skipped.
func ExtractRows(rows []Row) []RawJob {
	jobs := make([]RawJob, 0, len(rows))
	for _, row := range rows {
		if len(row) < expectedColumns {
			continue
		}

		status := StatusSuccess
		if strings.Contains(row[colStatus].Text, "RUNNING") {
			status = StatusRunning
		}

		jobs = append(jobs, RawJob{
			JobID:        jobIDFromHref(row[colJob].Href),
			StartedText:  strings.TrimSpace(row[colStarted].Text),
			StartedAt:    strings.TrimSpace(row[colStarted].Datetime),
			DurationText: strings.TrimSpace(row[colDuration].Text),
			PriceText:    strings.TrimSpace(row[colPrice].Text),
			GPUText:      strings.TrimSpace(row[colGPU].Text),
			Status:       status,
		})
	}
	return jobs
}

func jobIDFromHref(href string) *string {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil
	}
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	href = strings.TrimRight(href, "/")
	id := href[strings.LastIndex(href, "/")+1:]
	if id == "" {
		return nil
	}
	return &id
}

// Normalize parses the text fields of a raw job. A malformed price is an
// error; a blank price leaves the rate unset so callers fall back to the GPU table.
func Normalize(raw RawJob, scrapedAt time.Time) (JobRecord, error) {
	started := ParseRelativeTime(raw.StartedText, scrapedAt)
	if raw.StartedAt != "" {
		if ts, err := time.Parse(time.RFC3339, raw.StartedAt); err == nil {
			started = ts
		}
	}

	duration := ParseDurationSeconds(raw.DurationText)

	var rate decimal.NullDecimal
	if raw.PriceText != "" && raw.PriceText != "-" {
		r, err := ParseHourlyRate(raw.PriceText)
		if err != nil {
			return JobRecord{}, fmt.Errorf("failed to parse price of job %s: %w", jobIDString(raw.JobID), err)
		}
		rate = decimal.NewNullDecimal(r)
	}

	rec := JobRecord{
		JobID:           raw.JobID,
		StartedAt:       started,
		DurationSeconds: duration,
		HourlyRateUSD:   rate,
		GPUType:         raw.GPUText,
		Status:          raw.Status,
		StartedText:     raw.StartedText,
		DurationText:    raw.DurationText,
	}
	if rec.Completed() {
		rec.CompletedAt = started.Add(time.Duration(duration) * time.Second)
	}
	return rec, nil
}

// ExtractJobs extracts and normalizes rows, returning the records and the
// number of rows skipped because they could not be parsed.
func ExtractJobs(rows []Row, scrapedAt time.Time) ([]JobRecord, int) {
	raws := ExtractRows(rows)
	skipped := len(rows) - len(raws)

	records := make([]JobRecord, 0, len(raws))
	for _, raw := range raws {
		rec, err := Normalize(raw, scrapedAt)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped
}

func jobIDString(id *string) string {
	if id == nil {
		return "<none>"
	}
	return *id
}
