package earnings

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Bucket key layouts.
const (
	DayLayout   = "2006-01-02"
	MonthLayout = "2006-01"
	YearLayout  = "2006"
)

// Sample is one completed job's contribution to the totals.
type Sample struct {
	CompletedAt     time.Time
	DurationSeconds int64
	USD             decimal.Decimal
	Tokens          decimal.Decimal
}

// Bucket is an aggregate over a set of samples.
type Bucket struct {
	Key             string          `json:"key"`
	JobCount        int             `json:"job_count"`
	USD             decimal.Decimal `json:"usd"`
	Tokens          decimal.Decimal `json:"nos"`
	DurationSeconds int64           `json:"duration_seconds"`
}

// Add folds a sample into the bucket.
func (b *Bucket) Add(s Sample) {
	b.JobCount++
	b.USD = b.USD.Add(s.USD)
	b.Tokens = b.Tokens.Add(s.Tokens)
	b.DurationSeconds += s.DurationSeconds
}

// Merge folds another bucket into b.
func (b *Bucket) Merge(o Bucket) {
	b.JobCount += o.JobCount
	b.USD = b.USD.Add(o.USD)
	b.Tokens = b.Tokens.Add(o.Tokens)
	b.DurationSeconds += o.DurationSeconds
}

// Summary holds the standard windows shown on the earnings screen.
type Summary struct {
	Today     Bucket `json:"today"`
	Yesterday Bucket `json:"yesterday"`
	ThisMonth Bucket `json:"this_month"`
	ThisYear  Bucket `json:"this_year"`
	AllTime   Bucket `json:"all_time"`
}

// DayKey, MonthKey and YearKey derive bucket keys in loc.
func DayKey(t time.Time, loc *time.Location) string   { return t.In(loc).Format(DayLayout) }
func MonthKey(t time.Time, loc *time.Location) string { return t.In(loc).Format(MonthLayout) }
func YearKey(t time.Time, loc *time.Location) string  { return t.In(loc).Format(YearLayout) }

// GroupByDay groups samples by the calendar day of CompletedAt in loc.
func GroupByDay(samples []Sample, loc *time.Location) []Bucket {
	return groupBy(samples, func(t time.Time) string { return DayKey(t, loc) })
}

// GroupByMonth groups samples by YYYY-MM of CompletedAt in loc.
func GroupByMonth(samples []Sample, loc *time.Location) []Bucket {
	return groupBy(samples, func(t time.Time) string { return MonthKey(t, loc) })
}

// GroupByYear groups samples by YYYY of CompletedAt in loc.
func GroupByYear(samples []Sample, loc *time.Location) []Bucket {
	return groupBy(samples, func(t time.Time) string { return YearKey(t, loc) })
}

func groupBy(samples []Sample, key func(time.Time) string) []Bucket {
	index := make(map[string]*Bucket)
	for _, s := range samples {
		k := key(s.CompletedAt)
		b, ok := index[k]
		if !ok {
			b = &Bucket{Key: k}
			index[k] = b
		}
		b.Add(s)
	}

	buckets := make([]Bucket, 0, len(index))
	for _, b := range index {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })
	return buckets
}

// Window sums samples with CompletedAt in [from, to).
func Window(samples []Sample, from, to time.Time, key string) Bucket {
	b := Bucket{Key: key}
	for _, s := range samples {
		if !s.CompletedAt.Before(from) && s.CompletedAt.Before(to) {
			b.Add(s)
		}
	}
	return b
}

// StartOfDay returns local midnight of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Summarize computes today [midnight, now), yesterday [midnight-1d, midnight),
// this month, this year and all time.
func Summarize(samples []Sample, now time.Time, loc *time.Location) Summary {
	midnight := StartOfDay(now, loc)
	yesterday := midnight.AddDate(0, 0, -1)
	local := now.In(loc)
	monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	yearStart := time.Date(local.Year(), time.January, 1, 0, 0, 0, 0, loc)

	sum := Summary{
		Today:     Bucket{Key: DayKey(midnight, loc)},
		Yesterday: Bucket{Key: DayKey(yesterday, loc)},
		ThisMonth: Bucket{Key: MonthKey(monthStart, loc)},
		ThisYear:  Bucket{Key: YearKey(yearStart, loc)},
		AllTime:   Bucket{Key: "all"},
	}

	for _, s := range samples {
		sum.AllTime.Add(s)
		at := s.CompletedAt
		if at.Before(now) {
			if !at.Before(midnight) {
				sum.Today.Add(s)
			}
			if !at.Before(monthStart) {
				sum.ThisMonth.Add(s)
			}
			if !at.Before(yearStart) {
				sum.ThisYear.Add(s)
			}
		}
		if !at.Before(yesterday) && at.Before(midnight) {
			sum.Yesterday.Add(s)
		}
	}
	return sum
}
