package dashboard

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hako/durafmt"
	"github.com/shopspring/decimal"
)

// ErrInvalidRate is returned when a price cell cannot be parsed as a rate.
var ErrInvalidRate = errors.New("invalid hourly rate")

var (
	daysAgoPattern    = regexp.MustCompile(`(\d+)\s+days?\s+ago`)
	hoursAgoPattern   = regexp.MustCompile(`(\d+)\s+hours?\s+ago`)
	minutesAgoPattern = regexp.MustCompile(`(\d+)\s+minutes?\s+ago`)

	hourComponent   = regexp.MustCompile(`(\d+)h`)
	minuteComponent = regexp.MustCompile(`(\d+)m`)
	secondComponent = regexp.MustCompile(`(\d+)s`)
)

// relativeUnits is checked in order; the first matching unit wins.
var relativeUnits = []struct {
	pattern *regexp.Regexp
	unit    time.Duration
}{
	{daysAgoPattern, 24 * time.Hour},
	{hoursAgoPattern, time.Hour},
	{minutesAgoPattern, time.Minute},
}

// ParseRelativeTime converts text such as "3 hours ago" into an absolute time
// relative to ref. Text without a recognized pattern (including "just now")
// yields ref unchanged.
func ParseRelativeTime(text string, ref time.Time) time.Time {
	for _, u := range relativeUnits {
		m := u.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return ref
		}
		return ref.Add(-time.Duration(n) * u.unit)
	}
	return ref
}

// MaxDurationSeconds is the largest value ParseDurationSeconds returns. It
// still converts to a time.Duration.
const MaxDurationSeconds = int64(math.MaxInt64 / int64(time.Second))

var durationComponents = []struct {
	pattern *regexp.Regexp
	seconds int64
}{
	{hourComponent, 3600},
	{minuteComponent, 60},
	{secondComponent, 1},
}

// ParseDurationSeconds sums the hour, minute and second components found
// anywhere in text. Missing or malformed components contribute zero. The sum
// saturates at MaxDurationSeconds.
func ParseDurationSeconds(text string) int64 {
	var total int64
	for _, c := range durationComponents {
		v := componentValue(c.pattern, text)
		if v > (MaxDurationSeconds-total)/c.seconds {
			return MaxDurationSeconds
		}
		total += v * c.seconds
	}
	return total
}

func componentValue(re *regexp.Regexp, text string) int64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseInt(m[1], 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt64
	}
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// ParseHourlyRate parses a price cell such as "$0.176/h".
func ParseHourlyRate(text string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(text, "/h", "")
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrInvalidRate)
	}
	rate, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidRate, text)
	}
	return rate, nil
}

// FormatDuration renders seconds the way the dashboard does: "45s", "5m 30s", "2h 5m".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	default:
		return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
	}
}

// HumanDuration renders a duration for notification text, e.g. "55 minutes 9 seconds".
func HumanDuration(d time.Duration) string {
	if d < time.Second {
		return "0 seconds"
	}
	return durafmt.Parse(d.Truncate(time.Second)).LimitFirstN(2).String()
}
