package earnings

import (
	"strconv"
	"time"
)

const (
	// TrackingYear is the length of a node's rolling accounting window.
	TrackingYear = 365 * 24 * time.Hour
	// MaxArchivedYears bounds the archive; older entries are evicted.
	MaxArchivedYears = 3
)

// ArchivedYear is a closed tracking window.
type ArchivedYear struct {
	YearNumber int       `json:"year_number"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Totals     Bucket    `json:"totals"`
}

// TrackingState is the rollover-relevant part of a node's tracking metadata.
type TrackingState struct {
	TrackingStarted  time.Time
	CurrentYearStart time.Time
	ArchivedYears    []ArchivedYear
}

// NeedsRollover reports whether now is at least one tracking year past the
// current window start.
func NeedsRollover(state TrackingState, now time.Time) bool {
	return now.Sub(state.CurrentYearStart) >= TrackingYear
}

// ClosedWindow returns the [start, end) range that a rollover at this state closes.
func ClosedWindow(state TrackingState) (time.Time, time.Time) {
	return state.CurrentYearStart, state.CurrentYearStart.Add(TrackingYear)
}

// CloseYear archives the window [CurrentYearStart, CurrentYearStart+365d)
// using the samples that fall inside it, keeps the newest MaxArchivedYears
// entries, and restarts the window at now. Samples outside the window are ignored.
func CloseYear(state TrackingState, samples []Sample, now time.Time) TrackingState {
	start, end := ClosedWindow(state)

	yearNumber := 1
	for _, a := range state.ArchivedYears {
		if a.YearNumber >= yearNumber {
			yearNumber = a.YearNumber + 1
		}
	}

	archived := make([]ArchivedYear, 0, len(state.ArchivedYears)+1)
	archived = append(archived, state.ArchivedYears...)
	archived = append(archived, ArchivedYear{
		YearNumber: yearNumber,
		StartDate:  start,
		EndDate:    end,
		Totals:     Window(samples, start, end, "year-"+strconv.Itoa(yearNumber)),
	})
	if len(archived) > MaxArchivedYears {
		archived = archived[len(archived)-MaxArchivedYears:]
	}

	return TrackingState{
		TrackingStarted:  state.TrackingStarted,
		CurrentYearStart: now,
		ArchivedYears:    archived,
	}
}
