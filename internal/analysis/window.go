package analysis

import "time"

const (
	DefaultMonthsBack  = 26
	DefaultHoldoutDays = 60
)

// Windows splits a history into a correlation (formation) window and a recent holdout
// used to test the selected pairs.
type Windows struct {
	HistoryStart   time.Time
	CorrelationEnd time.Time
	TestStart      time.Time
	End            time.Time
}

// DefaultWindows anchors the history monthsBack before end. The correlation window stops
// holdoutDays before end and the test window starts the day after.
func DefaultWindows(end time.Time, monthsBack, holdoutDays int) Windows {
	if monthsBack <= 0 {
		monthsBack = DefaultMonthsBack
	}
	if holdoutDays < 0 {
		holdoutDays = DefaultHoldoutDays
	}
	corrEnd := end.AddDate(0, 0, -holdoutDays)
	return Windows{
		HistoryStart:   end.AddDate(0, -monthsBack, 0),
		CorrelationEnd: corrEnd,
		TestStart:      corrEnd.AddDate(0, 0, 1),
		End:            end,
	}
}
