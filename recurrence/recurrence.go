// Package recurrence expands a medication schedule into absolute reminder times.
package recurrence

import (
	"fmt"
	"time"

	"github.com/linesmerrill/medtrack-api/models"
)

// Occurrence caps applied to open-ended schedules
const (
	MaxDaily           = 90
	MaxTwiceDaily      = 180
	MaxThreeTimesDaily = 270
	MaxFourTimesDaily  = 360
	MaxWeekly          = 52
	MaxMonthly         = 12
)

// dose hours for the fixed multi-dose frequencies
var doseHours = map[models.Frequency][]int{
	models.FrequencyTwiceDaily:      {9, 21},
	models.FrequencyThreeTimesDaily: {8, 14, 20},
	models.FrequencyFourTimesDaily:  {8, 12, 16, 20},
}

var caps = map[models.Frequency]int{
	models.FrequencyDaily:           MaxDaily,
	models.FrequencyTwiceDaily:      MaxTwiceDaily,
	models.FrequencyThreeTimesDaily: MaxThreeTimesDaily,
	models.FrequencyFourTimesDaily:  MaxFourTimesDaily,
	models.FrequencyWeekly:          MaxWeekly,
	models.FrequencyMonthly:         MaxMonthly,
}

// Generate returns the ordered reminder times for a schedule starting at start.
// When end is nil the sequence is capped per frequency, otherwise no time after
// end is produced. firstDose, when set, replaces the hour and minute of start
// for once, daily, weekly and monthly schedules. All times are in start's
// location.
func Generate(start time.Time, end *time.Time, freq models.Frequency, firstDose *time.Time) ([]time.Time, error) {
	if start.IsZero() {
		return nil, fmt.Errorf("start date is required: %w", models.ErrValidation)
	}
	if !freq.Valid() {
		return nil, fmt.Errorf("unknown frequency %q: %w", freq, models.ErrValidation)
	}
	if end != nil && end.Before(start) {
		return nil, fmt.Errorf("end date %s before start date %s: %w", end.Format(time.RFC3339), start.Format(time.RFC3339), models.ErrValidation)
	}

	anchor := start
	if firstDose != nil {
		fd := firstDose.In(start.Location())
		anchor = time.Date(start.Year(), start.Month(), start.Day(), fd.Hour(), fd.Minute(), 0, 0, start.Location())
	}

	switch freq {
	case models.FrequencyAsNeeded:
		return []time.Time{}, nil
	case models.FrequencyOnce:
		return []time.Time{anchor}, nil
	case models.FrequencyDaily:
		return stepped(anchor, end, caps[freq], func(i int) time.Time { return anchor.AddDate(0, 0, i) }), nil
	case models.FrequencyWeekly:
		return stepped(anchor, end, caps[freq], func(i int) time.Time { return anchor.AddDate(0, 0, 7*i) }), nil
	case models.FrequencyMonthly:
		return stepped(anchor, end, caps[freq], func(i int) time.Time { return anchor.AddDate(0, i, 0) }), nil
	}
	return multiDose(start, end, doseHours[freq], caps[freq]), nil
}

// stepped walks the calendar from anchor, one period per index, until end or max
func stepped(anchor time.Time, end *time.Time, max int, at func(i int) time.Time) []time.Time {
	var times []time.Time
	for i := 0; ; i++ {
		t := at(i)
		if end != nil && t.After(*end) {
			break
		}
		times = append(times, t)
		if end == nil && len(times) >= max {
			break
		}
	}
	return times
}

// multiDose emits the fixed dose hours of each calendar day from start's date
func multiDose(start time.Time, end *time.Time, hours []int, max int) []time.Time {
	var times []time.Time
	loc := start.Location()
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	for d := 0; ; d++ {
		date := day.AddDate(0, 0, d)
		if end != nil && date.After(*end) {
			return times
		}
		for _, h := range hours {
			t := time.Date(date.Year(), date.Month(), date.Day(), h, 0, 0, 0, loc)
			if end != nil && t.After(*end) {
				return times
			}
			times = append(times, t)
			if end == nil && len(times) >= max {
				return times
			}
		}
	}
}
