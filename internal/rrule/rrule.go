package rrule

import (
	"fmt"
	"strings"

	"github.com/hray3182/Ledgerline/internal/apperr"
	"github.com/hray3182/Ledgerline/internal/models"
	"github.com/teambition/rrule-go"
)

// NextDate returns the date of the given occurrence: start plus
// interval*occurrence frequency units. It is always computed from start, never
// from the previous occurrence, so month-end rollover cannot drift.
//
// Month and year arithmetic follow time.AddDate, which normalizes an
// overflowing day forward: 2024-01-31 plus one month is 2024-03-02, and
// 2024-02-29 plus one year is 2025-03-01.
func NextDate(start models.Date, freq models.Frequency, interval, occurrence int) (models.Date, error) {
	n := interval * occurrence

	switch freq {
	case models.FrequencyDaily:
		return start.AddDate(0, 0, n), nil
	case models.FrequencyWeekly:
		return start.AddDate(0, 0, 7*n), nil
	case models.FrequencyMonthly:
		return start.AddDate(0, n, 0), nil
	case models.FrequencyQuarterly:
		return start.AddDate(0, 3*n, 0), nil
	case models.FrequencyYearly:
		return start.AddDate(n, 0, 0), nil
	default:
		return models.Date{}, fmt.Errorf("%w: %q", apperr.ErrInvalidFrequency, freq)
	}
}

// Upcoming returns the dates of the next count cycles after the template's
// current occurrence.
func Upcoming(t *models.RecurringTransaction, count int) ([]models.Date, error) {
	var dates []models.Date
	for k := t.CurrentOccurrence + 1; len(dates) < count; k++ {
		if t.TotalOccurrences != nil && k > *t.TotalOccurrences {
			break
		}
		d, err := NextDate(t.StartDate, t.Frequency, t.IntervalCount, k)
		if err != nil {
			return nil, err
		}
		if t.EndDate != nil && d.After(*t.EndDate) {
			break
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func toFrequency(freq models.Frequency, interval int) (rrule.Frequency, int, error) {
	switch freq {
	case models.FrequencyDaily:
		return rrule.DAILY, interval, nil
	case models.FrequencyWeekly:
		return rrule.WEEKLY, interval, nil
	case models.FrequencyMonthly:
		return rrule.MONTHLY, interval, nil
	case models.FrequencyQuarterly:
		return rrule.MONTHLY, interval * 3, nil
	case models.FrequencyYearly:
		return rrule.YEARLY, interval, nil
	}
	return 0, 0, fmt.Errorf("%w: %q", apperr.ErrInvalidFrequency, freq)
}

// Build converts a template into an RFC 5545 rule anchored at the start date.
// Calendar clients expand month-end days differently from NextDate (they skip
// months without the day), so the rule is for export only.
func Build(t *models.RecurringTransaction) (*rrule.RRule, error) {
	freq, interval, err := toFrequency(t.Frequency, t.IntervalCount)
	if err != nil {
		return nil, err
	}

	opt := rrule.ROption{
		Freq:     freq,
		Interval: interval,
		Dtstart:  t.StartDate.Time(),
	}
	if t.TotalOccurrences != nil {
		// The start date itself is the anchor, not a cycle.
		opt.Count = *t.TotalOccurrences + 1
	}
	if t.EndDate != nil {
		opt.Until = t.EndDate.Time()
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build RRULE: %w", err)
	}
	return rule, nil
}

// String returns the template as DTSTART + RRULE text.
func String(t *models.RecurringTransaction) (string, error) {
	rule, err := Build(t)
	if err != nil {
		return "", err
	}
	return rule.String(), nil
}

var unitNames = map[models.Frequency][2]string{
	models.FrequencyDaily:     {"day", "days"},
	models.FrequencyWeekly:    {"week", "weeks"},
	models.FrequencyMonthly:   {"month", "months"},
	models.FrequencyQuarterly: {"quarter", "quarters"},
	models.FrequencyYearly:    {"year", "years"},
}

// Describe returns a short English description, e.g.
// "every 2 months, 12 times, until 2026-01-01".
func Describe(t *models.RecurringTransaction) string {
	names, ok := unitNames[t.Frequency]
	if !ok {
		return string(t.Frequency)
	}

	var sb strings.Builder
	if t.IntervalCount <= 1 {
		sb.WriteString("every " + names[0])
	} else {
		sb.WriteString(fmt.Sprintf("every %d %s", t.IntervalCount, names[1]))
	}

	if t.TotalOccurrences != nil {
		if *t.TotalOccurrences == 1 {
			sb.WriteString(", once")
		} else {
			sb.WriteString(fmt.Sprintf(", %d times", *t.TotalOccurrences))
		}
	}
	if t.EndDate != nil {
		sb.WriteString(", until " + t.EndDate.String())
	}
	return sb.String()
}
