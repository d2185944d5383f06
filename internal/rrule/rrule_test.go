package rrule

import (
	"errors"
	"strings"
	"testing"

	"github.com/hray3182/Ledgerline/internal/apperr"
	"github.com/hray3182/Ledgerline/internal/models"
)

func intPtr(v int) *int { return &v }

func TestNextDate(t *testing.T) {
	tests := []struct {
		name       string
		start      models.Date
		freq       models.Frequency
		interval   int
		occurrence int
		want       models.Date
	}{
		{"daily", models.NewDate(2025, 1, 1), models.FrequencyDaily, 1, 1, models.NewDate(2025, 1, 2)},
		{"every 3 days, third cycle", models.NewDate(2025, 1, 1), models.FrequencyDaily, 3, 3, models.NewDate(2025, 1, 10)},
		{"weekly", models.NewDate(2025, 1, 1), models.FrequencyWeekly, 1, 2, models.NewDate(2025, 1, 15)},
		{"monthly", models.NewDate(2025, 1, 1), models.FrequencyMonthly, 1, 1, models.NewDate(2025, 2, 1)},
		{"month-end overflows forward", models.NewDate(2024, 1, 31), models.FrequencyMonthly, 1, 1, models.NewDate(2024, 3, 2)},
		{"month-end second cycle from start", models.NewDate(2024, 1, 31), models.FrequencyMonthly, 1, 2, models.NewDate(2024, 3, 31)},
		{"quarterly", models.NewDate(2025, 1, 15), models.FrequencyQuarterly, 1, 1, models.NewDate(2025, 4, 15)},
		{"every 2 quarters", models.NewDate(2025, 1, 15), models.FrequencyQuarterly, 2, 2, models.NewDate(2026, 1, 15)},
		{"yearly", models.NewDate(2025, 6, 1), models.FrequencyYearly, 1, 1, models.NewDate(2026, 6, 1)},
		{"leap day yearly", models.NewDate(2024, 2, 29), models.FrequencyYearly, 1, 1, models.NewDate(2025, 3, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextDate(tt.start, tt.freq, tt.interval, tt.occurrence)
			if err != nil {
				t.Fatalf("NextDate() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextDate() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNextDateInvalidFrequency(t *testing.T) {
	_, err := NextDate(models.NewDate(2025, 1, 1), models.Frequency("fortnightly"), 1, 1)
	if !errors.Is(err, apperr.ErrInvalidFrequency) {
		t.Fatalf("expected ErrInvalidFrequency, got %v", err)
	}
}

func TestNextDateMonotonic(t *testing.T) {
	starts := []models.Date{
		models.NewDate(2024, 1, 31),
		models.NewDate(2024, 2, 29),
		models.NewDate(2025, 8, 30),
		models.NewDate(2023, 12, 31),
	}
	freqs := []models.Frequency{
		models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly,
		models.FrequencyQuarterly, models.FrequencyYearly,
	}

	for _, start := range starts {
		for _, freq := range freqs {
			for interval := 1; interval <= 3; interval++ {
				prev, _ := NextDate(start, freq, interval, 1)
				for occ := 2; occ <= 60; occ++ {
					cur, err := NextDate(start, freq, interval, occ)
					if err != nil {
						t.Fatal(err)
					}
					if cur.Before(prev) {
						t.Fatalf("%s %s x%d: occurrence %d (%s) before %d (%s)",
							start, freq, interval, occ, cur, occ-1, prev)
					}
					prev = cur
				}
			}
		}
	}
}

func TestUpcoming(t *testing.T) {
	end := models.NewDate(2025, 4, 1)
	tmpl := &models.RecurringTransaction{
		StartDate:         models.NewDate(2025, 1, 1),
		Frequency:         models.FrequencyMonthly,
		IntervalCount:     1,
		CurrentOccurrence: 1,
		EndDate:           &end,
	}

	dates, err := Upcoming(tmpl, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2025-03-01", "2025-04-01"}
	if len(dates) != len(want) {
		t.Fatalf("got %d dates, want %d", len(dates), len(want))
	}
	for i, d := range dates {
		if d.String() != want[i] {
			t.Errorf("dates[%d] = %s, want %s", i, d, want[i])
		}
	}

	tmpl.EndDate = nil
	tmpl.TotalOccurrences = intPtr(3)
	dates, _ = Upcoming(tmpl, 10)
	if len(dates) != 2 {
		t.Errorf("with 3 total and 1 done, got %d upcoming, want 2", len(dates))
	}
}

func TestString(t *testing.T) {
	tmpl := &models.RecurringTransaction{
		StartDate:        models.NewDate(2025, 1, 1),
		Frequency:        models.FrequencyQuarterly,
		IntervalCount:    1,
		TotalOccurrences: intPtr(4),
	}

	got, err := String(tmpl)
	if err != nil {
		t.Fatal(err)
	}
	for _, part := range []string{"FREQ=MONTHLY", "INTERVAL=3", "COUNT=5"} {
		if !strings.Contains(got, part) {
			t.Errorf("String() = %q, missing %s", got, part)
		}
	}

	tmpl.Frequency = models.Frequency("hourly")
	if _, err := String(tmpl); !errors.Is(err, apperr.ErrInvalidFrequency) {
		t.Errorf("expected ErrInvalidFrequency, got %v", err)
	}
}

func TestDescribe(t *testing.T) {
	end := models.NewDate(2026, 1, 1)
	tests := []struct {
		name string
		tmpl models.RecurringTransaction
		want string
	}{
		{"simple", models.RecurringTransaction{Frequency: models.FrequencyWeekly, IntervalCount: 1}, "every week"},
		{"interval", models.RecurringTransaction{Frequency: models.FrequencyMonthly, IntervalCount: 2}, "every 2 months"},
		{
			"bounded",
			models.RecurringTransaction{Frequency: models.FrequencyMonthly, IntervalCount: 2, TotalOccurrences: intPtr(12), EndDate: &end},
			"every 2 months, 12 times, until 2026-01-01",
		},
		{"once", models.RecurringTransaction{Frequency: models.FrequencyYearly, IntervalCount: 1, TotalOccurrences: intPtr(1)}, "every year, once"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(&tt.tmpl); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}
