package scheduler

import (
	"time"

	"github.com/hray3182/Ledgerline/internal/models"
	"github.com/hray3182/Ledgerline/internal/rrule"
)

// MaxMaterialized bounds a single materialization pass so a degenerate
// schedule (interval 0, a frequency bug) still terminates.
const MaxMaterialized = 1000

// Horizon is the last date instances are pre-generated for: one year after
// now, or the end date when that comes first.
func Horizon(t *models.RecurringTransaction, now time.Time) models.Date {
	h := models.DateOf(now).AddDate(1, 0, 0)
	if t.EndDate != nil && t.EndDate.Before(h) {
		return *t.EndDate
	}
	return h
}

// Plan lists the instances to materialize for t as of now, starting one cycle
// after the start date and stopping after the horizon, the occurrence cap or
// MaxMaterialized payloads.
func Plan(t *models.RecurringTransaction, now time.Time) ([]models.TransactionPayload, error) {
	horizon := Horizon(t, now)

	var plan []models.TransactionPayload
	for occurrence := 1; occurrence <= MaxMaterialized; occurrence++ {
		if t.TotalOccurrences != nil && occurrence > *t.TotalOccurrences {
			break
		}

		date, err := rrule.NextDate(t.StartDate, t.Frequency, t.IntervalCount, occurrence)
		if err != nil {
			return nil, err
		}
		if date.After(horizon) {
			break
		}

		plan = append(plan, payloadFor(t, date))
	}
	return plan, nil
}

func payloadFor(t *models.RecurringTransaction, date models.Date) models.TransactionPayload {
	p := models.TransactionPayload{
		Type:                   t.Type,
		Amount:                 t.Amount,
		Description:            generatedDescription(t),
		Category:               t.Category,
		Date:                   date,
		RecurringTransactionID: t.ID,
	}
	if id := t.ScopeID(); id != nil {
		p.ScopeID = *id
	}
	return p
}

func generatedDescription(t *models.RecurringTransaction) string {
	base := t.Description
	if base == "" {
		base = t.Name
	}
	return base + " (auto-generated from recurring: " + t.Name + ")"
}
