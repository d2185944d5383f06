package scheduler

import (
	"time"

	"github.com/hray3182/Ledgerline/internal/models"
)

// DueSet returns the active templates whose next due date is on or before
// the calendar day of now, in input order.
func DueSet(templates []*models.RecurringTransaction, now time.Time) []*models.RecurringTransaction {
	today := models.DateOf(now)

	due := make([]*models.RecurringTransaction, 0, len(templates))
	for _, t := range templates {
		if t.IsActive && !t.NextDueDate.After(today) {
			due = append(due, t)
		}
	}
	return due
}
