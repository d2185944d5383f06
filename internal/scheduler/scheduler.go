package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hray3182/Ledgerline/internal/apperr"
	"github.com/hray3182/Ledgerline/internal/clock"
	"github.com/hray3182/Ledgerline/internal/models"
	"github.com/hray3182/Ledgerline/internal/rrule"
)

type Scheduler struct {
	runner TxRunner
	clock  clock.Clock
}

func New(runner TxRunner, clk clock.Clock) *Scheduler {
	return &Scheduler{
		runner: runner,
		clock:  clk,
	}
}

// ProcessResult is the outcome of advancing one template by one cycle.
type ProcessResult struct {
	Success     bool                         `json:"success"`
	Template    *models.RecurringTransaction `json:"recurringTransaction"`
	Transaction *models.Transaction          `json:"transaction"`
	// Created is false when the cycle's row had already been materialized.
	Created bool `json:"created"`
}

type BatchItem struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type BatchResult struct {
	Processed int         `json:"processed"`
	Total     int         `json:"total"`
	Results   []BatchItem `json:"results"`
}

// Materialize pre-generates t's instances up to the horizon through st. It
// never writes the template. Cycles that already have a row are skipped, so
// only newly created rows are returned.
func (s *Scheduler) Materialize(ctx context.Context, st Store, t *models.RecurringTransaction) ([]*models.Transaction, error) {
	plan, err := Plan(t, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("plan recurring transaction %d: %w", t.ID, err)
	}
	if len(plan) == 0 {
		return nil, nil
	}

	sink, err := st.Sink(t.Module)
	if err != nil {
		return nil, err
	}

	var created []*models.Transaction
	for i := range plan {
		tx, isNew, err := sink.CreateInstance(ctx, &plan[i])
		if err != nil {
			return nil, fmt.Errorf("materialize recurring transaction %d on %s: %w", t.ID, plan[i].Date, err)
		}
		if isNew {
			created = append(created, tx)
		}
	}

	if len(plan) == MaxMaterialized {
		log.Printf("Recurring transaction %d hit the %d-instance materialization bound", t.ID, MaxMaterialized)
	}
	return created, nil
}

// Regenerate re-runs materialization for every active template, each in its
// own transaction, and returns the number of new rows. Every template is
// attempted; failures are joined into the returned error.
func (s *Scheduler) Regenerate(ctx context.Context) (int, error) {
	var templates []*models.RecurringTransaction
	err := s.runner.InTx(ctx, func(st Store) error {
		var err error
		templates, err = st.Templates().ListActive(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("list active recurring transactions: %w", err)
	}

	regenerated := 0
	var errs []error
	for _, t := range templates {
		var created []*models.Transaction
		err := s.runner.InTx(ctx, func(st Store) error {
			var err error
			created, err = s.Materialize(ctx, st, t)
			return err
		})
		if err != nil {
			log.Printf("Failed to regenerate recurring transaction %d: %v", t.ID, err)
			errs = append(errs, fmt.Errorf("regenerate recurring transaction %d: %w", t.ID, err))
			continue
		}
		regenerated += len(created)
	}

	log.Printf("Regenerated %d instances across %d active recurring transactions (%d failed)", regenerated, len(templates), len(errs))
	return regenerated, errors.Join(errs...)
}

// Due returns the currently due templates.
func (s *Scheduler) Due(ctx context.Context) ([]*models.RecurringTransaction, error) {
	var templates []*models.RecurringTransaction
	err := s.runner.InTx(ctx, func(st Store) error {
		var err error
		templates, err = st.Templates().ListActive(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return DueSet(templates, s.clock.Now()), nil
}

// Process creates the instance for t's current due date and advances t by
// one cycle. The template row stays locked from read to write, so concurrent
// calls for the same template serialize.
func (s *Scheduler) Process(ctx context.Context, id int) (*ProcessResult, error) {
	return s.process(ctx, id, nil)
}

// processCycle is Process for a batch that saw the template due on cycle.
// Once the lock is held it refuses to act when another caller has already
// advanced the template past that cycle or it is no longer due.
func (s *Scheduler) processCycle(ctx context.Context, id int, cycle models.Date) (*ProcessResult, error) {
	return s.process(ctx, id, func(t *models.RecurringTransaction, now time.Time) error {
		if !t.NextDueDate.Equal(cycle) || t.NextDueDate.After(models.DateOf(now)) {
			return fmt.Errorf("process recurring transaction %d for %s: %w", id, cycle, apperr.ErrCycleChanged)
		}
		return nil
	})
}

func (s *Scheduler) process(ctx context.Context, id int, check func(*models.RecurringTransaction, time.Time) error) (*ProcessResult, error) {
	now := s.clock.Now()

	var result *ProcessResult
	err := s.runner.InTx(ctx, func(st Store) error {
		t, err := st.Templates().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !t.IsActive || t.Exhausted() {
			return fmt.Errorf("process recurring transaction %d: %w", id, apperr.ErrInactiveTemplate)
		}
		if check != nil {
			if err := check(t, now); err != nil {
				return err
			}
		}

		sink, err := st.Sink(t.Module)
		if err != nil {
			return err
		}

		payload := payloadFor(t, t.NextDueDate)
		tx, created, err := sink.CreateInstance(ctx, &payload)
		if err != nil {
			return fmt.Errorf("process recurring transaction %d: %w", id, err)
		}

		if err := Advance(t, now); err != nil {
			return err
		}
		if err := st.Templates().UpdateProgress(ctx, t); err != nil {
			return err
		}

		result = &ProcessResult{
			Success:     true,
			Template:    t,
			Transaction: tx,
			Created:     created,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Processed recurring transaction %d (occurrence %d, next due %s, active=%t)",
		id, result.Template.CurrentOccurrence, result.Template.NextDueDate, result.Template.IsActive)
	return result, nil
}

// Advance moves t past the cycle that was just processed.
func Advance(t *models.RecurringTransaction, now time.Time) error {
	t.CurrentOccurrence++

	next, err := rrule.NextDate(t.StartDate, t.Frequency, t.IntervalCount, t.CurrentOccurrence+1)
	if err != nil {
		return err
	}
	t.NextDueDate = next

	if t.Exhausted() {
		t.IsActive = false
	}

	t.LastProcessedDate = &now
	return nil
}

// ProcessDue processes every due template independently, each for the cycle
// it was due on. A failure on one template is recorded in its result entry
// and does not stop the others.
func (s *Scheduler) ProcessDue(ctx context.Context) (*BatchResult, error) {
	due, err := s.Due(ctx)
	if err != nil {
		return nil, fmt.Errorf("evaluate due recurring transactions: %w", err)
	}

	batch := &BatchResult{
		Total:   len(due),
		Results: make([]BatchItem, 0, len(due)),
	}
	for _, t := range due {
		item := BatchItem{ID: t.ID, Name: t.Name}
		if _, err := s.processCycle(ctx, t.ID, t.NextDueDate); err != nil {
			log.Printf("Failed to process recurring transaction %d: %v", t.ID, err)
			item.Error = err.Error()
		} else {
			item.Success = true
			batch.Processed++
		}
		batch.Results = append(batch.Results, item)
	}

	log.Printf("Processed %d/%d due recurring transactions", batch.Processed, batch.Total)
	return batch, nil
}
