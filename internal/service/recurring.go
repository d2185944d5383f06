// Package service implements the recurring transaction operations exposed
// over HTTP on top of the scheduler and its stores.
package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hray3182/Ledgerline/internal/apperr"
	"github.com/hray3182/Ledgerline/internal/clock"
	"github.com/hray3182/Ledgerline/internal/models"
	"github.com/hray3182/Ledgerline/internal/rrule"
	"github.com/hray3182/Ledgerline/internal/scheduler"
)

const (
	DefaultPreviewCount = 5
	MaxPreviewCount     = 100
)

// Drafter turns free text into a template draft.
type Drafter interface {
	DraftRecurring(ctx context.Context, text string, today time.Time) (*models.CreateRecurringTransactionRequest, error)
}

// Notifier is told when the due set may have changed.
type Notifier interface {
	Notify()
}

type RecurringService struct {
	runner   scheduler.TxRunner
	sched    *scheduler.Scheduler
	clock    clock.Clock
	drafter  Drafter
	notifier Notifier
}

func NewRecurringService(runner scheduler.TxRunner, sched *scheduler.Scheduler, clk clock.Clock) *RecurringService {
	return &RecurringService{
		runner: runner,
		sched:  sched,
		clock:  clk,
	}
}

// WithDrafter enables Draft. Without one Draft returns ErrAIUnavailable.
func (s *RecurringService) WithDrafter(d Drafter) *RecurringService {
	s.drafter = d
	return s
}

func (s *RecurringService) WithNotifier(n Notifier) *RecurringService {
	s.notifier = n
	return s
}

func (s *RecurringService) notify() {
	if s.notifier != nil {
		s.notifier.Notify()
	}
}

// Create validates and stores a new template, then materializes its
// instances up to the horizon in the same database transaction.
func (s *RecurringService) Create(ctx context.Context, req *models.CreateRecurringTransactionRequest) (*models.RecurringTransaction, error) {
	t, err := fromCreateRequest(req)
	if err != nil {
		return nil, err
	}

	err = s.runner.InTx(ctx, func(st scheduler.Store) error {
		if err := st.Templates().Create(ctx, t); err != nil {
			return err
		}
		_, err := s.sched.Materialize(ctx, st, t)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Created recurring transaction %d (%s, %s)", t.ID, t.Name, rrule.Describe(t))
	s.notify()
	return t, nil
}

func (s *RecurringService) Get(ctx context.Context, id int) (*models.RecurringTransaction, error) {
	var t *models.RecurringTransaction
	err := s.runner.InTx(ctx, func(st scheduler.Store) error {
		var err error
		t, err = st.Templates().GetByID(ctx, id)
		return err
	})
	return t, err
}

// List returns all templates, or those of one module when module is set.
func (s *RecurringService) List(ctx context.Context, module models.Module) ([]*models.RecurringTransaction, error) {
	if module != "" && !module.Valid() {
		return nil, apperr.Invalid("module", "must be one of "+moduleList())
	}

	var list []*models.RecurringTransaction
	err := s.runner.InTx(ctx, func(st scheduler.Store) error {
		var err error
		list, err = st.Templates().List(ctx, module)
		return err
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.RecurringTransaction{}
	}
	return list, nil
}

// Update applies a partial update. When the schedule changes and no explicit
// nextDueDate is given, nextDueDate is recomputed from the current occurrence.
func (s *RecurringService) Update(ctx context.Context, id int, req *models.UpdateRecurringTransactionRequest) (*models.RecurringTransaction, error) {
	var t *models.RecurringTransaction
	err := s.runner.InTx(ctx, func(st scheduler.Store) error {
		var err error
		t, err = st.Templates().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := applyUpdate(t, req); err != nil {
			return err
		}
		return st.Templates().Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Updated recurring transaction %d", id)
	s.notify()
	return t, nil
}

// Delete removes the template. Generated rows are kept with their
// back-reference cleared.
func (s *RecurringService) Delete(ctx context.Context, id int) error {
	err := s.runner.InTx(ctx, func(st scheduler.Store) error {
		return st.Templates().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	log.Printf("Deleted recurring transaction %d", id)
	s.notify()
	return nil
}

func (s *RecurringService) Due(ctx context.Context) ([]*models.RecurringTransaction, error) {
	return s.sched.Due(ctx)
}

func (s *RecurringService) Process(ctx context.Context, id int) (*scheduler.ProcessResult, error) {
	res, err := s.sched.Process(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notify()
	return res, nil
}

func (s *RecurringService) ProcessDue(ctx context.Context) (*scheduler.BatchResult, error) {
	res, err := s.sched.ProcessDue(ctx)
	if err != nil {
		return nil, err
	}
	if res.Processed > 0 {
		s.notify()
	}
	return res, nil
}

func (s *RecurringService) Regenerate(ctx context.Context) (int, error) {
	return s.sched.Regenerate(ctx)
}

// Instances returns the rows generated from a template, oldest first.
func (s *RecurringService) Instances(ctx context.Context, id int) ([]*models.Transaction, error) {
	var rows []*models.Transaction
	err := s.runner.InTx(ctx, func(st scheduler.Store) error {
		t, err := st.Templates().GetByID(ctx, id)
		if err != nil {
			return err
		}
		sink, err := st.Sink(t.Module)
		if err != nil {
			return err
		}
		rows, err = sink.ListByRecurring(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*models.Transaction{}
	}
	return rows, nil
}

// Preview lists the dates of the next count cycles without writing anything.
func (s *RecurringService) Preview(ctx context.Context, id, count int) ([]models.Date, error) {
	if count == 0 {
		count = DefaultPreviewCount
	}
	if count < 0 || count > MaxPreviewCount {
		return nil, apperr.Invalid("count", fmt.Sprintf("must be between 1 and %d", MaxPreviewCount))
	}

	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dates, err := rrule.Upcoming(t, count)
	if err != nil {
		return nil, err
	}
	if dates == nil {
		dates = []models.Date{}
	}
	return dates, nil
}

type RRuleExport struct {
	RRule       string `json:"rrule"`
	Description string `json:"description"`
}

func (s *RecurringService) RRule(ctx context.Context, id int) (*RRuleExport, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rule, err := rrule.String(t)
	if err != nil {
		return nil, err
	}
	return &RRuleExport{RRule: rule, Description: rrule.Describe(t)}, nil
}

// Draft returns an unsaved template draft for text.
func (s *RecurringService) Draft(ctx context.Context, text string) (*models.CreateRecurringTransactionRequest, error) {
	if s.drafter == nil {
		return nil, apperr.ErrAIUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Invalid("text", "is required")
	}
	return s.drafter.DraftRecurring(ctx, text, s.clock.Now())
}
