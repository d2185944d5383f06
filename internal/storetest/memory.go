// Package storetest provides an in-memory implementation of the scheduler
// storage interfaces for tests. Transactions are serialized and rolled back
// by snapshot, which mirrors the row-lock behavior of the PostgreSQL store.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hray3182/Ledgerline/internal/apperr"
	"github.com/hray3182/Ledgerline/internal/models"
	"github.com/hray3182/Ledgerline/internal/scheduler"
)

type Memory struct {
	txMu sync.Mutex

	mu        sync.Mutex
	templates map[int]*models.RecurringTransaction
	rows      map[models.Module][]*models.Transaction
	nextID    int
	nextRowID int
	inserts   int

	// FailInstance makes CreateInstance fail for the given template ids.
	FailInstance map[int]error
	// FailAfterInserts makes every CreateInstance call after the first n
	// attempted inserts fail. Zero disables it.
	FailAfterInserts int
	// FailList makes template listing fail.
	FailList error
}

var _ scheduler.TxRunner = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		templates:    make(map[int]*models.RecurringTransaction),
		rows:         make(map[models.Module][]*models.Transaction),
		FailInstance: make(map[int]error),
	}
}

func (m *Memory) InTx(ctx context.Context, fn func(st scheduler.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(memStore{m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// Put stores t as is, assigning an id when it has none.
func (m *Memory) Put(t *models.RecurringTransaction) *models.RecurringTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.ID == 0 {
		m.nextID++
		t.ID = m.nextID
	} else if t.ID > m.nextID {
		m.nextID = t.ID
	}
	m.templates[t.ID] = cloneTemplate(t)
	return t
}

// Template returns a copy of the stored template, or nil.
func (m *Memory) Template(id int) *models.RecurringTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.templates[id]
	if !ok {
		return nil
	}
	return cloneTemplate(t)
}

// Rows returns copies of all rows of a module, ordered by id.
func (m *Memory) Rows(module models.Module) []*models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.Transaction, 0, len(m.rows[module]))
	for _, r := range m.rows[module] {
		c := *r
		out = append(out, &c)
	}
	return out
}

type snapshot struct {
	templates map[int]*models.RecurringTransaction
	rows      map[models.Module][]*models.Transaction
	nextID    int
	nextRowID int
}

func (m *Memory) snapshot() snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := snapshot{
		templates: make(map[int]*models.RecurringTransaction, len(m.templates)),
		rows:      make(map[models.Module][]*models.Transaction, len(m.rows)),
		nextID:    m.nextID,
		nextRowID: m.nextRowID,
	}
	for id, t := range m.templates {
		s.templates[id] = cloneTemplate(t)
	}
	for mod, rows := range m.rows {
		copied := make([]*models.Transaction, len(rows))
		for i, r := range rows {
			c := *r
			copied[i] = &c
		}
		s.rows[mod] = copied
	}
	return s
}

func (m *Memory) restore(s snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.templates = s.templates
	m.rows = s.rows
	m.nextID = s.nextID
	m.nextRowID = s.nextRowID
}

func cloneTemplate(t *models.RecurringTransaction) *models.RecurringTransaction {
	c := *t
	if t.EndDate != nil {
		d := *t.EndDate
		c.EndDate = &d
	}
	if t.TotalOccurrences != nil {
		v := *t.TotalOccurrences
		c.TotalOccurrences = &v
	}
	if t.LastProcessedDate != nil {
		v := *t.LastProcessedDate
		c.LastProcessedDate = &v
	}
	c.AccountID = cloneInt(t.AccountID)
	c.PropertyID = cloneInt(t.PropertyID)
	c.DeviceID = cloneInt(t.DeviceID)
	return &c
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

type memStore struct{ m *Memory }

func (s memStore) Templates() scheduler.TemplateStore { return memTemplates(s) }

func (s memStore) Sink(module models.Module) (scheduler.TransactionSink, error) {
	if !module.Valid() {
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnknownModule, module)
	}
	return memSink{m: s.m, module: module}, nil
}

type memTemplates struct{ m *Memory }

func (s memTemplates) Create(ctx context.Context, t *models.RecurringTransaction) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	s.m.nextID++
	now := time.Now()
	t.ID = s.m.nextID
	t.CreatedAt = now
	t.UpdatedAt = now
	s.m.templates[t.ID] = cloneTemplate(t)
	return nil
}

func (s memTemplates) GetByID(ctx context.Context, id int) (*models.RecurringTransaction, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	t, ok := s.m.templates[id]
	if !ok {
		return nil, fmt.Errorf("get recurring transaction %d: %w", id, apperr.ErrNotFound)
	}
	return cloneTemplate(t), nil
}

func (s memTemplates) GetForUpdate(ctx context.Context, id int) (*models.RecurringTransaction, error) {
	return s.GetByID(ctx, id)
}

func (s memTemplates) List(ctx context.Context, module models.Module) ([]*models.RecurringTransaction, error) {
	return s.list(func(t *models.RecurringTransaction) bool {
		return module == "" || t.Module == module
	})
}

func (s memTemplates) ListActive(ctx context.Context) ([]*models.RecurringTransaction, error) {
	return s.list(func(t *models.RecurringTransaction) bool { return t.IsActive })
}

func (s memTemplates) list(keep func(*models.RecurringTransaction) bool) ([]*models.RecurringTransaction, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if s.m.FailList != nil {
		return nil, &apperr.StorageError{Op: "list recurring transactions", Err: s.m.FailList}
	}

	var out []*models.RecurringTransaction
	for _, t := range s.m.templates {
		if keep(t) {
			out = append(out, cloneTemplate(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextDueDate.Equal(out[j].NextDueDate) {
			return out[i].NextDueDate.Before(out[j].NextDueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s memTemplates) Update(ctx context.Context, t *models.RecurringTransaction) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.templates[t.ID]; !ok {
		return fmt.Errorf("update recurring transaction %d: %w", t.ID, apperr.ErrNotFound)
	}
	t.UpdatedAt = time.Now()
	s.m.templates[t.ID] = cloneTemplate(t)
	return nil
}

func (s memTemplates) UpdateProgress(ctx context.Context, t *models.RecurringTransaction) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	stored, ok := s.m.templates[t.ID]
	if !ok {
		return fmt.Errorf("update recurring progress %d: %w", t.ID, apperr.ErrNotFound)
	}
	stored.CurrentOccurrence = t.CurrentOccurrence
	stored.NextDueDate = t.NextDueDate
	stored.IsActive = t.IsActive
	if t.LastProcessedDate != nil {
		v := *t.LastProcessedDate
		stored.LastProcessedDate = &v
	}
	stored.UpdatedAt = time.Now()
	t.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s memTemplates) Delete(ctx context.Context, id int) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.templates[id]; !ok {
		return fmt.Errorf("delete recurring transaction %d: %w", id, apperr.ErrNotFound)
	}
	delete(s.m.templates, id)
	for _, rows := range s.m.rows {
		for _, r := range rows {
			if r.RecurringTransactionID != nil && *r.RecurringTransactionID == id {
				r.RecurringTransactionID = nil
			}
		}
	}
	return nil
}

type memSink struct {
	m      *Memory
	module models.Module
}

func (s memSink) Module() models.Module { return s.module }

func (s memSink) CreateInstance(ctx context.Context, p *models.TransactionPayload) (*models.Transaction, bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if err, ok := s.m.FailInstance[p.RecurringTransactionID]; ok {
		return nil, false, &apperr.StorageError{Op: "create transaction", Err: err}
	}
	s.m.inserts++
	if s.m.FailAfterInserts > 0 && s.m.inserts > s.m.FailAfterInserts {
		return nil, false, &apperr.StorageError{Op: "create transaction", Err: fmt.Errorf("insert %d refused", s.m.inserts)}
	}

	for _, r := range s.m.rows[s.module] {
		if r.RecurringTransactionID != nil && *r.RecurringTransactionID == p.RecurringTransactionID && r.Date.Equal(p.Date) {
			c := *r
			return &c, false, nil
		}
	}

	s.m.nextRowID++
	recurringID := p.RecurringTransactionID
	row := &models.Transaction{
		ID:                     s.m.nextRowID,
		Module:                 s.module,
		Type:                   p.Type,
		Amount:                 p.Amount,
		Description:            p.Description,
		Category:               p.Category,
		Date:                   p.Date,
		ScopeID:                p.ScopeID,
		RecurringTransactionID: &recurringID,
		CreatedAt:              time.Now(),
	}
	s.m.rows[s.module] = append(s.m.rows[s.module], row)

	c := *row
	return &c, true, nil
}

func (s memSink) ListByRecurring(ctx context.Context, recurringID int) ([]*models.Transaction, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	var out []*models.Transaction
	for _, r := range s.m.rows[s.module] {
		if r.RecurringTransactionID != nil && *r.RecurringTransactionID == recurringID {
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
