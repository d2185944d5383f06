package scheduler

import (
	"context"

	"github.com/hray3182/Ledgerline/internal/models"
)

// TemplateStore persists recurring transaction templates.
type TemplateStore interface {
	Create(ctx context.Context, t *models.RecurringTransaction) error
	GetByID(ctx context.Context, id int) (*models.RecurringTransaction, error)
	// GetForUpdate reads a template and locks it until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id int) (*models.RecurringTransaction, error)
	// List returns all templates, or only those of module when it is not empty.
	List(ctx context.Context, module models.Module) ([]*models.RecurringTransaction, error)
	ListActive(ctx context.Context) ([]*models.RecurringTransaction, error)
	Update(ctx context.Context, t *models.RecurringTransaction) error
	// UpdateProgress writes only the fields the processor advances.
	UpdateProgress(ctx context.Context, t *models.RecurringTransaction) error
	Delete(ctx context.Context, id int) error
}

// TransactionSink creates transaction rows for one module. There is one
// implementation per module; the scheduler picks it by template.Module.
type TransactionSink interface {
	Module() models.Module
	// CreateInstance inserts a generated row. If the template already has a
	// row for p.Date the existing row is returned with created == false.
	CreateInstance(ctx context.Context, p *models.TransactionPayload) (tx *models.Transaction, created bool, err error)
	ListByRecurring(ctx context.Context, recurringID int) ([]*models.Transaction, error)
}

// Store is a set of stores bound to one database transaction.
type Store interface {
	Templates() TemplateStore
	Sink(module models.Module) (TransactionSink, error)
}

// TxRunner runs fn inside a single database transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
type TxRunner interface {
	InTx(ctx context.Context, fn func(st Store) error) error
}
