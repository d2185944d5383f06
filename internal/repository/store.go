package repository

import (
	"context"
	"fmt"

	"github.com/hray3182/Ledgerline/internal/apperr"
	"github.com/hray3182/Ledgerline/internal/database"
	"github.com/hray3182/Ledgerline/internal/models"
	"github.com/hray3182/Ledgerline/internal/scheduler"
	"github.com/jackc/pgx/v5"
)

// Store bundles the repositories bound to one querier.
type Store struct {
	templates *RecurringTransactionRepository
	sinks     map[models.Module]*TransactionRepository
}

var _ scheduler.Store = (*Store)(nil)

func NewStore(q database.Querier) *Store {
	return &Store{
		templates: NewRecurringTransactionRepository(q),
		sinks: map[models.Module]*TransactionRepository{
			models.ModuleGeneral:    NewGeneralTransactionRepository(q),
			models.ModuleRealEstate: NewRealEstateTransactionRepository(q),
			models.ModuleDevices:    NewDeviceTransactionRepository(q),
		},
	}
}

func (s *Store) Templates() scheduler.TemplateStore {
	return s.templates
}

func (s *Store) Sink(module models.Module) (scheduler.TransactionSink, error) {
	sink, ok := s.sinks[module]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnknownModule, module)
	}
	return sink, nil
}

// TxRunner opens PostgreSQL transactions for the scheduler.
type TxRunner struct {
	db *database.DB
}

var _ scheduler.TxRunner = (*TxRunner)(nil)

func NewTxRunner(db *database.DB) *TxRunner {
	return &TxRunner{db: db}
}

func (r *TxRunner) InTx(ctx context.Context, fn func(st scheduler.Store) error) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		return fn(NewStore(tx))
	})
}
