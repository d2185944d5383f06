package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hray3182/Ledgerline/internal/apperr"
	"github.com/hray3182/Ledgerline/internal/database"
	"github.com/hray3182/Ledgerline/internal/models"
	"github.com/hray3182/Ledgerline/internal/scheduler"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// moduleTable describes where one module keeps its transactions.
type moduleTable struct {
	module      models.Module
	table       string
	scopeColumn string
}

var (
	generalTable    = moduleTable{models.ModuleGeneral, "general_transactions", "account_id"}
	realEstateTable = moduleTable{models.ModuleRealEstate, "real_estate_transactions", "property_id"}
	deviceTable     = moduleTable{models.ModuleDevices, "device_transactions", "device_id"}
)

// TransactionRepository writes and reads one module's transaction table.
type TransactionRepository struct {
	q  database.Querier
	mt moduleTable

	insertSQL   string
	existingSQL string
	listSQL     string
}

var _ scheduler.TransactionSink = (*TransactionRepository)(nil)

func newTransactionRepository(q database.Querier, mt moduleTable) *TransactionRepository {
	columns := fmt.Sprintf(`id, type, amount::text, description, category, date, %s,
		recurring_transaction_id, created_at`, mt.scopeColumn)

	return &TransactionRepository{
		q:  q,
		mt: mt,
		insertSQL: fmt.Sprintf(`INSERT INTO %s (type, amount, description, category, date, %s, recurring_transaction_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (recurring_transaction_id, date) WHERE recurring_transaction_id IS NOT NULL DO NOTHING
			RETURNING %s`, mt.table, mt.scopeColumn, columns),
		existingSQL: fmt.Sprintf(`SELECT %s FROM %s WHERE recurring_transaction_id = $1 AND date = $2`,
			columns, mt.table),
		listSQL: fmt.Sprintf(`SELECT %s FROM %s WHERE recurring_transaction_id = $1 ORDER BY date ASC, id ASC`,
			columns, mt.table),
	}
}

// NewGeneralTransactionRepository serves createGeneralTransaction.
func NewGeneralTransactionRepository(q database.Querier) *TransactionRepository {
	return newTransactionRepository(q, generalTable)
}

// NewRealEstateTransactionRepository serves createRealEstateTransaction.
func NewRealEstateTransactionRepository(q database.Querier) *TransactionRepository {
	return newTransactionRepository(q, realEstateTable)
}

// NewDeviceTransactionRepository serves createDeviceTransaction.
func NewDeviceTransactionRepository(q database.Querier) *TransactionRepository {
	return newTransactionRepository(q, deviceTable)
}

func (r *TransactionRepository) Module() models.Module {
	return r.mt.module
}

func (r *TransactionRepository) CreateInstance(ctx context.Context, p *models.TransactionPayload) (*models.Transaction, bool, error) {
	tx, err := r.scanTransaction(r.q.QueryRow(ctx, r.insertSQL,
		p.Type, p.Amount.String(), p.Description, p.Category, p.Date.Time(), p.ScopeID, p.RecurringTransactionID,
	))
	if err == nil {
		return tx, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, apperr.Storage("create "+string(r.mt.module)+" transaction", err)
	}

	// The cycle already has a row.
	tx, err = r.scanTransaction(r.q.QueryRow(ctx, r.existingSQL, p.RecurringTransactionID, p.Date.Time()))
	if err != nil {
		return nil, false, apperr.Storage("load existing "+string(r.mt.module)+" transaction", err)
	}
	return tx, false, nil
}

func (r *TransactionRepository) ListByRecurring(ctx context.Context, recurringID int) ([]*models.Transaction, error) {
	rows, err := r.q.Query(ctx, r.listSQL, recurringID)
	if err != nil {
		return nil, apperr.Storage("list "+string(r.mt.module)+" transactions", err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		tx, err := r.scanTransaction(rows)
		if err != nil {
			return nil, apperr.Storage("scan "+string(r.mt.module)+" transaction", err)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("iterate "+string(r.mt.module)+" transactions", err)
	}
	return transactions, nil
}

func (r *TransactionRepository) scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var (
		tx     = models.Transaction{Module: r.mt.module}
		amount string
		date   time.Time
	)
	if err := row.Scan(&tx.ID, &tx.Type, &amount, &tx.Description, &tx.Category, &date, &tx.ScopeID,
		&tx.RecurringTransactionID, &tx.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	tx.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	tx.Date = models.DateOf(date)
	return &tx, nil
}
