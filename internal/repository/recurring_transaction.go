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

const recurringColumns = `id, name, description, category, type, amount::text, module,
	account_id, property_id, device_id, frequency, interval_count, start_date, end_date,
	total_occurrences, next_due_date, current_occurrence, is_active, last_processed_date,
	created_at, updated_at`

type RecurringTransactionRepository struct {
	q database.Querier
}

func NewRecurringTransactionRepository(q database.Querier) *RecurringTransactionRepository {
	return &RecurringTransactionRepository{q: q}
}

var _ scheduler.TemplateStore = (*RecurringTransactionRepository)(nil)

func (r *RecurringTransactionRepository) Create(ctx context.Context, t *models.RecurringTransaction) error {
	err := r.q.QueryRow(ctx,
		`INSERT INTO recurring_transactions (name, description, category, type, amount, module,
		 account_id, property_id, device_id, frequency, interval_count, start_date, end_date,
		 total_occurrences, next_due_date, current_occurrence, is_active, last_processed_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		 RETURNING id, created_at, updated_at`,
		t.Name, t.Description, t.Category, t.Type, t.Amount.String(), t.Module,
		t.AccountID, t.PropertyID, t.DeviceID, t.Frequency, t.IntervalCount,
		t.StartDate.Time(), dateArg(t.EndDate), t.TotalOccurrences, t.NextDueDate.Time(),
		t.CurrentOccurrence, t.IsActive, t.LastProcessedDate,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return apperr.Storage("create recurring transaction", err)
}

func (r *RecurringTransactionRepository) GetByID(ctx context.Context, id int) (*models.RecurringTransaction, error) {
	t, err := scanRecurring(r.q.QueryRow(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions WHERE id = $1`,
		id,
	))
	return t, notFound("get recurring transaction", id, err)
}

func (r *RecurringTransactionRepository) GetForUpdate(ctx context.Context, id int) (*models.RecurringTransaction, error) {
	t, err := scanRecurring(r.q.QueryRow(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions WHERE id = $1 FOR UPDATE`,
		id,
	))
	return t, notFound("lock recurring transaction", id, err)
}

func (r *RecurringTransactionRepository) List(ctx context.Context, module models.Module) ([]*models.RecurringTransaction, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if module == "" {
		rows, err = r.q.Query(ctx,
			`SELECT `+recurringColumns+` FROM recurring_transactions ORDER BY next_due_date ASC, id ASC`)
	} else {
		rows, err = r.q.Query(ctx,
			`SELECT `+recurringColumns+` FROM recurring_transactions WHERE module = $1
			 ORDER BY next_due_date ASC, id ASC`,
			module,
		)
	}
	if err != nil {
		return nil, apperr.Storage("list recurring transactions", err)
	}
	defer rows.Close()

	return scanRecurringRows(rows)
}

func (r *RecurringTransactionRepository) ListActive(ctx context.Context) ([]*models.RecurringTransaction, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions WHERE is_active = true
		 ORDER BY next_due_date ASC, id ASC`)
	if err != nil {
		return nil, apperr.Storage("list active recurring transactions", err)
	}
	defer rows.Close()

	return scanRecurringRows(rows)
}

func (r *RecurringTransactionRepository) Update(ctx context.Context, t *models.RecurringTransaction) error {
	err := r.q.QueryRow(ctx,
		`UPDATE recurring_transactions SET name = $1, description = $2, category = $3, type = $4,
		 amount = $5, module = $6, account_id = $7, property_id = $8, device_id = $9, frequency = $10,
		 interval_count = $11, start_date = $12, end_date = $13, total_occurrences = $14,
		 next_due_date = $15, current_occurrence = $16, is_active = $17, last_processed_date = $18,
		 updated_at = NOW()
		 WHERE id = $19
		 RETURNING updated_at`,
		t.Name, t.Description, t.Category, t.Type, t.Amount.String(), t.Module,
		t.AccountID, t.PropertyID, t.DeviceID, t.Frequency, t.IntervalCount,
		t.StartDate.Time(), dateArg(t.EndDate), t.TotalOccurrences, t.NextDueDate.Time(),
		t.CurrentOccurrence, t.IsActive, t.LastProcessedDate, t.ID,
	).Scan(&t.UpdatedAt)
	return notFound("update recurring transaction", t.ID, err)
}

func (r *RecurringTransactionRepository) UpdateProgress(ctx context.Context, t *models.RecurringTransaction) error {
	err := r.q.QueryRow(ctx,
		`UPDATE recurring_transactions SET current_occurrence = $1, next_due_date = $2,
		 is_active = $3, last_processed_date = $4, updated_at = NOW()
		 WHERE id = $5
		 RETURNING updated_at`,
		t.CurrentOccurrence, t.NextDueDate.Time(), t.IsActive, t.LastProcessedDate, t.ID,
	).Scan(&t.UpdatedAt)
	return notFound("update recurring progress", t.ID, err)
}

func (r *RecurringTransactionRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM recurring_transactions WHERE id = $1`, id)
	if err != nil {
		return apperr.Storage("delete recurring transaction", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete recurring transaction %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func scanRecurring(row pgx.Row) (*models.RecurringTransaction, error) {
	var (
		t         models.RecurringTransaction
		amount    string
		startDate time.Time
		nextDue   time.Time
		endDate   *time.Time
	)
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Category, &t.Type, &amount, &t.Module,
		&t.AccountID, &t.PropertyID, &t.DeviceID, &t.Frequency, &t.IntervalCount, &startDate, &endDate,
		&t.TotalOccurrences, &nextDue, &t.CurrentOccurrence, &t.IsActive, &t.LastProcessedDate,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	t.StartDate = models.DateOf(startDate)
	t.NextDueDate = models.DateOf(nextDue)
	t.EndDate = models.DatePtr(endDate)
	return &t, nil
}

func scanRecurringRows(rows pgx.Rows) ([]*models.RecurringTransaction, error) {
	var templates []*models.RecurringTransaction
	for rows.Next() {
		t, err := scanRecurring(rows)
		if err != nil {
			return nil, apperr.Storage("scan recurring transaction", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("iterate recurring transactions", err)
	}
	return templates, nil
}

func dateArg(d *models.Date) any {
	if d == nil {
		return nil
	}
	return d.Time()
}

func notFound(op string, id int, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", op, id, apperr.ErrNotFound)
	}
	return apperr.Storage(op, err)
}
