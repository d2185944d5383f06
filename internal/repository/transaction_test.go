package repository

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/hray3182/Ledgerline/internal/apperr"
	"github.com/hray3182/Ledgerline/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type queryCall struct {
	sql  string
	args []any
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

// fakeQuerier answers QueryRow calls from rows in order.
type fakeQuerier struct {
	rows  []fakeRow
	calls []queryCall
}

func (q *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected Exec")
}

func (q *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected Query")
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.calls = append(q.calls, queryCall{sql: sql, args: args})
	if len(q.rows) == 0 {
		return fakeRow{err: errors.New("unexpected QueryRow")}
	}
	row := q.rows[0]
	q.rows = q.rows[1:]
	return row
}

func storedRow(id int, date time.Time, recurringID int) fakeRow {
	return fakeRow{values: []any{
		id, models.TransactionTypeExpense, "1200.50", "Rent (auto-generated from recurring: Rent)",
		"housing", date, 4, &recurringID, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
}

func rentPayload() *models.TransactionPayload {
	return &models.TransactionPayload{
		Type:                   models.TransactionTypeExpense,
		Amount:                 decimal.RequireFromString("1200.50"),
		Description:            "Rent (auto-generated from recurring: Rent)",
		Category:               "housing",
		Date:                   models.NewDate(2025, 2, 1),
		ScopeID:                4,
		RecurringTransactionID: 9,
	}
}

func TestTransactionSQLPerModule(t *testing.T) {
	tests := []struct {
		repo        *TransactionRepository
		table       string
		scopeColumn string
	}{
		{NewGeneralTransactionRepository(nil), "general_transactions", "account_id"},
		{NewRealEstateTransactionRepository(nil), "real_estate_transactions", "property_id"},
		{NewDeviceTransactionRepository(nil), "device_transactions", "device_id"},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			insert := tt.repo.insertSQL
			for _, want := range []string{
				"INSERT INTO " + tt.table + " (type, amount, description, category, date, " + tt.scopeColumn + ", recurring_transaction_id)",
				"ON CONFLICT (recurring_transaction_id, date) WHERE recurring_transaction_id IS NOT NULL DO NOTHING",
				"RETURNING id,",
			} {
				if !strings.Contains(insert, want) {
					t.Errorf("insert SQL missing %q:\n%s", want, insert)
				}
			}
			if !strings.Contains(tt.repo.existingSQL, "FROM "+tt.table+" WHERE recurring_transaction_id = $1 AND date = $2") {
				t.Errorf("existing SQL = %s", tt.repo.existingSQL)
			}
			if !strings.Contains(tt.repo.listSQL, "FROM "+tt.table+" WHERE recurring_transaction_id = $1") {
				t.Errorf("list SQL = %s", tt.repo.listSQL)
			}
		})
	}
}

func TestCreateInstanceInserts(t *testing.T) {
	date := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	q := &fakeQuerier{rows: []fakeRow{storedRow(31, date, 9)}}
	repo := NewRealEstateTransactionRepository(q)

	tx, created, err := repo.CreateInstance(context.Background(), rentPayload())
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Error("created = false for a fresh insert")
	}
	if len(q.calls) != 1 {
		t.Fatalf("queries = %d, want 1", len(q.calls))
	}

	args := q.calls[0].args
	if args[1] != "1200.5" || args[5] != 4 || args[6] != 9 {
		t.Errorf("insert args = %v", args)
	}
	if tx.ID != 31 || tx.Module != models.ModuleRealEstate || tx.Date.String() != "2025-02-01" || tx.ScopeID != 4 {
		t.Errorf("transaction = %+v", tx)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("1200.50")) {
		t.Errorf("amount = %s", tx.Amount)
	}
}

func TestCreateInstanceReusesExistingCycle(t *testing.T) {
	date := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	q := &fakeQuerier{rows: []fakeRow{
		{err: pgx.ErrNoRows},
		storedRow(17, date, 9),
	}}
	repo := NewGeneralTransactionRepository(q)

	tx, created, err := repo.CreateInstance(context.Background(), rentPayload())
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("created = true for a cycle that already had a row")
	}
	if tx.ID != 17 {
		t.Errorf("returned row %d, want the existing row 17", tx.ID)
	}

	if len(q.calls) != 2 {
		t.Fatalf("queries = %d, want insert then lookup", len(q.calls))
	}
	lookup := q.calls[1]
	if lookup.sql != repo.existingSQL {
		t.Errorf("second query = %s", lookup.sql)
	}
	if at, ok := lookup.args[1].(time.Time); lookup.args[0] != 9 || !ok || !at.Equal(date) {
		t.Errorf("lookup args = %v", lookup.args)
	}
}

func TestCreateInstanceStorageError(t *testing.T) {
	q := &fakeQuerier{rows: []fakeRow{{err: errors.New("connection reset")}}}
	repo := NewDeviceTransactionRepository(q)

	_, _, err := repo.CreateInstance(context.Background(), rentPayload())
	var se *apperr.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if len(q.calls) != 1 {
		t.Errorf("queries = %d, a failed insert must not fall back to the lookup", len(q.calls))
	}
}
