package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return true
	}
	return false
}

// Module selects which transaction table a template writes into.
type Module string

const (
	ModuleGeneral    Module = "general"
	ModuleRealEstate Module = "real-estate"
	ModuleDevices    Module = "devices"
)

var Modules = []Module{ModuleGeneral, ModuleRealEstate, ModuleDevices}

func (m Module) Valid() bool {
	switch m {
	case ModuleGeneral, ModuleRealEstate, ModuleDevices:
		return true
	}
	return false
}

// ScopeField is the JSON name of the reference column a module is scoped by.
func (m Module) ScopeField() string {
	switch m {
	case ModuleRealEstate:
		return "propertyId"
	case ModuleDevices:
		return "deviceId"
	default:
		return "accountId"
	}
}

// Transaction is a concrete row in one of the module transaction tables.
type Transaction struct {
	ID                     int             `json:"id"`
	Module                 Module          `json:"module"`
	Type                   TransactionType `json:"type"`
	Amount                 decimal.Decimal `json:"amount"`
	Description            string          `json:"description"`
	Category               string          `json:"category"`
	Date                   Date            `json:"date"`
	ScopeID                int             `json:"scopeId"`
	RecurringTransactionID *int            `json:"recurringTransactionId"`
	CreatedAt              time.Time       `json:"createdAt"`
}

// TransactionPayload is what a sink needs to persist one generated instance.
type TransactionPayload struct {
	Type                   TransactionType
	Amount                 decimal.Decimal
	Description            string
	Category               string
	Date                   Date
	ScopeID                int
	RecurringTransactionID int
}
