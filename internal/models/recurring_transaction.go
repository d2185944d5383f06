package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// RecurringTransaction is a template describing a repeating transaction.
// It is not itself a financial transaction.
type RecurringTransaction struct {
	ID                int             `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Category          string          `json:"category"`
	Type              TransactionType `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	Module            Module          `json:"module"`
	AccountID         *int            `json:"accountId"`
	PropertyID        *int            `json:"propertyId"`
	DeviceID          *int            `json:"deviceId"`
	Frequency         Frequency       `json:"frequency"`
	IntervalCount     int             `json:"intervalCount"`
	StartDate         Date            `json:"startDate"`
	EndDate           *Date           `json:"endDate"`
	TotalOccurrences  *int            `json:"totalOccurrences"`
	NextDueDate       Date            `json:"nextDueDate"`
	CurrentOccurrence int             `json:"currentOccurrence"`
	IsActive          bool            `json:"isActive"`
	LastProcessedDate *time.Time      `json:"lastProcessedDate"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// ScopeID returns the account, property or device reference matching Module.
func (r *RecurringTransaction) ScopeID() *int {
	switch r.Module {
	case ModuleRealEstate:
		return r.PropertyID
	case ModuleDevices:
		return r.DeviceID
	default:
		return r.AccountID
	}
}

// Exhausted reports whether the occurrence cap or end date has been reached,
// regardless of IsActive.
func (r *RecurringTransaction) Exhausted() bool {
	if r.TotalOccurrences != nil && r.CurrentOccurrence >= *r.TotalOccurrences {
		return true
	}
	return r.EndDate != nil && r.NextDueDate.After(*r.EndDate)
}

// CreateRecurringTransactionRequest is the POST body. Server-managed fields
// (id, currentOccurrence, lastProcessedDate) are not accepted.
type CreateRecurringTransactionRequest struct {
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	Category         string           `json:"category"`
	Type             TransactionType  `json:"type"`
	Amount           *decimal.Decimal `json:"amount"`
	Module           Module           `json:"module"`
	AccountID        *int             `json:"accountId,omitempty"`
	PropertyID       *int             `json:"propertyId,omitempty"`
	DeviceID         *int             `json:"deviceId,omitempty"`
	Frequency        Frequency        `json:"frequency"`
	IntervalCount    *int             `json:"intervalCount,omitempty"`
	StartDate        *Date            `json:"startDate"`
	EndDate          *Date            `json:"endDate,omitempty"`
	TotalOccurrences *int             `json:"totalOccurrences,omitempty"`
	NextDueDate      *Date            `json:"nextDueDate,omitempty"`
	IsActive         *bool            `json:"isActive,omitempty"`
}

// UpdateRecurringTransactionRequest is the PUT body. Absent fields are left
// unchanged.
type UpdateRecurringTransactionRequest struct {
	Name              *string          `json:"name"`
	Description       *string          `json:"description"`
	Category          *string          `json:"category"`
	Type              *TransactionType `json:"type"`
	Amount            *decimal.Decimal `json:"amount"`
	Module            *Module          `json:"module"`
	AccountID         *int             `json:"accountId"`
	PropertyID        *int             `json:"propertyId"`
	DeviceID          *int             `json:"deviceId"`
	Frequency         *Frequency       `json:"frequency"`
	IntervalCount     *int             `json:"intervalCount"`
	StartDate         *Date            `json:"startDate"`
	EndDate           *Date            `json:"endDate"`
	TotalOccurrences  *int             `json:"totalOccurrences"`
	NextDueDate       *Date            `json:"nextDueDate"`
	CurrentOccurrence *int             `json:"currentOccurrence"`
	IsActive          *bool            `json:"isActive"`
}
