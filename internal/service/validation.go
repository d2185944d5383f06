package service

import (
	"strings"

	"github.com/hray3182/Ledgerline/internal/apperr"
	"github.com/hray3182/Ledgerline/internal/models"
	"github.com/hray3182/Ledgerline/internal/rrule"
	"github.com/shopspring/decimal"
)

func fromCreateRequest(req *models.CreateRecurringTransactionRequest) (*models.RecurringTransaction, error) {
	v := &apperr.ValidationError{}

	t := &models.RecurringTransaction{
		Name:             strings.TrimSpace(req.Name),
		Description:      req.Description,
		Category:         req.Category,
		Type:             req.Type,
		Module:           req.Module,
		AccountID:        req.AccountID,
		PropertyID:       req.PropertyID,
		DeviceID:         req.DeviceID,
		Frequency:        req.Frequency,
		IntervalCount:    1,
		EndDate:          req.EndDate,
		TotalOccurrences: req.TotalOccurrences,
		IsActive:         true,
	}
	if t.Module == "" {
		t.Module = models.ModuleGeneral
	}
	if req.IntervalCount != nil {
		t.IntervalCount = *req.IntervalCount
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if req.Amount == nil {
		v.Add("amount", "is required")
	} else {
		t.Amount = *req.Amount
	}
	if req.StartDate == nil || req.StartDate.IsZero() {
		v.Add("startDate", "is required")
	} else {
		t.StartDate = *req.StartDate
	}

	validate(t, v)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if req.NextDueDate != nil && !req.NextDueDate.IsZero() {
		t.NextDueDate = *req.NextDueDate
	} else {
		next, err := rrule.NextDate(t.StartDate, t.Frequency, t.IntervalCount, 1)
		if err != nil {
			return nil, err
		}
		t.NextDueDate = next
	}
	if t.Exhausted() {
		t.IsActive = false
	}
	return t, nil
}

func applyUpdate(t *models.RecurringTransaction, req *models.UpdateRecurringTransactionRequest) error {
	reschedule := req.Frequency != nil || req.IntervalCount != nil || req.StartDate != nil || req.CurrentOccurrence != nil

	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Category != nil {
		t.Category = *req.Category
	}
	if req.Type != nil {
		t.Type = *req.Type
	}
	if req.Amount != nil {
		t.Amount = *req.Amount
	}
	if req.Module != nil && *req.Module != t.Module {
		// Moving modules drops references that belong to the old one.
		t.Module = *req.Module
		t.AccountID, t.PropertyID, t.DeviceID = nil, nil, nil
	}
	if req.AccountID != nil {
		t.AccountID = req.AccountID
	}
	if req.PropertyID != nil {
		t.PropertyID = req.PropertyID
	}
	if req.DeviceID != nil {
		t.DeviceID = req.DeviceID
	}
	if req.Frequency != nil {
		t.Frequency = *req.Frequency
	}
	if req.IntervalCount != nil {
		t.IntervalCount = *req.IntervalCount
	}
	if req.StartDate != nil {
		t.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		t.EndDate = req.EndDate
	}
	if req.TotalOccurrences != nil {
		t.TotalOccurrences = req.TotalOccurrences
	}
	if req.CurrentOccurrence != nil {
		t.CurrentOccurrence = *req.CurrentOccurrence
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	v := &apperr.ValidationError{}
	if t.StartDate.IsZero() {
		v.Add("startDate", "is required")
	}
	validate(t, v)
	if err := v.OrNil(); err != nil {
		return err
	}

	switch {
	case req.NextDueDate != nil && !req.NextDueDate.IsZero():
		t.NextDueDate = *req.NextDueDate
	case reschedule:
		next, err := rrule.NextDate(t.StartDate, t.Frequency, t.IntervalCount, t.CurrentOccurrence+1)
		if err != nil {
			return err
		}
		t.NextDueDate = next
	}
	if t.Exhausted() {
		t.IsActive = false
	}
	return nil
}

// validate records every field problem of t in v.
func validate(t *models.RecurringTransaction, v *apperr.ValidationError) {
	if t.Name == "" {
		v.Add("name", "is required")
	}
	if !t.Type.Valid() {
		v.Add("type", "must be one of income, expense, transfer")
	}
	if !t.Amount.IsPositive() {
		v.Add("amount", "must be greater than zero")
	} else if !t.Amount.Equal(t.Amount.Round(2)) {
		v.Add("amount", "must have at most 2 decimal places")
	} else if t.Amount.GreaterThanOrEqual(maxAmount) {
		v.Add("amount", "is too large")
	}
	if !t.Frequency.Valid() {
		v.Add("frequency", "must be one of daily, weekly, monthly, quarterly, yearly")
	}
	if t.IntervalCount < 1 {
		v.Add("intervalCount", "must be at least 1")
	}
	if t.EndDate != nil && !t.StartDate.IsZero() && t.EndDate.Before(t.StartDate) {
		v.Add("endDate", "must not be before startDate")
	}
	if t.TotalOccurrences != nil && *t.TotalOccurrences < 1 {
		v.Add("totalOccurrences", "must be at least 1")
	}
	if t.CurrentOccurrence < 0 {
		v.Add("currentOccurrence", "must not be negative")
	} else if t.TotalOccurrences != nil && t.CurrentOccurrence > *t.TotalOccurrences {
		v.Add("currentOccurrence", "must not exceed totalOccurrences")
	}

	if !t.Module.Valid() {
		v.Add("module", "must be one of "+moduleList())
		return
	}
	refs := map[string]*int{
		"accountId":  t.AccountID,
		"propertyId": t.PropertyID,
		"deviceId":   t.DeviceID,
	}
	want := t.Module.ScopeField()
	for field, ref := range refs {
		switch {
		case field == want && ref == nil:
			v.Add(field, "is required for module "+string(t.Module))
		case field == want && *ref < 1:
			v.Add(field, "must be a positive id")
		case field != want && ref != nil:
			v.Add(field, "is not allowed for module "+string(t.Module))
		}
	}
}

// maxAmount is the first value NUMERIC(14,2) cannot hold.
var maxAmount = decimal.New(1, 12)

func moduleList() string {
	names := make([]string, len(models.Modules))
	for i, m := range models.Modules {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
