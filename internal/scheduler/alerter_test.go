package scheduler

import (
	"context"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Ledgerline/internal/models"
	"github.com/shopspring/decimal"
)

type fakeSender struct {
	sent    []tgbotapi.MessageConfig
	deleted []int
	nextID  int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.nextID++
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.deleted = append(f.deleted, c.(tgbotapi.DeleteMessageConfig).MessageID)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

type fakeDue struct {
	due []*models.RecurringTransaction
}

func (f *fakeDue) Due(ctx context.Context) ([]*models.RecurringTransaction, error) {
	return f.due, nil
}

func dueTemplate(id int, next models.Date) *models.RecurringTransaction {
	return &models.RecurringTransaction{
		ID:            id,
		Name:          "Rent",
		Type:          models.TransactionTypeExpense,
		Amount:        decimal.NewFromInt(900),
		Frequency:     models.FrequencyMonthly,
		IntervalCount: 1,
		NextDueDate:   next,
		IsActive:      true,
	}
}

func TestAlerterSendsOnlyOnChange(t *testing.T) {
	ctx := context.Background()
	api := &fakeSender{}
	source := &fakeDue{due: []*models.RecurringTransaction{dueTemplate(1, models.NewDate(2025, 3, 1))}}
	a := NewAlerter(api, source, 99, 0)

	a.check(ctx)
	a.check(ctx)
	if len(api.sent) != 1 {
		t.Fatalf("sent %d alerts for an unchanged due set, want 1", len(api.sent))
	}
	if !strings.Contains(api.sent[0].Text, "#1 Rent expense 900.00 on 2025-03-01") {
		t.Errorf("alert text = %q", api.sent[0].Text)
	}
	if api.sent[0].ChatID != 99 {
		t.Errorf("chat id = %d, want 99", api.sent[0].ChatID)
	}

	source.due = append(source.due, dueTemplate(2, models.NewDate(2025, 3, 1)))
	a.check(ctx)
	if len(api.sent) != 2 {
		t.Fatalf("sent %d alerts, want 2", len(api.sent))
	}
	if len(api.deleted) != 1 || api.deleted[0] != 1 {
		t.Errorf("deleted = %v, want [1]", api.deleted)
	}

	source.due = nil
	a.check(ctx)
	if len(api.sent) != 2 {
		t.Error("empty due set should not send an alert")
	}
	if len(api.deleted) != 2 || api.deleted[1] != 2 {
		t.Errorf("deleted = %v, want [1 2]", api.deleted)
	}
}

func TestAlerterNotifyDoesNotBlock(t *testing.T) {
	a := NewAlerter(&fakeSender{}, &fakeDue{}, 1, 0)
	a.Notify()
	a.Notify()
	if len(a.notifyCh) != 1 {
		t.Errorf("pending notifications = %d, want 1", len(a.notifyCh))
	}
}
