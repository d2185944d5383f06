package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Ledgerline/internal/format"
	"github.com/hray3182/Ledgerline/internal/models"
	"github.com/hray3182/Ledgerline/internal/rrule"
)

// Sender is the part of the Telegram bot API the alerter uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type DueSource interface {
	Due(ctx context.Context) ([]*models.RecurringTransaction, error)
}

// Alerter posts the current due set to a Telegram chat. It only reports;
// processing stays an explicit operation.
type Alerter struct {
	api           Sender
	source        DueSource
	chatID        int64
	checkInterval time.Duration
	notifyCh      chan struct{}

	lastKey       string
	lastMessageID int
}

func NewAlerter(api Sender, source DueSource, chatID int64, interval time.Duration) *Alerter {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Alerter{
		api:           api,
		source:        source,
		chatID:        chatID,
		checkInterval: interval,
		notifyCh:      make(chan struct{}, 1),
	}
}

// Notify triggers an immediate check. Non-blocking if a check is already pending.
func (a *Alerter) Notify() {
	select {
	case a.notifyCh <- struct{}{}:
	default:
	}
}

func (a *Alerter) Start(ctx context.Context) {
	log.Println("Due alerter started")
	ticker := time.NewTicker(a.checkInterval)
	defer ticker.Stop()

	a.check(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("Due alerter stopped")
			return
		case <-ticker.C:
			a.check(ctx)
		case <-a.notifyCh:
			a.check(ctx)
		}
	}
}

func (a *Alerter) check(ctx context.Context) {
	due, err := a.source.Due(ctx)
	if err != nil {
		log.Printf("Failed to get due recurring transactions: %v", err)
		return
	}

	key := dueKey(due)
	if key == a.lastKey {
		return
	}

	// Replace the previous alert instead of stacking them up.
	if a.lastMessageID != 0 {
		if _, err := a.api.Request(tgbotapi.NewDeleteMessage(a.chatID, a.lastMessageID)); err != nil {
			log.Printf("Failed to delete old due alert %d: %v", a.lastMessageID, err)
		}
		a.lastMessageID = 0
	}
	a.lastKey = key

	if len(due) == 0 {
		return
	}

	parsed := format.ParseMarkdown(dueMessage(due))
	msg := tgbotapi.NewMessage(a.chatID, parsed.Text)
	msg.Entities = parsed.Entities

	sent, err := a.api.Send(msg)
	if err != nil {
		log.Printf("Failed to send due alert: %v", err)
		a.lastKey = ""
		return
	}
	a.lastMessageID = sent.MessageID
	log.Printf("Sent due alert for %d recurring transactions (msg_id=%d)", len(due), sent.MessageID)
}

// dueKey identifies a due set by template id and cycle.
func dueKey(due []*models.RecurringTransaction) string {
	parts := make([]string, len(due))
	for i, t := range due {
		parts[i] = strconv.Itoa(t.ID) + "@" + t.NextDueDate.String()
	}
	return strings.Join(parts, ",")
}

func dueMessage(due []*models.RecurringTransaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 **%d recurring transactions due**\n", len(due))
	for _, t := range due {
		fmt.Fprintf(&b, "\n`#%d` **%s** %s %s on %s", t.ID, t.Name, t.Type, t.Amount.StringFixed(2), t.NextDueDate)
		fmt.Fprintf(&b, "\n🔄 %s", rrule.Describe(t))
	}
	return b.String()
}
