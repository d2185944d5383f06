package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hray3182/Ledgerline/internal/models"
	"github.com/sashabaranov/go-openai"
)

type Client struct {
	client *openai.Client
	model  string
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

const systemPromptTemplate = `You turn a short sentence about a repeating payment or income into a recurring transaction template.

Today is %s.

Rules:
1. type is "expense" for payments, "income" for money received, "transfer" for moves between own accounts.
2. amount is a positive decimal string without currency symbols, for example "1200.50".
3. frequency is one of daily, weekly, monthly, quarterly, yearly. "every two weeks" is weekly with intervalCount 2.
4. Resolve relative dates ("next Monday", "from March") against today and write them as YYYY-MM-DD.
   startDate is the first payment date. When the sentence gives none, use today.
5. module is "real-estate" for rent, mortgages and property costs, "devices" for phones, laptops and other equipment, otherwise "general".
6. Use null for anything the sentence does not say (endDate, totalOccurrences, description).
7. name is a short label such as "Rent" or "Phone plan". category is a single lowercase word.`

func systemPrompt(today time.Time) string {
	return fmt.Sprintf(systemPromptTemplate, today.Format("2006-01-02 (Monday)"))
}

// JSON Schema for structured output
var draftSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"description": {"type": ["string", "null"]},
		"category": {"type": "string"},
		"type": {"type": "string", "enum": ["income", "expense", "transfer"]},
		"amount": {"type": "string", "description": "Positive decimal amount"},
		"module": {"type": "string", "enum": ["general", "real-estate", "devices"]},
		"frequency": {"type": "string", "enum": ["daily", "weekly", "monthly", "quarterly", "yearly"]},
		"intervalCount": {"type": "integer", "minimum": 1},
		"startDate": {"type": "string", "description": "YYYY-MM-DD"},
		"endDate": {"type": ["string", "null"], "description": "YYYY-MM-DD"},
		"totalOccurrences": {"type": ["integer", "null"], "minimum": 1}
	},
	"required": ["name", "description", "category", "type", "amount", "module", "frequency", "intervalCount", "startDate", "endDate", "totalOccurrences"],
	"additionalProperties": false
}`)

type draft struct {
	Name             string  `json:"name"`
	Description      *string `json:"description"`
	Category         string  `json:"category"`
	Type             string  `json:"type"`
	Amount           string  `json:"amount"`
	Module           string  `json:"module"`
	Frequency        string  `json:"frequency"`
	IntervalCount    int     `json:"intervalCount"`
	StartDate        string  `json:"startDate"`
	EndDate          *string `json:"endDate"`
	TotalOccurrences *int    `json:"totalOccurrences"`
}

// DraftRecurring asks the model to fill a template from text. The draft is
// not validated here; the scoping reference is always left for the caller.
func (c *Client) DraftRecurring(ctx context.Context, text string, today time.Time) (*models.CreateRecurringTransactionRequest, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt(today),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "recurring_transaction",
				Schema: draftSchema,
				Strict: true,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call AI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from AI")
	}

	var d draft
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &d); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	return d.request()
}

func (d *draft) request() (*models.CreateRecurringTransactionRequest, error) {
	req := &models.CreateRecurringTransactionRequest{
		Name:             d.Name,
		Category:         d.Category,
		Type:             models.TransactionType(d.Type),
		Module:           models.Module(d.Module),
		Frequency:        models.Frequency(d.Frequency),
		TotalOccurrences: d.TotalOccurrences,
	}
	if d.Description != nil {
		req.Description = *d.Description
	}
	if d.IntervalCount > 0 {
		interval := d.IntervalCount
		req.IntervalCount = &interval
	}

	// Amount and dates go through the same JSON decoding as a POST body.
	raw, err := json.Marshal(map[string]any{
		"amount":    d.Amount,
		"startDate": d.StartDate,
		"endDate":   d.EndDate,
	})
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, req); err != nil {
		return nil, fmt.Errorf("failed to parse AI draft: %w", err)
	}
	return req, nil
}
