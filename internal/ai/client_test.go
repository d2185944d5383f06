package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hray3182/Ledgerline/internal/models"
)

func stubServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req struct {
			Model          string `json:"model"`
			ResponseFormat struct {
				Type string `json:"type"`
			} `json:"response_format"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q", req.Model)
		}
		if req.ResponseFormat.Type != "json_schema" {
			t.Errorf("response_format = %q, want json_schema", req.ResponseFormat.Type)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			}},
		})
	}))
}

func TestDraftRecurring(t *testing.T) {
	srv := stubServer(t, `{
		"name": "Rent",
		"description": null,
		"category": "housing",
		"type": "expense",
		"amount": "1200.50",
		"module": "real-estate",
		"frequency": "monthly",
		"intervalCount": 1,
		"startDate": "2025-03-01",
		"endDate": null,
		"totalOccurrences": 12
	}`)
	defer srv.Close()

	c := New("key", srv.URL, "test-model")
	req, err := c.DraftRecurring(context.Background(), "rent 1200.50 every month from March, for a year", time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}

	if req.Name != "Rent" || req.Type != models.TransactionTypeExpense || req.Module != models.ModuleRealEstate {
		t.Errorf("draft = %+v", req)
	}
	if req.Amount == nil || req.Amount.String() != "1200.5" {
		t.Errorf("amount = %v, want 1200.5", req.Amount)
	}
	if req.StartDate == nil || req.StartDate.String() != "2025-03-01" {
		t.Errorf("startDate = %v", req.StartDate)
	}
	if req.EndDate != nil {
		t.Errorf("endDate = %v, want nil", req.EndDate)
	}
	if req.TotalOccurrences == nil || *req.TotalOccurrences != 12 {
		t.Errorf("totalOccurrences = %v, want 12", req.TotalOccurrences)
	}
	if req.IntervalCount == nil || *req.IntervalCount != 1 {
		t.Errorf("intervalCount = %v, want 1", req.IntervalCount)
	}
	if req.PropertyID != nil {
		t.Error("scoping reference must be left to the caller")
	}
}

func TestDraftRecurringBadContent(t *testing.T) {
	srv := stubServer(t, `not json`)
	defer srv.Close()

	c := New("key", srv.URL, "test-model")
	if _, err := c.DraftRecurring(context.Background(), "something", time.Now()); err == nil {
		t.Fatal("expected an error for unparseable model output")
	}
}
