package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/hray3182/Ledgerline/internal/apperr"
	"github.com/hray3182/Ledgerline/internal/models"
	"github.com/hray3182/Ledgerline/internal/scheduler"
	"github.com/hray3182/Ledgerline/internal/service"
)

// RecurringService is what the controller needs from the service layer.
type RecurringService interface {
	Create(ctx context.Context, req *models.CreateRecurringTransactionRequest) (*models.RecurringTransaction, error)
	Get(ctx context.Context, id int) (*models.RecurringTransaction, error)
	List(ctx context.Context, module models.Module) ([]*models.RecurringTransaction, error)
	Update(ctx context.Context, id int, req *models.UpdateRecurringTransactionRequest) (*models.RecurringTransaction, error)
	Delete(ctx context.Context, id int) error
	Due(ctx context.Context) ([]*models.RecurringTransaction, error)
	Process(ctx context.Context, id int) (*scheduler.ProcessResult, error)
	ProcessDue(ctx context.Context) (*scheduler.BatchResult, error)
	Regenerate(ctx context.Context) (int, error)
	Instances(ctx context.Context, id int) ([]*models.Transaction, error)
	Preview(ctx context.Context, id, count int) ([]models.Date, error)
	RRule(ctx context.Context, id int) (*service.RRuleExport, error)
	Draft(ctx context.Context, text string) (*models.CreateRecurringTransactionRequest, error)
}

var _ RecurringService = (*service.RecurringService)(nil)

// RecurringController handles HTTP requests for recurring transactions
type RecurringController struct {
	service RecurringService
}

func NewRecurringController(svc RecurringService) *RecurringController {
	return &RecurringController{service: svc}
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 1 {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:  "invalid id",
			Fields: map[string]string{"id": "must be a positive integer"},
		})
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Printf("❌ Failed to decode request body for %s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return false
	}
	return true
}

// List handles GET /api/recurring-transactions?module=<module>
func (c *RecurringController) List(w http.ResponseWriter, r *http.Request) {
	module := models.Module(r.URL.Query().Get("module"))

	list, err := c.service.List(r.Context(), module)
	if err != nil {
		writeServiceError(w, "ListRecurring", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Due handles GET /api/recurring-transactions/due
func (c *RecurringController) Due(w http.ResponseWriter, r *http.Request) {
	due, err := c.service.Due(r.Context())
	if err != nil {
		writeServiceError(w, "DueRecurring", err)
		return
	}
	writeJSON(w, http.StatusOK, due)
}

// Get handles GET /api/recurring-transactions/{id}
func (c *RecurringController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	t, err := c.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, "GetRecurring", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Create handles POST /api/recurring-transactions
// Example request:
//
//	{
//	  "name": "Rent",
//	  "type": "expense",
//	  "amount": "1200.00",
//	  "module": "real-estate",
//	  "propertyId": 4,
//	  "frequency": "monthly",
//	  "intervalCount": 1,
//	  "startDate": "2025-01-01",
//	  "totalOccurrences": 12
//	}
func (c *RecurringController) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRecurringTransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	t, err := c.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, "CreateRecurring", err)
		return
	}

	log.Printf("✅ CreateRecurring: created id=%d", t.ID)
	writeJSON(w, http.StatusCreated, t)
}

// Update handles PUT /api/recurring-transactions/{id}. Only fields present in
// the body change.
func (c *RecurringController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.UpdateRecurringTransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	t, err := c.service.Update(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, "UpdateRecurring", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Delete handles DELETE /api/recurring-transactions/{id}
func (c *RecurringController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := c.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, "DeleteRecurring", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Process handles POST /api/recurring-transactions/{id}/process
func (c *RecurringController) Process(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	res, err := c.service.Process(r.Context(), id)
	if err != nil {
		writeServiceError(w, "ProcessRecurring", err)
		return
	}

	log.Printf("✅ ProcessRecurring: id=%d occurrence=%d", id, res.Template.CurrentOccurrence)
	writeJSON(w, http.StatusOK, res)
}

// ProcessDue handles POST /api/recurring-transactions/process-due
func (c *RecurringController) ProcessDue(w http.ResponseWriter, r *http.Request) {
	res, err := c.service.ProcessDue(r.Context())
	if err != nil {
		writeServiceError(w, "ProcessDue", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Regenerate handles POST /api/recurring-transactions/regenerate-instances
func (c *RecurringController) Regenerate(w http.ResponseWriter, r *http.Request) {
	n, err := c.service.Regenerate(r.Context())
	if err != nil {
		writeServiceError(w, "RegenerateInstances", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"regenerated": n})
}

// Instances handles GET /api/recurring-transactions/{id}/instances
func (c *RecurringController) Instances(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rows, err := c.service.Instances(r.Context(), id)
	if err != nil {
		writeServiceError(w, "ListInstances", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// Preview handles GET /api/recurring-transactions/{id}/preview?count=N
func (c *RecurringController) Preview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	count := 0
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeServiceError(w, "PreviewRecurring", apperr.Invalid("count", "must be an integer"))
			return
		}
		count = n
	}

	dates, err := c.service.Preview(r.Context(), id, count)
	if err != nil {
		writeServiceError(w, "PreviewRecurring", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": dates})
}

// RRule handles GET /api/recurring-transactions/{id}/rrule
func (c *RecurringController) RRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	export, err := c.service.RRule(r.Context(), id)
	if err != nil {
		writeServiceError(w, "ExportRRule", err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

// Draft handles POST /api/recurring-transactions/draft with {"text": "..."}.
// The draft is returned for review and is not saved.
func (c *RecurringController) Draft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	draft, err := c.service.Draft(r.Context(), req.Text)
	if err != nil {
		writeServiceError(w, "DraftRecurring", err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}
