package api

import "net/http"

// pingHandler handles GET /ping
func pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// NewRouter returns the HTTP handler for the whole API.
func NewRouter(recurring *RecurringController) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", pingHandler)

	mux.HandleFunc("GET /api/recurring-transactions", recurring.List)
	mux.HandleFunc("POST /api/recurring-transactions", recurring.Create)
	mux.HandleFunc("GET /api/recurring-transactions/due", recurring.Due)
	mux.HandleFunc("POST /api/recurring-transactions/process-due", recurring.ProcessDue)
	mux.HandleFunc("POST /api/recurring-transactions/regenerate-instances", recurring.Regenerate)
	mux.HandleFunc("POST /api/recurring-transactions/draft", recurring.Draft)

	mux.HandleFunc("GET /api/recurring-transactions/{id}", recurring.Get)
	mux.HandleFunc("PUT /api/recurring-transactions/{id}", recurring.Update)
	mux.HandleFunc("DELETE /api/recurring-transactions/{id}", recurring.Delete)
	mux.HandleFunc("POST /api/recurring-transactions/{id}/process", recurring.Process)
	mux.HandleFunc("GET /api/recurring-transactions/{id}/instances", recurring.Instances)
	mux.HandleFunc("GET /api/recurring-transactions/{id}/preview", recurring.Preview)
	mux.HandleFunc("GET /api/recurring-transactions/{id}/rrule", recurring.RRule)

	return logRequests(mux)
}
