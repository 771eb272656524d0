package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

const (
	msgExpenseAdded   = "Expense added successfully"
	msgExpenseDeleted = "Expense deleted successfully"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	input, err := DecodeCreateExpense(r)
	if err != nil {
		s.writeClientError(w, r, err)
		return
	}

	created, err := s.svc.Create(r.Context(), input)
	if err != nil {
		s.writeServiceError(w, r, err, applog.OpCreate)
		return
	}

	s.audit.LogExpenseCreated(r.Context(), created)
	NewJSONResponse().Message(msgExpenseAdded).Write(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.svc.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, applog.OpList)
		return
	}

	out := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, NewExpenseResponse(e))
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParseExpenseID(r)
	if err != nil {
		s.writeClientError(w, r, err)
		return
	}

	if err := s.svc.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err, applog.OpDelete)
		return
	}

	s.audit.LogExpenseDeleted(r.Context(), id)
	NewJSONResponse().Message(msgExpenseDeleted).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	totals, err := s.svc.Summary(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, applog.OpSummarize)
		return
	}
	NewJSONResponse().Body(NewSummaryResponse(totals)).Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.svc.Ping(ctx); err != nil {
		applog.FromContext(r.Context()).WarnContext(ctx, "Readiness check failed", applog.FieldError, err.Error())
		NewJSONResponse().Status(http.StatusServiceUnavailable).Body(map[string]string{"status": "unavailable"}).Write(w)
		return
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}

func (s *Server) writeClientError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Rejected request payload",
			applog.FieldError, reqErr.Error(), applog.FieldErrorType, applog.ErrorTypeValidation)
		RequestErrorResponse(reqErr).Write(w)
		return
	}
	ErrorResponse(http.StatusBadRequest, "bad request").Write(w)
}

// writeServiceError maps domain validation errors to 422 and everything
// else, storage failures included, to 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, core.ErrCategoryTooLong):
		RequestErrorResponse(&RequestError{
			Status:  http.StatusUnprocessableEntity,
			Message: "validation failed",
			Fields:  map[string]string{"category": err.Error()},
		}).Write(w)
	case errors.Is(err, core.ErrInvalidDate):
		RequestErrorResponse(&RequestError{
			Status:  http.StatusUnprocessableEntity,
			Message: "validation failed",
			Fields:  map[string]string{"date": err.Error()},
		}).Write(w)
	default:
		errorType := applog.ErrorTypeInternal
		if errors.Is(err, core.ErrStorage) {
			errorType = applog.ErrorTypeDatabase
		}
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Expense operation failed", err, errorType, op, nil)
		InternalServerError().Write(w)
	}
}
