package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"expensetracker/internal/core"
)

// JSONResponseBuilder provides a fluent API for writing JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a response header.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value to encode.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Message sets a {"message": ...} acknowledgement body.
func (b *JSONResponseBuilder) Message(msg string) *JSONResponseBuilder {
	return b.Body(MessageResponse{Message: msg})
}

// Write encodes the body and sends the response.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	data, err := json.Marshal(b.body)
	if err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(data, '\n'))
}

// MessageResponse acknowledges a write.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ExpenseResponse is one element of GET /api/expenses.
type ExpenseResponse struct {
	ID          int64       `json:"id"`
	Amount      json.Number `json:"amount"`
	Category    *string     `json:"category"`
	Description *string     `json:"description"`
	Date        string      `json:"date"`
}

// NewExpenseResponse converts a stored expense. Amounts keep their exact
// decimal text and are emitted as JSON numbers.
func NewExpenseResponse(e core.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		Amount:      json.Number(e.Amount.String()),
		Category:    e.Category,
		Description: e.Description,
		Date:        e.Date.String(),
	}
}

// NewSummaryResponse renders totals as [category, total] pairs; an
// uncategorised group has a null category.
func NewSummaryResponse(totals []core.CategoryTotal) [][2]any {
	out := make([][2]any, 0, len(totals))
	for _, ct := range totals {
		var category any
		if ct.Category != nil {
			category = *ct.Category
		}
		out = append(out, [2]any{category, json.Number(ct.Total.String())})
	}
	return out
}

// ErrorResponse creates a builder for an error body.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{Error: message})
}

// RequestErrorResponse renders a client error with its field detail.
func RequestErrorResponse(err *RequestError) *JSONResponseBuilder {
	return NewJSONResponse().Status(err.Status).Body(ErrorBody{Error: err.Message, Fields: err.Fields})
}

// InternalServerError hides the cause from the caller.
func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal server error")
}
