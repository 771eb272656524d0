// Package http provides the JSON API, its middleware chain and the
// embedded UI.
//
// This file turns request bodies and path values into typed store
// arguments. Decoding failures and schema violations are reported as
// *RequestError so handlers can map them to 400 and 422 responses.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

// maxBodyBytes bounds request bodies; an expense is a few hundred bytes.
const maxBodyBytes = 64 << 10

// CreateExpenseRequest is the payload schema of POST /api/expenses.
// Pointer fields distinguish a missing key from a zero value.
type CreateExpenseRequest struct {
	Amount      *Amount `json:"amount" validate:"required"`
	Category    *string `json:"category" validate:"required,max=50"`
	Description *string `json:"description" validate:"required"`
	Date        *string `json:"date" validate:"required,datetime=2006-01-02"`
}

// ErrAmountNotNumber is returned while decoding an amount that is neither
// a JSON number nor a numeric string.
var ErrAmountNotNumber = errors.New("amount must be a number")

// Amount is an exact decimal decoded from a JSON number or numeric string.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	if err := a.Decimal.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %w", ErrAmountNotNumber, err)
	}
	return nil
}

// RequestError is a client error with optional per-field detail.
type RequestError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *RequestError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names so field errors match the payload keys.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeCreateExpense parses and validates a create payload.
func DecodeCreateExpense(r *http.Request) (core.NewExpense, error) {
	var req CreateExpenseRequest

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return core.NewExpense{}, decodeError(err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return core.NewExpense{}, &RequestError{Status: http.StatusBadRequest, Message: "unexpected data after JSON body"}
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return core.NewExpense{}, validationError(verrs)
		}
		return core.NewExpense{}, fmt.Errorf("validate request: %w", err)
	}

	date, err := core.ParseDate(*req.Date)
	if err != nil {
		return core.NewExpense{}, &RequestError{
			Status:  http.StatusUnprocessableEntity,
			Message: "validation failed",
			Fields:  map[string]string{"date": "must be a valid date (YYYY-MM-DD)"},
		}
	}

	return core.NewExpense{
		Amount:      req.Amount.Decimal,
		Category:    req.Category,
		Description: req.Description,
		Date:        &date,
	}, nil
}

// ParseExpenseID reads the {id} path value.
func ParseExpenseID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &RequestError{
			Status:  http.StatusUnprocessableEntity,
			Message: "validation failed",
			Fields:  map[string]string{"id": "must be an integer"},
		}
	}
	return id, nil
}

func decodeError(err error) *RequestError {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return &RequestError{Status: http.StatusBadRequest, Message: "request body is empty"}
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return &RequestError{
			Status:  http.StatusUnprocessableEntity,
			Message: "validation failed",
			Fields:  map[string]string{typeErr.Field: "must be a " + jsonTypeName(typeErr.Type)},
		}
	case errors.Is(err, ErrAmountNotNumber):
		return &RequestError{
			Status:  http.StatusUnprocessableEntity,
			Message: "validation failed",
			Fields:  map[string]string{"amount": "must be a number"},
		}
	default:
		return &RequestError{Status: http.StatusBadRequest, Message: "malformed JSON body"}
	}
}

func validationError(verrs validator.ValidationErrors) *RequestError {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = "field required"
		case "max":
			fields[fe.Field()] = "must be at most " + fe.Param() + " characters"
		case "datetime":
			fields[fe.Field()] = "must be a date in YYYY-MM-DD format"
		default:
			fields[fe.Field()] = "failed " + fe.Tag() + " check"
		}
	}
	return &RequestError{Status: http.StatusUnprocessableEntity, Message: "validation failed", Fields: fields}
}

func jsonTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int64, reflect.Float64:
		return "number"
	default:
		if t == reflect.TypeOf(Amount{}) {
			return "number"
		}
		return t.Kind().String()
	}
}
