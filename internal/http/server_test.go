package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

type fakeService struct {
	mu       sync.Mutex
	created  []core.NewExpense
	deleted  []int64
	expenses []core.Expense
	totals   []core.CategoryTotal
	err      error
	pingErr  error
}

func (f *fakeService) Create(_ context.Context, e core.NewExpense) (core.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return core.Expense{}, f.err
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	f.created = append(f.created, e)
	return core.Expense{ID: int64(len(f.created)), Amount: e.Amount, Category: e.Category, Description: e.Description, Date: *e.Date}, nil
}

func (f *fakeService) List(context.Context) ([]core.Expense, error) {
	return f.expenses, f.err
}

func (f *fakeService) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeService) Summary(context.Context) ([]core.CategoryTotal, error) {
	return f.totals, f.err
}

func (f *fakeService) Ping(context.Context) error { return f.pingErr }

func newTestServer(svc ExpenseService) *Server {
	logger := applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard})
	return NewServer(":0", svc, Options{
		AllowedOrigins: []string{"http://localhost:5173"},
		Logger:         logger,
	})
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

func TestCreateExpense(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(svc)

	rr := do(t, srv, http.MethodPost, "/api/expenses",
		`{"amount": 12.5, "category": "food", "description": "lunch", "date": "2024-03-01"}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"message":"Expense added successfully"}`, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	require.Len(t, svc.created, 1)
	got := svc.created[0]
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "food", *got.Category)
	assert.Equal(t, "lunch", *got.Description)
	assert.Equal(t, "2024-03-01", got.Date.String())
}

func TestCreateExpenseAmountForms(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"number", `{"amount": 0.1, "category": "a", "description": "b", "date": "2024-01-01"}`, "0.1"},
		{"numeric string", `{"amount": "12345678901234567.89", "category": "a", "description": "b", "date": "2024-01-01"}`, "12345678901234567.89"},
		{"trailing whitespace", "{\"amount\": 3, \"category\": \"a\", \"description\": \"b\", \"date\": \"2024-01-01\"}\n\t ", "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			rr := do(t, newTestServer(svc), http.MethodPost, "/api/expenses", tt.body)

			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			require.Len(t, svc.created, 1)
			assert.Equal(t, tt.want, svc.created[0].Amount.String())
		})
	}
}

func TestAmountUnmarshalError(t *testing.T) {
	var a Amount
	err := json.Unmarshal([]byte(`"ten"`), &a)
	assert.ErrorIs(t, err, ErrAmountNotNumber)

	require.NoError(t, json.Unmarshal([]byte(`-4.25`), &a))
	assert.Equal(t, "-4.25", a.String())
}

func TestCreateExpenseClientErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantField string
	}{
		{"empty body", "", http.StatusBadRequest, ""},
		{"malformed json", `{"amount": 1,`, http.StatusBadRequest, ""},
		{"missing amount", `{"category":"a","description":"b","date":"2024-01-01"}`, http.StatusUnprocessableEntity, "amount"},
		{"missing date", `{"amount":1,"category":"a","description":"b"}`, http.StatusUnprocessableEntity, "date"},
		{"trailing data", `{"amount":1,"category":"a","description":"b","date":"2024-01-01"}garbage`, http.StatusBadRequest, ""},
		{"second object", `{"amount":1,"category":"a","description":"b","date":"2024-01-01"} {}`, http.StatusBadRequest, ""},
		{"mistyped amount", `{"amount":"ten","category":"a","description":"b","date":"2024-01-01"}`, http.StatusUnprocessableEntity, "amount"},
		{"amount object", `{"amount":{"v":1},"category":"a","description":"b","date":"2024-01-01"}`, http.StatusUnprocessableEntity, "amount"},
		{"amount bool", `{"amount":true,"category":"a","description":"b","date":"2024-01-01"}`, http.StatusUnprocessableEntity, "amount"},
		{"mistyped category", `{"amount":1,"category":7,"description":"b","date":"2024-01-01"}`, http.StatusUnprocessableEntity, "category"},
		{"bad date", `{"amount":1,"category":"a","description":"b","date":"2024-13-01"}`, http.StatusUnprocessableEntity, "date"},
		{"long category", fmt.Sprintf(`{"amount":1,"category":%q,"description":"b","date":"2024-01-01"}`, strings.Repeat("x", 51)), http.StatusUnprocessableEntity, "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			rr := do(t, newTestServer(svc), http.MethodPost, "/api/expenses", tt.body)

			assert.Equal(t, tt.wantCode, rr.Code, rr.Body.String())
			body := decodeBody[ErrorBody](t, rr)
			assert.NotEmpty(t, body.Error)
			if tt.wantField != "" {
				assert.Contains(t, body.Fields, tt.wantField)
			}
			assert.Empty(t, svc.created)
		})
	}
}

func TestStorageFailuresAreServerErrors(t *testing.T) {
	svc := &fakeService{err: fmt.Errorf("%w: connection refused", core.ErrStorage)}
	srv := newTestServer(svc)

	requests := []struct{ method, path, body string }{
		{http.MethodPost, "/api/expenses", `{"amount":1,"category":"a","description":"b","date":"2024-01-01"}`},
		{http.MethodGet, "/api/expenses", ""},
		{http.MethodDelete, "/api/expenses/1", ""},
		{http.MethodGet, "/api/expenses/summary", ""},
	}
	for _, r := range requests {
		rr := do(t, srv, r.method, r.path, r.body)
		assert.Equal(t, http.StatusInternalServerError, rr.Code, "%s %s", r.method, r.path)
		assert.JSONEq(t, `{"error":"internal server error"}`, rr.Body.String())
	}
}

func TestListExpenses(t *testing.T) {
	t.Run("empty list is an empty array", func(t *testing.T) {
		rr := do(t, newTestServer(&fakeService{}), http.MethodGet, "/api/expenses", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "[]\n", rr.Body.String())
	})

	t.Run("fields and nulls", func(t *testing.T) {
		svc := &fakeService{expenses: []core.Expense{
			{ID: 2, Amount: decimal.RequireFromString("20.00"), Category: core.StringPtr("travel"), Date: core.NewDate(2024, 1, 3)},
			{ID: 1, Amount: decimal.RequireFromString("9.5"), Description: core.StringPtr("misc"), Date: core.NewDate(2024, 1, 1)},
		}}
		rr := do(t, newTestServer(svc), http.MethodGet, "/api/expenses/", "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[
			{"id":2,"amount":20.00,"category":"travel","description":null,"date":"2024-01-03"},
			{"id":1,"amount":9.5,"category":null,"description":"misc","date":"2024-01-01"}
		]`, rr.Body.String())
	})
}

func TestDeleteExpense(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(svc)

	for i := 0; i < 2; i++ {
		rr := do(t, srv, http.MethodDelete, "/api/expenses/42", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"message":"Expense deleted successfully"}`, rr.Body.String())
	}
	assert.Equal(t, []int64{42, 42}, svc.deleted)

	rr := do(t, srv, http.MethodDelete, "/api/expenses/abc", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Len(t, svc.deleted, 2)
}

func TestSummary(t *testing.T) {
	svc := &fakeService{totals: []core.CategoryTotal{
		{Category: core.StringPtr("food"), Total: decimal.NewFromInt(15)},
		{Category: nil, Total: decimal.RequireFromString("3.25")},
	}}
	rr := do(t, newTestServer(svc), http.MethodGet, "/api/expenses/summary", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[["food",15],[null,3.25]]`, rr.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	rr := do(t, newTestServer(&fakeService{}), http.MethodPut, "/api/expenses/1", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(&fakeService{})

	t.Run("allowed origin preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/expenses", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "content-type")
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, req)

		assert.Less(t, rr.Code, 300)
		assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("allowed origin simple request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("other origin gets no grant", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
		req.Header.Set("Origin", "http://evil.example")
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, req)

		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestHealthAndReadiness(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(svc)

	rr := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	svc.pingErr = errors.New("database is locked")
	rr = do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestIndexAndStatic(t *testing.T) {
	srv := newTestServer(&fakeService{})

	rr := do(t, srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<h1>Expense Tracker</h1>")
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))

	rr = do(t, srv, http.MethodGet, "/static/app.js", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Cache-Control"), "max-age=3600")
}

func TestRequestIDAndMetrics(t *testing.T) {
	srv := newTestServer(&fakeService{err: core.ErrStorage})

	req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))

	rr = do(t, srv, http.MethodGet, "/healthz", "")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	m := srv.Metrics()
	assert.Equal(t, int64(2), m.TotalRequests)
	assert.Equal(t, int64(1), m.ServerErrors)
}

func TestJSONResponseBuilder(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusCreated).Header("X-Test", "1").Body(map[string]int{"n": 1}).Write(rr)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-Test"))
	assert.True(t, bytes.HasSuffix(rr.Body.Bytes(), []byte("\n")))
	assert.JSONEq(t, `{"n":1}`, rr.Body.String())

	rr = httptest.NewRecorder()
	NewJSONResponse().Body(func() {}).Write(rr)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
