package adminapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/toughpos/config"
	"github.com/talkincode/toughpos/internal/app"
	"github.com/talkincode/toughpos/internal/domain"
	"github.com/talkincode/toughpos/internal/service"
	"github.com/talkincode/toughpos/internal/webserver"
	"github.com/talkincode/toughpos/pkg/metrics"
)

type envelope struct {
	Data    json.RawMessage        `json:"data"`
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details"`
}

func setupAPI(t *testing.T) *app.Application {
	t.Helper()
	cfg := *config.DefaultAppConfig
	cfg.System.Workdir = t.TempDir()
	a := app.NewApplication(&cfg)
	require.NoError(t, a.InitStore())
	t.Cleanup(a.Release)
	webserver.Init(a)
	Init()
	return a
}

func call(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	webserver.Echo().ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func createWidget(t *testing.T, stock int) domain.Product {
	t.Helper()
	rec, env := call(t, http.MethodPost, "/api/products", `{"name":"Widget","price":1000,"stock":`+itoa(stock)+`}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[domain.Product](t, env)
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestProductCRUD(t *testing.T) {
	setupAPI(t)

	p := createWidget(t, 5)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, "1000", p.Price.String())

	rec, env := call(t, http.MethodGet, "/api/products/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Widget", decode[domain.Product](t, env).Name)

	rec, env = call(t, http.MethodPut, "/api/products/1", `{"name":"Gadget","stock":7}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[domain.Product](t, env)
	assert.Equal(t, "Gadget", updated.Name)
	assert.Equal(t, 7, updated.Stock)
	assert.Equal(t, "1000", updated.Price.String())

	_, env = call(t, http.MethodGet, "/api/products?search=adg", "")
	assert.Len(t, decode[[]domain.Product](t, env), 1)
	_, env = call(t, http.MethodGet, "/api/products?search=widget", "")
	assert.Empty(t, decode[[]domain.Product](t, env))

	rec, _ = call(t, http.MethodDelete, "/api/products/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = call(t, http.MethodGet, "/api/products/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "PRODUCT_NOT_FOUND", env.Error)

	rec, _ = call(t, http.MethodDelete, "/api/products/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductValidation(t *testing.T) {
	setupAPI(t)
	createWidget(t, 5)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"missing price", http.MethodPost, "/api/products", `{"name":"Pen","stock":1}`, 422, "VALIDATION_ERROR"},
		{"negative stock", http.MethodPost, "/api/products", `{"name":"Pen","price":1,"stock":-1}`, 422, "VALIDATION_ERROR"},
		{"negative price", http.MethodPost, "/api/products", `{"name":"Pen","price":-1,"stock":1}`, 422, "VALIDATION_ERROR"},
		{"delimiter in name", http.MethodPost, "/api/products", `{"name":"Pen|Red","price":1,"stock":1}`, 422, "VALIDATION_ERROR"},
		{"duplicate name", http.MethodPost, "/api/products", `{"name":"widget","price":1,"stock":1}`, 422, "VALIDATION_ERROR"},
		{"malformed json", http.MethodPost, "/api/products", `{"name":`, 400, "INVALID_REQUEST"},
		{"empty update", http.MethodPut, "/api/products/1", `{}`, 422, "VALIDATION_ERROR"},
		{"bad id", http.MethodGet, "/api/products/abc", "", 400, "INVALID_ID"},
		{"update unknown", http.MethodPut, "/api/products/9", `{"stock":1}`, 404, "PRODUCT_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := call(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, env.Error)
		})
	}
}

func TestLowStockEndpoint(t *testing.T) {
	setupAPI(t)
	createWidget(t, 5)
	call(t, http.MethodPost, "/api/products", `{"name":"Pen","price":2500,"stock":10}`)

	rec, env := call(t, http.MethodGet, "/api/products/low-stock", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Threshold int              `json:"threshold"`
		Products  []domain.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, 10, out.Threshold)
	require.Len(t, out.Products, 1)
	assert.Equal(t, "Widget", out.Products[0].Name)
}

func TestCheckoutScenarios(t *testing.T) {
	setupAPI(t)
	createWidget(t, 5)

	rec, env := call(t, http.MethodPost, "/api/transactions", `{"items":[{"product_id":1,"qty":3}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tx := decode[domain.Transaction](t, env)
	assert.Equal(t, "TRX001", tx.ID)
	assert.Equal(t, "3000", tx.Total.String())
	assert.Equal(t, "admin", tx.Cashier)

	_, env = call(t, http.MethodGet, "/api/products/1", "")
	assert.Equal(t, 2, decode[domain.Product](t, env).Stock)

	rec, env = call(t, http.MethodPost, "/api/transactions", `{"items":[{"product_id":1,"qty":10}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "INSUFFICIENT_STOCK", env.Error)
	assert.EqualValues(t, 2, env.Details["available"])

	rec, env = call(t, http.MethodPost, "/api/transactions", `{"items":[{"product_id":99,"qty":1}]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "PRODUCT_NOT_FOUND", env.Error)

	rec, _ = call(t, http.MethodPost, "/api/transactions", `{"items":[]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec, _ = call(t, http.MethodPost, "/api/transactions", `{"items":[{"product_id":1,"qty":0}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	_, env = call(t, http.MethodGet, "/api/transactions", "")
	assert.Len(t, decode[[]domain.Transaction](t, env), 1)

	rec, env = call(t, http.MethodGet, "/api/transactions/trx001", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "TRX001", decode[domain.Transaction](t, env).ID)

	rec, env = call(t, http.MethodGet, "/api/transactions/TRX002", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "TRANSACTION_NOT_FOUND", env.Error)
}

func TestReportsAndDashboard(t *testing.T) {
	setupAPI(t)
	createWidget(t, 5)
	call(t, http.MethodPost, "/api/transactions", `{"items":[{"product_id":1,"qty":2}],"cashier":"siti"}`)

	_, env := call(t, http.MethodGet, "/api/transactions/today", "")
	assert.Len(t, decode[[]domain.Transaction](t, env), 1)

	_, env = call(t, http.MethodGet, "/api/transactions/report/today", "")
	today := decode[service.DailyReport](t, env)
	assert.Equal(t, 1, today.TotalTransactions)
	assert.Equal(t, "2000", today.TotalRevenue.String())
	assert.Equal(t, 2, today.ItemsSold)

	rec, env := call(t, http.MethodGet, "/api/reports/daily?target_date=2001-02-03", "")
	require.Equal(t, http.StatusOK, rec.Code)
	old := decode[service.DailyReport](t, env)
	assert.Equal(t, "2001-02-03", old.Date)
	assert.Zero(t, old.TotalTransactions)

	rec, env = call(t, http.MethodGet, "/api/reports/daily?target_date=not-a-date", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error)

	_, env = call(t, http.MethodGet, "/api/dashboard/stats", "")
	stats := decode[service.DashboardStats](t, env)
	assert.Equal(t, 1, stats.TotalProducts)
	assert.Equal(t, 1, stats.TodayTransactions)
	assert.Equal(t, 1, stats.LowStockCount)
	assert.Len(t, stats.RecentTransactions, 1)
}

func TestTransactionDateFilter(t *testing.T) {
	setupAPI(t)
	createWidget(t, 5)
	call(t, http.MethodPost, "/api/transactions", `{"items":[{"product_id":1,"qty":1}]}`)

	today := time.Now().Format("2006-01-02")
	_, env := call(t, http.MethodGet, "/api/transactions?start_date="+today+"&end_date="+today, "")
	assert.Len(t, decode[[]domain.Transaction](t, env), 1)

	_, env = call(t, http.MethodGet, "/api/transactions?end_date=2001-01-01", "")
	assert.Empty(t, decode[[]domain.Transaction](t, env))

	rec, _ := call(t, http.MethodGet, "/api/transactions?start_date=2024-03-10&end_date=2024-03-01", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestExportCSV(t *testing.T) {
	setupAPI(t)
	createWidget(t, 5)
	call(t, http.MethodPost, "/api/transactions", `{"items":[{"product_id":1,"qty":2}]}`)

	rec, _ := call(t, http.MethodGet, "/api/transactions/export?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "transactions_all.csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "TRX001,"))
	assert.True(t, strings.HasSuffix(lines[1], ",1,Widget,2,1000,2000,2000"))

	rec, env := call(t, http.MethodGet, "/api/transactions/export?format=pdf", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error)
}

func TestSystemEndpoints(t *testing.T) {
	setupAPI(t)

	rec, env := call(t, http.MethodGet, "/api/checkout/pending", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", string(env.Data))

	rec, env = call(t, http.MethodGet, "/api/metrics/pos_checkout_count?minutes=5", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", string(env.Data))

	rec, env = call(t, http.MethodGet, "/api/metrics/pos_checkout_count?minutes=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_MINUTES", env.Error)

	rec, _ = call(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestUnknownAPIRouteUsesEnvelope(t *testing.T) {
	setupAPI(t)
	rec, env := call(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", env.Error)
}

func TestMetricsEndpointReturnsCheckoutSeries(t *testing.T) {
	require.NoError(t, metrics.InitMemoryMetrics())
	t.Cleanup(func() { _ = metrics.Close() })
	setupAPI(t)
	p := createWidget(t, 5)

	rec, _ := call(t, http.MethodPost, "/api/transactions",
		`{"items":[{"product_id":`+itoa(int(p.ID))+`,"qty":2}],"cashier":"siti"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	series := func(path string) []metrics.Point {
		rec, env := call(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code)
		return decode[[]metrics.Point](t, env)
	}
	assert.Eventually(t, func() bool {
		return len(series("/api/metrics/pos_checkout_items?minutes=5&cashier=siti")) == 1
	}, 2*time.Second, 20*time.Millisecond)

	assert.Len(t, series("/api/metrics/pos_checkout_count?minutes=5"), 1)
	points := series("/api/metrics/pos_checkout_items?cashier=siti")
	require.Len(t, points, 1)
	assert.Equal(t, 2.0, points[0].Value)
	assert.Empty(t, series("/api/metrics/pos_checkout_items?cashier=budi"))
	assert.NotEmpty(t, series("/api/metrics/storage_read_ms?file=stok.txt"))
}
