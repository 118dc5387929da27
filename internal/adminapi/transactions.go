package adminapi

import (
	"bytes"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/toughpos/internal/domain"
	"github.com/talkincode/toughpos/internal/export"
	"github.com/talkincode/toughpos/internal/webserver"
)

var (
	rangeFloor   = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	rangeCeiling = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
)

func registerTransactionRoutes() {
	webserver.ApiGET("/transactions", listTransactions)
	webserver.ApiGET("/transactions/today", listTodayTransactions)
	webserver.ApiGET("/transactions/report/today", todayReport)
	webserver.ApiGET("/transactions/export", exportTransactions)
	webserver.ApiGET("/transactions/:id", getTransaction)
	webserver.ApiPOST("/transactions", checkout)
}

// dateRange reads start_date and end_date. A missing bound leaves that side open.
func dateRange(c echo.Context) (start, end time.Time, filtered bool, err error) {
	loc := GetAppContext(c).ReportService().Location()
	if start, err = parseDateParam(c, "start_date", loc); err != nil {
		return
	}
	if end, err = parseDateParam(c, "end_date", loc); err != nil {
		return
	}
	filtered = !start.IsZero() || !end.IsZero()
	if start.IsZero() {
		start = rangeFloor.In(loc)
	}
	if end.IsZero() {
		end = rangeCeiling.In(loc)
	}
	if end.Before(start) {
		err = domain.NewValidationError("end_date", "end_date must not be before start_date")
	}
	return
}

// @Summary List transactions, newest first
// @Tags Transaction
// @Param start_date query string false "First day (inclusive)"
// @Param end_date query string false "Last day (inclusive)"
// @Success 200 {object} Response
// @Router /transactions [get]
func listTransactions(c echo.Context) error {
	appCtx := GetAppContext(c)
	start, end, filtered, err := dateRange(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	var txs []domain.Transaction
	if filtered {
		txs, err = appCtx.ReportService().Range(start, end)
	} else {
		txs, err = appCtx.TransactionService().List()
	}
	if err != nil {
		return handleServiceError(c, err)
	}
	return ok(c, txs)
}

// @Summary Today's transactions
// @Tags Transaction
// @Success 200 {object} Response
// @Router /transactions/today [get]
func listTodayTransactions(c echo.Context) error {
	report, err := GetAppContext(c).ReportService().Today()
	if err != nil {
		return handleServiceError(c, err)
	}
	return ok(c, report.Transactions)
}

// @Summary Today's sales report
// @Tags Transaction
// @Success 200 {object} Response
// @Router /transactions/report/today [get]
func todayReport(c echo.Context) error {
	report, err := GetAppContext(c).ReportService().Today()
	if err != nil {
		return handleServiceError(c, err)
	}
	return ok(c, report)
}

// @Summary Get transaction
// @Tags Transaction
// @Param id path string true "Transaction ID"
// @Success 200 {object} Response
// @Failure 404 {object} ErrorResponse
// @Router /transactions/{id} [get]
func getTransaction(c echo.Context) error {
	tx, err := GetAppContext(c).TransactionService().Get(c.Param("id"))
	if err != nil {
		return handleServiceError(c, err)
	}
	return ok(c, tx)
}

// @Summary Checkout
// @Tags Transaction
// @Param checkout body domain.CheckoutRequest true "Cart"
// @Success 201 {object} Response
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /transactions [post]
func checkout(c echo.Context) error {
	var req domain.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse checkout parameters", nil)
	}
	if err := c.Validate(&req); err != nil {
		return handleValidationError(c, err)
	}
	tx, err := GetAppContext(c).TransactionService().Checkout(c.Request().Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}
	return created(c, tx)
}

// @Summary Export transactions as xlsx or csv
// @Tags Transaction
// @Param format query string false "xlsx (default) or csv"
// @Param start_date query string false "First day (inclusive)"
// @Param end_date query string false "Last day (inclusive)"
// @Router /transactions/export [get]
func exportTransactions(c echo.Context) error {
	appCtx := GetAppContext(c)
	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return handleServiceError(c, err)
	}
	start, end, filtered, err := dateRange(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	reports := appCtx.ReportService()
	txs, err := reports.Range(start, end)
	if err != nil {
		return handleServiceError(c, err)
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, txs, reports.Location()); err != nil {
		return handleServiceError(c, err)
	}
	name := "transactions_all." + string(format)
	if filtered {
		name = format.FileName(start, end)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}
