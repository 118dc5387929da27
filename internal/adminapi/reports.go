package adminapi

import (
	"github.com/labstack/echo/v4"
	"github.com/talkincode/toughpos/internal/webserver"
)

func registerReportRoutes() {
	webserver.ApiGET("/reports/daily", dailyReport)
	webserver.ApiGET("/dashboard/stats", dashboardStats)
}

// @Summary Daily sales report
// @Tags Report
// @Param target_date query string false "Day, defaults to today"
// @Success 200 {object} Response
// @Failure 422 {object} ErrorResponse
// @Router /reports/daily [get]
func dailyReport(c echo.Context) error {
	reports := GetAppContext(c).ReportService()
	day, err := parseDateParam(c, "target_date", reports.Location())
	if err != nil {
		return handleServiceError(c, err)
	}
	if day.IsZero() {
		report, err := reports.Today()
		if err != nil {
			return handleServiceError(c, err)
		}
		return ok(c, report)
	}
	report, err := reports.Daily(day)
	if err != nil {
		return handleServiceError(c, err)
	}
	return ok(c, report)
}

// @Summary Dashboard figures
// @Tags Report
// @Success 200 {object} Response
// @Router /dashboard/stats [get]
func dashboardStats(c echo.Context) error {
	stats, err := GetAppContext(c).ReportService().Dashboard(c.Request().Context())
	if err != nil {
		return handleServiceError(c, err)
	}
	return ok(c, stats)
}
