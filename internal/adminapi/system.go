package adminapi

import (
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/bytes"
	"github.com/nakabonne/tstorage"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/spf13/cast"
	"github.com/talkincode/toughpos/internal/webserver"
	"github.com/talkincode/toughpos/pkg/metrics"
)

const maxMetricMinutes = 7 * 24 * 60

var startedAt = time.Now()

func registerSystemRoutes() {
	webserver.ApiGET("/checkout/pending", listPendingCheckouts)
	webserver.ApiGET("/metrics/:name", queryMetric)
	webserver.GET("/health", health)
}

// @Summary Checkouts awaiting reconciliation
// @Tags System
// @Success 200 {object} Response
// @Router /checkout/pending [get]
func listPendingCheckouts(c echo.Context) error {
	entries, err := GetAppContext(c).Journal().Pending()
	if err != nil {
		return handleServiceError(c, err)
	}
	return ok(c, entries)
}

// @Summary Metric samples
// @Tags System
// @Param name path string true "Metric name"
// @Param minutes query int false "Look-back window, default 60"
// @Param cashier query string false "Other query parameters select a labelled series, e.g. cashier, reason, file"
// @Success 200 {object} Response
// @Router /metrics/{name} [get]
func queryMetric(c echo.Context) error {
	minutes := 60
	if v := c.QueryParam("minutes"); v != "" {
		n, err := cast.ToIntE(v)
		if err != nil || n <= 0 || n > maxMetricMinutes {
			return fail(c, http.StatusBadRequest, "INVALID_MINUTES", "minutes must be between 1 and 10080", nil)
		}
		minutes = n
	}
	var labels []tstorage.Label
	for name, values := range c.QueryParams() {
		if name == "minutes" || len(values) == 0 || values[0] == "" {
			continue
		}
		labels = append(labels, metrics.Label(name, values[0]))
	}
	end := time.Now()
	points, err := metrics.Query(c.Param("name"), end.Add(-time.Duration(minutes)*time.Minute), end, labels...)
	if err != nil {
		return handleServiceError(c, err)
	}
	return ok(c, points)
}

type fileInfo struct {
	Path   string `json:"path"`
	Size   string `json:"size"`
	Exists bool   `json:"exists"`
}

func statFile(path string) fileInfo {
	info := fileInfo{Path: path}
	if st, err := os.Stat(path); err == nil {
		info.Exists = true
		info.Size = bytes.Format(st.Size())
	}
	return info
}

// health liveness plus storage and host figures
func health(c echo.Context) error {
	cfg := GetAppContext(c).Config()
	out := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(startedAt).Round(time.Second).String(),
		"files": map[string]fileInfo{
			"products":     statFile(cfg.ProductsPath()),
			"transactions": statFile(cfg.TransactionsPath()),
			"journal":      statFile(cfg.JournalPath()),
		},
	}
	if usage, err := disk.Usage(cfg.GetDataDir()); err == nil {
		out["disk_free"] = bytes.Format(int64(usage.Free)) //nolint:gosec // G115: free bytes fit in int64
		out["disk_used_percent"] = usage.UsedPercent
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		out["mem_used"] = bytes.Format(int64(vm.Used)) //nolint:gosec // G115: memory bytes fit in int64
	}
	return c.JSON(http.StatusOK, out)
}
