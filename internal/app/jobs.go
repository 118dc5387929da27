package app

import (
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/talkincode/toughpos/pkg/metrics"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	a.sched = cron.New(cron.WithLocation(a.location), cron.WithParser(cronParser))

	jobs := []struct {
		spec string
		fn   func()
	}{
		{"@every 30s", func() {
			go a.SchedSystemMonitorTask()
			go a.SchedProcessMonitorTask()
		}},
		{"@every 10m", a.SchedJournalReconcileTask},
		{"@hourly", a.SchedLowStockTask},
		{"0 59 23 * * *", a.SchedDailySummaryTask},
	}
	if a.appConfig.Backup.Enabled {
		jobs = append(jobs, struct {
			spec string
			fn   func()
		}{a.appConfig.Backup.Schedule, a.SchedBackupTask})
	}

	for _, job := range jobs {
		if _, err := a.sched.AddFunc(job.spec, job.fn); err != nil {
			zap.S().Errorf("init job %q error %s", job.spec, err.Error())
		}
	}

	a.sched.Start()
}

// SchedSystemMonitorTask system monitor
func (a *Application) SchedSystemMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	_cpuuse, err := cpu.Percent(0, false)
	if err == nil && len(_cpuuse) > 0 {
		metrics.SetGauge(metrics.SystemCpuUse, int64(_cpuuse[0]*100)) // percentage * 100
	}

	_meminfo, err := mem.VirtualMemory()
	if err == nil {
		metrics.SetGauge(metrics.SystemMemUse, int64(_meminfo.Used/1024/1024)) //nolint:gosec // G115: memory MB value fits in int64
	}

	usage, err := disk.Usage(a.appConfig.GetDataDir())
	if err == nil {
		metrics.SetGauge(metrics.DataDiskUse, int64(usage.UsedPercent*100))
	}
}

// SchedProcessMonitorTask app process monitor
func (a *Application) SchedProcessMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	p, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // G115: PID is always within int32 range
	if err != nil {
		return
	}
	meminfo, err := p.MemoryInfo()
	if err == nil {
		metrics.SetGauge(metrics.ProcessMemUse, int64(meminfo.RSS/1024/1024)) //nolint:gosec // G115: memory MB value fits in int64
	}
}

// SchedJournalReconcileTask logs checkouts that persisted stock but never got their
// transaction appended, so an operator can fix the files by hand
func (a *Application) SchedJournalReconcileTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	entries, err := a.journal.Pending()
	if err != nil {
		zap.L().Error("read checkout journal", zap.Error(err))
		return
	}
	metrics.SetGauge(metrics.PendingCheckouts, int64(len(entries)))
	for _, e := range entries {
		zap.L().Warn("checkout needs reconciliation",
			zap.String("marker", e.ID),
			zap.String("stage", string(e.Stage)),
			zap.Time("created_at", e.CreatedAt),
			zap.String("cashier", e.Cashier),
			zap.String("total", e.Total.String()),
			zap.Int("lines", len(e.Items)),
			zap.String("error", e.Error))
	}
}

// SchedLowStockTask records how many products are below the threshold
func (a *Application) SchedLowStockTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	low, err := a.productSvc.LowStock()
	if err != nil {
		zap.L().Error("low stock scan", zap.Error(err))
		return
	}
	metrics.SetGauge(metrics.LowStockCount, int64(len(low)))
	for _, p := range low {
		zap.L().Info("low stock",
			zap.Int64("product_id", p.ID), zap.String("name", p.Name), zap.Int("stock", p.Stock))
	}
}

// SchedDailySummaryTask logs the day's sales just before midnight
func (a *Application) SchedDailySummaryTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	report, err := a.reportSvc.Today()
	if err != nil {
		zap.L().Error("daily summary", zap.Error(err))
		return
	}
	zap.L().Info("daily summary",
		zap.String("date", report.Date),
		zap.Int("transactions", report.TotalTransactions),
		zap.String("revenue", report.TotalRevenue.String()),
		zap.Int("items_sold", report.ItemsSold),
		zap.String("average_ticket", report.AverageTicket.String()))
}

// SchedBackupTask uploads the data files to the backup server
func (a *Application) SchedBackupTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	start := time.Now()
	if err := a.RunBackupNow(); err != nil {
		zap.L().Error("scheduled backup failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
	}
}
