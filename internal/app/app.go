package app

import (
	"context"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/talkincode/toughpos/config"
	"github.com/talkincode/toughpos/internal/backup"
	"github.com/talkincode/toughpos/internal/events"
	"github.com/talkincode/toughpos/internal/journal"
	"github.com/talkincode/toughpos/internal/repository"
	"github.com/talkincode/toughpos/internal/service"
	"github.com/talkincode/toughpos/pkg/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Application struct {
	appConfig    *config.AppConfig
	location     *time.Location
	products     *repository.ProductRepository
	transactions *repository.TransactionRepository
	journal      *journal.Journal
	bus          *events.Bus
	productSvc   *service.ProductService
	txSvc        *service.TransactionService
	reportSvc    *service.ReportService
	sched        *cron.Cron
}

// Ensure Application implements all interfaces
var (
	_ ConfigProvider    = (*Application)(nil)
	_ ServiceProvider   = (*Application)(nil)
	_ JournalProvider   = (*Application)(nil)
	_ EventProvider     = (*Application)(nil)
	_ SchedulerProvider = (*Application)(nil)
	_ AppContext        = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig, location: time.Local}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) ProductService() *service.ProductService {
	return a.productSvc
}

func (a *Application) TransactionService() *service.TransactionService {
	return a.txSvc
}

func (a *Application) ReportService() *service.ReportService {
	return a.reportSvc
}

func (a *Application) Journal() *journal.Journal {
	return a.journal
}

func (a *Application) Events() *events.Bus {
	return a.bus
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// Location the time zone that decides calendar days
func (a *Application) Location() *time.Location {
	return a.location
}

func (a *Application) Init(cfg *config.AppConfig) error {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
		a.location = loc
	}

	initLogger(cfg)

	err = metrics.InitMetrics(cfg.System.Workdir)
	if err != nil {
		zap.S().Warn("Failed to initialize metrics:", err)
	}

	if err := a.InitStore(); err != nil {
		return err
	}

	if cfg.Store.SeedDemo {
		if err := a.SeedDemoProducts(); err != nil {
			zap.S().Errorf("seed demo products failed: %v", err)
		}
	}

	a.initJob()
	return nil
}

func initLogger(cfg *config.AppConfig) {
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)
}

// InitStore opens the data files, the checkout journal and the event bus, then builds the services.
// It does not touch the logger, metrics or scheduler, so tests can call it alone.
func (a *Application) InitStore() error {
	cfg := a.appConfig
	if err := cfg.InitDirs(); err != nil {
		return err
	}
	decimal.MarshalJSONWithoutQuotes = true

	a.products = repository.NewProductRepository(cfg.ProductsPath())
	if err := a.products.EnsureFile(); err != nil {
		return err
	}
	a.transactions = repository.NewTransactionRepository(cfg.TransactionsPath())
	if err := a.transactions.EnsureFile(); err != nil {
		return err
	}

	j, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return err
	}
	a.journal = j

	bus, err := events.NewBus(cfg.Notify.Workers)
	if err != nil {
		return err
	}
	a.bus = bus
	if err := a.initNotifiers(); err != nil {
		return err
	}

	threshold := cfg.Store.LowStockThreshold
	a.productSvc = service.NewProductService(a.products, threshold)
	a.txSvc = service.NewTransactionService(a.products, a.transactions, a.journal, a.bus,
		threshold, cfg.Store.DefaultCashier)
	a.reportSvc = service.NewReportService(a.products, a.transactions, threshold, a.location)

	zap.L().Info("store ready",
		zap.String("products", a.products.Path()),
		zap.String("transactions", a.transactions.Path()),
		zap.String("journal", a.journal.Path()))
	return nil
}

func (a *Application) initNotifiers() error {
	cfg := a.appConfig.Notify
	if err := events.RecordSales(a.bus); err != nil {
		return err
	}
	if cfg.Smtp.Enabled {
		if err := events.NewStockMailer(cfg.Smtp, a.appConfig.System.Appid).Subscribe(a.bus); err != nil {
			return err
		}
	}
	if cfg.Webhook.Enabled {
		if err := events.NewTransactionWebhook(cfg.Webhook).Subscribe(a.bus); err != nil {
			return err
		}
	}
	return nil
}

// RunBackupNow uploads both data files immediately
func (a *Application) RunBackupNow() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	dir, err := backup.New(a.appConfig.Backup, a.products.Path(), a.transactions.Path()).Run(ctx)
	if err != nil {
		return err
	}
	zap.L().Info("backup finished", zap.String("remote", dir))
	return nil
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.bus != nil {
		a.bus.Close()
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			zap.L().Error("close journal", zap.Error(err))
		}
	}

	_ = metrics.Close()
	_ = zap.L().Sync()
}
