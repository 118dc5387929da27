package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talkincode/toughpos/config"
	"github.com/talkincode/toughpos/internal/adminapi"
	"github.com/talkincode/toughpos/internal/app"
	"github.com/talkincode/toughpos/internal/webserver"
	"github.com/talkincode/toughpos/internal/webui"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("c", "", "config yaml file")
	initData   = flag.Bool("initdata", false, "create demo products when the catalog is empty, then exit")
	backupNow  = flag.Bool("backup", false, "upload the data files to the backup server, then exit")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	application := app.NewApplication(cfg)
	if err := application.Init(cfg); err != nil {
		zap.S().Fatalf("init application: %v", err)
	}
	defer application.Release()

	switch {
	case *initData:
		if err := application.SeedDemoProducts(); err != nil {
			zap.S().Fatalf("init data: %v", err)
		}
		return
	case *backupNow:
		if err := application.RunBackupNow(); err != nil {
			zap.S().Fatalf("backup: %v", err)
		}
		return
	}

	webserver.Init(application)
	adminapi.Init()
	if err := webui.Init(application); err != nil {
		zap.S().Fatalf("init web ui: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- webserver.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			zap.S().Errorf("web server stopped: %v", err)
		}
	case <-ctx.Done():
		zap.L().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := webserver.Shutdown(shutdownCtx); err != nil {
			zap.S().Errorf("shutdown: %v", err)
		}
	}
}
