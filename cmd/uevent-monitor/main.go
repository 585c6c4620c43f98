package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mniyk/uevent-monitoring-tools/internal/config"
	"github.com/mniyk/uevent-monitoring-tools/internal/logging"
	"github.com/mniyk/uevent-monitoring-tools/internal/metrics"
	"github.com/mniyk/uevent-monitoring-tools/internal/transmission"
	"github.com/mniyk/uevent-monitoring-tools/internal/userinfo"
	"github.com/mniyk/uevent-monitoring-tools/module"
	"github.com/mniyk/uevent-monitoring-tools/module/usb"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to the configuration file (.json or .yaml)")
	flag.Parse()

	// 設定を読み込む
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed load %s: %v\n", *configPath, err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed setup logging: %v\n", err)
		os.Exit(1)
	}
	setupLog := log.WithName("main")

	if err := run(cfg, log); err != nil {
		setupLog.Error(err, "Stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Configs, log logr.Logger) error {
	setupLog := log.WithName("main")

	// シグナルを受信するチャネルを作成
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	setupLog.Info("Start uevent monitoring...")

	// メトリクスを登録
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	if cfg.Metrics.Address != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(registry))
		server := &http.Server{Addr: cfg.Metrics.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				setupLog.Error(err, "Failed serving metrics", "address", cfg.Metrics.Address)
			}
		}()
		defer server.Close()
	}

	// ユーザー情報を取得
	userInfo := userinfo.NewUserInfo()

	// イベント送信機能を初期化
	interval, err := cfg.Transmission.Interval()
	if err != nil {
		return err
	}
	eventDispatcher := transmission.NewEventSender(cfg.Transmission.BatchSize, interval, log)

	// モジュールの管理
	manager := module.NewManager(cfg)
	if err := registerModules(manager, cfg, userInfo, eventDispatcher, m, log); err != nil {
		return err
	}

	// すべてのモジュールを初期化
	if err := firstError("initialize", manager.InitializeAllModules()); err != nil {
		manager.StopAllModules()
		return err
	}

	// すべてのモジュールを開始
	if err := firstError("start", manager.StartAllModules()); err != nil {
		manager.StopAllModules()
		return err
	}

	setupLog.Info("Modules started", "modules", manager.ActiveModules())

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if eventDispatcher.IsOverBatchSize() || eventDispatcher.IsOverTime() {
					// 保留中のイベントを送信
					eventDispatcher.Flush()
				}
			}
		}
	}()

	// シグナルを待機
	sig := <-sigChan
	setupLog.Info("Received termination signal", "signal", sig.String())
	close(done)

	// すべてのモジュールを停止
	for name, err := range manager.StopAllModules() {
		setupLog.Error(err, "Failed stop module", "module", name)
	}

	// 強制的にイベントキューをフラッシュ
	eventDispatcher.Flush()

	setupLog.Info("Stop uevent monitoring...")

	return nil
}

// モジュールを登録
func registerModules(manager *module.Manager, cfg *config.Configs, userInfo *userinfo.UserInfo, eventDispatcher transmission.EventDispatcher, m *metrics.Metrics, log logr.Logger) error {
	for name := range cfg.Modules {
		var moduleInstance module.Module

		switch name {
		case usb.MODULE_ID:
			monitorConfig := usb.NewMonitorConfig(cfg.Modules[name])
			moduleInstance = usb.NewMonitor(monitorConfig, userInfo, eventDispatcher, m, log)
		default:
			log.Info("Unknown module in configuration", "module", name)
		}

		if moduleInstance != nil {
			if err := manager.RegisterModule(name, moduleInstance); err != nil {
				return fmt.Errorf("register module %s: %w", name, err)
			}
		}
	}

	return nil
}

// モジュールごとのエラーから最初のエラーを取得
func firstError(operation string, errs map[string]error) error {
	for name, err := range errs {
		return fmt.Errorf("%s module %s: %w", operation, name, err)
	}
	return nil
}
