package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dgnsrekt/tab_janitor/internal/api"
	"github.com/dgnsrekt/tab_janitor/internal/batch"
	"github.com/dgnsrekt/tab_janitor/internal/browser"
	"github.com/dgnsrekt/tab_janitor/internal/cdptab"
	"github.com/dgnsrekt/tab_janitor/internal/config"
	"github.com/dgnsrekt/tab_janitor/internal/dedup"
	"github.com/dgnsrekt/tab_janitor/internal/history"
	"github.com/dgnsrekt/tab_janitor/internal/janitor"
	"github.com/dgnsrekt/tab_janitor/internal/netutil"
	"github.com/dgnsrekt/tab_janitor/internal/notify"
	"github.com/dgnsrekt/tab_janitor/internal/rules"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}

	slog.Info("janitor config loaded",
		"bind_addr", cfg.BindAddr,
		"cdp_url", cfg.CDPURL(),
		"data_dir", cfg.DataDir,
		"launch_browser", cfg.LaunchBrowser,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	bindAddr, err := netutil.SelectBindAddr(cfg.BindAddr, nil, false)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}

	if cfg.LaunchBrowser {
		launcher := browser.NewLauncher(browser.Config{
			CDPAddress: cfg.CDPAddress,
			CDPPort:    cfg.CDPPort,
			Binary:     cfg.BrowserBinary,
			ProfileDir: filepath.Join(cfg.DataDir, "profile"),
		})
		if err := launcher.Launch(context.Background()); err != nil {
			slog.Error("failed to launch browser", "error", err)
			os.Exit(1)
		}
		defer launcher.Stop()
	}

	registry := cdptab.NewRegistry()
	host := cdptab.NewClient(cfg.CDPURL(), registry)
	if err := host.Connect(context.Background()); err != nil {
		slog.Error("failed to connect to CDP", "cdp_url", cfg.CDPURL(), "error", err)
		os.Exit(1)
	}
	defer func() { _ = host.Close() }()

	watcher := cdptab.NewWatcher(cfg.CDPURL(), registry)
	if err := watcher.Start(context.Background()); err != nil {
		slog.Warn("target watcher unavailable, creation order degrades to listing order", "error", err)
	} else {
		defer watcher.Stop()
	}

	ruleStore, err := rules.NewStore(cfg.RulesPath())
	if err != nil {
		slog.Error("failed to open rule store", "path", cfg.RulesPath(), "error", err)
		os.Exit(1)
	}
	batchStore, err := batch.NewStore(cfg.BatchPath())
	if err != nil {
		slog.Error("failed to open batch store", "path", cfg.BatchPath(), "error", err)
		os.Exit(1)
	}
	journal := history.NewJournal(cfg.JournalPath(), cfg.JournalMaxSizeMB)
	defer func() { _ = journal.Close() }()

	svc := janitor.NewService(host, ruleStore, batchStore, journal, dedup.NewClassifier(cfg.InternalPrefixes))
	if cfg.NtfyEndpoint != "" {
		svc.SetNotifier(notify.New(cfg.NtfyEndpoint, nil))
		slog.Info("sweep notifications enabled", "endpoint", cfg.NtfyEndpoint)
	}
	h := api.NewServer(svc)

	srv := &http.Server{Addr: bindAddr, Handler: h}

	go func() {
		slog.Info("janitor listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("janitor server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("janitor shutdown failed", "error", err)
	}
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
