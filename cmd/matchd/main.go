package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/uhyunpark/limitmatch/params"
	"github.com/uhyunpark/limitmatch/pkg/api"
	"github.com/uhyunpark/limitmatch/pkg/app/core/market"
	"github.com/uhyunpark/limitmatch/pkg/app/core/matching"
	"github.com/uhyunpark/limitmatch/pkg/storage"
	"github.com/uhyunpark/limitmatch/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg, err := params.LoadFromEnv("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Setup logging (write to both console and file)
	logger, err := util.NewLoggerWithFile(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Log.File, "level", cfg.Log.Level)

	// run's deferred closes finish before the exit code is decided
	err = run(cfg, sugar)
	if err != nil {
		sugar.Errorw("matchd_failed", "err", err)
	}
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg params.Config, sugar *zap.SugaredLogger) error {
	unit, err := cfg.Unit()
	if err != nil {
		return err
	}
	makerMin, takerMin, err := cfg.Minimums()
	if err != nil {
		return err
	}

	// ---- Book store ----
	store, err := storage.NewPebbleBookStore(cfg.Storage.BookDBPath, nil)
	if err != nil {
		return err
	}
	defer store.Close()
	sugar.Infow("book_store_opened", "path", cfg.Storage.BookDBPath)

	if cfg.Storage.SnapshotFile != "" {
		if err := importSnapshot(store, cfg.Storage.SnapshotFile, sugar); err != nil {
			return err
		}
	}

	var journal storage.Journal = storage.NewNopJournal()
	if cfg.Storage.JournalFile != "" {
		fj, err := storage.NewFileJournal(cfg.Storage.JournalFile)
		if err != nil {
			sugar.Warnw("journal_disabled", "path", cfg.Storage.JournalFile, "err", err)
		} else {
			journal = fj
			sugar.Infow("journal_opened", "path", cfg.Storage.JournalFile)
		}
	}
	defer journal.Close()

	// ---- Markets ----
	registry := market.NewRegistry()
	for _, mc := range cfg.Markets {
		m, err := market.NewMarket(mc.Symbol, mc.Base, mc.Quote, makerMin, takerMin)
		if err != nil {
			return err
		}
		if err := registry.Register(m); err != nil {
			return err
		}
		sugar.Infow("market_registered", "symbol", m.Symbol, "base", m.Base.Hex(), "quote", m.Quote.Hex())
	}

	// ---- Engine & API ----
	engine := matching.NewEngine(unit, sugar.Named("matching"))
	apiServer := api.NewServer(api.Config{
		Engine:       engine,
		Markets:      registry,
		Store:        store,
		Journal:      journal,
		Logger:       sugar.Named("api"),
		Clock:        util.RealClock{},
		MakerMinimum: makerMin,
		TakerMinimum: takerMin,
		CORSOrigins:  cfg.API.CORSOrigins,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start(cfg.API.Addr)
	}()

	sugar.Infow("matchd_started",
		"unit_decimals", unit.Decimals(),
		"markets", registry.Count(),
		"maker_minimum", cfg.Matching.MakerMinimum,
		"taker_minimum", cfg.Matching.TakerMinimum)

	select {
	case <-ctx.Done():
		sugar.Info("shutdown_requested")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return apiServer.Shutdown(shutdownCtx)
}

func importSnapshot(store storage.BookStore, path string, sugar *zap.SugaredLogger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	counts, err := storage.ImportSnapshot(store, f)
	if err != nil {
		return err
	}
	for symbol, n := range counts {
		sugar.Infow("book_snapshot_loaded", "symbol", symbol, "orders", n, "file", path)
	}
	return nil
}
