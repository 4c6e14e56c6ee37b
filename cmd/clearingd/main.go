package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/openperp/clearinghouse/params"
	"github.com/openperp/clearinghouse/pkg/api"
	"github.com/openperp/clearinghouse/pkg/house"
	"github.com/openperp/clearinghouse/pkg/storage"
	"github.com/openperp/clearinghouse/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("") // "" means load .env from current directory

	logFile := cfg.Node.LogFile
	if logFile == "" {
		logFile = filepath.Join(cfg.Node.DataDir, "clearingd.log")
	}
	logger, err := util.NewLoggerWithFile(logFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", logFile)

	store, err := storage.NewRecordStore(filepath.Join(cfg.Node.DataDir, "clearinghouse"))
	if err != nil {
		sugar.Fatalw("store_open_failed", "err", err)
	}
	defer store.Close()

	ch := house.New(logger, store, cfg.Fees.FeeStructure())

	market := house.GenesisMarket(0,
		cfg.Market.SqrtK,
		cfg.Market.PegMultiplier,
		cfg.Market.SpreadBps,
		cfg.Market.MarginRatioInitial,
		cfg.Market.MarginRatioPartial,
		cfg.Market.MarginRatioMaintenance,
	)
	if err := ch.AddMarket(market); err != nil {
		sugar.Fatalw("market_init_failed", "err", err)
	}
	ch.AddBank(house.GenesisBank(0))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- API server ----
	apiServer := api.NewServer(ch, logger)
	go func() {
		if err := apiServer.Start(cfg.Node.APIAddr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	// ---- Slot clock ----
	go func() {
		ticker := time.NewTicker(cfg.Node.SlotInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ch.AdvanceSlot(time.Now().Unix())
			}
		}
	}()

	// ---- Demo feeder (optional) ----
	if cfg.Node.Feeder {
		feederCfg := house.DefaultFeederConfig()
		feederCfg.Interval = cfg.Node.SlotInterval
		cancelFeeder := house.StartFeeder(ctx, ch, logger, feederCfg)
		defer cancelFeeder()
		sugar.Infow("feeder_enabled", "accounts", feederCfg.NumAccounts)
	}

	sugar.Infow("clearinghouse_started",
		"api_addr", cfg.Node.APIAddr,
		"data_dir", cfg.Node.DataDir,
		"slot_interval_ms", cfg.Node.SlotInterval.Milliseconds())

	<-ctx.Done()
	sugar.Info("shutting down")
}
