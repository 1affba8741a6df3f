package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/polysniper/config"
	"github.com/alejandrodnm/polysniper/internal/adapters/binance"
	"github.com/alejandrodnm/polysniper/internal/adapters/notify"
	"github.com/alejandrodnm/polysniper/internal/adapters/polymarket"
	"github.com/alejandrodnm/polysniper/internal/adapters/storage"
	"github.com/alejandrodnm/polysniper/internal/application/sniper"
	"github.com/alejandrodnm/polysniper/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	dryRun := flag.Bool("dry-run", false, "simulate fills locally, no auth or real orders")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("polysniper starting",
		"config", *configPath,
		"assets", len(cfg.Assets),
		"size_usdc", cfg.Risk.SizeUSDC,
		"max_exposure", cfg.Risk.MaxTotalExposure,
		"dry_run", *dryRun,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	placer, err := buildPlacer(ctx, cfg, *dryRun)
	if err != nil {
		slog.Error("failed to set up order placement", "err", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open trade log", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	console := notify.NewConsole()
	refClient := binance.NewClient(cfg.API.BinanceBase)
	gamma := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase)
	streamer := polymarket.NewStreamer(cfg.API.WSBase)
	ledger := sniper.NewExposureLedger(cfg.Risk.MaxPositionSize, cfg.Risk.MaxTotalExposure)

	orch := sniper.NewOrchestrator(sniper.OrchestratorConfig{}, console, store)

	for _, asset := range cfg.Assets {
		gate := sniper.NewSafetyGate(refClient, sniper.GateConfig{
			BinanceSymbol:   asset.BinanceSymbol,
			BufferPct:       asset.BufferPct,
			MomentumPct:     asset.MomentumPct,
			Lookback:        cfg.Lookback(),
			DisableBuffer:   cfg.Gate.DisableBuffer,
			DisableMomentum: cfg.Gate.DisableMomentum,
		})
		exec := sniper.NewExecutor(ledger, gate, placer, cfg.Risk.SizeUSDC)

		intervals, err := asset.IntervalDurations()
		if err != nil {
			slog.Error("bad interval config", "asset", asset.Symbol, "err", err)
			os.Exit(1)
		}
		for _, interval := range intervals {
			orch.Add(sniper.NewMonitor(sniper.MonitorConfig{
				Asset:       asset.Symbol,
				Interval:    interval,
				Tiers:       asset.TierTable(),
				MaxPriceSum: cfg.Book.MaxPriceSum,
			}, gamma, streamer, exec, orch.Events()))
		}
	}

	if err := orch.Run(ctx); err != nil {
		slog.Error("sniper exited with error", "err", err)
		os.Exit(1)
	}

	printSummary(store, console)
	slog.Info("polysniper stopped cleanly")
}

// buildPlacer conecta el placer real (auth L1 + firma de órdenes + RPC) o el
// simulado en dry-run. En el modo real valida credenciales y balance ANTES de
// arrancar los monitores: un fallo de auth a 30s del cierre de un intervalo
// sería carísimo de depurar en caliente.
func buildPlacer(ctx context.Context, cfg *config.Config, dryRun bool) (ports.OrderPlacer, error) {
	if dryRun {
		slog.Warn("dry-run: orders are simulated, nothing reaches the exchange")
		return newPaperPlacer(), nil
	}

	auth, err := polymarket.NewAuthClient(cfg.API.CLOBBase, cfg.API.GammaBase, config.PrivateKey())
	if err != nil {
		return nil, err
	}
	trading, err := polymarket.NewTradingClient(auth, config.RPCURL())
	if err != nil {
		return nil, err
	}

	preflight, preflightCancel := context.WithTimeout(ctx, 30*time.Second)
	defer preflightCancel()

	if err := auth.EnsureCreds(preflight); err != nil {
		return nil, err
	}
	balance, err := trading.GetBalance(preflight)
	if err != nil {
		slog.Warn("balance check failed, continuing without it", "err", err)
	} else {
		slog.Info("wallet ready", "address", auth.Address(), "usdc_balance", balance)
		if balance < cfg.Risk.MaxTotalExposure {
			slog.Warn("balance below max total exposure, fills may start failing",
				"balance", balance, "max_total_exposure", cfg.Risk.MaxTotalExposure)
		}
	}
	return trading, nil
}

// printSummary vuelca el resumen de la sesión al salir. Best-effort: si el
// storage falla aquí ya no hay nada que hacer.
func printSummary(store *storage.SQLiteStorage, console *notify.Console) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := store.GetStats(ctx)
	if err != nil {
		slog.Warn("failed to read session stats", "err", err)
		return
	}
	outcomes, err := store.GetOutcomes(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		slog.Warn("failed to read trade log", "err", err)
	}
	console.PrintSummary(stats, outcomes)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
