package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/AaronLay10/DefusalEngine/internal/api"
	"github.com/AaronLay10/DefusalEngine/internal/config"
	"github.com/AaronLay10/DefusalEngine/internal/events"
	"github.com/AaronLay10/DefusalEngine/internal/mqtt"
	"github.com/AaronLay10/DefusalEngine/internal/profile"
	"github.com/AaronLay10/DefusalEngine/internal/session"
	"github.com/AaronLay10/DefusalEngine/internal/storage/postgres"
	"github.com/AaronLay10/DefusalEngine/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/engine.yaml", "path to engine.yaml")
	flag.Parse()

	log, err := newLogger(os.Getenv("DEFUSAL_VERBOSE") != "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(*configPath, log); err != nil {
		log.Error("api exited", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}

func loadConfig(path string, log *zap.Logger) (*config.EngineConfig, error) {
	cfg, err := config.LoadEngineConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn("engine.yaml not found, using defaults", zap.String("path", path))
		return config.Default(), nil
	}
	return cfg, err
}

func run(configPath string, log *zap.Logger) error {
	cfg, err := loadConfig(configPath, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hostname, _ := os.Hostname()
	events.Emit("info", "system.startup", "api starting", map[string]interface{}{
		"service":  "api",
		"engine":   cfg.EngineID(),
		"hostname": hostname,
		"pid":      os.Getpid(),
		"version":  version.Version,
	})

	ledger := profile.NewLedger(profile.FileStore{Path: cfg.ProfilePath()}, log.Named("profile"))
	reporters := []session.Reporter{ledger}

	var settlements api.Settlements
	if pg := openPostgres(ctx, cfg, log); pg != nil {
		defer pg.Close()
		events.SetStore(pg)
		defer events.SetStore(nil)
		settlements = pg
		reporters = append(reporters, settlementRecorder(pg))
	}

	var panel api.Panel
	if os.Getenv("MQTT_URL") != "" || cfg.Network.MQTTHost != "" {
		client := mqtt.NewClient(mqtt.BrokerURL(cfg.MQTTURL()), "defusal-"+cfg.EngineID(), log.Named("mqtt"))
		client.Start()
		defer client.Disconnect()
		panel = mqtt.NewPanelBridge(client, log.Named("panel"))
	}

	auth, err := api.LoadAuth()
	if err != nil {
		return err
	}

	metrics := api.NewMetrics()
	registry := api.NewRegistry(api.RegistryOptions{
		IdleExpiry:    cfg.IdleExpiry(),
		MaxStrikes:    cfg.MaxStrikes(),
		StrikePenalty: cfg.StrikePenalty(),
		Reporters:     reporters,
		Observer:      metrics.Observe,
		Panel:         panel,
		Logger:        log.Named("sessions"),
	})

	server := api.NewServer(api.Options{
		EngineID:    cfg.EngineID(),
		Registry:    registry,
		Metrics:     metrics,
		Auth:        auth,
		Settlements: settlements,
		Logger:      log.Named("http"),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(gctx, cfg.UIPort(), api.TLSFromEnv())
	})
	g.Go(func() error {
		<-gctx.Done()
		registry.Close()
		return nil
	})

	err = g.Wait()
	events.Emit("info", "system.shutdown", "api stopping", map[string]interface{}{"service": "api"})
	return err
}

// openPostgres connects when PGHOST is set. Failure leaves the engine
// running on the in-memory buffer only.
func openPostgres(ctx context.Context, cfg *config.EngineConfig, log *zap.Logger) *postgres.Client {
	if os.Getenv("PGHOST") == "" {
		return nil
	}

	opts := postgres.FromEnv()
	if os.Getenv("PGPORT") == "" {
		opts.Port = strconv.Itoa(cfg.DBPort())
	}
	pass, err := config.ResolveSecret("PGPASSWORD")
	if err != nil {
		log.Warn("postgres password unavailable", zap.Error(err))
		return nil
	}
	opts.Password = pass

	pg, err := postgres.New(ctx, cfg.EngineID(), opts)
	if err != nil {
		log.Warn("postgres unavailable, events stay in memory", zap.Error(err))
		events.Emit("error", "system.error", "postgres unavailable", map[string]interface{}{"error": err.Error()})
		return nil
	}
	log.Info("postgres connected", zap.String("host", opts.Host), zap.String("database", opts.Database))
	return pg
}

func settlementRecorder(pg *postgres.Client) session.Reporter {
	return session.ReporterFunc(func(ctx context.Context, s session.Settlement) error {
		return pg.RecordSettlement(ctx, postgres.SettlementRow{
			SessionID: s.SessionID,
			Pack:      string(s.Pack),
			Level:     s.Level,
			Won:       s.Won,
			TimeLeft:  s.TimeLeft,
			TotalTime: s.TotalTime,
			Strikes:   s.Strikes,
		})
	})
}
