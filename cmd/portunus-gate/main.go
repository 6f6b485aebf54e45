package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/Portunus/gate/internal/config"
	"github.com/BrandonDHaskell/Portunus/gate/internal/db"
	"github.com/BrandonDHaskell/Portunus/gate/internal/device"
	"github.com/BrandonDHaskell/Portunus/gate/internal/observability"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/service"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/store/sqlite"
)

// Exit codes.
const (
	exitGranted = 0
	exitDenied  = 1
	exitSetup   = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	userID := flag.String("user", "", "user id the presented card must belong to")
	areaID := flag.String("area", "", "area guarded by this door")
	serial := flag.String("rfid", "", "serial of the presented RFID card")
	prune := flag.Bool("prune", false, "run the retention pruner until interrupted instead of authenticating")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return exitSetup
	}

	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: "stderr",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return exitSetup
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Error("open database", zap.Error(err))
		return exitSetup
	}
	defer conn.Close()

	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, conn, db.SeedDevOptions{}); err != nil {
			logger.Error("seed dev data", zap.Error(err))
			return exitSetup
		}
	}

	writer := db.NewWorker(conn)
	defer writer.Close()

	accessRecords := sqlite.NewAccessRecordStore(conn, writer)
	attempts := sqlite.NewAttemptStore(conn, writer)

	if *prune {
		if cfg.AccessRetentionDays <= 0 {
			logger.Info("retention disabled; nothing to prune")
			return exitGranted
		}
		pruner := service.NewRetentionPruner(service.PrunerConfig{
			RetentionDays: cfg.AccessRetentionDays,
			IntervalHours: cfg.PruneIntervalHours,
		}, logger,
			// Attempts first: they reference access records.
			service.PruneTarget{Name: "auth_attempts", Store: attempts},
			service.PruneTarget{Name: "access_records", Store: accessRecords},
		)
		pruner.Start(ctx)
		<-ctx.Done()
		pruner.Stop()
		return exitGranted
	}

	if cfg.DevicePath == "" {
		logger.Error("PORTUNUS_DEVICE_PATH is required to authenticate")
		return exitSetup
	}
	// Line settings (baud, raw mode) are configured on the tty beforehand.
	dev, err := os.OpenFile(cfg.DevicePath, os.O_RDWR, 0)
	if err != nil {
		logger.Error("open device", zap.String("path", cfg.DevicePath), zap.Error(err))
		return exitSetup
	}
	defer dev.Close()
	link := device.NewLink(dev, logger.Named("device"))

	metrics := observability.NewMetrics("portunus")
	defer func() {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn("write metrics textfile", zap.Error(err))
		}
	}()

	svc := service.NewService(service.Dependencies{
		Credentials:   sqlite.NewCredentialStore(conn, writer),
		PINs:          sqlite.NewPINStore(conn, writer),
		Patterns:      sqlite.NewPatternStore(conn, writer),
		AccessRecords: accessRecords,
		Attempts:      attempts,
		Policy: service.Policy{
			MaxRFIDAttempts:  cfg.MaxRFIDAttempts,
			MaxPINAttempts:   cfg.MaxPINAttempts,
			PatternThreshold: cfg.PatternThreshold,
			ClosingGesture:   cfg.ClosingGesture,
		},
		Logger:  logger.Named("mfa"),
		Metrics: metrics,
	})

	rec, err := svc.AuthenticateMFA(ctx, service.MFARequest{
		UserID:     *userID,
		AreaID:     *areaID,
		RFIDSerial: *serial,
	}, link, link, link)
	if err != nil {
		fmt.Fprintf(os.Stderr, "denied: %v\n", err)
		if errors.Is(err, service.ErrValidation) {
			return exitSetup
		}
		return exitDenied
	}

	fmt.Printf("granted access_id=%s user=%s area=%s at=%s\n",
		rec.ID, rec.UserID, rec.AreaID, rec.EnteredAt.UTC().Format(time.RFC3339))
	return exitGranted
}
