package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cleanly/internal/config"
	"cleanly/internal/db"
	"cleanly/internal/handlers"
	"cleanly/internal/jobs"
	"cleanly/internal/logging"
	"cleanly/internal/payments"
	"cleanly/internal/services"
	"cleanly/internal/store"
	"cleanly/internal/websocket"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.AppEnv, cfg.LogPath)
	defer func() { _ = logger.Sync() }()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	defer database.Close()

	users := store.NewUserStore(database)
	cleaners := store.NewCleanerStore(database)
	bookings := store.NewBookingStore(database)
	events := store.NewBookingEventStore(database)
	wallets := store.NewWalletStore(database)
	commissions := store.NewCommissionStore(database)
	thresholds := store.NewDebtThresholdStore(database)
	fraudFlags := store.NewFraudFlagStore(database)
	rechargeOrders := store.NewRechargeOrderStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	provider := payments.NewPayPalClient(cfg.PayPalBaseURL, cfg.PayPalClientID, cfg.PayPalSecret, cfg.PayPalWebhookID)

	bookingSvc := services.NewBookingService(txRunner, bookings, events, cleaners, commissions, wallets, audit, hub)
	walletSvc := services.NewWalletService(txRunner, wallets, thresholds, commissions, cleaners, audit)
	rechargeSvc, err := services.NewRechargeService(txRunner, wallets, rechargeOrders, audit, provider, cfg.ProviderCurrency, cfg.LedgerCurrency, cfg.ConversionRate, logger)
	if err != nil {
		logger.Fatal("failed to build recharge service", zap.Error(err))
	}
	sweepSvc := services.NewSweepService(bookings, bookingSvc, fraudFlags, cfg.ConfirmWindow, cfg.SystemActorID, logger)

	scheduler := jobs.NewScheduler(logger)
	if err := scheduler.AddJob(sweepSvc, cfg.SweepInterval); err != nil {
		logger.Fatal("failed to schedule sweep", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	handler := handlers.New(txRunner, cfg, users, cleaners, wallets, bookings, fraudFlags, audit, bookingSvc, walletSvc, rechargeSvc, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("cleanly API listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("shutdown error", zap.Error(err))
	}
}
