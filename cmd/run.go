package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"betbook/config"
	"betbook/database"
	"betbook/events"
	"betbook/repository"
	"betbook/service"
	"betbook/web"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	log.WithField("environment", cfg.Environment).Info("Starting betbook...")

	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	eventBus := events.NewBus()
	subscribeAuditLog(eventBus)
	web.SubscribeMetrics(eventBus)

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	accountService := service.NewAccountService(uowFactory)
	wagerService := service.NewWagerService(uowFactory)
	settlementService := service.NewSettlementService(uowFactory)
	historyService := service.NewHistoryService(uowFactory)

	server := web.NewServer(cfg.SessionSecret, cfg.AdminToken,
		accountService, wagerService, settlementService, historyService)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	metricsServer := web.StartMetricsServer(cfg.MetricsAddr, func(ctx context.Context) error {
		return db.Ping(ctx)
	})

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Metrics server shutdown failed")
	}

	log.Info("Shutdown completed")
	return nil
}

// subscribeAuditLog logs every committed domain event.
func subscribeAuditLog(bus *events.Bus) {
	bus.Subscribe(events.EventTypeUserCreated, func(ctx context.Context, e events.Event) {
		if ev, ok := e.(events.UserCreatedEvent); ok {
			log.WithFields(log.Fields{
				"userID":     ev.UserID,
				"username":   ev.Username,
				"registered": ev.Registered,
				"points":     ev.InitialPoints,
			}).Info("User created")
		}
	})
	bus.Subscribe(events.EventTypeUserRegistered, func(ctx context.Context, e events.Event) {
		if ev, ok := e.(events.UserRegisteredEvent); ok {
			log.WithFields(log.Fields{
				"userID":   ev.UserID,
				"username": ev.Username,
			}).Info("Guest registered")
		}
	})
	bus.Subscribe(events.EventTypeWagerPlaced, func(ctx context.Context, e events.Event) {
		if ev, ok := e.(events.WagerPlacedEvent); ok {
			log.WithFields(log.Fields{
				"userID":    ev.UserID,
				"betID":     ev.BetID,
				"option":    ev.Option,
				"amount":    ev.Amount,
				"newPoints": ev.NewPoints,
			}).Info("Wager placed")
		}
	})
	bus.Subscribe(events.EventTypeResultDeclared, func(ctx context.Context, e events.Event) {
		if ev, ok := e.(events.ResultDeclaredEvent); ok {
			log.WithFields(log.Fields{
				"betID":      ev.BetID,
				"winning":    ev.WinningOption,
				"winners":    ev.Winners,
				"pointsPaid": ev.PointsPaid,
			}).Info("Result declared")
		}
	})
}
