package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/banking/compliance-service/internal/api"
	"github.com/banking/compliance-service/internal/cache"
	"github.com/banking/compliance-service/internal/config"
	"github.com/banking/compliance-service/internal/events"
	"github.com/banking/compliance-service/internal/kyc"
	"github.com/banking/compliance-service/internal/monitor"
	"github.com/banking/compliance-service/internal/onboarding"
	"github.com/banking/compliance-service/internal/pkg/logger"
	"github.com/banking/compliance-service/internal/sanctions"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Telemetry.ServiceName, cfg.Telemetry.Environment, cfg.Telemetry.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Engines
	screener := sanctions.NewScreener(&cfg.Screening, log)
	riskEngine := kyc.NewRiskEngine(&cfg.KYC, log)
	mon := monitor.NewMonitor(&cfg.Monitoring, log)
	onboardingSvc := onboarding.NewService(screener, riskEngine, log)

	// Sanctions list cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	defer redisClient.Close()

	sanctionsCache := cache.NewSanctionsCache(redisClient, cfg.Redis.SanctionsListTTL)
	if err := loadSanctionsList(ctx, sanctionsCache, screener, log); err != nil {
		log.Warn("starting with empty sanctions list", logger.ErrorField(err))
	}
	go refreshSanctionsList(ctx, sanctionsCache, screener, cfg.Screening.ListRefreshInterval, log)

	// Kafka transaction stream
	publisher, err := events.NewAlertPublisher(&cfg.Kafka, log)
	if err != nil {
		log.Warn("alert publisher unavailable, alerts will not be emitted", logger.ErrorField(err))
		publisher = nil
	} else {
		defer publisher.Close()
	}

	consumer, err := events.NewConsumer(&cfg.Kafka, mon, publisher, log)
	if err != nil {
		log.Warn("transaction consumer unavailable, running HTTP-only", logger.ErrorField(err))
	} else {
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("transaction consumer stopped", logger.ErrorField(err))
			}
		}()
	}

	// History retention sweep
	go purgeLoop(ctx, mon, cfg.Monitoring.RetentionDays)

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%d", cfg.Server.MaxRequestSize)))

	api.NewHandler(screener, riskEngine, mon, onboardingSvc, log).Register(e)

	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		if err := e.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", logger.ErrorField(err))
		}
	}()
	log.Info("server started", logger.StringField("addr", serverAddr))

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", logger.ErrorField(err))
	}
	log.Info("server exited")
}

// loadSanctionsList installs the cached sanctions snapshot into the
// screener.
func loadSanctionsList(ctx context.Context, c *cache.SanctionsCache, s *sanctions.Screener, log *logger.Logger) error {
	entries, err := c.GetEntries(ctx)
	if err != nil {
		return err
	}
	if err := s.LoadList(entries); err != nil {
		return err
	}
	log.SanctionsListLoaded("redis", len(entries))
	return nil
}

// refreshSanctionsList reloads the cached list on the configured
// interval so feed updates propagate without a restart.
func refreshSanctionsList(ctx context.Context, c *cache.SanctionsCache, s *sanctions.Screener, interval time.Duration, log *logger.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := loadSanctionsList(ctx, c, s, log); err != nil {
				log.Warn("sanctions list refresh failed", logger.ErrorField(err))
			}
		}
	}
}

// purgeLoop evicts transaction history outside the retention window
// once a day.
func purgeLoop(ctx context.Context, m *monitor.Monitor, retentionDays int) {
	if retentionDays <= 0 {
		return
	}
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.PurgeBefore(time.Now().UTC().AddDate(0, 0, -retentionDays))
		}
	}
}
