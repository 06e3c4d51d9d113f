package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/edvin/containerstacks/internal/api"
	mw "github.com/edvin/containerstacks/internal/api/middleware"
	"github.com/edvin/containerstacks/internal/config"
	"github.com/edvin/containerstacks/internal/core"
	"github.com/edvin/containerstacks/internal/crypto"
	"github.com/edvin/containerstacks/internal/db"
	"github.com/edvin/containerstacks/internal/logging"
	"github.com/edvin/containerstacks/internal/metrics"
	"github.com/edvin/containerstacks/internal/provider"
)

const defaultSweepInterval = 5 * time.Minute

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "create-token" {
		createToken(os.Args[2:])
		return
	}

	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	sweepFlag := flag.Bool("sweep", false, "Run the background reconciliation sweep")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *sweepFlag && cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	key, err := crypto.DecodeKey(cfg.CredentialsKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid CREDENTIALS_KEY")
	}

	if *migrateFlag {
		logger.Info().Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	if err := metrics.RegisterPgxPoolMetrics(prometheus.DefaultRegisterer, pool); err != nil {
		logger.Fatal().Err(err).Msg("failed to register pool metrics")
	}

	services := core.NewServices(pool, provider.FactoryConfig{
		CredentialsKey:          key,
		Timeout:                 cfg.ProviderTimeout,
		LinodeBaseURL:           cfg.LinodeAPIURL,
		LinodeRequestsPerSecond: cfg.LinodeRequestsPerSecond,
		BreakerFailures:         cfg.ProviderBreakerFailures,
		BreakerTimeout:          cfg.ProviderBreakerTimeout,
	}, logger)
	defer services.Activity.Close()

	auth := mw.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer)
	srv := api.NewServer(logger, pool, services, auth, cfg)

	sweepDone := make(chan struct{})
	if cfg.SweepInterval > 0 {
		sweeper := core.NewSweeper(services.Instance, services.Vps, cfg.SweepInterval, cfg.SweepWorkers, logger)
		go func() {
			defer close(sweepDone)
			sweeper.Run(ctx)
		}()
		logger.Info().Dur("interval", cfg.SweepInterval).Int("workers", cfg.SweepWorkers).Msg("background sweep enabled")
	} else {
		close(sweepDone)
	}

	httpServer := &http.Server{
		Addr:    cfg.HTTPListenAddr,
		Handler: srv,
		// provider calls can approach ProviderTimeout
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ProviderTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting controlpanel API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)

	cancel()
	<-sweepDone
}

func createToken(args []string) {
	fs := flag.NewFlagSet("create-token", flag.ExitOnError)
	user := fs.String("user", "", "User ID (required)")
	org := fs.String("org", "", "Organization ID (required)")
	role := fs.String("role", mw.RoleMember, "Role: member or admin")
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime")
	fs.Parse(args)

	if *user == "" || *org == "" {
		fmt.Fprintln(os.Stderr, "error: --user and --org are required")
		fmt.Fprintln(os.Stderr, "usage: controlpanel-api create-token --user <id> --org <id> [--role admin] [--ttl 24h]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "error: JWT_SECRET is not set")
		os.Exit(1)
	}

	token, err := mw.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer).IssueToken(*user, *org, *role, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
