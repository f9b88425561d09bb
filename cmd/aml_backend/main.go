package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/finsentry/aml_backend/internal/core/ports"
	portssvc "github.com/finsentry/aml_backend/internal/core/ports/services"
	"github.com/finsentry/aml_backend/internal/core/services"
	"github.com/finsentry/aml_backend/internal/handlers"
	"github.com/finsentry/aml_backend/internal/middleware"
	"github.com/finsentry/aml_backend/internal/repositories/database/pgsql"
	"github.com/finsentry/aml_backend/internal/repositories/memory"
	"github.com/finsentry/aml_backend/pkg/config"
	"github.com/finsentry/aml_backend/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ulule/limiter/v3"
	limitermem "github.com/ulule/limiter/v3/drivers/store/memory"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repo := buildLedgerRepository(cfg, logger)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := handlers.RegisterCustomValidators(); err != nil {
		logger.Error("Failed to register validators", slog.String("error", err.Error()))
		os.Exit(1)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	r.Use(cors.New(corsConfig))

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid rate limit configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	r.Use(middleware.RateLimit(limiter.New(limitermem.NewStore(), rate)))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, buildServices(repo))

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// buildLedgerRepository connects to Postgres and applies migrations, or falls
// back to the in-memory store when no database URL is configured.
func buildLedgerRepository(cfg *config.Config, logger *slog.Logger) ports.LedgerRepository {
	if cfg.DatabaseURL == "" {
		logger.Warn("No database configured, using in-memory ledger store")
		return memory.NewLedgerStore()
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Database connection pool established.")

	runMigrations(cfg.DatabaseURL, logger)
	return pgsql.NewLedgerRepository(dbPool)
}

// runMigrations applies all pending "up" migrations over a temporary
// database/sql connection using the pgx stdlib driver.
func runMigrations(databaseURL string, logger *slog.Logger) {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		logger.Error("Failed to ping database for migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance for migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		logger.Error("Migration source error", slog.String("error", sourceErr.Error()))
		os.Exit(1)
	}
	if dbErr != nil {
		logger.Error("Migration database error", slog.String("error", dbErr.Error()))
		os.Exit(1)
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
}

// buildServices wires the service layer onto the chosen repository.
func buildServices(repo ports.LedgerRepository) *portssvc.ServiceContainer {
	subgraphSvc := services.NewSubgraphService(repo)
	ringSvc := services.NewRingService(repo, services.DefaultRingDetectorConfig())
	riskSvc := services.NewRiskService(repo, subgraphSvc, services.DefaultRiskConfig())
	policySvc := services.NewPolicyService(repo, services.DefaultPolicyConfig())
	txnSvc := services.NewTransactionService(repo, riskSvc, policySvc, services.DefaultScreeningThresholds())
	accountSvc := services.NewAccountService(repo)

	return &portssvc.ServiceContainer{
		Graph:       graphFacade{subgraphSvc, ringSvc},
		Risk:        riskSvc,
		Policy:      policySvc,
		Transaction: txnSvc,
		Account:     accountSvc,
	}
}

// graphFacade joins the subgraph and ring services behind the single graph
// interface the handlers consume.
type graphFacade struct {
	*services.SubgraphService
	*services.RingService
}
