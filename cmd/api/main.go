package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Implementacion-api/internal/application/implementation"
	infrapdf "github.com/jhoicas/Implementacion-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Implementacion-api/internal/infrastructure/memory"
	"github.com/jhoicas/Implementacion-api/internal/infrastructure/postgres"
	infraxlsx "github.com/jhoicas/Implementacion-api/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/Implementacion-api/internal/interfaces/http"
	"github.com/jhoicas/Implementacion-api/internal/observability"
	"github.com/jhoicas/Implementacion-api/pkg/config"
	"github.com/jhoicas/Implementacion-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Almacenamiento: PostgreSQL en despliegue, memoria para demos y pruebas locales.
	var (
		tx    implementation.TxRunner
		repos implementation.Repositories
	)
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		store := memory.NewStore()
		tx, repos = store, store.Repositories()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.Migrate {
			if err := postgres.Migrate(pool); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
			log.Info().Msg("migraciones aplicadas")
		}
		tx, repos = postgres.NewTxRunner(pool), postgres.Repositories(pool)
	}

	deps := implementation.Deps{
		Tx:    tx,
		Repos: repos,
		Log:   log.Named("implementation"),
		Defaults: implementation.Defaults{
			Currency: cfg.App.DefaultCurrency,
			VATRate:  cfg.App.DefaultVATRate,
		},
	}
	engine := implementation.NewEngine(log.Named("engine"))

	implementationUC := implementation.NewImplementationUseCase(deps, engine)
	contractUC := implementation.NewContractUseCase(deps, engine)
	documentUC := implementation.NewDocumentUseCase(deps, engine)
	settlementUC := implementation.NewSettlementUseCase(deps, engine)
	statementUC := implementation.NewStatementUseCase(deps, engine,
		infraxlsx.NewStatementExporter(), infrapdf.NewMarotoPDFGenerator())

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Implementacion API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		ImplementationUC: implementationUC,
		ContractUC:       contractUC,
		DocumentUC:       documentUC,
		SettlementUC:     settlementUC,
		StatementUC:      statementUC,
		JWTSecret:        cfg.JWT.Secret,
		JWTIssuer:        cfg.JWT.Issuer,
		Metrics:          metrics,
		Log:              log.Named("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
