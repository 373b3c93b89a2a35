package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/catalog-api/internal/config"
	"github.com/vasiliy-maslov/catalog-api/internal/db"
	catalogHttp "github.com/vasiliy-maslov/catalog-api/internal/handler/http"
	"github.com/vasiliy-maslov/catalog-api/internal/product"
	"github.com/vasiliy-maslov/catalog-api/internal/stats"
	"github.com/vasiliy-maslov/catalog-api/internal/user"
)

var version = "dev"

// store bundles the repositories of the selected backend with its
// connectivity probe and shutdown hook.
type store struct {
	users    user.Repository
	products product.Repository
	ping     catalogHttp.PingFunc
	close    func(ctx context.Context)
}

func main() {
	setupLogger(config.AppConfig{LogLevel: "info", LogFormat: "console"})

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogger(cfg.App)

	log.Info().Str("version", version).Str("driver", cfg.Store.Driver).Msg("Catalog API starting...")

	st, err := openStore(cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("Failed to initialise store")
	}

	userSvc := user.NewService(st.users,
		user.WithActiveByDefault(cfg.Users.DefaultActiveFilter == config.ActiveFilterActive))
	productSvc := product.NewService(st.products)
	statsSvc := stats.NewService(st.users, st.products)

	router := catalogHttp.NewRouter(catalogHttp.Handlers{
		Meta:     catalogHttp.NewMetaHandler(cfg.App.Name, version, cfg.Store.Driver, st.ping),
		Users:    catalogHttp.NewUserHandler(userSvc),
		Products: catalogHttp.NewProductHandler(productSvc),
		Stats:    catalogHttp.NewStatsHandler(statsSvc),
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Str("port", cfg.App.Port).Msg("Could not listen")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	st.close(shutdownCtx)

	log.Info().Msg("Catalog API stopped gracefully")
}

func setupLogger(cfg config.AppConfig) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	name := cfg.Name
	if name == "" {
		name = "catalog-api"
	}
	log.Logger = log.With().Str("service", name).Logger()
}

// openStore connects to the configured backend. Connectivity problems are
// logged and do not stop startup; requests fail until the store recovers.
func openStore(cfg config.StoreConfig) (*store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	switch cfg.Driver {
	case config.DriverMongo:
		mdb, err := db.NewMongo(ctx, cfg.Mongo, cfg.ConnectTimeout)
		if err != nil {
			return nil, err
		}

		if err := mdb.Ping(ctx); err != nil {
			log.Error().Err(err).Msg("MongoDB is unreachable, serving anyway")
		}

		users := user.NewMongoRepository(mdb.DB)
		products := product.NewMongoRepository(mdb.DB)

		// Ping may have used up ctx. User writes retry the index build
		// until it succeeds.
		idxCtx, idxCancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
		defer idxCancel()
		if err := users.EnsureIndexes(idxCtx); err != nil {
			log.Error().Err(err).Msg("Failed to ensure user indexes, user writes will retry")
		}
		if err := products.EnsureIndexes(idxCtx); err != nil {
			log.Error().Err(err).Msg("Failed to ensure product indexes")
		}

		log.Info().Str("database", cfg.Mongo.Database).Msg("MongoDB store ready")
		return &store{users: users, products: products, ping: mdb.Ping, close: mdb.Close}, nil

	case config.DriverPostgres:
		if cfg.Postgres.AutoMigrate {
			if err := db.Migrate(cfg.Postgres.URL); err != nil {
				log.Error().Err(err).Msg("Failed to apply database migrations")
			} else {
				log.Info().Msg("Database migrations applied")
			}
		}

		pg, err := db.NewPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}

		if err := pg.Ping(ctx); err != nil {
			log.Error().Err(err).Msg("PostgreSQL is unreachable, serving anyway")
		}

		log.Info().Msg("PostgreSQL store ready")
		return &store{
			users:    user.NewPostgresRepository(pg.Pool),
			products: product.NewPostgresRepository(pg.Pool),
			ping:     pg.Ping,
			close:    func(context.Context) { pg.Close() },
		}, nil

	case config.DriverMemory:
		log.Warn().Msg("Using the in-memory store, data is lost on restart")
		return &store{
			users:    user.NewMemoryRepository(),
			products: product.NewMemoryRepository(),
			ping:     func(context.Context) error { return nil },
			close:    func(context.Context) {},
		}, nil
	}

	return nil, errors.New("unsupported store driver " + cfg.Driver)
}
