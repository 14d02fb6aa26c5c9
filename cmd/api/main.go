package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "rental_booking/internal/adapters/http_server"
	"rental_booking/internal/adapters/observability"
	redisad "rental_booking/internal/adapters/redis"
	"rental_booking/internal/app"
	"rental_booking/internal/engine"
	"rental_booking/internal/shared"
	mysqlrepo "rental_booking/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	quotes := app.NewQuoteService(repo, repo, repo, cache, cfg.CacheTTL)
	bookings := app.NewBookingService(
		quotes, // cached property reads
		repo,
		repo,
		quotes, // cached channel reads
		engine.NewIdentityResolver(repo),
	)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Bookings: bookings,
		Quotes:   quotes,
		Limiter:  server.NewIPLimiter(float64(cfg.BookingRPS), cfg.BookingBurst),
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
