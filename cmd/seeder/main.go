package main

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"rental_booking/internal/adapters/observability"
	"rental_booking/internal/shared"
)

// Seeds demo channels plus a batch of properties with a base period and a
// summer season each, so the API has something to price out of the box.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)
	log.Info().Int("workers", cfg.SeedWorkers).Msg("seeder starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	seedChannels(ctx, db)

	sem := semaphore.NewWeighted(int64(cfg.SeedWorkers))
	var wg sync.WaitGroup

	for i := 1; i <= 50; i++ {
		i := i

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			defer sem.Release(int64(1))

			if err := seedProperty(ctx, db, n); err != nil {
				log.Warn().Int("n", n).Err(err).Msg("seed failed")
				return
			}
			log.Info().Int("n", n).Msg("seed ok")
		}(i)
	}

	wg.Wait()
	log.Info().Msg("seeding completed")
}

func seedChannels(ctx context.Context, db *sql.DB) {
	channels := []struct {
		name                string
		sales, collect, tax float64
		appliesTax          bool
	}{
		{"direct", 0, 0, 0, false},
		{"portal", 15, 3, 6, true},
		{"agency", 10, 0, 0, false},
	}
	for _, c := range channels {
		_, err := db.ExecContext(ctx,
			`INSERT INTO channels (name, sales_pct, collection_pct, applies_tax, tax_pct)
			 SELECT ?, ?, ?, ?, ?
			 WHERE NOT EXISTS (SELECT 1 FROM channels WHERE name = ?)`,
			c.name, c.sales, c.collect, c.appliesTax, c.tax, c.name)
		if err != nil {
			log.Warn().Str("channel", c.name).Err(err).Msg("channel seed failed")
		}
	}
}

func seedProperty(ctx context.Context, db *sql.DB, n int) error {
	res, err := db.ExecContext(ctx,
		`INSERT INTO properties (tenant_id, name, min_nights, guest_threshold) VALUES (1, ?, 2, 4)`,
		fmt.Sprintf("Demo Villa %02d", n))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	base := 80 + float64(n%5)*10
	if _, err := db.ExecContext(ctx,
		`INSERT INTO rate_periods (property_id, kind, name, nightly, weekend, weekly, min_nights, position)
		 VALUES (?, 'base', 'base', ?, ?, ?, 0, 0)`,
		id, base, base*1.25, base*6.5); err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO rate_periods
		   (property_id, kind, name, season_start, season_end, nightly, weekend, extra_guest, min_nights, position)
		 VALUES (?, 'seasonal', 'summer', '2026-06-15', '2026-09-15', ?, ?, 12.5, 3, 1)`,
		id, base*1.8, base*2.2)
	return err
}
