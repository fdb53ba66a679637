// Command backfill reconciles a range of days against the score source,
// seeding the store first when it is empty.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"pickem-go/config"
	"pickem-go/database"
	"pickem-go/logging"
	"pickem-go/models"
	"pickem-go/services"

	"github.com/itbasis/go-clock"
)

func main() {
	from := flag.String("from", "", "first day to reconcile (YYYY-MM-DD, default today)")
	to := flag.String("to", "", "last day to reconcile (YYYY-MM-DD, default from)")
	seedOnly := flag.Bool("seed", false, "only seed an empty store, reconcile nothing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Configure(cfg.ToLoggingConfig())
	defer logging.Sync()
	logger := logging.WithPrefix("backfill")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, _ := cfg.Location()
	clk := clock.New()

	db, err := database.NewMongoConnection(ctx, cfg.ToDatabaseConfig())
	if err != nil {
		logger.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()

	games := database.NewMongoGameRepository(db)
	teams := database.NewMongoTeamRepository(db)
	seasons := database.NewMongoSeasonRepository(db)

	sportsAPI := services.NewSportsAPIService(cfg.ToSportsAPIConfig())
	seeder := services.NewSeeder(sportsAPI, games, teams, seasons, cfg.ToSeedConfig())
	reconciler := services.NewReconciler(sportsAPI, games, teams, seasons, seeder, clk, cfg.ToReconcilerConfig())

	if *seedOnly {
		count, err := games.CountGames(ctx)
		if err != nil {
			logger.Fatalf("Counting games: %v", err)
		}
		if count > 0 {
			logger.Infof("Store already holds %d games, nothing to seed", count)
			return
		}
		result, err := seeder.Seed(ctx)
		if err != nil {
			logger.Fatalf("Seed failed: %v", err)
		}
		logger.Infof("Seeded %d games", result.Inserted)
		return
	}

	first := models.StartOfDay(clk.Now(), loc)
	if *from != "" {
		if first, err = models.ParseDay(*from, loc); err != nil {
			logger.Fatalf("%v", err)
		}
	}
	last := first
	if *to != "" {
		if last, err = models.ParseDay(*to, loc); err != nil {
			logger.Fatalf("%v", err)
		}
	}
	if last.Before(first) {
		logger.Fatalf("-to %s is before -from %s", models.FormatDay(last), models.FormatDay(first))
	}

	failed := 0
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if ctx.Err() != nil {
			logger.Warn("Interrupted")
			break
		}
		report, err := reconciler.Update(ctx, day)
		if err != nil {
			failed++
			logger.Errorf("%s: %v", models.FormatDay(day), err)
			continue
		}
		logger.Infof("%s", report)
	}

	if failed > 0 {
		logger.Errorf("%d day(s) failed", failed)
		os.Exit(1)
	}
}
