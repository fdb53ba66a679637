package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pickem-go/cache"
	"pickem-go/config"
	"pickem-go/database"
	"pickem-go/handlers"
	"pickem-go/interfaces"
	"pickem-go/logging"
	"pickem-go/middleware"
	"pickem-go/publisher"
	"pickem-go/services"

	"github.com/gorilla/mux"
	"github.com/itbasis/go-clock"
	"github.com/redis/go-redis/v9"
)

// stores bundles the repositories, backed by MongoDB or by memory
type stores struct {
	games   services.GameRepository
	teams   services.TeamRepository
	picks   services.PickRepository
	users   services.UserRepository
	seasons services.SeasonRepository
	ping    interfaces.HealthCheckFunc
	close   func()
}

func openStores(ctx context.Context, cfg *config.Config) *stores {
	db, err := database.NewMongoConnection(ctx, cfg.ToDatabaseConfig())
	if err != nil {
		logging.Errorf("Database connection failed: %v", err)
		logging.Warn("Continuing with an in-memory store; nothing will be persisted")
		mem := database.NewMemoryStore()
		return &stores{
			games: mem, teams: mem, picks: mem, users: mem, seasons: mem,
			ping:  func(ctx context.Context) error { return nil },
			close: func() {},
		}
	}

	logging.Info("Connected to MongoDB")
	return &stores{
		games:   database.NewMongoGameRepository(db),
		teams:   database.NewMongoTeamRepository(db),
		picks:   database.NewMongoPickRepository(db),
		users:   database.NewMongoUserRepository(db),
		seasons: database.NewMongoSeasonRepository(db),
		ping:    db.TestConnection,
		close: func() {
			if err := db.Close(); err != nil {
				logging.Errorf("Closing MongoDB: %v", err)
			}
		},
	}
}

// openRedis returns nil when Redis is not configured or unreachable
func openRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	opts, err := cfg.ToRedisOptions()
	if err != nil {
		logging.Errorf("%v", err)
		return nil
	}
	if opts == nil {
		return nil
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logging.Warnf("Redis unreachable (%v), using in-memory pending picks", err)
		client.Close()
		return nil
	}
	logging.Infof("Connected to Redis at %s", opts.Addr)
	return client
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Configure(cfg.ToLoggingConfig())
	defer logging.Sync()
	cfg.LogConfiguration()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, _ := cfg.Location()
	clk := clock.New()

	st := openStores(ctx, cfg)
	defer st.close()

	var pending cache.PendingPickStore = cache.NewMemoryPendingPickStore()
	redisClient := openRedis(ctx, cfg)
	if redisClient != nil {
		defer redisClient.Close()
		pending = cache.NewRedisPendingPickStore(redisClient)
	}

	// Services
	sportsAPI := services.NewSportsAPIService(cfg.ToSportsAPIConfig())
	seeder := services.NewSeeder(sportsAPI, st.games, st.teams, st.seasons, cfg.ToSeedConfig())
	reconciler := services.NewReconciler(sportsAPI, st.games, st.teams, st.seasons, seeder, clk, cfg.ToReconcilerConfig())
	pickService := services.NewPickService(st.picks, st.games, st.teams, pending, clk)
	scoring := services.NewScoringService(st.picks, st.games, st.users, loc)
	views := services.NewGameViewService(st.games, st.teams, st.picks, scoring, clk, loc)
	authService := services.NewAuthService(st.users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.AdminUsernames, clk)
	updater := services.NewBackgroundUpdater(reconciler, clk, cfg.ToSchedulerConfig())

	sse := handlers.NewSSEHandler(30 * time.Second)
	reconciler.AddNotifier(sse)
	if redisClient != nil {
		reconciler.AddNotifier(publisher.NewStreamPublisher(redisClient))
	}

	if cfg.IsDevelopment() {
		if err := services.NewUserSeeder(st.users).SeedUsers(ctx, services.DefaultDevUsers); err != nil {
			logging.Errorf("Seeding development users: %v", err)
		}
	}

	// Handlers
	cookies := cfg.ToCookieConfig()
	authHandler := handlers.NewAuthHandler(authService, pickService, cookies)
	gameHandler := handlers.NewGameHandler(views, pickService, updater, cookies)
	gameHandler.AddHealthCheck("database", st.ping)
	gameHandler.AddHealthCheck("sports_api", sportsAPI)
	authMW := middleware.NewAuthMiddleware(authService)

	r := mux.NewRouter()
	r.Use(middleware.RequestLogger)
	r.Use(middleware.SecurityHeaders(cfg.Server.BehindProxy))

	public := func(h http.HandlerFunc) http.Handler { return h }
	optional := func(h http.HandlerFunc) http.Handler { return authMW.OptionalAuth(h) }
	required := func(h http.HandlerFunc) http.Handler { return authMW.RequireAuth(h) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW.RequireAdmin(h) }

	// Auth routes
	r.Handle("/signup", public(authHandler.Signup)).Methods("POST")
	r.Handle("/login", public(authHandler.Login)).Methods("POST")
	r.Handle("/logout", public(authHandler.Logout)).Methods("POST")
	r.Handle("/me", required(authHandler.Me)).Methods("GET")
	r.Handle("/users/delete", required(authHandler.DeleteAccount)).Methods("POST")

	// Pick routes
	r.Handle("/picksheet/games", optional(gameHandler.PicksheetGames)).Methods("GET")
	r.Handle("/picksheet", optional(gameHandler.SubmitPicksheet)).Methods("POST")
	r.Handle("/mypicks", required(gameHandler.MyPicks)).Methods("GET")

	// Scoreboard and leaderboard routes
	r.Handle("/scoreboard/games", required(gameHandler.Scoreboard)).Methods("GET")
	r.Handle("/scoreboard/games/{day}", required(gameHandler.Scoreboard)).Methods("GET")
	r.Handle("/scoreboard/update", admin(gameHandler.ForceUpdate)).Methods("GET")
	r.Handle("/leaderboard/users", required(gameHandler.Leaderboard)).Methods("GET")
	r.Handle("/leaderboard/users/{day}", required(gameHandler.Leaderboard)).Methods("GET")
	r.Handle("/leaderboard/season", required(gameHandler.SeasonLeaders)).Methods("GET")

	r.Handle("/events", optional(sse.Handle)).Methods("GET")
	r.Handle("/healthz", public(gameHandler.Healthz)).Methods("GET")

	if err := updater.Start(); err != nil {
		logging.Fatalf("Failed to start scheduler: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// no WriteTimeout: /events streams indefinitely
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logging.Infof("Server starting on http://%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down")

	updater.Stop()
	sse.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Errorf("Graceful shutdown failed: %v", err)
	}
}
