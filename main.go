package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lawfort/config"
	"lawfort/config/database"
	"lawfort/config/features"
	"lawfort/middleware"
	"lawfort/pkg/logger"
	"lawfort/router"
	"lawfort/socket"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownGrace = 10 * time.Second

var skipMigrate bool

var rootCmd = &cobra.Command{
	Use:           "lawfort",
	Short:         "LawFort REST and realtime backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and websocket server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := boot()
		defer logger.Sync()

		db, err := database.Connect(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		return database.Migrate(cmd.Context(), db)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply the schema on startup")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Log.Error("Command failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

// boot loads .env and the environment and initialises the logger.
func boot() config.Config {
	envErr := godotenv.Load()
	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	if envErr != nil {
		logger.Log.Info("No .env file found, using environment variables from OS")
	}
	return cfg
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := boot()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flags, err := features.Load(cfg.FeaturesFile)
	if err != nil {
		return err
	}

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if !skipMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	rdb := connectRedis(ctx, cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	hub := socket.NewHub(db)
	go hub.Run()

	limiter := middleware.NewRateLimiter(10, 15*time.Minute)
	go limiter.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.Setup(router.Deps{Config: cfg, Flags: flags, DB: db, Hub: hub, Redis: rdb, Limiter: limiter}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return listen(ctx, srv)
}

// connectRedis returns nil when no address is configured or the server does
// not answer; sessions are then resolved from Postgres on every request.
func connectRedis(ctx context.Context, cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		logger.Log.Info("Redis not configured, session cache disabled")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Log.Warn("Redis unreachable, session cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		rdb.Close()
		return nil
	}
	logger.Log.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
	return rdb
}

func listen(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("LawFort backend listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
