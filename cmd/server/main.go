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

	"go.uber.org/zap"

	"poker-rooms/engine"
	"poker-rooms/internal/api"
	"poker-rooms/internal/auth"
	"poker-rooms/internal/db"
	"poker-rooms/internal/logging"
	"poker-rooms/internal/middleware"
	"poker-rooms/internal/redis"
	"poker-rooms/internal/store"
	"poker-rooms/internal/turnclock"
	"poker-rooms/internal/websocket"
	"poker-rooms/server"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(cfg.DBConfig, log)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := store.Migrate(database); err != nil {
		return err
	}

	sqlStore := store.NewSQLStore(database, log)
	var snapshots engine.Store = sqlStore
	checks := map[string]api.HealthChecker{"database": database}
	if cfg.RedisEnabled {
		rc, err := redis.New(ctx, cfg.RedisConfig, log)
		if err != nil {
			log.Warn("redis unavailable, snapshots go to the database only", zap.Error(err))
		} else {
			defer rc.Close()
			snapshots = store.NewRedisCache(rc, sqlStore, 0, log)
			checks["redis"] = rc
		}
	}

	history := store.NewHistoryRecorder(database, log)
	hub := websocket.NewHub(nil, log)
	clock := turnclock.New(nil, cfg.ActionTimeout, log)
	defer clock.Stop()
	tcpEvents := engine.NewChannelBroadcaster(4096)

	rooms := engine.NewTableManager(
		engine.WithStore(snapshots),
		engine.WithBroadcaster(engine.MultiBroadcaster{hub, history, clock, tcpEvents}),
		engine.WithLogger(log),
		engine.WithDefaults(cfg.Table),
		engine.WithEndedRoomTTL(cfg.EndedRoomTTL),
	)
	hub.SetViews(rooms)
	clock.SetActor(rooms)

	ids, err := sqlStore.OpenRoomIDs(ctx)
	if err != nil {
		log.Warn("open rooms not listed", zap.Error(err))
	} else if _, err := rooms.Restore(ctx, ids...); err != nil {
		log.Warn("rooms not fully restored", zap.Error(err))
	}

	go hub.Run(ctx)
	go history.Run(ctx)
	go rooms.RunJanitor(ctx, time.Minute)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, log)
	defer limiter.Stop()
	actionLimiter := middleware.NewRateLimiter(middleware.ActionRateLimiterConfig, log)
	defer actionLimiter.Stop()

	websocket.AllowedOrigins = cfg.AllowedOrigins
	router := api.NewRouter(&api.Handler{
		Rooms:         rooms,
		Auth:          auth.NewService(cfg.JWTSecret),
		Hub:           hub,
		History:       history,
		Deadlines:     clock,
		Limiter:       limiter,
		ActionLimiter: actionLimiter,
		Checks:        checks,
		Log:           log,
	}, api.RouterConfig{
		Production:     cfg.Production(),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	tcpServer := server.NewTCPServer(cfg.TCPAddr, rooms, tcpEvents.Events(), log)

	errCh := make(chan error, 2)
	go func() {
		log.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := tcpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case runErr = <-errCh:
		log.Error("listener failed", zap.Error(runErr))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	tcpServer.Stop()
	if n := tcpEvents.Dropped(); n > 0 {
		log.Warn("tcp events dropped", zap.Int("count", n))
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
