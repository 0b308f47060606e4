package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	cacheAdapter "freelancehub/internal/infrastructure/cache/adapter"
	cacheport "freelancehub/internal/infrastructure/cache/port"
	"freelancehub/internal/infrastructure/database"
	queueAdapter "freelancehub/internal/infrastructure/queue/adapter"
	"freelancehub/internal/infrastructure/realtime"
	"freelancehub/internal/pkg/chat/application/task"

	v1 "freelancehub/cmd/api/router/v1"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found or could not be loaded", "error", err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := database.NewPoolFromEnv(connectCtx)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// The profile cache is an optimization; run without it if redis is down.
	var cache cacheport.Cache
	if redis, err := cacheAdapter.NewRedisAdapter(); err != nil {
		slog.Warn("redis unavailable, profile cache disabled", "error", err)
	} else {
		cache = redis
		defer redis.Close()
	}

	queueClient, err := queueAdapter.NewAsynqClientFromEnv()
	if err != nil {
		slog.Error("failed to create queue client", "error", err)
		os.Exit(1)
	}
	defer queueClient.Close()

	queueServer, err := queueAdapter.NewAsynqServer()
	if err != nil {
		slog.Error("failed to create queue server", "error", err)
		os.Exit(1)
	}
	task.RegisterMarkDeliveredTask(queueServer, pool)
	task.RegisterNotifyOfflineTask(queueServer, pool)
	go func() {
		if err := queueServer.Run(ctx); err != nil {
			slog.Error("queue server stopped", "error", err)
		}
	}()

	hub := realtime.NewHub()
	presence := realtime.NewPresence()

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	v1.RegisterRoutes(r, pool, queueClient, hub, presence, cache, jwtSecret)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: r}

	go func() {
		slog.Info("api listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	hub.Close()
	if err := queueServer.Stop(shutdownCtx); err != nil {
		slog.Warn("queue server shutdown", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http server shutdown", "error", err)
	}
}

func corsOrigins() []string {
	var out []string
	for _, o := range strings.Split(os.Getenv("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"http://localhost:3000"}
	}
	return out
}
