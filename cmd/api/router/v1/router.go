package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cacheport "freelancehub/internal/infrastructure/cache/port"
	qport "freelancehub/internal/infrastructure/queue/port"
	"freelancehub/internal/infrastructure/realtime"
	httpHandler "freelancehub/internal/pkg/chat/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1.
func RegisterRoutes(r *gin.Engine, pool *pgxpool.Pool, client qport.Client, hub *realtime.Hub, presence *realtime.Presence, cache cacheport.Cache, jwtSecret string) {
	v1 := r.Group("/api/v1")
	httpHandler.RegisterRoutes(v1, pool, client, hub, presence, cache, jwtSecret)
}
