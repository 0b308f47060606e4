package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cacheport "freelancehub/internal/infrastructure/cache/port"
	qport "freelancehub/internal/infrastructure/queue/port"
	"freelancehub/internal/infrastructure/realtime"
	"freelancehub/internal/middleware"
	repoAdapter "freelancehub/internal/pkg/chat/persistence/repository/adapter"
	"freelancehub/internal/pkg/chat/presentation/controller"
	dirAdapter "freelancehub/internal/repository/adapter"
	directory "freelancehub/internal/repository/port"
)

// RegisterRoutes registers chat-related HTTP endpoints under the given router
// group. It constructs per-endpoint controllers and binds them directly to
// routes. The websocket endpoint stays outside the JWT middleware because the
// socket authenticates with its own frame after the upgrade.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, client qport.Client, hub *realtime.Hub, presence *realtime.Presence, cache cacheport.Cache, jwtSecret string) {
	repo := repoAdapter.NewPgChatRepository(pool)

	var users directory.UserDirectory = dirAdapter.NewPgUserDirectory(pool)
	if cache != nil {
		users = dirAdapter.NewCachedUserDirectory(users, cache)
	}

	createCtl := controller.NewCreateChatController(repo)
	listCtl := controller.NewListConversationsController(repo, users)
	getMsgCtl := controller.NewGetMessagesController(repo)
	sendMsgCtl := controller.NewSendMessageController(repo, hub, presence, client)
	markReadCtl := controller.NewMarkReadController(repo)
	deleteCtl := controller.NewDeleteMessageController(repo)
	searchCtl := controller.NewSearchMessagesController(repo, users)
	socketCtl := controller.NewChatSocketController(repo, hub, presence, jwtSecret)

	authed := g.Group("", middleware.JWTAuth(jwtSecret))

	// POST /api/v1/chat -> find or create the conversation with another user
	authed.POST("/chat", createCtl.Handle())

	// GET /api/v1/chat/conversations -> list the caller's conversations
	authed.GET("/chat/conversations", listCtl.Handle())

	// GET /api/v1/chat/:chatId/messages -> fetch messages and mark them read
	authed.GET("/chat/:chatId/messages", getMsgCtl.Handle())

	// POST /api/v1/chat/messages -> persist a message
	authed.POST("/chat/messages", sendMsgCtl.Handle())

	// PUT /api/v1/chat/messages/:messageId/read -> mark one message read
	authed.PUT("/chat/messages/:messageId/read", markReadCtl.Handle())

	// DELETE /api/v1/chat/messages/:messageId -> delete own message
	authed.DELETE("/chat/messages/:messageId", deleteCtl.Handle())

	// GET /api/v1/chat/search -> search across conversations
	authed.GET("/chat/search", searchCtl.Handle())

	// GET /api/v1/chat/ws -> websocket endpoint for realtime chat
	g.GET("/chat/ws", socketCtl.Handle())
}
