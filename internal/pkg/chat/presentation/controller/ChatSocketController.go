package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"freelancehub/internal/infrastructure/realtime"
	"freelancehub/internal/middleware"
	chat "freelancehub/internal/pkg/chat/application/domain"
	repository "freelancehub/internal/pkg/chat/persistence/repository/port"
)

// ChatSocketController handles the websocket endpoint for realtime chat
// traffic. The socket carries ephemeral events only: message relay, typing,
// read receipts and presence. Durable writes go through the REST endpoints,
// so nothing here ever waits on the database while relaying.
type ChatSocketController struct {
	repo            repository.ChatRepository
	hub             *realtime.Hub
	presence        *realtime.Presence
	jwtSecret       string
	inflightTimeout time.Duration
}

func NewChatSocketController(repo repository.ChatRepository, hub *realtime.Hub, presence *realtime.Presence, jwtSecret string) *ChatSocketController {
	return &ChatSocketController{
		repo:            repo,
		hub:             hub,
		presence:        presence,
		jwtSecret:       jwtSecret,
		inflightTimeout: 5 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now; plug a proper checker when the frontend
		// domains are pinned down.
		return true
	},
}

const defaultReadTimeout = 60 * time.Second

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type authenticateData struct {
	Token string `json:"token"`
}

type roomData struct {
	Chat string `json:"chat"`
}

type relayMessageData struct {
	Chat        string              `json:"chat"`
	TempID      string              `json:"tempId"`
	Content     string              `json:"content"`
	Attachments []attachmentPayload `json:"attachments"`
}

type markReadData struct {
	Chat      string `json:"chat"`
	MessageID string `json:"messageId"`
}

type presenceData struct {
	UserID string `json:"userId"`
}

type onlineUsersData struct {
	Users []string `json:"users"`
}

type deliveredData struct {
	Chat   string `json:"chat"`
	TempID string `json:"tempId"`
}

type typingRequest struct {
	Chat     string `json:"chat"`
	UserName string `json:"userName"`
}

type typingData struct {
	Chat     string `json:"chat"`
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
}

type readData struct {
	Chat      string `json:"chat"`
	MessageID string `json:"messageId"`
	Reader    string `json:"reader"`
}

type errorData struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// Handle upgrades HTTP connections to websocket and processes frames until
// the client disconnects.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just log and return.
			slog.Warn("websocket upgrade failed", "error", err)
			return
		}

		conn := realtime.NewConnection(ws)
		conn.Start()
		defer ctl.teardown(conn)

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		ctl.reply(conn, "connected", nil)

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
					errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil || frame.Event == "" {
				ctl.replyError(conn, "", "invalid payload")
				continue
			}

			if frame.Event == "authenticate" {
				ctl.handleAuthenticate(conn, frame.Data)
				continue
			}
			if conn.UserID == "" {
				ctl.replyError(conn, frame.Event, "authenticate first")
				continue
			}

			switch frame.Event {
			case "join-chat":
				ctl.handleJoin(c, conn, frame.Data)
			case "leave-chat":
				ctl.handleLeave(conn, frame.Data)
			case "send-message":
				ctl.handleSendMessage(conn, frame.Data)
			case "typing":
				ctl.handleTyping(conn, frame.Data, "user-typing")
			case "stop-typing":
				ctl.handleTyping(conn, frame.Data, "user-stopped-typing")
			case "mark-read":
				ctl.handleMarkRead(conn, frame.Data)
			default:
				ctl.replyError(conn, frame.Event, "unknown event")
			}
		}
	}
}

// handleAuthenticate binds the connection to a user. Re-authenticating an
// already bound connection is rejected rather than rebound.
func (ctl *ChatSocketController) handleAuthenticate(conn *realtime.Connection, raw json.RawMessage) {
	if conn.UserID != "" {
		ctl.replyError(conn, "authenticate", "already authenticated")
		return
	}

	var data authenticateData
	if err := json.Unmarshal(raw, &data); err != nil || data.Token == "" {
		ctl.replyError(conn, "authenticate", "token is required")
		return
	}

	userID, err := middleware.ParseToken(ctl.jwtSecret, data.Token)
	if err != nil {
		ctl.replyError(conn, "authenticate", "invalid token")
		return
	}

	conn.UserID = userID
	ctl.hub.Attach(conn)
	if ctl.presence.Register(userID, conn.ID) {
		ctl.broadcastPresence("user-online", userID, conn.ID)
	}
	ctl.reply(conn, "online-users", onlineUsersData{Users: ctl.presence.Snapshot()})
}

func (ctl *ChatSocketController) handleJoin(c *gin.Context, conn *realtime.Connection, raw json.RawMessage) {
	var data roomData
	if err := json.Unmarshal(raw, &data); err != nil || data.Chat == "" {
		ctl.replyError(conn, "join-chat", "chat is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	participants, err := ctl.repo.ListParticipantIDs(ctx, data.Chat)
	if err != nil {
		ctl.replyError(conn, "join-chat", "conversation not found")
		return
	}
	if !slices.Contains(participants, conn.UserID) {
		ctl.replyError(conn, "join-chat", "not a participant in this conversation")
		return
	}

	ctl.hub.Join(data.Chat, conn)
	ctl.reply(conn, "joined-chat", roomData{Chat: data.Chat})
}

func (ctl *ChatSocketController) handleLeave(conn *realtime.Connection, raw json.RawMessage) {
	var data roomData
	if err := json.Unmarshal(raw, &data); err != nil || data.Chat == "" {
		ctl.replyError(conn, "leave-chat", "chat is required")
		return
	}
	ctl.hub.Leave(data.Chat, conn)
	ctl.reply(conn, "left-chat", roomData{Chat: data.Chat})
}

// handleSendMessage relays an ephemeral copy of the message to the other
// connections in the room and acks the sender. The durable copy arrives via
// the REST send endpoint; this path deliberately never touches the store.
func (ctl *ChatSocketController) handleSendMessage(conn *realtime.Connection, raw json.RawMessage) {
	var data relayMessageData
	if err := json.Unmarshal(raw, &data); err != nil || data.Chat == "" || data.TempID == "" {
		ctl.replyError(conn, "send-message", "chat and tempId are required")
		return
	}

	// Validate with the same rules the durable path applies, then keep the
	// client's temp id so recipients can reconcile with the stored copy.
	msg, err := chat.NewMessage(conn.UserID, data.Content, toAttachments(data.Attachments), time.Now())
	if err != nil {
		ctl.replyError(conn, "send-message", err.Error())
		return
	}
	msg.ID = data.TempID
	msg.Delivered = true

	buf, err := json.Marshal(outboundFrame{Event: "receive-message", Data: toMessagePayload(data.Chat, msg)})
	if err != nil {
		ctl.replyError(conn, "send-message", "failed to encode message")
		return
	}

	// Exclude only the originating connection; the sender's other tabs want
	// the echo too.
	ctl.hub.BroadcastRoom(data.Chat, buf, conn.ID, "")
	ctl.reply(conn, "message-delivered", deliveredData{Chat: data.Chat, TempID: data.TempID})
}

// handleTyping relays the indicator to room peers. The display name travels
// with the frame so peers can render "X is typing" without a directory
// round trip.
func (ctl *ChatSocketController) handleTyping(conn *realtime.Connection, raw json.RawMessage, event string) {
	var data typingRequest
	if err := json.Unmarshal(raw, &data); err != nil || data.Chat == "" {
		ctl.replyError(conn, event, "chat is required")
		return
	}

	buf, err := json.Marshal(outboundFrame{Event: event, Data: typingData{
		Chat:     data.Chat,
		UserID:   conn.UserID,
		UserName: data.UserName,
	}})
	if err != nil {
		return
	}
	ctl.hub.BroadcastRoom(data.Chat, buf, "", conn.UserID)
}

func (ctl *ChatSocketController) handleMarkRead(conn *realtime.Connection, raw json.RawMessage) {
	var data markReadData
	if err := json.Unmarshal(raw, &data); err != nil || data.Chat == "" || data.MessageID == "" {
		ctl.replyError(conn, "mark-read", "chat and messageId are required")
		return
	}

	buf, err := json.Marshal(outboundFrame{Event: "message-read", Data: readData{
		Chat:      data.Chat,
		MessageID: data.MessageID,
		Reader:    conn.UserID,
	}})
	if err != nil {
		return
	}
	ctl.hub.BroadcastRoom(data.Chat, buf, conn.ID, "")
}

func (ctl *ChatSocketController) teardown(conn *realtime.Connection) {
	if conn.UserID != "" {
		ctl.hub.Detach(conn)
		if ctl.presence.Unregister(conn.UserID, conn.ID) {
			ctl.broadcastPresence("user-offline", conn.UserID, conn.ID)
		}
	}
	conn.Close(websocket.CloseNormalClosure, "session closed")
}

func (ctl *ChatSocketController) broadcastPresence(event, userID, excludeConnID string) {
	buf, err := json.Marshal(outboundFrame{Event: event, Data: presenceData{UserID: userID}})
	if err != nil {
		return
	}
	ctl.hub.BroadcastAll(buf, excludeConnID)
}

func (ctl *ChatSocketController) reply(conn *realtime.Connection, event string, data any) {
	buf, err := json.Marshal(outboundFrame{Event: event, Data: data})
	if err != nil {
		return
	}
	_ = conn.Send(buf)
}

func (ctl *ChatSocketController) replyError(conn *realtime.Connection, event, message string) {
	ctl.reply(conn, "error", errorData{Event: event, Message: message})
}
