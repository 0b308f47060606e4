package controller

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freelancehub/internal/infrastructure/realtime"
	"freelancehub/internal/middleware"
)

const socketTestSecret = "socket-test-secret"

type socketFixture struct {
	srv    *httptest.Server
	repo   *stubRepository
	conns  []*websocket.Conn
	online map[string]bool
}

func newSocketFixture(t *testing.T) *socketFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newStubRepository()
	hub := realtime.NewHub()
	presence := realtime.NewPresence()
	ctl := NewChatSocketController(repo, hub, presence, socketTestSecret)

	r := gin.New()
	r.GET("/ws", ctl.Handle())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Close)
	return &socketFixture{srv: srv, repo: repo, online: make(map[string]bool)}
}

// dial opens a socket and consumes the connected handshake.
func (f *socketFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	expectEvent(t, ws, "connected")
	return ws
}

func authToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := middleware.NewToken(socketTestSecret, userID, time.Minute)
	require.NoError(t, err)
	return token
}

// authenticate dials, sends the auth frame and consumes the online-users
// reply, returning the connection and the snapshot it was given. When the
// user transitions to online, the broadcast reaches every previously opened
// socket; those frames are consumed and verified here so later assertions on
// those sockets see only their own events.
func (f *socketFixture) authenticate(t *testing.T, userID string) (*websocket.Conn, []string) {
	t.Helper()
	ws := f.dial(t)
	sendEvent(t, ws, "authenticate", map[string]string{"token": authToken(t, userID)})

	frame := expectEvent(t, ws, "online-users")
	var data struct {
		Users []string `json:"users"`
	}
	require.NoError(t, json.Unmarshal(frame.Data, &data))

	if !f.online[userID] {
		for _, prev := range f.conns {
			announced := decodeData[presenceData](t, expectEvent(t, prev, "user-online"))
			require.Equal(t, userID, announced.UserID)
		}
		f.online[userID] = true
	}
	f.conns = append(f.conns, ws)
	return ws, data.Users
}

type receivedFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func sendEvent(t *testing.T, ws *websocket.Conn, event string, data any) {
	t.Helper()
	buf, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, ws.WriteJSON(inboundFrame{Event: event, Data: buf}))
}

func readFrame(t *testing.T, ws *websocket.Conn) receivedFrame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f receivedFrame
	require.NoError(t, ws.ReadJSON(&f))
	return f
}

func expectEvent(t *testing.T, ws *websocket.Conn, event string) receivedFrame {
	t.Helper()
	f := readFrame(t, ws)
	require.Equalf(t, event, f.Event, "unexpected frame: %s %s", f.Event, f.Data)
	return f
}

func decodeData[T any](t *testing.T, f receivedFrame) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(f.Data, &out))
	return out
}

func TestAuthenticateAnnouncesPresence(t *testing.T) {
	f := newSocketFixture(t)

	// Raw frames here, without the fixture's drain, to pin down the exact
	// sequence a client observes.
	alice := f.dial(t)
	sendEvent(t, alice, "authenticate", map[string]string{"token": authToken(t, "alice")})
	frame := expectEvent(t, alice, "online-users")
	var snapshot struct {
		Users []string `json:"users"`
	}
	require.NoError(t, json.Unmarshal(frame.Data, &snapshot))
	assert.Equal(t, []string{"alice"}, snapshot.Users)

	bob := f.dial(t)
	sendEvent(t, bob, "authenticate", map[string]string{"token": authToken(t, "bob")})
	frame = expectEvent(t, bob, "online-users")
	require.NoError(t, json.Unmarshal(frame.Data, &snapshot))
	assert.Equal(t, []string{"alice", "bob"}, snapshot.Users)

	online := decodeData[presenceData](t, expectEvent(t, alice, "user-online"))
	assert.Equal(t, "bob", online.UserID)
}

func TestAuthenticateRejectsBadToken(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t)

	sendEvent(t, ws, "authenticate", map[string]string{"token": "not-a-jwt"})
	errFrame := decodeData[errorData](t, expectEvent(t, ws, "error"))
	assert.Equal(t, "authenticate", errFrame.Event)
}

func TestRelayRequiresAuthentication(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t)

	sendEvent(t, ws, "send-message", map[string]string{"chat": "c1", "tempId": "t1"})
	errFrame := decodeData[errorData](t, expectEvent(t, ws, "error"))
	assert.Equal(t, "send-message", errFrame.Event)
	assert.Contains(t, errFrame.Message, "authenticate")
}

func TestSecondTabDoesNotFlapPresence(t *testing.T) {
	f := newSocketFixture(t)

	bob, _ := f.authenticate(t, "bob")

	// The authenticate helper verifies bob saw alice's user-online broadcast
	// exactly once, for the first tab.
	tab1, _ := f.authenticate(t, "alice")
	tab2, _ := f.authenticate(t, "alice")
	tab2.Close()
	tab1.Close()

	// Opening and closing the second tab must emit nothing; bob's next frame
	// is the offline transition from the last tab closing.
	offline := decodeData[presenceData](t, expectEvent(t, bob, "user-offline"))
	assert.Equal(t, "alice", offline.UserID)
}

func TestJoinChecksMembership(t *testing.T) {
	f := newSocketFixture(t)
	convID := f.repo.seed("alice", "bob")

	alice, _ := f.authenticate(t, "alice")
	sendEvent(t, alice, "join-chat", map[string]string{"chat": convID})
	joined := decodeData[roomData](t, expectEvent(t, alice, "joined-chat"))
	assert.Equal(t, convID, joined.Chat)

	carol, _ := f.authenticate(t, "carol")
	sendEvent(t, carol, "join-chat", map[string]string{"chat": convID})
	errFrame := decodeData[errorData](t, expectEvent(t, carol, "error"))
	assert.Equal(t, "join-chat", errFrame.Event)
}

func TestSendMessageRelaysToRoomAndAcksSender(t *testing.T) {
	f := newSocketFixture(t)
	convID := f.repo.seed("alice", "bob")

	aliceTab1, _ := f.authenticate(t, "alice")
	aliceTab2, _ := f.authenticate(t, "alice")
	bob, _ := f.authenticate(t, "bob")

	for _, ws := range []*websocket.Conn{aliceTab1, aliceTab2, bob} {
		sendEvent(t, ws, "join-chat", map[string]string{"chat": convID})
		expectEvent(t, ws, "joined-chat")
	}

	sendEvent(t, aliceTab1, "send-message", map[string]any{
		"chat":    convID,
		"tempId":  "temp-42",
		"content": "hello bob",
	})

	// The originating tab gets only the delivery ack; the relay goes to the
	// room, including the sender's other tab.
	ack := decodeData[deliveredData](t, expectEvent(t, aliceTab1, "message-delivered"))
	assert.Equal(t, "temp-42", ack.TempID)
	assert.Equal(t, convID, ack.Chat)

	for _, ws := range []*websocket.Conn{aliceTab2, bob} {
		relayed := decodeData[messagePayload](t, expectEvent(t, ws, "receive-message"))
		assert.Equal(t, "temp-42", relayed.ID)
		assert.Equal(t, "alice", relayed.Sender)
		assert.Equal(t, "hello bob", relayed.Content)
		assert.True(t, relayed.Delivered)
	}
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	f := newSocketFixture(t)
	convID := f.repo.seed("alice", "bob")

	alice, _ := f.authenticate(t, "alice")
	sendEvent(t, alice, "join-chat", map[string]string{"chat": convID})
	expectEvent(t, alice, "joined-chat")

	sendEvent(t, alice, "send-message", map[string]any{"chat": convID, "tempId": "t1", "content": ""})
	errFrame := decodeData[errorData](t, expectEvent(t, alice, "error"))
	assert.Equal(t, "send-message", errFrame.Event)
}

func TestTypingRelaysToPeersNotOwnTabs(t *testing.T) {
	f := newSocketFixture(t)
	convID := f.repo.seed("alice", "bob")

	aliceTab1, _ := f.authenticate(t, "alice")
	aliceTab2, _ := f.authenticate(t, "alice")
	bob, _ := f.authenticate(t, "bob")

	for _, ws := range []*websocket.Conn{aliceTab1, aliceTab2, bob} {
		sendEvent(t, ws, "join-chat", map[string]string{"chat": convID})
		expectEvent(t, ws, "joined-chat")
	}

	sendEvent(t, aliceTab1, "typing", map[string]string{"chat": convID, "userName": "Alice Araujo"})
	typing := decodeData[typingData](t, expectEvent(t, bob, "user-typing"))
	assert.Equal(t, "alice", typing.UserID)
	assert.Equal(t, "Alice Araujo", typing.UserName)
	assert.Equal(t, convID, typing.Chat)

	sendEvent(t, bob, "stop-typing", map[string]string{"chat": convID})
	stopped := decodeData[typingData](t, expectEvent(t, aliceTab1, "user-stopped-typing"))
	assert.Equal(t, "bob", stopped.UserID)

	// Alice's second tab never saw her own typing event; bob's stop-typing is
	// its first frame after joining.
	tab2Frame := decodeData[typingData](t, expectEvent(t, aliceTab2, "user-stopped-typing"))
	assert.Equal(t, "bob", tab2Frame.UserID)
}

func TestMarkReadRelaysReceipt(t *testing.T) {
	f := newSocketFixture(t)
	convID := f.repo.seed("alice", "bob")

	alice, _ := f.authenticate(t, "alice")
	bob, _ := f.authenticate(t, "bob")
	for _, ws := range []*websocket.Conn{alice, bob} {
		sendEvent(t, ws, "join-chat", map[string]string{"chat": convID})
		expectEvent(t, ws, "joined-chat")
	}

	sendEvent(t, bob, "mark-read", map[string]string{"chat": convID, "messageId": "m-7"})
	receipt := decodeData[readData](t, expectEvent(t, alice, "message-read"))
	assert.Equal(t, "m-7", receipt.MessageID)
	assert.Equal(t, "bob", receipt.Reader)
	assert.Equal(t, convID, receipt.Chat)
}

func TestUnknownEventGetsErrorFrame(t *testing.T) {
	f := newSocketFixture(t)
	alice, _ := f.authenticate(t, "alice")

	sendEvent(t, alice, "teleport", map[string]string{})
	errFrame := decodeData[errorData](t, expectEvent(t, alice, "error"))
	assert.Equal(t, "teleport", errFrame.Event)
}
