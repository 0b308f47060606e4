package realtime

import (
	"sync"
)

// Hub coordinates authenticated websocket sessions and logical rooms. Unlike
// a per-user session swap, a user may hold several live connections at once
// (multiple tabs or devices); every one of them is tracked independently and
// the per-user set doubles as that user's notification room.
type Hub struct {
	mu           sync.RWMutex
	sessions     map[string]*Connection            // connectionID -> connection
	users        map[string]map[string]*Connection // userID -> connectionID -> connection
	rooms        map[string]map[string]*Connection // conversationID -> connectionID -> connection
	sessionRooms map[string]map[string]struct{}    // connectionID -> set of conversationIDs
}

func NewHub() *Hub {
	return &Hub{
		sessions:     make(map[string]*Connection),
		users:        make(map[string]map[string]*Connection),
		rooms:        make(map[string]map[string]*Connection),
		sessionRooms: make(map[string]map[string]struct{}),
	}
}

// Attach registers an authenticated connection. conn.UserID must be set.
func (h *Hub) Attach(conn *Connection) {
	h.mu.Lock()
	h.sessions[conn.ID] = conn
	set := h.users[conn.UserID]
	if set == nil {
		set = make(map[string]*Connection)
		h.users[conn.UserID] = set
	}
	set[conn.ID] = conn
	h.sessionRooms[conn.ID] = make(map[string]struct{})
	h.mu.Unlock()
}

// Detach removes a connection and every room membership it held.
func (h *Hub) Detach(conn *Connection) {
	h.mu.Lock()
	h.detachLocked(conn.ID)
	h.mu.Unlock()
}

// Join adds the connection to the conversation room. Unknown (never attached
// or already detached) connections are ignored.
func (h *Hub) Join(conversationID string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[conn.ID]; !ok {
		return
	}

	room := h.rooms[conversationID]
	if room == nil {
		room = make(map[string]*Connection)
		h.rooms[conversationID] = room
	}
	room[conn.ID] = conn
	h.sessionRooms[conn.ID][conversationID] = struct{}{}
}

// Leave removes the connection from the conversation room.
func (h *Hub) Leave(conversationID string, conn *Connection) {
	h.mu.Lock()
	h.leaveLocked(conversationID, conn.ID)
	h.mu.Unlock()
}

// BroadcastRoom writes payload to room members. A non-empty excludeConnID
// skips that one connection; a non-empty excludeUserID skips every connection
// of that user. Returns how many connections accepted the payload.
func (h *Hub) BroadcastRoom(conversationID string, payload []byte, excludeConnID, excludeUserID string) int {
	h.mu.RLock()
	room := h.rooms[conversationID]
	targets := make([]*Connection, 0, len(room))
	for _, conn := range room {
		if excludeConnID != "" && conn.ID == excludeConnID {
			continue
		}
		if excludeUserID != "" && conn.UserID == excludeUserID {
			continue
		}
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, conn := range targets {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// BroadcastAll writes payload to every attached connection except the
// excluded one. Used for presence transitions.
func (h *Hub) BroadcastAll(payload []byte, excludeConnID string) int {
	h.mu.RLock()
	targets := make([]*Connection, 0, len(h.sessions))
	for _, conn := range h.sessions {
		if excludeConnID != "" && conn.ID == excludeConnID {
			continue
		}
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, conn := range targets {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// SendToUser delivers payload to every live connection of the user, the
// per-user room. Returns how many connections accepted it.
func (h *Hub) SendToUser(userID string, payload []byte) int {
	h.mu.RLock()
	set := h.users[userID]
	targets := make([]*Connection, 0, len(set))
	for _, conn := range set {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, conn := range targets {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// Close terminates all tracked connections and resets hub state.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := make([]*Connection, 0, len(h.sessions))
	for _, conn := range h.sessions {
		sessions = append(sessions, conn)
	}
	h.sessions = make(map[string]*Connection)
	h.users = make(map[string]map[string]*Connection)
	h.rooms = make(map[string]map[string]*Connection)
	h.sessionRooms = make(map[string]map[string]struct{})
	h.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(1001, "hub shutdown")
	}
}

func (h *Hub) detachLocked(connectionID string) {
	conn, ok := h.sessions[connectionID]
	if !ok {
		return
	}
	delete(h.sessions, connectionID)

	if set := h.users[conn.UserID]; set != nil {
		delete(set, connectionID)
		if len(set) == 0 {
			delete(h.users, conn.UserID)
		}
	}

	for roomID := range h.sessionRooms[connectionID] {
		h.leaveLocked(roomID, connectionID)
	}
	delete(h.sessionRooms, connectionID)
}

func (h *Hub) leaveLocked(conversationID, connectionID string) {
	room := h.rooms[conversationID]
	if room == nil {
		return
	}
	delete(room, connectionID)
	if len(room) == 0 {
		delete(h.rooms, conversationID)
	}
	if memberships, ok := h.sessionRooms[connectionID]; ok {
		delete(memberships, conversationID)
	}
}
