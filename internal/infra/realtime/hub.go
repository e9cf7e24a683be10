package realtime

import (
	"sync"
)

// Room name builders. Every connection is auto-joined to its user room;
// conversation and property rooms are joined on request.
func UserRoom(userID string) string         { return "user_" + userID }
func ConversationRoom(id string) string     { return "conversation_" + id }
func PropertyRoom(propertyID string) string { return "property_" + propertyID }

// Hub coordinates websocket sessions and logical rooms. A user may hold
// several concurrent sessions (multiple tabs or devices); fan-out to a user
// reaches all of them.
type Hub struct {
	mu           sync.RWMutex
	sessions     map[string]*Connection            // sessionID -> connection
	userSessions map[string]map[string]struct{}    // userID -> set of sessionIDs
	rooms        map[string]map[string]*Connection // room -> sessionID -> connection
	sessionRooms map[string]map[string]struct{}    // sessionID -> set of rooms
}

func NewHub() *Hub {
	return &Hub{
		sessions:     make(map[string]*Connection),
		userSessions: make(map[string]map[string]struct{}),
		rooms:        make(map[string]map[string]*Connection),
		sessionRooms: make(map[string]map[string]struct{}),
	}
}

// Attach registers a connection, starts its write loop and joins it to the
// user's own room.
func (h *Hub) Attach(conn *Connection) {
	h.mu.Lock()
	h.sessions[conn.ID] = conn
	if _, ok := h.userSessions[conn.UserID]; !ok {
		h.userSessions[conn.UserID] = make(map[string]struct{})
	}
	h.userSessions[conn.UserID][conn.ID] = struct{}{}
	h.sessionRooms[conn.ID] = make(map[string]struct{})
	h.joinLocked(UserRoom(conn.UserID), conn)
	h.mu.Unlock()

	conn.Start()
}

// Detach removes a connection from all rooms. Returns the number of sessions
// the user still holds, so the caller can detect the last disconnect.
func (h *Hub) Detach(conn *Connection) int {
	h.mu.Lock()
	h.detachLocked(conn.ID)
	remaining := len(h.userSessions[conn.UserID])
	h.mu.Unlock()
	return remaining
}

// Join adds the connection to the room.
func (h *Hub) Join(room string, conn *Connection) {
	h.mu.Lock()
	if _, ok := h.sessions[conn.ID]; ok {
		h.joinLocked(room, conn)
	}
	h.mu.Unlock()
}

// Leave removes the connection from the room.
func (h *Hub) Leave(room string, conn *Connection) {
	h.mu.Lock()
	h.leaveLocked(room, conn.ID)
	h.mu.Unlock()
}

// Broadcast writes payload to all members of the room. excludeUserID, when
// non-empty, skips every session of that user.
func (h *Hub) Broadcast(room string, payload []byte, excludeUserID string) int {
	h.mu.RLock()
	members := h.rooms[room]
	if len(members) == 0 {
		h.mu.RUnlock()
		return 0
	}
	delivered := 0
	for _, conn := range members {
		if excludeUserID != "" && conn.UserID == excludeUserID {
			continue
		}
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	h.mu.RUnlock()
	return delivered
}

// BroadcastAll writes payload to every tracked session, optionally skipping
// one user. Used for presence fan-out.
func (h *Hub) BroadcastAll(payload []byte, excludeUserID string) int {
	h.mu.RLock()
	delivered := 0
	for _, conn := range h.sessions {
		if excludeUserID != "" && conn.UserID == excludeUserID {
			continue
		}
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	h.mu.RUnlock()
	return delivered
}

// NotifyUser delivers payload to every live session of the user.
func (h *Hub) NotifyUser(userID string, payload []byte) bool {
	return h.Broadcast(UserRoom(userID), payload, "") > 0
}

// SessionCount reports the number of live sessions the user holds.
func (h *Hub) SessionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userSessions[userID])
}

// Close terminates all tracked connections and clears hub state.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := make([]*Connection, 0, len(h.sessions))
	for _, conn := range h.sessions {
		sessions = append(sessions, conn)
	}
	h.sessions = make(map[string]*Connection)
	h.userSessions = make(map[string]map[string]struct{})
	h.rooms = make(map[string]map[string]*Connection)
	h.sessionRooms = make(map[string]map[string]struct{})
	h.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(1001, "hub shutdown")
	}
}

func (h *Hub) joinLocked(room string, conn *Connection) {
	members := h.rooms[room]
	if members == nil {
		members = make(map[string]*Connection)
		h.rooms[room] = members
	}
	members[conn.ID] = conn

	memberships := h.sessionRooms[conn.ID]
	if memberships == nil {
		memberships = make(map[string]struct{})
		h.sessionRooms[conn.ID] = memberships
	}
	memberships[room] = struct{}{}
}

func (h *Hub) detachLocked(sessionID string) {
	conn, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	delete(h.sessions, sessionID)

	if index, ok := h.userSessions[conn.UserID]; ok {
		delete(index, sessionID)
		if len(index) == 0 {
			delete(h.userSessions, conn.UserID)
		}
	}

	for room := range h.sessionRooms[sessionID] {
		h.leaveLocked(room, sessionID)
	}
	delete(h.sessionRooms, sessionID)
}

func (h *Hub) leaveLocked(room string, sessionID string) {
	members := h.rooms[room]
	if members == nil {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
	if memberships, ok := h.sessionRooms[sessionID]; ok {
		delete(memberships, room)
	}
}
