package ginserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	authsvc "aqari/internal/app/services/auth"
	chatsvc "aqari/internal/app/services/chat"
	domainchat "aqari/internal/domain/chat"
	domainuser "aqari/internal/domain/user"
	"aqari/internal/infra/realtime"
)

const wsReadTimeout = 60 * time.Second

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades clients onto the realtime hub. Every frame in both
// directions is an Envelope; unauthenticated upgrades are refused.
type WSHandler struct {
	Auth       *authsvc.Service
	Chat       *chatsvc.Service
	Hub        *realtime.Hub
	Dispatcher *realtime.Dispatcher
	Logger     *slog.Logger
}

func (h WSHandler) Handle(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		token = extractBearerToken(c.GetHeader("Authorization"))
	}
	if token == "" || h.Auth == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return
	}
	resolved, err := h.Auth.ResolveToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	user := resolved.User

	ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the response.
		return
	}

	conn := realtime.NewConnection(string(user.ID), ws)
	firstSession := h.Hub.SessionCount(string(user.ID)) == 0
	h.Hub.Attach(conn)
	if firstSession {
		h.Dispatcher.Presence(string(user.ID), "online", time.Now())
	}
	defer func() {
		remaining := h.Hub.Detach(conn)
		conn.Close(websocket.CloseNormalClosure, "session closed")
		if remaining == 0 {
			h.Dispatcher.Presence(string(user.ID), "offline", time.Now())
		}
	}()

	ws.SetReadLimit(1 << 20)
	_ = ws.SetReadDeadline(time.Now().Add(wsReadTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
				errors.Is(err, websocket.ErrCloseSent) {
				return
			}
			return
		}

		var frame realtime.Envelope
		if err := json.Unmarshal(data, &frame); err != nil {
			h.Dispatcher.SendTo(conn, realtime.EventRoomError, realtime.RoomErrorData{Message: "invalid payload"})
			continue
		}

		switch frame.Type {
		case realtime.EventJoinRoom:
			h.handleJoin(c, conn, user, frame.Data)
		case realtime.EventLeaveRoom:
			h.handleLeave(conn, frame.Data)
		case realtime.EventTypingStart:
			h.handleTyping(conn, user, frame.Data, true)
		case realtime.EventTypingStop:
			h.handleTyping(conn, user, frame.Data, false)
		case realtime.EventUpdatePresence:
			h.handlePresence(c, user, frame.Data)
		default:
			h.Dispatcher.SendTo(conn, realtime.EventRoomError, realtime.RoomErrorData{Message: "unknown frame type"})
		}
	}
}

// handleJoin gates conversation rooms on participation; property rooms are
// open to any authenticated user.
func (h WSHandler) handleJoin(c *gin.Context, conn *realtime.Connection, user *domainuser.User, data json.RawMessage) {
	var req realtime.JoinRoomData
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" {
		h.Dispatcher.SendTo(conn, realtime.EventRoomError, realtime.RoomErrorData{Message: "room_id is required"})
		return
	}
	switch req.RoomType {
	case "conversation":
		ok, err := h.Chat.IsParticipant(c.Request.Context(), domainchat.ConversationID(req.RoomID), user.ID)
		if err != nil || !ok {
			h.Dispatcher.SendTo(conn, realtime.EventRoomError, realtime.RoomErrorData{Message: "not a conversation participant"})
			return
		}
		h.Hub.Join(realtime.ConversationRoom(req.RoomID), conn)
	case "property":
		h.Hub.Join(realtime.PropertyRoom(req.RoomID), conn)
	default:
		h.Dispatcher.SendTo(conn, realtime.EventRoomError, realtime.RoomErrorData{Message: "unknown room type"})
		return
	}
	h.Dispatcher.SendTo(conn, realtime.EventRoomJoined, realtime.RoomJoinedData{
		RoomType: req.RoomType,
		RoomID:   req.RoomID,
		Status:   "joined",
	})
}

func (h WSHandler) handleLeave(conn *realtime.Connection, data json.RawMessage) {
	var req realtime.JoinRoomData
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" {
		h.Dispatcher.SendTo(conn, realtime.EventRoomError, realtime.RoomErrorData{Message: "room_id is required"})
		return
	}
	switch req.RoomType {
	case "conversation":
		h.Hub.Leave(realtime.ConversationRoom(req.RoomID), conn)
	case "property":
		h.Hub.Leave(realtime.PropertyRoom(req.RoomID), conn)
	}
}

func (h WSHandler) handleTyping(conn *realtime.Connection, user *domainuser.User, data json.RawMessage, typing bool) {
	var req realtime.TypingData
	if err := json.Unmarshal(data, &req); err != nil || req.ConversationID == "" {
		h.Dispatcher.SendTo(conn, realtime.EventRoomError, realtime.RoomErrorData{Message: "conversation_id is required"})
		return
	}
	h.Dispatcher.Typing(req.ConversationID, string(user.ID), user.Name, typing, time.Now())
}

func (h WSHandler) handlePresence(c *gin.Context, user *domainuser.User, data json.RawMessage) {
	var req realtime.PresenceData
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = "online"
	}
	if err := h.Auth.TouchPresence(c.Request.Context(), user.ID); err != nil && h.Logger != nil {
		h.Logger.Debug("presence touch failed", "user_id", user.ID, "error", err)
	}
	h.Dispatcher.Presence(string(user.ID), status, time.Now())
}
