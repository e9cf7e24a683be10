package realtime

import (
	"log/slog"
	"time"
)

// Dispatcher turns domain happenings into websocket frames and fans them out
// through the hub. Delivery is best-effort; the durable notification store is
// the backstop for offline recipients.
type Dispatcher struct {
	Hub    *Hub
	Logger *slog.Logger
}

func NewDispatcher(hub *Hub, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{Hub: hub, Logger: logger}
}

// MessageCreated pushes the enriched message to everyone in the conversation
// room, sender included.
func (d *Dispatcher) MessageCreated(conversationID string, message any) {
	d.emit(ConversationRoom(conversationID), EventNewMessage, message, "")
}

// MessageNotification nudges the recipient's own room so unread badges update
// even when the conversation room is not open.
func (d *Dispatcher) MessageNotification(recipientID, conversationID string, message any) {
	d.emit(UserRoom(recipientID), EventNotification, MessageNotificationData{
		Type:           "new_message",
		ConversationID: conversationID,
		Message:        message,
	}, "")
}

func (d *Dispatcher) MessageRead(conversationID, messageID, readerID string, readAt time.Time) {
	d.emit(ConversationRoom(conversationID), EventMessageRead, MessageReadData{
		MessageID: messageID,
		ReaderID:  readerID,
		ReadAt:    readAt.UTC().Format(time.RFC3339),
	}, "")
}

// Typing relays a typing indicator to the conversation room, excluding the
// typist's own sessions.
func (d *Dispatcher) Typing(conversationID, userID, userName string, typing bool, at time.Time) {
	d.emit(ConversationRoom(conversationID), EventTypingIndicator, TypingIndicatorData{
		ConversationID: conversationID,
		UserID:         userID,
		UserName:       userName,
		IsTyping:       typing,
		Timestamp:      at.UTC().Format(time.RFC3339),
	}, userID)
}

// Presence announces a status change to every connected session except the
// subject's own.
func (d *Dispatcher) Presence(userID, status string, at time.Time) {
	payload, err := NewEnvelope(EventUserPresence, UserPresenceData{
		UserID:    userID,
		Status:    status,
		Timestamp: at.UTC().Format(time.RFC3339),
	})
	if err != nil {
		d.logEncodeError(EventUserPresence, err)
		return
	}
	d.Hub.BroadcastAll(payload, userID)
}

func (d *Dispatcher) InquiryCreated(ownerID, inquiryID, propertyID, propertyTitle, inquiryType, message string, createdAt time.Time) {
	d.emit(UserRoom(ownerID), EventNewInquiry, NewInquiryData{
		InquiryID:     inquiryID,
		PropertyID:    propertyID,
		PropertyTitle: propertyTitle,
		InquiryType:   inquiryType,
		Message:       message,
		CreatedAt:     createdAt.UTC().Format(time.RFC3339),
	}, "")
}

func (d *Dispatcher) InquiryResponded(inquirerID, inquiryID, status, responseMessage string) {
	d.emit(UserRoom(inquirerID), EventInquiryResponse, InquiryResponseData{
		InquiryID:       inquiryID,
		Status:          status,
		ResponseMessage: responseMessage,
	}, "")
}

// SendTo delivers an event to a single connection, bypassing rooms.
func (d *Dispatcher) SendTo(conn *Connection, eventType string, data any) {
	payload, err := NewEnvelope(eventType, data)
	if err != nil {
		d.logEncodeError(eventType, err)
		return
	}
	if err := conn.Send(payload); err != nil && d.Logger != nil {
		d.Logger.Warn("websocket send failed", "event", eventType, "user_id", conn.UserID, "error", err)
	}
}

func (d *Dispatcher) emit(room, eventType string, data any, excludeUserID string) {
	payload, err := NewEnvelope(eventType, data)
	if err != nil {
		d.logEncodeError(eventType, err)
		return
	}
	d.Hub.Broadcast(room, payload, excludeUserID)
}

func (d *Dispatcher) logEncodeError(eventType string, err error) {
	if d.Logger != nil {
		d.Logger.Error("websocket event encode failed", "event", eventType, "error", err)
	}
}
