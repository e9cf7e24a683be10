package realtime

import "encoding/json"

// Server-to-client event names.
const (
	EventNewMessage      = "new_message"
	EventNotification    = "notification"
	EventMessageRead     = "message_read"
	EventTypingIndicator = "typing_indicator"
	EventUserPresence    = "user_presence"
	EventNewInquiry      = "new_inquiry"
	EventInquiryResponse = "inquiry_response"
	EventRoomJoined      = "room_joined"
	EventRoomError       = "room_error"
)

// Client-to-server event names.
const (
	EventJoinRoom       = "join_room"
	EventLeaveRoom      = "leave_room"
	EventTypingStart    = "typing_start"
	EventTypingStop     = "typing_stop"
	EventUpdatePresence = "update_presence"
)

// Envelope is the wire frame for every websocket message in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func NewEnvelope(eventType string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: eventType, Data: raw})
}

type JoinRoomData struct {
	RoomType string `json:"room_type"`
	RoomID   string `json:"room_id"`
}

type TypingData struct {
	ConversationID string `json:"conversation_id"`
}

type PresenceData struct {
	Status string `json:"status"`
}

type RoomJoinedData struct {
	RoomType string `json:"room_type"`
	RoomID   string `json:"room_id"`
	Status   string `json:"status"`
}

type RoomErrorData struct {
	Message string `json:"message"`
}

type MessageReadData struct {
	MessageID string `json:"message_id"`
	ReaderID  string `json:"reader_id"`
	ReadAt    string `json:"read_at"`
}

type TypingIndicatorData struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	UserName       string `json:"user_name"`
	IsTyping       bool   `json:"is_typing"`
	Timestamp      string `json:"timestamp"`
}

type UserPresenceData struct {
	UserID    string `json:"user_id"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type MessageNotificationData struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	Message        any    `json:"message"`
}

type NewInquiryData struct {
	InquiryID     string `json:"inquiry_id"`
	PropertyID    string `json:"property_id"`
	PropertyTitle string `json:"property_title"`
	InquiryType   string `json:"inquiry_type"`
	Message       string `json:"message"`
	CreatedAt     string `json:"created_at"`
}

type InquiryResponseData struct {
	InquiryID       string `json:"inquiry_id"`
	Status          string `json:"status"`
	ResponseMessage string `json:"response_message"`
}
