package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"aqari/internal/app/dto"
	authsvc "aqari/internal/app/services/auth"
	chatsvc "aqari/internal/app/services/chat"
	inquirysvc "aqari/internal/app/services/inquiry"
	notifysvc "aqari/internal/app/services/notify"
	"aqari/internal/domain/property"
	domainuser "aqari/internal/domain/user"
	"aqari/internal/infra/config"
	"aqari/internal/infra/obs"
	"aqari/internal/infra/realtime"
	"aqari/internal/infra/security"
	"aqari/internal/infra/storage/memory"
)

// testApp wires the full router against in-memory stores, mirroring the
// memory backend of the real bootstrap.
type testApp struct {
	router     http.Handler
	properties property.Directory
	hub        *realtime.Hub
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := memory.NewUserRepository()
	sessions := memory.NewSessionStore()
	properties := memory.NewPropertyDirectory()
	conversations := memory.NewConversationRepository()
	messages := memory.NewMessageRepository()
	notifications := memory.NewNotificationRepository()
	inquiries := memory.NewInquiryRepository()
	box := memory.NewOutbox()

	hub := realtime.NewHub()
	t.Cleanup(hub.Close)
	dispatcher := realtime.NewDispatcher(hub, logger)

	authSvc := &authsvc.Service{
		Users:      users,
		Sessions:   sessions,
		Passwords:  security.BcryptHasher{Cost: 4},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: time.Hour,
		Logger:     logger,
	}
	chatSvc := &chatsvc.Service{
		Conversations: conversations,
		Messages:      messages,
		Properties:    properties,
		Users:         users,
		Notifications: notifications,
		Outbox:        box,
		Dispatcher:    dispatcher,
		Logger:        logger,
	}
	notifySvc := &notifysvc.Service{Notifications: notifications, Logger: logger}
	inquirySvc := &inquirysvc.Service{
		Inquiries:     inquiries,
		Properties:    properties,
		Users:         users,
		Notifications: notifications,
		Outbox:        box,
		Dispatcher:    dispatcher,
		Logger:        logger,
	}

	handlers := Handlers{
		Auth:         AuthHandler{Service: authSvc, Logger: logger},
		User:         UserHandler{Users: users, Logger: logger},
		Property:     PropertyHandler{Directory: properties, Logger: logger},
		Chat:         ChatHandler{Service: chatSvc, Logger: logger},
		Notification: NotificationHandler{Service: notifySvc, Logger: logger},
		Inquiry:      InquiryHandler{Service: inquirySvc, Logger: logger},
		WS: WSHandler{
			Auth:       authSvc,
			Chat:       chatSvc,
			Hub:        hub,
			Dispatcher: dispatcher,
			Logger:     logger,
		}.Handle,
		AuthMiddleware: AuthMiddleware{Service: authSvc, Logger: logger}.Handle,
	}
	srv := NewServer(config.Config{Env: "test", HTTPAddr: ":0"}, obs.Middleware{Logger: logger}, obs.HealthHandlers{}, handlers)
	return &testApp{router: srv.Handler, properties: properties, hub: hub}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, code int, message string) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, code, rec.Body.String())
	}
	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &body)
	if body.Error != message {
		t.Fatalf("error = %q, want %q", body.Error, message)
	}
}

func (a *testApp) register(t *testing.T, email, name, userType string) dto.AuthResponse {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":     email,
		"name":      name,
		"password":  "password123",
		"user_type": userType,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body %s", email, rec.Code, rec.Body.String())
	}
	var resp dto.AuthResponse
	decodeBody(t, rec, &resp)
	return resp
}

func (a *testApp) seedProperty(t *testing.T, id, ownerID, title string) {
	t.Helper()
	prop, err := property.New(property.CreateParams{
		ID:      property.ID(id),
		OwnerID: domainuser.ID(ownerID),
		Title:   title,
	})
	if err != nil {
		t.Fatalf("property fixture: %v", err)
	}
	if err := a.properties.Save(context.Background(), prop); err != nil {
		t.Fatalf("save property: %v", err)
	}
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApp(t)

	if rec := app.do(t, http.MethodGet, "/livez", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("livez = %d", rec.Code)
	}
	if rec := app.do(t, http.MethodGet, "/readyz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("readyz = %d", rec.Code)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	down := NewServer(config.Config{Env: "test", HTTPAddr: ":0"},
		obs.Middleware{Logger: logger},
		obs.HealthHandlers{Checks: map[string]func() error{
			"store":   func() error { return errors.New("store unreachable") },
			"archive": func() error { return nil },
		}},
		Handlers{})
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	down.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz while down = %d", rec.Code)
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	if body.Status != "not ready" || body.Checks["store"] != "store unreachable" {
		t.Fatalf("body = %+v", body)
	}
	if _, ok := body.Checks["archive"]; ok {
		t.Fatalf("healthy check reported as failure: %+v", body.Checks)
	}
}

func TestAuthEndpoints(t *testing.T) {
	app := newTestApp(t)

	reg := app.register(t, "sara@example.com", "Sara", "buyer")
	if reg.Token == "" {
		t.Fatal("register must issue a token")
	}
	if reg.User.Email != "sara@example.com" {
		t.Fatalf("email = %q", reg.User.Email)
	}

	dup := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "Sara@Example.com", "name": "Sara", "password": "password123",
	})
	if dup.Code != http.StatusConflict {
		t.Fatalf("duplicate register = %d", dup.Code)
	}

	bad := app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "sara@example.com", "password": "wrong-password",
	})
	assertError(t, bad, http.StatusUnauthorized, "invalid credentials")

	login := app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "sara@example.com", "password": "password123",
	})
	if login.Code != http.StatusOK {
		t.Fatalf("login = %d, body %s", login.Code, login.Body.String())
	}
	var auth dto.AuthResponse
	decodeBody(t, login, &auth)
	if auth.User.ID != reg.User.ID {
		t.Fatalf("login user = %q, want %q", auth.User.ID, reg.User.ID)
	}

	me := app.do(t, http.MethodGet, "/api/v1/auth/me", auth.Token, nil)
	if me.Code != http.StatusOK {
		t.Fatalf("me = %d", me.Code)
	}
	var profile dto.UserProfile
	decodeBody(t, me, &profile)
	if profile.Email != "sara@example.com" {
		t.Fatalf("me email = %q", profile.Email)
	}

	anon := app.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assertError(t, anon, http.StatusUnauthorized, "auth required")

	logout := app.do(t, http.MethodPost, "/api/v1/auth/logout", auth.Token, nil)
	if logout.Code != http.StatusNoContent {
		t.Fatalf("logout = %d", logout.Code)
	}
	stale := app.do(t, http.MethodGet, "/api/v1/auth/me", auth.Token, nil)
	assertError(t, stale, http.StatusUnauthorized, "auth required")
}

func TestStartConversationGetOrCreate(t *testing.T) {
	app := newTestApp(t)
	buyer := app.register(t, "buyer@example.com", "Sara", "buyer")
	seller := app.register(t, "seller@example.com", "Omar", "seller")
	app.seedProperty(t, "p-1", seller.User.ID, "Apartment in Tripoli")

	first := app.do(t, http.MethodPost, "/api/v1/conversations", buyer.Token, map[string]string{"property_id": "p-1"})
	if first.Code != http.StatusCreated {
		t.Fatalf("first start = %d, body %s", first.Code, first.Body.String())
	}
	var created dto.Conversation
	decodeBody(t, first, &created)
	if created.BuyerID != buyer.User.ID || created.SellerID != seller.User.ID {
		t.Fatalf("participants = %+v", created)
	}

	second := app.do(t, http.MethodPost, "/api/v1/conversations", buyer.Token, map[string]string{"property_id": "p-1"})
	if second.Code != http.StatusOK {
		t.Fatalf("repeat start = %d", second.Code)
	}
	var existing dto.Conversation
	decodeBody(t, second, &existing)
	if existing.ID != created.ID {
		t.Fatalf("repeat start returned %q, want %q", existing.ID, created.ID)
	}

	missing := app.do(t, http.MethodPost, "/api/v1/conversations", buyer.Token, map[string]string{"property_id": "p-missing"})
	assertError(t, missing, http.StatusNotFound, "Property not found")

	selfChat := app.do(t, http.MethodPost, "/api/v1/conversations", seller.Token, map[string]string{"property_id": "p-1"})
	assertError(t, selfChat, http.StatusBadRequest, "cannot start a conversation with yourself")

	anon := app.do(t, http.MethodGet, "/api/v1/conversations", "", nil)
	assertError(t, anon, http.StatusUnauthorized, "auth required")
}

func TestMessageLedgerFlow(t *testing.T) {
	app := newTestApp(t)
	buyer := app.register(t, "buyer@example.com", "Sara", "buyer")
	seller := app.register(t, "seller@example.com", "Omar", "seller")
	outsider := app.register(t, "other@example.com", "Nadia", "buyer")
	app.seedProperty(t, "p-1", seller.User.ID, "Apartment in Tripoli")

	start := app.do(t, http.MethodPost, "/api/v1/conversations", buyer.Token, map[string]string{"property_id": "p-1"})
	var conversation dto.Conversation
	decodeBody(t, start, &conversation)

	send := app.do(t, http.MethodPost, "/api/v1/conversations/"+conversation.ID+"/messages", buyer.Token, map[string]string{
		"message_content": "Is it still available?",
	})
	if send.Code != http.StatusCreated {
		t.Fatalf("send = %d, body %s", send.Code, send.Body.String())
	}
	var message dto.ChatMessage
	decodeBody(t, send, &message)
	if message.RecipientID != seller.User.ID {
		t.Fatalf("recipient = %q, want %q", message.RecipientID, seller.User.ID)
	}
	if message.SenderName != "Sara" {
		t.Fatalf("sender_name = %q", message.SenderName)
	}
	if message.IsRead {
		t.Fatal("fresh message must be unread")
	}

	page := app.do(t, http.MethodGet, "/api/v1/conversations/"+conversation.ID+"/messages", seller.Token, nil)
	if page.Code != http.StatusOK {
		t.Fatalf("list messages = %d", page.Code)
	}
	var listing dto.MessagePage
	decodeBody(t, page, &listing)
	if listing.TotalCount != 1 || len(listing.Messages) != 1 {
		t.Fatalf("page = %+v", listing)
	}
	if listing.Messages[0].Content != "Is it still available?" {
		t.Fatalf("content = %q", listing.Messages[0].Content)
	}

	denied := app.do(t, http.MethodGet, "/api/v1/conversations/"+conversation.ID+"/messages", outsider.Token, nil)
	assertError(t, denied, http.StatusForbidden, "not a conversation participant")

	// the sender cannot mark their own message read
	wrongReader := app.do(t, http.MethodPatch, "/api/v1/messages/"+message.ID+"/read", buyer.Token, nil)
	assertError(t, wrongReader, http.StatusNotFound, "Message not found")

	read := app.do(t, http.MethodPatch, "/api/v1/messages/"+message.ID+"/read", seller.Token, nil)
	if read.Code != http.StatusOK {
		t.Fatalf("mark read = %d", read.Code)
	}
	var readMsg dto.ChatMessage
	decodeBody(t, read, &readMsg)
	if !readMsg.IsRead || readMsg.ReadAt == nil {
		t.Fatalf("read state = %+v", readMsg)
	}

	tooLong := app.do(t, http.MethodPost, "/api/v1/conversations/"+conversation.ID+"/messages", buyer.Token, map[string]string{
		"message_content": strings.Repeat("x", 5001),
	})
	if tooLong.Code != http.StatusBadRequest {
		t.Fatalf("oversized message = %d", tooLong.Code)
	}
}

func TestInboxAndArchive(t *testing.T) {
	app := newTestApp(t)
	buyer := app.register(t, "buyer@example.com", "Sara", "buyer")
	seller := app.register(t, "seller@example.com", "Omar", "seller")
	app.seedProperty(t, "p-1", seller.User.ID, "Apartment in Tripoli")

	start := app.do(t, http.MethodPost, "/api/v1/conversations", buyer.Token, map[string]string{"property_id": "p-1"})
	var conversation dto.Conversation
	decodeBody(t, start, &conversation)
	app.do(t, http.MethodPost, "/api/v1/conversations/"+conversation.ID+"/messages", buyer.Token, map[string]string{
		"message_content": "Hello",
	})

	inbox := app.do(t, http.MethodGet, "/api/v1/conversations", seller.Token, nil)
	var listing struct {
		Conversations []dto.ConversationSummary `json:"conversations"`
	}
	decodeBody(t, inbox, &listing)
	if len(listing.Conversations) != 1 {
		t.Fatalf("inbox size = %d", len(listing.Conversations))
	}
	summary := listing.Conversations[0]
	if summary.PropertyTitle != "Apartment in Tripoli" {
		t.Fatalf("property_title = %q", summary.PropertyTitle)
	}
	if summary.OtherUserName != "Sara" {
		t.Fatalf("other_user_name = %q", summary.OtherUserName)
	}
	if summary.UnreadCount != 1 {
		t.Fatalf("unread_count = %d", summary.UnreadCount)
	}
	if summary.LastMessage == nil || summary.LastMessage.Content != "Hello" {
		t.Fatalf("last_message = %+v", summary.LastMessage)
	}

	archive := app.do(t, http.MethodPatch, "/api/v1/conversations/"+conversation.ID+"/archive", seller.Token, map[string]bool{"is_archived": true})
	if archive.Code != http.StatusOK {
		t.Fatalf("archive = %d", archive.Code)
	}
	var archived dto.Conversation
	decodeBody(t, archive, &archived)
	if !archived.IsArchived {
		t.Fatal("expected archived")
	}

	decodeBody(t, app.do(t, http.MethodGet, "/api/v1/conversations", seller.Token, nil), &listing)
	if len(listing.Conversations) != 0 {
		t.Fatalf("archived thread still in default inbox: %d", len(listing.Conversations))
	}
	decodeBody(t, app.do(t, http.MethodGet, "/api/v1/conversations?is_archived=true", seller.Token, nil), &listing)
	if len(listing.Conversations) != 1 {
		t.Fatalf("archived inbox size = %d", len(listing.Conversations))
	}
}

func TestNotificationEndpoints(t *testing.T) {
	app := newTestApp(t)
	buyer := app.register(t, "buyer@example.com", "Sara", "buyer")
	seller := app.register(t, "seller@example.com", "Omar", "seller")
	app.seedProperty(t, "p-1", seller.User.ID, "Apartment in Tripoli")

	start := app.do(t, http.MethodPost, "/api/v1/conversations", buyer.Token, map[string]string{"property_id": "p-1"})
	var conversation dto.Conversation
	decodeBody(t, start, &conversation)
	app.do(t, http.MethodPost, "/api/v1/conversations/"+conversation.ID+"/messages", buyer.Token, map[string]string{
		"message_content": "Hello",
	})

	feedRec := app.do(t, http.MethodGet, "/api/v1/notifications", seller.Token, nil)
	if feedRec.Code != http.StatusOK {
		t.Fatalf("feed = %d", feedRec.Code)
	}
	var feed dto.NotificationFeed
	decodeBody(t, feedRec, &feed)
	if len(feed.Notifications) != 1 || feed.UnreadCount != 1 {
		t.Fatalf("feed = %+v", feed)
	}
	n := feed.Notifications[0]
	if n.Title != "New Message" {
		t.Fatalf("title = %q", n.Title)
	}
	if n.Message != "You have a new message from Sara" {
		t.Fatalf("message = %q", n.Message)
	}

	badType := app.do(t, http.MethodGet, "/api/v1/notifications?type=bogus", seller.Token, nil)
	assertError(t, badType, http.StatusBadRequest, "invalid notification type")

	foreign := app.do(t, http.MethodPatch, "/api/v1/notifications/"+n.ID+"/read", buyer.Token, nil)
	assertError(t, foreign, http.StatusNotFound, "Notification not found")

	markAll := app.do(t, http.MethodPatch, "/api/v1/notifications/mark-all-read", seller.Token, nil)
	if markAll.Code != http.StatusOK {
		t.Fatalf("mark-all-read = %d", markAll.Code)
	}
	var ack struct {
		Message string `json:"message"`
	}
	decodeBody(t, markAll, &ack)
	if ack.Message != "All notifications marked as read" {
		t.Fatalf("ack = %q", ack.Message)
	}

	decodeBody(t, app.do(t, http.MethodGet, "/api/v1/notifications", seller.Token, nil), &feed)
	if feed.UnreadCount != 0 {
		t.Fatalf("unread after mark-all = %d", feed.UnreadCount)
	}
}

func TestInquiryEndpoints(t *testing.T) {
	app := newTestApp(t)
	buyer := app.register(t, "buyer@example.com", "Sara", "buyer")
	seller := app.register(t, "seller@example.com", "Omar", "seller")
	app.seedProperty(t, "p-1", seller.User.ID, "Villa in Benghazi")

	create := app.do(t, http.MethodPost, "/api/v1/inquiries", buyer.Token, map[string]string{
		"property_id":  "p-1",
		"inquiry_type": "viewing",
		"message":      "Can I view it this weekend?",
	})
	if create.Code != http.StatusCreated {
		t.Fatalf("create = %d, body %s", create.Code, create.Body.String())
	}
	var inq dto.Inquiry
	decodeBody(t, create, &inq)
	if inq.Status != "pending" {
		t.Fatalf("status = %q", inq.Status)
	}

	missing := app.do(t, http.MethodPost, "/api/v1/inquiries", buyer.Token, map[string]string{
		"property_id": "p-missing", "message": "hello",
	})
	assertError(t, missing, http.StatusNotFound, "Property not found")

	reply := "Sure, come by Friday."
	notOwner := app.do(t, http.MethodPut, "/api/v1/inquiries/"+inq.ID, buyer.Token, map[string]any{
		"response_message": reply,
	})
	assertError(t, notOwner, http.StatusForbidden, "not the property owner")

	empty := app.do(t, http.MethodPut, "/api/v1/inquiries/"+inq.ID, seller.Token, map[string]any{})
	assertError(t, empty, http.StatusBadRequest, "No fields to update")

	respond := app.do(t, http.MethodPut, "/api/v1/inquiries/"+inq.ID, seller.Token, map[string]any{
		"response_message": reply,
	})
	if respond.Code != http.StatusOK {
		t.Fatalf("respond = %d, body %s", respond.Code, respond.Body.String())
	}
	var updated dto.Inquiry
	decodeBody(t, respond, &updated)
	if updated.Status != "responded" || updated.ResponseMessage != reply {
		t.Fatalf("updated = %+v", updated)
	}

	var mine struct {
		Inquiries []dto.InquirySummary `json:"inquiries"`
	}
	decodeBody(t, app.do(t, http.MethodGet, "/api/v1/inquiries", buyer.Token, nil), &mine)
	if len(mine.Inquiries) != 1 {
		t.Fatalf("inquirer listing = %d", len(mine.Inquiries))
	}
	if mine.Inquiries[0].PropertyTitle != "Villa in Benghazi" {
		t.Fatalf("property_title = %q", mine.Inquiries[0].PropertyTitle)
	}

	decodeBody(t, app.do(t, http.MethodGet, "/api/v1/properties/p-1/inquiries", seller.Token, nil), &mine)
	if len(mine.Inquiries) != 1 {
		t.Fatalf("owner listing = %d", len(mine.Inquiries))
	}
	if mine.Inquiries[0].InquirerName != "Sara" {
		t.Fatalf("inquirer_name = %q", mine.Inquiries[0].InquirerName)
	}

	decodeBody(t, app.do(t, http.MethodGet, "/api/v1/inquiries?status=pending", buyer.Token, nil), &mine)
	if len(mine.Inquiries) != 0 {
		t.Fatalf("responded inquiry matched pending filter: %d", len(mine.Inquiries))
	}
	denied := app.do(t, http.MethodGet, "/api/v1/properties/p-1/inquiries", buyer.Token, nil)
	assertError(t, denied, http.StatusForbidden, "not the property owner")
}

func TestDirectoryLookups(t *testing.T) {
	app := newTestApp(t)
	buyer := app.register(t, "buyer@example.com", "Sara", "buyer")
	seller := app.register(t, "seller@example.com", "Omar", "seller")
	app.seedProperty(t, "p-1", seller.User.ID, "Apartment in Tripoli")

	anon := app.do(t, http.MethodGet, "/api/v1/users/"+seller.User.ID, "", nil)
	assertError(t, anon, http.StatusUnauthorized, "auth required")

	rec := app.do(t, http.MethodGet, "/api/v1/users/"+seller.User.ID, buyer.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("user lookup = %d", rec.Code)
	}
	var public dto.PublicProfile
	decodeBody(t, rec, &public)
	if public.Name != "Omar" {
		t.Fatalf("name = %q", public.Name)
	}
	if strings.Contains(rec.Body.String(), "email") {
		t.Fatalf("public profile leaks email: %s", rec.Body.String())
	}

	missing := app.do(t, http.MethodGet, "/api/v1/users/u-missing", buyer.Token, nil)
	assertError(t, missing, http.StatusNotFound, "User not found")

	propRec := app.do(t, http.MethodGet, "/api/v1/properties/p-1", "", nil)
	if propRec.Code != http.StatusOK {
		t.Fatalf("property lookup = %d", propRec.Code)
	}
	var prop dto.Property
	decodeBody(t, propRec, &prop)
	if prop.Title != "Apartment in Tripoli" {
		t.Fatalf("title = %q", prop.Title)
	}
	noProp := app.do(t, http.MethodGet, "/api/v1/properties/p-missing", "", nil)
	assertError(t, noProp, http.StatusNotFound, "Property not found")
}

func TestWebsocketUpgradeRequiresToken(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodGet, "/ws", "", nil)
	assertError(t, rec, http.StatusUnauthorized, "auth required")

	bad := app.do(t, http.MethodGet, "/ws?token=not-a-session", "", nil)
	assertError(t, bad, http.StatusUnauthorized, "invalid token")
}

func TestWebsocketReceivesLedgerEvents(t *testing.T) {
	app := newTestApp(t)
	buyer := app.register(t, "buyer@example.com", "Sara", "buyer")
	seller := app.register(t, "seller@example.com", "Omar", "seller")
	app.seedProperty(t, "p-1", seller.User.ID, "Apartment in Tripoli")

	start := app.do(t, http.MethodPost, "/api/v1/conversations", buyer.Token, map[string]string{"property_id": "p-1"})
	var conversation dto.Conversation
	decodeBody(t, start, &conversation)

	srv := httptest.NewServer(app.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + seller.Token
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	join, err := realtime.NewEnvelope(realtime.EventJoinRoom, realtime.JoinRoomData{
		RoomType: "conversation",
		RoomID:   conversation.ID,
	})
	if err != nil {
		t.Fatalf("join envelope: %v", err)
	}
	if err := client.WriteMessage(websocket.TextMessage, join); err != nil {
		t.Fatalf("write join: %v", err)
	}
	if env := readFrame(t, client); env.Type != realtime.EventRoomJoined {
		t.Fatalf("join ack type = %q", env.Type)
	}

	send := app.do(t, http.MethodPost, "/api/v1/conversations/"+conversation.ID+"/messages", buyer.Token, map[string]string{
		"message_content": "Is it still available?",
	})
	if send.Code != http.StatusCreated {
		t.Fatalf("send = %d", send.Code)
	}

	// conversation room frame first, then the user room nudge
	msgFrame := readFrame(t, client)
	if msgFrame.Type != realtime.EventNewMessage {
		t.Fatalf("first frame type = %q", msgFrame.Type)
	}
	var payload dto.ChatMessage
	if err := json.Unmarshal(msgFrame.Data, &payload); err != nil {
		t.Fatalf("frame decode: %v", err)
	}
	if payload.Content != "Is it still available?" || payload.SenderName != "Sara" {
		t.Fatalf("frame payload = %+v", payload)
	}

	nudge := readFrame(t, client)
	if nudge.Type != realtime.EventNotification {
		t.Fatalf("second frame type = %q", nudge.Type)
	}
	var data realtime.MessageNotificationData
	if err := json.Unmarshal(nudge.Data, &data); err != nil {
		t.Fatalf("nudge decode: %v", err)
	}
	if data.Type != "new_message" || data.ConversationID != conversation.ID {
		t.Fatalf("nudge = %+v", data)
	}
}

func TestWebsocketJoinDeniedForNonParticipant(t *testing.T) {
	app := newTestApp(t)
	buyer := app.register(t, "buyer@example.com", "Sara", "buyer")
	seller := app.register(t, "seller@example.com", "Omar", "seller")
	outsider := app.register(t, "other@example.com", "Nadia", "buyer")
	app.seedProperty(t, "p-1", seller.User.ID, "Apartment in Tripoli")

	start := app.do(t, http.MethodPost, "/api/v1/conversations", buyer.Token, map[string]string{"property_id": "p-1"})
	var conversation dto.Conversation
	decodeBody(t, start, &conversation)

	srv := httptest.NewServer(app.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + outsider.Token
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	join, err := realtime.NewEnvelope(realtime.EventJoinRoom, realtime.JoinRoomData{
		RoomType: "conversation",
		RoomID:   conversation.ID,
	})
	if err != nil {
		t.Fatalf("join envelope: %v", err)
	}
	if err := client.WriteMessage(websocket.TextMessage, join); err != nil {
		t.Fatalf("write join: %v", err)
	}

	env := readFrame(t, client)
	if env.Type != realtime.EventRoomError {
		t.Fatalf("frame type = %q, want %q", env.Type, realtime.EventRoomError)
	}
	var data realtime.RoomErrorData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("frame decode: %v", err)
	}
	if data.Message != "not a conversation participant" {
		t.Fatalf("message = %q", data.Message)
	}

	// the denied session must not see the room's traffic
	send := app.do(t, http.MethodPost, "/api/v1/conversations/"+conversation.ID+"/messages", buyer.Token, map[string]string{
		"message_content": "Hello",
	})
	if send.Code != http.StatusCreated {
		t.Fatalf("send = %d", send.Code)
	}
	_ = client.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, frame, err := client.ReadMessage(); err == nil {
		t.Fatalf("unexpected frame after denied join: %s", frame)
	}
}

func readFrame(t *testing.T, client *websocket.Conn) realtime.Envelope {
	t.Helper()
	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var env realtime.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("frame decode %q: %v", data, err)
	}
	return env
}
