package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domainchat "aqari/internal/domain/chat"
	"aqari/internal/domain/notification"
	"aqari/internal/domain/property"
	domainuser "aqari/internal/domain/user"
	"aqari/internal/infra/storage/memory"
)

type recordingNotifier struct {
	mu            sync.Mutex
	created       []string
	notifications []string
	reads         []string
}

func (n *recordingNotifier) MessageCreated(conversationID string, message any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, conversationID)
}

func (n *recordingNotifier) MessageNotification(recipientID, conversationID string, message any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, recipientID)
}

func (n *recordingNotifier) MessageRead(conversationID, messageID, readerID string, readAt time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reads = append(n.reads, messageID)
}

type recordingArchive struct {
	mu       sync.Mutex
	appended []domainchat.MessageID
	err      error
}

func (a *recordingArchive) Append(ctx context.Context, message *domainchat.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.appended = append(a.appended, message.ID)
	return nil
}

type fixture struct {
	svc           *Service
	notifier      *recordingNotifier
	archive       *recordingArchive
	outbox        *memory.Outbox
	notifications notification.Repository
	buyer         *domainuser.User
	seller        *domainuser.User
	property      *property.Property
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	users := memory.NewUserRepository()
	buyer, err := domainuser.NewUser(domainuser.CreateParams{
		ID: "u-buyer", Email: "buyer@example.com", Name: "Sara", PasswordHash: "x", Type: domainuser.TypeBuyer,
	})
	if err != nil {
		t.Fatalf("buyer fixture: %v", err)
	}
	seller, err := domainuser.NewUser(domainuser.CreateParams{
		ID: "u-seller", Email: "seller@example.com", Name: "Omar", PasswordHash: "x", Type: domainuser.TypeSeller,
	})
	if err != nil {
		t.Fatalf("seller fixture: %v", err)
	}
	if err := users.Save(ctx, buyer); err != nil {
		t.Fatalf("save buyer: %v", err)
	}
	if err := users.Save(ctx, seller); err != nil {
		t.Fatalf("save seller: %v", err)
	}

	properties := memory.NewPropertyDirectory()
	prop, err := property.New(property.CreateParams{
		ID: "p-1", OwnerID: seller.ID, Title: "Apartment in Tripoli",
	})
	if err != nil {
		t.Fatalf("property fixture: %v", err)
	}
	if err := properties.Save(ctx, prop); err != nil {
		t.Fatalf("save property: %v", err)
	}

	notifier := &recordingNotifier{}
	archive := &recordingArchive{}
	box := memory.NewOutbox()
	notifications := memory.NewNotificationRepository()

	svc := &Service{
		Conversations: memory.NewConversationRepository(),
		Messages:      memory.NewMessageRepository(),
		Properties:    properties,
		Users:         users,
		Notifications: notifications,
		Outbox:        box,
		Dispatcher:    notifier,
		Archive:       archive,
	}
	return &fixture{
		svc:           svc,
		notifier:      notifier,
		archive:       archive,
		outbox:        box,
		notifications: notifications,
		buyer:         buyer,
		seller:        seller,
		property:      prop,
	}
}

func TestStartCreatesThenReuses(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	first, err := fx.svc.Start(ctx, fx.buyer.ID, fx.property.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !first.Created {
		t.Fatal("first start must create")
	}
	if first.Conversation.SellerID != fx.seller.ID {
		t.Fatalf("seller = %q, want property owner", first.Conversation.SellerID)
	}

	second, err := fx.svc.Start(ctx, fx.buyer.ID, fx.property.ID)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if second.Created {
		t.Fatal("second start must reuse")
	}
	if second.Conversation.ID != first.Conversation.ID {
		t.Fatalf("reuse returned a different conversation: %q vs %q", second.Conversation.ID, first.Conversation.ID)
	}

	if fx.outbox.Pending() != 1 {
		t.Fatalf("pending events = %d, want 1 (only the create emits)", fx.outbox.Pending())
	}
}

func TestStartRejectsUnknownPropertyAndSelfChat(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	if _, err := fx.svc.Start(ctx, fx.buyer.ID, "p-missing"); !errors.Is(err, property.ErrNotFound) {
		t.Fatalf("expected property.ErrNotFound, got %v", err)
	}
	if _, err := fx.svc.Start(ctx, fx.seller.ID, fx.property.ID); !errors.Is(err, domainchat.ErrSelfConversation) {
		t.Fatalf("expected ErrSelfConversation, got %v", err)
	}
}

func TestStartConcurrentCreatesOnce(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	const starters = 16
	var wg sync.WaitGroup
	results := make([]*StartResult, starters)
	errs := make([]error, starters)
	for i := 0; i < starters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = fx.svc.Start(ctx, fx.buyer.ID, fx.property.ID)
		}(i)
	}
	wg.Wait()

	created := 0
	var id domainchat.ConversationID
	for i := 0; i < starters; i++ {
		if errs[i] != nil {
			t.Fatalf("starter %d failed: %v", i, errs[i])
		}
		if results[i].Created {
			created++
		}
		if id == "" {
			id = results[i].Conversation.ID
		} else if results[i].Conversation.ID != id {
			t.Fatalf("starters saw different conversations: %q vs %q", results[i].Conversation.ID, id)
		}
	}
	if created != 1 {
		t.Fatalf("created %d conversations, want exactly 1", created)
	}
}

func TestAppendDeliversToCounterpart(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	started, _ := fx.svc.Start(ctx, fx.buyer.ID, fx.property.ID)
	convID := started.Conversation.ID

	msg, err := fx.svc.Append(ctx, AppendParams{
		ConversationID: convID,
		SenderID:       fx.buyer.ID,
		Content:        "Is the apartment still available?",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if msg.RecipientID != string(fx.seller.ID) {
		t.Fatalf("recipient = %q, want the seller", msg.RecipientID)
	}
	if msg.SenderName != fx.buyer.Name {
		t.Fatalf("sender enrichment missing: %q", msg.SenderName)
	}
	if msg.Type != string(domainchat.MessageText) {
		t.Fatalf("type = %q, want text", msg.Type)
	}

	conv, err := fx.svc.Conversation(ctx, convID, fx.buyer.ID)
	if err != nil {
		t.Fatalf("reload conversation: %v", err)
	}
	if conv.LastMessageAt.IsZero() {
		t.Fatal("append must advance LastMessageAt")
	}

	if len(fx.notifier.created) != 1 || len(fx.notifier.notifications) != 1 {
		t.Fatalf("dispatch counts: created=%d notifications=%d", len(fx.notifier.created), len(fx.notifier.notifications))
	}
	if fx.notifier.notifications[0] != string(fx.seller.ID) {
		t.Fatalf("notification went to %q, want the seller", fx.notifier.notifications[0])
	}
	if len(fx.archive.appended) != 1 {
		t.Fatalf("archive writes = %d, want 1", len(fx.archive.appended))
	}

	stored, err := fx.notifications.ListForUser(ctx, fx.seller.ID, notification.ListFilter{})
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored notifications = %d, want 1", len(stored))
	}
	if stored[0].Title != "New Message" {
		t.Fatalf("notification title = %q", stored[0].Title)
	}
	if stored[0].Message != "You have a new message from Sara" {
		t.Fatalf("notification body = %q", stored[0].Message)
	}
}

func TestAppendRejectsOutsiders(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	started, _ := fx.svc.Start(ctx, fx.buyer.ID, fx.property.ID)

	stranger, _ := domainuser.NewUser(domainuser.CreateParams{
		ID: "u-stranger", Email: "s@example.com", Name: "S", PasswordHash: "x",
	})
	_ = fx.svc.Users.Save(ctx, stranger)

	_, err := fx.svc.Append(ctx, AppendParams{
		ConversationID: started.Conversation.ID,
		SenderID:       stranger.ID,
		Content:        "hello",
	})
	if !errors.Is(err, domainchat.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestAppendSurvivesArchiveFailure(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	fx.archive.err = errors.New("scylla unavailable")
	started, _ := fx.svc.Start(ctx, fx.buyer.ID, fx.property.ID)

	if _, err := fx.svc.Append(ctx, AppendParams{
		ConversationID: started.Conversation.ID,
		SenderID:       fx.buyer.ID,
		Content:        "still there?",
	}); err != nil {
		t.Fatalf("archive failure must not fail the append: %v", err)
	}
}

func TestMarkReadRecipientOnly(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	started, _ := fx.svc.Start(ctx, fx.buyer.ID, fx.property.ID)
	msg, _ := fx.svc.Append(ctx, AppendParams{
		ConversationID: started.Conversation.ID,
		SenderID:       fx.buyer.ID,
		Content:        "hello",
	})

	// the sender cannot mark their own message
	if _, err := fx.svc.MarkRead(ctx, domainchat.MessageID(msg.ID), fx.buyer.ID); !errors.Is(err, domainchat.ErrMessageNotFound) {
		t.Fatalf("sender mark-read must look like a missing message, got %v", err)
	}

	read, err := fx.svc.MarkRead(ctx, domainchat.MessageID(msg.ID), fx.seller.ID)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !read.IsRead || read.ReadAt == nil {
		t.Fatalf("read state: %+v", read)
	}
	if len(fx.notifier.reads) != 1 {
		t.Fatalf("read dispatches = %d, want 1", len(fx.notifier.reads))
	}

	// repeat is idempotent and emits nothing further
	again, err := fx.svc.MarkRead(ctx, domainchat.MessageID(msg.ID), fx.seller.ID)
	if err != nil {
		t.Fatalf("repeat mark read: %v", err)
	}
	if !again.ReadAt.Equal(*read.ReadAt) {
		t.Fatalf("ReadAt moved on repeat: %v vs %v", again.ReadAt, read.ReadAt)
	}
	if len(fx.notifier.reads) != 1 {
		t.Fatalf("repeat mark-read dispatched again: %d", len(fx.notifier.reads))
	}
}

func TestListMessagesChronologicalPage(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	started, _ := fx.svc.Start(ctx, fx.buyer.ID, fx.property.ID)
	convID := started.Conversation.ID

	contents := []string{"one", "two", "three", "four", "five"}
	for _, c := range contents {
		if _, err := fx.svc.Append(ctx, AppendParams{
			ConversationID: convID, SenderID: fx.buyer.ID, Content: c,
		}); err != nil {
			t.Fatalf("append %q: %v", c, err)
		}
	}

	page, err := fx.svc.ListMessages(ctx, convID, fx.seller.ID, 3, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.TotalCount != 5 {
		t.Fatalf("total = %d, want 5", page.TotalCount)
	}
	// latest three, oldest of them first
	want := []string{"three", "four", "five"}
	if len(page.Messages) != len(want) {
		t.Fatalf("page size = %d, want %d", len(page.Messages), len(want))
	}
	for i, c := range want {
		if page.Messages[i].Content != c {
			t.Fatalf("page[%d] = %q, want %q", i, page.Messages[i].Content, c)
		}
	}

	if _, err := fx.svc.ListMessages(ctx, convID, "u-stranger", 3, 0); !errors.Is(err, domainchat.ErrNotParticipant) {
		t.Fatalf("outsider listing must fail, got %v", err)
	}
}

func TestListConversationsSummaries(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	started, _ := fx.svc.Start(ctx, fx.buyer.ID, fx.property.ID)
	if _, err := fx.svc.Append(ctx, AppendParams{
		ConversationID: started.Conversation.ID, SenderID: fx.buyer.ID, Content: "hello",
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	summaries, err := fx.svc.ListConversations(ctx, fx.seller.ID, domainchat.ConversationFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}
	s := summaries[0]
	if s.OtherUserID != string(fx.buyer.ID) || s.OtherUserName != fx.buyer.Name {
		t.Fatalf("counterpart enrichment: %+v", s)
	}
	if s.PropertyTitle != fx.property.Title {
		t.Fatalf("property title = %q", s.PropertyTitle)
	}
	if s.LastMessage == nil || s.LastMessage.Content != "hello" {
		t.Fatalf("last message: %+v", s.LastMessage)
	}
	if s.UnreadCount != 1 {
		t.Fatalf("unread = %d, want 1", s.UnreadCount)
	}

	// the sender has nothing unread
	buyerSide, _ := fx.svc.ListConversations(ctx, fx.buyer.ID, domainchat.ConversationFilter{})
	if len(buyerSide) != 1 || buyerSide[0].UnreadCount != 0 {
		t.Fatalf("buyer side: %+v", buyerSide)
	}
}

func TestSetArchivedHidesFromDefaultListing(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	started, _ := fx.svc.Start(ctx, fx.buyer.ID, fx.property.ID)

	if _, err := fx.svc.SetArchived(ctx, started.Conversation.ID, fx.buyer.ID, true); err != nil {
		t.Fatalf("archive: %v", err)
	}

	active, _ := fx.svc.ListConversations(ctx, fx.buyer.ID, domainchat.ConversationFilter{})
	if len(active) != 0 {
		t.Fatalf("archived conversation leaked into active listing: %d", len(active))
	}
	archived, _ := fx.svc.ListConversations(ctx, fx.buyer.ID, domainchat.ConversationFilter{IsArchived: true})
	if len(archived) != 1 {
		t.Fatalf("archived listing = %d, want 1", len(archived))
	}
}

func TestIsParticipant(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	started, _ := fx.svc.Start(ctx, fx.buyer.ID, fx.property.ID)

	ok, err := fx.svc.IsParticipant(ctx, started.Conversation.ID, fx.buyer.ID)
	if err != nil || !ok {
		t.Fatalf("buyer membership: ok=%v err=%v", ok, err)
	}
	ok, err = fx.svc.IsParticipant(ctx, started.Conversation.ID, "u-stranger")
	if err != nil || ok {
		t.Fatalf("stranger membership: ok=%v err=%v", ok, err)
	}
	// unknown conversation is a quiet no
	ok, err = fx.svc.IsParticipant(ctx, "c-missing", fx.buyer.ID)
	if err != nil || ok {
		t.Fatalf("missing conversation: ok=%v err=%v", ok, err)
	}
}
