package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	appoutbox "aqari/internal/app/outbox"
	authsvc "aqari/internal/app/services/auth"
	chatsvc "aqari/internal/app/services/chat"
	inquirysvc "aqari/internal/app/services/inquiry"
	notifysvc "aqari/internal/app/services/notify"
	domainauth "aqari/internal/domain/auth"
	domainchat "aqari/internal/domain/chat"
	domaininquiry "aqari/internal/domain/inquiry"
	"aqari/internal/domain/notification"
	"aqari/internal/domain/property"
	domainuser "aqari/internal/domain/user"
	"aqari/internal/infra/broker/kafka"
	"aqari/internal/infra/config"
	mongodb "aqari/internal/infra/db/mongo"
	ginserver "aqari/internal/infra/http/gin"
	"aqari/internal/infra/obs"
	infraoutbox "aqari/internal/infra/outbox"
	"aqari/internal/infra/realtime"
	"aqari/internal/infra/security"
	"aqari/internal/infra/storage/memory"
	"aqari/internal/infra/storage/s3"
	"aqari/internal/infra/storage/scylla"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, cleanup, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Checks: app.checks,
	}, app.handlers)

	fixturesPath := cfg.PropertyFixtures
	if fixturesPath == "" {
		fixturesPath = defaultPropertyFixturesPath()
	}
	if err := loadPropertyFixtures(ctx, fixturesPath, app.properties, logger); err != nil {
		logger.Warn("property fixtures load failed", "error", err, "path", fixturesPath)
	}

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.StoreBackend, "archive", cfg.ChatArchive)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	app.hub.Close()
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers   ginserver.Handlers
	hub        *realtime.Hub
	worker     *infraoutbox.Worker
	properties property.Directory
	checks     map[string]func() error
}

// stores groups the persistence ports so memory and mongo backends can be
// swapped behind one seam.
type stores struct {
	users         domainuser.Repository
	sessions      domainauth.SessionStore
	properties    property.Directory
	conversations domainchat.ConversationRepository
	messages      domainchat.MessageRepository
	notifications notification.Repository
	inquiries     domaininquiry.Repository
	outbox        appoutbox.Outbox
	eventStore    infraoutbox.EventStore
	ready         func() error
	close         func()
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	st, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return application{}, cleanup, err
	}
	if st.close != nil {
		cleanups = append(cleanups, st.close)
	}
	checks := map[string]func() error{"store": st.ready}

	var archive chatsvc.Archive
	if cfg.ChatArchive == "scylla" {
		session, err := scylla.NewSession(scylla.Options{
			Hosts:    cfg.ScyllaHosts,
			Keyspace: cfg.ScyllaKeyspace,
		}, logger)
		if err != nil {
			return application{}, cleanup, fmt.Errorf("scylla: %w", err)
		}
		cleanups = append(cleanups, session.Close)
		archive = scylla.NewArchive(session, logger)
		checks["archive"] = func() error {
			return session.Query("SELECT now() FROM system.local").Exec()
		}
	}

	var uploader s3.Uploader = s3.NoopUploader{}
	if cfg.S3Endpoint != "" {
		client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
		if err != nil {
			logger.Warn("object storage unavailable, uploads disabled", "error", err)
		} else {
			uploader = client
		}
	}

	var worker *infraoutbox.Worker
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return application{}, cleanup, fmt.Errorf("kafka: %w", err)
		}
		cleanups = append(cleanups, func() { _ = producer.Close() })
		worker = &infraoutbox.Worker{
			Store:       st.eventStore,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
	}

	hub := realtime.NewHub()
	dispatcher := realtime.NewDispatcher(hub, logger)

	authService := &authsvc.Service{
		Users:      st.users,
		Sessions:   st.sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}
	chatService := &chatsvc.Service{
		Conversations: st.conversations,
		Messages:      st.messages,
		Properties:    st.properties,
		Users:         st.users,
		Notifications: st.notifications,
		Outbox:        st.outbox,
		Dispatcher:    dispatcher,
		Archive:       archive,
		Logger:        logger,
	}
	notifyService := &notifysvc.Service{
		Notifications: st.notifications,
		Logger:        logger,
	}
	inquiryService := &inquirysvc.Service{
		Inquiries:     st.inquiries,
		Properties:    st.properties,
		Users:         st.users,
		Notifications: st.notifications,
		Outbox:        st.outbox,
		Dispatcher:    dispatcher,
		Logger:        logger,
	}

	handlers := ginserver.Handlers{
		Auth:         ginserver.AuthHandler{Service: authService, Logger: logger},
		User:         ginserver.UserHandler{Users: st.users, Logger: logger},
		Property:     ginserver.PropertyHandler{Directory: st.properties, Logger: logger},
		Chat:         ginserver.ChatHandler{Service: chatService, Logger: logger},
		Notification: ginserver.NotificationHandler{Service: notifyService, Logger: logger},
		Inquiry:      ginserver.InquiryHandler{Service: inquiryService, Logger: logger},
		Upload:       ginserver.UploadHandler{Uploader: uploader, Logger: logger},
		WS: ginserver.WSHandler{
			Auth:       authService,
			Chat:       chatService,
			Hub:        hub,
			Dispatcher: dispatcher,
			Logger:     logger,
		}.Handle,
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
	}

	return application{
		handlers:   handlers,
		hub:        hub,
		worker:     worker,
		properties: st.properties,
		checks:     checks,
	}, cleanup, nil
}

func buildStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	if cfg.StoreBackend == "mongo" {
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return stores{}, fmt.Errorf("mongo: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx); err != nil {
			return stores{}, fmt.Errorf("mongo ping: %w", err)
		}
		outboxStore := mongodb.NewOutboxStore(client.DB)
		logger.Info("mongo connected", "database", cfg.MongoDB)
		return stores{
			users: mongodb.NewUserRepository(client.DB),
			// sessions are ephemeral bearer tokens; they stay in memory
			// even with a durable document store
			sessions:      memory.NewSessionStore(),
			properties:    memory.NewPropertyDirectory(),
			conversations: mongodb.NewConversationRepository(client.DB),
			messages:      mongodb.NewMessageRepository(client.DB),
			notifications: mongodb.NewNotificationRepository(client.DB),
			inquiries:     mongodb.NewInquiryRepository(client.DB),
			outbox:        outboxStore,
			eventStore:    outboxStore,
			ready: func() error {
				pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return client.Ping(pingCtx)
			},
			close: func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := client.Close(closeCtx); err != nil {
					logger.Warn("mongo disconnect failed", "error", err)
				}
			},
		}, nil
	}

	memOutbox := memory.NewOutbox()
	return stores{
		users:         memory.NewUserRepository(),
		sessions:      memory.NewSessionStore(),
		properties:    memory.NewPropertyDirectory(),
		conversations: memory.NewConversationRepository(),
		messages:      memory.NewMessageRepository(),
		notifications: memory.NewNotificationRepository(),
		inquiries:     memory.NewInquiryRepository(),
		outbox:        memOutbox,
		eventStore:    memOutbox,
		ready:         func() error { return nil },
	}, nil
}

type propertyFixture struct {
	ID              string  `json:"id"`
	OwnerID         string  `json:"owner_id"`
	Title           string  `json:"title"`
	Price           float64 `json:"price"`
	Currency        string  `json:"currency"`
	TransactionType string  `json:"transaction_type"`
	City            string  `json:"city"`
	Governorate     string  `json:"governorate"`
}

func loadPropertyFixtures(ctx context.Context, path string, directory property.Directory, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("property fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("property fixtures file empty", "path", path)
		return nil
	}

	var fixtures []propertyFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	for _, fx := range fixtures {
		prop, err := property.New(property.CreateParams{
			ID:              property.ID(fx.ID),
			OwnerID:         domainuser.ID(fx.OwnerID),
			Title:           fx.Title,
			Price:           fx.Price,
			Currency:        fx.Currency,
			TransactionType: fx.TransactionType,
			City:            fx.City,
			Governorate:     fx.Governorate,
			CreatedAt:       now,
		})
		if err != nil {
			logger.Error("fixture invalid", "property_id", fx.ID, "error", err)
			continue
		}
		if err := directory.Save(ctx, prop); err != nil {
			logger.Error("cannot store fixture property", "property_id", fx.ID, "error", err)
			continue
		}
		logger.Info("property fixture imported", "property_id", prop.ID)
	}
	return nil
}

func defaultPropertyFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "properties.json"),
		filepath.Join("cmd", "aqari", "data", "properties.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
