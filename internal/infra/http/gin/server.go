package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"aqari/internal/infra/config"
	"aqari/internal/infra/obs"
)

type Handlers struct {
	Auth           AuthHTTP
	User           UserHTTP
	Property       PropertyHTTP
	Chat           ChatHTTP
	Notification   NotificationHTTP
	Inquiry        InquiryHTTP
	Upload         UploadHTTP
	WS             gin.HandlerFunc
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	if h.WS != nil {
		router.GET("/ws", h.WS)
	}

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.User != nil {
		api.GET("/users/:id", h.User.Get)
	}
	if h.Property != nil {
		api.GET("/properties/:id", h.Property.Get)
	}
	if h.Chat != nil {
		api.POST("/conversations", h.Chat.StartConversation)
		api.GET("/conversations", h.Chat.ListMyConversations)
		api.GET("/conversations/:id", h.Chat.GetConversation)
		api.PATCH("/conversations/:id/archive", h.Chat.ArchiveConversation)
		api.GET("/conversations/:id/messages", h.Chat.ListMessages)
		api.POST("/conversations/:id/messages", h.Chat.SendMessage)
		api.PATCH("/messages/:id/read", h.Chat.MarkMessageRead)
	}
	if h.Notification != nil {
		api.GET("/notifications", h.Notification.List)
		api.PATCH("/notifications/mark-all-read", h.Notification.MarkAllRead)
		api.PATCH("/notifications/:id/read", h.Notification.MarkRead)
	}
	if h.Inquiry != nil {
		api.POST("/inquiries", h.Inquiry.Create)
		api.GET("/inquiries", h.Inquiry.ListMine)
		api.PUT("/inquiries/:id", h.Inquiry.Respond)
		api.GET("/properties/:id/inquiries", h.Inquiry.ListForProperty)
	}
	if h.Upload != nil {
		api.POST("/uploads", h.Upload.Upload)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
