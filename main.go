package main

import (
	"context"
	stdlog "log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chatroom-service/internal/auth"
	"chatroom-service/internal/blobstore"
	"chatroom-service/internal/config"
	"chatroom-service/internal/db"
	"chatroom-service/internal/handlers"
	"chatroom-service/internal/log"
	"chatroom-service/internal/media"
	"chatroom-service/internal/middleware"
	"chatroom-service/internal/observability"
	"chatroom-service/internal/rabbitmq"
	"chatroom-service/internal/repositories"
	"chatroom-service/internal/telemetry"
	"chatroom-service/internal/tracing"
)

const serviceName = "chatroom-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("failed to load config: %v", err)
	}

	logger := log.New(cfg.LogLevel)

	shutdownTracing, err := tracing.Setup(context.Background(), cfg.OTLPEndpoint, serviceName)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up tracing")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to db")
	}

	blobs, err := blobstore.Open(cfg.BlobPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open blob store")
	}
	defer blobs.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	defer publisher.Close()
	audit := telemetry.NewAuditEmitter(publisher, cfg.AuditRoutingKey, serviceName, cfg.Environment, logger)

	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	userRepo := repositories.NewUserRepo(database)

	verifier := auth.NewVerifier(cfg.JWTSecret)
	guard := auth.NewMembershipGuard(chatRepo)
	pipeline := media.NewPipeline(blobs, logger)

	chatHandler := handlers.NewChatHandler(chatRepo, messageRepo, userRepo, audit)
	mediaHandler := handlers.NewMediaHandler(pipeline, blobs, audit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(accessLog(logger))

	chats := router.Group("/chats", middleware.RequireAuth(verifier))
	chats.POST("", chatHandler.CreateChat)

	scoped := chats.Group("/:chat_id", middleware.RequireMember(guard))
	scoped.GET("", chatHandler.GetChatInfo)
	scoped.POST("/members", chatHandler.AddMember)
	scoped.DELETE("/members", chatHandler.RemoveMember)
	scoped.POST("/messages", chatHandler.SendMessage)
	scoped.POST("/media", mediaHandler.Upload)

	router.GET("/media/:key", mediaHandler.Serve)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterDebugRoutes(router, audit, cfg.EnableDebugRoute)

	logger.Info().Str("port", cfg.Port).Msg("starting server")
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func accessLog(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Str("ip", observability.IPFromRequest(c.Request)).
			Str("request_id", observability.RequestIDFromRequest(c.Request)).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
