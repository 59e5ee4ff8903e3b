package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-relay/internal/cache"
	"chat-relay/internal/config"
	"chat-relay/internal/db"
	"chat-relay/internal/handlers"
	"chat-relay/internal/middleware"
	"chat-relay/internal/observability"
	"chat-relay/internal/rabbitmq"
	"chat-relay/internal/relay"
	"chat-relay/internal/repositories"
	"chat-relay/internal/telemetry"
	"chat-relay/internal/ws"
)

const auditRoutingKey = "audit.rooms"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Printf("tracing disabled: %v", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s reason=%q", rabbitmq.PublisherMode(publisher), rabbitmq.PublisherNoopReason(publisher))
	observability.SetPublisher(publisher)

	var roomRepo repositories.RoomRepository = repositories.NewRoomRepo(database)
	if cfg.RedisAddr != "" {
		roomCache, err := cache.NewRoomCache(cfg.RedisAddr, cfg.RoomCacheTTL)
		if err != nil {
			log.Printf("room cache disabled: %v", err)
		} else {
			defer roomCache.Close()
			roomRepo = repositories.NewCachedRoomRepo(roomRepo, roomCache)
		}
	}
	messageRepo := repositories.NewMessageRepo(database)
	profileRepo := repositories.NewProfileRepo(database)

	router := relay.NewRouter(messageRepo, profileRepo, publisher, relay.Options{
		HistoryLimit:  cfg.HistoryLimit,
		TypingTimeout: cfg.TypingTimeout,
	})
	go router.Run(ctx)

	audit := telemetry.NewAuditEmitter(publisher, auditRoutingKey, cfg.ServiceName, cfg.Environment)
	origins := ws.NewOriginPolicy(cfg.Origins())

	roomHandler := handlers.NewRoomHandler(roomRepo, audit)
	healthHandler := handlers.NewHealthHandler(router)
	wsHandler := ws.NewHandler(router, origins, cfg.MaxMessageSize)

	engine := gin.Default()

	// middlewares
	engine.Use(otelgin.Middleware(cfg.ServiceName))
	engine.Use(observability.HTTPMetricsMiddleware())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.CORS(origins.Allowed))

	for _, group := range []*gin.RouterGroup{&engine.RouterGroup, engine.Group("/api")} {
		group.GET("/health", healthHandler.Health)
		group.GET("/rooms", roomHandler.ListRooms)
		group.POST("/rooms", roomHandler.CreateRoom)
	}
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/ws", wsHandler.Handle)
	handlers.RegisterDebugRoutes(engine, audit, cfg.Environment == "development")

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("chat relay listening on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("tracing shutdown: %v", err)
	}
}
