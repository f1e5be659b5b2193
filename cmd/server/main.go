package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"watchparty/internal/core/domain"
	"watchparty/internal/core/ports"
	"watchparty/internal/core/services"
	httphandlers "watchparty/internal/handlers/http"
	"watchparty/internal/infrastructure/middleware"
	"watchparty/internal/infrastructure/monitoring"
	"watchparty/internal/infrastructure/repositories/memory"
	gateway "watchparty/internal/infrastructure/signal"
	"watchparty/pkg/config"
	"watchparty/pkg/ident"
	"watchparty/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// lateBroadcaster breaks the construction cycle between the services and
// the websocket gateway: the services are built first against this shim and
// the gateway is attached once it exists.
type lateBroadcaster struct {
	target ports.Broadcaster
}

func (b *lateBroadcaster) Broadcast(roomID domain.RoomID, payload interface{}) {
	if b.target != nil {
		b.target.Broadcast(roomID, payload)
	}
}

func main() {
	configPath := os.Getenv("WATCHPARTY_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zlog.Sync()
	sugar := zlog.Sugar()

	allocator := ident.NewAllocator()
	registry := memory.NewRoomRegistry(allocator,
		memory.WithIDLength(cfg.Rooms.IDLength),
		memory.WithMaxRetries(cfg.Rooms.MaxIDAttempts),
	)

	var metrics services.Metrics
	if cfg.Monitoring.PrometheusEnabled {
		metrics = monitoring.NewPrometheusCollector()
	}

	broadcaster := &lateBroadcaster{}
	roomOpts := []services.RoomServiceOption{
		services.WithDefaultCapacity(cfg.Rooms.DefaultCapacity),
		services.WithBroadcaster(broadcaster),
	}
	channelOpts := []services.ChannelServiceOption{}
	if metrics != nil {
		roomOpts = append(roomOpts, services.WithMetrics(metrics))
		channelOpts = append(channelOpts, services.WithChannelMetrics(metrics))
	}

	roomService := services.NewRoomService(registry, allocator, sugar, roomOpts...)
	channelService := services.NewChannelService(registry, broadcaster, allocator,
		cfg.Channel.TokenSecret, cfg.Channel.TokenTTL, sugar, channelOpts...)

	gw := gateway.NewGateway(channelService, roomService, sugar,
		gateway.WithKeepalive(cfg.Channel.PingInterval, cfg.Channel.PongTimeout))
	broadcaster.target = gw

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.Recovery(sugar))
	router.Use(middleware.RequestLogger(sugar))
	if cfg.RateLimiting.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.Burst, sugar))
	}
	router.Use(middleware.ErrorHandler(sugar))

	httphandlers.NewRoomHandler(roomService, channelService).SetupRoutes(router)
	router.GET("/ws", gin.WrapF(gw.HandleWebSocket))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		sugar.Infow("starting watchparty server", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	sugar.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
	}
}
