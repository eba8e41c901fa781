package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/catalog"
	"storefront/internal/docstore"
	"storefront/internal/events"
	"storefront/internal/grpcserver"
	"storefront/internal/media"
	"storefront/internal/metrics"
	"storefront/internal/notify"
	synchub "storefront/internal/sync"
	"storefront/pkg/logger"
	"storefront/pkg/utils"
)

func main() {
	if err := utils.LoadEnvFiles(); err != nil {
		panic(err)
	}
	cfg := utils.LoadAppConfig()

	log := logger.Must(cfg.Log)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := docstore.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatal("open store failed", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer func() { _ = closeStore() }()

	var host media.Host
	if cfg.MediaEnabled() {
		host = media.NewClient(cfg.Media)
	} else {
		log.Warn("media host not configured, image upload and cleanup disabled")
	}

	// Listeners are registered before Initialize so they see Ready.
	bus := events.NewBus(log)
	mx := metrics.New()
	bus.Subscribe(mx)

	hub := synchub.NewHub(log)
	bus.Subscribe(hub)
	tcpSrv := synchub.NewServer(cfg.TCPAddr, hub)

	udpSrv := notify.NewServer(cfg.UDPAddr, notify.NewRegistry(), log)
	bus.Subscribe(udpSrv)

	grpcSrv := grpcserver.NewServer(cfg.GRPCAddr, log)
	bus.Subscribe(grpcSrv)

	var rdb *redis.Client
	if cfg.RedisAddr != "" && cfg.EventsChannel != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.Store.RedisPassword})
		defer func() { _ = rdb.Close() }()
		bus.Subscribe(events.NewRedisPublisher(rdb, cfg.EventsChannel, log))
	}

	mirror := catalog.NewMirror(store, host, bus, log)
	mirror.OnCleanupFailure(mx.CleanupFailed)

	router := gin.New()
	router.Use(gin.Recovery(), mx.Middleware(), requestLogger(log))
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	catalogHandler := catalog.NewHandler(mirror, mx)
	catalogHandler.RegisterHealth(router)
	router.GET("/metrics", gin.WrapH(mx.Handler()))
	router.GET("/ws", synchub.WSHandler(hub))
	router.GET("/debug", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"store":   cfg.Store.Driver,
			"sync":    hub.Stats(),
			"orphans": len(mirror.Orphans()),
		})
	})

	// Auth
	tokenSvc := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.JWTDuration,
	}
	admin := auth.Admin{Username: cfg.Auth.AdminUser, PasswordHash: cfg.Auth.AdminPasswordHash}
	auth.NewHandler(admin, tokenSvc, log).RegisterRoutes(router.Group("/auth"))

	// Catalog: reads are public, writes need an admin token
	protected := router.Group("/")
	protected.Use(auth.AdminMiddleware(tokenSvc))
	catalogHandler.RegisterRoutes(router.Group("/"), protected)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 4)
	var wg sync.WaitGroup
	start := func(name string, run func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("server stopped", zap.String("server", name), zap.Error(err))
				errCh <- err
			}
		}()
	}

	// Bind the push transports first so binding errors show up early.
	start("tcp-sync", tcpSrv.Run)
	start("udp-notify", udpSrv.Run)
	start("grpc", grpcSrv.Run)
	start("http", func() error {
		log.Info("http api listening", zap.String("addr", cfg.HTTPAddr))
		return httpSrv.ListenAndServe()
	})

	initCtx, cancelInit := context.WithTimeout(ctx, 30*time.Second)
	if err := mirror.Initialize(initCtx); err != nil {
		// /ready stays 503; the operator can restart once the store is back
		log.Error("catalog initialization failed", zap.Error(err))
	}
	cancelInit()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	log.Info("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown error", zap.Error(err))
	}
	if err := tcpSrv.Close(); err != nil {
		log.Warn("tcp shutdown error", zap.Error(err))
	}
	if err := udpSrv.Close(); err != nil {
		log.Warn("udp shutdown error", zap.Error(err))
	}
	grpcSrv.Stop()

	wg.Wait()
	log.Info("servers stopped")
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
