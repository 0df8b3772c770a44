package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"lodelita/config"
	"lodelita/internal/domain"
	"lodelita/internal/handler"
	"lodelita/internal/history"
	"lodelita/internal/middleware"
	"lodelita/internal/realtime"
	"lodelita/internal/repository"
	"lodelita/internal/service"
	"lodelita/internal/ws"
	"lodelita/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// App is the wired HTTP engine plus the background parts main has to start.
type App struct {
	Engine  *gin.Engine
	Bridge  *realtime.Bridge
	Gate    *service.Gate
	Catalog *service.Catalog
}

// Setup wires repositories, services and handlers. rdb and cloud may be nil.
func Setup(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, cloud cloudinary.Client) *App {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	// Repositories
	menuRepo := repository.NewMenuRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	hub := ws.NewHub()
	bridge := realtime.NewBridge(rdb, cfg.Redis.KeyPrefix, hub)
	clock := service.NewClock(cfg.Restaurant.Location())

	var store history.Store = history.NewMemoryStore()
	if rdb != nil {
		store = history.NewRedisStore(rdb, cfg.Redis.KeyPrefix, cfg.Redis.HistoryTTL)
	}

	// Services
	catalog := service.NewCatalog(menuRepo)
	gate := service.NewGate(settingsRepo, clock, hub, cfg.Restaurant.GatePollInterval)
	bridge.Register(domain.TableMenuItems, catalog.OnMenuChange)
	bridge.Register(domain.TableSettings, gate.OnSettingsChange)

	fcmSvc := service.NewFCMService(cfg.Firebase.ServiceAccountPath)
	if fcmSvc != nil {
		slog.Info("push notifications enabled")
	} else if cfg.Firebase.ServiceAccountPath != "" {
		slog.Warn("push notifications disabled: failed to init (check service account file)")
	} else {
		slog.Info("push notifications disabled: set FIREBASE_SERVICE_ACCOUNT_PATH to enable")
	}
	notifSvc := service.NewNotificationService(adminRepo, fcmSvc)
	orderSvc := service.NewOrderService(orderRepo, catalog, gate, clock, bridge, history.NewBook(store), notifSvc)
	adminOrderSvc := service.NewAdminOrderService(orderRepo, bridge, clock, auditRepo,
		cfg.Restaurant.CountryCode, cfg.Restaurant.TransferAccount)
	menuSvc := service.NewMenuService(menuRepo, settingsRepo, bridge, cloud, auditRepo)
	authSvc := service.NewAuthService(&cfg.JWT, adminRepo, auditRepo)

	// Handlers
	publicHandler := handler.NewPublicHandler(catalog, gate, orderSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	menuHandler := handler.NewMenuHandler(menuSvc)
	uploadHandler := handler.NewUploadHandler(menuSvc)
	orderHandler := handler.NewOrderHandler(adminOrderSvc)
	notificationHandler := handler.NewNotificationHandler(notifSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)
	limiter := middleware.NewInMemoryRateLimiter(ctx, cfg.Server.RateLimit, time.Minute)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		public := api.Group("")
		public.Use(middleware.RateLimit(limiter), middleware.ClientID())
		{
			public.GET("/availability", publicHandler.Availability)
			public.GET("/menu", publicHandler.Menu)
			public.POST("/orders/preview", publicHandler.Preview)
			public.POST("/orders", publicHandler.Place)
			public.GET("/orders/history", publicHandler.History)
		}

		api.POST("/admin/login", middleware.RateLimit(limiter), authHandler.Login)
		api.POST("/admin/refresh", authHandler.Refresh)

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.POST("/logout", authHandler.Logout)
			admin.GET("/session", authHandler.Session)
			admin.POST("/devices", notificationHandler.RegisterDevice)

			admin.GET("/menu", menuHandler.List)
			admin.POST("/menu", menuHandler.Create)
			admin.PUT("/menu/:id", menuHandler.Update)
			admin.DELETE("/menu/:id", menuHandler.Delete)
			admin.PATCH("/menu/:id/stock", menuHandler.AdjustStock)
			admin.POST("/menu/:id/photo", uploadHandler.UploadMenuPhoto)

			admin.GET("/settings", menuHandler.Settings)
			admin.PATCH("/settings/menu", menuHandler.SetMenuOpen)
			admin.PUT("/settings/window", menuHandler.SetWindow)

			admin.GET("/orders", orderHandler.List)
			admin.PATCH("/orders/:id/paid", orderHandler.TogglePaid)
			admin.PATCH("/orders/:id/prepared", orderHandler.SetPrepared)
			admin.DELETE("/orders/:id", orderHandler.Delete)
		}
	}

	hello := func() interface{} {
		return service.GateMessage{Type: "gate", Availability: gate.Availability()}
	}
	r.GET("/ws/public", ws.UpgradePublic(hub, hello))
	r.GET("/ws/admin", ws.UpgradeAdmin(&cfg.JWT, hub, hello))

	return &App{Engine: r, Bridge: bridge, Gate: gate, Catalog: catalog}
}

// Start loads the caches, subscribes to change events and runs the gate ticker until ctx is done.
func (a *App) Start(ctx context.Context) error {
	if err := a.Catalog.Reload(ctx); err != nil {
		return err
	}
	// A missing settings row is not fatal; the gate runs on defaults.
	_ = a.Gate.Reload(ctx)
	if err := a.Bridge.Start(ctx); err != nil {
		return err
	}
	go a.Gate.Run(ctx)
	return nil
}
