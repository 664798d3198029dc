package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meal-companion/internal/api"
	"meal-companion/internal/core/auth"
	"meal-companion/internal/core/cache"
	"meal-companion/internal/core/mealplan"
	"meal-companion/internal/core/preferences"
	"meal-companion/internal/core/recipe"
	"meal-companion/internal/core/recommendation"
	"meal-companion/internal/core/service"
	"meal-companion/internal/core/session"
	"meal-companion/internal/core/settings"
	"meal-companion/internal/infrastructure/config"
	"meal-companion/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定（內含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.String("default_provider", cfg.Recommendation.DefaultProvider),
	)

	// 初始化本地儲存
	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStart()

	store, err := cache.NewStore(startCtx, cfg)
	if err != nil {
		common.LogFatal("Failed to initialize cache store", zap.Error(err))
	}
	defer store.Close()

	// 組裝服務
	holder := auth.NewHolder(store, cfg.Cache.TTL)
	backend := service.NewBackendService(cfg, holder)
	authManager := auth.NewManager(backend, holder)
	settingsStore := settings.NewStore(backend, cfg.Recommendation.DefaultProvider)
	prefsStore := preferences.NewStore(backend)
	coordinator := recommendation.NewCoordinator(backend, settingsStore)
	controller := session.NewController(prefsStore, coordinator, cfg.Recommendation.DefaultCount)
	recipes := recipe.NewService(backend, store)
	mealPlans := mealplan.NewStore(backend)

	// 恢復上次的登入狀態並載入使用者資料
	if err := authManager.Restore(startCtx); err != nil {
		common.LogWarn("恢復登入狀態失敗", zap.Error(err))
	}
	if authManager.State().SignedIn {
		if info, err := settingsStore.FetchUserInfo(startCtx); err != nil {
			common.LogWarn("載入使用者資訊失敗", zap.Error(err))
		} else {
			prefsStore.Hydrate(info.Preferences)
		}
	}

	// 設置路由
	router, err := api.SetupRouter(cfg, api.Services{
		Session:   controller,
		Settings:  settingsStore,
		Auth:      authManager,
		Recipes:   recipes,
		MealPlans: mealPlans,
		Cache:     store,
	})
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server",
				zap.Error(err),
			)
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}
