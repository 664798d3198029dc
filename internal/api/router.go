package api

import (
	"fmt"
	"time"

	authHandler "meal-companion/internal/api/handlers/auth"
	"meal-companion/internal/api/handlers/health"
	mealPlanHandler "meal-companion/internal/api/handlers/mealplan"
	preferencesHandler "meal-companion/internal/api/handlers/preferences"
	recipeHandler "meal-companion/internal/api/handlers/recipe"
	sessionHandler "meal-companion/internal/api/handlers/session"
	settingsHandler "meal-companion/internal/api/handlers/settings"
	"meal-companion/internal/api/middleware"
	"meal-companion/internal/core/auth"
	"meal-companion/internal/core/cache"
	"meal-companion/internal/core/mealplan"
	"meal-companion/internal/core/recipe"
	"meal-companion/internal/core/session"
	"meal-companion/internal/core/settings"
	"meal-companion/internal/infrastructure/config"
	"meal-companion/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 請求體大小限制 (1MB)
	maxBodySize = 1 << 20
)

// Services 閘道使用的服務
type Services struct {
	Session   *session.Controller
	Settings  *settings.Store
	Auth      *auth.Manager
	Recipes   *recipe.Service
	MealPlans *mealplan.Store
	Cache     cache.Store
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc Services) (*gin.Engine, error) {
	if svc.Session == nil || svc.Settings == nil || svc.Auth == nil || svc.Recipes == nil || svc.MealPlans == nil {
		return nil, fmt.Errorf("failed to setup router: missing service")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	// CORS 設置，UI 殼層可能跑在不同的 origin
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(maxBodySize))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	// 健康檢查路由
	healthH := health.NewHandler(cfg, svc.Cache, svc.Settings, svc.Session)
	router.GET("/health", healthH.HealthCheck)
	router.GET("/ready", healthH.ReadinessCheck)
	router.GET("/live", healthH.LivenessCheck)

	dedup := middleware.NewDeduplicator(cfg.DedupWindow)

	// API 路由組
	api := router.Group("/api/v1")
	{
		sessionH := sessionHandler.NewHandler(svc.Session, svc.Recipes)
		sessionGroup := api.Group("/session", dedup.Middleware())
		{
			sessionGroup.GET("", sessionH.HandleGet)
			sessionGroup.POST("/start", sessionH.HandleStart)
			sessionGroup.POST("/more", sessionH.HandleMore)
			sessionGroup.POST("/modify", sessionH.HandleModify)
			sessionGroup.POST("/daily", sessionH.HandleDaily)
			sessionGroup.POST("/daily/apply", sessionH.HandleApplyDaily)
			sessionGroup.POST("/meals/:meal/replace", sessionH.HandleReplaceMeal)
			sessionGroup.POST("/save", sessionH.HandleSave)
		}

		prefsH := preferencesHandler.NewHandler(svc.Session.Preferences())
		prefsGroup := api.Group("/preferences")
		{
			prefsGroup.GET("", prefsH.HandleGet)
			prefsGroup.PUT("", prefsH.HandlePut)
			prefsGroup.PATCH("", prefsH.HandlePatch)
			prefsGroup.POST("/sync", prefsH.HandleSync)
		}

		settingsH := settingsHandler.NewHandler(svc.Settings, svc.Session.Preferences())
		api.GET("/settings", settingsH.HandleGet)
		api.PUT("/settings", settingsH.HandlePut)
		api.PUT("/profile", settingsH.HandleProfile)

		recipeH := recipeHandler.NewHandler(svc.Recipes)
		api.GET("/recipes", recipeH.HandleList)
		api.GET("/recipes/:id", recipeH.HandleGet)
		api.GET("/favorites", recipeH.HandleFavorites)
		api.POST("/favorites/:id", dedup.Middleware(), recipeH.HandleToggleFavorite)

		mealPlanH := mealPlanHandler.NewHandler(svc.MealPlans)
		mealPlanGroup := api.Group("/meal-plans")
		{
			mealPlanGroup.GET("", mealPlanH.HandleGet)
			mealPlanGroup.POST("", dedup.Middleware(), mealPlanH.HandleAdd)
			mealPlanGroup.DELETE("/:id", mealPlanH.HandleDelete)
			mealPlanGroup.PUT("/meals/:id", mealPlanH.HandleUpdatePortions)
		}

		authH := authHandler.NewHandler(svc.Auth, svc.Session.Preferences())
		authGroup := api.Group("/auth", dedup.Middleware())
		{
			authGroup.GET("", authH.HandleState)
			authGroup.POST("/login", authH.HandleLogin)
			authGroup.POST("/register", authH.HandleRegister)
			authGroup.POST("/logout", authH.HandleLogout)
			authGroup.POST("/refresh", authH.HandleRefresh)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("dedup_window", cfg.DedupWindow),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
