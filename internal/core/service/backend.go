package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"meal-companion/internal/core/auth"
	"meal-companion/internal/core/mealplan"
	"meal-companion/internal/core/preferences"
	"meal-companion/internal/core/recipe"
	"meal-companion/internal/core/recommendation"
	"meal-companion/internal/core/settings"
	"meal-companion/internal/infrastructure/config"
	"meal-companion/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

// 各操作失敗時的預設訊息
const (
	msgFetchRecommendations = "failed to fetch recommendations"
	msgFetchPreferences     = "failed to fetch preferences"
	msgSavePreferences      = "failed to save preferences"
	msgFetchUserInfo        = "failed to fetch user info"
	msgSaveSettings         = "failed to update generation settings"
	msgSaveRecipe           = "failed to save recipe"
	msgFetchFavorites       = "failed to fetch favorites"
	msgToggleFavorite       = "failed to toggle favorite"
	msgFetchRecipes         = "failed to fetch recipes"
	msgFetchRecipe          = "failed to fetch recipe"
	msgSaveProfile          = "failed to update profile"
	msgFetchMealPlan        = "failed to fetch meal plan"
	msgAddMeal              = "failed to add meal"
	msgDeleteMeal           = "failed to delete meal"
	msgUpdateMeal           = "failed to update meal"
	msgLogin                = "login failed"
	msgRegister             = "registration failed"
	msgLogout               = "logout failed"
	msgRefresh              = "token refresh failed"
)

// TokenSource 提供目前的 access token，空字串表示未登入
type TokenSource interface {
	AccessToken() string
}

// BackendService 遠端 API 客戶端
type BackendService struct {
	config *config.Config
	client *resty.Client
	tokens TokenSource
}

// NewBackendService 創建遠端 API 客戶端
func NewBackendService(cfg *config.Config, tokens TokenSource) *BackendService {
	client := resty.New().
		SetBaseURL(cfg.Backend.BaseURL).
		SetTimeout(cfg.Backend.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &BackendService{
		config: cfg,
		client: client,
		tokens: tokens,
	}
}

// call 描述一次遠端呼叫
type call struct {
	method   string
	path     string
	query    map[string]string
	body     interface{}
	out      interface{}
	fallback string
	public   bool
}

// do 發送請求；需要認證但沒有 token 時不發送，直接回傳 ErrAuthMissing
func (s *BackendService) do(ctx context.Context, c call) error {
	req := s.client.R().SetContext(ctx)
	if !c.public {
		token := ""
		if s.tokens != nil {
			token = s.tokens.AccessToken()
		}
		if token == "" {
			return common.ErrAuthMissing
		}
		req.SetAuthToken(token)
	}
	if len(c.query) > 0 {
		req.SetQueryParams(c.query)
	}
	if c.body != nil {
		req.SetBody(c.body)
	}

	start := time.Now()
	resp, err := req.Execute(c.method, c.path)
	if err != nil {
		err = common.NewNetworkError(c.fallback, 0, fmt.Errorf("failed to send request: %w", err))
		common.LogRemoteCall(c.method, c.path, 0, time.Since(start), err)
		return err
	}

	status := resp.StatusCode()
	if !resp.IsSuccess() {
		err = common.NewNetworkError(
			common.ExtractMessage(resp.Body(), c.fallback),
			status,
			fmt.Errorf("%s %s returned %d", c.method, c.path, status),
		)
		common.LogRemoteCall(c.method, c.path, status, time.Since(start), err)
		return err
	}

	if c.out != nil && len(resp.Body()) > 0 {
		if err := common.ParseJSONBytes(resp.Body(), c.out); err != nil {
			err = common.NewNetworkError(c.fallback, status, fmt.Errorf("failed to parse response: %w", err))
			common.LogRemoteCall(c.method, c.path, status, time.Since(start), err)
			return err
		}
	}

	common.LogRemoteCall(c.method, c.path, status, time.Since(start), nil)
	return nil
}

// GenerateRecommendation 請求一則推薦
func (s *BackendService) GenerateRecommendation(ctx context.Context, req recommendation.GenerateRequest) (*recommendation.Recipe, error) {
	req.Preferences = req.Preferences.WithoutTimestamps()

	var result recommendation.Recipe
	err := s.do(ctx, call{
		method:   http.MethodPost,
		path:     "/recommendations/single",
		body:     req,
		out:      &result,
		fallback: msgFetchRecommendations,
	})
	if err != nil {
		return nil, err
	}
	if result.Name == "" {
		return nil, common.NewNetworkError(msgFetchRecommendations, http.StatusOK, fmt.Errorf("recommendation has no name"))
	}
	return &result, nil
}

// GetPreferences 取得遠端偏好設定
func (s *BackendService) GetPreferences(ctx context.Context) (*preferences.DietaryPreferences, error) {
	var result preferences.DietaryPreferences
	err := s.do(ctx, call{
		method:   http.MethodGet,
		path:     "/users/preferences",
		out:      &result,
		fallback: msgFetchPreferences,
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdatePreferences 保存偏好設定，時間欄位一律不送出
func (s *BackendService) UpdatePreferences(ctx context.Context, p preferences.DietaryPreferences) (*preferences.DietaryPreferences, error) {
	body := p.WithoutTimestamps()

	var result preferences.DietaryPreferences
	err := s.do(ctx, call{
		method:   http.MethodPut,
		path:     "/users/preferences",
		body:     body,
		out:      &result,
		fallback: msgSavePreferences,
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetUserInfo 取得使用者資料、偏好、設定與收藏
func (s *BackendService) GetUserInfo(ctx context.Context) (*settings.UserInfo, error) {
	var result settings.UserInfo
	err := s.do(ctx, call{
		method:   http.MethodGet,
		path:     "/users/info",
		out:      &result,
		fallback: msgFetchUserInfo,
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateSettings 更新生成服務設定
func (s *BackendService) UpdateSettings(ctx context.Context, u settings.Update) (*settings.Settings, error) {
	var result settings.Settings
	err := s.do(ctx, call{
		method:   http.MethodPut,
		path:     "/users/settings",
		body:     u,
		out:      &result,
		fallback: msgSaveSettings,
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateProfile 更新使用者資料
func (s *BackendService) UpdateProfile(ctx context.Context, u settings.ProfileUpdate) (*settings.Profile, error) {
	var result settings.Profile
	err := s.do(ctx, call{
		method:   http.MethodPut,
		path:     "/users/profile",
		body:     u,
		out:      &result,
		fallback: msgSaveProfile,
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// createRecipeRequest 保存食譜的請求，食譜欄位與偏好並列
type createRecipeRequest struct {
	recipe.Recipe
	Preferences preferences.DietaryPreferences `json:"preferences"`
}

// CreateRecipe 保存食譜
func (s *BackendService) CreateRecipe(ctx context.Context, r recipe.Recipe, prefs preferences.DietaryPreferences) (*recipe.Recipe, error) {
	var result recipe.Recipe
	err := s.do(ctx, call{
		method:   http.MethodPost,
		path:     "/recipes",
		body:     createRecipeRequest{Recipe: r, Preferences: prefs.WithoutTimestamps()},
		out:      &result,
		fallback: msgSaveRecipe,
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListFavorites 取得收藏
func (s *BackendService) ListFavorites(ctx context.Context) ([]recipe.Recipe, error) {
	result := []recipe.Recipe{}
	err := s.do(ctx, call{
		method:   http.MethodGet,
		path:     "/users/favorites",
		out:      &result,
		fallback: msgFetchFavorites,
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ToggleFavorite 切換收藏
func (s *BackendService) ToggleFavorite(ctx context.Context, id string) error {
	return s.do(ctx, call{
		method:   http.MethodPost,
		path:     "/users/favorites/" + url.PathEscape(id),
		fallback: msgToggleFavorite,
	})
}

// ListRecipes 分頁取得食譜
func (s *BackendService) ListRecipes(ctx context.Context, q recipe.Query) ([]recipe.Recipe, error) {
	result := []recipe.Recipe{}
	err := s.do(ctx, call{
		method: http.MethodGet,
		path:   "/recipes",
		query: map[string]string{
			"page":     strconv.Itoa(q.Page),
			"category": q.Category,
			"search":   q.Search,
		},
		out:      &result,
		fallback: msgFetchRecipes,
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetRecipe 取得單一食譜
func (s *BackendService) GetRecipe(ctx context.Context, id string) (*recipe.Recipe, error) {
	var result recipe.Recipe
	err := s.do(ctx, call{
		method:   http.MethodGet,
		path:     "/recipes/" + url.PathEscape(id),
		out:      &result,
		fallback: msgFetchRecipe,
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListMealPlans 取得時間範圍內的餐單項目
func (s *BackendService) ListMealPlans(ctx context.Context, startDate, endDate string) ([]mealplan.Entry, error) {
	result := []mealplan.Entry{}
	err := s.do(ctx, call{
		method: http.MethodGet,
		path:   "/meal-plans",
		query: map[string]string{
			"startDate": startDate,
			"endDate":   endDate,
		},
		out:      &result,
		fallback: msgFetchMealPlan,
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddMeal 新增餐點
func (s *BackendService) AddMeal(ctx context.Context, req mealplan.AddRequest) error {
	return s.do(ctx, call{
		method:   http.MethodPost,
		path:     "/meal-plans",
		body:     req,
		fallback: msgAddMeal,
	})
}

// DeleteMeal 刪除餐點
func (s *BackendService) DeleteMeal(ctx context.Context, id string) error {
	return s.do(ctx, call{
		method:   http.MethodDelete,
		path:     "/meal-plans/" + url.PathEscape(id),
		fallback: msgDeleteMeal,
	})
}

// UpdatePortions 修改餐點份量
func (s *BackendService) UpdatePortions(ctx context.Context, id string, portions float64) error {
	return s.do(ctx, call{
		method:   http.MethodPut,
		path:     "/meal-plans/meals/" + url.PathEscape(id),
		body:     map[string]float64{"portions": portions},
		fallback: msgUpdateMeal,
	})
}

// Login 登入
func (s *BackendService) Login(ctx context.Context, c auth.Credentials) (*auth.Session, error) {
	return s.authenticate(ctx, "/auth/login", c, msgLogin)
}

// Register 註冊
func (s *BackendService) Register(ctx context.Context, r auth.Registration) (*auth.Session, error) {
	return s.authenticate(ctx, "/auth/register", r, msgRegister)
}

// Refresh 刷新 token
func (s *BackendService) Refresh(ctx context.Context, refreshToken string) (*auth.Session, error) {
	body := map[string]string{"refresh_token": refreshToken}
	return s.authenticate(ctx, "/auth/refresh", body, msgRefresh)
}

// Logout 登出
func (s *BackendService) Logout(ctx context.Context) error {
	return s.do(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/logout",
		fallback: msgLogout,
	})
}

func (s *BackendService) authenticate(ctx context.Context, path string, body interface{}, fallback string) (*auth.Session, error) {
	var result auth.Response
	err := s.do(ctx, call{
		method:   http.MethodPost,
		path:     path,
		body:     body,
		out:      &result,
		fallback: fallback,
		public:   true,
	})
	if err != nil {
		return nil, err
	}
	return &result.Session, nil
}
