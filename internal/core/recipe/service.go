package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"meal-companion/internal/core/cache"
	"meal-companion/internal/core/preferences"
	"meal-companion/internal/core/recommendation"
	"meal-companion/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	favoritesKey = "favorites"
	favoritesTTL = 5 * time.Minute
)

// Backend 遠端食譜端點
type Backend interface {
	CreateRecipe(ctx context.Context, r Recipe, prefs preferences.DietaryPreferences) (*Recipe, error)
	ListFavorites(ctx context.Context) ([]Recipe, error)
	ToggleFavorite(ctx context.Context, id string) error
	ListRecipes(ctx context.Context, q Query) ([]Recipe, error)
	GetRecipe(ctx context.Context, id string) (*Recipe, error)
}

// Service 保存推薦與管理收藏
type Service struct {
	backend Backend
	cache   cache.Store
}

// NewService 創建食譜服務，cache 可為 nil
func NewService(backend Backend, store cache.Store) *Service {
	return &Service{
		backend: backend,
		cache:   store,
	}
}

// SaveRecommendation 將一則推薦保存為食譜
func (s *Service) SaveRecommendation(ctx context.Context, r recommendation.Recipe, prefs preferences.DietaryPreferences) (*Recipe, error) {
	if r.Name == "" {
		return nil, common.NewValidationError("recommendation has no name")
	}

	saved, err := s.backend.CreateRecipe(ctx, FromRecommendation(r), prefs.WithoutTimestamps())
	if err != nil {
		common.LogWarn("保存食譜失敗", zap.String("name", r.Name), zap.Error(err))
		return nil, err
	}
	common.LogInfo("已保存食譜", zap.String("name", r.Name), zap.String("id", saved.ID))
	return saved, nil
}

// ApplyDaily 並行保存整天的推薦，任何一個失敗即回傳錯誤
func (s *Service) ApplyDaily(ctx context.Context, meals []recommendation.Recipe, prefs preferences.DietaryPreferences) ([]Recipe, error) {
	if len(meals) == 0 {
		return nil, common.NewValidationError("no daily recommendation to apply")
	}

	saved := make([]Recipe, len(meals))
	var g errgroup.Group
	for i, meal := range meals {
		i, meal := i, meal
		g.Go(func() error {
			r, err := s.SaveRecommendation(ctx, meal, prefs)
			if err != nil {
				return fmt.Errorf("save %s: %w", meal.Name, err)
			}
			saved[i] = *r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return saved, nil
}

// Recipes 分頁取得食譜，可依分類與關鍵字篩選
func (s *Service) Recipes(ctx context.Context, q Query) ([]Recipe, error) {
	q = q.Normalize()
	recipes, err := s.backend.ListRecipes(ctx, q)
	if err != nil {
		common.LogWarn("取得食譜列表失敗",
			zap.Int("page", q.Page),
			zap.String("category", q.Category),
			zap.Error(err),
		)
		return nil, err
	}
	return recipes, nil
}

// Recipe 取得單一食譜，並與收藏清單比對標記 is_favorite
//
// 食譜與收藏同時向遠端請求，任一失敗即回傳錯誤。收藏清單會順便更新快取。
func (s *Service) Recipe(ctx context.Context, id string) (*Recipe, error) {
	if id == "" {
		return nil, common.NewValidationError("recipe id is required")
	}

	var (
		found     *Recipe
		favorites []Recipe
		g         errgroup.Group
	)
	g.Go(func() error {
		r, err := s.backend.GetRecipe(ctx, id)
		if err != nil {
			return err
		}
		found = r
		return nil
	})
	g.Go(func() error {
		f, err := s.backend.ListFavorites(ctx)
		if err != nil {
			return err
		}
		favorites = f
		return nil
	})
	if err := g.Wait(); err != nil {
		common.LogWarn("取得食譜失敗", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if found == nil {
		return nil, common.ErrNotFound.WithMessage("recipe not found")
	}

	s.setToCache(ctx, favorites)

	isFavorite := false
	for _, f := range favorites {
		if f.ID == id {
			isFavorite = true
			break
		}
	}
	r := *found
	r.IsFavorite = &isFavorite
	return &r, nil
}

// Favorites 取得收藏，先查本地快取
func (s *Service) Favorites(ctx context.Context) ([]Recipe, error) {
	if cached, ok := s.getFromCache(ctx); ok {
		return cached, nil
	}

	favorites, err := s.backend.ListFavorites(ctx)
	if err != nil {
		return nil, err
	}
	s.setToCache(ctx, favorites)
	return favorites, nil
}

// ToggleFavorite 切換收藏狀態並讓快取失效
func (s *Service) ToggleFavorite(ctx context.Context, id string) error {
	if id == "" {
		return common.NewValidationError("recipe id is required")
	}
	if err := s.backend.ToggleFavorite(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, favoritesKey)
	}
	return nil
}

// getFromCache 從快取取得收藏
func (s *Service) getFromCache(ctx context.Context) ([]Recipe, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, favoritesKey)
	if err != nil {
		if !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("讀取收藏快取失敗", zap.Error(err))
		}
		return nil, false
	}
	var favorites []Recipe
	if err := common.ParseJSONBytes(data, &favorites); err != nil {
		return nil, false
	}
	return favorites, true
}

// setToCache 寫入收藏快取
func (s *Service) setToCache(ctx context.Context, favorites []Recipe) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(favorites)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, favoritesKey, data, favoritesTTL); err != nil {
		common.LogWarn("寫入收藏快取失敗", zap.Error(err))
	}
}
