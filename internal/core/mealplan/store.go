package mealplan

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"meal-companion/internal/pkg/common"

	"go.uber.org/zap"
)

// Backend 遠端餐單端點
type Backend interface {
	ListMealPlans(ctx context.Context, startDate, endDate string) ([]Entry, error)
	AddMeal(ctx context.Context, req AddRequest) error
	DeleteMeal(ctx context.Context, id string) error
	UpdatePortions(ctx context.Context, id string, portions float64) error
}

// State 餐單狀態
type State struct {
	Date    string    `json:"date,omitempty"`
	Plan    DailyPlan `json:"plan"`
	Loading bool      `json:"loading"`
	Error   string    `json:"error,omitempty"`
}

// Store 保存目前檢視那一天的餐單
type Store struct {
	backend Backend

	mu      sync.RWMutex
	date    string
	plan    DailyPlan
	loading bool
	err     string
}

// NewStore 創建餐單儲存
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// FetchDay 取得某一天的餐單；遠端 404 表示當天沒有餐單，不算錯誤
func (s *Store) FetchDay(ctx context.Context, day time.Time) error {
	s.begin()

	start, end := DayRange(day)
	entries, err := s.backend.ListMealPlans(ctx, start, end)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.date = day.Format(DateLayout)

	if err != nil {
		if common.RemoteStatus(err) == http.StatusNotFound {
			s.plan = nil
			return nil
		}
		return s.failLocked(err, "取得餐單失敗")
	}

	plan, skipped := Group(entries)
	if skipped > 0 {
		common.LogWarn("餐單含有未知餐別，已略過",
			zap.String("date", s.date),
			zap.Int("skipped", skipped),
		)
	}
	s.plan = plan
	return nil
}

// AddMeal 將食譜加入某天的某一餐，成功後重新載入當天餐單
func (s *Store) AddMeal(ctx context.Context, day time.Time, meal MealType, recipeID string) error {
	if _, err := ParseMealType(string(meal)); err != nil {
		return common.NewValidationError(err.Error())
	}
	recipeID = strings.TrimSpace(recipeID)
	if recipeID == "" {
		return common.NewValidationError("recipe id is required")
	}

	s.begin()
	err := s.backend.AddMeal(ctx, AddRequest{
		Date:     day.Format(DateLayout) + "T12:00:00Z",
		MealType: meal,
		RecipeID: recipeID,
	})
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.loading = false
		return s.failLocked(err, "新增餐點失敗")
	}

	common.LogInfo("已新增餐點",
		zap.String("date", day.Format(DateLayout)),
		zap.String("meal_type", string(meal)),
		zap.String("recipe_id", recipeID),
	)
	return s.FetchDay(ctx, day)
}

// DeleteMeal 刪除一餐；已有餐單時重新載入
func (s *Store) DeleteMeal(ctx context.Context, id string, day time.Time) error {
	if strings.TrimSpace(id) == "" {
		return common.NewValidationError("meal id is required")
	}

	s.begin()
	err := s.backend.DeleteMeal(ctx, id)
	return s.afterChange(ctx, err, day, "刪除餐點失敗")
}

// UpdatePortions 修改一餐的份量；已有餐單時重新載入
func (s *Store) UpdatePortions(ctx context.Context, id string, portions float64, day time.Time) error {
	if strings.TrimSpace(id) == "" {
		return common.NewValidationError("meal id is required")
	}
	if portions <= 0 {
		return common.NewValidationError("portions must be positive")
	}

	s.begin()
	err := s.backend.UpdatePortions(ctx, id, portions)
	return s.afterChange(ctx, err, day, "更新餐點失敗")
}

// State 目前狀態
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		Date:    s.date,
		Loading: s.loading,
		Error:   s.err,
	}
	if s.plan != nil {
		st.Plan = make(DailyPlan, len(s.plan))
		for m, entries := range s.plan {
			st.Plan[m] = append([]Entry{}, entries...)
		}
	}
	return st
}

func (s *Store) afterChange(ctx context.Context, err error, day time.Time, logMsg string) error {
	s.mu.Lock()
	if err != nil {
		defer s.mu.Unlock()
		s.loading = false
		return s.failLocked(err, logMsg)
	}
	hasPlan := s.plan != nil
	if !hasPlan {
		s.loading = false
	}
	s.mu.Unlock()

	if hasPlan {
		return s.FetchDay(ctx, day)
	}
	return nil
}

// failLocked 未登入時不寫入錯誤欄位
func (s *Store) failLocked(err error, logMsg string) error {
	if errors.Is(err, common.ErrAuthMissing) {
		return err
	}
	s.err = err.Error()
	common.LogWarn(logMsg, zap.Error(err))
	return err
}

func (s *Store) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
}
