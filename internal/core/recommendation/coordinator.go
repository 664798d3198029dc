package recommendation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"meal-companion/internal/core/preferences"
	"meal-companion/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const msgFetchFailed = "failed to fetch recommendations"

// Generator 遠端單筆推薦生成
type Generator interface {
	GenerateRecommendation(ctx context.Context, req GenerateRequest) (*Recipe, error)
}

// ProviderSource 提供目前選用的生成服務名稱，空字串表示尚未設定
type ProviderSource interface {
	Provider() string
}

// MealSlot 具名餐別的狀態
type MealSlot struct {
	Recipe  *Recipe `json:"recipe"`
	Loading bool    `json:"loading"`
}

// Snapshot 推薦狀態快照
type Snapshot struct {
	SessionID       string                `json:"session_id"`
	Generation      uint64                `json:"generation"`
	Recommendations []Recipe              `json:"recommendations"`
	Loading         bool                  `json:"loading"`
	Meals           map[MealType]MealSlot `json:"meals"`
	Error           string                `json:"error,omitempty"`
}

// Coordinator 管理一個推薦 session：並行發出生成請求、合併結果、維護排除清單
//
// 列表與具名餐別共用同一套批次流程，每一格（位置或餐別）對應一次遠端呼叫。
// Clear 會遞增 generation，之後才回來的舊結果一律丟棄。
type Coordinator struct {
	generator Generator
	providers ProviderSource

	mu         sync.Mutex
	generation uint64
	sessionID  string
	items      []Recipe
	loading    bool
	meals      map[MealType]*MealSlot
	err        string
}

// NewCoordinator 創建推薦協調器
func NewCoordinator(generator Generator, providers ProviderSource) *Coordinator {
	c := &Coordinator{
		generator: generator,
		providers: providers,
		sessionID: common.GenerateUUID(),
		meals:     make(map[MealType]*MealSlot, len(MealTypes)),
	}
	for _, m := range MealTypes {
		c.meals[m] = &MealSlot{}
	}
	return c
}

// Fetch 清空列表後並行發出 count 個請求，全部成功才寫入
func (c *Coordinator) Fetch(ctx context.Context, prefs preferences.DietaryPreferences, count int) error {
	if count <= 0 {
		return common.NewValidationError("count must be positive")
	}

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return common.ErrBusy
	}
	provider, err := c.providerLocked()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.items = nil
	c.loading = true
	c.err = ""
	gen := c.generation
	req := GenerateRequest{
		Preferences:    prefs,
		ExcludeRecipes: Names(c.items),
		Provider:       provider,
	}
	c.mu.Unlock()

	common.LogInfo("開始取得推薦",
		zap.Int("count", count),
		zap.String("provider", provider),
		zap.Uint64("generation", gen),
	)

	results, err := c.runBatch(ctx, req, count, nil)
	return c.commitList(gen, results, err)
}

// Append 保留既有列表，排除清單為呼叫者清單與所有已累積名稱的聯集
func (c *Coordinator) Append(ctx context.Context, prefs preferences.DietaryPreferences, count int, exclude []string) error {
	if count <= 0 {
		return common.NewValidationError("count must be positive")
	}

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return common.ErrBusy
	}
	provider, err := c.providerLocked()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.loading = true
	c.err = ""
	gen := c.generation
	req := GenerateRequest{
		Preferences:    prefs,
		ExcludeRecipes: common.MergeUnique(exclude, Names(c.items)),
		Provider:       provider,
	}
	c.mu.Unlock()

	common.LogInfo("追加推薦",
		zap.Int("count", count),
		zap.Int("exclude", len(req.ExcludeRecipes)),
		zap.Uint64("generation", gen),
	)

	results, err := c.runBatch(ctx, req, count, nil)
	return c.commitList(gen, results, err)
}

// Clear 清空列表、餐別與錯誤，並讓進行中的請求失效；不影響偏好設定
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.sessionID = common.GenerateUUID()
	c.items = nil
	c.loading = false
	c.err = ""
	for _, slot := range c.meals {
		slot.Recipe = nil
		slot.Loading = false
	}
}

// FetchMeal 取得單一餐別的推薦，成功後替換該格
func (c *Coordinator) FetchMeal(ctx context.Context, meal MealType, prefs preferences.DietaryPreferences, exclude []string) error {
	c.mu.Lock()
	slot, ok := c.meals[meal]
	if !ok {
		c.mu.Unlock()
		return common.NewValidationError("unknown meal type " + string(meal))
	}
	if slot.Loading {
		c.mu.Unlock()
		return common.ErrBusy
	}
	provider, err := c.providerLocked()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	slot.Loading = true
	c.err = ""
	gen := c.generation
	req := GenerateRequest{
		Preferences:    prefs,
		ExcludeRecipes: common.MergeUnique(exclude),
		Provider:       provider,
	}
	c.mu.Unlock()

	results, err := c.runBatch(ctx, req, 1, nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logDiscard(gen)
		return nil
	}
	slot.Loading = false
	if err != nil {
		return c.failLocked(err)
	}
	r := results[0]
	slot.Recipe = &r
	return nil
}

// FetchAllMeals 並行取得三餐；每格的 loading 在自己的請求結束時清除，內容在全部成功後一次寫入
func (c *Coordinator) FetchAllMeals(ctx context.Context, prefs preferences.DietaryPreferences) error {
	c.mu.Lock()
	for _, m := range MealTypes {
		if c.meals[m].Loading {
			c.mu.Unlock()
			return common.ErrBusy
		}
	}
	provider, err := c.providerLocked()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	for _, m := range MealTypes {
		c.meals[m].Recipe = nil
		c.meals[m].Loading = true
	}
	c.err = ""
	gen := c.generation
	req := GenerateRequest{
		Preferences: prefs,
		Provider:    provider,
	}
	c.mu.Unlock()

	common.LogInfo("開始取得每日推薦",
		zap.String("provider", provider),
		zap.Uint64("generation", gen),
	)

	results, err := c.runBatch(ctx, req, len(MealTypes), func(i int) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if gen == c.generation {
			c.meals[MealTypes[i]].Loading = false
		}
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logDiscard(gen)
		return nil
	}
	if err != nil {
		return c.failLocked(err)
	}
	for i, m := range MealTypes {
		r := results[i]
		c.meals[m].Recipe = &r
	}
	return nil
}

// Snapshot 取得狀態快照
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]Recipe, len(c.items))
	copy(items, c.items)

	meals := make(map[MealType]MealSlot, len(c.meals))
	for m, slot := range c.meals {
		s := MealSlot{Loading: slot.Loading}
		if slot.Recipe != nil {
			r := *slot.Recipe
			s.Recipe = &r
		}
		meals[m] = s
	}

	return Snapshot{
		SessionID:       c.sessionID,
		Generation:      c.generation,
		Recommendations: items,
		Loading:         c.loading,
		Meals:           meals,
		Error:           c.err,
	}
}

// Find 以名稱在目前列表與餐別中尋找推薦
func (c *Coordinator) Find(name string) (Recipe, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range c.items {
		if r.Name == name {
			return r, true
		}
	}
	for _, m := range MealTypes {
		if r := c.meals[m].Recipe; r != nil && r.Name == name {
			return *r, true
		}
	}
	return Recipe{}, false
}

// runBatch 並行發出 n 個相同的生成請求並等待全部結束；任何一個失敗則整批作廢
//
// 結果依發出順序排列。請求之間不互相取消，已發出的請求都會跑完。
func (c *Coordinator) runBatch(ctx context.Context, req GenerateRequest, n int, settled func(i int)) ([]Recipe, error) {
	results := make([]Recipe, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if settled != nil {
				defer settled(i)
			}
			r, err := c.generator.GenerateRecommendation(ctx, req)
			if err != nil {
				return err
			}
			if r == nil {
				return common.NewNetworkError(msgFetchFailed, 0, errors.New("empty recommendation"))
			}
			results[i] = *r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// commitList 將批次結果寫入列表
func (c *Coordinator) commitList(gen uint64, results []Recipe, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.logDiscard(gen)
		return nil
	}
	c.loading = false
	if err != nil {
		return c.failLocked(err)
	}

	var dropped int
	c.items, dropped = appendUnique(c.items, results)
	if dropped > 0 {
		common.LogWarn("生成服務回傳重複的推薦，已略過",
			zap.Int("dropped", dropped),
			zap.Uint64("generation", gen),
		)
	}
	return nil
}

// failLocked 記錄錯誤訊息；未登入視為尚未就緒，不寫入錯誤欄位
func (c *Coordinator) failLocked(err error) error {
	if errors.Is(err, common.ErrAuthMissing) {
		return err
	}
	c.err = messageOf(err)
	common.LogWarn("取得推薦失敗", zap.Error(err))
	return err
}

// providerLocked 取得生成服務，未設定時不發出任何請求
func (c *Coordinator) providerLocked() (string, error) {
	provider := ""
	if c.providers != nil {
		provider = strings.TrimSpace(c.providers.Provider())
	}
	if provider == "" {
		c.err = common.ErrNoProvider.Message
		return "", common.ErrNoProvider
	}
	return provider, nil
}

func (c *Coordinator) logDiscard(gen uint64) {
	common.LogDebug("session 已重設，丟棄過期的推薦結果",
		zap.Uint64("request_generation", gen),
		zap.Uint64("current_generation", c.generation),
	)
}

// appendUnique 依名稱去重後附加到列表尾端，回傳略過的數量
func appendUnique(items []Recipe, batch []Recipe) ([]Recipe, int) {
	seen := make(map[string]struct{}, len(items)+len(batch))
	for _, r := range items {
		seen[r.Name] = struct{}{}
	}
	dropped := 0
	for _, r := range batch {
		if _, ok := seen[r.Name]; ok {
			dropped++
			continue
		}
		seen[r.Name] = struct{}{}
		items = append(items, r)
	}
	return items, dropped
}

func messageOf(err error) string {
	var ce *common.CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	if err.Error() != "" {
		return err.Error()
	}
	return msgFetchFailed
}
