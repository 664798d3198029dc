package preferences

import (
	"context"
	"errors"
	"sync"

	"meal-companion/internal/pkg/common"

	"go.uber.org/zap"
)

const msgSaveFailed = "failed to save preferences"

// Backend 遠端偏好設定端點
type Backend interface {
	GetPreferences(ctx context.Context) (*DietaryPreferences, error)
	UpdatePreferences(ctx context.Context, p DietaryPreferences) (*DietaryPreferences, error)
}

// State 偏好設定狀態快照
type State struct {
	Preferences DietaryPreferences `json:"preferences"`
	Hydrated    bool               `json:"hydrated"`
	Loading     bool               `json:"loading"`
	Error       string             `json:"error,omitempty"`
}

// Store 保存使用者正在編輯的偏好草稿
type Store struct {
	backend Backend

	mu       sync.RWMutex
	draft    DietaryPreferences
	hydrated bool
	loading  bool
	err      string
}

// NewStore 創建偏好設定儲存，草稿從預設值開始
func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		draft:   Defaults(),
	}
}

// Get 取得草稿副本
func (s *Store) Get() DietaryPreferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft.Clone()
}

// State 取得完整狀態
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Preferences: s.draft.Clone(),
		Hydrated:    s.hydrated,
		Loading:     s.loading,
		Error:       s.err,
	}
}

// Set 整個替換草稿，不做驗證
func (s *Store) Set(p DietaryPreferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = p.Clone()
}

// Hydrate 以遠端資料初始化草稿，已載入過時不覆蓋
func (s *Store) Hydrate(p DietaryPreferences) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated {
		return false
	}
	s.draft = p.Normalize()
	s.hydrated = true
	return true
}

// Edit 依序套用欄位修改並回傳新草稿
func (s *Store) Edit(edits ...Edit) DietaryPreferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.draft.Clone()
	for _, edit := range edits {
		edit(&next)
	}
	s.draft = next
	return next.Clone()
}

// Fetch 從遠端載入偏好設定；未登入時直接返回
func (s *Store) Fetch(ctx context.Context) error {
	s.begin()

	remote, err := s.backend.GetPreferences(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		if errors.Is(err, common.ErrAuthMissing) {
			return nil
		}
		s.err = err.Error()
		common.LogWarn("載入偏好設定失敗", zap.Error(err))
		return err
	}
	if remote != nil {
		s.draft = remote.Normalize()
		s.hydrated = true
	}
	return nil
}

// Update 驗證並保存到遠端，成功後才替換草稿
func (s *Store) Update(ctx context.Context, p DietaryPreferences) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.begin()

	_, err := s.backend.UpdatePreferences(ctx, p.WithoutTimestamps())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		if errors.Is(err, common.ErrAuthMissing) {
			return err
		}
		s.err = err.Error()
		common.LogWarn("保存偏好設定失敗", zap.Error(err))
		if errors.Is(err, &common.CustomError{Code: common.ErrCodePersistence}) {
			return err
		}
		return common.NewPersistenceError(msgFor(err, msgSaveFailed), err)
	}

	s.draft = p.Clone()
	s.hydrated = true
	return nil
}

func (s *Store) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
}

// msgFor 取遠端訊息，沒有時用 fallback
func msgFor(err error, fallback string) string {
	var ce *common.CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return fallback
}
