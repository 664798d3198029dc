package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"meal-companion/internal/pkg/common"

	"go.uber.org/zap"
)

// Backend 遠端使用者資訊端點
type Backend interface {
	GetUserInfo(ctx context.Context) (*UserInfo, error)
	UpdateSettings(ctx context.Context, u Update) (*Settings, error)
	UpdateProfile(ctx context.Context, u ProfileUpdate) (*Profile, error)
}

// State 設定狀態
type State struct {
	Profile  *Profile  `json:"profile,omitempty"`
	Settings *Settings `json:"settings,omitempty"`
	Provider string    `json:"provider"`
	Loading  bool      `json:"loading"`
	Error    string    `json:"error,omitempty"`
}

// Store 保存使用者資料與生成服務設定
type Store struct {
	backend         Backend
	defaultProvider string

	mu       sync.RWMutex
	profile  *Profile
	settings *Settings
	loading  bool
	err      string
}

// NewStore 創建設定儲存；defaultProvider 在使用者尚未選擇時使用
func NewStore(backend Backend, defaultProvider string) *Store {
	return &Store{
		backend:         backend,
		defaultProvider: strings.TrimSpace(defaultProvider),
	}
}

// Provider 目前選用的生成服務，空字串表示未設定
func (s *Store) Provider() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings != nil && s.settings.LLMService != "" {
		return s.settings.LLMService
	}
	return s.defaultProvider
}

// FetchUserInfo 載入使用者資料；未登入時回傳 ErrAuthMissing 且不寫入錯誤
func (s *Store) FetchUserInfo(ctx context.Context) (*UserInfo, error) {
	s.begin()

	info, err := s.backend.GetUserInfo(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		if !errors.Is(err, common.ErrAuthMissing) {
			s.err = err.Error()
			common.LogWarn("載入使用者資訊失敗", zap.Error(err))
		}
		return nil, err
	}

	profile := info.Profile
	s.profile = &profile
	if info.Settings != nil {
		settings := *info.Settings
		s.settings = &settings
	}
	return info, nil
}

// UpdateSettings 更新生成服務設定
func (s *Store) UpdateSettings(ctx context.Context, u Update) error {
	if u.LLMService != nil && !ValidProvider(*u.LLMService) {
		return common.NewValidationError(fmt.Sprintf("unknown provider %q", *u.LLMService))
	}

	s.begin()

	updated, err := s.backend.UpdateSettings(ctx, u)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		if !errors.Is(err, common.ErrAuthMissing) {
			s.err = err.Error()
			common.LogWarn("更新生成服務設定失敗", zap.Error(err))
		}
		return err
	}
	if updated != nil {
		next := *updated
		s.settings = &next
		common.LogInfo("生成服務設定已更新", zap.String("provider", next.LLMService))
	}
	return nil
}

// UpdateProfile 更新使用者名稱或頭像
func (s *Store) UpdateProfile(ctx context.Context, u ProfileUpdate) error {
	if u.Username == nil && u.AvatarURL == nil {
		return common.NewValidationError("nothing to update")
	}
	if u.Username != nil {
		name := strings.TrimSpace(*u.Username)
		if name == "" {
			return common.NewValidationError("username must not be empty")
		}
		u.Username = &name
	}

	s.begin()

	updated, err := s.backend.UpdateProfile(ctx, u)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		if !errors.Is(err, common.ErrAuthMissing) {
			s.err = err.Error()
			common.LogWarn("更新使用者資料失敗", zap.Error(err))
		}
		return err
	}
	if updated != nil {
		next := *updated
		s.profile = &next
	}
	return nil
}

// State 目前狀態，API key 已隱藏
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		Loading: s.loading,
		Error:   s.err,
	}
	if s.profile != nil {
		p := *s.profile
		st.Profile = &p
	}
	if s.settings != nil {
		redacted := s.settings.Redacted()
		st.Settings = &redacted
		st.Provider = s.settings.LLMService
	}
	if st.Provider == "" {
		st.Provider = s.defaultProvider
	}
	return st
}

func (s *Store) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
}
