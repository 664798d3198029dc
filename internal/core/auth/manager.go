package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"meal-companion/internal/pkg/common"

	"go.uber.org/zap"
)

// Backend 遠端認證端點
type Backend interface {
	Login(ctx context.Context, c Credentials) (*Session, error)
	Register(ctx context.Context, r Registration) (*Session, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
}

// State 認證狀態
type State struct {
	SignedIn bool   `json:"signed_in"`
	User     *User  `json:"user,omitempty"`
	Loading  bool   `json:"loading"`
	Error    string `json:"error,omitempty"`
}

// Manager 處理登入、註冊、登出與 token 刷新
type Manager struct {
	backend Backend
	holder  *Holder

	mu      sync.Mutex
	loading bool
	err     string
}

// NewManager 創建認證管理器
func NewManager(backend Backend, holder *Holder) *Manager {
	return &Manager{
		backend: backend,
		holder:  holder,
	}
}

// Login 登入並保存 session
func (m *Manager) Login(ctx context.Context, c Credentials) error {
	c.Email = strings.TrimSpace(c.Email)
	if c.Email == "" || c.Password == "" {
		return common.NewValidationError("email and password are required")
	}

	m.begin()
	s, err := m.backend.Login(ctx, c)
	return m.finish(ctx, s, err, "login failed")
}

// Register 註冊並保存 session
func (m *Manager) Register(ctx context.Context, r Registration) error {
	r.Email = strings.TrimSpace(r.Email)
	r.Username = strings.TrimSpace(r.Username)
	if r.Email == "" || r.Password == "" || r.Username == "" {
		return common.NewValidationError("email, password and username are required")
	}

	m.begin()
	s, err := m.backend.Register(ctx, r)
	return m.finish(ctx, s, err, "registration failed")
}

// Logout 通知遠端登出後清除本地 session；遠端失敗時保留 session
func (m *Manager) Logout(ctx context.Context) error {
	m.begin()
	err := m.backend.Logout(ctx)
	if err != nil && !errors.Is(err, common.ErrAuthMissing) {
		m.fail(err, "logout failed")
		return err
	}

	clearErr := m.holder.Clear(ctx)
	m.mu.Lock()
	m.loading = false
	m.mu.Unlock()
	if clearErr != nil {
		common.LogWarn("清除本地 session 失敗", zap.Error(clearErr))
	}
	common.LogInfo("已登出")
	return nil
}

// Refresh 用 refresh token 換新 session；失敗時清除 session
func (m *Manager) Refresh(ctx context.Context) error {
	current, ok := m.holder.Session()
	if !ok || current.RefreshToken == "" {
		return nil
	}

	s, err := m.backend.Refresh(ctx, current.RefreshToken)
	if err != nil {
		m.fail(err, "token refresh failed")
		if clearErr := m.holder.Clear(ctx); clearErr != nil {
			common.LogWarn("清除本地 session 失敗", zap.Error(clearErr))
		}
		return err
	}
	if err := m.holder.Save(ctx, *s); err != nil {
		return err
	}
	common.LogInfo("token 已刷新")
	return nil
}

// Restore 啟動時載回本地 session，過期則嘗試刷新
func (m *Manager) Restore(ctx context.Context) error {
	ok, err := m.holder.Restore(ctx)
	if err != nil || !ok {
		return err
	}
	if m.holder.Expired() {
		common.LogInfo("本地 session 已過期，嘗試刷新")
		return m.Refresh(ctx)
	}
	return nil
}

// State 目前認證狀態
func (m *Manager) State() State {
	m.mu.Lock()
	st := State{Loading: m.loading, Error: m.err}
	m.mu.Unlock()

	if s, ok := m.holder.Session(); ok {
		u := s.User
		st.SignedIn = true
		st.User = &u
	}
	return st
}

func (m *Manager) begin() {
	m.mu.Lock()
	m.loading = true
	m.err = ""
	m.mu.Unlock()
}

func (m *Manager) finish(ctx context.Context, s *Session, err error, fallback string) error {
	if err != nil {
		m.fail(err, fallback)
		return err
	}
	if s == nil || s.AccessToken == "" {
		err = common.NewNetworkError(fallback, 0, errors.New("response has no session"))
		m.fail(err, fallback)
		return err
	}
	if err := m.holder.Save(ctx, *s); err != nil {
		m.fail(err, fallback)
		return err
	}

	m.mu.Lock()
	m.loading = false
	m.mu.Unlock()
	common.LogInfo("登入成功", zap.String("user_id", s.User.ID))
	return nil
}

func (m *Manager) fail(err error, fallback string) {
	msg := fallback
	var ce *common.CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		msg = ce.Message
	}

	m.mu.Lock()
	m.loading = false
	m.err = msg
	m.mu.Unlock()
	common.LogWarn("認證請求失敗", zap.String("error", msg), zap.Error(err))
}
