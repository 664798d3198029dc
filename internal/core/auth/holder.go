package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"meal-companion/internal/core/cache"
	"meal-companion/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	sessionKey = "session"

	// expirySkew 提前視為過期的時間
	expirySkew = 30 * time.Second
)

// Holder 保存目前的登入 session，並持久化到本地儲存
type Holder struct {
	store cache.Store
	ttl   time.Duration

	mu      sync.RWMutex
	session *Session
	now     func() time.Time
}

// NewHolder 創建 session 持有者
func NewHolder(store cache.Store, ttl time.Duration) *Holder {
	return &Holder{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// AccessToken 目前的 access token，未登入時為空字串
func (h *Holder) AccessToken() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.session == nil {
		return ""
	}
	return h.session.AccessToken
}

// Session 取得 session 副本
func (h *Holder) Session() (Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.session == nil {
		return Session{}, false
	}
	return *h.session, true
}

// Expired access token 是否已經（或即將）過期；無法判斷時視為未過期
func (h *Holder) Expired() bool {
	s, ok := h.Session()
	if !ok {
		return false
	}
	exp, ok := s.Expiry()
	if !ok {
		return false
	}
	return !h.now().Before(exp.Add(-expirySkew))
}

// Save 保存 session 並寫入本地儲存
func (h *Holder) Save(ctx context.Context, s Session) error {
	h.mu.Lock()
	h.session = &s
	h.mu.Unlock()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := h.store.Set(ctx, sessionKey, data, h.ttl); err != nil {
		common.LogWarn("session 持久化失敗", zap.Error(err))
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// Clear 清除記憶體與本地儲存中的 session
func (h *Holder) Clear(ctx context.Context) error {
	h.mu.Lock()
	h.session = nil
	h.mu.Unlock()

	if err := h.store.Delete(ctx, sessionKey); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Restore 從本地儲存載回 session，沒有時回傳 false
func (h *Holder) Restore(ctx context.Context) (bool, error) {
	data, err := h.store.Get(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, common.ErrCacheMiss) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load session: %w", err)
	}

	var s Session
	if err := common.ParseJSONBytes(data, &s); err != nil {
		common.LogWarn("本地 session 無法解析，已忽略", zap.Error(err))
		_ = h.store.Delete(ctx, sessionKey)
		return false, nil
	}
	if s.AccessToken == "" {
		return false, nil
	}

	h.mu.Lock()
	h.session = &s
	h.mu.Unlock()
	return true, nil
}
