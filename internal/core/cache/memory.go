package cache

import (
	"context"
	"sync"
	"time"

	"meal-companion/internal/pkg/common"

	"go.uber.org/zap"
)

// MemoryStore 行程內的鍵值儲存，支援 TTL 與 LRU 淘汰
type MemoryStore struct {
	maxSize int
	mu      sync.RWMutex
	store   map[string]cacheEntry
	stats   cacheStats
	done    chan struct{}
	once    sync.Once
	now     func() time.Time
}

// cacheEntry 緩存條目
type cacheEntry struct {
	value       []byte
	expiresAt   time.Time
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// cacheStats 緩存統計
type cacheStats struct {
	hits      int64
	misses    int64
	evictions int64
}

// NewMemoryStore 創建新的記憶體儲存，cleanupInterval <= 0 時不啟動背景清理
func NewMemoryStore(maxSize int, cleanupInterval time.Duration) *MemoryStore {
	m := &MemoryStore{
		maxSize: maxSize,
		store:   make(map[string]cacheEntry),
		done:    make(chan struct{}),
		now:     time.Now,
	}

	if cleanupInterval > 0 {
		go m.startCleanup(cleanupInterval)
	}

	common.LogInfo("記憶體儲存已初始化",
		zap.Int("最大容量", maxSize),
		zap.Duration("清理間隔", cleanupInterval),
	)

	return m
}

// Get 獲取值，不存在或過期時回傳 ErrCacheMiss
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.store[key]
	if !exists {
		m.stats.misses++
		return nil, common.ErrCacheMiss
	}

	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		delete(m.store, key)
		m.stats.evictions++
		m.stats.misses++
		return nil, common.ErrCacheMiss
	}

	entry.lastAccess = m.now()
	entry.accessCount++
	m.store[key] = entry
	m.stats.hits++

	return append([]byte(nil), entry.value...), nil
}

// Set 設置值，ttl <= 0 表示不過期
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.store[key]; !exists && len(m.store) >= m.maxSize {
		if evicted := m.cleanup(); evicted > 0 {
			common.LogDebug("記憶體儲存清理執行", zap.Int("清理數量", evicted))
		}
		if len(m.store) >= m.maxSize {
			m.evictLRU()
		}
	}

	now := m.now()
	entry := cacheEntry{
		value:      append([]byte(nil), value...),
		createdAt:  now,
		lastAccess: now,
	}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	m.store[key] = entry

	return nil
}

// Delete 刪除值
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.store, key)
	return nil
}

// startCleanup 定期清理過期條目
func (m *MemoryStore) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.cleanup()
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}

// cleanup 清理過期的條目，呼叫者需持有寫鎖
func (m *MemoryStore) cleanup() int {
	now := m.now()
	count := 0

	for key, entry := range m.store {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(m.store, key)
			count++
			m.stats.evictions++
		}
	}

	return count
}

// evictLRU 淘汰最少使用的條目
func (m *MemoryStore) evictLRU() {
	var oldestKey string
	var oldestAccess time.Time
	var lowestAccessCount int

	for key, entry := range m.store {
		if oldestKey == "" ||
			entry.accessCount < lowestAccessCount ||
			(entry.accessCount == lowestAccessCount && entry.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestAccessCount = entry.accessCount
		}
	}

	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.evictions++
		common.LogDebug("記憶體儲存已淘汰(LRU)", zap.String("鍵", oldestKey))
	}
}

// Stats 獲取統計信息
func (m *MemoryStore) Stats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"driver":    "memory",
		"size":      len(m.store),
		"max_size":  m.maxSize,
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"evictions": m.stats.evictions,
	}
}

// Close 關閉儲存並停止背景清理
func (m *MemoryStore) Close() error {
	m.once.Do(func() {
		close(m.done)
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	m.store = make(map[string]cacheEntry)
	common.LogInfo("記憶體儲存已關閉",
		zap.Int64("命中次數", m.stats.hits),
		zap.Int64("未命中次數", m.stats.misses),
		zap.Int64("淘汰次數", m.stats.evictions),
	)
	return nil
}
