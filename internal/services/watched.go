package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// WatchedSet 当前会话已看过的帖子
type WatchedSet map[uint]struct{}

func NewWatchedSet(ids ...uint) WatchedSet {
	s := make(WatchedSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s WatchedSet) Has(id uint) bool {
	_, ok := s[id]
	return ok
}

func (s WatchedSet) Len() int {
	return len(s)
}

// IDs 升序返回
func (s WatchedSet) IDs() []uint {
	ids := make([]uint, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// WatchedStore AddIfAbsent 必须对同一会话原子，返回添加后的集合大小
type WatchedStore interface {
	AddIfAbsent(ctx context.Context, sessionID string, postID uint) (int, error)
	Members(ctx context.Context, sessionID string) ([]uint, error)
	Clear(ctx context.Context, sessionID string) error
}

type WatchedTracker struct {
	store WatchedStore
}

func NewWatchedTracker(store WatchedStore) *WatchedTracker {
	return &WatchedTracker{store: store}
}

func (t *WatchedTracker) MarkWatched(ctx context.Context, sessionID string, postID uint) (int, error) {
	if strings.TrimSpace(sessionID) == "" {
		return 0, fmt.Errorf("%w: missing watch session", ErrValidation)
	}
	if postID == 0 {
		return 0, fmt.Errorf("%w: invalid post id", ErrValidation)
	}
	n, err := t.store.AddIfAbsent(ctx, sessionID, postID)
	if err != nil {
		return 0, fmt.Errorf("mark watched: %w", err)
	}
	return n, nil
}

func (t *WatchedTracker) GetWatched(ctx context.Context, sessionID string) (WatchedSet, error) {
	if strings.TrimSpace(sessionID) == "" {
		return WatchedSet{}, nil
	}
	ids, err := t.store.Members(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load watched: %w", err)
	}
	return NewWatchedSet(ids...), nil
}

func (t *WatchedTracker) Reset(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	return t.store.Clear(ctx, sessionID)
}

type watchedEntry struct {
	mu  sync.Mutex
	ids map[uint]struct{}
	// 被 Clear 或 LRU 淘汰后置为 true，之后的写入要换到新 entry
	dropped bool
}

func (e *watchedEntry) add(postID uint) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dropped {
		return 0, false
	}
	e.ids[postID] = struct{}{}
	return len(e.ids), true
}

func (e *watchedEntry) drop() {
	e.mu.Lock()
	e.dropped = true
	e.mu.Unlock()
}

// MemoryWatchedStore 单进程使用，超过容量时按 LRU 淘汰最久未活跃的会话
type MemoryWatchedStore struct {
	cache *lru.Cache[string, *watchedEntry]
}

func NewMemoryWatchedStore(size int) (*MemoryWatchedStore, error) {
	if size <= 0 {
		size = 10000
	}
	c, err := lru.NewWithEvict(size, func(_ string, e *watchedEntry) {
		e.drop()
	})
	if err != nil {
		return nil, fmt.Errorf("create watched cache: %w", err)
	}
	return &MemoryWatchedStore{cache: c}, nil
}

func (s *MemoryWatchedStore) entry(sessionID string) *watchedEntry {
	if e, ok := s.cache.Get(sessionID); ok {
		return e
	}
	e := &watchedEntry{ids: make(map[uint]struct{})}
	if prev, ok, _ := s.cache.PeekOrAdd(sessionID, e); ok {
		return prev
	}
	return e
}

func (s *MemoryWatchedStore) AddIfAbsent(_ context.Context, sessionID string, postID uint) (int, error) {
	for {
		if n, ok := s.entry(sessionID).add(postID); ok {
			return n, nil
		}
	}
}

func (s *MemoryWatchedStore) Members(_ context.Context, sessionID string) ([]uint, error) {
	e, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]uint, 0, len(e.ids))
	for id := range e.ids {
		ids = append(ids, id)
	}
	return ids, nil
}

// Clear 先标记旧 entry 再移除，已拿到旧 entry 的并发写入会重试到新 entry
func (s *MemoryWatchedStore) Clear(_ context.Context, sessionID string) error {
	if e, ok := s.cache.Peek(sessionID); ok {
		e.drop()
	}
	s.cache.Remove(sessionID)
	return nil
}
