package store_service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"easychat-service/models"
)

// MemoryStore 内存存储实现（用于测试和简单场景）
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]*models.User
	messages      map[string]*models.Message
	conversations map[[2]string][]*models.Message
	blocks        map[string]map[string]time.Time
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]*models.User),
		messages:      make(map[string]*models.Message),
		conversations: make(map[[2]string][]*models.Message),
		blocks:        make(map[string]map[string]time.Time),
	}
}

var _ Store = (*MemoryStore)(nil)

// CreateUser 创建用户
func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil || user.ID == "" {
		return fmt.Errorf("用户ID不能为空")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.ID]; exists {
		return ErrAlreadyExists
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

// GetUser 获取用户
func (m *MemoryStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, exists := m.users[userID]
	if !exists {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// UpdateUser 更新用户
func (m *MemoryStore) UpdateUser(ctx context.Context, user *models.User) error {
	if user == nil || user.ID == "" {
		return fmt.Errorf("用户ID不能为空")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.ID]; !exists {
		return ErrNotFound
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

// ListUsers 获取所有用户，按ID排序
func (m *MemoryStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateMessage 保存消息
func (m *MemoryStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	if msg == nil || msg.ID == "" {
		return fmt.Errorf("消息ID不能为空")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.messages[msg.ID]; exists {
		return ErrAlreadyExists
	}
	stored := msg.Clone()
	m.messages[msg.ID] = stored

	lo, hi := ConversationKey(msg.SenderID, msg.ReceiverID)
	key := [2]string{lo, hi}
	conv := append(m.conversations[key], stored)
	SortMessages(conv)
	m.conversations[key] = conv
	return nil
}

// GetMessage 获取消息
func (m *MemoryStore) GetMessage(ctx context.Context, messageID string) (*models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msg, exists := m.messages[messageID]
	if !exists {
		return nil, ErrNotFound
	}
	return msg.Clone(), nil
}

// ListConversation 获取最新窗口
func (m *MemoryStore) ListConversation(ctx context.Context, userA, userB string, limit, skip int) ([]*models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lo, hi := ConversationKey(userA, userB)
	window := NewestWindow(m.conversations[[2]string{lo, hi}], limit, skip)
	for i, msg := range window {
		window[i] = msg.Clone()
	}
	return window, nil
}

// LastMessage 获取最后一条消息
func (m *MemoryStore) LastMessage(ctx context.Context, userA, userB string) (*models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lo, hi := ConversationKey(userA, userB)
	conv := m.conversations[[2]string{lo, hi}]
	if len(conv) == 0 {
		return nil, nil
	}
	return conv[len(conv)-1].Clone(), nil
}

// SetTranslation 附加翻译
func (m *MemoryStore) SetTranslation(ctx context.Context, messageID string, translation *models.Translation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, exists := m.messages[messageID]
	if !exists {
		return ErrNotFound
	}
	t := *translation
	msg.Translation = &t
	return nil
}

// AddBlock 添加屏蔽
func (m *MemoryStore) AddBlock(ctx context.Context, blockerID, blockedID string) error {
	if blockerID == "" || blockedID == "" {
		return fmt.Errorf("BlockerID 和 BlockedID 不能为空")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	set, exists := m.blocks[blockerID]
	if !exists {
		set = make(map[string]time.Time)
		m.blocks[blockerID] = set
	}
	if _, exists := set[blockedID]; !exists {
		set[blockedID] = time.Now()
	}
	return nil
}

// RemoveBlock 移除屏蔽
func (m *MemoryStore) RemoveBlock(ctx context.Context, blockerID, blockedID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blocks[blockerID], blockedID)
	return nil
}

// IsBlocked 是否屏蔽
func (m *MemoryStore) IsBlocked(ctx context.Context, blockerID, blockedID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.blocks[blockerID][blockedID]
	return exists, nil
}

// ListBlocks 屏蔽列表
func (m *MemoryStore) ListBlocks(ctx context.Context, blockerID string) ([]models.BlockRelation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.BlockRelation, 0, len(m.blocks[blockerID]))
	for blocked, at := range m.blocks[blockerID] {
		out = append(out, models.BlockRelation{BlockerID: blockerID, BlockedID: blocked, CreatedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BlockedID < out[j].BlockedID })
	return out, nil
}

// Close 内存存储无需释放资源
func (m *MemoryStore) Close() error {
	return nil
}
