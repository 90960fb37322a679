package presence_service

import (
	"sort"
	"sync"
)

// Registry 进程内在线状态表：每个用户最多对应一个连接，后连接的覆盖先连接的。
// 多进程部署时需要换成共享的 KV + 发布订阅，不在本服务范围内。
type Registry struct {
	mu        sync.RWMutex
	conns     map[string]string
	listeners []func(online []string)
}

// NewRegistry 创建在线状态表
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]string)}
}

// OnChange 注册在线列表变化监听，每次注册/注销后以最新在线列表调用
func (r *Registry) OnChange(fn func(online []string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Register 记录 userID 的当前连接，覆盖已有映射
func (r *Registry) Register(userID, connID string) {
	if userID == "" {
		return
	}
	r.mu.Lock()
	r.conns[userID] = connID
	online, listeners := r.snapshotLocked()
	r.mu.Unlock()

	notify(listeners, online)
}

// Unregister 仅当存储的连接与断开的连接一致时才移除，返回是否移除。
// 旧连接的断开事件晚于新连接到达时不会误删新连接。
func (r *Registry) Unregister(userID, connID string) bool {
	r.mu.Lock()
	current, ok := r.conns[userID]
	if !ok || current != connID {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, userID)
	online, listeners := r.snapshotLocked()
	r.mu.Unlock()

	notify(listeners, online)
	return true
}

// Lookup 查询用户当前连接
func (r *Registry) Lookup(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.conns[userID]
	return connID, ok
}

// ListOnline 在线用户ID，已排序
func (r *Registry) ListOnline() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	online, _ := r.snapshotLocked()
	return online
}

// Count 在线人数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) snapshotLocked() ([]string, []func([]string)) {
	online := make([]string, 0, len(r.conns))
	for userID := range r.conns {
		online = append(online, userID)
	}
	sort.Strings(online)
	listeners := make([]func([]string), len(r.listeners))
	copy(listeners, r.listeners)
	return online, listeners
}

func notify(listeners []func([]string), online []string) {
	for _, fn := range listeners {
		fn(online)
	}
}
