package socket_client_service

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Manager 客户端管理器：在调用方回调之外补充连接状态日志
type Manager struct {
	client *Client
	config *Config
	logger *zap.SugaredLogger
	mu     sync.RWMutex
}

// NewManager 创建管理器
func NewManager(config *Config, logger *zap.SugaredLogger) *Manager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Manager{
		config: config,
		client: NewClient(config, logger),
		logger: logger,
	}
}

// Start 启动Socket.IO客户端
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client.Start()
}

// Stop 停止Socket.IO客户端
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		m.client.Stop()
	}
}

// IsRunning 检查是否运行中
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil && m.client.IsConnected()
}

// SetHandlers 设置事件回调，连接类回调会附带日志
func (m *Manager) SetHandlers(h Handlers) {
	m.mu.Lock()
	defer m.mu.Unlock()

	onConnect, onDisconnect, onError := h.OnConnect, h.OnDisconnect, h.OnError
	h.OnConnect = func() {
		m.logger.Infof("🚀 Socket.IO client connected for user: %s", m.config.UserID)
		if onConnect != nil {
			onConnect()
		}
	}
	h.OnDisconnect = func(reason string) {
		m.logger.Infof("📴 Socket.IO client disconnected: %s", reason)
		if onDisconnect != nil {
			onDisconnect(reason)
		}
	}
	h.OnError = func(err error) {
		m.logger.Errorf("🔥 Socket.IO client error: %v", err)
		if onError != nil {
			onError(err)
		}
	}
	m.client.SetHandlers(h)
}

// EmitTyping 正在输入
func (m *Manager) EmitTyping(receiverID string) error {
	return m.withClient(func(c *Client) error { return c.EmitTyping(receiverID) })
}

// EmitStopTyping 停止输入
func (m *Manager) EmitStopTyping(receiverID string) error {
	return m.withClient(func(c *Client) error { return c.EmitStopTyping(receiverID) })
}

// GetConfig 获取配置
func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *Manager) withClient(fn func(*Client) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil {
		m.logger.Errorf("❌ Client not initialized")
		return errors.New("client not initialized")
	}
	return fn(m.client)
}
