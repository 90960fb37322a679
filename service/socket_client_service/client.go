package socket_client_service

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"easychat-service/models"

	"github.com/zishang520/socket.io/clients/engine/v3/transports"
	socketio "github.com/zishang520/socket.io/clients/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"
	"go.uber.org/zap"
)

// Config Socket.IO 客户端配置
type Config struct {
	ServerURL string `yaml:"server_url" json:"server_url"` // 服务器地址
	UserID    string `yaml:"user_id" json:"user_id"`       // 握手时携带的用户ID
	Path      string `yaml:"path" json:"path"`             // Socket.IO路径，默认 "/socket.io/"
	Timeout   int    `yaml:"timeout" json:"timeout"`       // 连接超时秒数，默认10秒
}

var ErrNotConnected = errors.New("socket not connected")

// Client Socket.IO 客户端
type Client struct {
	config    *Config
	socket    *socketio.Socket
	connected bool
	mu        sync.RWMutex

	handlersMu sync.RWMutex
	handlers   Handlers

	logger *zap.SugaredLogger
}

// NewClient 创建新的客户端
func NewClient(config *Config, logger *zap.SugaredLogger) *Client {
	if config.Path == "" {
		config.Path = "/socket.io/"
	}
	if config.Timeout == 0 {
		config.Timeout = 10
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Client{
		config: config,
		logger: logger,
	}
}

// SetHandlers 整体替换回调，重复调用不会产生重复监听
func (c *Client) SetHandlers(h Handlers) {
	c.handlersMu.Lock()
	c.handlers = h
	c.handlersMu.Unlock()
}

func (c *Client) currentHandlers() Handlers {
	c.handlersMu.RLock()
	defer c.handlersMu.RUnlock()
	return c.handlers
}

// Start 启动客户端连接
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.socket != nil && c.connected {
		return nil
	}

	options := socketio.DefaultOptions()
	options.SetTransports(types.NewSet(
		transports.Polling,
		transports.WebSocket,
	))
	options.SetPath(c.config.Path)
	options.SetQuery(url.Values{
		"userId": {c.config.UserID},
	})
	options.SetTimeout(time.Duration(c.config.Timeout) * time.Second)

	socket, err := socketio.Connect(c.config.ServerURL, options)
	if err != nil {
		c.logger.Errorf("❌ Failed to connect to Socket.IO server: %v", err)
		c.emitError(err)
		return err
	}
	c.socket = socket
	c.setupEventHandlers()

	c.logger.Infof("🚀 Socket.IO client connecting to %s as %s", c.config.ServerURL, c.config.UserID)
	return nil
}

// Stop 停止客户端
func (c *Client) Stop() {
	c.mu.Lock()
	if c.socket != nil {
		c.socket.Disconnect()
		c.socket = nil
	}
	c.connected = false
	c.mu.Unlock()

	c.logger.Infof("📴 Socket.IO client stopped")
}

// IsConnected 检查是否已连接
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected || c.socket == nil {
		return false
	}

	connected := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Warnf("⚠️ Panic recovered when checking socket.Connected(): %v", r)
				connected = false
			}
		}()
		connected = c.socket.Connected()
	}()
	return connected
}

// EmitTyping 通知对方正在输入
func (c *Client) EmitTyping(receiverID string) error {
	return c.SendMessage(models.EventTyping, TypingSignal{ReceiverID: receiverID})
}

// EmitStopTyping 通知对方停止输入
func (c *Client) EmitStopTyping(receiverID string) error {
	return c.SendMessage(models.EventStopTyping, TypingSignal{ReceiverID: receiverID})
}

// SendMessage 发送事件
func (c *Client) SendMessage(event string, data interface{}) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.socket.Emit(event, data)
	return nil
}

// setupEventHandlers 设置事件处理器，回调在处理时读取，SetHandlers 随时生效
func (c *Client) setupEventHandlers() {
	if c.socket == nil {
		return
	}

	c.socket.On("connect", func(data ...interface{}) {
		c.guard("connect", func() {
			c.mu.Lock()
			c.connected = true
			c.mu.Unlock()
			c.logger.Infof("✅ Socket.IO connected successfully")
			if h := c.currentHandlers().OnConnect; h != nil {
				h()
			}
		})
	})

	c.socket.On("disconnect", func(data ...interface{}) {
		c.guard("disconnect", func() {
			c.mu.Lock()
			c.connected = false
			c.mu.Unlock()
			reason := ""
			if len(data) > 0 {
				reason = fmt.Sprint(data[0])
			}
			c.logger.Warnf("❌ Socket.IO disconnected: %s", reason)
			if h := c.currentHandlers().OnDisconnect; h != nil {
				h(reason)
			}
		})
	})

	c.socket.On("connect_error", func(data ...interface{}) {
		c.guard("connect_error", func() {
			err := errorFrom("connection error", data)
			c.logger.Errorf("🔥 Socket.IO connect error: %v", err)
			c.emitError(err)
		})
	})

	c.socket.On("error", func(data ...interface{}) {
		c.guard("error", func() {
			err := errorFrom("socket error", data)
			c.logger.Errorf("🔥 Socket.IO error: %v", err)
			c.emitError(err)
		})
	})

	for _, event := range []string{
		models.EventNewMessage,
		models.EventMessageUpdated,
		models.EventGetOnlineUsers,
		models.EventTyping,
		models.EventStopTyping,
	} {
		event := event
		c.socket.On(types.EventName(event), func(data ...interface{}) {
			c.guard(event, func() { c.dispatch(event, data) })
		})
	}
}

// dispatch 解码服务端事件并交给回调
func (c *Client) dispatch(event string, data []interface{}) {
	h := c.currentHandlers()
	switch event {
	case models.EventNewMessage, models.EventMessageUpdated:
		var msg models.Message
		if err := decodePayload(data, &msg); err != nil {
			c.logger.Warnf("⚠️ 解析 %s 失败: %v", event, err)
			return
		}
		if event == models.EventNewMessage && h.OnNewMessage != nil {
			h.OnNewMessage(&msg)
		} else if event == models.EventMessageUpdated && h.OnMessageUpdated != nil {
			h.OnMessageUpdated(&msg)
		}
	case models.EventGetOnlineUsers:
		var online []string
		if err := decodePayload(data, &online); err != nil {
			c.logger.Warnf("⚠️ 解析在线列表失败: %v", err)
			return
		}
		if h.OnOnlineUsers != nil {
			h.OnOnlineUsers(online)
		}
	case models.EventTyping, models.EventStopTyping:
		var notice TypingNotice
		if err := decodePayload(data, &notice); err != nil || notice.SenderID == "" {
			c.logger.Warnf("⚠️ 解析 %s 失败: %v", event, err)
			return
		}
		if event == models.EventTyping && h.OnTyping != nil {
			h.OnTyping(notice.SenderID)
		} else if event == models.EventStopTyping && h.OnStopTyping != nil {
			h.OnStopTyping(notice.SenderID)
		}
	default:
		c.logger.Debugf("📨 未知事件: %s", event)
	}
}

func (c *Client) emitError(err error) {
	if h := c.currentHandlers().OnError; h != nil {
		go h(err)
	}
}

func (c *Client) guard(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorf("⚠️ Panic recovered in %s handler: %v", event, r)
		}
	}()
	fn()
}

func errorFrom(prefix string, data []interface{}) error {
	if len(data) > 0 && data[0] != nil {
		if e, ok := data[0].(error); ok {
			return e
		}
		return fmt.Errorf("%s: %v", prefix, data[0])
	}
	return fmt.Errorf("%s: unknown error", prefix)
}
