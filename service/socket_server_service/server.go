package socket_server_service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"
	"go.uber.org/zap"
)

// Config Socket.IO 服务端配置
type Config struct {
	Path          string        `yaml:"path" json:"path"`
	PingInterval  time.Duration `yaml:"ping_interval" json:"ping_interval"`
	PingTimeout   time.Duration `yaml:"ping_timeout" json:"ping_timeout"`
	MaxBufferSize int64         `yaml:"max_buffer" json:"max_buffer"`
	CorsOrigins   []string      `yaml:"cors_origins" json:"cors_origins"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Path:          "/socket.io/",
		PingInterval:  25 * time.Second,
		PingTimeout:   60 * time.Second,
		MaxBufferSize: 1e8,
		CorsOrigins:   []string{"http://localhost:5173"},
	}
}

// ApplyDefaults 填充缺省值
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Path == "" {
		c.Path = d.Path
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = d.PingTimeout
	}
	if c.MaxBufferSize <= 0 {
		c.MaxBufferSize = d.MaxBufferSize
	}
	if len(c.CorsOrigins) == 0 {
		c.CorsOrigins = d.CorsOrigins
	}
}

// Server Socket.IO 服务端，实现 fanout_service.Emitter
type Server struct {
	config  *Config
	options *socket.ServerOptions
	io      *socket.Server
	logger  *zap.SugaredLogger
}

// NewServer 创建服务端，Attach 之前不处理连接事件
func NewServer(config *Config, logger *zap.SugaredLogger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	config.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	opts := socket.DefaultServerOptions()
	opts.SetPath(config.Path)
	opts.SetPingInterval(config.PingInterval)
	opts.SetPingTimeout(config.PingTimeout)
	opts.SetMaxHttpBufferSize(config.MaxBufferSize)
	opts.SetCors(&types.Cors{
		Origin:      config.CorsOrigins,
		Credentials: true,
	})

	return &Server{
		config:  config,
		options: opts,
		io:      socket.NewServer(nil, opts),
		logger:  logger,
	}
}

// Attach 将连接事件接到 hub
func (s *Server) Attach(hub *Hub) {
	s.io.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		connID := string(client.Id())
		userID := ""
		if v := client.Handshake().Query.Query().Get("userId"); v != "" {
			userID = v
		}

		s.guard(connID, "connection", func() { hub.OnConnect(connID, userID) })

		client.On("typing", func(args ...any) {
			s.guard(connID, "typing", func() { hub.OnTyping(userID, args...) })
		})
		client.On("stopTyping", func(args ...any) {
			s.guard(connID, "stopTyping", func() { hub.OnStopTyping(userID, args...) })
		})
		client.On("error", func(args ...any) {
			s.guard(connID, "error", func() { hub.OnError(connID, args...) })
		})
		client.On("disconnect", func(args ...any) {
			reason := ""
			if len(args) > 0 {
				reason = fmt.Sprint(args[0])
			}
			s.guard(connID, "disconnect", func() { hub.OnDisconnect(connID, userID, reason) })
		})
	})
	s.logger.Infof("✅ Socket.IO 服务已挂载: %s", s.config.Path)
}

// guard 单个连接的处理异常不能影响其他连接
func (s *Server) guard(connID, event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("⚠️ Panic recovered in %s handler conn=%s: %v", event, connID, r)
		}
	}()
	fn()
}

// Handler 供 HTTP 路由挂载
func (s *Server) Handler() http.Handler {
	return s.io.ServeHandler(s.options)
}

// Path 挂载路径
func (s *Server) Path() string {
	return s.config.Path
}

// EmitTo 发送到单个连接（每个连接自动加入以自身 id 命名的房间）
func (s *Server) EmitTo(connID, event string, payload any) error {
	s.io.To(socket.Room(connID)).Emit(event, payload)
	return nil
}

// Broadcast 发送到所有连接
func (s *Server) Broadcast(event string, payload any) error {
	s.io.Emit(event, payload)
	return nil
}

// Close 关闭所有连接
func (s *Server) Close() {
	s.io.Close(nil)
	s.logger.Infof("🛑 Socket.IO 服务已关闭")
}
