package chat_center

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"easychat-service/conf"
	"easychat-service/controller"
	"easychat-service/major"
	"easychat-service/service/fanout_service"
	"easychat-service/service/media_service"
	"easychat-service/service/message_service"
	"easychat-service/service/metrics_service"
	"easychat-service/service/mysql_service"
	"easychat-service/service/pebble_service"
	"easychat-service/service/presence_service"
	"easychat-service/service/socket_server_service"
	"easychat-service/service/store_service"
	"easychat-service/service/translation_service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	DriverPebble = "pebble"
	DriverMysql  = "mysql"
	DriverMemory = "memory"
)

// StorageConfig 存储配置
type StorageConfig struct {
	Driver       string `yaml:"driver" json:"driver"`
	PebblePath   string `yaml:"pebble_path" json:"pebble_path"`
	MysqlDSN     string `yaml:"dsn" json:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns" json:"max_idle_conns"`
}

// Config 聊天中心配置
type Config struct {
	Net          string
	Addr         string
	CorsOrigins  []string
	MaxBodyBytes int64
	AuthMode     string
	AuthMaxSkew  time.Duration

	Storage StorageConfig
	Socket  *socket_server_service.Config
	Media   *media_service.Config
	History message_service.HistoryConfig

	TranslationEnabled bool
	Translation        *translation_service.Config
	Pipeline           message_service.PipelineConfig

	MetricsEnabled bool
}

// ConfigFromConf 由全局配置生成
func ConfigFromConf() *Config {
	return &Config{
		Net:          conf.Net,
		Addr:         fmt.Sprintf("0.0.0.0:%s", conf.Port),
		CorsOrigins:  conf.CorsOrigins,
		MaxBodyBytes: conf.MaxBodyBytes,
		AuthMode:     conf.AuthMode,
		AuthMaxSkew:  conf.AuthMaxSkew,
		Storage: StorageConfig{
			Driver:       conf.StorageDriver,
			PebblePath:   conf.StoragePebblePath,
			MysqlDSN:     conf.RdsDsn,
			MaxOpenConns: conf.RdsMaxOpenConns,
			MaxIdleConns: conf.RdsMaxIdleConns,
		},
		Socket: &socket_server_service.Config{
			Path:          conf.SocketPath,
			PingInterval:  conf.SocketPingInterval,
			PingTimeout:   conf.SocketPingTimeout,
			MaxBufferSize: conf.SocketMaxBuffer,
			CorsOrigins:   conf.CorsOrigins,
		},
		Media: &media_service.Config{
			CloudName: conf.MediaCloudName,
			APIKey:    conf.MediaAPIKey,
			APISecret: conf.MediaAPISecret,
			Folder:    conf.MediaFolder,
			Timeout:   conf.MediaTimeout,
		},
		History: message_service.HistoryConfig{
			DefaultLimit: conf.HistoryDefaultLimit,
			MaxLimit:     conf.HistoryMaxLimit,
		},
		TranslationEnabled: conf.TranslationEnabled,
		Translation: &translation_service.Config{
			BaseURL:       conf.TranslationBaseURL,
			Email:         conf.TranslationEmail,
			Timeout:       conf.TranslationTimeout,
			RatePerSecond: conf.TranslationRatePerSecond,
		},
		Pipeline: message_service.PipelineConfig{
			TranslationDelay:   conf.TranslationDelay,
			TranslationTimeout: conf.TranslationTimeout,
		},
		MetricsEnabled: conf.MetricsEnabled,
	}
}

// ChatCenter 组装并管理所有服务
type ChatCenter struct {
	config *Config
	logger *zap.SugaredLogger

	store    store_service.Store
	registry *presence_service.Registry
	fanout   *fanout_service.Fanout
	socket   *socket_server_service.Server
	metrics  *metrics_service.Metrics
	service  *message_service.Service
	router   *gin.Engine
	server   *http.Server

	closers []func() error
	running bool
	mu      sync.RWMutex
}

// NewChatCenter 创建实例
func NewChatCenter(config *Config, logger *zap.SugaredLogger) *ChatCenter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if config.Net == "" {
		config.Net = "tcp"
	}
	return &ChatCenter{config: config, logger: logger}
}

// Initialize 打开存储并装配服务，失败时释放已打开的资源
func (cc *ChatCenter) Initialize() error {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.logger.Infof("🚀 正在初始化聊天中心...")
	if err := cc.initialize(); err != nil {
		if closeErr := cc.closeAll(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		cc.store, cc.socket, cc.fanout, cc.registry, cc.metrics, cc.service, cc.router = nil, nil, nil, nil, nil, nil, nil
		return err
	}
	cc.logger.Infof("✅ 聊天中心初始化完成")
	return nil
}

func (cc *ChatCenter) initialize() error {
	store, err := cc.openStore()
	if err != nil {
		return err
	}
	cc.store = store
	cc.closers = append(cc.closers, store.Close)

	if cc.config.MetricsEnabled {
		cc.metrics = metrics_service.NewMetrics()
	}

	// 构造顺序: 传输层 -> 分发 -> 连接事件处理
	cc.registry = presence_service.NewRegistry()
	cc.registry.OnChange(func(online []string) {
		cc.metrics.SetOnlineUsers(len(online))
	})
	cc.socket = socket_server_service.NewServer(cc.config.Socket, cc.logger.Named("socket"))
	cc.fanout = fanout_service.NewFanout(cc.registry, cc.socket, cc.logger.Named("fanout"))
	if cc.metrics != nil {
		cc.fanout.SetObserver(cc.metrics)
	}
	hub := socket_server_service.NewHub(cc.registry, cc.fanout, cc.metrics, cc.logger.Named("hub"))
	cc.socket.Attach(hub)
	cc.closers = append(cc.closers, func() error { cc.socket.Close(); return nil })

	uploader, err := cc.newUploader()
	if err != nil {
		return err
	}
	enricher, err := cc.newEnricher()
	if err != nil {
		return err
	}

	var recorder message_service.Recorder
	if cc.metrics != nil {
		recorder = cc.metrics
	}
	pipeline := message_service.NewPipeline(cc.store, uploader, cc.fanout, enricher, recorder, cc.config.Pipeline, cc.logger.Named("pipeline"))
	cc.service = message_service.NewService(pipeline, cc.config.History)

	routerConfig := controller.RouterConfig{
		Service:      cc.service,
		Logger:       cc.logger.Named("http"),
		CorsOrigins:  cc.config.CorsOrigins,
		MaxBodyBytes: cc.config.MaxBodyBytes,
		AuthMode:     cc.config.AuthMode,
		AuthMaxSkew:  cc.config.AuthMaxSkew,
		Realtime:     cc.socket.Handler(),
		RealtimePath: cc.socket.Path(),
	}
	if cc.metrics != nil {
		routerConfig.Metrics = cc.metrics.Handler()
	}
	cc.router = controller.NewRouter(routerConfig)
	return nil
}

// closeAll 逆序释放资源
func (cc *ChatCenter) closeAll() error {
	var errs []error
	for i := len(cc.closers) - 1; i >= 0; i-- {
		if err := cc.closers[i](); err != nil {
			cc.logger.Warnf("⚠️ 释放资源时出现错误: %v", err)
			errs = append(errs, err)
		}
	}
	cc.closers = nil
	return errors.Join(errs...)
}

func (cc *ChatCenter) openStore() (store_service.Store, error) {
	switch cc.config.Storage.Driver {
	case DriverMemory:
		cc.logger.Warnf("⚠️ 使用内存存储，重启后数据丢失")
		return store_service.NewMemoryStore(), nil
	case DriverMysql:
		db, err := major.OpenSqlDB(cc.config.Storage.MysqlDSN, cc.config.Storage.MaxOpenConns, cc.config.Storage.MaxIdleConns)
		if err != nil {
			return nil, fmt.Errorf("初始化 MySQL 失败: %w", err)
		}
		svc, err := mysql_service.NewMysqlService(db, cc.logger.Named("mysql"))
		if err != nil {
			return nil, fmt.Errorf("初始化 MySQL 存储失败: %w", err)
		}
		cc.logger.Infof("✅ MySQL 存储已初始化")
		return svc, nil
	case DriverPebble, "":
		pebbleConfig := pebble_service.DefaultConfig()
		if cc.config.Storage.PebblePath != "" {
			pebbleConfig.DBPath = cc.config.Storage.PebblePath
		}
		svc, err := pebble_service.InitializeGlobalService(pebbleConfig, cc.logger.Named("pebble"))
		if err != nil {
			return nil, err
		}
		if collections, err := svc.ListCollections(); err == nil {
			for _, c := range collections {
				cc.logger.Infof("🗄️ 集合 %s: %d 条记录", c.Name, c.Count)
			}
		}
		return &globalPebble{svc}, nil
	default:
		return nil, fmt.Errorf("未知的存储驱动: %s", cc.config.Storage.Driver)
	}
}

// globalPebble 关闭时同时释放全局实例
type globalPebble struct {
	*pebble_service.PebbleService
}

func (g *globalPebble) Close() error {
	return pebble_service.CloseGlobalService()
}

func (cc *ChatCenter) newUploader() (media_service.Uploader, error) {
	if cc.config.Media == nil || !cc.config.Media.Configured() {
		cc.logger.Warnf("⚠️ 未配置媒体服务，图片以内联 data url 保存")
		return media_service.InlineUploader{}, nil
	}
	uploader, err := media_service.NewCloudinaryUploader(cc.config.Media)
	if err != nil {
		return nil, fmt.Errorf("初始化媒体服务失败: %w", err)
	}
	cc.closers = append(cc.closers, uploader.Close)
	cc.logger.Infof("✅ 媒体服务已配置: %s", cc.config.Media.CloudName)
	return uploader, nil
}

func (cc *ChatCenter) newEnricher() (message_service.Enricher, error) {
	if !cc.config.TranslationEnabled {
		cc.logger.Infof("📴 翻译未启用")
		return nil, nil
	}
	client, err := translation_service.NewMyMemoryClient(cc.config.Translation)
	if err != nil {
		return nil, fmt.Errorf("初始化翻译服务失败: %w", err)
	}
	cc.closers = append(cc.closers, client.Close)

	var recorder translation_service.CallRecorder
	if cc.metrics != nil {
		recorder = cc.metrics
	}
	return translation_service.NewService(client, recorder), nil
}

// Handler HTTP 入口
func (cc *ChatCenter) Handler() http.Handler {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return cc.router
}

// Service 消息服务
func (cc *ChatCenter) Service() *message_service.Service {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return cc.service
}

// Run 监听并阻塞直到 Stop
func (cc *ChatCenter) Run() error {
	cc.mu.Lock()
	if cc.running {
		cc.mu.Unlock()
		return fmt.Errorf("聊天中心已经在运行中")
	}
	if cc.router == nil {
		cc.mu.Unlock()
		return fmt.Errorf("聊天中心未初始化")
	}
	listener, err := net.Listen(cc.config.Net, cc.config.Addr)
	if err != nil {
		cc.mu.Unlock()
		return fmt.Errorf("监听 %s 失败: %w", cc.config.Addr, err)
	}
	cc.server = &http.Server{Handler: cc.router}
	cc.running = true
	server := cc.server
	cc.mu.Unlock()

	cc.logger.Infof("🌐 HTTP 服务监听: %s", listener.Addr())
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// IsRunning 是否在运行
func (cc *ChatCenter) IsRunning() bool {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return cc.running
}

// Stop 关闭 HTTP、等待翻译任务、释放资源
func (cc *ChatCenter) Stop(ctx context.Context) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.logger.Infof("🛑 正在停止聊天中心...")
	var errs []error
	if cc.server != nil {
		if err := cc.server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		cc.server = nil
	}
	if cc.service != nil {
		cc.service.Wait()
	}
	if err := cc.closeAll(); err != nil {
		errs = append(errs, err)
	}
	cc.running = false
	cc.logger.Infof("✅ 聊天中心已停止")
	return errors.Join(errs...)
}
