package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	Net  string = ""
	Port string = ""

	CorsOrigins  []string = nil
	MaxBodyBytes int64    = 0

	// Auth: header | sign
	AuthMode    string        = ""
	AuthMaxSkew time.Duration = 0

	// Storage: pebble | mysql | memory
	StorageDriver     string = ""
	StoragePebblePath string = ""

	RdsDsn          string = ""
	RdsMaxOpenConns int    = 0
	RdsMaxIdleConns int    = 0

	// Socket.IO server
	SocketPath         string        = ""
	SocketPingInterval time.Duration = 0
	SocketPingTimeout  time.Duration = 0
	SocketMaxBuffer    int64         = 0

	// Translation side-channel
	TranslationEnabled       bool          = false
	TranslationBaseURL       string        = ""
	TranslationEmail         string        = ""
	TranslationTimeout       time.Duration = 0
	TranslationDelay         time.Duration = 0
	TranslationRatePerSecond int           = 0

	// Media host
	MediaCloudName string        = ""
	MediaAPIKey    string        = ""
	MediaAPISecret string        = ""
	MediaFolder    string        = ""
	MediaTimeout   time.Duration = 0

	// History pagination
	HistoryDefaultLimit int = 0
	HistoryMaxLimit     int = 0

	MetricsEnabled bool = false

	LogLevel string = ""
	LogFile  string = ""
)

func setDefaults() {
	viper.SetDefault("net", "tcp")
	viper.SetDefault("port", "5001")
	viper.SetDefault("cors_origins", []string{"http://localhost:5173"})
	viper.SetDefault("max_body_bytes", 10<<20)
	viper.SetDefault("auth.mode", "header")
	viper.SetDefault("auth.max_skew", "5m")
	viper.SetDefault("storage.driver", "pebble")
	viper.SetDefault("storage.pebble_path", "./data/chat_pebble")
	viper.SetDefault("rds.max_open_conns", 20)
	viper.SetDefault("rds.max_idle_conns", 5)
	viper.SetDefault("socket.path", "/socket.io/")
	viper.SetDefault("socket.ping_interval", "25s")
	viper.SetDefault("socket.ping_timeout", "60s")
	viper.SetDefault("socket.max_buffer", 1e8)
	viper.SetDefault("translation.enabled", true)
	viper.SetDefault("translation.base_url", "https://api.mymemory.translated.net")
	viper.SetDefault("translation.timeout", "5s")
	viper.SetDefault("translation.delay", "100ms")
	viper.SetDefault("translation.rate_per_second", 5)
	viper.SetDefault("media.folder", "chat_images")
	viper.SetDefault("media.timeout", "60s")
	viper.SetDefault("history.default_limit", 20)
	viper.SetDefault("history.max_limit", 100)
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("log.level", "info")
}

// InitConfig 读取配置文件，环境变量 CHAT_* 覆盖文件配置
func InitConfig(configPath string) {
	if configPath == "" {
		configPath = GetYaml()
	}
	// .env 可选，不存在时忽略
	_ = godotenv.Load()

	fmt.Printf("configPath:%s\n", configPath)
	setDefaults()
	viper.SetEnvPrefix("CHAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.SetConfigFile(configPath)
	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("Fatal error config file: %s \n", err))
	}

	load()
}

// InitDefaultConfig 不读取文件，仅使用默认值和环境变量（测试与命令行工具使用）
func InitDefaultConfig() {
	setDefaults()
	viper.SetEnvPrefix("CHAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	load()
}

func load() {
	Net = viper.GetString("net")
	Port = viper.GetString("port")
	CorsOrigins = viper.GetStringSlice("cors_origins")
	MaxBodyBytes = viper.GetInt64("max_body_bytes")

	AuthMode = viper.GetString("auth.mode")
	AuthMaxSkew = viper.GetDuration("auth.max_skew")

	StorageDriver = viper.GetString("storage.driver")
	StoragePebblePath = viper.GetString("storage.pebble_path")

	RdsDsn = viper.GetString("rds.dsn")
	RdsMaxOpenConns = viper.GetInt("rds.max_open_conns")
	RdsMaxIdleConns = viper.GetInt("rds.max_idle_conns")

	SocketPath = viper.GetString("socket.path")
	SocketPingInterval = viper.GetDuration("socket.ping_interval")
	SocketPingTimeout = viper.GetDuration("socket.ping_timeout")
	SocketMaxBuffer = viper.GetInt64("socket.max_buffer")

	TranslationEnabled = viper.GetBool("translation.enabled")
	TranslationBaseURL = viper.GetString("translation.base_url")
	TranslationEmail = viper.GetString("translation.email")
	TranslationTimeout = viper.GetDuration("translation.timeout")
	TranslationDelay = viper.GetDuration("translation.delay")
	TranslationRatePerSecond = viper.GetInt("translation.rate_per_second")

	MediaCloudName = viper.GetString("media.cloud_name")
	MediaAPIKey = viper.GetString("media.api_key")
	MediaAPISecret = viper.GetString("media.api_secret")
	MediaFolder = viper.GetString("media.folder")
	MediaTimeout = viper.GetDuration("media.timeout")

	HistoryDefaultLimit = viper.GetInt("history.default_limit")
	HistoryMaxLimit = viper.GetInt("history.max_limit")

	MetricsEnabled = viper.GetBool("metrics.enabled")

	LogLevel = viper.GetString("log.level")
	LogFile = viper.GetString("log.file")
}
