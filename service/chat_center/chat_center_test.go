package chat_center

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"easychat-service/controller/auth"
	"easychat-service/service/message_service"
	"easychat-service/service/pebble_service"
	"easychat-service/service/socket_client_service"
	"easychat-service/service/translation_service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(driver, path string) *Config {
	return &Config{
		Addr:     "127.0.0.1:0",
		AuthMode: auth.ModeHeader,
		Storage:  StorageConfig{Driver: driver, PebblePath: path},
		Pipeline: message_service.DefaultPipelineConfig(),
	}
}

func TestInitializeMemoryAndServe(t *testing.T) {
	cfg := testConfig(DriverMemory, "")
	cfg.MetricsEnabled = true
	cc := NewChatCenter(cfg, nil)
	require.NoError(t, cc.Initialize())
	defer func() { assert.NoError(t, cc.Stop(context.Background())) }()

	h := cc.Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/users/register", bytes.NewBufferString(`{"fullName":"Alice"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.HeaderUserID, "alice")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "easychat_"))
}

func TestInitializePebble(t *testing.T) {
	cc := NewChatCenter(testConfig(DriverPebble, filepath.Join(t.TempDir(), "db")), nil)
	require.NoError(t, cc.Initialize())
	require.NoError(t, cc.Stop(context.Background()))
}

func TestUnknownDriver(t *testing.T) {
	cc := NewChatCenter(testConfig("cassandra", ""), nil)
	assert.Error(t, cc.Initialize())
}

func TestRunAndStop(t *testing.T) {
	cc := NewChatCenter(testConfig(DriverMemory, ""), nil)
	require.NoError(t, cc.Initialize())

	done := make(chan error, 1)
	go func() { done <- cc.Run() }()
	require.Eventually(t, cc.IsRunning, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, cc.Stop(ctx))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.False(t, cc.IsRunning())
}

func TestNewLogger(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "chat.log")
	logger, err := NewLogger("debug", file)
	require.NoError(t, err)
	logger.Info("hello")
	_ = logger.Sync()
	assert.FileExists(t, file)

	_, err = NewLogger("loud", "")
	assert.Error(t, err)
}

func TestFailedInitializeReleasesStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	cfg := testConfig(DriverPebble, path)
	cfg.TranslationEnabled = true
	cfg.Translation = &translation_service.Config{BaseURL: "ftp://translate.invalid"}

	cc := NewChatCenter(cfg, nil)
	require.Error(t, cc.Initialize())
	assert.Nil(t, pebble_service.GetGlobalService())
	assert.Nil(t, cc.Handler())

	// 修正配置后可以在同一目录重新初始化
	cfg.TranslationEnabled = false
	require.NoError(t, cc.Initialize())
	assert.NotNil(t, cc.Handler())
	require.NoError(t, cc.Stop(context.Background()))
}

func TestSocketHandshakeRegistersUser(t *testing.T) {
	cc := NewChatCenter(testConfig(DriverMemory, ""), nil)
	require.NoError(t, cc.Initialize())
	srv := httptest.NewServer(cc.Handler())
	defer srv.Close()
	defer func() { assert.NoError(t, cc.Stop(context.Background())) }()

	manager := socket_client_service.NewManager(&socket_client_service.Config{ServerURL: srv.URL, UserID: "alice", Timeout: 5}, nil)
	online := make(chan []string, 4)
	manager.SetHandlers(socket_client_service.Handlers{
		OnOnlineUsers: func(ids []string) {
			select {
			case online <- ids:
			default:
			}
		},
	})
	require.NoError(t, manager.Start())
	defer manager.Stop()

	deadline := time.After(10 * time.Second)
	for {
		select {
		case ids := <-online:
			// userId 来自握手 query，事件经客户端监听解码
			if len(ids) == 1 && ids[0] == "alice" {
				return
			}
		case <-deadline:
			t.Fatal("alice never appeared in getOnlineUsers")
		}
	}
}
