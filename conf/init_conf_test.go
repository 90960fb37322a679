package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigReadsYamlAndEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	path := filepath.Join(dir, "conf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "6001"
storage:
  driver: memory
translation:
  timeout: 2s
history:
  default_limit: 30
`), 0600))
	t.Setenv("CHAT_AUTH_MODE", "sign")

	InitConfig(path)

	assert.Equal(t, "6001", Port)
	assert.Equal(t, "memory", StorageDriver)
	assert.Equal(t, 2*time.Second, TranslationTimeout)
	assert.Equal(t, 30, HistoryDefaultLimit)
	assert.Equal(t, "sign", AuthMode)
	// 未配置的项使用默认值
	assert.Equal(t, 100*time.Millisecond, TranslationDelay)
	assert.Equal(t, 100, HistoryMaxLimit)
}

func TestGetYaml(t *testing.T) {
	old := SystemEnvironmentEnum
	t.Cleanup(func() { SystemEnvironmentEnum = old })

	SystemEnvironmentEnum = ExampleEnvironmentEnum
	assert.Equal(t, "conf/conf_example.yaml", GetYaml())
	SystemEnvironmentEnum = TestnetEnvironmentEnum
	assert.Equal(t, "conf/conf_test.yaml", GetYaml())
}

func TestParseEnvironment(t *testing.T) {
	env, err := ParseEnvironment("loc")
	require.NoError(t, err)
	assert.Equal(t, TestnetLocEnvironmentEnum, env)

	env, err = ParseEnvironment("staging")
	assert.Error(t, err)
	assert.Equal(t, ExampleEnvironmentEnum, env)
}
