package conf

import "fmt"

// EnvironmentEnum 运行环境
type EnvironmentEnum int8

const (
	ExampleEnvironmentEnum    EnvironmentEnum = 0x01
	MainnetEnvironmentEnum    EnvironmentEnum = 0x02
	TestnetEnvironmentEnum    EnvironmentEnum = 0x03
	TestnetLocEnvironmentEnum EnvironmentEnum = 0x04
)

var SystemEnvironmentEnum = TestnetLocEnvironmentEnum

var environmentFiles = map[EnvironmentEnum]string{
	ExampleEnvironmentEnum:    "conf/conf_example.yaml",
	MainnetEnvironmentEnum:    "conf/conf_pro.yaml",
	TestnetEnvironmentEnum:    "conf/conf_test.yaml",
	TestnetLocEnvironmentEnum: "conf/conf_test_loc.yaml",
}

var environmentNames = map[string]EnvironmentEnum{
	"example": ExampleEnvironmentEnum,
	"mainnet": MainnetEnvironmentEnum,
	"testnet": TestnetEnvironmentEnum,
	"loc":     TestnetLocEnvironmentEnum,
}

// ParseEnvironment 将 -env 参数转换为运行环境
func ParseEnvironment(name string) (EnvironmentEnum, error) {
	env, ok := environmentNames[name]
	if !ok {
		return ExampleEnvironmentEnum, fmt.Errorf("未知的运行环境: %s", name)
	}
	return env, nil
}

// GetYaml 当前环境对应的配置文件，未知环境使用示例配置
func GetYaml() string {
	if file, ok := environmentFiles[SystemEnvironmentEnum]; ok {
		return file
	}
	return environmentFiles[ExampleEnvironmentEnum]
}
