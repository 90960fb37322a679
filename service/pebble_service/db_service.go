package pebble_service

import (
	"fmt"

	"go.uber.org/zap"
)

var globalService *PebbleService

// GetGlobalService 获取全局 Pebble 服务实例，未初始化时返回 nil
func GetGlobalService() *PebbleService {
	return globalService
}

// InitializeGlobalService 初始化全局服务
func InitializeGlobalService(config *Config, logger *zap.SugaredLogger) (*PebbleService, error) {
	if globalService != nil {
		return globalService, nil
	}
	service := NewPebbleService(config, logger)
	if err := service.Initialize(); err != nil {
		return nil, fmt.Errorf("初始化全局 Pebble 服务失败: %w", err)
	}
	globalService = service
	return service, nil
}

// CloseGlobalService 关闭全局服务
func CloseGlobalService() error {
	if globalService == nil {
		return nil
	}
	err := globalService.Close()
	globalService = nil
	return err
}
