package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"easychat-service/conf"
	"easychat-service/service/chat_center"
)

// Package main
// @title EasyChat 服务 API
// @version 1.0
// @description 一对一实时聊天服务，支持消息翻译、屏蔽和用户资料
// @BasePath /
// @securityDefinitions.apikey UserAuth
// @in header
// @name X-User-Id
func main() {
	var env string
	flag.StringVar(&env, "env", "example", "env config: testnet, mainnet, example, loc")
	flag.Parse()

	environment, err := conf.ParseEnvironment(env)
	if err != nil {
		log.Printf("⚠️ %v，使用示例配置", err)
	}
	conf.SystemEnvironmentEnum = environment

	conf.InitConfig("")

	fmt.Printf("run easychat-service, env: %s\n", env)

	logger, err := chat_center.NewLogger(conf.LogLevel, conf.LogFile)
	if err != nil {
		log.Fatalf("❌ 初始化日志失败: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	center := chat_center.NewChatCenter(chat_center.ConfigFromConf(), sugar)
	if err := center.Initialize(); err != nil {
		sugar.Fatalf("❌ 初始化聊天中心失败: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- center.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		sugar.Infof("📴 收到信号 %s，准备退出", sig)
	case err := <-errCh:
		if err != nil {
			sugar.Errorf("❌ HTTP 服务异常退出: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := center.Stop(ctx); err != nil {
		sugar.Warnf("⚠️ 停止聊天中心时出现错误: %v", err)
	}
}
