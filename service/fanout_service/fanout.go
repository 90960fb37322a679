package fanout_service

import (
	"easychat-service/service/presence_service"

	"go.uber.org/zap"
)

// Emitter 实时通道的最小发送能力
type Emitter interface {
	// EmitTo 向指定连接发送事件
	EmitTo(connID, event string, payload any) error

	// Broadcast 向所有连接发送事件
	Broadcast(event string, payload any) error
}

// Observer 投递结果回调，用于统计
type Observer interface {
	Delivered(event string)
	Dropped(event string)
}

// Fanout 按用户投递事件。用户不在线或连接刚断开都按丢弃处理，不报错，不排队。
type Fanout struct {
	registry *presence_service.Registry
	emitter  Emitter
	observer Observer
	logger   *zap.SugaredLogger
}

// NewFanout 创建投递器
func NewFanout(registry *presence_service.Registry, emitter Emitter, logger *zap.SugaredLogger) *Fanout {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Fanout{registry: registry, emitter: emitter, logger: logger}
}

// SetObserver 设置投递统计
func (f *Fanout) SetObserver(o Observer) {
	f.observer = o
}

// EmitToUser 解析用户连接并发送，返回是否投递
func (f *Fanout) EmitToUser(userID, event string, payload any) bool {
	connID, ok := f.registry.Lookup(userID)
	if !ok {
		f.dropped(event)
		return false
	}
	if err := f.emitter.EmitTo(connID, event, payload); err != nil {
		f.logger.Debugf("⚠️ 事件 %s 投递到 %s(%s) 失败，按丢弃处理: %v", event, userID, connID, err)
		f.dropped(event)
		return false
	}
	if f.observer != nil {
		f.observer.Delivered(event)
	}
	return true
}

// EmitToUsers 每个接收者独立解析，相同用户只投递一次（自己发给自己）
func (f *Fanout) EmitToUsers(userIDs []string, event string, payload any) int {
	seen := make(map[string]struct{}, len(userIDs))
	delivered := 0
	for _, userID := range userIDs {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		if f.EmitToUser(userID, event, payload) {
			delivered++
		}
	}
	return delivered
}

// BroadcastAll 向所有连接广播
func (f *Fanout) BroadcastAll(event string, payload any) {
	if err := f.emitter.Broadcast(event, payload); err != nil {
		f.logger.Warnf("⚠️ 广播事件 %s 失败: %v", event, err)
	}
}

func (f *Fanout) dropped(event string) {
	if f.observer != nil {
		f.observer.Dropped(event)
	}
}
