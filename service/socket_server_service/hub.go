package socket_server_service

import (
	"encoding/json"
	"fmt"
	"sync"

	"easychat-service/models"
	"easychat-service/service/fanout_service"
	"easychat-service/service/presence_service"

	"go.uber.org/zap"
)

// TypingRequest 客户端上行 typing/stopTyping
type TypingRequest struct {
	ReceiverID string `json:"receiverId"`
}

// TypingNotice 下行 typing/stopTyping
type TypingNotice struct {
	SenderID string `json:"senderId"`
}

// ErrorRecorder 记录连接级错误
type ErrorRecorder interface {
	RecordSocketError()
}

// Hub 实时连接事件处理：与具体传输层无关，便于测试
type Hub struct {
	registry *presence_service.Registry
	fanout   *fanout_service.Fanout
	errors   ErrorRecorder
	logger   *zap.SugaredLogger

	// 快照与发送在同一把锁内，最后一帧总是最新在线列表
	broadcastMu sync.Mutex
}

// NewHub 创建 Hub，errors 可以为 nil
func NewHub(registry *presence_service.Registry, fanout *fanout_service.Fanout, errors ErrorRecorder, logger *zap.SugaredLogger) *Hub {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Hub{registry: registry, fanout: fanout, errors: errors, logger: logger}
}

// OnConnect 建立连接：有 userId 则登记在线，然后向所有连接广播在线列表
func (h *Hub) OnConnect(connID, userID string) {
	h.logger.Infof("🔗 新连接: %s", connID)
	if userID != "" {
		h.registry.Register(userID, connID)
		h.logger.Infof("👤 用户映射: %s -> %s", userID, connID)
	} else {
		h.logger.Warnf("⚠️ 连接 %s 未提供 userId", connID)
	}
	h.broadcastOnline()
}

// OnDisconnect 断开连接：仅当登记的仍是该连接时移除
func (h *Hub) OnDisconnect(connID, userID, reason string) {
	h.logger.Infof("📴 连接断开: %s, 原因: %s", connID, reason)
	if userID != "" && !h.registry.Unregister(userID, connID) {
		h.logger.Infof("ℹ️ 用户 %s 已有更新的连接，保留在线状态", userID)
	}
	h.broadcastOnline()
}

// OnTyping 转发正在输入
func (h *Hub) OnTyping(senderID string, args ...any) {
	h.relayTyping(models.EventTyping, senderID, args)
}

// OnStopTyping 转发停止输入
func (h *Hub) OnStopTyping(senderID string, args ...any) {
	h.relayTyping(models.EventStopTyping, senderID, args)
}

// OnError 连接级错误只记录，不影响其他连接
func (h *Hub) OnError(connID string, args ...any) {
	var err any = "unknown error"
	if len(args) > 0 && args[0] != nil {
		err = args[0]
	}
	h.logger.Errorf("🔥 Socket 错误 conn=%s: %v", connID, err)
	if h.errors != nil {
		h.errors.RecordSocketError()
	}
}

func (h *Hub) relayTyping(event, senderID string, args []any) {
	if senderID == "" {
		return
	}
	var req TypingRequest
	if err := decodeArg(args, &req); err != nil || req.ReceiverID == "" {
		h.logger.Debugf("⚠️ 忽略无效的 %s 事件 from=%s: %v", event, senderID, err)
		return
	}
	h.fanout.EmitToUser(req.ReceiverID, event, TypingNotice{SenderID: senderID})
}

func (h *Hub) broadcastOnline() {
	h.broadcastMu.Lock()
	defer h.broadcastMu.Unlock()
	h.fanout.BroadcastAll(models.EventGetOnlineUsers, h.registry.ListOnline())
}

// decodeArg 将事件第一个参数解码到 out，兼容 map 和 JSON 字符串
func decodeArg(args []any, out any) error {
	if len(args) == 0 || args[0] == nil {
		return fmt.Errorf("missing payload")
	}
	var raw []byte
	switch v := args[0].(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		raw = b
	}
	return json.Unmarshal(raw, out)
}
