package socket_client_service

import (
	"encoding/json"
	"errors"

	"easychat-service/models"
)

// TypingSignal 上行 typing/stopTyping
type TypingSignal struct {
	ReceiverID string `json:"receiverId"`
}

// TypingNotice 下行 typing/stopTyping
type TypingNotice struct {
	SenderID string `json:"senderId"`
}

// Handlers 服务端事件回调，为 nil 的回调被忽略
type Handlers struct {
	OnNewMessage     func(*models.Message)
	OnMessageUpdated func(*models.Message)
	OnOnlineUsers    func([]string)
	OnTyping         func(senderID string)
	OnStopTyping     func(senderID string)

	OnConnect    func()
	OnDisconnect func(reason string)
	OnError      func(error)
}

var errEmptyPayload = errors.New("empty payload")

// decodePayload 事件参数可能是 map、切片或 JSON 字符串
func decodePayload(data []interface{}, out interface{}) error {
	if len(data) == 0 || data[0] == nil {
		return errEmptyPayload
	}
	var raw []byte
	switch v := data[0].(type) {
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
