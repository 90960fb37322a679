package store_service

import (
	"sort"

	"easychat-service/models"
)

// ConversationKey 两个用户之间会话的无序键
func ConversationKey(userA, userB string) (lo, hi string) {
	if userA <= userB {
		return userA, userB
	}
	return userB, userA
}

// SortMessages 按 (createdAt, id) 正序排序
func SortMessages(msgs []*models.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return MessageLess(msgs[i], msgs[j])
	})
}

// MessageLess 消息的稳定顺序
func MessageLess(a, b *models.Message) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID < b.ID
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// NewestWindow 从正序消息中截取最新窗口
func NewestWindow(sorted []*models.Message, limit, skip int) []*models.Message {
	if skip < 0 {
		skip = 0
	}
	end := len(sorted) - skip
	if end <= 0 || limit <= 0 {
		return []*models.Message{}
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	out := make([]*models.Message, end-start)
	copy(out, sorted[start:end])
	return out
}
