// Package storetest holds behaviour checks shared by every store_service.Store implementation.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"easychat-service/models"
	"easychat-service/service/store_service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory 为每个子测试创建一个空的存储
type Factory func(t *testing.T) store_service.Store

// Run 对存储实现执行全部行为检查
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("ConversationWindow", func(t *testing.T) { testConversationWindow(t, newStore(t)) })
	t.Run("LastMessage", func(t *testing.T) { testLastMessage(t, newStore(t)) })
	t.Run("SetTranslation", func(t *testing.T) { testSetTranslation(t, newStore(t)) })
	t.Run("Blocks", func(t *testing.T) { testBlocks(t, newStore(t)) })
}

func testUsers(t *testing.T, s store_service.Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	_, err := s.GetUser(ctx, "alice")
	assert.ErrorIs(t, err, store_service.ErrNotFound)

	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "alice", FullName: "Alice", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "bob", FullName: "Bob", PreferredLanguage: "es", CreatedAt: now, UpdatedAt: now}))
	assert.ErrorIs(t, s.CreateUser(ctx, &models.User{ID: "alice", FullName: "Again"}), store_service.ErrAlreadyExists)

	u, err := s.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.FullName)
	assert.Equal(t, "en", u.Language())

	u.PreferredLanguage = "fr"
	u.ProfilePic = "https://img/alice.png"
	require.NoError(t, s.UpdateUser(ctx, u))

	u, err = s.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "fr", u.PreferredLanguage)
	assert.Equal(t, "https://img/alice.png", u.ProfilePic)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	ids := []string{users[0].ID, users[1].ID}
	assert.ElementsMatch(t, []string{"alice", "bob"}, ids)
}

func seedConversation(t *testing.T, s store_service.Store, n int) []*models.Message {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var out []*models.Message
	for i := 0; i < n; i++ {
		from, to := "alice", "bob"
		if i%2 == 1 {
			from, to = "bob", "alice"
		}
		msg := &models.Message{
			ID:         fmt.Sprintf("m%02d", i),
			SenderID:   from,
			ReceiverID: to,
			Text:       fmt.Sprintf("hello %d", i),
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.CreateMessage(ctx, msg))
		out = append(out, msg)
	}
	// 其他会话不应混入
	require.NoError(t, s.CreateMessage(ctx, &models.Message{
		ID: "other", SenderID: "alice", ReceiverID: "carol", Text: "hi carol", CreatedAt: base.Add(time.Hour),
	}))
	return out
}

func ids(msgs []*models.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func testConversationWindow(t *testing.T, s store_service.Store) {
	ctx := context.Background()
	seedConversation(t, s, 7)

	page, err := s.ListConversation(ctx, "alice", "bob", 3, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"m04", "m05", "m06"}, ids(page))

	// 参与者顺序无关
	page, err = s.ListConversation(ctx, "bob", "alice", 3, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"m01", "m02", "m03"}, ids(page))

	page, err = s.ListConversation(ctx, "alice", "bob", 3, 6)
	require.NoError(t, err)
	assert.Equal(t, []string{"m00"}, ids(page))

	page, err = s.ListConversation(ctx, "alice", "bob", 3, 7)
	require.NoError(t, err)
	assert.Empty(t, page)

	again, err := s.ListConversation(ctx, "alice", "bob", 3, 3)
	require.NoError(t, err)
	first, err := s.ListConversation(ctx, "alice", "bob", 3, 3)
	require.NoError(t, err)
	assert.Equal(t, ids(first), ids(again))

	page, err = s.ListConversation(ctx, "alice", "nobody", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func testLastMessage(t *testing.T, s store_service.Store) {
	ctx := context.Background()
	last, err := s.LastMessage(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Nil(t, last)

	seedConversation(t, s, 3)
	last, err = s.LastMessage(ctx, "bob", "alice")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "m02", last.ID)
	assert.Equal(t, "hello 2", last.Text)
}

func testSetTranslation(t *testing.T, s store_service.Store) {
	ctx := context.Background()
	seedConversation(t, s, 2)

	msg, err := s.GetMessage(ctx, "m01")
	require.NoError(t, err)
	assert.Nil(t, msg.Translation)

	tr := &models.Translation{DetectedLanguage: "es", TranslatedText: "Hello", TranslatedTo: "en"}
	require.NoError(t, s.SetTranslation(ctx, "m01", tr))

	msg, err = s.GetMessage(ctx, "m01")
	require.NoError(t, err)
	require.NotNil(t, msg.Translation)
	assert.Equal(t, *tr, *msg.Translation)

	// 历史查询也应带上翻译
	page, err := s.ListConversation(ctx, "alice", "bob", 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, page[1].Translation)
	assert.Equal(t, "Hello", page[1].Translation.TranslatedText)

	assert.ErrorIs(t, s.SetTranslation(ctx, "missing", tr), store_service.ErrNotFound)
	_, err = s.GetMessage(ctx, "missing")
	assert.ErrorIs(t, err, store_service.ErrNotFound)
}

func testBlocks(t *testing.T, s store_service.Store) {
	ctx := context.Background()

	blocked, err := s.IsBlocked(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, s.AddBlock(ctx, "alice", "bob"))
	require.NoError(t, s.AddBlock(ctx, "alice", "bob"))
	require.NoError(t, s.AddBlock(ctx, "alice", "carol"))

	blocked, err = s.IsBlocked(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, blocked)

	// 屏蔽是有向的
	blocked, err = s.IsBlocked(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.False(t, blocked)

	list, err := s.ListBlocks(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bob", list[0].BlockedID)
	assert.Equal(t, "carol", list[1].BlockedID)
	assert.Equal(t, "alice", list[0].BlockerID)

	require.NoError(t, s.RemoveBlock(ctx, "alice", "bob"))
	require.NoError(t, s.RemoveBlock(ctx, "alice", "bob"))
	blocked, err = s.IsBlocked(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, blocked)

	list, err = s.ListBlocks(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, list)
}
