package message_service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"easychat-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMessages(t *testing.T, h *harness, n int) []string {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("m%03d", i)
		require.NoError(t, h.store.CreateMessage(ctx, &models.Message{
			ID: id, SenderID: "alice", ReceiverID: "bob", Text: id, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
		ids = append(ids, id)
	}
	return ids
}

func messageIDs(msgs []*models.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func TestHistoryDefaultsAndClamps(t *testing.T) {
	h := newHarness(t)
	ids := seedMessages(t, h, 150)
	ctx := context.Background()

	page, err := h.service.History(ctx, "alice", "bob", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, ids[130:], messageIDs(page))

	page, err = h.service.History(ctx, "bob", "alice", 1000, 0)
	require.NoError(t, err)
	assert.Len(t, page, 100)

	page, err = h.service.History(ctx, "alice", "bob", 5, -3)
	require.NoError(t, err)
	assert.Equal(t, ids[145:], messageIDs(page))
}

func TestHistoryIsIdempotentByIdentity(t *testing.T) {
	h := newHarness(t)
	seedMessages(t, h, 30)
	ctx := context.Background()

	first, err := h.service.History(ctx, "alice", "bob", 10, 10)
	require.NoError(t, err)
	second, err := h.service.History(ctx, "alice", "bob", 10, 10)
	require.NoError(t, err)
	assert.Equal(t, messageIDs(first), messageIDs(second))
}

func TestSidebar(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.store.CreateUser(ctx, &models.User{ID: "carol", FullName: "Carol"}))
	seedMessages(t, h, 3)
	require.NoError(t, h.service.Block(ctx, "alice", "carol"))

	entries, err := h.service.Sidebar(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byID := map[string]*models.SidebarUser{}
	for _, e := range entries {
		byID[e.ID] = e
	}
	require.Contains(t, byID, "bob")
	require.Contains(t, byID, "carol")
	assert.False(t, byID["bob"].IsBlocked)
	require.NotNil(t, byID["bob"].LastMessage)
	assert.Equal(t, "m002", byID["bob"].LastMessage.Text)
	assert.True(t, byID["carol"].IsBlocked)
	assert.Nil(t, byID["carol"].LastMessage)
}

func TestBlockValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	assert.ErrorIs(t, h.service.Block(ctx, "alice", "alice"), ErrValidation)
	assert.ErrorIs(t, h.service.Block(ctx, "alice", ""), ErrValidation)

	require.NoError(t, h.service.Block(ctx, "alice", "bob"))
	list, err := h.service.Blocks(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bob", list[0].BlockedID)

	require.NoError(t, h.service.Unblock(ctx, "alice", "bob"))
	_, err = h.service.Send(ctx, SendRequest{SenderID: "alice", ReceiverID: "bob", Text: "hi again"})
	assert.NoError(t, err)
}

func TestRegister(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	user, err := h.service.Register(ctx, RegisterRequest{UserID: "dave", FullName: "  Dave ", PreferredLanguage: "pt-BR"})
	require.NoError(t, err)
	assert.Equal(t, "Dave", user.FullName)
	assert.Equal(t, "pt", user.PreferredLanguage)

	_, err = h.service.Register(ctx, RegisterRequest{UserID: "dave", FullName: "Dave"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = h.service.Register(ctx, RegisterRequest{UserID: "erin"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.service.Register(ctx, RegisterRequest{UserID: "erin", FullName: "Erin", PreferredLanguage: "??"})
	assert.ErrorIs(t, err, ErrValidation)

	user, err = h.service.Register(ctx, RegisterRequest{UserID: "erin", FullName: "Erin"})
	require.NoError(t, err)
	assert.Equal(t, "en", user.PreferredLanguage)
}

func strPtr(s string) *string { return &s }

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.service.UpdateProfile(ctx, "alice", &models.ProfileUpdate{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.service.UpdateProfile(ctx, "alice", &models.ProfileUpdate{PreferredLanguage: strPtr("not a language")})
	assert.ErrorIs(t, err, ErrValidation)

	user, err := h.service.UpdateProfile(ctx, "alice", &models.ProfileUpdate{PreferredLanguage: strPtr("fr")})
	require.NoError(t, err)
	assert.Equal(t, "fr", user.PreferredLanguage)
	assert.Empty(t, user.ProfilePic)

	user, err = h.service.UpdateProfile(ctx, "alice", &models.ProfileUpdate{ProfileImage: strPtr("aGVsbG8=")})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/img.png", user.ProfilePic)
	assert.Equal(t, "fr", user.PreferredLanguage)

	stored, err := h.service.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "fr", stored.PreferredLanguage)

	_, err = h.service.UpdateProfile(ctx, "nobody", &models.ProfileUpdate{PreferredLanguage: strPtr("de")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfileUploadFailureKeepsUser(t *testing.T) {
	h := newHarness(t)
	h.uploader.err = errors.New("timeout")
	ctx := context.Background()

	_, err := h.service.UpdateProfile(ctx, "alice", &models.ProfileUpdate{
		ProfileImage:      strPtr("aGVsbG8="),
		PreferredLanguage: strPtr("es"),
	})
	assert.ErrorIs(t, err, ErrUpload)

	stored, err := h.service.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "en", stored.PreferredLanguage)
}
