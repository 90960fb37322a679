package chat_client_service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"easychat-service/models"
	"easychat-service/service/socket_client_service"
	"easychat-service/service/store_service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu       sync.Mutex
	history  map[string][]*models.Message
	calls    int
	onSend   func(*models.Message)
	// onHistory 在返回分页前调用，模拟请求进行中到达的推送
	onHistory func()
	nextID   int
	baseTime time.Time
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{history: make(map[string][]*models.Message), baseTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeAPI) seed(peer string, n int) []*models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		f.history[peer] = append(f.history[peer], f.newMessageLocked(peer, "me", fmt.Sprintf("m%d", i)))
	}
	return f.history[peer]
}

func (f *fakeAPI) newMessageLocked(from, to, text string) *models.Message {
	f.nextID++
	return &models.Message{
		ID:         fmt.Sprintf("id-%03d", f.nextID),
		SenderID:   from,
		ReceiverID: to,
		Text:       text,
		CreatedAt:  f.baseTime.Add(time.Duration(f.nextID) * time.Second),
	}
}

func (f *fakeAPI) History(ctx context.Context, peerID string, limit, skip int) ([]*models.Message, error) {
	f.mu.Lock()
	f.calls++
	page := store_service.NewestWindow(f.history[peerID], limit, skip)
	out := make([]*models.Message, len(page))
	for i, m := range page {
		out[i] = m.Clone()
	}
	hook := f.onHistory
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out, nil
}

func (f *fakeAPI) Send(ctx context.Context, peerID, text, image string) (*models.Message, error) {
	f.mu.Lock()
	msg := f.newMessageLocked("me", peerID, text)
	f.history[peerID] = append(f.history[peerID], msg)
	onSend := f.onSend
	f.mu.Unlock()
	if onSend != nil {
		onSend(msg.Clone())
	}
	return msg.Clone(), nil
}

func (f *fakeAPI) historyCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func ids(msgs []*models.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func newTestReconciler(api *fakeAPI) *Reconciler {
	return NewReconciler(ReconcilerConfig{UserID: "me", PageSize: 3, TypingTimeout: 30 * time.Millisecond}, api, nil)
}

func TestOpenConversationUsesCache(t *testing.T) {
	api := newFakeAPI()
	all := api.seed("bob", 5)
	r := newTestReconciler(api)
	ctx := context.Background()

	msgs, err := r.OpenConversation(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, ids(all[2:]), ids(msgs))
	assert.Equal(t, 1, api.historyCalls())

	r.CloseConversation()
	msgs, err = r.OpenConversation(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, ids(all[2:]), ids(msgs))
	assert.Equal(t, 1, api.historyCalls())
}

func TestLoadOlderPrependsWithoutDuplicates(t *testing.T) {
	api := newFakeAPI()
	all := api.seed("bob", 7)
	r := newTestReconciler(api)
	ctx := context.Background()

	_, err := r.OpenConversation(ctx, "bob")
	require.NoError(t, err)

	n, err := r.LoadOlder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = r.LoadOlder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = r.LoadOlder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.Equal(t, ids(all), ids(r.Displayed()))
}

func TestLoadOlderAfterLivePushHasNoDuplicates(t *testing.T) {
	api := newFakeAPI()
	api.seed("bob", 4)
	r := newTestReconciler(api)
	ctx := context.Background()
	_, err := r.OpenConversation(ctx, "bob")
	require.NoError(t, err)

	// a new message arrives live and lands in server history too
	api.mu.Lock()
	live := api.newMessageLocked("bob", "me", "live")
	api.history["bob"] = append(api.history["bob"], live)
	api.mu.Unlock()
	r.HandleNewMessage(live)

	_, err = r.LoadOlder(ctx)
	require.NoError(t, err)
	got := ids(r.Displayed())
	seen := map[string]bool{}
	for _, id := range got {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
	assert.Len(t, got, 5)
}

func TestLoadOlderWithoutConversation(t *testing.T) {
	r := newTestReconciler(newFakeAPI())
	_, err := r.LoadOlder(context.Background())
	assert.ErrorIs(t, err, ErrNoConversation)
}

func TestNewMessageRouting(t *testing.T) {
	api := newFakeAPI()
	r := newTestReconciler(api)
	ctx := context.Background()
	_, err := r.OpenConversation(ctx, "bob")
	require.NoError(t, err)

	var changes []Change
	r.OnChange(func(c Change) { changes = append(changes, c) })

	fromBob := &models.Message{ID: "b1", SenderID: "bob", ReceiverID: "me", Text: "hi"}
	r.HandleNewMessage(fromBob)
	r.HandleNewMessage(fromBob)
	assert.Equal(t, []string{"b1"}, ids(r.Displayed()))
	assert.Equal(t, 0, r.Unread("bob"))

	r.HandleNewMessage(&models.Message{ID: "c1", SenderID: "carol", ReceiverID: "me"})
	r.HandleNewMessage(&models.Message{ID: "c2", SenderID: "carol", ReceiverID: "me"})
	assert.Equal(t, 2, r.Unread("carol"))
	assert.Equal(t, []string{"b1"}, ids(r.Displayed()))

	// multi-device echo: my own message to bob from another session
	r.HandleNewMessage(&models.Message{ID: "e1", SenderID: "me", ReceiverID: "bob"})
	assert.Equal(t, []string{"b1", "e1"}, ids(r.Displayed()))

	require.Len(t, changes, 4)
	assert.Equal(t, ChangeMessage, changes[0].Kind)
	assert.Equal(t, ChangeUnread, changes[1].Kind)

	_, err = r.OpenConversation(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, 0, r.Unread("carol"))
}

func TestMessageUpdatedReplacesInPlace(t *testing.T) {
	api := newFakeAPI()
	all := api.seed("bob", 3)
	r := newTestReconciler(api)
	ctx := context.Background()
	_, err := r.OpenConversation(ctx, "bob")
	require.NoError(t, err)

	updated := all[1].Clone()
	updated.Translation = &models.Translation{DetectedLanguage: "es", TranslatedText: "Hello", TranslatedTo: "en"}
	r.HandleMessageUpdated(updated)

	shown := r.Displayed()
	assert.Equal(t, ids(all), ids(shown))
	require.NotNil(t, shown[1].Translation)
	assert.Equal(t, "Hello", shown[1].Translation.TranslatedText)

	// update for a conversation that is not open counts as unread
	r.HandleMessageUpdated(&models.Message{ID: "x", SenderID: "carol", ReceiverID: "me"})
	assert.Equal(t, 1, r.Unread("carol"))

	// update for unknown id in the open conversation is ignored
	r.HandleMessageUpdated(&models.Message{ID: "unknown", SenderID: "bob", ReceiverID: "me"})
	assert.Len(t, r.Displayed(), 3)
}

func TestSendDedupesAgainstLivePush(t *testing.T) {
	api := newFakeAPI()
	r := newTestReconciler(api)
	ctx := context.Background()
	_, err := r.OpenConversation(ctx, "bob")
	require.NoError(t, err)

	// push arrives before the HTTP response
	api.onSend = r.HandleNewMessage
	msg, err := r.Send(ctx, "bob", "hello", "")
	require.NoError(t, err)
	assert.Equal(t, []string{msg.ID}, ids(r.Displayed()))

	// response arrives first, push afterwards
	api.onSend = nil
	msg2, err := r.Send(ctx, "bob", "again", "")
	require.NoError(t, err)
	r.HandleNewMessage(msg2)
	assert.Equal(t, []string{msg.ID, msg2.ID}, ids(r.Displayed()))
}

func TestSendToUncachedConversationFetchesLater(t *testing.T) {
	api := newFakeAPI()
	api.seed("dave", 2)
	r := newTestReconciler(api)
	ctx := context.Background()

	_, err := r.Send(ctx, "dave", "hey", "")
	require.NoError(t, err)
	msgs, err := r.OpenConversation(ctx, "dave")
	require.NoError(t, err)
	assert.Len(t, msgs, 3)
}

func TestTypingStateAndTimeout(t *testing.T) {
	r := newTestReconciler(newFakeAPI())
	defer r.Close()

	r.HandleTyping("bob")
	assert.True(t, r.IsTyping("bob"))
	r.HandleStopTyping("bob")
	assert.False(t, r.IsTyping("bob"))

	r.HandleTyping("bob")
	require.Eventually(t, func() bool { return !r.IsTyping("bob") }, time.Second, 5*time.Millisecond)
}

func TestTypingRefreshExtendsTimeout(t *testing.T) {
	r := NewReconciler(ReconcilerConfig{UserID: "me", TypingTimeout: 80 * time.Millisecond}, newFakeAPI(), nil)
	defer r.Close()

	r.HandleTyping("bob")
	time.Sleep(50 * time.Millisecond)
	r.HandleTyping("bob")
	time.Sleep(50 * time.Millisecond)
	assert.True(t, r.IsTyping("bob"))
}

type recordingSignal struct {
	events []string
}

func (s *recordingSignal) EmitTyping(id string) error {
	s.events = append(s.events, "typing:"+id)
	return nil
}

func (s *recordingSignal) EmitStopTyping(id string) error {
	s.events = append(s.events, "stopTyping:"+id)
	return nil
}

func TestSetTypingEmitsSignals(t *testing.T) {
	sig := &recordingSignal{}
	r := NewReconciler(ReconcilerConfig{UserID: "me"}, newFakeAPI(), sig)
	require.NoError(t, r.SetTyping("bob"))
	require.NoError(t, r.SetStopTyping("bob"))
	assert.Equal(t, []string{"typing:bob", "stopTyping:bob"}, sig.events)
}

type fakeSubscriber struct {
	binds    int
	handlers socket_client_service.Handlers
}

func (f *fakeSubscriber) SetHandlers(h socket_client_service.Handlers) {
	f.binds++
	f.handlers = h
}

func TestBindIsIdempotent(t *testing.T) {
	api := newFakeAPI()
	r := newTestReconciler(api)
	_, err := r.OpenConversation(context.Background(), "bob")
	require.NoError(t, err)

	sub := &fakeSubscriber{}
	r.Bind(sub)
	r.Bind(sub)
	assert.Equal(t, 2, sub.binds)

	sub.handlers.OnNewMessage(&models.Message{ID: "b1", SenderID: "bob", ReceiverID: "me"})
	assert.Len(t, r.Displayed(), 1)

	sub.handlers.OnOnlineUsers([]string{"bob", "me"})
	assert.True(t, r.IsOnline("bob"))
	assert.Equal(t, []string{"bob", "me"}, r.Online())
}

func TestMessageUpdatedDuringFirstFetchIsKept(t *testing.T) {
	api := newFakeAPI()
	seeded := api.seed("bob", 3)
	target := seeded[2].Clone()
	rec := NewReconciler(ReconcilerConfig{UserID: "me"}, api, nil)

	translated := target.Clone()
	translated.Translation = &models.Translation{DetectedLanguage: "es", TranslatedText: "hello", TranslatedTo: "en"}
	api.onHistory = func() { rec.HandleMessageUpdated(translated) }

	shown, err := rec.OpenConversation(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, shown, 3)
	require.NotNil(t, shown[2].Translation)
	assert.Equal(t, "hello", shown[2].Translation.TranslatedText)

	api.onHistory = nil
	rec.CloseConversation()
	again, err := rec.OpenConversation(context.Background(), "bob")
	require.NoError(t, err)
	require.NotNil(t, again[2].Translation)
	assert.Equal(t, 1, api.historyCalls())
}
