package socket_server_service

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"easychat-service/models"
	"easychat-service/service/fanout_service"
	"easychat-service/service/presence_service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	target  string
	event   string
	payload any
}

type fakeTransport struct {
	mu     sync.Mutex
	frames []frame
}

func (f *fakeTransport) EmitTo(connID, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame{connID, event, payload})
	return nil
}

func (f *fakeTransport) Broadcast(event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame{"*", event, payload})
	return nil
}

func (f *fakeTransport) take() []frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.frames
	f.frames = nil
	return out
}

type errCounter struct{ n int }

func (e *errCounter) RecordSocketError() { e.n++ }

func newTestHub() (*Hub, *presence_service.Registry, *fakeTransport, *errCounter) {
	reg := presence_service.NewRegistry()
	tr := &fakeTransport{}
	ec := &errCounter{}
	hub := NewHub(reg, fanout_service.NewFanout(reg, tr, nil), ec, nil)
	return hub, reg, tr, ec
}

func TestConnectBroadcastsOnlineUsers(t *testing.T) {
	hub, _, tr, _ := newTestHub()

	hub.OnConnect("c1", "alice")
	hub.OnConnect("c2", "bob")

	frames := tr.take()
	require.Len(t, frames, 2)
	assert.Equal(t, "*", frames[1].target)
	assert.Equal(t, models.EventGetOnlineUsers, frames[1].event)
	assert.Equal(t, []string{"alice", "bob"}, frames[1].payload)
}

func TestConnectWithoutUserStillBroadcasts(t *testing.T) {
	hub, reg, tr, _ := newTestHub()
	hub.OnConnect("c1", "")

	assert.Equal(t, 0, reg.Count())
	frames := tr.take()
	require.Len(t, frames, 1)
	assert.Equal(t, []string{}, frames[0].payload)
}

func TestReconnectReplacesAndStaleDisconnectIsIgnored(t *testing.T) {
	hub, reg, tr, _ := newTestHub()

	hub.OnConnect("old", "alice")
	hub.OnConnect("new", "alice")
	hub.OnDisconnect("old", "alice", "transport close")

	conn, ok := reg.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "new", conn)

	frames := tr.take()
	last := frames[len(frames)-1]
	assert.Equal(t, []string{"alice"}, last.payload)

	hub.OnDisconnect("new", "alice", "client namespace disconnect")
	_, ok = reg.Lookup("alice")
	assert.False(t, ok)
}

func TestTypingRelaysToReceiver(t *testing.T) {
	hub, _, tr, _ := newTestHub()
	hub.OnConnect("ca", "alice")
	hub.OnConnect("cb", "bob")
	tr.take()

	hub.OnTyping("alice", map[string]any{"receiverId": "bob"})
	hub.OnStopTyping("alice", `{"receiverId":"bob"}`)

	frames := tr.take()
	require.Len(t, frames, 2)
	assert.Equal(t, frame{"cb", models.EventTyping, TypingNotice{SenderID: "alice"}}, frames[0])
	assert.Equal(t, frame{"cb", models.EventStopTyping, TypingNotice{SenderID: "alice"}}, frames[1])
}

func TestTypingToOfflineOrMalformedIsIgnored(t *testing.T) {
	hub, _, tr, _ := newTestHub()
	hub.OnConnect("ca", "alice")
	tr.take()

	hub.OnTyping("alice", map[string]any{"receiverId": "bob"})
	hub.OnTyping("alice")
	hub.OnTyping("alice", 42)
	hub.OnTyping("", map[string]any{"receiverId": "alice"})

	assert.Empty(t, tr.take())
}

func TestErrorIsRecorded(t *testing.T) {
	hub, _, _, ec := newTestHub()
	hub.OnError("c1", "boom")
	hub.OnError("c1")
	assert.Equal(t, 2, ec.n)
}

// jitterTransport 模拟发送延迟不一的传输层
type jitterTransport struct {
	fakeTransport
}

func (j *jitterTransport) Broadcast(event string, payload any) error {
	time.Sleep(time.Duration(rand.Intn(200)) * time.Microsecond)
	return j.fakeTransport.Broadcast(event, payload)
}

func TestConcurrentConnectsLastBroadcastIsCurrent(t *testing.T) {
	for i := 0; i < 50; i++ {
		reg := presence_service.NewRegistry()
		tr := &jitterTransport{}
		hub := NewHub(reg, fanout_service.NewFanout(reg, tr, nil), nil, nil)

		var wg sync.WaitGroup
		for u := 0; u < 8; u++ {
			wg.Add(1)
			go func(u int) {
				defer wg.Done()
				hub.OnConnect(fmt.Sprintf("c%d", u), fmt.Sprintf("u%d", u))
			}(u)
		}
		wg.Wait()

		frames := tr.take()
		require.Len(t, frames, 8)
		last := frames[len(frames)-1]
		assert.Equal(t, models.EventGetOnlineUsers, last.event)
		assert.Equal(t, reg.ListOnline(), last.payload, "iteration %d", i)
	}
}
