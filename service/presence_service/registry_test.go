package presence_service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterOverwritesPreviousConnection(t *testing.T) {
	r := NewRegistry()
	r.Register("alice", "c1")
	r.Register("alice", "c2")

	conn, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "c2", conn)
	assert.Equal(t, []string{"alice"}, r.ListOnline())
}

func TestStaleDisconnectKeepsNewerConnection(t *testing.T) {
	r := NewRegistry()
	r.Register("alice", "c1")
	r.Register("alice", "c2")

	assert.False(t, r.Unregister("alice", "c1"))
	conn, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "c2", conn)

	assert.True(t, r.Unregister("alice", "c2"))
	_, ok = r.Lookup("alice")
	assert.False(t, ok)
	assert.Empty(t, r.ListOnline())
}

func TestUnregisterUnknownUser(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Unregister("ghost", "c1"))
}

func TestRegisterIgnoresEmptyUser(t *testing.T) {
	r := NewRegistry()
	r.Register("", "c1")
	assert.Equal(t, 0, r.Count())
}

func TestOnChangeReceivesSortedSnapshots(t *testing.T) {
	r := NewRegistry()
	var got [][]string
	r.OnChange(func(online []string) { got = append(got, online) })

	r.Register("bob", "c1")
	r.Register("alice", "c2")
	r.Unregister("bob", "stale")
	r.Unregister("bob", "c1")

	require.Len(t, got, 3)
	assert.Equal(t, []string{"bob"}, got[0])
	assert.Equal(t, []string{"alice", "bob"}, got[1])
	assert.Equal(t, []string{"alice"}, got[2])
}

func TestConcurrentReconnectsListEachUserOnce(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("u%d", i%5)
			r.Register(user, fmt.Sprintf("conn-%d", i))
			_, _ = r.Lookup(user)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, []string{"u0", "u1", "u2", "u3", "u4"}, r.ListOnline())
}
