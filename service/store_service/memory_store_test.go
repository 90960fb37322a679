package store_service_test

import (
	"testing"

	"easychat-service/models"
	"easychat-service/service/store_service"
	"easychat-service/service/store_service/storetest"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store_service.Store {
		return store_service.NewMemoryStore()
	})
}

func TestNewestWindow(t *testing.T) {
	msgs := []*models.Message{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	assert.Len(t, store_service.NewestWindow(msgs, 2, 0), 2)
	assert.Equal(t, "b", store_service.NewestWindow(msgs, 2, 0)[0].ID)
	assert.Equal(t, "a", store_service.NewestWindow(msgs, 5, 2)[0].ID)
	assert.Empty(t, store_service.NewestWindow(msgs, 0, 0))
	assert.Empty(t, store_service.NewestWindow(msgs, 2, 10))
	assert.Len(t, store_service.NewestWindow(msgs, 2, -4), 2)
}

func TestConversationKey(t *testing.T) {
	lo, hi := store_service.ConversationKey("zed", "amy")
	assert.Equal(t, "amy", lo)
	assert.Equal(t, "zed", hi)
}
