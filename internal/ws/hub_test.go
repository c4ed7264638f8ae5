package ws

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/culturekart/marketplace-backend/internal/models"
)

// Clients dispatch on the "type" field, so the event names are part of the
// wire contract.
func TestHub_PushEventTypes(t *testing.T) {
	h := NewHub()
	userID := uuid.New()

	var wire struct {
		Type string `json:"type"`
	}

	h.PushMessage(userID, &models.Message{ID: uuid.New()})
	env := <-h.broadcast
	require.NoError(t, json.Unmarshal(env.payload, &wire))
	assert.Equal(t, "message.new", wire.Type)
	assert.Equal(t, userID, env.userID)

	h.PushNotification(userID, &models.Notification{ID: uuid.New()})
	env = <-h.broadcast
	require.NoError(t, json.Unmarshal(env.payload, &wire))
	assert.Equal(t, "notification", wire.Type)
}
