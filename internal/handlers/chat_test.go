package handlers

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/gharbeti/gharbeti-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetChatHistory(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db, nil)

	alice := seedUser(t, db, "alice", models.RoleUser)
	bob := seedUser(t, db, "bob", models.RoleUser)
	carol := seedUser(t, db, "carol", models.RoleUser)

	seedMsg := func(from, to uint, body string) {
		require.NoError(t, db.Create(&models.ChatMessage{
			SenderID:   from,
			ReceiverID: to,
			Body:       body,
		}).Error)
	}

	seedMsg(alice.ID, bob.ID, "Is the flat still available?")
	seedMsg(bob.ID, alice.ID, "Yes, want to visit this weekend?")
	seedMsg(carol.ID, bob.ID, "Unrelated conversation")

	w := doJSON(t, r, "GET", fmt.Sprintf("/api/chat/history/%d", bob.ID), authToken(t, alice), nil)
	require.Equal(t, 200, w.Code)

	var messages []models.ChatMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &messages))
	require.Len(t, messages, 2, "only the two-party conversation is returned")
	assert.Equal(t, "Is the flat still available?", messages[0].Body)
	assert.Equal(t, "Yes, want to visit this weekend?", messages[1].Body)

	// Fetching the history marks the received message as read
	var received models.ChatMessage
	require.NoError(t, db.Where("sender_id = ? AND receiver_id = ?", bob.ID, alice.ID).First(&received).Error)
	assert.NotNil(t, received.ReadAt)

	// The sender's own message is untouched
	var sent models.ChatMessage
	require.NoError(t, db.Where("sender_id = ? AND receiver_id = ?", alice.ID, bob.ID).First(&sent).Error)
	assert.Nil(t, sent.ReadAt)
}
