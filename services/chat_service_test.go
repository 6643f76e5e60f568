package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatReplyPassesPantryContext(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, 1)
	inv := NewInventoryService(db)
	_, err := inv.Add(context.Background(), user.ID, InventoryInput{
		Name: "Spinach", Categories: "Vegetable", Quantity: 1, Unit: "pack",
	})
	require.NoError(t, err)

	gw := &fakeGateway{enabled: true, reply: "Make a spinach omelette tonight."}
	got := NewChatService(db, gw).Reply(context.Background(), user.ID, "what should I cook?")
	assert.Equal(t, "Make a spinach omelette tonight.", got)
	require.Len(t, gw.prompts, 1)
	assert.Contains(t, gw.prompts[0], "Spinach")
	assert.Contains(t, gw.prompts[0], "what should I cook?")
}

func TestChatReplyFallsBackOnGatewayError(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, 1)

	gw := &fakeGateway{enabled: true, err: errors.New("down")}
	got := NewChatService(db, gw).Reply(context.Background(), user.ID, "hello")
	assert.Equal(t, chatFallbackReply, got)
}

func TestChatReplyFallsBackWhenDisabled(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, 1)

	gw := &fakeGateway{enabled: false}
	got := NewChatService(db, gw).Reply(context.Background(), user.ID, "hello")
	assert.Equal(t, chatFallbackReply, got)
	assert.Zero(t, gw.calls)
}
