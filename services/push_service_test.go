package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePushNoteEnvelope(t *testing.T) {
	msg, err := encodePushNote(PushNote{
		Title: "Eco-Loop alert",
		Body:  "Milk is at critical spoilage risk",
		Kind:  "warning",
		Ref:   "42",
	})
	require.NoError(t, err)

	var envelope struct {
		Default string `json:"default"`
		GCM     string `json:"GCM"`
	}
	require.NoError(t, json.Unmarshal([]byte(msg), &envelope))
	assert.Equal(t, "Milk is at critical spoilage risk", envelope.Default)

	// the GCM leg must itself be a JSON string SNS can forward verbatim
	var gcm struct {
		Notification struct {
			Title string `json:"title"`
			Body  string `json:"body"`
		} `json:"notification"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(envelope.GCM), &gcm))
	assert.Equal(t, "Eco-Loop alert", gcm.Notification.Title)
	assert.Equal(t, "warning", gcm.Data["kind"])
	assert.Equal(t, "42", gcm.Data["ref"])
}

func TestTokenHashIsStableAndOpaque(t *testing.T) {
	a := tokenHash("fcm-token-one")
	assert.Equal(t, a, tokenHash("fcm-token-one"))
	assert.NotEqual(t, a, tokenHash("fcm-token-two"))
	assert.Len(t, a, 64)
	assert.NotContains(t, a, "fcm-token")
}
