package services

import (
	"context"
	"fmt"
	"strings"

	"backend/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const chatFallbackReply = "Sorry, I couldn't reach the assistant just now. Please try again in a moment."

// ChatService answers single-turn assistant questions with the user's
// pantry as context.
type ChatService struct {
	db      *gorm.DB
	gateway Gateway
}

func NewChatService(db *gorm.DB, gateway Gateway) *ChatService {
	return &ChatService{db: db, gateway: gateway}
}

// Reply builds a pantry-aware prompt and returns the model's answer. A
// gateway failure returns the static apology, never an error: a broken
// assistant should read as unavailable, not crash the page.
func (s *ChatService) Reply(ctx context.Context, userID uint, message string) string {
	if s.gateway == nil || !s.gateway.Enabled() {
		return chatFallbackReply
	}

	var items []models.InventoryItem
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND quantity > 0", userID, models.StatusActive).
		Order("expiration_date ASC").
		Limit(25).
		Find(&items).Error; err != nil {
		logrus.WithError(err).Warn("chat: pantry lookup failed, answering without context")
	}

	var pantry strings.Builder
	for _, it := range items {
		fmt.Fprintf(&pantry, "- %s (%.1f %s, expires %s)\n",
			it.Name, it.Quantity, it.Unit, it.ExpirationDate.Format("2006-01-02"))
	}
	if pantry.Len() == 0 {
		pantry.WriteString("(pantry is empty)\n")
	}

	prompt := fmt.Sprintf(`You are Eco-Loop's friendly kitchen assistant, helping a household waste less food.
Their current pantry:
%s
User question: %q
Answer in 2-4 short sentences of plain text. No markdown.`, pantry.String(), message)

	reply, err := s.gateway.Generate(ctx, prompt, nil)
	if err != nil {
		logrus.WithError(err).Warn("chat reply failed, using fallback")
		return chatFallbackReply
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return chatFallbackReply
	}
	return reply
}
