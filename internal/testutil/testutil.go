package testutil

import (
	"relinker/internal/platform"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestMessage creates a message event for tests
func NewTestMessage(id int, chatID, senderID int64, text string, replyToID int) platform.Message {
	return platform.Message{
		ID:        id,
		ChatID:    chatID,
		SenderID:  senderID,
		Text:      text,
		ReplyToID: replyToID,
	}
}
