package handler

import (
	"fmt"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleStart handles /start command
func (h *Handler) handleStart(c tele.Context) error {
	userID := c.Sender().ID

	h.logger.Info("User started bot",
		zap.Int64("user_id", userID),
		zap.String("username", c.Sender().Username),
	)

	status := "Automation is not running."
	if h.registry.Running(userID) {
		count, err := h.rewrites.CountRewrites(userID)
		if err != nil {
			h.logger.Error("Failed to count rewrites", zap.Error(err))
			status = "Automation is running."
		} else {
			status = fmt.Sprintf("Automation is running. Rewrites so far: %d.", count)
		}
	} else if signedIn, err := h.users.IsSignedIn(userID); err == nil && signedIn {
		status = "Automation is not running, but your account was signed in before. Send /register to reconnect."
	}

	return c.Send(
		"Welcome. To register your account for automation, send /register\n" +
			"You will need your API ID, API Hash (from my.telegram.org) and your phone.\n\n" +
			status,
	)
}

// handleRegister handles /register command
func (h *Handler) handleRegister(c tele.Context) error {
	return c.Send(
		"Send your credentials in one message in this format (replace <...>):\n\n"+
			"`api_id <api_id>\napi_hash <api_hash>\nphone <+country_phone>`\n\n"+
			"Example:\n`api_id 123456\napi_hash abcdef0123456789\nphone +1234567890`",
		tele.ModeMarkdown,
	)
}
