package handler

import (
	"errors"

	"relinker/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleStop handles /stop command
func (h *Handler) handleStop(c tele.Context) error {
	userID := c.Sender().ID

	if err := h.registry.Stop(userID); err != nil {
		if errors.Is(err, domain.ErrNoActiveRunner) {
			return c.Send("No active automation for your account.")
		}
		h.logger.Error("Failed to stop automation",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return c.Send("Failed to stop automation. Try again.")
	}

	return c.Send("Stopped your automation and disconnected the session.")
}
