package middleware

import (
	"relinker/internal/repository"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// EnsureAccount creates middleware that records every sender in the user
// table before the command is dispatched. Failures are logged, not fatal:
// bookkeeping must never block onboarding.
func EnsureAccount(users repository.UserRepository, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return next(c)
			}

			if err := users.EnsureUserExists(sender.ID); err != nil {
				logger.Error("Failed to ensure user exists",
					zap.Int64("user_id", sender.ID),
					zap.Error(err),
				)
			}

			return next(c)
		}
	}
}
