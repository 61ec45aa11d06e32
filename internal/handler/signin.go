package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"relinker/internal/domain"
	"relinker/internal/platform"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleText handles free-form text; only credential messages are of
// interest, everything else is ignored.
func (h *Handler) handleText(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if !strings.HasPrefix(strings.ToLower(text), "api_id") {
		return nil
	}

	userID := c.Sender().ID

	apiID, apiHash, phone, err := parseCredentials(text)
	if err != nil {
		return c.Send("Couldn't parse credentials. Use the format shown by /register.")
	}

	if err := h.onboarding.SubmitCredentials(context.Background(), userID, apiID, apiHash, phone); err != nil {
		if errors.Is(err, domain.ErrCredentialParse) {
			return c.Send("Couldn't parse credentials. Use the format shown by /register.")
		}
		if errors.Is(err, domain.ErrSignInInProgress) {
			return c.Send("Previous sign-in step is still processing. Try again in a moment.")
		}
		h.logger.Error("Failed to request code",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return c.Send("Failed to send code request. Check the credentials and try again.")
	}

	if err := h.users.RecordPhone(userID, phone); err != nil {
		h.logger.Warn("Failed to record phone", zap.Int64("user_id", userID), zap.Error(err))
	}

	return c.Send("Code sent to your Telegram/SMS. Reply to me with `/code <12345>` (without brackets).")
}

// handleCode handles /code command
func (h *Handler) handleCode(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Use: /code <the-code-you-received>")
	}

	userID := c.Sender().ID

	client, err := h.onboarding.SubmitCode(context.Background(), userID, args[0])
	switch {
	case err == nil:
		return h.startAutomation(c, userID, client)
	case errors.Is(err, platform.ErrPasswordRequired):
		return c.Send("This account has 2FA enabled. Send `/pwd <password>`.")
	case errors.Is(err, platform.ErrCodeInvalid):
		return c.Send("Invalid code. Try again.")
	case errors.Is(err, domain.ErrNoPendingSignIn):
		return c.Send("No pending sign-in. Start with /register.")
	case errors.Is(err, domain.ErrSignInInProgress):
		return c.Send("Previous sign-in step is still processing. Try again in a moment.")
	default:
		h.logger.Error("Sign-in failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return c.Send("Sign-in failed. Start over with /register.")
	}
}

// handlePassword handles /pwd command (2FA step)
func (h *Handler) handlePassword(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Use: /pwd <your-2fa-password>")
	}

	userID := c.Sender().ID

	client, err := h.onboarding.SubmitPassword(context.Background(), userID, args[0])
	switch {
	case err == nil:
		return h.startAutomation(c, userID, client)
	case errors.Is(err, domain.ErrNoPendingSignIn):
		return c.Send("No pending sign-in. Start with /register.")
	case errors.Is(err, domain.ErrSignInInProgress):
		return c.Send("Previous sign-in step is still processing. Try again in a moment.")
	default:
		h.logger.Error("2FA sign-in failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return c.Send("2FA sign-in failed. Start over with /register.")
	}
}

// handleCancel handles /cancel command, abandoning a pending sign-in
func (h *Handler) handleCancel(c tele.Context) error {
	userID := c.Sender().ID

	if err := h.onboarding.Abandon(userID); err != nil {
		if errors.Is(err, domain.ErrSignInInProgress) {
			return c.Send("Previous sign-in step is still processing. Try again in a moment.")
		}
		return c.Send("No pending sign-in to cancel.")
	}

	h.logger.Info("Sign-in abandoned", zap.Int64("user_id", userID))
	return c.Send("Sign-in cancelled.")
}

// startAutomation hands the authenticated client to the registry
func (h *Handler) startAutomation(c tele.Context, userID int64, client platform.Client) error {
	if err := h.registry.Start(context.Background(), userID, client); err != nil {
		h.logger.Error("Failed to start automation",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return c.Send("Signed in, but starting automation failed. Try /register again.")
	}
	return c.Send("Signed in and starting automation for you.")
}

// parseCredentials parses the three key-value lines of a credentials
// message: api_id, api_hash and phone, one per line, in any order.
func parseCredentials(text string) (int, string, string, error) {
	values := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, "", "", domain.ErrCredentialParse
		}
		values[strings.ToLower(fields[0])] = strings.Join(fields[1:], " ")
	}

	apiID, err := strconv.Atoi(values["api_id"])
	if err != nil {
		return 0, "", "", domain.ErrCredentialParse
	}

	apiHash := values["api_hash"]
	phone := values["phone"]
	if apiHash == "" || phone == "" {
		return 0, "", "", domain.ErrCredentialParse
	}

	return apiID, apiHash, phone, nil
}
