package handler

import (
	"relinker/internal/repository"
	"relinker/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Handler manages all control-bot interactions
type Handler struct {
	bot        *tele.Bot
	onboarding *service.OnboardingService
	registry   *service.RunnerRegistry
	users      repository.UserRepository
	rewrites   repository.RewriteLogRepository
	logger     *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	onboarding *service.OnboardingService,
	registry *service.RunnerRegistry,
	users repository.UserRepository,
	rewrites repository.RewriteLogRepository,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:        bot,
		onboarding: onboarding,
		registry:   registry,
		users:      users,
		rewrites:   rewrites,
		logger:     logger,
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Commands
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle("/register", h.handleRegister)
	h.bot.Handle("/code", h.handleCode)
	h.bot.Handle("/pwd", h.handlePassword)
	h.bot.Handle("/cancel", h.handleCancel)
	h.bot.Handle("/stop", h.handleStop)

	// Credentials arrive as a free-form text message
	h.bot.Handle(tele.OnText, h.handleText)
}
