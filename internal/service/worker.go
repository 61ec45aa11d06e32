package service

import (
	"context"
	"fmt"
	"strings"

	"relinker/internal/platform"
	"relinker/internal/repository"
	"relinker/internal/rewrite"

	"go.uber.org/zap"
)

// Worker is one user's automation: it watches the account's inbound
// messages and, when a reply to one of the account's own messages contains
// the trigger phrase, posts that message's link ranges shifted forward.
//
// A Worker owns exactly one client and no shared state, so workers of
// different users never interfere.
type Worker struct {
	userID   int64
	client   platform.Client
	rewrites repository.RewriteLogRepository
	logger   *zap.Logger
}

// NewWorker creates a worker bound to one authenticated client
func NewWorker(
	userID int64,
	client platform.Client,
	rewrites repository.RewriteLogRepository,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		userID:   userID,
		client:   client,
		rewrites: rewrites,
		logger:   logger,
	}
}

// Handle processes one inbound message event. Errors are logged and
// swallowed so a single bad event never tears down the subscription.
func (w *Worker) Handle(ctx context.Context, msg platform.Message) {
	if err := w.process(ctx, msg); err != nil {
		w.logger.Error("Automation event failed",
			zap.Int64("user_id", w.userID),
			zap.Int64("chat_id", msg.ChatID),
			zap.Error(err),
		)
	}
}

func (w *Worker) process(ctx context.Context, msg platform.Message) error {
	// Only replies can trigger; the trigger text lives in the reply.
	if !msg.IsReply() {
		return nil
	}

	replied, err := w.client.GetMessage(ctx, msg.ChatID, msg.ReplyToID)
	if err != nil {
		return fmt.Errorf("fetch replied-to message: %w", err)
	}

	self, err := w.client.Self(ctx)
	if err != nil {
		return fmt.Errorf("resolve own identity: %w", err)
	}

	// Only react to replies made on the account's own messages.
	if replied == nil || replied.SenderID != self {
		return nil
	}

	if msg.Text == "" || !rewrite.Triggered(msg.Text) {
		return nil
	}

	links := rewrite.ShiftedLinks(replied.Text)
	if len(links) == 0 {
		return nil
	}

	if err := w.client.SendReply(ctx, msg.ChatID, msg.ID, strings.Join(links, "\n")); err != nil {
		return fmt.Errorf("send rewritten links: %w", err)
	}

	if err := w.rewrites.RecordRewrite(w.userID, len(links)); err != nil {
		w.logger.Warn("Failed to record rewrite",
			zap.Int64("user_id", w.userID),
			zap.Error(err),
		)
	}

	w.logger.Info("Sent updated links",
		zap.Int64("user_id", w.userID),
		zap.Int("links", len(links)),
	)
	return nil
}
