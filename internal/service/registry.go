package service

import (
	"context"
	"fmt"
	"sync"

	"relinker/internal/domain"
	"relinker/internal/platform"
	"relinker/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// runner is one user's live automation: the authenticated client and the
// goroutine keeping its subscription alive.
type runner struct {
	userID int64
	client platform.Client
	cancel context.CancelFunc
	done   chan struct{}
}

func (r *runner) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// RunnerRegistry is the single source of truth for which users have
// automation running. It enforces one runner per user and drives
// start, stop and process-shutdown teardown.
type RunnerRegistry struct {
	users    repository.UserRepository
	rewrites repository.RewriteLogRepository
	logger   *zap.Logger

	runnersMux sync.Mutex
	runners    map[int64]*runner
}

// NewRunnerRegistry creates a new runner registry
func NewRunnerRegistry(
	users repository.UserRepository,
	rewrites repository.RewriteLogRepository,
	logger *zap.Logger,
) *RunnerRegistry {
	return &RunnerRegistry{
		users:    users,
		rewrites: rewrites,
		logger:   logger,
		runners:  make(map[int64]*runner),
	}
}

// Start installs automation for the user on the given authenticated client.
// Any previous runner for the user is torn down first, so Start replaces
// rather than rejects. The client is reconnected if the library reports it
// disconnected.
func (g *RunnerRegistry) Start(ctx context.Context, userID int64, client platform.Client) error {
	g.runnersMux.Lock()
	prev := g.runners[userID]
	delete(g.runners, userID)
	g.runnersMux.Unlock()

	if prev != nil {
		g.teardown(prev)
	}

	if !client.Connected() {
		if err := client.Connect(ctx); err != nil {
			return fmt.Errorf("reconnect client: %w", err)
		}
	}

	worker := NewWorker(userID, client, g.rewrites, g.logger)
	client.OnNewMessage(worker.Handle)

	runCtx, cancel := context.WithCancel(context.Background())
	r := &runner{
		userID: userID,
		client: client,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(r.done)
		if err := client.RunUntilDisconnected(runCtx); err != nil && runCtx.Err() == nil {
			g.logger.Warn("Client loop ended",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
	}()

	g.runnersMux.Lock()
	displaced := g.runners[userID]
	g.runners[userID] = r
	g.runnersMux.Unlock()

	// A concurrent Start for the same user may have installed a runner
	// since the replace phase above; only one survives.
	if displaced != nil {
		g.teardown(displaced)
	}

	if err := g.users.SetSignedIn(userID, true); err != nil {
		g.logger.Warn("Failed to record sign-in", zap.Int64("user_id", userID), zap.Error(err))
	}

	g.logger.Info("Automation started", zap.Int64("user_id", userID))
	return nil
}

// Stop tears down the user's runner. Returns domain.ErrNoActiveRunner when
// nothing is running for the user.
func (g *RunnerRegistry) Stop(userID int64) error {
	g.runnersMux.Lock()
	r := g.runners[userID]
	delete(g.runners, userID)
	g.runnersMux.Unlock()

	if r == nil {
		return domain.ErrNoActiveRunner
	}

	g.teardown(r)

	if err := g.users.SetSignedIn(userID, false); err != nil {
		g.logger.Warn("Failed to record sign-out", zap.Int64("user_id", userID), zap.Error(err))
	}

	g.logger.Info("Automation stopped", zap.Int64("user_id", userID))
	return nil
}

// StopAll tears down every runner. Called once at process shutdown so no
// connection outlives the process; each stop is best-effort.
func (g *RunnerRegistry) StopAll() {
	g.runnersMux.Lock()
	stopped := make([]*runner, 0, len(g.runners))
	for _, r := range g.runners {
		stopped = append(stopped, r)
	}
	g.runners = make(map[int64]*runner)
	g.runnersMux.Unlock()

	var eg errgroup.Group
	for _, r := range stopped {
		r := r
		eg.Go(func() error {
			g.teardown(r)
			return nil
		})
	}
	_ = eg.Wait()

	g.logger.Info("All automation stopped", zap.Int("count", len(stopped)))
}

// Running reports whether the user has a live runner. A runner whose client
// loop already ended on its own counts as not running; its table entry is
// cleaned up on the next Start or Stop.
func (g *RunnerRegistry) Running(userID int64) bool {
	g.runnersMux.Lock()
	r := g.runners[userID]
	g.runnersMux.Unlock()
	return r != nil && !r.finished()
}

// teardown disconnects the client, cancels the loop goroutine and waits for
// it to finish, tolerating either having finished already.
func (g *RunnerRegistry) teardown(r *runner) {
	if err := r.client.Disconnect(); err != nil {
		g.logger.Warn("Failed to disconnect client",
			zap.Int64("user_id", r.userID),
			zap.Error(err),
		)
	}
	r.cancel()
	<-r.done
}
