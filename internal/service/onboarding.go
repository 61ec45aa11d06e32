package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"relinker/internal/domain"
	"relinker/internal/platform"

	"go.uber.org/zap"
)

// OnboardingService drives each user's sign-in flow: credentials, code,
// optional two-factor password. It owns the table of sign-in attempts in
// progress; at most one attempt exists per user.
type OnboardingService struct {
	factory platform.Factory
	logger  *zap.Logger

	pendingMux sync.Mutex
	pending    map[int64]*domain.PendingSignIn
}

// NewOnboardingService creates a new onboarding service
func NewOnboardingService(factory platform.Factory, logger *zap.Logger) *OnboardingService {
	return &OnboardingService{
		factory: factory,
		logger:  logger,
		pending: make(map[int64]*domain.PendingSignIn),
	}
}

// SubmitCredentials connects a fresh client for the user and requests a
// verification code for phone. On success a pending sign-in is recorded,
// superseding (and disconnecting) any prior attempt by the same user. On
// failure the client is disconnected and nothing is recorded.
func (s *OnboardingService) SubmitCredentials(ctx context.Context, userID int64, apiID int, apiHash, phone string) error {
	if apiID <= 0 || apiHash == "" || phone == "" {
		return domain.ErrCredentialParse
	}

	// Don't even dial while a prior attempt's step is mid-flight.
	s.pendingMux.Lock()
	if prior := s.pending[userID]; prior != nil && prior.Busy {
		s.pendingMux.Unlock()
		return domain.ErrSignInInProgress
	}
	s.pendingMux.Unlock()

	client, err := s.factory.NewClient(userID, apiID, apiHash)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		s.disconnect(userID, client)
		return fmt.Errorf("connect: %w", err)
	}

	if err := client.RequestCode(ctx, phone); err != nil {
		s.disconnect(userID, client)
		return fmt.Errorf("request code: %w", err)
	}

	s.pendingMux.Lock()
	prior := s.pending[userID]
	if prior != nil && prior.Busy {
		// A step started on the prior attempt while we were dialing;
		// its client cannot be torn down mid-call, so the new attempt
		// yields instead.
		s.pendingMux.Unlock()
		s.disconnect(userID, client)
		return domain.ErrSignInInProgress
	}
	s.pending[userID] = &domain.PendingSignIn{
		UserID:  userID,
		APIID:   apiID,
		APIHash: apiHash,
		Phone:   phone,
		Client:  client,
		State:   domain.StateCodeRequested,
	}
	s.pendingMux.Unlock()

	// A superseded attempt must not leave a live connection behind.
	if prior != nil {
		s.disconnect(userID, prior.Client)
	}

	s.logger.Info("Verification code requested",
		zap.Int64("user_id", userID),
	)
	return nil
}

// SubmitCode completes sign-in with the verification code. On plain success
// the pending record is consumed and the authenticated client returned. A
// two-factor account yields platform.ErrPasswordRequired and keeps the
// pending record for SubmitPassword; a wrong code yields
// platform.ErrCodeInvalid and allows retry. Any other failure disconnects
// the client and ends the attempt.
func (s *OnboardingService) SubmitCode(ctx context.Context, userID int64, code string) (platform.Client, error) {
	p, err := s.takePending(userID, domain.StateCodeRequested)
	if err != nil {
		return nil, err
	}

	err = p.Client.SignInWithCode(ctx, p.Phone, code)
	switch {
	case err == nil:
		s.remove(userID)
		s.logger.Info("User signed in", zap.Int64("user_id", userID))
		return p.Client, nil

	case errors.Is(err, platform.ErrPasswordRequired):
		s.releasePending(p, domain.StatePasswordRequired)
		return nil, platform.ErrPasswordRequired

	case errors.Is(err, platform.ErrCodeInvalid):
		// Attempt stays valid, user may retry the code.
		s.releasePending(p, domain.StateCodeRequested)
		return nil, platform.ErrCodeInvalid

	default:
		s.remove(userID)
		s.disconnect(userID, p.Client)
		return nil, fmt.Errorf("sign in with code: %w", err)
	}
}

// SubmitPassword completes the two-factor step. Success consumes the pending
// record and returns the authenticated client; failure disconnects the
// client and ends the attempt.
func (s *OnboardingService) SubmitPassword(ctx context.Context, userID int64, password string) (platform.Client, error) {
	p, err := s.takePending(userID, domain.StatePasswordRequired)
	if err != nil {
		return nil, err
	}

	if err := p.Client.SignInWithPassword(ctx, password); err != nil {
		s.remove(userID)
		s.disconnect(userID, p.Client)
		return nil, fmt.Errorf("sign in with password: %w", err)
	}

	s.remove(userID)
	s.logger.Info("User signed in with 2FA", zap.Int64("user_id", userID))
	return p.Client, nil
}

// Abandon drops the user's pending sign-in, disconnecting its client. An
// attempt whose step is still talking to the platform cannot be dropped and
// yields domain.ErrSignInInProgress.
func (s *OnboardingService) Abandon(userID int64) error {
	s.pendingMux.Lock()
	p := s.pending[userID]
	if p == nil {
		s.pendingMux.Unlock()
		return domain.ErrNoPendingSignIn
	}
	if p.Busy {
		s.pendingMux.Unlock()
		return domain.ErrSignInInProgress
	}
	delete(s.pending, userID)
	s.pendingMux.Unlock()

	s.disconnect(userID, p.Client)
	return nil
}

// HasPending reports whether the user has a sign-in attempt in progress.
func (s *OnboardingService) HasPending(userID int64) bool {
	s.pendingMux.Lock()
	defer s.pendingMux.Unlock()
	return s.pending[userID] != nil
}

// takePending claims the user's pending sign-in for one network step. The
// state check and the busy mark happen under the lock so concurrent
// submissions cannot drive the same client at once.
func (s *OnboardingService) takePending(userID int64, state domain.SignInState) (*domain.PendingSignIn, error) {
	s.pendingMux.Lock()
	defer s.pendingMux.Unlock()

	p := s.pending[userID]
	if p == nil || p.State != state {
		return nil, domain.ErrNoPendingSignIn
	}
	if p.Busy {
		return nil, domain.ErrSignInInProgress
	}
	p.Busy = true
	return p, nil
}

// releasePending returns a claimed record to the table in the given state.
func (s *OnboardingService) releasePending(p *domain.PendingSignIn, state domain.SignInState) {
	s.pendingMux.Lock()
	p.Busy = false
	p.State = state
	s.pendingMux.Unlock()
}

func (s *OnboardingService) remove(userID int64) {
	s.pendingMux.Lock()
	delete(s.pending, userID)
	s.pendingMux.Unlock()
}

func (s *OnboardingService) disconnect(userID int64, client platform.Client) {
	if err := client.Disconnect(); err != nil {
		s.logger.Warn("Failed to disconnect client",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
}
