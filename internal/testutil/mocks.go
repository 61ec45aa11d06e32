package testutil

import (
	"context"

	"relinker/internal/platform"

	"github.com/stretchr/testify/mock"
)

// MockClient is a mock for platform.Client
type MockClient struct {
	mock.Mock

	// Handler captures the callback registered via OnNewMessage so tests
	// can feed events through it.
	Handler platform.Handler
}

func (m *MockClient) Connect(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockClient) Disconnect() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockClient) Connected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockClient) RequestCode(ctx context.Context, phone string) error {
	args := m.Called(ctx, phone)
	return args.Error(0)
}

func (m *MockClient) SignInWithCode(ctx context.Context, phone, code string) error {
	args := m.Called(ctx, phone, code)
	return args.Error(0)
}

func (m *MockClient) SignInWithPassword(ctx context.Context, password string) error {
	args := m.Called(ctx, password)
	return args.Error(0)
}

func (m *MockClient) Self(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClient) GetMessage(ctx context.Context, chatID int64, messageID int) (*platform.Message, error) {
	args := m.Called(ctx, chatID, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*platform.Message), args.Error(1)
}

func (m *MockClient) SendReply(ctx context.Context, chatID int64, replyToID int, text string) error {
	args := m.Called(ctx, chatID, replyToID, text)
	return args.Error(0)
}

func (m *MockClient) OnNewMessage(h platform.Handler) {
	m.Handler = h
	m.Called(h)
}

// RunUntilDisconnected blocks until cancellation when configured to return
// nil, mirroring the real client's loop.
func (m *MockClient) RunUntilDisconnected(ctx context.Context) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}

// MockFactory is a mock for platform.Factory
type MockFactory struct {
	mock.Mock
}

func (m *MockFactory) NewClient(userID int64, apiID int, apiHash string) (platform.Client, error) {
	args := m.Called(userID, apiID, apiHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(platform.Client), args.Error(1)
}

// MockUserRepository is a mock for repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) EnsureUserExists(userID int64) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockUserRepository) RecordPhone(userID int64, phone string) error {
	args := m.Called(userID, phone)
	return args.Error(0)
}

func (m *MockUserRepository) SetSignedIn(userID int64, signedIn bool) error {
	args := m.Called(userID, signedIn)
	return args.Error(0)
}

func (m *MockUserRepository) IsSignedIn(userID int64) (bool, error) {
	args := m.Called(userID)
	return args.Bool(0), args.Error(1)
}

// MockRewriteLogRepository is a mock for repository.RewriteLogRepository
type MockRewriteLogRepository struct {
	mock.Mock
}

func (m *MockRewriteLogRepository) RecordRewrite(userID int64, linkCount int) error {
	args := m.Called(userID, linkCount)
	return args.Error(0)
}

func (m *MockRewriteLogRepository) CountRewrites(userID int64) (int, error) {
	args := m.Called(userID)
	return args.Int(0), args.Error(1)
}

func (m *MockRewriteLogRepository) CleanOldEntries(days int) error {
	args := m.Called(days)
	return args.Error(0)
}
