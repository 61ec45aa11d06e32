package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"relinker/internal/domain"
	"relinker/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newRunningClient() *testutil.MockClient {
	mockClient := new(testutil.MockClient)
	mockClient.On("Connected").Return(true)
	mockClient.On("OnNewMessage", mock.Anything).Return()
	mockClient.On("RunUntilDisconnected", mock.Anything).Return(nil)
	mockClient.On("Disconnect").Return(nil)
	return mockClient
}

func newRegistry() (*RunnerRegistry, *testutil.MockUserRepository, *testutil.MockRewriteLogRepository) {
	mockUsers := new(testutil.MockUserRepository)
	mockUsers.On("SetSignedIn", mock.Anything, mock.Anything).Return(nil)
	mockRewrites := new(testutil.MockRewriteLogRepository)
	return NewRunnerRegistry(mockUsers, mockRewrites, testutil.NewTestLogger()), mockUsers, mockRewrites
}

func TestRunnerRegistry_StartStop(t *testing.T) {
	registry, mockUsers, _ := newRegistry()
	mockClient := newRunningClient()
	userID := int64(42)

	assert.NoError(t, registry.Start(context.Background(), userID, mockClient))
	assert.True(t, registry.Running(userID))
	mockUsers.AssertCalled(t, "SetSignedIn", userID, true)

	assert.NoError(t, registry.Stop(userID))
	assert.False(t, registry.Running(userID))
	mockClient.AssertCalled(t, "Disconnect")
	mockUsers.AssertCalled(t, "SetSignedIn", userID, false)

	mockClient.AssertExpectations(t)
}

func TestRunnerRegistry_StopWithoutRunner(t *testing.T) {
	registry, _, _ := newRegistry()

	err := registry.Stop(42)

	assert.ErrorIs(t, err, domain.ErrNoActiveRunner)
}

func TestRunnerRegistry_StartReplacesExistingRunner(t *testing.T) {
	registry, _, _ := newRegistry()
	userID := int64(42)

	first := newRunningClient()
	second := newRunningClient()

	assert.NoError(t, registry.Start(context.Background(), userID, first))
	assert.NoError(t, registry.Start(context.Background(), userID, second))

	// The previous runner's client was torn down, the new one is live.
	first.AssertCalled(t, "Disconnect")
	second.AssertNotCalled(t, "Disconnect")
	assert.True(t, registry.Running(userID))

	assert.NoError(t, registry.Stop(userID))
	second.AssertCalled(t, "Disconnect")
}

func TestRunnerRegistry_ConcurrentStartsLeaveOneRunner(t *testing.T) {
	registry, _, _ := newRegistry()
	userID := int64(42)

	// Racing Starts for the same user must not strand a connected client:
	// whichever install loses still gets its runner torn down.
	for i := 0; i < 10; i++ {
		clients := make([]*testutil.MockClient, 4)
		var start, finished sync.WaitGroup
		start.Add(1)
		for j := range clients {
			clients[j] = newRunningClient()
			finished.Add(1)
			go func(mockClient *testutil.MockClient) {
				defer finished.Done()
				start.Wait()
				assert.NoError(t, registry.Start(context.Background(), userID, mockClient))
			}(clients[j])
		}
		start.Done()
		finished.Wait()

		assert.NoError(t, registry.Stop(userID))

		for _, mockClient := range clients {
			mockClient.AssertCalled(t, "Disconnect")
		}
	}
}

func TestRunnerRegistry_StartReconnectsDisconnectedClient(t *testing.T) {
	registry, _, _ := newRegistry()
	userID := int64(42)

	mockClient := new(testutil.MockClient)
	mockClient.On("Connected").Return(false)
	mockClient.On("Connect", mock.Anything).Return(nil)
	mockClient.On("OnNewMessage", mock.Anything).Return()
	mockClient.On("RunUntilDisconnected", mock.Anything).Return(nil)
	mockClient.On("Disconnect").Return(nil)

	assert.NoError(t, registry.Start(context.Background(), userID, mockClient))
	mockClient.AssertCalled(t, "Connect", mock.Anything)

	assert.NoError(t, registry.Stop(userID))
	mockClient.AssertExpectations(t)
}

func TestRunnerRegistry_StopOnlyRemovesThatUser(t *testing.T) {
	registry, _, _ := newRegistry()

	clientA := newRunningClient()
	clientB := newRunningClient()

	assert.NoError(t, registry.Start(context.Background(), 1, clientA))
	assert.NoError(t, registry.Start(context.Background(), 2, clientB))

	assert.NoError(t, registry.Stop(1))

	assert.False(t, registry.Running(1))
	assert.True(t, registry.Running(2))
	clientA.AssertCalled(t, "Disconnect")
	clientB.AssertNotCalled(t, "Disconnect")

	registry.StopAll()
}

func TestRunnerRegistry_StopAll(t *testing.T) {
	registry, _, _ := newRegistry()

	clients := []*testutil.MockClient{newRunningClient(), newRunningClient(), newRunningClient()}
	for i, mockClient := range clients {
		assert.NoError(t, registry.Start(context.Background(), int64(i+1), mockClient))
	}

	registry.StopAll()

	for i, mockClient := range clients {
		assert.False(t, registry.Running(int64(i+1)))
		mockClient.AssertCalled(t, "Disconnect")
	}

	// A second StopAll has nothing left to stop.
	registry.StopAll()
}

func TestRunnerRegistry_RunnerFinishTreatedAsNotRunning(t *testing.T) {
	registry, _, _ := newRegistry()
	userID := int64(42)

	mockClient := new(testutil.MockClient)
	mockClient.On("Connected").Return(true)
	mockClient.On("OnNewMessage", mock.Anything).Return()
	// Loop ends immediately, as after a disconnect initiated by the platform.
	mockClient.On("RunUntilDisconnected", mock.Anything).Return(assert.AnError)
	mockClient.On("Disconnect").Return(nil)

	assert.NoError(t, registry.Start(context.Background(), userID, mockClient))

	// The loop goroutine finishes on its own; the stale entry stays until
	// the next Stop, which cleans it up.
	assert.Eventually(t, func() bool {
		return !registry.Running(userID)
	}, time.Second, 10*time.Millisecond)

	assert.NoError(t, registry.Stop(userID))
	assert.ErrorIs(t, registry.Stop(userID), domain.ErrNoActiveRunner)
}
