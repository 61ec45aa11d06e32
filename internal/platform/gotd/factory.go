// Package gotd implements the platform contract with the gotd MTProto
// library. Session state is persisted as one file per user under the
// configured sessions directory.
package gotd

import (
	"fmt"
	"os"
	"path/filepath"

	"relinker/internal/platform"

	"go.uber.org/zap"
)

// Factory builds gotd-backed clients with per-user session files.
type Factory struct {
	sessionsDir string
	logger      *zap.Logger
}

// NewFactory creates the factory, ensuring the sessions directory exists.
func NewFactory(sessionsDir string, logger *zap.Logger) (*Factory, error) {
	if err := os.MkdirAll(sessionsDir, 0o700); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	return &Factory{sessionsDir: sessionsDir, logger: logger}, nil
}

// NewClient builds a client bound to the user's session file.
func (f *Factory) NewClient(userID int64, apiID int, apiHash string) (platform.Client, error) {
	path := filepath.Join(f.sessionsDir, fmt.Sprintf("session_%d.json", userID))
	f.logger.Info("Creating user client",
		zap.Int64("user_id", userID),
		zap.String("session", path),
	)
	return newClient(path, apiID, apiHash, f.logger), nil
}
