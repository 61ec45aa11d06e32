package domain

import "relinker/internal/platform"

// SignInState represents the stage of a user's sign-in attempt
type SignInState string

const (
	StateCodeRequested    SignInState = "code_requested"
	StatePasswordRequired SignInState = "password_required"
)

// PendingSignIn holds a sign-in attempt in progress. The client handle is
// connected but not yet authenticated; it is reused across the code step and
// the optional two-factor password step.
type PendingSignIn struct {
	UserID  int64
	APIID   int
	APIHash string
	Phone   string
	Client  platform.Client
	State   SignInState

	// Busy marks a step currently talking to the platform; the record
	// may not be used, superseded or discarded until the step finishes.
	Busy bool
}
