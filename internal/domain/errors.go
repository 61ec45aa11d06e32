package domain

import "errors"

var (
	// ErrCredentialParse means the credentials message was malformed.
	ErrCredentialParse = errors.New("could not parse credentials")

	// ErrNoPendingSignIn means /code or /pwd arrived with nothing pending.
	ErrNoPendingSignIn = errors.New("no pending sign-in")

	// ErrSignInInProgress means a sign-in step for the user is still
	// talking to the platform; the new submission was rejected rather
	// than driving the same client concurrently.
	ErrSignInInProgress = errors.New("sign-in step already in progress")

	// ErrNoActiveRunner means /stop arrived with no automation running.
	ErrNoActiveRunner = errors.New("no active automation")
)
