// Package platform defines the contract with the Telegram user-client
// library: connecting a personal account, the interactive sign-in flow and
// the new-message subscription. Implementations live in subpackages.
package platform

import (
	"context"
	"errors"
)

var (
	// ErrCodeInvalid is returned by SignInWithCode when the verification
	// code was wrong. The sign-in attempt stays valid and may be retried.
	ErrCodeInvalid = errors.New("invalid verification code")

	// ErrPasswordRequired is returned by SignInWithCode when the account
	// has two-factor authentication enabled and a password step must follow.
	ErrPasswordRequired = errors.New("two-factor password required")
)

// Message is one Telegram message as seen by a user client.
type Message struct {
	ID        int
	ChatID    int64
	SenderID  int64
	Text      string
	ReplyToID int // zero when the message is not a reply
}

// IsReply reports whether the message replies to another message.
func (m Message) IsReply() bool {
	return m.ReplyToID != 0
}

// Handler consumes one inbound message event.
type Handler func(ctx context.Context, msg Message)

// Client is a connection for a single Telegram user account.
//
// A Client is exclusively owned by one record (a pending sign-in or a
// running automation) at a time; no two components may call it concurrently.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Connected() bool

	// RequestCode asks the platform to deliver a verification code to phone.
	RequestCode(ctx context.Context, phone string) error
	// SignInWithCode completes sign-in with the delivered code. It returns
	// ErrCodeInvalid or ErrPasswordRequired for those outcomes.
	SignInWithCode(ctx context.Context, phone, code string) error
	// SignInWithPassword completes the two-factor password step.
	SignInWithPassword(ctx context.Context, password string) error

	// Self returns the authenticated account's own user id.
	Self(ctx context.Context) (int64, error)
	// GetMessage fetches a single message by id from a chat. A nil message
	// with nil error means the message no longer exists.
	GetMessage(ctx context.Context, chatID int64, messageID int) (*Message, error)
	// SendReply sends text into chatID as a reply to replyToID.
	SendReply(ctx context.Context, chatID int64, replyToID int, text string) error

	// OnNewMessage registers the handler invoked for every inbound message.
	OnNewMessage(h Handler)
	// RunUntilDisconnected blocks until the connection ends or ctx is
	// cancelled, keeping the subscription alive.
	RunUntilDisconnected(ctx context.Context) error
}

// Factory builds clients bound to a per-user persisted session slot.
type Factory interface {
	NewClient(userID int64, apiID int, apiHash string) (Client, error)
}
