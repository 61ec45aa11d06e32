package gotd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"relinker/internal/platform"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"go.uber.org/zap"
)

var _ platform.Client = (*client)(nil)

// errConnectionClosed reports that the underlying MTProto run loop ended,
// whether by Disconnect or by the platform dropping the connection.
var errConnectionClosed = errors.New("connection closed")

// client implements platform.Client over a gotd MTProto connection.
type client struct {
	api        *telegram.Client
	dispatcher tg.UpdateDispatcher
	logger     *zap.Logger

	mu        sync.Mutex
	cancelRun context.CancelFunc
	runErr    chan error
	dead      chan struct{}
	handler   platform.Handler
	peers     map[int64]tg.InputPeerClass
	codeHash  string
	selfID    int64
}

func newClient(sessionPath string, apiID int, apiHash string, logger *zap.Logger) *client {
	dispatcher := tg.NewUpdateDispatcher()
	c := &client{
		dispatcher: dispatcher,
		logger:     logger,
		peers:      make(map[int64]tg.InputPeerClass),
	}
	c.api = telegram.NewClient(apiID, apiHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: sessionPath},
		UpdateHandler:  dispatcher,
	})

	dispatcher.OnNewMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
		c.dispatch(ctx, e, u.Message)
		return nil
	})
	dispatcher.OnNewChannelMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
		c.dispatch(ctx, e, u.Message)
		return nil
	})

	return c
}

// Connect starts the MTProto run loop in the background and waits until the
// connection is usable. The loop's lifetime is observable through c.dead, so
// a connection dropped by the platform is seen by Connected and
// RunUntilDisconnected, not just one closed by Disconnect.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dead != nil {
		select {
		case <-c.dead:
			// The previous run ended on its own; clear it and redial.
			<-c.runErr
			c.cancelRun, c.runErr, c.dead = nil, nil, nil
		default:
			return nil
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	dead := make(chan struct{})
	runErr := make(chan error, 1)

	go func() {
		err := c.api.Run(runCtx, func(ctx context.Context) error {
			close(ready)
			<-ctx.Done()
			return ctx.Err()
		})
		close(dead)
		runErr <- err
	}()

	select {
	case <-ready:
	case <-dead:
		cancel()
		return fmt.Errorf("connect: %w", <-runErr)
	case <-ctx.Done():
		cancel()
		<-dead
		<-runErr
		return ctx.Err()
	}

	c.cancelRun = cancel
	c.runErr = runErr
	c.dead = dead
	return nil
}

func (c *client) Disconnect() error {
	c.mu.Lock()
	cancel, runErr := c.cancelRun, c.runErr
	c.cancelRun, c.runErr, c.dead = nil, nil, nil
	c.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

func (c *client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dead == nil {
		return false
	}
	select {
	case <-c.dead:
		return false
	default:
		return true
	}
}

func (c *client) RequestCode(ctx context.Context, phone string) error {
	sent, err := c.api.Auth().SendCode(ctx, phone, auth.SendCodeOptions{})
	if err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	code, ok := sent.(*tg.AuthSentCode)
	if !ok {
		return fmt.Errorf("unexpected sent code response %T", sent)
	}
	c.mu.Lock()
	c.codeHash = code.PhoneCodeHash
	c.mu.Unlock()
	return nil
}

func (c *client) SignInWithCode(ctx context.Context, phone, code string) error {
	c.mu.Lock()
	codeHash := c.codeHash
	c.mu.Unlock()

	_, err := c.api.Auth().SignIn(ctx, phone, code, codeHash)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrPasswordAuthNeeded):
		return platform.ErrPasswordRequired
	case tgerr.Is(err, "PHONE_CODE_INVALID"):
		return platform.ErrCodeInvalid
	default:
		return fmt.Errorf("sign in: %w", err)
	}
}

func (c *client) SignInWithPassword(ctx context.Context, password string) error {
	if _, err := c.api.Auth().Password(ctx, password); err != nil {
		return fmt.Errorf("password sign in: %w", err)
	}
	return nil
}

func (c *client) Self(ctx context.Context) (int64, error) {
	c.mu.Lock()
	id := c.selfID
	c.mu.Unlock()
	if id != 0 {
		return id, nil
	}

	me, err := c.api.Self(ctx)
	if err != nil {
		return 0, fmt.Errorf("get self: %w", err)
	}
	c.mu.Lock()
	c.selfID = me.ID
	c.mu.Unlock()
	return me.ID, nil
}

func (c *client) GetMessage(ctx context.Context, chatID int64, messageID int) (*platform.Message, error) {
	peer := c.peer(chatID)
	ids := []tg.InputMessageClass{&tg.InputMessageID{ID: messageID}}

	var (
		res tg.MessagesMessagesClass
		err error
	)
	if ch, ok := peer.(*tg.InputPeerChannel); ok {
		res, err = c.api.API().ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
			Channel: &tg.InputChannel{ChannelID: ch.ChannelID, AccessHash: ch.AccessHash},
			ID:      ids,
		})
	} else {
		res, err = c.api.API().MessagesGetMessages(ctx, ids)
	}
	if err != nil {
		return nil, fmt.Errorf("get message %d: %w", messageID, err)
	}

	var msgs []tg.MessageClass
	switch r := res.(type) {
	case *tg.MessagesMessages:
		msgs = r.Messages
	case *tg.MessagesMessagesSlice:
		msgs = r.Messages
	case *tg.MessagesChannelMessages:
		msgs = r.Messages
	default:
		return nil, fmt.Errorf("unexpected messages response %T", res)
	}

	for _, mc := range msgs {
		m, ok := mc.(*tg.Message)
		if !ok || m.ID != messageID {
			continue
		}
		out := c.toMessage(m, chatID)
		return &out, nil
	}
	return nil, nil
}

func (c *client) SendReply(ctx context.Context, chatID int64, replyToID int, text string) error {
	peer := c.peer(chatID)
	if peer == nil {
		return fmt.Errorf("unknown peer for chat %d", chatID)
	}
	sender := message.NewSender(c.api.API())
	if _, err := sender.To(peer).Reply(replyToID).Text(ctx, text); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

func (c *client) OnNewMessage(h platform.Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// RunUntilDisconnected blocks until the context is cancelled or the
// connection itself dies, whichever comes first.
func (c *client) RunUntilDisconnected(ctx context.Context) error {
	c.mu.Lock()
	dead := c.dead
	c.mu.Unlock()
	if dead == nil {
		return errConnectionClosed
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-dead:
		return errConnectionClosed
	}
}

// dispatch converts a raw update into a platform.Message and hands it to the
// registered handler, remembering the peer so replies can be sent later.
func (c *client) dispatch(ctx context.Context, e tg.Entities, mc tg.MessageClass) {
	m, ok := mc.(*tg.Message)
	if !ok {
		return
	}
	chatID := c.rememberPeer(e, m.PeerID)

	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	if h == nil {
		return
	}

	h(ctx, c.toMessage(m, chatID))
}

func (c *client) toMessage(m *tg.Message, chatID int64) platform.Message {
	msg := platform.Message{
		ID:       m.ID,
		ChatID:   chatID,
		SenderID: c.senderOf(m, chatID),
		Text:     m.Message,
	}
	if reply, ok := m.GetReplyTo(); ok {
		if hdr, ok := reply.(*tg.MessageReplyHeader); ok {
			msg.ReplyToID = hdr.ReplyToMsgID
		}
	}
	return msg
}

// senderOf resolves the message sender id. Outgoing messages in private
// chats carry no FromID, so the cached self id stands in.
func (c *client) senderOf(m *tg.Message, chatID int64) int64 {
	if from, ok := m.GetFromID(); ok {
		if u, ok := from.(*tg.PeerUser); ok {
			return u.UserID
		}
	}
	if m.Out {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.selfID
	}
	return chatID
}

func (c *client) peer(chatID int64) tg.InputPeerClass {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peers[chatID]
}

func (c *client) rememberPeer(e tg.Entities, peerID tg.PeerClass) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch p := peerID.(type) {
	case *tg.PeerUser:
		if u, ok := e.Users[p.UserID]; ok {
			c.peers[p.UserID] = &tg.InputPeerUser{UserID: u.ID, AccessHash: u.AccessHash}
		}
		return p.UserID
	case *tg.PeerChat:
		c.peers[p.ChatID] = &tg.InputPeerChat{ChatID: p.ChatID}
		return p.ChatID
	case *tg.PeerChannel:
		if ch, ok := e.Channels[p.ChannelID]; ok {
			c.peers[p.ChannelID] = &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}
		}
		return p.ChannelID
	}
	return 0
}
