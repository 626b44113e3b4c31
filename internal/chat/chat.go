// Package chat keeps the assistant conversation log and relays each user
// message to the chat backend.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"coinpal/internal/apperr"
	"coinpal/internal/logger"
	"coinpal/internal/models"
	"coinpal/internal/notify"
	"coinpal/internal/wallet"
)

const (
	source   = "chat"
	chatPath = "/api/chat"
)

type JSONPoster interface {
	PostJSON(ctx context.Context, path string, body interface{}) ([]byte, error)
}

// WalletSource reports the connected wallet, if any.
type WalletSource interface {
	Current() wallet.Connection
}

type Option func(*Assistant)

func WithNotifier(n notify.Notifier) Option {
	return func(a *Assistant) { a.notifier = notify.OrDiscard(n) }
}

// WithWallet forwards the connected wallet address with every message.
func WithWallet(w WalletSource) Option {
	return func(a *Assistant) { a.wallet = w }
}

type Assistant struct {
	backend  JSONPoster
	notifier notify.Notifier
	wallet   WalletSource
	now      func() time.Time

	mu       sync.Mutex
	messages []models.ChatMessage
	typing   bool
}

func New(backend JSONPoster, opts ...Option) *Assistant {
	a := &Assistant{backend: backend, notifier: notify.Discard, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Send appends text as a user message and the backend's reply as a bot
// message. Blank input is ignored.
func (a *Assistant) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	a.mu.Lock()
	a.messages = append(a.messages, models.ChatMessage{From: models.SenderUser, Text: text, CreatedAt: a.now()})
	a.typing = true
	a.mu.Unlock()

	req := models.ChatRequest{Message: text}
	if a.wallet != nil {
		if conn := a.wallet.Current(); conn.Connected {
			req.WalletAddress = conn.Address
		}
	}

	body, err := a.backend.PostJSON(ctx, chatPath, req)

	a.mu.Lock()
	a.typing = false
	if err == nil {
		a.messages = append(a.messages, models.ChatMessage{
			From:      models.SenderBot,
			Text:      string(body),
			CreatedAt: a.now(),
		})
	}
	a.mu.Unlock()

	if err != nil {
		logger.Warnf("chat request failed: %v", err)
		a.notifier.Notify(notify.Notification{Level: notify.LevelError, Source: source, Message: "The assistant is unavailable, please try again"})
		if apperr.KindOf(err) != apperr.TransportFailure {
			err = apperr.Wrap(apperr.TransportFailure, err)
		}
		return fmt.Errorf("send chat message: %w", err)
	}
	return nil
}

// Messages returns a copy of the log in insertion order.
func (a *Assistant) Messages() []models.ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.ChatMessage, len(a.messages))
	copy(out, a.messages)
	return out
}

func (a *Assistant) Typing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.typing
}
