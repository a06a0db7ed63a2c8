// ABOUTME: Telegram bridge core for synapse-relay
// ABOUTME: Long-poll loop fanning updates out to per-user workers over dedupe

package telegram

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/synapse-relay/internal/dedupe"
	"github.com/2389/synapse-relay/internal/engine"
)

const (
	defaultPollTimeout = 25 * time.Second
	retryBaseDelay     = time.Second
	retryMaxDelay      = 30 * time.Second
	workerQueueSize    = 16
)

// Handler processes one normalized inbound message. The returned reply is
// nil when the message was dropped.
type Handler interface {
	HandleMessage(ctx context.Context, msg engine.IncomingMessage) (*engine.OutgoingMessage, error)
}

// Bridge connects the Telegram Bot API to the dialogue engine. Each sender
// gets a dedicated worker goroutine, so a slow provider round-trip for one
// user never delays another user's messages, while messages from the same
// user stay in arrival order.
type Bridge struct {
	client      *Client
	handler     Handler
	dedupe      *dedupe.Cache
	logger      *slog.Logger
	pollTimeout time.Duration

	// workers is touched only by the Run goroutine.
	workers map[int64]chan engine.IncomingMessage
	wg      sync.WaitGroup
}

// NewBridge creates a Telegram bridge. pollTimeout zero means the default.
func NewBridge(client *Client, handler Handler, cache *dedupe.Cache, pollTimeout time.Duration, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}
	return &Bridge{
		client:      client,
		handler:     handler,
		dedupe:      cache,
		logger:      logger.With("component", "bridge"),
		pollTimeout: pollTimeout,
		workers:     make(map[int64]chan engine.IncomingMessage),
	}
}

// Run starts the long-poll loop and blocks until the context is cancelled.
// Poll failures back off exponentially and never stop the loop. On return
// all workers have drained their queues.
func (b *Bridge) Run(ctx context.Context) error {
	defer b.stopWorkers()

	// A leftover webhook blocks getUpdates, clear it first.
	if err := b.client.DeleteWebhook(ctx); err != nil {
		b.logger.Warn("clearing webhook failed", "error", err)
	}

	b.logger.Info("telegram bridge running", "poll_timeout", b.pollTimeout)

	var offset int64
	delay := retryBaseDelay

	for {
		if ctx.Err() != nil {
			b.logger.Info("shutting down telegram bridge")
			return nil
		}

		updates, err := b.client.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				b.logger.Info("shutting down telegram bridge")
				return nil
			}
			b.logger.Error("poll failed", "error", err, "retry_in", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}
			delay = min(delay*2, retryMaxDelay)
			continue
		}
		delay = retryBaseDelay

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			b.dispatch(ctx, update)
		}
	}
}

// dispatch runs one update through dedupe and normalization, then hands it
// to the sender's worker, starting one on first contact.
func (b *Bridge) dispatch(ctx context.Context, update Update) {
	if b.dedupe.CheckAndMark(update.UpdateID) {
		b.logger.Debug("skipping duplicate update", "update_id", update.UpdateID)
		return
	}

	msg, ok := normalize(update)
	if !ok {
		return
	}

	queue := b.workers[msg.UserID]
	if queue == nil {
		queue = make(chan engine.IncomingMessage, workerQueueSize)
		b.workers[msg.UserID] = queue
		b.wg.Add(1)
		go b.worker(ctx, queue)
	}

	select {
	case queue <- msg:
	case <-ctx.Done():
	}
}

// worker delivers one user's messages in order.
func (b *Bridge) worker(ctx context.Context, queue <-chan engine.IncomingMessage) {
	defer b.wg.Done()
	for msg := range queue {
		b.deliver(ctx, msg)
	}
}

// stopWorkers closes every queue and waits for in-flight deliveries. The map
// is reset so a later Run starts with fresh workers.
func (b *Bridge) stopWorkers() {
	for _, queue := range b.workers {
		close(queue)
	}
	b.wg.Wait()
	b.workers = make(map[int64]chan engine.IncomingMessage)
}

// deliver runs one message through the engine and sends the reply. Rich
// replies go out as rendered HTML with the unrendered text as the plain
// fallback.
func (b *Bridge) deliver(ctx context.Context, msg engine.IncomingMessage) {
	reply, err := b.handler.HandleMessage(ctx, msg)
	if err != nil {
		b.logger.Error("handling message failed",
			"user_id", msg.UserID,
			"error", err)
		return
	}
	if reply == nil {
		return
	}

	if reply.RichFormatting {
		err = b.client.SendHTML(ctx, reply.ChatID, RenderHTML(reply.Text), reply.Text)
	} else {
		err = b.client.SendMessage(ctx, reply.ChatID, reply.Text)
	}
	if err != nil {
		b.logger.Error("sending reply failed",
			"chat_id", reply.ChatID,
			"error", err)
	}
}

// normalize converts a raw update into the engine's message shape. Updates
// without a text message, or sent by bots, are not relay traffic.
func normalize(update Update) (engine.IncomingMessage, bool) {
	m := update.Message
	if m == nil || m.From == nil || m.Text == "" {
		return engine.IncomingMessage{}, false
	}
	if m.From.IsBot {
		return engine.IncomingMessage{}, false
	}
	return engine.IncomingMessage{
		UserID:    m.From.ID,
		Username:  m.From.Username,
		ChatID:    m.Chat.ID,
		Text:      m.Text,
		Timestamp: time.Unix(m.Date, 0),
	}, true
}
