package helpers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/partybot/core/logger"
	"github.com/m3rciful/partybot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func sendAsync(ctx context.Context, chatID int64, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	job := sender.Job{ChatID: chatID, Action: action, Endpoint: endpoint, Run: run}
	if err := disp.Enqueue(ctx, job); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	var chatID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	return sendAsync(BuildContext(c), chatID, "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// SendTextTo sends raw text to an arbitrary chat. It serves flows that run
// outside an update, such as scheduled jobs, and replies addressed to other chats.
func SendTextTo(ctx context.Context, api tele.API, chatID int64, text string, opts *tele.SendOptions) error {
	if api == nil {
		return errors.New("telegram helpers: nil bot api")
	}
	return sendAsync(ctx, chatID, "send.text", "sendMessage", func() error {
		var err error
		if opts != nil {
			_, err = api.Send(tele.ChatID(chatID), text, opts)
		} else {
			_, err = api.Send(tele.ChatID(chatID), text)
		}
		return err
	})
}

// ForwardTo forwards the current message to chatID unmodified.
func ForwardTo(c tele.Context, chatID int64) error {
	msg := c.Message()
	if msg == nil {
		return nil
	}
	return sendAsync(BuildContext(c), chatID, "forward", "forwardMessage", func() error {
		_, err := c.Bot().Forward(tele.ChatID(chatID), msg)
		return err
	})
}
