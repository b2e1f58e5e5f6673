package helpers

import (
	"context"

	"github.com/m3rciful/partybot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const ctxKey = "partybot.ctx"

// StoreContext caches ctx on the update so later helpers reuse the same request metadata.
func StoreContext(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(ctxKey, ctx)
	}
}

// BuildContext returns the update's logging context, creating it on first use
// with rid, update, chat and user ids. Callback updates take the chat of the
// message carrying the button.
func BuildContext(c tele.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if ctx, ok := c.Get(ctxKey).(context.Context); ok {
		return ctx
	}

	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if u := c.Sender(); u != nil {
		userID = u.ID
	}
	updateID := c.Update().ID

	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(updateID, chatID, userID)
	}
	ctx := logger.WithUpdateMeta(context.Background(), logger.UpdateMeta{
		RID:      rid,
		UpdateID: updateID,
		UserID:   userID,
		ChatID:   chatID,
	})
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	StoreContext(c, ctx)
	return ctx
}

// WithHandler tags the update's context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler != "" && c != nil {
		ctx = logger.WithHandler(ctx, handler)
		StoreContext(c, ctx)
	}
	return ctx
}
