package router

import (
	"log/slog"

	tg "github.com/m3rciful/partybot/core/telegram"
	"github.com/m3rciful/partybot/core/telegram/callbacks"
	"github.com/m3rciful/partybot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute answers every callback query and dispatches it by its unique
// key to the handler registered in reg. Unknown keys go to the registry's
// not-found handler, then to opts.NotFound.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key, _ := callbacks.ParseCallbackData(c.Callback())
		name := "callback." + handlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		if h, ok := reg.GetCallback(key); ok && h != nil {
			_ = c.Respond()
			return handled(c, name, h, extras...)
		}

		fallback := reg.CallbackNotFound()
		if fallback == nil {
			fallback = opts.NotFound
			_ = c.Respond()
		}
		return handled(c, name, fallback, append(extras, slog.String("reason", "not_found"))...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
