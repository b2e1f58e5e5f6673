package router

import (
	tg "github.com/m3rciful/partybot/core/telegram"
	"github.com/m3rciful/partybot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM defines the minimal interface for a session manager keyed by chat.
type FSM interface {
	InProgress(chatID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
	// Document handles every inbound document, session or not.
	Document tele.HandlerFunc
}

func chatID(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if s := c.Sender(); s != nil {
		return s.ID
	}
	return 0
}

// TextRoutes builds handlers for text and document routing. Text goes to an
// active session, otherwise to opts.UnknownText. Commands are never resolved
// from plain text: they only arrive on their own endpoints, where
// CommandRoutes applies the admin check.
func TextRoutes(fsmMgr FSM, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		if fsmMgr != nil && fsmMgr.InProgress(chatID(c)) {
			return handled(c, "fsm", fsmMgr.ManagerHandler)
		}
		return handled(c, "unknown_text", opts.UnknownText)
	}

	docHandler := func(c tele.Context) error {
		return handled(c, "document", opts.Document)
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
		{
			Endpoint: tele.OnDocument,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(docHandler)),
		},
	}
}
