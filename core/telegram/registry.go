package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/m3rciful/partybot/core/logger"
	"github.com/m3rciful/partybot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry holds bot commands and callbacks. It is filled during wiring and
// only read once the bot runs.
type Registry struct {
	order            []string
	commands         map[string]commands.Command
	callbacks        map[string]tele.HandlerFunc
	callbackNotFound tele.HandlerFunc
}

// NewRegistry creates an empty Registry with default fallbacks.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Действие недоступно"})
		},
	}
}

// RegisterCommand adds a command. Invalid or duplicate entries are logged and skipped.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	reason := ""
	switch {
	case name == "" || cmd.Handler == nil || cmd.Description == "":
		reason = "invalid"
	case name[0] != '/':
		reason = "no_slash_prefix"
	default:
		if _, exists := r.commands[name]; exists {
			reason = "duplicate"
		}
	}
	if reason != "" {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", reason),
		)
		return
	}
	r.commands[name] = cmd
	r.order = append(r.order, name)
}

// ListCommands returns commands in registration order. public drops hidden
// and admin-only entries; admin keeps every non-hidden entry.
func (r *Registry) ListCommands(public bool) []tele.Command {
	var list []tele.Command
	for _, name := range r.order {
		meta := r.commands[name]
		if meta.Hidden || (public && meta.AdminOnly) {
			continue
		}
		list = append(list, tele.Command{Text: name, Description: meta.Description})
	}
	return list
}

// Command returns the command registered under name.
func (r *Registry) Command(name string) (commands.Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// RegisterCallback maps a callback unique key to its handler.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if key == "" || handler == nil {
		return fmt.Errorf("invalid callback registration %q", key)
	}
	if _, exists := r.callbacks[key]; exists {
		return fmt.Errorf("callback already registered: %s", key)
	}
	r.callbacks[key] = handler
	return nil
}

// GetCallback returns the handler registered for key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the registered keys in sorted order.
func (r *Registry) ListCallbacks() []string {
	names := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// SetCallbackNotFound replaces the fallback handler for unknown callbacks.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h != nil {
		r.callbackNotFound = h
	}
}

// CallbackNotFound returns the current fallback callback handler.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	return r.callbackNotFound
}

// InitBotCommands publishes the command menu: public commands for everyone
// and the full list for the admin chat.
func InitBotCommands(bot *tele.Bot, reg *Registry, adminChatID int64) {
	set := func(scope string, cmds []tele.Command, opts ...any) {
		if err := bot.SetCommands(append([]any{cmds}, opts...)...); err != nil {
			logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
				slog.String("scope", scope),
				slog.String("err", err.Error()),
			)
		}
	}
	set("default", reg.ListCommands(true))
	if adminChatID != 0 {
		set("admin", reg.ListCommands(false), tele.CommandScope{Type: tele.CommandScopeChat, ChatID: adminChatID})
	}
	logger.TWire.Info("tg.wire",
		slog.String("event", "commands.published"),
		slog.Int("commands", len(reg.commands)),
		slog.Int("callbacks", len(reg.callbacks)),
	)
}
