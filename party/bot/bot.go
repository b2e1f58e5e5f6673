// Package bot connects the party domain to Telegram: it turns updates into
// conversation events and admin calls, keeps chat sessions, and delivers the
// resulting messages.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/m3rciful/partybot/core/logger"
	tg "github.com/m3rciful/partybot/core/telegram"
	"github.com/m3rciful/partybot/core/telegram/callbacks"
	"github.com/m3rciful/partybot/core/telegram/commands"
	tghelpers "github.com/m3rciful/partybot/core/telegram/helpers"
	"github.com/m3rciful/partybot/core/telegram/middleware"
	"github.com/m3rciful/partybot/core/telegram/router"
	"github.com/m3rciful/partybot/core/telegram/state"
	"github.com/m3rciful/partybot/party"
	"github.com/m3rciful/partybot/party/admin"
	"github.com/m3rciful/partybot/party/conversation"

	tele "gopkg.in/telebot.v4"
)

const component = "party.bot"

// Callback keys of the guest action buttons.
const (
	CallbackBill = "bill"
	CallbackPaid = "paid"
)

const (
	failureText     = "Что-то пошло не так, попробуй еще раз."
	notAdminText    = "Эта команда только для организатора."
	badGuestIDText  = "Нужен номер гостя, например: "
	documentAckText = "Файл передан организатору."
)

// Deliver sends one message through api.
type Deliver func(ctx context.Context, api tele.API, msg party.Message) error

// Bot owns the chat sessions and serializes every update that touches them.
type Bot struct {
	mu          sync.Mutex
	machine     *conversation.Machine
	admin       *admin.Commands
	sessions    *state.Manager[conversation.State]
	adminChatID int64
	deliver     Deliver
}

// New wires the adapter. sessions decides whether chat state survives restarts.
func New(machine *conversation.Machine, cmds *admin.Commands, sessions *state.Manager[conversation.State], adminChatID int64) *Bot {
	return &Bot{
		machine:     machine,
		admin:       cmds,
		sessions:    sessions,
		adminChatID: adminChatID,
		deliver:     SendMessage,
	}
}

// SendMessage delivers msg through the async sender with its keyboard.
func SendMessage(ctx context.Context, api tele.API, msg party.Message) error {
	return tghelpers.SendTextTo(ctx, api, msg.ChatID, msg.Text, SendOptions(msg.Markup))
}

// Register adds the bot commands and callbacks to reg.
func (b *Bot) Register(reg *tg.Registry) error {
	reg.RegisterCommand("/start", commands.Command{Handler: b.Start, Description: "Начать и записать заказ"})

	adminCmds := []struct {
		name, desc string
		run        func(ctx context.Context, c tele.Context) ([]party.Message, error)
	}{
		{"/help", "Команды организатора", func(context.Context, tele.Context) ([]party.Message, error) { return b.admin.Help(), nil }},
		{"/total", "Все гости и заказы", func(ctx context.Context, _ tele.Context) ([]party.Message, error) { return b.admin.Total(ctx), nil }},
		{"/debtors", "Кто еще не оплатил", func(ctx context.Context, _ tele.Context) ([]party.Message, error) { return b.admin.Debtors(ctx), nil }},
		{"/send_bills", "Разослать счета", func(ctx context.Context, _ tele.Context) ([]party.Message, error) { return b.admin.SendBills(ctx) }},
		{"/bill", "Счет одному гостю", b.guestCommand("/bill", b.admin.SendSingleBill)},
		{"/paid", "Отметить оплату", b.guestCommand("/paid", b.admin.MarkPaid)},
		{"/close", "Закрыть вечеринку", func(ctx context.Context, _ tele.Context) ([]party.Message, error) { return b.admin.CloseParty(ctx) }},
		{"/start_party", "Новая вечеринка", func(ctx context.Context, _ tele.Context) ([]party.Message, error) { return b.admin.ReopenParty(ctx) }},
		{"/party", "Дата, место, статус", func(ctx context.Context, _ tele.Context) ([]party.Message, error) { return b.admin.PartyInfo(ctx), nil }},
		{"/set_date", "Изменить дату", func(ctx context.Context, c tele.Context) ([]party.Message, error) { return b.admin.SetDate(ctx, c.Message().Payload) }},
		{"/set_place", "Изменить место", func(ctx context.Context, c tele.Context) ([]party.Message, error) { return b.admin.SetPlace(ctx, c.Message().Payload) }},
	}
	for _, cmd := range adminCmds {
		reg.RegisterCommand(cmd.name, commands.Command{
			Handler:     b.adminHandler(cmd.run),
			Description: cmd.desc,
			AdminOnly:   true,
		})
	}

	adminOnly := middleware.AdminOnlyMiddleware(middleware.AdminOptions{AdminID: b.adminChatID, OnReject: reject})
	if err := reg.RegisterCallback(CallbackBill, adminOnly(b.guestCallback(b.admin.SendSingleBill))); err != nil {
		return err
	}
	return reg.RegisterCallback(CallbackPaid, adminOnly(b.guestCallback(b.admin.MarkPaid)))
}

// Routes returns every handler the bot needs, wrapped with the shared middleware.
func (b *Bot) Routes(reg *tg.Registry) []tg.Route {
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       b.adminChatID,
		OnAdminReject: reject,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(b, router.TextOptions{
		UnknownText: b.UnknownText,
		Document:    b.Document,
	})...)
	return routes
}

// Restore loads persisted sessions.
func (b *Bot) Restore(ctx context.Context) error {
	return b.sessions.Restore(ctx)
}

// InProgress reports whether the chat has a running session.
func (b *Bot) InProgress(chatID int64) bool {
	return b.sessions.InProgress(chatID)
}

// Start handles /start for guests and the admin alike.
func (b *Bot) Start(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	ev := eventFrom(c)

	b.mu.Lock()
	defer b.mu.Unlock()
	next, msgs, err := b.machine.Start(ctx, ev)
	if err != nil {
		return b.fail(ctx, c, ev.ChatID, err)
	}
	if err := b.save(ctx, ev.ChatID, next); err != nil {
		return b.fail(ctx, c, ev.ChatID, err)
	}
	return b.send(ctx, c, msgs)
}

// ManagerHandler advances the chat's session with the current text.
func (b *Bot) ManagerHandler(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	ev := eventFrom(c)

	b.mu.Lock()
	defer b.mu.Unlock()
	cur, ok := b.sessions.Get(ev.ChatID)
	if !ok {
		return nil
	}
	next, msgs, err := b.machine.Step(ctx, cur, ev)
	if err != nil {
		return b.fail(ctx, c, ev.ChatID, err)
	}
	if next == cur {
		return b.send(ctx, c, msgs)
	}
	// The step may already have changed the ledger, so the session moves on
	// in memory even when it cannot be stored.
	saveErr := b.save(ctx, ev.ChatID, next)
	if saveErr != nil {
		logger.Error(ctx, component, "session.save",
			slog.String("status", "fail"),
			slog.String("state", string(cur.Kind())),
			slog.String("err", saveErr.Error()),
		)
		if next == nil {
			b.sessions.Forget(ev.ChatID)
		} else {
			b.sessions.Remember(ev.ChatID, next)
		}
	}
	return errors.Join(saveErr, b.send(ctx, c, msgs))
}

// UnknownText handles text outside a session. Admin menu labels still work
// in the admin chat; anything else is ignored.
func (b *Bot) UnknownText(c tele.Context) error {
	if !b.isAdminChat(c) {
		return nil
	}
	ctx := tghelpers.BuildContext(c)

	b.mu.Lock()
	defer b.mu.Unlock()
	msgs, ok, err := b.admin.Dispatch(ctx, c.Text())
	if !ok {
		return nil
	}
	if err != nil {
		return b.fail(ctx, c, b.adminChatID, err)
	}
	return b.send(ctx, c, msgs)
}

// Document forwards guest files, such as payment receipts, to the admin chat.
func (b *Bot) Document(c tele.Context) error {
	if b.adminChatID == 0 || b.isAdminChat(c) {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	if err := tghelpers.ForwardTo(c, b.adminChatID); err != nil {
		return err
	}
	middleware.CountMessage(c, false)
	logger.Info(ctx, component, "document.forward", slog.Int64("admin_chat_id", b.adminChatID))
	return b.send(ctx, c, []party.Message{{ChatID: chatIDOf(c), Text: documentAckText}})
}

// Digest delivers the scheduled debtor digest through api.
func (b *Bot) Digest(ctx context.Context, api tele.API) error {
	b.mu.Lock()
	msgs := b.admin.DebtorDigest(ctx)
	b.mu.Unlock()

	var errs []error
	for _, m := range msgs {
		if err := b.deliver(ctx, api, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bot) adminHandler(run func(ctx context.Context, c tele.Context) ([]party.Message, error)) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		b.mu.Lock()
		defer b.mu.Unlock()
		msgs, err := run(ctx, c)
		if err != nil {
			return b.fail(ctx, c, b.adminChatID, err)
		}
		return b.send(ctx, c, msgs)
	}
}

func (b *Bot) guestCommand(name string, run func(ctx context.Context, guestID int64) ([]party.Message, error)) func(ctx context.Context, c tele.Context) ([]party.Message, error) {
	return func(ctx context.Context, c tele.Context) ([]party.Message, error) {
		id, err := strconv.ParseInt(strings.TrimSpace(c.Message().Payload), 10, 64)
		if err != nil {
			return []party.Message{{ChatID: b.adminChatID, Text: badGuestIDText + name + " 42"}}, nil
		}
		return run(ctx, id)
	}
}

func (b *Bot) guestCallback(run func(ctx context.Context, guestID int64) ([]party.Message, error)) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		id, err := callbacks.PayloadInt64(c)
		if err != nil {
			logger.Warn(ctx, component, "callback.payload",
				slog.String("outcome", "rejected"),
				slog.String("err", err.Error()),
			)
			return nil
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		msgs, err := run(ctx, id)
		if err != nil {
			return b.fail(ctx, c, b.adminChatID, err)
		}
		return b.send(ctx, c, msgs)
	}
}

func (b *Bot) save(ctx context.Context, chatID int64, next conversation.State) error {
	if next == nil {
		return b.sessions.Clear(ctx, chatID)
	}
	return b.sessions.Set(ctx, chatID, next)
}

// send delivers msgs in order. Failures are logged per message and joined;
// they never undo the ledger change that produced the messages.
func (b *Bot) send(ctx context.Context, c tele.Context, msgs []party.Message) error {
	var errs []error
	for _, m := range msgs {
		if err := b.deliver(ctx, c.Bot(), m); err != nil {
			logger.Warn(ctx, component, "message.deliver",
				slog.String("status", "fail"),
				slog.Int64("to_chat_id", m.ChatID),
				slog.String("err", err.Error()),
			)
			errs = append(errs, err)
			continue
		}
		middleware.CountMessage(c, m.Markup.Kind != party.MarkupNone)
	}
	return errors.Join(errs...)
}

func (b *Bot) fail(ctx context.Context, c tele.Context, chatID int64, err error) error {
	logger.Error(ctx, component, "update.failed", slog.String("err", err.Error()))
	if chatID != 0 {
		if sendErr := b.deliver(ctx, c.Bot(), party.Message{ChatID: chatID, Text: failureText}); sendErr == nil {
			middleware.CountMessage(c, false)
		}
	}
	return err
}

func (b *Bot) isAdminChat(c tele.Context) bool {
	return b.adminChatID != 0 && chatIDOf(c) == b.adminChatID
}

func reject(c tele.Context) error {
	return tghelpers.SendText(c, notAdminText)
}

func chatIDOf(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}

func eventFrom(c tele.Context) conversation.Event {
	ev := conversation.Event{ChatID: chatIDOf(c), Text: c.Text()}
	if u := c.Sender(); u != nil {
		ev.Sender = party.Identity{
			ID:        u.ID,
			Username:  u.Username,
			FirstName: u.FirstName,
			LastName:  u.LastName,
		}
	}
	return ev
}
