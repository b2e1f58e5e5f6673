// Package admin renders the organizer's view of the party ledger and applies
// the organizer's commands. Every method returns the messages to deliver.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/partybot/core/config"
	"github.com/m3rciful/partybot/core/logger"
	tghelpers "github.com/m3rciful/partybot/core/telegram/helpers"
	"github.com/m3rciful/partybot/party"
)

const component = "party.admin"

// Menu labels shown on the admin reply keyboard.
const (
	LabelTotal   = "Итого"
	LabelDebtors = "Должники"
	LabelBills   = "Разослать счета"
	LabelInfo    = "Инфо"
	LabelClose   = "Закрыть вечеринку"
	LabelRestart = "Новая вечеринка"
)

// MenuRows is the admin keyboard layout.
var MenuRows = [][]string{
	{LabelTotal, LabelDebtors},
	{LabelBills, LabelInfo},
	{LabelClose, LabelRestart},
}

const helpText = "Команды организатора:\n" +
	"/total - все гости и заказы\n" +
	"/debtors - кто еще не оплатил\n" +
	"/send_bills - разослать счета должникам\n" +
	"/bill <id> - отправить счет одному гостю\n" +
	"/paid <id> - отметить оплату\n" +
	"/close - закрыть прием заказов\n" +
	"/start_party - начать новую вечеринку (все заказы удаляются)\n" +
	"/party - дата, место и статус\n" +
	"/set_date <дата> - изменить дату (2026-03-05 или 05.03.2026)\n" +
	"/set_place <место> - изменить место"

// Commands implements the admin operations over one ledger.
type Commands struct {
	ledger      *party.Ledger
	adminChatID int64
	menu        map[string]func(context.Context) ([]party.Message, error)
}

// New builds the admin command set. Replies go to adminChatID.
func New(ledger *party.Ledger, adminChatID int64) *Commands {
	c := &Commands{ledger: ledger, adminChatID: adminChatID}
	c.menu = map[string]func(context.Context) ([]party.Message, error){
		LabelTotal:   func(ctx context.Context) ([]party.Message, error) { return c.Total(ctx), nil },
		LabelDebtors: func(ctx context.Context) ([]party.Message, error) { return c.Debtors(ctx), nil },
		LabelBills:   c.SendBills,
		LabelInfo:    func(ctx context.Context) ([]party.Message, error) { return c.PartyInfo(ctx), nil },
		LabelClose:   c.CloseParty,
		LabelRestart: c.ReopenParty,
	}
	return c
}

// Dispatch runs the command bound to a menu label.
func (c *Commands) Dispatch(ctx context.Context, label string) ([]party.Message, bool, error) {
	run, ok := c.menu[label]
	if !ok {
		return nil, false, nil
	}
	msgs, err := run(ctx)
	return msgs, true, err
}

func (c *Commands) reply(text string) party.Message {
	return party.Message{ChatID: c.adminChatID, Text: text}
}

func (c *Commands) replies(texts []string) []party.Message {
	msgs := make([]party.Message, len(texts))
	for i, text := range texts {
		msgs[i] = c.reply(text)
	}
	return msgs
}

// Help lists the admin commands.
func (c *Commands) Help() []party.Message {
	msg := c.reply(helpText)
	msg.Markup = party.Markup{Kind: party.MarkupAdminMenu}
	return []party.Message{msg}
}

// Total renders every guest with orders and flags plus the grand total.
func (c *Commands) Total(ctx context.Context) []party.Message {
	s := c.ledger.Total()
	logger.Info(ctx, component, "admin.total",
		slog.Int("guests", len(s.Guests)),
		slog.Int64("total", s.Total),
	)
	return c.replies(renderSummary("Гости и заказы:", "Итого", "Пока нет ни одного гостя.", s))
}

// Debtors renders unpaid guests, then one message per debtor with
// send-bill and mark-paid buttons.
func (c *Commands) Debtors(ctx context.Context) []party.Message {
	s := c.ledger.Debtors()
	logger.Info(ctx, component, "admin.debtors",
		slog.Int("guests", len(s.Guests)),
		slog.Int64("total", s.Total),
	)
	msgs := c.replies(renderSummary("Не оплатили:", "Итого долг", "Все оплатили.", s))
	for _, g := range s.Guests {
		msg := c.reply(renderDebtor(g))
		msg.Markup = party.Markup{Kind: party.MarkupGuestActions, GuestID: g.ID}
		msgs = append(msgs, msg)
	}
	return msgs
}

// DebtorDigest is the scheduled reminder. It returns nothing when everyone paid.
func (c *Commands) DebtorDigest(ctx context.Context) []party.Message {
	s := c.ledger.Debtors()
	if len(s.Guests) == 0 {
		return nil
	}
	logger.Info(ctx, component, "admin.digest",
		slog.Int("guests", len(s.Guests)),
		slog.Int64("total", s.Total),
	)
	return c.replies(renderSummary("Напоминание: еще не оплатили", "Итого долг", "", s))
}

// SendBills delivers a bill to every unpaid guest and marks it sent.
func (c *Commands) SendBills(ctx context.Context) ([]party.Message, error) {
	meta := c.ledger.Info().Meta
	var (
		msgs []party.Message
		errs []error
	)
	for _, g := range c.ledger.Unpaid() {
		bill, _, err := c.bill(ctx, meta, g.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		msgs = append(msgs, bill)
	}
	sent := len(msgs)
	logger.Info(ctx, component, "bill.send_all",
		slog.Int("sent", sent),
		slog.Int("failed", len(errs)),
	)
	msgs = append(msgs, c.reply(fmt.Sprintf("Отправлено счетов: %d", sent)))
	return msgs, errors.Join(errs...)
}

// SendSingleBill delivers the bill of one guest and marks it sent.
func (c *Commands) SendSingleBill(ctx context.Context, guestID int64) ([]party.Message, error) {
	bill, g, err := c.bill(ctx, c.ledger.Info().Meta, guestID)
	if errors.Is(err, party.ErrGuestNotFound) {
		return c.notFound(ctx, guestID), nil
	}
	if err != nil {
		return nil, err
	}
	return []party.Message{bill, c.reply(fmt.Sprintf("Счет отправлен: %s, %d", guestLabel(g), g.Subtotal()))}, nil
}

func (c *Commands) bill(ctx context.Context, meta party.Meta, guestID int64) (party.Message, party.Guest, error) {
	g, err := c.ledger.MarkBillSent(ctx, guestID)
	if err != nil {
		return party.Message{}, party.Guest{}, err
	}
	logger.Info(ctx, component, "bill.send",
		slog.Int64("guest_id", g.ID),
		slog.Int64("subtotal", g.Subtotal()),
	)
	return party.Message{ChatID: g.ID, Text: renderBill(meta, g)}, g, nil
}

// MarkPaid records the payment of one guest. Repeating it changes nothing.
func (c *Commands) MarkPaid(ctx context.Context, guestID int64) ([]party.Message, error) {
	g, changed, err := c.ledger.MarkPaid(ctx, guestID)
	if errors.Is(err, party.ErrGuestNotFound) {
		return c.notFound(ctx, guestID), nil
	}
	if err != nil {
		return nil, err
	}
	if !changed {
		return []party.Message{c.reply("Оплата уже отмечена: " + guestLabel(g))}, nil
	}
	return []party.Message{c.reply(fmt.Sprintf("Оплата отмечена: %s, %d", guestLabel(g), g.Subtotal()))}, nil
}

// CloseParty stops accepting new orders.
func (c *Commands) CloseParty(ctx context.Context) ([]party.Message, error) {
	changed, err := c.ledger.Close(ctx)
	if err != nil {
		return nil, err
	}
	if !changed {
		return []party.Message{c.reply("Вечеринка уже закрыта.")}, nil
	}
	return []party.Message{c.reply("Вечеринка закрыта. Новые заказы не принимаются.")}, nil
}

// ReopenParty starts over: every guest and order is discarded.
func (c *Commands) ReopenParty(ctx context.Context) ([]party.Message, error) {
	meta, err := c.ledger.Reopen(ctx)
	if err != nil {
		return nil, err
	}
	return []party.Message{c.reply(fmt.Sprintf(
		"Начата новая вечеринка %s в %s. Все гости и заказы удалены.", meta.Date, meta.Place))}, nil
}

// PartyInfo reports date, place, status and guest count.
func (c *Commands) PartyInfo(context.Context) []party.Message {
	return []party.Message{c.reply(renderInfo(c.ledger.Info()))}
}

// SetDate parses a flexible date and stores it in the display layout.
func (c *Commands) SetDate(ctx context.Context, text string) ([]party.Message, error) {
	t, ok := tghelpers.ParseFlexibleDate(text)
	if !ok {
		return []party.Message{c.reply("Не понял дату. Пример: /set_date 2026-03-05 или /set_date 05.03.2026")}, nil
	}
	date := t.Format(config.PartyDateLayout)
	if err := c.ledger.SetDate(ctx, date); err != nil {
		return nil, err
	}
	logger.Info(ctx, component, "party.set_date", slog.String("date", date))
	return []party.Message{c.reply("Дата вечеринки: " + date)}, nil
}

// SetPlace stores the place verbatim.
func (c *Commands) SetPlace(ctx context.Context, text string) ([]party.Message, error) {
	place := strings.TrimSpace(text)
	if place == "" {
		return []party.Message{c.reply("Укажи место: /set_place <место>")}, nil
	}
	if err := c.ledger.SetPlace(ctx, place); err != nil {
		return nil, err
	}
	logger.Info(ctx, component, "party.set_place", slog.String("place", logger.SanitizeLimit(place, 128)))
	return []party.Message{c.reply("Место вечеринки: " + place)}, nil
}

func (c *Commands) notFound(ctx context.Context, guestID int64) []party.Message {
	logger.Warn(ctx, component, "guest.not_found",
		slog.String("outcome", "rejected"),
		slog.Int64("guest_id", guestID),
	)
	return []party.Message{c.reply(fmt.Sprintf("Гость %d не найден.", guestID))}
}
