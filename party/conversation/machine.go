package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/m3rciful/partybot/core/logger"
	"github.com/m3rciful/partybot/party"
)

const component = "party.conversation"

var costPattern = regexp.MustCompile(`^[0-9]+$`)

// Event is one inbound text from a chat.
type Event struct {
	Sender party.Identity
	ChatID int64
	Text   string
}

// Menu runs an admin command selected from the admin keyboard.
// ok is false when label is not a menu entry.
type Menu interface {
	Dispatch(ctx context.Context, label string) (msgs []party.Message, ok bool, err error)
}

type stepFunc func(ctx context.Context, st State, ev Event) (State, []party.Message, error)

// Machine drives chat sessions against the shared ledger.
// A nil next state from Start or Step ends the session.
type Machine struct {
	ledger      *party.Ledger
	adminChatID int64
	menu        Menu
	steps       map[Kind]stepFunc
}

// NewMachine wires the per-state handlers. menu may be nil when the admin
// keyboard is not used.
func NewMachine(ledger *party.Ledger, adminChatID int64, menu Menu) *Machine {
	m := &Machine{ledger: ledger, adminChatID: adminChatID, menu: menu}
	m.steps = map[Kind]stepFunc{
		KindAwaitingItem:         m.onItem,
		KindAwaitingCost:         m.onCost,
		KindAwaitingConfirmation: m.onConfirm,
		KindAdminMenu:            m.onMenu,
	}
	return m
}

// Start handles /start. The admin chat gets the admin menu; everyone else is
// registered as a guest and asked for the first item.
func (m *Machine) Start(ctx context.Context, ev Event) (State, []party.Message, error) {
	if m.adminChatID != 0 && ev.ChatID == m.adminChatID {
		logger.Info(ctx, component, "session.start", slog.String("state", string(KindAdminMenu)))
		return AdminMenu{}, []party.Message{{
			ChatID: ev.ChatID,
			Text:   adminMenuText,
			Markup: party.Markup{Kind: party.MarkupAdminMenu},
		}}, nil
	}

	if _, _, err := m.ledger.Register(ctx, ev.Sender); err != nil {
		return nil, nil, fmt.Errorf("register guest: %w", err)
	}
	info := m.ledger.Info()
	logger.Info(ctx, component, "session.start",
		slog.String("state", string(KindAwaitingItem)),
		slog.Int64("guest_id", ev.Sender.ID),
	)
	return AwaitingItem{}, []party.Message{{
		ChatID: ev.ChatID,
		Text:   welcomeText(info.Date, info.Place),
		Markup: party.Markup{Kind: party.MarkupRemove},
	}}, nil
}

// Step feeds one text into the session. Input a state does not accept is
// ignored: the state comes back unchanged with no messages.
func (m *Machine) Step(ctx context.Context, st State, ev Event) (State, []party.Message, error) {
	if st == nil {
		return nil, nil, nil
	}
	step, ok := m.steps[st.Kind()]
	if !ok {
		return st, nil, fmt.Errorf("conversation: no handler for state %q", st.Kind())
	}
	next, msgs, err := step(ctx, st, ev)

	attrs := []slog.Attr{
		slog.String("state", string(st.Kind())),
		slog.Int("messages", len(msgs)),
	}
	if next != nil {
		attrs = append(attrs, slog.String("next_state", string(next.Kind())))
	}
	if err != nil {
		attrs = append(attrs, slog.String("status", "fail"), slog.String("err", err.Error()))
		logger.Warn(ctx, component, "session.step", attrs...)
	} else {
		logger.Debug(ctx, component, "session.step", attrs...)
	}
	return next, msgs, err
}

func (m *Machine) onItem(_ context.Context, st State, ev Event) (State, []party.Message, error) {
	if strings.TrimSpace(ev.Text) == "" {
		return st, nil, nil
	}
	return AwaitingCost{Item: ev.Text}, []party.Message{{
		ChatID: ev.ChatID,
		Text:   askCostText(ev.Text),
	}}, nil
}

func (m *Machine) onCost(ctx context.Context, st State, ev Event) (State, []party.Message, error) {
	cur := st.(AwaitingCost)
	cost, err := ParseCost(ev.Text)
	if err != nil {
		logger.Debug(ctx, component, "cost.rejected",
			slog.String("outcome", "rejected"),
			slog.String("payload", logger.SanitizeLimit(ev.Text, 64)),
		)
		return cur, []party.Message{{ChatID: ev.ChatID, Text: invalidCostText(cur.Item)}}, nil
	}
	return AwaitingConfirmation{Item: cur.Item, Cost: cost}, []party.Message{{
		ChatID: ev.ChatID,
		Text:   confirmText(cur.Item, cost),
		Markup: party.Markup{Kind: party.MarkupConfirm},
	}}, nil
}

func (m *Machine) onConfirm(ctx context.Context, st State, ev Event) (State, []party.Message, error) {
	cur := st.(AwaitingConfirmation)
	switch ev.Text {
	case ReplyYes:
		return m.commit(ctx, cur, ev)
	case ReplyNo:
		return AwaitingItem{}, []party.Message{{
			ChatID: ev.ChatID,
			Text:   declineText,
			Markup: party.Markup{Kind: party.MarkupRemove},
		}}, nil
	}
	return st, nil, nil
}

func (m *Machine) commit(ctx context.Context, cur AwaitingConfirmation, ev Event) (State, []party.Message, error) {
	order := party.Order{Item: cur.Item, Cost: cur.Cost}
	_, err := m.ledger.AddOrder(ctx, ev.Sender.ID, order)
	if errors.Is(err, party.ErrGuestNotFound) {
		// The party was restarted while this session was pending.
		if _, _, err = m.ledger.Register(ctx, ev.Sender); err == nil {
			_, err = m.ledger.AddOrder(ctx, ev.Sender.ID, order)
		}
	}
	switch {
	case errors.Is(err, party.ErrPartyClosed):
		logger.Info(ctx, component, "order.rejected",
			slog.String("outcome", "rejected"),
			slog.String("party_status", string(party.StatusClosed)),
			slog.Int64("guest_id", ev.Sender.ID),
		)
		return nil, []party.Message{{
			ChatID: ev.ChatID,
			Text:   closedText,
			Markup: party.Markup{Kind: party.MarkupRemove},
		}}, nil
	case err != nil:
		return cur, nil, err
	}

	msgs := []party.Message{{
		ChatID: ev.ChatID,
		Text:   thanksText(cur.Item, cur.Cost),
		Markup: party.Markup{Kind: party.MarkupRemove},
	}}
	if m.adminChatID != 0 {
		msgs = append(msgs, party.Message{
			ChatID: m.adminChatID,
			Text:   adminNoticeText(displayOrID(ev.Sender), cur.Item, cur.Cost),
		})
	}
	return AwaitingItem{}, msgs, nil
}

func (m *Machine) onMenu(ctx context.Context, st State, ev Event) (State, []party.Message, error) {
	if m.menu == nil {
		return st, nil, nil
	}
	msgs, ok, err := m.menu.Dispatch(ctx, ev.Text)
	if !ok {
		return st, nil, nil
	}
	return st, msgs, err
}

// ParseCost accepts only ASCII digits that fit into int64.
func ParseCost(text string) (int64, error) {
	if !costPattern.MatchString(text) {
		return 0, party.ErrInvalidCost
	}
	cost, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", party.ErrInvalidCost, err)
	}
	return cost, nil
}

func displayOrID(id party.Identity) string {
	if name := id.DisplayName(); name != "" {
		return name
	}
	return fmt.Sprintf("id %d", id.ID)
}
