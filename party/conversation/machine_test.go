package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m3rciful/partybot/party"
)

const adminChat int64 = 999

var guest = party.Identity{ID: 10, Username: "ann", FirstName: "Ann", LastName: "Lee"}

func newMachine(t *testing.T, menu Menu) (*Machine, *party.Ledger) {
	t.Helper()
	ledger, err := party.NewLedger(context.Background(), nil, party.Meta{Date: "05 March 2026", Place: "Bar"})
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	return NewMachine(ledger, adminChat, menu), ledger
}

func guestEvent(text string) Event {
	return Event{Sender: guest, ChatID: guest.ID, Text: text}
}

// drive runs Start and then feeds inputs, failing on any error.
func drive(t *testing.T, m *Machine, inputs ...string) (State, []party.Message) {
	t.Helper()
	ctx := context.Background()
	st, msgs, err := m.Start(ctx, guestEvent("/start"))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	for _, in := range inputs {
		st, msgs, err = m.Step(ctx, st, guestEvent(in))
		if err != nil {
			t.Fatalf("Step(%q): %v", in, err)
		}
	}
	return st, msgs
}

func TestStartRegistersGuestAndWelcomes(t *testing.T) {
	m, ledger := newMachine(t, nil)
	st, msgs := drive(t, m)

	if _, ok := st.(AwaitingItem); !ok {
		t.Fatalf("state = %#v, want AwaitingItem", st)
	}
	if len(msgs) != 1 || !strings.Contains(msgs[0].Text, "05 March 2026 в Bar") {
		t.Fatalf("unexpected welcome %+v", msgs)
	}
	if msgs[0].Markup.Kind != party.MarkupRemove {
		t.Errorf("welcome markup = %v, want remove", msgs[0].Markup.Kind)
	}
	if _, err := ledger.Guest(guest.ID); err != nil {
		t.Errorf("guest not registered: %v", err)
	}

	// A second /start keeps the existing entry.
	drive(t, m)
	if n := ledger.Info().Guests; n != 1 {
		t.Errorf("guests = %d, want 1", n)
	}
}

func TestConfirmThenDecline(t *testing.T) {
	m, ledger := newMachine(t, nil)
	st, _ := drive(t, m, "Pizza", "500", ReplyYes, "Burger", "300", ReplyNo)

	if _, ok := st.(AwaitingItem); !ok {
		t.Fatalf("state = %#v, want AwaitingItem", st)
	}
	g, err := ledger.Guest(guest.ID)
	if err != nil {
		t.Fatalf("Guest: %v", err)
	}
	if len(g.Orders) != 1 || g.Orders[0] != (party.Order{Item: "Pizza", Cost: 500}) {
		t.Errorf("orders = %+v, want [Pizza 500]", g.Orders)
	}
}

func TestConfirmedSequenceIsStoredInOrder(t *testing.T) {
	m, ledger := newMachine(t, nil)
	drive(t, m,
		"Tea", "100", ReplyYes,
		"Cake", "250", ReplyNo,
		"Wine", "900", ReplyYes,
		"Bread", "0", ReplyYes,
	)
	want := []party.Order{{Item: "Tea", Cost: 100}, {Item: "Wine", Cost: 900}, {Item: "Bread", Cost: 0}}
	g, _ := ledger.Guest(guest.ID)
	if len(g.Orders) != len(want) {
		t.Fatalf("orders = %+v, want %+v", g.Orders, want)
	}
	for i := range want {
		if g.Orders[i] != want[i] {
			t.Errorf("order %d = %+v, want %+v", i, g.Orders[i], want[i])
		}
	}
}

func TestInvalidCostKeepsItem(t *testing.T) {
	m, _ := newMachine(t, nil)
	for _, bad := range []string{"12a", "-5", "1.5", " 12", "", "99999999999999999999"} {
		t.Run(bad, func(t *testing.T) {
			st, msgs := drive(t, m, "Pizza", bad)
			cur, ok := st.(AwaitingCost)
			if !ok {
				t.Fatalf("state = %#v, want AwaitingCost", st)
			}
			if cur.Item != "Pizza" {
				t.Errorf("item = %q, want Pizza", cur.Item)
			}
			if len(msgs) != 1 || !strings.Contains(msgs[0].Text, "Pizza") {
				t.Errorf("expected a re-prompt, got %+v", msgs)
			}
		})
	}
}

func TestCostPromptUsesConfirmKeyboard(t *testing.T) {
	m, _ := newMachine(t, nil)
	st, msgs := drive(t, m, "Pizza", "500")
	if cur, ok := st.(AwaitingConfirmation); !ok || cur.Item != "Pizza" || cur.Cost != 500 {
		t.Fatalf("state = %#v", st)
	}
	if len(msgs) != 1 || msgs[0].Markup.Kind != party.MarkupConfirm {
		t.Fatalf("unexpected prompt %+v", msgs)
	}
}

func TestUnmatchedInputIsIgnored(t *testing.T) {
	m, _ := newMachine(t, nil)

	st, msgs := drive(t, m, "Pizza", "500", "maybe")
	if cur, ok := st.(AwaitingConfirmation); !ok || cur.Item != "Pizza" || cur.Cost != 500 {
		t.Errorf("state = %#v, want unchanged confirmation", st)
	}
	if len(msgs) != 0 {
		t.Errorf("expected no messages, got %+v", msgs)
	}

	st, msgs = drive(t, m, "   ")
	if _, ok := st.(AwaitingItem); !ok || len(msgs) != 0 {
		t.Errorf("blank item: state = %#v, msgs = %+v", st, msgs)
	}
}

func TestConfirmNotifiesAdmin(t *testing.T) {
	m, _ := newMachine(t, nil)
	_, msgs := drive(t, m, "Pizza", "500", ReplyYes)
	if len(msgs) != 2 {
		t.Fatalf("messages = %+v, want guest thanks and admin notice", msgs)
	}
	if msgs[0].ChatID != guest.ID {
		t.Errorf("thanks sent to %d", msgs[0].ChatID)
	}
	notice := msgs[1]
	if notice.ChatID != adminChat {
		t.Errorf("notice sent to %d, want %d", notice.ChatID, adminChat)
	}
	for _, want := range []string{"Ann Lee(@ann)", "Pizza", "500"} {
		if !strings.Contains(notice.Text, want) {
			t.Errorf("notice %q misses %q", notice.Text, want)
		}
	}
}

func TestConfirmWhileClosedEndsSession(t *testing.T) {
	m, ledger := newMachine(t, nil)
	ctx := context.Background()
	st, _ := drive(t, m, "Pizza", "500", ReplyYes, "Burger", "300")

	if _, err := ledger.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	next, msgs, err := m.Step(ctx, st, guestEvent(ReplyYes))
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if next != nil {
		t.Errorf("session must end, got %#v", next)
	}
	if len(msgs) != 1 || msgs[0].ChatID != guest.ID {
		t.Errorf("expected a single terminal message, got %+v", msgs)
	}
	g, _ := ledger.Guest(guest.ID)
	if len(g.Orders) != 1 {
		t.Errorf("orders changed: %+v", g.Orders)
	}
}

func TestConfirmAfterRestartRegistersAgain(t *testing.T) {
	m, ledger := newMachine(t, nil)
	ctx := context.Background()
	st, _ := drive(t, m, "Pizza", "500")

	if _, err := ledger.Reopen(ctx); err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	if _, _, err := m.Step(ctx, st, guestEvent(ReplyYes)); err != nil {
		t.Fatalf("Step: %v", err)
	}
	g, err := ledger.Guest(guest.ID)
	if err != nil || len(g.Orders) != 1 {
		t.Errorf("Guest = %+v, %v", g, err)
	}
}

func TestStepWithoutSessionIsNoop(t *testing.T) {
	m, _ := newMachine(t, nil)
	st, msgs, err := m.Step(context.Background(), nil, guestEvent("Pizza"))
	if st != nil || msgs != nil || err != nil {
		t.Errorf("Step(nil) = %#v, %+v, %v", st, msgs, err)
	}
}

type stubMenu struct {
	labels map[string]string
	err    error
}

func (s stubMenu) Dispatch(_ context.Context, label string) ([]party.Message, bool, error) {
	text, ok := s.labels[label]
	if !ok {
		return nil, false, nil
	}
	return []party.Message{{ChatID: adminChat, Text: text}}, true, s.err
}

func TestAdminStartOpensMenu(t *testing.T) {
	m, ledger := newMachine(t, stubMenu{labels: map[string]string{"Итого": "total"}})
	ctx := context.Background()
	admin := Event{Sender: party.Identity{ID: adminChat}, ChatID: adminChat, Text: "/start"}

	st, msgs, err := m.Start(ctx, admin)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, ok := st.(AdminMenu); !ok {
		t.Fatalf("state = %#v, want AdminMenu", st)
	}
	if len(msgs) != 1 || msgs[0].Markup.Kind != party.MarkupAdminMenu {
		t.Errorf("unexpected menu message %+v", msgs)
	}
	if n := ledger.Info().Guests; n != 0 {
		t.Errorf("admin must not be registered as a guest, guests = %d", n)
	}

	admin.Text = "Итого"
	st, msgs, err = m.Step(ctx, st, admin)
	if err != nil || len(msgs) != 1 || msgs[0].Text != "total" {
		t.Errorf("menu dispatch = %+v, %v", msgs, err)
	}
	if _, ok := st.(AdminMenu); !ok {
		t.Errorf("menu must stay open, got %#v", st)
	}

	admin.Text = "random"
	if _, msgs, _ = m.Step(ctx, st, admin); len(msgs) != 0 {
		t.Errorf("unknown label produced %+v", msgs)
	}
}

func TestParseCost(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"0", 0, true},
		{"500", 500, true},
		{"007", 7, true},
		{"12a", 0, false},
		{"+5", 0, false},
		{"", 0, false},
		{"9223372036854775808", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseCost(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseCost(%q) = %d, %v", tt.in, got, err)
		}
		if err != nil && !errors.Is(err, party.ErrInvalidCost) {
			t.Errorf("ParseCost(%q) error %v is not ErrInvalidCost", tt.in, err)
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	states := []State{AwaitingItem{}, AwaitingCost{Item: "Tea"}, AwaitingConfirmation{Item: "Tea", Cost: 5}, AdminMenu{}}
	for _, st := range states {
		got, err := Decode(Encode(st))
		if err != nil {
			t.Fatalf("Decode(%v): %v", st.Kind(), err)
		}
		if got != st {
			t.Errorf("Decode(Encode(%#v)) = %#v", st, got)
		}
	}
	if _, err := Decode(Record{State: "bogus"}); err == nil {
		t.Error("expected error for unknown state")
	}
}
