package admin

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/m3rciful/partybot/party"
)

const adminChat int64 = 999

func seeded(t *testing.T) (*Commands, *party.Ledger) {
	t.Helper()
	ctx := context.Background()
	ledger, err := party.NewLedger(ctx, nil, party.Meta{Date: "05 March 2026", Place: "Bar"})
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	guests := []struct {
		id     party.Identity
		orders []party.Order
	}{
		{party.Identity{ID: 1, Username: "ann", FirstName: "Ann"}, []party.Order{{Item: "Pizza", Cost: 500}, {Item: "Beer", Cost: 250}}},
		{party.Identity{ID: 2, FirstName: "Bob", LastName: "Ray"}, []party.Order{{Item: "Tea", Cost: 100}}},
		{party.Identity{ID: 3}, nil},
	}
	for _, g := range guests {
		if _, _, err := ledger.Register(ctx, g.id); err != nil {
			t.Fatalf("Register: %v", err)
		}
		for _, o := range g.orders {
			if _, err := ledger.AddOrder(ctx, g.id.ID, o); err != nil {
				t.Fatalf("AddOrder: %v", err)
			}
		}
	}
	return New(ledger, adminChat), ledger
}

func TestTotalRendersAllGuests(t *testing.T) {
	c, _ := seeded(t)
	msgs := c.Total(context.Background())
	if len(msgs) != 1 || msgs[0].ChatID != adminChat {
		t.Fatalf("unexpected messages %+v", msgs)
	}
	text := msgs[0].Text
	for _, want := range []string{"Ann (@ann) [id 1]", "Bob Ray [id 2]", "[id 3]", "Pizza: 500", "Итого: 850"} {
		if !strings.Contains(text, want) {
			t.Errorf("total misses %q:\n%s", want, text)
		}
	}
	if strings.Index(text, "[id 1]") > strings.Index(text, "[id 2]") {
		t.Error("guests must be rendered in registration order")
	}
}

func TestTotalEmptyParty(t *testing.T) {
	ledger, _ := party.NewLedger(context.Background(), nil, party.Meta{})
	msgs := New(ledger, adminChat).Total(context.Background())
	if len(msgs) != 1 || !strings.Contains(msgs[0].Text, "нет ни одного гостя") {
		t.Errorf("unexpected %+v", msgs)
	}
}

func TestDebtorsAttachGuestActions(t *testing.T) {
	c, ledger := seeded(t)
	ctx := context.Background()
	if _, _, err := ledger.MarkPaid(ctx, 1); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	msgs := c.Debtors(ctx)
	if len(msgs) != 3 {
		t.Fatalf("want summary plus two debtors, got %d messages", len(msgs))
	}
	if !strings.Contains(msgs[0].Text, "Итого долг: 100") {
		t.Errorf("summary = %q", msgs[0].Text)
	}
	if strings.Contains(msgs[0].Text, "[id 1]") {
		t.Error("paid guest listed as debtor")
	}
	for i, id := range []int64{2, 3} {
		m := msgs[i+1]
		if m.Markup.Kind != party.MarkupGuestActions || m.Markup.GuestID != id {
			t.Errorf("debtor %d markup = %+v", id, m.Markup)
		}
	}
}

func TestSendBillsMarksUnpaidGuests(t *testing.T) {
	c, ledger := seeded(t)
	ctx := context.Background()
	if _, _, err := ledger.MarkPaid(ctx, 2); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	msgs, err := c.SendBills(ctx)
	if err != nil {
		t.Fatalf("SendBills: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("want two bills and a report, got %+v", msgs)
	}
	if msgs[0].ChatID != 1 || !strings.Contains(msgs[0].Text, "Итого к оплате: 750") {
		t.Errorf("bill for guest 1 = %+v", msgs[0])
	}
	if msgs[1].ChatID != 3 {
		t.Errorf("second bill sent to %d", msgs[1].ChatID)
	}
	if last := msgs[2]; last.ChatID != adminChat || !strings.Contains(last.Text, "2") {
		t.Errorf("report = %+v", last)
	}

	for id, want := range map[int64]bool{1: true, 2: false, 3: true} {
		g, _ := ledger.Guest(id)
		if g.BillSent != want {
			t.Errorf("guest %d bill_sent = %v, want %v", id, g.BillSent, want)
		}
	}
}

func TestSendSingleBill(t *testing.T) {
	c, ledger := seeded(t)
	ctx := context.Background()

	msgs, err := c.SendSingleBill(ctx, 2)
	if err != nil {
		t.Fatalf("SendSingleBill: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ChatID != 2 || msgs[1].ChatID != adminChat {
		t.Fatalf("unexpected %+v", msgs)
	}
	if want := "Счет отправлен: Bob Ray [id 2], 100"; msgs[1].Text != want {
		t.Errorf("confirmation = %q, want %q", msgs[1].Text, want)
	}
	if g, _ := ledger.Guest(2); !g.BillSent {
		t.Error("bill_sent not set")
	}

	msgs, err = c.SendSingleBill(ctx, 42)
	if err != nil {
		t.Fatalf("unknown guest must not fail: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ChatID != adminChat || !strings.Contains(msgs[0].Text, "42") {
		t.Errorf("not-found report = %+v", msgs)
	}
}

func TestMarkPaidReportsRepeat(t *testing.T) {
	c, ledger := seeded(t)
	ctx := context.Background()

	first, err := c.MarkPaid(ctx, 1)
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	second, err := c.MarkPaid(ctx, 1)
	if err != nil {
		t.Fatalf("MarkPaid repeat: %v", err)
	}
	if first[0].Text == second[0].Text {
		t.Error("repeat should be reported differently")
	}
	g, _ := ledger.Guest(1)
	if !g.BillPaid || g.BillSent {
		t.Errorf("flags = paid %v sent %v", g.BillPaid, g.BillSent)
	}

	msgs, err := c.MarkPaid(ctx, 77)
	if err != nil || len(msgs) != 1 || !strings.Contains(msgs[0].Text, "77") {
		t.Errorf("not-found = %+v, %v", msgs, err)
	}
}

func TestCloseAndReopen(t *testing.T) {
	c, ledger := seeded(t)
	ctx := context.Background()

	if _, err := c.CloseParty(ctx); err != nil {
		t.Fatalf("CloseParty: %v", err)
	}
	if ledger.Info().Status != party.StatusClosed {
		t.Fatal("party not closed")
	}
	msgs, _ := c.CloseParty(ctx)
	if !strings.Contains(msgs[0].Text, "уже") {
		t.Errorf("repeat close = %q", msgs[0].Text)
	}

	if _, err := c.ReopenParty(ctx); err != nil {
		t.Fatalf("ReopenParty: %v", err)
	}
	info := ledger.Info()
	if info.Status != party.StatusInProgress || info.Guests != 0 {
		t.Errorf("after reopen: %+v", info)
	}
}

func TestPartyInfoAndSetters(t *testing.T) {
	c, _ := seeded(t)
	ctx := context.Background()

	if _, err := c.SetDate(ctx, "2026-12-31"); err != nil {
		t.Fatalf("SetDate: %v", err)
	}
	if _, err := c.SetPlace(ctx, "  Roof  "); err != nil {
		t.Fatalf("SetPlace: %v", err)
	}
	text := c.PartyInfo(ctx)[0].Text
	for _, want := range []string{"31 December 2026", "Место: Roof", "Статус: идет", "Гостей: 3"} {
		if !strings.Contains(text, want) {
			t.Errorf("info misses %q:\n%s", want, text)
		}
	}

	msgs, err := c.SetDate(ctx, "someday")
	if err != nil || !strings.Contains(msgs[0].Text, "Не понял") {
		t.Errorf("bad date = %+v, %v", msgs, err)
	}
	msgs, err = c.SetPlace(ctx, " ")
	if err != nil || !strings.Contains(msgs[0].Text, "/set_place") {
		t.Errorf("empty place = %+v, %v", msgs, err)
	}
}

func TestDispatchMenuLabels(t *testing.T) {
	c, _ := seeded(t)
	ctx := context.Background()
	for _, row := range MenuRows {
		for _, label := range row {
			if label == LabelRestart || label == LabelClose || label == LabelBills {
				continue
			}
			if _, ok, err := c.Dispatch(ctx, label); !ok || err != nil {
				t.Errorf("Dispatch(%q) = ok %v, err %v", label, ok, err)
			}
		}
	}
	if _, ok, _ := c.Dispatch(ctx, "Pizza"); ok {
		t.Error("non-menu text must not dispatch")
	}
}

func TestDebtorDigestSkipsWhenAllPaid(t *testing.T) {
	c, ledger := seeded(t)
	ctx := context.Background()
	if msgs := c.DebtorDigest(ctx); len(msgs) != 1 {
		t.Fatalf("digest = %+v", msgs)
	}
	for _, id := range []int64{1, 2, 3} {
		if _, _, err := ledger.MarkPaid(ctx, id); err != nil {
			t.Fatalf("MarkPaid: %v", err)
		}
	}
	if msgs := c.DebtorDigest(ctx); msgs != nil {
		t.Errorf("digest with no debtors = %+v", msgs)
	}
}

func TestTotalSplitsLongLedger(t *testing.T) {
	ctx := context.Background()
	ledger, err := party.NewLedger(ctx, nil, party.Meta{})
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	var want int64
	for id := int64(1); id <= 40; id++ {
		if _, _, err := ledger.Register(ctx, party.Identity{ID: id, FirstName: "Гость", LastName: strings.Repeat("Ф", 20)}); err != nil {
			t.Fatalf("Register: %v", err)
		}
		for i := int64(1); i <= 3; i++ {
			o := party.Order{Item: "Пицца с ананасами и двойным сыром", Cost: 100 * i}
			if _, err := ledger.AddOrder(ctx, id, o); err != nil {
				t.Fatalf("AddOrder: %v", err)
			}
			want += o.Cost
		}
	}

	msgs := New(ledger, adminChat).Total(ctx)
	if len(msgs) < 2 {
		t.Fatalf("ledger rendered as %d message(s), want a split", len(msgs))
	}
	var joined strings.Builder
	for _, m := range msgs {
		if n := utf8.RuneCountInString(m.Text); n > messageLimit {
			t.Errorf("message has %d runes, limit %d", n, messageLimit)
		}
		if m.ChatID != adminChat {
			t.Errorf("message sent to %d", m.ChatID)
		}
		joined.WriteString(m.Text)
		joined.WriteString("\n")
	}
	all := joined.String()
	for id := 1; id <= 40; id++ {
		if c := strings.Count(all, fmt.Sprintf("[id %d]\n", id)); c != 1 {
			t.Errorf("guest %d rendered %d times", id, c)
		}
	}
	if !strings.HasSuffix(msgs[len(msgs)-1].Text, fmt.Sprintf("Итого: %d", want)) {
		t.Errorf("last message does not end with the total")
	}
}

func TestChunkText(t *testing.T) {
	tests := []struct {
		name   string
		blocks []string
		limit  int
		want   []string
	}{
		{"fits", []string{"a", "b"}, 10, []string{"a\n\nb"}},
		{"break between blocks", []string{"aaaa", "bbbb"}, 8, []string{"aaaa", "bbbb"}},
		{"oversized block breaks on lines", []string{"aa\nbb\ncc"}, 5, []string{"aa\nbb", "cc"}},
		{"overlong line is cut", []string{"абвгдеж"}, 3, []string{"абв"}},
		{"empty", nil, 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chunkText(tt.blocks, tt.limit)
			if fmt.Sprint(got) != fmt.Sprint(tt.want) || len(got) != len(tt.want) {
				t.Errorf("chunkText = %q, want %q", got, tt.want)
			}
		})
	}
}
