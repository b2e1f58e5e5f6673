package bot

import (
	"testing"

	"github.com/m3rciful/partybot/party"
	"github.com/m3rciful/partybot/party/admin"
)

func TestSendOptions(t *testing.T) {
	if opts := SendOptions(party.Markup{}); opts != nil {
		t.Fatalf("none = %+v, want nil", opts)
	}
	if m := SendOptions(party.Markup{Kind: party.MarkupRemove}).ReplyMarkup; !m.RemoveKeyboard {
		t.Error("remove markup keeps the keyboard")
	}

	confirm := SendOptions(party.Markup{Kind: party.MarkupConfirm}).ReplyMarkup
	if !confirm.OneTimeKeyboard || len(confirm.ReplyKeyboard) != 1 {
		t.Fatalf("confirm = %+v", confirm)
	}
	if row := confirm.ReplyKeyboard[0]; row[0].Text != "Да" || row[1].Text != "Нет" {
		t.Errorf("confirm row = %+v", row)
	}

	menu := SendOptions(party.Markup{Kind: party.MarkupAdminMenu}).ReplyMarkup
	if len(menu.ReplyKeyboard) != len(admin.MenuRows) || menu.ReplyKeyboard[0][0].Text != admin.LabelTotal {
		t.Errorf("menu = %+v", menu.ReplyKeyboard)
	}

	actions := SendOptions(party.Markup{Kind: party.MarkupGuestActions, GuestID: 42}).ReplyMarkup
	if len(actions.InlineKeyboard) != 1 || len(actions.InlineKeyboard[0]) != 2 {
		t.Fatalf("actions = %+v", actions.InlineKeyboard)
	}
	for i, unique := range []string{CallbackBill, CallbackPaid} {
		btn := actions.InlineKeyboard[0][i]
		if btn.Unique != unique || btn.Data != "42" {
			t.Errorf("button %d = %+v", i, btn)
		}
	}
}
