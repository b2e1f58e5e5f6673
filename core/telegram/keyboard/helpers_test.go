package keyboard

import "testing"

func TestReplyButtons(t *testing.T) {
	m := ReplyButtons([]string{"a", "b"}, []string{"c"})
	if !m.ResizeKeyboard || m.OneTimeKeyboard {
		t.Fatalf("flags resize=%v one_time=%v", m.ResizeKeyboard, m.OneTimeKeyboard)
	}
	if len(m.ReplyKeyboard) != 2 || len(m.ReplyKeyboard[0]) != 2 || len(m.ReplyKeyboard[1]) != 1 {
		t.Fatalf("layout = %+v", m.ReplyKeyboard)
	}
	if m.ReplyKeyboard[1][0].Text != "c" {
		t.Errorf("label = %q", m.ReplyKeyboard[1][0].Text)
	}
}

func TestOneTimeButtons(t *testing.T) {
	m := OneTimeButtons([]string{"Да", "Нет"})
	if !m.OneTimeKeyboard {
		t.Fatal("keyboard is not one-time")
	}
	if got := m.ReplyKeyboard[0][1].Text; got != "Нет" {
		t.Errorf("second button = %q", got)
	}
}

func TestInlineButtonsRows(t *testing.T) {
	m := InlineButtonsRows([]InlineBtn{{Text: "Bill", Unique: "bill", Data: "7"}, {Text: "Paid", Unique: "paid", Data: "7"}})
	if len(m.InlineKeyboard) != 1 || len(m.InlineKeyboard[0]) != 2 {
		t.Fatalf("layout = %+v", m.InlineKeyboard)
	}
	if btn := m.InlineKeyboard[0][1]; btn.Unique != "paid" || btn.Data != "7" {
		t.Errorf("button = %+v", btn)
	}
}

func TestRemoveKeyboard(t *testing.T) {
	if !RemoveKeyboard().RemoveKeyboard {
		t.Fatal("remove flag not set")
	}
}
