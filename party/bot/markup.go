package bot

import (
	"strconv"

	"github.com/m3rciful/partybot/core/telegram/keyboard"
	"github.com/m3rciful/partybot/party"
	"github.com/m3rciful/partybot/party/admin"
	"github.com/m3rciful/partybot/party/conversation"

	tele "gopkg.in/telebot.v4"
)

// Guest action button labels.
const (
	LabelSendBill = "Отправить счет"
	LabelMarkPaid = "Оплачено"
)

// SendOptions maps a domain keyboard onto telebot send options.
// MarkupNone returns nil so the chat keeps its current keyboard.
func SendOptions(m party.Markup) *tele.SendOptions {
	var markup *tele.ReplyMarkup
	switch m.Kind {
	case party.MarkupRemove:
		markup = keyboard.RemoveKeyboard()
	case party.MarkupConfirm:
		markup = keyboard.OneTimeButtons([]string{conversation.ReplyYes, conversation.ReplyNo})
	case party.MarkupAdminMenu:
		markup = keyboard.ReplyButtons(admin.MenuRows...)
	case party.MarkupGuestActions:
		id := strconv.FormatInt(m.GuestID, 10)
		markup = keyboard.InlineButtonsRows([]keyboard.InlineBtn{
			{Text: LabelSendBill, Unique: CallbackBill, Data: id},
			{Text: LabelMarkPaid, Unique: CallbackPaid, Data: id},
		})
	default:
		return nil
	}
	return &tele.SendOptions{ReplyMarkup: markup}
}
