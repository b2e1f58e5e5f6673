package conversation

import "fmt"

const (
	// ReplyYes commits the pending order.
	ReplyYes = "Да"
	// ReplyNo discards the pending order.
	ReplyNo = "Нет"
)

func welcomeText(date, place string) string {
	return fmt.Sprintf("Привет!\nЯ учитываю заказы нашей компании на вечеринке %s в %s\n"+
		"Напиши мне примерное название того что ты хочешь заказать", date, place)
}

func askCostText(item string) string {
	return fmt.Sprintf("Ты заказал:\n%s\nНапиши стоимость, "+
		"чтобы мы потом правильно разделили итоговый счет на всех.", item)
}

func invalidCostText(item string) string {
	return fmt.Sprintf("Стоимость нужно прислать целым числом, например 500.\n"+
		"Напиши стоимость для:\n%s", item)
}

func confirmText(item string, cost int64) string {
	return fmt.Sprintf("Ок. Ты заказал:\n%s\nСтоимость:\n%d\n"+
		"Нажми \"%s\", если все верно, или \"%s\", если хочешь прислать заказ заново",
		item, cost, ReplyYes, ReplyNo)
}

func thanksText(item string, cost int64) string {
	return fmt.Sprintf("Спасибо, что ты заказал:\n%s\nСтоимость:\n%d\n"+
		"Я записал заказ в общий список и учту его при разделе счета.\n"+
		"Если захочешь добавить что-то еще, то опять присылай название.", item, cost)
}

const declineText = "Ок. Отменяем. Попробуй ввести название заново."

const closedText = "Вечеринка уже закрыта, новые заказы не принимаются.\n" +
	"Если что-то забыли, напиши организатору."

const adminMenuText = "Меню организатора. Выбери действие на клавиатуре или набери /help."

func adminNoticeText(display string, item string, cost int64) string {
	return fmt.Sprintf("%s заказал(а):\n%s\nСтоимость: %d", display, item, cost)
}
