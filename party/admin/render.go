package admin

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/m3rciful/partybot/party"
)

func guestLabel(g party.Guest) string {
	if name := g.DisplayName(); name != "" {
		return fmt.Sprintf("%s [id %d]", name, g.ID)
	}
	return fmt.Sprintf("[id %d]", g.ID)
}

func yesNo(v bool) string {
	if v {
		return "да"
	}
	return "нет"
}

func statusText(s party.Status) string {
	if s == party.StatusClosed {
		return "закрыта"
	}
	return "идет"
}

// messageLimit stays under Telegram's 4096 character cap on message text.
const messageLimit = 4000

func guestBlock(g party.Guest) string {
	var b strings.Builder
	b.WriteString(guestLabel(g))
	b.WriteByte('\n')
	if len(g.Orders) == 0 {
		b.WriteString("  заказов нет\n")
	}
	for _, o := range g.Orders {
		fmt.Fprintf(&b, "  - %s: %d\n", o.Item, o.Cost)
	}
	fmt.Fprintf(&b, "  Сумма: %d | счет отправлен: %s | оплачено: %s\n",
		g.Subtotal(), yesNo(g.BillSent), yesNo(g.BillPaid))
	return b.String()
}

// renderSummary lists the guests of s under title, ending with the total.
// Long lists are split between guests into several texts.
func renderSummary(title, totalLabel, empty string, s party.Summary) []string {
	if len(s.Guests) == 0 {
		return []string{empty}
	}
	blocks := make([]string, 0, len(s.Guests)+2)
	blocks = append(blocks, title)
	for _, g := range s.Guests {
		blocks = append(blocks, guestBlock(g))
	}
	blocks = append(blocks, fmt.Sprintf("%s: %d", totalLabel, s.Total))
	return chunkText(blocks, messageLimit)
}

// chunkText joins blocks with blank lines into texts of at most limit runes.
// Texts break between blocks; a block longer than limit breaks between its
// lines, and a single overlong line is cut.
func chunkText(blocks []string, limit int) []string {
	var (
		out  []string
		buf  strings.Builder
		size int
		sep  = "\n\n"
	)
	flush := func() {
		if size > 0 {
			out = append(out, strings.TrimRight(buf.String(), "\n"))
			buf.Reset()
			size = 0
		}
	}
	add := func(piece string) {
		n := utf8.RuneCountInString(piece)
		if n > limit {
			piece = string([]rune(piece)[:limit])
			n = limit
		}
		if size > 0 && size+len(sep)+n > limit {
			flush()
		}
		if size > 0 {
			buf.WriteString(sep)
			size += len(sep)
		}
		buf.WriteString(piece)
		size += n
	}
	for _, block := range blocks {
		block = strings.TrimRight(block, "\n")
		if utf8.RuneCountInString(block) <= limit {
			add(block)
			continue
		}
		flush()
		sep = "\n"
		for _, line := range strings.Split(block, "\n") {
			add(line)
		}
		sep = "\n\n"
	}
	flush()
	return out
}

func renderBill(meta party.Meta, g party.Guest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Счет за вечеринку %s в %s\n\n", meta.Date, meta.Place)
	for i, o := range g.Orders {
		fmt.Fprintf(&b, "%d. %s: %d\n", i+1, o.Item, o.Cost)
	}
	fmt.Fprintf(&b, "\nИтого к оплате: %d", g.Subtotal())
	return b.String()
}

func renderDebtor(g party.Guest) string {
	return fmt.Sprintf("%s\nДолг: %d | счет отправлен: %s", guestLabel(g), g.Subtotal(), yesNo(g.BillSent))
}

func renderInfo(info party.Info) string {
	return fmt.Sprintf("Вечеринка: %s\nМесто: %s\nСтатус: %s\nГостей: %d",
		info.Date, info.Place, statusText(info.Status), info.Guests)
}
