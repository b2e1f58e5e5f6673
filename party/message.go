package party

// MarkupKind selects the keyboard attached to an outbound message.
type MarkupKind int

const (
	// MarkupNone leaves the current keyboard untouched.
	MarkupNone MarkupKind = iota
	// MarkupRemove hides the reply keyboard.
	MarkupRemove
	// MarkupConfirm shows the one-time yes/no reply keyboard.
	MarkupConfirm
	// MarkupAdminMenu shows the admin command keyboard.
	MarkupAdminMenu
	// MarkupGuestActions attaches inline "send bill" / "mark paid" buttons for GuestID.
	MarkupGuestActions
)

// Markup describes a keyboard independent of the transport.
type Markup struct {
	Kind    MarkupKind
	GuestID int64
}

// Message is an outbound text for a chat.
type Message struct {
	ChatID int64
	Text   string
	Markup Markup
}
