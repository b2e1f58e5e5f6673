package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command is one registry entry.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are wrapped with the admin check and published
	// only in the admin chat's command menu.
	AdminOnly bool
	// Hidden commands are routed but never published.
	Hidden bool
}
