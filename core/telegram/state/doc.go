// Package state provides a lightweight FSM session manager for Telegram bots.
// Sessions are keyed by chat id and typed by the bot's own state type.
package state
