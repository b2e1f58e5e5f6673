package middleware

import tele "gopkg.in/telebot.v4"

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// IsAdmin reports whether the update comes from the admin chat or the admin user.
func IsAdmin(c tele.Context, adminID int64) bool {
	if adminID == 0 {
		return true
	}
	if chat := c.Chat(); chat != nil && chat.ID == adminID {
		return true
	}
	if user := c.Sender(); user != nil && user.ID == adminID {
		return true
	}
	return false
}

// AdminOnlyMiddleware ensures that only the admin can invoke downstream handlers.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if !IsAdmin(c, opts.AdminID) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
