package telegram

import (
	"fmt"
	"time"

	coreconfig "github.com/m3rciful/partybot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultPollTimeout = 10 * time.Second

// BuildPoller returns the webhook or long poller selected by the normalized config.
// Long polling only asks for the update kinds the bot handles.
func BuildPoller(tg coreconfig.TelegramConfig, wh coreconfig.WebhookConfig) tele.Poller {
	allowed := []string{"message", "callback_query"}
	if tg.RunMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:         fmt.Sprintf("%s:%d", wh.Listen, wh.Port),
			AllowedUpdates: allowed,
			Endpoint:       &tele.WebhookEndpoint{PublicURL: wh.URL},
		}
	}

	timeout := defaultPollTimeout
	if tg.LongPollTimeoutSeconds > 0 {
		timeout = time.Duration(tg.LongPollTimeoutSeconds) * time.Second
	}
	return &tele.LongPoller{Timeout: timeout, AllowedUpdates: allowed}
}
