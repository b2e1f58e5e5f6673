package telegram

import (
	"testing"
	"time"

	coreconfig "github.com/m3rciful/partybot/core/config"

	tele "gopkg.in/telebot.v4"
)

func TestBuildPoller(t *testing.T) {
	lp, ok := BuildPoller(coreconfig.TelegramConfig{RunMode: coreconfig.RunModeLongpoll}, coreconfig.WebhookConfig{}).(*tele.LongPoller)
	if !ok {
		t.Fatal("longpoll mode did not build a long poller")
	}
	if lp.Timeout != defaultPollTimeout {
		t.Errorf("timeout = %s, want default", lp.Timeout)
	}

	lp = BuildPoller(coreconfig.TelegramConfig{RunMode: coreconfig.RunModeLongpoll, LongPollTimeoutSeconds: 25}, coreconfig.WebhookConfig{}).(*tele.LongPoller)
	if lp.Timeout != 25*time.Second {
		t.Errorf("timeout = %s, want 25s", lp.Timeout)
	}

	wh, ok := BuildPoller(
		coreconfig.TelegramConfig{RunMode: coreconfig.RunModeWebhook},
		coreconfig.WebhookConfig{Listen: "0.0.0.0", Port: 8443, URL: "https://party.example/hook"},
	).(*tele.Webhook)
	if !ok {
		t.Fatal("webhook mode did not build a webhook")
	}
	if wh.Listen != "0.0.0.0:8443" || wh.Endpoint.PublicURL != "https://party.example/hook" {
		t.Errorf("webhook = %+v", wh)
	}
	if len(wh.AllowedUpdates) != 2 {
		t.Errorf("allowed updates = %v", wh.AllowedUpdates)
	}
}
