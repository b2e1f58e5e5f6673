package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/partybot/core/bootstrap"
	corecmd "github.com/m3rciful/partybot/core/cmd"
	coreconfig "github.com/m3rciful/partybot/core/config"
	"github.com/m3rciful/partybot/core/metrics"
	tg "github.com/m3rciful/partybot/core/telegram"
	"github.com/m3rciful/partybot/core/telegram/helpers"
	"github.com/m3rciful/partybot/core/telegram/state"
	"github.com/m3rciful/partybot/party"
	"github.com/m3rciful/partybot/party/admin"
	"github.com/m3rciful/partybot/party/bot"
	"github.com/m3rciful/partybot/party/conversation"
	"github.com/m3rciful/partybot/party/digest"
	"github.com/m3rciful/partybot/party/store"

	tele "gopkg.in/telebot.v4"
)

const (
	rateLimitedText = "Слишком быстро, подожди пару секунд."
	shutdownTimeout = 10 * time.Second
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        coreconfig.Load,
		Build:             build,
	})
	if err != nil {
		log.Fatal(err)
	}
}

func build(ctx context.Context, cfg *coreconfig.Config) (tg.RunOptions, error) {
	infra, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		return tg.RunOptions{}, err
	}
	db := infra.DB

	ledger, err := party.NewLedger(ctx, store.New(db), party.Meta{Date: cfg.Party.Date, Place: cfg.Party.Place})
	if err != nil {
		_ = db.Close()
		return tg.RunOptions{}, fmt.Errorf("ledger: %w", err)
	}
	adminID := cfg.Telegram.AdminID
	cmds := admin.New(ledger, adminID)
	machine := conversation.NewMachine(ledger, adminID, cmds)
	sessions := state.NewManager[conversation.State](store.NewSessions(db))

	b := bot.New(machine, cmds, sessions, adminID)
	if err := b.Restore(ctx); err != nil {
		_ = db.Close()
		return tg.RunOptions{}, err
	}
	reg := tg.NewRegistry()
	if err := b.Register(reg); err != nil {
		_ = db.Close()
		return tg.RunOptions{}, err
	}

	var api atomic.Pointer[tele.Bot]
	sched, err := digest.New(cfg.Digest.Cron, func(ctx context.Context) error {
		tb := api.Load()
		if tb == nil {
			return errors.New("bot is not running")
		}
		return b.Digest(ctx, tb)
	})
	if err != nil {
		_ = db.Close()
		return tg.RunOptions{}, err
	}

	var ops *metrics.Server
	if cfg.Metrics.Listen != "" {
		ops = metrics.NewServer(cfg.Metrics.Listen)
	}

	return tg.RunOptions{
		Config:      cfg,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(cfg, func(c tele.Context) error { return helpers.SendText(c, rateLimitedText) }),
		Routes:      b.Routes(reg),
		OnStart: func(_ context.Context, rt tg.Runtime) error {
			api.Store(rt.Bot)
			if ops != nil {
				ops.Start()
			}
			sched.Start()
			return nil
		},
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			return shutdown(ctx, sched, ops, db)
		},
	}, nil
}

func shutdown(ctx context.Context, sched *digest.Scheduler, ops *metrics.Server, db *sqlx.DB) error {
	// The run context is already cancelled on signal shutdown.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	sched.Stop(ctx)
	var errs []error
	if ops != nil {
		if err := ops.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("ops server: %w", err))
		}
	}
	if err := db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("db close: %w", err))
	}
	return errors.Join(errs...)
}
