// Package bot assembles the Telegram application: configuration, the
// record store, the mailbox provider client, the points ledger, and all
// command/callback handlers.
package bot

import (
	"context"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	coreconfig "dropbot/core/config"
	"dropbot/core/logger"
	coretelegram "dropbot/core/telegram"
	"dropbot/core/telegram/commands"
	tghelpers "dropbot/core/telegram/helpers"
	"dropbot/core/telegram/router"
	"dropbot/internal/ledger"
	"dropbot/internal/mailbox"
	"dropbot/internal/session"
	"dropbot/internal/store"
)

// App wires services to the Telegram runtime. It satisfies the runner's
// App interface.
type App struct {
	cfg      *coreconfig.Config
	store    store.Store
	sessions *session.Repo
	mail     *mailbox.Client
	ledger   *ledger.Service
	reg      *coretelegram.Registry

	// botUser holds the bot's username once the runtime reports it;
	// referral links need it and it is only known after connect.
	botUser atomic.Value
}

// Bootstrap initialises logging and infrastructure and builds the app.
func Bootstrap(ctx context.Context, cfg *coreconfig.Config) (*App, error) {
	if err := logger.InitLogger(cfg); err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		store:    st,
		sessions: session.NewRepo(st),
		mail:     mailbox.New(cfg.Mailbox),
		ledger:   ledger.NewService(st, cfg.Ledger),
	}
	a.reg = a.buildRegistry()
	return a, nil
}

// CoreConfig returns the loaded configuration.
func (a *App) CoreConfig() *coreconfig.Config {
	return a.cfg
}

// Close releases the record store.
func (a *App) Close() error {
	return a.store.Close()
}

func (a *App) botUsername() string {
	if v, ok := a.botUser.Load().(string); ok && v != "" {
		return v
	}
	return "bot"
}

func (a *App) buildRegistry() *coretelegram.Registry {
	reg := coretelegram.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Main menu",
	})
	reg.RegisterCommand("/myemail", commands.Command{
		Handler:     a.handleMyEmail,
		Description: "Show your current address",
		Aliases:     []string{"email"},
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp,
		Description: "How this bot works",
	})

	reg.RegisterCommand("/daily", commands.Command{
		Handler:     a.handleDaily,
		Description: "Claim the daily bonus",
	})
	reg.RegisterCommand("/points", commands.Command{
		Handler:     a.handlePoints,
		Description: "Your balance",
		Aliases:     []string{"balance"},
	})
	reg.RegisterCommand("/ref", commands.Command{
		Handler:     a.handleRef,
		Description: "Your referral link",
	})
	reg.RegisterCommand("/top", commands.Command{
		Handler:     a.handleTop,
		Description: "Top referrers",
	})
	reg.RegisterCommand("/redeem", commands.Command{
		Handler:     a.handleRedeem,
		Description: "Redeem a promo code",
	})

	reg.RegisterCommand("/gen", commands.Command{
		Handler:     a.handleGen,
		Description: "Mint a redeem code",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/grant", commands.Command{
		Handler:     a.handleGrant,
		Description: "Credit a user's balance",
		AdminOnly:   true,
		Hidden:      true,
	})

	_ = reg.RegisterCallback(cbGenNew, a.cbShowDomains)
	_ = reg.RegisterCallback(cbGenDomain, a.cbGenerate)
	_ = reg.RegisterCallback(cbRefresh, a.cbRefreshInbox)
	_ = reg.RegisterCallback(cbRead, a.cbReadMessage)
	_ = reg.RegisterCallback(cbBack, a.cbBackMain)
	_ = reg.RegisterCallback(cbDelete, a.cbDeleteMailbox)

	reg.SetTextFallback(a.handleUnknownText)
	return reg
}

// TelegramRunOptions builds the full route table and middleware chain.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	routes := router.CommandRoutes(a.reg, router.CommandRouteOptions{
		AdminIDs: a.cfg.Telegram.AdminIDs,
		OnAdminReject: func(c tele.Context) error {
			return tghelpers.SendText(c, textAdminsOnly)
		},
	})
	routes = append(routes, router.TextRoutes(a.reg, router.TextOptions{
		UnknownText: a.handleUnknownText,
	})...)
	routes = append(routes, router.CallbackRoute(a.reg, router.CallbackOptions{}))

	middlewares := coretelegram.DefaultMiddlewares(a.cfg, func(c tele.Context) error {
		return tghelpers.SendText(c, textRateLimited)
	})

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    a.reg,
		Middlewares: middlewares,
		Routes:      routes,
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			if rt.Bot != nil && rt.Bot.Me != nil {
				a.botUser.Store(rt.Bot.Me.Username)
			}
			return nil
		},
	}, nil
}
