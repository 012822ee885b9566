// Package bot binds the conversation engine to the Telegram transport:
// command routing, callback routing, free-text dispatch, and the
// process lifecycle around them.
package bot

import (
	"context"
	"errors"

	"github.com/subtrackr/bot/core/bootstrap"
	coreconfig "github.com/subtrackr/bot/core/config"
	"github.com/subtrackr/bot/core/health"
	tg "github.com/subtrackr/bot/core/telegram"
	"github.com/subtrackr/bot/core/telegram/router"
	"github.com/subtrackr/bot/core/telegram/ui"
	"github.com/subtrackr/bot/internal/engine"
	"github.com/subtrackr/bot/internal/session"
)

var _ ui.FallbackProvider = (*App)(nil)

// App aggregates everything the bot process needs at runtime.
type App struct {
	cfg      *coreconfig.Config
	store    session.Store
	sessions *session.Registry
	engine   *engine.Engine
	sender   *Sender
	registry *tg.Registry
	health   *health.Server
}

// NewApp bootstraps infrastructure and wires the conversation engine
// into a command registry.
func NewApp(cfg *coreconfig.Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}

	snd := NewSender()
	a := &App{
		cfg:      cfg,
		store:    res.Store,
		sessions: res.Sessions,
		engine:   engine.New(res.Sessions, res.Backend, snd),
		sender:   snd,
		registry: tg.NewRegistry(),
	}
	if cfg.Health.Listen != "" {
		a.health = health.NewServer(cfg.Health.Listen)
	}

	a.registerCommands()
	a.registerCallbacks()
	a.registry.SetTextFallback(conversationBridge{a.engine}.ManagerHandler)
	a.registry.SetCallbackNotFound(a.UnknownCallback())
	return a, nil
}

// CoreConfig exposes the embedded core configuration.
func (a *App) CoreConfig() *coreconfig.Config { return a.cfg }

// TelegramRunOptions assembles the bot runtime wiring.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	bridge := conversationBridge{a.engine}

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
	})
	routes = append(routes, router.TextRoutes(bridge, a.registry, router.TextOptions{
		UnknownText:     a.UnknownText(),
		UnknownDocument: a.UnknownDocument(),
	})...)
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))

	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) error {
	a.sender.Bind(rt.Bot, rt.Dispatcher)
	if a.health != nil {
		return a.health.Start(ctx)
	}
	return nil
}

func (a *App) onStop(ctx context.Context, _ tg.Runtime) error {
	var errs []error
	if a.health != nil {
		errs = append(errs, a.health.Stop(ctx))
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}
