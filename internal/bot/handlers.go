package bot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/subtrackr/bot/core/buildinfo"
	"github.com/subtrackr/bot/core/telegram/commands"
	tghelpers "github.com/subtrackr/bot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// chatSession derives the session identifier from the chat. Sessions
// are chat-scoped, so the same user in two chats holds two sessions.
func chatSession(c tele.Context) string {
	return strconv.FormatInt(c.Chat().ID, 10)
}

func (a *App) registerCommands() {
	reg := a.registry

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.simple(a.engine.Start),
		Description: "Start the bot",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.simple(a.engine.Help),
		Description: "Show available commands",
	})
	reg.RegisterCommand("/login", commands.Command{
		Handler:     a.simple(a.engine.StartLogin),
		Description: "Sign in to your account",
	})
	reg.RegisterCommand("/add", commands.Command{
		Handler:     a.simple(a.engine.StartAdd),
		Description: "Add a subscription",
	})
	reg.RegisterCommand("/list", commands.Command{
		Handler:     a.simple(a.engine.List),
		Description: "Show your subscriptions",
	})
	reg.RegisterCommand("/delete", commands.Command{
		Handler:     a.deleteHandler,
		Description: "Delete a subscription by ID",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.simple(a.engine.Stats),
		Description: "Spending statistics",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.simple(a.engine.Cancel),
		Description: "Abandon the current dialog",
	})
	reg.RegisterCommand("/version", commands.Command{
		Handler:     versionHandler,
		Description: "Show build version",
		AdminOnly:   true,
		Hidden:      true,
	})
}

// simple adapts an engine operation that needs only the session id.
func (a *App) simple(fn func(context.Context, string) error) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		return fn(ctx, chatSession(c))
	}
}

func (a *App) deleteHandler(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return a.engine.Delete(ctx, chatSession(c), c.Message().Payload)
}

func versionHandler(c tele.Context) error {
	text := fmt.Sprintf("SubTracker bot %s (%s)", buildinfo.Version, buildinfo.Commit)
	if buildinfo.Date != "" {
		text += " built " + buildinfo.Date
	}
	return tghelpers.SendText(c, text)
}

// UnknownText answers free text that matched neither a flow nor a
// command.
func (a *App) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		return a.engine.Unknown(ctx, chatSession(c))
	}
}

// UnknownDocument answers unexpected file uploads.
func (a *App) UnknownDocument() tele.HandlerFunc {
	return a.UnknownText()
}

// UnknownCallback answers button presses with no registered action.
func (a *App) UnknownCallback() tele.HandlerFunc {
	return a.UnknownText()
}
