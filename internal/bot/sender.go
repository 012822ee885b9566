package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/subtrackr/bot/core/logger"
	"github.com/subtrackr/bot/core/telegram/keyboard"
	tgsender "github.com/subtrackr/bot/core/telegram/sender"
	"github.com/subtrackr/bot/internal/engine"

	tele "gopkg.in/telebot.v4"
	"log/slog"
)

const buttonsPerRow = 3

// Sender delivers engine replies to Telegram chats. Outbound calls go
// through the async dispatcher when one is bound; before Bind it falls
// back to a synchronous send.
type Sender struct {
	bot  atomic.Pointer[tele.Bot]
	disp atomic.Pointer[tgsender.Dispatcher]
}

// NewSender creates an unbound sender. Bind must be called before the
// first inbound update is handled.
func NewSender() *Sender {
	return &Sender{}
}

// Bind attaches the live bot and dispatcher once the runtime exists.
func (s *Sender) Bind(b *tele.Bot, d *tgsender.Dispatcher) {
	s.bot.Store(b)
	s.disp.Store(d)
}

// Send implements engine.Sender.
func (s *Sender) Send(ctx context.Context, sessionID, text string, buttons ...engine.Button) error {
	b := s.bot.Load()
	if b == nil {
		return errors.New("bot: sender not bound")
	}
	chatID, err := strconv.ParseInt(sessionID, 10, 64)
	if err != nil {
		return fmt.Errorf("bot: bad session id %q: %w", sessionID, err)
	}

	markup := buttonMarkup(buttons)
	run := func() error {
		if markup != nil {
			_, err := b.Send(tele.ChatID(chatID), text, markup)
			return err
		}
		_, err := b.Send(tele.ChatID(chatID), text)
		return err
	}

	disp := s.disp.Load()
	if disp == nil {
		return run()
	}
	if err := disp.Enqueue(ctx, "send.text", "sendMessage", run); err != nil {
		if errors.Is(err, tgsender.ErrQueueFull) || errors.Is(err, tgsender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("session_id", sessionID),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

func buttonMarkup(buttons []engine.Button) *tele.ReplyMarkup {
	if len(buttons) == 0 {
		return nil
	}
	btns := make([]keyboard.InlineBtn, 0, len(buttons))
	for _, b := range buttons {
		btns = append(btns, keyboard.InlineBtn{
			Text:   b.Label,
			Unique: b.Action,
			Data:   b.Value,
		})
	}
	return keyboard.InlineButtonsNPerRow(btns, buttonsPerRow)
}
