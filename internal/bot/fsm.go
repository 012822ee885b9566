package bot

import (
	"context"
	"strconv"

	tghelpers "github.com/subtrackr/bot/core/telegram/helpers"
	"github.com/subtrackr/bot/internal/engine"

	tele "gopkg.in/telebot.v4"
)

// conversationBridge adapts the engine to the message router's FSM
// interface so in-flight dialogs capture free text before command
// lookup.
type conversationBridge struct {
	eng *engine.Engine
}

func (b conversationBridge) InProgress(chatID int64) bool {
	return b.eng.InProgress(context.Background(), strconv.FormatInt(chatID, 10))
}

func (b conversationBridge) ManagerHandler(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return b.eng.HandleText(ctx, chatSession(c), c.Text())
}
