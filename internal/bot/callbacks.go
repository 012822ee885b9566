package bot

import (
	"github.com/subtrackr/bot/core/telegram/callbacks"
	tghelpers "github.com/subtrackr/bot/core/telegram/helpers"
	"github.com/subtrackr/bot/internal/engine"
	"github.com/subtrackr/bot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

// callbackFields maps button actions to the flow step they answer.
var callbackFields = map[string]flow.Field{
	engine.ActionCurrency: flow.FieldCurrency,
	engine.ActionCycle:    flow.FieldBillingCycle,
	engine.ActionCategory: flow.FieldCategory,
}

func (a *App) registerCallbacks() {
	for action, field := range callbackFields {
		field := field
		_ = a.registry.RegisterCallback(action, func(c tele.Context) error {
			ctx := tghelpers.BuildContext(c)
			return a.engine.HandleSelection(ctx, chatSession(c), field, callbacks.CallbackPayload(c))
		})
	}
}
