package bot

import (
	"testing"

	"github.com/subtrackr/bot/internal/engine"
	"github.com/subtrackr/bot/internal/flow"
)

func TestButtonMarkup(t *testing.T) {
	if got := buttonMarkup(nil); got != nil {
		t.Errorf("no buttons should yield nil markup, got %+v", got)
	}

	buttons := []engine.Button{
		{Label: "USD", Action: engine.ActionCurrency, Value: "USD"},
		{Label: "EUR", Action: engine.ActionCurrency, Value: "EUR"},
		{Label: "RUB", Action: engine.ActionCurrency, Value: "RUB"},
		{Label: "GBP", Action: engine.ActionCurrency, Value: "GBP"},
	}
	markup := buttonMarkup(buttons)
	if markup == nil {
		t.Fatal("nil markup")
	}
	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(markup.InlineKeyboard))
	}
	if len(markup.InlineKeyboard[0]) != 3 || len(markup.InlineKeyboard[1]) != 1 {
		t.Errorf("row sizes = %d/%d", len(markup.InlineKeyboard[0]), len(markup.InlineKeyboard[1]))
	}
	first := markup.InlineKeyboard[0][0]
	if first.Text != "USD" {
		t.Errorf("label = %q", first.Text)
	}
}

func TestCallbackFieldsCoverButtonSteps(t *testing.T) {
	want := map[string]flow.Field{
		engine.ActionCurrency: flow.FieldCurrency,
		engine.ActionCycle:    flow.FieldBillingCycle,
		engine.ActionCategory: flow.FieldCategory,
	}
	if len(callbackFields) != len(want) {
		t.Fatalf("registered %d actions, want %d", len(callbackFields), len(want))
	}
	for action, field := range want {
		if got, ok := callbackFields[action]; !ok || got != field {
			t.Errorf("action %q -> %v, want %v", action, got, field)
		}
	}
}
