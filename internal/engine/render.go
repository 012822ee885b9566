package engine

import (
	"fmt"
	"strings"

	"github.com/subtrackr/bot/internal/api"
	"github.com/subtrackr/bot/internal/flow"
)

const (
	msgWelcome = "🎉 Welcome to SubTracker!\n\n" +
		"I help you track subscriptions and keep spending under control.\n\n" +
		"Start by signing in:\n🔐 /login — sign in\n\n" +
		"Or create an account via the web interface."

	msgHelp = "📖 Commands:\n\n" +
		"🔐 /login — sign in\n" +
		"📋 /list — show your subscriptions\n" +
		"➕ /add — add a subscription\n" +
		"🗑 /delete [id] — delete a subscription by ID\n" +
		"📊 /stats — spending statistics\n" +
		"✖️ /cancel — abandon the current dialog\n" +
		"❓ /help — this message"

	msgLoginRequired   = "❌ Please sign in first: /login"
	msgLoginRejected   = "❌ Wrong username or password"
	msgLoginOK         = "✅ Signed in!\nAll commands are now available."
	msgTokenRejected   = "❌ Your session expired. Sign in again: /login"
	msgConnectionError = "❌ Could not reach the server. Try again later."
	msgBackendError    = "❌ The server could not handle the request"
	msgInternalError   = "❌ Something went wrong. Try again."

	msgFlowActive      = "⚠️ You are in the middle of another dialog.\nFinish it or abandon it with /cancel."
	msgCancelled       = "✖️ Cancelled. Your input was discarded."
	msgNothingToCancel = "There is nothing to cancel."
	msgUnknownInput    = "❓ Use commands to interact with me. /help shows the list."
	msgStaleSelection  = "⚠️ That choice does not belong to the current step."

	msgNoSubscriptions = "📋 You have no subscriptions yet.\nAdd the first one: /add"
	msgNoStats         = "📊 You have no subscriptions to analyze yet"
	msgDeleteUsage     = "❌ Give me a subscription ID.\nExample: /delete abc123"
	msgDeleteNotFound  = "❌ No subscription with that ID"
	msgDeleted         = "✅ Subscription deleted!"
	msgCreated         = "✅ Subscription created!"
	msgCreateRejected  = "❌ The server rejected the subscription data"

	promptUsername = "👤 Enter your username:"
	promptPassword = "🔑 Enter your password:"
	promptName     = "📝 Enter the subscription name:"
	promptPrice    = "💰 Enter the price:"
	promptCurrency = "💱 Pick a currency or type one (USD, EUR, RUB):"
	promptCycle    = "🔄 Pick a billing cycle or type one (monthly, yearly):"
	promptCategory = "🗂 Pick a category:"
	promptDate     = "📅 Enter the next payment date (YYYY-MM-DD):"
)

// promptFor returns the prompt and button set for a flow step.
func promptFor(field flow.Field) (string, []Button) {
	switch field {
	case flow.FieldUsername:
		return promptUsername, nil
	case flow.FieldPassword:
		return promptPassword, nil
	case flow.FieldName:
		return promptName, nil
	case flow.FieldPrice:
		return promptPrice, nil
	case flow.FieldCurrency:
		return promptCurrency, optionButtons(ActionCurrency, flow.Currencies)
	case flow.FieldBillingCycle:
		// Weekly stays a free-text option; buttons offer the common two.
		return promptCycle, optionButtons(ActionCycle, []string{"monthly", "yearly"})
	case flow.FieldCategory:
		return promptCategory, optionButtons(ActionCategory, flow.Categories)
	case flow.FieldNextPaymentDate:
		return promptDate, nil
	}
	return msgInternalError, nil
}

func optionButtons(action string, options []string) []Button {
	buttons := make([]Button, 0, len(options))
	for _, opt := range options {
		buttons = append(buttons, Button{Label: opt, Action: action, Value: opt})
	}
	return buttons
}

// rejectionText names what was wrong with the rejected input.
func rejectionText(field flow.Field, err error) string {
	switch field {
	case flow.FieldPrice:
		return "❌ The price must be a non-negative number, like 9.99."
	case flow.FieldNextPaymentDate:
		return "❌ The date must look like 2024-01-31."
	case flow.FieldCurrency, flow.FieldBillingCycle, flow.FieldCategory:
		return "❌ That value is not one of the offered options."
	default:
		return "❌ That does not look right: " + err.Error()
	}
}

func renderList(subs []api.Subscription) string {
	var b strings.Builder
	b.WriteString("📋 Your subscriptions:\n")
	for _, sub := range subs {
		fmt.Fprintf(&b, "• %s — %s %s (%s)\n", sub.Name, sub.Price, sub.Currency, sub.BillingCycle)
		fmt.Fprintf(&b, "  ID: %s | next payment: %s\n", sub.ID, sub.NextPaymentDate)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderStats(stats api.Stats) string {
	var b strings.Builder
	b.WriteString("📊 Subscription statistics:\n")
	fmt.Fprintf(&b, "💰 Subscriptions: %d\n", stats.Count)
	fmt.Fprintf(&b, "💵 Monthly spend: $%.2f\n", stats.TotalMonthly)
	fmt.Fprintf(&b, "💵 Yearly spend: $%.2f\n", stats.TotalYearly)
	fmt.Fprintf(&b, "💚 Cheapest: %s — %s %s\n", stats.Cheapest.Name, stats.Cheapest.Price, stats.Cheapest.Currency)
	fmt.Fprintf(&b, "💔 Most expensive: %s — %s %s", stats.MostExpensive.Name, stats.MostExpensive.Price, stats.MostExpensive.Currency)
	return b.String()
}
