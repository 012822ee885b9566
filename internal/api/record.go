package api

import (
	"encoding/json"
	"fmt"

	"github.com/subtrackr/bot/internal/api/wire"
)

// Subscription is one record as the backend reports it. Records are owned
// by the backend; the bot only renders them and never caches beyond one
// command turn.
type Subscription struct {
	ID              string
	UserID          string
	Name            string
	Price           string
	Currency        string
	BillingCycle    string
	NextPaymentDate string
	Category        string
	Description     string
	IsActive        bool
}

// CreateSubscriptionRequest is the creation payload assembled from a
// completed add flow.
type CreateSubscriptionRequest struct {
	UserID          string
	Name            string
	Price           string
	Currency        string
	BillingCycle    string
	NextPaymentDate string
	Category        string
	Description     string
}

// Field sets declared Go-side; wire keys are always derived through the
// wire codec so the canonical convention cannot drift per call site.
var (
	subscriptionRequired = []string{
		"ID", "UserID", "Name", "Price", "Currency", "BillingCycle", "NextPaymentDate",
	}
	subscriptionOptional = []string{"Category", "Description", "IsActive"}
)

// encodeCreateRequest flattens the request into canonical wire keys.
func encodeCreateRequest(req CreateSubscriptionRequest) map[string]string {
	payload := map[string]string{
		wire.Encode("UserID"):          req.UserID,
		wire.Encode("Name"):            req.Name,
		wire.Encode("Price"):           req.Price,
		wire.Encode("Currency"):        req.Currency,
		wire.Encode("BillingCycle"):    req.BillingCycle,
		wire.Encode("NextPaymentDate"): req.NextPaymentDate,
	}
	if req.Category != "" {
		payload[wire.Encode("Category")] = req.Category
	}
	if req.Description != "" {
		payload[wire.Encode("Description")] = req.Description
	}
	return payload
}

// decodeSubscription decodes one record against the declared schema.
// Missing required keys and unknown keys are decode errors, never a
// partially populated record.
func decodeSubscription(raw json.RawMessage) (Subscription, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Subscription{}, fmt.Errorf("decode subscription: %w", err)
	}

	known := make(map[string]struct{}, len(subscriptionRequired)+len(subscriptionOptional))
	for _, name := range subscriptionRequired {
		key := wire.Encode(name)
		known[key] = struct{}{}
		if _, ok := fields[key]; !ok {
			return Subscription{}, fmt.Errorf("decode subscription: missing field %q", key)
		}
	}
	for _, name := range subscriptionOptional {
		known[wire.Encode(name)] = struct{}{}
	}
	for key := range fields {
		if _, ok := known[key]; !ok {
			return Subscription{}, fmt.Errorf("decode subscription: unknown field %q", key)
		}
	}

	sub := Subscription{IsActive: true}
	for key, value := range fields {
		var err error
		switch wire.Decode(key) {
		case "ID":
			err = json.Unmarshal(value, &sub.ID)
		case "UserID":
			err = json.Unmarshal(value, &sub.UserID)
		case "Name":
			err = json.Unmarshal(value, &sub.Name)
		case "Price":
			err = json.Unmarshal(value, &sub.Price)
		case "Currency":
			err = json.Unmarshal(value, &sub.Currency)
		case "BillingCycle":
			err = json.Unmarshal(value, &sub.BillingCycle)
		case "NextPaymentDate":
			err = json.Unmarshal(value, &sub.NextPaymentDate)
		case "Category":
			err = json.Unmarshal(value, &sub.Category)
		case "Description":
			err = json.Unmarshal(value, &sub.Description)
		case "IsActive":
			err = json.Unmarshal(value, &sub.IsActive)
		}
		if err != nil {
			return Subscription{}, fmt.Errorf("decode subscription field %q: %w", key, err)
		}
	}
	return sub, nil
}

// decodeSubscriptions decodes a listing, preserving backend order.
func decodeSubscriptions(raw []byte) ([]Subscription, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	subs := make([]Subscription, 0, len(items))
	for i, item := range items {
		sub, err := decodeSubscription(item)
		if err != nil {
			return nil, fmt.Errorf("listing item %d: %w", i, err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}
