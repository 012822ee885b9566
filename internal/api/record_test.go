package api

import (
	"encoding/json"
	"strings"
	"testing"
)

const validRecord = `{
	"id": "sub-1",
	"user_id": "42",
	"name": "Netflix",
	"price": "15.99",
	"currency": "USD",
	"billing_cycle": "monthly",
	"next_payment_date": "2023-12-31",
	"category": "Video",
	"is_active": true
}`

func TestDecodeSubscription(t *testing.T) {
	sub, err := decodeSubscription(json.RawMessage(validRecord))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sub.ID != "sub-1" || sub.Name != "Netflix" || sub.BillingCycle != "monthly" {
		t.Errorf("unexpected record: %+v", sub)
	}
	if !sub.IsActive {
		t.Error("expected active record")
	}
}

func TestDecodeSubscriptionDefaults(t *testing.T) {
	// is_active, category and description are optional; is_active defaults true.
	raw := `{"id":"s","user_id":"u","name":"n","price":"1","currency":"USD",
		"billing_cycle":"monthly","next_payment_date":"2024-01-01"}`
	sub, err := decodeSubscription(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !sub.IsActive {
		t.Error("is_active should default to true")
	}
}

func TestDecodeSubscriptionMissingField(t *testing.T) {
	raw := strings.Replace(validRecord, `"price": "15.99",`, "", 1)
	if _, err := decodeSubscription(json.RawMessage(raw)); err == nil {
		t.Fatal("expected error for missing price")
	} else if !strings.Contains(err.Error(), "price") {
		t.Errorf("error should name the missing field: %v", err)
	}
}

func TestDecodeSubscriptionUnknownField(t *testing.T) {
	raw := strings.Replace(validRecord, `"category": "Video",`, `"category": "Video", "color": "red",`, 1)
	if _, err := decodeSubscription(json.RawMessage(raw)); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestDecodeSubscriptionsOrder(t *testing.T) {
	listing := `[` + validRecord + `,` + strings.Replace(validRecord, "sub-1", "sub-2", 1) + `]`
	subs, err := decodeSubscriptions([]byte(listing))
	if err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(subs) != 2 || subs[0].ID != "sub-1" || subs[1].ID != "sub-2" {
		t.Errorf("listing order not preserved: %+v", subs)
	}
}

func TestEncodeCreateRequest(t *testing.T) {
	req := CreateSubscriptionRequest{
		UserID:          "42",
		Name:            "Netflix",
		Price:           "15.99",
		Currency:        "USD",
		BillingCycle:    "monthly",
		NextPaymentDate: "2023-12-31",
		Category:        "Video",
	}
	payload := encodeCreateRequest(req)
	for _, key := range []string{"user_id", "name", "price", "currency", "billing_cycle", "next_payment_date", "category"} {
		if _, ok := payload[key]; !ok {
			t.Errorf("payload missing key %q", key)
		}
	}
	if _, ok := payload["description"]; ok {
		t.Error("empty description should be omitted")
	}
}
