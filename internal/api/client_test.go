package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLoginSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["username"] != "u" || body["password"] != "p" {
			t.Errorf("unexpected payload: %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "t"})
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	token, err := c.Login(context.Background(), "u", "p")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token != "t" {
		t.Errorf("token = %q, want t", token)
	}
}

func TestLoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	if _, err := c.Login(context.Background(), "u", "bad"); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestLoginTransportFailure(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	_, err := c.Login(context.Background(), "u", "p")
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestBearerTokenPropagation(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	_, err := c.CreateSubscription(context.Background(), "t", CreateSubscriptionRequest{
		UserID: "1", Name: "n", Price: "1", Currency: "USD",
		BillingCycle: "monthly", NextPaymentDate: "2024-01-01",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if gotAuth != "Bearer t" {
		t.Errorf("Authorization = %q, want Bearer t", gotAuth)
	}
}

func TestListPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":"b","user_id":"1","name":"B","price":"2","currency":"USD","billing_cycle":"monthly","next_payment_date":"2024-01-01"},
			{"id":"a","user_id":"1","name":"A","price":"1","currency":"USD","billing_cycle":"monthly","next_payment_date":"2024-01-01"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	subs, err := c.ListSubscriptions(context.Background(), "t")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 2 || subs[0].ID != "b" || subs[1].ID != "a" {
		t.Errorf("server order not preserved: %+v", subs)
	}
}

func TestCreateValidationFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	_, err := c.CreateSubscription(context.Background(), "t", CreateSubscriptionRequest{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDeleteOutcomes(t *testing.T) {
	cases := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusOK, func(err error) bool { return err == nil }},
		{http.StatusNotFound, func(err error) bool { return errors.Is(err, ErrNotFound) }},
		{http.StatusUnauthorized, func(err error) bool { return errors.Is(err, ErrAuthFailed) }},
		{http.StatusInternalServerError, IsTransport},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete || r.URL.Path != "/subscriptions/abc" {
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
			w.WriteHeader(tc.status)
		}))
		c := NewClient(Options{BaseURL: srv.URL})
		err := c.DeleteSubscription(context.Background(), "t", "abc")
		if !tc.check(err) {
			t.Errorf("status %d: unexpected outcome %v", tc.status, err)
		}
		srv.Close()
	}
}

func TestCallTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := c.ListSubscriptions(context.Background(), "t")
	if !IsTransport(err) {
		t.Fatalf("expected transport error after timeout, got %v", err)
	}
}
