package flow

import (
	"errors"
	"testing"
)

func TestLoginFieldOrder(t *testing.T) {
	st := New(KindLogin)
	if st.Current() != FieldUsername {
		t.Fatalf("first step = %v, want username", st.Current())
	}
	if err := st.Advance("alice"); err != nil {
		t.Fatalf("advance username: %v", err)
	}
	if st.Current() != FieldPassword {
		t.Fatalf("second step = %v, want password", st.Current())
	}
	if err := st.Advance("secret"); err != nil {
		t.Fatalf("advance password: %v", err)
	}
	if !st.Done() {
		t.Fatal("login flow should complete after two fields")
	}
}

// The states visited must equal the declared field order, with the step
// strictly increasing until completion.
func TestAddSubscriptionFieldOrder(t *testing.T) {
	st := New(KindAddSubscription)
	inputs := map[Field]string{
		FieldName:            "Netflix",
		FieldPrice:           "15.99",
		FieldCurrency:        "USD",
		FieldBillingCycle:    "monthly",
		FieldCategory:        "Other",
		FieldNextPaymentDate: "2023-12-31",
	}
	want := []Field{
		FieldName, FieldPrice, FieldCurrency,
		FieldBillingCycle, FieldCategory, FieldNextPaymentDate,
	}
	for i, field := range want {
		if st.Step != i {
			t.Fatalf("step = %d, want %d", st.Step, i)
		}
		if st.Current() != field {
			t.Fatalf("step %d awaits %v, want %v", i, st.Current(), field)
		}
		if err := st.Advance(inputs[field]); err != nil {
			t.Fatalf("advance %v: %v", field, err)
		}
	}
	if !st.Done() {
		t.Fatal("flow should be done")
	}
	if len(st.Values) != len(want) {
		t.Errorf("collected %d fields, want %d", len(st.Values), len(want))
	}
}

// A rejected value repeats the step and stores nothing.
func TestAdvanceRejectionKeepsStep(t *testing.T) {
	st := New(KindAddSubscription)
	_ = st.Advance("Netflix")
	_ = st.Advance("15.99")

	err := st.Advance("GBP")
	if !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection, got %v", err)
	}
	if st.Step != 2 || st.Current() != FieldCurrency {
		t.Errorf("step moved after rejection: step=%d", st.Step)
	}
	if _, ok := st.Values[FieldCurrency]; ok {
		t.Error("rejected value must not be stored")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		field Field
		raw   string
		want  string
		err   error
	}{
		{FieldName, "  Netflix ", "Netflix", nil},
		{FieldName, "   ", "", ErrInvalidFormat},
		{FieldPrice, "15.99", "15.99", nil},
		{FieldPrice, "0", "0", nil},
		{FieldPrice, "-3", "", ErrInvalidFormat},
		{FieldPrice, "free", "", ErrInvalidFormat},
		{FieldCurrency, "usd", "USD", nil},
		{FieldCurrency, "GBP", "", ErrInvalidSelection},
		{FieldBillingCycle, "Monthly", "monthly", nil},
		{FieldBillingCycle, "daily", "", ErrInvalidSelection},
		{FieldCategory, "other", "Other", nil},
		{FieldCategory, "Gaming", "", ErrInvalidSelection},
		{FieldNextPaymentDate, "2023-12-31", "2023-12-31", nil},
		{FieldNextPaymentDate, "2023-13-01", "", ErrInvalidFormat},
		{FieldNextPaymentDate, "31.12.2023", "", ErrInvalidFormat},
	}
	for _, tc := range cases {
		got, err := Validate(tc.field, tc.raw)
		if !errors.Is(err, tc.err) {
			t.Errorf("Validate(%v, %q) err = %v, want %v", tc.field, tc.raw, err, tc.err)
			continue
		}
		if got != tc.want {
			t.Errorf("Validate(%v, %q) = %q, want %q", tc.field, tc.raw, got, tc.want)
		}
	}
}

func TestKindRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindLogin, KindAddSubscription} {
		parsed, err := ParseKind(k.String())
		if err != nil || parsed != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), parsed, err)
		}
	}
	for f := range fieldNames {
		parsed, err := ParseField(f.String())
		if err != nil || parsed != f {
			t.Errorf("ParseField(%q) = %v, %v", f.String(), parsed, err)
		}
	}
}
