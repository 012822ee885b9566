// Package flow declares the multi-turn conversation flows and their
// ordered field sequences. A flow instance walks its field list one step
// per inbound message; the step index only moves forward, and a failed
// validation repeats the same step without storing anything.
package flow

import "fmt"

// Kind identifies a conversation flow.
type Kind int

const (
	KindLogin Kind = iota
	KindAddSubscription
)

func (k Kind) String() string {
	switch k {
	case KindLogin:
		return "login"
	case KindAddSubscription:
		return "add_subscription"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind restores a Kind from its string form.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "login":
		return KindLogin, nil
	case "add_subscription":
		return KindAddSubscription, nil
	}
	return 0, fmt.Errorf("flow: unknown kind %q", s)
}

// Field identifies one required input of a flow.
type Field int

const (
	FieldUsername Field = iota
	FieldPassword
	FieldName
	FieldPrice
	FieldCurrency
	FieldBillingCycle
	FieldCategory
	FieldNextPaymentDate
)

var fieldNames = map[Field]string{
	FieldUsername:        "username",
	FieldPassword:        "password",
	FieldName:            "name",
	FieldPrice:           "price",
	FieldCurrency:        "currency",
	FieldBillingCycle:    "billing_cycle",
	FieldCategory:        "category",
	FieldNextPaymentDate: "next_payment_date",
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// ParseField restores a Field from its string form.
func ParseField(s string) (Field, error) {
	for f, name := range fieldNames {
		if name == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("flow: unknown field %q", s)
}

var flowFields = map[Kind][]Field{
	KindLogin: {FieldUsername, FieldPassword},
	KindAddSubscription: {
		FieldName, FieldPrice, FieldCurrency,
		FieldBillingCycle, FieldCategory, FieldNextPaymentDate,
	},
}

// Fields returns the ordered required fields for the kind.
func (k Kind) Fields() []Field {
	return flowFields[k]
}

// State is one in-flight flow instance. Values only ever holds keys from
// the kind's declared field set, and Step never decreases.
type State struct {
	Kind   Kind
	Step   int
	Values map[Field]string
}

// New starts a flow at its first field.
func New(kind Kind) *State {
	return &State{Kind: kind, Values: make(map[Field]string)}
}

// Current returns the field awaited at the present step.
func (s *State) Current() Field {
	return s.Kind.Fields()[s.Step]
}

// Done reports whether every required field has been collected.
func (s *State) Done() bool {
	return s.Step >= len(s.Kind.Fields())
}

// Advance validates raw input for the current field, stores the
// normalized value and moves to the next step. On validation failure the
// step does not move and nothing is stored.
func (s *State) Advance(raw string) error {
	if s.Done() {
		return fmt.Errorf("flow: %s already complete", s.Kind)
	}
	value, err := Validate(s.Current(), raw)
	if err != nil {
		return err
	}
	s.Values[s.Current()] = value
	s.Step++
	return nil
}
