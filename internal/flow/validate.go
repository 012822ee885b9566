package flow

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidSelection is an out-of-set value for an enum-constrained field.
	ErrInvalidSelection = errors.New("flow: value is not one of the allowed options")
	// ErrInvalidFormat is malformed free-text input for a validated field.
	ErrInvalidFormat = errors.New("flow: value has an invalid format")
)

// Closed option sets for the enum-constrained steps. Button callbacks and
// free text are both checked against these.
var (
	Currencies    = []string{"USD", "EUR", "RUB"}
	BillingCycles = []string{"monthly", "yearly", "weekly"}
	Categories    = []string{"Entertainment", "Productivity", "Design", "Cloud", "Music", "Video", "Other"}
)

const dateLayout = "2006-01-02"

// Validate checks raw input for a field and returns the normalized value.
// Enum fields fail with ErrInvalidSelection, format-checked fields with
// ErrInvalidFormat; either way the caller repeats the step.
func Validate(f Field, raw string) (string, error) {
	value := strings.TrimSpace(raw)
	switch f {
	case FieldUsername, FieldPassword, FieldName:
		if value == "" {
			return "", ErrInvalidFormat
		}
		return value, nil

	case FieldPrice:
		price, err := strconv.ParseFloat(value, 64)
		if err != nil || price < 0 || math.IsInf(price, 0) || math.IsNaN(price) {
			return "", ErrInvalidFormat
		}
		return value, nil

	case FieldCurrency:
		return matchOption(strings.ToUpper(value), Currencies)

	case FieldBillingCycle:
		return matchOption(strings.ToLower(value), BillingCycles)

	case FieldCategory:
		for _, opt := range Categories {
			if strings.EqualFold(value, opt) {
				return opt, nil
			}
		}
		return "", ErrInvalidSelection

	case FieldNextPaymentDate:
		if _, err := time.Parse(dateLayout, value); err != nil {
			return "", ErrInvalidFormat
		}
		return value, nil
	}
	return "", ErrInvalidFormat
}

func matchOption(value string, options []string) (string, error) {
	for _, opt := range options {
		if value == opt {
			return opt, nil
		}
	}
	return "", ErrInvalidSelection
}
