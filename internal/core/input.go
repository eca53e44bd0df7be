package core

import (
	"errors"
	"strings"
)

// SubscriptionInput is the raw, untrusted form of a subscription as it
// arrives from a request body or an import row.
type SubscriptionInput struct {
	Name             string `json:"name"`
	Cost             string `json:"cost"`
	SubscriptionDate string `json:"subscription_date"`
	RenewalType      string `json:"renewal_type"`
}

// Parse trims every field, lower-cases the renewal type and validates the
// resulting record. All failing fields are reported together as FieldErrors;
// a field that does not parse keeps its parse message.
func (in SubscriptionInput) Parse() (Subscription, error) {
	errs := FieldErrors{}
	s := Subscription{Name: strings.TrimSpace(in.Name), IsActive: true}

	var err error
	if s.Cost, err = ParseMoney(in.Cost); err != nil {
		errs.Add("cost", err.Error())
	}
	if s.SubscriptionDate, err = ParseDate(in.SubscriptionDate); err != nil {
		errs.Add("subscription_date", err.Error())
	}
	if s.RenewalType, err = ParseRenewalType(in.RenewalType); err != nil {
		errs.Add("renewal_type", err.Error())
	}

	var invalid FieldErrors
	if errors.As(s.Validate(), &invalid) {
		for field, msgs := range invalid {
			if _, parsed := errs[field]; !parsed {
				errs[field] = msgs
			}
		}
	}

	if err := errs.Err(); err != nil {
		return Subscription{}, err
	}
	return s, nil
}
