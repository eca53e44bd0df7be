package core

import (
	"errors"
	"strings"
	"testing"
)

func TestSubscriptionInputParse(t *testing.T) {
	in := SubscriptionInput{
		Name:             "  Netflix ",
		Cost:             "12,99",
		SubscriptionDate: " 2026-10-01",
		RenewalType:      "Monthly ",
	}
	s, err := in.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name != "Netflix" || s.Cost.Cents != 1299 || s.RenewalType != Monthly || !s.IsActive {
		t.Fatalf("unexpected parse result: %+v", s)
	}
	if s.SubscriptionDate.String() != "2026-10-01" {
		t.Fatalf("date = %s", s.SubscriptionDate)
	}
}

func TestSubscriptionInputParseReportsEveryField(t *testing.T) {
	in := SubscriptionInput{
		Name:             "",
		Cost:             "1.234",
		SubscriptionDate: "01/10/2026",
		RenewalType:      "weekly",
	}
	_, err := in.Parse()
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	for _, field := range []string{"name", "cost", "subscription_date", "renewal_type"} {
		if _, ok := fe[field]; !ok {
			t.Errorf("missing error for %s in %v", field, fe)
		}
	}
}

func TestSubscriptionInputParseLimits(t *testing.T) {
	cases := []struct {
		name  string
		in    SubscriptionInput
		field string
	}{
		{"cost above max", SubscriptionInput{Name: "a", Cost: "10000.00", SubscriptionDate: "2026-10-01", RenewalType: "monthly"}, "cost"},
		{"name too long", SubscriptionInput{Name: strings.Repeat("é", 151), Cost: "1", SubscriptionDate: "2026-10-01", RenewalType: "monthly"}, "name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.in.Parse()
			var fe FieldErrors
			if !errors.As(err, &fe) {
				t.Fatalf("expected FieldErrors, got %v", err)
			}
			if _, ok := fe[tc.field]; !ok {
				t.Fatalf("expected %s error, got %v", tc.field, fe)
			}
		})
	}

	ok := SubscriptionInput{Name: strings.Repeat("é", 150), Cost: "9999.99", SubscriptionDate: "2026-10-01", RenewalType: "yearly"}
	if _, err := ok.Parse(); err != nil {
		t.Fatalf("150 characters and 9999.99 should be accepted: %v", err)
	}
}

func TestSubscriptionInputParseKeepsParseMessage(t *testing.T) {
	in := SubscriptionInput{Name: "a", Cost: "abc", SubscriptionDate: "tomorrow", RenewalType: "monthly"}
	_, err := in.Parse()
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if got := fe["cost"]; len(got) != 1 || got[0] != ErrInvalidAmount.Error() {
		t.Errorf("cost errors = %v", got)
	}
	if got := fe["subscription_date"]; len(got) != 1 || got[0] != ErrInvalidDate.Error() {
		t.Errorf("subscription_date errors = %v", got)
	}
	if _, ok := fe["name"]; ok {
		t.Errorf("unexpected name error: %v", fe)
	}
}
