package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Monthly RenewalType = "monthly"
	Yearly  RenewalType = "yearly"
)

const (
	// MaxNameLength mirrors the name column width.
	MaxNameLength = 150
	// MaxCostCents is the largest storable cost (9999.99).
	MaxCostCents = 999999
)

type (
	RenewalType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Subscription struct {
		ID               int64
		OwnerID          int64
		Name             string
		Cost             Money
		SubscriptionDate Date
		RenewalType      RenewalType
		IsActive         bool
		CreatedAt        time.Time
		UpdatedAt        time.Time
	}

	User struct {
		ID           int64
		Username     string
		PasswordHash string
		FirstName    string
		LastName     string
		IsActive     bool
		CreatedAt    time.Time
	}
)

var (
	ErrEmptyName          = errors.New("name cannot be empty")
	ErrNameTooLong        = errors.New("name too long (max 150 characters)")
	ErrInvalidAmount      = errors.New("cost must be a positive amount with at most 2 decimals")
	ErrAmountTooLarge     = errors.New("cost must not exceed 9999.99")
	ErrInvalidDate        = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidRenewalType = errors.New("renewal type must be one of: monthly, yearly")
)

// ParseRenewalType lower-cases and trims s before matching it.
func ParseRenewalType(s string) (RenewalType, error) {
	rt := RenewalType(strings.ToLower(strings.TrimSpace(s)))
	if !rt.IsValid() {
		return "", ErrInvalidRenewalType
	}
	return rt, nil
}

func (rt RenewalType) IsValid() bool {
	switch rt {
	case Monthly, Yearly:
		return true
	default:
		return false
	}
}

func (rt RenewalType) String() string {
	return string(rt)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location and returns it as a UTC date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// DaysUntil returns the number of whole calendar days from d to other.
// The result is negative when other is before d.
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time).Hours() / 24)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	if m.Cents > MaxCostCents {
		return ErrAmountTooLarge
	}
	return nil
}

// Validate checks field-level constraints and reports every failing field.
func (s Subscription) Validate() error {
	errs := FieldErrors{}

	name := strings.TrimSpace(s.Name)
	switch {
	case name == "":
		errs.Add("name", ErrEmptyName.Error())
	case utf8.RuneCountInString(name) > MaxNameLength:
		errs.Add("name", ErrNameTooLong.Error())
	}

	if err := s.Cost.Validate(); err != nil {
		errs.Add("cost", err.Error())
	}

	if err := s.SubscriptionDate.Validate(); err != nil {
		errs.Add("subscription_date", err.Error())
	}

	if !s.RenewalType.IsValid() {
		errs.Add("renewal_type", ErrInvalidRenewalType.Error())
	}

	return errs.Err()
}

// Clean applies the business rule that the first renewal must not already be in the past.
func (s Subscription) Clean(today Date) error {
	if s.RenewalDate().Before(today.Time) {
		return ErrRenewalInPast
	}
	return nil
}

// RenewalDate is the next charge date derived from the start date and cadence.
func (s Subscription) RenewalDate() Date {
	return RenewalDate(s.SubscriptionDate, s.RenewalType)
}

func (s Subscription) MonthlyCost() Money {
	return MonthlyEquivalent(s.Cost, s.RenewalType)
}

func (s Subscription) YearlyCost() Money {
	return YearlyEquivalent(s.Cost, s.RenewalType)
}

// RenewingSoon reports whether the renewal falls within windowDays of today.
// Overdue renewals also count, since there is no lower bound.
func (s Subscription) RenewingSoon(today Date, windowDays int) bool {
	return IsRenewingSoon(s.RenewalDate(), today, windowDays)
}
