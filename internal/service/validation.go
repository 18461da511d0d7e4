package service

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/groupspend/groupspend/internal/model"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// Validation limits.
const (
	MaxGroupNameLength   = 100
	MaxDescriptionLength = 500
	MaxEmailLength       = 254
	MinPasswordLength    = 6
	MaxPasswordLength    = 128
	MaxExpenseTextLength = 200
	MaxCategoryLength    = 50
)

// maxAmount is the first value NUMERIC(12,2) cannot hold.
var maxAmount = decimal.New(1, 10)

func newID() string {
	return ulid.Make().String()
}

func validateEmail(email string) (string, error) {
	email = model.NormalizeEmail(email)
	if email == "" || len(email) > MaxEmailLength {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

func validateGroupFields(name, description string) (string, string, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		return "", "", ErrGroupNameRequired
	}
	if utf8.RuneCountInString(name) > MaxGroupNameLength {
		return "", "", ErrGroupNameTooLong
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return "", "", ErrDescriptionTooLong
	}
	return name, description, nil
}

// ExpenseInput carries the user-editable fields of an expense.
type ExpenseInput struct {
	Description string
	Amount      decimal.Decimal
	Category    string
	Date        string // YYYY-MM-DD
}

type validExpense struct {
	description string
	amount      decimal.Decimal
	category    string
	date        time.Time
}

func validateExpense(in ExpenseInput) (validExpense, error) {
	v := validExpense{
		description: strings.TrimSpace(in.Description),
		category:    strings.TrimSpace(in.Category),
	}

	switch {
	case v.description == "":
		return v, fmt.Errorf("%w: description is required", ErrInvalidExpense)
	case utf8.RuneCountInString(v.description) > MaxExpenseTextLength:
		return v, fmt.Errorf("%w: description is too long", ErrInvalidExpense)
	case v.category == "":
		return v, fmt.Errorf("%w: category is required", ErrInvalidExpense)
	case utf8.RuneCountInString(v.category) > MaxCategoryLength:
		return v, fmt.Errorf("%w: category is too long", ErrInvalidExpense)
	case in.Amount.IsNegative():
		return v, fmt.Errorf("%w: amount must not be negative", ErrInvalidExpense)
	}

	v.amount = in.Amount.Round(2)
	if v.amount.GreaterThanOrEqual(maxAmount) {
		return v, fmt.Errorf("%w: amount is too large", ErrInvalidExpense)
	}

	date, err := time.Parse(model.DateLayout, strings.TrimSpace(in.Date))
	if err != nil {
		return v, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidExpense)
	}
	v.date = date

	return v, nil
}

// checkClaimedUser rejects a request whose body names a different user
// than the authenticated caller. An empty claim is accepted.
func checkClaimedUser(caller model.Identity, claimed string) error {
	if claimed != "" && claimed != caller.UserID {
		return ErrIdentityMismatch
	}
	return nil
}
