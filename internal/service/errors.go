package service

import "errors"

// Service errors. Handlers map these to HTTP status codes.
var (
	// Authentication
	ErrUnauthenticated  = errors.New("authentication required")
	ErrWrongCredentials = errors.New("Wrong Credentials")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrWeakPassword     = errors.New("password must be at least 6 characters")
	ErrEmailTaken       = errors.New("email already registered")

	// Groups and memberships
	ErrGroupNameRequired    = errors.New("Group name is required")
	ErrGroupNameTooLong     = errors.New("group name exceeds maximum length")
	ErrDescriptionTooLong   = errors.New("description exceeds maximum length")
	ErrGroupIDRequired      = errors.New("Group ID is required")
	ErrInviteFieldsRequired = errors.New("Group ID and email are required")
	ErrMemberFieldsRequired = errors.New("Group ID and user ID are required")
	ErrGroupNotFound        = errors.New("group not found")
	ErrUserNotFound         = errors.New("User not found")
	ErrAlreadyMember        = errors.New("user is already a member of this group")
	ErrNotMember            = errors.New("you are not a member of this group")
	ErrNotAdmin             = errors.New("only the group admin can manage members")
	ErrCannotRemoveAdmin    = errors.New("the group admin cannot be removed")

	// Expenses
	ErrInvalidExpense  = errors.New("invalid expense")
	ErrExpenseNotFound = errors.New("expense not found")
	ErrForbidden       = errors.New("only the creator can modify this expense")

	// Identity mismatch between request body and bearer token
	ErrIdentityMismatch = errors.New("user_id does not match the authenticated user")
)

// ErrConversionUnavailable indicates no rate source is configured.
var ErrConversionUnavailable = errors.New("currency conversion is not configured")

// LedgerCurrency is the currency expense amounts are recorded in.
const LedgerCurrency = "USD"
