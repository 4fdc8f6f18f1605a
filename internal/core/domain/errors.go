package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Lifecycle error sentinels, matched with errors.Is
var (
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrFundExhausted      = errors.New("fund exhausted")
	ErrNotFound           = errors.New("resource not found")
)

// Account errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserInactive       = errors.New("user is inactive")
)

// InvalidTransitionError reports a disallowed edge or a wrong from-state
type InvalidTransitionError struct {
	Action Action
	From   Status
	To     Status
	Role   Role
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s: %s -> %s (role %s)", e.Action, e.From, e.To, e.Role)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// PermissionDeniedError reports a role lacking a capability
type PermissionDeniedError struct {
	Role       Role
	Capability string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: role %q lacks %s", e.Role, e.Capability)
}

func (e *PermissionDeniedError) Is(target error) bool { return target == ErrPermissionDenied }

// PreconditionFailedError reports a missing or invalid payload field
type PreconditionFailedError struct {
	Field  string
	Reason string
}

func (e *PreconditionFailedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("precondition failed: %s", e.Field)
	}
	return fmt.Sprintf("precondition failed: %s: %s", e.Field, e.Reason)
}

func (e *PreconditionFailedError) Is(target error) bool { return target == ErrPreconditionFailed }

// FundExhaustedError reports an allocation larger than the fund's remaining balance
type FundExhaustedError struct {
	FundID    string
	Requested decimal.Decimal
	Remaining decimal.Decimal
}

func (e *FundExhaustedError) Error() string {
	return fmt.Sprintf("fund %s exhausted: requested %s, remaining %s", e.FundID, e.Requested, e.Remaining)
}

func (e *FundExhaustedError) Is(target error) bool { return target == ErrFundExhausted }

// NotFoundError reports an unknown application, fund or user
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func precondition(field, reason string) error {
	return &PreconditionFailedError{Field: field, Reason: reason}
}

func denied(role Role, capability string) error {
	return &PermissionDeniedError{Role: role, Capability: capability}
}
