package models

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyParticipants = errors.New("need at least one participant")
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	ErrInvalidSplit      = errors.New("invalid split")
	ErrNotFound          = errors.New("not found")
	ErrTransactionFailed = errors.New("transaction failed")

	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrDuplicateBudget = errors.New("budget already exists for this month")
	ErrProtectedPerson = errors.New("the device owner cannot be deleted")
)

// SplitError reports which split rule was broken. It matches ErrInvalidSplit.
type SplitError struct {
	Rule string
}

func (e *SplitError) Error() string {
	return fmt.Sprintf("invalid split: %s", e.Rule)
}

func (e *SplitError) Is(target error) bool {
	return target == ErrInvalidSplit
}

// InvalidSplit returns a *SplitError for rule.
func InvalidSplit(rule string) error {
	return &SplitError{Rule: rule}
}

// TxError wraps a failure inside an atomic mutation after it was rolled back.
// It matches ErrTransactionFailed and unwraps to the cause.
type TxError struct {
	Op  string
	Err error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("%s: transaction failed: %v", e.Op, e.Err)
}

func (e *TxError) Unwrap() error {
	return e.Err
}

func (e *TxError) Is(target error) bool {
	return target == ErrTransactionFailed
}

// NotFoundError names the missing entity. It matches ErrNotFound.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound returns a *NotFoundError for the given entity kind and id.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}
