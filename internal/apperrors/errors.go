package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidState indicates an operation that is illegal for the current
// account or appeal state (e.g. transacting from a frozen account, or
// resolving an appeal that is no longer pending).
var ErrInvalidState = errors.New("invalid state for operation")

// ErrInsufficientFunds indicates the source account balance cannot cover the
// requested amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")
