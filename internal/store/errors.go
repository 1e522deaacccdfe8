package store

import "errors"

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicate      = errors.New("duplicate record")
	ErrUnknownTable   = errors.New("table not allowed for sync writes")
	ErrUnknownColumn  = errors.New("column not allowed for sync writes")
	ErrMissingKey     = errors.New("payload missing key field")
	ErrInvalidPayload = errors.New("invalid operation payload")
)
