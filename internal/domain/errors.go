package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrUnknownChannel = errors.New("unknown attribution channel")
	ErrInvalidVisit   = errors.New("invalid visit")
	ErrMissingVisitor = errors.New("missing visitor id")
)
