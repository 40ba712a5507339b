package model

import "errors"

// Failure taxonomy for the session. Workers catch every I/O failure at the
// worker boundary and wrap it with one of these sentinels before it crosses
// into session state; nothing propagates unhandled out of a background worker.
var (
	ErrConnectivity = errors.New("network unreachable")
	ErrDevice       = errors.New("device unavailable")
	ErrValidation   = errors.New("invalid input")
	ErrSigning      = errors.New("signing failed")
	ErrBroadcast    = errors.New("transaction rejected")
	ErrEnrichment   = errors.New("transaction detail unavailable")
)
