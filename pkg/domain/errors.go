package domain

import "errors"

// ErrInvalidStep is returned when a dialog step definition cannot be executed
// (missing name, unregistered handler, malformed step, cursor out of range).
// It signals a bug in the dialog definition and is never retried.
var ErrInvalidStep = errors.New("invalid dialog step")

// ErrUnexpectedUpdate is returned by a step handler when the update does not match what
// the step expects. The cursor stays on the same step so it runs again on the next update.
var ErrUnexpectedUpdate = errors.New("unexpected update type")

// ErrDialogNotFound is returned when no active dialog exists for a key.
var ErrDialogNotFound = errors.New("dialog not found")

// ErrUnknownDialog is returned when a persisted dialog references a definition that is not registered.
var ErrUnknownDialog = errors.New("unknown dialog definition")

// ErrNoTransport is returned when a dialog tries to talk to the bot API before a transport was injected.
var ErrNoTransport = errors.New("transport is not configured")
