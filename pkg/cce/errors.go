package cce

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an InputError the way the spec's error model
// distinguishes caller-fault "type" errors from everything else, which
// this package accepts rather than rejects (empty content, unusual
// roles, unknown metadata).
type ErrorKind string

// KindType is the only ErrorKind this package currently raises: the
// caller handed compress/uncompress a malformed argument.
const KindType ErrorKind = "type"

// InputError is returned when a caller's arguments don't satisfy the
// shape compress/uncompress require. It is always of Kind KindType.
type InputError struct {
	Kind      ErrorKind
	Operation string // "compress" or "uncompress"
	Field     string // the offending field, e.g. "messages[3].id"
	Err       error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s: %s: %s", e.Operation, e.Kind, e.Field, e.Err.Error())
}

func (e *InputError) Unwrap() error { return e.Err }

func newInputError(op, field string, err error) *InputError {
	return &InputError{Kind: KindType, Operation: op, Field: field, Err: err}
}

var (
	errMessagesNotSequence = errors.New("messages must be a sequence")
	errMissingID           = errors.New("message is missing a non-empty id")
	errDuplicateID         = errors.New("message id is not unique within the sequence")
	errStoreNotMapping     = errors.New("store must be a mapping or lookup function")
)
