package snapshot

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateKey means the same player appeared twice within a single
	// input batch. The whole merge is rejected; a duplicate makes the join
	// ambiguous.
	ErrDuplicateKey = errors.New("duplicate player key")

	// ErrMalformedFact means a fact is missing or violates a required field.
	ErrMalformedFact = errors.New("malformed fact")

	// ErrEmptyHistory means a read-side helper was invoked on a snapshot
	// with no season history.
	ErrEmptyHistory = errors.New("empty season history")
)

// MalformedFactError reports which fact failed validation and why. It
// matches ErrMalformedFact via errors.Is.
type MalformedFactError struct {
	Player string
	Field  string
	Reason string
}

func (e *MalformedFactError) Error() string {
	return fmt.Sprintf("malformed fact for player %q: %s: %s", e.Player, e.Field, e.Reason)
}

func (e *MalformedFactError) Unwrap() error { return ErrMalformedFact }
