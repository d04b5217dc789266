package identity

import "github.com/google/uuid"

// ID is an opaque reference to a marketplace participant. Two IDs refer to
// the same participant exactly when they compare equal; no other semantics
// attach to the value.
type ID string

// New returns a fresh participant reference.
func New() ID { return ID(uuid.NewString()) }

func (id ID) String() string { return string(id) }

// IsZero reports whether the reference is empty.
func (id ID) IsZero() bool { return id == "" }
