// Package entity provides identity handles for simulation participants.
package entity

import (
	"strings"

	"github.com/google/uuid"
)

// ID is an opaque identity handle for a combatant or scene object.
//
// The zero value is the "no entity" handle.
type ID string

// None is the empty handle.
const None ID = ""

// NewID returns a fresh handle prefixed with kind, e.g. "player-<uuid>".
//
// Precondition: kind must be non-empty.
// Postcondition: Returns a handle unique for the lifetime of the process.
func NewID(kind string) ID {
	return ID(kind + "-" + uuid.New().String())
}

// Kind returns the prefix passed to NewID, or the whole handle if it has none.
func (id ID) Kind() string {
	kind, _, found := strings.Cut(string(id), "-")
	if !found {
		return string(id)
	}
	return kind
}

// IsNone reports whether id is the empty handle.
func (id ID) IsNone() bool { return id == None }

// String implements fmt.Stringer.
func (id ID) String() string { return string(id) }
