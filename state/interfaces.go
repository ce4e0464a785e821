// Copyright (c) 2016 BVK Chaitanya
//
// This file is part of the Ortoo Mesos Library.
//
// The Ortoo Mesos Library is free software: you can redistribute it and/or
// modify it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// The Ortoo Mesos Library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with the Ortoo Mesos Library.  If not, see
// <http://www.gnu.org/licenses/>.

//
// This file defines the Storage interface for named, versioned variables.
//
// NOTES
//
// All backends share the same compare-and-swap contract. A version is an
// opaque token assigned on every successful write; token equality is the
// only admission test for a write, so there are no blocking locks and
// callers retry on conflicts with a fresh read.
//

package state

import (
	"crypto/rand"

	"github.com/ortoo/mesos/base/errs"
)

// VersionSize is the length of version tokens in bytes.
const VersionSize = 16

// Variable is a named, versioned value.
type Variable struct {
	// Name of the variable.
	Name string

	// Current value.
	Value []byte

	// Opaque version token for the current value.
	Version []byte
}

// Storage defines common semantics for all variable storage backends.
type Storage interface {
	// Get returns the current variable for a name. Fails with the not-exist
	// error when no live value exists for the name.
	Get(name string) (*Variable, error)

	// Set writes a new value for a name if the expected version matches the
	// current version. A nil expected version admits the write only when the
	// name has no live value. Fails with the conflict error on a version
	// mismatch; callers must re-read and retry.
	Set(name string, value []byte, expected []byte) (*Variable, error)

	// Delete removes the live value for a name if the expected version
	// matches the current version. Fails with the conflict error on a
	// version mismatch and the not-exist error when no live value exists.
	Delete(name string, expected []byte) error

	// Names returns the names of all live variables in sorted order.
	Names() ([]string, error)
}

// NewVersion returns a fresh opaque version token.
func NewVersion() ([]byte, error) {
	version := make([]byte, VersionSize)
	if _, err := rand.Read(version); err != nil {
		return nil, errs.NewErrorf(errs.ErrIOError,
			"could not generate a version token: %v", err)
	}
	return version, nil
}
