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
// This file defines ExternalState type which adapts an external key-value
// service client to the Storage interface.
//
// THREAD SAFETY
//
// All public functions are thread-safe when the underlying client is.
//
// NOTES
//
// The external service owns version assignment and the compare-and-swap
// admission test. Clients must report failures with the error categories
// from base/errs, in particular the conflict error on a version mismatch and
// the not-exist error for names without a live value, so that callers behave
// identically across all storage backends.
//

package state

import (
	"github.com/ortoo/mesos/base/log"
)

// KVClient is the client interface for an external versioned key-value
// service.
type KVClient interface {
	// Load returns the current value and version for a key.
	Load(key string) (value []byte, version []byte, err error)

	// Store writes a value if the expected version matches and returns the
	// new version.
	Store(key string, value []byte, expected []byte) (version []byte,
		err error)

	// Erase removes a key if the expected version matches.
	Erase(key string, expected []byte) error

	// List returns all live keys in sorted order.
	List() ([]string, error)
}

// ExternalState implements the Storage interface over an external key-value
// service.
type ExternalState struct {
	log.Logger

	// The external service client.
	client KVClient
}

// Initialize initializes an external state instance.
func (this *ExternalState) Initialize(uid string, client KVClient) error {
	this.client = client
	this.Logger = this.NewLogger("state:%s", uid)
	return nil
}

// Close releases all resources and destroys the object.
func (this *ExternalState) Close() error {
	return nil
}

// Get returns the current variable for a name.
func (this *ExternalState) Get(name string) (*Variable, error) {
	value, version, errLoad := this.client.Load(name)
	if errLoad != nil {
		return nil, errLoad
	}
	return &Variable{Name: name, Value: value, Version: version}, nil
}

// Set writes a new value for a name under the compare-and-swap contract.
func (this *ExternalState) Set(name string, value []byte,
	expected []byte) (*Variable, error) {

	version, errStore := this.client.Store(name, value, expected)
	if errStore != nil {
		this.Warningf("could not store variable %s: %v", name, errStore)
		return nil, errStore
	}
	return &Variable{Name: name, Value: value, Version: version}, nil
}

// Delete removes the live value for a name.
func (this *ExternalState) Delete(name string, expected []byte) error {
	if err := this.client.Erase(name, expected); err != nil {
		this.Warningf("could not erase variable %s: %v", name, err)
		return err
	}
	return nil
}

// Names returns the names of all live variables in sorted order.
func (this *ExternalState) Names() ([]string, error) {
	return this.client.List()
}
