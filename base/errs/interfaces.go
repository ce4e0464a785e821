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
// This file defines client interface for this package.
//

package errs

// Errors interface defines pre-defined errors. They also serve as error
// categories when users choose to create errors with custom messages if
// necessary.
//
// All errors created by this package are serializable, so they can be included
// in network messages.
var (
	ErrInvalid  = &SimpleError{Category: "ErrInvalid"}
	ErrExist    = &SimpleError{Category: "ErrExist"}
	ErrNotExist = &SimpleError{Category: "ErrNotExist"}
	ErrRetry    = &SimpleError{Category: "ErrRetry"}
	ErrIOError  = &SimpleError{Category: "ErrIOError"}
	ErrTimeout  = &SimpleError{Category: "ErrTimeout"}
	ErrClosed   = &SimpleError{Category: "ErrClosed"}
	ErrStarted  = &SimpleError{Category: "ErrStarted"}
	ErrStopped  = &SimpleError{Category: "ErrStopped"}
	ErrOverflow = &SimpleError{Category: "ErrOverflow"}
	ErrStale    = &SimpleError{Category: "ErrStale"}
	ErrCorrupt  = &SimpleError{Category: "ErrCorrupt"}

	// Errors below are specific to the replicated log and its users.
	ErrElectionFailed = &SimpleError{Category: "ErrElectionFailed"}
	ErrNotElected     = &SimpleError{Category: "ErrNotElected"}
	ErrConflict       = &SimpleError{Category: "ErrConflict"}
	ErrUnavailable    = &SimpleError{Category: "ErrUnavailable"}

	// If necessary, add new errors above and define one or more Is* functions
	// as necessary.
)

// Is* functions check if an error object belongs to an error category.
func IsInvalid(err error) bool  { return ErrInvalid.isSimilar(err) }
func IsExist(err error) bool    { return ErrExist.isSimilar(err) }
func IsNotExist(err error) bool { return ErrNotExist.isSimilar(err) }
func IsRetry(err error) bool    { return ErrRetry.isSimilar(err) }
func IsIOError(err error) bool  { return ErrIOError.isSimilar(err) }
func IsTimeout(err error) bool  { return ErrTimeout.isSimilar(err) }
func IsClosed(err error) bool   { return ErrClosed.isSimilar(err) }
func IsStarted(err error) bool  { return ErrStarted.isSimilar(err) }
func IsStopped(err error) bool  { return ErrStopped.isSimilar(err) }
func IsOverflow(err error) bool { return ErrOverflow.isSimilar(err) }
func IsStale(err error) bool    { return ErrStale.isSimilar(err) }
func IsCorrupt(err error) bool  { return ErrCorrupt.isSimilar(err) }

func IsElectionFailed(err error) bool { return ErrElectionFailed.isSimilar(err) }
func IsNotElected(err error) bool     { return ErrNotElected.isSimilar(err) }
func IsConflict(err error) bool       { return ErrConflict.isSimilar(err) }
func IsUnavailable(err error) bool    { return ErrUnavailable.isSimilar(err) }

// NewErrorf creates an error of pre-defined error category with an
// user-defined error message.
func NewErrorf(category *SimpleError, format string,
	args ...interface{}) error {

	return category.newErrorf(format, args...)
}

// New* functions create errors of well known categories with user-defined
// error messages.
func NewErrInvalid(format string, args ...interface{}) error {
	return ErrInvalid.newErrorf(format, args...)
}

func NewErrExist(format string, args ...interface{}) error {
	return ErrExist.newErrorf(format, args...)
}

func NewErrNotExist(format string, args ...interface{}) error {
	return ErrNotExist.newErrorf(format, args...)
}

func NewErrRetry(format string, args ...interface{}) error {
	return ErrRetry.newErrorf(format, args...)
}

func NewErrTimeout(format string, args ...interface{}) error {
	return ErrTimeout.newErrorf(format, args...)
}

func NewErrCorrupt(format string, args ...interface{}) error {
	return ErrCorrupt.newErrorf(format, args...)
}

func NewErrElectionFailed(format string, args ...interface{}) error {
	return ErrElectionFailed.newErrorf(format, args...)
}

func NewErrNotElected(format string, args ...interface{}) error {
	return ErrNotElected.newErrorf(format, args...)
}

func NewErrConflict(format string, args ...interface{}) error {
	return ErrConflict.newErrorf(format, args...)
}

func NewErrUnavailable(format string, args ...interface{}) error {
	return ErrUnavailable.newErrorf(format, args...)
}
