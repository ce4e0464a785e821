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
// This file defines ErrorList type which is used to collect multiple errors
// into one error object.
//

package errs

import (
	"fmt"
)

type ErrorList struct {
	errList []error
}

// NewErrorList collects one or more errors into a single error object. Nil
// arguments are ignored; a nil is returned when all arguments are nil.
func NewErrorList(first error, rest ...error) *ErrorList {
	if first == nil {
		switch len(rest) {
		case 0:
			return nil
		case 1:
			first, rest = rest[0], nil
		default:
			first, rest = rest[0], rest[1:]
		}
	}

	if xx, ok := first.(*ErrorList); ok {
		for _, err := range rest {
			if err != nil {
				xx.errList = append(xx.errList, err)
			}
		}
		return xx
	}

	var errList []error
	errList = append(errList, first)
	for _, err := range rest {
		if err != nil {
			errList = append(errList, err)
		}
	}
	return &ErrorList{errList}
}

// MergeErrors merges a new error into the current error status. The first
// error category is preserved, so Is* checks against the merged result match
// the first failure.
func MergeErrors(status error, err error) error {
	if status == nil {
		if err == nil {
			return nil
		}
		return err
	}
	if err == nil {
		return status
	}
	return NewErrorList(status, err)
}

// FirstError returns the first error in the list of errors.
func (this *ErrorList) FirstError() error {
	return this.errList[0]
}

// Error implements the Go language's standard error interface.
func (this *ErrorList) Error() string {
	return fmt.Sprint(this.errList)
}
