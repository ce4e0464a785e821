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
// This file defines SimpleError type which implements serializable errors
// that can travel in rpc response headers.
//

package errs

import (
	"fmt"

	errspb "github.com/ortoo/mesos/proto/errs"
)

// SimpleError type implements serializable errors. Errors are classified by
// their category; an optional message carries the detail.
type SimpleError struct {
	Category string
	Message  *string
}

// Error implements the Go language's standard error interface.
func (this *SimpleError) Error() string {
	if this.Message == nil {
		return this.Category
	}
	return fmt.Sprintf("%s{%s}", this.Category, *this.Message)
}

func (this *SimpleError) newErrorf(format string,
	args ...interface{}) *SimpleError {

	message := fmt.Sprintf(format, args...)
	newErr := &SimpleError{
		Category: this.Category,
		Message:  &message,
	}
	return newErr
}

func (this *SimpleError) isSimilar(err error) bool {
	if x, ok := err.(*SimpleError); ok {
		return x.Category == this.Category
	}
	if x, ok := err.(*ErrorList); ok {
		return this.isSimilar(x.FirstError())
	}
	return false
}

// MakeProtoFromError encodes an error into its wire form. Errors that are not
// SimpleError objects lose their type and become plain messages.
func MakeProtoFromError(err error) *errspb.ErrorProto {
	if err == nil {
		return nil
	}

	errProto := &errspb.ErrorProto{}
	if x, ok := err.(*SimpleError); ok {
		category := x.Category
		errProto.Category = &category
		if x.Message != nil {
			message := *x.Message
			errProto.Message = &message
		}
		return errProto
	}

	message := err.Error()
	errProto.Message = &message
	return errProto
}

// MakeErrorFromProto decodes the wire form of an error back into an error
// object. Category comparisons with Is* functions survive the round trip.
func MakeErrorFromProto(errProto *errspb.ErrorProto) error {
	if errProto == nil {
		return nil
	}

	err := &SimpleError{Category: errProto.GetCategory()}
	if errProto.Message != nil {
		message := errProto.GetMessage()
		err.Message = &message
	}
	return err
}
