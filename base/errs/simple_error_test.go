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
// Few simple test cases for errs package.
//

package errs

import (
	"testing"
)

func TestSimpleError(t *testing.T) {
	if !IsInvalid(ErrInvalid) {
		t.Errorf("IsInvalid(ErrInvalid) is not true")
	}
	if !IsExist(ErrExist) {
		t.Errorf("IsExist(ErrExist) is not true")
	}
	if !IsNotExist(ErrNotExist) {
		t.Errorf("IsNotExist(ErrNotExist) is not true")
	}
	if !IsRetry(ErrRetry) {
		t.Errorf("IsRetry(ErrRetry) is not true")
	}
	if !IsClosed(ErrClosed) {
		t.Errorf("IsClosed(ErrClosed) is not true")
	}
	if !IsNotElected(ErrNotElected) {
		t.Errorf("IsNotElected(ErrNotElected) is not true")
	}
	if !IsElectionFailed(ErrElectionFailed) {
		t.Errorf("IsElectionFailed(ErrElectionFailed) is not true")
	}
	if !IsConflict(ErrConflict) {
		t.Errorf("IsConflict(ErrConflict) is not true")
	}
	if !IsUnavailable(ErrUnavailable) {
		t.Errorf("IsUnavailable(ErrUnavailable) is not true")
	}

	err1 := NewErrorf(ErrInvalid, "int %d rune %c string %s", 10, 'x', "message")
	if !IsInvalid(err1) {
		t.Errorf("custom error %v is not classified into proper category", err1)
	}
	if err1.Error() != "ErrInvalid{int 10 rune x string message}" {
		t.Errorf("custom error message for [%v] is in expected format", err1)
	}
}

func TestMergeErrors(t *testing.T) {
	if err := MergeErrors(nil, nil); err != nil {
		t.Errorf("merging two nils returned non-nil error %v", err)
	}
	if err := MergeErrors(nil, ErrTimeout); !IsTimeout(err) {
		t.Errorf("merging nil with ErrTimeout returned %v", err)
	}

	merged := MergeErrors(ErrConflict, ErrTimeout)
	if !IsConflict(merged) {
		t.Errorf("merged error %v lost the first error category", merged)
	}
	merged = MergeErrors(merged, ErrClosed)
	if !IsConflict(merged) {
		t.Errorf("merged error %v lost the first error category", merged)
	}
}

func TestErrorProtoRoundTrip(t *testing.T) {
	err := NewErrNotElected("coordinator %s is demoted", "log-1")
	errProto := MakeProtoFromError(err)
	decoded := MakeErrorFromProto(errProto)
	if !IsNotElected(decoded) {
		t.Errorf("decoded error %v is not classified into proper category",
			decoded)
	}
	if decoded.Error() != err.Error() {
		t.Errorf("decoded error message [%v] want [%v]", decoded, err)
	}

	if MakeProtoFromError(nil) != nil {
		t.Errorf("nil error encoded into non-nil proto")
	}
	if MakeErrorFromProto(nil) != nil {
		t.Errorf("nil proto decoded into non-nil error")
	}
}
