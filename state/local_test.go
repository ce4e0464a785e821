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

package state

import (
	"bytes"
	"io/ioutil"
	"os"
	"reflect"
	"testing"

	"github.com/ortoo/mesos/base/errs"
	"github.com/ortoo/mesos/base/log"
	"github.com/ortoo/mesos/wal/fswal"
)

func TestLocalStateCompareAndSwap(test *testing.T) {
	filePath := "/tmp/test_state_local_cas.log"
	simpleLog := log.SimpleFileLog{}
	if err := simpleLog.Initialize(filePath); err != nil {
		test.Fatalf("could not initialize log backend: %v", err)
		return
	}
	logger := simpleLog.NewLogger("test-state-local-cas")
	logger.Infof("starting new test")

	tmpDir, errTemp := ioutil.TempDir("", "TestLocalStateCompareAndSwap")
	if errTemp != nil {
		test.Fatalf("could not create temporary directory: %v", errTemp)
	}
	defer func() {
		if !test.Failed() {
			os.RemoveAll(tmpDir)
		}
	}()

	walOpts := &fswal.Options{
		MaxReadSize:     4096,
		MaxWriteSize:    32 * 1024,
		MaxReadDirNames: 1024,
		MaxFileSize:     10 * 1024 * 1024,
		FileMode:        os.FileMode(0600),
	}
	lwal := &fswal.WriteAheadLog{Logger: logger}
	if err := lwal.Initialize(walOpts, tmpDir, "local"); err != nil {
		test.Fatalf("could not create wal: %v", err)
	}

	local := &LocalState{Logger: logger}
	if err := local.Initialize("vars", lwal); err != nil {
		test.Fatalf("could not initialize local state: %v", err)
	}
	if err := lwal.Recover(nil); err != nil {
		test.Fatalf("could not recover wal: %v", err)
	}

	if _, err := local.Get("a"); !errs.IsNotExist(err) {
		test.Errorf("get on a missing variable returned %v; want the "+
			"not-exist error", err)
	}

	// A nil expected version creates the variable.
	first, errSet := local.Set("a", []byte("1"), nil)
	if errSet != nil {
		test.Fatalf("could not create variable a: %v", errSet)
	}
	if len(first.Version) != VersionSize {
		test.Errorf("version token has %d bytes; want %d", len(first.Version),
			VersionSize)
	}

	// Creating again must conflict because the variable now has a version.
	if _, err := local.Set("a", []byte("x"), nil); !errs.IsConflict(err) {
		test.Errorf("re-create of a live variable returned %v; want the "+
			"conflict error", err)
	}

	// A stale expected version must conflict without changing the value.
	stale := append([]byte(nil), first.Version...)
	second, errSet := local.Set("a", []byte("2"), first.Version)
	if errSet != nil {
		test.Fatalf("could not update variable a: %v", errSet)
	}
	if _, err := local.Set("a", []byte("3"), stale); !errs.IsConflict(err) {
		test.Errorf("update with a stale version returned %v; want the "+
			"conflict error", err)
	}
	current, errGet := local.Get("a")
	if errGet != nil {
		test.Fatalf("could not read variable a: %v", errGet)
	}
	if !bytes.Equal(current.Value, []byte("2")) {
		test.Errorf("variable a holds %q after a failed update; want %q",
			current.Value, "2")
	}
	if !bytes.Equal(current.Version, second.Version) {
		test.Errorf("variable a version changed by a failed update")
	}

	// Tombstones need the current version too.
	if err := local.Delete("a", stale); !errs.IsConflict(err) {
		test.Errorf("delete with a stale version returned %v; want the "+
			"conflict error", err)
	}
	if err := local.Delete("a", second.Version); err != nil {
		test.Fatalf("could not delete variable a: %v", err)
	}
	if _, err := local.Get("a"); !errs.IsNotExist(err) {
		test.Errorf("get on a deleted variable returned %v; want the "+
			"not-exist error", err)
	}
	if err := local.Delete("a", nil); !errs.IsNotExist(err) {
		test.Errorf("delete on a deleted variable returned %v; want the "+
			"not-exist error", err)
	}
}

func TestLocalStateRecovery(test *testing.T) {
	filePath := "/tmp/test_state_local_recovery.log"
	simpleLog := log.SimpleFileLog{}
	if err := simpleLog.Initialize(filePath); err != nil {
		test.Fatalf("could not initialize log backend: %v", err)
		return
	}
	logger := simpleLog.NewLogger("test-state-local-recovery")
	logger.Infof("starting new test")

	tmpDir, errTemp := ioutil.TempDir("", "TestLocalStateRecovery")
	if errTemp != nil {
		test.Fatalf("could not create temporary directory: %v", errTemp)
	}
	defer func() {
		if !test.Failed() {
			os.RemoveAll(tmpDir)
		}
	}()

	walOpts := &fswal.Options{
		MaxReadSize:     4096,
		MaxWriteSize:    32 * 1024,
		MaxReadDirNames: 1024,
		MaxFileSize:     10 * 1024 * 1024,
		FileMode:        os.FileMode(0600),
	}

	collectState := func(local *LocalState) map[string]string {
		snapshot := make(map[string]string)
		nameList, errNames := local.Names()
		if errNames != nil {
			test.Fatalf("could not list variables: %v", errNames)
		}
		for _, name := range nameList {
			variable, errGet := local.Get(name)
			if errGet != nil {
				test.Fatalf("could not read variable %s: %v", name, errGet)
			}
			snapshot[name] = string(variable.Value) + "@" +
				string(variable.Version)
		}
		return snapshot
	}

	lwal := &fswal.WriteAheadLog{Logger: logger}
	if err := lwal.Initialize(walOpts, tmpDir, "local"); err != nil {
		test.Fatalf("could not create wal: %v", err)
	}
	local := &LocalState{Logger: logger}
	if err := local.Initialize("vars", lwal); err != nil {
		test.Fatalf("could not initialize local state: %v", err)
	}
	if err := lwal.Recover(nil); err != nil {
		test.Fatalf("could not recover wal: %v", err)
	}

	var version []byte
	for _, value := range []string{"1", "2", "3"} {
		variable, errSet := local.Set("a", []byte(value), version)
		if errSet != nil {
			test.Fatalf("could not write variable a: %v", errSet)
		}
		version = variable.Version
	}
	if _, err := local.Set("b", []byte("10"), nil); err != nil {
		test.Fatalf("could not write variable b: %v", err)
	}
	gone, errSet := local.Set("gone", []byte("x"), nil)
	if errSet != nil {
		test.Fatalf("could not write variable gone: %v", errSet)
	}

	// A checkpoint in the middle must not change the recovered state.
	if err := local.TakeCheckpoint(); err != nil {
		test.Fatalf("could not take checkpoint: %v", err)
	}
	if err := local.Delete("gone", gone.Version); err != nil {
		test.Fatalf("could not delete variable gone: %v", err)
	}
	if _, err := local.Set("c", []byte("100"), nil); err != nil {
		test.Fatalf("could not write variable c: %v", err)
	}

	before := collectState(local)
	if err := local.Close(); err != nil {
		test.Fatalf("could not close local state: %v", err)
	}
	if err := lwal.Close(); err != nil {
		test.Fatalf("could not close wal: %v", err)
	}

	// Replaying the same records always reconstructs the same mapping.
	for round := 0; round < 2; round++ {
		rewal := &fswal.WriteAheadLog{Logger: logger}
		if err := rewal.Initialize(walOpts, tmpDir, "local"); err != nil {
			test.Fatalf("could not reopen wal: %v", err)
		}
		recovered := &LocalState{Logger: logger}
		if err := recovered.Initialize("vars", rewal); err != nil {
			test.Fatalf("could not initialize recovered state: %v", err)
		}
		if err := rewal.Recover(nil); err != nil {
			test.Fatalf("could not recover wal: %v", err)
		}

		after := collectState(recovered)
		if !reflect.DeepEqual(before, after) {
			test.Errorf("recovered state %v differs from the original %v", after,
				before)
		}
		if _, err := recovered.Get("gone"); !errs.IsNotExist(err) {
			test.Errorf("deleted variable came back after recovery: %v", err)
		}

		if err := recovered.Close(); err != nil {
			test.Fatalf("could not close recovered state: %v", err)
		}
		if err := rewal.Close(); err != nil {
			test.Fatalf("could not close reopened wal: %v", err)
		}
	}
}
