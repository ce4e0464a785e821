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

package registry

import (
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/ortoo/mesos/base/errs"
	"github.com/ortoo/mesos/base/log"
	"github.com/ortoo/mesos/state"
	"github.com/ortoo/mesos/wal/fswal"

	thispb "github.com/ortoo/mesos/proto/registry"
)

func newTestStore(test *testing.T, logger log.Logger,
	tmpDir string) (*state.LocalState, *fswal.WriteAheadLog) {

	walOpts := &fswal.Options{
		MaxReadSize:     4096,
		MaxWriteSize:    32 * 1024,
		MaxReadDirNames: 1024,
		MaxFileSize:     10 * 1024 * 1024,
		FileMode:        os.FileMode(0600),
	}
	lwal := &fswal.WriteAheadLog{Logger: logger}
	if err := lwal.Initialize(walOpts, tmpDir, "store"); err != nil {
		test.Fatalf("could not create wal: %v", err)
		return nil, nil
	}
	store := &state.LocalState{Logger: logger}
	if err := store.Initialize("vars", lwal); err != nil {
		test.Fatalf("could not initialize local state: %v", err)
		return nil, nil
	}
	if err := lwal.Recover(nil); err != nil {
		test.Fatalf("could not recover wal: %v", err)
		return nil, nil
	}
	return store, lwal
}

func newTestRegistrar(test *testing.T, logger log.Logger,
	store state.Storage) *Registrar {

	opts := &Options{
		MaxApplyRetries: 3,
		ApplyTimeout:    time.Second,
	}
	registrar := &Registrar{Logger: logger}
	if err := registrar.Initialize(opts, store); err != nil {
		test.Fatalf("could not initialize registrar: %v", err)
		return nil
	}
	return registrar
}

func admittedIDs(registry *thispb.Registry) []string {
	var idList []string
	for _, node := range registry.AdmittedList {
		idList = append(idList, node.GetNodeId())
	}
	return idList
}

func TestRegistrarLifecycle(test *testing.T) {
	filePath := "/tmp/test_registry_lifecycle.log"
	simpleLog := log.SimpleFileLog{}
	if err := simpleLog.Initialize(filePath); err != nil {
		test.Fatalf("could not initialize log backend: %v", err)
		return
	}
	logger := simpleLog.NewLogger("test-registry-lifecycle")
	logger.Infof("starting new test")

	tmpDir, errTemp := ioutil.TempDir("", "TestRegistrarLifecycle")
	if errTemp != nil {
		test.Fatalf("could not create temporary directory: %v", errTemp)
	}
	defer func() {
		if !test.Failed() {
			os.RemoveAll(tmpDir)
		}
	}()

	store, _ := newTestStore(test, logger, tmpDir)
	registrar := newTestRegistrar(test, logger, store)

	// Mutations are rejected until the roster is recovered.
	if _, err := registrar.Admit("node-1", "host-1"); !errs.IsInvalid(err) {
		test.Errorf("admit before recover returned %v; want the invalid "+
			"error", err)
	}

	// A roster that was never written recovers as empty.
	registry, errRecover := registrar.Recover()
	if errRecover != nil {
		test.Fatalf("could not recover the roster: %v", errRecover)
	}
	if len(registry.AdmittedList) != 0 || len(registry.RemovedList) != 0 {
		test.Errorf("fresh roster is not empty: %s", registry)
	}

	registry, errAdmit := registrar.Admit("node-1", "host-1")
	if errAdmit != nil {
		test.Fatalf("could not admit node-1: %v", errAdmit)
	}
	if ids := admittedIDs(registry); len(ids) != 1 || ids[0] != "node-1" {
		test.Errorf("roster admits %v; want [node-1]", ids)
	}
	if _, err := registrar.Admit("node-1", "host-1"); !errs.IsExist(err) {
		test.Errorf("repeated admit returned %v; want the exist error", err)
	}

	if _, err := registrar.Readmit("node-2"); !errs.IsNotExist(err) {
		test.Errorf("readmit of an unknown node returned %v; want the "+
			"not-exist error", err)
	}
	if _, err := registrar.Readmit("node-1"); err != nil {
		test.Errorf("could not readmit node-1: %v", err)
	}

	registry, errAdmit = registrar.Admit("node-2", "host-2")
	if errAdmit != nil {
		test.Fatalf("could not admit node-2: %v", errAdmit)
	}
	registry, errRemove := registrar.Remove("node-1")
	if errRemove != nil {
		test.Fatalf("could not remove node-1: %v", errRemove)
	}
	if ids := admittedIDs(registry); len(ids) != 1 || ids[0] != "node-2" {
		test.Errorf("roster admits %v after removal; want [node-2]", ids)
	}
	if len(registry.RemovedList) != 1 ||
		registry.RemovedList[0].GetNodeId() != "node-1" {
		test.Errorf("removed list is %v; want [node-1]", registry.RemovedList)
	}
	if _, err := registrar.Remove("node-1"); !errs.IsNotExist(err) {
		test.Errorf("repeated remove returned %v; want the not-exist error",
			err)
	}

	// A removed node can be admitted again; it leaves the removed list.
	registry, errAdmit = registrar.Admit("node-1", "host-1b")
	if errAdmit != nil {
		test.Fatalf("could not admit node-1 again: %v", errAdmit)
	}
	if len(registry.RemovedList) != 0 {
		test.Errorf("removed list is %v after re-admission; want empty",
			registry.RemovedList)
	}

	// A freshly constructed registrar against the same store recovers the
	// same roster.
	fresh := newTestRegistrar(test, logger, store)
	recovered, errFresh := fresh.Recover()
	if errFresh != nil {
		test.Fatalf("could not recover with a fresh registrar: %v", errFresh)
	}
	ids := admittedIDs(recovered)
	if len(ids) != 2 {
		test.Errorf("fresh registrar admits %v; want node-1 and node-2", ids)
	}
}

func TestRegistrarConflictRetry(test *testing.T) {
	filePath := "/tmp/test_registry_conflict_retry.log"
	simpleLog := log.SimpleFileLog{}
	if err := simpleLog.Initialize(filePath); err != nil {
		test.Fatalf("could not initialize log backend: %v", err)
		return
	}
	logger := simpleLog.NewLogger("test-registry-conflict")
	logger.Infof("starting new test")

	tmpDir, errTemp := ioutil.TempDir("", "TestRegistrarConflictRetry")
	if errTemp != nil {
		test.Fatalf("could not create temporary directory: %v", errTemp)
	}
	defer func() {
		if !test.Failed() {
			os.RemoveAll(tmpDir)
		}
	}()

	store, _ := newTestStore(test, logger, tmpDir)

	// Two registrars over one store model a conflicting writer: the second
	// one holds a stale version after the first one commits.
	left := newTestRegistrar(test, logger, store)
	right := newTestRegistrar(test, logger, store)
	if _, err := left.Recover(); err != nil {
		test.Fatalf("could not recover left registrar: %v", err)
	}
	if _, err := right.Recover(); err != nil {
		test.Fatalf("could not recover right registrar: %v", err)
	}

	if _, err := left.Admit("node-1", "host-1"); err != nil {
		test.Fatalf("could not admit node-1 through left: %v", err)
	}

	// The right registrar hits a conflict, re-reads and reapplies.
	registry, errAdmit := right.Admit("node-2", "host-2")
	if errAdmit != nil {
		test.Fatalf("could not admit node-2 through right: %v", errAdmit)
	}
	ids := admittedIDs(registry)
	if len(ids) != 2 {
		test.Errorf("roster admits %v after the conflicting admits; want "+
			"node-1 and node-2", ids)
	}
}

// conflictingStorage fails every write with the conflict error.
type conflictingStorage struct {
	state.Storage

	setCalls int
}

func (this *conflictingStorage) Get(name string) (*state.Variable, error) {
	return nil, errs.NewErrNotExist("variable %s has no live value", name)
}

func (this *conflictingStorage) Set(name string, value []byte,
	expected []byte) (*state.Variable, error) {

	this.setCalls++
	return nil, errs.NewErrConflict("injected conflict for variable %s", name)
}

func TestRegistrarRetriesExhausted(test *testing.T) {
	filePath := "/tmp/test_registry_retries_exhausted.log"
	simpleLog := log.SimpleFileLog{}
	if err := simpleLog.Initialize(filePath); err != nil {
		test.Fatalf("could not initialize log backend: %v", err)
		return
	}
	logger := simpleLog.NewLogger("test-registry-exhausted")
	logger.Infof("starting new test")

	store := &conflictingStorage{}
	registrar := newTestRegistrar(test, logger, store)
	if _, err := registrar.Recover(); err != nil {
		test.Fatalf("could not recover against the conflicting store: %v", err)
	}

	_, errAdmit := registrar.Admit("node-1", "host-1")
	if !errs.IsUnavailable(errAdmit) {
		test.Errorf("admit against a conflicting store returned %v; want the "+
			"unavailable error", errAdmit)
	}
	if store.setCalls != 3 {
		test.Errorf("admit attempted %d writes; want 3", store.setCalls)
	}
}
