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
	"runtime"
	"testing"
	"time"

	"github.com/ortoo/mesos/base/log"
	"github.com/ortoo/mesos/msg/simple"
	"github.com/ortoo/mesos/replog"
	"github.com/ortoo/mesos/state"
	"github.com/ortoo/mesos/wal/fswal"
)

type controllerAgent struct {
	name        string
	addressList []string

	wal     *fswal.WriteAheadLog
	msn     *simple.Messenger
	replica *replog.Replica
	log     *replog.Log
}

func newControllerAgent(test *testing.T, logger log.Logger, tmpDir,
	name string) *controllerAgent {

	walOpts := &fswal.Options{
		MaxReadSize:     4096,
		MaxWriteSize:    32 * 1024,
		MaxReadDirNames: 1024,
		MaxFileSize:     10 * 1024 * 1024,
		FileMode:        os.FileMode(0600),
	}
	msnOpts := &simple.Options{
		MaxWriteTimeout:        20 * time.Millisecond,
		ResponseQueueSize:      100,
		SendQueueSize:          100,
		NegotiationTimeout:     20 * time.Millisecond,
		SendRetryTimeout:       10 * time.Millisecond,
		MaxDispatchRequests:    100,
		DispatchRequestTimeout: time.Millisecond,
	}
	logOpts := &replog.Options{
		ElectTimeout:     time.Second,
		WriteTimeout:     time.Second,
		LearnTimeout:     time.Second,
		ReadTimeout:      time.Second,
		MaxCachedActions: 1024,
	}
	replicaOpts := &replog.ReplicaOptions{
		MaxReadBatchSize: 1024,
	}

	agent := &controllerAgent{name: name}

	lwal := &fswal.WriteAheadLog{Logger: logger}
	if err := lwal.Initialize(walOpts, tmpDir, name); err != nil {
		test.Fatalf("could not create wal for %s: %v", name, err)
		return nil
	}
	agent.wal = lwal

	msn := &simple.Messenger{Logger: logger}
	if err := msn.Initialize(msnOpts, name); err != nil {
		test.Fatalf("could not initialize messenger for %s: %v", name, err)
		return nil
	}
	if err := msn.Start(); err != nil {
		test.Fatalf("could not start messenger on %s: %v", name, err)
		return nil
	}
	if err := msn.AddListenerAddress("tcp://127.0.0.1:0"); err != nil {
		test.Fatalf("could not add listener address to %s: %v", name, err)
		return nil
	}
	agent.msn = msn
	agent.addressList = msn.ListenerAddressList()

	replica := &replog.Replica{Logger: logger}
	errReplica := replica.Initialize(replicaOpts, "replog", "test", msn, lwal)
	if errReplica != nil {
		test.Fatalf("could not initialize replica for %s: %v", name, errReplica)
		return nil
	}
	errRegister := msn.RegisterClass("replog", replica,
		replog.ReplicaRPCList()...)
	if errRegister != nil {
		test.Fatalf("could not export replica rpcs on %s: %v", name, errRegister)
		return nil
	}
	agent.replica = replica

	rlog := &replog.Log{Logger: logger}
	if err := rlog.Initialize(logOpts, "replog", "test", msn, lwal); err != nil {
		test.Fatalf("could not initialize log for %s: %v", name, err)
		return nil
	}
	agent.log = rlog

	if err := lwal.Recover(nil); err != nil {
		test.Fatalf("could not recover wal for %s: %v", name, err)
		return nil
	}
	return agent
}

// TestRegistrarFailover covers the controller election flow: the first
// leader creates the roster, a later leader recovers it from the replicated
// log through a freshly constructed state and registrar.
func TestRegistrarFailover(test *testing.T) {
	runtime.GOMAXPROCS(4)

	filePath := "/tmp/test_registry_failover.log"
	simpleLog := log.SimpleFileLog{}
	if err := simpleLog.Initialize(filePath); err != nil {
		test.Fatalf("could not initialize log backend: %v", err)
		return
	}
	logger := simpleLog.NewLogger("test-registry-failover")
	logger.Infof("starting new test")

	tmpDir, errTemp := ioutil.TempDir("", "TestRegistrarFailover")
	if errTemp != nil {
		test.Fatalf("could not create temporary directory: %v", errTemp)
	}
	defer func() {
		if !test.Failed() {
			os.RemoveAll(tmpDir)
		}
	}()

	agent1 := newControllerAgent(test, logger, tmpDir, "one")
	agent2 := newControllerAgent(test, logger, tmpDir, "two")
	agent3 := newControllerAgent(test, logger, tmpDir, "three")

	agentList := []*controllerAgent{agent1, agent2, agent3}
	for _, this := range agentList {
		for _, other := range agentList {
			if this == other {
				continue
			}
			errAdd := this.msn.AddPeerAddress(other.name, other.addressList)
			if errAdd != nil {
				test.Fatalf("could not add peer %s to %s: %v", other.name,
					this.name, errAdd)
				return
			}
		}
	}
	memberList := []string{"one", "two", "three"}
	for _, agent := range agentList {
		agent.log.SetMembership(memberList)
	}

	newTerm := func(agent *controllerAgent) *Registrar {
		if err := agent.log.Elect(); err != nil {
			test.Fatalf("could not elect coordinator on %s: %v", agent.name, err)
			return nil
		}
		stateOpts := &state.Options{CompactionLimit: 16}
		store := &state.ReplicatedState{Logger: logger}
		if err := store.Initialize(stateOpts, "vars", agent.log); err != nil {
			test.Fatalf("could not initialize state on %s: %v", agent.name, err)
			return nil
		}
		registrarOpts := &Options{
			MaxApplyRetries: 3,
			ApplyTimeout:    time.Second,
		}
		registrar := &Registrar{Logger: logger}
		if err := registrar.Initialize(registrarOpts, store); err != nil {
			test.Fatalf("could not initialize registrar on %s: %v", agent.name,
				err)
			return nil
		}
		return registrar
	}

	// First term ever: the roster starts empty.
	term1 := newTerm(agent1)
	registry, errRecover := term1.Recover()
	if errRecover != nil {
		test.Fatalf("could not recover in the first term: %v", errRecover)
	}
	if len(registry.AdmittedList) != 0 {
		test.Errorf("first ever roster is not empty: %s", registry)
	}
	if _, err := term1.Admit("node-1", "host-1"); err != nil {
		test.Fatalf("could not admit node-1: %v", err)
	}

	// Failover: a fresh registrar on another agent recovers the same roster
	// from the replicated log.
	term2 := newTerm(agent2)
	registry, errRecover = term2.Recover()
	if errRecover != nil {
		test.Fatalf("could not recover after failover: %v", errRecover)
	}
	ids := admittedIDs(registry)
	if len(ids) != 1 || ids[0] != "node-1" {
		test.Errorf("recovered roster admits %v; want [node-1]", ids)
	}

	// The new term keeps mutating where the old one left off, and the old
	// term can no longer write.
	if _, err := term2.Admit("node-2", "host-2"); err != nil {
		test.Fatalf("could not admit node-2 in the new term: %v", err)
	}
	if _, err := term1.Admit("node-3", "host-3"); err == nil {
		test.Errorf("fenced term admitted a node after failover")
	}
}
