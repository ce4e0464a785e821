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

package replog

import (
	"bytes"
	"io/ioutil"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/ortoo/mesos/base/errs"
	"github.com/ortoo/mesos/base/log"
	"github.com/ortoo/mesos/msg/simple"
	"github.com/ortoo/mesos/wal/fswal"

	thispb "github.com/ortoo/mesos/proto/replog"
)

type testAgent struct {
	name        string
	addressList []string

	wal     *fswal.WriteAheadLog
	msn     *simple.Messenger
	replica *Replica
	log     *Log
}

func testOptions() (*fswal.Options, *simple.Options, *Options,
	*ReplicaOptions) {

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
	logOpts := &Options{
		ElectTimeout:     time.Second,
		WriteTimeout:     time.Second,
		LearnTimeout:     time.Second,
		ReadTimeout:      time.Second,
		MaxCachedActions: 1024,
	}
	replicaOpts := &ReplicaOptions{
		MaxReadBatchSize: 1024,
	}
	return walOpts, msnOpts, logOpts, replicaOpts
}

func newTestAgent(test *testing.T, logger log.Logger, tmpDir,
	name string) *testAgent {

	walOpts, msnOpts, logOpts, replicaOpts := testOptions()

	agent := &testAgent{name: name}

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

	replica := &Replica{Logger: logger}
	errReplica := replica.Initialize(replicaOpts, "replog", "test", msn, lwal)
	if errReplica != nil {
		test.Fatalf("could not initialize replica for %s: %v", name, errReplica)
		return nil
	}
	errRegister := msn.RegisterClass("replog", replica, ReplicaRPCList()...)
	if errRegister != nil {
		test.Fatalf("could not export replica rpcs on %s: %v", name, errRegister)
		return nil
	}
	agent.replica = replica

	rlog := &Log{Logger: logger}
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

func connectTestAgents(test *testing.T, agentList ...*testAgent) {
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

	var memberList []string
	for _, agent := range agentList {
		memberList = append(memberList, agent.name)
	}
	for _, agent := range agentList {
		agent.log.SetMembership(memberList)
	}
}

func TestLogAppendRead(test *testing.T) {
	runtime.GOMAXPROCS(4)

	filePath := "/tmp/test_replog_append_read.log"
	simpleLog := log.SimpleFileLog{}
	if err := simpleLog.Initialize(filePath); err != nil {
		test.Fatalf("could not initialize log backend: %v", err)
		return
	}
	logger := simpleLog.NewLogger("test-replog-append-read")
	logger.Infof("starting new test")

	tmpDir, errTemp := ioutil.TempDir("", "TestLogAppendRead")
	if errTemp != nil {
		test.Fatalf("could not create temporary directory: %v", errTemp)
	}
	defer func() {
		if !test.Failed() {
			os.RemoveAll(tmpDir)
		}
	}()

	agent1 := newTestAgent(test, logger, tmpDir, "one")
	agent2 := newTestAgent(test, logger, tmpDir, "two")
	agent3 := newTestAgent(test, logger, tmpDir, "three")
	connectTestAgents(test, agent1, agent2, agent3)

	// Fresh logs elect the first coordinator and the first append takes
	// position zero.
	if err := agent1.log.Elect(); err != nil {
		test.Fatalf("could not elect first coordinator: %v", err)
	}
	position, errAppend := agent1.log.Append([]byte("a"))
	if errAppend != nil {
		test.Fatalf("could not append first entry: %v", errAppend)
	}
	if position != 0 {
		test.Errorf("first append took position %d; want 0", position)
	}

	// Any other agent can read the entry through catch-up, without holding
	// the writer role.
	actionList, errRead := agent2.log.Read(0, 1)
	if errRead != nil {
		test.Fatalf("could not read position 0 from agent two: %v", errRead)
	}
	if len(actionList) != 1 {
		test.Fatalf("read returned %d actions; want 1", len(actionList))
	}
	if actionList[0].GetType() != thispb.LogAction_APPEND ||
		!bytes.Equal(actionList[0].GetData(), []byte("a")) {
		test.Errorf("read returned wrong action %s", actionList[0])
	}

	// A newer election fences the old coordinator permanently.
	if err := agent2.log.Elect(); err != nil {
		test.Fatalf("could not elect second coordinator: %v", err)
	}
	if _, err := agent1.log.Append([]byte("b")); !errs.IsNotElected(err) {
		test.Errorf("append on fenced coordinator returned %v; want the "+
			"not-elected error", err)
	}

	position, errAppend = agent2.log.Append([]byte("b"))
	if errAppend != nil {
		test.Fatalf("could not append through the new coordinator: %v",
			errAppend)
	}
	if position != 1 {
		test.Errorf("second append took position %d; want 1", position)
	}

	// Losing the quorum demotes the coordinator and leaves no partial write
	// behind.
	agent2.log.SetMembership([]string{"two", "unreachable-1", "unreachable-2"})
	if _, err := agent2.log.Append([]byte("c")); !errs.IsNotElected(err) {
		test.Errorf("append without a quorum returned %v; want the "+
			"not-elected error", err)
	}
	for _, agent := range []*testAgent{agent1, agent2, agent3} {
		if action := agent.replica.LearnedAction(2); action != nil {
			test.Errorf("replica %s learned %s at position 2 after a failed "+
				"write", agent.name, action)
		}
	}

	// Re-election with a full membership recovers the writer role on a fresh
	// coordinator object.
	agent2.log.SetMembership([]string{"one", "two", "three"})
	if err := agent2.log.Elect(); err != nil {
		test.Fatalf("could not re-elect after quorum loss: %v", err)
	}
	if _, err := agent2.log.Append([]byte("c")); err != nil {
		test.Fatalf("could not append after re-election: %v", err)
	}
}

func TestLogElectionsOnEveryAgent(test *testing.T) {
	runtime.GOMAXPROCS(4)

	filePath := "/tmp/test_replog_elections_every_agent.log"
	simpleLog := log.SimpleFileLog{}
	if err := simpleLog.Initialize(filePath); err != nil {
		test.Fatalf("could not initialize log backend: %v", err)
		return
	}
	logger := simpleLog.NewLogger("test-replog-elections-every-agent")
	logger.Infof("starting new test")

	tmpDir, errTemp := ioutil.TempDir("", "TestLogElectionsOnEveryAgent")
	if errTemp != nil {
		test.Fatalf("could not create temporary directory: %v", errTemp)
	}
	defer func() {
		if !test.Failed() {
			os.RemoveAll(tmpDir)
		}
	}()

	agent1 := newTestAgent(test, logger, tmpDir, "one")
	agent2 := newTestAgent(test, logger, tmpDir, "two")
	agent3 := newTestAgent(test, logger, tmpDir, "three")
	agentList := []*testAgent{agent1, agent2, agent3}
	connectTestAgents(test, agent1, agent2, agent3)

	// An agent whose first proposal number is below the current promise loses
	// that election; the rejections raise its floor, so the retry wins.
	electCoordinator := func(agent *testAgent) {
		for attempt := 0; ; attempt++ {
			err := agent.log.Elect()
			if err == nil {
				return
			}
			if attempt >= 3 || !errs.IsElectionFailed(err) {
				test.Fatalf("could not elect agent %s: %v", agent.name, err)
				return
			}
		}
	}

	// Every agent takes over the writer role in turn, starting from its very
	// first proposal number. The numbers must be distinct across processes, so
	// every takeover fences the previous coordinator with a strictly higher
	// promise.
	lastPromised := int64(-1)
	for ii, agent := range agentList {
		electCoordinator(agent)
		// The promise quorum may not include replica three; give the promise
		// broadcast a moment to land there.
		time.Sleep(100 * time.Millisecond)
		promised := agent3.replica.PromisedProposal()
		if promised <= lastPromised {
			test.Errorf("election on %s moved the promised proposal from %d "+
				"to %d; want a strictly higher promise", agent.name, lastPromised,
				promised)
		}
		lastPromised = promised

		position, errAppend := agent.log.Append([]byte(agent.name))
		if errAppend != nil {
			test.Fatalf("could not append through %s: %v", agent.name, errAppend)
		}
		if position != int64(ii) {
			test.Errorf("append through %s took position %d; want %d", agent.name,
				position, ii)
		}
		if ii > 0 {
			previous := agentList[ii-1]
			if _, err := previous.log.Append([]byte("x")); !errs.IsNotElected(err) {
				test.Errorf("append on fenced agent %s returned %v; want the "+
					"not-elected error", previous.name, err)
			}
		}
	}

	// Give the best-effort learn broadcasts time to land everywhere.
	time.Sleep(time.Second)

	// All replicas agree on every decided position.
	for position := int64(0); position < 3; position++ {
		want := []byte(agentList[position].name)
		for _, agent := range agentList {
			action := agent.replica.LearnedAction(position)
			if action == nil {
				test.Errorf("replica %s has not learned position %d", agent.name,
					position)
				continue
			}
			if !bytes.Equal(action.GetData(), want) {
				test.Errorf("replica %s learned %q at position %d; want %q",
					agent.name, action.GetData(), position, want)
			}
		}
	}
}

func TestLogTruncateRestart(test *testing.T) {
	runtime.GOMAXPROCS(4)

	filePath := "/tmp/test_replog_truncate_restart.log"
	simpleLog := log.SimpleFileLog{}
	if err := simpleLog.Initialize(filePath); err != nil {
		test.Fatalf("could not initialize log backend: %v", err)
		return
	}
	logger := simpleLog.NewLogger("test-replog-truncate-restart")
	logger.Infof("starting new test")

	tmpDir, errTemp := ioutil.TempDir("", "TestLogTruncateRestart")
	if errTemp != nil {
		test.Fatalf("could not create temporary directory: %v", errTemp)
	}
	defer func() {
		if !test.Failed() {
			os.RemoveAll(tmpDir)
		}
	}()

	agent1 := newTestAgent(test, logger, tmpDir, "one")
	agent2 := newTestAgent(test, logger, tmpDir, "two")
	agent3 := newTestAgent(test, logger, tmpDir, "three")
	connectTestAgents(test, agent1, agent2, agent3)

	if err := agent1.log.Elect(); err != nil {
		test.Fatalf("could not elect coordinator: %v", err)
	}
	values := [][]byte{[]byte("v0"), []byte("v1"), []byte("v2"), []byte("v3"),
		[]byte("v4")}
	for ii, value := range values {
		position, errAppend := agent1.log.Append(value)
		if errAppend != nil {
			test.Fatalf("could not append value %d: %v", ii, errAppend)
		}
		if position != int64(ii) {
			test.Errorf("append took position %d; want %d", position, ii)
		}
	}

	// Truncate marks positions below three eligible for garbage collection.
	if err := agent1.log.Truncate(3); err != nil {
		test.Fatalf("could not truncate the log: %v", err)
	}

	// Give the best-effort learn broadcasts time to land everywhere.
	time.Sleep(time.Second)

	if begin := agent3.replica.BeginPosition(); begin != 3 {
		test.Errorf("replica three has begin position %d; want 3", begin)
	}

	// Checkpoint physically drops the garbage collected positions, and a
	// restarted replica must neither resurrect them nor lose the rest.
	if err := agent3.replica.TakeCheckpoint(); err != nil {
		test.Fatalf("could not checkpoint replica three: %v", err)
	}
	if err := agent3.replica.Close(); err != nil {
		test.Fatalf("could not close replica three: %v", err)
	}
	if err := agent3.log.Close(); err != nil {
		test.Fatalf("could not close log three: %v", err)
	}
	if err := agent3.wal.Close(); err != nil {
		test.Fatalf("could not close wal three: %v", err)
	}

	walOpts, _, logOpts, replicaOpts := testOptions()
	rewal := &fswal.WriteAheadLog{Logger: logger}
	if err := rewal.Initialize(walOpts, tmpDir, "three"); err != nil {
		test.Fatalf("could not reopen wal for three: %v", err)
	}
	errUnregister := agent3.msn.UnregisterClass("replog",
		ReplicaRPCList()...)
	if errUnregister != nil {
		test.Fatalf("could not unregister replica rpcs: %v", errUnregister)
	}
	replica := &Replica{Logger: logger}
	errReplica := replica.Initialize(replicaOpts, "replog", "test", agent3.msn,
		rewal)
	if errReplica != nil {
		test.Fatalf("could not restart replica three: %v", errReplica)
	}
	errRegister := agent3.msn.RegisterClass("replog", replica,
		ReplicaRPCList()...)
	if errRegister != nil {
		test.Fatalf("could not re-export replica rpcs: %v", errRegister)
	}
	rlog := &Log{Logger: logger}
	errLog := rlog.Initialize(logOpts, "replog", "test", agent3.msn, rewal)
	if errLog != nil {
		test.Fatalf("could not restart log three: %v", errLog)
	}
	rlog.SetMembership([]string{"one", "two", "three"})
	if err := rewal.Recover(nil); err != nil {
		test.Fatalf("could not recover restarted wal: %v", err)
	}

	if begin := replica.BeginPosition(); begin != 3 {
		test.Errorf("restarted replica has begin position %d; want 3", begin)
	}
	for position := int64(0); position < 3; position++ {
		if action := replica.LearnedAction(position); action != nil {
			test.Errorf("restarted replica resurrected position %d as %s",
				position, action)
		}
	}

	// Retained positions are still readable through catch-up.
	actionList, errRead := rlog.Read(3, 5)
	if errRead != nil {
		test.Fatalf("could not read retained positions: %v", errRead)
	}
	for ii, action := range actionList {
		want := values[3+ii]
		if !bytes.Equal(action.GetData(), want) {
			test.Errorf("position %d read %q; want %q", 3+ii, action.GetData(),
				want)
		}
	}

	// Garbage collected positions can no longer be resolved.
	if _, err := rlog.Read(0, 1); !errs.IsUnavailable(err) {
		test.Errorf("read of a garbage collected position returned %v; want "+
			"the unavailable error", err)
	}
}
