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
// This file defines ReplicatedState type which materializes named variables
// from the replicated log.
//
// THREAD SAFETY
//
// All public functions are thread-safe.
//
// NOTES
//
// Every variable update is one append action whose payload is a VariableDiff
// record. The current mapping is materialized by replaying appends in
// position order; later diffs for a name supersede earlier ones.
//
// Writes require the owning log to hold the writer role; consensus errors
// from the log are reported to the caller verbatim so the controller can
// decide whether to re-run its election.
//
// When the log grows beyond the compaction limit, every live variable is
// re-appended above a snapshot position and the log is truncated to it,
// which bounds the replay cost of the next leader.
//

package state

import (
	"bytes"
	"sort"
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/ortoo/mesos/base/errs"
	"github.com/ortoo/mesos/base/log"
	"github.com/ortoo/mesos/replog"
	"github.com/ortoo/mesos/thread/ctlr"

	replogpb "github.com/ortoo/mesos/proto/replog"
	thispb "github.com/ortoo/mesos/proto/state"
)

// Options define user configurable settings for replicated state.
type Options struct {
	// Number of log positions beyond the last snapshot that triggers a
	// compaction. Zero disables threshold-triggered compaction.
	CompactionLimit int64

	// Interval for periodic background compaction attempts. Zero disables
	// periodic compaction.
	CompactionInterval time.Duration
}

// Validate checks if user configuration items are all valid.
func (this *Options) Validate() (status error) {
	if this.CompactionLimit < 0 {
		err := errs.NewErrInvalid("compaction limit cannot be negative")
		status = errs.MergeErrors(status, err)
	}
	if this.CompactionInterval < 0 {
		err := errs.NewErrInvalid("compaction interval cannot be negative")
		status = errs.MergeErrors(status, err)
	}
	return status
}

// ReplicatedState implements the Storage interface over a replicated log.
type ReplicatedState struct {
	log.Logger

	// Resource controller for admission control and synchronization.
	ctlr ctlr.BasicController

	// Alarm scheduler for periodic compaction.
	alarm ctlr.Alarm

	// The replicated log holding the variable diffs.
	rlog *replog.Log

	// User configurable options.
	opts Options

	// Current live value for every variable name.
	variableMap map[string]*thispb.VariableDiff

	// Next log position to replay.
	appliedPosition int64

	// First position of the most recent snapshot.
	snapshotPosition int64
}

// Initialize initializes a replicated state instance.
func (this *ReplicatedState) Initialize(opts *Options, uid string,
	rlog *replog.Log) (status error) {

	if err := opts.Validate(); err != nil {
		this.Errorf("invalid user options: %v", err)
		return err
	}

	this.rlog = rlog
	this.opts = *opts
	this.variableMap = make(map[string]*thispb.VariableDiff)
	this.appliedPosition = 0
	this.snapshotPosition = 0

	this.Logger = this.NewLogger("state:%s", uid)
	this.ctlr.Initialize(this)
	this.alarm.Initialize()
	if this.opts.CompactionInterval > 0 {
		errSched := this.alarm.ScheduleAt("compact",
			time.Now().Add(this.opts.CompactionInterval), this.doPeriodicCompact)
		if errSched != nil {
			this.Errorf("could not schedule periodic compaction: %v", errSched)
			return errSched
		}
	}
	return nil
}

// Close releases all resources and destroys the object.
func (this *ReplicatedState) Close() (status error) {
	if err := this.alarm.Close(); err != nil {
		status = errs.MergeErrors(status, err)
	}
	if err := this.ctlr.Close(); err != nil {
		status = errs.MergeErrors(status, err)
	}
	return status
}

// Get returns the current variable for a name after replaying the log to
// its head.
func (this *ReplicatedState) Get(name string) (*Variable, error) {
	lock := this.ctlr.Lock("state")
	defer lock.Unlock()

	if err := this.doRefresh(); err != nil {
		return nil, err
	}

	diff, ok := this.variableMap[name]
	if !ok {
		return nil, errs.NewErrNotExist("variable %s has no live value", name)
	}
	return makeVariable(diff), nil
}

// Set writes a new value for a name under the compare-and-swap contract.
func (this *ReplicatedState) Set(name string, value []byte,
	expected []byte) (*Variable, error) {

	lock := this.ctlr.Lock("state")
	defer lock.Unlock()

	// Re-read the current version right before the append, so a stale
	// expected version never reaches the log.
	if err := this.doRefresh(); err != nil {
		return nil, err
	}
	if err := this.checkVersion(name, expected); err != nil {
		return nil, err
	}

	version, errVersion := NewVersion()
	if errVersion != nil {
		this.Errorf("could not create version for variable %s: %v", name,
			errVersion)
		return nil, errVersion
	}

	diff := &thispb.VariableDiff{}
	diff.Name = proto.String(name)
	diff.Version = version
	diff.Value = value
	if err := this.doAppend(diff); err != nil {
		return nil, err
	}

	this.maybeCompact()
	return makeVariable(diff), nil
}

// Delete removes the live value for a name by appending a tombstone diff.
func (this *ReplicatedState) Delete(name string, expected []byte) error {
	lock := this.ctlr.Lock("state")
	defer lock.Unlock()

	if err := this.doRefresh(); err != nil {
		return err
	}
	if _, ok := this.variableMap[name]; !ok {
		return errs.NewErrNotExist("variable %s has no live value", name)
	}
	if err := this.checkVersion(name, expected); err != nil {
		return err
	}

	version, errVersion := NewVersion()
	if errVersion != nil {
		this.Errorf("could not create version for tombstone on %s: %v", name,
			errVersion)
		return errVersion
	}

	diff := &thispb.VariableDiff{}
	diff.Name = proto.String(name)
	diff.Version = version
	diff.Deleted = proto.Bool(true)
	if err := this.doAppend(diff); err != nil {
		return err
	}

	this.maybeCompact()
	return nil
}

// Names returns the names of all live variables in sorted order.
func (this *ReplicatedState) Names() ([]string, error) {
	lock := this.ctlr.Lock("state")
	defer lock.Unlock()

	if err := this.doRefresh(); err != nil {
		return nil, err
	}

	nameList := make([]string, 0, len(this.variableMap))
	for name := range this.variableMap {
		nameList = append(nameList, name)
	}
	sort.Sort(sort.StringSlice(nameList))
	return nameList, nil
}

///////////////////////////////////////////////////////////////////////////////

// makeVariable copies a diff into the user visible variable form.
func makeVariable(diff *thispb.VariableDiff) *Variable {
	variable := &Variable{Name: diff.GetName()}
	variable.Value = append([]byte(nil), diff.GetValue()...)
	variable.Version = append([]byte(nil), diff.GetVersion()...)
	return variable
}

// checkVersion verifies the compare-and-swap admission test for a write.
func (this *ReplicatedState) checkVersion(name string,
	expected []byte) error {

	var current []byte
	if diff, ok := this.variableMap[name]; ok {
		current = diff.GetVersion()
	}
	if !bytes.Equal(expected, current) {
		return errs.NewErrConflict("expected version for variable %s does not "+
			"match its current version", name)
	}
	return nil
}

// doRefresh replays unapplied log actions up to the log head.
func (this *ReplicatedState) doRefresh() error {
	high, errHigh := this.rlog.HighPosition()
	if errHigh != nil {
		return errHigh
	}
	first, errFirst := this.rlog.FirstPosition()
	if errFirst != nil {
		return errFirst
	}

	begin := this.appliedPosition
	if begin < first {
		// Positions below the floor were compacted away; the snapshot diffs
		// above it restate every live variable.
		begin = first
	}
	if begin >= high {
		return nil
	}

	actionList, errRead := this.rlog.Read(begin, high)
	if errRead != nil {
		this.Errorf("could not read log range [%d, %d): %v", begin, high,
			errRead)
		return errRead
	}

	for ii, action := range actionList {
		position := begin + int64(ii)
		if err := this.applyAction(position, action); err != nil {
			return err
		}
	}
	this.appliedPosition = high
	return nil
}

// applyAction applies one learned log action to the variable mapping.
func (this *ReplicatedState) applyAction(position int64,
	action *replogpb.LogAction) error {

	switch action.GetType() {
	case replogpb.LogAction_APPEND:
		diff := &thispb.VariableDiff{}
		if err := proto.Unmarshal(action.GetData(), diff); err != nil {
			this.Errorf("could not parse variable diff at position %d: %v",
				position, err)
			return errs.NewErrCorrupt("variable diff at position %d could not "+
				"be parsed", position)
		}
		if diff.GetDeleted() {
			delete(this.variableMap, diff.GetName())
		} else {
			this.variableMap[diff.GetName()] = diff
		}

	case replogpb.LogAction_TRUNCATE:
		if to := action.GetTruncateTo(); to > this.snapshotPosition {
			this.snapshotPosition = to
		}
	}
	return nil
}

// doAppend commits one diff through the log and applies it locally.
func (this *ReplicatedState) doAppend(diff *thispb.VariableDiff) error {
	data, errMarshal := proto.Marshal(diff)
	if errMarshal != nil {
		this.Errorf("could not marshal diff for variable %s: %v", diff.GetName(),
			errMarshal)
		return errMarshal
	}

	position, errAppend := this.rlog.Append(data)
	if errAppend != nil {
		this.Warningf("could not append diff for variable %s: %v",
			diff.GetName(), errAppend)
		return errAppend
	}

	if diff.GetDeleted() {
		delete(this.variableMap, diff.GetName())
	} else {
		this.variableMap[diff.GetName()] = diff
	}
	if position >= this.appliedPosition {
		this.appliedPosition = position + 1
	}
	return nil
}

// doPeriodicCompact runs one background compaction attempt and reschedules
// itself. Consensus errors are expected when the owning log lost the writer
// role; they only delay compaction to a later term.
func (this *ReplicatedState) doPeriodicCompact() error {
	lock := this.ctlr.Lock("state")
	if err := this.doRefresh(); err != nil {
		this.Warningf("periodic compaction could not refresh state: %v", err)
	} else if this.appliedPosition-this.snapshotPosition >
		int64(len(this.variableMap))+1 {

		// More positions than the snapshot itself would take, so compaction
		// makes the log strictly shorter.
		this.doCompact()
	}
	lock.Unlock()

	if this.ctlr.IsClosed() {
		return nil
	}
	return this.alarm.ScheduleAt("compact",
		time.Now().Add(this.opts.CompactionInterval), this.doPeriodicCompact)
}

// maybeCompact runs a compaction once enough positions accumulated since
// the last snapshot.
func (this *ReplicatedState) maybeCompact() {
	if this.opts.CompactionLimit <= 0 {
		return
	}
	if this.appliedPosition-this.snapshotPosition < this.opts.CompactionLimit {
		return
	}
	this.doCompact()
}

// doCompact re-appends all live variables above a snapshot position and
// truncates the log to it. Compaction is best-effort: failures only delay
// the next attempt.
func (this *ReplicatedState) doCompact() {
	snapshotStart := this.appliedPosition
	for _, name := range this.doNames() {
		diff := this.variableMap[name]
		data, errMarshal := proto.Marshal(diff)
		if errMarshal != nil {
			this.Errorf("could not marshal snapshot diff for variable %s: %v",
				name, errMarshal)
			return
		}
		position, errAppend := this.rlog.Append(data)
		if errAppend != nil {
			this.Warningf("could not append snapshot diff for variable %s: %v",
				name, errAppend)
			return
		}
		if position >= this.appliedPosition {
			this.appliedPosition = position + 1
		}
	}

	if err := this.rlog.Truncate(snapshotStart); err != nil {
		this.Warningf("could not truncate log to snapshot position %d: %v",
			snapshotStart, err)
		return
	}
	this.appliedPosition++
	this.snapshotPosition = snapshotStart
	this.Infof("compacted log below snapshot position %d", snapshotStart)
}

// doNames returns live variable names in sorted order.
func (this *ReplicatedState) doNames() []string {
	nameList := make([]string, 0, len(this.variableMap))
	for name := range this.variableMap {
		nameList = append(nameList, name)
	}
	sort.Sort(sort.StringSlice(nameList))
	return nameList
}
