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
// This file implements Alarm type which can be used to schedule named
// functions to run at a later time.
//
// THREAD SAFETY
//
// All public functions are thread-safe.
//
// NOTES
//
// Jobs are identified by their names. Scheduling a job under an existing name
// replaces the pending job, so periodic jobs can re-arm themselves without
// piling up.
//

package ctlr

import (
	"sync"
	"time"

	"github.com/ortoo/mesos/base/errs"
)

type alarmJob struct {
	at time.Time
	fn func() error
}

// Alarm type implements the alarm scheduler.
type Alarm struct {
	// WaitGroup to wait for the go routine to complete.
	wg sync.WaitGroup

	// Mutex to protect access to the alarm state.
	mutex sync.Mutex

	// Condition variable used to wait for the timeouts to complete.
	cond Condition

	// Mapping from job names to the pending jobs.
	jobMap map[string]*alarmJob
}

// Initialize initializes the alarm object.
func (this *Alarm) Initialize() {
	this.jobMap = make(map[string]*alarmJob)
	this.cond.Initialize(&this.mutex)
	this.wg.Add(1)
	go this.goSchedule()
}

// Close destroys the alarm object. Pending jobs are dropped; the currently
// running job, if any, is completed.
func (this *Alarm) Close() error {
	this.mutex.Lock()
	if err := this.cond.Close(); err != nil {
		this.mutex.Unlock()
		return err
	}
	this.mutex.Unlock()
	this.wg.Wait()
	return nil
}

// ScheduleAt schedules a named function to run at the specified time. If a
// job with the same name is already pending, it is replaced.
func (this *Alarm) ScheduleAt(name string, at time.Time,
	fn func() error) error {

	this.mutex.Lock()
	defer this.mutex.Unlock()

	if this.cond.IsClosed() {
		return errs.ErrClosed
	}

	this.jobMap[name] = &alarmJob{at: at, fn: fn}
	this.cond.Signal()
	return nil
}

// Cancel drops a pending job. Returns true if a job with the given name was
// pending.
func (this *Alarm) Cancel(name string) bool {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	if _, found := this.jobMap[name]; !found {
		return false
	}
	delete(this.jobMap, name)
	return true
}

// nextJob returns the name of the earliest pending job. Caller must hold the
// mutex.
func (this *Alarm) nextJob() (string, *alarmJob) {
	var nextName string
	var next *alarmJob
	for name, job := range this.jobMap {
		if next == nil || job.at.Before(next.at) {
			nextName, next = name, job
		}
	}
	return nextName, next
}

// goSchedule waits for timeouts to complete and runs the jobs. Job failures
// are the job's own concern; a failing job is expected to re-arm itself if it
// wants a retry.
func (this *Alarm) goSchedule() {
	defer this.wg.Done()

	this.mutex.Lock()
	defer this.mutex.Unlock()

	for {
		for len(this.jobMap) == 0 {
			if err := this.cond.Wait(); errs.IsClosed(err) {
				return
			}
		}

		name, job := this.nextJob()
		now := time.Now()
		if !now.Before(job.at) {
			delete(this.jobMap, name)

			this.mutex.Unlock()
			job.fn()
			this.mutex.Lock()

			if this.cond.IsClosed() {
				return
			}
			continue
		}

		timeoutCh := time.After(job.at.Sub(now))
		if err := this.cond.WaitTimeout(timeoutCh); errs.IsClosed(err) {
			return
		}
	}
}
