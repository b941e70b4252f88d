package service

import "time"

// Scheduler runs a task once after a delay.
type Scheduler interface {
	Schedule(delay time.Duration, task func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(delay time.Duration, task func())

// Schedule implements Scheduler.
func (f SchedulerFunc) Schedule(delay time.Duration, task func()) { f(delay, task) }

// TimerScheduler schedules on the runtime timer.
var TimerScheduler Scheduler = SchedulerFunc(func(delay time.Duration, task func()) {
	time.AfterFunc(delay, task)
})
