// sim/simulator.go
package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// SchedulerFault reports a panic raised inside an entity handler. The
// simulation stops, the fault carries the clock and entity identity at the
// moment of dispatch, and callers are expected to flush sinks before exiting.
type SchedulerFault struct {
	Clock  float64
	Entity string
	Tag    EventTag
	Cause  any
}

func (f *SchedulerFault) Error() string {
	return fmt.Sprintf("scheduler fault at t=%.6fs in entity %q handling %s: %v",
		f.Clock, f.Entity, f.Tag, f.Cause)
}

// Simulator is the core object that holds simulation time, the event queue,
// and the registered entities. Exactly one event is in dispatch at any
// moment; the clock advances monotonically and the loop never re-enters
// itself.
type Simulator struct {
	Clock   float64
	Horizon float64

	queue    *EventHeap
	nextSeq  uint64
	entities []Entity

	terminated bool
}

// NewSimulator creates a simulator that runs until the given horizon in
// seconds, or until the event queue drains.
func NewSimulator(horizon float64) *Simulator {
	return &Simulator{
		Clock:   0,
		Horizon: horizon,
		queue:   NewEventHeap(),
	}
}

// Register adds an entity to the simulation. Registration order is part of
// the deterministic replay surface and must not depend on map iteration.
func (s *Simulator) Register(e Entity) {
	s.entities = append(s.entities, e)
}

// Entities returns the registered entities in registration order.
func (s *Simulator) Entities() []Entity {
	return s.entities
}

// Schedule enqueues an event delay seconds after the current clock.
// A zero-delay event scheduled during dispatch of event E is dispatched
// strictly after E: equal due times fire in insertion order.
func (s *Simulator) Schedule(delay float64, target Entity, tag EventTag, payload any) {
	if delay < 0 {
		delay = 0
	}
	s.ScheduleAt(s.Clock+delay, target, tag, payload)
}

// ScheduleNow is equivalent to Schedule with delay 0.
func (s *Simulator) ScheduleNow(target Entity, tag EventTag, payload any) {
	s.ScheduleAt(s.Clock, target, tag, payload)
}

// ScheduleAt enqueues an event at an absolute simulation time.
func (s *Simulator) ScheduleAt(due float64, target Entity, tag EventTag, payload any) {
	s.nextSeq++
	s.queue.Schedule(&Event{
		Due:     due,
		Seq:     s.nextSeq,
		Target:  target,
		Tag:     tag,
		Payload: payload,
	})
}

// QueueLen returns the number of pending events.
func (s *Simulator) QueueLen() int {
	return s.queue.Len()
}

// Terminate stops the run loop after the event currently in dispatch.
func (s *Simulator) Terminate() {
	s.terminated = true
}

// Run executes the simulation until the horizon is exceeded, the queue
// drains, or Terminate is called. A panic inside a handler is surfaced as
// a *SchedulerFault; everything else completes with a nil error.
func (s *Simulator) Run() (err error) {
	for s.queue.Len() > 0 && !s.terminated {
		ev := s.queue.PopNext()
		if ev.Due > s.Horizon {
			break
		}
		if ev.Due < s.Clock {
			panic(fmt.Sprintf("clock went backwards: %.9f < %.9f", ev.Due, s.Clock))
		}
		s.Clock = ev.Due
		if err = s.dispatch(ev); err != nil {
			return err
		}
	}
	logrus.Debugf("[t=%.6fs] simulation ended, %d events left in queue", s.Clock, s.queue.Len())
	return nil
}

func (s *Simulator) dispatch(ev *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &SchedulerFault{Clock: s.Clock, Entity: ev.Target.Name(), Tag: ev.Tag, Cause: r}
		}
	}()
	logrus.Debugf("[t=%.6fs] dispatching %s to %s", s.Clock, ev.Tag, ev.Target.Name())
	ev.Target.ProcessEvent(ev)
	return nil
}
