// sim/event.go
package sim

import "fmt"

// EventTag identifies the kind of event delivered to an entity.
type EventTag int

const (
	// EventSampleEmitted carries a freshly generated PMU sample to the network model.
	EventSampleEmitted EventTag = iota
	// EventTransferFinished fires when a sample has traversed all hops of its path.
	EventTransferFinished
	// EventDataReceived delivers a sample to a PDC collector.
	EventDataReceived
	// EventEpochTimeout closes the collection window of one epoch bucket.
	EventEpochTimeout
	// EventSendToOrch hands a grid-analysis descriptor to the orchestrator.
	EventSendToOrch
	// EventAnalysisFinished fires when a grid-analysis computation completes.
	EventAnalysisFinished
)

var eventTagNames = map[EventTag]string{
	EventSampleEmitted:    "SAMPLE_EMITTED",
	EventTransferFinished: "TRANSFER_FINISHED",
	EventDataReceived:     "DATA_RECEIVED",
	EventEpochTimeout:     "EPOCH_TIMEOUT",
	EventSendToOrch:       "SEND_TO_ORCH",
	EventAnalysisFinished: "ANALYSIS_FINISHED",
}

func (t EventTag) String() string {
	if name, ok := eventTagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("EventTag(%d)", int(t))
}

// Entity is anything that can receive scheduled events. Handlers run to
// completion on the scheduler goroutine and interact with other entities
// only by scheduling future events.
type Entity interface {
	Name() string
	ProcessEvent(ev *Event)
}

// Event is a single scheduler entry. Ordering is strictly by due time,
// ties broken by insertion sequence. Entries are immutable and consumed
// exactly once.
type Event struct {
	Due     float64 // simulation time in seconds
	Seq     uint64  // insertion sequence, FIFO tie-breaker
	Target  Entity
	Tag     EventTag
	Payload any
}
