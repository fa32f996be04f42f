// Package pdc implements the phasor data concentrator: per-epoch arrival
// buffers with a deadline derived from the first observed arrival, and the
// grid-analysis descriptors they emit.
package pdc

import (
	"github.com/nik-tza/pmu-pdc-sim/sim/sink"
	"github.com/nik-tza/pmu-pdc-sim/sim/topology"
)

const (
	// AnalysisIDBase keeps analysis ids in a range disjoint from sample ids.
	AnalysisIDBase = 10000

	// AnalysisOutputBits is the fixed result size of one grid analysis: 50 KB.
	AnalysisOutputBits = 50 * 1024 * 8

	// DefaultAnalysisLengthMI is the compute length of one grid analysis
	// when the configuration leaves it unset.
	DefaultAnalysisLengthMI = 15000
)

// Analysis is a grid-analysis compute descriptor, created when a
// collection window closes and consumed by the orchestrator. It shares no
// identity with measurement samples.
type Analysis struct {
	ID    int64
	Epoch float64 // seconds

	// Node is the bound concentrator host: the owning GNB, or TSO.
	Node *topology.Node
	// GNB is the edge label of the batch; equals Node except under the
	// TSO placement, where it names the closest GNB of the first sample.
	GNB *topology.Node

	OnTime   int
	Required int

	BatchType   sink.BatchType
	InputBits   float64 // |onTime| × sample size
	OutputBits  float64
	LengthMI    float64
	ContainerKB float64
	MaxLatency  float64

	PDCWaitingTime float64
	// FirstDataNetworkDelay is the network delay of the earliest on-time
	// sample, used for the end-to-end total.
	FirstDataNetworkDelay float64
}

// IDAllocator hands out analysis ids monotonically from the reserved range.
// Drain order is deterministic, so allocation is too.
type IDAllocator struct {
	next int64
}

// NewIDAllocator starts the range at AnalysisIDBase.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{next: AnalysisIDBase}
}

// Next returns a fresh analysis id.
func (a *IDAllocator) Next() int64 {
	id := a.next
	a.next++
	return id
}
