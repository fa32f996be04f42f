// Package workload generates the synchronized PMU measurement stream that
// drives a simulation run.
package workload

import (
	"github.com/nik-tza/pmu-pdc-sim/sim/topology"
)

// SampleSizeBits is the fixed payload of one PMU measurement: 2 KB.
const SampleSizeBits = 16384.0

// Sample is one PMU measurement travelling toward a concentrator. It is
// created by the generator at its scheduled generation time; the network
// model records per-hop delays on it and the collector classifies it.
type Sample struct {
	ID      int64
	GenTime float64 // epoch, seconds from simulation start
	Source  *topology.Node

	SizeBits   float64
	AppID      string
	MaxLatency float64 // max-latency hint from the application config

	// HopDelays holds the per-hop transfer times in path order.
	HopDelays []float64
	// NetworkDelay is the accumulated actual network time.
	NetworkDelay float64
	// Path is the textual hop list with per-hop seconds and distances.
	Path string
}

// RecordHop appends one hop's transfer time and accumulates it into the
// total network delay.
func (s *Sample) RecordHop(delay float64) {
	s.HopDelays = append(s.HopDelays, delay)
	s.NetworkDelay += delay
}

// ArrivalTime returns the sample's real arrival time at the concentrator:
// generation time plus accumulated network delay.
func (s *Sample) ArrivalTime() float64 {
	return s.GenTime + s.NetworkDelay
}
