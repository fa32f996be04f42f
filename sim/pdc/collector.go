package pdc

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/nik-tza/pmu-pdc-sim/sim"
	"github.com/nik-tza/pmu-pdc-sim/sim/sink"
	"github.com/nik-tza/pmu-pdc-sim/sim/topology"
	"github.com/nik-tza/pmu-pdc-sim/sim/workload"
)

// EpochKey buckets a generation time into a stable millisecond key.
func EpochKey(genTime float64) int64 {
	return int64(math.Round(genTime * 1000))
}

// Arrival is one buffered sample with its arrival bookkeeping.
type Arrival struct {
	Sample       *workload.Sample
	RealArrival  float64
	NetworkDelay float64
	Path         string
}

// Stats exposes per-collector counters.
type Stats struct {
	TotalBuckets    int
	CompleteBuckets int
	TimeoutBuckets  int
	DroppedLate     int
	RoutingDrops    int
}

// AnalysisParams fixes the constant attributes of emitted analyses.
type AnalysisParams struct {
	LengthMI    float64
	ContainerKB float64
	MaxLatency  float64
}

// Collector is one PDC instance. It buffers arrivals by epoch, schedules a
// drain per bucket, and at drain time classifies each sample against the
// deadline derived from the bucket's first arrival.
//
// All state transitions run on the scheduler goroutine; no locks.
type Collector struct {
	Engine *sim.Simulator
	// Node is the concentrator host (TSO, or one GNB).
	Node *topology.Node
	// Required is the number of PMUs expected per epoch.
	Required int
	// MaxWait is the deadline horizon measured from the first arrival.
	MaxWait float64
	// DrainDelay is when the drain event fires after the first arrival.
	// The deadline used for classification is always firstArrival+MaxWait.
	DrainDelay float64
	// OwnsPMU is the ingress filter; nil accepts every sample (TSO
	// placement).
	OwnsPMU func(*topology.Node) bool

	Orch   sim.Entity
	Sink   sink.Sink
	Params AnalysisParams
	IDs    *IDAllocator

	// Resolver labels batches with the closest GNB of their first sample
	// under the TSO placement, for parity with the per-GNB placements.
	Resolver func(*topology.Node) *topology.Node

	buckets map[int64][]Arrival
	closed  map[int64]bool
	Stats   Stats

	name string
}

// NewCollector creates a collector bound to the given host node.
func NewCollector(engine *sim.Simulator, node *topology.Node, required int, maxWait, drainDelay float64) *Collector {
	if drainDelay <= 0 {
		drainDelay = maxWait
	}
	return &Collector{
		Engine:     engine,
		Node:       node,
		Required:   required,
		MaxWait:    maxWait,
		DrainDelay: drainDelay,
		buckets:    make(map[int64][]Arrival),
		closed:     make(map[int64]bool),
		name:       fmt.Sprintf("pdc-%s", node),
	}
}

func (c *Collector) Name() string { return c.name }

// OpenBuckets returns the number of epochs with a pending drain.
func (c *Collector) OpenBuckets() int { return len(c.buckets) }

// ProcessEvent handles DATA_RECEIVED and EPOCH_TIMEOUT.
func (c *Collector) ProcessEvent(ev *sim.Event) {
	switch ev.Tag {
	case sim.EventDataReceived:
		c.onData(ev.Payload.(*workload.Sample))
	case sim.EventEpochTimeout:
		c.onTimeout(ev.Payload.(int64))
	default:
		logrus.Warnf("%s: dropping unknown event %s", c.name, ev.Tag)
	}
}

func (c *Collector) onData(s *workload.Sample) {
	if c.OwnsPMU != nil && !c.OwnsPMU(s.Source) {
		logrus.Warnf("%s: sample %d from %s does not belong here, dropped", c.name, s.ID, s.Source)
		c.Stats.RoutingDrops++
		return
	}
	key := EpochKey(s.GenTime)
	if c.closed[key] {
		// the epoch already drained; stragglers never rejoin a closed
		// bucket but are still recorded for loss-rate analysis
		logrus.Warnf("%s: sample %d for drained epoch %d arrived late", c.name, s.ID, key)
		c.Stats.DroppedLate++
		c.Sink.RecordTransfer(sink.TransferRecord{
			Time:           s.GenTime,
			PmuID:          s.Source.ID,
			PmuCoordinates: s.Source.Location().String(),
			DataSizeBits:   s.SizeBits,
			Path:           s.Path,
			HopSum:         s.NetworkDelay,
			Status:         sink.StatusDeadlineMissed,
		})
		return
	}
	if _, open := c.buckets[key]; !open {
		c.buckets[key] = nil
		c.Engine.Schedule(c.DrainDelay, c, sim.EventEpochTimeout, key)
	}
	c.buckets[key] = append(c.buckets[key], Arrival{
		Sample:       s,
		RealArrival:  s.ArrivalTime(),
		NetworkDelay: s.NetworkDelay,
		Path:         s.Path,
	})
}

func (c *Collector) onTimeout(key int64) {
	arrivals, open := c.buckets[key]
	if !open || len(arrivals) == 0 {
		delete(c.buckets, key)
		return
	}

	sort.SliceStable(arrivals, func(i, j int) bool {
		return arrivals[i].RealArrival < arrivals[j].RealArrival
	})
	firstArrival := arrivals[0].RealArrival
	deadline := firstArrival + c.MaxWait

	if c.Engine.Clock < deadline {
		// short-drain schedule fired before the window elapsed; re-arm at
		// the deadline so classification stays a function of arrivals only
		c.Engine.Schedule(deadline-c.Engine.Clock, c, sim.EventEpochTimeout, key)
		return
	}

	// closing removes the bucket atomically with emitting the analysis:
	// a later arrival for this epoch can never rejoin it
	delete(c.buckets, key)
	c.closed[key] = true
	c.Stats.TotalBuckets++

	var onTime []Arrival
	for _, a := range arrivals {
		status := sink.StatusOK
		if a.RealArrival <= deadline {
			onTime = append(onTime, a)
		} else {
			status = sink.StatusDeadlineMissed
			c.Stats.DroppedLate++
		}
		c.Sink.RecordTransfer(sink.TransferRecord{
			Time:           a.Sample.GenTime,
			PmuID:          a.Sample.Source.ID,
			PmuCoordinates: a.Sample.Source.Location().String(),
			DataSizeBits:   a.Sample.SizeBits,
			Path:           a.Path,
			HopSum:         a.NetworkDelay,
			Status:         status,
		})
	}

	if len(onTime) == 0 {
		logrus.Warnf("%s: no on-time measurements for epoch %d, nothing to analyze", c.name, key)
		c.Stats.TimeoutBuckets++
		return
	}

	batchType := sink.BatchTimeout
	waiting := c.MaxWait
	if len(onTime) >= c.Required {
		batchType = sink.BatchComplete
		waiting = onTime[len(onTime)-1].RealArrival - onTime[0].RealArrival
		c.Stats.CompleteBuckets++
	} else {
		c.Stats.TimeoutBuckets++
	}

	gnb := c.Node
	if c.Resolver != nil {
		gnb = c.Resolver(onTime[0].Sample.Source)
	}
	var inputBits float64
	for _, a := range onTime {
		inputBits += a.Sample.SizeBits
	}
	analysis := &Analysis{
		ID:                    c.IDs.Next(),
		Epoch:                 float64(key) / 1000,
		Node:                  c.Node,
		GNB:                   gnb,
		OnTime:                len(onTime),
		Required:              c.Required,
		BatchType:             batchType,
		InputBits:             inputBits,
		OutputBits:            AnalysisOutputBits,
		LengthMI:              c.Params.LengthMI,
		ContainerKB:           c.Params.ContainerKB,
		MaxLatency:            c.Params.MaxLatency,
		PDCWaitingTime:        waiting,
		FirstDataNetworkDelay: onTime[0].NetworkDelay,
	}
	c.Engine.ScheduleNow(c.Orch, sim.EventSendToOrch, analysis)
}
