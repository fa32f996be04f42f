// Package netmodel computes per-hop transfer delays through the layered
// cellular/metropolitan/wide-area topology and schedules sample deliveries.
package netmodel

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nik-tza/pmu-pdc-sim/sim"
	"github.com/nik-tza/pmu-pdc-sim/sim/sink"
	"github.com/nik-tza/pmu-pdc-sim/sim/topology"
	"github.com/nik-tza/pmu-pdc-sim/sim/workload"
)

// Variant selects the UPF/PDC placement and therefore the forward path of
// every sample.
type Variant string

const (
	// V1: UPF at TELCO, concentrator at the TSO cloud. PMU→GNB→TELCO→TSO.
	V1 Variant = "V1"
	// V2: UPF at TELCO, concentrator at each GNB. PMU→GNB→TELCO→GNB.
	V2 Variant = "V2"
	// V3: UPF at the GNB, concentrator at each GNB. PMU→GNB.
	V3 Variant = "V3"
)

// LinkClass partitions hops into the three provisioned network tiers.
type LinkClass string

const (
	Cellular LinkClass = "CELLULAR"
	MAN      LinkClass = "MAN"
	WAN      LinkClass = "WAN"
)

// LinkParams holds the provisioning of one link class.
type LinkParams struct {
	Bandwidth   float64 // bits/sec
	BaseLatency float64 // seconds
	JitterSigma float64 // seconds, σ of the Gaussian jitter
}

// Hop is one traversal of a link between two nodes.
type Hop struct {
	Src   *topology.Node
	Dst   *topology.Node
	Class LinkClass
	Layer string // accounting layer, direction-sensitive
}

// CollectorResolver maps a sample's source PMU to the concentrator entity
// that owns it.
type CollectorResolver func(src *topology.Node) sim.Entity

// Model is the network entity: it receives SAMPLE_EMITTED events, computes
// the variant path hop by hop, and delivers the sample to its concentrator
// after the summed delay. A single seeded RNG owned by the model drives
// jitter; it is never shared with the placement RNGs.
type Model struct {
	Engine   *sim.Simulator
	Topo     *topology.Topology
	Links    map[LinkClass]LinkParams
	Variant  Variant
	PropSecM float64 // distance propagation constant, seconds per metre

	Resolve CollectorResolver
	Sink    sink.Sink

	jitter *rand.Rand
}

// NewModel builds the network model. propUsPerM is the propagation constant
// in µs per metre; zero selects the variant default (4 for V1/V2, 30 for V3).
func NewModel(engine *sim.Simulator, topo *topology.Topology, cfg *sim.SimulationConfig,
	variant Variant, propUsPerM float64, jitter *rand.Rand, snk sink.Sink) *Model {
	if propUsPerM <= 0 {
		if variant == V3 {
			propUsPerM = 30
		} else {
			propUsPerM = 4
		}
	}
	return &Model{
		Engine:  engine,
		Topo:    topo,
		Variant: variant,
		Links: map[LinkClass]LinkParams{
			Cellular: {Bandwidth: cfg.CellularBandwidth, BaseLatency: cfg.CellularLatency, JitterSigma: cfg.CellularJitterMs / 1000},
			MAN:      {Bandwidth: cfg.ManBandwidth, BaseLatency: cfg.ManLatency, JitterSigma: cfg.ManJitterMs / 1000},
			WAN:      {Bandwidth: cfg.WanBandwidth, BaseLatency: cfg.WanLatency, JitterSigma: cfg.WanJitterMs / 1000},
		},
		PropSecM: propUsPerM * 1e-6,
		jitter:   jitter,
		Sink:     snk,
	}
}

func (m *Model) Name() string { return "network" }

// ProcessEvent handles SAMPLE_EMITTED (compute the path and schedule the
// delivery) and TRANSFER_FINISHED (route the sample to its concentrator).
func (m *Model) ProcessEvent(ev *sim.Event) {
	switch ev.Tag {
	case sim.EventSampleEmitted:
		m.startTransfer(ev.Payload.(*workload.Sample))
	case sim.EventTransferFinished:
		s := ev.Payload.(*workload.Sample)
		m.Engine.ScheduleNow(m.Resolve(s.Source), sim.EventDataReceived, s)
	default:
		logrus.Warnf("network: dropping unknown event %s", ev.Tag)
	}
}

// PathFor returns the hop list of the model's variant for a sample
// originating at the given PMU.
func (m *Model) PathFor(src *topology.Node) []Hop {
	gnb := m.Topo.ClosestGNB(src)
	switch m.Variant {
	case V1:
		return []Hop{
			{Src: src, Dst: gnb, Class: Cellular, Layer: sink.LayerPMUToGNB},
			{Src: gnb, Dst: m.Topo.Telco, Class: MAN, Layer: sink.LayerGNBToTelco},
			{Src: m.Topo.Telco, Dst: m.Topo.TSO, Class: WAN, Layer: sink.LayerTelcoToTSO},
		}
	case V2:
		return []Hop{
			{Src: src, Dst: gnb, Class: Cellular, Layer: sink.LayerPMUToGNB},
			{Src: gnb, Dst: m.Topo.Telco, Class: MAN, Layer: sink.LayerGNBToTelco},
			{Src: m.Topo.Telco, Dst: gnb, Class: MAN, Layer: sink.LayerTelcoToGNB},
		}
	default:
		return []Hop{
			{Src: src, Dst: gnb, Class: Cellular, Layer: sink.LayerPMUToGNB},
		}
	}
}

// HopDelay computes one hop's transfer time:
//
//	t = max(0, dataBits/bandwidth + baseLatency + jitter + distance·k)
func (m *Model) HopDelay(h Hop, sizeBits float64) float64 {
	lp := m.Links[h.Class]
	dist := h.Src.Location().DistanceTo(h.Dst.Location())
	delay := sizeBits/lp.Bandwidth + lp.BaseLatency + m.PropSecM*dist
	if lp.JitterSigma > 0 {
		delay += m.jitter.NormFloat64() * lp.JitterSigma
	}
	return math.Max(0, delay)
}

func (m *Model) startTransfer(s *workload.Sample) {
	var path strings.Builder
	path.WriteString(s.Source.String())
	total := 0.0
	for _, h := range m.PathFor(s.Source) {
		delay := m.HopDelay(h, s.SizeBits)
		s.RecordHop(delay)
		total += delay
		dist := h.Src.Location().DistanceTo(h.Dst.Location())
		fmt.Fprintf(&path, " --%s(%.6fs;%.1fm)--> %s", h.Class, delay, dist, h.Dst)
		// every hop is charged to its layer, regardless of later
		// on-time/late classification
		m.Sink.AddNetworkUsage(h.Layer, s.SizeBits/8/1024)
	}
	s.Path = path.String()
	m.Engine.Schedule(total, m, sim.EventTransferFinished, s)
}
