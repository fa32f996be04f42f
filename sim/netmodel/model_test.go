package netmodel

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nik-tza/pmu-pdc-sim/sim"
	"github.com/nik-tza/pmu-pdc-sim/sim/sink"
	"github.com/nik-tza/pmu-pdc-sim/sim/topology"
	"github.com/nik-tza/pmu-pdc-sim/sim/workload"
)

func node(id int, typ topology.NodeType, x, y float64) *topology.Node {
	return &topology.Node{ID: id, Type: typ, Mob: topology.StaticMobility{Loc: topology.Location{X: x, Y: y}}}
}

func testTopo() *topology.Topology {
	return &topology.Topology{
		PMUs:  []*topology.Node{node(0, topology.NodePMU, 0, 0), node(1, topology.NodePMU, 100, 0)},
		GNBs:  []*topology.Node{node(1, topology.NodeGNB, 50, 0)},
		Telco: node(3, topology.NodeTELCO, 500, 0),
		TSO:   node(10, topology.NodeTSO, 500, 1000),
	}
}

func zeroJitterConfig() *sim.SimulationConfig {
	return &sim.SimulationConfig{
		CellularBandwidth: 1e8,
		ManBandwidth:      1e9,
		WanBandwidth:      1e9,
		CellularLatency:   0.01,
		ManLatency:        0.005,
		WanLatency:        0.03,
	}
}

type captureCollector struct {
	samples []*workload.Sample
	clocks  []float64
	engine  *sim.Simulator
}

func (c *captureCollector) Name() string { return "capture" }
func (c *captureCollector) ProcessEvent(ev *sim.Event) {
	c.samples = append(c.samples, ev.Payload.(*workload.Sample))
	c.clocks = append(c.clocks, c.engine.Clock)
}

func newTestModel(t *testing.T, variant Variant, propUs float64) (*Model, *sim.Simulator, *captureCollector, *sink.CSVSink) {
	t.Helper()
	engine := sim.NewSimulator(100)
	snk := sink.NewCSVSink(t.TempDir(), variant != V1)
	m := NewModel(engine, testTopo(), zeroJitterConfig(), variant, propUs, rand.New(rand.NewSource(1)), snk)
	coll := &captureCollector{engine: engine}
	m.Resolve = func(src *topology.Node) sim.Entity { return coll }
	engine.Register(m)
	return m, engine, coll, snk
}

func TestHopDelay_Formula(t *testing.T) {
	m, _, _, _ := newTestModel(t, V3, 30)
	topo := m.Topo
	h := Hop{Src: topo.PMUs[0], Dst: topo.GNBs[0], Class: Cellular, Layer: sink.LayerPMUToGNB}

	// 16384/1e8 + 0.01 + 50m·30µs/m, σ = 0
	want := 16384.0/1e8 + 0.01 + 50*30e-6
	assert.InDelta(t, want, m.HopDelay(h, 16384), 1e-12)
}

func TestHopDelay_NeverNegative(t *testing.T) {
	engine := sim.NewSimulator(100)
	cfg := zeroJitterConfig()
	cfg.CellularLatency = -10 // force the raw sum negative
	m := NewModel(engine, testTopo(), cfg, V3, 30, rand.New(rand.NewSource(1)), sink.NewCSVSink(t.TempDir(), true))
	h := Hop{Src: m.Topo.PMUs[0], Dst: m.Topo.GNBs[0], Class: Cellular}
	assert.Equal(t, 0.0, m.HopDelay(h, 16384))
}

func TestPathFor_VariantHopLists(t *testing.T) {
	cases := []struct {
		variant Variant
		classes []LinkClass
		layers  []string
	}{
		{V1, []LinkClass{Cellular, MAN, WAN}, []string{sink.LayerPMUToGNB, sink.LayerGNBToTelco, sink.LayerTelcoToTSO}},
		{V2, []LinkClass{Cellular, MAN, MAN}, []string{sink.LayerPMUToGNB, sink.LayerGNBToTelco, sink.LayerTelcoToGNB}},
		{V3, []LinkClass{Cellular}, []string{sink.LayerPMUToGNB}},
	}
	for _, tc := range cases {
		t.Run(string(tc.variant), func(t *testing.T) {
			m, _, _, _ := newTestModel(t, tc.variant, 0)
			hops := m.PathFor(m.Topo.PMUs[0])
			require.Len(t, hops, len(tc.classes))
			for i, h := range hops {
				assert.Equal(t, tc.classes[i], h.Class)
				assert.Equal(t, tc.layers[i], h.Layer)
			}
			// forward path always starts at the PMU through its closest GNB
			assert.Equal(t, m.Topo.PMUs[0], hops[0].Src)
			assert.Equal(t, m.Topo.GNBs[0], hops[0].Dst)
		})
	}
}

func TestPathFor_V2ReturnsToSameGNB(t *testing.T) {
	m, _, _, _ := newTestModel(t, V2, 0)
	hops := m.PathFor(m.Topo.PMUs[0])
	assert.Equal(t, m.Topo.GNBs[0], hops[2].Dst)
	assert.Equal(t, m.Topo.Telco, hops[2].Src)
}

func TestTransfer_HopSumEqualsTotalDelay(t *testing.T) {
	_, engine, coll, _ := newTestModel(t, V1, 4)
	smp := &workload.Sample{ID: 0, GenTime: 0, Source: testTopo().PMUs[0], SizeBits: 16384}
	engine.ScheduleNow(engine.Entities()[0], sim.EventSampleEmitted, smp)
	require.NoError(t, engine.Run())

	require.Len(t, coll.samples, 1)
	got := coll.samples[0]
	require.Len(t, got.HopDelays, 3)
	var sum float64
	for _, d := range got.HopDelays {
		sum += d
	}
	assert.InDelta(t, got.NetworkDelay, sum, 1e-12)
	// delivery happens exactly at generation + total network delay
	assert.InDelta(t, got.GenTime+got.NetworkDelay, coll.clocks[0], 1e-12)
}

func TestTransfer_DeterministicDelayWithZeroJitter(t *testing.T) {
	m, engine, coll, _ := newTestModel(t, V3, 30)
	smp := &workload.Sample{ID: 0, GenTime: 0, Source: m.Topo.PMUs[0], SizeBits: 16384}
	engine.ScheduleNow(m, sim.EventSampleEmitted, smp)
	require.NoError(t, engine.Run())

	want := 16384.0/1e8 + 0.01 + 50*30e-6
	require.Len(t, coll.samples, 1)
	assert.InDelta(t, want, coll.samples[0].NetworkDelay, 1e-12)
}

func TestTransfer_LayerAccountingChargesEveryHop(t *testing.T) {
	m, engine, _, snk := newTestModel(t, V2, 4)
	for _, src := range m.Topo.PMUs {
		smp := &workload.Sample{GenTime: 0, Source: src, SizeBits: 16384}
		engine.ScheduleNow(m, sim.EventSampleEmitted, smp)
	}
	require.NoError(t, engine.Run())

	usage := snk.Usage()
	for _, layer := range []string{sink.LayerPMUToGNB, sink.LayerGNBToTelco, sink.LayerTelcoToGNB} {
		require.Contains(t, usage, layer)
		assert.Equal(t, 2, usage[layer].Count)
		assert.InDelta(t, 4.0, usage[layer].TotalKB, 1e-12) // 2 transfers × 2 KB
	}
	assert.NotContains(t, usage, sink.LayerTelcoToTSO)
}

func TestTransfer_PathStringNamesEveryNode(t *testing.T) {
	m, engine, coll, _ := newTestModel(t, V1, 4)
	smp := &workload.Sample{GenTime: 0, Source: m.Topo.PMUs[0], SizeBits: 16384}
	engine.ScheduleNow(m, sim.EventSampleEmitted, smp)
	require.NoError(t, engine.Run())

	require.Len(t, coll.samples, 1)
	path := coll.samples[0].Path
	for _, part := range []string{"PMU_0", "GNB_1", "TELCO_3", "TSO_10", "CELLULAR", "MAN", "WAN"} {
		assert.Contains(t, path, part)
	}
}

func TestNewModel_DefaultPropagationPerVariant(t *testing.T) {
	mV1, _, _, _ := newTestModel(t, V1, 0)
	mV3, _, _, _ := newTestModel(t, V3, 0)
	assert.InDelta(t, 4e-6, mV1.PropSecM, 1e-15)
	assert.InDelta(t, 30e-6, mV3.PropSecM, 1e-15)
}

func TestJitter_DrawnFromModelRNG(t *testing.T) {
	engine := sim.NewSimulator(100)
	cfg := zeroJitterConfig()
	cfg.CellularJitterMs = 1.0
	m1 := NewModel(engine, testTopo(), cfg, V3, 30, rand.New(rand.NewSource(5)), sink.NewCSVSink(t.TempDir(), true))
	m2 := NewModel(engine, testTopo(), cfg, V3, 30, rand.New(rand.NewSource(5)), sink.NewCSVSink(t.TempDir(), true))
	h := Hop{Src: m1.Topo.PMUs[0], Dst: m1.Topo.GNBs[0], Class: Cellular}

	// identical seeds draw identical jitter; the perturbation is bounded
	// by a few σ around the deterministic part
	d1 := m1.HopDelay(h, 16384)
	d2 := m2.HopDelay(h, 16384)
	assert.Equal(t, d1, d2)
	base := 16384.0/1e8 + 0.01 + 50*30e-6
	assert.Less(t, math.Abs(d1-base), 0.01)
}
