// Package scenario wires one placement variant into a runnable simulation:
// topology, network model, concentrators, orchestrator, generator, sinks.
package scenario

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nik-tza/pmu-pdc-sim/sim"
	"github.com/nik-tza/pmu-pdc-sim/sim/netmodel"
	"github.com/nik-tza/pmu-pdc-sim/sim/pdc"
	"github.com/nik-tza/pmu-pdc-sim/sim/sink"
	"github.com/nik-tza/pmu-pdc-sim/sim/topology"
	"github.com/nik-tza/pmu-pdc-sim/sim/workload"
)

// tailGrace extends the horizon past the last generation tick so in-flight
// collection windows and analyses can close.
const tailGrace = 10.0

// v1DrainDelay is the historical short drain of the TSO concentrator.
const v1DrainDelay = 0.001

// Config bundles everything needed to build one scenario run.
type Config struct {
	Variant   netmodel.Variant
	Sim       sim.SimulationConfig
	Topo      sim.TopologyConfig
	App       sim.ApplicationConfig
	OutputDir string
}

// Scenario is one fully wired simulation run.
type Scenario struct {
	Cfg        Config
	Engine     *sim.Simulator
	Topo       *topology.Topology
	Model      *netmodel.Model
	Collectors []*pdc.Collector
	Orch       *Orchestrator
	Sink       *sink.CSVSink

	// Samples is the number of measurement samples pre-populated into the
	// scheduler.
	Samples int
}

// New validates the configuration and wires the variant.
func New(cfg Config) (*Scenario, error) {
	if err := cfg.Sim.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.App.Validate(); err != nil {
		return nil, err
	}

	topo, err := topology.Build(&cfg.Sim, &cfg.Topo)
	if err != nil {
		return nil, err
	}

	engine := sim.NewSimulator(cfg.Sim.SimulationTime + tailGrace)
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(topo.PlacementSeed))
	csvSink := sink.NewCSVSink(cfg.OutputDir, cfg.Variant != netmodel.V1)

	s := &Scenario{
		Cfg:    cfg,
		Engine: engine,
		Topo:   topo,
		Sink:   csvSink,
		Orch:   &Orchestrator{Engine: engine, Sink: csvSink},
	}

	params := pdc.AnalysisParams{
		LengthMI:    cfg.Sim.GridAnalysisLengthMI,
		ContainerKB: cfg.App.ContainerSizeKB,
		MaxLatency:  cfg.App.MaxLatency,
	}
	if params.LengthMI <= 0 {
		params.LengthMI = pdc.DefaultAnalysisLengthMI
	}
	ids := pdc.NewIDAllocator()

	byGNB := make(map[int]*pdc.Collector)
	if cfg.Variant == netmodel.V1 {
		drain := cfg.Sim.DrainDelay
		if drain <= 0 {
			drain = v1DrainDelay
		}
		c := pdc.NewCollector(engine, topo.TSO, len(topo.PMUs), cfg.Sim.MaxWait, drain)
		c.Orch = s.Orch
		c.Sink = csvSink
		c.Params = params
		c.IDs = ids
		c.Resolver = topo.ClosestGNB
		s.Collectors = append(s.Collectors, c)
	} else {
		for _, gnb := range topo.GNBs {
			gnb := gnb
			c := pdc.NewCollector(engine, gnb, topo.AssignedPMUCount(gnb), cfg.Sim.MaxWait, cfg.Sim.MaxWait)
			c.Orch = s.Orch
			c.Sink = csvSink
			c.Params = params
			c.IDs = ids
			c.OwnsPMU = func(p *topology.Node) bool { return topo.ClosestGNB(p) == gnb }
			s.Collectors = append(s.Collectors, c)
			byGNB[gnb.ID] = c
		}
	}

	s.Model = netmodel.NewModel(engine, topo, &cfg.Sim, cfg.Variant,
		cfg.Sim.PropagationDelayUsPerM, rng.ForSubsystem(sim.SubsystemJitter), csvSink)
	if cfg.Variant == netmodel.V1 {
		tso := s.Collectors[0]
		s.Model.Resolve = func(src *topology.Node) sim.Entity { return tso }
	} else {
		s.Model.Resolve = func(src *topology.Node) sim.Entity { return byGNB[topo.ClosestGNB(src).ID] }
	}

	engine.Register(s.Model)
	for _, c := range s.Collectors {
		engine.Register(c)
	}
	engine.Register(s.Orch)

	gen := workload.NewGenerator(cfg.App, rng.ForSubsystem(sim.SubsystemTaskSize))
	s.Samples = gen.Populate(engine, s.Model, topo.PMUs, cfg.Sim.SimulationTime)

	return s, nil
}

// Run drives the simulation to completion and flushes the sinks. A
// scheduler fault still flushes what was recorded before returning.
func (s *Scenario) Run() error {
	logrus.Infof("%s: %d PMUs, %d GNBs, %d concentrators, %d samples, max_wait=%.3fs",
		s.Cfg.Variant, len(s.Topo.PMUs), len(s.Topo.GNBs), len(s.Collectors), s.Samples, s.Cfg.Sim.MaxWait)

	runErr := s.Engine.Run()
	if err := s.Sink.Flush(); err != nil {
		logrus.Errorf("%s: flushing sinks: %v", s.Cfg.Variant, err)
	}
	if runErr != nil {
		return fmt.Errorf("simulation halted: %w", runErr)
	}
	s.LogSummary()
	return nil
}
