package topology

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nik-tza/pmu-pdc-sim/sim"
)

// TelcoName is the reserved edge-datacenter name identifying the hub.
const TelcoName = "TELCO"

// TSOName is the reserved cloud-datacenter name.
const TSOName = "TSO"

// Topology owns every node of a simulation run. It is fully populated at
// initialization and read-only afterwards.
type Topology struct {
	PMUs  []*Node
	GNBs  []*Node
	Telco *Node
	TSO   *Node

	// PlacementSeed is the seed actually used for PMU placement. Equal to
	// the configured seed unless that was -1, in which case it was drawn
	// from the wall clock once and logged.
	PlacementSeed int64

	closest map[int]*Node // PMU id → closest GNB, memoized
}

// Build constructs the topology from configuration: GNBs, TELCO, and TSO
// from the topology document, PMUs on the shuffled placement grid.
func Build(simCfg *sim.SimulationConfig, topoCfg *sim.TopologyConfig) (*Topology, error) {
	t := &Topology{closest: make(map[int]*Node)}

	for _, dc := range topoCfg.EdgeDatacenters {
		node := newDatacenterNode(dc, NodeGNB)
		if dc.Name == TelcoName {
			if t.Telco != nil {
				return nil, fmt.Errorf("topology: duplicate TELCO entry (ids %d and %d)", t.Telco.ID, dc.ID)
			}
			node.Type = NodeTELCO
			t.Telco = node
			continue
		}
		t.GNBs = append(t.GNBs, node)
	}
	if t.Telco == nil {
		return nil, fmt.Errorf("topology: no TELCO found among edge datacenters")
	}
	if len(t.GNBs) == 0 {
		return nil, fmt.Errorf("topology: no GNBs found among edge datacenters")
	}

	for _, dc := range topoCfg.CloudDatacenters {
		if dc.Name == TSOName {
			t.TSO = newDatacenterNode(dc, NodeTSO)
			break
		}
	}
	if t.TSO == nil {
		return nil, fmt.Errorf("topology: no cloud datacenter named %s", TSOName)
	}

	t.PlacementSeed = simCfg.PmuPlacementSeed
	if t.PlacementSeed < 0 {
		t.PlacementSeed = rand.New(rand.NewSource(time.Now().UnixNano())).Int63()
		logrus.Infof("pmu_placement_seed=-1, drew seed %d for this run", t.PlacementSeed)
	}

	n := simCfg.PMUCount()
	locs := PlacePMUs(n, simCfg.Width, simCfg.Length, t.PlacementSeed)
	for i := 0; i < n; i++ {
		t.PMUs = append(t.PMUs, &Node{
			ID:   i,
			Name: fmt.Sprintf("PMU_%d", i),
			Type: NodePMU,
			Mob:  StaticMobility{Loc: locs[i]},
		})
	}

	for _, p := range t.PMUs {
		if t.ClosestGNB(p) == nil {
			return nil, fmt.Errorf("topology: PMU %d cannot be assigned to a GNB", p.ID)
		}
	}
	return t, nil
}

func newDatacenterNode(dc sim.DatacenterConfig, typ NodeType) *Node {
	return &Node{
		ID:          dc.ID,
		Name:        dc.Name,
		Type:        typ,
		Mob:         StaticMobility{Loc: Location{X: dc.X, Y: dc.Y}},
		Cores:       dc.Cores,
		MIPSPerCore: dc.MIPS,
		RAM:         dc.RAM,
		Storage:     dc.Storage,
	}
}

// ClosestGNB returns the GNB with the smallest Euclidean distance to the
// given PMU, ties broken by lowest node id. The TELCO hub is never a
// candidate. The result is memoized for the simulation lifetime.
func (t *Topology) ClosestGNB(pmu *Node) *Node {
	if t.closest == nil {
		t.closest = make(map[int]*Node)
	}
	if g, ok := t.closest[pmu.ID]; ok {
		return g
	}
	var best *Node
	bestDist := 0.0
	for _, g := range t.GNBs {
		d := pmu.Location().DistanceTo(g.Location())
		if best == nil || d < bestDist || (d == bestDist && g.ID < best.ID) {
			best = g
			bestDist = d
		}
	}
	t.closest[pmu.ID] = best
	return best
}

// AssignedPMUCount returns how many PMUs resolve to the given GNB.
func (t *Topology) AssignedPMUCount(gnb *Node) int {
	count := 0
	for _, p := range t.PMUs {
		if t.ClosestGNB(p) == gnb {
			count++
		}
	}
	return count
}
